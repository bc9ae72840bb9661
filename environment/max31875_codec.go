package environment

import "math"

// max31875LSB is the weight of the least significant magnitude bit in both data formats.
const max31875LSB = 0.0625

const max31875SignBit = 0x80

// fractionBits returns the number of fractional bits held in the lower byte.
// Extended format gives up one fractional bit for a 13-bit range.
func (f Format) fractionBits() uint {
	if f == FormatExtended {
		return 3
	}
	return 4
}

// EncodeTemperature converts celsius into the sign-magnitude register pair
// used by the temperature and threshold registers. The magnitude is truncated
// toward zero to 1/16 degree. Magnitudes that do not fit the 7-bit upper field
// (128C in normal format, 256C in extended) are silently truncated.
func EncodeTemperature(celsius float64, format Format) (upper, lower byte) {
	p := format.fractionBits()
	d := uint64(math.Abs(celsius) * 16)
	upper = byte(d>>(8-p)) & 0x7F
	lower = byte(d << p)
	if celsius < 0 {
		upper |= max31875SignBit
	}
	return upper, lower
}

// DecodeTemperature converts a register pair into degrees Celsius.
// The sign bit only negates the magnitude; the remaining bits are not in two's complement.
func DecodeTemperature(upper, lower byte, format Format) float64 {
	p := format.fractionBits()
	magnitude := uint16(upper&0x7F)<<(8-p) + uint16(lower>>p)
	t := float64(magnitude) * max31875LSB
	if upper&max31875SignBit != 0 {
		return -t
	}
	return t
}

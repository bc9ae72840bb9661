package environment

import (
	"errors"
	"fmt"
)

// ErrInvalidFieldValue is returned when a configuration field is set to a value outside of its domain.
var ErrInvalidFieldValue = errors.New("invalid field value")

// Field identifies a sub-field of the MAX31875 configuration register.
type Field int

const (
	FieldShutdown Field = iota
	FieldAlertMode
	FieldFaultQueue
	FieldConversionRate
	FieldPEC
	FieldTimeout
	FieldResolution
	FieldFormat
)

// Fields lists every writable configuration field in register order.
var Fields = []Field{
	FieldShutdown,
	FieldAlertMode,
	FieldFaultQueue,
	FieldConversionRate,
	FieldPEC,
	FieldTimeout,
	FieldResolution,
	FieldFormat,
}

type fieldLayout struct {
	name  string
	index int // configuration byte
	shift uint
	width uint
}

/*
byte0: D0 shutdown, D1 comparator/interrupt, D4:D3 fault queue, D7 over-temperature status (read only)
byte1: D0 one-shot, D2:D1 conversion rate, D3 PEC, D4 time-out, D6:D5 resolution, D7 data format
*/
var layouts = [...]fieldLayout{
	FieldShutdown:       {name: "shutdown", index: 0, shift: 0, width: 1},
	FieldAlertMode:      {name: "comp/int", index: 0, shift: 1, width: 1},
	FieldFaultQueue:     {name: "fault queue", index: 0, shift: 3, width: 2},
	FieldConversionRate: {name: "conversion rate", index: 1, shift: 1, width: 2},
	FieldPEC:            {name: "PEC", index: 1, shift: 3, width: 1},
	FieldTimeout:        {name: "time-out", index: 1, shift: 4, width: 1},
	FieldResolution:     {name: "resolution", index: 1, shift: 5, width: 2},
	FieldFormat:         {name: "format", index: 1, shift: 7, width: 1},
}

const overTemperatureStatus = 0x80

func (l fieldLayout) max() byte {
	return byte(1<<l.width) - 1
}

func (l fieldLayout) mask() byte {
	return l.max() << l.shift
}

func (f Field) valid() bool {
	return f >= 0 && int(f) < len(layouts)
}

func (f Field) String() string {
	if !f.valid() {
		return fmt.Sprintf("field(%d)", int(f))
	}
	return layouts[f].name
}

// FieldError describes a rejected field update.
type FieldError struct {
	Field Field
	Value byte
}

func (e *FieldError) Error() string {
	if !e.Field.valid() {
		return fmt.Sprintf("max31875: unknown configuration %s", e.Field)
	}
	return fmt.Sprintf("max31875: invalid %s value %d (allowed 0..%d)", e.Field, e.Value, layouts[e.Field].max())
}

func (e *FieldError) Unwrap() error {
	return ErrInvalidFieldValue
}

// Config is the two byte MAX31875 configuration register value.
type Config [2]byte

// DefaultConfig is the power-on-reset configuration: continuous conversion,
// comparator mode, 10-bit resolution, PEC off, normal format.
var DefaultConfig = Config{0x00, 0x40}

// ConfigFromBytes builds a Config from the first two bytes of b.
func ConfigFromBytes(b []byte) Config {
	var c Config
	copy(c[:], b)
	return c
}

// Bytes returns the register value in wire order.
func (c Config) Bytes() []byte {
	return []byte{c[0], c[1]}
}

// Get returns the value of field f.
func (c Config) Get(f Field) byte {
	if !f.valid() {
		return 0
	}
	l := layouts[f]
	return (c[l.index] & l.mask()) >> l.shift
}

// Set updates field f, leaving all other bits untouched. The config is
// unchanged when v is outside the field domain.
func (c *Config) Set(f Field, v byte) error {
	if !f.valid() {
		return &FieldError{Field: f, Value: v}
	}
	l := layouts[f]
	if v > l.max() {
		return &FieldError{Field: f, Value: v}
	}
	c[l.index] = (c[l.index] &^ l.mask()) | (v << l.shift)
	return nil
}

// OverTemperature reports the over-temperature status bit as last read from the device.
func (c Config) OverTemperature() bool {
	return c[0]&overTemperatureStatus != 0
}

// Bits returns both configuration bytes as binary strings.
func (c Config) Bits() []string {
	return []string{fmt.Sprintf("%08b", c[0]), fmt.Sprintf("%08b", c[1])}
}

func (c Config) String() string {
	return fmt.Sprintf("0x%02x%02x", c[0], c[1])
}

func (c Config) Shutdown() ShutdownMode {
	return ShutdownMode(c.Get(FieldShutdown))
}

func (c Config) AlertMode() AlertMode {
	return AlertMode(c.Get(FieldAlertMode))
}

func (c Config) FaultQueue() FaultQueue {
	return FaultQueue(c.Get(FieldFaultQueue))
}

func (c Config) ConversionRate() ConversionRate {
	return ConversionRate(c.Get(FieldConversionRate))
}

func (c Config) PEC() PECMode {
	return PECMode(c.Get(FieldPEC))
}

func (c Config) Timeout() BusTimeout {
	return BusTimeout(c.Get(FieldTimeout))
}

func (c Config) Resolution() Resolution {
	return Resolution(c.Get(FieldResolution))
}

func (c Config) Format() Format {
	return Format(c.Get(FieldFormat))
}

func (c *Config) SetShutdown(v ShutdownMode) error {
	return c.Set(FieldShutdown, byte(v))
}

func (c *Config) SetAlertMode(v AlertMode) error {
	return c.Set(FieldAlertMode, byte(v))
}

func (c *Config) SetFaultQueue(v FaultQueue) error {
	return c.Set(FieldFaultQueue, byte(v))
}

func (c *Config) SetConversionRate(v ConversionRate) error {
	return c.Set(FieldConversionRate, byte(v))
}

func (c *Config) SetPEC(v PECMode) error {
	return c.Set(FieldPEC, byte(v))
}

func (c *Config) SetTimeout(v BusTimeout) error {
	return c.Set(FieldTimeout, byte(v))
}

func (c *Config) SetResolution(v Resolution) error {
	return c.Set(FieldResolution, byte(v))
}

func (c *Config) SetFormat(v Format) error {
	return c.Set(FieldFormat, byte(v))
}

// ShutdownMode selects continuous conversion or shutdown (supply current 1uA or less).
type ShutdownMode byte

const (
	Continuous ShutdownMode = 0
	Shutdown   ShutdownMode = 1
)

func (m ShutdownMode) String() string {
	switch m {
	case Continuous:
		return "continuous"
	case Shutdown:
		return "shutdown"
	default:
		return fmt.Sprintf("ShutdownMode(%d)", byte(m))
	}
}

// AlertMode determines how the over-temperature status bit behaves.
type AlertMode byte

const (
	ModeComparator AlertMode = 0
	ModeInterrupt  AlertMode = 1
)

func (m AlertMode) String() string {
	switch m {
	case ModeComparator:
		return "comparator"
	case ModeInterrupt:
		return "interrupt"
	default:
		return fmt.Sprintf("AlertMode(%d)", byte(m))
	}
}

// FaultQueue selects how many consecutive over-temperature faults must
// occur before the over-temperature status bit is set.
type FaultQueue byte

const (
	FaultQueue1 FaultQueue = iota
	FaultQueue2
	FaultQueue4
	FaultQueue6
)

// Faults returns the number of consecutive faults the setting stands for.
func (q FaultQueue) Faults() int {
	switch q {
	case FaultQueue1:
		return 1
	case FaultQueue2:
		return 2
	case FaultQueue4:
		return 4
	case FaultQueue6:
		return 6
	default:
		return 0
	}
}

// ConversionRate is the number of temperature conversions per second in continuous mode.
type ConversionRate byte

const (
	RateQuarterHertz ConversionRate = iota
	RateOneHertz
	RateFourHertz
	RateEightHertz
)

func (r ConversionRate) Hertz() float64 {
	switch r {
	case RateQuarterHertz:
		return 0.25
	case RateOneHertz:
		return 1
	case RateFourHertz:
		return 4
	case RateEightHertz:
		return 8
	default:
		return 0
	}
}

// PECMode enables the CRC-8 packet error check byte on every transfer.
type PECMode byte

const (
	PECDisabled PECMode = 0
	PECEnabled  PECMode = 1
)

// BusTimeout controls the 30ms SCL-low bus reset. Note the inverted sense of the bit.
type BusTimeout byte

const (
	TimeoutEnabled  BusTimeout = 0
	TimeoutDisabled BusTimeout = 1
)

// Resolution is the conversion resolution.
type Resolution byte

const (
	Resolution8Bit Resolution = iota
	Resolution9Bit
	Resolution10Bit
	Resolution12Bit
)

func (r Resolution) Bits() int {
	switch r {
	case Resolution8Bit:
		return 8
	case Resolution9Bit:
		return 9
	case Resolution10Bit:
		return 10
	case Resolution12Bit:
		return 12
	default:
		return 0
	}
}

// Format selects normal (12-bit, up to +127.9375C) or extended (13-bit, up to +255.9375C) data format.
type Format byte

const (
	FormatNormal   Format = 0
	FormatExtended Format = 1
)

func (f Format) String() string {
	switch f {
	case FormatNormal:
		return "normal"
	case FormatExtended:
		return "extended"
	default:
		return fmt.Sprintf("Format(%d)", byte(f))
	}
}

package environment

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestMAX31875_EncodeTemperature(t *testing.T) {
	tests := []struct {
		celsius float64
		format  Format
		upper   byte
		lower   byte
	}{
		{-25.5, FormatNormal, 0x99, 0x80},
		{0, FormatNormal, 0x00, 0x00},
		{25, FormatNormal, 0x19, 0x00},
		{0.0625, FormatNormal, 0x00, 0x10},
		{127.9375, FormatNormal, 0x7F, 0xF0},
		{75, FormatNormal, 0x4B, 0x00},
		{80, FormatNormal, 0x50, 0x00},
		{-0.0625, FormatNormal, 0x80, 0x10},
		{25, FormatExtended, 0x0C, 0x80},
		{-25.5, FormatExtended, 0x8C, 0xC0},
		{150.125, FormatExtended, 0x4B, 0x10},
		{255.9375, FormatExtended, 0x7F, 0xF8},
		// truncated toward zero, not rounded
		{25.09, FormatNormal, 0x19, 0x10},
		{-25.09, FormatNormal, 0x99, 0x10},
	}
	for _, test := range tests {
		t.Run(fmt.Sprintf("%v/%s", test.celsius, test.format), func(t *testing.T) {
			upper, lower := EncodeTemperature(test.celsius, test.format)
			assert.Equal(t, test.upper, upper, "upper")
			assert.Equal(t, test.lower, lower, "lower")
		})
	}
}

func TestMAX31875_DecodeTemperature(t *testing.T) {
	tests := []struct {
		upper    byte
		lower    byte
		format   Format
		expected float64
	}{
		{0x99, 0x80, FormatNormal, -25.5},
		{0x19, 0x00, FormatNormal, 25},
		{0x7F, 0xF0, FormatNormal, 127.9375},
		{0x00, 0x10, FormatNormal, 0.0625},
		// low nibble is below resolution in normal format
		{0x19, 0x0F, FormatNormal, 25},
		{0x0C, 0x80, FormatExtended, 25},
		{0x7F, 0xF8, FormatExtended, 255.9375},
		{0x8C, 0xC0, FormatExtended, -25.5},
		// same bits, different format
		{0x19, 0x00, FormatExtended, 50},
	}
	for _, test := range tests {
		t.Run(fmt.Sprintf("%02x%02x/%s", test.upper, test.lower, test.format), func(t *testing.T) {
			assert.Equal(t, test.expected, DecodeTemperature(test.upper, test.lower, test.format))
		})
	}
}

func TestMAX31875_TemperatureRoundTrip(t *testing.T) {
	limits := map[Format]int{
		FormatNormal:   0x7FF,
		FormatExtended: 0xFFF,
	}
	for format, limit := range limits {
		for sixteenths := -limit; sixteenths <= limit; sixteenths++ {
			celsius := float64(sixteenths) / 16
			upper, lower := EncodeTemperature(celsius, format)
			decoded := DecodeTemperature(upper, lower, format)
			if decoded != celsius {
				t.Fatalf("%s: %v encoded as %02x%02x decoded to %v", format, celsius, upper, lower, decoded)
			}
		}
	}
}

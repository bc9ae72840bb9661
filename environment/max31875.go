package environment

import (
	"context"
	"encoding/hex"
	"errors"
	"fmt"
	"sync"

	"github.com/mklimuk/tempsensor"
	"github.com/mklimuk/tempsensor/crc"
	"github.com/mklimuk/tempsensor/snsctx"
)

// MAX31875BaseAddress is the bus address of part MAX31875R0. Parts R1..R7 follow consecutively.
const MAX31875BaseAddress = 0x48

const max31875MaxPartNumber = 7

const (
	max31875RegTemperature     byte = 0x00
	max31875RegConfig          byte = 0x01
	max31875RegHysteresis      byte = 0x02
	max31875RegOverTemperature byte = 0x03

	max31875RegisterWidth = 2
)

var ErrChecksumMismatch = errors.New("max31875: PEC checksum mismatch")
var ErrInvalidPartNumber = fmt.Errorf("max31875: part number must be in range 0..%d", max31875MaxPartNumber)

type MAX31875Config struct {
	PartNumber byte
}

type MAX31875Option func(*MAX31875Config)

// WithPartNumber selects the part variant (MAX31875R0..R7), which fixes the bus address.
func WithPartNumber(n byte) MAX31875Option {
	return func(c *MAX31875Config) {
		c.PartNumber = n
	}
}

// MAX31875 represents Maxim MAX31875 low-power I2C temperature sensor
// See: https://datasheets.maximintegrated.com/en/ds/MAX31875.pdf
//
// Configuration changes are buffered: setters update the pending configuration
// and Commit writes it to the device. Getters report the active configuration,
// i.e. the last value written to or read from the device.
//
//	s, _ := NewMAX31875(bus, WithPartNumber(7))
//	_ = s.SetResolution(Resolution10Bit)
//	_ = s.Commit(ctx)
//	t, err := s.GetTemperature(ctx)
type MAX31875 struct {
	mx        sync.Mutex
	transport tempsensor.RegisterBus
	addr      byte
	pending   Config
	active    Config
}

// NewMAX31875 creates a sensor connector for the given register bus. Part number defaults to 0 (address 0x48).
// No bus traffic happens until the first call; use Refresh to load the device configuration.
func NewMAX31875(trans tempsensor.RegisterBus, opts ...MAX31875Option) (*MAX31875, error) {
	config := &MAX31875Config{}
	for _, opt := range opts {
		opt(config)
	}
	if config.PartNumber > max31875MaxPartNumber {
		return nil, ErrInvalidPartNumber
	}
	return &MAX31875{
		transport: trans,
		addr:      MAX31875BaseAddress + config.PartNumber,
		pending:   DefaultConfig,
		active:    DefaultConfig,
	}, nil
}

func (s *MAX31875) Address() byte {
	return s.addr
}

// Pending returns the configuration waiting for Commit.
func (s *MAX31875) Pending() Config {
	s.mx.Lock()
	defer s.mx.Unlock()
	return s.pending
}

// Active returns the configuration last known to match the device.
func (s *MAX31875) Active() Config {
	s.mx.Lock()
	defer s.mx.Unlock()
	return s.active
}

// SetField updates a single field of the pending configuration.
// FieldPEC is routed through SetPEC.
func (s *MAX31875) SetField(f Field, v byte) error {
	if f == FieldPEC {
		if v > byte(PECEnabled) {
			return &FieldError{Field: f, Value: v}
		}
		return s.SetPEC(PECMode(v))
	}
	s.mx.Lock()
	defer s.mx.Unlock()
	return s.pending.Set(f, v)
}

// Field returns a field of the active configuration.
func (s *MAX31875) Field(f Field) byte {
	return s.Active().Get(f)
}

func (s *MAX31875) SetShutdown(m ShutdownMode) error {
	return s.SetField(FieldShutdown, byte(m))
}

func (s *MAX31875) SetAlertMode(m AlertMode) error {
	return s.SetField(FieldAlertMode, byte(m))
}

func (s *MAX31875) SetFaultQueue(q FaultQueue) error {
	return s.SetField(FieldFaultQueue, byte(q))
}

func (s *MAX31875) SetConversionRate(r ConversionRate) error {
	return s.SetField(FieldConversionRate, byte(r))
}

func (s *MAX31875) SetTimeout(t BusTimeout) error {
	return s.SetField(FieldTimeout, byte(t))
}

func (s *MAX31875) SetResolution(r Resolution) error {
	return s.SetField(FieldResolution, byte(r))
}

// SetFormat selects the data format. Temperatures keep being decoded with
// the active format until the change is committed.
func (s *MAX31875) SetFormat(f Format) error {
	return s.SetField(FieldFormat, byte(f))
}

// SetPEC updates the packet error check bit of the pending configuration.
//
// Enabling PEC is the one setter that also changes the active configuration:
// the device expects the CRC byte on the very write that turns PEC on, and the
// transport frames transfers according to the active PEC bit. Disabling only
// touches the pending configuration, so the committing write still carries a
// CRC byte and the active bit clears once that write succeeds.
func (s *MAX31875) SetPEC(p PECMode) error {
	s.mx.Lock()
	defer s.mx.Unlock()
	err := s.pending.SetPEC(p)
	if err != nil {
		return err
	}
	if p == PECEnabled {
		_ = s.active.SetPEC(PECEnabled)
	}
	return nil
}

func (s *MAX31875) Shutdown() ShutdownMode {
	return s.Active().Shutdown()
}

func (s *MAX31875) AlertMode() AlertMode {
	return s.Active().AlertMode()
}

func (s *MAX31875) FaultQueue() FaultQueue {
	return s.Active().FaultQueue()
}

func (s *MAX31875) ConversionRate() ConversionRate {
	return s.Active().ConversionRate()
}

func (s *MAX31875) PEC() PECMode {
	return s.Active().PEC()
}

func (s *MAX31875) Timeout() BusTimeout {
	return s.Active().Timeout()
}

func (s *MAX31875) Resolution() Resolution {
	return s.Active().Resolution()
}

func (s *MAX31875) Format() Format {
	return s.Active().Format()
}

// OverTemperature reports the status bit from the last Refresh.
func (s *MAX31875) OverTemperature() bool {
	return s.Active().OverTemperature()
}

// ConfigBits returns the active configuration as binary strings.
func (s *MAX31875) ConfigBits() []string {
	return s.Active().Bits()
}

// Commit writes the pending configuration to the device. The active
// configuration is only updated when the write succeeds.
func (s *MAX31875) Commit(ctx context.Context) error {
	s.mx.Lock()
	defer s.mx.Unlock()
	err := s.writeRegister(ctx, max31875RegConfig, s.pending.Bytes())
	if err != nil {
		return fmt.Errorf("max31875: could not write configuration: %w", err)
	}
	snsctx.Logger(ctx).DebugContext(ctx, "max31875 configuration committed", "addr", s.addr, "from", s.active, "to", s.pending)
	s.active = s.pending
	return nil
}

// Refresh reads the configuration register into the active configuration.
// The pending configuration is left unchanged.
func (s *MAX31875) Refresh(ctx context.Context) error {
	s.mx.Lock()
	defer s.mx.Unlock()
	buf, err := s.readRegister(ctx, max31875RegConfig)
	if err != nil {
		return fmt.Errorf("max31875: could not read configuration: %w", err)
	}
	s.active = ConfigFromBytes(buf)
	return nil
}

// GetTemperature reads the current temperature in Celsius.
// The extra correction byte the device can return is not supported.
func (s *MAX31875) GetTemperature(ctx context.Context) (float64, error) {
	return s.readTemperature(ctx, max31875RegTemperature)
}

// GetHysteresis reads the hysteresis threshold (T_HYST) in Celsius.
func (s *MAX31875) GetHysteresis(ctx context.Context) (float64, error) {
	return s.readTemperature(ctx, max31875RegHysteresis)
}

// SetHysteresis writes the hysteresis threshold (T_HYST) immediately.
func (s *MAX31875) SetHysteresis(ctx context.Context, celsius float64) error {
	return s.writeTemperature(ctx, max31875RegHysteresis, celsius)
}

// GetOverTemperatureLimit reads the over-temperature threshold (T_OS) in Celsius.
func (s *MAX31875) GetOverTemperatureLimit(ctx context.Context) (float64, error) {
	return s.readTemperature(ctx, max31875RegOverTemperature)
}

// SetOverTemperatureLimit writes the over-temperature threshold (T_OS) immediately.
func (s *MAX31875) SetOverTemperatureLimit(ctx context.Context, celsius float64) error {
	return s.writeTemperature(ctx, max31875RegOverTemperature, celsius)
}

func (s *MAX31875) readTemperature(ctx context.Context, register byte) (float64, error) {
	s.mx.Lock()
	defer s.mx.Unlock()
	buf, err := s.readRegister(ctx, register)
	if err != nil {
		return 0, fmt.Errorf("max31875: could not read %s: %w", registerName(register), err)
	}
	return DecodeTemperature(buf[0], buf[1], s.active.Format()), nil
}

func (s *MAX31875) writeTemperature(ctx context.Context, register byte, celsius float64) error {
	s.mx.Lock()
	defer s.mx.Unlock()
	upper, lower := EncodeTemperature(celsius, s.active.Format())
	err := s.writeRegister(ctx, register, []byte{upper, lower})
	if err != nil {
		return fmt.Errorf("max31875: could not write %s: %w", registerName(register), err)
	}
	return nil
}

// writeRegister sends data to register, appending the PEC byte computed over
// the write address, the register and the data when the active configuration has PEC on.
// Must be called with mx held.
func (s *MAX31875) writeRegister(ctx context.Context, register byte, data []byte) error {
	frame := data
	if s.active.PEC() == PECEnabled {
		sum := crc.Update(0, []byte{s.addr << 1, register})
		sum = crc.Update(sum, data)
		frame = make([]byte, 0, len(data)+1)
		frame = append(frame, data...)
		frame = append(frame, sum)
	}
	snsctx.Logger(ctx).DebugContext(ctx, "max31875 register write", "addr", s.addr, "register", register, "data", hex.EncodeToString(frame))
	return s.transport.WriteRegister(ctx, s.addr, register, frame)
}

// readRegister reads a two byte register. With PEC on one more byte is
// requested and checked against the CRC of write address, register, read
// address and data. A mismatch fails the whole read.
// Must be called with mx held.
func (s *MAX31875) readRegister(ctx context.Context, register byte) ([]byte, error) {
	pec := s.active.PEC() == PECEnabled
	n := max31875RegisterWidth
	if pec {
		n++
	}
	buf := make([]byte, n)
	err := s.transport.ReadRegister(ctx, s.addr, register, buf)
	if err != nil {
		return nil, err
	}
	snsctx.Logger(ctx).DebugContext(ctx, "max31875 register read", "addr", s.addr, "register", register, "data", hex.EncodeToString(buf))
	if !pec {
		return buf, nil
	}
	data := buf[:max31875RegisterWidth]
	sum := crc.Update(0, []byte{s.addr << 1, register, s.addr<<1 + 1})
	sum = crc.Update(sum, data)
	if sum != buf[max31875RegisterWidth] {
		return nil, fmt.Errorf("%w: register %#x received %#x, computed %#x", ErrChecksumMismatch, register, buf[max31875RegisterWidth], sum)
	}
	return data, nil
}

func registerName(register byte) string {
	switch register {
	case max31875RegTemperature:
		return "temperature"
	case max31875RegConfig:
		return "configuration"
	case max31875RegHysteresis:
		return "hysteresis"
	case max31875RegOverTemperature:
		return "over-temperature limit"
	default:
		return fmt.Sprintf("register %#x", register)
	}
}

// Package sim provides in-memory device models usable wherever a register bus is expected.
// They let drivers and the CLI run without hardware.
package sim

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/mklimuk/tempsensor"
	"github.com/mklimuk/tempsensor/crc"
	"github.com/mklimuk/tempsensor/environment"
)

var (
	ErrNoDevice        = errors.New("sim: no device at address (nack)")
	ErrInvalidRegister = errors.New("sim: invalid register")
	ErrReadOnly        = errors.New("sim: register is read only")
	ErrFrameLength     = errors.New("sim: unexpected frame length")
	ErrPECRequired     = errors.New("sim: PEC byte required")
	ErrPECMismatch     = errors.New("sim: PEC byte mismatch")
)

var _ tempsensor.RegisterBus = &MAX31875{}

// TemperatureBehaviorFunc produces the temperature the simulated device
// converts when its temperature register is read.
type TemperatureBehaviorFunc func(ctx context.Context) (float64, error)

const (
	regTemperature byte = iota
	regConfig
	regHysteresis
	regOverTemperature
	registerCount
)

// read-only status bit and write-only one-shot trigger
const (
	configStatusMask  = 0x80
	configOneShotMask = 0x01
)

// Transfer records a single transaction seen by the simulated device.
type Transfer struct {
	Write    bool
	Register byte
	Data     []byte
}

// MAX31875 simulates the register file of a MAX31875 including PEC framing:
// when its PEC bit is set every write must carry a valid CRC byte, and reads one
// byte longer than the register get the CRC appended. A write carrying a CRC
// byte is always checked, which is how the device accepts the write that turns PEC on.
type MAX31875 struct {
	mx          sync.Mutex
	addr        byte
	regs        [registerCount][2]byte
	temperature TemperatureBehaviorFunc
	corrupt     int
	failNext    error
	transfers   []Transfer
}

type Option func(*MAX31875)

// WithTemperature sets the behavior used to fill the temperature register.
func WithTemperature(behavior TemperatureBehaviorFunc) Option {
	return func(d *MAX31875) {
		d.temperature = behavior
	}
}

// NewMAX31875 creates a simulated device answering at 0x48 + partNumber with power-on-reset register values.
func NewMAX31875(partNumber byte, opts ...Option) *MAX31875 {
	d := &MAX31875{
		addr: environment.MAX31875BaseAddress + partNumber,
	}
	d.regs[regConfig] = environment.DefaultConfig
	// POR thresholds: T_HYST 75C, T_OS 80C
	d.regs[regHysteresis] = [2]byte{0x4B, 0x00}
	d.regs[regOverTemperature] = [2]byte{0x50, 0x00}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

func (d *MAX31875) Address() byte {
	return d.addr
}

// SetTemperature stores a fixed temperature in the temperature register
// using the current data format. A behavior function, if set, takes precedence.
func (d *MAX31875) SetTemperature(celsius float64) {
	d.mx.Lock()
	defer d.mx.Unlock()
	d.storeTemperature(celsius)
}

// SetOverTemperature sets or clears the over-temperature status bit.
func (d *MAX31875) SetOverTemperature(on bool) {
	d.mx.Lock()
	defer d.mx.Unlock()
	if on {
		d.regs[regConfig][0] |= configStatusMask
	} else {
		d.regs[regConfig][0] &^= configStatusMask
	}
}

// Register returns the raw content of a register.
func (d *MAX31875) Register(register byte) [2]byte {
	d.mx.Lock()
	defer d.mx.Unlock()
	if register >= registerCount {
		return [2]byte{}
	}
	return d.regs[register]
}

// Config returns the configuration register as the driver models it.
func (d *MAX31875) Config() environment.Config {
	return environment.Config(d.Register(regConfig))
}

// CorruptReads makes the next n PEC reads return a wrong CRC byte.
func (d *MAX31875) CorruptReads(n int) {
	d.mx.Lock()
	defer d.mx.Unlock()
	d.corrupt = n
}

// FailNext makes the next transfer fail with err without touching any register.
func (d *MAX31875) FailNext(err error) {
	d.mx.Lock()
	defer d.mx.Unlock()
	d.failNext = err
}

// Transfers returns all transactions seen so far.
func (d *MAX31875) Transfers() []Transfer {
	d.mx.Lock()
	defer d.mx.Unlock()
	out := make([]Transfer, len(d.transfers))
	copy(out, d.transfers)
	return out
}

func (d *MAX31875) ReadRegister(ctx context.Context, address, register byte, buffer []byte) error {
	d.mx.Lock()
	defer d.mx.Unlock()
	if err := d.check(address, register); err != nil {
		return err
	}
	if len(buffer) < 1 || len(buffer) > 3 {
		return fmt.Errorf("%w: read of %d bytes", ErrFrameLength, len(buffer))
	}
	if register == regTemperature && d.temperature != nil {
		t, err := d.temperature(ctx)
		if err != nil {
			return fmt.Errorf("sim: temperature behavior failed: %w", err)
		}
		d.storeTemperature(t)
	}
	reg := d.regs[register]
	n := copy(buffer, reg[:])
	if len(buffer) == 3 {
		buffer[2] = 0xFF
		if d.pec() {
			sum := crc.CRC8([]byte{d.addr << 1, register, d.addr<<1 + 1, reg[0], reg[1]})
			if d.corrupt > 0 {
				d.corrupt--
				sum = ^sum
			}
			buffer[2] = sum
		}
		n = 3
	}
	d.transfers = append(d.transfers, Transfer{Register: register, Data: append([]byte(nil), buffer[:n]...)})
	return nil
}

func (d *MAX31875) WriteRegister(ctx context.Context, address, register byte, data []byte) error {
	d.mx.Lock()
	defer d.mx.Unlock()
	if err := d.check(address, register); err != nil {
		return err
	}
	d.transfers = append(d.transfers, Transfer{Write: true, Register: register, Data: append([]byte(nil), data...)})
	if register == regTemperature {
		return ErrReadOnly
	}
	switch len(data) {
	case 2:
		if d.pec() {
			return ErrPECRequired
		}
	case 3:
		sum := crc.CRC8([]byte{d.addr << 1, register, data[0], data[1]})
		if sum != data[2] {
			return fmt.Errorf("%w: received %#x, computed %#x", ErrPECMismatch, data[2], sum)
		}
	default:
		return fmt.Errorf("%w: write of %d bytes", ErrFrameLength, len(data))
	}
	if register == regConfig {
		status := d.regs[regConfig][0] & configStatusMask
		d.regs[regConfig] = [2]byte{data[0]&^configStatusMask | status, data[1] &^ configOneShotMask}
		return nil
	}
	d.regs[register] = [2]byte{data[0], data[1]}
	return nil
}

// check validates a transaction, consuming an injected failure. Must be called with mx held.
func (d *MAX31875) check(address, register byte) error {
	if d.failNext != nil {
		err := d.failNext
		d.failNext = nil
		return err
	}
	if address != d.addr {
		return fmt.Errorf("%w: %#x", ErrNoDevice, address)
	}
	if register >= registerCount {
		return fmt.Errorf("%w: %#x", ErrInvalidRegister, register)
	}
	return nil
}

func (d *MAX31875) pec() bool {
	return environment.Config(d.regs[regConfig]).PEC() == environment.PECEnabled
}

func (d *MAX31875) storeTemperature(celsius float64) {
	format := environment.Config(d.regs[regConfig]).Format()
	upper, lower := environment.EncodeTemperature(celsius, format)
	d.regs[regTemperature] = [2]byte{upper, lower}
}

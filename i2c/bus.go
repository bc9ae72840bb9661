package i2c

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/mklimuk/tempsensor"
	"periph.io/x/conn/v3/i2c"
	"periph.io/x/conn/v3/i2c/i2creg"
	"periph.io/x/conn/v3/physic"
	"periph.io/x/host/v3"
)

var _ tempsensor.I2CBus = &GenericBus{}
var _ tempsensor.RegisterBus = &GenericBus{}

// GenericBus drives a host I2C bus (e.g. /dev/i2c-1) through periph.
type GenericBus struct {
	bus i2c.BusCloser
}

func NewGenericBus(dev string) (*GenericBus, error) {
	state, err := host.Init()
	if err != nil {
		return nil, fmt.Errorf("could not init host: %w", err)
	}
	for _, driver := range state.Loaded {
		slog.Debug("periph driver loaded", "driver", driver.String())
	}
	bus, err := i2creg.Open(dev)
	if err != nil {
		return nil, fmt.Errorf("could not open i2c bus: %w", err)
	}
	return NewBus(bus), nil
}

// NewBus wraps an already opened periph bus.
func NewBus(bus i2c.BusCloser) *GenericBus {
	return &GenericBus{bus: bus}
}

// SetSpeed changes the bus clock frequency.
func (b *GenericBus) SetSpeed(f physic.Frequency) error {
	return b.bus.SetSpeed(f)
}

func (b *GenericBus) ReadFromAddr(ctx context.Context, address byte, buffer []byte) error {
	err := b.bus.Tx(uint16(address), nil, buffer)
	if err != nil {
		return fmt.Errorf("could not read from i2c bus %x: %w", address, err)
	}
	return nil
}

func (b *GenericBus) WriteToAddr(ctx context.Context, address byte, buffer []byte) error {
	err := b.bus.Tx(uint16(address), buffer, nil)
	if err != nil {
		return fmt.Errorf("could not write to i2c bus %x: %w", address, err)
	}
	return nil
}

// ReadRegister writes the register pointer and reads buffer back in one
// combined transaction (repeated start), as SMBus block reads do.
func (b *GenericBus) ReadRegister(ctx context.Context, address, register byte, buffer []byte) error {
	err := b.bus.Tx(uint16(address), []byte{register}, buffer)
	if err != nil {
		return fmt.Errorf("could not read register %#x from i2c bus %x: %w", register, address, err)
	}
	return nil
}

func (b *GenericBus) WriteRegister(ctx context.Context, address, register byte, data []byte) error {
	frame := make([]byte, 0, len(data)+1)
	frame = append(frame, register)
	frame = append(frame, data...)
	err := b.bus.Tx(uint16(address), frame, nil)
	if err != nil {
		return fmt.Errorf("could not write register %#x on i2c bus %x: %w", register, address, err)
	}
	return nil
}

func (b *GenericBus) Release(ctx context.Context) error {
	return nil
}

func (b *GenericBus) Close() error {
	return b.bus.Close()
}

package tempsensor

import (
	"context"
	"fmt"
)

var ErrBusBusy = fmt.Errorf("I2C engine is busy (command not completed)")

type AddressableReader interface {
	ReadFromAddr(ctx context.Context, address byte, buffer []byte) error
}

type AddressableWriter interface {
	WriteToAddr(ctx context.Context, address byte, buffer []byte) error
	Release(ctx context.Context) error
}

// I2CBus is a raw addressable bus: every call is a single start/stop transfer.
type I2CBus interface {
	AddressableReader
	AddressableWriter
}

// RegisterReader reads len(buffer) bytes starting at register of the device at address.
type RegisterReader interface {
	ReadRegister(ctx context.Context, address, register byte, buffer []byte) error
}

// RegisterWriter writes data to register of the device at address.
type RegisterWriter interface {
	WriteRegister(ctx context.Context, address, register byte, data []byte) error
}

// RegisterBus is the block-transfer contract register mapped devices are driven through.
type RegisterBus interface {
	RegisterReader
	RegisterWriter
}

// NewRegisterBus adapts a raw I2CBus to register transfers. Reads set the
// register pointer with a separate write, so devices relying on a repeated
// start should use a bus implementing RegisterBus natively.
func NewRegisterBus(bus I2CBus) RegisterBus {
	return &pointerBus{bus: bus}
}

type pointerBus struct {
	bus I2CBus
}

func (b *pointerBus) ReadRegister(ctx context.Context, address, register byte, buffer []byte) error {
	err := b.bus.WriteToAddr(ctx, address, []byte{register})
	if err != nil {
		return fmt.Errorf("could not set register pointer %#x: %w", register, err)
	}
	err = b.bus.ReadFromAddr(ctx, address, buffer)
	if err != nil {
		return fmt.Errorf("could not read register %#x: %w", register, err)
	}
	return nil
}

func (b *pointerBus) WriteRegister(ctx context.Context, address, register byte, data []byte) error {
	frame := make([]byte, 0, len(data)+1)
	frame = append(frame, register)
	frame = append(frame, data...)
	err := b.bus.WriteToAddr(ctx, address, frame)
	if err != nil {
		return fmt.Errorf("could not write register %#x: %w", register, err)
	}
	return nil
}

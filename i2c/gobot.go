package i2c

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"gobot.io/x/gobot/v2/drivers/i2c"

	"github.com/mklimuk/tempsensor"
)

var _ tempsensor.I2CBus = &GobotBus{}
var _ tempsensor.RegisterBus = &GobotBus{}

// Conn is the subset of a gobot i2c.Connection the bus relies on.
type Conn interface {
	Read(b []byte) (int, error)
	Write(b []byte) (int, error)
	ReadBlockData(reg uint8, b []byte) error
	WriteBlockData(reg uint8, b []byte) error
	Close() error
}

type DialFunc func(address int, bus int) (Conn, error)

// GobotBus talks to devices through a gobot platform adaptor, e.g. the
// nanopi NEO. Connections are opened lazily and kept per address.
type GobotBus struct {
	mx    sync.Mutex
	busNr int
	dial  DialFunc
	conns map[byte]Conn
}

func NewGobotBus(connector i2c.Connector, busNr int) *GobotBus {
	return NewGobotBusWithDialer(func(address int, bus int) (Conn, error) {
		return connector.GetI2cConnection(address, bus)
	}, busNr)
}

func NewGobotBusWithDialer(dial DialFunc, busNr int) *GobotBus {
	return &GobotBus{
		busNr: busNr,
		dial:  dial,
		conns: make(map[byte]Conn),
	}
}

func (b *GobotBus) conn(address byte) (Conn, error) {
	if c, ok := b.conns[address]; ok {
		return c, nil
	}
	c, err := b.dial(int(address), b.busNr)
	if err != nil {
		return nil, fmt.Errorf("could not open connection to %x on bus %d: %w", address, b.busNr, err)
	}
	b.conns[address] = c
	return c, nil
}

func (b *GobotBus) ReadFromAddr(ctx context.Context, address byte, buffer []byte) error {
	b.mx.Lock()
	defer b.mx.Unlock()
	c, err := b.conn(address)
	if err != nil {
		return err
	}
	n, err := c.Read(buffer)
	if err != nil {
		return fmt.Errorf("could not read from %x: %w", address, err)
	}
	if n != len(buffer) {
		return fmt.Errorf("short read from %x: %d of %d", address, n, len(buffer))
	}
	return nil
}

func (b *GobotBus) WriteToAddr(ctx context.Context, address byte, buffer []byte) error {
	b.mx.Lock()
	defer b.mx.Unlock()
	c, err := b.conn(address)
	if err != nil {
		return err
	}
	_, err = c.Write(buffer)
	if err != nil {
		return fmt.Errorf("could not write to %x: %w", address, err)
	}
	return nil
}

func (b *GobotBus) ReadRegister(ctx context.Context, address, register byte, buffer []byte) error {
	b.mx.Lock()
	defer b.mx.Unlock()
	c, err := b.conn(address)
	if err != nil {
		return err
	}
	err = c.ReadBlockData(register, buffer)
	if err != nil {
		return fmt.Errorf("could not read register %#x from %x: %w", register, address, err)
	}
	return nil
}

func (b *GobotBus) WriteRegister(ctx context.Context, address, register byte, data []byte) error {
	b.mx.Lock()
	defer b.mx.Unlock()
	c, err := b.conn(address)
	if err != nil {
		return err
	}
	err = c.WriteBlockData(register, data)
	if err != nil {
		return fmt.Errorf("could not write register %#x on %x: %w", register, address, err)
	}
	return nil
}

func (b *GobotBus) Release(ctx context.Context) error {
	return nil
}

// Close drops every cached connection.
func (b *GobotBus) Close() error {
	b.mx.Lock()
	defer b.mx.Unlock()
	var errs []error
	for addr, c := range b.conns {
		if err := c.Close(); err != nil {
			errs = append(errs, fmt.Errorf("close %x: %w", addr, err))
		}
		delete(b.conns, addr)
	}
	return errors.Join(errs...)
}

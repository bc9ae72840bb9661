package i2c

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"periph.io/x/conn/v3/i2c"
	"periph.io/x/conn/v3/i2c/i2ctest"

	"github.com/mklimuk/tempsensor/environment"
)

const addr = 0x48

type nopCloser struct {
	i2c.Bus
}

func (nopCloser) Close() error { return nil }

func TestGenericBus_RegisterTransfers(t *testing.T) {
	pb := &i2ctest.Playback{
		Ops: []i2ctest.IO{
			{Addr: addr, W: []byte{0x01, 0x00, 0x60}},
			{Addr: addr, W: []byte{0x00}, R: []byte{0x19, 0x40}},
		},
		DontPanic: true,
	}
	bus := NewBus(pb)
	ctx := context.Background()

	require.NoError(t, bus.WriteRegister(ctx, addr, 0x01, []byte{0x00, 0x60}))
	buf := make([]byte, 2)
	require.NoError(t, bus.ReadRegister(ctx, addr, 0x00, buf))
	assert.Equal(t, []byte{0x19, 0x40}, buf)
	require.NoError(t, bus.Close())
}

func TestGenericBus_UnexpectedTransfer(t *testing.T) {
	pb := &i2ctest.Playback{
		Ops:       []i2ctest.IO{{Addr: addr, W: []byte{0x00}, R: []byte{0x19, 0x40}}},
		DontPanic: true,
	}
	bus := NewBus(pb)
	err := bus.ReadRegister(context.Background(), addr, 0x02, make([]byte, 2))
	assert.Error(t, err)
}

// the driver issues one combined transaction per register access
func TestGenericBus_MAX31875(t *testing.T) {
	pb := &i2ctest.Playback{
		Ops: []i2ctest.IO{
			{Addr: addr, W: []byte{0x01}, R: []byte{0x00, 0x40}},
			{Addr: addr, W: []byte{0x00}, R: []byte{0x99, 0x80}},
			{Addr: addr, W: []byte{0x03, 0x50, 0x00}},
		},
		DontPanic: true,
	}
	record := &i2ctest.Record{Bus: pb}
	s, err := environment.NewMAX31875(NewBus(nopCloser{record}))
	require.NoError(t, err)
	ctx := context.Background()

	require.NoError(t, s.Refresh(ctx))
	temp, err := s.GetTemperature(ctx)
	require.NoError(t, err)
	assert.Equal(t, -25.5, temp)
	require.NoError(t, s.SetOverTemperatureLimit(ctx, 80))
	assert.Len(t, record.Ops, 3)
	assert.NoError(t, pb.Close())
}

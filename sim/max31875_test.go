package sim

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mklimuk/tempsensor/crc"
)

func TestMAX31875_PowerOnReset(t *testing.T) {
	d := NewMAX31875(0)
	assert.Equal(t, byte(0x48), d.Address())
	assert.Equal(t, [2]byte{0x00, 0x40}, d.Register(regConfig))
	assert.Equal(t, [2]byte{0x4B, 0x00}, d.Register(regHysteresis))
	assert.Equal(t, [2]byte{0x50, 0x00}, d.Register(regOverTemperature))
}

func TestMAX31875_WrongAddress(t *testing.T) {
	d := NewMAX31875(7)
	err := d.ReadRegister(context.Background(), 0x48, regConfig, make([]byte, 2))
	assert.ErrorIs(t, err, ErrNoDevice)
}

func TestMAX31875_TemperatureBehavior(t *testing.T) {
	calls := 0
	d := NewMAX31875(0, WithTemperature(func(ctx context.Context) (float64, error) {
		calls++
		return -25.5, nil
	}))
	buf := make([]byte, 2)
	require.NoError(t, d.ReadRegister(context.Background(), 0x48, regTemperature, buf))
	assert.Equal(t, []byte{0x99, 0x80}, buf)
	assert.Equal(t, 1, calls)
}

func TestMAX31875_TemperatureBehaviorError(t *testing.T) {
	sensorErr := errors.New("sensor malfunction")
	d := NewMAX31875(0, WithTemperature(func(ctx context.Context) (float64, error) {
		return 0, sensorErr
	}))
	err := d.ReadRegister(context.Background(), 0x48, regTemperature, make([]byte, 2))
	assert.ErrorIs(t, err, sensorErr)
}

func TestMAX31875_TemperatureIsReadOnly(t *testing.T) {
	d := NewMAX31875(0)
	err := d.WriteRegister(context.Background(), 0x48, regTemperature, []byte{0x01, 0x00})
	assert.ErrorIs(t, err, ErrReadOnly)
}

func TestMAX31875_PECTransition(t *testing.T) {
	ctx := context.Background()
	d := NewMAX31875(0)

	// enabling write carries the CRC byte although PEC is still off
	withPEC := []byte{0x00, 0x48, crc.CRC8([]byte{0x90, 0x01, 0x00, 0x48})}
	require.NoError(t, d.WriteRegister(ctx, 0x48, regConfig, withPEC))
	assert.Equal(t, [2]byte{0x00, 0x48}, d.Register(regConfig))

	// once on, plain writes are refused
	err := d.WriteRegister(ctx, 0x48, regHysteresis, []byte{0x10, 0x00})
	assert.ErrorIs(t, err, ErrPECRequired)

	buf := make([]byte, 3)
	require.NoError(t, d.ReadRegister(ctx, 0x48, regConfig, buf))
	assert.Equal(t, crc.CRC8([]byte{0x90, 0x01, 0x91, 0x00, 0x48}), buf[2])
}

func TestMAX31875_PECMismatchOnWrite(t *testing.T) {
	d := NewMAX31875(0)
	err := d.WriteRegister(context.Background(), 0x48, regConfig, []byte{0x00, 0x48, 0x00})
	assert.ErrorIs(t, err, ErrPECMismatch)
	assert.Equal(t, [2]byte{0x00, 0x40}, d.Register(regConfig))
}

func TestMAX31875_CorruptReads(t *testing.T) {
	ctx := context.Background()
	d := NewMAX31875(0)
	require.NoError(t, d.WriteRegister(ctx, 0x48, regConfig, []byte{0x00, 0x48, 0xC2}))
	d.CorruptReads(1)

	good := crc.CRC8([]byte{0x90, 0x01, 0x91, 0x00, 0x48})
	buf := make([]byte, 3)
	require.NoError(t, d.ReadRegister(ctx, 0x48, regConfig, buf))
	assert.NotEqual(t, good, buf[2])
	require.NoError(t, d.ReadRegister(ctx, 0x48, regConfig, buf))
	assert.Equal(t, good, buf[2])
}

func TestMAX31875_StatusBitIsReadOnly(t *testing.T) {
	ctx := context.Background()
	d := NewMAX31875(0)
	d.SetOverTemperature(true)
	require.NoError(t, d.WriteRegister(ctx, 0x48, regConfig, []byte{0x01, 0x41}))
	// status kept, one-shot trigger not latched
	assert.Equal(t, [2]byte{0x81, 0x40}, d.Register(regConfig))
	assert.True(t, d.Config().OverTemperature())
}

func TestMAX31875_FailNext(t *testing.T) {
	busErr := errors.New("arbitration lost")
	d := NewMAX31875(0)
	d.FailNext(busErr)
	err := d.WriteRegister(context.Background(), 0x48, regConfig, []byte{0x01, 0x40})
	assert.ErrorIs(t, err, busErr)
	assert.Equal(t, [2]byte{0x00, 0x40}, d.Register(regConfig))
	assert.Empty(t, d.Transfers())
}

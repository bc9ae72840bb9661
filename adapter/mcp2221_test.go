package adapter

import (
	"context"
	"errors"
	"io"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mklimuk/tempsensor"
	"github.com/mklimuk/tempsensor/environment"
)

// fakeHID answers each request with the next queued report.
type fakeHID struct {
	requests  [][]byte
	responses [][]byte
	closed    int
}

func (f *fakeHID) Write(p []byte) (int, error) {
	f.requests = append(f.requests, append([]byte(nil), p...))
	return len(p), nil
}

func (f *fakeHID) Read(p []byte) (int, error) {
	if len(f.responses) == 0 {
		return 0, io.EOF
	}
	copy(p, f.responses[0])
	f.responses = f.responses[1:]
	return reportSize, nil
}

func (f *fakeHID) Close() error {
	f.closed++
	return nil
}

func (f *fakeHID) queue(report ...byte) {
	f.responses = append(f.responses, report)
}

func newTestAdapter(f *fakeHID) *MCP2221 {
	return NewMCP2221(WithResponseWait(0), WithOpener(func(ctx context.Context) (io.ReadWriteCloser, error) {
		return f, nil
	}))
}

func TestMCP2221_ReadRegister(t *testing.T) {
	f := &fakeHID{}
	f.queue(cmdWriteDataNoStop, 0x00)
	f.queue(cmdReadDataRepeated, 0x00)
	f.queue(cmdGetI2CData, 0x00, 0x00, 0x02, 0x19, 0x40)
	d := newTestAdapter(f)

	buf := make([]byte, 2)
	require.NoError(t, d.ReadRegister(context.Background(), 0x48, 0x00, buf))
	assert.Equal(t, []byte{0x19, 0x40}, buf)

	require.Len(t, f.requests, 3)
	assert.Equal(t, []byte{cmdWriteDataNoStop, 0x01, 0x00, 0x90, 0x00}, f.requests[0][:5])
	assert.Equal(t, []byte{cmdReadDataRepeated, 0x02, 0x00, 0x91}, f.requests[1][:4])
	assert.Equal(t, cmdGetI2CData, f.requests[2][0])
	for _, req := range f.requests {
		assert.Len(t, req, reportSize)
	}
	assert.Equal(t, 3, f.closed)
}

func TestMCP2221_WriteRegister(t *testing.T) {
	f := &fakeHID{}
	f.queue(cmdWriteData, 0x00)
	d := newTestAdapter(f)

	require.NoError(t, d.WriteRegister(context.Background(), 0x49, 0x01, []byte{0x00, 0x48, 0xC2}))
	require.Len(t, f.requests, 1)
	assert.Equal(t, []byte{cmdWriteData, 0x04, 0x00, 0x92, 0x01, 0x00, 0x48, 0xC2}, f.requests[0][:8])
}

func TestMCP2221_Busy(t *testing.T) {
	f := &fakeHID{}
	f.queue(cmdWriteData, responseBusy)
	d := newTestAdapter(f)

	err := d.WriteToAddr(context.Background(), 0x48, []byte{0x01})
	assert.ErrorIs(t, err, tempsensor.ErrBusBusy)
}

func TestMCP2221_ReadErrors(t *testing.T) {
	t.Run("engine error", func(t *testing.T) {
		f := &fakeHID{}
		f.queue(cmdReadData, 0x00)
		f.queue(cmdGetI2CData, responseReadError)
		err := newTestAdapter(f).ReadFromAddr(context.Background(), 0x48, make([]byte, 2))
		assert.ErrorIs(t, err, ErrCommandFailed)
	})
	t.Run("short data", func(t *testing.T) {
		f := &fakeHID{}
		f.queue(cmdReadData, 0x00)
		f.queue(cmdGetI2CData, 0x00, 0x00, 0x01, 0x19)
		err := newTestAdapter(f).ReadFromAddr(context.Background(), 0x48, make([]byte, 2))
		assert.ErrorContains(t, err, "invalid data size byte")
	})
	t.Run("no response", func(t *testing.T) {
		f := &fakeHID{}
		err := newTestAdapter(f).ReadFromAddr(context.Background(), 0x48, make([]byte, 2))
		assert.ErrorIs(t, err, io.EOF)
	})
}

func TestMCP2221_OpenFailure(t *testing.T) {
	d := NewMCP2221(WithOpener(func(ctx context.Context) (io.ReadWriteCloser, error) {
		return nil, ErrDeviceNotFound
	}))
	_, err := d.Status(context.Background())
	assert.ErrorIs(t, err, ErrDeviceNotFound)
}

func TestMCP2221_StatusAndRelease(t *testing.T) {
	report := make([]byte, reportSize)
	report[0] = cmdStatus
	report[9], report[10] = 0x03, 0x00
	report[11], report[12] = 0x02, 0x00
	report[13] = 4
	report[14] = 0x76
	report[15] = 0x0A
	report[16], report[17] = 0x90, 0x00
	report[25] = 1
	f := &fakeHID{}
	f.queue(report...)
	f.queue(report...)
	d := newTestAdapter(f)

	status, err := d.Status(context.Background())
	require.NoError(t, err)
	assert.Equal(t, &MCP2221Status{
		I2CDataBufferCounter:   4,
		I2CSpeedDivider:        0x76,
		I2CTimeout:             0x0A,
		CurrentAddress:         "9000",
		LastWriteRequestedSize: 3,
		LastWriteSentSize:      2,
		ReadPending:            1,
	}, status)

	require.NoError(t, d.Release(context.Background()))
	assert.Equal(t, statusCancelTransfer, f.requests[1][2])
}

func TestMCP2221_Cancelled(t *testing.T) {
	f := &fakeHID{}
	f.queue(cmdStatus)
	d := NewMCP2221(WithResponseWait(time.Hour), WithOpener(func(ctx context.Context) (io.ReadWriteCloser, error) {
		return f, nil
	}))
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := d.Status(ctx)
	assert.True(t, errors.Is(err, context.Canceled))
	assert.Equal(t, 1, f.closed)
}

func TestMCP2221_DrivesMAX31875(t *testing.T) {
	f := &fakeHID{}
	f.queue(cmdWriteDataNoStop, 0x00)
	f.queue(cmdReadDataRepeated, 0x00)
	f.queue(cmdGetI2CData, 0x00, 0x00, 0x02, 0x4B, 0x00)
	s, err := environment.NewMAX31875(newTestAdapter(f))
	require.NoError(t, err)

	limit, err := s.GetOverTemperatureLimit(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 75.0, limit)
	assert.Equal(t, byte(0x03), f.requests[0][4])
}

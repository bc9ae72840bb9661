package tempsensor

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type mockI2CBus struct {
	mock.Mock
}

func (m *mockI2CBus) WriteToAddr(ctx context.Context, address byte, buffer []byte) error {
	args := m.Called(ctx, address, buffer)
	return args.Error(0)
}

func (m *mockI2CBus) ReadFromAddr(ctx context.Context, address byte, buffer []byte) error {
	args := m.Called(ctx, address, buffer)
	if data, ok := args.Get(0).([]byte); ok {
		copy(buffer, data)
	}
	return args.Error(1)
}

func (m *mockI2CBus) Release(ctx context.Context) error {
	return m.Called(ctx).Error(0)
}

func TestRegisterBus_Read(t *testing.T) {
	bus := new(mockI2CBus)
	bus.On("WriteToAddr", mock.Anything, byte(0x48), []byte{0x02}).Return(nil).Once()
	bus.On("ReadFromAddr", mock.Anything, byte(0x48), mock.Anything).Return([]byte{0x4B, 0x00}, nil).Once()

	buf := make([]byte, 2)
	err := NewRegisterBus(bus).ReadRegister(context.Background(), 0x48, 0x02, buf)
	require.NoError(t, err)
	assert.Equal(t, []byte{0x4B, 0x00}, buf)
	bus.AssertExpectations(t)
}

func TestRegisterBus_Write(t *testing.T) {
	bus := new(mockI2CBus)
	bus.On("WriteToAddr", mock.Anything, byte(0x4F), []byte{0x01, 0x00, 0x40, 0xFA}).Return(nil).Once()

	err := NewRegisterBus(bus).WriteRegister(context.Background(), 0x4F, 0x01, []byte{0x00, 0x40, 0xFA})
	require.NoError(t, err)
	bus.AssertExpectations(t)
}

func TestRegisterBus_PointerWriteFailure(t *testing.T) {
	busErr := errors.New("nack")
	bus := new(mockI2CBus)
	bus.On("WriteToAddr", mock.Anything, byte(0x48), []byte{0x00}).Return(busErr).Once()

	err := NewRegisterBus(bus).ReadRegister(context.Background(), 0x48, 0x00, make([]byte, 2))
	assert.ErrorIs(t, err, busErr)
	bus.AssertNotCalled(t, "ReadFromAddr", mock.Anything, mock.Anything, mock.Anything)
}

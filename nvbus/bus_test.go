package nvbus

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSimBusReadWriteRoundTrip(t *testing.T) {
	bus := NewSimBus(1024)
	require.NoError(t, bus.WriteBytes(DeviceA, 100, []byte{1, 2, 3, 4}))
	got, err := bus.ReadBytes(DeviceA, 100, 4)
	require.NoError(t, err)
	assert.Equal(t, []byte{1, 2, 3, 4}, got)

	// Device B is independent storage.
	gotB, err := bus.ReadBytes(DeviceB, 100, 4)
	require.NoError(t, err)
	assert.Equal(t, []byte{0, 0, 0, 0}, gotB)
}

func TestSimBusDeadDevice(t *testing.T) {
	bus := NewSimBus(1024)
	bus.SetFaults([]Fault{{Device: DeviceB, Dead: true}})

	_, err := bus.ReadBytes(DeviceB, 0, 4)
	assert.ErrorIs(t, err, ErrDeviceUnavailable)

	_, err = bus.ReadBytes(DeviceA, 0, 4)
	assert.NoError(t, err)
}

func TestSimBusBitFlip(t *testing.T) {
	bus := NewSimBus(1024)
	require.NoError(t, bus.WriteBytes(DeviceA, 0, []byte{0x00, 0x00}))
	bus.SetFaults([]Fault{{Device: DeviceA, Addr: 0, Width: 2, FlipBits: []byte{0x01, 0x00}}})

	got, err := bus.ReadBytes(DeviceA, 0, 2)
	require.NoError(t, err)
	assert.Equal(t, []byte{0x01, 0x00}, got)
}

func TestSimBusOutOfBounds(t *testing.T) {
	bus := NewSimBus(4)
	_, err := bus.ReadBytes(DeviceA, 2, 4)
	assert.Error(t, err)
}

func TestDecodeFaultProfile(t *testing.T) {
	doc := []byte(`
faults:
  - device: A
    addr: 20
    width: 4
    flip_bits_hex: "01000000"
  - device: B
    dead: true
`)
	faults, err := DecodeFaultProfile(doc)
	require.NoError(t, err)
	require.Len(t, faults, 2)
	assert.Equal(t, DeviceA, faults[0].Device)
	assert.Equal(t, []byte{0x01, 0x00, 0x00, 0x00}, faults[0].FlipBits)
	assert.True(t, faults[1].Dead)
}

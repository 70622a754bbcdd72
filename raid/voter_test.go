package raid

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cubesat-fc/satstate/nvbus"
)

func TestLongestSameByteRun(t *testing.T) {
	assert.Equal(t, 0, LongestSameByteRun(nil))
	assert.Equal(t, 1, LongestSameByteRun([]byte{1, 2, 3}))
	assert.Equal(t, 3, LongestSameByteRun([]byte{1, 1, 1, 2}))
	assert.Equal(t, 4, LongestSameByteRun([]byte{0xFF, 0xFF, 0xFF, 0xFF}))
	assert.Equal(t, 2, LongestSameByteRun([]byte{1, 1, 2, 2}))
}

func TestVoterWriteThenReadAgreesHighConfidence(t *testing.T) {
	bus := nvbus.NewSimBus(1024)
	v := New(bus, nil)

	require.NoError(t, v.Write(20, 4, []byte{1, 2, 3, 4}))
	got, conf, err := v.Read(20, 4)
	require.NoError(t, err)
	assert.Equal(t, []byte{1, 2, 3, 4}, got)
	assert.Equal(t, ConfidenceHigh, conf)
}

// Seed case 1: single-copy bit flip in NV-A.
func TestVoterSingleCopyBitFlipNVA(t *testing.T) {
	bus := nvbus.NewSimBus(1024)
	v := New(bus, nil)
	require.NoError(t, v.Write(20, 4, []byte{0x01, 0x02, 0x03, 0x04}))

	bus.SetFaults([]nvbus.Fault{{Device: nvbus.DeviceA, Addr: 20, Width: 4, FlipBits: []byte{0x01}}})

	got, conf, err := v.Read(20, 4)
	require.NoError(t, err)
	assert.Equal(t, []byte{0x01, 0x02, 0x03, 0x04}, got)
	assert.Equal(t, ConfidenceLow, conf)
}

// Seed case 2: entire NV-B device dead.
func TestVoterDeadDeviceB(t *testing.T) {
	bus := nvbus.NewSimBus(1024)
	v := New(bus, nil)
	require.NoError(t, v.Write(30, 1, []byte{7}))

	bus.SetFaults([]nvbus.Fault{{Device: nvbus.DeviceB, Dead: true}})

	got, conf, err := v.Read(30, 1)
	require.NoError(t, err)
	assert.Equal(t, []byte{7}, got)
	assert.Equal(t, ConfidenceLow, conf)
}

// Seed case 3: all four copies diverge except A2==B1.
func TestVoterCrossMatchA2B1(t *testing.T) {
	bus := nvbus.NewSimBus(1024)
	require.NoError(t, bus.WriteBytes(nvbus.DeviceA, 100, []byte{0xAA, 0xAA, 0xAA, 0xAA}))
	require.NoError(t, bus.WriteBytes(nvbus.DeviceA, 104, []byte{9, 9, 9, 9}))
	require.NoError(t, bus.WriteBytes(nvbus.DeviceB, 100, []byte{9, 9, 9, 9}))
	require.NoError(t, bus.WriteBytes(nvbus.DeviceB, 104, []byte{0xBB, 0xBB, 0xBB, 0xBB}))

	v := New(bus, nil)
	got, conf, err := v.Read(100, 4)
	require.NoError(t, err)
	assert.Equal(t, []byte{9, 9, 9, 9}, got)
	assert.Equal(t, ConfidenceHigh, conf)
}

func TestVoterAllDisagreeNoCrossMatchReturnsFailed(t *testing.T) {
	bus := nvbus.NewSimBus(1024)
	require.NoError(t, bus.WriteBytes(nvbus.DeviceA, 100, []byte{1, 1, 1, 1}))
	require.NoError(t, bus.WriteBytes(nvbus.DeviceA, 104, []byte{2, 2, 2, 2}))
	require.NoError(t, bus.WriteBytes(nvbus.DeviceB, 100, []byte{3, 3, 3, 3}))
	require.NoError(t, bus.WriteBytes(nvbus.DeviceB, 104, []byte{4, 4, 4, 4}))

	v := New(bus, nil)
	got, conf, err := v.Read(100, 4)
	require.NoError(t, err)
	assert.Equal(t, []byte{1, 1, 1, 1}, got)
	assert.Equal(t, ConfidenceFailed, conf)
}

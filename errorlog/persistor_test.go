package errorlog

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cubesat-fc/satstate/nvbus"
	"github.com/cubesat-fc/satstate/raid"
)

func TestPersistorFlushAndPopulateRoundTrip(t *testing.T) {
	bus := nvbus.NewSimBus(4096)
	voter := raid.New(bus, nil)
	p := NewPersistor(voter, nil, 3000, 3004, 16)

	stack := NewStack(16)
	stack.Push(Record{Code: 1, Timestamp: 10})
	stack.Push(Record{Code: 2, Timestamp: 20, Priority: true})

	require.NoError(t, p.Flush(stack, time.Second, true))

	reloaded := NewStack(16)
	require.NoError(t, p.Populate(reloaded))
	snap, ok := reloaded.Snapshot(time.Second)
	require.True(t, ok)
	require.Len(t, snap, 2)
	assert.Equal(t, uint8(1), snap[0].Code)
	assert.Equal(t, uint8(2), snap[1].Code)
}

func TestPersistorPopulateClampsOverflow(t *testing.T) {
	bus := nvbus.NewSimBus(4096)
	voter := raid.New(bus, nil)
	// Write a stored count larger than maxEntries directly through the bus.
	require.NoError(t, voter.Write(3000, 1, []byte{200}))

	p := NewPersistor(voter, nil, 3000, 3004, 16)
	stack := NewStack(16)
	require.NoError(t, p.Populate(stack))
	assert.Equal(t, 16, stack.Len())
}

func TestPersistorFlushEmptyStack(t *testing.T) {
	bus := nvbus.NewSimBus(4096)
	voter := raid.New(bus, nil)
	p := NewPersistor(voter, nil, 3000, 3004, 16)

	stack := NewStack(16)
	require.NoError(t, p.Flush(stack, time.Second, true))

	reloaded := NewStack(16)
	require.NoError(t, p.Populate(reloaded))
	assert.Equal(t, 0, reloaded.Len())
}

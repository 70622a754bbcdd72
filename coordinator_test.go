package satstate

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cubesat-fc/satstate/nvbus"
)

func newTestCoordinator(bus nvbus.Bus, nowMillis func() uint64) *Coordinator {
	cfg := Config{
		Bus:         bus,
		NowMillis:   nowMillis,
		GetSatState: func() SatState { return SatStateIdle },
	}
	c := New(cfg)
	c.Init()
	return c
}

func TestCoordinatorFlushThenLoadRoundTrip(t *testing.T) {
	bus := nvbus.NewSimBus(200000)
	now := uint64(0)
	c := newTestCoordinator(bus, func() uint64 { return now })

	ok := c.IncrementRebootCount()
	require.True(t, ok)

	reloaded := newTestCoordinator(bus, func() uint64 { return now })
	reloaded.Load()

	assert.Equal(t, uint8(1), reloaded.State().RebootCount)
}

// Seed case: reboot_count after N successful boots equals initial + N.
func TestCoordinatorIncrementRebootCountAccumulates(t *testing.T) {
	bus := nvbus.NewSimBus(200000)
	now := uint64(0)
	c := newTestCoordinator(bus, func() uint64 { return now })

	for i := 0; i < 3; i++ {
		require.True(t, c.IncrementRebootCount())
	}
	assert.Equal(t, uint8(3), c.State().RebootCount)
}

// Seed case 6: event-history monotonicity through the coordinator.
func TestCoordinatorUpdateSatEventHistoryMonotonic(t *testing.T) {
	bus := nvbus.NewSimBus(200000)
	now := uint64(0)
	c := newTestCoordinator(bus, func() uint64 { return now })

	require.True(t, c.UpdateSatEventHistory(SatEventHistory{AntennaDeployed: true}))
	require.True(t, c.UpdateSatEventHistory(SatEventHistory{AntennaDeployed: false, Lion1Charged: true}))

	got := c.State().EventHistory
	assert.True(t, got.AntennaDeployed)
	assert.True(t, got.Lion1Charged)
}

// corruptReadBus wraps a SimBus but always returns a fixed corrupted value
// for reads at corruptAddr (and its copy-2 mirror), regardless of what was
// actually written, simulating a device that reports stale data on readback.
type corruptReadBus struct {
	*nvbus.SimBus
	corruptAddr  uint32
	corruptWidth int
	corruptValue []byte
}

func (b *corruptReadBus) ReadBytes(dev nvbus.Device, addr uint32, width int) ([]byte, error) {
	if width == b.corruptWidth && (addr == b.corruptAddr || addr == b.corruptAddr+uint32(width)) {
		return append([]byte(nil), b.corruptValue...), nil
	}
	return b.SimBus.ReadBytes(dev, addr, width)
}

// Seed case 5: monotonic-clock guard. A confirmed flush whose read-back
// reports a secs_since_launch smaller than what was written must roll the
// cache back to its pre-flush timestamp and tick.
func TestCoordinatorFlushConfirmRollsBackOnClockRegression(t *testing.T) {
	base := nvbus.NewSimBus(200000)
	bus := &corruptReadBus{
		SimBus:       base,
		corruptAddr:  AddrSecsSinceLaunch,
		corruptWidth: 4,
		corruptValue: EncodeUint32(50),
	}
	now := uint64(5000)
	c := newTestCoordinator(bus, func() uint64 { return now })

	c.primary.SecsSinceLaunch = 100
	require.NoError(t, c.tmrVoter.SyncRedundancy(c.primary, c.copy2, c.copy3))
	c.tb.update(100, 0)
	c.storeSnapshot()

	ok := c.Flush(true)
	require.True(t, ok)

	assert.Equal(t, uint32(100), c.State().SecsSinceLaunch)
}

func TestCoordinatorFlushEmergencySkipsWhenLockHeld(t *testing.T) {
	bus := nvbus.NewSimBus(200000)
	now := uint64(0)
	c := newTestCoordinator(bus, func() uint64 { return now })

	c.mu.Lock()
	ok := c.FlushEmergency(true)
	c.mu.Unlock()
	assert.False(t, ok)
}

func TestCoordinatorFlushCustomWritesOnlyNamedFields(t *testing.T) {
	bus := nvbus.NewSimBus(200000)
	now := uint64(0)
	c := newTestCoordinator(bus, func() uint64 { return now })

	c.primary.RadioReviveTimestamp = 777
	c.primary.RebootCount = 9
	require.NoError(t, c.tmrVoter.SyncRedundancy(c.primary, c.copy2, c.copy3))
	require.True(t, c.FlushCustom(FieldRadioReviveTimestamp))

	voter := c.voter
	got, _, err := voter.Read(AddrRadioReviveTimestamp, 4)
	require.NoError(t, err)
	assert.Equal(t, uint32(777), DecodeUint32(got))

	// reboot_count was not named, so NV still holds its zero value.
	untouched, _, err := voter.Read(AddrRebootCount, 1)
	require.NoError(t, err)
	assert.Equal(t, []byte{0}, untouched)
}

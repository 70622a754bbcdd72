package satstate

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSatEventHistoryEncodeDecodeRoundTrip(t *testing.T) {
	h := SatEventHistory{AntennaDeployed: true, LifepoB2Charged: true, FirstFlash: true}
	got := DecodeSatEventHistory(h.Encode())
	assert.Equal(t, h, got)
}

// Seed case 6: event-history monotonicity.
func TestSatEventHistoryMergeNeverClears(t *testing.T) {
	pre := SatEventHistory{AntennaDeployed: true, Lion1Charged: false}
	update := SatEventHistory{AntennaDeployed: false, Lion1Charged: true}
	got := pre.Merge(update)
	assert.True(t, got.AntennaDeployed)
	assert.True(t, got.Lion1Charged)
}

func TestSatEventHistoryEqual(t *testing.T) {
	a := SatEventHistory{AntennaDeployed: true}
	b := SatEventHistory{AntennaDeployed: true}
	c := SatEventHistory{AntennaDeployed: false}
	assert.True(t, a.Equal(b))
	assert.False(t, a.Equal(c))
}

func TestPersistentChargingDataEqualComparesBothOperands(t *testing.T) {
	a := PersistentChargingData{LiCausedReboot: 1}
	b := PersistentChargingData{LiCausedReboot: -1}
	assert.False(t, a.Equal(b))
	assert.True(t, a.Equal(a))
}

func TestSatErrorEncodeDecodeRoundTrip(t *testing.T) {
	e := SatError{Code: 3, Priority: true, Timestamp: 99999, Data: 42}
	got := DecodeSatError(EncodeSatError(e))
	assert.Equal(t, e, got)
}

func TestPersistentStateBytesLoadBytesRoundTrip(t *testing.T) {
	s := PersistentState{
		SecsSinceLaunch:      1000,
		RebootCount:          5,
		SatState:             SatStateIdle,
		EventHistory:         SatEventHistory{FirstFlash: true},
		ProgMemRewritten:     true,
		RadioReviveTimestamp: 2000,
		ChargingData:         PersistentChargingData{LiCausedReboot: -1},
	}
	var got PersistentState
	require.NoError(t, got.LoadBytes(s.Bytes()))
	assert.True(t, s.Equal(got))
}

func TestPersistentStateEqualDetectsDivergence(t *testing.T) {
	a := PersistentState{RebootCount: 1}
	b := PersistentState{RebootCount: 2}
	assert.False(t, a.Equal(b))
}

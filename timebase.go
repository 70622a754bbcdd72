package satstate

import "sync/atomic"

// timebase computes wall-clock-since-launch from the last persisted
// timestamp plus scheduler ticks (C6). secsSinceLaunch and lastWriteMillis
// are updated as a pair by exactly one writer (the coordinator, under
// bus_cache_lock); concurrent readers never take a lock, instead retrying
// around a spin flag, matching the single-hardware-thread contract spec
// section 4.6 and section 9 describe. busy plays the role of
// time_fields_busy: Go's memory model gives atomic.Bool the acquire/release
// ordering spec section 9 asks for in place of the original's bare word
// read/write plus manual barrier.
type timebase struct {
	busy            atomic.Bool
	secsSinceLaunch atomic.Uint32
	lastWriteMillis atomic.Uint64
	nowMillis       func() uint64
}

func newTimebase(nowMillis func() uint64) *timebase {
	return &timebase{nowMillis: nowMillis}
}

// update sets both fields as one logical unit, guarded by the busy flag.
func (t *timebase) update(secsSinceLaunch uint32, lastWriteMillis uint64) {
	t.busy.Store(true)
	t.secsSinceLaunch.Store(secsSinceLaunch)
	t.lastWriteMillis.Store(lastWriteMillis)
	t.busy.Store(false)
}

// snapshot reads both fields consistently, retrying if a writer was mid
// update at either end of the read.
func (t *timebase) snapshot() (secsSinceLaunch uint32, lastWriteMillis uint64) {
	for {
		if t.busy.Load() {
			continue
		}
		secs := t.secsSinceLaunch.Load()
		lastMs := t.lastWriteMillis.Load()
		if t.busy.Load() {
			continue
		}
		return secs, lastMs
	}
}

// NowSeconds returns secs_since_launch plus elapsed whole seconds since the
// last flush stamped the timebase.
func (t *timebase) NowSeconds() uint32 {
	secs, lastMs := t.snapshot()
	elapsedMs := t.nowMillis() - lastMs
	return secs + uint32(elapsedMs/1000)
}

// NowMillis is NowSeconds' millisecond-precision counterpart.
func (t *timebase) NowMillis() uint64 {
	secs, lastMs := t.snapshot()
	elapsedMs := t.nowMillis() - lastMs
	return uint64(secs)*1000 + elapsedMs
}

// OrbitsSinceLaunch returns the number of whole orbital periods elapsed
// since launch, per the original header's get_orbits_since_launch.
func (t *timebase) OrbitsSinceLaunch() uint16 {
	return uint16(t.NowSeconds() / OrbitalPeriodSeconds)
}

// PassedOrbitFraction returns true when the current orbit-fraction bucket
// differs from *prevBucket, and records the new bucket, so it fires once per
// bucket change; a zero-valued prevBucket does not fire for bucket 0.
// prevBucket is caller-owned so independent callers can track independent
// fraction sequences with different denominators, mirroring
// at_orbit_fraction(&prev_orbit_fraction, denom) in the original: the
// bucket formula is reproduced exactly as the original computes it,
// including the denom factor that appears in both numerator and
// denominator.
func (t *timebase) PassedOrbitFraction(prevBucket *uint64, denom uint64) bool {
	now := uint64(t.NowSeconds())
	bucket := (now * denom) / (uint64(OrbitalPeriodSeconds) * denom)
	if bucket != *prevBucket {
		*prevBucket = bucket
		return true
	}
	return false
}

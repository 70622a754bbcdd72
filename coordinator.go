package satstate

import (
	"sync"
	"sync/atomic"
	"time"

	"github.com/cubesat-fc/satstate/errorlog"
	"github.com/cubesat-fc/satstate/metrics"
	"github.com/cubesat-fc/satstate/nvbus"
	"github.com/cubesat-fc/satstate/raid"
	"github.com/cubesat-fc/satstate/satlog"
	"github.com/cubesat-fc/satstate/tmr"
)

// Config wires a Coordinator to its external collaborators: the NV bus
// driver, the task that knows the satellite's current operating mode, and
// the scheduler's monotonic tick source. These are exactly the "external
// collaborators" spec section 1 places out of scope for this module.
type Config struct {
	Bus     nvbus.Bus
	Logger  satlog.Logger
	Metrics *metrics.Metrics

	// GetSatState returns the satellite's current operating mode, sampled
	// at the start of every full flush.
	GetSatState func() SatState

	// NowMillis returns a monotonically increasing millisecond tick count
	// since an arbitrary epoch (the scheduler tick counter in the
	// original). Required.
	NowMillis func() uint64

	// LockTimeout bounds bus_cache_lock and error-stack mutex acquisition.
	// Defaults to MutexWaitTimeout.
	LockTimeout time.Duration

	// MaxErrors bounds the in-RAM error stack. Defaults to ErrorStackMax.
	MaxErrors int
}

func (c Config) lockTimeout() time.Duration {
	if c.LockTimeout > 0 {
		return c.LockTimeout
	}
	return MutexWaitTimeout
}

func (c Config) maxErrors() int {
	if c.MaxErrors > 0 {
		return c.MaxErrors
	}
	return ErrorStackMax
}

// Coordinator owns the single coarse lock serialising access to the NV bus
// and the RAM redundancy trio (C5). It is the persistent-state singleton
// spec section 9 asks be rearchitected out of the original's module-level
// globals: constructed once via New, threaded through callers by
// reference.
type Coordinator struct {
	cfg    Config
	logger satlog.Logger

	mu sync.Mutex // bus_cache_lock

	voter    *raid.Voter
	tmrVoter *tmr.Voter

	errStack     *errorlog.Stack
	errPersistor *errorlog.Persistor

	tb *timebase

	primary *PersistentState
	copy2   *PersistentState
	copy3   *PersistentState

	snapshot atomic.Value // PersistentState, for lock-free accessor reads
}

// New constructs a Coordinator in the UNINITIALISED state; call Init before
// any other method.
func New(cfg Config) *Coordinator {
	logger := cfg.Logger
	if logger == nil {
		logger = satlog.NopLogger{}
	}
	c := &Coordinator{
		cfg:      cfg,
		logger:   logger,
		voter:    raid.New(cfg.Bus, logger),
		tmrVoter: tmr.New(logger),
		errStack: errorlog.NewStack(cfg.maxErrors()),
		primary:  &PersistentState{},
		copy2:    &PersistentState{},
		copy3:    &PersistentState{},
	}
	c.errPersistor = errorlog.NewPersistor(c.voter, logger, AddrErrorCount, AddrErrorLog, cfg.maxErrors())
	c.tb = newTimebase(cfg.NowMillis)
	return c
}

// Init zeroes the cache trio and the error stack so callers who read before
// Load observe well-defined values, and wires the timebase to the current
// tick. The NV driver and chip-selects are the caller's responsibility
// (part of building the Bus passed into Config); this module only ever
// issues byte-addressed reads and writes against it.
func (c *Coordinator) Init() {
	c.mu.Lock()
	defer c.mu.Unlock()
	*c.primary = PersistentState{}
	*c.copy2 = PersistentState{}
	*c.copy3 = PersistentState{}
	c.errStack.Replace(nil)
	c.tb.update(0, c.cfg.NowMillis())
	c.storeSnapshot()
}

func (c *Coordinator) storeSnapshot() {
	c.snapshot.Store(*c.primary)
}

// State returns a value copy of the cached record. Readers take no lock;
// they observe the most recent snapshot published by a completed mutation,
// not synchronized with any in-flight writer (spec section 5).
func (c *Coordinator) State() PersistentState {
	v := c.snapshot.Load()
	if v == nil {
		return PersistentState{}
	}
	return v.(PersistentState)
}

// lockBounded acquires bus_cache_lock with a bounded wait, polling TryLock
// against a deadline since sync.Mutex has no native bounded-wait primitive.
func (c *Coordinator) lockBounded() bool {
	deadline := time.Now().Add(c.cfg.lockTimeout())
	for {
		if c.mu.TryLock() {
			return true
		}
		if time.Now().After(deadline) {
			return false
		}
		time.Sleep(time.Millisecond)
	}
}

// Load reads every field through the RAID voter into the primary cache
// copy, reloads the error log, then resynchronises the RAM redundancy
// trio. On a lock-acquire timeout it logs and returns with the cache left
// zeroed, an acceptable fallback per spec section 4.4.
func (c *Coordinator) Load() {
	if !c.lockBounded() {
		c.logger.Log(satlog.LocationCoordinator, satlog.CodeMutexTimeout, false)
		c.cfg.Metrics.LockTimeout("bus_cache")
		return
	}
	for _, id := range AllFieldIDs() {
		d := fieldDescriptors[id]
		buf, conf, err := c.voter.Read(d.Address, d.Width)
		if err != nil {
			continue
		}
		if conf == raid.ConfidenceFailed {
			c.cfg.Metrics.RAIDFailed()
		}
		_ = d.Decode(c.primary, buf)
	}
	if err := c.errPersistor.Populate(c.errStack); err != nil {
		c.logger.Log(satlog.LocationErrorLog, satlog.CodeBadData, false)
	}
	c.tb.update(c.primary.SecsSinceLaunch, c.cfg.NowMillis())
	c.mu.Unlock()

	c.lockAndSyncRedundancy()
	c.storeSnapshot()
}

// lockAndSyncRedundancy acquires bus_cache_lock itself and resynchronises
// the trio. Load is the only caller: spec section 4.4 has it release the
// lock before the post-load sync_redundancy call, unlike every other
// mutation path in this file where sync_redundancy runs with the lock
// already held.
func (c *Coordinator) lockAndSyncRedundancy() {
	c.mu.Lock()
	defer c.mu.Unlock()
	_ = c.tmrVoter.SyncRedundancy(c.primary, c.copy2, c.copy3)
}

func (c *Coordinator) correctErrorsLocked() {
	kind := "minority"
	if !c.primary.Equal(*c.copy2) && !c.copy2.Equal(*c.copy3) && !c.primary.Equal(*c.copy3) {
		kind = "all_diverge"
	}
	corrected, _ := c.tmrVoter.CorrectErrors(c.primary, c.copy2, c.copy3)
	if corrected {
		c.cfg.Metrics.TMRCorrected(kind)
	}
}

// Flush performs the full write-out described in spec section 4.4,
// acquiring bus_cache_lock itself.
func (c *Coordinator) Flush(confirm bool) bool {
	if !c.lockBounded() {
		c.logger.Log(satlog.LocationCoordinator, satlog.CodeMutexTimeout, false)
		c.cfg.Metrics.LockTimeout("bus_cache")
		return false
	}
	defer c.mu.Unlock()
	c.flushLocked(confirm)
	return true
}

// flushLocked assumes bus_cache_lock is already held by the caller, per the
// "_unsafe"/caller-holds-lock convention spec section 9 calls out.
func (c *Coordinator) flushLocked(confirm bool) {
	c.correctErrorsLocked()

	preSecs := c.primary.SecsSinceLaunch
	_, preLastMs := c.tb.snapshot()

	if c.cfg.GetSatState != nil {
		c.primary.SatState = c.cfg.GetSatState()
	}
	newSecs := c.tb.NowSeconds()
	newLastMs := c.cfg.NowMillis()
	c.primary.SecsSinceLaunch = newSecs
	c.tb.update(newSecs, newLastMs)

	_ = c.tmrVoter.SyncRedundancy(c.primary, c.copy2, c.copy3)

	for _, id := range AllFieldIDs() {
		d := fieldDescriptors[id]
		buf, err := EncodeField(id, *c.primary)
		if err != nil {
			continue
		}
		if err := c.voter.Write(d.Address, d.Width, buf); err != nil {
			c.logger.Log(satlog.LocationCoordinator, satlog.CodeBadData, false)
		}
	}
	if err := c.errPersistor.Flush(c.errStack, c.cfg.lockTimeout(), confirm); err != nil {
		c.logger.Log(satlog.LocationErrorLog, satlog.CodeBadData, false)
	}

	if confirm {
		c.confirmWrite(preSecs, preLastMs)
	}

	_ = c.tmrVoter.SyncRedundancy(c.primary, c.copy2, c.copy3)
	c.storeSnapshot()
	c.cfg.Metrics.Flush("full")
}

// confirmWrite reads each field back and compares against the cache,
// logging INCONSISTENT_DATA on mismatch. For secs_since_launch specifically
// it additionally guards the monotonic clock invariant: a read-back that is
// strictly less than what was just written rolls the cache back to its
// pre-flush timestamp and tick.
func (c *Coordinator) confirmWrite(preSecs uint32, preLastMs uint64) {
	mismatch := false
	for _, id := range AllFieldIDs() {
		d := fieldDescriptors[id]
		buf, _, err := c.voter.Read(d.Address, d.Width)
		if err != nil {
			mismatch = true
			continue
		}
		want, _ := EncodeField(id, *c.primary)
		if string(buf) != string(want) {
			mismatch = true
			if id == FieldSecsSinceLaunch {
				gotSecs := DecodeUint32(buf)
				if gotSecs < c.primary.SecsSinceLaunch {
					c.primary.SecsSinceLaunch = preSecs
					c.tb.update(preSecs, preLastMs)
				}
			}
		}
	}
	if mismatch {
		c.logger.Log(satlog.LocationCoordinator, satlog.CodeInconsistentData, false)
	}
}

// FlushEmergency is the reduced, non-blocking flush path for ISR contexts
// (spec section 4.4): a failed non-blocking lock acquire means the
// interrupt returns without writing, and it never spins. It skips the
// error-log write entirely to minimize work during an imminent power-loss
// event, and skips confirmation.
func (c *Coordinator) FlushEmergency(fromISR bool) bool {
	if !c.mu.TryLock() {
		return false
	}
	defer c.mu.Unlock()

	c.correctErrorsLocked()
	if c.cfg.GetSatState != nil {
		c.primary.SatState = c.cfg.GetSatState()
	}
	newSecs := c.tb.NowSeconds()
	newLastMs := c.cfg.NowMillis()
	c.primary.SecsSinceLaunch = newSecs
	c.tb.update(newSecs, newLastMs)

	_ = c.tmrVoter.SyncRedundancy(c.primary, c.copy2, c.copy3)

	for _, id := range AllFieldIDs() {
		d := fieldDescriptors[id]
		buf, err := EncodeField(id, *c.primary)
		if err != nil {
			continue
		}
		if err := c.voter.Write(d.Address, d.Width, buf); err != nil {
			c.logger.Log(satlog.LocationCoordinator, satlog.CodeBadData, false)
		}
	}
	c.storeSnapshot()
	c.cfg.Metrics.Flush("emergency")
	return true
}

func (c *Coordinator) setterLocked(apply func()) bool {
	if !c.lockBounded() {
		c.logger.Log(satlog.LocationCoordinator, satlog.CodeMutexTimeout, false)
		c.cfg.Metrics.LockTimeout("bus_cache")
		return false
	}
	defer c.mu.Unlock()
	c.correctErrorsLocked()
	apply()
	_ = c.tmrVoter.SyncRedundancy(c.primary, c.copy2, c.copy3)
	c.flushLocked(true)
	return true
}

// IncrementRebootCount increments the saturating reboot counter exactly
// once per boot cycle that successfully reaches storage init.
func (c *Coordinator) IncrementRebootCount() bool {
	return c.setterLocked(func() {
		if c.primary.RebootCount < 255 {
			c.primary.RebootCount++
		}
	})
}

// SetRadioReviveTimestamp sets the future wall-clock at which the radio may
// be re-enabled.
func (c *Coordinator) SetRadioReviveTimestamp(ts uint32) bool {
	return c.setterLocked(func() {
		c.primary.RadioReviveTimestamp = ts
	})
}

// UpdateSatEventHistory applies the monotonic latch: every TRUE bit in
// update moves the corresponding stored bit from false to true; a FALSE
// input never clears a stored TRUE bit.
func (c *Coordinator) UpdateSatEventHistory(update SatEventHistory) bool {
	return c.setterLocked(func() {
		c.primary.EventHistory = c.primary.EventHistory.Merge(update)
	})
}

// SetPersistentChargingData overwrites the charging-persistence record.
func (c *Coordinator) SetPersistentChargingData(d PersistentChargingData) bool {
	return c.setterLocked(func() {
		c.primary.ChargingData = d
	})
}

// FlushCustom writes only the named fields through RAID, skipping the
// timestamp/state refresh step a full Flush performs. This is the
// maintenance/ground-commanded write path the original header declares as
// write_custom_state.
func (c *Coordinator) FlushCustom(fields ...FieldID) bool {
	if !c.lockBounded() {
		c.logger.Log(satlog.LocationCoordinator, satlog.CodeMutexTimeout, false)
		c.cfg.Metrics.LockTimeout("bus_cache")
		return false
	}
	defer c.mu.Unlock()

	c.correctErrorsLocked()
	for _, id := range fields {
		d, ok := fieldDescriptors[id]
		if !ok || id == FieldErrorCount {
			continue
		}
		buf, err := EncodeField(id, *c.primary)
		if err != nil {
			continue
		}
		if err := c.voter.Write(d.Address, d.Width, buf); err != nil {
			c.logger.Log(satlog.LocationCoordinator, satlog.CodeBadData, false)
		}
	}
	_ = c.tmrVoter.SyncRedundancy(c.primary, c.copy2, c.copy3)
	c.storeSnapshot()
	return true
}

// LogError pushes an error record onto the in-RAM bounded stack; it will be
// persisted on the next full Flush.
func (c *Coordinator) LogError(r errorlog.Record) {
	c.errStack.Push(r)
}

// NowSeconds, NowMillis, OrbitsSinceLaunch, and PassedOrbitFraction expose
// the C6 timebase helper through the coordinator.
func (c *Coordinator) NowSeconds() uint32       { return c.tb.NowSeconds() }
func (c *Coordinator) NowMillis() uint64        { return c.tb.NowMillis() }
func (c *Coordinator) OrbitsSinceLaunch() uint16 { return c.tb.OrbitsSinceLaunch() }

func (c *Coordinator) PassedOrbitFraction(prevBucket *uint64, denom uint64) bool {
	return c.tb.PassedOrbitFraction(prevBucket, denom)
}

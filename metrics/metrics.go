// Package metrics exposes Prometheus counters for the failure classes
// spec section 4.7 enumerates, following the nil-safe metrics struct
// pattern from marmos91/dittofs's sequence_metrics.go: every method is a
// no-op on a nil *Metrics, so callers that don't wire a registry can pass a
// nil pointer without guarding every call site.
package metrics

import "github.com/prometheus/client_golang/prometheus"

// Metrics holds the counters this module updates as it runs.
type Metrics struct {
	raidInconsistent *prometheus.CounterVec
	raidFailed       prometheus.Counter
	tmrCorrected     *prometheus.CounterVec
	lockTimeouts     *prometheus.CounterVec
	flushes          *prometheus.CounterVec
	errorLogOverflow prometheus.Counter
}

// New constructs and, if reg is non-nil, registers the counters. Passing a
// nil Registerer is valid and yields metrics that silently accumulate
// without being exported — useful for tests and for satprovisionctl's
// dry-run mode.
func New(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		raidInconsistent: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "satstate",
			Subsystem: "raid",
			Name:      "inconsistent_reads_total",
			Help:      "RAID voter reads where at least one device pair disagreed internally.",
		}, []string{"device"}),
		raidFailed: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "satstate",
			Subsystem: "raid",
			Name:      "failed_reads_total",
			Help:      "RAID voter reads with no recoverable cross-match.",
		}),
		tmrCorrected: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "satstate",
			Subsystem: "tmr",
			Name:      "corrections_total",
			Help:      "RAM redundancy corrections, labeled by split kind.",
		}, []string{"kind"}),
		lockTimeouts: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "satstate",
			Subsystem: "coordinator",
			Name:      "lock_timeouts_total",
			Help:      "bus_cache_lock or error-stack mutex acquisitions that timed out.",
		}, []string{"lock"}),
		flushes: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "satstate",
			Subsystem: "coordinator",
			Name:      "flushes_total",
			Help:      "Coordinator flush operations, labeled by kind (full, emergency).",
		}, []string{"kind"}),
		errorLogOverflow: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "satstate",
			Subsystem: "errorlog",
			Name:      "overflow_total",
			Help:      "Boot-time error-log reloads where the stored count exceeded the maximum.",
		}),
	}
	if reg != nil {
		reg.MustRegister(m.raidInconsistent, m.raidFailed, m.tmrCorrected, m.lockTimeouts, m.flushes, m.errorLogOverflow)
	}
	return m
}

// RAIDInconsistent records a RAID internal-disagreement event for device.
func (m *Metrics) RAIDInconsistent(device string) {
	if m == nil {
		return
	}
	m.raidInconsistent.WithLabelValues(device).Inc()
}

// RAIDFailed records an unrecoverable RAID read.
func (m *Metrics) RAIDFailed() {
	if m == nil {
		return
	}
	m.raidFailed.Inc()
}

// TMRCorrected records a RAM redundancy correction of the given kind
// ("minority" or "all_diverge").
func (m *Metrics) TMRCorrected(kind string) {
	if m == nil {
		return
	}
	m.tmrCorrected.WithLabelValues(kind).Inc()
}

// LockTimeout records a bounded-wait lock acquisition timing out.
func (m *Metrics) LockTimeout(lock string) {
	if m == nil {
		return
	}
	m.lockTimeouts.WithLabelValues(lock).Inc()
}

// Flush records a coordinator flush of the given kind.
func (m *Metrics) Flush(kind string) {
	if m == nil {
		return
	}
	m.flushes.WithLabelValues(kind).Inc()
}

// ErrorLogOverflow records a boot-time error-log count clamp.
func (m *Metrics) ErrorLogOverflow() {
	if m == nil {
		return
	}
	m.errorLogOverflow.Inc()
}

package vigil

import (
	"sync/atomic"
	"time"
)

// MetricID defines a public type used by vigil APIs.
//
// MetricID instances are intended to be configured during initialization and then treated as immutable unless documented otherwise.
type MetricID uint16

const (
	// MetricSessionOpened is an exported constant or variable used by the anti-cheat engine.
	MetricSessionOpened MetricID = iota
	// MetricSessionClosed is an exported constant or variable used by the anti-cheat engine.
	MetricSessionClosed
	// MetricHandshakeAuthorized is an exported constant or variable used by the anti-cheat engine.
	MetricHandshakeAuthorized
	// MetricHandshakeRejected is an exported constant or variable used by the anti-cheat engine.
	MetricHandshakeRejected
	// MetricHandshakeTimeout is an exported constant or variable used by the anti-cheat engine.
	MetricHandshakeTimeout
	// MetricBanRefused is an exported constant or variable used by the anti-cheat engine.
	MetricBanRefused
	// MetricPing is an exported constant or variable used by the anti-cheat engine.
	MetricPing
	// MetricTelemetryAccepted is an exported constant or variable used by the anti-cheat engine.
	MetricTelemetryAccepted
	// MetricFramesAccepted is an exported constant or variable used by the anti-cheat engine.
	MetricFramesAccepted
	// MetricKillMalformed is an exported constant or variable used by the anti-cheat engine.
	MetricKillMalformed
	// MetricKillOversized is an exported constant or variable used by the anti-cheat engine.
	MetricKillOversized
	// MetricKillSequence is an exported constant or variable used by the anti-cheat engine.
	MetricKillSequence
	// MetricKillSpeedhack is an exported constant or variable used by the anti-cheat engine.
	MetricKillSpeedhack
	// MetricKillFrameLimit is an exported constant or variable used by the anti-cheat engine.
	MetricKillFrameLimit
	// MetricKillInvalidCoordinates is an exported constant or variable used by the anti-cheat engine.
	MetricKillInvalidCoordinates
	// MetricKillCoordinateBounds is an exported constant or variable used by the anti-cheat engine.
	MetricKillCoordinateBounds
	// MetricKillCoordinateDelta is an exported constant or variable used by the anti-cheat engine.
	MetricKillCoordinateDelta
	// MetricValidateLatency is an exported constant or variable used by the anti-cheat engine.
	MetricValidateLatency
	metricIDCount
)

const (
	histBucketCount = 8
	cacheLineSize   = 64
)

type metricHistogram struct {
	buckets [histBucketCount]uint64
}

type paddedCounter struct {
	value uint64
	_     [cacheLineSize - 8]byte
}

// Metrics defines a public type used by vigil APIs.
//
// Metrics instances are intended to be configured during initialization and then treated as immutable unless documented otherwise.
type Metrics struct {
	enabled       bool
	enableLatency bool
	counters      [metricIDCount]paddedCounter
	histograms    [metricIDCount]metricHistogram
}

// MetricsSnapshot defines a public type used by vigil APIs.
//
// MetricsSnapshot instances are intended to be configured during initialization and then treated as immutable unless documented otherwise.
type MetricsSnapshot struct {
	Counters   map[MetricID]uint64
	Histograms map[MetricID][]uint64
}

// NewMetrics creates the counter set for the given configuration.
func NewMetrics(cfg MetricsConfig) *Metrics {
	return &Metrics{
		enabled:       cfg.Enabled,
		enableLatency: cfg.Enabled && cfg.EnableLatencyHistograms,
	}
}

// Enabled reports whether counting is on.
func (m *Metrics) Enabled() bool {
	return m != nil && m.enabled
}

// Inc adds one to the counter.
func (m *Metrics) Inc(id MetricID) {
	if m == nil || !m.enabled || id >= metricIDCount {
		return
	}
	atomic.AddUint64(&m.counters[id].value, 1)
}

// Add adds n to the counter.
func (m *Metrics) Add(id MetricID, n uint64) {
	if m == nil || !m.enabled || id >= metricIDCount {
		return
	}
	atomic.AddUint64(&m.counters[id].value, n)
}

// Observe records a validation latency sample into the histogram.
func (m *Metrics) Observe(id MetricID, d time.Duration) {
	if m == nil || !m.enabled || !m.enableLatency || id != MetricValidateLatency {
		return
	}
	b := bucketIndex(d)
	atomic.AddUint64(&m.histograms[id].buckets[b], 1)
}

// Value reads a single counter.
func (m *Metrics) Value(id MetricID) uint64 {
	if m == nil || id >= metricIDCount {
		return 0
	}
	return atomic.LoadUint64(&m.counters[id].value)
}

// Snapshot copies all counters and histograms at once.
func (m *Metrics) Snapshot() MetricsSnapshot {
	if m == nil || !m.enabled {
		return MetricsSnapshot{
			Counters:   map[MetricID]uint64{},
			Histograms: map[MetricID][]uint64{},
		}
	}

	s := MetricsSnapshot{
		Counters:   make(map[MetricID]uint64, int(metricIDCount)),
		Histograms: make(map[MetricID][]uint64, 1),
	}

	for id := MetricID(0); id < metricIDCount; id++ {
		s.Counters[id] = atomic.LoadUint64(&m.counters[id].value)
	}

	if m.enableLatency {
		buckets := make([]uint64, histBucketCount)
		for i := 0; i < histBucketCount; i++ {
			buckets[i] = atomic.LoadUint64(&m.histograms[MetricValidateLatency].buckets[i])
		}
		s.Histograms[MetricValidateLatency] = buckets
	}

	return s
}

func bucketIndex(d time.Duration) int {
	us := d.Microseconds()

	switch {
	case us <= 50:
		return 0
	case us <= 100:
		return 1
	case us <= 250:
		return 2
	case us <= 500:
		return 3
	case us <= 1000:
		return 4
	case us <= 2500:
		return 5
	case us <= 5000:
		return 6
	default:
		return 7
	}
}

package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

var (
	metricsRegistered = false

	commitTimer = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "txncore_trans_commit_timer_total",
		Help: "Number of commits triggered by the periodic deadline timer",
	})

	commitFsync = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "txncore_trans_commit_fsync_total",
		Help: "Number of commits triggered by fsync",
	})

	commitFull = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "txncore_trans_commit_full_total",
		Help: "Number of times a hold was denied because it would overflow a single segment",
	})

	segWrites = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "txncore_trans_level0_seg_writes_total",
		Help: "Number of level-0 segments written",
	})

	segWriteBytes = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "txncore_trans_level0_seg_write_bytes_total",
		Help: "Total bytes written across all level-0 segments",
	})

	writeCount = prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "txncore_trans_write_count",
		Help: "Monotonically increasing count of completed commit attempts",
	})

	heldReservations = prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "txncore_trans_reservations",
		Help: "Number of live per-actor reservations",
	})

	commitDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "txncore_trans_commit_duration_seconds",
			Help:    "Duration of a full commit pipeline run",
			Buckets: prometheus.ExponentialBuckets(0.001, 2, 12), // 1ms to ~2s
		},
		[]string{"outcome"},
	)
)

// RegisterMetrics registers all txncore metrics with the default Prometheus
// registry. Idempotent and safe to call multiple times.
func RegisterMetrics() {
	if metricsRegistered {
		return
	}

	prometheus.MustRegister(
		commitTimer,
		commitFsync,
		commitFull,
		segWrites,
		segWriteBytes,
		writeCount,
		heldReservations,
		commitDuration,
	)

	metricsRegistered = true
}

// Counters maps the commit core's named-counter collaborator contract
// (§6: Inc/Add) onto concrete Prometheus metrics. Unknown names are
// silently dropped rather than panicking, since the counter names are a
// closed set owned by this package, not caller-supplied cardinality.
type Counters struct{}

// NewCounters returns a Counters collaborator backed by Prometheus. Callers
// should call RegisterMetrics once at startup before using it.
func NewCounters() *Counters {
	return &Counters{}
}

// Inc implements internal/txn.Counters.
func (c *Counters) Inc(name string) {
	switch name {
	case "trans_commit_timer":
		commitTimer.Inc()
	case "trans_commit_fsync":
		commitFsync.Inc()
	case "trans_commit_full":
		commitFull.Inc()
	case "trans_level0_seg_writes":
		segWrites.Inc()
	}
}

// Add implements internal/txn.Counters.
func (c *Counters) Add(name string, value uint64) {
	switch name {
	case "trans_level0_seg_write_bytes":
		segWriteBytes.Add(float64(value))
	}
}

// SetWriteCount publishes the committer's current write_count as a gauge.
func (c *Counters) SetWriteCount(n uint64) {
	writeCount.Set(float64(n))
}

// SetReservations publishes the number of currently live reservations.
// Implements internal/txn.Manager's optional SetReservations capability.
func (c *Counters) SetReservations(n int) {
	heldReservations.Set(float64(n))
}

// ObserveCommitDuration records how long a commit pipeline run took under
// the given outcome label ("ok", "io_error", "idle"). Implements
// internal/txn.Committer's optional duration-recording capability.
func (c *Counters) ObserveCommitDuration(outcome string, seconds float64) {
	commitDuration.WithLabelValues(outcome).Observe(seconds)
}

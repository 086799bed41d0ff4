package observability

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics collects pass-execution counters. A nil *Metrics is a valid no-op
// receiver so instrumentation stays optional.
type Metrics struct {
	executed *prometheus.CounterVec
	failed   *prometheus.CounterVec
	skipped  prometheus.Counter
	duration *prometheus.HistogramVec
}

// NewMetrics registers the pass-execution metrics on the given registerer.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)
	return &Metrics{
		executed: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: "cpg",
			Name:      "passes_executed_total",
			Help:      "Work units executed, by pass ID.",
		}, []string{"pass"}),
		failed: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: "cpg",
			Name:      "passes_failed_total",
			Help:      "Work units that returned an error, by pass ID.",
		}, []string{"pass"}),
		skipped: factory.NewCounter(prometheus.CounterOpts{
			Namespace: "cpg",
			Name:      "targets_skipped_total",
			Help:      "Targets skipped because the ledger already recorded them.",
		}),
		duration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "cpg",
			Name:      "pass_duration_seconds",
			Help:      "Work unit wall time, by pass ID.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"pass"}),
	}
}

// ObserveExecution records a successful work-unit invocation.
func (m *Metrics) ObserveExecution(passID string, d time.Duration) {
	if m == nil {
		return
	}
	m.executed.WithLabelValues(passID).Inc()
	m.duration.WithLabelValues(passID).Observe(d.Seconds())
}

// ObserveFailure records a failed work-unit invocation.
func (m *Metrics) ObserveFailure(passID string) {
	if m == nil {
		return
	}
	m.failed.WithLabelValues(passID).Inc()
}

// ObserveSkipped records targets filtered out by the ledger.
func (m *Metrics) ObserveSkipped(n int) {
	if m == nil || n == 0 {
		return
	}
	m.skipped.Add(float64(n))
}

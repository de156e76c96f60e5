// Package metrics exposes Prometheus instrumentation for the credential pool
// and the dispatch loop. A nil *Metrics is valid and records nothing.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds the gateway's collectors.
type Metrics struct {
	dispatchTotal     *prometheus.CounterVec
	dispatchDuration  *prometheus.HistogramVec
	compensations     *prometheus.CounterVec
	reclaimed         *prometheus.CounterVec
	removed           *prometheus.CounterVec
	remainingCapacity *prometheus.GaugeVec
	credentials       *prometheus.GaugeVec
	dailyUsed         prometheus.Gauge
	signatureFailures prometheus.Counter
}

// New registers the collectors on reg under namespace.
func New(reg prometheus.Registerer, namespace string) *Metrics {
	factory := promauto.With(reg)

	return &Metrics{
		dispatchTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "gateway",
			Name:      "dispatch_total",
			Help:      "Upstream dispatch attempts by tier and classified outcome.",
		}, []string{"tier", "outcome"}),

		dispatchDuration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "gateway",
			Name:      "dispatch_duration_seconds",
			Help:      "Time until the upstream answered with a status, by tier.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"tier"}),

		compensations: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "pool",
			Name:      "compensations_total",
			Help:      "Charges reversed after a failed dispatch.",
		}, []string{"tier"}),

		reclaimed: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "pool",
			Name:      "reclaimed_total",
			Help:      "Expired credentials reactivated by the reclamation sweep.",
		}, []string{"tier"}),

		removed: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "pool",
			Name:      "removed_total",
			Help:      "Credentials purged from the pool.",
		}, []string{"reason"}),

		remainingCapacity: factory.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "pool",
			Name:      "remaining_capacity",
			Help:      "Charged dispatches left in the current window, by tier.",
		}, []string{"tier"}),

		credentials: factory.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "pool",
			Name:      "credentials",
			Help:      "Credentials per tier by state (active, expired).",
		}, []string{"tier", "state"}),

		dailyUsed: factory.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "pool",
			Name:      "daily_used",
			Help:      "Today's usage of the metered shared tier.",
		}),

		signatureFailures: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "gateway",
			Name:      "signature_failures_total",
			Help:      "Best-effort signature fetches that failed.",
		}),
	}
}

func (m *Metrics) RecordDispatch(tier, outcome string, elapsed time.Duration) {
	if m == nil {
		return
	}
	m.dispatchTotal.WithLabelValues(tier, outcome).Inc()
	if elapsed > 0 {
		m.dispatchDuration.WithLabelValues(tier).Observe(elapsed.Seconds())
	}
}

func (m *Metrics) RecordCompensation(tier string) {
	if m == nil {
		return
	}
	m.compensations.WithLabelValues(tier).Inc()
}

func (m *Metrics) RecordReclaimed(tier string, n int) {
	if m == nil || n == 0 {
		return
	}
	m.reclaimed.WithLabelValues(tier).Add(float64(n))
}

func (m *Metrics) RecordRemoved(reason string) {
	if m == nil {
		return
	}
	m.removed.WithLabelValues(reason).Inc()
}

// SetPoolState publishes a tier's gauges.
func (m *Metrics) SetPoolState(tier string, active, expired, remaining int) {
	if m == nil {
		return
	}
	m.credentials.WithLabelValues(tier, "active").Set(float64(active))
	m.credentials.WithLabelValues(tier, "expired").Set(float64(expired))
	m.remainingCapacity.WithLabelValues(tier).Set(float64(remaining))
}

func (m *Metrics) SetDailyUsed(n int) {
	if m == nil {
		return
	}
	m.dailyUsed.Set(float64(n))
}

func (m *Metrics) RecordSignatureFailure() {
	if m == nil {
		return
	}
	m.signatureFailures.Inc()
}

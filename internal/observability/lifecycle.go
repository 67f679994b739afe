package observability

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// LifecycleMetrics counts order status transitions and completion evaluations.
type LifecycleMetrics struct {
	transitions *prometheus.CounterVec
	duration    *prometheus.HistogramVec
	evaluations *prometheus.CounterVec
}

// NewLifecycleMetrics registers the lifecycle collectors.
func NewLifecycleMetrics(registerer prometheus.Registerer) *LifecycleMetrics {
	if registerer == nil {
		registerer = prometheus.DefaultRegisterer
	}
	transitions := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "odyssey_order_transitions_total",
		Help: "Order status transitions by target status, origin and outcome.",
	}, []string{"to", "origin", "outcome"})
	duration := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "odyssey_order_transition_duration_seconds",
		Help:    "Latency of applying an order status transition.",
		Buckets: prometheus.DefBuckets,
	}, []string{"origin"})
	evaluations := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "odyssey_production_evaluations_total",
		Help: "Production completion evaluations by result.",
	}, []string{"result"})
	registerer.MustRegister(transitions, duration, evaluations)
	return &LifecycleMetrics{transitions: transitions, duration: duration, evaluations: evaluations}
}

// ObserveTransition records one transition attempt. outcome is "applied" or
// the error kind that rejected it.
func (m *LifecycleMetrics) ObserveTransition(to, origin, outcome string, elapsed time.Duration) {
	if m == nil {
		return
	}
	m.transitions.WithLabelValues(to, origin, outcome).Inc()
	m.duration.WithLabelValues(origin).Observe(elapsed.Seconds())
}

// ObserveEvaluation records one completion evaluation result.
func (m *LifecycleMetrics) ObserveEvaluation(result string) {
	if m == nil {
		return
	}
	m.evaluations.WithLabelValues(result).Inc()
}

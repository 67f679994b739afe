// Package jobmetrics instruments the asynq worker.
package jobmetrics

import (
	"errors"
	"sync"
	"time"

	"github.com/hibiken/asynq"
	"github.com/prometheus/client_golang/prometheus"
)

// Job run statuses recorded on odyssey_jobs_total.
const (
	StatusSuccess  = "success"
	StatusFailure  = "failure"
	StatusRejected = "rejected"
)

// Metrics holds the worker collectors. A nil *Metrics records nothing.
type Metrics struct {
	runs        *prometheus.CounterVec
	failures    *prometheus.CounterVec
	duration    *prometheus.HistogramVec
	lastSuccess *prometheus.GaugeVec
	events      *prometheus.CounterVec
	sweep       *prometheus.CounterVec
}

var (
	defaultOnce    sync.Once
	defaultMetrics *Metrics
)

// NewMetrics registers the collectors on registerer. A nil registerer shares
// one process-wide set on the default registry.
func NewMetrics(registerer prometheus.Registerer) *Metrics {
	if registerer != nil {
		return register(registerer)
	}
	defaultOnce.Do(func() { defaultMetrics = register(prometheus.DefaultRegisterer) })
	return defaultMetrics
}

func register(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		runs: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "odyssey_jobs_total",
			Help: "Worker task runs by task type and status.",
		}, []string{"job", "status"}),
		failures: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "odyssey_jobs_failures_total",
			Help: "Worker task runs that returned a retryable error.",
		}, []string{"job"}),
		duration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "odyssey_job_duration_seconds",
			Help:    "Worker task run time.",
			Buckets: []float64{.01, .05, .1, .25, .5, 1, 2.5, 5, 10, 30},
		}, []string{"job"}),
		lastSuccess: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Name: "odyssey_job_last_success_timestamp_seconds",
			Help: "Unix time of the last successful run per task type.",
		}, []string{"job"}),
		events: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "odyssey_lifecycle_events_total",
			Help: "Lifecycle events delivered by the worker, by kind and outcome.",
		}, []string{"kind", "outcome"}),
		sweep: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "odyssey_lifecycle_sweep_orders_total",
			Help: "Orders touched by the production completion sweep, by result.",
		}, []string{"result"}),
	}
	reg.MustRegister(m.runs, m.failures, m.duration, m.lastSuccess, m.events, m.sweep)
	return m
}

// Tracker times one task run.
type Tracker struct {
	metrics *Metrics
	job     string
	start   time.Time
}

// Track starts timing a run of job.
func (m *Metrics) Track(job string) *Tracker {
	return &Tracker{metrics: m, job: job, start: time.Now()}
}

// End records the run and hands err back so handlers can `return t.End(err)`.
// Errors wrapping asynq.SkipRetry count as rejected, not failed.
func (t *Tracker) End(err error) error {
	if t == nil || t.metrics == nil || t.job == "" {
		return err
	}
	m := t.metrics
	m.duration.WithLabelValues(t.job).Observe(time.Since(t.start).Seconds())

	switch {
	case err == nil:
		m.runs.WithLabelValues(t.job, StatusSuccess).Inc()
		m.lastSuccess.WithLabelValues(t.job).SetToCurrentTime()
	case errors.Is(err, asynq.SkipRetry):
		m.runs.WithLabelValues(t.job, StatusRejected).Inc()
	default:
		m.runs.WithLabelValues(t.job, StatusFailure).Inc()
		m.failures.WithLabelValues(t.job).Inc()
	}
	return err
}

// ObserveEvent counts one delivery of a lifecycle event. outcome is one of
// handled, duplicate or failed.
func (m *Metrics) ObserveEvent(kind, outcome string) {
	if m != nil {
		m.events.WithLabelValues(kind, outcome).Inc()
	}
}

// ObserveSweep adds the per-order results of one sweep run.
func (m *Metrics) ObserveSweep(advanced, failed int) {
	if m == nil {
		return
	}
	for result, n := range map[string]int{"advanced": advanced, "failed": failed} {
		if n > 0 {
			m.sweep.WithLabelValues(result).Add(float64(n))
		}
	}
}

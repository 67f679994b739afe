package jobmetrics

import (
	"errors"
	"fmt"
	"testing"

	"github.com/hibiken/asynq"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
)

func TestTrackerRecordsOutcome(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := NewMetrics(reg)

	assert.NoError(t, m.Track("lifecycle:sweep").End(nil))
	err := errors.New("boom")
	assert.Equal(t, err, m.Track("lifecycle:sweep").End(err))

	assert.Equal(t, 1.0, testutil.ToFloat64(m.runs.WithLabelValues("lifecycle:sweep", "success")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.runs.WithLabelValues("lifecycle:sweep", "failure")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.failures.WithLabelValues("lifecycle:sweep")))
	assert.Greater(t, testutil.ToFloat64(m.lastSuccess.WithLabelValues("lifecycle:sweep")), 0.0)
}

func TestTrackerCountsSkipRetryAsRejected(t *testing.T) {
	m := NewMetrics(prometheus.NewRegistry())

	err := fmt.Errorf("decode payload: %v: %w", errors.New("bad json"), asynq.SkipRetry)
	assert.ErrorIs(t, m.Track("lifecycle:event").End(err), asynq.SkipRetry)

	assert.Equal(t, 1.0, testutil.ToFloat64(m.runs.WithLabelValues("lifecycle:event", StatusRejected)))
	assert.Equal(t, 0.0, testutil.ToFloat64(m.failures.WithLabelValues("lifecycle:event")))
}

func TestEventAndSweepCounters(t *testing.T) {
	m := NewMetrics(prometheus.NewRegistry())

	m.ObserveEvent("work_order.created", "handled")
	m.ObserveEvent("work_order.created", "duplicate")
	m.ObserveSweep(3, 0)
	m.ObserveSweep(1, 2)

	assert.Equal(t, 1.0, testutil.ToFloat64(m.events.WithLabelValues("work_order.created", "duplicate")))
	assert.Equal(t, 4.0, testutil.ToFloat64(m.sweep.WithLabelValues("advanced")))
	assert.Equal(t, 2.0, testutil.ToFloat64(m.sweep.WithLabelValues("failed")))
}

func TestNilMetricsAreSafe(t *testing.T) {
	var m *Metrics
	m.ObserveEvent("x", "handled")
	m.ObserveSweep(1, 1)
	assert.NoError(t, m.Track("x").End(nil))
}

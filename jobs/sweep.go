package jobs

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"

	"github.com/hibiken/asynq"

	jobmetrics "github.com/odyssey-erp/odyssey-mfg/internal/jobs"
	"github.com/odyssey-erp/odyssey-mfg/internal/lifecycle"
	"github.com/odyssey-erp/odyssey-mfg/internal/orderstatus"
	"github.com/odyssey-erp/odyssey-mfg/internal/shared"
)

// DefaultSweepBatch bounds the orders re-evaluated per sweep run.
const DefaultSweepBatch = 200

// OrderLister lists order ids by status.
type OrderLister interface {
	ListIDsByStatus(ctx context.Context, status orderstatus.Status, limit int) ([]int64, error)
}

// CompletionEvaluator re-checks production completion for one order.
type CompletionEvaluator interface {
	EvaluateProductionCompletion(ctx context.Context, orderID, actor int64) (*lifecycle.Evaluation, error)
}

// SweepJob re-evaluates In Production orders whose completion event may have
// been lost.
type SweepJob struct {
	Orders    OrderLister
	Evaluator CompletionEvaluator
	Logger    *slog.Logger
	Metrics   *jobmetrics.Metrics
}

// NewSweepJob wires dependencies for the sweep handler.
func NewSweepJob(lister OrderLister, evaluator CompletionEvaluator, logger *slog.Logger, metrics *jobmetrics.Metrics) *SweepJob {
	return &SweepJob{Orders: lister, Evaluator: evaluator, Logger: logger, Metrics: metrics}
}

// Handle processes sweep tasks. A failure on one order does not stop the run;
// the task fails only when the order list cannot be read.
func (j *SweepJob) Handle(ctx context.Context, t *asynq.Task) error {
	if j == nil || j.Orders == nil || j.Evaluator == nil {
		return errors.New("lifecycle sweep: handler not configured")
	}
	payload := SweepPayload{BatchSize: DefaultSweepBatch}
	if len(t.Payload()) > 0 {
		if err := json.Unmarshal(t.Payload(), &payload); err != nil {
			return asynq.SkipRetry
		}
	}
	if payload.BatchSize <= 0 {
		payload.BatchSize = DefaultSweepBatch
	}

	tracker := j.metrics().Track(TaskLifecycleSweep)
	logger := j.logger()

	ids, err := j.Orders.ListIDsByStatus(ctx, orderstatus.StatusInProduction, payload.BatchSize)
	if err != nil {
		logger.Error("list in-production orders", slog.Any("error", err))
		return tracker.End(err)
	}

	advanced, failed := 0, 0
	for _, id := range ids {
		if ctx.Err() != nil {
			break
		}
		ev, err := j.Evaluator.EvaluateProductionCompletion(ctx, id, shared.SystemActorID)
		if err != nil {
			failed++
			continue
		}
		if ev != nil && ev.Advanced {
			advanced++
		}
	}
	j.metrics().ObserveSweep(advanced, failed)
	logger.Info("lifecycle sweep finished",
		slog.Int("scanned", len(ids)),
		slog.Int("advanced", advanced),
		slog.Int("failed", failed))
	return tracker.End(ctx.Err())
}

func (j *SweepJob) logger() *slog.Logger {
	if j.Logger != nil {
		return j.Logger
	}
	return slog.Default()
}

func (j *SweepJob) metrics() *jobmetrics.Metrics {
	if j.Metrics != nil {
		return j.Metrics
	}
	return defaultJobMetrics
}

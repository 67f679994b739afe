package jobs

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/hibiken/asynq"

	jobmetrics "github.com/odyssey-erp/odyssey-mfg/internal/jobs"
)

// DefaultClaimRetention keeps delivery claims for a week, well past the
// lifecycle queue's retry horizon.
const DefaultClaimRetention = 7 * 24 * time.Hour

// ClaimPruner deletes expired idempotency claims.
type ClaimPruner interface {
	Prune(ctx context.Context, olderThan time.Duration) (int64, error)
}

// PruneJob keeps idempotency_keys from growing without bound.
type PruneJob struct {
	Store   ClaimPruner
	Logger  *slog.Logger
	Metrics *jobmetrics.Metrics
}

// NewPruneJob wires the prune handler.
func NewPruneJob(store ClaimPruner, logger *slog.Logger, metrics *jobmetrics.Metrics) *PruneJob {
	if logger == nil {
		logger = slog.Default()
	}
	if metrics == nil {
		metrics = defaultJobMetrics
	}
	return &PruneJob{Store: store, Logger: logger, Metrics: metrics}
}

// Handle runs one prune.
func (j *PruneJob) Handle(ctx context.Context, t *asynq.Task) error {
	payload := PrunePayload{Retention: DefaultClaimRetention}
	if len(t.Payload()) > 0 {
		if err := json.Unmarshal(t.Payload(), &payload); err != nil {
			return fmt.Errorf("idempotency prune: decode: %v: %w", err, asynq.SkipRetry)
		}
	}
	if payload.Retention <= 0 {
		payload.Retention = DefaultClaimRetention
	}

	tracker := j.Metrics.Track(TaskIdempotencyPrune)
	removed, err := j.Store.Prune(ctx, payload.Retention)
	if err != nil {
		j.Logger.Error("idempotency prune failed", slog.Any("error", err))
		return tracker.End(err)
	}
	j.Logger.Info("idempotency prune finished",
		slog.Int64("removed", removed),
		slog.Duration("retention", payload.Retention))
	return tracker.End(nil)
}

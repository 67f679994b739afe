package jobs

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"

	"github.com/hibiken/asynq"

	"github.com/odyssey-erp/odyssey-mfg/internal/events"
	jobmetrics "github.com/odyssey-erp/odyssey-mfg/internal/jobs"
	"github.com/odyssey-erp/odyssey-mfg/internal/shared"
)

var defaultJobMetrics = jobmetrics.NewMetrics(nil)

// IdempotencyModule scopes processed event ids in the idempotency store.
const IdempotencyModule = "lifecycle"

// Dispatcher hands an event to the in-process subscribers and reports the
// first handler error.
type Dispatcher interface {
	Dispatch(ctx context.Context, evt events.Event) error
}

// IdempotencyStore claims event ids so redelivered tasks run once.
type IdempotencyStore interface {
	CheckAndInsert(ctx context.Context, key, module string) error
	Release(ctx context.Context, key, module string) error
}

// EventJob delivers queued lifecycle events to the subscriber.
type EventJob struct {
	Dispatcher  Dispatcher
	Idempotency IdempotencyStore
	Logger      *slog.Logger
	Metrics     *jobmetrics.Metrics
}

// NewEventJob wires dependencies for the event handler.
func NewEventJob(dispatcher Dispatcher, idem IdempotencyStore, logger *slog.Logger, metrics *jobmetrics.Metrics) *EventJob {
	return &EventJob{Dispatcher: dispatcher, Idempotency: idem, Logger: logger, Metrics: metrics}
}

// Handle processes lifecycle event tasks.
func (j *EventJob) Handle(ctx context.Context, t *asynq.Task) error {
	if j == nil || j.Dispatcher == nil {
		return errors.New("lifecycle event: handler not configured")
	}
	var evt events.Event
	if err := json.Unmarshal(t.Payload(), &evt); err != nil {
		return fmt.Errorf("lifecycle event: decode: %v: %w", err, asynq.SkipRetry)
	}

	tracker := j.metrics().Track(TaskLifecycleEvent)
	logger := j.logger().With(
		slog.String("event_id", evt.ID.String()),
		slog.String("kind", string(evt.Kind)),
		slog.Int64("order_id", evt.OrderID))

	key := evt.ID.String()
	if j.Idempotency != nil {
		if err := j.Idempotency.CheckAndInsert(ctx, key, IdempotencyModule); err != nil {
			if errors.Is(err, shared.ErrIdempotencyConflict) {
				logger.Info("lifecycle event already processed")
				j.metrics().ObserveEvent(string(evt.Kind), "duplicate")
				return tracker.End(nil)
			}
			logger.Error("claim lifecycle event", slog.Any("error", err))
			return tracker.End(err)
		}
	}

	ctx = shared.ContextWithActor(ctx, evt.ActorID)
	if err := j.Dispatcher.Dispatch(ctx, evt); err != nil {
		j.metrics().ObserveEvent(string(evt.Kind), "failed")
		logger.Error("lifecycle event failed", slog.Any("error", err))
		if j.Idempotency != nil {
			if relErr := j.Idempotency.Release(ctx, key, IdempotencyModule); relErr != nil {
				logger.Warn("release lifecycle event claim", slog.Any("error", relErr))
			}
		}
		return tracker.End(err)
	}
	j.metrics().ObserveEvent(string(evt.Kind), "handled")
	return tracker.End(nil)
}

func (j *EventJob) logger() *slog.Logger {
	if j.Logger != nil {
		return j.Logger
	}
	return slog.Default()
}

func (j *EventJob) metrics() *jobmetrics.Metrics {
	if j.Metrics != nil {
		return j.Metrics
	}
	return defaultJobMetrics
}

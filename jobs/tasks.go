package jobs

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/hibiken/asynq"

	"github.com/odyssey-erp/odyssey-mfg/internal/events"
)

const (
	// QueueDefault is the default queue name for background jobs.
	QueueDefault = "default"
	// QueueLifecycle carries order lifecycle events ahead of periodic work.
	QueueLifecycle = "lifecycle"

	// TaskLifecycleEvent delivers one domain event to the lifecycle subscriber.
	TaskLifecycleEvent = "lifecycle:event"
	// TaskLifecycleSweep re-evaluates every order still in production.
	TaskLifecycleSweep = "lifecycle:sweep"
	// TaskIdempotencyPrune deletes delivery claims past their retention.
	TaskIdempotencyPrune = "idempotency:prune"
)

// SweepPayload bounds a sweep run.
type SweepPayload struct {
	BatchSize int `json:"batch_size"`
}

// NewLifecycleEventTask wraps evt in an asynq task. The event id doubles as the
// task id so duplicate enqueues collapse.
func NewLifecycleEventTask(evt events.Event) (*asynq.Task, error) {
	data, err := json.Marshal(evt)
	if err != nil {
		return nil, fmt.Errorf("jobs: encode event: %w", err)
	}
	return asynq.NewTask(TaskLifecycleEvent, data,
		asynq.TaskID(evt.ID.String()),
		asynq.Queue(QueueLifecycle),
		asynq.MaxRetry(10),
	), nil
}

// NewSweepTask constructs the periodic sweep task.
func NewSweepTask(batchSize int) (*asynq.Task, error) {
	data, err := json.Marshal(SweepPayload{BatchSize: batchSize})
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TaskLifecycleSweep, data, asynq.Queue(QueueDefault)), nil
}

// PrunePayload carries the claim retention for one prune run.
type PrunePayload struct {
	Retention time.Duration `json:"retention"`
}

// NewPruneTask constructs the periodic idempotency prune task.
func NewPruneTask(retention time.Duration) (*asynq.Task, error) {
	data, err := json.Marshal(PrunePayload{Retention: retention})
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TaskIdempotencyPrune, data, asynq.Queue(QueueDefault)), nil
}

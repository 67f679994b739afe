// Package events carries the collaborator notifications that drive automatic
// order status transitions.
package events

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// Kind names a domain event.
type Kind string

const (
	WorkOrderCreated   Kind = "work_order.created"
	JobCardCompleted   Kind = "job_card.completed"
	JobWorkReturned    Kind = "job_work.returned"
	InspectionRecorded Kind = "inspection.recorded"
	InvoicePaid        Kind = "invoice.paid"
	DispatchCreated    Kind = "dispatch.created"
)

// DispatchPayload is attached to DispatchCreated events.
type DispatchPayload struct {
	VehicleNumber string     `json:"vehicle_number"`
	LRNumber      string     `json:"lr_number"`
	DriverName    string     `json:"driver_name"`
	DispatchDate  *time.Time `json:"dispatch_date,omitempty"`
}

// Event is the envelope published by collaborators.
type Event struct {
	ID         uuid.UUID        `json:"id"`
	Kind       Kind             `json:"kind"`
	OrderID    int64            `json:"order_id"`
	ActorID    int64            `json:"actor_id"`
	OccurredAt time.Time        `json:"occurred_at"`
	Dispatch   *DispatchPayload `json:"dispatch,omitempty"`
}

// New builds an event with a fresh id.
func New(kind Kind, orderID, actorID int64) Event {
	return Event{
		ID:         uuid.New(),
		Kind:       kind,
		OrderID:    orderID,
		ActorID:    actorID,
		OccurredAt: time.Now().UTC(),
	}
}

// Publisher emits events after the originating write has committed.
type Publisher interface {
	Publish(ctx context.Context, evt Event) error
}

// Handler consumes events.
type Handler interface {
	Handle(ctx context.Context, evt Event) error
}

// HandlerFunc adapts a function to Handler.
type HandlerFunc func(ctx context.Context, evt Event) error

// Handle calls f.
func (f HandlerFunc) Handle(ctx context.Context, evt Event) error {
	return f(ctx, evt)
}

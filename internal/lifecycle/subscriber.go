package lifecycle

import (
	"context"
	"fmt"

	"github.com/odyssey-erp/odyssey-mfg/internal/events"
	"github.com/odyssey-erp/odyssey-mfg/internal/sales/orders"
)

// Subscriber routes collaborator events to the hooks and the evaluator.
type Subscriber struct {
	orchestrator *Orchestrator
	evaluator    *Evaluator
}

func NewSubscriber(orchestrator *Orchestrator, evaluator *Evaluator) *Subscriber {
	return &Subscriber{orchestrator: orchestrator, evaluator: evaluator}
}

// Handle implements events.Handler.
func (s *Subscriber) Handle(ctx context.Context, evt events.Event) error {
	var err error
	switch evt.Kind {
	case events.WorkOrderCreated:
		_, err = s.orchestrator.OnWorkOrderCreated(ctx, evt.OrderID, evt.ActorID)
	case events.JobCardCompleted, events.JobWorkReturned, events.InspectionRecorded:
		_, err = s.evaluator.EvaluateProductionCompletion(ctx, evt.OrderID, evt.ActorID)
	case events.DispatchCreated:
		if evt.Dispatch == nil {
			return fmt.Errorf("lifecycle: dispatch event %s has no dispatch payload", evt.ID)
		}
		_, err = s.orchestrator.OnDispatchCreated(ctx, evt.OrderID, evt.ActorID, orders.DispatchInfo{
			VehicleNumber: evt.Dispatch.VehicleNumber,
			LRNumber:      evt.Dispatch.LRNumber,
			DriverName:    evt.Dispatch.DriverName,
			DispatchDate:  evt.Dispatch.DispatchDate,
		})
	case events.InvoicePaid:
		_, err = s.orchestrator.OnInvoicePaid(ctx, evt.OrderID, evt.ActorID)
	default:
		return nil
	}
	if err != nil {
		return fmt.Errorf("lifecycle: handle %s for order %d: %w", evt.Kind, evt.OrderID, err)
	}
	return nil
}

package lifecycle

import (
	"context"
	"fmt"
	"strings"

	"github.com/odyssey-erp/odyssey-mfg/internal/orderstatus"
	"github.com/odyssey-erp/odyssey-mfg/internal/sales/orders"
)

// Confirm moves an Open order to Confirmed.
func (o *Orchestrator) Confirm(ctx context.Context, orderID, actor int64) (*orders.Order, error) {
	return o.command(ctx, TransitionRequest{
		OrderID: orderID,
		Next:    orderstatus.StatusConfirmed,
		Actor:   actor,
		Reason:  "Order Confirmed",
	})
}

// Hold parks the order and remembers where it came from.
func (o *Orchestrator) Hold(ctx context.Context, orderID, actor int64, reason string) (*orders.Order, error) {
	reason = strings.TrimSpace(reason)
	return o.command(ctx, TransitionRequest{
		OrderID: orderID,
		Next:    orderstatus.StatusOnHold,
		Actor:   actor,
		Reason:  reason,
		Payload: Payload{HoldReason: reason},
	})
}

// Resume returns a held order to the status it was held from. target may be
// empty; when given it must match the recorded pre-hold status.
func (o *Orchestrator) Resume(ctx context.Context, orderID, actor int64, target orderstatus.Status) (*orders.Order, error) {
	order, err := o.load(ctx, orderID)
	if err != nil {
		return nil, err
	}
	if order.Status != orderstatus.StatusOnHold {
		return nil, orderstatus.NewError(orderstatus.KindIllegalTransition, "",
			fmt.Sprintf("Cannot resume order in %s status", order.Status))
	}
	next := target
	switch {
	case order.HeldFromStatus != nil && target == "":
		next = *order.HeldFromStatus
	case order.HeldFromStatus != nil && target != *order.HeldFromStatus:
		return nil, orderstatus.NewError(orderstatus.KindIllegalTransition, "",
			fmt.Sprintf("Cannot transition from %s to %s: order was held from %s", order.Status, target, *order.HeldFromStatus))
	case order.HeldFromStatus == nil && target == "":
		return nil, orderstatus.NewError(orderstatus.KindMissingRequiredField, "resumeStatus",
			"resumeStatus is required: pre-hold status is unknown")
	}

	held := orderstatus.StatusOnHold
	return o.command(ctx, TransitionRequest{
		OrderID: orderID,
		Next:    next,
		Actor:   actor,
		Reason:  "Resumed from hold",
		From:    &held,
	})
}

// Cancel cancels an order that has not entered production.
func (o *Orchestrator) Cancel(ctx context.Context, orderID, actor int64, reason string) (*orders.Order, error) {
	reason = strings.TrimSpace(reason)
	return o.command(ctx, TransitionRequest{
		OrderID: orderID,
		Next:    orderstatus.StatusCancelled,
		Actor:   actor,
		Reason:  reason,
		Payload: Payload{CancelReason: reason},
	})
}

// Dispatch records transport details and moves the order to Dispatched.
func (o *Orchestrator) Dispatch(ctx context.Context, orderID, actor int64, info orders.DispatchInfo) (*orders.Order, error) {
	return o.command(ctx, TransitionRequest{
		OrderID: orderID,
		Next:    orderstatus.StatusDispatched,
		Actor:   actor,
		Reason:  "Order Dispatched",
		Payload: Payload{Dispatch: &info},
	})
}

// Deliver marks a dispatched order delivered.
func (o *Orchestrator) Deliver(ctx context.Context, orderID, actor int64) (*orders.Order, error) {
	return o.command(ctx, TransitionRequest{
		OrderID: orderID,
		Next:    orderstatus.StatusDelivered,
		Actor:   actor,
		Reason:  "Order Delivered",
	})
}

// Close closes a delivered, invoiced and fully paid order.
func (o *Orchestrator) Close(ctx context.Context, orderID, actor int64) (*orders.Order, error) {
	return o.command(ctx, TransitionRequest{
		OrderID: orderID,
		Next:    orderstatus.StatusClosed,
		Actor:   actor,
		Reason:  "Order Closed",
	})
}

func (o *Orchestrator) command(ctx context.Context, req TransitionRequest) (*orders.Order, error) {
	req.Origin = OriginCommand
	res, err := o.Transition(ctx, req)
	if err != nil {
		return nil, err
	}
	if !res.Applied {
		// the order left the expected source status between read and write
		return nil, orderstatus.NewError(orderstatus.KindIllegalTransition, "",
			fmt.Sprintf("Cannot transition from %s to %s: order status changed", res.Order.Status, req.Next))
	}
	return res.Order, nil
}

package lifecycle

import (
	"context"
	"log/slog"

	"github.com/odyssey-erp/odyssey-mfg/internal/orderstatus"
	"github.com/odyssey-erp/odyssey-mfg/internal/sales/orders"
)

// Hook reasons recorded in the status history.
const (
	ReasonWorkOrderCreated = "Work Order Created"
	ReasonDispatchCreated  = "Dispatch Created"
	ReasonInvoicePaid      = "Invoice Paid"
)

// OnWorkOrderCreated moves a Confirmed order into production. Any other
// current status is a silent no-op so redelivery is harmless.
func (o *Orchestrator) OnWorkOrderCreated(ctx context.Context, orderID, actor int64) (*Result, error) {
	return o.hook(ctx, orderstatus.StatusConfirmed, TransitionRequest{
		OrderID: orderID,
		Next:    orderstatus.StatusInProduction,
		Actor:   actor,
		Reason:  ReasonWorkOrderCreated,
	})
}

// OnDispatchCreated moves a Ready for Dispatch order to Dispatched, copying
// the transport details from the dispatch document.
func (o *Orchestrator) OnDispatchCreated(ctx context.Context, orderID, actor int64, info orders.DispatchInfo) (*Result, error) {
	return o.hook(ctx, orderstatus.StatusReadyForDispatch, TransitionRequest{
		OrderID: orderID,
		Next:    orderstatus.StatusDispatched,
		Actor:   actor,
		Reason:  ReasonDispatchCreated,
		Payload: Payload{Dispatch: &info},
	})
}

// OnInvoicePaid closes a Delivered order once it is invoiced and fully paid.
// Unmet gates are a no-op; a later payment event retries.
func (o *Orchestrator) OnInvoicePaid(ctx context.Context, orderID, actor int64) (*Result, error) {
	order, err := o.load(ctx, orderID)
	if err != nil {
		return nil, err
	}
	if order.Status != orderstatus.StatusDelivered ||
		!order.InvoiceGenerated ||
		order.PaymentStatus != orders.PaymentCompleted {
		o.logger.Debug("invoice paid hook skipped",
			slog.Int64("order_id", orderID),
			slog.String("status", string(order.Status)),
			slog.Bool("invoice_generated", order.InvoiceGenerated),
			slog.String("payment_status", string(order.PaymentStatus)))
		return &Result{Order: order}, nil
	}
	return o.hook(ctx, orderstatus.StatusDelivered, TransitionRequest{
		OrderID: orderID,
		Next:    orderstatus.StatusClosed,
		Actor:   actor,
		Reason:  ReasonInvoicePaid,
	})
}

func (o *Orchestrator) hook(ctx context.Context, from orderstatus.Status, req TransitionRequest) (*Result, error) {
	req.Origin = OriginHook
	req.From = &from
	res, err := o.Transition(ctx, req)
	if err != nil {
		return nil, err
	}
	if !res.Applied {
		o.logger.Debug("lifecycle hook skipped",
			slog.Int64("order_id", req.OrderID),
			slog.String("expected", string(from)),
			slog.String("status", string(res.Order.Status)))
	}
	return res, nil
}

// Package lifecycle applies order status transitions. Every status change,
// whether issued by a user command or triggered by dependent production work,
// passes through the Orchestrator.
package lifecycle

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	nooptrace "go.opentelemetry.io/otel/trace/noop"

	"github.com/odyssey-erp/odyssey-mfg/internal/orderstatus"
	"github.com/odyssey-erp/odyssey-mfg/internal/sales/orders"
	"github.com/odyssey-erp/odyssey-mfg/internal/shared"
)

const tracerName = "github.com/odyssey-erp/odyssey-mfg/internal/lifecycle"

// DefaultMaxRetries bounds re-reads after a version conflict.
const DefaultMaxRetries = 3

// Origin identifies what triggered a transition.
type Origin string

const (
	OriginCommand   Origin = "command"
	OriginHook      Origin = "hook"
	OriginEvaluator Origin = "evaluator"
)

// OrderStore is the persistence the orchestrator needs.
type OrderStore interface {
	Get(ctx context.Context, id int64) (*orders.Order, error)
	SaveTransition(ctx context.Context, o *orders.Order, expectedVersion int64, change orders.StatusChange) error
}

// WorkOrderCounter reports production activity for cross-entity guards.
type WorkOrderCounter interface {
	CountWorkOrders(ctx context.Context, orderID int64) (int, error)
}

// Auditor receives audit rows after a transition commits.
type Auditor interface {
	Record(ctx context.Context, log shared.AuditLog) error
}

// Metrics observes transition and evaluation outcomes.
type Metrics interface {
	ObserveTransition(to, origin, outcome string, elapsed time.Duration)
	ObserveEvaluation(result string)
}

// Payload carries the data required by some target statuses.
type Payload struct {
	HoldReason   string
	CancelReason string
	Dispatch     *orders.DispatchInfo
}

// TransitionRequest describes one requested status change.
type TransitionRequest struct {
	OrderID int64
	Next    orderstatus.Status
	Actor   int64
	Reason  string
	Payload Payload
	Origin  Origin
	// From makes the request conditional: when the stored status differs the
	// request is skipped without error.
	From *orderstatus.Status
}

// Result reports the order after a Transition call.
type Result struct {
	Order   *orders.Order
	Applied bool
}

// Orchestrator validates and persists status transitions.
type Orchestrator struct {
	store      OrderStore
	workOrders WorkOrderCounter
	audit      Auditor
	metrics    Metrics
	tracer     trace.Tracer
	logger     *slog.Logger
	maxRetries int
	now        func() time.Time
}

type Option func(*Orchestrator)

// WithAuditor injects the audit sink.
func WithAuditor(a Auditor) Option {
	return func(o *Orchestrator) { o.audit = a }
}

// WithMetrics injects transition metrics.
func WithMetrics(m Metrics) Option {
	return func(o *Orchestrator) { o.metrics = m }
}

// WithTracer injects a tracer implementation.
func WithTracer(tr trace.Tracer) Option {
	return func(o *Orchestrator) { o.tracer = tr }
}

// WithLogger injects a slog logger.
func WithLogger(l *slog.Logger) Option {
	return func(o *Orchestrator) { o.logger = l }
}

// WithMaxRetries sets how many times a conflicting write is retried.
func WithMaxRetries(n int) Option {
	return func(o *Orchestrator) { o.maxRetries = n }
}

// WithClock overrides the time source.
func WithClock(now func() time.Time) Option {
	return func(o *Orchestrator) { o.now = now }
}

// NewOrchestrator wires the orchestrator.
func NewOrchestrator(store OrderStore, workOrders WorkOrderCounter, opts ...Option) *Orchestrator {
	o := &Orchestrator{
		store:      store,
		workOrders: workOrders,
		maxRetries: DefaultMaxRetries,
		now:        time.Now,
	}
	for _, opt := range opts {
		if opt != nil {
			opt(o)
		}
	}
	if o.tracer == nil {
		o.tracer = nooptrace.NewTracerProvider().Tracer(tracerName)
	}
	if o.logger == nil {
		o.logger = slog.Default()
	}
	if o.maxRetries < 0 {
		o.maxRetries = 0
	}
	return o
}

// Transition loads the order and applies req, re-reading and retrying when a
// concurrent writer bumped the version in between.
func (o *Orchestrator) Transition(ctx context.Context, req TransitionRequest) (*Result, error) {
	origin := req.Origin
	if origin == "" {
		origin = OriginCommand
	}
	ctx, span := o.tracer.Start(ctx, "lifecycle.Transition", trace.WithAttributes(
		attribute.Int64("order.id", req.OrderID),
		attribute.String("order.next_status", string(req.Next)),
		attribute.String("lifecycle.origin", string(origin)),
	))
	defer span.End()
	start := o.now()

	res, err := o.transition(ctx, req)

	outcome := "applied"
	switch {
	case err != nil:
		outcome = string(orderstatus.KindOf(err))
		if outcome == "" {
			outcome = string(orderstatus.KindPersistenceError)
		}
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	case !res.Applied:
		outcome = "skipped"
	}
	span.SetAttributes(attribute.String("lifecycle.outcome", outcome))
	if o.metrics != nil {
		o.metrics.ObserveTransition(string(req.Next), string(origin), outcome, o.now().Sub(start))
	}
	return res, err
}

func (o *Orchestrator) transition(ctx context.Context, req TransitionRequest) (*Result, error) {
	for attempt := 0; ; attempt++ {
		order, err := o.load(ctx, req.OrderID)
		if err != nil {
			return nil, err
		}
		if req.From != nil && order.Status != *req.From {
			return &Result{Order: order}, nil
		}

		updated, err := o.ApplyTransition(ctx, order, req)
		if err == nil {
			return &Result{Order: updated, Applied: true}, nil
		}
		if !errors.Is(err, orders.ErrVersionConflict) {
			return nil, err
		}
		if attempt >= o.maxRetries {
			return nil, orderstatus.Wrap(orderstatus.KindPersistenceError,
				"Order was modified concurrently, please retry", err)
		}
		o.logger.Debug("order version conflict, retrying",
			slog.Int64("order_id", req.OrderID),
			slog.Int("attempt", attempt+1))
	}
}

func (o *Orchestrator) load(ctx context.Context, id int64) (*orders.Order, error) {
	order, err := o.store.Get(ctx, id)
	if err != nil {
		if errors.Is(err, orders.ErrNotFound) {
			return nil, orderstatus.Wrap(orderstatus.KindNotFound, "Order not found", err)
		}
		return nil, orderstatus.Wrap(orderstatus.KindPersistenceError, "Failed to load order", err)
	}
	return order, nil
}

// ApplyTransition validates req against the loaded order, applies the
// status-specific side effects and persists the result. order is never
// mutated; the returned order is the committed copy. A version conflict is
// returned unwrapped as orders.ErrVersionConflict so callers can re-read.
func (o *Orchestrator) ApplyTransition(ctx context.Context, order *orders.Order, req TransitionRequest) (*orders.Order, error) {
	if order == nil {
		return nil, orderstatus.NewError(orderstatus.KindNotFound, "", "Order not found")
	}
	next := req.Next
	if err := orderstatus.ValidateTransition(order.Status, next); err != nil {
		return nil, err
	}
	if err := checkRequired(next, req.Payload); err != nil {
		return nil, err
	}
	if err := o.checkGuards(ctx, order, next); err != nil {
		return nil, err
	}

	now := o.now().UTC()
	updated := order.Clone()
	prev := order.Status
	updated.Status = next

	switch next {
	case orderstatus.StatusOnHold:
		reason := strings.TrimSpace(req.Payload.HoldReason)
		updated.HoldReason = &reason
		updated.HeldFromStatus = &prev
	case orderstatus.StatusCancelled:
		reason := strings.TrimSpace(req.Payload.CancelReason)
		updated.CancelReason = &reason
	case orderstatus.StatusDispatched:
		info := *req.Payload.Dispatch
		if d := req.Payload.Dispatch.DispatchDate; d != nil {
			date := *d
			info.DispatchDate = &date
		}
		updated.Dispatch = &info
	case orderstatus.StatusDelivered:
		actor := req.Actor
		updated.DeliveredAt = &now
		updated.DeliveredBy = &actor
	case orderstatus.StatusClosed:
		if !order.InvoiceGenerated {
			return nil, orderstatus.NewError(orderstatus.KindClosePreconditionNotMet, "invoiceGenerated",
				"Cannot close order: invoice has not been generated")
		}
		if order.PaymentStatus != orders.PaymentCompleted {
			return nil, orderstatus.NewError(orderstatus.KindClosePreconditionNotMet, "paymentStatus",
				fmt.Sprintf("Cannot close order: payment status is %s, expected %s", order.PaymentStatus, orders.PaymentCompleted))
		}
	}
	if prev == orderstatus.StatusOnHold {
		updated.HeldFromStatus = nil
	}

	if orderstatus.IsLocked(next) {
		updated.IsLocked = true
		if updated.LockedAt == nil {
			updated.LockedAt = &now
		}
	}

	change := orders.StatusChange{
		OrderID:   order.ID,
		Status:    next,
		ChangedBy: req.Actor,
		ChangedAt: now,
	}
	if req.Reason != "" {
		reason := req.Reason
		change.Reason = &reason
	}
	updated.StatusHistory = append(updated.StatusHistory, change)

	if err := o.store.SaveTransition(ctx, updated, order.Version, change); err != nil {
		if errors.Is(err, orders.ErrVersionConflict) {
			return nil, err
		}
		if errors.Is(err, orders.ErrNotFound) {
			return nil, orderstatus.Wrap(orderstatus.KindNotFound, "Order not found", err)
		}
		return nil, orderstatus.Wrap(orderstatus.KindPersistenceError, "Failed to save order status", err)
	}
	updated.Version = order.Version + 1
	updated.UpdatedAt = now

	o.recordAudit(ctx, updated, prev, req)
	return updated, nil
}

func (o *Orchestrator) checkGuards(ctx context.Context, order *orders.Order, next orderstatus.Status) error {
	switch {
	case next == orderstatus.StatusCancelled:
		count, err := o.countWorkOrders(ctx, order.ID)
		if err != nil {
			return err
		}
		if count > 0 {
			return orderstatus.NewError(orderstatus.KindProductionAlreadyStarted, "",
				"Cannot cancel order: production has already started")
		}
	case next == orderstatus.StatusInProduction && order.Status == orderstatus.StatusConfirmed:
		count, err := o.countWorkOrders(ctx, order.ID)
		if err != nil {
			return err
		}
		if count == 0 {
			return orderstatus.NewError(orderstatus.KindIllegalTransition, "",
				fmt.Sprintf("Cannot transition from %s to %s: no work order exists", order.Status, next))
		}
	}
	return nil
}

func (o *Orchestrator) countWorkOrders(ctx context.Context, orderID int64) (int, error) {
	if o.workOrders == nil {
		return 0, nil
	}
	n, err := o.workOrders.CountWorkOrders(ctx, orderID)
	if err != nil {
		return 0, orderstatus.Wrap(orderstatus.KindPersistenceError, "Failed to check work orders", err)
	}
	return n, nil
}

func checkRequired(next orderstatus.Status, p Payload) error {
	for _, field := range orderstatus.RequiredFields(next) {
		if !hasField(field, p) {
			return orderstatus.NewError(orderstatus.KindMissingRequiredField, field,
				fmt.Sprintf("%s is required to move to %s", field, next))
		}
	}
	return nil
}

func hasField(field string, p Payload) bool {
	switch field {
	case orderstatus.FieldHoldReason:
		return strings.TrimSpace(p.HoldReason) != ""
	case orderstatus.FieldCancelReason:
		return strings.TrimSpace(p.CancelReason) != ""
	}
	d := p.Dispatch
	if d == nil {
		return false
	}
	switch field {
	case orderstatus.FieldDispatchVehicleNumber:
		return strings.TrimSpace(d.VehicleNumber) != ""
	case orderstatus.FieldDispatchLRNumber:
		return strings.TrimSpace(d.LRNumber) != ""
	case orderstatus.FieldDispatchDriverName:
		return strings.TrimSpace(d.DriverName) != ""
	case orderstatus.FieldDispatchDate:
		return d.DispatchDate != nil && !d.DispatchDate.IsZero()
	}
	return false
}

func (o *Orchestrator) recordAudit(ctx context.Context, order *orders.Order, prev orderstatus.Status, req TransitionRequest) {
	if o.audit == nil {
		return
	}
	action := shared.ActionStatusTransition
	if req.Origin == OriginHook || req.Origin == OriginEvaluator {
		action = shared.ActionAutoTransition
	}
	meta := map[string]any{
		"from":   string(prev),
		"to":     string(order.Status),
		"origin": string(req.Origin),
	}
	if req.Reason != "" {
		meta["reason"] = req.Reason
	}
	if err := o.audit.Record(ctx, shared.OrderAudit(req.Actor, order.ID, action, meta)); err != nil {
		o.logger.Warn("audit record failed",
			slog.Int64("order_id", order.ID),
			slog.String("status", string(order.Status)),
			slog.Any("error", err))
	}
}

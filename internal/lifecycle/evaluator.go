package lifecycle

import (
	"context"
	"errors"
	"log/slog"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/sync/errgroup"

	"github.com/odyssey-erp/odyssey-mfg/internal/orderstatus"
	"github.com/odyssey-erp/odyssey-mfg/internal/production"
	"github.com/odyssey-erp/odyssey-mfg/internal/sales/orders"
)

// ReasonProductionCompleted is recorded when production completion advances an order.
const ReasonProductionCompleted = "Production Completed"

// ProductionReader exposes the dependent work of an order.
type ProductionReader interface {
	CountWorkOrders(ctx context.Context, orderID int64) (int, error)
	ListJobCards(ctx context.Context, orderID int64) ([]production.JobCard, error)
	ListJobWorks(ctx context.Context, orderID int64) ([]production.JobWork, error)
	GetInspection(ctx context.Context, orderID int64) (*production.Inspection, error)
}

// Evaluation results.
const (
	EvalAdvanced      = "advanced"
	EvalNotInProd     = "not_in_production"
	EvalNoWorkOrders  = "no_work_orders"
	EvalJobCardsOpen  = "job_cards_pending"
	EvalJobWorksOpen  = "job_works_pending"
	EvalNotInspected  = "inspection_not_passed"
	EvalLostRace      = "lost_race"
	EvalReadFailed    = "read_failed"
	EvalAdvanceFailed = "advance_failed"
)

// Evaluation is the outcome of one completion check.
type Evaluation struct {
	OrderID  int64
	Result   string
	Advanced bool
	Order    *orders.Order
}

// Evaluator advances In Production orders whose dependent work is done.
type Evaluator struct {
	orchestrator *Orchestrator
	production   ProductionReader
	logger       *slog.Logger
}

func NewEvaluator(orchestrator *Orchestrator, reader ProductionReader) *Evaluator {
	return &Evaluator{
		orchestrator: orchestrator,
		production:   reader,
		logger:       orchestrator.logger,
	}
}

// EvaluateProductionCompletion recomputes the completion conditions from the
// current child records and moves the order to Ready for Dispatch when job
// cards, job works and inspection are all done. Calling it again with
// unchanged child state is a no-op.
func (e *Evaluator) EvaluateProductionCompletion(ctx context.Context, orderID, actor int64) (*Evaluation, error) {
	ctx, span := e.orchestrator.tracer.Start(ctx, "lifecycle.EvaluateProductionCompletion",
		trace.WithAttributes(attribute.Int64("order.id", orderID)))
	defer span.End()

	ev, err := e.evaluate(ctx, orderID, actor)
	if ev != nil {
		span.SetAttributes(attribute.String("lifecycle.evaluation", ev.Result))
		if e.orchestrator.metrics != nil {
			e.orchestrator.metrics.ObserveEvaluation(ev.Result)
		}
	}
	if err != nil {
		span.RecordError(err)
		e.logger.Error("production completion evaluation failed",
			slog.Int64("order_id", orderID),
			slog.Any("error", err))
	}
	return ev, err
}

func (e *Evaluator) evaluate(ctx context.Context, orderID, actor int64) (*Evaluation, error) {
	ev := &Evaluation{OrderID: orderID}

	order, err := e.orchestrator.load(ctx, orderID)
	if err != nil {
		ev.Result = EvalReadFailed
		return ev, err
	}
	ev.Order = order
	if order.Status != orderstatus.StatusInProduction {
		ev.Result = EvalNotInProd
		return ev, nil
	}

	count, err := e.production.CountWorkOrders(ctx, orderID)
	if err != nil {
		ev.Result = EvalReadFailed
		return ev, err
	}
	if count == 0 {
		ev.Result = EvalNoWorkOrders
		return ev, nil
	}

	var (
		cards      []production.JobCard
		works      []production.JobWork
		inspection *production.Inspection
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		cards, err = e.production.ListJobCards(gctx, orderID)
		return err
	})
	g.Go(func() error {
		var err error
		works, err = e.production.ListJobWorks(gctx, orderID)
		return err
	})
	g.Go(func() error {
		var err error
		inspection, err = e.production.GetInspection(gctx, orderID)
		return err
	})
	if err := g.Wait(); err != nil {
		ev.Result = EvalReadFailed
		return ev, err
	}

	switch {
	case !jobCardsDone(cards):
		ev.Result = EvalJobCardsOpen
		return ev, nil
	case !jobWorksDone(works):
		ev.Result = EvalJobWorksOpen
		return ev, nil
	case inspection == nil || inspection.Result != production.InspectionPass:
		ev.Result = EvalNotInspected
		return ev, nil
	}

	from := orderstatus.StatusInProduction
	res, err := e.orchestrator.Transition(ctx, TransitionRequest{
		OrderID: orderID,
		Next:    orderstatus.StatusReadyForDispatch,
		Actor:   actor,
		Reason:  ReasonProductionCompleted,
		Origin:  OriginEvaluator,
		From:    &from,
	})
	if err != nil {
		if isRaceLoss(err) {
			ev.Result = EvalLostRace
			return ev, nil
		}
		ev.Result = EvalAdvanceFailed
		return ev, err
	}
	ev.Order = res.Order
	if !res.Applied {
		ev.Result = EvalLostRace
		return ev, nil
	}
	ev.Result = EvalAdvanced
	ev.Advanced = true
	return ev, nil
}

// jobCardsDone is condition A: at least one card and all completed.
func jobCardsDone(cards []production.JobCard) bool {
	if len(cards) == 0 {
		return false
	}
	for _, c := range cards {
		if c.Status != production.JobCardCompleted {
			return false
		}
	}
	return true
}

// jobWorksDone is condition B: no outsourced work, or all of it back.
func jobWorksDone(works []production.JobWork) bool {
	for _, w := range works {
		if !w.IsFullyReturned() {
			return false
		}
	}
	return true
}

func isRaceLoss(err error) bool {
	return errors.Is(err, orderstatus.ErrNoOpTransition) || errors.Is(err, orderstatus.ErrIllegalTransition)
}

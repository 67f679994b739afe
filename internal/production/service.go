package production

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/odyssey-erp/odyssey-mfg/internal/events"
	"github.com/odyssey-erp/odyssey-mfg/internal/orderstatus"
	"github.com/odyssey-erp/odyssey-mfg/internal/sales/orders"
)

// OrderReader loads the parent order.
type OrderReader interface {
	Get(ctx context.Context, id int64) (*orders.Order, error)
}

// Service owns the production trackers. Each write publishes its event after
// the transaction commits so the lifecycle subscriber can re-evaluate the order.
type Service struct {
	repo      Repository
	orders    OrderReader
	publisher events.Publisher
	logger    *slog.Logger
	now       func() time.Time
}

func NewService(repo Repository, orders OrderReader, publisher events.Publisher, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{repo: repo, orders: orders, publisher: publisher, logger: logger, now: time.Now}
}

func (s *Service) order(ctx context.Context, id int64) (*orders.Order, error) {
	order, err := s.orders.Get(ctx, id)
	if errors.Is(err, orders.ErrNotFound) {
		return nil, orderstatus.Wrap(orderstatus.KindNotFound, "Order not found", err)
	}
	return order, err
}

// ============================================================================
// WORK ORDERS
// ============================================================================

// CreateWorkOrder spawns a work order with one job card per in-house process
// and one job work per outsourced step.
func (s *Service) CreateWorkOrder(ctx context.Context, orderID int64, req CreateWorkOrderRequest, actorID int64) (*WorkOrder, error) {
	order, err := s.order(ctx, orderID)
	if err != nil {
		return nil, err
	}
	if order.Status != orderstatus.StatusConfirmed && order.Status != orderstatus.StatusInProduction {
		return nil, fmt.Errorf("%w: order is %s", ErrOrderNotConfirmed, order.Status)
	}
	if len(req.SelectedTypes) == 0 {
		return nil, ErrNoWorkTypes
	}

	wo := WorkOrder{
		OrderID:       orderID,
		SelectedTypes: req.SelectedTypes,
		Quantity:      order.Quantity,
		CreatedBy:     actorID,
	}
	inhouse := req.InhouseProcesses
	if wo.Has(WorkTypeInhouse) && len(inhouse) == 0 {
		inhouse = order.Processes
	}
	if !wo.Has(WorkTypeInhouse) {
		inhouse = nil
	}
	var outside []OutsideStep
	if wo.Has(WorkTypeOutside) {
		outside = req.OutsideSteps
	}
	if len(inhouse) == 0 && len(outside) == 0 {
		return nil, ErrNoProcesses
	}

	now := s.now()
	err = s.repo.WithTx(ctx, func(ctx context.Context, repo Repository) error {
		count, err := repo.CountWorkOrders(ctx, orderID)
		if err != nil {
			return err
		}
		wo.WONumber = fmt.Sprintf("WO-%s-%02d", order.OrderCode, count+1)
		id, err := repo.InsertWorkOrder(ctx, wo)
		if err != nil {
			return err
		}
		wo.ID = id

		for i, process := range inhouse {
			if _, err := repo.InsertJobCard(ctx, JobCard{
				WorkOrderID: id,
				OrderID:     orderID,
				Process:     process,
				Sequence:    i + 1,
				Status:      JobCardPending,
			}); err != nil {
				return err
			}
		}
		for _, step := range outside {
			sentAt := now
			if _, err := repo.InsertJobWork(ctx, JobWork{
				WorkOrderID:  id,
				OrderID:      orderID,
				Process:      step.Process,
				VendorName:   step.VendorName,
				QuantitySent: step.QuantitySent,
				Status:       JobWorkSent,
				SentAt:       &sentAt,
			}); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	wo.CreatedAt = now
	s.publish(ctx, events.New(events.WorkOrderCreated, orderID, actorID))
	return &wo, nil
}

func (s *Service) CountWorkOrders(ctx context.Context, orderID int64) (int, error) {
	return s.repo.CountWorkOrders(ctx, orderID)
}

func (s *Service) ListWorkOrders(ctx context.Context, orderID int64) ([]WorkOrder, error) {
	return s.repo.ListWorkOrders(ctx, orderID)
}

// ============================================================================
// JOB CARDS
// ============================================================================

func (s *Service) StartJobCard(ctx context.Context, id int64) (*JobCard, error) {
	jc, err := s.repo.GetJobCard(ctx, id)
	if err != nil {
		return nil, err
	}
	switch jc.Status {
	case JobCardInProgress:
		return jc, nil
	case JobCardPending:
	default:
		return nil, fmt.Errorf("%w: %s", ErrInvalidJobCardState, jc.Status)
	}
	now := s.now()
	jc.Status = JobCardInProgress
	jc.StartedAt = &now
	if err := s.repo.SaveJobCard(ctx, *jc); err != nil {
		return nil, err
	}
	return jc, nil
}

// CompleteJobCard marks the card completed. Completing a completed card is a no-op.
func (s *Service) CompleteJobCard(ctx context.Context, id int64, actorID int64) (*JobCard, error) {
	jc, err := s.repo.GetJobCard(ctx, id)
	if err != nil {
		return nil, err
	}
	if jc.Status == JobCardCompleted {
		return jc, nil
	}
	now := s.now()
	if jc.StartedAt == nil {
		jc.StartedAt = &now
	}
	jc.Status = JobCardCompleted
	jc.CompletedBy = &actorID
	jc.CompletedAt = &now
	if err := s.repo.SaveJobCard(ctx, *jc); err != nil {
		return nil, err
	}
	s.publish(ctx, events.New(events.JobCardCompleted, jc.OrderID, actorID))
	return jc, nil
}

func (s *Service) ListJobCards(ctx context.Context, orderID int64) ([]JobCard, error) {
	return s.repo.ListJobCards(ctx, orderID)
}

// ============================================================================
// JOB WORKS
// ============================================================================

// MarkJobWorkInProcess records that the vendor has started on the material.
func (s *Service) MarkJobWorkInProcess(ctx context.Context, id int64) (*JobWork, error) {
	jw, err := s.updateJobWork(ctx, id, func(jw *JobWork) (bool, error) {
		if jw.IsFullyReturned() {
			return false, ErrJobWorkClosed
		}
		if jw.Status != JobWorkSent {
			return false, nil
		}
		jw.Status = JobWorkInProcess
		return true, nil
	})
	return jw, err
}

// ReceiveJobWork adds qty to the received quantity. Receipts are additive and
// may not exceed the quantity sent.
func (s *Service) ReceiveJobWork(ctx context.Context, id int64, qty float64, actorID int64) (*JobWork, error) {
	if qty <= 0 {
		return nil, ErrInvalidQuantity
	}
	jw, err := s.updateJobWork(ctx, id, func(jw *JobWork) (bool, error) {
		if jw.IsFullyReturned() {
			return false, ErrJobWorkClosed
		}
		received := jw.QuantityReceived + qty
		if received > jw.QuantitySent {
			return false, fmt.Errorf("%w: %.2f > %.2f", ErrOverReceipt, received, jw.QuantitySent)
		}
		jw.QuantityReceived = received
		jw.Status = DeriveJobWorkStatus(jw.QuantitySent, received)
		if jw.IsFullyReturned() {
			now := s.now()
			jw.ReturnedAt = &now
		}
		return true, nil
	})
	if err != nil {
		return nil, err
	}
	if jw.IsFullyReturned() {
		s.publish(ctx, events.New(events.JobWorkReturned, jw.OrderID, actorID))
	}
	return jw, nil
}

// maxJobWorkAttempts bounds the re-reads after a concurrent job work update.
const maxJobWorkAttempts = 5

// updateJobWork applies fn to a fresh copy of the job work and saves it
// against the copy it read, re-reading when another writer got there first.
// fn reports whether it changed anything worth saving.
func (s *Service) updateJobWork(ctx context.Context, id int64, fn func(*JobWork) (bool, error)) (*JobWork, error) {
	for attempt := 1; ; attempt++ {
		prev, err := s.repo.GetJobWork(ctx, id)
		if err != nil {
			return nil, err
		}
		next := *prev
		changed, err := fn(&next)
		if err != nil {
			return nil, err
		}
		if !changed {
			return &next, nil
		}
		err = s.repo.SaveJobWork(ctx, *prev, next)
		if err == nil {
			return &next, nil
		}
		if !errors.Is(err, ErrJobWorkConflict) || attempt >= maxJobWorkAttempts {
			return nil, err
		}
		s.logger.Debug("job work modified concurrently, retrying",
			slog.Int64("job_work_id", id),
			slog.Int("attempt", attempt))
	}
}

func (s *Service) ListJobWorks(ctx context.Context, orderID int64) ([]JobWork, error) {
	return s.repo.ListJobWorks(ctx, orderID)
}

// ============================================================================
// INSPECTION
// ============================================================================

// RecordInspection stores the single inspection of an order. A Fail resets the
// job cards for rework; a Pass records the completed job.
func (s *Service) RecordInspection(ctx context.Context, orderID int64, req RecordInspectionRequest, actorID int64) (*Inspection, error) {
	if req.Result != InspectionPass && req.Result != InspectionFail {
		return nil, ErrInvalidResult
	}
	if _, err := s.order(ctx, orderID); err != nil {
		return nil, err
	}

	in := Inspection{
		OrderID:     orderID,
		Result:      req.Result,
		Remarks:     req.Remarks,
		InspectedBy: actorID,
		InspectedAt: s.now(),
	}
	err := s.repo.WithTx(ctx, func(ctx context.Context, repo Repository) error {
		id, err := repo.UpsertInspection(ctx, in)
		if err != nil {
			return err
		}
		in.ID = id
		if in.Result == InspectionFail {
			return repo.ResetJobCards(ctx, orderID)
		}
		return repo.InsertCompletedJob(ctx, CompletedJob{
			OrderID:      orderID,
			InspectionID: id,
			CompletedAt:  in.InspectedAt,
		})
	})
	if err != nil {
		return nil, err
	}

	s.publish(ctx, events.New(events.InspectionRecorded, orderID, actorID))
	return &in, nil
}

func (s *Service) GetInspection(ctx context.Context, orderID int64) (*Inspection, error) {
	return s.repo.GetInspection(ctx, orderID)
}

func (s *Service) publish(ctx context.Context, evt events.Event) {
	if s.publisher == nil {
		return
	}
	if err := s.publisher.Publish(ctx, evt); err != nil {
		s.logger.Error("publish production event",
			slog.String("kind", string(evt.Kind)),
			slog.Int64("order_id", evt.OrderID),
			slog.Any("error", err))
	}
}

package dispatch

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

// OrderReader loads the order being dispatched.
type OrderReader interface {
	Get(ctx context.Context, id int64) (*orders.Order, error)
}

// Service provides business logic for dispatch documents.
type Service struct {
	store     Store
	orders    OrderReader
	publisher events.Publisher
	logger    *slog.Logger
}

// NewService constructs a dispatch service.
func NewService(store Store, orders OrderReader, publisher events.Publisher, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{store: store, orders: orders, publisher: publisher, logger: logger}
}

// Create records the dispatch and announces it so the order advances to Dispatched.
func (s *Service) Create(ctx context.Context, orderID int64, req CreateDispatchRequest, createdBy int64) (*Dispatch, error) {
	if !req.complete() {
		return nil, ErrInsufficientData
	}
	order, err := s.orders.Get(ctx, orderID)
	if errors.Is(err, orders.ErrNotFound) {
		return nil, orderstatus.Wrap(orderstatus.KindNotFound, "Order not found", err)
	}
	if err != nil {
		return nil, err
	}
	if order.Status != orderstatus.StatusReadyForDispatch {
		return nil, fmt.Errorf("%w, got: %s", ErrOrderNotReady, order.Status)
	}
	if existing, err := s.store.GetByOrder(ctx, orderID); err == nil && existing != nil {
		return nil, ErrAlreadyExists
	} else if err != nil && !errors.Is(err, ErrNotFound) {
		return nil, err
	}

	d := Dispatch{
		DocNumber:     docNumber(order.OrderCode, req.DispatchDate),
		OrderID:       orderID,
		VehicleNumber: req.VehicleNumber,
		LRNumber:      req.LRNumber,
		DriverName:    req.DriverName,
		DispatchDate:  req.DispatchDate,
		Notes:         req.Notes,
		CreatedBy:     createdBy,
	}
	id, err := s.store.Create(ctx, d)
	if err != nil {
		return nil, err
	}
	d.ID = id
	d.CreatedAt = time.Now()

	evt := events.New(events.DispatchCreated, orderID, createdBy)
	date := d.DispatchDate
	evt.Dispatch = &events.DispatchPayload{
		VehicleNumber: d.VehicleNumber,
		LRNumber:      d.LRNumber,
		DriverName:    d.DriverName,
		DispatchDate:  &date,
	}
	if s.publisher != nil {
		if err := s.publisher.Publish(ctx, evt); err != nil {
			s.logger.Error("publish dispatch event", slog.Int64("order_id", orderID), slog.Any("error", err))
		}
	}
	return &d, nil
}

// Get returns the dispatch for an order.
func (s *Service) Get(ctx context.Context, orderID int64) (*Dispatch, error) {
	return s.store.GetByOrder(ctx, orderID)
}

func docNumber(orderCode string, at time.Time) string {
	return fmt.Sprintf("DSP-%s-%s", orderCode, at.Format("060102"))
}

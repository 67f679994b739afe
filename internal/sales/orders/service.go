package orders

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"strings"
	"time"

	"github.com/odyssey-erp/odyssey-mfg/internal/events"
	"github.com/odyssey-erp/odyssey-mfg/internal/orderstatus"
	"github.com/odyssey-erp/odyssey-mfg/internal/shared"
)

// LockedAfterConfirmation lists the fields frozen once an order is confirmed,
// even though Confirmed orders remain nominally editable.
var LockedAfterConfirmation = []string{
	"quantity",
	"processes",
	"gstPercent",
	"packagingCost",
	"transportCost",
	"totalAmount",
	"customerName",
	"deliveryDate",
}

// QuotationConverter reports whether an order may be created from a quotation.
// The Approved to Converted move itself happens inside the order insert.
type QuotationConverter interface {
	EnsureConvertible(ctx context.Context, quotationID int64) error
}

// WorkOrderCounter reports whether production has started for an order.
type WorkOrderCounter interface {
	CountWorkOrders(ctx context.Context, orderID int64) (int, error)
}

// CodePrefixer supplies the human-readable order code prefix per company.
type CodePrefixer interface {
	OrderPrefix(ctx context.Context, companyID int64) (string, error)
}

// Service implements the order record collaborators: creation, plain field
// edits and the invoice/payment gates. Status changes go through the
// lifecycle orchestrator.
type Service struct {
	repo       Repository
	quotations QuotationConverter
	workOrders WorkOrderCounter
	prefixes   CodePrefixer
	publisher  events.Publisher
	logger     *slog.Logger
	now        func() time.Time
}

// ServiceDeps groups optional collaborators.
type ServiceDeps struct {
	Quotations QuotationConverter
	WorkOrders WorkOrderCounter
	Prefixes   CodePrefixer
	Publisher  events.Publisher
	Logger     *slog.Logger
}

// NewService builds the order service.
func NewService(repo Repository, deps ServiceDeps) *Service {
	logger := deps.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{
		repo:       repo,
		quotations: deps.Quotations,
		workOrders: deps.WorkOrders,
		prefixes:   deps.Prefixes,
		publisher:  deps.Publisher,
		logger:     logger,
		now:        time.Now,
	}
}

// Create persists a new order in status Open with a freshly allocated SO number.
func (s *Service) Create(ctx context.Context, req CreateOrderRequest, createdBy int64) (*Order, error) {
	if req.QuotationID != nil && s.quotations != nil {
		if err := s.quotations.EnsureConvertible(ctx, *req.QuotationID); err != nil {
			return nil, fmt.Errorf("%w: %v", ErrQuotationNotConvertible, err)
		}
	}

	prefix := "SO"
	if s.prefixes != nil {
		p, err := s.prefixes.OrderPrefix(ctx, req.CompanyID)
		if err != nil {
			s.logger.Warn("order prefix lookup failed, using default", slog.Int64("company_id", req.CompanyID), slog.Any("error", err))
		} else if p != "" {
			prefix = p
		}
	}

	processes := cleanList(req.Processes)
	now := s.now()
	order := Order{
		CompanyID:     req.CompanyID,
		QuotationID:   req.QuotationID,
		CustomerID:    req.CustomerID,
		CustomerName:  cleanText(req.CustomerName),
		ItemName:      cleanText(req.ItemName),
		Quantity:      req.Quantity,
		UOM:           cleanText(req.UOM),
		Processes:     processes,
		UnitPrice:     req.UnitPrice,
		GSTPercent:    req.GSTPercent,
		PackagingCost: req.PackagingCost,
		TransportCost: req.TransportCost,
		TotalAmount:   req.TotalAmount,
		DeliveryDate:  req.DeliveryDate,
		Notes:         req.Notes,
		Status:        orderstatus.StatusOpen,
		PaymentStatus: PaymentPending,
		CreatedBy:     createdBy,
	}

	var orderID int64
	err := s.repo.WithTx(ctx, func(ctx context.Context, repo Repository) error {
		number, err := repo.NextSONumber(ctx, req.CompanyID)
		if err != nil {
			return err
		}
		order.SONumber = number
		order.OrderCode = FormatOrderCode(prefix, now, number)

		id, err := repo.Insert(ctx, order)
		if err != nil {
			return fmt.Errorf("insert order: %w", err)
		}
		orderID = id

		if req.QuotationID != nil {
			if err := repo.ConvertQuotation(ctx, *req.QuotationID, createdBy); err != nil {
				return err
			}
		}

		reason := "Order Created"
		return repo.AppendHistory(ctx, StatusChange{
			OrderID:   id,
			Status:    orderstatus.StatusOpen,
			ChangedBy: createdBy,
			ChangedAt: now,
			Reason:    &reason,
		})
	})
	if err != nil {
		return nil, err
	}

	return s.repo.Get(ctx, orderID)
}

// FormatOrderCode renders the human-readable order id.
func FormatOrderCode(prefix string, at time.Time, number int64) string {
	return fmt.Sprintf("%s-%s-%05d", prefix, at.Format("0601"), number)
}

// Get loads an order with its status history.
func (s *Service) Get(ctx context.Context, id int64) (*Order, error) {
	order, err := s.repo.Get(ctx, id)
	if err != nil {
		return nil, translateRepoError(err)
	}
	return order, nil
}

// List returns one page of orders with its pagination metadata.
func (s *Service) List(ctx context.Context, req ListOrdersRequest) ([]Order, shared.Pagination, error) {
	if req.Status != nil && !req.Status.IsValid() {
		return nil, shared.Pagination{}, fmt.Errorf("%w: %s", ErrInvalidStatusFilter, *req.Status)
	}
	items, total, err := s.repo.List(ctx, req)
	if err != nil {
		return nil, shared.Pagination{}, translateRepoError(err)
	}
	page := req.Page
	if page <= 0 {
		page = 1
	}
	return items, shared.NewPagination(page, req.limit(), total), nil
}

// History returns the status history in insertion order.
func (s *Service) History(ctx context.Context, id int64) ([]StatusChange, error) {
	if _, err := s.Get(ctx, id); err != nil {
		return nil, err
	}
	return s.repo.History(ctx, id)
}

// Update applies a plain field edit. Edits are rejected outside Open and
// Confirmed, and Confirmed orders reject the post-confirmation locked fields.
func (s *Service) Update(ctx context.Context, id int64, req UpdateOrderRequest) (*Order, error) {
	existing, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	updates, fields := collectUpdates(req)
	if len(updates) == 0 {
		return existing, nil
	}
	if err := CheckEditable(existing, fields); err != nil {
		return nil, err
	}

	if err := s.repo.UpdateFields(ctx, id, existing.Version, updates); err != nil {
		return nil, translateRepoError(err)
	}
	return s.Get(ctx, id)
}

// CheckEditable enforces the field-edit guards for the given json field names.
func CheckEditable(order *Order, fields []string) error {
	if order == nil {
		return orderstatus.NewError(orderstatus.KindNotFound, "", "Order not found")
	}
	if order.IsLocked || !orderstatus.CanEdit(order.Status) {
		return orderstatus.NewError(orderstatus.KindEditNotAllowed, "",
			fmt.Sprintf("Order cannot be edited in %s status", order.Status))
	}
	if order.Status != orderstatus.StatusConfirmed {
		return nil
	}
	var locked []string
	for _, f := range fields {
		for _, l := range LockedAfterConfirmation {
			if f == l {
				locked = append(locked, f)
			}
		}
	}
	if len(locked) > 0 {
		sort.Strings(locked)
		return orderstatus.NewError(orderstatus.KindLockedFieldEdit, strings.Join(locked, ","),
			fmt.Sprintf("Cannot modify %s after order confirmation", strings.Join(locked, ", ")))
	}
	return nil
}

// Delete removes an order that has not entered production.
func (s *Service) Delete(ctx context.Context, id int64) error {
	existing, err := s.Get(ctx, id)
	if err != nil {
		return err
	}
	if s.workOrders != nil {
		count, err := s.workOrders.CountWorkOrders(ctx, id)
		if err != nil {
			return orderstatus.Wrap(orderstatus.KindPersistenceError, "Failed to check work orders", err)
		}
		if count > 0 {
			return orderstatus.NewError(orderstatus.KindProductionAlreadyStarted, "",
				"Cannot delete order: work order already exists")
		}
	}
	if existing.Status != orderstatus.StatusOpen {
		return orderstatus.NewError(orderstatus.KindEditNotAllowed, "",
			fmt.Sprintf("Cannot delete order in %s status", existing.Status))
	}
	if err := s.repo.Delete(ctx, id); err != nil {
		return translateRepoError(err)
	}
	return nil
}

// MarkInvoiced records that an invoice has been generated for the order.
func (s *Service) MarkInvoiced(ctx context.Context, id int64, actorID int64) (*Order, error) {
	if err := s.repo.SetInvoiceGenerated(ctx, id, true); err != nil {
		return nil, translateRepoError(err)
	}
	order, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if order.PaymentStatus == PaymentCompleted {
		s.publish(ctx, events.New(events.InvoicePaid, id, actorID))
	}
	return order, nil
}

// RecordPayment updates the payment gate and announces completed payments.
func (s *Service) RecordPayment(ctx context.Context, id int64, status PaymentStatus, actorID int64) (*Order, error) {
	if !status.IsValid() {
		return nil, fmt.Errorf("%w: %s", ErrInvalidPaymentStatus, status)
	}
	if err := s.repo.SetPaymentStatus(ctx, id, status); err != nil {
		return nil, translateRepoError(err)
	}
	if status == PaymentCompleted {
		s.publish(ctx, events.New(events.InvoicePaid, id, actorID))
	}
	return s.Get(ctx, id)
}

func (s *Service) publish(ctx context.Context, evt events.Event) {
	if s.publisher == nil {
		return
	}
	if err := s.publisher.Publish(ctx, evt); err != nil {
		s.logger.Error("publish order event", slog.String("kind", string(evt.Kind)), slog.Int64("order_id", evt.OrderID), slog.Any("error", err))
	}
}

func collectUpdates(req UpdateOrderRequest) (map[string]interface{}, []string) {
	updates := make(map[string]interface{})
	var fields []string
	set := func(field, column string, value interface{}) {
		updates[column] = value
		fields = append(fields, field)
	}
	if req.CustomerName != nil {
		set("customerName", "customer_name", cleanText(*req.CustomerName))
	}
	if req.ItemName != nil {
		set("itemName", "item_name", cleanText(*req.ItemName))
	}
	if req.Quantity != nil {
		set("quantity", "quantity", *req.Quantity)
	}
	if req.UOM != nil {
		set("uom", "uom", cleanText(*req.UOM))
	}
	if req.Processes != nil {
		set("processes", "processes", cleanList(*req.Processes))
	}
	if req.UnitPrice != nil {
		set("unitPrice", "unit_price", *req.UnitPrice)
	}
	if req.GSTPercent != nil {
		set("gstPercent", "gst_percent", *req.GSTPercent)
	}
	if req.PackagingCost != nil {
		set("packagingCost", "packaging_cost", *req.PackagingCost)
	}
	if req.TransportCost != nil {
		set("transportCost", "transport_cost", *req.TransportCost)
	}
	if req.TotalAmount != nil {
		set("totalAmount", "total_amount", *req.TotalAmount)
	}
	if req.DeliveryDate != nil {
		set("deliveryDate", "delivery_date", *req.DeliveryDate)
	}
	if req.Notes != nil {
		set("notes", "notes", *req.Notes)
	}
	return updates, fields
}

func translateRepoError(err error) error {
	switch {
	case errors.Is(err, ErrNotFound):
		return orderstatus.Wrap(orderstatus.KindNotFound, "Order not found", err)
	case errors.Is(err, ErrVersionConflict):
		return orderstatus.Wrap(orderstatus.KindPersistenceError, "Order was modified concurrently, reload and retry", err)
	default:
		return orderstatus.Wrap(orderstatus.KindPersistenceError, "Failed to persist order", err)
	}
}

package orders

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/odyssey-erp/odyssey-mfg/internal/orderstatus"
	"github.com/odyssey-erp/odyssey-mfg/internal/platform/db"
)

// Repository persists orders and their status history.
type Repository interface {
	WithTx(ctx context.Context, fn func(context.Context, Repository) error) error
	Get(ctx context.Context, id int64) (*Order, error)
	History(ctx context.Context, id int64) ([]StatusChange, error)
	List(ctx context.Context, req ListOrdersRequest) ([]Order, int, error)
	ListIDsByStatus(ctx context.Context, status orderstatus.Status, limit int) ([]int64, error)

	NextSONumber(ctx context.Context, companyID int64) (int64, error)
	Insert(ctx context.Context, o Order) (int64, error)
	AppendHistory(ctx context.Context, change StatusChange) error
	UpdateFields(ctx context.Context, id, expectedVersion int64, updates map[string]interface{}) error
	// SaveTransition writes the status-owned columns of o and appends change,
	// provided the stored version still equals expectedVersion.
	SaveTransition(ctx context.Context, o *Order, expectedVersion int64, change StatusChange) error
	// ConvertQuotation moves an Approved quotation to Converted and fails with
	// ErrQuotationNotConvertible when another order already claimed it.
	ConvertQuotation(ctx context.Context, quotationID, actorID int64) error
	SetInvoiceGenerated(ctx context.Context, id int64, generated bool) error
	SetPaymentStatus(ctx context.Context, id int64, status PaymentStatus) error
	Delete(ctx context.Context, id int64) error
}

type dbtx interface {
	Exec(context.Context, string, ...interface{}) (pgconn.CommandTag, error)
	Query(context.Context, string, ...interface{}) (pgx.Rows, error)
	QueryRow(context.Context, string, ...interface{}) pgx.Row
}

type repository struct {
	db   dbtx
	pool *pgxpool.Pool
	inTx bool
}

// NewRepository creates a pgx backed Repository.
func NewRepository(pool *pgxpool.Pool) Repository {
	return &repository{db: pool, pool: pool}
}

func (r *repository) WithTx(ctx context.Context, fn func(context.Context, Repository) error) error {
	if r.inTx {
		return fn(ctx, r)
	}
	return db.WithTx(ctx, r.pool, func(tx pgx.Tx) error {
		return fn(ctx, &repository{db: tx, pool: r.pool, inTx: true})
	})
}

const orderColumns = `
	id, order_code, so_number, company_id, quotation_id,
	customer_id, customer_name, item_name, quantity, uom, processes,
	unit_price, gst_percent, packaging_cost, transport_cost, total_amount,
	delivery_date, notes, status, held_from_status, is_locked, locked_at,
	hold_reason, cancel_reason, dispatch_vehicle_number, dispatch_lr_number,
	dispatch_driver_name, dispatch_date, delivered_at, delivered_by,
	invoice_generated, payment_status, version, created_by, created_at, updated_at`

func (r *repository) Get(ctx context.Context, id int64) (*Order, error) {
	row := r.db.QueryRow(ctx, `SELECT `+orderColumns+` FROM sales_orders WHERE id = $1`, id)
	o, err := scanOrder(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	history, err := r.History(ctx, id)
	if err != nil {
		return nil, err
	}
	o.StatusHistory = history
	return o, nil
}

func (r *repository) History(ctx context.Context, id int64) ([]StatusChange, error) {
	rows, err := r.db.Query(ctx, `
		SELECT id, order_id, status, changed_by, changed_at, reason
		FROM sales_order_status_history
		WHERE order_id = $1
		ORDER BY id`, id)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var history []StatusChange
	for rows.Next() {
		var h StatusChange
		var status string
		if err := rows.Scan(&h.ID, &h.OrderID, &status, &h.ChangedBy, &h.ChangedAt, &h.Reason); err != nil {
			return nil, err
		}
		h.Status = orderstatus.Status(status)
		history = append(history, h)
	}
	return history, rows.Err()
}

func (r *repository) List(ctx context.Context, req ListOrdersRequest) ([]Order, int, error) {
	conditions := []string{"company_id = $1"}
	args := []interface{}{req.CompanyID}
	argPos := 2

	if req.CustomerID != nil {
		conditions = append(conditions, fmt.Sprintf("customer_id = $%d", argPos))
		args = append(args, *req.CustomerID)
		argPos++
	}
	if req.Status != nil {
		conditions = append(conditions, fmt.Sprintf("status = $%d", argPos))
		args = append(args, string(*req.Status))
		argPos++
	}
	whereClause := "WHERE " + strings.Join(conditions, " AND ")

	var total int
	if err := r.db.QueryRow(ctx, "SELECT COUNT(*) FROM sales_orders "+whereClause, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("count orders: %w", err)
	}

	query := fmt.Sprintf(`SELECT %s FROM sales_orders %s
		ORDER BY created_at DESC, id DESC
		LIMIT $%d OFFSET $%d`, orderColumns, whereClause, argPos, argPos+1)
	args = append(args, req.limit(), req.offset())

	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	orders := make([]Order, 0, req.limit())
	for rows.Next() {
		o, err := scanOrder(rows)
		if err != nil {
			return nil, 0, err
		}
		orders = append(orders, *o)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, err
	}
	return orders, total, nil
}

func (r *repository) ListIDsByStatus(ctx context.Context, status orderstatus.Status, limit int) ([]int64, error) {
	if limit <= 0 {
		limit = 500
	}
	rows, err := r.db.Query(ctx, `SELECT id FROM sales_orders WHERE status = $1 ORDER BY updated_at LIMIT $2`, string(status), limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var ids []int64
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

// NextSONumber allocates the next sales-order number for a company. The
// upsert holds the counter row lock until the surrounding transaction ends,
// so concurrent allocations are serialised.
func (r *repository) NextSONumber(ctx context.Context, companyID int64) (int64, error) {
	var next int64
	err := r.db.QueryRow(ctx, `
		INSERT INTO sales_order_counters (company_id, last_number)
		VALUES ($1, 1)
		ON CONFLICT (company_id) DO UPDATE SET last_number = sales_order_counters.last_number + 1
		RETURNING last_number`, companyID).Scan(&next)
	if err != nil {
		return 0, fmt.Errorf("allocate so number: %w", err)
	}
	return next, nil
}

func (r *repository) Insert(ctx context.Context, o Order) (int64, error) {
	var id int64
	err := r.db.QueryRow(ctx, `
		INSERT INTO sales_orders (
			order_code, so_number, company_id, quotation_id,
			customer_id, customer_name, item_name, quantity, uom, processes,
			unit_price, gst_percent, packaging_cost, transport_cost, total_amount,
			delivery_date, notes, status, payment_status, created_by
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18, $19, $20)
		RETURNING id`,
		o.OrderCode, o.SONumber, o.CompanyID, o.QuotationID,
		o.CustomerID, o.CustomerName, o.ItemName, o.Quantity, o.UOM, o.Processes,
		o.UnitPrice, o.GSTPercent, o.PackagingCost, o.TransportCost, o.TotalAmount,
		o.DeliveryDate, o.Notes, string(o.Status), string(o.PaymentStatus), o.CreatedBy,
	).Scan(&id)
	if err != nil {
		if db.IsUniqueViolation(err) {
			return 0, ErrDuplicateNumber
		}
		return 0, err
	}
	return id, nil
}

func (r *repository) AppendHistory(ctx context.Context, change StatusChange) error {
	_, err := r.db.Exec(ctx, `
		INSERT INTO sales_order_status_history (order_id, status, changed_by, changed_at, reason)
		VALUES ($1, $2, $3, $4, $5)`,
		change.OrderID, string(change.Status), change.ChangedBy, change.ChangedAt, change.Reason)
	return err
}

func (r *repository) ConvertQuotation(ctx context.Context, quotationID, actorID int64) error {
	tag, err := r.db.Exec(ctx, `
		UPDATE quotations
		SET status = 'Converted', changed_by = $2, changed_at = NOW(), updated_at = NOW()
		WHERE id = $1 AND status = 'Approved'`, quotationID, actorID)
	if err != nil {
		return fmt.Errorf("convert quotation: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("%w: quotation %d is no longer Approved", ErrQuotationNotConvertible, quotationID)
	}
	return nil
}

var editableColumns = map[string]struct{}{
	"customer_name": {}, "item_name": {}, "quantity": {}, "uom": {}, "processes": {},
	"unit_price": {}, "gst_percent": {}, "packaging_cost": {}, "transport_cost": {},
	"total_amount": {}, "delivery_date": {}, "notes": {},
}

func (r *repository) UpdateFields(ctx context.Context, id, expectedVersion int64, updates map[string]interface{}) error {
	if len(updates) == 0 {
		return nil
	}
	fields := make([]string, 0, len(updates))
	for field := range updates {
		if _, ok := editableColumns[field]; !ok {
			return fmt.Errorf("orders: column %q is not editable", field)
		}
		fields = append(fields, field)
	}
	sort.Strings(fields)

	var setClauses []string
	var args []interface{}
	argPos := 1
	for _, field := range fields {
		setClauses = append(setClauses, fmt.Sprintf("%s = $%d", field, argPos))
		args = append(args, updates[field])
		argPos++
	}
	query := fmt.Sprintf(`
		UPDATE sales_orders
		SET %s, version = version + 1, updated_at = NOW()
		WHERE id = $%d AND version = $%d`,
		strings.Join(setClauses, ", "), argPos, argPos+1)
	args = append(args, id, expectedVersion)

	tag, err := r.db.Exec(ctx, query, args...)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return r.missingOrStale(ctx, id)
	}
	return nil
}

func (r *repository) SaveTransition(ctx context.Context, o *Order, expectedVersion int64, change StatusChange) error {
	return r.WithTx(ctx, func(ctx context.Context, repo Repository) error {
		tx := repo.(*repository)
		var heldFrom *string
		if o.HeldFromStatus != nil {
			v := string(*o.HeldFromStatus)
			heldFrom = &v
		}
		var vehicle, lr, driver *string
		var dispatchDate *time.Time
		if o.Dispatch != nil {
			vehicle, lr, driver = &o.Dispatch.VehicleNumber, &o.Dispatch.LRNumber, &o.Dispatch.DriverName
			dispatchDate = o.Dispatch.DispatchDate
		}
		tag, err := tx.db.Exec(ctx, `
			UPDATE sales_orders SET
				status = $2, held_from_status = $3, is_locked = $4, locked_at = $5,
				hold_reason = $6, cancel_reason = $7,
				dispatch_vehicle_number = $8, dispatch_lr_number = $9,
				dispatch_driver_name = $10, dispatch_date = $11,
				delivered_at = $12, delivered_by = $13,
				version = version + 1, updated_at = NOW()
			WHERE id = $1 AND version = $14`,
			o.ID, string(o.Status), heldFrom, o.IsLocked, o.LockedAt,
			o.HoldReason, o.CancelReason,
			vehicle, lr, driver, dispatchDate,
			o.DeliveredAt, o.DeliveredBy, expectedVersion)
		if err != nil {
			return err
		}
		if tag.RowsAffected() == 0 {
			return tx.missingOrStale(ctx, o.ID)
		}
		return tx.AppendHistory(ctx, change)
	})
}

// SetInvoiceGenerated and SetPaymentStatus bump the version so a transition
// validated against the previous billing state fails its version check.
func (r *repository) SetInvoiceGenerated(ctx context.Context, id int64, generated bool) error {
	tag, err := r.db.Exec(ctx, `UPDATE sales_orders SET invoice_generated = $2, version = version + 1, updated_at = NOW() WHERE id = $1`, id, generated)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *repository) SetPaymentStatus(ctx context.Context, id int64, status PaymentStatus) error {
	tag, err := r.db.Exec(ctx, `UPDATE sales_orders SET payment_status = $2, version = version + 1, updated_at = NOW() WHERE id = $1`, id, string(status))
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *repository) Delete(ctx context.Context, id int64) error {
	tag, err := r.db.Exec(ctx, `DELETE FROM sales_orders WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *repository) missingOrStale(ctx context.Context, id int64) error {
	var exists bool
	if err := r.db.QueryRow(ctx, `SELECT EXISTS (SELECT 1 FROM sales_orders WHERE id = $1)`, id).Scan(&exists); err != nil {
		return err
	}
	if !exists {
		return ErrNotFound
	}
	return ErrVersionConflict
}

func scanOrder(row pgx.Row) (*Order, error) {
	var (
		o                                   Order
		dispatchDate                        *time.Time
		status, paymentStatus               string
		heldFrom, vehicle, lrNumber, driver *string
	)
	err := row.Scan(
		&o.ID, &o.OrderCode, &o.SONumber, &o.CompanyID, &o.QuotationID,
		&o.CustomerID, &o.CustomerName, &o.ItemName, &o.Quantity, &o.UOM, &o.Processes,
		&o.UnitPrice, &o.GSTPercent, &o.PackagingCost, &o.TransportCost, &o.TotalAmount,
		&o.DeliveryDate, &o.Notes, &status, &heldFrom, &o.IsLocked, &o.LockedAt,
		&o.HoldReason, &o.CancelReason, &vehicle, &lrNumber,
		&driver, &dispatchDate, &o.DeliveredAt, &o.DeliveredBy,
		&o.InvoiceGenerated, &paymentStatus, &o.Version, &o.CreatedBy, &o.CreatedAt, &o.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	o.Status = orderstatus.Status(status)
	o.PaymentStatus = PaymentStatus(paymentStatus)
	if heldFrom != nil {
		v := orderstatus.Status(*heldFrom)
		o.HeldFromStatus = &v
	}
	if vehicle != nil || lrNumber != nil || driver != nil || dispatchDate != nil {
		info := &DispatchInfo{DispatchDate: dispatchDate}
		if vehicle != nil {
			info.VehicleNumber = *vehicle
		}
		if lrNumber != nil {
			info.LRNumber = *lrNumber
		}
		if driver != nil {
			info.DriverName = *driver
		}
		o.Dispatch = info
	}
	return &o, nil
}

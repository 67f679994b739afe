package production

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/odyssey-erp/odyssey-mfg/internal/platform/db"
)

// Repository persists production trackers.
type Repository interface {
	WithTx(ctx context.Context, fn func(context.Context, Repository) error) error

	CountWorkOrders(ctx context.Context, orderID int64) (int, error)
	ListWorkOrders(ctx context.Context, orderID int64) ([]WorkOrder, error)
	InsertWorkOrder(ctx context.Context, wo WorkOrder) (int64, error)

	GetJobCard(ctx context.Context, id int64) (*JobCard, error)
	ListJobCards(ctx context.Context, orderID int64) ([]JobCard, error)
	InsertJobCard(ctx context.Context, jc JobCard) (int64, error)
	SaveJobCard(ctx context.Context, jc JobCard) error
	ResetJobCards(ctx context.Context, orderID int64) error

	GetJobWork(ctx context.Context, id int64) (*JobWork, error)
	ListJobWorks(ctx context.Context, orderID int64) ([]JobWork, error)
	InsertJobWork(ctx context.Context, jw JobWork) (int64, error)
	// SaveJobWork writes next only while the stored row still matches prev's
	// received quantity and status, and returns ErrJobWorkConflict otherwise.
	SaveJobWork(ctx context.Context, prev, next JobWork) error

	GetInspection(ctx context.Context, orderID int64) (*Inspection, error)
	UpsertInspection(ctx context.Context, in Inspection) (int64, error)
	InsertCompletedJob(ctx context.Context, cj CompletedJob) error
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

// ============================================================================
// WORK ORDERS
// ============================================================================

func (r *repository) CountWorkOrders(ctx context.Context, orderID int64) (int, error) {
	var n int
	err := r.db.QueryRow(ctx, `SELECT COUNT(*) FROM work_orders WHERE order_id = $1`, orderID).Scan(&n)
	return n, err
}

func (r *repository) ListWorkOrders(ctx context.Context, orderID int64) ([]WorkOrder, error) {
	rows, err := r.db.Query(ctx, `
		SELECT id, order_id, wo_number, selected_types, quantity::float8, created_by, created_at
		FROM work_orders WHERE order_id = $1 ORDER BY id`, orderID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []WorkOrder
	for rows.Next() {
		var wo WorkOrder
		var types []string
		if err := rows.Scan(&wo.ID, &wo.OrderID, &wo.WONumber, &types, &wo.Quantity, &wo.CreatedBy, &wo.CreatedAt); err != nil {
			return nil, err
		}
		for _, t := range types {
			wo.SelectedTypes = append(wo.SelectedTypes, WorkType(t))
		}
		out = append(out, wo)
	}
	return out, rows.Err()
}

func (r *repository) InsertWorkOrder(ctx context.Context, wo WorkOrder) (int64, error) {
	types := make([]string, len(wo.SelectedTypes))
	for i, t := range wo.SelectedTypes {
		types[i] = string(t)
	}
	var id int64
	err := r.db.QueryRow(ctx, `
		INSERT INTO work_orders (order_id, wo_number, selected_types, quantity, created_by, created_at)
		VALUES ($1, $2, $3, $4, $5, NOW())
		RETURNING id`, wo.OrderID, wo.WONumber, types, wo.Quantity, wo.CreatedBy).Scan(&id)
	if err != nil {
		return 0, fmt.Errorf("insert work order: %w", err)
	}
	return id, nil
}

// ============================================================================
// JOB CARDS
// ============================================================================

const jobCardColumns = `id, work_order_id, order_id, process, sequence, status, started_at, completed_by, completed_at`

func scanJobCard(row pgx.Row) (*JobCard, error) {
	var jc JobCard
	var status string
	if err := row.Scan(&jc.ID, &jc.WorkOrderID, &jc.OrderID, &jc.Process, &jc.Sequence, &status,
		&jc.StartedAt, &jc.CompletedBy, &jc.CompletedAt); err != nil {
		return nil, err
	}
	jc.Status = JobCardStatus(status)
	return &jc, nil
}

func (r *repository) GetJobCard(ctx context.Context, id int64) (*JobCard, error) {
	jc, err := scanJobCard(r.db.QueryRow(ctx, `SELECT `+jobCardColumns+` FROM job_cards WHERE id = $1`, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	return jc, err
}

func (r *repository) ListJobCards(ctx context.Context, orderID int64) ([]JobCard, error) {
	rows, err := r.db.Query(ctx, `SELECT `+jobCardColumns+` FROM job_cards WHERE order_id = $1 ORDER BY work_order_id, sequence`, orderID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []JobCard
	for rows.Next() {
		jc, err := scanJobCard(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *jc)
	}
	return out, rows.Err()
}

func (r *repository) InsertJobCard(ctx context.Context, jc JobCard) (int64, error) {
	var id int64
	err := r.db.QueryRow(ctx, `
		INSERT INTO job_cards (work_order_id, order_id, process, sequence, status)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id`, jc.WorkOrderID, jc.OrderID, jc.Process, jc.Sequence, string(jc.Status)).Scan(&id)
	if err != nil {
		return 0, fmt.Errorf("insert job card: %w", err)
	}
	return id, nil
}

func (r *repository) SaveJobCard(ctx context.Context, jc JobCard) error {
	tag, err := r.db.Exec(ctx, `
		UPDATE job_cards SET status = $2, started_at = $3, completed_by = $4, completed_at = $5
		WHERE id = $1`, jc.ID, string(jc.Status), jc.StartedAt, jc.CompletedBy, jc.CompletedAt)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *repository) ResetJobCards(ctx context.Context, orderID int64) error {
	_, err := r.db.Exec(ctx, `
		UPDATE job_cards SET status = $2, started_at = NULL, completed_by = NULL, completed_at = NULL
		WHERE order_id = $1`, orderID, string(JobCardPending))
	return err
}

// ============================================================================
// JOB WORKS
// ============================================================================

const jobWorkColumns = `id, work_order_id, order_id, process, vendor_name, quantity_sent::float8,
	quantity_received::float8, status, sent_at, returned_at`

func scanJobWork(row pgx.Row) (*JobWork, error) {
	var jw JobWork
	var status string
	if err := row.Scan(&jw.ID, &jw.WorkOrderID, &jw.OrderID, &jw.Process, &jw.VendorName,
		&jw.QuantitySent, &jw.QuantityReceived, &status, &jw.SentAt, &jw.ReturnedAt); err != nil {
		return nil, err
	}
	jw.Status = JobWorkStatus(status)
	return &jw, nil
}

func (r *repository) GetJobWork(ctx context.Context, id int64) (*JobWork, error) {
	jw, err := scanJobWork(r.db.QueryRow(ctx, `SELECT `+jobWorkColumns+` FROM job_works WHERE id = $1`, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	return jw, err
}

func (r *repository) ListJobWorks(ctx context.Context, orderID int64) ([]JobWork, error) {
	rows, err := r.db.Query(ctx, `SELECT `+jobWorkColumns+` FROM job_works WHERE order_id = $1 ORDER BY id`, orderID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []JobWork
	for rows.Next() {
		jw, err := scanJobWork(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *jw)
	}
	return out, rows.Err()
}

func (r *repository) InsertJobWork(ctx context.Context, jw JobWork) (int64, error) {
	var id int64
	err := r.db.QueryRow(ctx, `
		INSERT INTO job_works (work_order_id, order_id, process, vendor_name, quantity_sent, quantity_received, status, sent_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING id`, jw.WorkOrderID, jw.OrderID, jw.Process, jw.VendorName, jw.QuantitySent,
		jw.QuantityReceived, string(jw.Status), jw.SentAt).Scan(&id)
	if err != nil {
		return 0, fmt.Errorf("insert job work: %w", err)
	}
	return id, nil
}

func (r *repository) SaveJobWork(ctx context.Context, prev, next JobWork) error {
	tag, err := r.db.Exec(ctx, `
		UPDATE job_works
		SET quantity_received = $2, status = $3, sent_at = $4, returned_at = $5
		WHERE id = $1 AND quantity_received = $6 AND status = $7 AND $2 <= quantity_sent`,
		next.ID, next.QuantityReceived, string(next.Status), next.SentAt, next.ReturnedAt,
		prev.QuantityReceived, string(prev.Status))
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		if _, err := r.GetJobWork(ctx, next.ID); err != nil {
			return err
		}
		return ErrJobWorkConflict
	}
	return nil
}

// ============================================================================
// INSPECTION
// ============================================================================

func (r *repository) GetInspection(ctx context.Context, orderID int64) (*Inspection, error) {
	var in Inspection
	var result string
	err := r.db.QueryRow(ctx, `
		SELECT id, order_id, result, remarks, inspected_by, inspected_at
		FROM inspections WHERE order_id = $1`, orderID).
		Scan(&in.ID, &in.OrderID, &result, &in.Remarks, &in.InspectedBy, &in.InspectedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	in.Result = InspectionResult(result)
	return &in, nil
}

func (r *repository) UpsertInspection(ctx context.Context, in Inspection) (int64, error) {
	at := in.InspectedAt
	if at.IsZero() {
		at = time.Now()
	}
	var id int64
	err := r.db.QueryRow(ctx, `
		INSERT INTO inspections (order_id, result, remarks, inspected_by, inspected_at)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (order_id) DO UPDATE
		SET result = EXCLUDED.result, remarks = EXCLUDED.remarks,
		    inspected_by = EXCLUDED.inspected_by, inspected_at = EXCLUDED.inspected_at
		RETURNING id`, in.OrderID, string(in.Result), in.Remarks, in.InspectedBy, at).Scan(&id)
	if err != nil {
		return 0, fmt.Errorf("upsert inspection: %w", err)
	}
	return id, nil
}

func (r *repository) InsertCompletedJob(ctx context.Context, cj CompletedJob) error {
	_, err := r.db.Exec(ctx, `
		INSERT INTO completed_jobs (order_id, inspection_id, completed_at)
		VALUES ($1, $2, $3)
		ON CONFLICT (order_id) DO NOTHING`, cj.OrderID, cj.InspectionID, cj.CompletedAt)
	return err
}

package quotations

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// Repository persists quotation status.
type Repository interface {
	Get(ctx context.Context, id int64) (*Quotation, error)
	// UpdateStatus moves the quotation to status only if it is still in from.
	UpdateStatus(ctx context.Context, id int64, from, to Status, userID int64, reason *string) error
}

type repository struct {
	pool *pgxpool.Pool
}

// NewRepository creates a pgx backed Repository.
func NewRepository(pool *pgxpool.Pool) Repository {
	return &repository{pool: pool}
}

func (r *repository) Get(ctx context.Context, id int64) (*Quotation, error) {
	var q Quotation
	var status string
	err := r.pool.QueryRow(ctx, `
		SELECT id, doc_number, company_id, customer_id, status, total_amount::float8,
		       status_reason, changed_by, changed_at, created_by, created_at, updated_at
		FROM quotations WHERE id = $1`, id).
		Scan(&q.ID, &q.DocNumber, &q.CompanyID, &q.CustomerID, &status, &q.TotalAmount,
			&q.StatusReason, &q.ChangedBy, &q.ChangedAt, &q.CreatedBy, &q.CreatedAt, &q.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	q.Status = Status(status)
	return &q, nil
}

func (r *repository) UpdateStatus(ctx context.Context, id int64, from, to Status, userID int64, reason *string) error {
	tag, err := r.pool.Exec(ctx, `
		UPDATE quotations
		SET status = $3, status_reason = $4, changed_by = $5, changed_at = $6, updated_at = NOW()
		WHERE id = $1 AND status = $2`,
		id, string(from), string(to), reason, userID, time.Now())
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		if _, getErr := r.Get(ctx, id); getErr != nil {
			return getErr
		}
		return ErrInvalidTransition
	}
	return nil
}

package dispatch

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/odyssey-erp/odyssey-mfg/internal/platform/db"
)

// Store persists dispatch documents.
type Store interface {
	GetByOrder(ctx context.Context, orderID int64) (*Dispatch, error)
	Create(ctx context.Context, d Dispatch) (int64, error)
}

// Repository provides PostgreSQL backed persistence for dispatches.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs a repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

// GetByOrder returns the dispatch for an order.
func (r *Repository) GetByOrder(ctx context.Context, orderID int64) (*Dispatch, error) {
	query := `
		SELECT id, doc_number, order_id, vehicle_number, lr_number, driver_name,
		       dispatch_date, notes, created_by, created_at
		FROM dispatches
		WHERE order_id = $1
	`
	var d Dispatch
	err := r.pool.QueryRow(ctx, query, orderID).Scan(
		&d.ID, &d.DocNumber, &d.OrderID, &d.VehicleNumber, &d.LRNumber, &d.DriverName,
		&d.DispatchDate, &d.Notes, &d.CreatedBy, &d.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("get dispatch: %w", err)
	}
	return &d, nil
}

// Create inserts a dispatch. One dispatch per order.
func (r *Repository) Create(ctx context.Context, d Dispatch) (int64, error) {
	query := `
		INSERT INTO dispatches (doc_number, order_id, vehicle_number, lr_number, driver_name,
		                        dispatch_date, notes, created_by, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, NOW())
		RETURNING id
	`
	var id int64
	err := r.pool.QueryRow(ctx, query, d.DocNumber, d.OrderID, d.VehicleNumber, d.LRNumber,
		d.DriverName, d.DispatchDate, d.Notes, d.CreatedBy).Scan(&id)
	if err != nil {
		if db.IsUniqueViolation(err) {
			return 0, ErrAlreadyExists
		}
		return 0, fmt.Errorf("insert dispatch: %w", err)
	}
	return id, nil
}

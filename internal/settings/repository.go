package settings

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type repository struct {
	pool *pgxpool.Pool
}

// NewRepository returns the pgx backed settings repository.
func NewRepository(pool *pgxpool.Pool) Repository {
	return &repository{pool: pool}
}

func (r *repository) Get(ctx context.Context, companyID int64) (*CompanySettings, error) {
	const q = `SELECT company_id, company_name, order_prefix, default_gst_percent, updated_at
FROM company_settings WHERE company_id = $1`
	var s CompanySettings
	err := r.pool.QueryRow(ctx, q, companyID).Scan(
		&s.CompanyID, &s.CompanyName, &s.OrderPrefix, &s.DefaultGSTPercent, &s.UpdatedAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &s, nil
}

func (r *repository) Upsert(ctx context.Context, s CompanySettings) error {
	const q = `INSERT INTO company_settings (company_id, company_name, order_prefix, default_gst_percent, updated_at)
VALUES ($1, $2, $3, $4, NOW())
ON CONFLICT (company_id) DO UPDATE
SET company_name = EXCLUDED.company_name,
    order_prefix = EXCLUDED.order_prefix,
    default_gst_percent = EXCLUDED.default_gst_percent,
    updated_at = NOW()`
	_, err := r.pool.Exec(ctx, q, s.CompanyID, s.CompanyName, s.OrderPrefix, s.DefaultGSTPercent)
	return err
}

// Package settings holds per-company configuration read on the order path,
// such as the order code prefix.
package settings

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"
)

// DefaultOrderPrefix is used when a company has no prefix configured.
const DefaultOrderPrefix = "SO"

var (
	ErrNotFound      = errors.New("company settings not found")
	ErrInvalidPrefix = errors.New("order prefix must be 1-10 upper-case letters or digits")
)

// CompanySettings is the per-company configuration row.
type CompanySettings struct {
	CompanyID         int64     `json:"company_id"`
	CompanyName       string    `json:"company_name"`
	OrderPrefix       string    `json:"order_prefix"`
	DefaultGSTPercent float64   `json:"default_gst_percent"`
	UpdatedAt         time.Time `json:"updated_at"`
}

// UpdateRequest replaces the editable settings of a company.
type UpdateRequest struct {
	CompanyName       string  `json:"company_name" validate:"required,max=200"`
	OrderPrefix       string  `json:"order_prefix" validate:"required,max=10,alphanum"`
	DefaultGSTPercent float64 `json:"default_gst_percent" validate:"gte=0,lte=100"`
}

// Repository persists company settings.
type Repository interface {
	Get(ctx context.Context, companyID int64) (*CompanySettings, error)
	Upsert(ctx context.Context, s CompanySettings) error
}

// Store serves settings through the cache and invalidates on write.
type Store struct {
	repo   Repository
	cache  *Cache
	logger *slog.Logger
}

// NewStore wires the settings store. cache may be nil.
func NewStore(repo Repository, cache *Cache, logger *slog.Logger) *Store {
	if logger == nil {
		logger = slog.Default()
	}
	return &Store{repo: repo, cache: cache, logger: logger}
}

// Get returns the settings of a company.
func (s *Store) Get(ctx context.Context, companyID int64) (*CompanySettings, error) {
	var out CompanySettings
	err := s.cache.FetchJSON(ctx, cacheKey(companyID), &out, func(ctx context.Context) (interface{}, error) {
		return s.repo.Get(ctx, companyID)
	})
	if err != nil {
		return nil, err
	}
	return &out, nil
}

// Update stores new settings and drops the cached copy.
func (s *Store) Update(ctx context.Context, companyID int64, req UpdateRequest) (*CompanySettings, error) {
	prefix := strings.ToUpper(strings.TrimSpace(req.OrderPrefix))
	if prefix == "" || len(prefix) > 10 {
		return nil, ErrInvalidPrefix
	}
	row := CompanySettings{
		CompanyID:         companyID,
		CompanyName:       strings.TrimSpace(req.CompanyName),
		OrderPrefix:       prefix,
		DefaultGSTPercent: req.DefaultGSTPercent,
	}
	if err := s.repo.Upsert(ctx, row); err != nil {
		return nil, fmt.Errorf("settings: upsert company %d: %w", companyID, err)
	}
	if err := s.cache.Invalidate(ctx, cacheKey(companyID)); err != nil {
		s.logger.Warn("settings cache invalidate failed", slog.Int64("company_id", companyID), slog.Any("error", err))
	}
	return s.repo.Get(ctx, companyID)
}

// OrderPrefix returns the order code prefix, falling back to the default for
// companies without settings.
func (s *Store) OrderPrefix(ctx context.Context, companyID int64) (string, error) {
	cs, err := s.Get(ctx, companyID)
	if errors.Is(err, ErrNotFound) {
		return DefaultOrderPrefix, nil
	}
	if err != nil {
		return "", err
	}
	if cs.OrderPrefix == "" {
		return DefaultOrderPrefix, nil
	}
	return cs.OrderPrefix, nil
}

func cacheKey(companyID int64) string {
	return fmt.Sprintf("settings:company:%d", companyID)
}

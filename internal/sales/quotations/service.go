package quotations

import (
	"context"
	"fmt"
)

// Service applies quotation status changes through the quotation registry.
type Service struct {
	repo Repository
}

func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

func (s *Service) Get(ctx context.Context, id int64) (*Quotation, error) {
	return s.repo.Get(ctx, id)
}

// Transition validates and persists a status change.
func (s *Service) Transition(ctx context.Context, id int64, to Status, userID int64, reason *string) (*Quotation, error) {
	existing, err := s.repo.Get(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("get quotation: %w", err)
	}
	if err := ValidateTransition(existing.Status, to); err != nil {
		return nil, err
	}
	if err := s.repo.UpdateStatus(ctx, id, existing.Status, to, userID, reason); err != nil {
		return nil, fmt.Errorf("update quotation status: %w", err)
	}
	return s.repo.Get(ctx, id)
}

// EnsureConvertible reports whether an order may be created from the quotation.
func (s *Service) EnsureConvertible(ctx context.Context, id int64) error {
	existing, err := s.repo.Get(ctx, id)
	if err != nil {
		return err
	}
	return ValidateTransition(existing.Status, StatusConverted)
}

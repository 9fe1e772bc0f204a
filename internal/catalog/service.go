package catalog

import (
	"context"
	"fmt"

	"github.com/gescom-app/gescom/internal/shared"
)

// Service wraps catalog business rules.
type Service struct {
	repo Repository
}

// NewService constructs a new Service.
func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

func (s *Service) Get(ctx context.Context, id int64) (*Item, error) {
	return s.repo.Get(ctx, id)
}

func (s *Service) List(ctx context.Context, activeOnly bool) ([]Item, error) {
	return s.repo.List(ctx, activeOnly)
}

func (s *Service) Create(ctx context.Context, item Item) (*Item, error) {
	if err := validateItem(item); err != nil {
		return nil, err
	}
	item.Active = true
	id, err := s.repo.Create(ctx, item)
	if err != nil {
		return nil, fmt.Errorf("create catalog item: %w", err)
	}
	return s.repo.Get(ctx, id)
}

func (s *Service) Update(ctx context.Context, item Item) (*Item, error) {
	if err := validateItem(item); err != nil {
		return nil, err
	}
	if err := s.repo.Update(ctx, item); err != nil {
		return nil, fmt.Errorf("update catalog item: %w", err)
	}
	return s.repo.Get(ctx, item.ID)
}

func validateItem(item Item) error {
	if item.Name == "" {
		return fmt.Errorf("%w: name is required", shared.ErrValidation)
	}
	if item.Reference == "" {
		return fmt.Errorf("%w: reference is required", shared.ErrValidation)
	}
	if item.Tariff < 0 {
		return fmt.Errorf("%w: tariff cannot be negative", shared.ErrValidation)
	}
	return nil
}

package clients

import (
	"context"
	"fmt"

	"github.com/gescom-app/gescom/internal/shared"
)

// Service wraps client registry business rules.
type Service struct {
	repo Repository
}

// NewService constructs a new Service.
func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

func (s *Service) Get(ctx context.Context, id int64) (*Client, error) {
	return s.repo.Get(ctx, id)
}

func (s *Service) List(ctx context.Context, activeOnly bool, page shared.Page) ([]Client, int, error) {
	return s.repo.List(ctx, activeOnly, page)
}

func (s *Service) Create(ctx context.Context, c Client) (*Client, error) {
	if c.CompanyName == "" {
		return nil, fmt.Errorf("%w: company name is required", shared.ErrValidation)
	}
	c.Active = true
	id, err := s.repo.Create(ctx, c)
	if err != nil {
		return nil, fmt.Errorf("create client: %w", err)
	}
	return s.repo.Get(ctx, id)
}

func (s *Service) Update(ctx context.Context, c Client) (*Client, error) {
	if c.CompanyName == "" {
		return nil, fmt.Errorf("%w: company name is required", shared.ErrValidation)
	}
	if err := s.repo.Update(ctx, c); err != nil {
		return nil, fmt.Errorf("update client: %w", err)
	}
	return s.repo.Get(ctx, c.ID)
}

func (s *Service) Deactivate(ctx context.Context, id int64) error {
	return s.repo.SetActive(ctx, id, false)
}

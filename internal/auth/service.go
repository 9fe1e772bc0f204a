package auth

import (
	"context"
	"fmt"

	"golang.org/x/crypto/bcrypt"

	"github.com/gescom-app/gescom/internal/shared"
)

// Service wraps authentication business rules.
type Service struct {
	repo Repository
}

// NewService constructs a new Service.
func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

// Authenticate validates username/password credentials. Unvalidated
// accounts are rejected with the same error as bad credentials.
func (s *Service) Authenticate(ctx context.Context, username, password string) (*User, error) {
	user, err := s.repo.FindByUsername(ctx, username)
	if err != nil {
		return nil, shared.ErrInvalidCredentials
	}
	if !user.Validated {
		return nil, shared.ErrInvalidCredentials
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		return nil, shared.ErrInvalidCredentials
	}
	return user, nil
}

// Register creates a new, unvalidated account.
func (s *Service) Register(ctx context.Context, username, fullName, password string, role Role) (*User, error) {
	if username == "" {
		return nil, fmt.Errorf("%w: username is required", shared.ErrValidation)
	}
	if len(password) < 8 {
		return nil, fmt.Errorf("%w: password must be at least 8 characters", shared.ErrValidation)
	}
	if role == "" {
		role = RoleCashier
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}

	id, err := s.repo.Create(ctx, User{
		Username:     username,
		FullName:     fullName,
		Role:         role,
		Validated:    false,
		PasswordHash: string(hash),
	})
	if err != nil {
		return nil, fmt.Errorf("create user: %w", err)
	}
	return s.repo.FindByID(ctx, id)
}

// Validate flips the account to validated so it can log in.
func (s *Service) Validate(ctx context.Context, id int64) error {
	return s.repo.SetValidated(ctx, id, true)
}

// CurrentUser resolves the account bound to the session.
func (s *Service) CurrentUser(ctx context.Context, id int64) (*User, error) {
	return s.repo.FindByID(ctx, id)
}

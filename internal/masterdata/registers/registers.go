// Package registers manages the cash registers settlements are paid into.
package registers

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/gescom-app/gescom/internal/shared"
)

// Register is a cash register (payment channel). Inflow and balance are
// denormalised totals recomputed by the register:refresh background job,
// never on the settlement path.
type Register struct {
	ID             int64  `json:"id" db:"id"`
	Name           string `json:"name" db:"name"`
	Manager        string `json:"manager" db:"manager"`
	OpeningBalance int64  `json:"opening_balance" db:"opening_balance"`
	Inflow         int64  `json:"inflow" db:"inflow"`
	Outflow        int64  `json:"outflow" db:"outflow"`
	Balance        int64  `json:"balance" db:"balance"`
	shared.Audit
}

// Repository defines persistence operations for cash registers.
type Repository interface {
	Get(ctx context.Context, id int64) (*Register, error)
	ListActive(ctx context.Context) ([]Register, error)
	Create(ctx context.Context, reg Register) (int64, error)
	Update(ctx context.Context, reg Register) error
	UpdateTotals(ctx context.Context, id int64, inflow, balance int64) error
	SoftDelete(ctx context.Context, id int64, actorID int64) error
}

type repository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs a PostgreSQL repository.
func NewRepository(pool *pgxpool.Pool) Repository {
	return &repository{pool: pool}
}

const registerColumns = `id, name, manager, opening_balance, inflow, outflow, balance,
	record_status, created_by, updated_by, deleted_by, created_at, updated_at`

func scanRegister(row interface{ Scan(...any) error }) (*Register, error) {
	var reg Register
	err := row.Scan(&reg.ID, &reg.Name, &reg.Manager, &reg.OpeningBalance,
		&reg.Inflow, &reg.Outflow, &reg.Balance, &reg.RecordStatus,
		&reg.CreatedBy, &reg.UpdatedBy, &reg.DeletedBy, &reg.CreatedAt, &reg.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return &reg, nil
}

func (r *repository) Get(ctx context.Context, id int64) (*Register, error) {
	reg, err := scanRegister(r.pool.QueryRow(ctx,
		`SELECT `+registerColumns+` FROM cash_registers WHERE id = $1`, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return reg, nil
}

func (r *repository) ListActive(ctx context.Context) ([]Register, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT `+registerColumns+` FROM cash_registers WHERE record_status <> $1 ORDER BY name`,
		shared.RecordDeleted)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Register
	for rows.Next() {
		reg, err := scanRegister(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *reg)
	}
	return out, rows.Err()
}

func (r *repository) Create(ctx context.Context, reg Register) (int64, error) {
	var id int64
	err := r.pool.QueryRow(ctx, `
		INSERT INTO cash_registers (name, manager, opening_balance, inflow, outflow,
			balance, record_status, created_by, updated_by, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
		RETURNING id`,
		reg.Name, reg.Manager, reg.OpeningBalance, reg.Inflow, reg.Outflow,
		reg.Balance, reg.RecordStatus, reg.CreatedBy, reg.UpdatedBy,
		reg.CreatedAt, reg.UpdatedAt,
	).Scan(&id)
	return id, err
}

func (r *repository) Update(ctx context.Context, reg Register) error {
	tag, err := r.pool.Exec(ctx, `
		UPDATE cash_registers SET name = $2, manager = $3, opening_balance = $4,
			record_status = $5, updated_by = $6, updated_at = $7
		WHERE id = $1`,
		reg.ID, reg.Name, reg.Manager, reg.OpeningBalance,
		reg.RecordStatus, reg.UpdatedBy, reg.UpdatedAt,
	)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return shared.ErrNotFound
	}
	return nil
}

func (r *repository) UpdateTotals(ctx context.Context, id int64, inflow, balance int64) error {
	tag, err := r.pool.Exec(ctx, `
		UPDATE cash_registers SET inflow = $2, balance = $3, updated_at = NOW()
		WHERE id = $1`,
		id, inflow, balance,
	)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return shared.ErrNotFound
	}
	return nil
}

func (r *repository) SoftDelete(ctx context.Context, id int64, actorID int64) error {
	tag, err := r.pool.Exec(ctx, `
		UPDATE cash_registers SET record_status = $2, deleted_by = $3, updated_at = NOW()
		WHERE id = $1`,
		id, shared.RecordDeleted, actorID,
	)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return shared.ErrNotFound
	}
	return nil
}

// Service wraps cash register business rules.
type Service struct {
	repo Repository
}

// NewService constructs a new Service.
func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

func (s *Service) Get(ctx context.Context, id int64) (*Register, error) {
	return s.repo.Get(ctx, id)
}

func (s *Service) ListActive(ctx context.Context) ([]Register, error) {
	return s.repo.ListActive(ctx)
}

func (s *Service) Create(ctx context.Context, reg Register, actorID int64) (*Register, error) {
	if reg.Name == "" {
		return nil, fmt.Errorf("%w: name is required", shared.ErrValidation)
	}
	if reg.OpeningBalance < 0 {
		return nil, fmt.Errorf("%w: opening balance cannot be negative", shared.ErrValidation)
	}
	reg.Balance = reg.OpeningBalance
	reg.StampCreate(actorID, time.Now().UTC())
	id, err := s.repo.Create(ctx, reg)
	if err != nil {
		return nil, fmt.Errorf("create register: %w", err)
	}
	return s.repo.Get(ctx, id)
}

func (s *Service) Update(ctx context.Context, reg Register, actorID int64) (*Register, error) {
	existing, err := s.repo.Get(ctx, reg.ID)
	if err != nil {
		return nil, err
	}
	if existing.Deleted() {
		return nil, fmt.Errorf("%w: register %d is deleted", shared.ErrLocked, reg.ID)
	}
	reg.Audit = existing.Audit
	reg.StampUpdate(actorID, time.Now().UTC())
	if err := s.repo.Update(ctx, reg); err != nil {
		return nil, fmt.Errorf("update register: %w", err)
	}
	return s.repo.Get(ctx, reg.ID)
}

func (s *Service) SoftDelete(ctx context.Context, id int64, actorID int64) error {
	return s.repo.SoftDelete(ctx, id, actorID)
}

// Package channels manages the sales pages an order can originate from.
package channels

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/gescom-app/gescom/internal/shared"
)

// Type partitions channels between goods and service pages.
type Type string

const (
	TypeSale    Type = "VENTE"
	TypeService Type = "SERVICE"
)

// Channel is a sales page (social page, storefront) orders reference.
type Channel struct {
	ID      int64   `json:"id" db:"id"`
	Name    string  `json:"name" db:"name"`
	Contact string  `json:"contact" db:"contact"`
	Link    *string `json:"link,omitempty" db:"link"`
	Type    Type    `json:"type" db:"type"`
	shared.Audit
}

// Repository defines persistence operations for channels.
type Repository interface {
	Get(ctx context.Context, id int64) (*Channel, error)
	ListActive(ctx context.Context, channelType Type) ([]Channel, error)
	Create(ctx context.Context, ch Channel) (int64, error)
	Update(ctx context.Context, ch Channel) error
	SoftDelete(ctx context.Context, id int64, actorID int64) error
}

type repository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs a PostgreSQL repository.
func NewRepository(pool *pgxpool.Pool) Repository {
	return &repository{pool: pool}
}

const channelColumns = `id, name, contact, link, type, record_status,
	created_by, updated_by, deleted_by, created_at, updated_at`

func (r *repository) Get(ctx context.Context, id int64) (*Channel, error) {
	var ch Channel
	err := r.pool.QueryRow(ctx, `SELECT `+channelColumns+` FROM channels WHERE id = $1`, id).Scan(
		&ch.ID, &ch.Name, &ch.Contact, &ch.Link, &ch.Type, &ch.RecordStatus,
		&ch.CreatedBy, &ch.UpdatedBy, &ch.DeletedBy, &ch.CreatedAt, &ch.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return &ch, nil
}

func (r *repository) ListActive(ctx context.Context, channelType Type) ([]Channel, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT `+channelColumns+` FROM channels WHERE record_status <> $1 AND type = $2 ORDER BY name`,
		shared.RecordDeleted, channelType)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Channel
	for rows.Next() {
		var ch Channel
		if err := rows.Scan(&ch.ID, &ch.Name, &ch.Contact, &ch.Link, &ch.Type, &ch.RecordStatus,
			&ch.CreatedBy, &ch.UpdatedBy, &ch.DeletedBy, &ch.CreatedAt, &ch.UpdatedAt); err != nil {
			return nil, err
		}
		out = append(out, ch)
	}
	return out, rows.Err()
}

func (r *repository) Create(ctx context.Context, ch Channel) (int64, error) {
	var id int64
	err := r.pool.QueryRow(ctx, `
		INSERT INTO channels (name, contact, link, type, record_status,
			created_by, updated_by, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		RETURNING id`,
		ch.Name, ch.Contact, ch.Link, ch.Type, ch.RecordStatus,
		ch.CreatedBy, ch.UpdatedBy, ch.CreatedAt, ch.UpdatedAt,
	).Scan(&id)
	return id, err
}

func (r *repository) Update(ctx context.Context, ch Channel) error {
	tag, err := r.pool.Exec(ctx, `
		UPDATE channels SET name = $2, contact = $3, link = $4, type = $5,
			record_status = $6, updated_by = $7, updated_at = $8
		WHERE id = $1`,
		ch.ID, ch.Name, ch.Contact, ch.Link, ch.Type,
		ch.RecordStatus, ch.UpdatedBy, ch.UpdatedAt,
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
		UPDATE channels SET record_status = $2, deleted_by = $3, updated_at = NOW()
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

// Service wraps channel business rules.
type Service struct {
	repo Repository
}

// NewService constructs a new Service.
func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

func (s *Service) Get(ctx context.Context, id int64) (*Channel, error) {
	return s.repo.Get(ctx, id)
}

func (s *Service) ListActive(ctx context.Context, channelType Type) ([]Channel, error) {
	if channelType == "" {
		channelType = TypeService
	}
	return s.repo.ListActive(ctx, channelType)
}

func (s *Service) Create(ctx context.Context, ch Channel, actorID int64) (*Channel, error) {
	if ch.Name == "" {
		return nil, fmt.Errorf("%w: name is required", shared.ErrValidation)
	}
	if ch.Type != TypeSale && ch.Type != TypeService {
		return nil, fmt.Errorf("%w: unknown channel type %q", shared.ErrValidation, ch.Type)
	}
	ch.StampCreate(actorID, nowUTC())
	id, err := s.repo.Create(ctx, ch)
	if err != nil {
		return nil, fmt.Errorf("create channel: %w", err)
	}
	return s.repo.Get(ctx, id)
}

func (s *Service) Update(ctx context.Context, ch Channel, actorID int64) (*Channel, error) {
	existing, err := s.repo.Get(ctx, ch.ID)
	if err != nil {
		return nil, err
	}
	if existing.Deleted() {
		return nil, fmt.Errorf("%w: channel %d is deleted", shared.ErrLocked, ch.ID)
	}
	ch.Audit = existing.Audit
	ch.StampUpdate(actorID, nowUTC())
	if err := s.repo.Update(ctx, ch); err != nil {
		return nil, fmt.Errorf("update channel: %w", err)
	}
	return s.repo.Get(ctx, ch.ID)
}

func (s *Service) SoftDelete(ctx context.Context, id int64, actorID int64) error {
	return s.repo.SoftDelete(ctx, id, actorID)
}

package catalog

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/gescom-app/gescom/internal/shared"
)

// Repository defines persistence operations for the service catalog.
type Repository interface {
	Get(ctx context.Context, id int64) (*Item, error)
	List(ctx context.Context, activeOnly bool) ([]Item, error)
	Create(ctx context.Context, item Item) (int64, error)
	Update(ctx context.Context, item Item) error
}

type repository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs a PostgreSQL repository.
func NewRepository(pool *pgxpool.Pool) Repository {
	return &repository{pool: pool}
}

const itemColumns = `id, name, reference, tariff, active, created_at, updated_at`

func (r *repository) Get(ctx context.Context, id int64) (*Item, error) {
	var it Item
	err := r.pool.QueryRow(ctx,
		`SELECT `+itemColumns+` FROM catalog_items WHERE id = $1`, id,
	).Scan(&it.ID, &it.Name, &it.Reference, &it.Tariff, &it.Active, &it.CreatedAt, &it.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return &it, nil
}

func (r *repository) List(ctx context.Context, activeOnly bool) ([]Item, error) {
	where := ""
	if activeOnly {
		where = " WHERE active"
	}
	rows, err := r.pool.Query(ctx, `SELECT `+itemColumns+` FROM catalog_items`+where+` ORDER BY name`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Item
	for rows.Next() {
		var it Item
		if err := rows.Scan(&it.ID, &it.Name, &it.Reference, &it.Tariff, &it.Active, &it.CreatedAt, &it.UpdatedAt); err != nil {
			return nil, err
		}
		out = append(out, it)
	}
	return out, rows.Err()
}

func (r *repository) Create(ctx context.Context, item Item) (int64, error) {
	var id int64
	err := r.pool.QueryRow(ctx, `
		INSERT INTO catalog_items (name, reference, tariff, active, created_at, updated_at)
		VALUES ($1, $2, $3, $4, NOW(), NOW())
		RETURNING id`,
		item.Name, item.Reference, item.Tariff, item.Active,
	).Scan(&id)
	return id, err
}

func (r *repository) Update(ctx context.Context, item Item) error {
	tag, err := r.pool.Exec(ctx, `
		UPDATE catalog_items SET name = $2, reference = $3, tariff = $4,
			active = $5, updated_at = NOW()
		WHERE id = $1`,
		item.ID, item.Name, item.Reference, item.Tariff, item.Active,
	)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return shared.ErrNotFound
	}
	return nil
}

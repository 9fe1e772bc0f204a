package clients

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/gescom-app/gescom/internal/shared"
)

// Repository defines persistence operations for the client registry.
type Repository interface {
	Get(ctx context.Context, id int64) (*Client, error)
	List(ctx context.Context, activeOnly bool, page shared.Page) ([]Client, int, error)
	Create(ctx context.Context, c Client) (int64, error)
	Update(ctx context.Context, c Client) error
	SetActive(ctx context.Context, id int64, active bool) error
}

type repository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs a PostgreSQL repository.
func NewRepository(pool *pgxpool.Pool) Repository {
	return &repository{pool: pool}
}

const clientColumns = `id, company_name, contact_name, phone, email, address,
	facebook_page, tax_id, stat_id, note, active, created_at, updated_at`

func (r *repository) Get(ctx context.Context, id int64) (*Client, error) {
	row := r.pool.QueryRow(ctx, `SELECT `+clientColumns+` FROM clients WHERE id = $1`, id)
	c, err := scanClient(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return c, nil
}

func (r *repository) List(ctx context.Context, activeOnly bool, page shared.Page) ([]Client, int, error) {
	page = page.Clamp()

	where := ""
	if activeOnly {
		where = " WHERE active"
	}

	var total int
	if err := r.pool.QueryRow(ctx, `SELECT COUNT(*) FROM clients`+where).Scan(&total); err != nil {
		return nil, 0, err
	}

	rows, err := r.pool.Query(ctx,
		`SELECT `+clientColumns+` FROM clients`+where+` ORDER BY company_name LIMIT $1 OFFSET $2`,
		page.Limit, page.Offset)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	var out []Client
	for rows.Next() {
		c, err := scanClient(rows)
		if err != nil {
			return nil, 0, err
		}
		out = append(out, *c)
	}
	return out, total, rows.Err()
}

func (r *repository) Create(ctx context.Context, c Client) (int64, error) {
	var id int64
	err := r.pool.QueryRow(ctx, `
		INSERT INTO clients (company_name, contact_name, phone, email, address,
			facebook_page, tax_id, stat_id, note, active, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, NOW(), NOW())
		RETURNING id`,
		c.CompanyName, c.ContactName, c.Phone, c.Email, c.Address,
		c.FacebookPage, c.TaxID, c.StatID, c.Note, c.Active,
	).Scan(&id)
	return id, err
}

func (r *repository) Update(ctx context.Context, c Client) error {
	tag, err := r.pool.Exec(ctx, `
		UPDATE clients SET company_name = $2, contact_name = $3, phone = $4,
			email = $5, address = $6, facebook_page = $7, tax_id = $8,
			stat_id = $9, note = $10, updated_at = NOW()
		WHERE id = $1`,
		c.ID, c.CompanyName, c.ContactName, c.Phone, c.Email, c.Address,
		c.FacebookPage, c.TaxID, c.StatID, c.Note,
	)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return shared.ErrNotFound
	}
	return nil
}

func (r *repository) SetActive(ctx context.Context, id int64, active bool) error {
	tag, err := r.pool.Exec(ctx,
		`UPDATE clients SET active = $2, updated_at = NOW() WHERE id = $1`, id, active)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return shared.ErrNotFound
	}
	return nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanClient(row rowScanner) (*Client, error) {
	var c Client
	err := row.Scan(&c.ID, &c.CompanyName, &c.ContactName, &c.Phone, &c.Email,
		&c.Address, &c.FacebookPage, &c.TaxID, &c.StatID, &c.Note, &c.Active,
		&c.CreatedAt, &c.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return &c, nil
}

package orders

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/gescom-app/gescom/internal/platform/db"
	"github.com/gescom-app/gescom/internal/shared"
)

// Repository defines persistence operations for orders.
//
// LastProformaInScope must be called inside WithTx: it takes a row lock on
// the newest code of the counter scope, which is what serialises
// concurrent allocations until the surrounding transaction commits.
type Repository interface {
	WithTx(ctx context.Context, fn func(context.Context, Repository) error) error
	Get(ctx context.Context, id int64) (*Order, error)
	LastProformaInScope(ctx context.Context, scope string) (string, error)
	Create(ctx context.Context, o Order) (int64, error)
	UpdateFields(ctx context.Context, o Order) error
	InsertLine(ctx context.Context, line Line) (int64, error)
	DeleteLines(ctx context.Context, orderID int64) error
	UpdateStatus(ctx context.Context, id int64, status Status, audit shared.Audit) error
	List(ctx context.Context, req ListOrdersRequest) ([]OrderWithDetails, int, int64, error)
}

type dbtx interface {
	Exec(context.Context, string, ...any) (pgconn.CommandTag, error)
	Query(context.Context, string, ...any) (pgx.Rows, error)
	QueryRow(context.Context, string, ...any) pgx.Row
}

type repository struct {
	db   dbtx
	pool *pgxpool.Pool
}

// NewRepository constructs a PostgreSQL repository.
func NewRepository(pool *pgxpool.Pool) Repository {
	return &repository{db: pool, pool: pool}
}

func (r *repository) WithTx(ctx context.Context, fn func(context.Context, Repository) error) error {
	return db.WithTx(ctx, r.pool, func(tx pgx.Tx) error {
		return fn(ctx, &repository{db: tx, pool: r.pool})
	})
}

const orderColumns = `id, proforma_number, order_date, client_id, channel_id, note, status,
	record_status, created_by, updated_by, deleted_by, created_at, updated_at`

func (r *repository) Get(ctx context.Context, id int64) (*Order, error) {
	row := r.db.QueryRow(ctx, `SELECT `+orderColumns+` FROM orders WHERE id = $1`, id)
	o, err := scanOrder(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}

	lines, err := r.lines(ctx, o.ID)
	if err != nil {
		return nil, err
	}
	o.Lines = lines
	return o, nil
}

func (r *repository) lines(ctx context.Context, orderID int64) ([]Line, error) {
	rows, err := r.db.Query(ctx,
		`SELECT id, order_id, item_id, tariff, quantity FROM order_lines WHERE order_id = $1 ORDER BY id`,
		orderID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var lines []Line
	for rows.Next() {
		var l Line
		if err := rows.Scan(&l.ID, &l.OrderID, &l.ItemID, &l.Tariff, &l.Quantity); err != nil {
			return nil, err
		}
		lines = append(lines, l)
	}
	return lines, rows.Err()
}

// LastProformaInScope returns the highest proforma number already allocated
// for the scope prefix, locking that row until the transaction ends. An
// empty string means the scope has no allocations yet. Codes share the
// scope prefix, so ordering by length first compares the sequence part
// numerically: P240601-1000 outranks P240601-999.
func (r *repository) LastProformaInScope(ctx context.Context, scope string) (string, error) {
	var code string
	err := r.db.QueryRow(ctx, `
		SELECT proforma_number FROM orders
		WHERE proforma_number LIKE $1 || '%'
		ORDER BY length(proforma_number) DESC, proforma_number DESC
		LIMIT 1
		FOR UPDATE`, scope,
	).Scan(&code)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return "", nil
		}
		return "", err
	}
	return code, nil
}

func (r *repository) Create(ctx context.Context, o Order) (int64, error) {
	var id int64
	err := r.db.QueryRow(ctx, `
		INSERT INTO orders (proforma_number, order_date, client_id, channel_id, note, status,
			record_status, created_by, updated_by, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
		RETURNING id`,
		o.ProformaNumber, o.OrderDate, o.ClientID, o.ChannelID, o.Note, o.Status,
		o.RecordStatus, o.CreatedBy, o.UpdatedBy, o.CreatedAt, o.UpdatedAt,
	).Scan(&id)
	return id, err
}

func (r *repository) UpdateFields(ctx context.Context, o Order) error {
	tag, err := r.db.Exec(ctx, `
		UPDATE orders SET order_date = $2, channel_id = $3, note = $4,
			record_status = $5, updated_by = $6, updated_at = $7
		WHERE id = $1`,
		o.ID, o.OrderDate, o.ChannelID, o.Note,
		o.RecordStatus, o.UpdatedBy, o.UpdatedAt,
	)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return shared.ErrNotFound
	}
	return nil
}

func (r *repository) InsertLine(ctx context.Context, line Line) (int64, error) {
	var id int64
	err := r.db.QueryRow(ctx, `
		INSERT INTO order_lines (order_id, item_id, tariff, quantity)
		VALUES ($1, $2, $3, $4)
		RETURNING id`,
		line.OrderID, line.ItemID, line.Tariff, line.Quantity,
	).Scan(&id)
	return id, err
}

func (r *repository) DeleteLines(ctx context.Context, orderID int64) error {
	_, err := r.db.Exec(ctx, `DELETE FROM order_lines WHERE order_id = $1`, orderID)
	return err
}

func (r *repository) UpdateStatus(ctx context.Context, id int64, status Status, audit shared.Audit) error {
	tag, err := r.db.Exec(ctx, `
		UPDATE orders SET status = $2, record_status = $3, updated_by = $4,
			deleted_by = $5, updated_at = $6
		WHERE id = $1`,
		id, status, audit.RecordStatus, audit.UpdatedBy, audit.DeletedBy, audit.UpdatedAt,
	)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return shared.ErrNotFound
	}
	return nil
}

func (r *repository) List(ctx context.Context, req ListOrdersRequest) ([]OrderWithDetails, int, int64, error) {
	conditions := []string{"1=1"}
	var args []any
	argPos := 1

	add := func(cond string, value any) {
		conditions = append(conditions, fmt.Sprintf(cond, argPos))
		args = append(args, value)
		argPos++
	}

	if req.Status != nil {
		add("o.status = $%d", *req.Status)
	}
	if req.OrderDate != nil {
		add("o.order_date = $%d", *req.OrderDate)
	}
	if req.ClientID != nil {
		add("o.client_id = $%d", *req.ClientID)
	}
	if req.ChannelID != nil {
		add("o.channel_id = $%d", *req.ChannelID)
	}
	if req.ItemID != nil {
		add("EXISTS (SELECT 1 FROM order_lines ol WHERE ol.order_id = o.id AND ol.item_id = $%d)", *req.ItemID)
	}

	whereClause := "WHERE " + conditions[0]
	for i := 1; i < len(conditions); i++ {
		whereClause += " AND " + conditions[i]
	}

	var total int
	if err := r.db.QueryRow(ctx,
		fmt.Sprintf("SELECT COUNT(*) FROM orders o %s", whereClause), args...,
	).Scan(&total); err != nil {
		return nil, 0, 0, err
	}

	// Running total over the filtered set, excluding cancelled and deleted
	// orders, recomputed from lines.
	var runningTotal int64
	if err := r.db.QueryRow(ctx, fmt.Sprintf(`
		SELECT COALESCE(SUM(ol.tariff * ol.quantity), 0)
		FROM orders o
		JOIN order_lines ol ON ol.order_id = o.id
		%s AND o.status NOT IN ('CANCELLED', 'DELETED')`, whereClause), args...,
	).Scan(&runningTotal); err != nil {
		return nil, 0, 0, err
	}

	page := req.Page.Clamp()
	query := fmt.Sprintf(`
		SELECT o.id, o.proforma_number, o.order_date, o.client_id, o.channel_id, o.note, o.status,
		       o.record_status, o.created_by, o.updated_by, o.deleted_by, o.created_at, o.updated_at,
		       c.company_name AS client_name,
		       ch.name AS channel_name,
		       COALESCE((SELECT SUM(ol.tariff * ol.quantity) FROM order_lines ol WHERE ol.order_id = o.id), 0) AS total
		FROM orders o
		JOIN clients c ON o.client_id = c.id
		LEFT JOIN channels ch ON o.channel_id = ch.id
		%s
		ORDER BY o.order_date DESC, o.proforma_number DESC
		LIMIT $%d OFFSET $%d`, whereClause, argPos, argPos+1)
	args = append(args, page.Limit, page.Offset)

	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, 0, 0, err
	}
	defer rows.Close()

	var out []OrderWithDetails
	for rows.Next() {
		var d OrderWithDetails
		if err := rows.Scan(&d.ID, &d.ProformaNumber, &d.OrderDate, &d.ClientID, &d.ChannelID,
			&d.Note, &d.Status, &d.RecordStatus, &d.CreatedBy, &d.UpdatedBy, &d.DeletedBy,
			&d.CreatedAt, &d.UpdatedAt, &d.ClientName, &d.ChannelName, &d.Total); err != nil {
			return nil, 0, 0, err
		}
		out = append(out, d)
	}
	return out, total, runningTotal, rows.Err()
}

func scanOrder(row pgx.Row) (*Order, error) {
	var o Order
	err := row.Scan(&o.ID, &o.ProformaNumber, &o.OrderDate, &o.ClientID, &o.ChannelID,
		&o.Note, &o.Status, &o.RecordStatus, &o.CreatedBy, &o.UpdatedBy, &o.DeletedBy,
		&o.CreatedAt, &o.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return &o, nil
}

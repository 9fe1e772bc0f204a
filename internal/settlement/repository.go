package settlement

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/gescom-app/gescom/internal/masterdata/registers"
	"github.com/gescom-app/gescom/internal/orders"
	"github.com/gescom-app/gescom/internal/platform/db"
	"github.com/gescom-app/gescom/internal/shared"
)

// Repository defines persistence operations for sales. The settlement
// transaction spans the orders, sales and cash register tables, so the
// repository reads across all three.
//
// LastInvoiceInScope must be called inside WithTx: it takes a row lock on
// the newest invoice code of the counter scope so concurrent settlements
// on the same day serialise.
type Repository interface {
	WithTx(ctx context.Context, fn func(context.Context, Repository) error) error
	GetOrderForUpdate(ctx context.Context, orderID int64) (*orders.Order, error)
	HasSaleForOrder(ctx context.Context, orderID int64) (bool, error)
	LastInvoiceInScope(ctx context.Context, scope string) (string, error)
	CreateSale(ctx context.Context, sale Sale) (int64, error)
	MarkOrderPaid(ctx context.Context, orderID int64, audit shared.Audit) error
	GetRegister(ctx context.Context, id int64) (*registers.Register, error)
	GetSale(ctx context.Context, id int64) (*Sale, error)
	GetSaleByOrder(ctx context.Context, orderID int64) (*Sale, error)
	List(ctx context.Context, req ListSalesRequest) ([]SaleWithDetails, int, int64, error)
	SumByRegister(ctx context.Context, registerID int64) (int64, error)
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

// GetOrderForUpdate loads the order row under an exclusive lock together
// with its lines. Settlement preconditions are checked against this copy.
func (r *repository) GetOrderForUpdate(ctx context.Context, orderID int64) (*orders.Order, error) {
	row := r.db.QueryRow(ctx, `
		SELECT id, proforma_number, order_date, client_id, channel_id, note, status,
		       record_status, created_by, updated_by, deleted_by, created_at, updated_at
		FROM orders WHERE id = $1
		FOR UPDATE`, orderID)

	var o orders.Order
	err := row.Scan(&o.ID, &o.ProformaNumber, &o.OrderDate, &o.ClientID, &o.ChannelID,
		&o.Note, &o.Status, &o.RecordStatus, &o.CreatedBy, &o.UpdatedBy, &o.DeletedBy,
		&o.CreatedAt, &o.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}

	rows, err := r.db.Query(ctx,
		`SELECT id, order_id, item_id, tariff, quantity FROM order_lines WHERE order_id = $1 ORDER BY id`,
		orderID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	for rows.Next() {
		var l orders.Line
		if err := rows.Scan(&l.ID, &l.OrderID, &l.ItemID, &l.Tariff, &l.Quantity); err != nil {
			return nil, err
		}
		o.Lines = append(o.Lines, l)
	}
	return &o, rows.Err()
}

func (r *repository) HasSaleForOrder(ctx context.Context, orderID int64) (bool, error) {
	var exists bool
	err := r.db.QueryRow(ctx,
		`SELECT EXISTS (SELECT 1 FROM sales WHERE order_id = $1)`, orderID,
	).Scan(&exists)
	return exists, err
}

// LastInvoiceInScope returns the highest invoice number already allocated
// for the scope prefix, locking that row until the transaction ends. An
// empty string means the scope has no allocations yet. Codes share the
// scope prefix, so ordering by length first compares the sequence part
// numerically: F240602-1000 outranks F240602-999.
func (r *repository) LastInvoiceInScope(ctx context.Context, scope string) (string, error) {
	var code string
	err := r.db.QueryRow(ctx, `
		SELECT invoice_number FROM sales
		WHERE invoice_number LIKE $1 || '%'
		ORDER BY length(invoice_number) DESC, invoice_number DESC
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

func (r *repository) CreateSale(ctx context.Context, sale Sale) (int64, error) {
	var id int64
	err := r.db.QueryRow(ctx, `
		INSERT INTO sales (order_id, invoice_number, settled_on, register_id, reference,
			amount, record_status, created_by, updated_by, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
		RETURNING id`,
		sale.OrderID, sale.InvoiceNumber, sale.SettledOn, sale.RegisterID, sale.Reference,
		sale.Amount, sale.RecordStatus, sale.CreatedBy, sale.UpdatedBy,
		sale.CreatedAt, sale.UpdatedAt,
	).Scan(&id)
	return id, err
}

func (r *repository) MarkOrderPaid(ctx context.Context, orderID int64, audit shared.Audit) error {
	tag, err := r.db.Exec(ctx, `
		UPDATE orders SET status = $2, record_status = $3, updated_by = $4, updated_at = $5
		WHERE id = $1`,
		orderID, orders.StatusPaid, audit.RecordStatus, audit.UpdatedBy, audit.UpdatedAt,
	)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return shared.ErrNotFound
	}
	return nil
}

func (r *repository) GetRegister(ctx context.Context, id int64) (*registers.Register, error) {
	row := r.db.QueryRow(ctx, `
		SELECT id, name, manager, opening_balance, inflow, outflow, balance,
		       record_status, created_by, updated_by, deleted_by, created_at, updated_at
		FROM cash_registers WHERE id = $1`, id)

	var reg registers.Register
	err := row.Scan(&reg.ID, &reg.Name, &reg.Manager, &reg.OpeningBalance,
		&reg.Inflow, &reg.Outflow, &reg.Balance, &reg.RecordStatus,
		&reg.CreatedBy, &reg.UpdatedBy, &reg.DeletedBy, &reg.CreatedAt, &reg.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return &reg, nil
}

const saleColumns = `id, order_id, invoice_number, settled_on, register_id, reference,
	amount, record_status, created_by, updated_by, deleted_by, created_at, updated_at`

func scanSale(row pgx.Row) (*Sale, error) {
	var s Sale
	err := row.Scan(&s.ID, &s.OrderID, &s.InvoiceNumber, &s.SettledOn, &s.RegisterID,
		&s.Reference, &s.Amount, &s.RecordStatus, &s.CreatedBy, &s.UpdatedBy,
		&s.DeletedBy, &s.CreatedAt, &s.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return &s, nil
}

func (r *repository) GetSale(ctx context.Context, id int64) (*Sale, error) {
	sale, err := scanSale(r.db.QueryRow(ctx,
		`SELECT `+saleColumns+` FROM sales WHERE id = $1`, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return sale, nil
}

func (r *repository) GetSaleByOrder(ctx context.Context, orderID int64) (*Sale, error) {
	sale, err := scanSale(r.db.QueryRow(ctx,
		`SELECT `+saleColumns+` FROM sales WHERE order_id = $1`, orderID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return sale, nil
}

func (r *repository) List(ctx context.Context, req ListSalesRequest) ([]SaleWithDetails, int, int64, error) {
	conditions := []string{"1=1"}
	var args []any
	argPos := 1

	add := func(cond string, value any) {
		conditions = append(conditions, fmt.Sprintf(cond, argPos))
		args = append(args, value)
		argPos++
	}

	if req.SettledOn != nil {
		add("s.settled_on = $%d", *req.SettledOn)
	}
	if req.RegisterID != nil {
		add("s.register_id = $%d", *req.RegisterID)
	}
	if req.ClientID != nil {
		add("o.client_id = $%d", *req.ClientID)
	}

	whereClause := "WHERE " + conditions[0]
	for i := 1; i < len(conditions); i++ {
		whereClause += " AND " + conditions[i]
	}

	base := fmt.Sprintf(`FROM sales s
		JOIN orders o ON s.order_id = o.id
		JOIN clients c ON o.client_id = c.id
		JOIN cash_registers r ON s.register_id = r.id
		%s`, whereClause)

	var total int
	if err := r.db.QueryRow(ctx, "SELECT COUNT(*) "+base, args...).Scan(&total); err != nil {
		return nil, 0, 0, err
	}

	var sum int64
	if err := r.db.QueryRow(ctx, "SELECT COALESCE(SUM(s.amount), 0) "+base, args...).Scan(&sum); err != nil {
		return nil, 0, 0, err
	}

	page := req.Page.Clamp()
	query := fmt.Sprintf(`
		SELECT s.id, s.order_id, s.invoice_number, s.settled_on, s.register_id, s.reference,
		       s.amount, s.record_status, s.created_by, s.updated_by, s.deleted_by,
		       s.created_at, s.updated_at,
		       o.proforma_number, c.company_name, r.name
		%s
		ORDER BY s.settled_on DESC, s.invoice_number DESC
		LIMIT $%d OFFSET $%d`, base, argPos, argPos+1)
	args = append(args, page.Limit, page.Offset)

	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, 0, 0, err
	}
	defer rows.Close()

	var out []SaleWithDetails
	for rows.Next() {
		var d SaleWithDetails
		if err := rows.Scan(&d.ID, &d.OrderID, &d.InvoiceNumber, &d.SettledOn, &d.RegisterID,
			&d.Reference, &d.Amount, &d.RecordStatus, &d.CreatedBy, &d.UpdatedBy, &d.DeletedBy,
			&d.CreatedAt, &d.UpdatedAt, &d.ProformaNumber, &d.ClientName, &d.RegisterName); err != nil {
			return nil, 0, 0, err
		}
		out = append(out, d)
	}
	return out, total, sum, rows.Err()
}

// SumByRegister totals the settled amounts flowing into one register. Used
// by the register refresh job to rebuild denormalised totals.
func (r *repository) SumByRegister(ctx context.Context, registerID int64) (int64, error) {
	var sum int64
	err := r.db.QueryRow(ctx,
		`SELECT COALESCE(SUM(amount), 0) FROM sales WHERE register_id = $1`, registerID,
	).Scan(&sum)
	return sum, err
}

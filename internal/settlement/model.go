// Package settlement records payment of a pending order: it allocates the
// invoice number, snapshots the amount into a sale row and flips the order
// to paid, all inside one transaction.
package settlement

import (
	"time"

	"github.com/gescom-app/gescom/internal/shared"
)

// Sale is the settlement record of an order. Exactly one sale may exist
// per order; its amount is frozen at settlement time and never recomputed.
type Sale struct {
	ID            int64     `json:"id" db:"id"`
	OrderID       int64     `json:"order_id" db:"order_id"`
	InvoiceNumber string    `json:"invoice_number" db:"invoice_number"`
	SettledOn     time.Time `json:"settled_on" db:"settled_on"`
	RegisterID    int64     `json:"register_id" db:"register_id"`
	Reference     *string   `json:"reference,omitempty" db:"reference"`
	Amount        int64     `json:"amount" db:"amount"`
	shared.Audit
}

// SaleWithDetails augments a sale with display fields for listings.
type SaleWithDetails struct {
	Sale
	ProformaNumber string `json:"proforma_number" db:"proforma_number"`
	ClientName     string `json:"client_name" db:"client_name"`
	RegisterName   string `json:"register_name" db:"register_name"`
}

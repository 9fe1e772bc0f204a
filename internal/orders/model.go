package orders

import (
	"time"

	"github.com/gescom-app/gescom/internal/shared"
)

// Status is the sales state of an order.
type Status string

const (
	StatusPending   Status = "PENDING"
	StatusPaid      Status = "PAID"
	StatusCancelled Status = "CANCELLED"
	StatusDeleted   Status = "DELETED"
)

// Order is a client purchase request carrying a proforma number.
// The proforma number is assigned exactly once, at first successful
// persist, and never changes afterwards.
type Order struct {
	ID             int64      `json:"id" db:"id"`
	ProformaNumber string     `json:"proforma_number" db:"proforma_number"`
	OrderDate      time.Time  `json:"order_date" db:"order_date"`
	ClientID       int64      `json:"client_id" db:"client_id"`
	ChannelID      *int64     `json:"channel_id,omitempty" db:"channel_id"`
	Note           *string    `json:"note,omitempty" db:"note"`
	Status         Status     `json:"status" db:"status"`
	shared.Audit
	Lines []Line `json:"lines,omitempty" db:"-"`
}

// Line is an order line item. Tariff is a snapshot captured from the
// catalog when the line is created; catalog price changes never reach it.
type Line struct {
	ID       int64 `json:"id" db:"id"`
	OrderID  int64 `json:"order_id" db:"order_id"`
	ItemID   int64 `json:"item_id" db:"item_id"`
	Tariff   int64 `json:"tariff" db:"tariff"`
	Quantity int64 `json:"quantity" db:"quantity"`
}

// Amount is the line value: tariff times quantity.
func (l Line) Amount() int64 {
	return l.Tariff * l.Quantity
}

// Total is the order amount, always recomputed over current lines and
// never stored.
func (o *Order) Total() int64 {
	var total int64
	for _, l := range o.Lines {
		total += l.Amount()
	}
	return total
}

// Locked reports whether the order rejects further mutation: any terminal
// status, or the soft-delete marker.
func (o *Order) Locked() bool {
	switch o.Status {
	case StatusPaid, StatusCancelled, StatusDeleted:
		return true
	}
	return o.Deleted()
}

// OrderWithDetails augments an order with display fields for listings.
type OrderWithDetails struct {
	Order
	ClientName  string  `json:"client_name" db:"client_name"`
	ChannelName *string `json:"channel_name,omitempty" db:"channel_name"`
	Total       int64   `json:"total" db:"total"`
}

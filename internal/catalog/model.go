package catalog

import "time"

// Item is a priced service from the catalog. Order lines snapshot the
// tariff at creation time, so later catalog price changes never touch
// existing orders.
type Item struct {
	ID        int64     `json:"id" db:"id"`
	Name      string    `json:"name" db:"name"`
	Reference string    `json:"reference" db:"reference"`
	Tariff    int64     `json:"tariff" db:"tariff"`
	Active    bool      `json:"active" db:"active"`
	CreatedAt time.Time `json:"created_at" db:"created_at"`
	UpdatedAt time.Time `json:"updated_at" db:"updated_at"`
}

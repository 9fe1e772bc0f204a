package clients

import "time"

// Client is a company in the registry. Orders reference clients and are
// cascade-bound to them.
type Client struct {
	ID           int64      `json:"id" db:"id"`
	CompanyName  string     `json:"company_name" db:"company_name"`
	ContactName  *string    `json:"contact_name,omitempty" db:"contact_name"`
	Phone        *string    `json:"phone,omitempty" db:"phone"`
	Email        *string    `json:"email,omitempty" db:"email"`
	Address      *string    `json:"address,omitempty" db:"address"`
	FacebookPage *string    `json:"facebook_page,omitempty" db:"facebook_page"`
	TaxID        *string    `json:"tax_id,omitempty" db:"tax_id"`
	StatID       *string    `json:"stat_id,omitempty" db:"stat_id"`
	Note         *string    `json:"note,omitempty" db:"note"`
	Active       bool       `json:"active" db:"active"`
	CreatedAt    time.Time  `json:"created_at" db:"created_at"`
	UpdatedAt    time.Time  `json:"updated_at" db:"updated_at"`
}

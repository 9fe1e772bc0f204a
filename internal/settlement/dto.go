package settlement

import (
	"time"

	"github.com/gescom-app/gescom/internal/shared"
)

type SettleRequest struct {
	OrderID    int64   `json:"order_id" validate:"required,gt=0"`
	RegisterID int64   `json:"register_id" validate:"required,gt=0"`
	Reference  *string `json:"reference,omitempty"`
	// SettledOn defaults to today when absent.
	SettledOn time.Time `json:"settled_on"`
}

type ListSalesRequest struct {
	SettledOn  *time.Time `json:"settled_on,omitempty"`
	RegisterID *int64     `json:"register_id,omitempty"`
	ClientID   *int64     `json:"client_id,omitempty"`
	Page       shared.Page
}

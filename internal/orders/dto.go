package orders

import (
	"time"

	"github.com/gescom-app/gescom/internal/shared"
)

type CreateOrderRequest struct {
	ClientID  int64            `json:"client_id" validate:"required,gt=0"`
	ChannelID *int64           `json:"channel_id,omitempty"`
	OrderDate time.Time        `json:"order_date"`
	Note      *string          `json:"note,omitempty"`
	Lines     []CreateLineReq  `json:"lines" validate:"required,min=1,dive"`
}

type CreateLineReq struct {
	ItemID   int64 `json:"item_id" validate:"required,gt=0"`
	Tariff   int64 `json:"tariff" validate:"gte=0"`
	Quantity int64 `json:"quantity" validate:"required,gt=0"`
}

type UpdateOrderRequest struct {
	ChannelID *int64          `json:"channel_id,omitempty"`
	OrderDate *time.Time      `json:"order_date,omitempty"`
	Note      *string         `json:"note,omitempty"`
	Lines     []CreateLineReq `json:"lines" validate:"required,min=1,dive"`
}

type ListOrdersRequest struct {
	Status    *Status    `json:"status,omitempty"`
	OrderDate *time.Time `json:"order_date,omitempty"`
	ClientID  *int64     `json:"client_id,omitempty"`
	ChannelID *int64     `json:"channel_id,omitempty"`
	ItemID    *int64     `json:"item_id,omitempty"`
	Page      shared.Page
}

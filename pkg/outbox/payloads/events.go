package payloads

import (
	"time"

	"github.com/brewbar/bubbletea-backend/pkg/enums"
	"github.com/google/uuid"
)

// OrderCreatedEvent carries the frozen totals of a placed order.
type OrderCreatedEvent struct {
	OrderID        uuid.UUID           `json:"order_id"`
	UserID         *uuid.UUID          `json:"user_id,omitempty"`
	PromotionID    *uuid.UUID          `json:"promotion_id,omitempty"`
	PaymentMethod  enums.PaymentMethod `json:"payment_method"`
	ItemCount      int                 `json:"item_count"`
	TotalAmount    int64               `json:"total_amount"`
	ShippingFee    int64               `json:"shipping_fee"`
	DiscountAmount int64               `json:"discount_amount"`
	FinalAmount    int64               `json:"final_amount"`
	CreatedAt      time.Time           `json:"created_at"`
}

// OrderStatusChangedEvent is emitted for every accepted status update.
type OrderStatusChangedEvent struct {
	OrderID       uuid.UUID           `json:"order_id"`
	From          enums.OrderStatus   `json:"from"`
	To            enums.OrderStatus   `json:"to"`
	PaymentStatus enums.PaymentStatus `json:"payment_status"`
	FinalAmount   int64               `json:"final_amount"`
	ChangedAt     time.Time           `json:"changed_at"`
}

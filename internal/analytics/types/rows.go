package types

import (
	"time"

	cbigquery "cloud.google.com/go/bigquery"
)

// OrderFactRow mirrors the order_facts BigQuery schema. Amounts are VND.
type OrderFactRow struct {
	EventID        string             `bigquery:"event_id"`
	OccurredAt     time.Time          `bigquery:"occurred_at"`
	OrderID        string             `bigquery:"order_id"`
	UserID         *string            `bigquery:"user_id"`
	PromotionID    *string            `bigquery:"promotion_id"`
	PaymentMethod  string             `bigquery:"payment_method"`
	ItemCount      int64              `bigquery:"item_count"`
	TotalAmount    int64              `bigquery:"total_amount"`
	ShippingFee    int64              `bigquery:"shipping_fee"`
	DiscountAmount int64              `bigquery:"discount_amount"`
	FinalAmount    int64              `bigquery:"final_amount"`
	Payload        cbigquery.NullJSON `bigquery:"payload"`
}

// OrderStatusFactRow mirrors the order_status_facts BigQuery schema.
type OrderStatusFactRow struct {
	EventID       string    `bigquery:"event_id"`
	OccurredAt    time.Time `bigquery:"occurred_at"`
	OrderID       string    `bigquery:"order_id"`
	FromStatus    string    `bigquery:"from_status"`
	ToStatus      string    `bigquery:"to_status"`
	PaymentStatus string    `bigquery:"payment_status"`
	FinalAmount   int64     `bigquery:"final_amount"`
	Completed     bool      `bigquery:"completed"`
}

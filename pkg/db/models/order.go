package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/brewbar/bubbletea-backend/pkg/enums"
)

// Order freezes every amount at creation; nothing recomputes them from the catalog.
type Order struct {
	ID              uuid.UUID           `gorm:"column:id;type:uuid;primaryKey" json:"id"`
	UserID          *uuid.UUID          `gorm:"column:user_id;type:uuid;index:orders_user_id_idx" json:"userId"`
	CustomerName    *string             `gorm:"column:customer_name" json:"customerName"`
	CustomerPhone   *string             `gorm:"column:customer_phone" json:"customerPhone"`
	ShippingAddress string              `gorm:"column:shipping_address;not null" json:"shippingAddress"`
	TotalAmount     int64               `gorm:"column:total_amount;not null" json:"totalAmount"`
	ShippingFee     int64               `gorm:"column:shipping_fee;not null" json:"shippingFee"`
	DiscountAmount  int64               `gorm:"column:discount_amount;not null;default:0" json:"discountAmount"`
	FinalAmount     int64               `gorm:"column:final_amount;not null" json:"finalAmount"`
	PaymentMethod   enums.PaymentMethod `gorm:"column:payment_method;type:text;not null" json:"paymentMethod"`
	PaymentStatus   enums.PaymentStatus `gorm:"column:payment_status;type:text;not null" json:"paymentStatus"`
	OrderStatus     enums.OrderStatus   `gorm:"column:order_status;type:text;not null;index:orders_order_status_idx" json:"orderStatus"`
	PromotionID     *uuid.UUID          `gorm:"column:promotion_id;type:uuid" json:"promotionId"`
	Notes           *string             `gorm:"column:notes" json:"notes"`
	Items           []OrderItem         `gorm:"foreignKey:OrderID;constraint:OnDelete:CASCADE" json:"items,omitempty"`
	CreatedAt       time.Time           `gorm:"column:created_at;autoCreateTime;index:orders_created_at_idx" json:"createdAt"`
	UpdatedAt       time.Time           `gorm:"column:updated_at;autoUpdateTime" json:"updatedAt"`
}

func (o *Order) BeforeCreate(*gorm.DB) error {
	assignID(&o.ID)
	return nil
}

type OrderItem struct {
	ID                  uuid.UUID          `gorm:"column:id;type:uuid;primaryKey" json:"id"`
	OrderID             uuid.UUID          `gorm:"column:order_id;type:uuid;not null;index:order_items_order_id_idx" json:"orderId"`
	ProductID           uuid.UUID          `gorm:"column:product_id;type:uuid;not null" json:"productId"`
	Quantity            int                `gorm:"column:quantity;not null" json:"quantity"`
	PriceAtPurchase     int64              `gorm:"column:price_at_purchase;not null" json:"priceAtPurchase"`
	SelectedOptions     SelectedOptions    `gorm:"column:selected_options;type:jsonb;serializer:json" json:"selectedOptions"`
	Subtotal            int64              `gorm:"column:subtotal;not null" json:"subtotal"`
	SpecialInstructions *string            `gorm:"column:special_instructions" json:"specialInstructions"`
	Toppings            []OrderItemTopping `gorm:"foreignKey:OrderItemID;constraint:OnDelete:CASCADE" json:"toppings,omitempty"`
	CreatedAt           time.Time          `gorm:"column:created_at;autoCreateTime" json:"createdAt"`
}

func (i *OrderItem) BeforeCreate(*gorm.DB) error {
	assignID(&i.ID)
	return nil
}

type OrderItemTopping struct {
	ID              uuid.UUID `gorm:"column:id;type:uuid;primaryKey" json:"id"`
	OrderItemID     uuid.UUID `gorm:"column:order_item_id;type:uuid;not null;index:order_item_toppings_order_item_id_idx" json:"orderItemId"`
	ToppingID       uuid.UUID `gorm:"column:topping_id;type:uuid;not null" json:"toppingId"`
	Quantity        int       `gorm:"column:quantity;not null" json:"quantity"`
	PriceAtPurchase int64     `gorm:"column:price_at_purchase;not null" json:"priceAtPurchase"`
	Subtotal        int64     `gorm:"column:subtotal;not null" json:"subtotal"`
}

func (t *OrderItemTopping) BeforeCreate(*gorm.DB) error {
	assignID(&t.ID)
	return nil
}

type Promotion struct {
	ID                uuid.UUID          `gorm:"column:id;type:uuid;primaryKey" json:"id"`
	Code              string             `gorm:"column:code;not null;uniqueIndex:promotions_code_key" json:"code"`
	Description       string             `gorm:"column:description;not null" json:"description"`
	DiscountType      enums.DiscountType `gorm:"column:discount_type;type:text;not null" json:"discountType"`
	DiscountValue     int64              `gorm:"column:discount_value;not null" json:"discountValue"`
	MaxDiscountAmount *int64             `gorm:"column:max_discount_amount" json:"maxDiscountAmount"`
	MinOrderValue     int64              `gorm:"column:min_order_value;not null;default:0" json:"minOrderValue"`
	StartDate         time.Time          `gorm:"column:start_date;not null" json:"startDate"`
	EndDate           time.Time          `gorm:"column:end_date;not null" json:"endDate"`
	UsageLimit        *int               `gorm:"column:usage_limit" json:"usageLimit"`
	UserUsageLimit    int                `gorm:"column:user_usage_limit;not null;default:0" json:"userUsageLimit"`
	IsActive          bool               `gorm:"column:is_active;not null" json:"isActive"`
	CreatedAt         time.Time          `gorm:"column:created_at;autoCreateTime" json:"createdAt"`
	UpdatedAt         time.Time          `gorm:"column:updated_at;autoUpdateTime" json:"updatedAt"`
}

func (p *Promotion) BeforeCreate(*gorm.DB) error {
	assignID(&p.ID)
	return nil
}

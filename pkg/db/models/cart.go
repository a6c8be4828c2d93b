package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// SelectedOptions is the customization chosen for a cart or order line.
type SelectedOptions struct {
	Size  *string `json:"size,omitempty"`
	Sugar *string `json:"sugar,omitempty"`
	Ice   *string `json:"ice,omitempty"`
}

// Equal compares option selections value by value.
func (s SelectedOptions) Equal(other SelectedOptions) bool {
	return equalPtr(s.Size, other.Size) && equalPtr(s.Sugar, other.Sugar) && equalPtr(s.Ice, other.Ice)
}

func equalPtr(a, b *string) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	return *a == *b
}

type SelectedTopping struct {
	ToppingID uuid.UUID `json:"toppingId"`
	Quantity  int       `json:"quantity"`
}

type CartItem struct {
	ID                  uuid.UUID         `gorm:"column:id;type:uuid;primaryKey" json:"id"`
	UserID              uuid.UUID         `gorm:"column:user_id;type:uuid;not null;index:cart_items_user_id_idx" json:"userId"`
	ProductID           uuid.UUID         `gorm:"column:product_id;type:uuid;not null" json:"productId"`
	Quantity            int               `gorm:"column:quantity;not null" json:"quantity"`
	SelectedOptions     SelectedOptions   `gorm:"column:selected_options;type:jsonb;serializer:json" json:"selectedOptions"`
	SelectedToppings    []SelectedTopping `gorm:"column:selected_toppings;type:jsonb;serializer:json" json:"selectedToppings"`
	SpecialInstructions *string           `gorm:"column:special_instructions" json:"specialInstructions"`
	CreatedAt           time.Time         `gorm:"column:created_at;autoCreateTime" json:"createdAt"`
	UpdatedAt           time.Time         `gorm:"column:updated_at;autoUpdateTime" json:"updatedAt"`
}

func (c *CartItem) BeforeCreate(*gorm.DB) error {
	assignID(&c.ID)
	return nil
}

type WishlistItem struct {
	ID        uuid.UUID `gorm:"column:id;type:uuid;primaryKey" json:"id"`
	UserID    uuid.UUID `gorm:"column:user_id;type:uuid;not null;uniqueIndex:wishlist_items_user_product_key" json:"userId"`
	ProductID uuid.UUID `gorm:"column:product_id;type:uuid;not null;uniqueIndex:wishlist_items_user_product_key" json:"productId"`
	CreatedAt time.Time `gorm:"column:created_at;autoCreateTime" json:"createdAt"`
}

func (w *WishlistItem) BeforeCreate(*gorm.DB) error {
	assignID(&w.ID)
	return nil
}

type Address struct {
	ID            uuid.UUID `gorm:"column:id;type:uuid;primaryKey" json:"id"`
	UserID        uuid.UUID `gorm:"column:user_id;type:uuid;not null;index:addresses_user_id_idx" json:"userId"`
	RecipientName string    `gorm:"column:recipient_name;not null" json:"recipientName"`
	PhoneNumber   string    `gorm:"column:phone_number;not null" json:"phoneNumber"`
	StreetAddress string    `gorm:"column:street_address;not null" json:"streetAddress"`
	Ward          *string   `gorm:"column:ward" json:"ward"`
	District      string    `gorm:"column:district;not null" json:"district"`
	City          string    `gorm:"column:city;not null" json:"city"`
	IsDefault     bool      `gorm:"column:is_default;not null;default:false" json:"isDefault"`
	CreatedAt     time.Time `gorm:"column:created_at;autoCreateTime" json:"createdAt"`
	UpdatedAt     time.Time `gorm:"column:updated_at;autoUpdateTime" json:"updatedAt"`
}

func (a *Address) BeforeCreate(*gorm.DB) error {
	assignID(&a.ID)
	return nil
}

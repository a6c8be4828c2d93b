package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type Category struct {
	ID          uuid.UUID `gorm:"column:id;type:uuid;primaryKey" json:"id"`
	Name        string    `gorm:"column:name;not null" json:"name"`
	Description *string   `gorm:"column:description" json:"description"`
	ImageURL    *string   `gorm:"column:image_url" json:"imageUrl"`
	Slug        string    `gorm:"column:slug;not null;uniqueIndex:categories_slug_key" json:"slug"`
	IsActive    bool      `gorm:"column:is_active;not null" json:"isActive"`
	CreatedAt   time.Time `gorm:"column:created_at;autoCreateTime" json:"createdAt"`
	UpdatedAt   time.Time `gorm:"column:updated_at;autoUpdateTime" json:"updatedAt"`
}

func (c *Category) BeforeCreate(*gorm.DB) error {
	assignID(&c.ID)
	return nil
}

// Product is a drink on the menu. BasePrice is in whole đồng.
type Product struct {
	ID            uuid.UUID       `gorm:"column:id;type:uuid;primaryKey" json:"id"`
	Name          string          `gorm:"column:name;not null" json:"name"`
	Description   *string         `gorm:"column:description" json:"description"`
	CategoryID    uuid.UUID       `gorm:"column:category_id;type:uuid;not null;index:products_category_id_idx" json:"categoryId"`
	Category      *Category       `gorm:"foreignKey:CategoryID" json:"category,omitempty"`
	BasePrice     int64           `gorm:"column:base_price;not null" json:"basePrice"`
	ImageURL      *string         `gorm:"column:image_url" json:"imageUrl"`
	IsAvailable   bool            `gorm:"column:is_available;not null;index:products_is_available_idx" json:"isAvailable"`
	Slug          string          `gorm:"column:slug;not null;uniqueIndex:products_slug_key" json:"slug"`
	Ingredients   []string        `gorm:"column:ingredients;type:jsonb;serializer:json" json:"ingredients"`
	NutritionInfo *string         `gorm:"column:nutrition_info" json:"nutritionInfo"`
	Options       []ProductOption `gorm:"foreignKey:ProductID;constraint:OnDelete:CASCADE" json:"options,omitempty"`
	CreatedAt     time.Time       `gorm:"column:created_at;autoCreateTime" json:"createdAt"`
	UpdatedAt     time.Time       `gorm:"column:updated_at;autoUpdateTime" json:"updatedAt"`
}

func (p *Product) BeforeCreate(*gorm.DB) error {
	assignID(&p.ID)
	return nil
}

// ProductOption is one value of a customization axis such as size or ice.
type ProductOption struct {
	ID              uuid.UUID `gorm:"column:id;type:uuid;primaryKey" json:"id"`
	ProductID       uuid.UUID `gorm:"column:product_id;type:uuid;not null;index:product_options_product_id_idx" json:"productId"`
	OptionGroup     string    `gorm:"column:option_group;not null" json:"optionGroup"`
	OptionValue     string    `gorm:"column:option_value;not null" json:"optionValue"`
	PriceAdjustment int64     `gorm:"column:price_adjustment;not null;default:0" json:"priceAdjustment"`
	IsDefault       bool      `gorm:"column:is_default;not null;default:false" json:"isDefault"`
}

func (o *ProductOption) BeforeCreate(*gorm.DB) error {
	assignID(&o.ID)
	return nil
}

type Topping struct {
	ID          uuid.UUID `gorm:"column:id;type:uuid;primaryKey" json:"id"`
	Name        string    `gorm:"column:name;not null" json:"name"`
	Price       int64     `gorm:"column:price;not null" json:"price"`
	ImageURL    *string   `gorm:"column:image_url" json:"imageUrl"`
	IsAvailable bool      `gorm:"column:is_available;not null" json:"isAvailable"`
	CreatedAt   time.Time `gorm:"column:created_at;autoCreateTime" json:"createdAt"`
	UpdatedAt   time.Time `gorm:"column:updated_at;autoUpdateTime" json:"updatedAt"`
}

func (t *Topping) BeforeCreate(*gorm.DB) error {
	assignID(&t.ID)
	return nil
}

// ProductTopping links a topping to the products it may be added to.
type ProductTopping struct {
	ID        uuid.UUID `gorm:"column:id;type:uuid;primaryKey" json:"id"`
	ProductID uuid.UUID `gorm:"column:product_id;type:uuid;not null;uniqueIndex:product_toppings_product_topping_key" json:"productId"`
	ToppingID uuid.UUID `gorm:"column:topping_id;type:uuid;not null;uniqueIndex:product_toppings_product_topping_key" json:"toppingId"`
	CreatedAt time.Time `gorm:"column:created_at;autoCreateTime" json:"createdAt"`
}

func (pt *ProductTopping) BeforeCreate(*gorm.DB) error {
	assignID(&pt.ID)
	return nil
}

type Review struct {
	ID         uuid.UUID `gorm:"column:id;type:uuid;primaryKey" json:"id"`
	ProductID  uuid.UUID `gorm:"column:product_id;type:uuid;not null;index:reviews_product_id_idx" json:"productId"`
	UserID     uuid.UUID `gorm:"column:user_id;type:uuid;not null;index:reviews_user_id_idx" json:"userId"`
	Rating     int       `gorm:"column:rating;not null" json:"rating"`
	Comment    *string   `gorm:"column:comment" json:"comment"`
	IsApproved bool      `gorm:"column:is_approved;not null;default:false" json:"isApproved"`
	CreatedAt  time.Time `gorm:"column:created_at;autoCreateTime" json:"createdAt"`
}

func (r *Review) BeforeCreate(*gorm.DB) error {
	assignID(&r.ID)
	return nil
}

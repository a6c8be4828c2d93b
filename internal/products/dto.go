package products

import (
	"strings"

	"github.com/google/uuid"

	"github.com/brewbar/bubbletea-backend/pkg/db/models"
)

// OptionInput is one option row of an admin product body.
type OptionInput struct {
	OptionGroup     string `json:"optionGroup" validate:"required,max=50"`
	OptionValue     string `json:"optionValue" validate:"required,max=50"`
	PriceAdjustment int64  `json:"priceAdjustment"`
	IsDefault       bool   `json:"isDefault"`
}

// ProductInput is the admin create/update body. A nil Options leaves the
// existing options untouched on update.
type ProductInput struct {
	Name          string        `json:"name" validate:"required,max=200"`
	Description   *string       `json:"description" validate:"omitempty,max=4000"`
	CategoryID    uuid.UUID     `json:"categoryId" validate:"required"`
	BasePrice     int64         `json:"basePrice" validate:"gte=0"`
	ImageURL      *string       `json:"imageUrl" validate:"omitempty,max=2048"`
	IsAvailable   *bool         `json:"isAvailable"`
	Ingredients   []string      `json:"ingredients" validate:"omitempty,dive,max=120"`
	NutritionInfo *string       `json:"nutritionInfo" validate:"omitempty,max=2000"`
	Options       []OptionInput `json:"options" validate:"omitempty,dive"`
}

func (in ProductInput) apply(p *models.Product) {
	p.Name = strings.TrimSpace(in.Name)
	p.Description = in.Description
	p.CategoryID = in.CategoryID
	p.BasePrice = in.BasePrice
	p.ImageURL = in.ImageURL
	p.Ingredients = in.Ingredients
	p.NutritionInfo = in.NutritionInfo
	if in.IsAvailable != nil {
		p.IsAvailable = *in.IsAvailable
	}
}

func (in ProductInput) options() []models.ProductOption {
	if in.Options == nil {
		return nil
	}
	out := make([]models.ProductOption, 0, len(in.Options))
	for _, o := range in.Options {
		out = append(out, models.ProductOption{
			OptionGroup:     strings.TrimSpace(o.OptionGroup),
			OptionValue:     strings.TrimSpace(o.OptionValue),
			PriceAdjustment: o.PriceAdjustment,
			IsDefault:       o.IsDefault,
		})
	}
	return out
}

// CategoryProducts is the storefront listing for one category.
type CategoryProducts struct {
	Category models.Category  `json:"category"`
	Products []models.Product `json:"products"`
}

// ProductDetail is the storefront product page.
type ProductDetail struct {
	models.Product
	OptionGroups  map[string][]models.ProductOption `json:"optionGroups"`
	Toppings      []models.Topping                  `json:"toppings"`
	Reviews       []models.Review                   `json:"reviews"`
	AverageRating float64                           `json:"averageRating"`
	ReviewCount   int                               `json:"reviewCount"`
}

func groupOptions(options []models.ProductOption) map[string][]models.ProductOption {
	out := make(map[string][]models.ProductOption)
	for _, o := range options {
		out[o.OptionGroup] = append(out[o.OptionGroup], o)
	}
	return out
}

func averageRating(reviews []models.Review) float64 {
	if len(reviews) == 0 {
		return 0
	}
	sum := 0
	for _, r := range reviews {
		sum += r.Rating
	}
	return float64(sum) / float64(len(reviews))
}

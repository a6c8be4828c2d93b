// Package pricing computes cart line prices, shipping and percentage discounts in whole đồng.
package pricing

import (
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/brewbar/bubbletea-backend/pkg/db/models"
)

// SizeGroup is the option group whose adjustment changes the unit price.
const SizeGroup = "size"

// ToppingLine is a selected topping resolved against the catalog.
type ToppingLine struct {
	Topping  models.Topping `json:"topping"`
	Quantity int            `json:"quantity"`
	Subtotal int64          `json:"subtotal"`
}

// Line is the priced view of one cart line.
type Line struct {
	ItemPrice     int64         `json:"itemPrice"`
	ToppingsPrice int64         `json:"toppingsPrice"`
	TotalPrice    int64         `json:"totalPrice"`
	Toppings      []ToppingLine `json:"toppings"`
}

// SizeAdjustment returns the price adjustment of the size option matching size, or 0.
func SizeAdjustment(options []models.ProductOption, size *string) int64 {
	if size == nil {
		return 0
	}
	for _, opt := range options {
		if opt.OptionGroup == SizeGroup && opt.OptionValue == *size {
			return opt.PriceAdjustment
		}
	}
	return 0
}

// ItemPrice is the unit price of product with the selected size, toppings excluded.
func ItemPrice(product models.Product, selected models.SelectedOptions) int64 {
	return product.BasePrice + SizeAdjustment(product.Options, selected.Size)
}

// ResolveToppings prices selected toppings against catalog. Toppings that are
// missing or unavailable are dropped and contribute nothing.
func ResolveToppings(selected []models.SelectedTopping, catalog map[uuid.UUID]models.Topping) ([]ToppingLine, int64) {
	lines := make([]ToppingLine, 0, len(selected))
	var total int64
	for _, sel := range selected {
		topping, ok := catalog[sel.ToppingID]
		if !ok || !topping.IsAvailable || sel.Quantity <= 0 {
			continue
		}
		sub := topping.Price * int64(sel.Quantity)
		lines = append(lines, ToppingLine{Topping: topping, Quantity: sel.Quantity, Subtotal: sub})
		total += sub
	}
	return lines, total
}

// LineTotal is (itemPrice + toppingsPrice) × quantity.
func LineTotal(itemPrice, toppingsPrice int64, quantity int) int64 {
	return (itemPrice + toppingsPrice) * int64(quantity)
}

// PriceLine prices a cart line in one step.
func PriceLine(product models.Product, selected models.SelectedOptions, toppings []models.SelectedTopping, catalog map[uuid.UUID]models.Topping, quantity int) Line {
	item := ItemPrice(product, selected)
	lines, toppingsPrice := ResolveToppings(toppings, catalog)
	return Line{
		ItemPrice:     item,
		ToppingsPrice: toppingsPrice,
		TotalPrice:    LineTotal(item, toppingsPrice, quantity),
		Toppings:      lines,
	}
}

// ShippingRule is a flat fee waived once the order total reaches FreeThreshold.
type ShippingRule struct {
	Fee           int64
	FreeThreshold int64
}

func (r ShippingRule) FeeFor(total int64) int64 {
	if total >= r.FreeThreshold {
		return 0
	}
	return r.Fee
}

// PercentOf returns amount × percent / 100 rounded half-up to whole đồng.
func PercentOf(amount, percent int64) int64 {
	if amount <= 0 || percent <= 0 {
		return 0
	}
	v := decimal.NewFromInt(amount).
		Mul(decimal.NewFromInt(percent)).
		Div(decimal.NewFromInt(100)).
		Round(0)
	return v.IntPart()
}

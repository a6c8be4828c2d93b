package promotions

import (
	"time"

	"github.com/brewbar/bubbletea-backend/internal/pricing"
	"github.com/brewbar/bubbletea-backend/pkg/db/models"
	"github.com/brewbar/bubbletea-backend/pkg/enums"
)

// Usage is how often a promotion has been redeemed overall and by the current user.
type Usage struct {
	Total  int64
	ByUser int64
}

// Eligible reports whether promo can be applied to an order of total at now.
func Eligible(promo models.Promotion, total int64, now time.Time, usage Usage) bool {
	if !promo.IsActive {
		return false
	}
	if now.Before(promo.StartDate) || now.After(promo.EndDate) {
		return false
	}
	if total < promo.MinOrderValue {
		return false
	}
	if promo.UsageLimit != nil && usage.Total >= int64(*promo.UsageLimit) {
		return false
	}
	if promo.UserUsageLimit > 0 && usage.ByUser >= int64(promo.UserUsageLimit) {
		return false
	}
	return true
}

// Discount computes the reduction for an eligible promotion. The result never
// exceeds total + shippingFee so the final amount cannot go negative.
func Discount(promo models.Promotion, total, shippingFee int64) int64 {
	var discount int64
	switch promo.DiscountType {
	case enums.DiscountTypePercentage:
		discount = pricing.PercentOf(total, promo.DiscountValue)
		// a zero cap means uncapped
		if promo.MaxDiscountAmount != nil && *promo.MaxDiscountAmount > 0 && discount > *promo.MaxDiscountAmount {
			discount = *promo.MaxDiscountAmount
		}
	case enums.DiscountTypeFixedAmount:
		discount = promo.DiscountValue
	case enums.DiscountTypeFreeShipping:
		discount = shippingFee
	default:
		return 0
	}
	if discount < 0 {
		return 0
	}
	if ceiling := total + shippingFee; discount > ceiling {
		return ceiling
	}
	return discount
}

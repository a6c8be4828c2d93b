package promotions

import (
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/brewbar/bubbletea-backend/pkg/db/models"
	"github.com/brewbar/bubbletea-backend/pkg/enums"
)

// PromotionInput is the admin create/update body.
type PromotionInput struct {
	Code              string             `json:"code" validate:"required,max=50"`
	Description       string             `json:"description" validate:"required,max=500"`
	DiscountType      enums.DiscountType `json:"discountType" validate:"required"`
	DiscountValue     int64              `json:"discountValue" validate:"gte=0"`
	MaxDiscountAmount *int64             `json:"maxDiscountAmount" validate:"omitempty,gte=0"`
	MinOrderValue     int64              `json:"minOrderValue" validate:"gte=0"`
	StartDate         time.Time          `json:"startDate" validate:"required"`
	EndDate           time.Time          `json:"endDate" validate:"required"`
	UsageLimit        *int               `json:"usageLimit" validate:"omitempty,gte=0"`
	UserUsageLimit    int                `json:"userUsageLimit" validate:"gte=0"`
	IsActive          *bool              `json:"isActive"`
}

func normalizeCode(code string) string {
	return strings.ToUpper(strings.TrimSpace(code))
}

func (in PromotionInput) apply(p *models.Promotion) {
	p.Code = normalizeCode(in.Code)
	p.Description = strings.TrimSpace(in.Description)
	p.DiscountType = in.DiscountType
	p.DiscountValue = in.DiscountValue
	p.MaxDiscountAmount = in.MaxDiscountAmount
	p.MinOrderValue = in.MinOrderValue
	p.StartDate = in.StartDate.UTC()
	p.EndDate = in.EndDate.UTC()
	p.UsageLimit = in.UsageLimit
	p.UserUsageLimit = in.UserUsageLimit
	if in.IsActive != nil {
		p.IsActive = *in.IsActive
	}
}

// PromotionDTO is the admin view with live usage.
type PromotionDTO struct {
	models.Promotion
	UsedCount int64 `json:"usedCount"`
}

// Applied is the outcome of trying a code at checkout.
type Applied struct {
	PromotionID *uuid.UUID
	Code        string
	Discount    int64
	Applied     bool
}

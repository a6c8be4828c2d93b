package promotions

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	dbpkg "github.com/brewbar/bubbletea-backend/pkg/db"
	"github.com/brewbar/bubbletea-backend/pkg/db/models"
	"github.com/brewbar/bubbletea-backend/pkg/enums"
	pkgerrors "github.com/brewbar/bubbletea-backend/pkg/errors"
)

// Service manages promotions and prices a code at checkout.
type Service interface {
	List(ctx context.Context) ([]PromotionDTO, error)
	Get(ctx context.Context, id uuid.UUID) (*models.Promotion, error)
	Create(ctx context.Context, input PromotionInput) (*models.Promotion, error)
	Update(ctx context.Context, id uuid.UUID, input PromotionInput) (*models.Promotion, error)
	Delete(ctx context.Context, id uuid.UUID) error
	// Apply evaluates code inside the checkout transaction. Unknown or
	// ineligible codes yield a zero discount instead of an error.
	Apply(ctx context.Context, tx *gorm.DB, code string, userID *uuid.UUID, total, shippingFee int64, now time.Time) (Applied, error)
}

type service struct {
	repo Repository
}

func NewService(repo Repository) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("promotions repository required")
	}
	return &service{repo: repo}, nil
}

func (s *service) List(ctx context.Context) ([]PromotionDTO, error) {
	rows, err := s.repo.List(ctx)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "list promotions")
	}
	counts, err := s.repo.UsageCounts(ctx)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "count promotion usage")
	}
	out := make([]PromotionDTO, 0, len(rows))
	for _, p := range rows {
		out = append(out, PromotionDTO{Promotion: p, UsedCount: counts[p.ID]})
	}
	return out, nil
}

func (s *service) Get(ctx context.Context, id uuid.UUID) (*models.Promotion, error) {
	promo, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "load promotion")
	}
	if promo == nil {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "promotion not found")
	}
	return promo, nil
}

func (s *service) Create(ctx context.Context, input PromotionInput) (*models.Promotion, error) {
	if err := validateInput(input); err != nil {
		return nil, err
	}
	promo := &models.Promotion{IsActive: true}
	input.apply(promo)
	if err := s.repo.Create(ctx, promo); err != nil {
		if dbpkg.IsUniqueViolation(err, "") {
			return nil, pkgerrors.Newf(pkgerrors.CodeConflict, "promotion code %s already exists", promo.Code)
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "create promotion")
	}
	return promo, nil
}

func (s *service) Update(ctx context.Context, id uuid.UUID, input PromotionInput) (*models.Promotion, error) {
	if err := validateInput(input); err != nil {
		return nil, err
	}
	promo, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	input.apply(promo)
	if err := s.repo.Save(ctx, promo); err != nil {
		if dbpkg.IsUniqueViolation(err, "") {
			return nil, pkgerrors.Newf(pkgerrors.CodeConflict, "promotion code %s already exists", promo.Code)
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "update promotion")
	}
	return promo, nil
}

func (s *service) Delete(ctx context.Context, id uuid.UUID) error {
	deleted, err := s.repo.Delete(ctx, id)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "delete promotion")
	}
	if !deleted {
		return pkgerrors.New(pkgerrors.CodeNotFound, "promotion not found")
	}
	return nil
}

func (s *service) Apply(ctx context.Context, tx *gorm.DB, code string, userID *uuid.UUID, total, shippingFee int64, now time.Time) (Applied, error) {
	code = normalizeCode(code)
	if code == "" {
		return Applied{}, nil
	}
	repo := s.repo.WithTx(tx)
	promo, err := repo.FindByCode(ctx, code)
	if err != nil {
		return Applied{}, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "load promotion")
	}
	if promo == nil {
		return Applied{Code: code}, nil
	}
	usage, err := repo.Usage(ctx, promo.ID, userID)
	if err != nil {
		return Applied{}, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "count promotion usage")
	}
	if !Eligible(*promo, total, now, usage) {
		return Applied{Code: code}, nil
	}
	discount := Discount(*promo, total, shippingFee)
	if discount <= 0 {
		return Applied{Code: code}, nil
	}
	id := promo.ID
	return Applied{PromotionID: &id, Code: code, Discount: discount, Applied: true}, nil
}

func validateInput(in PromotionInput) error {
	if normalizeCode(in.Code) == "" {
		return pkgerrors.New(pkgerrors.CodeValidation, "code is required")
	}
	if strings.TrimSpace(in.Description) == "" {
		return pkgerrors.New(pkgerrors.CodeValidation, "description is required")
	}
	if !in.DiscountType.IsValid() {
		return pkgerrors.Newf(pkgerrors.CodeValidation, "invalid discount type %q", in.DiscountType)
	}
	if in.DiscountType == enums.DiscountTypePercentage && (in.DiscountValue <= 0 || in.DiscountValue > 100) {
		return pkgerrors.New(pkgerrors.CodeValidation, "percentage discount must be between 1 and 100")
	}
	if in.DiscountValue < 0 || in.MinOrderValue < 0 || in.UserUsageLimit < 0 {
		return pkgerrors.New(pkgerrors.CodeValidation, "amounts must not be negative")
	}
	if !in.StartDate.Before(in.EndDate) {
		return pkgerrors.New(pkgerrors.CodeValidation, "startDate must be before endDate")
	}
	return nil
}

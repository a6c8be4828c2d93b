package promotions

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/brewbar/bubbletea-backend/pkg/db/models"
	"github.com/brewbar/bubbletea-backend/pkg/enums"
)

// Repository persists promotions and reads their redemption counts.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	List(ctx context.Context) ([]models.Promotion, error)
	FindByID(ctx context.Context, id uuid.UUID) (*models.Promotion, error)
	FindByCode(ctx context.Context, code string) (*models.Promotion, error)
	Create(ctx context.Context, promo *models.Promotion) error
	Save(ctx context.Context, promo *models.Promotion) error
	Delete(ctx context.Context, id uuid.UUID) (bool, error)
	Usage(ctx context.Context, promotionID uuid.UUID, userID *uuid.UUID) (Usage, error)
	UsageCounts(ctx context.Context) (map[uuid.UUID]int64, error)
}

type repository struct {
	db *gorm.DB
}

func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) WithTx(tx *gorm.DB) Repository {
	if tx == nil {
		return r
	}
	return &repository{db: tx}
}

func (r *repository) List(ctx context.Context) ([]models.Promotion, error) {
	var rows []models.Promotion
	err := r.db.WithContext(ctx).Order("created_at DESC").Find(&rows).Error
	return rows, err
}

func (r *repository) FindByID(ctx context.Context, id uuid.UUID) (*models.Promotion, error) {
	var promo models.Promotion
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&promo).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &promo, nil
}

func (r *repository) FindByCode(ctx context.Context, code string) (*models.Promotion, error) {
	var promo models.Promotion
	if err := r.db.WithContext(ctx).Where("code = ?", normalizeCode(code)).First(&promo).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &promo, nil
}

func (r *repository) Create(ctx context.Context, promo *models.Promotion) error {
	return r.db.WithContext(ctx).Create(promo).Error
}

func (r *repository) Save(ctx context.Context, promo *models.Promotion) error {
	return r.db.WithContext(ctx).Save(promo).Error
}

func (r *repository) Delete(ctx context.Context, id uuid.UUID) (bool, error) {
	res := r.db.WithContext(ctx).Where("id = ?", id).Delete(&models.Promotion{})
	return res.RowsAffected > 0, res.Error
}

// Usage counts orders that redeemed the promotion; cancelled orders give the redemption back.
func (r *repository) Usage(ctx context.Context, promotionID uuid.UUID, userID *uuid.UUID) (Usage, error) {
	var usage Usage
	base := r.db.WithContext(ctx).Model(&models.Order{}).
		Where("promotion_id = ? AND order_status <> ?", promotionID, enums.OrderStatusCancelled)
	if err := base.Count(&usage.Total).Error; err != nil {
		return Usage{}, err
	}
	if userID != nil {
		err := r.db.WithContext(ctx).Model(&models.Order{}).
			Where("promotion_id = ? AND order_status <> ? AND user_id = ?", promotionID, enums.OrderStatusCancelled, *userID).
			Count(&usage.ByUser).Error
		if err != nil {
			return Usage{}, err
		}
	}
	return usage, nil
}

func (r *repository) UsageCounts(ctx context.Context) (map[uuid.UUID]int64, error) {
	type row struct {
		PromotionID uuid.UUID
		Used        int64
	}
	var rows []row
	err := r.db.WithContext(ctx).Model(&models.Order{}).
		Select("promotion_id, COUNT(*) AS used").
		Where("promotion_id IS NOT NULL AND order_status <> ?", enums.OrderStatusCancelled).
		Group("promotion_id").
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}
	out := make(map[uuid.UUID]int64, len(rows))
	for _, r := range rows {
		out[r.PromotionID] = r.Used
	}
	return out, nil
}

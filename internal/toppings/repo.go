package toppings

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/brewbar/bubbletea-backend/internal/repo"
	"github.com/brewbar/bubbletea-backend/pkg/db/models"
)

// Repository persists toppings and their product links.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	List(ctx context.Context) ([]models.Topping, error)
	FindByID(ctx context.Context, id uuid.UUID) (*models.Topping, error)
	FindByIDs(ctx context.Context, ids []uuid.UUID) (map[uuid.UUID]models.Topping, error)
	Create(ctx context.Context, topping *models.Topping) error
	Save(ctx context.Context, topping *models.Topping) error
	Delete(ctx context.Context, id uuid.UUID) (bool, error)
	ListForProduct(ctx context.Context, productID uuid.UUID, availableOnly bool) ([]models.Topping, error)
	Link(ctx context.Context, productID, toppingID uuid.UUID) error
	Unlink(ctx context.Context, productID, toppingID uuid.UUID) (bool, error)
	ProductExists(ctx context.Context, productID uuid.UUID) (bool, error)
}

type repository struct {
	repo.Base
}

func NewRepository(db *gorm.DB) Repository {
	return &repository{Base: repo.NewBase(db)}
}

func (r *repository) WithTx(tx *gorm.DB) Repository {
	if tx == nil {
		return r
	}
	return &repository{Base: repo.NewBase(tx)}
}

func (r *repository) List(ctx context.Context) ([]models.Topping, error) {
	var rows []models.Topping
	return rows, r.DB(ctx).Order("name ASC").Find(&rows).Error
}

func (r *repository) FindByID(ctx context.Context, id uuid.UUID) (*models.Topping, error) {
	var topping models.Topping
	if err := r.DB(ctx).Where("id = ?", id).First(&topping).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &topping, nil
}

// FindByIDs returns the toppings that still exist, keyed by id.
func (r *repository) FindByIDs(ctx context.Context, ids []uuid.UUID) (map[uuid.UUID]models.Topping, error) {
	out := make(map[uuid.UUID]models.Topping, len(ids))
	if len(ids) == 0 {
		return out, nil
	}
	var rows []models.Topping
	if err := r.DB(ctx).Where("id IN ?", ids).Find(&rows).Error; err != nil {
		return nil, err
	}
	for _, row := range rows {
		out[row.ID] = row
	}
	return out, nil
}

func (r *repository) Create(ctx context.Context, topping *models.Topping) error {
	return r.DB(ctx).Create(topping).Error
}

func (r *repository) Save(ctx context.Context, topping *models.Topping) error {
	return r.DB(ctx).Save(topping).Error
}

// Delete removes the topping along with every product link to it.
func (r *repository) Delete(ctx context.Context, id uuid.UUID) (bool, error) {
	if err := r.DB(ctx).Where("topping_id = ?", id).Delete(&models.ProductTopping{}).Error; err != nil {
		return false, err
	}
	res := r.DB(ctx).Where("id = ?", id).Delete(&models.Topping{})
	return res.RowsAffected > 0, res.Error
}

func (r *repository) ListForProduct(ctx context.Context, productID uuid.UUID, availableOnly bool) ([]models.Topping, error) {
	q := r.DB(ctx).
		Joins("JOIN product_toppings pt ON pt.topping_id = toppings.id").
		Where("pt.product_id = ?", productID).
		Order("toppings.name ASC")
	if availableOnly {
		q = q.Where("toppings.is_available = ?", true)
	}
	var rows []models.Topping
	return rows, q.Find(&rows).Error
}

func (r *repository) Link(ctx context.Context, productID, toppingID uuid.UUID) error {
	return r.DB(ctx).Create(&models.ProductTopping{ProductID: productID, ToppingID: toppingID}).Error
}

func (r *repository) Unlink(ctx context.Context, productID, toppingID uuid.UUID) (bool, error) {
	res := r.DB(ctx).Where("product_id = ? AND topping_id = ?", productID, toppingID).Delete(&models.ProductTopping{})
	return res.RowsAffected > 0, res.Error
}

func (r *repository) ProductExists(ctx context.Context, productID uuid.UUID) (bool, error) {
	var count int64
	err := r.DB(ctx).Model(&models.Product{}).Where("id = ?", productID).Count(&count).Error
	return count > 0, err
}

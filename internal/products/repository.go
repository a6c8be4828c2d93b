package products

import (
	"context"
	"errors"
	"strings"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/brewbar/bubbletea-backend/pkg/db/models"
	"github.com/brewbar/bubbletea-backend/pkg/pagination"
)

// Repository wires together product, option and review persistence.
type Repository struct {
	db *gorm.DB
}

// NewRepository builds a repository tied to the provided GORM DB.
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

// WithTx returns a repository bound to the provided transaction.
func (r *Repository) WithTx(tx *gorm.DB) *Repository {
	if tx == nil {
		return r
	}
	return &Repository{db: tx}
}

func (r *Repository) conn(ctx context.Context) *gorm.DB {
	return r.db.WithContext(ctx)
}

// FindByID loads the product with its options.
func (r *Repository) FindByID(ctx context.Context, id uuid.UUID) (*models.Product, error) {
	return r.first(r.conn(ctx).Preload("Options").Where("id = ?", id))
}

// FindBySlug loads the product with its category and options.
func (r *Repository) FindBySlug(ctx context.Context, slug string) (*models.Product, error) {
	return r.first(r.conn(ctx).Preload("Category").Preload("Options").Where("slug = ?", slug))
}

func (r *Repository) first(q *gorm.DB) (*models.Product, error) {
	var product models.Product
	if err := q.First(&product).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &product, nil
}

// FindByIDs returns the products that still exist, keyed by id, with options loaded.
func (r *Repository) FindByIDs(ctx context.Context, ids []uuid.UUID) (map[uuid.UUID]models.Product, error) {
	out := make(map[uuid.UUID]models.Product, len(ids))
	if len(ids) == 0 {
		return out, nil
	}
	var rows []models.Product
	if err := r.conn(ctx).Preload("Options").Where("id IN ?", ids).Find(&rows).Error; err != nil {
		return nil, err
	}
	for _, row := range rows {
		out[row.ID] = row
	}
	return out, nil
}

// ListAvailableByCategory returns the category's orderable products.
func (r *Repository) ListAvailableByCategory(ctx context.Context, categoryID uuid.UUID) ([]models.Product, error) {
	var rows []models.Product
	err := r.conn(ctx).
		Where("category_id = ? AND is_available = ?", categoryID, true).
		Order("name ASC").
		Find(&rows).Error
	return rows, err
}

// SearchAvailable matches names case-insensitively.
func (r *Repository) SearchAvailable(ctx context.Context, query string, limit int) ([]models.Product, error) {
	pattern := "%" + escapeLike(strings.ToLower(query)) + "%"
	var rows []models.Product
	err := r.conn(ctx).
		Preload("Category").
		Where("is_available = ? AND LOWER(name) LIKE ? ESCAPE '\\'", true, pattern).
		Order("name ASC").
		Limit(limit).
		Find(&rows).Error
	return rows, err
}

// NewestAvailable returns the most recently added available products, optionally
// narrowed to a category and excluding one product.
func (r *Repository) NewestAvailable(ctx context.Context, limit int, categoryID, exclude *uuid.UUID) ([]models.Product, error) {
	q := r.conn(ctx).Preload("Category").Where("is_available = ?", true)
	if categoryID != nil {
		q = q.Where("category_id = ?", *categoryID)
	}
	if exclude != nil {
		q = q.Where("id <> ?", *exclude)
	}
	var rows []models.Product
	err := q.Order("created_at DESC").Order("id DESC").Limit(limit).Find(&rows).Error
	return rows, err
}

// ListPage returns every product newest first for the admin table.
func (r *Repository) ListPage(ctx context.Context, params pagination.Params) ([]models.Product, error) {
	q, err := pagination.Apply(r.conn(ctx).Preload("Category").Preload("Options"), "products", params)
	if err != nil {
		return nil, err
	}
	var rows []models.Product
	return rows, q.Find(&rows).Error
}

func (r *Repository) SlugTaken(ctx context.Context, slug string, exclude uuid.UUID) (bool, error) {
	var count int64
	err := r.conn(ctx).Model(&models.Product{}).Where("slug = ? AND id <> ?", slug, exclude).Count(&count).Error
	return count > 0, err
}

func (r *Repository) CategoryExists(ctx context.Context, id uuid.UUID) (bool, error) {
	var count int64
	err := r.conn(ctx).Model(&models.Category{}).Where("id = ?", id).Count(&count).Error
	return count > 0, err
}

// Create inserts the product row and its options.
func (r *Repository) Create(ctx context.Context, product *models.Product) error {
	if err := r.conn(ctx).Omit(clause.Associations).Create(product).Error; err != nil {
		return err
	}
	return r.insertOptions(ctx, product.ID, product.Options)
}

// Update saves the product row and, when options is non-nil, replaces its options.
func (r *Repository) Update(ctx context.Context, product *models.Product, options []models.ProductOption) error {
	if err := r.conn(ctx).Omit(clause.Associations).Save(product).Error; err != nil {
		return err
	}
	if options == nil {
		return nil
	}
	if err := r.conn(ctx).Where("product_id = ?", product.ID).Delete(&models.ProductOption{}).Error; err != nil {
		return err
	}
	if err := r.insertOptions(ctx, product.ID, options); err != nil {
		return err
	}
	product.Options = options
	return nil
}

func (r *Repository) insertOptions(ctx context.Context, productID uuid.UUID, options []models.ProductOption) error {
	if len(options) == 0 {
		return nil
	}
	for i := range options {
		options[i].ID = uuid.Nil
		options[i].ProductID = productID
	}
	return r.conn(ctx).Create(&options).Error
}

// Delete removes the product with its options, topping links and wishlist entries.
func (r *Repository) Delete(ctx context.Context, id uuid.UUID) (bool, error) {
	dependents := []any{&models.ProductOption{}, &models.ProductTopping{}, &models.WishlistItem{}}
	for _, model := range dependents {
		if err := r.conn(ctx).Where("product_id = ?", id).Delete(model).Error; err != nil {
			return false, err
		}
	}
	res := r.conn(ctx).Where("id = ?", id).Delete(&models.Product{})
	return res.RowsAffected > 0, res.Error
}

// ApprovedReviews lists the product's visible reviews newest first.
func (r *Repository) ApprovedReviews(ctx context.Context, productID uuid.UUID) ([]models.Review, error) {
	var rows []models.Review
	err := r.conn(ctx).
		Where("product_id = ? AND is_approved = ?", productID, true).
		Order("created_at DESC").
		Find(&rows).Error
	return rows, err
}

func escapeLike(s string) string {
	return strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`).Replace(s)
}

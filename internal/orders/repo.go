package orders

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/brewbar/bubbletea-backend/pkg/db/models"
	"github.com/brewbar/bubbletea-backend/pkg/enums"
	"github.com/brewbar/bubbletea-backend/pkg/pagination"
)

// Repository persists orders with their items and toppings.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	Create(ctx context.Context, order *models.Order) error
	FindByID(ctx context.Context, id uuid.UUID) (*models.Order, error)
	FindByIDForUpdate(ctx context.Context, id uuid.UUID) (*models.Order, error)
	ListByUser(ctx context.Context, userID uuid.UUID) ([]OrderSummary, error)
	ListAdmin(ctx context.Context, filter AdminFilter) ([]AdminOrderRow, error)
	UpdateStatus(ctx context.Context, id uuid.UUID, status enums.OrderStatus, payment enums.PaymentStatus) error
	ProductNames(ctx context.Context, ids []uuid.UUID) (map[uuid.UUID]ProductRef, error)
	ToppingNames(ctx context.Context, ids []uuid.UUID) (map[uuid.UUID]string, error)
}

// AdminFilter narrows the admin order table.
type AdminFilter struct {
	Status *enums.OrderStatus
	pagination.Params
}

// ProductRef is the catalog data shown next to an order line.
type ProductRef struct {
	Name     string
	ImageURL *string
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

// Create inserts the order, its items and each item's toppings.
func (r *repository) Create(ctx context.Context, order *models.Order) error {
	return r.db.WithContext(ctx).Create(order).Error
}

func (r *repository) FindByID(ctx context.Context, id uuid.UUID) (*models.Order, error) {
	return r.find(r.db.WithContext(ctx).Preload("Items.Toppings"), id)
}

// FindByIDForUpdate locks the order row on postgres so concurrent status
// updates serialise.
func (r *repository) FindByIDForUpdate(ctx context.Context, id uuid.UUID) (*models.Order, error) {
	q := r.db.WithContext(ctx)
	if q.Dialector.Name() == "postgres" {
		q = q.Clauses(clause.Locking{Strength: "UPDATE"})
	}
	return r.find(q, id)
}

func (r *repository) find(q *gorm.DB, id uuid.UUID) (*models.Order, error) {
	var order models.Order
	if err := q.Where("id = ?", id).First(&order).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &order, nil
}

func (r *repository) ListByUser(ctx context.Context, userID uuid.UUID) ([]OrderSummary, error) {
	var rows []OrderSummary
	err := r.db.WithContext(ctx).
		Table("orders").
		Select("orders.*, (SELECT COUNT(*) FROM order_items oi WHERE oi.order_id = orders.id) AS item_count").
		Where("orders.user_id = ?", userID).
		Order("orders.created_at DESC").
		Scan(&rows).Error
	return rows, err
}

func (r *repository) ListAdmin(ctx context.Context, filter AdminFilter) ([]AdminOrderRow, error) {
	q := r.db.WithContext(ctx).
		Table("orders").
		Select(`orders.*,
			COALESCE(users.name, orders.customer_name, '') AS user_name,
			users.email AS user_email,
			(SELECT COUNT(*) FROM order_items oi WHERE oi.order_id = orders.id) AS item_count`).
		Joins("LEFT JOIN users ON users.id = orders.user_id")
	if filter.Status != nil {
		q = q.Where("orders.order_status = ?", *filter.Status)
	}
	q, err := pagination.Apply(q, "orders", filter.Params)
	if err != nil {
		return nil, err
	}
	var rows []AdminOrderRow
	return rows, q.Scan(&rows).Error
}

func (r *repository) UpdateStatus(ctx context.Context, id uuid.UUID, status enums.OrderStatus, payment enums.PaymentStatus) error {
	return r.db.WithContext(ctx).Model(&models.Order{}).Where("id = ?", id).Updates(map[string]any{
		"order_status":   status,
		"payment_status": payment,
		"updated_at":     time.Now().UTC(),
	}).Error
}

func (r *repository) ProductNames(ctx context.Context, ids []uuid.UUID) (map[uuid.UUID]ProductRef, error) {
	out := make(map[uuid.UUID]ProductRef, len(ids))
	if len(ids) == 0 {
		return out, nil
	}
	var rows []models.Product
	if err := r.db.WithContext(ctx).Select("id", "name", "image_url").Where("id IN ?", ids).Find(&rows).Error; err != nil {
		return nil, err
	}
	for _, p := range rows {
		out[p.ID] = ProductRef{Name: p.Name, ImageURL: p.ImageURL}
	}
	return out, nil
}

func (r *repository) ToppingNames(ctx context.Context, ids []uuid.UUID) (map[uuid.UUID]string, error) {
	out := make(map[uuid.UUID]string, len(ids))
	if len(ids) == 0 {
		return out, nil
	}
	var rows []models.Topping
	if err := r.db.WithContext(ctx).Select("id", "name").Where("id IN ?", ids).Find(&rows).Error; err != nil {
		return nil, err
	}
	for _, t := range rows {
		out[t.ID] = t.Name
	}
	return out, nil
}

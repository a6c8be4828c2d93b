package users

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/brewbar/bubbletea-backend/pkg/db/models"
	"github.com/brewbar/bubbletea-backend/pkg/pagination"
)

// Repository exposes user-related persistence operations.
type Repository struct {
	db *gorm.DB
}

// NewRepository constructs a users repo bound to the provided GORM DB.
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

func (r *Repository) WithTx(tx *gorm.DB) *Repository {
	if tx == nil {
		return r
	}
	return &Repository{db: tx}
}

// Create inserts a new user.
func (r *Repository) Create(ctx context.Context, user *models.User) error {
	return r.db.WithContext(ctx).Create(user).Error
}

// FindByEmail retrieves the user matching the provided email, or nil.
func (r *Repository) FindByEmail(ctx context.Context, email string) (*models.User, error) {
	var user models.User
	if err := r.db.WithContext(ctx).Where("email = ?", email).First(&user).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &user, nil
}

// FindByID loads a user by id, or nil.
func (r *Repository) FindByID(ctx context.Context, id uuid.UUID) (*models.User, error) {
	var user models.User
	if err := r.db.WithContext(ctx).First(&user, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &user, nil
}

// UpdateLastLogin refreshes the user's last_login_at timestamp.
func (r *Repository) UpdateLastLogin(ctx context.Context, id uuid.UUID, at time.Time) error {
	return r.db.WithContext(ctx).
		Model(&models.User{}).
		Where("id = ?", id).
		UpdateColumn("last_login_at", at).Error
}

func (r *Repository) SetActive(ctx context.Context, id uuid.UUID, active bool) error {
	return r.db.WithContext(ctx).
		Model(&models.User{}).
		Where("id = ?", id).
		Update("is_active", active).Error
}

// ListPage returns users newest first with their order counts.
func (r *Repository) ListPage(ctx context.Context, params pagination.Params) ([]AdminUserRow, error) {
	q := r.db.WithContext(ctx).
		Table("users").
		Select("users.*, (SELECT COUNT(*) FROM orders WHERE orders.user_id = users.id) AS order_count")
	q, err := pagination.Apply(q, "users", params)
	if err != nil {
		return nil, err
	}
	var rows []AdminUserRow
	return rows, q.Scan(&rows).Error
}

func (r *Repository) CountOrders(ctx context.Context, id uuid.UUID) (int64, error) {
	var n int64
	err := r.db.WithContext(ctx).Model(&models.Order{}).Where("user_id = ?", id).Count(&n).Error
	return n, err
}

// ListStaleAnonymousIDs returns anonymous users idle since before cutoff who never ordered.
func (r *Repository) ListStaleAnonymousIDs(ctx context.Context, cutoff time.Time, limit int) ([]uuid.UUID, error) {
	var ids []uuid.UUID
	err := r.db.WithContext(ctx).
		Model(&models.User{}).
		Where("is_anonymous = ?", true).
		Where("COALESCE(last_login_at, created_at) < ?", cutoff).
		Where("NOT EXISTS (SELECT 1 FROM orders o WHERE o.user_id = users.id)").
		Order("created_at ASC").
		Limit(limit).
		Pluck("id", &ids).Error
	return ids, err
}

// DeleteTx runs Delete on tx.
func (r *Repository) DeleteTx(ctx context.Context, tx *gorm.DB, id uuid.UUID) error {
	return r.WithTx(tx).Delete(ctx, id)
}

// Delete removes the user together with their cart, wishlist, addresses and reviews.
func (r *Repository) Delete(ctx context.Context, id uuid.UUID) error {
	conn := r.db.WithContext(ctx)
	for _, model := range []any{&models.CartItem{}, &models.WishlistItem{}, &models.Address{}, &models.Review{}} {
		if err := conn.Where("user_id = ?", id).Delete(model).Error; err != nil {
			return err
		}
	}
	return conn.Where("id = ?", id).Delete(&models.User{}).Error
}

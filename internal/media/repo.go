package media

import (
	"context"
	"errors"
	"time"

	"github.com/brewbar/bubbletea-backend/pkg/db/models"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Repository exposes media metadata persistence operations.
type Repository struct {
	db *gorm.DB
}

// NewRepository constructs a media repository bound to the provided GORM DB.
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

// Create persists a media record.
func (r *Repository) Create(ctx context.Context, media *models.Media) (*models.Media, error) {
	if err := r.db.WithContext(ctx).Create(media).Error; err != nil {
		return nil, err
	}
	return media, nil
}

// FindByHandle returns nil when no record owns the handle.
func (r *Repository) FindByHandle(ctx context.Context, handle string) (*models.Media, error) {
	var m models.Media
	err := r.db.WithContext(ctx).Where("handle = ?", handle).First(&m).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &m, nil
}

// FindByHandles loads every known record among handles keyed by handle.
func (r *Repository) FindByHandles(ctx context.Context, handles []string) (map[string]models.Media, error) {
	out := make(map[string]models.Media, len(handles))
	if len(handles) == 0 {
		return out, nil
	}
	var rows []models.Media
	if err := r.db.WithContext(ctx).Where("handle IN ?", handles).Find(&rows).Error; err != nil {
		return nil, err
	}
	for _, row := range rows {
		out[row.Handle] = row
	}
	return out, nil
}

// ListCreatedBetween returns up to limit records registered in [from, to), oldest first.
func (r *Repository) ListCreatedBetween(ctx context.Context, from, to time.Time, limit int) ([]models.Media, error) {
	var rows []models.Media
	err := r.db.WithContext(ctx).
		Where("created_at >= ? AND created_at < ?", from, to).
		Order("created_at ASC").
		Limit(limit).
		Find(&rows).Error
	return rows, err
}

// Delete removes a media record.
func (r *Repository) Delete(ctx context.Context, id uuid.UUID) error {
	return r.db.WithContext(ctx).Where("id = ?", id).Delete(&models.Media{}).Error
}

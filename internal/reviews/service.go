// Package reviews stores customer ratings; they stay hidden until an admin approves them.
package reviews

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/brewbar/bubbletea-backend/pkg/db/models"
	pkgerrors "github.com/brewbar/bubbletea-backend/pkg/errors"
)

// ReviewInput is the customer review body.
type ReviewInput struct {
	Rating  int     `json:"rating" validate:"required,min=1,max=5"`
	Comment *string `json:"comment" validate:"omitempty,max=2000"`
}

// PendingReview joins a review with the names shown in the moderation queue.
type PendingReview struct {
	models.Review
	ProductName string `json:"productName"`
	UserName    string `json:"userName"`
}

type Service interface {
	Create(ctx context.Context, userID, productID uuid.UUID, input ReviewInput) (*models.Review, error)
	ListForModeration(ctx context.Context, pendingOnly bool) ([]PendingReview, error)
	Approve(ctx context.Context, id uuid.UUID) (*models.Review, error)
}

type service struct {
	db *gorm.DB
}

func NewService(db *gorm.DB) (Service, error) {
	if db == nil {
		return nil, fmt.Errorf("db required")
	}
	return &service{db: db}, nil
}

func (s *service) Create(ctx context.Context, userID, productID uuid.UUID, input ReviewInput) (*models.Review, error) {
	if input.Rating < 1 || input.Rating > 5 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "rating must be between 1 and 5")
	}
	var count int64
	if err := s.db.WithContext(ctx).Model(&models.Product{}).Where("id = ?", productID).Count(&count).Error; err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "load product")
	}
	if count == 0 {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "product not found")
	}

	review := &models.Review{ProductID: productID, UserID: userID, Rating: input.Rating}
	if input.Comment != nil {
		if c := strings.TrimSpace(*input.Comment); c != "" {
			review.Comment = &c
		}
	}
	if err := s.db.WithContext(ctx).Create(review).Error; err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "create review")
	}
	return review, nil
}

func (s *service) ListForModeration(ctx context.Context, pendingOnly bool) ([]PendingReview, error) {
	q := s.db.WithContext(ctx).
		Table("reviews").
		Select("reviews.*, COALESCE(products.name, '') AS product_name, COALESCE(users.name, '') AS user_name").
		Joins("LEFT JOIN products ON products.id = reviews.product_id").
		Joins("LEFT JOIN users ON users.id = reviews.user_id").
		Order("reviews.created_at DESC")
	if pendingOnly {
		q = q.Where("reviews.is_approved = ?", false)
	}
	var rows []PendingReview
	if err := q.Scan(&rows).Error; err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "list reviews")
	}
	return rows, nil
}

func (s *service) Approve(ctx context.Context, id uuid.UUID) (*models.Review, error) {
	var review models.Review
	if err := s.db.WithContext(ctx).Where("id = ?", id).First(&review).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "review not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "load review")
	}
	if err := s.db.WithContext(ctx).Model(&review).Update("is_approved", true).Error; err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "approve review")
	}
	review.IsApproved = true
	return &review, nil
}

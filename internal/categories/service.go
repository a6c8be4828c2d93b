package categories

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/brewbar/bubbletea-backend/pkg/db"
	"github.com/brewbar/bubbletea-backend/pkg/db/models"
	pkgerrors "github.com/brewbar/bubbletea-backend/pkg/errors"
	"github.com/brewbar/bubbletea-backend/pkg/slug"
)

// CategoryInput is the admin create/update body.
type CategoryInput struct {
	Name        string  `json:"name" validate:"required,max=120"`
	Description *string `json:"description" validate:"omitempty,max=1000"`
	ImageURL    *string `json:"imageUrl" validate:"omitempty,max=2048"`
	IsActive    *bool   `json:"isActive"`
}

// Service manages the category tree shown on the storefront.
type Service interface {
	ListActive(ctx context.Context) ([]models.Category, error)
	ListAll(ctx context.Context) ([]models.Category, error)
	GetBySlug(ctx context.Context, slug string) (*models.Category, error)
	Create(ctx context.Context, input CategoryInput) (*models.Category, error)
	Update(ctx context.Context, id uuid.UUID, input CategoryInput) (*models.Category, error)
	Delete(ctx context.Context, id uuid.UUID) error
}

type service struct {
	repo     Repository
	dbClient *db.Client
}

func NewService(repo Repository, dbClient *db.Client) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("category repository required")
	}
	if dbClient == nil {
		return nil, fmt.Errorf("db client required")
	}
	return &service{repo: repo, dbClient: dbClient}, nil
}

func (s *service) ListActive(ctx context.Context) ([]models.Category, error) {
	rows, err := s.repo.List(ctx, true)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "list categories")
	}
	return rows, nil
}

func (s *service) ListAll(ctx context.Context) ([]models.Category, error) {
	rows, err := s.repo.List(ctx, false)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "list categories")
	}
	return rows, nil
}

func (s *service) GetBySlug(ctx context.Context, value string) (*models.Category, error) {
	category, err := s.repo.FindBySlug(ctx, strings.TrimSpace(value))
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "load category")
	}
	if category == nil || !category.IsActive {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "category not found")
	}
	return category, nil
}

func (s *service) Create(ctx context.Context, input CategoryInput) (*models.Category, error) {
	name := strings.TrimSpace(input.Name)
	if name == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "name is required")
	}
	category := &models.Category{
		Name:        name,
		Description: input.Description,
		ImageURL:    input.ImageURL,
		IsActive:    true,
	}
	if input.IsActive != nil {
		category.IsActive = *input.IsActive
	}

	err := s.dbClient.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		value, err := s.uniqueSlug(ctx, repo, name, uuid.Nil)
		if err != nil {
			return err
		}
		category.Slug = value
		return repo.Create(ctx, category)
	})
	if err != nil {
		return nil, s.mapWriteError(err, "create category")
	}
	return category, nil
}

func (s *service) Update(ctx context.Context, id uuid.UUID, input CategoryInput) (*models.Category, error) {
	name := strings.TrimSpace(input.Name)
	if name == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "name is required")
	}

	var category *models.Category
	err := s.dbClient.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		existing, err := repo.FindByID(ctx, id)
		if err != nil {
			return err
		}
		if existing == nil {
			return pkgerrors.New(pkgerrors.CodeNotFound, "category not found")
		}
		if existing.Name != name {
			value, err := s.uniqueSlug(ctx, repo, name, existing.ID)
			if err != nil {
				return err
			}
			existing.Slug = value
		}
		existing.Name = name
		existing.Description = input.Description
		existing.ImageURL = input.ImageURL
		if input.IsActive != nil {
			existing.IsActive = *input.IsActive
		}
		category = existing
		return repo.Save(ctx, existing)
	})
	if err != nil {
		return nil, s.mapWriteError(err, "update category")
	}
	return category, nil
}

// Delete refuses while any product still points at the category.
func (s *service) Delete(ctx context.Context, id uuid.UUID) error {
	err := s.dbClient.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		existing, err := repo.FindByID(ctx, id)
		if err != nil {
			return err
		}
		if existing == nil {
			return pkgerrors.New(pkgerrors.CodeNotFound, "category not found")
		}
		count, err := repo.CountProducts(ctx, id)
		if err != nil {
			return err
		}
		if count > 0 {
			return pkgerrors.Newf(pkgerrors.CodeStateConflict, "category still has %d products", count).
				WithDetails(map[string]any{"productCount": count})
		}
		return repo.Delete(ctx, id)
	})
	if err != nil {
		return s.mapWriteError(err, "delete category")
	}
	return nil
}

func (s *service) uniqueSlug(ctx context.Context, repo Repository, name string, exclude uuid.UUID) (string, error) {
	return slug.Unique(slug.Make(name), func(candidate string) (bool, error) {
		return repo.SlugTaken(ctx, candidate, exclude)
	})
}

func (s *service) mapWriteError(err error, action string) error {
	if typed := pkgerrors.As(err); typed != nil {
		return typed
	}
	if db.IsUniqueViolation(err, "") {
		return pkgerrors.Wrap(pkgerrors.CodeConflict, err, "category slug already exists")
	}
	return pkgerrors.Wrap(pkgerrors.CodeInternal, err, action)
}

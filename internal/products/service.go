package products

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/brewbar/bubbletea-backend/pkg/db"
	"github.com/brewbar/bubbletea-backend/pkg/db/models"
	pkgerrors "github.com/brewbar/bubbletea-backend/pkg/errors"
	"github.com/brewbar/bubbletea-backend/pkg/pagination"
	"github.com/brewbar/bubbletea-backend/pkg/slug"
)

const (
	featuredLimit = 8
	relatedLimit  = 3
	searchLimit   = 50
)

// Service exposes the storefront catalog and admin product management.
type Service interface {
	ListByCategorySlug(ctx context.Context, categorySlug string) (*CategoryProducts, error)
	GetBySlug(ctx context.Context, productSlug string) (*ProductDetail, error)
	Search(ctx context.Context, query string) ([]models.Product, error)
	Featured(ctx context.Context) ([]models.Product, error)
	Related(ctx context.Context, productID uuid.UUID) ([]models.Product, error)
	AdminList(ctx context.Context, params pagination.Params) (pagination.Page[models.Product], error)
	Create(ctx context.Context, input ProductInput) (*models.Product, error)
	Update(ctx context.Context, id uuid.UUID, input ProductInput) (*models.Product, error)
	Delete(ctx context.Context, id uuid.UUID) error
}

type categoryLoader interface {
	GetBySlug(ctx context.Context, slug string) (*models.Category, error)
}

type toppingLister interface {
	ListForProduct(ctx context.Context, productID uuid.UUID, availableOnly bool) ([]models.Topping, error)
}

type service struct {
	repo       *Repository
	dbClient   *db.Client
	categories categoryLoader
	toppings   toppingLister
}

// NewService constructs a product service instance.
func NewService(repo *Repository, dbClient *db.Client, categories categoryLoader, toppings toppingLister) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("product repository required")
	}
	if dbClient == nil {
		return nil, fmt.Errorf("db client required")
	}
	if categories == nil {
		return nil, fmt.Errorf("category loader required")
	}
	if toppings == nil {
		return nil, fmt.Errorf("topping lister required")
	}
	return &service{repo: repo, dbClient: dbClient, categories: categories, toppings: toppings}, nil
}

func (s *service) ListByCategorySlug(ctx context.Context, categorySlug string) (*CategoryProducts, error) {
	category, err := s.categories.GetBySlug(ctx, categorySlug)
	if err != nil {
		return nil, err
	}
	rows, err := s.repo.ListAvailableByCategory(ctx, category.ID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "list category products")
	}
	return &CategoryProducts{Category: *category, Products: rows}, nil
}

func (s *service) GetBySlug(ctx context.Context, productSlug string) (*ProductDetail, error) {
	product, err := s.repo.FindBySlug(ctx, strings.TrimSpace(productSlug))
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "load product")
	}
	if product == nil {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "product not found")
	}
	toppings, err := s.toppings.ListForProduct(ctx, product.ID, true)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "load product toppings")
	}
	reviews, err := s.repo.ApprovedReviews(ctx, product.ID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "load product reviews")
	}
	return &ProductDetail{
		Product:       *product,
		OptionGroups:  groupOptions(product.Options),
		Toppings:      toppings,
		Reviews:       reviews,
		AverageRating: averageRating(reviews),
		ReviewCount:   len(reviews),
	}, nil
}

func (s *service) Search(ctx context.Context, query string) ([]models.Product, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return []models.Product{}, nil
	}
	rows, err := s.repo.SearchAvailable(ctx, query, searchLimit)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "search products")
	}
	return rows, nil
}

func (s *service) Featured(ctx context.Context) ([]models.Product, error) {
	rows, err := s.repo.NewestAvailable(ctx, featuredLimit, nil, nil)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "list featured products")
	}
	return rows, nil
}

func (s *service) Related(ctx context.Context, productID uuid.UUID) ([]models.Product, error) {
	product, err := s.repo.FindByID(ctx, productID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "load product")
	}
	if product == nil {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "product not found")
	}
	rows, err := s.repo.NewestAvailable(ctx, relatedLimit, &product.CategoryID, &product.ID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "list related products")
	}
	return rows, nil
}

func (s *service) AdminList(ctx context.Context, params pagination.Params) (pagination.Page[models.Product], error) {
	if _, err := pagination.ParseCursor(params.Cursor); err != nil {
		return pagination.Page[models.Product]{}, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid cursor")
	}
	rows, err := s.repo.ListPage(ctx, params)
	if err != nil {
		return pagination.Page[models.Product]{}, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "list products")
	}
	return pagination.Trim(rows, params.Limit, func(p models.Product) pagination.Cursor {
		return pagination.Cursor{CreatedAt: p.CreatedAt, ID: p.ID}
	}), nil
}

func (s *service) Create(ctx context.Context, input ProductInput) (*models.Product, error) {
	if err := validateInput(input); err != nil {
		return nil, err
	}
	product := &models.Product{IsAvailable: true}
	input.apply(product)
	product.Options = input.options()

	err := s.dbClient.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		if err := s.ensureCategory(ctx, repo, input.CategoryID); err != nil {
			return err
		}
		value, err := uniqueSlug(ctx, repo, product.Name, uuid.Nil)
		if err != nil {
			return err
		}
		product.Slug = value
		return repo.Create(ctx, product)
	})
	if err != nil {
		return nil, mapWriteError(err, "create product")
	}
	return product, nil
}

func (s *service) Update(ctx context.Context, id uuid.UUID, input ProductInput) (*models.Product, error) {
	if err := validateInput(input); err != nil {
		return nil, err
	}
	var product *models.Product
	err := s.dbClient.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		existing, err := repo.FindByID(ctx, id)
		if err != nil {
			return err
		}
		if existing == nil {
			return pkgerrors.New(pkgerrors.CodeNotFound, "product not found")
		}
		if err := s.ensureCategory(ctx, repo, input.CategoryID); err != nil {
			return err
		}
		if existing.Name != strings.TrimSpace(input.Name) {
			value, err := uniqueSlug(ctx, repo, input.Name, existing.ID)
			if err != nil {
				return err
			}
			existing.Slug = value
		}
		input.apply(existing)
		product = existing
		return repo.Update(ctx, existing, input.options())
	})
	if err != nil {
		return nil, mapWriteError(err, "update product")
	}
	return product, nil
}

func (s *service) Delete(ctx context.Context, id uuid.UUID) error {
	var deleted bool
	err := s.dbClient.WithTx(ctx, func(tx *gorm.DB) error {
		var err error
		deleted, err = s.repo.WithTx(tx).Delete(ctx, id)
		return err
	})
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "delete product")
	}
	if !deleted {
		return pkgerrors.New(pkgerrors.CodeNotFound, "product not found")
	}
	return nil
}

func (s *service) ensureCategory(ctx context.Context, repo *Repository, id uuid.UUID) error {
	ok, err := repo.CategoryExists(ctx, id)
	if err != nil {
		return err
	}
	if !ok {
		return pkgerrors.New(pkgerrors.CodeNotFound, "category not found")
	}
	return nil
}

func uniqueSlug(ctx context.Context, repo *Repository, name string, exclude uuid.UUID) (string, error) {
	return slug.Unique(slug.Make(name), func(candidate string) (bool, error) {
		return repo.SlugTaken(ctx, candidate, exclude)
	})
}

func validateInput(in ProductInput) error {
	if strings.TrimSpace(in.Name) == "" {
		return pkgerrors.New(pkgerrors.CodeValidation, "name is required")
	}
	if in.CategoryID == uuid.Nil {
		return pkgerrors.New(pkgerrors.CodeValidation, "categoryId is required")
	}
	if in.BasePrice < 0 {
		return pkgerrors.New(pkgerrors.CodeValidation, "basePrice must not be negative")
	}
	for _, o := range in.Options {
		if strings.TrimSpace(o.OptionGroup) == "" || strings.TrimSpace(o.OptionValue) == "" {
			return pkgerrors.New(pkgerrors.CodeValidation, "options need a group and a value")
		}
	}
	return nil
}

func mapWriteError(err error, action string) error {
	if typed := pkgerrors.As(err); typed != nil {
		return typed
	}
	if db.IsUniqueViolation(err, "") {
		return pkgerrors.Wrap(pkgerrors.CodeConflict, err, "product slug already exists")
	}
	return pkgerrors.Wrap(pkgerrors.CodeInternal, err, action)
}

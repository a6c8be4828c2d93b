package toppings

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/brewbar/bubbletea-backend/pkg/db"
	"github.com/brewbar/bubbletea-backend/pkg/db/models"
	pkgerrors "github.com/brewbar/bubbletea-backend/pkg/errors"
)

// ToppingInput is the admin create/update body.
type ToppingInput struct {
	Name        string  `json:"name" validate:"required,max=120"`
	Price       int64   `json:"price" validate:"gte=0"`
	ImageURL    *string `json:"imageUrl" validate:"omitempty,max=2048"`
	IsAvailable *bool   `json:"isAvailable"`
}

type Service interface {
	List(ctx context.Context) ([]models.Topping, error)
	Create(ctx context.Context, input ToppingInput) (*models.Topping, error)
	Update(ctx context.Context, id uuid.UUID, input ToppingInput) (*models.Topping, error)
	Delete(ctx context.Context, id uuid.UUID) error
	ListForProduct(ctx context.Context, productID uuid.UUID) ([]models.Topping, error)
	LinkToProduct(ctx context.Context, productID, toppingID uuid.UUID) error
	UnlinkFromProduct(ctx context.Context, productID, toppingID uuid.UUID) error
}

type service struct {
	repo     Repository
	dbClient *db.Client
}

func NewService(repo Repository, dbClient *db.Client) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("topping repository required")
	}
	if dbClient == nil {
		return nil, fmt.Errorf("db client required")
	}
	return &service{repo: repo, dbClient: dbClient}, nil
}

func (s *service) List(ctx context.Context) ([]models.Topping, error) {
	rows, err := s.repo.List(ctx)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "list toppings")
	}
	return rows, nil
}

func (s *service) Create(ctx context.Context, input ToppingInput) (*models.Topping, error) {
	if err := validateInput(input); err != nil {
		return nil, err
	}
	topping := &models.Topping{IsAvailable: true}
	input.apply(topping)
	if err := s.repo.Create(ctx, topping); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "create topping")
	}
	return topping, nil
}

func (s *service) Update(ctx context.Context, id uuid.UUID, input ToppingInput) (*models.Topping, error) {
	if err := validateInput(input); err != nil {
		return nil, err
	}
	topping, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "load topping")
	}
	if topping == nil {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "topping not found")
	}
	input.apply(topping)
	if err := s.repo.Save(ctx, topping); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "update topping")
	}
	return topping, nil
}

func (s *service) Delete(ctx context.Context, id uuid.UUID) error {
	var deleted bool
	err := s.dbClient.WithTx(ctx, func(tx *gorm.DB) error {
		var err error
		deleted, err = s.repo.WithTx(tx).Delete(ctx, id)
		return err
	})
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "delete topping")
	}
	if !deleted {
		return pkgerrors.New(pkgerrors.CodeNotFound, "topping not found")
	}
	return nil
}

func (s *service) ListForProduct(ctx context.Context, productID uuid.UUID) ([]models.Topping, error) {
	rows, err := s.repo.ListForProduct(ctx, productID, false)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "list product toppings")
	}
	return rows, nil
}

func (s *service) LinkToProduct(ctx context.Context, productID, toppingID uuid.UUID) error {
	exists, err := s.repo.ProductExists(ctx, productID)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "load product")
	}
	if !exists {
		return pkgerrors.New(pkgerrors.CodeNotFound, "product not found")
	}
	topping, err := s.repo.FindByID(ctx, toppingID)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "load topping")
	}
	if topping == nil {
		return pkgerrors.New(pkgerrors.CodeNotFound, "topping not found")
	}
	if err := s.repo.Link(ctx, productID, toppingID); err != nil {
		if db.IsUniqueViolation(err, "") {
			return pkgerrors.New(pkgerrors.CodeConflict, "topping already linked to product")
		}
		return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "link topping")
	}
	return nil
}

func (s *service) UnlinkFromProduct(ctx context.Context, productID, toppingID uuid.UUID) error {
	removed, err := s.repo.Unlink(ctx, productID, toppingID)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "unlink topping")
	}
	if !removed {
		return pkgerrors.New(pkgerrors.CodeNotFound, "topping is not linked to product")
	}
	return nil
}

func validateInput(in ToppingInput) error {
	if strings.TrimSpace(in.Name) == "" {
		return pkgerrors.New(pkgerrors.CodeValidation, "name is required")
	}
	if in.Price < 0 {
		return pkgerrors.New(pkgerrors.CodeValidation, "price must not be negative")
	}
	return nil
}

func (in ToppingInput) apply(t *models.Topping) {
	t.Name = strings.TrimSpace(in.Name)
	t.Price = in.Price
	t.ImageURL = in.ImageURL
	if in.IsAvailable != nil {
		t.IsAvailable = *in.IsAvailable
	}
}

package checkout

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/brewbar/bubbletea-backend/internal/products"
	"github.com/brewbar/bubbletea-backend/internal/toppings"
	"github.com/brewbar/bubbletea-backend/pkg/db/models"
)

// RepositoryCatalog reads the catalog through the product and topping repositories.
type RepositoryCatalog struct {
	ProductRepo *products.Repository
	ToppingRepo toppings.Repository
}

func (c RepositoryCatalog) Products(ctx context.Context, tx *gorm.DB, ids []uuid.UUID) (map[uuid.UUID]models.Product, error) {
	return c.ProductRepo.WithTx(tx).FindByIDs(ctx, ids)
}

func (c RepositoryCatalog) Toppings(ctx context.Context, tx *gorm.DB, ids []uuid.UUID) (map[uuid.UUID]models.Topping, error) {
	return c.ToppingRepo.WithTx(tx).FindByIDs(ctx, ids)
}

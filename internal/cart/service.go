package cart

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/brewbar/bubbletea-backend/internal/pricing"
	"github.com/brewbar/bubbletea-backend/pkg/db/models"
	pkgerrors "github.com/brewbar/bubbletea-backend/pkg/errors"
)

const maxLineQuantity = 99

// AddItemInput is the add-to-cart body.
type AddItemInput struct {
	ProductID           uuid.UUID                `json:"productId" validate:"required"`
	Quantity            int                      `json:"quantity" validate:"required,min=1,max=99"`
	SelectedOptions     models.SelectedOptions   `json:"selectedOptions"`
	SelectedToppings    []models.SelectedTopping `json:"selectedToppings" validate:"omitempty,dive"`
	SpecialInstructions *string                  `json:"specialInstructions" validate:"omitempty,max=500"`
}

// LineView is a cart line priced against the current catalog.
type LineView struct {
	ID                  uuid.UUID              `json:"id"`
	Product             models.Product         `json:"product"`
	Quantity            int                    `json:"quantity"`
	SelectedOptions     models.SelectedOptions `json:"selectedOptions"`
	SpecialInstructions *string                `json:"specialInstructions,omitempty"`
	pricing.Line
}

// View is the whole priced cart.
type View struct {
	Items     []LineView `json:"items"`
	ItemCount int        `json:"itemCount"`
	Subtotal  int64      `json:"subtotal"`
}

// Service exposes cart operations for one user at a time.
type Service interface {
	View(ctx context.Context, userID uuid.UUID) (*View, error)
	AddItem(ctx context.Context, userID uuid.UUID, input AddItemInput) (*models.CartItem, error)
	UpdateQuantity(ctx context.Context, userID, itemID uuid.UUID, quantity int) error
	RemoveItem(ctx context.Context, userID, itemID uuid.UUID) error
	Clear(ctx context.Context, userID uuid.UUID) error
}

type service struct {
	repo     Repository
	tx       txRunner
	products ProductLoader
	toppings ToppingLoader
}

// NewService builds a cart service backed by the provided stack.
func NewService(repo Repository, tx txRunner, products ProductLoader, toppings ToppingLoader) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("cart repository required")
	}
	if tx == nil {
		return nil, fmt.Errorf("transaction runner required")
	}
	if products == nil {
		return nil, fmt.Errorf("product loader required")
	}
	if toppings == nil {
		return nil, fmt.Errorf("topping loader required")
	}
	return &service{repo: repo, tx: tx, products: products, toppings: toppings}, nil
}

// View prices every line. Lines whose product no longer exists are left in
// the table but omitted here; checkout reports them.
func (s *service) View(ctx context.Context, userID uuid.UUID) (*View, error) {
	items, err := s.repo.ListByUser(ctx, userID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "load cart")
	}
	productsByID, err := s.products.FindByIDs(ctx, ProductIDs(items))
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "load cart products")
	}
	toppingsByID, err := s.toppings.FindByIDs(ctx, ToppingIDs(items))
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "load cart toppings")
	}

	view := &View{Items: make([]LineView, 0, len(items))}
	for _, item := range items {
		product, ok := productsByID[item.ProductID]
		if !ok {
			continue
		}
		line := pricing.PriceLine(product, item.SelectedOptions, item.SelectedToppings, toppingsByID, item.Quantity)
		view.Items = append(view.Items, LineView{
			ID:                  item.ID,
			Product:             product,
			Quantity:            item.Quantity,
			SelectedOptions:     item.SelectedOptions,
			SpecialInstructions: item.SpecialInstructions,
			Line:                line,
		})
		view.ItemCount += item.Quantity
		view.Subtotal += line.TotalPrice
	}
	return view, nil
}

// AddItem merges into an identical line when one exists.
func (s *service) AddItem(ctx context.Context, userID uuid.UUID, input AddItemInput) (*models.CartItem, error) {
	if input.Quantity < 1 || input.Quantity > maxLineQuantity {
		return nil, pkgerrors.Newf(pkgerrors.CodeValidation, "quantity must be between 1 and %d", maxLineQuantity)
	}
	products, err := s.products.FindByIDs(ctx, []uuid.UUID{input.ProductID})
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "load product")
	}
	// Availability is checked at checkout; a sold-out drink may still sit in the cart.
	if _, ok := products[input.ProductID]; !ok {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "product not found")
	}

	toppings := NormalizeToppings(input.SelectedToppings)
	instructions := trimmed(input.SpecialInstructions)

	var result *models.CartItem
	err = s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		existing, err := repo.ListByUser(ctx, userID)
		if err != nil {
			return err
		}
		for _, item := range existing {
			if !sameLine(item, input.ProductID, input.SelectedOptions, toppings, instructions) {
				continue
			}
			qty := item.Quantity + input.Quantity
			if qty > maxLineQuantity {
				return pkgerrors.Newf(pkgerrors.CodeValidation, "quantity must be between 1 and %d", maxLineQuantity)
			}
			if err := repo.UpdateQuantity(ctx, item.ID, qty); err != nil {
				return err
			}
			item.Quantity = qty
			result = &item
			return nil
		}
		item := &models.CartItem{
			UserID:              userID,
			ProductID:           input.ProductID,
			Quantity:            input.Quantity,
			SelectedOptions:     input.SelectedOptions,
			SelectedToppings:    toppings,
			SpecialInstructions: instructions,
		}
		if err := repo.Create(ctx, item); err != nil {
			return err
		}
		result = item
		return nil
	})
	if pkgerrors.IsCode(err, pkgerrors.CodeValidation) {
		return nil, err
	}
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "add cart item")
	}
	return result, nil
}

// UpdateQuantity sets the line quantity; zero or less removes the line.
func (s *service) UpdateQuantity(ctx context.Context, userID, itemID uuid.UUID, quantity int) error {
	if quantity > maxLineQuantity {
		return pkgerrors.Newf(pkgerrors.CodeValidation, "quantity must be at most %d", maxLineQuantity)
	}
	if _, err := s.owned(ctx, userID, itemID); err != nil {
		return err
	}
	if quantity <= 0 {
		if err := s.repo.Delete(ctx, itemID); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "remove cart item")
		}
		return nil
	}
	if err := s.repo.UpdateQuantity(ctx, itemID, quantity); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "update cart item")
	}
	return nil
}

func (s *service) RemoveItem(ctx context.Context, userID, itemID uuid.UUID) error {
	if _, err := s.owned(ctx, userID, itemID); err != nil {
		return err
	}
	if err := s.repo.Delete(ctx, itemID); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "remove cart item")
	}
	return nil
}

func (s *service) Clear(ctx context.Context, userID uuid.UUID) error {
	if _, err := s.repo.DeleteByUser(ctx, userID); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "clear cart")
	}
	return nil
}

func (s *service) owned(ctx context.Context, userID, itemID uuid.UUID) (*models.CartItem, error) {
	item, err := s.repo.FindByID(ctx, itemID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "load cart item")
	}
	if item == nil {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "cart item not found")
	}
	if item.UserID != userID {
		return nil, pkgerrors.New(pkgerrors.CodeForbidden, "cart item belongs to another user")
	}
	return item, nil
}

func trimmed(s *string) *string {
	if s == nil {
		return nil
	}
	v := strings.TrimSpace(*s)
	if v == "" {
		return nil
	}
	return &v
}

package checkout

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/brewbar/bubbletea-backend/internal/address"
	"github.com/brewbar/bubbletea-backend/internal/cart"
	"github.com/brewbar/bubbletea-backend/internal/orders"
	"github.com/brewbar/bubbletea-backend/internal/pricing"
	"github.com/brewbar/bubbletea-backend/internal/promotions"
	"github.com/brewbar/bubbletea-backend/pkg/db/models"
	"github.com/brewbar/bubbletea-backend/pkg/enums"
	pkgerrors "github.com/brewbar/bubbletea-backend/pkg/errors"
	"github.com/brewbar/bubbletea-backend/pkg/logger"
	"github.com/brewbar/bubbletea-backend/pkg/metrics"
	"github.com/brewbar/bubbletea-backend/pkg/outbox"
	"github.com/brewbar/bubbletea-backend/pkg/outbox/payloads"
)

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

// catalog resolves products and toppings inside the checkout transaction.
type catalog interface {
	Products(ctx context.Context, tx *gorm.DB, ids []uuid.UUID) (map[uuid.UUID]models.Product, error)
	Toppings(ctx context.Context, tx *gorm.DB, ids []uuid.UUID) (map[uuid.UUID]models.Topping, error)
}

type promotionApplier interface {
	Apply(ctx context.Context, tx *gorm.DB, code string, userID *uuid.UUID, total, shippingFee int64, now time.Time) (promotions.Applied, error)
}

type addressLoader interface {
	Get(ctx context.Context, userID, id uuid.UUID) (*models.Address, error)
}

// Service turns a user's cart into an order.
type Service interface {
	PlaceOrder(ctx context.Context, userID uuid.UUID, input Input) (*Result, error)
}

// Input is the checkout body. Either AddressID or ShippingAddress must be set.
type Input struct {
	ShippingAddress string              `json:"shippingAddress" validate:"omitempty,max=500"`
	AddressID       *uuid.UUID          `json:"addressId"`
	PaymentMethod   enums.PaymentMethod `json:"paymentMethod" validate:"required"`
	PromotionCode   *string             `json:"promotionCode" validate:"omitempty,max=50"`
	Notes           *string             `json:"notes" validate:"omitempty,max=1000"`
	CustomerName    *string             `json:"customerName" validate:"omitempty,max=120"`
	CustomerPhone   *string             `json:"customerPhone" validate:"omitempty,max=20"`
}

// Result is the placed order plus whether the submitted code took effect.
type Result struct {
	Order            models.Order `json:"order"`
	PromotionApplied bool         `json:"promotionApplied"`
}

// Deps bundles the checkout collaborators.
type Deps struct {
	Tx         txRunner
	Cart       cart.Repository
	Orders     orders.Repository
	Catalog    catalog
	Promotions promotionApplier
	Addresses  addressLoader
	Outbox     outbox.Emitter
	Shipping   pricing.ShippingRule
	Metrics    *metrics.CheckoutMetrics
	Logger     *logger.Logger
}

type service struct {
	deps Deps
	now  func() time.Time
}

// NewService builds the checkout service.
func NewService(deps Deps) (Service, error) {
	switch {
	case deps.Tx == nil:
		return nil, fmt.Errorf("tx runner required")
	case deps.Cart == nil:
		return nil, fmt.Errorf("cart repository required")
	case deps.Orders == nil:
		return nil, fmt.Errorf("orders repository required")
	case deps.Catalog == nil:
		return nil, fmt.Errorf("catalog required")
	case deps.Promotions == nil:
		return nil, fmt.Errorf("promotions required")
	case deps.Addresses == nil:
		return nil, fmt.Errorf("address loader required")
	case deps.Outbox == nil:
		return nil, fmt.Errorf("outbox emitter required")
	}
	return &service{deps: deps, now: func() time.Time { return time.Now().UTC() }}, nil
}

// PlaceOrder prices the cart, applies shipping and at most one promotion, writes
// the order with frozen prices, clears the cart and emits order.created, all in
// one transaction.
func (s *service) PlaceOrder(ctx context.Context, userID uuid.UUID, input Input) (*Result, error) {
	// An empty cart is reported ahead of any address or payment problem.
	pending, err := s.deps.Cart.ListByUser(ctx, userID)
	if err != nil {
		s.deps.Metrics.IncOutcome(metrics.CheckoutFailed)
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "load cart")
	}
	if len(pending) == 0 {
		return nil, s.reject(errCartEmpty())
	}
	if !input.PaymentMethod.IsValid() {
		return nil, s.reject(pkgerrors.Newf(pkgerrors.CodeValidation, "unsupported payment method %q", input.PaymentMethod))
	}

	shipTo, name, phone, err := s.destination(ctx, userID, input)
	if err != nil {
		return nil, s.reject(pkgerrors.As(err))
	}

	var result *Result
	err = s.deps.Tx.WithTx(ctx, func(tx *gorm.DB) error {
		items, err := s.deps.Cart.WithTx(tx).ListByUser(ctx, userID)
		if err != nil {
			return err
		}
		if len(items) == 0 {
			return errCartEmpty()
		}

		products, err := s.deps.Catalog.Products(ctx, tx, cart.ProductIDs(items))
		if err != nil {
			return err
		}
		toppings, err := s.deps.Catalog.Toppings(ctx, tx, cart.ToppingIDs(items))
		if err != nil {
			return err
		}
		lines, total, err := buildLines(items, products, toppings)
		if err != nil {
			return err
		}

		now := s.now()
		fee := s.deps.Shipping.FeeFor(total)
		applied := promotions.Applied{}
		if input.PromotionCode != nil {
			applied, err = s.deps.Promotions.Apply(ctx, tx, *input.PromotionCode, &userID, total, fee, now)
			if err != nil {
				return err
			}
		}
		discount := applied.Discount
		if ceiling := total + fee; discount > ceiling {
			discount = ceiling
		}

		order := &models.Order{
			UserID:          &userID,
			CustomerName:    name,
			CustomerPhone:   phone,
			ShippingAddress: shipTo,
			TotalAmount:     total,
			ShippingFee:     fee,
			DiscountAmount:  discount,
			FinalAmount:     total + fee - discount,
			PaymentMethod:   input.PaymentMethod,
			PaymentStatus:   enums.PaymentStatusPending,
			OrderStatus:     enums.OrderStatusPending,
			PromotionID:     applied.PromotionID,
			Notes:           trimmed(input.Notes),
			Items:           lines,
		}
		if err := s.deps.Orders.WithTx(tx).Create(ctx, order); err != nil {
			return err
		}
		if _, err := s.deps.Cart.WithTx(tx).DeleteByUser(ctx, userID); err != nil {
			return err
		}

		itemCount := 0
		for _, line := range lines {
			itemCount += line.Quantity
		}
		err = s.deps.Outbox.Emit(ctx, tx, outbox.DomainEvent{
			EventType:     enums.EventOrderCreated,
			AggregateType: enums.AggregateOrder,
			AggregateID:   order.ID,
			Actor:         &outbox.ActorRef{UserID: userID},
			OccurredAt:    now,
			Data: payloads.OrderCreatedEvent{
				OrderID:        order.ID,
				UserID:         order.UserID,
				PromotionID:    order.PromotionID,
				PaymentMethod:  order.PaymentMethod,
				ItemCount:      itemCount,
				TotalAmount:    order.TotalAmount,
				ShippingFee:    order.ShippingFee,
				DiscountAmount: order.DiscountAmount,
				FinalAmount:    order.FinalAmount,
				CreatedAt:      now,
			},
		})
		if err != nil {
			return err
		}
		result = &Result{Order: *order, PromotionApplied: applied.Applied}
		return nil
	})
	if err != nil {
		if typed := pkgerrors.As(err); typed != nil {
			return nil, s.reject(typed)
		}
		s.deps.Metrics.IncOutcome(metrics.CheckoutFailed)
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "place order")
	}

	s.deps.Metrics.IncOutcome(metrics.CheckoutPlaced)
	s.deps.Metrics.AddRevenue(result.Order.FinalAmount)
	if s.deps.Logger != nil {
		logCtx := s.deps.Logger.WithOrderID(ctx, result.Order.ID.String())
		s.deps.Logger.Info(s.deps.Logger.WithFields(logCtx, map[string]any{
			"final_amount":      result.Order.FinalAmount,
			"promotion_applied": result.PromotionApplied,
		}), "order placed")
	}
	return result, nil
}

func (s *service) reject(err *pkgerrors.Error) error {
	if err == nil {
		s.deps.Metrics.IncOutcome(metrics.CheckoutFailed)
		return pkgerrors.New(pkgerrors.CodeInternal, "checkout failed")
	}
	if err.Code() == pkgerrors.CodeInternal || err.Code() == pkgerrors.CodeDependency {
		s.deps.Metrics.IncOutcome(metrics.CheckoutFailed)
	} else {
		s.deps.Metrics.IncOutcome(metrics.CheckoutRejected)
	}
	return err
}

// destination resolves where the order ships. A saved address also supplies
// the recipient when the body leaves it out.
func (s *service) destination(ctx context.Context, userID uuid.UUID, input Input) (string, *string, *string, error) {
	name, phone := trimmed(input.CustomerName), trimmed(input.CustomerPhone)
	if input.AddressID != nil {
		addr, err := s.deps.Addresses.Get(ctx, userID, *input.AddressID)
		if err != nil {
			return "", nil, nil, err
		}
		if name == nil {
			name = &addr.RecipientName
		}
		if phone == nil {
			phone = &addr.PhoneNumber
		}
		return address.Format(*addr), name, phone, nil
	}
	shipTo := strings.TrimSpace(input.ShippingAddress)
	if shipTo == "" {
		return "", nil, nil, pkgerrors.New(pkgerrors.CodeValidation, "shipping address is required")
	}
	return shipTo, name, phone, nil
}

// buildLines freezes every cart line into an order item. Any missing or
// unavailable product aborts the whole order.
func buildLines(items []models.CartItem, products map[uuid.UUID]models.Product, toppings map[uuid.UUID]models.Topping) ([]models.OrderItem, int64, error) {
	lines := make([]models.OrderItem, 0, len(items))
	var total int64
	for _, item := range items {
		product, ok := products[item.ProductID]
		if !ok {
			return nil, 0, pkgerrors.Newf(pkgerrors.CodeValidation, "product %s is no longer on the menu", item.ProductID).
				WithDetails(map[string]any{"productId": item.ProductID})
		}
		if !product.IsAvailable {
			return nil, 0, pkgerrors.Newf(pkgerrors.CodeValidation, "product %q is unavailable", product.Name).
				WithDetails(map[string]any{"productId": product.ID})
		}
		priced := pricing.PriceLine(product, item.SelectedOptions, item.SelectedToppings, toppings, item.Quantity)
		line := models.OrderItem{
			ProductID:           product.ID,
			Quantity:            item.Quantity,
			PriceAtPurchase:     priced.ItemPrice,
			SelectedOptions:     item.SelectedOptions,
			Subtotal:            priced.TotalPrice,
			SpecialInstructions: item.SpecialInstructions,
			Toppings:            make([]models.OrderItemTopping, 0, len(priced.Toppings)),
		}
		for _, t := range priced.Toppings {
			line.Toppings = append(line.Toppings, models.OrderItemTopping{
				ToppingID:       t.Topping.ID,
				Quantity:        t.Quantity,
				PriceAtPurchase: t.Topping.Price,
				Subtotal:        t.Subtotal,
			})
		}
		lines = append(lines, line)
		total += line.Subtotal
	}
	return lines, total, nil
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

func errCartEmpty() *pkgerrors.Error {
	return pkgerrors.New(pkgerrors.CodeValidation, "cart empty")
}

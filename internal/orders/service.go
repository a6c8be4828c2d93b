package orders

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/brewbar/bubbletea-backend/pkg/db/models"
	"github.com/brewbar/bubbletea-backend/pkg/enums"
	pkgerrors "github.com/brewbar/bubbletea-backend/pkg/errors"
	"github.com/brewbar/bubbletea-backend/pkg/logger"
	"github.com/brewbar/bubbletea-backend/pkg/outbox"
	"github.com/brewbar/bubbletea-backend/pkg/outbox/payloads"
	"github.com/brewbar/bubbletea-backend/pkg/pagination"
)

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

// Service exposes order history to customers and the status workflow to admins.
type Service interface {
	ListForUser(ctx context.Context, userID uuid.UUID) ([]OrderSummary, error)
	GetForUser(ctx context.Context, userID, orderID uuid.UUID) (*OrderDetail, error)
	AdminList(ctx context.Context, filter AdminFilter) (pagination.Page[AdminOrderRow], error)
	UpdateStatus(ctx context.Context, orderID uuid.UUID, to enums.OrderStatus, actor *outbox.ActorRef) (*models.Order, error)
}

type service struct {
	repo   Repository
	tx     txRunner
	outbox outbox.Emitter
	policy StatusPolicy
	logg   *logger.Logger
	now    func() time.Time
}

// NewService builds the orders service.
func NewService(repo Repository, tx txRunner, emitter outbox.Emitter, policy StatusPolicy, logg *logger.Logger) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("orders repository required")
	}
	if tx == nil {
		return nil, fmt.Errorf("tx runner required")
	}
	if emitter == nil {
		return nil, fmt.Errorf("outbox emitter required")
	}
	return &service{
		repo:   repo,
		tx:     tx,
		outbox: emitter,
		policy: policy,
		logg:   logg,
		now:    func() time.Time { return time.Now().UTC() },
	}, nil
}

func (s *service) ListForUser(ctx context.Context, userID uuid.UUID) ([]OrderSummary, error) {
	rows, err := s.repo.ListByUser(ctx, userID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "list orders")
	}
	if rows == nil {
		rows = []OrderSummary{}
	}
	return rows, nil
}

// GetForUser hides orders of other users behind not found.
func (s *service) GetForUser(ctx context.Context, userID, orderID uuid.UUID) (*OrderDetail, error) {
	order, err := s.repo.FindByID(ctx, orderID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "load order")
	}
	if order == nil || order.UserID == nil || *order.UserID != userID {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "order not found")
	}
	products, err := s.repo.ProductNames(ctx, orderProductIDs(*order))
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "load order products")
	}
	toppings, err := s.repo.ToppingNames(ctx, orderToppingIDs(*order))
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "load order toppings")
	}

	detail := &OrderDetail{Order: *order, Items: make([]ItemDetail, 0, len(order.Items))}
	for _, item := range order.Items {
		ref, ok := products[item.ProductID]
		if !ok {
			ref = ProductRef{Name: UnknownProductName}
		}
		line := ItemDetail{
			OrderItem:    item,
			ProductName:  ref.Name,
			ProductImage: ref.ImageURL,
			Toppings:     make([]ToppingDetail, 0, len(item.Toppings)),
		}
		for _, t := range item.Toppings {
			line.Toppings = append(line.Toppings, ToppingDetail{OrderItemTopping: t, Name: toppings[t.ToppingID]})
		}
		detail.Items = append(detail.Items, line)
	}
	return detail, nil
}

func (s *service) AdminList(ctx context.Context, filter AdminFilter) (pagination.Page[AdminOrderRow], error) {
	if filter.Status != nil && !filter.Status.IsValid() {
		return pagination.Page[AdminOrderRow]{}, pkgerrors.Newf(pkgerrors.CodeValidation, "invalid order status %q", *filter.Status)
	}
	if _, err := pagination.ParseCursor(filter.Cursor); err != nil {
		return pagination.Page[AdminOrderRow]{}, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid cursor")
	}
	rows, err := s.repo.ListAdmin(ctx, filter)
	if err != nil {
		return pagination.Page[AdminOrderRow]{}, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "list orders")
	}
	return pagination.Trim(rows, filter.Limit, func(r AdminOrderRow) pagination.Cursor {
		return pagination.Cursor{CreatedAt: r.CreatedAt, ID: r.ID}
	}), nil
}

// UpdateStatus applies the policy, records the change and emits
// order.status_changed in the same transaction. A cash-on-delivery order is
// paid exactly while it is delivered.
func (s *service) UpdateStatus(ctx context.Context, orderID uuid.UUID, to enums.OrderStatus, actor *outbox.ActorRef) (*models.Order, error) {
	if !to.IsValid() {
		return nil, pkgerrors.Newf(pkgerrors.CodeValidation, "invalid order status %q", to)
	}
	var updated *models.Order
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		order, err := repo.FindByIDForUpdate(ctx, orderID)
		if err != nil {
			return err
		}
		if order == nil {
			return pkgerrors.New(pkgerrors.CodeNotFound, "order not found")
		}
		from := order.OrderStatus
		if err := s.policy.Check(from, to); err != nil {
			return err
		}
		payment := paymentAfter(order, to)
		if err := repo.UpdateStatus(ctx, order.ID, to, payment); err != nil {
			return err
		}
		now := s.now()
		order.OrderStatus = to
		order.PaymentStatus = payment
		order.UpdatedAt = now

		updated = order
		return s.outbox.Emit(ctx, tx, outbox.DomainEvent{
			EventType:     enums.EventOrderStatusChanged,
			AggregateType: enums.AggregateOrder,
			AggregateID:   order.ID,
			Actor:         actor,
			OccurredAt:    now,
			Data: payloads.OrderStatusChangedEvent{
				OrderID:       order.ID,
				From:          from,
				To:            to,
				PaymentStatus: payment,
				FinalAmount:   order.FinalAmount,
				ChangedAt:     now,
			},
		})
	})
	if err != nil {
		if typed := pkgerrors.As(err); typed != nil {
			return nil, typed
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "update order status")
	}
	if s.logg != nil {
		logCtx := s.logg.WithOrderID(ctx, orderID.String())
		s.logg.Info(s.logg.WithField(logCtx, "status", string(to)), "order status updated")
	}
	return updated, nil
}

func paymentAfter(order *models.Order, to enums.OrderStatus) enums.PaymentStatus {
	if order.PaymentMethod != enums.PaymentMethodCOD {
		return order.PaymentStatus
	}
	switch {
	case to == enums.OrderStatusDelivered:
		return enums.PaymentStatusPaid
	case order.OrderStatus == enums.OrderStatusDelivered || to == enums.OrderStatusCancelled:
		return enums.PaymentStatusPending
	}
	return order.PaymentStatus
}

package router

import (
	"context"
	"fmt"

	"github.com/brewbar/bubbletea-backend/internal/analytics/types"
	analyticswriter "github.com/brewbar/bubbletea-backend/internal/analytics/writer"
	"github.com/brewbar/bubbletea-backend/pkg/logger"
	outboxpayloads "github.com/brewbar/bubbletea-backend/pkg/outbox/payloads"
)

type orderCreatedHandler struct {
	writer Writer
	logg   *logger.Logger
}

func newOrderCreatedHandler(writer Writer, logg *logger.Logger) Handler {
	return &orderCreatedHandler{writer: writer, logg: logg}
}

func (h *orderCreatedHandler) Handle(ctx context.Context, envelope types.Envelope, payload any) error {
	event, ok := payload.(*outboxpayloads.OrderCreatedEvent)
	if !ok {
		return fmt.Errorf("invalid payload for %s", envelope.EventType)
	}
	logCtx := h.logg.WithOrderID(ctx, event.OrderID.String())

	row, err := buildOrderFactRow(envelope, event)
	if err != nil {
		h.logg.Error(logCtx, "failed to build order fact row", err)
		return err
	}
	if err := h.writer.InsertOrderFact(logCtx, row); err != nil {
		h.logg.Error(logCtx, "failed to insert order fact row", err)
		return err
	}
	h.logg.Info(logCtx, "order fact inserted")
	return nil
}

func buildOrderFactRow(envelope types.Envelope, event *outboxpayloads.OrderCreatedEvent) (types.OrderFactRow, error) {
	payloadJSON, err := analyticswriter.EncodeJSON(event)
	if err != nil {
		return types.OrderFactRow{}, fmt.Errorf("encode payload json: %w", err)
	}
	row := types.OrderFactRow{
		EventID:        envelope.EventID,
		OccurredAt:     envelope.OccurredAt,
		OrderID:        event.OrderID.String(),
		PaymentMethod:  string(event.PaymentMethod),
		ItemCount:      int64(event.ItemCount),
		TotalAmount:    event.TotalAmount,
		ShippingFee:    event.ShippingFee,
		DiscountAmount: event.DiscountAmount,
		FinalAmount:    event.FinalAmount,
		Payload:        payloadJSON,
	}
	if event.UserID != nil {
		id := event.UserID.String()
		row.UserID = &id
	}
	if event.PromotionID != nil {
		id := event.PromotionID.String()
		row.PromotionID = &id
	}
	return row, nil
}

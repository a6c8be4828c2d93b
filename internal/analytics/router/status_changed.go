package router

import (
	"context"
	"fmt"

	"github.com/brewbar/bubbletea-backend/internal/analytics/types"
	"github.com/brewbar/bubbletea-backend/pkg/enums"
	"github.com/brewbar/bubbletea-backend/pkg/logger"
	outboxpayloads "github.com/brewbar/bubbletea-backend/pkg/outbox/payloads"
)

type statusChangedHandler struct {
	writer Writer
	logg   *logger.Logger
}

func newStatusChangedHandler(writer Writer, logg *logger.Logger) Handler {
	return &statusChangedHandler{writer: writer, logg: logg}
}

func (h *statusChangedHandler) Handle(ctx context.Context, envelope types.Envelope, payload any) error {
	event, ok := payload.(*outboxpayloads.OrderStatusChangedEvent)
	if !ok {
		return fmt.Errorf("invalid payload for %s", envelope.EventType)
	}
	logCtx := h.logg.WithFields(h.logg.WithOrderID(ctx, event.OrderID.String()), map[string]any{
		"from": event.From,
		"to":   event.To,
	})

	row := types.OrderStatusFactRow{
		EventID:       envelope.EventID,
		OccurredAt:    envelope.OccurredAt,
		OrderID:       event.OrderID.String(),
		FromStatus:    string(event.From),
		ToStatus:      string(event.To),
		PaymentStatus: string(event.PaymentStatus),
		FinalAmount:   event.FinalAmount,
		Completed:     event.To == enums.OrderStatusDelivered || event.PaymentStatus == enums.PaymentStatusPaid,
	}
	if err := h.writer.InsertStatusFact(logCtx, row); err != nil {
		h.logg.Error(logCtx, "failed to insert status fact row", err)
		return err
	}
	h.logg.Info(logCtx, "status fact inserted")
	return nil
}

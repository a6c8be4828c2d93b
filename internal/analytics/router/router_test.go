package router

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"testing"
	"time"

	"github.com/brewbar/bubbletea-backend/internal/analytics/types"
	"github.com/brewbar/bubbletea-backend/pkg/enums"
	"github.com/brewbar/bubbletea-backend/pkg/logger"
	"github.com/brewbar/bubbletea-backend/pkg/outbox/payloads"
	"github.com/google/uuid"
)

func TestRouterUnsupportedEvent(t *testing.T) {
	router, _ := newTestRouter(t, nil)
	env := types.Envelope{
		EventType: enums.OutboxEventType("unsupported"),
		Payload:   []byte(`{"foo":"bar"}`),
	}
	err := router.Handle(context.Background(), env)
	if !errors.Is(err, ErrUnsupportedEventType) {
		t.Fatalf("expected unsupported error, got %v", err)
	}
}

func TestRouterRoutesToOverride(t *testing.T) {
	handler := &stubHandler{}
	router, _ := newTestRouter(t, map[enums.OutboxEventType]Handler{
		enums.EventOrderCreated: handler,
	})
	data, _ := json.Marshal(payloads.OrderCreatedEvent{OrderID: uuid.New()})
	env := types.Envelope{EventType: enums.EventOrderCreated, Payload: data}
	if err := router.Handle(context.Background(), env); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !handler.called {
		t.Fatalf("handler not invoked")
	}
}

func TestOrderCreatedWritesFact(t *testing.T) {
	router, writer := newTestRouter(t, nil)
	userID := uuid.New()
	event := payloads.OrderCreatedEvent{
		OrderID:        uuid.New(),
		UserID:         &userID,
		PaymentMethod:  enums.PaymentMethodMomo,
		ItemCount:      3,
		TotalAmount:    50000,
		ShippingFee:    25000,
		DiscountAmount: 5000,
		FinalAmount:    70000,
	}
	data, _ := json.Marshal(event)
	occurred := time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)

	err := router.Handle(context.Background(), types.Envelope{EventID: "evt-1", EventType: enums.EventOrderCreated, OccurredAt: occurred, Payload: data})
	if err != nil {
		t.Fatalf("handle: %v", err)
	}
	if len(writer.orders) != 1 {
		t.Fatalf("expected one order fact, got %d", len(writer.orders))
	}
	row := writer.orders[0]
	if row.EventID != "evt-1" || row.OrderID != event.OrderID.String() || row.FinalAmount != 70000 {
		t.Fatalf("unexpected row %+v", row)
	}
	if row.UserID == nil || *row.UserID != userID.String() || row.PromotionID != nil {
		t.Fatalf("unexpected ids %+v", row)
	}
	if !row.Payload.Valid {
		t.Fatal("expected payload json")
	}
}

func TestStatusChangedMarksCompletion(t *testing.T) {
	router, writer := newTestRouter(t, nil)
	cases := []struct {
		to        enums.OrderStatus
		payment   enums.PaymentStatus
		completed bool
	}{
		{enums.OrderStatusDelivered, enums.PaymentStatusPending, true},
		{enums.OrderStatusConfirmed, enums.PaymentStatusPaid, true},
		{enums.OrderStatusCancelled, enums.PaymentStatusPending, false},
	}
	for _, tc := range cases {
		data, _ := json.Marshal(payloads.OrderStatusChangedEvent{OrderID: uuid.New(), From: enums.OrderStatusPending, To: tc.to, PaymentStatus: tc.payment})
		if err := router.Handle(context.Background(), types.Envelope{EventType: enums.EventOrderStatusChanged, Payload: data}); err != nil {
			t.Fatalf("handle: %v", err)
		}
	}
	if len(writer.statuses) != len(cases) {
		t.Fatalf("expected %d status facts, got %d", len(cases), len(writer.statuses))
	}
	for i, tc := range cases {
		if writer.statuses[i].Completed != tc.completed {
			t.Fatalf("case %d: expected completed=%v", i, tc.completed)
		}
	}
}

func TestRouterRejectsEmptyPayload(t *testing.T) {
	router, _ := newTestRouter(t, nil)
	if err := router.Handle(context.Background(), types.Envelope{EventType: enums.EventOrderCreated}); err == nil {
		t.Fatal("expected empty payload error")
	}
}

func newTestRouter(t *testing.T, overrides map[enums.OutboxEventType]Handler) (*Router, *fakeWriter) {
	t.Helper()
	writer := &fakeWriter{}
	router, err := NewRouter(writer, logger.New(logger.Options{ServiceName: "router-test", Output: io.Discard}), overrides)
	if err != nil {
		t.Fatalf("construct router: %v", err)
	}
	return router, writer
}

type stubHandler struct {
	called bool
}

func (s *stubHandler) Handle(ctx context.Context, envelope types.Envelope, payload any) error {
	s.called = true
	return nil
}

package worker

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	gcppubsub "cloud.google.com/go/pubsub/v2"
	"github.com/google/uuid"

	"github.com/brewbar/bubbletea-backend/internal/analytics/router"
	"github.com/brewbar/bubbletea-backend/internal/analytics/types"
	"github.com/brewbar/bubbletea-backend/pkg/enums"
	"github.com/brewbar/bubbletea-backend/pkg/logger"
	"github.com/brewbar/bubbletea-backend/pkg/outbox"
)

const consumerName = "analytics-worker"

// Handler records one order event.
type Handler interface {
	Handle(ctx context.Context, envelope types.Envelope) error
}

type HandlerFunc func(ctx context.Context, envelope types.Envelope) error

func (fn HandlerFunc) Handle(ctx context.Context, envelope types.Envelope) error {
	if fn == nil {
		return nil
	}
	return fn(ctx, envelope)
}

type receiver interface {
	Receive(ctx context.Context, f func(context.Context, *gcppubsub.Message)) error
}

// dedupe claims an event id for this consumer; a released claim lets a
// redelivery through again.
type dedupe interface {
	CheckAndMarkProcessed(ctx context.Context, consumer, eventID string) (bool, error)
	Release(ctx context.Context, consumer, eventID string) error
}

// Consumer feeds the orders subscription into the analytics tables. Messages
// for one order arrive in sequence, so a redelivery holds back that order's
// later events until it succeeds.
type Consumer struct {
	sub     receiver
	handler Handler
	seen    dedupe
	logg    *logger.Logger
}

func NewConsumer(sub receiver, handler Handler, seen dedupe, logg *logger.Logger) (*Consumer, error) {
	switch {
	case sub == nil:
		return nil, errors.New("orders subscription is required")
	case handler == nil:
		return nil, errors.New("analytics handler is required")
	case seen == nil:
		return nil, errors.New("idempotency manager is required")
	case logg == nil:
		return nil, errors.New("logger is required")
	}
	return &Consumer{sub: sub, handler: handler, seen: seen, logg: logg}, nil
}

// Run blocks until ctx is canceled or the subscription fails.
func (c *Consumer) Run(ctx context.Context) error {
	return c.sub.Receive(ctx, func(ctx context.Context, msg *gcppubsub.Message) {
		if c.consume(ctx, msg) {
			msg.Ack()
			return
		}
		msg.Nack()
	})
}

// consume reports whether msg should be acked. Malformed messages are acked
// and logged since redelivery cannot fix them.
func (c *Consumer) consume(ctx context.Context, msg *gcppubsub.Message) bool {
	ctx = c.logg.WithField(ctx, "message_id", msg.ID)

	event, err := decodeOrderEvent(msg)
	if err != nil {
		c.logg.Warn(c.logg.WithField(ctx, "error", err.Error()), "dropping malformed order event")
		return true
	}
	ctx = c.logg.WithFields(ctx, map[string]any{
		"event_id":    event.EventID,
		"event_type":  event.EventType,
		"order_id":    event.AggregateID,
		"occurred_at": event.OccurredAt.Format(time.RFC3339Nano),
	})

	if _, err := uuid.Parse(event.EventID); err != nil {
		c.logg.Warn(ctx, "dropping order event with invalid event id")
		return true
	}
	eventID := event.EventID

	replay, err := c.seen.CheckAndMarkProcessed(ctx, consumerName, eventID)
	if err != nil {
		c.logg.Error(ctx, "idempotency check failed", err)
		return false
	}
	if replay {
		c.logg.Info(ctx, "order event already recorded")
		return true
	}

	if err := c.handler.Handle(ctx, *event); err != nil {
		if errors.Is(err, router.ErrUnsupportedEventType) {
			c.logg.Warn(ctx, "no analytics handler for order event")
			return true
		}
		c.logg.Error(ctx, "recording order event failed", err)
		if err := c.seen.Release(ctx, consumerName, eventID); err != nil {
			c.logg.Error(ctx, "releasing idempotency claim failed", err)
		}
		return false
	}

	c.logg.Info(ctx, "order event recorded")
	return true
}

// decodeOrderEvent reads the stored outbox envelope from the message body and
// routing data from its attributes. Only order aggregates are accepted.
func decodeOrderEvent(msg *gcppubsub.Message) (*types.Envelope, error) {
	var stored outbox.PayloadEnvelope
	if err := json.Unmarshal(msg.Data, &stored); err != nil {
		return nil, fmt.Errorf("decode payload envelope: %w", err)
	}
	attr := func(key string) string { return strings.TrimSpace(msg.Attributes[key]) }

	eventType, err := enums.ParseOutboxEventType(attr("event_type"))
	if err != nil {
		return nil, fmt.Errorf("event_type: %w", err)
	}
	aggregateType, err := enums.ParseOutboxAggregateType(attr("aggregate_type"))
	if err != nil {
		return nil, fmt.Errorf("aggregate_type: %w", err)
	}
	if aggregateType != enums.AggregateOrder {
		return nil, fmt.Errorf("aggregate_type %q is not an order", aggregateType)
	}

	orderID := attr("aggregate_id")
	if _, err := uuid.Parse(orderID); err != nil {
		return nil, fmt.Errorf("aggregate_id %q is not an order id", orderID)
	}
	if key := strings.TrimSpace(msg.OrderingKey); key != "" && key != orderID {
		return nil, fmt.Errorf("ordering key %q does not match order %s", key, orderID)
	}

	occurredAt := stored.OccurredAt
	if occurredAt.IsZero() {
		if parsed, err := time.Parse(time.RFC3339Nano, attr("created_at")); err == nil {
			occurredAt = parsed
		}
	}

	eventID := strings.TrimSpace(stored.EventID)
	if eventID == "" {
		eventID = attr("event_id")
	}
	if eventID == "" {
		return nil, errors.New("event_id missing")
	}

	return &types.Envelope{
		EventID:       eventID,
		EventType:     eventType,
		AggregateType: aggregateType,
		AggregateID:   orderID,
		OccurredAt:    occurredAt.UTC(),
		Payload:       stored.Data,
	}, nil
}

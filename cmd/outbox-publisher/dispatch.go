package main

import (
	"context"
	"errors"
	"fmt"
	"time"

	gcppubsub "cloud.google.com/go/pubsub/v2"
	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/brewbar/bubbletea-backend/pkg/db/models"
	"github.com/brewbar/bubbletea-backend/pkg/enums"
	"github.com/brewbar/bubbletea-backend/pkg/outbox/payloads"
	"github.com/brewbar/bubbletea-backend/pkg/outbox/registry"
)

type outcome int

const (
	published outcome = iota
	retrying
	deadLettered
)

// drain handles one locked batch. Once an order has an event waiting for a
// retry, its later events in the batch wait too, so a subscriber never sees a
// status change ahead of the order it belongs to.
func (r *Relay) drain(ctx context.Context) (bool, error) {
	started := time.Now()
	progressed := false
	fetched := false
	err := r.db.WithTx(ctx, func(tx *gorm.DB) error {
		rows, err := r.events.FetchUnpublishedForPublish(tx, r.batchSize, r.maxAttempts)
		if err != nil {
			return err
		}
		fetched = len(rows) > 0

		blocked := make(map[uuid.UUID]struct{})
		for _, row := range rows {
			if _, wait := blocked[row.AggregateID]; wait {
				r.metrics.IncHeldBack(string(row.EventType))
				continue
			}
			result, err := r.dispatch(ctx, tx, row)
			if err != nil {
				return err
			}
			if result == retrying {
				blocked[row.AggregateID] = struct{}{}
				continue
			}
			progressed = true
		}
		return nil
	})
	if fetched {
		r.metrics.ObserveBatch(time.Since(started))
	}
	return progressed, err
}

func (r *Relay) dispatch(ctx context.Context, tx *gorm.DB, row models.OutboxEvent) (outcome, error) {
	resolved, err := r.resolver.Resolve(row)
	if err != nil {
		return deadLettered, r.deadLetter(ctx, tx, row, enums.DLQReasonNonRetryable, err)
	}

	topic := resolved.Descriptor.Topic
	ctx = r.logg.WithFields(ctx, map[string]any{
		"outbox_id":     row.ID.String(),
		"event_id":      resolved.Envelope.EventID,
		"event_type":    row.EventType,
		"order_id":      row.AggregateID.String(),
		"topic":         topic,
		"attempt_count": row.AttemptCount,
	})

	sendCtx, cancel := context.WithTimeout(ctx, sendTimeout)
	err = r.sender.Send(sendCtx, topic, orderMessage(row, resolved))
	cancel()

	var nonRetry registry.NonRetryableError
	switch {
	case err == nil:
		if err := r.events.MarkPublishedTx(tx, row.ID); err != nil {
			return published, fmt.Errorf("mark published %s: %w", row.ID, err)
		}
		r.metrics.IncPublished(string(row.EventType))
		r.logg.Info(ctx, "order event published")
		return published, nil
	case errors.As(err, &nonRetry):
		return deadLettered, r.deadLetter(ctx, tx, row, enums.DLQReasonNonRetryable, err)
	case row.AttemptCount+1 >= r.maxAttempts:
		return deadLettered, r.deadLetter(ctx, tx, row, enums.DLQReasonMaxAttempts, fmt.Errorf("max publish attempts reached: %w", err))
	}

	r.logg.Warn(r.logg.WithField(ctx, "error", err.Error()), "order event publish failed, will retry")
	r.metrics.IncFailed(string(row.EventType))
	if err := r.events.MarkFailedTx(tx, row.ID, err); err != nil {
		return retrying, fmt.Errorf("mark failure %s: %w", row.ID, err)
	}
	return retrying, nil
}

func (r *Relay) deadLetter(ctx context.Context, tx *gorm.DB, row models.OutboxEvent, reason enums.OutboxDLQErrorReason, cause error) error {
	r.logg.Warn(r.logg.WithFields(ctx, map[string]any{
		"outbox_id":    row.ID.String(),
		"event_type":   row.EventType,
		"order_id":     row.AggregateID.String(),
		"error_reason": reason,
		"error":        cause.Error(),
	}), "order event dead-lettered")

	msg := cause.Error()
	entry := models.OutboxDLQ{
		EventID:       row.ID,
		EventType:     row.EventType,
		AggregateType: row.AggregateType,
		AggregateID:   row.AggregateID,
		Payload:       row.Payload,
		ErrorReason:   reason,
		ErrorMessage:  &msg,
		AttemptCount:  row.AttemptCount,
		FailedAt:      time.Now().UTC(),
	}
	if err := r.dlq.InsertTx(tx, entry); err != nil {
		return fmt.Errorf("insert dlq %s: %w", row.ID, err)
	}
	if err := r.events.MarkTerminalTx(tx, row.ID, cause, r.maxAttempts); err != nil {
		return fmt.Errorf("mark terminal %s: %w", row.ID, err)
	}
	r.metrics.IncDeadLettered(string(row.EventType))
	return nil
}

// orderMessage keys every message by order id so Pub/Sub keeps one order's
// events in sequence. Status and payment ride along as attributes for
// subscription filters.
func orderMessage(row models.OutboxEvent, resolved *registry.ResolvedEvent) *gcppubsub.Message {
	attrs := map[string]string{
		"event_id":       resolved.Envelope.EventID,
		"event_type":     string(row.EventType),
		"aggregate_type": string(row.AggregateType),
		"aggregate_id":   row.AggregateID.String(),
		"created_at":     row.CreatedAt.Format(time.RFC3339Nano),
	}
	switch p := resolved.Payload.(type) {
	case *payloads.OrderCreatedEvent:
		attrs["order_status"] = string(enums.OrderStatusPending)
		attrs["payment_method"] = string(p.PaymentMethod)
	case *payloads.OrderStatusChangedEvent:
		attrs["order_status"] = string(p.To)
		attrs["payment_status"] = string(p.PaymentStatus)
	}
	return &gcppubsub.Message{
		Data:        row.Payload,
		Attributes:  attrs,
		OrderingKey: row.AggregateID.String(),
	}
}

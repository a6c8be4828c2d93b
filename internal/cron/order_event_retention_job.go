package cron

import (
	"context"
	"fmt"
	"time"

	"github.com/brewbar/bubbletea-backend/pkg/enums"
	"github.com/brewbar/bubbletea-backend/pkg/logger"
	"gorm.io/gorm"
)

const (
	orderEventRetentionDays = 30
	orderEventMinAttempts   = 10
)

// orderEventTypes are swept in the order the relay emits them.
var orderEventTypes = []enums.OutboxEventType{
	enums.EventOrderCreated,
	enums.EventOrderStatusChanged,
}

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

type orderEventStore interface {
	DeleteSettledOrderEvents(ctx context.Context, tx *gorm.DB, eventType enums.OutboxEventType, cutoff time.Time, minAttemptCount int) (int64, error)
}

type OrderEventRetentionJobParams struct {
	Logger *logger.Logger
	DB     txRunner
	Events orderEventStore
	// Retention is in days.
	Retention int
	// MinAttempts matches the relay's terminal attempt count.
	MinAttempts int
}

func NewOrderEventRetentionJob(params OrderEventRetentionJobParams) (Job, error) {
	switch {
	case params.Logger == nil:
		return nil, fmt.Errorf("logger required")
	case params.DB == nil:
		return nil, fmt.Errorf("db runner required")
	case params.Events == nil:
		return nil, fmt.Errorf("order event store required")
	}
	retention := params.Retention
	if retention <= 0 {
		retention = orderEventRetentionDays
	}
	minAttempts := params.MinAttempts
	if minAttempts <= 0 {
		minAttempts = orderEventMinAttempts
	}
	return &orderEventRetentionJob{
		logg:        params.Logger,
		db:          params.DB,
		events:      params.Events,
		retention:   retention,
		minAttempts: minAttempts,
		now:         time.Now,
	}, nil
}

type orderEventRetentionJob struct {
	logg        *logger.Logger
	db          txRunner
	events      orderEventStore
	retention   int
	minAttempts int
	now         func() time.Time
}

func (j *orderEventRetentionJob) Name() string { return "order-event-retention" }

func (j *orderEventRetentionJob) Run(ctx context.Context) error {
	cutoff := j.now().UTC().Add(-time.Duration(j.retention) * 24 * time.Hour)
	deleted := make(map[string]any, len(orderEventTypes))
	var total int64
	err := j.db.WithTx(ctx, func(tx *gorm.DB) error {
		for _, eventType := range orderEventTypes {
			rows, err := j.events.DeleteSettledOrderEvents(ctx, tx, eventType, cutoff, j.minAttempts)
			if err != nil {
				return fmt.Errorf("%s: %w", eventType, err)
			}
			deleted[string(eventType)] = rows
			total += rows
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("order event retention: %w", err)
	}
	logCtx := j.logg.WithFields(ctx, map[string]any{
		"cutoff":          cutoff,
		"retention_days":  j.retention,
		"min_attempts":    j.minAttempts,
		"rows_deleted":    total,
		"deleted_by_type": deleted,
	})
	j.logg.Info(logCtx, "order event retention complete")
	return nil
}

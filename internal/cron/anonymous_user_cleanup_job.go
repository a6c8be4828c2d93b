package cron

import (
	"context"
	"fmt"
	"time"

	"github.com/brewbar/bubbletea-backend/pkg/logger"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

const (
	anonymousRetentionDays = 30
	anonymousBatch         = 500
)

type AnonymousUserCleanupJobParams struct {
	Logger        *logger.Logger
	DB            txRunner
	Users         anonymousUserRepo
	RetentionDays int
}

type anonymousUserRepo interface {
	ListStaleAnonymousIDs(ctx context.Context, cutoff time.Time, limit int) ([]uuid.UUID, error)
	DeleteTx(ctx context.Context, tx *gorm.DB, id uuid.UUID) error
}

// NewAnonymousUserCleanupJob removes idle guest accounts that never placed an order,
// along with their carts, wishlists and addresses.
func NewAnonymousUserCleanupJob(params AnonymousUserCleanupJobParams) (Job, error) {
	if params.Logger == nil {
		return nil, fmt.Errorf("logger required")
	}
	if params.DB == nil {
		return nil, fmt.Errorf("db runner required")
	}
	if params.Users == nil {
		return nil, fmt.Errorf("users repository required")
	}
	retention := params.RetentionDays
	if retention <= 0 {
		retention = anonymousRetentionDays
	}
	return &anonymousUserCleanupJob{
		logg:      params.Logger,
		db:        params.DB,
		users:     params.Users,
		retention: retention,
		now:       time.Now,
	}, nil
}

type anonymousUserCleanupJob struct {
	logg      *logger.Logger
	db        txRunner
	users     anonymousUserRepo
	retention int
	now       func() time.Time
}

func (j *anonymousUserCleanupJob) Name() string { return "anonymous-user-cleanup" }

func (j *anonymousUserCleanupJob) Run(ctx context.Context) error {
	cutoff := j.now().UTC().Add(-time.Duration(j.retention) * 24 * time.Hour)
	ids, err := j.users.ListStaleAnonymousIDs(ctx, cutoff, anonymousBatch)
	if err != nil {
		return fmt.Errorf("query anonymous users: %w", err)
	}
	err = j.db.WithTx(ctx, func(tx *gorm.DB) error {
		for _, id := range ids {
			if err := j.users.DeleteTx(ctx, tx, id); err != nil {
				return fmt.Errorf("delete user %s: %w", id, err)
			}
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("anonymous user cleanup: %w", err)
	}
	logCtx := j.logg.WithFields(ctx, map[string]any{
		"cutoff":         cutoff,
		"retention_days": j.retention,
		"users_deleted":  len(ids),
	})
	j.logg.Info(logCtx, "anonymous user cleanup complete")
	return nil
}

package cron

import (
	"context"
	"fmt"
	"time"

	"github.com/brewbar/bubbletea-backend/pkg/db/models"
	"github.com/brewbar/bubbletea-backend/pkg/logger"
	"github.com/google/uuid"
)

const (
	pendingMediaGraceHours = 24
	pendingMediaLookback   = 7 * 24 * time.Hour
	pendingMediaBatch      = 200
)

type PendingMediaCleanupJobParams struct {
	Logger     *logger.Logger
	MediaRepo  pendingMediaRepo
	Store      objectChecker
	Bucket     string
	GraceHours int
}

type pendingMediaRepo interface {
	ListCreatedBetween(ctx context.Context, from, to time.Time, limit int) ([]models.Media, error)
	Delete(ctx context.Context, id uuid.UUID) error
}

type objectChecker interface {
	ObjectExists(ctx context.Context, bucket, object string) (bool, error)
}

// NewPendingMediaCleanupJob drops media rows whose signed upload was never used.
func NewPendingMediaCleanupJob(params PendingMediaCleanupJobParams) (Job, error) {
	if params.Logger == nil {
		return nil, fmt.Errorf("logger required")
	}
	if params.MediaRepo == nil {
		return nil, fmt.Errorf("media repository required")
	}
	if params.Store == nil {
		return nil, fmt.Errorf("object store required")
	}
	if params.Bucket == "" {
		return nil, fmt.Errorf("bucket required")
	}
	grace := params.GraceHours
	if grace <= 0 {
		grace = pendingMediaGraceHours
	}
	return &pendingMediaCleanupJob{
		logg:   params.Logger,
		repo:   params.MediaRepo,
		store:  params.Store,
		bucket: params.Bucket,
		grace:  time.Duration(grace) * time.Hour,
		now:    time.Now,
	}, nil
}

type pendingMediaCleanupJob struct {
	logg   *logger.Logger
	repo   pendingMediaRepo
	store  objectChecker
	bucket string
	grace  time.Duration
	now    func() time.Time
}

func (j *pendingMediaCleanupJob) Name() string { return "pending-media-cleanup" }

func (j *pendingMediaCleanupJob) Run(ctx context.Context) error {
	cutoff := j.now().UTC().Add(-j.grace)
	rows, err := j.repo.ListCreatedBetween(ctx, cutoff.Add(-pendingMediaLookback), cutoff, pendingMediaBatch)
	if err != nil {
		return fmt.Errorf("query pending media: %w", err)
	}

	var deleted int
	for _, row := range rows {
		exists, err := j.store.ObjectExists(ctx, j.bucket, row.Handle)
		if err != nil {
			return fmt.Errorf("check object %s: %w", row.Handle, err)
		}
		if exists {
			continue
		}
		if err := j.repo.Delete(ctx, row.ID); err != nil {
			return fmt.Errorf("delete media row: %w", err)
		}
		deleted++
	}

	logCtx := j.logg.WithFields(ctx, map[string]any{
		"cutoff":           cutoff,
		"media_candidates": len(rows),
		"media_deleted":    deleted,
	})
	j.logg.Info(logCtx, "pending media cleanup complete")
	return nil
}

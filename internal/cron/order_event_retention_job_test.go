package cron

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/brewbar/bubbletea-backend/pkg/db/dbtest"
	"github.com/brewbar/bubbletea-backend/pkg/db/models"
	"github.com/brewbar/bubbletea-backend/pkg/enums"
	"github.com/brewbar/bubbletea-backend/pkg/logger"
	"github.com/brewbar/bubbletea-backend/pkg/outbox"
)

func TestOrderEventRetentionKeepsInFlightOrders(t *testing.T) {
	client := dbtest.Open(t)
	db := client.DB()
	repo := outbox.NewRepository(db)

	now := time.Date(2026, 2, 10, 0, 0, 0, 0, time.UTC)
	old := now.Add(-45 * 24 * time.Hour)
	recent := now.Add(-2 * 24 * time.Hour)

	delivered := uuid.New()
	stuck := uuid.New()
	fresh := uuid.New()
	abandoned := uuid.New()

	fixtures := []*models.OutboxEvent{
		orderEvent(delivered, enums.EventOrderCreated, old, true, 0),
		orderEvent(delivered, enums.EventOrderStatusChanged, old, true, 0),
		orderEvent(stuck, enums.EventOrderCreated, old, true, 0),
		orderEvent(stuck, enums.EventOrderStatusChanged, old, false, 2),
		orderEvent(fresh, enums.EventOrderCreated, recent, true, 0),
		orderEvent(abandoned, enums.EventOrderCreated, old, false, orderEventMinAttempts),
	}
	for _, ev := range fixtures {
		require.NoError(t, repo.Insert(db, ev))
	}

	job := newOrderEventRetentionJob(t, client, repo)
	job.now = func() time.Time { return now }
	require.NoError(t, job.Run(context.Background()))

	var left []models.OutboxEvent
	require.NoError(t, db.Order("created_at ASC").Find(&left).Error)
	remaining := map[uuid.UUID]int{}
	for _, ev := range left {
		remaining[ev.AggregateID]++
	}
	assert.Equal(t, map[uuid.UUID]int{stuck: 2, fresh: 1}, remaining)
}

func TestOrderEventRetentionSweepsEachEventType(t *testing.T) {
	now := time.Date(2026, 2, 10, 0, 0, 0, 0, time.UTC)
	store := &fakeOrderEventStore{}
	job := newOrderEventRetentionJob(t, inlineTx{}, store)
	job.now = func() time.Time { return now }

	require.NoError(t, job.Run(context.Background()))

	assert.Equal(t, orderEventTypes, store.swept)
	assert.True(t, store.cutoff.Equal(now.Add(-orderEventRetentionDays*24*time.Hour)))
	assert.Equal(t, orderEventMinAttempts, store.minAttempts)
}

func TestOrderEventRetentionStopsOnStoreError(t *testing.T) {
	store := &fakeOrderEventStore{err: errors.New("lock timeout")}
	job := newOrderEventRetentionJob(t, inlineTx{}, store)

	err := job.Run(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), string(enums.EventOrderCreated))
	assert.Len(t, store.swept, 1)
}

func TestNewOrderEventRetentionJobRequiresStore(t *testing.T) {
	_, err := NewOrderEventRetentionJob(OrderEventRetentionJobParams{
		Logger: logger.New(logger.Options{ServiceName: "test"}),
		DB:     inlineTx{},
	})
	require.Error(t, err)
}

func orderEvent(orderID uuid.UUID, eventType enums.OutboxEventType, createdAt time.Time, published bool, attempts int) *models.OutboxEvent {
	ev := &models.OutboxEvent{
		EventType:     eventType,
		AggregateType: enums.AggregateOrder,
		AggregateID:   orderID,
		Payload:       json.RawMessage(`{"orderId":"` + orderID.String() + `"}`),
		CreatedAt:     createdAt,
		AttemptCount:  attempts,
	}
	if published {
		at := createdAt.Add(time.Second)
		ev.PublishedAt = &at
	}
	return ev
}

func newOrderEventRetentionJob(t *testing.T, db txRunner, store orderEventStore) *orderEventRetentionJob {
	t.Helper()
	jobIface, err := NewOrderEventRetentionJob(OrderEventRetentionJobParams{
		Logger: logger.New(logger.Options{ServiceName: "test"}),
		DB:     db,
		Events: store,
	})
	if err != nil {
		t.Fatalf("NewOrderEventRetentionJob: %v", err)
	}
	job, ok := jobIface.(*orderEventRetentionJob)
	if !ok {
		t.Fatalf("expected orderEventRetentionJob, got %T", jobIface)
	}
	return job
}

type fakeOrderEventStore struct {
	swept       []enums.OutboxEventType
	cutoff      time.Time
	minAttempts int
	err         error
}

func (f *fakeOrderEventStore) DeleteSettledOrderEvents(ctx context.Context, tx *gorm.DB, eventType enums.OutboxEventType, cutoff time.Time, minAttemptCount int) (int64, error) {
	f.swept = append(f.swept, eventType)
	f.cutoff = cutoff
	f.minAttempts = minAttemptCount
	if f.err != nil {
		return 0, f.err
	}
	return 3, nil
}

type inlineTx struct{}

func (inlineTx) WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error {
	return fn(nil)
}

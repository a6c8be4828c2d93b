package idempotency

import (
	"context"
	"errors"
	"testing"
	"time"
)

type fakeStore struct {
	setNXResult bool
	setNXError  error
	lastKey     string
	lastTTL     time.Duration
	lastDeleted string
}

func (f *fakeStore) SetNX(ctx context.Context, key string, value any, ttl time.Duration) (bool, error) {
	f.lastKey = key
	f.lastTTL = ttl
	return f.setNXResult, f.setNXError
}

func (f *fakeStore) ProcessedEventKey(consumer, eventID string) string {
	return "brewbar:evt:processed:" + consumer + ":" + eventID
}

func (f *fakeStore) Del(_ context.Context, keys ...string) error {
	if len(keys) > 0 {
		f.lastDeleted = keys[0]
	}
	return nil
}

func TestCheckAndMarkProcessed_FirstTime(t *testing.T) {
	store := &fakeStore{setNXResult: true}
	manager, err := NewManager(store, 24*time.Hour)
	if err != nil {
		t.Fatalf("NewManager: %v", err)
	}

	already, err := manager.CheckAndMarkProcessed(context.Background(), "analytics", "evt-1")
	if err != nil {
		t.Fatalf("CheckAndMarkProcessed: %v", err)
	}
	if already {
		t.Fatalf("expected first call to return false")
	}
	if store.lastKey != "brewbar:evt:processed:analytics:evt-1" {
		t.Fatalf("unexpected key: %q", store.lastKey)
	}
	if store.lastTTL != 24*time.Hour {
		t.Fatalf("unexpected ttl: %v", store.lastTTL)
	}
}

func TestCheckAndMarkProcessed_Duplicate(t *testing.T) {
	manager, _ := NewManager(&fakeStore{setNXResult: false}, time.Hour)
	already, err := manager.CheckAndMarkProcessed(context.Background(), "analytics", "evt-1")
	if err != nil {
		t.Fatalf("CheckAndMarkProcessed: %v", err)
	}
	if !already {
		t.Fatalf("expected duplicate to be reported")
	}
}

func TestCheckAndMarkProcessed_Errors(t *testing.T) {
	boom := errors.New("redis down")
	manager, _ := NewManager(&fakeStore{setNXError: boom}, time.Hour)
	if _, err := manager.CheckAndMarkProcessed(context.Background(), "analytics", "evt-1"); !errors.Is(err, boom) {
		t.Fatalf("expected store error, got %v", err)
	}
	if _, err := manager.CheckAndMarkProcessed(context.Background(), "", "evt-1"); err == nil {
		t.Fatal("expected missing consumer to fail")
	}
	if _, err := manager.CheckAndMarkProcessed(context.Background(), "analytics", ""); err == nil {
		t.Fatal("expected missing event id to fail")
	}
	if _, err := NewManager(nil, time.Hour); err == nil {
		t.Fatal("expected nil store to fail")
	}
}

func TestRelease(t *testing.T) {
	store := &fakeStore{}
	manager, _ := NewManager(store, time.Hour)
	if err := manager.Release(context.Background(), "analytics", "evt-9"); err != nil {
		t.Fatalf("Release: %v", err)
	}
	if store.lastDeleted != "brewbar:evt:processed:analytics:evt-9" {
		t.Fatalf("unexpected deleted key %q", store.lastDeleted)
	}
}

package redis

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/brewbar/bubbletea-backend/pkg/config"
)

func TestIncrWithTTLSeedsWindow(t *testing.T) {
	ctx := context.Background()
	fake := newFakeCommands()
	client := &Client{cmd: fake}
	key := client.AuthLimitKey("login", "ip", "203.0.113.9")

	for want := int64(1); want <= 3; want++ {
		got, err := client.IncrWithTTL(ctx, key, time.Minute)
		if err != nil {
			t.Fatalf("incr %d: %v", want, err)
		}
		if got != want {
			t.Fatalf("expected count %d, got %d", want, got)
		}
	}
	if fake.ttl[key] != time.Minute {
		t.Fatalf("expected the counter to carry the window ttl, got %v", fake.ttl[key])
	}
	if len(fake.expires) != 1 {
		t.Fatalf("expected ttl re-armed only on the first hit, got %d", len(fake.expires))
	}
}

func TestIncrWithTTLWithoutWindow(t *testing.T) {
	fake := newFakeCommands()
	client := &Client{cmd: fake}

	got, err := client.IncrWithTTL(context.Background(), "k", 0)
	if err != nil || got != 1 {
		t.Fatalf("unexpected result %d %v", got, err)
	}
	if _, ok := fake.ttl["k"]; ok || len(fake.expires) != 0 {
		t.Fatal("no ttl expected without a window")
	}
}

func TestIncrWithTTLSurfacesStoreErrors(t *testing.T) {
	fake := newFakeCommands()
	fake.err = errors.New("connection reset")
	client := &Client{cmd: fake}

	if _, err := client.IncrWithTTL(context.Background(), "k", time.Minute); err == nil {
		t.Fatal("expected store error")
	}
}

func TestSetNXAndDel(t *testing.T) {
	ctx := context.Background()
	client := &Client{cmd: newFakeCommands()}
	key := client.ProcessedEventKey("analytics-worker", "evt-1")

	ok, err := client.SetNX(ctx, key, "1", time.Minute)
	if err != nil || !ok {
		t.Fatalf("expected first claim to win, got %v %v", ok, err)
	}
	ok, err = client.SetNX(ctx, key, "1", time.Minute)
	if err != nil || ok {
		t.Fatalf("expected replay to lose, got %v %v", ok, err)
	}
	if err := client.Del(ctx, key); err != nil {
		t.Fatalf("del: %v", err)
	}
	if _, err := client.Get(ctx, key); !errors.Is(err, redis.Nil) {
		t.Fatalf("expected redis.Nil after delete, got %v", err)
	}
}

func TestUninitializedClient(t *testing.T) {
	client := &Client{}
	if err := client.Ping(context.Background()); !errors.Is(err, errNotInitialized) {
		t.Fatalf("expected not initialized, got %v", err)
	}
	if _, err := client.IncrWithTTL(context.Background(), "k", time.Second); !errors.Is(err, errNotInitialized) {
		t.Fatalf("expected not initialized, got %v", err)
	}
	if err := client.Close(); err != nil {
		t.Fatalf("close on empty client should be a no-op: %v", err)
	}
}

func TestKeyBuilders(t *testing.T) {
	client := &Client{}
	cases := []struct{ got, want string }{
		{client.IdempotencyKey("POST:/api/v1/checkout", "abc"), "brewbar:idempotency:POST:/api/v1/checkout:abc"},
		{client.IdempotencyKey("", "only-id"), "brewbar:idempotency:only-id"},
		{client.AccessSessionKey("jti-1"), "brewbar:session:access:jti-1"},
		{client.ProcessedEventKey("analytics-worker", "evt-1"), "brewbar:processed:analytics-worker:evt-1"},
		{client.AuthLimitKey("register", "email", "ab12"), "brewbar:auth_limit:register:email:ab12"},
		{client.CronLockKey(" Prod "), "brewbar:cron:lock:prod"},
		{client.CronLockKey(""), "brewbar:cron:lock:default"},
	}
	for _, tc := range cases {
		if tc.got != tc.want {
			t.Fatalf("expected %s got %s", tc.want, tc.got)
		}
	}
}

func TestOptionsFromConfig(t *testing.T) {
	if _, err := optionsFromConfig(config.RedisConfig{}); err == nil {
		t.Fatal("expected error without url or address")
	}
	opts, err := optionsFromConfig(config.RedisConfig{URL: "redis://localhost:6379/3", DB: 1, PoolSize: 7, DialTimeout: time.Second})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if opts.DB != 3 || opts.PoolSize != 7 || opts.DialTimeout != time.Second {
		t.Fatalf("url settings should win, got %+v", opts)
	}

	opts, err = optionsFromConfig(config.RedisConfig{Address: "cache:6379", Password: "pw", DB: 2})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if opts.Addr != "cache:6379" || opts.Password != "pw" || opts.DB != 2 {
		t.Fatalf("unexpected address options %+v", opts)
	}
}

// fakeCommands is an in-memory stand-in for the go-redis client.
type fakeCommands struct {
	data    map[string]string
	ttl     map[string]time.Duration
	expires []string
	err     error
}

func newFakeCommands() *fakeCommands {
	return &fakeCommands{data: map[string]string{}, ttl: map[string]time.Duration{}}
}

func (f *fakeCommands) Ping(context.Context) *redis.StatusCmd {
	return redis.NewStatusResult("PONG", f.err)
}

func (f *fakeCommands) Set(_ context.Context, key string, value any, ttl time.Duration) *redis.StatusCmd {
	f.data[key] = fmt.Sprint(value)
	if ttl > 0 {
		f.ttl[key] = ttl
	}
	return redis.NewStatusResult("OK", f.err)
}

func (f *fakeCommands) Get(_ context.Context, key string) *redis.StringCmd {
	v, ok := f.data[key]
	if !ok {
		return redis.NewStringResult("", redis.Nil)
	}
	return redis.NewStringResult(v, nil)
}

func (f *fakeCommands) SetNX(_ context.Context, key string, value any, ttl time.Duration) *redis.BoolCmd {
	if f.err != nil {
		return redis.NewBoolResult(false, f.err)
	}
	if _, exists := f.data[key]; exists {
		return redis.NewBoolResult(false, nil)
	}
	f.data[key] = fmt.Sprint(value)
	if ttl > 0 {
		f.ttl[key] = ttl
	}
	return redis.NewBoolResult(true, nil)
}

func (f *fakeCommands) Incr(_ context.Context, key string) *redis.IntCmd {
	if f.err != nil {
		return redis.NewIntResult(0, f.err)
	}
	n, _ := strconv.ParseInt(f.data[key], 10, 64)
	n++
	f.data[key] = strconv.FormatInt(n, 10)
	return redis.NewIntResult(n, nil)
}

func (f *fakeCommands) Expire(_ context.Context, key string, ttl time.Duration) *redis.BoolCmd {
	f.expires = append(f.expires, key)
	f.ttl[key] = ttl
	return redis.NewBoolResult(true, nil)
}

func (f *fakeCommands) Del(_ context.Context, keys ...string) *redis.IntCmd {
	for _, key := range keys {
		delete(f.data, key)
		delete(f.ttl, key)
	}
	return redis.NewIntResult(int64(len(keys)), nil)
}

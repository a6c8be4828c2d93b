package middleware

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	pkgerrors "github.com/brewbar/bubbletea-backend/pkg/errors"
)

func serveLogin(t *testing.T, h http.Handler, body, remote string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, "/api/v1/auth/login", strings.NewReader(body))
	req.RemoteAddr = remote
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func okHandler(w http.ResponseWriter, _ *http.Request) { w.WriteHeader(http.StatusOK) }

func TestAuthRateLimitKeepsBodyForHandler(t *testing.T) {
	policy := NewAuthRateLimitPolicy("login", time.Minute, 2, 2)
	handler := AuthRateLimit(policy, newFakeRateStore(), nil)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, err := io.ReadAll(r.Body)
		require.NoError(t, err)
		require.Contains(t, string(body), `"email":"lan@example.com"`)
		w.WriteHeader(http.StatusOK)
	}))

	rec := serveLogin(t, handler, `{"email":"lan@example.com","password":"secret123"}`, "1.2.3.4:5678")
	require.Equal(t, http.StatusOK, rec.Code)
}

func TestAuthRateLimitEmailLimitIgnoresCaseAndIP(t *testing.T) {
	store := newFakeRateStore()
	handler := AuthRateLimit(NewAuthRateLimitPolicy("login", time.Minute, 0, 2), store, nil)(http.HandlerFunc(okHandler))

	bodies := []string{
		`{"email":"Blocked@Example.com","password":"x"}`,
		`{"email":"blocked@example.com ","password":"x"}`,
		`{"email":"BLOCKED@example.com","password":"x"}`,
	}
	remotes := []string{"1.1.1.1:1", "2.2.2.2:2", "3.3.3.3:3"}
	for i := range bodies {
		rec := serveLogin(t, handler, bodies[i], remotes[i])
		if i < 2 {
			require.Equal(t, http.StatusOK, rec.Code, "attempt %d", i)
			continue
		}
		require.Equal(t, http.StatusTooManyRequests, rec.Code)
		require.Equal(t, "60", rec.Header().Get("Retry-After"))

		var payload struct {
			Error struct {
				Code string `json:"code"`
			} `json:"error"`
		}
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &payload))
		require.Equal(t, string(pkgerrors.CodeRateLimit), payload.Error.Code)
	}
}

func TestAuthRateLimitIPLimitUsesForwardedFor(t *testing.T) {
	store := newFakeRateStore()
	handler := AuthRateLimit(NewAuthRateLimitPolicy("register", time.Minute, 1, 0), store, nil)(http.HandlerFunc(okHandler))

	for i, want := range []int{http.StatusOK, http.StatusTooManyRequests} {
		req := httptest.NewRequest(http.MethodPost, "/api/v1/auth/register", strings.NewReader(`{}`))
		req.RemoteAddr = "10.0.0.1:1234"
		req.Header.Set("X-Forwarded-For", "203.0.113.9, 10.0.0.1")
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)
		require.Equal(t, want, rec.Code, "attempt %d", i)
	}
	require.Contains(t, store.counts, "register:ip:203.0.113.9")
}

func TestAuthRateLimitStoreFailureIs503(t *testing.T) {
	store := newFakeRateStore()
	store.err = errors.New("redis: connection refused")
	handler := AuthRateLimit(NewAuthRateLimitPolicy("anonymous", time.Minute, 5, 0), store, nil)(http.HandlerFunc(okHandler))

	rec := serveLogin(t, handler, `{}`, "1.2.3.4:5678")
	require.Equal(t, http.StatusServiceUnavailable, rec.Code)
}

func TestAuthRateLimitDisabledPolicyPassesThrough(t *testing.T) {
	store := newFakeRateStore()
	handler := AuthRateLimit(NewAuthRateLimitPolicy("login", 0, 1, 1), store, nil)(http.HandlerFunc(okHandler))

	for i := 0; i < 3; i++ {
		require.Equal(t, http.StatusOK, serveLogin(t, handler, `{"email":"a@b.c"}`, "1.2.3.4:1").Code)
	}
	require.Empty(t, store.counts)
}

type fakeRateStore struct {
	mu     sync.Mutex
	counts map[string]int64
	err    error
}

func newFakeRateStore() *fakeRateStore {
	return &fakeRateStore{counts: map[string]int64{}}
}

func (f *fakeRateStore) AuthLimitKey(policy, scope, value string) string {
	return policy + ":" + scope + ":" + value
}

func (f *fakeRateStore) IncrWithTTL(_ context.Context, key string, _ time.Duration) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return 0, f.err
	}
	f.counts[key]++
	return f.counts[key], nil
}

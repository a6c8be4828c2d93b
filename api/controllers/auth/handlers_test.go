package auth

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/brewbar/bubbletea-backend/api/middleware"
	"github.com/brewbar/bubbletea-backend/internal/auth"
	"github.com/brewbar/bubbletea-backend/internal/users"
	pkgAuth "github.com/brewbar/bubbletea-backend/pkg/auth"
	"github.com/brewbar/bubbletea-backend/pkg/config"
	"github.com/brewbar/bubbletea-backend/pkg/enums"
	pkgerrors "github.com/brewbar/bubbletea-backend/pkg/errors"
)

type stubAuthService struct {
	tokens      *auth.TokenResponse
	err         error
	lastLogin   auth.LoginRequest
	revokedID   string
	meRequested uuid.UUID
}

func (s *stubAuthService) Register(ctx context.Context, req auth.RegisterRequest) (*auth.TokenResponse, error) {
	return s.tokens, s.err
}

func (s *stubAuthService) Login(ctx context.Context, req auth.LoginRequest) (*auth.TokenResponse, error) {
	s.lastLogin = req
	return s.tokens, s.err
}

func (s *stubAuthService) Anonymous(ctx context.Context) (*auth.TokenResponse, error) {
	return s.tokens, s.err
}

func (s *stubAuthService) Refresh(ctx context.Context, req auth.RefreshRequest) (*auth.TokenResponse, error) {
	return s.tokens, s.err
}

func (s *stubAuthService) Logout(ctx context.Context, accessID string) error {
	s.revokedID = accessID
	return s.err
}

func (s *stubAuthService) Me(ctx context.Context, userID uuid.UUID) (*users.UserDTO, error) {
	s.meRequested = userID
	if s.err != nil {
		return nil, s.err
	}
	return &users.UserDTO{ID: userID, Name: "Lan", Role: enums.UserRoleCustomer}, nil
}

func TestRegisterReturnsCreatedTokens(t *testing.T) {
	svc := &stubAuthService{tokens: &auth.TokenResponse{AccessToken: "access", RefreshToken: "refresh"}}
	body := `{"name":"Lan","email":"lan@example.com","password":"hunter22!"}`
	req := httptest.NewRequest(http.MethodPost, "/api/v1/auth/register", strings.NewReader(body))
	resp := httptest.NewRecorder()

	Register(svc, nil).ServeHTTP(resp, req)

	if resp.Code != http.StatusCreated {
		t.Fatalf("expected 201 got %d", resp.Code)
	}
	var envelope struct {
		Data auth.TokenResponse `json:"data"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&envelope); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if envelope.Data.AccessToken != "access" || envelope.Data.RefreshToken != "refresh" {
		t.Fatalf("unexpected tokens %+v", envelope.Data)
	}
}

func TestRegisterRejectsShortPassword(t *testing.T) {
	svc := &stubAuthService{}
	body := `{"name":"Lan","email":"lan@example.com","password":"short"}`
	req := httptest.NewRequest(http.MethodPost, "/api/v1/auth/register", strings.NewReader(body))
	resp := httptest.NewRecorder()

	Register(svc, nil).ServeHTTP(resp, req)

	if resp.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 got %d", resp.Code)
	}
}

func TestLoginPropagatesUnauthorized(t *testing.T) {
	svc := &stubAuthService{err: pkgerrors.New(pkgerrors.CodeUnauthorized, "invalid credentials")}
	body := `{"email":"lan@example.com","password":"wrong-pass"}`
	req := httptest.NewRequest(http.MethodPost, "/api/v1/auth/login", strings.NewReader(body))
	resp := httptest.NewRecorder()

	Login(svc, nil).ServeHTTP(resp, req)

	if resp.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 got %d", resp.Code)
	}
	if svc.lastLogin.Email != "lan@example.com" {
		t.Fatalf("expected login email forwarded, got %q", svc.lastLogin.Email)
	}
}

func TestLogoutAcceptsExpiredToken(t *testing.T) {
	cfg := config.JWTConfig{Secret: "secret", Issuer: "brewbar", ExpirationMinutes: 1}
	token, err := pkgAuth.MintAccessToken(cfg, time.Now().Add(-time.Hour), pkgAuth.AccessTokenPayload{
		UserID: uuid.New(),
		Role:   enums.UserRoleCustomer,
		JTI:    "session-1",
	})
	if err != nil {
		t.Fatalf("mint token: %v", err)
	}

	svc := &stubAuthService{}
	req := httptest.NewRequest(http.MethodPost, "/api/v1/auth/logout", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	resp := httptest.NewRecorder()

	Logout(svc, cfg, nil).ServeHTTP(resp, req)

	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d", resp.Code)
	}
	if svc.revokedID != "session-1" {
		t.Fatalf("expected session-1 revoked, got %q", svc.revokedID)
	}
}

func TestLogoutRequiresBearer(t *testing.T) {
	cfg := config.JWTConfig{Secret: "secret", Issuer: "brewbar", ExpirationMinutes: 1}
	req := httptest.NewRequest(http.MethodPost, "/api/v1/auth/logout", nil)
	resp := httptest.NewRecorder()

	Logout(&stubAuthService{}, cfg, nil).ServeHTTP(resp, req)

	if resp.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 got %d", resp.Code)
	}
}

func TestMeUsesContextUser(t *testing.T) {
	userID := uuid.New()
	svc := &stubAuthService{}
	req := httptest.NewRequest(http.MethodGet, "/api/v1/me", nil)
	req = req.WithContext(middleware.WithUserID(req.Context(), userID.String()))
	resp := httptest.NewRecorder()

	Me(svc, nil).ServeHTTP(resp, req)

	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d", resp.Code)
	}
	if svc.meRequested != userID {
		t.Fatalf("expected lookup for %s, got %s", userID, svc.meRequested)
	}
}

package auth

import (
	"context"
	"sync"
	"testing"

	"github.com/google/uuid"

	"github.com/brewbar/bubbletea-backend/internal/users"
	pkgAuth "github.com/brewbar/bubbletea-backend/pkg/auth"
	"github.com/brewbar/bubbletea-backend/pkg/auth/session"
	"github.com/brewbar/bubbletea-backend/pkg/config"
	"github.com/brewbar/bubbletea-backend/pkg/db"
	"github.com/brewbar/bubbletea-backend/pkg/db/dbtest"
	"github.com/brewbar/bubbletea-backend/pkg/db/models"
	"github.com/brewbar/bubbletea-backend/pkg/enums"
	pkgerrors "github.com/brewbar/bubbletea-backend/pkg/errors"
	"github.com/brewbar/bubbletea-backend/pkg/security"
)

var testJWT = config.JWTConfig{
	Secret:            "secret",
	Issuer:            "brewbar",
	ExpirationMinutes: 30,
}

type memorySessions struct {
	mu   sync.Mutex
	data map[string]string
	user map[string]uuid.UUID
}

func newMemorySessions() *memorySessions {
	return &memorySessions{data: map[string]string{}, user: map[string]uuid.UUID{}}
}

func (m *memorySessions) Generate(ctx context.Context, userID uuid.UUID, accessID string) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	token := "rt-" + accessID
	m.data[accessID] = token
	m.user[accessID] = userID
	return token, nil
}

func (m *memorySessions) Rotate(ctx context.Context, oldAccessID, provided string) (uuid.UUID, string, string, error) {
	m.mu.Lock()
	token, ok := m.data[oldAccessID]
	userID := m.user[oldAccessID]
	if !ok || token != provided {
		m.mu.Unlock()
		return uuid.Nil, "", "", session.ErrInvalidRefreshToken
	}
	delete(m.data, oldAccessID)
	delete(m.user, oldAccessID)
	m.mu.Unlock()

	next := session.NewAccessID()
	newToken, _ := m.Generate(ctx, userID, next)
	return userID, next, newToken, nil
}

func (m *memorySessions) Revoke(ctx context.Context, accessID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.data, accessID)
	delete(m.user, accessID)
	return nil
}

func (m *memorySessions) size() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.data)
}

func buildTestService(t *testing.T) (Service, *db.Client, *memorySessions) {
	t.Helper()
	client := dbtest.Open(t)
	sessions := newMemorySessions()
	svc, err := NewService(ServiceParams{
		UserRepo:       users.NewRepository(client.DB()),
		SessionManager: sessions,
		Hasher:         security.NewHasher(config.PasswordConfig{}),
		JWTConfig:      testJWT,
	})
	if err != nil {
		t.Fatalf("build service: %v", err)
	}
	return svc, client, sessions
}

func TestRegisterThenLogin(t *testing.T) {
	svc, _, sessions := buildTestService(t)
	ctx := context.Background()

	resp, err := svc.Register(ctx, RegisterRequest{Name: " Lan ", Email: "Lan@Example.com", Password: "tra-sua-ngon"})
	if err != nil {
		t.Fatalf("register: %v", err)
	}
	if resp.User.Email == nil || *resp.User.Email != "lan@example.com" {
		t.Fatalf("expected normalized email, got %v", resp.User.Email)
	}
	if resp.User.Name != "Lan" || resp.User.Role != enums.UserRoleCustomer {
		t.Fatalf("unexpected user %+v", resp.User)
	}

	if _, err := svc.Register(ctx, RegisterRequest{Name: "Lan", Email: "lan@example.com", Password: "another-pass"}); !pkgerrors.IsCode(err, pkgerrors.CodeConflict) {
		t.Fatalf("expected conflict on duplicate email, got %v", err)
	}

	login, err := svc.Login(ctx, LoginRequest{Email: "LAN@example.com", Password: "tra-sua-ngon"})
	if err != nil {
		t.Fatalf("login: %v", err)
	}
	claims, err := pkgAuth.ParseAccessToken(testJWT, login.AccessToken)
	if err != nil {
		t.Fatalf("parse access token: %v", err)
	}
	if claims.UserID != resp.User.ID || claims.Anonymous {
		t.Fatalf("unexpected claims %+v", claims)
	}
	if login.User.LastLoginAt == nil {
		t.Fatal("expected last login to be recorded")
	}
	if sessions.size() != 2 {
		t.Fatalf("expected two open sessions, got %d", sessions.size())
	}
}

func TestLoginRejectsBadCredentials(t *testing.T) {
	svc, client, _ := buildTestService(t)
	ctx := context.Background()
	if _, err := svc.Register(ctx, RegisterRequest{Name: "Minh", Email: "minh@example.com", Password: "password-1"}); err != nil {
		t.Fatalf("register: %v", err)
	}

	if _, err := svc.Login(ctx, LoginRequest{Email: "minh@example.com", Password: "wrong-pass"}); !pkgerrors.IsCode(err, pkgerrors.CodeUnauthorized) {
		t.Fatalf("expected unauthorized for wrong password, got %v", err)
	}
	if _, err := svc.Login(ctx, LoginRequest{Email: "nobody@example.com", Password: "password-1"}); !pkgerrors.IsCode(err, pkgerrors.CodeUnauthorized) {
		t.Fatalf("expected unauthorized for unknown email, got %v", err)
	}

	if err := client.DB().Model(&models.User{}).Where("email = ?", "minh@example.com").Update("is_active", false).Error; err != nil {
		t.Fatalf("deactivate: %v", err)
	}
	if _, err := svc.Login(ctx, LoginRequest{Email: "minh@example.com", Password: "password-1"}); !pkgerrors.IsCode(err, pkgerrors.CodeUnauthorized) {
		t.Fatalf("expected inactive user to be rejected, got %v", err)
	}
}

func TestRegisterValidation(t *testing.T) {
	svc, _, _ := buildTestService(t)
	if _, err := svc.Register(context.Background(), RegisterRequest{Name: "A", Email: "a@example.com", Password: "short"}); !pkgerrors.IsCode(err, pkgerrors.CodeValidation) {
		t.Fatalf("expected validation error for short password, got %v", err)
	}
}

func TestAnonymousSignIn(t *testing.T) {
	svc, _, _ := buildTestService(t)
	resp, err := svc.Anonymous(context.Background())
	if err != nil {
		t.Fatalf("anonymous: %v", err)
	}
	if resp.User.Name != models.AnonymousUserName || !resp.User.IsAnonymous || resp.User.Email != nil {
		t.Fatalf("unexpected guest %+v", resp.User)
	}
	claims, err := pkgAuth.ParseAccessToken(testJWT, resp.AccessToken)
	if err != nil {
		t.Fatalf("parse access token: %v", err)
	}
	if !claims.Anonymous {
		t.Fatal("expected anonymous claim")
	}
}

func TestRefreshRotatesAndRejectsInactive(t *testing.T) {
	svc, client, sessions := buildTestService(t)
	ctx := context.Background()
	first, err := svc.Register(ctx, RegisterRequest{Name: "Hoa", Email: "hoa@example.com", Password: "password-1"})
	if err != nil {
		t.Fatalf("register: %v", err)
	}

	second, err := svc.Refresh(ctx, RefreshRequest{AccessToken: first.AccessToken, RefreshToken: first.RefreshToken})
	if err != nil {
		t.Fatalf("refresh: %v", err)
	}
	if second.RefreshToken == first.RefreshToken {
		t.Fatal("expected a new refresh token")
	}
	if _, err := svc.Refresh(ctx, RefreshRequest{AccessToken: first.AccessToken, RefreshToken: first.RefreshToken}); !pkgerrors.IsCode(err, pkgerrors.CodeUnauthorized) {
		t.Fatalf("expected reused refresh token to fail, got %v", err)
	}

	if err := client.DB().Model(&models.User{}).Where("id = ?", first.User.ID).Update("is_active", false).Error; err != nil {
		t.Fatalf("deactivate: %v", err)
	}
	if _, err := svc.Refresh(ctx, RefreshRequest{AccessToken: second.AccessToken, RefreshToken: second.RefreshToken}); !pkgerrors.IsCode(err, pkgerrors.CodeUnauthorized) {
		t.Fatalf("expected inactive user refresh to fail, got %v", err)
	}
	if sessions.size() != 0 {
		t.Fatalf("expected no sessions left, got %d", sessions.size())
	}
}

func TestLogoutAndMe(t *testing.T) {
	svc, _, sessions := buildTestService(t)
	ctx := context.Background()
	resp, err := svc.Anonymous(ctx)
	if err != nil {
		t.Fatalf("anonymous: %v", err)
	}
	claims, err := pkgAuth.ParseAccessToken(testJWT, resp.AccessToken)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}

	me, err := svc.Me(ctx, claims.UserID)
	if err != nil || me.ID != resp.User.ID {
		t.Fatalf("me: %v %+v", err, me)
	}
	if err := svc.Logout(ctx, claims.ID); err != nil {
		t.Fatalf("logout: %v", err)
	}
	if sessions.size() != 0 {
		t.Fatal("expected session to be revoked")
	}
	if _, err := svc.Me(ctx, uuid.New()); !pkgerrors.IsCode(err, pkgerrors.CodeNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}
}

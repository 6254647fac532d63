package middleware

import (
	"context"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"

	"github.com/tenagalabs/jejak/internal/auth"
	"github.com/tenagalabs/jejak/internal/domain"
)

type stubUsers struct {
	user *domain.User
}

func (s *stubUsers) Login(context.Context, string, string) (*domain.LoginResult, error) {
	return nil, domain.Unauthorized("stub", "not implemented")
}
func (s *stubUsers) Logout(context.Context, string) error { return nil }
func (s *stubUsers) Authenticate(_ context.Context, token string) (*domain.User, error) {
	if s.user == nil || token != "valid-token" {
		return nil, domain.Unauthorized("stub", "invalid or expired session")
	}
	return s.user, nil
}
func (s *stubUsers) ListUsers(context.Context, uuid.UUID) ([]*domain.User, error) { return nil, nil }
func (s *stubUsers) CreateUser(context.Context, uuid.UUID, string, string, string, domain.Role) (*domain.User, error) {
	return nil, nil
}

func testAuthMiddleware(user *domain.User) *AuthMiddleware {
	logger := slog.New(slog.NewTextHandler(os.Stderr, nil))
	return NewAuthMiddleware(&stubUsers{user: user}, logger)
}

func okHandler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
}

func TestRequireAuth_MissingToken(t *testing.T) {
	mw := testAuthMiddleware(nil)

	req := httptest.NewRequest(http.MethodGet, "/api/entries", nil)
	rec := httptest.NewRecorder()
	mw.RequireAuth(okHandler()).ServeHTTP(rec, req)

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestRequireAuth_InvalidToken(t *testing.T) {
	mw := testAuthMiddleware(nil)

	req := httptest.NewRequest(http.MethodGet, "/api/entries", nil)
	req.Header.Set("Authorization", "Bearer bogus")
	rec := httptest.NewRecorder()
	mw.RequireAuth(okHandler()).ServeHTTP(rec, req)

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestRequireAuth_ValidTokenSetsUser(t *testing.T) {
	user := &domain.User{ID: uuid.New(), TenantID: uuid.New(), Role: domain.RoleAdmin, Active: true}
	mw := testAuthMiddleware(user)

	var seen *domain.User
	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen = auth.GetUser(r.Context())
		w.WriteHeader(http.StatusOK)
	})

	req := httptest.NewRequest(http.MethodGet, "/api/entries", nil)
	req.Header.Set("Authorization", "Bearer valid-token")
	rec := httptest.NewRecorder()
	mw.RequireAuth(next).ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.NotNil(t, seen)
	assert.Equal(t, user.ID, seen.ID)
}

func TestRequirePermission_Denied(t *testing.T) {
	viewer := &domain.User{ID: uuid.New(), TenantID: uuid.New(), Role: domain.RoleViewer, Active: true}
	mw := testAuthMiddleware(viewer)

	req := httptest.NewRequest(http.MethodPost, "/api/entries", nil)
	req = req.WithContext(auth.SetUser(req.Context(), viewer))
	rec := httptest.NewRecorder()
	mw.RequirePermission(domain.PermEntryCreate, okHandler()).ServeHTTP(rec, req)

	assert.Equal(t, http.StatusForbidden, rec.Code)
}

func TestRequirePermission_Granted(t *testing.T) {
	clerk := &domain.User{ID: uuid.New(), TenantID: uuid.New(), Role: domain.RoleClerk, Active: true}
	mw := testAuthMiddleware(clerk)

	req := httptest.NewRequest(http.MethodPost, "/api/entries", nil)
	req = req.WithContext(auth.SetUser(req.Context(), clerk))
	rec := httptest.NewRecorder()
	mw.RequirePermission(domain.PermEntryCreate, okHandler()).ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestRequireSuperadmin(t *testing.T) {
	admin := &domain.User{ID: uuid.New(), TenantID: uuid.New(), Role: domain.RoleAdmin, Active: true}
	super := &domain.User{ID: uuid.New(), TenantID: uuid.New(), Role: domain.RoleSuperadmin, Active: true}
	mw := testAuthMiddleware(nil)

	adminReq := httptest.NewRequest(http.MethodGet, "/api/system-admin/rate-limits", nil)
	adminReq = adminReq.WithContext(auth.SetUser(adminReq.Context(), admin))
	rec := httptest.NewRecorder()
	mw.RequireSuperadmin(okHandler()).ServeHTTP(rec, adminReq)
	assert.Equal(t, http.StatusForbidden, rec.Code)

	superReq := httptest.NewRequest(http.MethodGet, "/api/system-admin/rate-limits", nil)
	superReq = superReq.WithContext(auth.SetUser(superReq.Context(), super))
	rec = httptest.NewRecorder()
	mw.RequireSuperadmin(okHandler()).ServeHTTP(rec, superReq)
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestBearerToken(t *testing.T) {
	testCases := []struct {
		name   string
		header string
		want   string
	}{
		{"empty", "", ""},
		{"bearer", "Bearer abc123", "abc123"},
		{"lowercase scheme", "bearer abc123", "abc123"},
		{"wrong scheme", "Basic abc123", ""},
		{"no token", "Bearer", ""},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/", nil)
			if tc.header != "" {
				req.Header.Set("Authorization", tc.header)
			}
			assert.Equal(t, tc.want, bearerToken(req))
		})
	}
}

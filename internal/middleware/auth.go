// Package middleware contains the HTTP middleware stack.
//
// Middleware follows the standard pattern of wrapping http.Handler and
// is composed in cmd/server/main.go.
package middleware

import (
	"log/slog"
	"net/http"
	"strings"

	"github.com/tenagalabs/jejak/internal/auth"
	"github.com/tenagalabs/jejak/internal/domain"
	"github.com/tenagalabs/jejak/internal/handler"
	"github.com/tenagalabs/jejak/internal/service"
)

// AuthMiddleware resolves bearer tokens to users.
type AuthMiddleware struct {
	users  service.UserService
	logger *slog.Logger
}

// NewAuthMiddleware creates an AuthMiddleware.
func NewAuthMiddleware(users service.UserService, logger *slog.Logger) *AuthMiddleware {
	return &AuthMiddleware{users: users, logger: logger}
}

// bearerToken extracts the token from the Authorization header.
func bearerToken(r *http.Request) string {
	header := r.Header.Get("Authorization")
	if header == "" {
		return ""
	}
	parts := strings.SplitN(header, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
		return ""
	}
	return strings.TrimSpace(parts[1])
}

// RequireAuth rejects requests without a valid session and stores the
// user in the request context.
func (m *AuthMiddleware) RequireAuth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		token := bearerToken(r)
		if token == "" {
			handler.WriteError(w, r, m.logger, domain.Unauthorized("auth", "authentication required"))
			return
		}

		user, err := m.users.Authenticate(r.Context(), token)
		if err != nil {
			handler.WriteError(w, r, m.logger, err)
			return
		}

		next.ServeHTTP(w, r.WithContext(auth.SetUser(r.Context(), user)))
	})
}

// RequirePermission gates a route on a role permission. Must run after
// RequireAuth.
func (m *AuthMiddleware) RequirePermission(perm domain.Permission, next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		user := auth.GetUser(r.Context())
		if user == nil {
			handler.WriteError(w, r, m.logger, domain.Unauthorized("auth", "authentication required"))
			return
		}
		if !user.Can(perm) {
			m.logger.Info("permission denied",
				"user_id", user.ID,
				"role", user.Role,
				"permission", perm,
				"path", r.URL.Path)
			handler.WriteError(w, r, m.logger, domain.Forbidden("auth", "you do not have permission to perform this action"))
			return
		}
		next.ServeHTTP(w, r)
	})
}

// RequireSuperadmin gates a route to platform operators. Must run after
// RequireAuth.
func (m *AuthMiddleware) RequireSuperadmin(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		user := auth.GetUser(r.Context())
		if user == nil {
			handler.WriteError(w, r, m.logger, domain.Unauthorized("auth", "authentication required"))
			return
		}
		if !user.IsSuperadmin() {
			handler.WriteError(w, r, m.logger, domain.Forbidden("auth", "superadmin access required"))
			return
		}
		next.ServeHTTP(w, r)
	})
}

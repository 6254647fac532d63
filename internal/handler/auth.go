package handler

import (
	"log/slog"
	"net/http"
	"strings"

	"github.com/tenagalabs/jejak/internal/domain"
	"github.com/tenagalabs/jejak/internal/service"
)

// AuthHandler handles login and logout.
type AuthHandler struct {
	users  service.UserService
	audit  service.AuditService
	logger *slog.Logger
}

// NewAuthHandler creates an AuthHandler.
func NewAuthHandler(users service.UserService, audit service.AuditService, logger *slog.Logger) *AuthHandler {
	return &AuthHandler{users: users, audit: audit, logger: logger}
}

// RegisterRoutes registers the auth routes.
func (h *AuthHandler) RegisterRoutes(mux *http.ServeMux, requireAuth func(http.Handler) http.Handler) {
	mux.Handle("POST /api/auth/login", http.HandlerFunc(h.Login))
	mux.Handle("POST /api/auth/logout", requireAuth(http.HandlerFunc(h.Logout)))
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type loginResponse struct {
	Token string   `json:"token"`
	User  userView `json:"user"`
}

// Login verifies credentials and issues a bearer token.
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := decodeJSON(r, &req); err != nil {
		WriteError(w, r, h.logger, domain.Invalid("auth.login", "invalid request body"))
		return
	}

	result, err := h.users.Login(r.Context(), req.Email, req.Password)
	if err != nil {
		WriteError(w, r, h.logger, err)
		return
	}

	h.audit.Record(r.Context(), domain.AppendAuditParams{
		TenantID: result.User.TenantID,
		ActorID:  result.User.ID,
		Action:   domain.AuditUserLogin,
		Resource: "user:" + result.User.ID.String(),
		Detail:   "logged in",
		IP:       requestIP(r),
	})

	writeJSON(w, http.StatusOK, loginResponse{
		Token: result.Token,
		User:  toUserView(result.User),
	})
}

// Logout revokes the presented bearer token. Idempotent.
func (h *AuthHandler) Logout(w http.ResponseWriter, r *http.Request) {
	header := r.Header.Get("Authorization")
	parts := strings.SplitN(header, " ", 2)
	if len(parts) != 2 {
		WriteError(w, r, h.logger, domain.Unauthorized("auth.logout", "authentication required"))
		return
	}

	if err := h.users.Logout(r.Context(), strings.TrimSpace(parts[1])); err != nil {
		WriteError(w, r, h.logger, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{"message": "logged out"})
}

// requestIP resolves the client address for audit records.
func requestIP(r *http.Request) string {
	if xff := r.Header.Get("X-Forwarded-For"); xff != "" {
		return strings.TrimSpace(strings.Split(xff, ",")[0])
	}
	host := r.RemoteAddr
	if i := strings.LastIndex(host, ":"); i > 0 {
		host = host[:i]
	}
	return host
}

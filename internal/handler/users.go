package handler

import (
	"log/slog"
	"net/http"

	"github.com/google/uuid"

	"github.com/tenagalabs/jejak/internal/auth"
	"github.com/tenagalabs/jejak/internal/domain"
	"github.com/tenagalabs/jejak/internal/service"
)

// UserHandler handles user listing and invitations.
type UserHandler struct {
	users   service.UserService
	invites service.InvitationService
	logger  *slog.Logger
}

// NewUserHandler creates a UserHandler.
func NewUserHandler(users service.UserService, invites service.InvitationService, logger *slog.Logger) *UserHandler {
	return &UserHandler{users: users, invites: invites, logger: logger}
}

// RegisterRoutes registers the user and invitation routes. The accept
// routes are public; the invite token is the credential.
func (h *UserHandler) RegisterRoutes(
	mux *http.ServeMux,
	requireAuth func(http.Handler) http.Handler,
	requirePerm func(domain.Permission, http.Handler) http.Handler,
) {
	mux.Handle("GET /api/users", requirePerm(domain.PermUserList, http.HandlerFunc(h.List)))
	mux.Handle("GET /api/users/me", requireAuth(http.HandlerFunc(h.Me)))
	mux.Handle("POST /api/users/invite", requirePerm(domain.PermUserInvite, http.HandlerFunc(h.Invite)))
	mux.Handle("GET /api/invitations", requirePerm(domain.PermUserInvite, http.HandlerFunc(h.ListInvitations)))
	mux.Handle("DELETE /api/invitations/{id}", requirePerm(domain.PermUserInvite, http.HandlerFunc(h.CancelInvitation)))
	mux.Handle("GET /api/users/accept-invite", http.HandlerFunc(h.ShowInvitation))
	mux.Handle("POST /api/users/accept-invite", http.HandlerFunc(h.AcceptInvitation))
}

// List returns the tenant's users.
func (h *UserHandler) List(w http.ResponseWriter, r *http.Request) {
	user := auth.GetUserFromRequest(r)

	users, err := h.users.ListUsers(r.Context(), user.TenantID)
	if err != nil {
		WriteError(w, r, h.logger, err)
		return
	}

	views := make([]userView, 0, len(users))
	for _, u := range users {
		views = append(views, toUserView(u))
	}
	writeJSON(w, http.StatusOK, views)
}

// Me returns the authenticated user's own profile.
func (h *UserHandler) Me(w http.ResponseWriter, r *http.Request) {
	user := auth.GetUserFromRequest(r)
	if user == nil {
		WriteError(w, r, h.logger, domain.Unauthorized("user.me", "authentication required"))
		return
	}
	writeJSON(w, http.StatusOK, toUserView(user))
}

type inviteRequest struct {
	Email string `json:"email"`
	Role  string `json:"role"`
}

// Invite creates a pending invitation and mails its accept link.
func (h *UserHandler) Invite(w http.ResponseWriter, r *http.Request) {
	user := auth.GetUserFromRequest(r)

	var req inviteRequest
	if err := decodeJSON(r, &req); err != nil {
		WriteError(w, r, h.logger, domain.Invalid("invite.create", "invalid request body"))
		return
	}

	inv, err := h.invites.Invite(r.Context(), user, req.Email, domain.Role(req.Role))
	if err != nil {
		WriteError(w, r, h.logger, err)
		return
	}

	writeJSON(w, http.StatusCreated, toInvitationView(inv))
}

// ListInvitations returns the tenant's open invitations.
func (h *UserHandler) ListInvitations(w http.ResponseWriter, r *http.Request) {
	invitations, err := h.invites.ListPending(r.Context(), auth.TenantID(r.Context()))
	if err != nil {
		WriteError(w, r, h.logger, err)
		return
	}

	views := make([]invitationView, 0, len(invitations))
	for _, inv := range invitations {
		views = append(views, toInvitationView(inv))
	}
	writeJSON(w, http.StatusOK, views)
}

// CancelInvitation moves a pending invitation to cancelled.
func (h *UserHandler) CancelInvitation(w http.ResponseWriter, r *http.Request) {
	user := auth.GetUserFromRequest(r)

	id, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		WriteError(w, r, h.logger, domain.Invalid("invite.cancel", "invalid invitation ID"))
		return
	}

	if err := h.invites.Cancel(r.Context(), user, id); err != nil {
		WriteError(w, r, h.logger, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{"message": "invitation cancelled"})
}

// ShowInvitation resolves an invite token so the client can render the
// accept form. Expired invitations come back 410.
func (h *UserHandler) ShowInvitation(w http.ResponseWriter, r *http.Request) {
	token := r.URL.Query().Get("token")
	if token == "" {
		WriteError(w, r, h.logger, domain.Invalid("invite.show", "missing invite token"))
		return
	}

	inv, err := h.invites.GetByToken(r.Context(), token)
	if err != nil {
		WriteError(w, r, h.logger, err)
		return
	}
	if inv.Status == domain.InvitationExpired {
		WriteError(w, r, h.logger, domain.Errorf(domain.EINVITATIONEXPIRED, "invite.show", "This invitation has expired"))
		return
	}
	if inv.Status != domain.InvitationPending {
		WriteError(w, r, h.logger, domain.Errorf(domain.EINVITATIONNOTPENDING, "invite.show", "This invitation is no longer valid"))
		return
	}

	writeJSON(w, http.StatusOK, toInvitationView(inv))
}

type acceptInviteRequest struct {
	Token    string `json:"token"`
	Name     string `json:"name"`
	Password string `json:"password"`
}

// AcceptInvitation consumes a pending invitation and creates the user.
func (h *UserHandler) AcceptInvitation(w http.ResponseWriter, r *http.Request) {
	var req acceptInviteRequest
	if err := decodeJSON(r, &req); err != nil {
		WriteError(w, r, h.logger, domain.Invalid("invite.accept", "invalid request body"))
		return
	}

	user, err := h.invites.Accept(r.Context(), domain.AcceptInvitationParams{
		Token:    req.Token,
		Name:     req.Name,
		Password: req.Password,
	})
	if err != nil {
		WriteError(w, r, h.logger, err)
		return
	}

	writeJSON(w, http.StatusCreated, toUserView(user))
}

package handler

import (
	"log/slog"
	"net/http"

	"github.com/tenagalabs/jejak/internal/auth"
	"github.com/tenagalabs/jejak/internal/domain"
	"github.com/tenagalabs/jejak/internal/service"
)

// AuditHandler serves the tenant audit trail.
type AuditHandler struct {
	audit  service.AuditService
	logger *slog.Logger
}

// NewAuditHandler creates an AuditHandler.
func NewAuditHandler(audit service.AuditService, logger *slog.Logger) *AuditHandler {
	return &AuditHandler{audit: audit, logger: logger}
}

// RegisterRoutes registers the audit routes. Appending is open to any
// authenticated member since every role performs audited actions;
// reading the trail stays behind the audit permission.
func (h *AuditHandler) RegisterRoutes(
	mux *http.ServeMux,
	requireAuth func(http.Handler) http.Handler,
	requirePerm func(domain.Permission, http.Handler) http.Handler,
) {
	mux.Handle("GET /api/audit-logs", requirePerm(domain.PermAuditView, http.HandlerFunc(h.List)))
	mux.Handle("POST /api/audit-logs", requireAuth(http.HandlerFunc(h.Append)))
}

// List returns the tenant's audit records, newest first.
func (h *AuditHandler) List(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()

	logs, err := h.audit.List(r.Context(), auth.TenantID(r.Context()),
		parseInt32(q.Get("limit"), 50),
		parseInt32(q.Get("offset"), 0))
	if err != nil {
		WriteError(w, r, h.logger, err)
		return
	}

	writeJSON(w, http.StatusOK, toAuditViews(logs))
}

type appendAuditRequest struct {
	Action   string `json:"action"`
	Resource string `json:"resource"`
	Detail   string `json:"detail"`
}

// Append records a client-originated audit event for the caller's tenant.
func (h *AuditHandler) Append(w http.ResponseWriter, r *http.Request) {
	user := auth.GetUserFromRequest(r)

	var req appendAuditRequest
	if err := decodeJSON(r, &req); err != nil {
		WriteError(w, r, h.logger, domain.Invalid("audit.append", "invalid request body"))
		return
	}
	if req.Action == "" {
		WriteError(w, r, h.logger, domain.Invalid("audit.append", "action is required"))
		return
	}

	h.audit.Record(r.Context(), domain.AppendAuditParams{
		TenantID: user.TenantID,
		ActorID:  user.ID,
		Action:   domain.AuditAction(req.Action),
		Resource: req.Resource,
		Detail:   req.Detail,
		IP:       requestIP(r),
	})

	writeJSON(w, http.StatusCreated, map[string]string{"message": "recorded"})
}

package handler

import (
	"log/slog"
	"net/http"

	"github.com/google/uuid"

	"github.com/tenagalabs/jejak/internal/auth"
	"github.com/tenagalabs/jejak/internal/domain"
	"github.com/tenagalabs/jejak/internal/ratelimit"
	"github.com/tenagalabs/jejak/internal/service"
)

// SystemHandler exposes the superadmin settings surface: short-window
// rate limits, per-tier monthly quotas, and counter resets.
type SystemHandler struct {
	settings service.SettingsService
	limiter  *ratelimit.Limiter
	audit    service.AuditService
	logger   *slog.Logger
}

// NewSystemHandler creates a SystemHandler.
func NewSystemHandler(settings service.SettingsService, limiter *ratelimit.Limiter, audit service.AuditService, logger *slog.Logger) *SystemHandler {
	return &SystemHandler{
		settings: settings,
		limiter:  limiter,
		audit:    audit,
		logger:   logger,
	}
}

// RegisterRoutes registers the system routes. All require superadmin.
func (h *SystemHandler) RegisterRoutes(mux *http.ServeMux, requireSuperadmin func(http.Handler) http.Handler) {
	mux.Handle("GET /api/system-admin/rate-limits", requireSuperadmin(http.HandlerFunc(h.GetSettings)))
	mux.Handle("PATCH /api/system-admin/rate-limits", requireSuperadmin(http.HandlerFunc(h.UpdateSettings)))
	mux.Handle("POST /api/system-admin/rate-limits", requireSuperadmin(http.HandlerFunc(h.ResetCounters)))
}

type settingsResponse struct {
	RateLimits domain.RateLimitConfig `json:"rateLimits"`
	Quotas     domain.QuotaConfig     `json:"quotas"`
}

// GetSettings returns the live settings, bypassing the cache so an
// operator always sees the stored values.
func (h *SystemHandler) GetSettings(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, settingsResponse{
		RateLimits: h.settings.RateLimitConfig(r.Context(), true),
		Quotas:     h.settings.QuotaConfig(r.Context(), true),
	})
}

type updateSettingsRequest struct {
	RateLimits *domain.RateLimitConfig `json:"rateLimits"`
	Quotas     *domain.QuotaConfig     `json:"quotas"`
}

// UpdateSettings validates and persists new limits. Fields left out of
// the request keep their stored values.
func (h *SystemHandler) UpdateSettings(w http.ResponseWriter, r *http.Request) {
	const op = "system.update_settings"
	user := auth.GetUserFromRequest(r)

	var req updateSettingsRequest
	if err := decodeJSON(r, &req); err != nil {
		WriteError(w, r, h.logger, domain.Invalid(op, "invalid request body"))
		return
	}
	if req.RateLimits == nil && req.Quotas == nil {
		WriteError(w, r, h.logger, domain.Invalid(op, "nothing to update"))
		return
	}

	rateLimits := h.settings.RateLimitConfig(r.Context(), true)
	quotas := h.settings.QuotaConfig(r.Context(), true)
	if req.RateLimits != nil {
		rateLimits = *req.RateLimits
	}
	if req.Quotas != nil {
		quotas = *req.Quotas
	}

	if err := h.settings.Update(r.Context(), rateLimits, quotas); err != nil {
		WriteError(w, r, h.logger, err)
		return
	}

	h.audit.Record(r.Context(), domain.AppendAuditParams{
		TenantID: user.TenantID,
		ActorID:  user.ID,
		Action:   domain.AuditRateLimitsUpdated,
		Resource: "system:settings",
		Detail:   "rate limits and quotas updated",
		IP:       requestIP(r),
	})

	writeJSON(w, http.StatusOK, settingsResponse{
		RateLimits: rateLimits,
		Quotas:     quotas,
	})
}

type resetCountersRequest struct {
	TenantID  uuid.UUID `json:"tenantId"`
	Operation string    `json:"operation"` // Empty clears all operations
}

// ResetCounters zeroes a tenant's short-window counters. Used when an
// operator unblocks a tenant after a runaway client.
func (h *SystemHandler) ResetCounters(w http.ResponseWriter, r *http.Request) {
	const op = "system.reset_counters"
	user := auth.GetUserFromRequest(r)

	var req resetCountersRequest
	if err := decodeJSON(r, &req); err != nil {
		WriteError(w, r, h.logger, domain.Invalid(op, "invalid request body"))
		return
	}
	if req.TenantID == uuid.Nil {
		WriteError(w, r, h.logger, domain.Invalid(op, "tenantId is required"))
		return
	}

	operation := domain.Operation(req.Operation)
	if req.Operation != "" && !operation.Valid() {
		WriteError(w, r, h.logger, domain.Invalid(op, "operation must be bill_analysis or report_generation"))
		return
	}

	if err := h.limiter.Clear(r.Context(), req.TenantID, operation); err != nil {
		WriteError(w, r, h.logger, domain.Internal(err, op, "failed to clear counters"))
		return
	}

	h.audit.Record(r.Context(), domain.AppendAuditParams{
		TenantID: req.TenantID,
		ActorID:  user.ID,
		Action:   domain.AuditCountersCleared,
		Resource: "tenant:" + req.TenantID.String(),
		Detail:   "rate limit counters cleared",
		IP:       requestIP(r),
	})

	writeJSON(w, http.StatusOK, map[string]string{"message": "counters cleared"})
}

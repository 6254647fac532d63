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

// TenantHandler handles tenant registration, profile, quota and usage routes.
type TenantHandler struct {
	tenants  service.TenantService
	quota    service.QuotaService
	settings service.SettingsService
	limiter  *ratelimit.Limiter
	logger   *slog.Logger
}

// NewTenantHandler creates a TenantHandler.
func NewTenantHandler(tenants service.TenantService, quota service.QuotaService, settings service.SettingsService, limiter *ratelimit.Limiter, logger *slog.Logger) *TenantHandler {
	return &TenantHandler{tenants: tenants, quota: quota, settings: settings, limiter: limiter, logger: logger}
}

// RegisterRoutes registers the tenant routes. Registration is public;
// everything else requires authentication.
func (h *TenantHandler) RegisterRoutes(
	mux *http.ServeMux,
	requirePerm func(domain.Permission, http.Handler) http.Handler,
	requireSuperadmin func(http.Handler) http.Handler,
) {
	mux.Handle("POST /api/tenants", http.HandlerFunc(h.Register))
	mux.Handle("GET /api/tenant", requirePerm(domain.PermTenantView, http.HandlerFunc(h.Current)))
	mux.Handle("GET /api/tenant/quota", requirePerm(domain.PermTenantView, http.HandlerFunc(h.Quota)))
	mux.Handle("GET /api/tenant/usage", requirePerm(domain.PermTenantView, http.HandlerFunc(h.Usage)))
	mux.Handle("PATCH /api/tenants/{id}/tier", requireSuperadmin(http.HandlerFunc(h.UpdateTier)))
}

type registerTenantRequest struct {
	Name          string `json:"name"`
	UEN           string `json:"uen"`
	ContactName   string `json:"contactName"`
	Phone         string `json:"phone"`
	AdminEmail    string `json:"adminEmail"`
	AdminPassword string `json:"adminPassword"`
	AdminName     string `json:"adminName"`
}

type registerTenantResponse struct {
	Tenant tenantView `json:"tenant"`
	Admin  userView   `json:"admin"`
}

// Register creates a new tenant on the trial tier with its first admin.
func (h *TenantHandler) Register(w http.ResponseWriter, r *http.Request) {
	var req registerTenantRequest
	if err := decodeJSON(r, &req); err != nil {
		WriteError(w, r, h.logger, domain.Invalid("tenant.register", "invalid request body"))
		return
	}

	tenant, admin, err := h.tenants.Create(r.Context(), domain.CreateTenantParams{
		Name:        req.Name,
		UEN:         req.UEN,
		Tier:        domain.TierTrial,
		ContactName: req.ContactName,
		Phone:       req.Phone,
	}, req.AdminEmail, req.AdminPassword, req.AdminName)
	if err != nil {
		WriteError(w, r, h.logger, err)
		return
	}

	writeJSON(w, http.StatusCreated, registerTenantResponse{
		Tenant: toTenantView(tenant),
		Admin:  toUserView(admin),
	})
}

// Current returns the caller's tenant profile.
func (h *TenantHandler) Current(w http.ResponseWriter, r *http.Request) {
	tenant, err := h.tenants.Get(r.Context(), auth.TenantID(r.Context()))
	if err != nil {
		WriteError(w, r, h.logger, err)
		return
	}

	writeJSON(w, http.StatusOK, toTenantView(tenant))
}

// Quota returns the tenant's current-month quota consumption.
func (h *TenantHandler) Quota(w http.ResponseWriter, r *http.Request) {
	usage, err := h.quota.Usage(r.Context(), auth.TenantID(r.Context()))
	if err != nil {
		WriteError(w, r, h.logger, err)
		return
	}

	writeJSON(w, http.StatusOK, toUsageView(usage))
}

// Usage returns the tenant's short-window rate limit consumption, with
// the share of each minute window already used.
func (h *TenantHandler) Usage(w http.ResponseWriter, r *http.Request) {
	tenantID := auth.TenantID(r.Context())
	cfg := h.settings.RateLimitConfig(r.Context(), false)

	var view rateUsageView
	for _, op := range []domain.Operation{domain.OpBillAnalysis, domain.OpReportGeneration} {
		status, err := h.limiter.Status(r.Context(), tenantID, op, cfg.ForOperation(op))
		if err != nil {
			WriteError(w, r, h.logger, err)
			return
		}
		switch op {
		case domain.OpBillAnalysis:
			view.BillAnalysis = toRateWindowView(status)
		case domain.OpReportGeneration:
			view.ReportGeneration = toRateWindowView(status)
		}
	}

	writeJSON(w, http.StatusOK, view)
}

type updateTierRequest struct {
	Tier string `json:"tier"`
}

// UpdateTier changes a tenant's subscription tier. Superadmin only.
func (h *TenantHandler) UpdateTier(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		WriteError(w, r, h.logger, domain.Invalid("tenant.update_tier", "invalid tenant ID"))
		return
	}

	var req updateTierRequest
	if err := decodeJSON(r, &req); err != nil {
		WriteError(w, r, h.logger, domain.Invalid("tenant.update_tier", "invalid request body"))
		return
	}

	tier := domain.SubscriptionTier(req.Tier)
	if !tier.Valid() {
		WriteError(w, r, h.logger, domain.Invalid("tenant.update_tier", "tier must be trial, standard, premium or enterprise"))
		return
	}

	if err := h.tenants.UpdateTier(r.Context(), id, tier); err != nil {
		WriteError(w, r, h.logger, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{"message": "tier updated"})
}

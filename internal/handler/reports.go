package handler

import (
	"log/slog"
	"net/http"

	"github.com/google/uuid"

	"github.com/tenagalabs/jejak/internal/auth"
	"github.com/tenagalabs/jejak/internal/domain"
	"github.com/tenagalabs/jejak/internal/service"
)

// ReportHandler handles ESG report requests and downloads.
type ReportHandler struct {
	reports service.ReportService
	logger  *slog.Logger
}

// NewReportHandler creates a ReportHandler.
func NewReportHandler(reports service.ReportService, logger *slog.Logger) *ReportHandler {
	return &ReportHandler{reports: reports, logger: logger}
}

// RegisterRoutes registers the report routes. The request route is
// additionally wrapped by the caller with the report generation gate.
func (h *ReportHandler) RegisterRoutes(
	mux *http.ServeMux,
	requirePerm func(domain.Permission, http.Handler) http.Handler,
	guardGenerate func(http.Handler) http.Handler,
) {
	mux.Handle("POST /api/reports",
		requirePerm(domain.PermReportGenerate, guardGenerate(http.HandlerFunc(h.Request))))
	mux.Handle("GET /api/reports", requirePerm(domain.PermReportView, http.HandlerFunc(h.List)))
	mux.Handle("GET /api/reports/{id}", requirePerm(domain.PermReportView, http.HandlerFunc(h.Get)))
	mux.Handle("GET /api/reports/{id}/download", requirePerm(domain.PermReportView, http.HandlerFunc(h.Download)))
}

type createReportRequest struct {
	Title       string `json:"title"`
	Format      string `json:"format"`      // csv or html
	PeriodStart string `json:"periodStart"` // YYYY-MM-DD
	PeriodEnd   string `json:"periodEnd"`
}

// Request queues a report for generation.
func (h *ReportHandler) Request(w http.ResponseWriter, r *http.Request) {
	user := auth.GetUserFromRequest(r)

	var req createReportRequest
	if err := decodeJSON(r, &req); err != nil {
		WriteError(w, r, h.logger, domain.Invalid("report.request", "invalid request body"))
		return
	}

	periodStart, err := parseDate(req.PeriodStart)
	if err != nil {
		WriteError(w, r, h.logger, domain.Invalid("report.request", "periodStart must be YYYY-MM-DD"))
		return
	}
	periodEnd, err := parseDate(req.PeriodEnd)
	if err != nil {
		WriteError(w, r, h.logger, domain.Invalid("report.request", "periodEnd must be YYYY-MM-DD"))
		return
	}

	report, err := h.reports.Request(r.Context(), user, domain.CreateReportParams{
		TenantID:    user.TenantID,
		RequestedBy: user.ID,
		Title:       req.Title,
		Format:      domain.ReportFormat(req.Format),
		PeriodStart: periodStart,
		PeriodEnd:   periodEnd,
	})
	if err != nil {
		WriteError(w, r, h.logger, err)
		return
	}

	writeJSON(w, http.StatusAccepted, toReportView(report))
}

// Get fetches one report's status.
func (h *ReportHandler) Get(w http.ResponseWriter, r *http.Request) {
	user := auth.GetUserFromRequest(r)

	id, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		WriteError(w, r, h.logger, domain.Invalid("report.get", "invalid report ID"))
		return
	}

	report, err := h.reports.Get(r.Context(), user.TenantID, id)
	if err != nil {
		WriteError(w, r, h.logger, err)
		return
	}

	writeJSON(w, http.StatusOK, toReportView(report))
}

// List returns the tenant's reports, newest first.
func (h *ReportHandler) List(w http.ResponseWriter, r *http.Request) {
	user := auth.GetUserFromRequest(r)

	reports, err := h.reports.List(r.Context(), user.TenantID, parseInt32(r.URL.Query().Get("limit"), 50))
	if err != nil {
		WriteError(w, r, h.logger, err)
		return
	}

	views := make([]reportView, 0, len(reports))
	for _, rep := range reports {
		views = append(views, toReportView(rep))
	}
	writeJSON(w, http.StatusOK, views)
}

// Download redirects to a short-lived URL for the rendered artifact.
func (h *ReportHandler) Download(w http.ResponseWriter, r *http.Request) {
	user := auth.GetUserFromRequest(r)

	id, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		WriteError(w, r, h.logger, domain.Invalid("report.download", "invalid report ID"))
		return
	}

	url, err := h.reports.DownloadURL(r.Context(), user.TenantID, id)
	if err != nil {
		WriteError(w, r, h.logger, err)
		return
	}

	http.Redirect(w, r, url, http.StatusTemporaryRedirect)
}

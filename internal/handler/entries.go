package handler

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/google/uuid"

	"github.com/tenagalabs/jejak/internal/auth"
	"github.com/tenagalabs/jejak/internal/domain"
	"github.com/tenagalabs/jejak/internal/jobs"
	"github.com/tenagalabs/jejak/internal/metrics"
	"github.com/tenagalabs/jejak/internal/repository"
	"github.com/tenagalabs/jejak/internal/service"
	"github.com/tenagalabs/jejak/internal/storage"
)

// maxBillUploadSize caps bill uploads at 20MB, matching the AI
// provider's document size limit.
const maxBillUploadSize = 20 * 1024 * 1024

// EntryHandler handles emission entry CRUD and bill analysis uploads.
type EntryHandler struct {
	entries service.EntryService
	queries *repository.Queries
	store   storage.Storage
	logger  *slog.Logger
}

// NewEntryHandler creates an EntryHandler.
func NewEntryHandler(entries service.EntryService, queries *repository.Queries, store storage.Storage, logger *slog.Logger) *EntryHandler {
	return &EntryHandler{
		entries: entries,
		queries: queries,
		store:   store,
		logger:  logger,
	}
}

// RegisterRoutes registers the entry routes. The analyze route is
// additionally wrapped by the caller with the bill analysis gate.
func (h *EntryHandler) RegisterRoutes(
	mux *http.ServeMux,
	requirePerm func(domain.Permission, http.Handler) http.Handler,
	guardAnalyze func(http.Handler) http.Handler,
) {
	mux.Handle("POST /api/entries", requirePerm(domain.PermEntryCreate, http.HandlerFunc(h.Create)))
	mux.Handle("GET /api/entries", requirePerm(domain.PermEntryView, http.HandlerFunc(h.List)))
	mux.Handle("GET /api/entries/summary", requirePerm(domain.PermEntryView, http.HandlerFunc(h.Summary)))
	mux.Handle("GET /api/entries/{id}", requirePerm(domain.PermEntryView, http.HandlerFunc(h.Get)))
	mux.Handle("DELETE /api/entries/{id}", requirePerm(domain.PermEntryDelete, http.HandlerFunc(h.Delete)))
	mux.Handle("POST /api/entries/analyze",
		requirePerm(domain.PermBillAnalyze, guardAnalyze(http.HandlerFunc(h.Analyze))))
}

type createEntryRequest struct {
	UtilityType string  `json:"utilityType"`
	Provider    string  `json:"provider"`
	PeriodStart string  `json:"periodStart"` // YYYY-MM-DD
	PeriodEnd   string  `json:"periodEnd"`
	Consumption float64 `json:"consumption"`
	AmountMYR   float64 `json:"amountMyr"`
}

// Create inserts a manual entry.
func (h *EntryHandler) Create(w http.ResponseWriter, r *http.Request) {
	user := auth.GetUserFromRequest(r)

	var req createEntryRequest
	if err := decodeJSON(r, &req); err != nil {
		WriteError(w, r, h.logger, domain.Invalid("entry.create", "invalid request body"))
		return
	}

	periodStart, err := parseDate(req.PeriodStart)
	if err != nil {
		WriteError(w, r, h.logger, domain.Invalid("entry.create", "periodStart must be YYYY-MM-DD"))
		return
	}
	periodEnd, err := parseDate(req.PeriodEnd)
	if err != nil {
		WriteError(w, r, h.logger, domain.Invalid("entry.create", "periodEnd must be YYYY-MM-DD"))
		return
	}

	entry, err := h.entries.Create(r.Context(), user, domain.CreateEntryParams{
		TenantID:    user.TenantID,
		CreatedBy:   user.ID,
		UtilityType: domain.UtilityType(req.UtilityType),
		Provider:    req.Provider,
		PeriodStart: periodStart,
		PeriodEnd:   periodEnd,
		Consumption: req.Consumption,
		AmountMYR:   req.AmountMYR,
		Source:      domain.EntrySourceManual,
	})
	if err != nil {
		WriteError(w, r, h.logger, err)
		return
	}

	metrics.EntriesCreated.WithLabelValues(string(entry.UtilityType), string(entry.Source)).Inc()
	writeJSON(w, http.StatusCreated, toEntryView(entry))
}

// Get fetches one entry.
func (h *EntryHandler) Get(w http.ResponseWriter, r *http.Request) {
	user := auth.GetUserFromRequest(r)

	id, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		WriteError(w, r, h.logger, domain.Invalid("entry.get", "invalid entry ID"))
		return
	}

	entry, err := h.entries.Get(r.Context(), user.TenantID, id)
	if err != nil {
		WriteError(w, r, h.logger, err)
		return
	}

	writeJSON(w, http.StatusOK, toEntryView(entry))
}

// List returns the tenant's entries, filtered by query parameters.
func (h *EntryHandler) List(w http.ResponseWriter, r *http.Request) {
	user := auth.GetUserFromRequest(r)
	q := r.URL.Query()

	params := domain.ListEntriesParams{
		TenantID:    user.TenantID,
		UtilityType: domain.UtilityType(q.Get("utilityType")),
		Limit:       parseInt32(q.Get("limit"), 50),
		Offset:      parseInt32(q.Get("offset"), 0),
	}
	if from := q.Get("from"); from != "" {
		t, err := parseDate(from)
		if err != nil {
			WriteError(w, r, h.logger, domain.Invalid("entry.list", "from must be YYYY-MM-DD"))
			return
		}
		params.From = t
	}
	if to := q.Get("to"); to != "" {
		t, err := parseDate(to)
		if err != nil {
			WriteError(w, r, h.logger, domain.Invalid("entry.list", "to must be YYYY-MM-DD"))
			return
		}
		params.To = t
	}

	entries, err := h.entries.List(r.Context(), params)
	if err != nil {
		WriteError(w, r, h.logger, err)
		return
	}

	writeJSON(w, http.StatusOK, toEntryViews(entries))
}

// Summary aggregates consumption and emissions per utility type.
func (h *EntryHandler) Summary(w http.ResponseWriter, r *http.Request) {
	user := auth.GetUserFromRequest(r)
	q := r.URL.Query()

	// Default to the trailing twelve months.
	to := time.Now().UTC()
	from := to.AddDate(-1, 0, 0)
	if v := q.Get("from"); v != "" {
		t, err := parseDate(v)
		if err != nil {
			WriteError(w, r, h.logger, domain.Invalid("entry.summary", "from must be YYYY-MM-DD"))
			return
		}
		from = t
	}
	if v := q.Get("to"); v != "" {
		t, err := parseDate(v)
		if err != nil {
			WriteError(w, r, h.logger, domain.Invalid("entry.summary", "to must be YYYY-MM-DD"))
			return
		}
		to = t
	}

	rows, err := h.entries.Summary(r.Context(), user.TenantID, from, to)
	if err != nil {
		WriteError(w, r, h.logger, err)
		return
	}

	writeJSON(w, http.StatusOK, toSummaryViews(rows))
}

// Delete removes an entry.
func (h *EntryHandler) Delete(w http.ResponseWriter, r *http.Request) {
	user := auth.GetUserFromRequest(r)

	id, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		WriteError(w, r, h.logger, domain.Invalid("entry.delete", "invalid entry ID"))
		return
	}

	if err := h.entries.Delete(r.Context(), user, id); err != nil {
		WriteError(w, r, h.logger, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{"message": "entry deleted"})
}

type analyzeResponse struct {
	Message  string `json:"message"`
	ImageKey string `json:"imageKey"`
}

// Analyze accepts a multipart bill upload, stores the image, and
// enqueues the extraction job. The gate has already rate-limited the
// request and verified quota headroom; the job consumes the quota when
// the analysis succeeds.
func (h *EntryHandler) Analyze(w http.ResponseWriter, r *http.Request) {
	const op = "entry.analyze"
	user := auth.GetUserFromRequest(r)

	r.Body = http.MaxBytesReader(w, r.Body, maxBillUploadSize)
	if err := r.ParseMultipartForm(maxBillUploadSize); err != nil {
		WriteError(w, r, h.logger, domain.Errorf(domain.ETOOLARGE, op, "bill upload exceeds the %dMB limit", maxBillUploadSize/(1024*1024)))
		return
	}

	file, header, err := r.FormFile("bill")
	if err != nil {
		WriteError(w, r, h.logger, domain.Invalid(op, "missing bill file; upload as multipart field \"bill\""))
		return
	}
	defer file.Close()

	contentType := storage.DetectContentType(header.Header.Get("Content-Type"), header.Filename, file)
	if !storage.IsAllowedBillType(contentType) {
		WriteError(w, r, h.logger, domain.Invalid(op, "unsupported file type; upload a JPEG, PNG, WebP, HEIC image or a PDF"))
		return
	}
	if _, err := file.Seek(0, 0); err != nil {
		WriteError(w, r, h.logger, domain.Internal(err, op, "failed to read upload"))
		return
	}

	key := storage.BillImageKey(user.TenantID, header.Filename)
	if err := h.store.Put(r.Context(), key, file, storage.PutOptions{
		ContentType: contentType,
		MaxSize:     maxBillUploadSize,
	}); err != nil {
		if storage.IsTooLarge(err) {
			WriteError(w, r, h.logger, domain.Errorf(domain.ETOOLARGE, op, "bill upload exceeds the %dMB limit", maxBillUploadSize/(1024*1024)))
			return
		}
		WriteError(w, r, h.logger, domain.Internal(err, op, "failed to store bill image"))
		return
	}

	payload, err := json.Marshal(jobs.AnalyzeBillPayload{
		TenantID:    user.TenantID,
		UserID:      user.ID,
		ImageKey:    key,
		ContentType: contentType,
	})
	if err != nil {
		WriteError(w, r, h.logger, domain.Internal(err, op, "failed to build job payload"))
		return
	}

	if _, err := h.queries.EnqueueJob(r.Context(), repository.EnqueueJobParams{
		JobType:     jobs.JobTypeAnalyzeBill,
		Payload:     payload,
		Priority:    0,
		MaxAttempts: 3,
		ScheduledAt: time.Now(),
	}); err != nil {
		WriteError(w, r, h.logger, domain.Internal(err, op, "failed to enqueue analysis"))
		return
	}

	h.logger.Info("bill analysis queued",
		"tenant_id", user.TenantID,
		"user_id", user.ID,
		"image_key", key,
		"content_type", contentType)

	writeJSON(w, http.StatusAccepted, analyzeResponse{
		Message:  "bill queued for analysis",
		ImageKey: key,
	})
}

// parseDate parses a YYYY-MM-DD date in UTC.
func parseDate(s string) (time.Time, error) {
	t, err := time.Parse("2006-01-02", s)
	if err != nil {
		return time.Time{}, fmt.Errorf("parse date %q: %w", s, err)
	}
	return t, nil
}

// parseInt32 parses a query integer with a fallback.
func parseInt32(s string, fallback int32) int32 {
	if s == "" {
		return fallback
	}
	var n int32
	if _, err := fmt.Sscanf(s, "%d", &n); err != nil {
		return fallback
	}
	return n
}

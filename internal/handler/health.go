package handler

import (
	"context"
	"database/sql"
	"net/http"
	"time"
)

// HealthHandler serves the liveness probe.
type HealthHandler struct {
	db *sql.DB
}

// NewHealthHandler creates a HealthHandler.
func NewHealthHandler(db *sql.DB) *HealthHandler {
	return &HealthHandler{db: db}
}

// RegisterRoutes registers the health route.
func (h *HealthHandler) RegisterRoutes(mux *http.ServeMux) {
	mux.Handle("GET /health", http.HandlerFunc(h.Health))
}

// Health reports service and database liveness.
func (h *HealthHandler) Health(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
	defer cancel()

	if err := h.db.PingContext(ctx); err != nil {
		writeErrorEnvelope(w, http.StatusServiceUnavailable, "unavailable", "database unreachable", nil)
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

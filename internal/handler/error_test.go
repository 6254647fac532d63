package handler

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tenagalabs/jejak/internal/domain"
)

func writeErrorFor(t *testing.T, err error) *httptest.ResponseRecorder {
	t.Helper()
	logger := slog.New(slog.NewTextHandler(os.Stderr, nil))
	req := httptest.NewRequest(http.MethodGet, "/api/test", nil)
	rec := httptest.NewRecorder()
	WriteError(rec, req, logger, err)
	return rec
}

func TestWriteError_StatusMapping(t *testing.T) {
	testCases := []struct {
		name   string
		err    error
		status int
		code   string
	}{
		{"invalid", domain.Invalid("op", "bad input"), http.StatusBadRequest, domain.EINVALID},
		{"unauthorized", domain.Unauthorized("op", "no session"), http.StatusUnauthorized, domain.EUNAUTHORIZED},
		{"forbidden", domain.Forbidden("op", "no permission"), http.StatusForbidden, domain.EFORBIDDEN},
		{"not found", domain.NotFound("op", "entry", "abc"), http.StatusNotFound, domain.ENOTFOUND},
		{"conflict", domain.Conflict("op", "duplicate"), http.StatusConflict, domain.ECONFLICT},
		{"gone", domain.Errorf(domain.EGONE, "op", "expired"), http.StatusGone, domain.EGONE},
		{"invitation expired", domain.Errorf(domain.EINVITATIONEXPIRED, "op", "expired"), http.StatusGone, domain.EINVITATIONEXPIRED},
		{"invitation not pending", domain.Errorf(domain.EINVITATIONNOTPENDING, "op", "consumed"), http.StatusGone, domain.EINVITATIONNOTPENDING},
		{"internal", domain.Internal(errors.New("boom"), "op", "failed"), http.StatusInternalServerError, domain.EINTERNAL},
		{"plain error", errors.New("unexpected"), http.StatusInternalServerError, domain.EINTERNAL},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			rec := writeErrorFor(t, tc.err)
			assert.Equal(t, tc.status, rec.Code)

			var body envelope
			require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
			assert.False(t, body.Success)
			assert.Equal(t, tc.code, body.Code)
		})
	}
}

func TestWriteError_QuotaHeaders(t *testing.T) {
	reset := time.Date(2026, 9, 1, 0, 0, 0, 0, time.UTC)
	rec := writeErrorFor(t, domain.QuotaExceeded("op", domain.OpBillAnalysis, 10, 10, reset))

	assert.Equal(t, http.StatusTooManyRequests, rec.Code)
	assert.Equal(t, "10", rec.Header().Get("X-Quota-Limit"))
	assert.Equal(t, "0", rec.Header().Get("X-Quota-Remaining"))
	assert.Equal(t, "2026-09-01T00:00:00Z", rec.Header().Get("X-Quota-Reset"))

	var body envelope
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, domain.EQUOTA, body.Code)
}

func TestWriteError_UnlimitedQuotaReportsMinusOne(t *testing.T) {
	rec := writeErrorFor(t, domain.QuotaExceeded("op", domain.OpBillAnalysis, 5, domain.Unlimited, time.Now()))

	assert.Equal(t, "-1", rec.Header().Get("X-Quota-Limit"))
	assert.Equal(t, "-1", rec.Header().Get("X-Quota-Remaining"))
}

func TestWriteError_RateLimitRetryAfter(t *testing.T) {
	reset := time.Now().Add(30 * time.Second)
	rec := writeErrorFor(t, domain.RateLimited("op", domain.OpReportGeneration, 3, 2, reset))

	assert.Equal(t, http.StatusTooManyRequests, rec.Code)
	assert.NotEmpty(t, rec.Header().Get("Retry-After"))
	assert.Equal(t, "2", rec.Header().Get("X-Quota-Limit"))

	var body envelope
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, domain.ERATELIMIT, body.Code)
}

func TestWriteError_ValidationFields(t *testing.T) {
	rec := writeErrorFor(t, domain.NewValidationError("op", "email", "email is required"))

	assert.Equal(t, http.StatusBadRequest, rec.Code)

	var body envelope
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "email is required", body.Fields["email"])
}

func TestWriteJSON_Envelope(t *testing.T) {
	rec := httptest.NewRecorder()
	writeJSON(rec, http.StatusCreated, map[string]string{"id": "abc"})

	assert.Equal(t, http.StatusCreated, rec.Code)
	assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))

	var body struct {
		Success bool              `json:"success"`
		Data    map[string]string `json:"data"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.True(t, body.Success)
	assert.Equal(t, "abc", body.Data["id"])
}

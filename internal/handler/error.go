package handler

import (
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/tenagalabs/jejak/internal/domain"
)

// codeToStatus maps domain error codes to HTTP status codes.
var codeToStatus = map[string]int{
	domain.EINVALID:      http.StatusBadRequest,
	domain.EUNAUTHORIZED: http.StatusUnauthorized,
	domain.EFORBIDDEN:    http.StatusForbidden,
	domain.ENOTFOUND:     http.StatusNotFound,
	domain.ECONFLICT:     http.StatusConflict,
	domain.EGONE:         http.StatusGone,

	domain.EINVITATIONEXPIRED:    http.StatusGone,
	domain.EINVITATIONNOTPENDING: http.StatusGone,

	domain.ETOOLARGE:     http.StatusRequestEntityTooLarge,
	domain.ERATELIMIT:    http.StatusTooManyRequests,
	domain.EQUOTA:        http.StatusTooManyRequests,
	domain.EEXTERNAL:     http.StatusBadGateway,
	domain.EINTERNAL:     http.StatusInternalServerError,
	domain.ENOTIMPL:      http.StatusNotImplemented,
}

// WriteError translates a domain error into the response envelope.
// Quota and rate-limit rejections carry the X-Quota-* headers so
// clients can back off intelligently.
func WriteError(w http.ResponseWriter, r *http.Request, logger *slog.Logger, err error) {
	var quotaErr *domain.QuotaError
	if errors.As(err, &quotaErr) {
		setQuotaHeaders(w, quotaErr.Current, quotaErr.Limit, quotaErr.ResetTime)
		writeErrorEnvelope(w, http.StatusTooManyRequests, domain.EQUOTA, domain.ErrorMessage(err), nil)
		return
	}

	var rateErr *domain.RateLimitError
	if errors.As(err, &rateErr) {
		setQuotaHeaders(w, rateErr.Current, rateErr.Limit, rateErr.ResetTime)
		if retryAfter := int(time.Until(rateErr.ResetTime).Seconds()); retryAfter > 0 {
			w.Header().Set("Retry-After", strconv.Itoa(retryAfter))
		}
		writeErrorEnvelope(w, http.StatusTooManyRequests, domain.ERATELIMIT, domain.ErrorMessage(err), nil)
		return
	}

	var valErr *domain.ValidationError
	if errors.As(err, &valErr) {
		writeErrorEnvelope(w, http.StatusBadRequest, domain.EINVALID, "validation failed", valErr.Fields)
		return
	}

	code := domain.ErrorCode(err)
	status, ok := codeToStatus[code]
	if !ok {
		status = http.StatusInternalServerError
	}
	if status >= 500 {
		logger.Error("request failed",
			"method", r.Method,
			"path", r.URL.Path,
			"op", domain.ErrorOp(err),
			"error", err)
	}

	writeErrorEnvelope(w, status, code, domain.ErrorMessage(err), nil)
}

// setQuotaHeaders writes the limit headers. A limit of -1 (unlimited)
// reports remaining -1.
func setQuotaHeaders(w http.ResponseWriter, current, limit int64, reset time.Time) {
	remaining := int64(-1)
	if limit >= 0 {
		remaining = limit - current
		if remaining < 0 {
			remaining = 0
		}
	}
	w.Header().Set("X-Quota-Limit", strconv.FormatInt(limit, 10))
	w.Header().Set("X-Quota-Remaining", strconv.FormatInt(remaining, 10))
	w.Header().Set("X-Quota-Reset", reset.UTC().Format(time.RFC3339))
}

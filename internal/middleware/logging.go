package middleware

import (
	"log/slog"
	"net"
	"net/http"
	"strings"
	"time"
)

// RequestLogging logs every API request with timing and status.
type RequestLogging struct {
	logger *slog.Logger
}

// NewRequestLogging creates a RequestLogging middleware.
func NewRequestLogging(logger *slog.Logger) *RequestLogging {
	return &RequestLogging{logger: logger}
}

// Handler returns middleware that logs requests after they complete.
func (m *RequestLogging) Handler(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if shouldSkipLogging(r.URL.Path) {
			next.ServeHTTP(w, r)
			return
		}

		start := time.Now()
		wrapped := &statusWriter{ResponseWriter: w, status: http.StatusOK}

		next.ServeHTTP(wrapped, r)

		attrs := []any{
			"method", r.Method,
			"path", sanitizePath(r.URL.Path, r.URL.RawQuery),
			"status", wrapped.status,
			"duration_ms", time.Since(start).Milliseconds(),
			"ip", clientIP(r),
			"user_agent", r.UserAgent(),
		}

		if wrapped.status >= 500 {
			m.logger.Warn("request", attrs...)
		} else {
			m.logger.Info("request", attrs...)
		}
	})
}

// shouldSkipLogging filters out endpoints polled by infrastructure.
func shouldSkipLogging(path string) bool {
	return path == "/health" || path == "/metrics"
}

// statusWriter captures the response status code.
type statusWriter struct {
	http.ResponseWriter
	status int
}

func (w *statusWriter) WriteHeader(code int) {
	w.status = code
	w.ResponseWriter.WriteHeader(code)
}

// sanitizePath redacts sensitive query parameters before logging.
// Invitation accept links carry their token in the query string.
func sanitizePath(path, rawQuery string) string {
	if rawQuery == "" {
		return path
	}

	sensitive := map[string]bool{
		"token":    true,
		"key":      true,
		"secret":   true,
		"password": true,
	}

	parts := strings.Split(rawQuery, "&")
	safe := make([]string, 0, len(parts))
	for _, part := range parts {
		kv := strings.SplitN(part, "=", 2)
		if len(kv) != 2 {
			continue
		}
		if sensitive[strings.ToLower(kv[0])] {
			safe = append(safe, kv[0]+"=[REDACTED]")
		} else {
			safe = append(safe, part)
		}
	}

	if len(safe) == 0 {
		return path
	}
	return path + "?" + strings.Join(safe, "&")
}

// clientIP resolves the originating client address, honoring common
// proxy headers.
func clientIP(r *http.Request) string {
	if xff := r.Header.Get("X-Forwarded-For"); xff != "" {
		if first := strings.TrimSpace(strings.Split(xff, ",")[0]); first != "" {
			return first
		}
	}
	if xri := r.Header.Get("X-Real-IP"); xri != "" {
		return strings.TrimSpace(xri)
	}
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}

package middleware

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/tenagalabs/jejak/internal/auth"
	"github.com/tenagalabs/jejak/internal/domain"
	"github.com/tenagalabs/jejak/internal/handler"
	"github.com/tenagalabs/jejak/internal/metrics"
	"github.com/tenagalabs/jejak/internal/ratelimit"
	"github.com/tenagalabs/jejak/internal/service"
)

// OperationGate applies the short-window rate limit and a monthly quota
// preflight to routes that trigger expensive operations. It must run
// after RequireAuth.
//
// Order matters: the rate limiter is checked first so a burst at the
// quota boundary is throttled before it reaches the database. The quota
// check here is a read-only preflight; the guarded job consumes the
// quota only after it succeeds.
type OperationGate struct {
	limiter  *ratelimit.Limiter
	quota    service.QuotaService
	settings service.SettingsService
	logger   *slog.Logger
}

// NewOperationGate creates an OperationGate.
func NewOperationGate(limiter *ratelimit.Limiter, quota service.QuotaService, settings service.SettingsService, logger *slog.Logger) *OperationGate {
	return &OperationGate{
		limiter:  limiter,
		quota:    quota,
		settings: settings,
		logger:   logger,
	}
}

// Guard wraps next with rate-limit and quota enforcement for op.
func (g *OperationGate) Guard(op domain.Operation, next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		user := auth.GetUser(r.Context())
		if user == nil {
			handler.WriteError(w, r, g.logger, domain.Unauthorized("gate", "authentication required"))
			return
		}

		// Superadmins bypass both gates entirely; operator actions
		// must never be throttled by tenant limits.
		if user.IsSuperadmin() {
			next.ServeHTTP(w, r)
			return
		}

		limits := g.settings.RateLimitConfig(r.Context(), false).ForOperation(op)
		rlStatus, err := g.limiter.Allow(r.Context(), user.TenantID, op, limits)
		if err != nil {
			handler.WriteError(w, r, g.logger, err)
			return
		}
		if !rlStatus.Allowed {
			metrics.RateLimitRejections.WithLabelValues(string(op), windowLabel(rlStatus.ResetTime)).Inc()
			handler.WriteError(w, r, g.logger,
				domain.RateLimited("gate", op, rlStatus.Current, rlStatus.Limit, rlStatus.ResetTime))
			return
		}

		qStatus, err := g.quota.Check(r.Context(), user, op)
		if err != nil {
			handler.WriteError(w, r, g.logger, err)
			return
		}
		if !qStatus.Allowed {
			metrics.QuotaRejections.WithLabelValues(string(op)).Inc()
			handler.WriteError(w, r, g.logger,
				domain.QuotaExceeded("gate", op, qStatus.Current, qStatus.Limit, qStatus.ResetTime))
			return
		}

		next.ServeHTTP(w, r)
	})
}

// windowLabel buckets a window reset time into the metric label for the
// violated window.
func windowLabel(reset time.Time) string {
	until := time.Until(reset)
	switch {
	case until <= time.Minute:
		return "minute"
	case until <= time.Hour:
		return "hour"
	default:
		return "day"
	}
}

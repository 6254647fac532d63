// Package ratelimit enforces short-window request caps per tenant and
// operation using fixed-window counters held in a pluggable store.
//
// Three windows apply per operation (minute, hour, day). A request is
// admitted only when it fits every window; admission consumes one slot
// in each. Counters expire naturally when their window closes.
package ratelimit

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/tenagalabs/jejak/internal/domain"
)

// Store persists fixed-window counters.
//
// Implementations:
// - PostgresStore: counters in the primary database (default)
// - RedisStore: counters in Redis for multi-instance deployments
// - MemoryStore: in-process counters for development and tests
type Store interface {
	// Increment bumps the counter for tenant+operation+window and
	// returns the new count. The window duration is part of the key:
	// the minute, hour, and day windows share a start time at the top
	// of each hour and at midnight, and must count separately. The
	// windowEnd lets the store expire the counter once the window
	// closes.
	Increment(ctx context.Context, tenantID uuid.UUID, op domain.Operation, window time.Duration, windowStart, windowEnd time.Time) (int64, error)

	// Get reads a window counter without incrementing; 0 when absent.
	Get(ctx context.Context, tenantID uuid.UUID, op domain.Operation, window time.Duration, windowStart time.Time) (int64, error)

	// Clear removes a tenant's counters for one operation, or all
	// operations when op is empty.
	Clear(ctx context.Context, tenantID uuid.UUID, op domain.Operation) error
}

// Limiter applies the configured per-operation windows against a Store.
type Limiter struct {
	store  Store
	logger *slog.Logger
	now    func() time.Time // Overridable for tests
}

// New creates a Limiter over the given store.
func New(store Store, logger *slog.Logger) *Limiter {
	return &Limiter{
		store:  store,
		logger: logger,
		now:    time.Now,
	}
}

// window describes one enforcement window.
type window struct {
	limit    int64
	duration time.Duration
}

func windowsFor(limits domain.OperationLimits) []window {
	return []window{
		{limit: int64(limits.RequestsPerMinute), duration: time.Minute},
		{limit: int64(limits.RequestsPerHour), duration: time.Hour},
		{limit: int64(limits.RequestsPerDay), duration: 24 * time.Hour},
	}
}

// windowBounds returns the fixed-window boundaries containing now.
func windowBounds(now time.Time, d time.Duration) (start, end time.Time) {
	start = now.UTC().Truncate(d)
	return start, start.Add(d)
}

// Allow admits or rejects one request. On admission every window's
// counter is incremented; on rejection the returned status describes
// the violated window so callers can emit Retry-After and X-Quota-*
// headers.
//
// Windows are checked shortest first, so the common rejection (minute
// cap) is detected before touching the wider counters. A rejected
// request still consumes slots in the windows checked before the
// violation; fixed windows accept that small over-count.
func (l *Limiter) Allow(ctx context.Context, tenantID uuid.UUID, op domain.Operation, limits domain.OperationLimits) (domain.RateLimitStatus, error) {
	now := l.now()

	for _, w := range windowsFor(limits) {
		if w.limit <= 0 {
			continue
		}
		start, end := windowBounds(now, w.duration)

		count, err := l.store.Increment(ctx, tenantID, op, w.duration, start, end)
		if err != nil {
			return domain.RateLimitStatus{}, fmt.Errorf("increment %s window: %w", w.duration, err)
		}

		if count > w.limit {
			l.logger.Warn("rate limit exceeded",
				"tenant_id", tenantID,
				"operation", op,
				"window", w.duration.String(),
				"count", count,
				"limit", w.limit,
			)
			return domain.RateLimitStatus{
				Allowed:   false,
				Current:   count,
				Limit:     w.limit,
				Remaining: 0,
				ResetTime: end,
			}, nil
		}
	}

	// Report the minute window in the success status; it is the one
	// clients watch for pacing.
	return l.Status(ctx, tenantID, op, limits)
}

// Status reads the current minute-window usage without consuming a slot.
func (l *Limiter) Status(ctx context.Context, tenantID uuid.UUID, op domain.Operation, limits domain.OperationLimits) (domain.RateLimitStatus, error) {
	now := l.now()
	start, end := windowBounds(now, time.Minute)

	count, err := l.store.Get(ctx, tenantID, op, time.Minute, start)
	if err != nil {
		return domain.RateLimitStatus{}, fmt.Errorf("read minute window: %w", err)
	}

	limit := int64(limits.RequestsPerMinute)
	remaining := limit - count
	if remaining < 0 {
		remaining = 0
	}
	return domain.RateLimitStatus{
		Allowed:   count <= limit,
		Current:   count,
		Limit:     limit,
		Remaining: remaining,
		ResetTime: end,
	}, nil
}

// Clear zeroes a tenant's counters. Administrative override; an empty
// operation clears all operations.
func (l *Limiter) Clear(ctx context.Context, tenantID uuid.UUID, op domain.Operation) error {
	if err := l.store.Clear(ctx, tenantID, op); err != nil {
		return fmt.Errorf("clear counters: %w", err)
	}
	l.logger.Info("rate limit counters cleared", "tenant_id", tenantID, "operation", op)
	return nil
}

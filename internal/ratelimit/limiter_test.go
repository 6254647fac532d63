package ratelimit

import (
	"context"
	"log/slog"
	"os"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tenagalabs/jejak/internal/domain"
)

func testLimiter(t *testing.T) (*Limiter, *time.Time) {
	t.Helper()
	logger := slog.New(slog.NewTextHandler(os.Stderr, nil))
	now := time.Date(2026, 8, 28, 10, 0, 30, 0, time.UTC)
	l := New(NewMemoryStore(), logger)
	l.now = func() time.Time { return now }
	return l, &now
}

func TestLimiter_AllowUnderLimit(t *testing.T) {
	l, _ := testLimiter(t)
	tenant := uuid.New()
	limits := domain.OperationLimits{RequestsPerMinute: 3, RequestsPerHour: 100, RequestsPerDay: 1000}

	for i := 0; i < 3; i++ {
		status, err := l.Allow(context.Background(), tenant, domain.OpBillAnalysis, limits)
		require.NoError(t, err)
		assert.True(t, status.Allowed, "request %d should pass", i+1)
	}
}

func TestLimiter_BlocksAtMinuteLimit(t *testing.T) {
	l, _ := testLimiter(t)
	tenant := uuid.New()
	limits := domain.OperationLimits{RequestsPerMinute: 2, RequestsPerHour: 100, RequestsPerDay: 1000}

	for i := 0; i < 2; i++ {
		_, err := l.Allow(context.Background(), tenant, domain.OpBillAnalysis, limits)
		require.NoError(t, err)
	}

	status, err := l.Allow(context.Background(), tenant, domain.OpBillAnalysis, limits)
	require.NoError(t, err)
	assert.False(t, status.Allowed)
	assert.Equal(t, int64(2), status.Limit)
	assert.Equal(t, int64(0), status.Remaining)
	// Reset at the top of the next minute.
	assert.Equal(t, time.Date(2026, 8, 28, 10, 1, 0, 0, time.UTC), status.ResetTime)
}

func TestLimiter_HourWindowIndependent(t *testing.T) {
	l, now := testLimiter(t)
	tenant := uuid.New()
	limits := domain.OperationLimits{RequestsPerMinute: 10, RequestsPerHour: 3, RequestsPerDay: 1000}

	for i := 0; i < 3; i++ {
		status, err := l.Allow(context.Background(), tenant, domain.OpBillAnalysis, limits)
		require.NoError(t, err)
		assert.True(t, status.Allowed)
		// Advance past the minute window so only the hour cap binds.
		*now = now.Add(time.Minute)
	}

	status, err := l.Allow(context.Background(), tenant, domain.OpBillAnalysis, limits)
	require.NoError(t, err)
	assert.False(t, status.Allowed, "4th request in the hour should be rejected")
	assert.Equal(t, int64(3), status.Limit)
}

func TestLimiter_WindowExpiry(t *testing.T) {
	l, now := testLimiter(t)
	tenant := uuid.New()
	limits := domain.OperationLimits{RequestsPerMinute: 1, RequestsPerHour: 100, RequestsPerDay: 1000}

	status, err := l.Allow(context.Background(), tenant, domain.OpBillAnalysis, limits)
	require.NoError(t, err)
	assert.True(t, status.Allowed)

	status, err = l.Allow(context.Background(), tenant, domain.OpBillAnalysis, limits)
	require.NoError(t, err)
	assert.False(t, status.Allowed)

	*now = now.Add(time.Minute)

	status, err = l.Allow(context.Background(), tenant, domain.OpBillAnalysis, limits)
	require.NoError(t, err)
	assert.True(t, status.Allowed, "new minute window should admit")
}

func TestLimiter_TenantsIsolated(t *testing.T) {
	l, _ := testLimiter(t)
	limits := domain.OperationLimits{RequestsPerMinute: 1, RequestsPerHour: 100, RequestsPerDay: 1000}
	a, b := uuid.New(), uuid.New()

	_, err := l.Allow(context.Background(), a, domain.OpBillAnalysis, limits)
	require.NoError(t, err)

	status, err := l.Allow(context.Background(), b, domain.OpBillAnalysis, limits)
	require.NoError(t, err)
	assert.True(t, status.Allowed, "tenant B has its own window")
}

func TestLimiter_OperationsIsolated(t *testing.T) {
	l, _ := testLimiter(t)
	tenant := uuid.New()
	limits := domain.OperationLimits{RequestsPerMinute: 1, RequestsPerHour: 100, RequestsPerDay: 1000}

	_, err := l.Allow(context.Background(), tenant, domain.OpBillAnalysis, limits)
	require.NoError(t, err)

	status, err := l.Allow(context.Background(), tenant, domain.OpReportGeneration, limits)
	require.NoError(t, err)
	assert.True(t, status.Allowed, "report window is independent of bill window")
}

func TestLimiter_Clear(t *testing.T) {
	l, _ := testLimiter(t)
	tenant := uuid.New()
	limits := domain.OperationLimits{RequestsPerMinute: 1, RequestsPerHour: 100, RequestsPerDay: 1000}

	_, err := l.Allow(context.Background(), tenant, domain.OpBillAnalysis, limits)
	require.NoError(t, err)
	status, err := l.Allow(context.Background(), tenant, domain.OpBillAnalysis, limits)
	require.NoError(t, err)
	require.False(t, status.Allowed)

	require.NoError(t, l.Clear(context.Background(), tenant, ""))

	status, err = l.Allow(context.Background(), tenant, domain.OpBillAnalysis, limits)
	require.NoError(t, err)
	assert.True(t, status.Allowed, "cleared counters admit again")
}

func TestLimiter_SharedWindowStartCountsSeparately(t *testing.T) {
	// At midnight UTC the minute, hour, and day windows all truncate
	// to the same start time. Each must keep its own counter: a single
	// admitted request is one slot per window, not three bumps of a
	// shared one.
	l, now := testLimiter(t)
	*now = time.Date(2026, 8, 28, 0, 0, 10, 0, time.UTC)
	tenant := uuid.New()
	limits := domain.OperationLimits{RequestsPerMinute: 4, RequestsPerHour: 100, RequestsPerDay: 1000}

	for i := 0; i < 4; i++ {
		status, err := l.Allow(context.Background(), tenant, domain.OpBillAnalysis, limits)
		require.NoError(t, err)
		assert.True(t, status.Allowed, "request %d is under every window", i+1)
	}

	status, err := l.Allow(context.Background(), tenant, domain.OpBillAnalysis, limits)
	require.NoError(t, err)
	assert.False(t, status.Allowed)
	assert.Equal(t, int64(4), status.Limit, "the minute cap rejects, not a merged counter")
}

func TestLimiter_MinuteExpiryKeepsHourCounter(t *testing.T) {
	// Closing a minute window must not take the hour counter with it
	// when both windows started at the same instant.
	l, now := testLimiter(t)
	*now = time.Date(2026, 8, 28, 10, 0, 30, 0, time.UTC)
	tenant := uuid.New()
	limits := domain.OperationLimits{RequestsPerMinute: 1, RequestsPerHour: 2, RequestsPerDay: 1000}

	status, err := l.Allow(context.Background(), tenant, domain.OpBillAnalysis, limits)
	require.NoError(t, err)
	require.True(t, status.Allowed)

	*now = now.Add(time.Minute)

	status, err = l.Allow(context.Background(), tenant, domain.OpBillAnalysis, limits)
	require.NoError(t, err)
	require.True(t, status.Allowed, "fresh minute window, hour cap not yet reached")

	*now = now.Add(time.Minute)

	status, err = l.Allow(context.Background(), tenant, domain.OpBillAnalysis, limits)
	require.NoError(t, err)
	assert.False(t, status.Allowed, "hour counter survived the minute expiries")
	assert.Equal(t, int64(2), status.Limit)
}

func TestLimiter_ZeroLimitSkipsWindow(t *testing.T) {
	l, _ := testLimiter(t)
	tenant := uuid.New()
	// Unset hour/day caps are skipped rather than blocking everything.
	limits := domain.OperationLimits{RequestsPerMinute: 5}

	status, err := l.Allow(context.Background(), tenant, domain.OpBillAnalysis, limits)
	require.NoError(t, err)
	assert.True(t, status.Allowed)
}

func TestLimiter_StatusDoesNotConsume(t *testing.T) {
	l, _ := testLimiter(t)
	tenant := uuid.New()
	limits := domain.OperationLimits{RequestsPerMinute: 5, RequestsPerHour: 100, RequestsPerDay: 1000}

	for i := 0; i < 3; i++ {
		_, err := l.Status(context.Background(), tenant, domain.OpBillAnalysis, limits)
		require.NoError(t, err)
	}

	status, err := l.Status(context.Background(), tenant, domain.OpBillAnalysis, limits)
	require.NoError(t, err)
	assert.Equal(t, int64(0), status.Current)
	assert.Equal(t, int64(5), status.Remaining)
	assert.InDelta(t, 0.0, status.Percentage(), 0.001)
}

package repository

import (
	"context"
	"database/sql"
	"time"

	"github.com/google/uuid"

	"github.com/tenagalabs/jejak/internal/domain"
)

const incrementRateCounter = `
INSERT INTO rate_limit_counters (tenant_id, operation, window_seconds, window_start, window_end, count)
VALUES ($1, $2, $3, $4, $5, 1)
ON CONFLICT (tenant_id, operation, window_seconds, window_start) DO UPDATE SET count = rate_limit_counters.count + 1
RETURNING count
`

// IncrementRateCounter atomically bumps the fixed-window counter for
// tenant+operation+window and returns the new count. The window length
// is part of the key: minute, hour, and day windows share a start time
// at the top of each hour and must count separately.
func (q *Queries) IncrementRateCounter(ctx context.Context, tenantID uuid.UUID, op domain.Operation, window time.Duration, windowStart, windowEnd time.Time) (int64, error) {
	var count int64
	err := q.db.QueryRowContext(ctx, incrementRateCounter, tenantID, string(op), int64(window.Seconds()), windowStart, windowEnd).Scan(&count)
	return count, err
}

const getRateCounter = `
SELECT count FROM rate_limit_counters
WHERE tenant_id = $1 AND operation = $2 AND window_seconds = $3 AND window_start = $4
`

// GetRateCounter reads the counter for a window without incrementing.
// Returns 0 when no requests have landed in the window yet.
func (q *Queries) GetRateCounter(ctx context.Context, tenantID uuid.UUID, op domain.Operation, window time.Duration, windowStart time.Time) (int64, error) {
	var count int64
	err := q.db.QueryRowContext(ctx, getRateCounter, tenantID, string(op), int64(window.Seconds()), windowStart).Scan(&count)
	if err == sql.ErrNoRows {
		return 0, nil
	}
	return count, err
}

const clearRateCountersForOp = `
DELETE FROM rate_limit_counters WHERE tenant_id = $1 AND operation = $2
`

const clearRateCountersAll = `
DELETE FROM rate_limit_counters WHERE tenant_id = $1
`

// ClearRateCounters removes a tenant's counters for one operation, or
// all operations when op is empty. Administrative override.
func (q *Queries) ClearRateCounters(ctx context.Context, tenantID uuid.UUID, op domain.Operation) error {
	var err error
	if op == "" {
		_, err = q.db.ExecContext(ctx, clearRateCountersAll, tenantID)
	} else {
		_, err = q.db.ExecContext(ctx, clearRateCountersForOp, tenantID, string(op))
	}
	return err
}

const pruneExpiredRateCounters = `
DELETE FROM rate_limit_counters WHERE window_end <= $1
`

// PruneExpiredRateCounters deletes counters whose window has closed.
// Called from the maintenance sweep.
func (q *Queries) PruneExpiredRateCounters(ctx context.Context, before time.Time) (int64, error) {
	res, err := q.db.ExecContext(ctx, pruneExpiredRateCounters, before)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

package ratelimit

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/tenagalabs/jejak/internal/domain"
	"github.com/tenagalabs/jejak/internal/repository"
)

// PostgresStore keeps window counters in the rate_limit_counters table.
// The upsert increment is atomic, so concurrent requests across
// instances see a consistent count.
type PostgresStore struct {
	queries *repository.Queries
}

// NewPostgresStore creates a store over the given queries.
func NewPostgresStore(queries *repository.Queries) *PostgresStore {
	return &PostgresStore{queries: queries}
}

func (s *PostgresStore) Increment(ctx context.Context, tenantID uuid.UUID, op domain.Operation, window time.Duration, windowStart, windowEnd time.Time) (int64, error) {
	return s.queries.IncrementRateCounter(ctx, tenantID, op, window, windowStart, windowEnd)
}

func (s *PostgresStore) Get(ctx context.Context, tenantID uuid.UUID, op domain.Operation, window time.Duration, windowStart time.Time) (int64, error) {
	return s.queries.GetRateCounter(ctx, tenantID, op, window, windowStart)
}

func (s *PostgresStore) Clear(ctx context.Context, tenantID uuid.UUID, op domain.Operation) error {
	return s.queries.ClearRateCounters(ctx, tenantID, op)
}

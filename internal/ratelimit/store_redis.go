package ratelimit

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"github.com/tenagalabs/jejak/internal/domain"
)

// RedisStore keeps window counters in Redis. INCR is atomic and the key
// carries an expiry at the window end, so counters clean themselves up.
// Use this backend when several API instances must share counters
// without loading the primary database.
type RedisStore struct {
	client *redis.Client
	prefix string
}

// NewRedisStore creates a store over the given client.
func NewRedisStore(client *redis.Client) *RedisStore {
	return &RedisStore{client: client, prefix: "jejak:rl"}
}

// key includes the window length: minute, hour, and day windows share a
// start time at the top of each hour and must not collide.
func (s *RedisStore) key(tenantID uuid.UUID, op domain.Operation, window time.Duration, windowStart time.Time) string {
	return fmt.Sprintf("%s:%s:%s:%d:%d", s.prefix, tenantID, op, int64(window.Seconds()), windowStart.Unix())
}

func (s *RedisStore) Increment(ctx context.Context, tenantID uuid.UUID, op domain.Operation, window time.Duration, windowStart, windowEnd time.Time) (int64, error) {
	key := s.key(tenantID, op, window, windowStart)

	pipe := s.client.TxPipeline()
	incr := pipe.Incr(ctx, key)
	pipe.ExpireAt(ctx, key, windowEnd)
	if _, err := pipe.Exec(ctx); err != nil {
		return 0, err
	}
	return incr.Val(), nil
}

func (s *RedisStore) Get(ctx context.Context, tenantID uuid.UUID, op domain.Operation, window time.Duration, windowStart time.Time) (int64, error) {
	count, err := s.client.Get(ctx, s.key(tenantID, op, window, windowStart)).Int64()
	if err == redis.Nil {
		return 0, nil
	}
	return count, err
}

func (s *RedisStore) Clear(ctx context.Context, tenantID uuid.UUID, op domain.Operation) error {
	pattern := fmt.Sprintf("%s:%s:*", s.prefix, tenantID)
	if op != "" {
		pattern = fmt.Sprintf("%s:%s:%s:*", s.prefix, tenantID, op)
	}

	iter := s.client.Scan(ctx, 0, pattern, 0).Iterator()
	for iter.Next(ctx) {
		if err := s.client.Del(ctx, iter.Val()).Err(); err != nil {
			return err
		}
	}
	return iter.Err()
}

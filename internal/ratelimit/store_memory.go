package ratelimit

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/tenagalabs/jejak/internal/domain"
)

// MemoryStore keeps window counters in process memory. Counters are not
// shared across instances; use only in development and tests.
type MemoryStore struct {
	mu       sync.Mutex
	counters map[string]*memoryCounter
}

type memoryCounter struct {
	count     int64
	windowEnd time.Time
}

// NewMemoryStore creates an empty in-process store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{counters: make(map[string]*memoryCounter)}
}

// memoryKey includes the window length: minute, hour, and day windows
// share a start time at the top of each hour and must not collide.
func memoryKey(tenantID uuid.UUID, op domain.Operation, window time.Duration, windowStart time.Time) string {
	return fmt.Sprintf("%s:%s:%d:%d", tenantID, op, int64(window.Seconds()), windowStart.Unix())
}

func (s *MemoryStore) Increment(_ context.Context, tenantID uuid.UUID, op domain.Operation, window time.Duration, windowStart, windowEnd time.Time) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.evictExpired(windowStart)

	key := memoryKey(tenantID, op, window, windowStart)
	c, ok := s.counters[key]
	if !ok {
		c = &memoryCounter{windowEnd: windowEnd}
		s.counters[key] = c
	}
	c.count++
	return c.count, nil
}

func (s *MemoryStore) Get(_ context.Context, tenantID uuid.UUID, op domain.Operation, window time.Duration, windowStart time.Time) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if c, ok := s.counters[memoryKey(tenantID, op, window, windowStart)]; ok {
		return c.count, nil
	}
	return 0, nil
}

func (s *MemoryStore) Clear(_ context.Context, tenantID uuid.UUID, op domain.Operation) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	prefix := tenantID.String() + ":"
	if op != "" {
		prefix = fmt.Sprintf("%s:%s:", tenantID, op)
	}
	for key := range s.counters {
		if strings.HasPrefix(key, prefix) {
			delete(s.counters, key)
		}
	}
	return nil
}

// evictExpired drops counters whose window closed before now.
// Called with the lock held.
func (s *MemoryStore) evictExpired(now time.Time) {
	for key, c := range s.counters {
		if !c.windowEnd.After(now) {
			delete(s.counters, key)
		}
	}
}

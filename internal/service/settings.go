// Package service contains the business logic layer.
//
// Services orchestrate interactions between repositories, external APIs,
// and domain logic. They are responsible for:
// - Input validation
// - Business rule enforcement
// - Error translation (database errors -> domain errors)
package service

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/tenagalabs/jejak/internal/domain"
	"github.com/tenagalabs/jejak/internal/repository"
)

// SettingsCacheTTL bounds how stale a cached configuration read may be.
// Each instance caches independently; a write on one instance is visible
// to the others within this window unless they call Invalidate.
const SettingsCacheTTL = 5 * time.Minute

// SettingsService provides the rate-limit and quota configuration with
// an in-process TTL cache.
type SettingsService interface {
	// RateLimitConfig returns the current short-window limits.
	// forceRefresh bypasses the cache.
	RateLimitConfig(ctx context.Context, forceRefresh bool) domain.RateLimitConfig

	// QuotaConfig returns the current per-tier monthly caps.
	// forceRefresh bypasses the cache.
	QuotaConfig(ctx context.Context, forceRefresh bool) domain.QuotaConfig

	// Update validates and persists new settings, then invalidates the
	// cache. Rate limit fields must be >= 1; quota fields >= -1.
	Update(ctx context.Context, rateLimits domain.RateLimitConfig, quotas domain.QuotaConfig) error

	// Invalidate forces the next read to hit the database.
	Invalidate()
}

type settingsService struct {
	queries *repository.Queries
	logger  *slog.Logger
	ttl     time.Duration
	now     func() time.Time

	mu        sync.RWMutex
	cached    *repository.SystemSettings
	fetchedAt time.Time
}

// NewSettingsService creates a SettingsService.
func NewSettingsService(queries *repository.Queries, logger *slog.Logger) SettingsService {
	return &settingsService{
		queries: queries,
		logger:  logger,
		ttl:     SettingsCacheTTL,
		now:     time.Now,
	}
}

func (s *settingsService) RateLimitConfig(ctx context.Context, forceRefresh bool) domain.RateLimitConfig {
	return s.load(ctx, forceRefresh).RateLimits
}

func (s *settingsService) QuotaConfig(ctx context.Context, forceRefresh bool) domain.QuotaConfig {
	return s.load(ctx, forceRefresh).Quotas
}

// load returns the cached settings, refreshing when stale. A missing or
// unreadable record falls back to the hardcoded defaults; this fails
// open to conservative values rather than rejecting requests.
func (s *settingsService) load(ctx context.Context, forceRefresh bool) repository.SystemSettings {
	s.mu.RLock()
	if !forceRefresh && s.cached != nil && s.now().Sub(s.fetchedAt) < s.ttl {
		cached := *s.cached
		s.mu.RUnlock()
		return cached
	}
	s.mu.RUnlock()

	s.mu.Lock()
	defer s.mu.Unlock()

	// Another goroutine may have refreshed while we waited.
	if !forceRefresh && s.cached != nil && s.now().Sub(s.fetchedAt) < s.ttl {
		return *s.cached
	}

	settings, err := s.queries.GetSystemSettings(ctx)
	if err != nil {
		if !repository.IsNoRows(err) {
			s.logger.Warn("failed to read system settings, using defaults", "error", err)
		}
		settings = &repository.SystemSettings{
			RateLimits: domain.DefaultRateLimitConfig(),
			Quotas:     domain.DefaultQuotaConfig(),
		}
	}

	s.cached = settings
	s.fetchedAt = s.now()
	return *settings
}

func (s *settingsService) Update(ctx context.Context, rateLimits domain.RateLimitConfig, quotas domain.QuotaConfig) error {
	const op = "settings.update"

	if err := validateRateLimits(op, rateLimits); err != nil {
		return err
	}
	if err := validateQuotas(op, quotas); err != nil {
		return err
	}

	if err := s.queries.UpsertSystemSettings(ctx, repository.SystemSettings{
		RateLimits: rateLimits,
		Quotas:     quotas,
	}); err != nil {
		return domain.Internal(err, op, "failed to persist settings")
	}

	s.Invalidate()
	s.logger.Info("system settings updated")
	return nil
}

func (s *settingsService) Invalidate() {
	s.mu.Lock()
	s.cached = nil
	s.fetchedAt = time.Time{}
	s.mu.Unlock()
}

func validateRateLimits(op string, cfg domain.RateLimitConfig) error {
	for _, limits := range []domain.OperationLimits{cfg.BillAnalysis, cfg.ReportGeneration} {
		if limits.RequestsPerMinute < 1 || limits.RequestsPerHour < 1 || limits.RequestsPerDay < 1 {
			return domain.Invalid(op, "rate limit values must be at least 1")
		}
	}
	return nil
}

func validateQuotas(op string, cfg domain.QuotaConfig) error {
	for _, tier := range []domain.TierLimits{cfg.Trial, cfg.Standard, cfg.Premium, cfg.Enterprise} {
		if tier.MaxUsers < domain.Unlimited || tier.MaxBillsPerMonth < domain.Unlimited || tier.MaxReportsPerMonth < domain.Unlimited {
			return domain.Invalid(op, "quota values must be -1 (unlimited) or greater")
		}
	}
	return nil
}

package service

import (
	"context"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/tenagalabs/jejak/internal/domain"
	"github.com/tenagalabs/jejak/internal/repository"
)

// QuotaService enforces per-tenant monthly caps on expensive operations.
//
// Check is a read-only preflight used to produce 429 responses with
// accurate headers; Consume is the authoritative gate, a single
// conditional UPDATE so concurrent requests cannot both pass at the
// boundary.
type QuotaService interface {
	// Check reports whether the tenant has monthly quota left for the
	// operation. It never mutates counters. Superadmins bypass with an
	// always-allowed status.
	Check(ctx context.Context, user *domain.User, op domain.Operation) (*domain.QuotaStatus, error)

	// Consume atomically increments the tenant's counter for the
	// operation if and only if it is still under the limit. On a full
	// quota it returns a *domain.QuotaError. Superadmin usage is not
	// counted.
	Consume(ctx context.Context, user *domain.User, op domain.Operation) error

	// Usage returns the tenant's current-period counters alongside the
	// tier limits, for the usage dashboard.
	Usage(ctx context.Context, tenantID uuid.UUID) (*TenantUsage, error)
}

// TenantUsage is the current-period usage snapshot for one tenant.
type TenantUsage struct {
	Tier        domain.SubscriptionTier
	Limits      domain.TierLimits
	Usage       domain.MonthlyUsage
	ActiveUsers int64
}

// BillAnalysisStatus summarizes the bill analysis quota.
func (u TenantUsage) BillAnalysisStatus() domain.QuotaStatus {
	return quotaStatus(u.Usage.BillAnalysisCount, u.Limits.MaxBillsPerMonth, u.Usage.PeriodEnd)
}

// ReportGenerationStatus summarizes the report generation quota.
func (u TenantUsage) ReportGenerationStatus() domain.QuotaStatus {
	return quotaStatus(u.Usage.ReportGeneration, u.Limits.MaxReportsPerMonth, u.Usage.PeriodEnd)
}

type quotaService struct {
	queries  *repository.Queries
	settings SettingsService
	logger   *slog.Logger
	now      func() time.Time
}

// NewQuotaService creates a QuotaService.
func NewQuotaService(queries *repository.Queries, settings SettingsService, logger *slog.Logger) QuotaService {
	return &quotaService{
		queries:  queries,
		settings: settings,
		logger:   logger,
		now:      time.Now,
	}
}

func quotaStatus(current, limit int64, reset time.Time) domain.QuotaStatus {
	status := domain.QuotaStatus{
		Current:   current,
		Limit:     limit,
		ResetTime: reset,
	}
	if limit == domain.Unlimited {
		status.Allowed = true
		status.Remaining = domain.Unlimited
		return status
	}
	status.Allowed = current < limit
	status.Remaining = limit - current
	if status.Remaining < 0 {
		status.Remaining = 0
	}
	return status
}

func (s *quotaService) Check(ctx context.Context, user *domain.User, op domain.Operation) (*domain.QuotaStatus, error) {
	const opName = "quota.check"

	_, periodEnd := domain.CurrentPeriod(s.now())
	if user.IsSuperadmin() {
		return &domain.QuotaStatus{
			Allowed:   true,
			Limit:     domain.Unlimited,
			Remaining: domain.Unlimited,
			ResetTime: periodEnd,
		}, nil
	}

	limit, err := s.limitFor(ctx, user.TenantID, op, opName)
	if err != nil {
		return nil, err
	}

	usage, err := s.currentUsage(ctx, user.TenantID, opName)
	if err != nil {
		return nil, err
	}

	status := quotaStatus(usage.CountFor(op), limit, usage.PeriodEnd)
	return &status, nil
}

func (s *quotaService) Consume(ctx context.Context, user *domain.User, op domain.Operation) error {
	const opName = "quota.consume"

	if user.IsSuperadmin() {
		return nil
	}

	limit, err := s.limitFor(ctx, user.TenantID, op, opName)
	if err != nil {
		return err
	}

	usage, err := s.currentUsage(ctx, user.TenantID, opName)
	if err != nil {
		return err
	}

	count, ok, err := s.queries.IncrementUsageIfBelow(ctx, user.TenantID, op, limit)
	if err != nil {
		return domain.Internal(err, opName, "failed to update usage counter")
	}
	if !ok {
		s.logger.Info("monthly quota exhausted",
			"tenant_id", user.TenantID,
			"operation", op,
			"limit", limit)
		return domain.QuotaExceeded(opName, op, usage.CountFor(op), limit, usage.PeriodEnd)
	}

	s.logger.Debug("quota consumed",
		"tenant_id", user.TenantID,
		"operation", op,
		"count", count,
		"limit", limit)
	return nil
}

func (s *quotaService) Usage(ctx context.Context, tenantID uuid.UUID) (*TenantUsage, error) {
	const opName = "quota.usage"

	tenant, err := s.queries.GetTenantByID(ctx, tenantID)
	if err != nil {
		if repository.IsNoRows(err) {
			return nil, domain.NotFound(opName, "tenant", tenantID.String())
		}
		return nil, domain.Internal(err, opName, "failed to load tenant")
	}

	usage, err := s.currentUsage(ctx, tenantID, opName)
	if err != nil {
		return nil, err
	}

	activeUsers, err := s.queries.CountActiveUsers(ctx, tenantID)
	if err != nil {
		return nil, domain.Internal(err, opName, "failed to count users")
	}

	return &TenantUsage{
		Tier:        tenant.Tier,
		Limits:      s.settings.QuotaConfig(ctx, false).ForTier(tenant.Tier),
		Usage:       *usage,
		ActiveUsers: activeUsers,
	}, nil
}

// limitFor resolves the tenant's tier and returns the monthly cap for
// the operation from the current quota configuration.
func (s *quotaService) limitFor(ctx context.Context, tenantID uuid.UUID, op domain.Operation, opName string) (int64, error) {
	tenant, err := s.queries.GetTenantByID(ctx, tenantID)
	if err != nil {
		if repository.IsNoRows(err) {
			return 0, domain.NotFound(opName, "tenant", tenantID.String())
		}
		return 0, domain.Internal(err, opName, "failed to load tenant")
	}
	return s.settings.QuotaConfig(ctx, false).ForTier(tenant.Tier).ForOperation(op), nil
}

// currentUsage rolls the tenant's usage row forward to the current
// calendar month and returns it. The boundaries are recomputed from the
// clock on every call, so a tenant idle across several months lands in
// the right period.
func (s *quotaService) currentUsage(ctx context.Context, tenantID uuid.UUID, opName string) (*domain.MonthlyUsage, error) {
	periodStart, periodEnd := domain.CurrentPeriod(s.now())
	if err := s.queries.EnsureUsageCurrent(ctx, tenantID, periodStart, periodEnd); err != nil {
		return nil, domain.Internal(err, opName, "failed to roll usage period")
	}
	usage, err := s.queries.GetMonthlyUsage(ctx, tenantID)
	if err != nil {
		return nil, domain.Internal(err, opName, "failed to load usage")
	}
	return usage, nil
}

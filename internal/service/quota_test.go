package service

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/tenagalabs/jejak/internal/domain"
)

func TestQuotaStatus_UnderLimit(t *testing.T) {
	reset := time.Date(2026, 9, 1, 0, 0, 0, 0, time.UTC)
	status := quotaStatus(3, 10, reset)

	assert.True(t, status.Allowed)
	assert.Equal(t, int64(3), status.Current)
	assert.Equal(t, int64(10), status.Limit)
	assert.Equal(t, int64(7), status.Remaining)
	assert.Equal(t, reset, status.ResetTime)
}

func TestQuotaStatus_AtLimit(t *testing.T) {
	status := quotaStatus(10, 10, time.Now())

	assert.False(t, status.Allowed)
	assert.Equal(t, int64(0), status.Remaining)
}

func TestQuotaStatus_OverLimit(t *testing.T) {
	// A lowered limit can leave the counter above it; remaining must
	// clamp to zero rather than going negative.
	status := quotaStatus(15, 10, time.Now())

	assert.False(t, status.Allowed)
	assert.Equal(t, int64(0), status.Remaining)
}

func TestQuotaStatus_Unlimited(t *testing.T) {
	status := quotaStatus(100000, domain.Unlimited, time.Now())

	assert.True(t, status.Allowed)
	assert.Equal(t, domain.Unlimited, status.Remaining)
}

func TestTenantUsage_StatusHelpers(t *testing.T) {
	periodEnd := time.Date(2026, 9, 1, 0, 0, 0, 0, time.UTC)
	usage := TenantUsage{
		Tier: domain.TierStandard,
		Limits: domain.TierLimits{
			MaxUsers:           10,
			MaxBillsPerMonth:   100,
			MaxReportsPerMonth: 20,
		},
		Usage: domain.MonthlyUsage{
			BillAnalysisCount: 42,
			ReportGeneration:  20,
			PeriodEnd:         periodEnd,
		},
	}

	bills := usage.BillAnalysisStatus()
	assert.True(t, bills.Allowed)
	assert.Equal(t, int64(58), bills.Remaining)

	reports := usage.ReportGenerationStatus()
	assert.False(t, reports.Allowed)
	assert.Equal(t, int64(0), reports.Remaining)
}

func TestValidateRateLimits(t *testing.T) {
	valid := domain.DefaultRateLimitConfig()
	assert.NoError(t, validateRateLimits("test", valid))

	zeroed := valid
	zeroed.BillAnalysis.RequestsPerMinute = 0
	assert.Error(t, validateRateLimits("test", zeroed))

	negative := valid
	negative.ReportGeneration.RequestsPerDay = -5
	assert.Error(t, validateRateLimits("test", negative))
}

func TestValidateQuotas(t *testing.T) {
	valid := domain.DefaultQuotaConfig()
	assert.NoError(t, validateQuotas("test", valid))

	// Unlimited (-1) is legal everywhere.
	unlimited := valid
	unlimited.Trial.MaxBillsPerMonth = domain.Unlimited
	assert.NoError(t, validateQuotas("test", unlimited))

	belowSentinel := valid
	belowSentinel.Standard.MaxReportsPerMonth = -2
	assert.Error(t, validateQuotas("test", belowSentinel))
}

package domain

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestCurrentPeriod(t *testing.T) {
	now := time.Date(2026, 8, 28, 9, 30, 0, 0, time.UTC)
	start, end := CurrentPeriod(now)

	assert.Equal(t, time.Date(2026, 8, 1, 0, 0, 0, 0, time.UTC), start)
	assert.Equal(t, time.Date(2026, 9, 1, 0, 0, 0, 0, time.UTC), end)
}

func TestCurrentPeriod_YearBoundary(t *testing.T) {
	now := time.Date(2026, 12, 31, 23, 59, 59, 0, time.UTC)
	start, end := CurrentPeriod(now)

	assert.Equal(t, time.Date(2026, 12, 1, 0, 0, 0, 0, time.UTC), start)
	assert.Equal(t, time.Date(2027, 1, 1, 0, 0, 0, 0, time.UTC), end)
}

func TestCurrentPeriod_NonUTCInput(t *testing.T) {
	kl := time.FixedZone("MYT", 8*3600)
	// 07:00 MYT on March 1 is still Feb 28 in UTC.
	now := time.Date(2026, 3, 1, 7, 0, 0, 0, kl)
	start, _ := CurrentPeriod(now)

	assert.Equal(t, time.Date(2026, 2, 1, 0, 0, 0, 0, time.UTC), start)
}

func TestQuotaConfig_ForTier(t *testing.T) {
	cfg := DefaultQuotaConfig()

	assert.Equal(t, cfg.Standard, cfg.ForTier(TierStandard))
	assert.Equal(t, cfg.Enterprise, cfg.ForTier(TierEnterprise))
	// Unknown tiers fall back to the most restrictive limits.
	assert.Equal(t, cfg.Trial, cfg.ForTier(SubscriptionTier("platinum")))
}

func TestTierLimits_ForOperation(t *testing.T) {
	limits := TierLimits{MaxBillsPerMonth: 10, MaxReportsPerMonth: 2}

	assert.Equal(t, int64(10), limits.ForOperation(OpBillAnalysis))
	assert.Equal(t, int64(2), limits.ForOperation(OpReportGeneration))
}

func TestRateLimitStatus_Percentage(t *testing.T) {
	s := RateLimitStatus{Current: 3, Limit: 5}
	assert.InDelta(t, 60.0, s.Percentage(), 0.001)

	s = RateLimitStatus{Current: 8, Limit: 5}
	assert.Equal(t, 100.0, s.Percentage(), "capped at 100")

	s = RateLimitStatus{Current: 3, Limit: 0}
	assert.Equal(t, 0.0, s.Percentage())
}

func TestValidateUEN(t *testing.T) {
	assert.NoError(t, ValidateUEN("202301012345"))
	assert.NoError(t, ValidateUEN("001234567K"))
	assert.NoError(t, ValidateUEN(" 001234567k "), "normalized before matching")

	assert.Error(t, ValidateUEN(""))
	assert.Error(t, ValidateUEN("12345"))
	assert.Error(t, ValidateUEN("20230101234X5"))
}

// Package domain contains core business types and interfaces.
//
// This file defines quota and rate-limit configuration types. Monthly
// quotas cap expensive operations (bill analysis, report generation) per
// tenant per calendar month; rate limits cap short-window request
// frequency independently of the monthly quota.
package domain

import (
	"time"

	"github.com/google/uuid"
)

// Unlimited is the sentinel quota value meaning no cap.
const Unlimited int64 = -1

// Operation identifies a quota- and rate-limit-guarded expensive operation.
type Operation string

const (
	OpBillAnalysis     Operation = "bill_analysis"
	OpReportGeneration Operation = "report_generation"
)

// Valid reports whether the operation is known.
func (o Operation) Valid() bool {
	switch o {
	case OpBillAnalysis, OpReportGeneration:
		return true
	}
	return false
}

// OperationLimits is the per-operation request frequency cap.
type OperationLimits struct {
	RequestsPerMinute int `json:"requestsPerMinute" yaml:"requests_per_minute"`
	RequestsPerHour   int `json:"requestsPerHour" yaml:"requests_per_hour"`
	RequestsPerDay    int `json:"requestsPerDay" yaml:"requests_per_day"`
}

// RateLimitConfig holds the short-window limits per operation.
// Mutable by superadmins only; cached in process memory with a bounded TTL.
type RateLimitConfig struct {
	BillAnalysis     OperationLimits `json:"billAnalysis"`
	ReportGeneration OperationLimits `json:"reportGeneration"`
}

// ForOperation returns the limits for a given operation.
func (c RateLimitConfig) ForOperation(op Operation) OperationLimits {
	switch op {
	case OpReportGeneration:
		return c.ReportGeneration
	default:
		return c.BillAnalysis
	}
}

// TierLimits is the monthly quota for one subscription tier.
// A value of Unlimited (-1) denotes no cap.
type TierLimits struct {
	MaxUsers           int64 `json:"maxUsers"`
	MaxBillsPerMonth   int64 `json:"maxBillsPerMonth"`
	MaxReportsPerMonth int64 `json:"maxReportsPerMonth"`
}

// ForOperation returns the monthly cap for a given operation.
func (t TierLimits) ForOperation(op Operation) int64 {
	switch op {
	case OpReportGeneration:
		return t.MaxReportsPerMonth
	default:
		return t.MaxBillsPerMonth
	}
}

// QuotaConfig holds the monthly caps per subscription tier.
type QuotaConfig struct {
	Trial      TierLimits `json:"trial"`
	Standard   TierLimits `json:"standard"`
	Premium    TierLimits `json:"premium"`
	Enterprise TierLimits `json:"enterprise"`
}

// ForTier returns the limits for a tier, defaulting to trial limits for
// unknown tiers.
func (c QuotaConfig) ForTier(tier SubscriptionTier) TierLimits {
	switch tier {
	case TierStandard:
		return c.Standard
	case TierPremium:
		return c.Premium
	case TierEnterprise:
		return c.Enterprise
	default:
		return c.Trial
	}
}

// DefaultRateLimitConfig is the conservative fallback used when the
// settings record is absent or unreadable.
func DefaultRateLimitConfig() RateLimitConfig {
	return RateLimitConfig{
		BillAnalysis:     OperationLimits{RequestsPerMinute: 5, RequestsPerHour: 60, RequestsPerDay: 300},
		ReportGeneration: OperationLimits{RequestsPerMinute: 2, RequestsPerHour: 20, RequestsPerDay: 100},
	}
}

// DefaultQuotaConfig is the conservative fallback used when the settings
// record is absent or unreadable.
func DefaultQuotaConfig() QuotaConfig {
	return QuotaConfig{
		Trial:      TierLimits{MaxUsers: 3, MaxBillsPerMonth: 10, MaxReportsPerMonth: 2},
		Standard:   TierLimits{MaxUsers: 10, MaxBillsPerMonth: 100, MaxReportsPerMonth: 20},
		Premium:    TierLimits{MaxUsers: 50, MaxBillsPerMonth: 500, MaxReportsPerMonth: 100},
		Enterprise: TierLimits{MaxUsers: Unlimited, MaxBillsPerMonth: Unlimited, MaxReportsPerMonth: Unlimited},
	}
}

// MonthlyUsage tracks a tenant's counters for the current period.
// Period boundaries are first-of-month to first-of-next-month, UTC.
type MonthlyUsage struct {
	TenantID            uuid.UUID
	BillAnalysisCount   int64
	ReportGeneration    int64
	PeriodStart         time.Time
	PeriodEnd           time.Time
	LastReset           time.Time
}

// CountFor returns the counter for the given operation.
func (u MonthlyUsage) CountFor(op Operation) int64 {
	if op == OpReportGeneration {
		return u.ReportGeneration
	}
	return u.BillAnalysisCount
}

// QuotaStatus is the result of a monthly quota check.
type QuotaStatus struct {
	Allowed   bool
	Current   int64
	Limit     int64 // Unlimited (-1) means no cap
	Remaining int64 // Unlimited (-1) when Limit is Unlimited
	ResetTime time.Time
}

// RateLimitStatus is the result of a short-window rate limit check.
type RateLimitStatus struct {
	Allowed   bool
	Current   int64
	Limit     int64
	Remaining int64
	ResetTime time.Time
}

// Percentage returns how much of the window limit has been consumed, 0-100.
func (s RateLimitStatus) Percentage() float64 {
	if s.Limit <= 0 {
		return 0
	}
	pct := float64(s.Current) / float64(s.Limit) * 100
	if pct > 100 {
		pct = 100
	}
	return pct
}

// CurrentPeriod returns the calendar-month boundaries containing now, UTC.
// Boundaries are always recomputed from the supplied clock so a tenant
// idle for several months sees the current month's empty window on the
// next read.
func CurrentPeriod(now time.Time) (start, end time.Time) {
	now = now.UTC()
	start = time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, time.UTC)
	end = start.AddDate(0, 1, 0)
	return start, end
}

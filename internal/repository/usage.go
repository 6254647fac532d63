package repository

import (
	"context"
	"database/sql"
	"time"

	"github.com/google/uuid"

	"github.com/tenagalabs/jejak/internal/domain"
)

const ensureUsageRow = `
INSERT INTO tenant_monthly_usage (tenant_id, bill_analysis_count, report_generation_count, period_start, period_end, last_reset)
VALUES ($1, 0, 0, $2, $3, now())
ON CONFLICT (tenant_id) DO UPDATE SET
	bill_analysis_count = 0,
	report_generation_count = 0,
	period_start = EXCLUDED.period_start,
	period_end = EXCLUDED.period_end,
	last_reset = now()
WHERE tenant_monthly_usage.period_end <= now()
`

// EnsureUsageCurrent creates the tenant's usage row if absent and resets
// it if its stored period has lapsed. Boundaries are supplied by the
// caller, always computed from the current clock, so a multi-month idle
// gap lands on the current month rather than the next stored period.
func (q *Queries) EnsureUsageCurrent(ctx context.Context, tenantID uuid.UUID, periodStart, periodEnd time.Time) error {
	_, err := q.db.ExecContext(ctx, ensureUsageRow, tenantID, periodStart, periodEnd)
	return err
}

const getMonthlyUsage = `
SELECT tenant_id, bill_analysis_count, report_generation_count, period_start, period_end, last_reset
FROM tenant_monthly_usage WHERE tenant_id = $1
`

// GetMonthlyUsage reads the tenant's usage row.
func (q *Queries) GetMonthlyUsage(ctx context.Context, tenantID uuid.UUID) (*domain.MonthlyUsage, error) {
	var u domain.MonthlyUsage
	err := q.db.QueryRowContext(ctx, getMonthlyUsage, tenantID).
		Scan(&u.TenantID, &u.BillAnalysisCount, &u.ReportGeneration, &u.PeriodStart, &u.PeriodEnd, &u.LastReset)
	if err != nil {
		return nil, err
	}
	return &u, nil
}

// The increment statements are the authoritative quota gate: the guard
// and the increment execute in one atomic update, so two concurrent
// requests for the last slot cannot both pass. A limit of -1 disables
// the guard.
const incrementBillAnalysis = `
UPDATE tenant_monthly_usage
SET bill_analysis_count = bill_analysis_count + 1
WHERE tenant_id = $1 AND period_end > now() AND ($2 = -1 OR bill_analysis_count < $2)
RETURNING bill_analysis_count
`

const incrementReportGeneration = `
UPDATE tenant_monthly_usage
SET report_generation_count = report_generation_count + 1
WHERE tenant_id = $1 AND period_end > now() AND ($2 = -1 OR report_generation_count < $2)
RETURNING report_generation_count
`

// IncrementUsageIfBelow atomically increments the tenant's counter for
// the operation if the current count is below limit. Returns the new
// count and whether the increment was applied. The caller must have run
// EnsureUsageCurrent first so the row exists and covers the current
// period.
func (q *Queries) IncrementUsageIfBelow(ctx context.Context, tenantID uuid.UUID, op domain.Operation, limit int64) (int64, bool, error) {
	stmt := incrementBillAnalysis
	if op == domain.OpReportGeneration {
		stmt = incrementReportGeneration
	}

	var count int64
	err := q.db.QueryRowContext(ctx, stmt, tenantID, limit).Scan(&count)
	if err == sql.ErrNoRows {
		return 0, false, nil
	}
	if err != nil {
		return 0, false, err
	}
	return count, true, nil
}

const resetStaleUsage = `
UPDATE tenant_monthly_usage
SET bill_analysis_count = 0, report_generation_count = 0,
	period_start = $1, period_end = $2, last_reset = now()
WHERE period_end <= now()
`

// ResetStaleUsage rolls over every lapsed usage row to the supplied
// current period. Called from the maintenance sweep; lazy per-read
// rollover makes this an optimization, not a correctness requirement.
func (q *Queries) ResetStaleUsage(ctx context.Context, periodStart, periodEnd time.Time) (int64, error) {
	res, err := q.db.ExecContext(ctx, resetStaleUsage, periodStart, periodEnd)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

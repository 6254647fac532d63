package service

import (
	"context"
	"log/slog"
	"os"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tenagalabs/jejak/internal/domain"
	"github.com/tenagalabs/jejak/internal/repository"
)

type fixedSettings struct {
	quotas domain.QuotaConfig
}

func (s fixedSettings) RateLimitConfig(context.Context, bool) domain.RateLimitConfig {
	return domain.DefaultRateLimitConfig()
}
func (s fixedSettings) QuotaConfig(context.Context, bool) domain.QuotaConfig { return s.quotas }
func (s fixedSettings) Update(context.Context, domain.RateLimitConfig, domain.QuotaConfig) error {
	return nil
}
func (s fixedSettings) Invalidate() {}

func rolloverService(t *testing.T, now time.Time) (*quotaService, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	svc := &quotaService{
		queries:  repository.New(db),
		settings: fixedSettings{quotas: domain.DefaultQuotaConfig()},
		logger:   slog.New(slog.NewTextHandler(os.Stderr, nil)),
		now:      func() time.Time { return now },
	}
	return svc, mock
}

func tenantRows(id uuid.UUID, now time.Time) *sqlmock.Rows {
	return sqlmock.NewRows([]string{"id", "name", "uen", "tier", "contact_name", "phone", "active", "created_at", "updated_at"}).
		AddRow(id, "Syarikat Contoh Sdn Bhd", "202301012345", string(domain.TierStandard), "Aina", "+60123456789", true, now, now)
}

func TestQuotaCheck_LapsedPeriodRollsOver(t *testing.T) {
	// Tenant last touched its counters in March; the next read in
	// August must request the August window, not the stored one.
	now := time.Date(2026, 8, 28, 10, 0, 0, 0, time.UTC)
	periodStart, periodEnd := domain.CurrentPeriod(now)
	svc, mock := rolloverService(t, now)

	tenantID := uuid.New()
	user := &domain.User{ID: uuid.New(), TenantID: tenantID, Role: domain.RoleClerk}

	mock.ExpectQuery("SELECT id, name, uen, tier").
		WithArgs(tenantID).
		WillReturnRows(tenantRows(tenantID, now))
	// The upsert carries boundaries recomputed from the clock and only
	// resets rows whose stored period has lapsed.
	mock.ExpectExec("INSERT INTO tenant_monthly_usage").
		WithArgs(tenantID, periodStart, periodEnd).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectQuery("SELECT tenant_id, bill_analysis_count").
		WithArgs(tenantID).
		WillReturnRows(sqlmock.NewRows([]string{"tenant_id", "bill_analysis_count", "report_generation_count", "period_start", "period_end", "last_reset"}).
			AddRow(tenantID, 0, 0, periodStart, periodEnd, now))

	status, err := svc.Check(context.Background(), user, domain.OpBillAnalysis)
	require.NoError(t, err)

	assert.True(t, status.Allowed)
	assert.Equal(t, int64(0), status.Current, "a lapsed period reads as reset")
	assert.Equal(t, periodEnd, status.ResetTime)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestQuotaConsume_RunsAtomicConditionalIncrement(t *testing.T) {
	now := time.Date(2026, 8, 28, 10, 0, 0, 0, time.UTC)
	periodStart, periodEnd := domain.CurrentPeriod(now)
	svc, mock := rolloverService(t, now)

	tenantID := uuid.New()
	user := &domain.User{ID: uuid.New(), TenantID: tenantID, Role: domain.RoleClerk}
	limit := domain.DefaultQuotaConfig().Standard.MaxBillsPerMonth

	mock.ExpectQuery("SELECT id, name, uen, tier").
		WithArgs(tenantID).
		WillReturnRows(tenantRows(tenantID, now))
	mock.ExpectExec("INSERT INTO tenant_monthly_usage").
		WithArgs(tenantID, periodStart, periodEnd).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectQuery("SELECT tenant_id, bill_analysis_count").
		WithArgs(tenantID).
		WillReturnRows(sqlmock.NewRows([]string{"tenant_id", "bill_analysis_count", "report_generation_count", "period_start", "period_end", "last_reset"}).
			AddRow(tenantID, 3, 0, periodStart, periodEnd, now))
	// The guard and the increment are one statement; the limit rides
	// along as a parameter.
	mock.ExpectQuery("UPDATE tenant_monthly_usage").
		WithArgs(tenantID, limit).
		WillReturnRows(sqlmock.NewRows([]string{"bill_analysis_count"}).AddRow(4))

	require.NoError(t, svc.Consume(context.Background(), user, domain.OpBillAnalysis))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestQuotaConsume_FullQuotaReturnsQuotaError(t *testing.T) {
	now := time.Date(2026, 8, 28, 10, 0, 0, 0, time.UTC)
	periodStart, periodEnd := domain.CurrentPeriod(now)
	svc, mock := rolloverService(t, now)

	tenantID := uuid.New()
	user := &domain.User{ID: uuid.New(), TenantID: tenantID, Role: domain.RoleClerk}
	limit := domain.DefaultQuotaConfig().Standard.MaxBillsPerMonth

	mock.ExpectQuery("SELECT id, name, uen, tier").
		WithArgs(tenantID).
		WillReturnRows(tenantRows(tenantID, now))
	mock.ExpectExec("INSERT INTO tenant_monthly_usage").
		WithArgs(tenantID, periodStart, periodEnd).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectQuery("SELECT tenant_id, bill_analysis_count").
		WithArgs(tenantID).
		WillReturnRows(sqlmock.NewRows([]string{"tenant_id", "bill_analysis_count", "report_generation_count", "period_start", "period_end", "last_reset"}).
			AddRow(tenantID, limit, 0, periodStart, periodEnd, now))
	// No row satisfies the conditional update when the counter is at
	// the cap.
	mock.ExpectQuery("UPDATE tenant_monthly_usage").
		WithArgs(tenantID, limit).
		WillReturnRows(sqlmock.NewRows([]string{"bill_analysis_count"}))

	err := svc.Consume(context.Background(), user, domain.OpBillAnalysis)
	var quotaErr *domain.QuotaError
	require.ErrorAs(t, err, &quotaErr)
	assert.Equal(t, limit, quotaErr.Limit)
	assert.Equal(t, periodEnd, quotaErr.ResetTime)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestResetStaleUsage_SweepsLapsedRows(t *testing.T) {
	now := time.Date(2026, 8, 28, 10, 0, 0, 0, time.UTC)
	periodStart, periodEnd := domain.CurrentPeriod(now)

	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	queries := repository.New(db)

	mock.ExpectExec("UPDATE tenant_monthly_usage").
		WithArgs(periodStart, periodEnd).
		WillReturnResult(sqlmock.NewResult(0, 3))

	rows, err := queries.ResetStaleUsage(context.Background(), periodStart, periodEnd)
	require.NoError(t, err)
	assert.Equal(t, int64(3), rows)
	assert.NoError(t, mock.ExpectationsWereMet())
}

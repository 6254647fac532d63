package repository

import (
	"context"
	"database/sql"

	"github.com/google/uuid"

	"github.com/tenagalabs/jejak/internal/domain"
)

const createReport = `
INSERT INTO reports (id, tenant_id, requested_by, title, format, period_start, period_end, status)
VALUES ($1, $2, $3, $4, $5, $6, $7, 'pending')
RETURNING id, tenant_id, requested_by, title, format, period_start, period_end, status,
	artifact_key, total_co2e_kg, entry_count, error_message, created_at, completed_at
`

// CreateReport inserts a pending report row.
func (q *Queries) CreateReport(ctx context.Context, params domain.CreateReportParams) (*domain.Report, error) {
	row := q.db.QueryRowContext(ctx, createReport,
		uuid.New(), params.TenantID, params.RequestedBy, params.Title, string(params.Format),
		params.PeriodStart, params.PeriodEnd)
	return scanReport(row)
}

const getReportByID = `
SELECT id, tenant_id, requested_by, title, format, period_start, period_end, status,
	artifact_key, total_co2e_kg, entry_count, error_message, created_at, completed_at
FROM reports WHERE id = $1 AND tenant_id = $2
`

// GetReportByID fetches a report, scoped to the tenant.
func (q *Queries) GetReportByID(ctx context.Context, id, tenantID uuid.UUID) (*domain.Report, error) {
	return scanReport(q.db.QueryRowContext(ctx, getReportByID, id, tenantID))
}

const listReports = `
SELECT id, tenant_id, requested_by, title, format, period_start, period_end, status,
	artifact_key, total_co2e_kg, entry_count, error_message, created_at, completed_at
FROM reports WHERE tenant_id = $1 ORDER BY created_at DESC LIMIT $2
`

// ListReports returns a tenant's reports, newest first.
func (q *Queries) ListReports(ctx context.Context, tenantID uuid.UUID, limit int32) ([]*domain.Report, error) {
	if limit <= 0 || limit > 100 {
		limit = 50
	}
	rows, err := q.db.QueryContext(ctx, listReports, tenantID, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var reports []*domain.Report
	for rows.Next() {
		r, err := scanReport(rows)
		if err != nil {
			return nil, err
		}
		reports = append(reports, r)
	}
	return reports, rows.Err()
}

const markReportRunning = `
UPDATE reports SET status = 'running' WHERE id = $1
`

// MarkReportRunning flags a report as being generated.
func (q *Queries) MarkReportRunning(ctx context.Context, id uuid.UUID) error {
	_, err := q.db.ExecContext(ctx, markReportRunning, id)
	return err
}

const markReportCompleted = `
UPDATE reports SET status = 'completed', artifact_key = $2, total_co2e_kg = $3,
	entry_count = $4, completed_at = now()
WHERE id = $1
`

// MarkReportCompleted records the generated artifact.
func (q *Queries) MarkReportCompleted(ctx context.Context, id uuid.UUID, artifactKey string, totalCO2eKg float64, entryCount int64) error {
	_, err := q.db.ExecContext(ctx, markReportCompleted, id, artifactKey, totalCO2eKg, entryCount)
	return err
}

const markReportFailed = `
UPDATE reports SET status = 'failed', error_message = $2, completed_at = now() WHERE id = $1
`

// MarkReportFailed records a generation failure.
func (q *Queries) MarkReportFailed(ctx context.Context, id uuid.UUID, message string) error {
	_, err := q.db.ExecContext(ctx, markReportFailed, id, message)
	return err
}

func scanReport(row rowScanner) (*domain.Report, error) {
	var r domain.Report
	var format, status string
	var artifactKey, errMsg sql.NullString
	var completedAt sql.NullTime
	err := row.Scan(&r.ID, &r.TenantID, &r.RequestedBy, &r.Title, &format, &r.PeriodStart, &r.PeriodEnd,
		&status, &artifactKey, &r.TotalCO2eKg, &r.EntryCount, &errMsg, &r.CreatedAt, &completedAt)
	if err != nil {
		return nil, err
	}
	r.Format = domain.ReportFormat(format)
	r.Status = domain.ReportStatus(status)
	r.ArtifactKey = domain.NullStringValue(artifactKey)
	r.Error = domain.NullStringValue(errMsg)
	if completedAt.Valid {
		t := completedAt.Time
		r.CompletedAt = &t
	}
	return &r, nil
}

package repository

import (
	"context"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/tenagalabs/jejak/internal/domain"
)

// CreateEntryParams contains the fields for entry insertion, with the
// CO2e already computed by the service layer.
type CreateEntryParams struct {
	TenantID     uuid.UUID
	CreatedBy    uuid.UUID
	UtilityType  domain.UtilityType
	Provider     string
	PeriodStart  time.Time
	PeriodEnd    time.Time
	Consumption  float64
	Unit         string
	AmountMYR    float64
	CO2eKg       float64
	Source       domain.EntrySource
	BillImageKey string
}

const createEntry = `
INSERT INTO entries (id, tenant_id, created_by, utility_type, provider, period_start, period_end,
	consumption, unit, amount_myr, co2e_kg, source, bill_image_key)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)
RETURNING id, tenant_id, created_by, utility_type, provider, period_start, period_end,
	consumption, unit, amount_myr, co2e_kg, source, bill_image_key, created_at, updated_at
`

// CreateEntry inserts an emission entry.
func (q *Queries) CreateEntry(ctx context.Context, params CreateEntryParams) (*domain.Entry, error) {
	row := q.db.QueryRowContext(ctx, createEntry,
		uuid.New(), params.TenantID, params.CreatedBy, string(params.UtilityType), params.Provider,
		params.PeriodStart, params.PeriodEnd, params.Consumption, params.Unit,
		params.AmountMYR, params.CO2eKg, string(params.Source), params.BillImageKey)
	return scanEntry(row)
}

const getEntryByID = `
SELECT id, tenant_id, created_by, utility_type, provider, period_start, period_end,
	consumption, unit, amount_myr, co2e_kg, source, bill_image_key, created_at, updated_at
FROM entries WHERE id = $1 AND tenant_id = $2
`

// GetEntryByID fetches an entry, scoped to the tenant.
func (q *Queries) GetEntryByID(ctx context.Context, id, tenantID uuid.UUID) (*domain.Entry, error) {
	return scanEntry(q.db.QueryRowContext(ctx, getEntryByID, id, tenantID))
}

// ListEntries returns tenant entries matching the filter, newest first.
func (q *Queries) ListEntries(ctx context.Context, params domain.ListEntriesParams) ([]*domain.Entry, error) {
	var sb strings.Builder
	sb.WriteString(`SELECT id, tenant_id, created_by, utility_type, provider, period_start, period_end,
	consumption, unit, amount_myr, co2e_kg, source, bill_image_key, created_at, updated_at
FROM entries WHERE tenant_id = $1`)
	args := []any{params.TenantID}

	if params.UtilityType != "" {
		args = append(args, string(params.UtilityType))
		sb.WriteString(" AND utility_type = $" + strconv.Itoa(len(args)))
	}
	if !params.From.IsZero() {
		args = append(args, params.From)
		sb.WriteString(" AND period_end >= $" + strconv.Itoa(len(args)))
	}
	if !params.To.IsZero() {
		args = append(args, params.To)
		sb.WriteString(" AND period_start < $" + strconv.Itoa(len(args)))
	}

	sb.WriteString(" ORDER BY period_start DESC, created_at DESC")

	limit := params.Limit
	if limit <= 0 || limit > 200 {
		limit = 50
	}
	args = append(args, limit)
	sb.WriteString(" LIMIT $" + strconv.Itoa(len(args)))
	if params.Offset > 0 {
		args = append(args, params.Offset)
		sb.WriteString(" OFFSET $" + strconv.Itoa(len(args)))
	}

	rows, err := q.db.QueryContext(ctx, sb.String(), args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var entries []*domain.Entry
	for rows.Next() {
		e, err := scanEntry(rows)
		if err != nil {
			return nil, err
		}
		entries = append(entries, e)
	}
	return entries, rows.Err()
}

const deleteEntry = `
DELETE FROM entries WHERE id = $1 AND tenant_id = $2
`

// DeleteEntry removes an entry, scoped to the tenant. Returns the number
// of rows removed so callers can distinguish not-found.
func (q *Queries) DeleteEntry(ctx context.Context, id, tenantID uuid.UUID) (int64, error) {
	res, err := q.db.ExecContext(ctx, deleteEntry, id, tenantID)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

// EntrySummaryRow aggregates entries per utility type for reporting.
type EntrySummaryRow struct {
	UtilityType domain.UtilityType
	EntryCount  int64
	Consumption float64
	AmountMYR   float64
	CO2eKg      float64
}

const summarizeEntries = `
SELECT utility_type, count(*), coalesce(sum(consumption), 0),
	coalesce(sum(amount_myr), 0), coalesce(sum(co2e_kg), 0)
FROM entries
WHERE tenant_id = $1 AND period_start >= $2 AND period_start < $3
GROUP BY utility_type
ORDER BY utility_type
`

// SummarizeEntries aggregates a tenant's entries over a period.
func (q *Queries) SummarizeEntries(ctx context.Context, tenantID uuid.UUID, from, to time.Time) ([]EntrySummaryRow, error) {
	rows, err := q.db.QueryContext(ctx, summarizeEntries, tenantID, from, to)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []EntrySummaryRow
	for rows.Next() {
		var r EntrySummaryRow
		var ut string
		if err := rows.Scan(&ut, &r.EntryCount, &r.Consumption, &r.AmountMYR, &r.CO2eKg); err != nil {
			return nil, err
		}
		r.UtilityType = domain.UtilityType(ut)
		out = append(out, r)
	}
	return out, rows.Err()
}

func scanEntry(row rowScanner) (*domain.Entry, error) {
	var e domain.Entry
	var ut, source string
	err := row.Scan(&e.ID, &e.TenantID, &e.CreatedBy, &ut, &e.Provider, &e.PeriodStart, &e.PeriodEnd,
		&e.Consumption, &e.Unit, &e.AmountMYR, &e.CO2eKg, &source, &e.BillImageKey, &e.CreatedAt, &e.UpdatedAt)
	if err != nil {
		return nil, err
	}
	e.UtilityType = domain.UtilityType(ut)
	e.Source = domain.EntrySource(source)
	return &e, nil
}

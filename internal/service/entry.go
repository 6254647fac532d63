package service

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/tenagalabs/jejak/internal/analytics"
	"github.com/tenagalabs/jejak/internal/domain"
	"github.com/tenagalabs/jejak/internal/emission"
	"github.com/tenagalabs/jejak/internal/repository"
)

// EntryService manages utility consumption entries.
type EntryService interface {
	// Create validates the parameters, computes the CO2e mass from the
	// embedded factor table, and inserts the entry.
	Create(ctx context.Context, actor *domain.User, params domain.CreateEntryParams) (*domain.Entry, error)

	// Get fetches one entry scoped to the tenant.
	Get(ctx context.Context, tenantID, id uuid.UUID) (*domain.Entry, error)

	// List returns tenant entries matching the filter, newest first.
	List(ctx context.Context, params domain.ListEntriesParams) ([]*domain.Entry, error)

	// Delete removes an entry scoped to the tenant.
	Delete(ctx context.Context, actor *domain.User, id uuid.UUID) error

	// Summary aggregates consumption and CO2e per utility type over a
	// date range.
	Summary(ctx context.Context, tenantID uuid.UUID, from, to time.Time) ([]repository.EntrySummaryRow, error)
}

type entryService struct {
	queries    *repository.Queries
	calculator *emission.Calculator
	audit      AuditService
	exporter   analytics.Exporter
	logger     *slog.Logger
}

// NewEntryService creates an EntryService.
func NewEntryService(queries *repository.Queries, calculator *emission.Calculator, audit AuditService, exporter analytics.Exporter, logger *slog.Logger) EntryService {
	return &entryService{
		queries:    queries,
		calculator: calculator,
		audit:      audit,
		exporter:   exporter,
		logger:     logger,
	}
}

func (s *entryService) Create(ctx context.Context, actor *domain.User, params domain.CreateEntryParams) (*domain.Entry, error) {
	const op = "entry.create"

	if err := params.Validate(); err != nil {
		return nil, err
	}

	co2e, err := s.calculator.CO2eKg(params.UtilityType, params.Provider, params.Consumption)
	if err != nil {
		return nil, domain.Internal(err, op, "failed to compute emissions")
	}

	entry, err := s.queries.CreateEntry(ctx, repository.CreateEntryParams{
		TenantID:     params.TenantID,
		CreatedBy:    params.CreatedBy,
		UtilityType:  params.UtilityType,
		Provider:     params.Provider,
		PeriodStart:  params.PeriodStart,
		PeriodEnd:    params.PeriodEnd,
		Consumption:  params.Consumption,
		Unit:         s.calculator.Unit(params.UtilityType),
		AmountMYR:    params.AmountMYR,
		CO2eKg:       co2e,
		Source:       params.Source,
		BillImageKey: params.BillImageKey,
	})
	if err != nil {
		return nil, domain.Internal(err, op, "failed to insert entry")
	}

	s.audit.Record(ctx, domain.AppendAuditParams{
		TenantID: entry.TenantID,
		ActorID:  actor.ID,
		Action:   domain.AuditEntryCreated,
		Resource: "entry:" + entry.ID.String(),
		Detail:   fmt.Sprintf("%s entry, %.2f %s, %.2f kg CO2e", entry.UtilityType, entry.Consumption, entry.Unit, entry.CO2eKg),
	})
	s.exporter.Publish(ctx, analytics.Event{
		Type:     "entry.created",
		TenantID: entry.TenantID,
		ActorID:  actor.ID,
		Payload: map[string]any{
			"utility_type": string(entry.UtilityType),
			"consumption":  entry.Consumption,
			"co2e_kg":      entry.CO2eKg,
		},
	})

	s.logger.Info("entry created",
		"entry_id", entry.ID,
		"tenant_id", entry.TenantID,
		"utility_type", entry.UtilityType,
		"co2e_kg", entry.CO2eKg)
	return entry, nil
}

func (s *entryService) Get(ctx context.Context, tenantID, id uuid.UUID) (*domain.Entry, error) {
	const op = "entry.get"
	entry, err := s.queries.GetEntryByID(ctx, id, tenantID)
	if err != nil {
		if repository.IsNoRows(err) {
			return nil, domain.NotFound(op, "entry", id.String())
		}
		return nil, domain.Internal(err, op, "failed to load entry")
	}
	return entry, nil
}

func (s *entryService) List(ctx context.Context, params domain.ListEntriesParams) ([]*domain.Entry, error) {
	const op = "entry.list"

	if params.Limit <= 0 || params.Limit > 200 {
		params.Limit = 50
	}
	if params.Offset < 0 {
		params.Offset = 0
	}
	if params.UtilityType != "" && !params.UtilityType.Valid() {
		return nil, domain.Invalid(op, "unknown utility type")
	}

	entries, err := s.queries.ListEntries(ctx, params)
	if err != nil {
		return nil, domain.Internal(err, op, "failed to list entries")
	}
	return entries, nil
}

func (s *entryService) Delete(ctx context.Context, actor *domain.User, id uuid.UUID) error {
	const op = "entry.delete"

	affected, err := s.queries.DeleteEntry(ctx, id, actor.TenantID)
	if err != nil {
		return domain.Internal(err, op, "failed to delete entry")
	}
	if affected == 0 {
		return domain.NotFound(op, "entry", id.String())
	}

	s.audit.Record(ctx, domain.AppendAuditParams{
		TenantID: actor.TenantID,
		ActorID:  actor.ID,
		Action:   domain.AuditEntryDeleted,
		Resource: "entry:" + id.String(),
	})

	s.logger.Info("entry deleted", "entry_id", id, "tenant_id", actor.TenantID)
	return nil
}

func (s *entryService) Summary(ctx context.Context, tenantID uuid.UUID, from, to time.Time) ([]repository.EntrySummaryRow, error) {
	const op = "entry.summary"
	rows, err := s.queries.SummarizeEntries(ctx, tenantID, from, to)
	if err != nil {
		return nil, domain.Internal(err, op, "failed to summarize entries")
	}
	return rows, nil
}

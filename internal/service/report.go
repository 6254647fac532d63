package service

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/tenagalabs/jejak/internal/domain"
	"github.com/tenagalabs/jejak/internal/repository"
	"github.com/tenagalabs/jejak/internal/storage"
)

// JobTypeGenerateReport identifies report generation jobs in the queue.
const JobTypeGenerateReport = "generate_report"

// GenerateReportPayload is the queue payload for a report job.
type GenerateReportPayload struct {
	ReportID uuid.UUID `json:"reportId"`
	TenantID uuid.UUID `json:"tenantId"`
	UserID   uuid.UUID `json:"userId"`
}

// ReportService manages ESG report generation.
type ReportService interface {
	// Request validates the parameters, creates a pending report row,
	// and enqueues the generation job. The caller has already passed
	// the rate limiter; the monthly quota is consumed by the job when
	// generation succeeds.
	Request(ctx context.Context, actor *domain.User, params domain.CreateReportParams) (*domain.Report, error)

	// Get fetches one report scoped to the tenant.
	Get(ctx context.Context, tenantID, id uuid.UUID) (*domain.Report, error)

	// List returns a tenant's reports, newest first.
	List(ctx context.Context, tenantID uuid.UUID, limit int32) ([]*domain.Report, error)

	// DownloadURL returns a short-lived URL for a completed report's
	// artifact.
	DownloadURL(ctx context.Context, tenantID, id uuid.UUID) (string, error)
}

type reportService struct {
	queries *repository.Queries
	store   storage.Storage
	audit   AuditService
	logger  *slog.Logger
}

// NewReportService creates a ReportService.
func NewReportService(queries *repository.Queries, store storage.Storage, audit AuditService, logger *slog.Logger) ReportService {
	return &reportService{
		queries: queries,
		store:   store,
		audit:   audit,
		logger:  logger,
	}
}

func (s *reportService) Request(ctx context.Context, actor *domain.User, params domain.CreateReportParams) (*domain.Report, error) {
	const op = "report.request"

	params.TenantID = actor.TenantID
	params.RequestedBy = actor.ID
	if params.Title == "" {
		params.Title = fmt.Sprintf("ESG Report %s to %s",
			params.PeriodStart.Format("Jan 2006"), params.PeriodEnd.Format("Jan 2006"))
	}
	if err := params.Validate(); err != nil {
		return nil, err
	}

	rep, err := s.queries.CreateReport(ctx, params)
	if err != nil {
		return nil, domain.Internal(err, op, "failed to create report")
	}

	payload, err := json.Marshal(GenerateReportPayload{
		ReportID: rep.ID,
		TenantID: rep.TenantID,
		UserID:   actor.ID,
	})
	if err != nil {
		return nil, domain.Internal(err, op, "failed to serialize job payload")
	}
	if _, err := s.queries.EnqueueJob(ctx, repository.EnqueueJobParams{
		JobType:     JobTypeGenerateReport,
		Payload:     payload,
		MaxAttempts: 3,
		ScheduledAt: time.Now(),
	}); err != nil {
		return nil, domain.Internal(err, op, "failed to enqueue report job")
	}

	s.audit.Record(ctx, domain.AppendAuditParams{
		TenantID: actor.TenantID,
		ActorID:  actor.ID,
		Action:   domain.AuditReportRequested,
		Resource: "report:" + rep.ID.String(),
		Detail:   fmt.Sprintf("%s report for %s to %s", rep.Format, rep.PeriodStart.Format("2006-01-02"), rep.PeriodEnd.Format("2006-01-02")),
	})

	s.logger.Info("report requested", "report_id", rep.ID, "tenant_id", rep.TenantID, "format", rep.Format)
	return rep, nil
}

func (s *reportService) Get(ctx context.Context, tenantID, id uuid.UUID) (*domain.Report, error) {
	const op = "report.get"
	rep, err := s.queries.GetReportByID(ctx, id, tenantID)
	if err != nil {
		if repository.IsNoRows(err) {
			return nil, domain.NotFound(op, "report", id.String())
		}
		return nil, domain.Internal(err, op, "failed to load report")
	}
	return rep, nil
}

func (s *reportService) List(ctx context.Context, tenantID uuid.UUID, limit int32) ([]*domain.Report, error) {
	const op = "report.list"
	if limit <= 0 || limit > 100 {
		limit = 25
	}
	reports, err := s.queries.ListReports(ctx, tenantID, limit)
	if err != nil {
		return nil, domain.Internal(err, op, "failed to list reports")
	}
	return reports, nil
}

func (s *reportService) DownloadURL(ctx context.Context, tenantID, id uuid.UUID) (string, error) {
	const op = "report.download"

	rep, err := s.Get(ctx, tenantID, id)
	if err != nil {
		return "", err
	}
	if rep.Status != domain.ReportStatusCompleted || rep.ArtifactKey == "" {
		return "", domain.Conflict(op, "report is not ready for download")
	}

	url, err := s.store.URL(ctx, rep.ArtifactKey, 15*time.Minute)
	if err != nil {
		return "", domain.Internal(err, op, "failed to generate download URL")
	}
	return url, nil
}

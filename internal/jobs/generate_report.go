package jobs

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/tenagalabs/jejak/internal/domain"
	"github.com/tenagalabs/jejak/internal/metrics"
	"github.com/tenagalabs/jejak/internal/report"
	"github.com/tenagalabs/jejak/internal/repository"
	"github.com/tenagalabs/jejak/internal/service"
	"github.com/tenagalabs/jejak/internal/storage"
	"github.com/tenagalabs/jejak/internal/worker"
)

// GenerateReportHandler renders a requested ESG report and stores the
// artifact.
type GenerateReportHandler struct {
	queries *repository.Queries
	store   storage.Storage
	quota   service.QuotaService
	audit   service.AuditService
	logger  *slog.Logger
}

// NewGenerateReportHandler creates the handler.
func NewGenerateReportHandler(
	queries *repository.Queries,
	store storage.Storage,
	quota service.QuotaService,
	audit service.AuditService,
	logger *slog.Logger,
) *GenerateReportHandler {
	return &GenerateReportHandler{
		queries: queries,
		store:   store,
		quota:   quota,
		audit:   audit,
		logger:  logger,
	}
}

func (h *GenerateReportHandler) Type() string {
	return service.JobTypeGenerateReport
}

func (h *GenerateReportHandler) Handle(ctx context.Context, payload []byte) error {
	var p service.GenerateReportPayload
	if err := json.Unmarshal(payload, &p); err != nil {
		return worker.NewPermanentError(fmt.Errorf("unmarshal payload: %w", err))
	}

	rep, err := h.queries.GetReportByID(ctx, p.ReportID, p.TenantID)
	if err != nil {
		if repository.IsNoRows(err) {
			return worker.NewPermanentError(fmt.Errorf("report %s not found", p.ReportID))
		}
		return fmt.Errorf("load report: %w", err)
	}
	if rep.Status == domain.ReportStatusCompleted {
		// A retried job after a lost completion update; nothing to do.
		return nil
	}

	if err := h.queries.MarkReportRunning(ctx, rep.ID); err != nil {
		return fmt.Errorf("mark report running: %w", err)
	}

	if err := h.generate(ctx, rep, p); err != nil {
		metrics.ReportsGenerated.WithLabelValues(string(rep.Format), "failed").Inc()
		if markErr := h.queries.MarkReportFailed(ctx, rep.ID, err.Error()); markErr != nil {
			h.logger.Error("failed to mark report failed", "report_id", rep.ID, "error", markErr)
		}
		return err
	}

	metrics.ReportsGenerated.WithLabelValues(string(rep.Format), "completed").Inc()
	return nil
}

func (h *GenerateReportHandler) generate(ctx context.Context, rep *domain.Report, p service.GenerateReportPayload) error {
	tenant, err := h.queries.GetTenantByID(ctx, rep.TenantID)
	if err != nil {
		return fmt.Errorf("load tenant: %w", err)
	}

	entries, err := h.queries.ListEntries(ctx, domain.ListEntriesParams{
		TenantID: rep.TenantID,
		From:     rep.PeriodStart,
		To:       rep.PeriodEnd,
		Limit:    10000,
	})
	if err != nil {
		return fmt.Errorf("load entries: %w", err)
	}
	summary, err := h.queries.SummarizeEntries(ctx, rep.TenantID, rep.PeriodStart, rep.PeriodEnd)
	if err != nil {
		return fmt.Errorf("summarize entries: %w", err)
	}

	rendered, err := report.Render(rep.Format, report.Input{
		Tenant:      tenant,
		Title:       rep.Title,
		PeriodStart: rep.PeriodStart,
		PeriodEnd:   rep.PeriodEnd,
		Entries:     entries,
		Summary:     summary,
		GeneratedAt: time.Now().UTC(),
	})
	if err != nil {
		return worker.NewPermanentError(fmt.Errorf("render report: %w", err))
	}

	artifactKey := storage.ReportKey(rep.TenantID, rep.ID, string(rep.Format))
	err = h.store.Put(ctx, artifactKey, bytes.NewReader(rendered.Data), storage.PutOptions{
		ContentType: rendered.ContentType,
		Overwrite:   true,
	})
	if err != nil {
		return fmt.Errorf("store artifact: %w", err)
	}

	if err := h.queries.MarkReportCompleted(ctx, rep.ID, artifactKey, rendered.TotalCO2eKg, rendered.EntryCount); err != nil {
		return fmt.Errorf("mark report completed: %w", err)
	}

	user, err := h.queries.GetUserByID(ctx, p.UserID)
	if err != nil {
		return fmt.Errorf("load user: %w", err)
	}
	if err := h.quota.Consume(ctx, user, domain.OpReportGeneration); err != nil {
		var quotaErr *domain.QuotaError
		if errors.As(err, &quotaErr) {
			// The artifact exists; count the rejection but keep the
			// report available.
			metrics.QuotaRejections.WithLabelValues(string(domain.OpReportGeneration)).Inc()
			h.logger.Warn("report generated at quota boundary", "report_id", rep.ID, "error", err)
		} else {
			return err
		}
	} else {
		metrics.QuotaConsumed.WithLabelValues(string(domain.OpReportGeneration)).Inc()
	}

	h.audit.Record(ctx, domain.AppendAuditParams{
		TenantID: rep.TenantID,
		ActorID:  p.UserID,
		Action:   domain.AuditReportCompleted,
		Resource: "report:" + rep.ID.String(),
		Detail:   fmt.Sprintf("%s report, %d entries, %.2f kg CO2e", rep.Format, rendered.EntryCount, rendered.TotalCO2eKg),
	})

	h.logger.Info("report generated",
		"report_id", rep.ID,
		"tenant_id", rep.TenantID,
		"format", rep.Format,
		"entries", rendered.EntryCount,
		"total_co2e_kg", rendered.TotalCO2eKg)
	return nil
}

// Package jobs contains the background job handlers.
package jobs

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"

	"github.com/google/uuid"

	"github.com/tenagalabs/jejak/internal/ai"
	"github.com/tenagalabs/jejak/internal/domain"
	"github.com/tenagalabs/jejak/internal/metrics"
	"github.com/tenagalabs/jejak/internal/repository"
	"github.com/tenagalabs/jejak/internal/service"
	"github.com/tenagalabs/jejak/internal/storage"
	"github.com/tenagalabs/jejak/internal/worker"
)

// JobTypeAnalyzeBill identifies bill analysis jobs in the queue.
const JobTypeAnalyzeBill = "analyze_bill"

// AnalyzeBillPayload is the queue payload for a bill analysis job.
type AnalyzeBillPayload struct {
	TenantID    uuid.UUID `json:"tenantId"`
	UserID      uuid.UUID `json:"userId"`
	ImageKey    string    `json:"imageKey"`
	ContentType string    `json:"contentType"`
}

// AnalyzeBillHandler extracts billing data from an uploaded bill image
// and creates the emission entry.
type AnalyzeBillHandler struct {
	queries   *repository.Queries
	store     storage.Storage
	extractor ai.BillExtractor
	entries   service.EntryService
	quota     service.QuotaService
	audit     service.AuditService
	logger    *slog.Logger
}

// NewAnalyzeBillHandler creates the handler.
func NewAnalyzeBillHandler(
	queries *repository.Queries,
	store storage.Storage,
	extractor ai.BillExtractor,
	entries service.EntryService,
	quota service.QuotaService,
	audit service.AuditService,
	logger *slog.Logger,
) *AnalyzeBillHandler {
	return &AnalyzeBillHandler{
		queries:   queries,
		store:     store,
		extractor: extractor,
		entries:   entries,
		quota:     quota,
		audit:     audit,
		logger:    logger,
	}
}

func (h *AnalyzeBillHandler) Type() string {
	return JobTypeAnalyzeBill
}

func (h *AnalyzeBillHandler) Handle(ctx context.Context, payload []byte) error {
	var p AnalyzeBillPayload
	if err := json.Unmarshal(payload, &p); err != nil {
		return worker.NewPermanentError(fmt.Errorf("unmarshal payload: %w", err))
	}

	user, err := h.queries.GetUserByID(ctx, p.UserID)
	if err != nil {
		if repository.IsNoRows(err) {
			return worker.NewPermanentError(fmt.Errorf("user %s not found", p.UserID))
		}
		return fmt.Errorf("load user: %w", err)
	}

	imageData, err := h.readImage(ctx, p.ImageKey)
	if err != nil {
		if storage.IsNotFound(err) {
			return worker.NewPermanentError(err)
		}
		return err
	}

	extraction, err := h.extractor.ExtractBill(ctx, ai.ExtractBillParams{
		ImageData:   imageData,
		ContentType: p.ContentType,
		TenantID:    p.TenantID,
		UserID:      p.UserID,
	})
	if err != nil {
		metrics.BillsAnalyzed.WithLabelValues("failed").Inc()
		// Bad input never gets better on retry.
		if errors.Is(err, ai.ErrInvalidImage) || errors.Is(err, ai.ErrUnreadable) {
			return worker.NewPermanentError(err)
		}
		return err
	}
	metrics.AITokensTotal.WithLabelValues(extraction.Usage.Model, "input").Add(float64(extraction.Usage.InputTokens))
	metrics.AITokensTotal.WithLabelValues(extraction.Usage.Model, "output").Add(float64(extraction.Usage.OutputTokens))

	utility := domain.UtilityType(extraction.UtilityType)
	if !utility.Valid() {
		metrics.BillsAnalyzed.WithLabelValues("failed").Inc()
		return worker.NewPermanentError(fmt.Errorf("extraction returned unknown utility type %q", extraction.UtilityType))
	}

	h.storeThumbnail(ctx, p.ImageKey, p.ContentType, imageData)

	entry, err := h.entries.Create(ctx, user, domain.CreateEntryParams{
		TenantID:     p.TenantID,
		CreatedBy:    p.UserID,
		UtilityType:  utility,
		Provider:     extraction.Provider,
		PeriodStart:  extraction.PeriodStart,
		PeriodEnd:    extraction.PeriodEnd,
		Consumption:  extraction.Consumption,
		AmountMYR:    extraction.AmountMYR,
		Source:       domain.EntrySourceBill,
		BillImageKey: p.ImageKey,
	})
	if err != nil {
		metrics.BillsAnalyzed.WithLabelValues("failed").Inc()
		if domain.ErrorCode(err) == domain.EINVALID {
			return worker.NewPermanentError(err)
		}
		return err
	}

	// Usage counts only after the analysis produced an entry. The
	// conditional increment keeps concurrent jobs from overshooting the
	// monthly cap.
	if err := h.quota.Consume(ctx, user, domain.OpBillAnalysis); err != nil {
		var quotaErr *domain.QuotaError
		if errors.As(err, &quotaErr) {
			metrics.QuotaRejections.WithLabelValues(string(domain.OpBillAnalysis)).Inc()
			return worker.NewPermanentError(err)
		}
		return err
	}
	metrics.QuotaConsumed.WithLabelValues(string(domain.OpBillAnalysis)).Inc()
	metrics.BillsAnalyzed.WithLabelValues("completed").Inc()

	h.audit.Record(ctx, domain.AppendAuditParams{
		TenantID: p.TenantID,
		ActorID:  p.UserID,
		Action:   domain.AuditBillAnalyzed,
		Resource: "entry:" + entry.ID.String(),
		Detail:   fmt.Sprintf("%s bill from %s, confidence %s", utility, extraction.Provider, extraction.Confidence),
	})

	h.logger.Info("bill analyzed",
		"tenant_id", p.TenantID,
		"entry_id", entry.ID,
		"utility_type", utility,
		"confidence", extraction.Confidence,
		"duration", extraction.Usage.Duration)
	return nil
}

func (h *AnalyzeBillHandler) readImage(ctx context.Context, key string) ([]byte, error) {
	reader, _, err := h.store.Get(ctx, key)
	if err != nil {
		return nil, err
	}
	defer reader.Close()
	return io.ReadAll(reader)
}

// storeThumbnail renders a list-view thumbnail next to the bill image.
// The key mirrors the bill key with a thumbnails/ segment so list views
// can derive it. Failures are cosmetic and only logged.
func (h *AnalyzeBillHandler) storeThumbnail(ctx context.Context, imageKey, contentType string, imageData []byte) {
	if !storage.IsImage(contentType) {
		return
	}

	thumb, err := service.GenerateThumbnail(imageData)
	if err != nil {
		h.logger.Warn("failed to generate bill thumbnail", "key", imageKey, "error", err)
		return
	}

	thumbKey := ThumbnailKeyFor(imageKey)
	err = h.store.Put(ctx, thumbKey, bytes.NewReader(thumb), storage.PutOptions{
		ContentType: "image/jpeg",
		Overwrite:   true,
	})
	if err != nil {
		h.logger.Warn("failed to store bill thumbnail", "key", thumbKey, "error", err)
	}
}

// ThumbnailKeyFor derives the thumbnail key from a bill image key.
func ThumbnailKeyFor(imageKey string) string {
	key := strings.Replace(imageKey, "/bills/", "/thumbnails/", 1)
	if idx := strings.LastIndex(key, "."); idx > 0 {
		key = key[:idx]
	}
	return key + ".jpg"
}

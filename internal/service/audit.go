package service

import (
	"context"
	"log/slog"

	"github.com/google/uuid"

	"github.com/tenagalabs/jejak/internal/domain"
	"github.com/tenagalabs/jejak/internal/repository"
)

// AuditService appends and lists immutable audit records.
type AuditService interface {
	// Record appends an audit record. Failures are logged, not
	// returned; a broken audit insert must not fail the operation that
	// produced it.
	Record(ctx context.Context, params domain.AppendAuditParams)

	// List returns a tenant's audit records, newest first.
	List(ctx context.Context, tenantID uuid.UUID, limit, offset int32) ([]*domain.AuditLog, error)
}

type auditService struct {
	queries *repository.Queries
	logger  *slog.Logger
}

// NewAuditService creates an AuditService.
func NewAuditService(queries *repository.Queries, logger *slog.Logger) AuditService {
	return &auditService{queries: queries, logger: logger}
}

func (s *auditService) Record(ctx context.Context, params domain.AppendAuditParams) {
	if _, err := s.queries.AppendAuditLog(ctx, params); err != nil {
		s.logger.Error("failed to append audit record",
			"action", params.Action,
			"tenant_id", params.TenantID,
			"error", err)
	}
}

func (s *auditService) List(ctx context.Context, tenantID uuid.UUID, limit, offset int32) ([]*domain.AuditLog, error) {
	const op = "audit.list"

	if limit <= 0 || limit > 200 {
		limit = 50
	}
	if offset < 0 {
		offset = 0
	}

	logs, err := s.queries.ListAuditLogs(ctx, tenantID, limit, offset)
	if err != nil {
		return nil, domain.Internal(err, op, "failed to list audit records")
	}
	return logs, nil
}

package repository

import (
	"context"

	"github.com/google/uuid"

	"github.com/tenagalabs/jejak/internal/domain"
)

const appendAuditLog = `
INSERT INTO audit_logs (id, tenant_id, actor_id, action, resource, detail, ip)
VALUES ($1, $2, $3, $4, $5, $6, $7)
RETURNING id, tenant_id, actor_id, action, resource, detail, ip, created_at
`

// AppendAuditLog inserts an immutable audit record.
func (q *Queries) AppendAuditLog(ctx context.Context, params domain.AppendAuditParams) (*domain.AuditLog, error) {
	row := q.db.QueryRowContext(ctx, appendAuditLog,
		uuid.New(), params.TenantID, params.ActorID, string(params.Action),
		params.Resource, params.Detail, params.IP)
	return scanAuditLog(row)
}

const listAuditLogs = `
SELECT id, tenant_id, actor_id, action, resource, detail, ip, created_at
FROM audit_logs WHERE tenant_id = $1
ORDER BY created_at DESC
LIMIT $2 OFFSET $3
`

// ListAuditLogs returns a tenant's audit records, newest first.
func (q *Queries) ListAuditLogs(ctx context.Context, tenantID uuid.UUID, limit, offset int32) ([]*domain.AuditLog, error) {
	if limit <= 0 || limit > 200 {
		limit = 50
	}
	rows, err := q.db.QueryContext(ctx, listAuditLogs, tenantID, limit, offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var logs []*domain.AuditLog
	for rows.Next() {
		l, err := scanAuditLog(rows)
		if err != nil {
			return nil, err
		}
		logs = append(logs, l)
	}
	return logs, rows.Err()
}

func scanAuditLog(row rowScanner) (*domain.AuditLog, error) {
	var l domain.AuditLog
	var action string
	err := row.Scan(&l.ID, &l.TenantID, &l.ActorID, &action, &l.Resource, &l.Detail, &l.IP, &l.CreatedAt)
	if err != nil {
		return nil, err
	}
	l.Action = domain.AuditAction(action)
	return &l, nil
}

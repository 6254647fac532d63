package repository

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/tenagalabs/jejak/internal/domain"
)

// CreateInvitationParams contains the fields for invitation insertion.
type CreateInvitationParams struct {
	TenantID  uuid.UUID
	InvitedBy uuid.UUID
	Email     string
	Role      domain.Role
	TokenHash string
	ExpiresAt time.Time
}

const createInvitation = `
INSERT INTO invitations (id, tenant_id, invited_by, email, role, token_hash, status, expires_at)
VALUES ($1, $2, $3, $4, $5, $6, 'pending', $7)
RETURNING id, tenant_id, invited_by, email, role, token_hash, status, expires_at, created_at, updated_at
`

// CreateInvitation inserts a pending invitation.
func (q *Queries) CreateInvitation(ctx context.Context, params CreateInvitationParams) (*domain.Invitation, error) {
	row := q.db.QueryRowContext(ctx, createInvitation,
		uuid.New(), params.TenantID, params.InvitedBy, params.Email, string(params.Role),
		params.TokenHash, params.ExpiresAt)
	return scanInvitation(row)
}

const getInvitationByTokenHash = `
SELECT id, tenant_id, invited_by, email, role, token_hash, status, expires_at, created_at, updated_at
FROM invitations WHERE token_hash = $1
`

// GetInvitationByTokenHash fetches an invitation by its hashed token.
func (q *Queries) GetInvitationByTokenHash(ctx context.Context, tokenHash string) (*domain.Invitation, error) {
	return scanInvitation(q.db.QueryRowContext(ctx, getInvitationByTokenHash, tokenHash))
}

const transitionInvitation = `
UPDATE invitations SET status = $2, updated_at = now()
WHERE id = $1 AND status = 'pending'
`

// TransitionInvitation moves a pending invitation to a terminal status.
// The status guard in the WHERE clause enforces the one-way lifecycle at
// the database level; returns the number of rows moved so the caller can
// detect a lost race.
func (q *Queries) TransitionInvitation(ctx context.Context, id uuid.UUID, target domain.InvitationStatus) (int64, error) {
	res, err := q.db.ExecContext(ctx, transitionInvitation, id, string(target))
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

const cancelInvitation = `
UPDATE invitations SET status = 'cancelled', updated_at = now()
WHERE id = $1 AND tenant_id = $2 AND status = 'pending'
`

// CancelInvitation cancels a pending invitation, scoped to the tenant.
func (q *Queries) CancelInvitation(ctx context.Context, id, tenantID uuid.UUID) (int64, error) {
	res, err := q.db.ExecContext(ctx, cancelInvitation, id, tenantID)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

const getInvitation = `
SELECT id, tenant_id, invited_by, email, role, token_hash, status, expires_at, created_at, updated_at
FROM invitations WHERE id = $1 AND tenant_id = $2
`

// GetInvitation fetches an invitation by ID, scoped to the tenant.
func (q *Queries) GetInvitation(ctx context.Context, id, tenantID uuid.UUID) (*domain.Invitation, error) {
	return scanInvitation(q.db.QueryRowContext(ctx, getInvitation, id, tenantID))
}

const listPendingInvitations = `
SELECT id, tenant_id, invited_by, email, role, token_hash, status, expires_at, created_at, updated_at
FROM invitations WHERE tenant_id = $1 AND status = 'pending' ORDER BY created_at DESC
`

// ListPendingInvitations returns a tenant's pending invitations.
func (q *Queries) ListPendingInvitations(ctx context.Context, tenantID uuid.UUID) ([]*domain.Invitation, error) {
	rows, err := q.db.QueryContext(ctx, listPendingInvitations, tenantID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var invs []*domain.Invitation
	for rows.Next() {
		inv, err := scanInvitation(rows)
		if err != nil {
			return nil, err
		}
		invs = append(invs, inv)
	}
	return invs, rows.Err()
}

const expireLapsedInvitations = `
UPDATE invitations SET status = 'expired', updated_at = now()
WHERE status = 'pending' AND expires_at <= now()
`

// ExpireLapsedInvitations flips pending invitations past their deadline
// to expired. Called from the maintenance sweep; the accept flow also
// flips lazily on read.
func (q *Queries) ExpireLapsedInvitations(ctx context.Context) (int64, error) {
	res, err := q.db.ExecContext(ctx, expireLapsedInvitations)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

func scanInvitation(row rowScanner) (*domain.Invitation, error) {
	var inv domain.Invitation
	var role, status string
	err := row.Scan(&inv.ID, &inv.TenantID, &inv.InvitedBy, &inv.Email, &role, &inv.TokenHash,
		&status, &inv.ExpiresAt, &inv.CreatedAt, &inv.UpdatedAt)
	if err != nil {
		return nil, err
	}
	inv.Role = domain.Role(role)
	inv.Status = domain.InvitationStatus(status)
	return &inv, nil
}

package repository

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/tenagalabs/jejak/internal/domain"
)

// CreateUserParams contains the fields for user insertion.
type CreateUserParams struct {
	TenantID     uuid.UUID
	Email        string
	PasswordHash string
	Name         string
	Role         domain.Role
}

const createUser = `
INSERT INTO users (id, tenant_id, email, password_hash, name, role, active)
VALUES ($1, $2, $3, $4, $5, $6, true)
RETURNING id, tenant_id, email, password_hash, name, role, active, created_at, updated_at
`

// CreateUser inserts a new user.
func (q *Queries) CreateUser(ctx context.Context, params CreateUserParams) (*domain.User, error) {
	row := q.db.QueryRowContext(ctx, createUser,
		uuid.New(), params.TenantID, params.Email, params.PasswordHash, params.Name, string(params.Role))
	return scanUser(row)
}

const getUserByID = `
SELECT id, tenant_id, email, password_hash, name, role, active, created_at, updated_at
FROM users WHERE id = $1
`

// GetUserByID fetches a user by ID.
func (q *Queries) GetUserByID(ctx context.Context, id uuid.UUID) (*domain.User, error) {
	return scanUser(q.db.QueryRowContext(ctx, getUserByID, id))
}

const getUserByEmail = `
SELECT id, tenant_id, email, password_hash, name, role, active, created_at, updated_at
FROM users WHERE email = lower($1)
`

// GetUserByEmail fetches a user by email.
func (q *Queries) GetUserByEmail(ctx context.Context, email string) (*domain.User, error) {
	return scanUser(q.db.QueryRowContext(ctx, getUserByEmail, email))
}

const listUsersByTenant = `
SELECT id, tenant_id, email, password_hash, name, role, active, created_at, updated_at
FROM users WHERE tenant_id = $1 ORDER BY created_at
`

// ListUsersByTenant returns all users in a tenant.
func (q *Queries) ListUsersByTenant(ctx context.Context, tenantID uuid.UUID) ([]*domain.User, error) {
	rows, err := q.db.QueryContext(ctx, listUsersByTenant, tenantID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var users []*domain.User
	for rows.Next() {
		u, err := scanUser(rows)
		if err != nil {
			return nil, err
		}
		users = append(users, u)
	}
	return users, rows.Err()
}

// =============================================================================
// Sessions
// =============================================================================

const createSession = `
INSERT INTO sessions (id, user_id, token_hash, expires_at)
VALUES ($1, $2, $3, $4)
`

// CreateSession inserts a session row for a hashed bearer token.
func (q *Queries) CreateSession(ctx context.Context, userID uuid.UUID, tokenHash string, expiresAt time.Time) error {
	_, err := q.db.ExecContext(ctx, createSession, uuid.New(), userID, tokenHash, expiresAt)
	return err
}

const getUserBySessionTokenHash = `
SELECT u.id, u.tenant_id, u.email, u.password_hash, u.name, u.role, u.active, u.created_at, u.updated_at
FROM sessions s
JOIN users u ON u.id = s.user_id
WHERE s.token_hash = $1 AND s.expires_at > now() AND u.active
`

// GetUserBySessionTokenHash resolves an unexpired session to its user.
func (q *Queries) GetUserBySessionTokenHash(ctx context.Context, tokenHash string) (*domain.User, error) {
	return scanUser(q.db.QueryRowContext(ctx, getUserBySessionTokenHash, tokenHash))
}

const deleteSessionByTokenHash = `
DELETE FROM sessions WHERE token_hash = $1
`

// DeleteSessionByTokenHash removes a session (logout). Idempotent.
func (q *Queries) DeleteSessionByTokenHash(ctx context.Context, tokenHash string) error {
	_, err := q.db.ExecContext(ctx, deleteSessionByTokenHash, tokenHash)
	return err
}

const deleteExpiredSessions = `
DELETE FROM sessions WHERE expires_at <= now()
`

// DeleteExpiredSessions removes expired sessions; called from the
// maintenance sweep.
func (q *Queries) DeleteExpiredSessions(ctx context.Context) (int64, error) {
	res, err := q.db.ExecContext(ctx, deleteExpiredSessions)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

func scanUser(row rowScanner) (*domain.User, error) {
	var u domain.User
	var role string
	err := row.Scan(&u.ID, &u.TenantID, &u.Email, &u.PasswordHash, &u.Name, &role, &u.Active, &u.CreatedAt, &u.UpdatedAt)
	if err != nil {
		return nil, err
	}
	u.Role = domain.Role(role)
	return &u, nil
}

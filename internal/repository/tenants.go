package repository

import (
	"context"

	"github.com/google/uuid"

	"github.com/tenagalabs/jejak/internal/domain"
)

const createTenant = `
INSERT INTO tenants (id, name, uen, tier, contact_name, phone, active)
VALUES ($1, $2, $3, $4, $5, $6, true)
RETURNING id, name, uen, tier, contact_name, phone, active, created_at, updated_at
`

// CreateTenant inserts a new tenant.
func (q *Queries) CreateTenant(ctx context.Context, params domain.CreateTenantParams) (*domain.Tenant, error) {
	row := q.db.QueryRowContext(ctx, createTenant,
		uuid.New(), params.Name, params.UEN, string(params.Tier), params.ContactName, params.Phone)
	return scanTenant(row)
}

const getTenantByID = `
SELECT id, name, uen, tier, contact_name, phone, active, created_at, updated_at
FROM tenants WHERE id = $1
`

// GetTenantByID fetches a tenant by ID.
func (q *Queries) GetTenantByID(ctx context.Context, id uuid.UUID) (*domain.Tenant, error) {
	return scanTenant(q.db.QueryRowContext(ctx, getTenantByID, id))
}

const getTenantByUEN = `
SELECT id, name, uen, tier, contact_name, phone, active, created_at, updated_at
FROM tenants WHERE uen = $1
`

// GetTenantByUEN fetches a tenant by its registration number.
func (q *Queries) GetTenantByUEN(ctx context.Context, uen string) (*domain.Tenant, error) {
	return scanTenant(q.db.QueryRowContext(ctx, getTenantByUEN, uen))
}

const updateTenantTier = `
UPDATE tenants SET tier = $2, updated_at = now() WHERE id = $1
`

// UpdateTenantTier changes a tenant's subscription tier.
func (q *Queries) UpdateTenantTier(ctx context.Context, id uuid.UUID, tier domain.SubscriptionTier) error {
	_, err := q.db.ExecContext(ctx, updateTenantTier, id, string(tier))
	return err
}

const countActiveUsers = `
SELECT count(*) FROM users WHERE tenant_id = $1 AND active
`

// CountActiveUsers returns the number of active users in a tenant,
// used for the MaxUsers quota check.
func (q *Queries) CountActiveUsers(ctx context.Context, tenantID uuid.UUID) (int64, error) {
	var n int64
	err := q.db.QueryRowContext(ctx, countActiveUsers, tenantID).Scan(&n)
	return n, err
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanTenant(row rowScanner) (*domain.Tenant, error) {
	var t domain.Tenant
	var tier string
	err := row.Scan(&t.ID, &t.Name, &t.UEN, &tier, &t.ContactName, &t.Phone, &t.Active, &t.CreatedAt, &t.UpdatedAt)
	if err != nil {
		return nil, err
	}
	t.Tier = domain.SubscriptionTier(tier)
	return &t, nil
}

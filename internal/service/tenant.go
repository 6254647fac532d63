package service

import (
	"context"
	"log/slog"
	"strings"

	"github.com/google/uuid"

	"github.com/tenagalabs/jejak/internal/domain"
	"github.com/tenagalabs/jejak/internal/repository"
)

// TenantService manages tenant organizations.
type TenantService interface {
	// Create registers a new tenant with its first admin user inside a
	// single transaction.
	Create(ctx context.Context, params domain.CreateTenantParams, adminEmail, adminPassword, adminName string) (*domain.Tenant, *domain.User, error)

	// Get fetches a tenant by ID.
	Get(ctx context.Context, id uuid.UUID) (*domain.Tenant, error)

	// UpdateTier changes a tenant's subscription tier. Superadmin only,
	// enforced at the handler.
	UpdateTier(ctx context.Context, id uuid.UUID, tier domain.SubscriptionTier) error
}

type tenantService struct {
	queries *repository.Queries
	txer    repository.Transactor
	logger  *slog.Logger
}

// NewTenantService creates a TenantService.
func NewTenantService(queries *repository.Queries, txer repository.Transactor, logger *slog.Logger) TenantService {
	return &tenantService{queries: queries, txer: txer, logger: logger}
}

func (s *tenantService) Create(ctx context.Context, params domain.CreateTenantParams, adminEmail, adminPassword, adminName string) (*domain.Tenant, *domain.User, error) {
	const op = "tenant.create"

	params.Name = strings.TrimSpace(params.Name)
	if params.Name == "" {
		return nil, nil, domain.Invalid(op, "tenant name is required")
	}
	if err := domain.ValidateUEN(params.UEN); err != nil {
		return nil, nil, err
	}
	params.UEN = domain.NormalizeUEN(params.UEN)
	if params.Tier == "" {
		params.Tier = domain.TierTrial
	}
	if !params.Tier.Valid() {
		return nil, nil, domain.Invalid(op, "unknown subscription tier")
	}

	adminEmail = strings.TrimSpace(strings.ToLower(adminEmail))
	if adminEmail == "" || !strings.Contains(adminEmail, "@") {
		return nil, nil, domain.Invalid(op, "a valid admin email is required")
	}
	if len(adminPassword) < 8 {
		return nil, nil, domain.Invalid(op, "admin password must be at least 8 characters")
	}

	hash, err := hashPassword(adminPassword)
	if err != nil {
		return nil, nil, domain.Internal(err, op, "failed to hash password")
	}

	var tenant *domain.Tenant
	var admin *domain.User
	err = s.txer.RunTx(ctx, func(q *repository.Queries) error {
		var err error
		tenant, err = q.CreateTenant(ctx, params)
		if err != nil {
			return err
		}
		admin, err = q.CreateUser(ctx, repository.CreateUserParams{
			TenantID:     tenant.ID,
			Email:        adminEmail,
			PasswordHash: hash,
			Name:         strings.TrimSpace(adminName),
			Role:         domain.RoleAdmin,
		})
		return err
	})
	if err != nil {
		if repository.IsUniqueViolation(err) {
			return nil, nil, domain.Conflict(op, "a tenant with this UEN or admin email already exists")
		}
		return nil, nil, domain.Internal(err, op, "failed to create tenant")
	}

	s.logger.Info("tenant created", "tenant_id", tenant.ID, "uen", tenant.UEN, "tier", tenant.Tier)
	return tenant, admin, nil
}

func (s *tenantService) Get(ctx context.Context, id uuid.UUID) (*domain.Tenant, error) {
	const op = "tenant.get"
	tenant, err := s.queries.GetTenantByID(ctx, id)
	if err != nil {
		if repository.IsNoRows(err) {
			return nil, domain.NotFound(op, "tenant", id.String())
		}
		return nil, domain.Internal(err, op, "failed to load tenant")
	}
	return tenant, nil
}

func (s *tenantService) UpdateTier(ctx context.Context, id uuid.UUID, tier domain.SubscriptionTier) error {
	const op = "tenant.update_tier"

	if !tier.Valid() {
		return domain.Invalid(op, "unknown subscription tier")
	}
	if err := s.queries.UpdateTenantTier(ctx, id, tier); err != nil {
		return domain.Internal(err, op, "failed to update tier")
	}

	s.logger.Info("tenant tier updated", "tenant_id", id, "tier", tier)
	return nil
}

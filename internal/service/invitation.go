package service

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/tenagalabs/jejak/internal/domain"
	"github.com/tenagalabs/jejak/internal/email"
	"github.com/tenagalabs/jejak/internal/repository"
)

// InvitationService manages the invite flow: an admin invites an email
// address, the invitee follows a single-use token link and sets their
// password, which creates the user account.
type InvitationService interface {
	// Invite creates a pending invitation and mails the accept link.
	// Enforces the tenant's user cap before inviting.
	Invite(ctx context.Context, actor *domain.User, inviteEmail string, role domain.Role) (*domain.Invitation, error)

	// GetByToken resolves a raw invite token. A pending invitation past
	// its deadline is flipped to expired before being returned.
	GetByToken(ctx context.Context, token string) (*domain.Invitation, error)

	// Accept consumes a pending invitation and creates the user account
	// in one transaction.
	Accept(ctx context.Context, params domain.AcceptInvitationParams) (*domain.User, error)

	// Cancel moves a pending invitation to cancelled.
	Cancel(ctx context.Context, actor *domain.User, id uuid.UUID) error

	// ListPending returns a tenant's open invitations.
	ListPending(ctx context.Context, tenantID uuid.UUID) ([]*domain.Invitation, error)
}

type invitationService struct {
	queries  *repository.Queries
	txer     repository.Transactor
	settings SettingsService
	audit    AuditService
	sender   email.Sender
	baseURL  string
	logger   *slog.Logger
	now      func() time.Time
}

// NewInvitationService creates an InvitationService. baseURL is the
// public origin used to build accept links.
func NewInvitationService(queries *repository.Queries, txer repository.Transactor, settings SettingsService, audit AuditService, sender email.Sender, baseURL string, logger *slog.Logger) InvitationService {
	return &invitationService{
		queries:  queries,
		txer:     txer,
		settings: settings,
		audit:    audit,
		sender:   sender,
		baseURL:  strings.TrimRight(baseURL, "/"),
		logger:   logger,
		now:      time.Now,
	}
}

func (s *invitationService) Invite(ctx context.Context, actor *domain.User, inviteEmail string, role domain.Role) (*domain.Invitation, error) {
	const op = "invitation.invite"

	inviteEmail = strings.TrimSpace(strings.ToLower(inviteEmail))
	if inviteEmail == "" || !strings.Contains(inviteEmail, "@") {
		return nil, domain.Invalid(op, "a valid email is required")
	}
	if !role.Valid() || role == domain.RoleSuperadmin {
		return nil, domain.Invalid(op, "invalid role")
	}

	tenant, err := s.queries.GetTenantByID(ctx, actor.TenantID)
	if err != nil {
		return nil, domain.Internal(err, op, "failed to load tenant")
	}

	// Count existing users against the tier cap. Accepting an open
	// invitation adds a user, so pending invitations count too.
	maxUsers := s.settings.QuotaConfig(ctx, false).ForTier(tenant.Tier).MaxUsers
	if maxUsers != domain.Unlimited {
		activeUsers, err := s.queries.CountActiveUsers(ctx, actor.TenantID)
		if err != nil {
			return nil, domain.Internal(err, op, "failed to count users")
		}
		pending, err := s.queries.ListPendingInvitations(ctx, actor.TenantID)
		if err != nil {
			return nil, domain.Internal(err, op, "failed to list invitations")
		}
		if activeUsers+int64(len(pending)) >= maxUsers {
			return nil, domain.Errorf(domain.EFORBIDDEN, op,
				"user limit reached for the %s tier (%d users)", tenant.Tier, maxUsers)
		}
	}

	token, err := GenerateToken()
	if err != nil {
		return nil, domain.Internal(err, op, "failed to generate invite token")
	}
	expiresAt := s.now().Add(domain.InvitationDuration)

	invitation, err := s.queries.CreateInvitation(ctx, repository.CreateInvitationParams{
		TenantID:  actor.TenantID,
		InvitedBy: actor.ID,
		Email:     inviteEmail,
		Role:      role,
		TokenHash: HashToken(token),
		ExpiresAt: expiresAt,
	})
	if err != nil {
		if repository.IsUniqueViolation(err) {
			return nil, domain.Conflict(op, "an invitation for this email is already pending")
		}
		return nil, domain.Internal(err, op, "failed to create invitation")
	}

	inviteURL := fmt.Sprintf("%s/api/users/accept-invite?token=%s", s.baseURL, token)
	if err := s.sender.SendInvitation(ctx, inviteEmail, tenant.Name, inviteURL, expiresAt); err != nil {
		// The invitation row exists; the admin can resend. Do not fail
		// the request on relay trouble.
		s.logger.Error("failed to send invitation mail", "invitation_id", invitation.ID, "error", err)
	}

	s.audit.Record(ctx, domain.AppendAuditParams{
		TenantID: actor.TenantID,
		ActorID:  actor.ID,
		Action:   domain.AuditUserInvited,
		Resource: "invitation:" + invitation.ID.String(),
		Detail:   fmt.Sprintf("invited %s as %s", inviteEmail, role),
	})

	s.logger.Info("invitation created", "invitation_id", invitation.ID, "tenant_id", actor.TenantID, "role", role)
	return invitation, nil
}

func (s *invitationService) GetByToken(ctx context.Context, token string) (*domain.Invitation, error) {
	const op = "invitation.get"

	invitation, err := s.queries.GetInvitationByTokenHash(ctx, HashToken(token))
	if err != nil {
		if repository.IsNoRows(err) {
			return nil, domain.NotFound(op, "invitation", "")
		}
		return nil, domain.Internal(err, op, "failed to load invitation")
	}

	// Lapsed but still marked pending: flip on read so the caller sees
	// the true state even if the maintenance sweep has not run yet.
	if invitation.Status == domain.InvitationPending && invitation.IsExpired(s.now()) {
		if _, err := s.queries.TransitionInvitation(ctx, invitation.ID, domain.InvitationExpired); err != nil {
			return nil, domain.Internal(err, op, "failed to expire invitation")
		}
		invitation.Status = domain.InvitationExpired
	}

	return invitation, nil
}

func (s *invitationService) Accept(ctx context.Context, params domain.AcceptInvitationParams) (*domain.User, error) {
	const op = "invitation.accept"

	if len(params.Password) < 8 {
		return nil, domain.Invalid(op, "password must be at least 8 characters")
	}

	invitation, err := s.GetByToken(ctx, params.Token)
	if err != nil {
		return nil, err
	}
	switch invitation.Status {
	case domain.InvitationPending:
	case domain.InvitationExpired:
		return nil, domain.Errorf(domain.EINVITATIONEXPIRED, op, "This invitation has expired")
	default:
		return nil, domain.Errorf(domain.EINVITATIONNOTPENDING, op, "This invitation is no longer valid")
	}

	hash, err := hashPassword(params.Password)
	if err != nil {
		return nil, domain.Internal(err, op, "failed to hash password")
	}

	var user *domain.User
	err = s.txer.RunTx(ctx, func(q *repository.Queries) error {
		moved, err := q.TransitionInvitation(ctx, invitation.ID, domain.InvitationAccepted)
		if err != nil {
			return err
		}
		if moved == 0 {
			return domain.Errorf(domain.EINVITATIONNOTPENDING, op, "This invitation is no longer valid")
		}
		user, err = q.CreateUser(ctx, repository.CreateUserParams{
			TenantID:     invitation.TenantID,
			Email:        invitation.Email,
			PasswordHash: hash,
			Name:         strings.TrimSpace(params.Name),
			Role:         invitation.Role,
		})
		return err
	})
	if err != nil {
		if repository.IsUniqueViolation(err) {
			return nil, domain.Conflict(op, "a user with this email already exists")
		}
		if domain.ErrorCode(err) != domain.EINTERNAL {
			return nil, err
		}
		return nil, domain.Internal(err, op, "failed to accept invitation")
	}

	s.audit.Record(ctx, domain.AppendAuditParams{
		TenantID: invitation.TenantID,
		ActorID:  user.ID,
		Action:   domain.AuditInviteAccepted,
		Resource: "invitation:" + invitation.ID.String(),
	})

	s.logger.Info("invitation accepted", "invitation_id", invitation.ID, "user_id", user.ID, "tenant_id", invitation.TenantID)
	return user, nil
}

func (s *invitationService) Cancel(ctx context.Context, actor *domain.User, id uuid.UUID) error {
	const op = "invitation.cancel"

	moved, err := s.queries.CancelInvitation(ctx, id, actor.TenantID)
	if err != nil {
		return domain.Internal(err, op, "failed to cancel invitation")
	}
	if moved == 0 {
		// Distinguish an invitation that never existed (or belongs to
		// another tenant) from one already out of the pending state.
		inv, err := s.queries.GetInvitation(ctx, id, actor.TenantID)
		if err != nil {
			if repository.IsNoRows(err) {
				return domain.NotFound(op, "invitation", id.String())
			}
			return domain.Internal(err, op, "failed to cancel invitation")
		}
		if inv.Status == domain.InvitationExpired {
			return domain.Errorf(domain.EINVITATIONEXPIRED, op, "This invitation has expired")
		}
		return domain.Errorf(domain.EINVITATIONNOTPENDING, op, "This invitation is no longer pending")
	}

	s.audit.Record(ctx, domain.AppendAuditParams{
		TenantID: actor.TenantID,
		ActorID:  actor.ID,
		Action:   domain.AuditInviteCancelled,
		Resource: "invitation:" + id.String(),
	})
	return nil
}

func (s *invitationService) ListPending(ctx context.Context, tenantID uuid.UUID) ([]*domain.Invitation, error) {
	const op = "invitation.list_pending"
	invs, err := s.queries.ListPendingInvitations(ctx, tenantID)
	if err != nil {
		return nil, domain.Internal(err, op, "failed to list invitations")
	}
	return invs, nil
}

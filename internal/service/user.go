package service

import (
	"context"
	"crypto/rand"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"github.com/tenagalabs/jejak/internal/domain"
	"github.com/tenagalabs/jejak/internal/repository"
)

const (
	// SessionDuration is how long a bearer token stays valid.
	SessionDuration = 7 * 24 * time.Hour

	// bcryptCost trades hashing time for resistance to offline attacks.
	bcryptCost = 12
)

// UserService handles authentication and user management.
type UserService interface {
	// Login verifies credentials and issues a bearer token. The raw
	// token is returned exactly once; only its hash is stored.
	Login(ctx context.Context, email, password string) (*domain.LoginResult, error)

	// Logout revokes the session for the given raw token. Idempotent.
	Logout(ctx context.Context, token string) error

	// Authenticate resolves a raw bearer token to its user.
	Authenticate(ctx context.Context, token string) (*domain.User, error)

	// ListUsers returns all users within a tenant.
	ListUsers(ctx context.Context, tenantID uuid.UUID) ([]*domain.User, error)

	// CreateUser inserts a user with a freshly hashed password.
	CreateUser(ctx context.Context, tenantID uuid.UUID, email, password, name string, role domain.Role) (*domain.User, error)
}

type userService struct {
	queries *repository.Queries
	logger  *slog.Logger
}

// NewUserService creates a UserService.
func NewUserService(queries *repository.Queries, logger *slog.Logger) UserService {
	return &userService{queries: queries, logger: logger}
}

// GenerateToken returns a 32-byte random token, hex encoded.
func GenerateToken() (string, error) {
	buf := make([]byte, 32)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("generating token: %w", err)
	}
	return hex.EncodeToString(buf), nil
}

// HashToken returns the hex SHA-256 digest stored in place of the raw token.
func HashToken(token string) string {
	sum := sha256.Sum256([]byte(token))
	return hex.EncodeToString(sum[:])
}

func hashPassword(password string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcryptCost)
	if err != nil {
		return "", err
	}
	return string(hash), nil
}

func (s *userService) Login(ctx context.Context, email, password string) (*domain.LoginResult, error) {
	const op = "user.login"

	email = strings.TrimSpace(strings.ToLower(email))
	if email == "" || password == "" {
		return nil, domain.Invalid(op, "email and password are required")
	}

	user, err := s.queries.GetUserByEmail(ctx, email)
	if err != nil {
		if repository.IsNoRows(err) {
			return nil, domain.Unauthorized(op, "invalid email or password")
		}
		return nil, domain.Internal(err, op, "failed to look up user")
	}

	if !user.Active {
		return nil, domain.Unauthorized(op, "invalid email or password")
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		return nil, domain.Unauthorized(op, "invalid email or password")
	}

	token, err := GenerateToken()
	if err != nil {
		return nil, domain.Internal(err, op, "failed to create session")
	}
	if err := s.queries.CreateSession(ctx, user.ID, HashToken(token), time.Now().Add(SessionDuration)); err != nil {
		return nil, domain.Internal(err, op, "failed to create session")
	}

	s.logger.Info("user logged in", "user_id", user.ID, "tenant_id", user.TenantID)
	return &domain.LoginResult{User: user, Token: token}, nil
}

func (s *userService) Logout(ctx context.Context, token string) error {
	const op = "user.logout"
	if err := s.queries.DeleteSessionByTokenHash(ctx, HashToken(token)); err != nil {
		return domain.Internal(err, op, "failed to delete session")
	}
	return nil
}

func (s *userService) Authenticate(ctx context.Context, token string) (*domain.User, error) {
	const op = "user.authenticate"
	user, err := s.queries.GetUserBySessionTokenHash(ctx, HashToken(token))
	if err != nil {
		if repository.IsNoRows(err) {
			return nil, domain.Unauthorized(op, "invalid or expired session")
		}
		return nil, domain.Internal(err, op, "failed to resolve session")
	}
	return user, nil
}

func (s *userService) ListUsers(ctx context.Context, tenantID uuid.UUID) ([]*domain.User, error) {
	const op = "user.list"
	users, err := s.queries.ListUsersByTenant(ctx, tenantID)
	if err != nil {
		return nil, domain.Internal(err, op, "failed to list users")
	}
	return users, nil
}

func (s *userService) CreateUser(ctx context.Context, tenantID uuid.UUID, email, password, name string, role domain.Role) (*domain.User, error) {
	const op = "user.create"

	email = strings.TrimSpace(strings.ToLower(email))
	if email == "" || !strings.Contains(email, "@") {
		return nil, domain.Invalid(op, "a valid email is required")
	}
	if len(password) < 8 {
		return nil, domain.Invalid(op, "password must be at least 8 characters")
	}
	if !role.Valid() || role == domain.RoleSuperadmin {
		return nil, domain.Invalid(op, "invalid role")
	}

	hash, err := hashPassword(password)
	if err != nil {
		return nil, domain.Internal(err, op, "failed to hash password")
	}

	user, err := s.queries.CreateUser(ctx, repository.CreateUserParams{
		TenantID:     tenantID,
		Email:        email,
		PasswordHash: hash,
		Name:         strings.TrimSpace(name),
		Role:         role,
	})
	if err != nil {
		if repository.IsUniqueViolation(err) {
			return nil, domain.Conflict(op, "a user with this email already exists")
		}
		return nil, domain.Internal(err, op, "failed to create user")
	}

	s.logger.Info("user created", "user_id", user.ID, "tenant_id", tenantID, "role", role)
	return user, nil
}

// Package domain contains core business types and interfaces.
//
// This file defines the User domain type and session types for
// authentication. Every user belongs to exactly one tenant; the role
// determines which permissions the user holds within that tenant.
package domain

import (
	"database/sql"
	"time"

	"github.com/google/uuid"
)

// Role represents a user's role within a tenant.
type Role string

const (
	RoleSuperadmin Role = "superadmin" // Platform operator; bypasses quotas and tenant scoping
	RoleAdmin      Role = "admin"      // Tenant administrator
	RoleClerk      Role = "clerk"      // Data entry user
	RoleViewer     Role = "viewer"     // Read-only user
)

// Valid reports whether the role is one of the known roles.
func (r Role) Valid() bool {
	switch r {
	case RoleSuperadmin, RoleAdmin, RoleClerk, RoleViewer:
		return true
	}
	return false
}

// User represents a registered user of the platform.
//
// This is the domain representation of a user, designed for use in
// business logic. It differs from the repository row in that it uses
// proper Go types instead of sql.Null* types where appropriate and
// provides helper methods for common checks.
type User struct {
	ID           uuid.UUID
	TenantID     uuid.UUID
	Email        string
	PasswordHash string // Never expose this in API responses
	Name         string
	Role         Role
	Active       bool
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// IsSuperadmin reports whether the user is a platform operator.
// Superadmins bypass quota and rate-limit checks.
func (u *User) IsSuperadmin() bool {
	return u.Role == RoleSuperadmin
}

// DisplayName returns the user's name or email if name is empty.
func (u *User) DisplayName() string {
	if u.Name != "" {
		return u.Name
	}
	return u.Email
}

// Session represents an authenticated session.
//
// Sessions are stored in the database with a hashed token. The raw token
// is only given to the client once (at login) and is presented back as a
// bearer token.
type Session struct {
	ID        uuid.UUID
	UserID    uuid.UUID
	TokenHash string // SHA-256 hash of the session token
	ExpiresAt time.Time
	CreatedAt time.Time
}

// IsExpired returns true if the session has expired.
func (s *Session) IsExpired() bool {
	return time.Now().After(s.ExpiresAt)
}

// LoginResult contains the result of a successful login.
type LoginResult struct {
	User  *User
	Token string // Raw session token (not hashed) - only returned once
}

// =============================================================================
// Conversion helpers from repository types
// =============================================================================

// NullStringValue safely extracts a string from sql.NullString.
func NullStringValue(ns sql.NullString) string {
	if ns.Valid {
		return ns.String
	}
	return ""
}

// NullTimeValue safely extracts a time pointer from sql.NullTime.
func NullTimeValue(nt sql.NullTime) *time.Time {
	if nt.Valid {
		return &nt.Time
	}
	return nil
}

// ToNullString converts a string to sql.NullString.
func ToNullString(s string) sql.NullString {
	if s == "" {
		return sql.NullString{Valid: false}
	}
	return sql.NullString{String: s, Valid: true}
}

// ToNullTime converts a time pointer to sql.NullTime.
func ToNullTime(t *time.Time) sql.NullTime {
	if t == nil {
		return sql.NullTime{Valid: false}
	}
	return sql.NullTime{Time: *t, Valid: true}
}

// Package domain contains core business types and interfaces.
//
// This file defines user invitations. Invitations carry a single-use
// token emailed to the invitee; status transitions are one-way:
// pending -> accepted | expired | cancelled.
package domain

import (
	"time"

	"github.com/google/uuid"
)

// InvitationStatus represents the lifecycle state of an invitation.
type InvitationStatus string

const (
	InvitationPending   InvitationStatus = "pending"
	InvitationAccepted  InvitationStatus = "accepted"
	InvitationExpired   InvitationStatus = "expired"
	InvitationCancelled InvitationStatus = "cancelled"
)

// InvitationDuration is how long an invitation remains acceptable.
const InvitationDuration = 7 * 24 * time.Hour

// Invitation represents a pending user invitation into a tenant.
type Invitation struct {
	ID        uuid.UUID
	TenantID  uuid.UUID
	InvitedBy uuid.UUID
	Email     string
	Role      Role
	TokenHash string // SHA-256 hash of the invite token
	Status    InvitationStatus
	ExpiresAt time.Time
	CreatedAt time.Time
	UpdatedAt time.Time
}

// IsExpired reports whether the invitation's deadline has passed,
// regardless of its stored status.
func (i *Invitation) IsExpired(now time.Time) bool {
	return now.After(i.ExpiresAt)
}

// CanTransitionTo reports whether moving to the target status is legal.
// Only pending invitations may move, and never back to pending.
func (i *Invitation) CanTransitionTo(target InvitationStatus) bool {
	if i.Status != InvitationPending {
		return false
	}
	switch target {
	case InvitationAccepted, InvitationExpired, InvitationCancelled:
		return true
	}
	return false
}

// AcceptInvitationParams contains validated parameters for accepting an
// invitation and creating the user account.
type AcceptInvitationParams struct {
	Token    string
	Name     string
	Password string
}

// Package domain contains core business types and interfaces.
//
// This file defines the immutable audit log. One record is appended per
// mutating operation; records are never updated or deleted.
package domain

import (
	"time"

	"github.com/google/uuid"
)

// AuditAction identifies the audited operation.
type AuditAction string

const (
	AuditEntryCreated      AuditAction = "entry.created"
	AuditEntryDeleted      AuditAction = "entry.deleted"
	AuditBillAnalyzed      AuditAction = "bill.analyzed"
	AuditReportRequested   AuditAction = "report.requested"
	AuditReportCompleted   AuditAction = "report.completed"
	AuditUserInvited       AuditAction = "user.invited"
	AuditInviteAccepted    AuditAction = "invite.accepted"
	AuditInviteCancelled   AuditAction = "invite.cancelled"
	AuditUserLogin         AuditAction = "user.login"
	AuditRateLimitsUpdated AuditAction = "system.rate_limits_updated"
	AuditCountersCleared   AuditAction = "system.counters_cleared"
)

// AuditLog is one immutable action record.
type AuditLog struct {
	ID        uuid.UUID
	TenantID  uuid.UUID
	ActorID   uuid.UUID
	Action    AuditAction
	Resource  string // e.g. "entry:<id>"
	Detail    string // Free-form description
	IP        string
	CreatedAt time.Time
}

// AppendAuditParams contains parameters for appending an audit record.
type AppendAuditParams struct {
	TenantID uuid.UUID
	ActorID  uuid.UUID
	Action   AuditAction
	Resource string
	Detail   string
	IP       string
}

// Package domain contains core business types and interfaces.
//
// This file defines the Tenant type. Every piece of customer data in the
// system is partitioned by tenant; entries, reports, users, invitations
// and audit records all carry a tenant ID.
package domain

import (
	"regexp"
	"strings"
	"time"

	"github.com/google/uuid"
)

// SubscriptionTier represents the pricing tier of a tenant subscription.
type SubscriptionTier string

const (
	TierTrial      SubscriptionTier = "trial"
	TierStandard   SubscriptionTier = "standard"
	TierPremium    SubscriptionTier = "premium"
	TierEnterprise SubscriptionTier = "enterprise"
)

// Valid reports whether the tier is one of the known tiers.
func (t SubscriptionTier) Valid() bool {
	switch t {
	case TierTrial, TierStandard, TierPremium, TierEnterprise:
		return true
	}
	return false
}

// Tenant represents an isolated customer organization.
type Tenant struct {
	ID          uuid.UUID
	Name        string
	UEN         string // Malaysian business registration number, unique
	Tier        SubscriptionTier
	ContactName string
	Phone       string
	Active      bool
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// uenPattern matches the post-2019 SSM registration format: a four-digit
// year, a two-digit entity type code, and six digits (e.g. 202301012345).
// Older 7-12 character alphanumeric numbers ending in a letter are also
// accepted (e.g. 001234567K).
var (
	uenNewPattern = regexp.MustCompile(`^[0-9]{12}$`)
	uenOldPattern = regexp.MustCompile(`^[0-9]{6,11}[A-Z]$`)
)

// ValidateUEN checks a Malaysian business registration number.
func ValidateUEN(uen string) error {
	const op = "tenant.validate_uen"

	uen = strings.ToUpper(strings.TrimSpace(uen))
	if uen == "" {
		return Invalid(op, "UEN is required")
	}
	if !uenNewPattern.MatchString(uen) && !uenOldPattern.MatchString(uen) {
		return Invalid(op, "UEN must be a 12-digit SSM registration number or a legacy registration number")
	}
	return nil
}

// NormalizeUEN returns the canonical stored form of a UEN.
func NormalizeUEN(uen string) string {
	return strings.ToUpper(strings.TrimSpace(uen))
}

// CreateTenantParams contains the validated parameters for tenant creation.
type CreateTenantParams struct {
	Name        string
	UEN         string
	Tier        SubscriptionTier
	ContactName string
	Phone       string
}

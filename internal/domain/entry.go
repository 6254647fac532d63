// Package domain contains core business types and interfaces.
//
// This file defines emission entries: one record per utility bill, with
// the measured consumption and the computed CO2-equivalent mass.
package domain

import (
	"time"

	"github.com/google/uuid"
)

// UtilityType identifies the kind of utility a bill covers.
type UtilityType string

const (
	UtilityElectricity UtilityType = "electricity" // kWh
	UtilityWater       UtilityType = "water"       // m3
	UtilityNaturalGas  UtilityType = "natural_gas" // m3
	UtilityFuel        UtilityType = "fuel"        // litres
)

// Valid reports whether the utility type is known.
func (u UtilityType) Valid() bool {
	switch u {
	case UtilityElectricity, UtilityWater, UtilityNaturalGas, UtilityFuel:
		return true
	}
	return false
}

// EntrySource records how an entry was created.
type EntrySource string

const (
	EntrySourceManual EntrySource = "manual" // Typed in through the form API
	EntrySourceBill   EntrySource = "bill"   // Extracted from an uploaded bill image
)

// Entry represents one utility-bill-derived emission record.
// Entries belong to exactly one tenant.
type Entry struct {
	ID          uuid.UUID
	TenantID    uuid.UUID
	CreatedBy   uuid.UUID
	UtilityType UtilityType
	Provider    string // e.g. "TNB", "Air Selangor"
	PeriodStart time.Time
	PeriodEnd   time.Time
	Consumption float64 // In the utility's native unit
	Unit        string  // "kWh", "m3", "litre"
	AmountMYR   float64 // Billed amount in ringgit
	CO2eKg      float64 // Computed CO2-equivalent mass
	Source      EntrySource
	BillImageKey string // Storage key of the source bill image, if any
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// CreateEntryParams contains validated parameters for entry creation.
type CreateEntryParams struct {
	TenantID    uuid.UUID
	CreatedBy   uuid.UUID
	UtilityType UtilityType
	Provider    string
	PeriodStart time.Time
	PeriodEnd   time.Time
	Consumption float64
	AmountMYR   float64
	Source      EntrySource
	BillImageKey string
}

// Validate checks the parameters for entry creation.
func (p CreateEntryParams) Validate() error {
	const op = "entry.validate"

	if !p.UtilityType.Valid() {
		return Invalid(op, "unknown utility type")
	}
	if p.Consumption <= 0 {
		return Invalid(op, "consumption must be positive")
	}
	if p.AmountMYR < 0 {
		return Invalid(op, "billed amount cannot be negative")
	}
	if !p.PeriodEnd.After(p.PeriodStart) {
		return Invalid(op, "billing period end must be after period start")
	}
	return nil
}

// ListEntriesParams controls entry listing.
type ListEntriesParams struct {
	TenantID    uuid.UUID
	UtilityType UtilityType // Empty matches all
	From        time.Time   // Zero matches all
	To          time.Time   // Zero matches all
	Limit       int32
	Offset      int32
}

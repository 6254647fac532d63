// Package domain contains core business types and interfaces.
//
// This file defines generated ESG report artifacts.
package domain

import (
	"time"

	"github.com/google/uuid"
)

// ReportFormat is the rendered artifact format.
type ReportFormat string

const (
	ReportFormatCSV  ReportFormat = "csv"
	ReportFormatHTML ReportFormat = "html"
)

// Valid reports whether the format is supported.
func (f ReportFormat) Valid() bool {
	return f == ReportFormatCSV || f == ReportFormatHTML
}

// ReportStatus tracks report generation progress.
type ReportStatus string

const (
	ReportStatusPending   ReportStatus = "pending"
	ReportStatusRunning   ReportStatus = "running"
	ReportStatusCompleted ReportStatus = "completed"
	ReportStatusFailed    ReportStatus = "failed"
)

// Report represents a generated ESG compliance report artifact.
// Reports belong to exactly one tenant.
type Report struct {
	ID          uuid.UUID
	TenantID    uuid.UUID
	RequestedBy uuid.UUID
	Title       string
	Format      ReportFormat
	PeriodStart time.Time
	PeriodEnd   time.Time
	Status      ReportStatus
	ArtifactKey string // Storage key of the rendered artifact
	TotalCO2eKg float64
	EntryCount  int64
	Error       string
	CreatedAt   time.Time
	CompletedAt *time.Time
}

// CreateReportParams contains validated parameters for report generation.
type CreateReportParams struct {
	TenantID    uuid.UUID
	RequestedBy uuid.UUID
	Title       string
	Format      ReportFormat
	PeriodStart time.Time
	PeriodEnd   time.Time
}

// Validate checks the parameters for report creation.
func (p CreateReportParams) Validate() error {
	const op = "report.validate"

	if !p.Format.Valid() {
		return Invalid(op, "report format must be csv or html")
	}
	if !p.PeriodEnd.After(p.PeriodStart) {
		return Invalid(op, "report period end must be after period start")
	}
	return nil
}

// Package mock provides a canned bill extractor for development and
// tests.
package mock

import (
	"context"
	"log/slog"
	"time"

	"github.com/tenagalabs/jejak/internal/ai"
)

// Provider is a mock bill extractor. The response and error fields are
// settable so tests can drive specific outcomes.
type Provider struct {
	logger *slog.Logger

	ExtractBillResponse *ai.BillExtraction
	ExtractBillError    error

	ExtractBillCalls int
}

// New creates a mock provider.
func New(logger *slog.Logger) *Provider {
	return &Provider{logger: logger}
}

// ExtractBill returns the configured response, or a canned TNB bill.
func (p *Provider) ExtractBill(ctx context.Context, params ai.ExtractBillParams) (*ai.BillExtraction, error) {
	p.ExtractBillCalls++

	if p.ExtractBillError != nil {
		return nil, p.ExtractBillError
	}
	if p.ExtractBillResponse != nil {
		return p.ExtractBillResponse, nil
	}

	p.logger.Debug("mock bill extraction", "tenant_id", params.TenantID)
	return &ai.BillExtraction{
		UtilityType: "electricity",
		Provider:    "TNB",
		PeriodStart: time.Date(2026, 7, 1, 0, 0, 0, 0, time.UTC),
		PeriodEnd:   time.Date(2026, 8, 1, 0, 0, 0, 0, time.UTC),
		Consumption: 842.0,
		Unit:        "kWh",
		AmountMYR:   376.54,
		Confidence:  ai.ConfidenceHigh,
		Usage: ai.UsageInfo{
			Model:        "mock-extractor-v1",
			InputTokens:  1100,
			OutputTokens: 240,
			Duration:     200 * time.Millisecond,
		},
	}, nil
}

// Package ai defines the provider interface for AI-powered utility bill
// extraction.
package ai

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// BillExtractor extracts structured billing data from a scanned or
// photographed utility bill.
type BillExtractor interface {
	// ExtractBill analyzes a bill image and returns the fields it can
	// read off it.
	ExtractBill(ctx context.Context, params ExtractBillParams) (*BillExtraction, error)
}

// ExtractBillParams contains parameters for bill extraction.
type ExtractBillParams struct {
	ImageData   []byte    // Raw image or PDF bytes
	ContentType string    // MIME type, e.g. "image/jpeg"
	TenantID    uuid.UUID // For usage tracking
	UserID      uuid.UUID // For usage tracking
}

// BillExtraction is the structured result of analyzing one bill.
type BillExtraction struct {
	UtilityType string     // "electricity", "water", "natural_gas", "fuel"
	Provider    string     // e.g. "TNB", "Air Selangor"
	PeriodStart time.Time  // Billing period start
	PeriodEnd   time.Time  // Billing period end
	Consumption float64    // In the utility's native unit
	Unit        string     // "kWh", "m3", "litre"
	AmountMYR   float64    // Billed amount in ringgit
	Confidence  Confidence // How confident the model is overall
	Notes       string     // Anything the model flagged about the bill
	Usage       UsageInfo  // Token usage for monitoring
}

// UsageInfo tracks API usage for monitoring.
type UsageInfo struct {
	Model        string
	InputTokens  int
	OutputTokens int
	Duration     time.Duration
}

// Confidence grades how certain the extraction is.
type Confidence string

const (
	ConfidenceHigh   Confidence = "high"
	ConfidenceMedium Confidence = "medium"
	ConfidenceLow    Confidence = "low"
)

// Valid reports whether the confidence grade is known.
func (c Confidence) Valid() bool {
	switch c {
	case ConfidenceHigh, ConfidenceMedium, ConfidenceLow:
		return true
	}
	return false
}

// ProviderConfig contains common provider tuning.
type ProviderConfig struct {
	MaxRetries     int           // Attempts for transient errors
	RetryBaseDelay time.Duration // Base for exponential backoff
	RequestTimeout time.Duration // Per-request timeout
}

// Sentinel errors for provider failures.
var (
	ErrRateLimited  = errors.New("ai provider rate limit exceeded")
	ErrInvalidImage = errors.New("invalid image format or content")
	ErrTimeout      = errors.New("ai request timed out")
	ErrUnavailable  = errors.New("ai service temporarily unavailable")
	ErrUnauthorized = errors.New("ai provider authentication failed")
	ErrUnreadable   = errors.New("bill could not be read")
)

// IsRetryable reports whether the error is transient.
func IsRetryable(err error) bool {
	return errors.Is(err, ErrRateLimited) ||
		errors.Is(err, ErrTimeout) ||
		errors.Is(err, ErrUnavailable)
}

// WrapError adds the failing operation to a provider error.
func WrapError(operation string, err error) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("ai %s: %w", operation, err)
}

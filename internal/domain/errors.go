package domain

import (
	"errors"
	"fmt"
	"time"
)

// Application error codes
const (
	EINVALID      = "invalid"        // Invalid input or validation failure
	EUNAUTHORIZED = "unauthorized"   // Authentication required
	EFORBIDDEN    = "forbidden"      // Permission denied or cross-tenant access
	ENOTFOUND     = "not_found"      // Resource not found
	ECONFLICT     = "conflict"       // Resource conflict (e.g., duplicate email or UEN)
	EGONE         = "gone"           // Resource no longer available

	// Invitation lifecycle failures keep distinct codes so clients can
	// tell a lapsed invite (offer to resend) from a consumed one.
	EINVITATIONEXPIRED    = "invitation_expired"     // Invitation lapsed before acceptance
	EINVITATIONNOTPENDING = "invitation_not_pending" // Invitation already accepted or cancelled

	ETOOLARGE     = "too_large"      // Request entity too large
	ERATELIMIT    = "rate_limit"     // Short-window rate limit exceeded
	EQUOTA        = "quota_exceeded" // Monthly quota exhausted
	EEXTERNAL     = "external"       // Upstream service failure (AI provider, storage)
	EINTERNAL     = "internal"       // Internal server error
	ENOTIMPL      = "not_impl"       // Not implemented
)

// Error represents an application error with structured information.
type Error struct {
	Code    string // Machine-readable error code
	Op      string // Operation that failed (e.g., "entry.create")
	Message string // Human-readable message
	Err     error  // Underlying error
}

func (e *Error) Error() string {
	if e.Op != "" {
		return fmt.Sprintf("%s: %s", e.Op, e.Message)
	}
	return e.Message
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Errorf creates a new Error with the given code, operation, and formatted message.
func Errorf(code, op, format string, args ...interface{}) *Error {
	return &Error{
		Code:    code,
		Op:      op,
		Message: fmt.Sprintf(format, args...),
	}
}

// ErrorCode returns the code of the root error, or EINTERNAL if none.
func ErrorCode(err error) string {
	if err == nil {
		return ""
	}
	var e *Error
	if errors.As(err, &e) {
		return e.Code
	}
	var qe *QuotaError
	if errors.As(err, &qe) {
		return EQUOTA
	}
	var re *RateLimitError
	if errors.As(err, &re) {
		return ERATELIMIT
	}
	return EINTERNAL
}

// ErrorMessage returns the human-readable message of the error.
// Internal errors are replaced with a generic message so raw error text
// never reaches the client.
func ErrorMessage(err error) string {
	if err == nil {
		return ""
	}
	var e *Error
	if errors.As(err, &e) {
		if e.Code == EINTERNAL {
			return "An internal error occurred. Please try again later."
		}
		return e.Message
	}
	var qe *QuotaError
	if errors.As(err, &qe) {
		return qe.Error()
	}
	var re *RateLimitError
	if errors.As(err, &re) {
		return re.Error()
	}
	return "An internal error occurred. Please try again later."
}

// ErrorOp returns the operation of the root error, if any.
func ErrorOp(err error) string {
	if err == nil {
		return ""
	}
	var e *Error
	if errors.As(err, &e) {
		return e.Op
	}
	return ""
}

// Convenience constructors for common error types

// NotFound creates a not found error.
func NotFound(op, resource, id string) *Error {
	return &Error{
		Code:    ENOTFOUND,
		Op:      op,
		Message: fmt.Sprintf("%s with ID %q not found", resource, id),
	}
}

// Invalid creates a validation error.
func Invalid(op, message string) *Error {
	return &Error{
		Code:    EINVALID,
		Op:      op,
		Message: message,
	}
}

// Unauthorized creates an authentication error.
func Unauthorized(op, message string) *Error {
	return &Error{
		Code:    EUNAUTHORIZED,
		Op:      op,
		Message: message,
	}
}

// Forbidden creates a permission error.
func Forbidden(op, message string) *Error {
	return &Error{
		Code:    EFORBIDDEN,
		Op:      op,
		Message: message,
	}
}

// Conflict creates a conflict error.
func Conflict(op, message string) *Error {
	return &Error{
		Code:    ECONFLICT,
		Op:      op,
		Message: message,
	}
}

// Internal creates an internal error, wrapping the underlying error.
func Internal(err error, op, message string) *Error {
	return &Error{
		Code:    EINTERNAL,
		Op:      op,
		Message: message,
		Err:     err,
	}
}

// External creates an upstream-failure error, wrapping the underlying error.
func External(err error, op, message string) *Error {
	return &Error{
		Code:    EEXTERNAL,
		Op:      op,
		Message: message,
		Err:     err,
	}
}

// QuotaError indicates a monthly quota has been exhausted.
// It carries the counter values so handlers can emit X-Quota-* headers.
type QuotaError struct {
	Op        string
	Operation Operation
	Current   int64
	Limit     int64
	ResetTime time.Time
}

func (e *QuotaError) Error() string {
	return fmt.Sprintf("monthly quota exceeded for %s (%d/%d), resets %s",
		e.Operation, e.Current, e.Limit, e.ResetTime.Format(time.RFC3339))
}

// QuotaExceeded creates a QuotaError.
func QuotaExceeded(op string, operation Operation, current, limit int64, reset time.Time) *QuotaError {
	return &QuotaError{
		Op:        op,
		Operation: operation,
		Current:   current,
		Limit:     limit,
		ResetTime: reset,
	}
}

// RateLimitError indicates a short-window rate limit was hit.
type RateLimitError struct {
	Op        string
	Operation Operation
	Current   int64
	Limit     int64
	ResetTime time.Time
}

func (e *RateLimitError) Error() string {
	return "Too many requests. Please try again later."
}

// RateLimited creates a RateLimitError.
func RateLimited(op string, operation Operation, current, limit int64, reset time.Time) *RateLimitError {
	return &RateLimitError{
		Op:        op,
		Operation: operation,
		Current:   current,
		Limit:     limit,
		ResetTime: reset,
	}
}

// ValidationError represents field-level validation errors.
type ValidationError struct {
	Op     string
	Fields map[string]string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s: validation failed", e.Op)
}

// NewValidationError creates a new validation error with the first field error.
func NewValidationError(op, field, message string) *ValidationError {
	return &ValidationError{
		Op: op,
		Fields: map[string]string{
			field: message,
		},
	}
}

// AddFieldError adds a field error to an existing validation error.
// If err is not a ValidationError, returns a new one.
func AddFieldError(err error, field, message string) *ValidationError {
	var ve *ValidationError
	if errors.As(err, &ve) {
		ve.Fields[field] = message
		return ve
	}
	return NewValidationError("", field, message)
}

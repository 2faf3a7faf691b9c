// Package domain defines the core domain models for tokgate.
package domain

import (
	"errors"
	"fmt"
)

// DomainError represents a domain error with a structured error code.
// Codes follow the format TG-{AREA}-{NNNN}.
type DomainError struct {
	Code    string // Error code (e.g., "TG-TOKN-4000")
	Message string // Human-readable message
	Details string // Optional additional details
	Cause   error  // Underlying error (if any)
}

// Error implements the error interface.
func (e *DomainError) Error() string {
	if e.Details != "" {
		return fmt.Sprintf("[%s] %s: %s", e.Code, e.Message, e.Details)
	}
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

// Unwrap returns the underlying error for errors.Unwrap() support.
func (e *DomainError) Unwrap() error {
	return e.Cause
}

// Is implements errors.Is() support. Two domain errors match when their
// codes are equal.
func (e *DomainError) Is(target error) bool {
	t, ok := target.(*DomainError)
	if !ok {
		return false
	}
	return e.Code == t.Code
}

// NewDomainError creates a new DomainError with the given code and message.
func NewDomainError(code, message string) *DomainError {
	return &DomainError{
		Code:    code,
		Message: message,
	}
}

// WithDetails returns a copy of the error with additional details.
func (e *DomainError) WithDetails(details string) *DomainError {
	return &DomainError{
		Code:    e.Code,
		Message: e.Message,
		Details: details,
		Cause:   e.Cause,
	}
}

// WithCause returns a copy of the error wrapping the given cause.
func (e *DomainError) WithCause(cause error) *DomainError {
	return &DomainError{
		Code:    e.Code,
		Message: e.Message,
		Details: e.Details,
		Cause:   cause,
	}
}

// IsDomainError checks if an error is a DomainError with the given code.
// If code is empty, it only checks if the error is a DomainError.
func IsDomainError(err error, code string) bool {
	var de *DomainError
	if errors.As(err, &de) {
		if code == "" {
			return true
		}
		return de.Code == code
	}
	return false
}

// GetErrorCode extracts the error code from an error if it's a DomainError.
func GetErrorCode(err error) string {
	var de *DomainError
	if errors.As(err, &de) {
		return de.Code
	}
	return ""
}

// ============================================================================
// Token Errors (TOKN)
// ============================================================================

var (
	// ErrTokenMalformed indicates the token could not be decoded. The session
	// layer treats it exactly like an expired token.
	ErrTokenMalformed = NewDomainError("TG-TOKN-4000", "malformed token")

	// ErrTokenMissingExpiry indicates the token decoded but carries no usable exp claim.
	ErrTokenMissingExpiry = NewDomainError("TG-TOKN-4001", "token has no expiration claim")

	// ErrTokenExpired indicates the token's exp claim is in the past.
	ErrTokenExpired = NewDomainError("TG-TOKN-4011", "token expired")
)

// ============================================================================
// Session Errors (SESS)
// ============================================================================

var (
	// ErrNotAuthenticated indicates an operation needs a token but none is held.
	ErrNotAuthenticated = NewDomainError("TG-SESS-4010", "not authenticated")

	// ErrPersistence indicates the session persistence backend failed.
	ErrPersistence = NewDomainError("TG-SESS-5001", "session persistence failed")
)

// ============================================================================
// Form Errors (FORM)
// ============================================================================

var (
	// ErrSchemaNotPickable indicates a schema cannot be narrowed to a single
	// field. This is a caller contract violation, not a user input problem.
	ErrSchemaNotPickable = NewDomainError("TG-FORM-5000", "schema does not support field narrowing")

	// ErrUnknownField indicates a pick referenced a field the schema does not define.
	ErrUnknownField = NewDomainError("TG-FORM-5001", "unknown schema field")
)

// ============================================================================
// Configuration Errors (CONF)
// ============================================================================

var (
	// ErrInvalidConfig indicates a configuration value is unusable.
	ErrInvalidConfig = NewDomainError("TG-CONF-4000", "invalid configuration")
)

// ============================================================================
// Argument Errors (ARG)
// ============================================================================

var (
	// ErrInvalidArgument indicates an invalid argument.
	ErrInvalidArgument = NewDomainError("TG-ARG-1001", "invalid argument")

	// ErrMissingArgument indicates a required argument is missing.
	ErrMissingArgument = NewDomainError("TG-ARG-1002", "missing required argument")
)

// ============================================================================
// System Errors (SYS)
// ============================================================================

var (
	// ErrTooManyRequests indicates the gateway rate limit was hit.
	ErrTooManyRequests = NewDomainError("TG-SYS-4290", "too many requests")

	// ErrInternal indicates an unexpected failure while serving a request.
	ErrInternal = NewDomainError("TG-SYS-5000", "internal error")

	// ErrUpstream indicates the backend API could not be reached or
	// returned an unusable response.
	ErrUpstream = NewDomainError("TG-SYS-5020", "upstream request failed")
)

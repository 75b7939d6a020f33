package domain

import (
	"errors"
	"fmt"
)

// DomainError represents a business domain error with a structured code.
// Codes group into families: RV-ARG (validation), RV-KMS (key provider),
// RV-STOR (token store), RV-SYS (system/router).
type DomainError struct {
	Code    string // Error code (e.g., "RV-ARG-1002")
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

// Is implements errors.Is() support: two DomainErrors match on code.
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

// GetErrorCode extracts the error code from an error if it's a DomainError.
func GetErrorCode(err error) string {
	var de *DomainError
	if errors.As(err, &de) {
		return de.Code
	}
	return ""
}

// Validation errors (ARG). Always recoverable at the router; reported to
// the caller as a generic invalid-input outcome.
var (
	// ErrInvalidArgument indicates an argument with an unusable value.
	ErrInvalidArgument = NewDomainError("RV-ARG-1001", "invalid argument")

	// ErrMissingArgument indicates a required argument is missing or empty.
	ErrMissingArgument = NewDomainError("RV-ARG-1002", "missing required argument")
)

// Key provider errors (KMS).
var (
	// ErrKeyProvider indicates the key-management backend was unreachable,
	// denied the request, or returned malformed output.
	ErrKeyProvider = NewDomainError("RV-KMS-5020", "key provider failure")
)

// Token store errors (STOR).
var (
	// ErrStore indicates the durable store backend was unavailable or
	// returned malformed output.
	ErrStore = NewDomainError("RV-STOR-5010", "token store failure")
)

// System errors (SYS).
var (
	// ErrInternalServer indicates an internal server error.
	ErrInternalServer = NewDomainError("RV-SYS-5000", "internal server error")

	// ErrBadRequest indicates a malformed request payload.
	ErrBadRequest = NewDomainError("RV-SYS-4000", "bad request")

	// ErrRouteNotFound indicates an unknown route identifier.
	ErrRouteNotFound = NewDomainError("RV-SYS-4040", "route not found")

	// ErrCancelled indicates the caller aborted the request before the
	// operation ran to completion (e.g. mid-pagination).
	ErrCancelled = NewDomainError("RV-SYS-4990", "request cancelled")

	// ErrRateLimited indicates too many requests.
	ErrRateLimited = NewDomainError("RV-SYS-4290", "too many requests")
)

// IsValidation reports whether err belongs to the validation family.
func IsValidation(err error) bool {
	return errors.Is(err, ErrInvalidArgument) || errors.Is(err, ErrMissingArgument)
}

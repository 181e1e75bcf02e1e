// Package errors provides structured errors with stable codes, so tests
// and the CLI can branch on what failed rather than on message text.
package errors

import (
	"errors"
	"fmt"
)

// ErrorCode represents a unique error code for stable testing
type ErrorCode string

// Error codes for different error categories
const (
	// General errors
	ErrUnknown      ErrorCode = "UNKNOWN"
	ErrInternal     ErrorCode = "INTERNAL"
	ErrInvalidInput ErrorCode = "INVALID_INPUT"

	// Configuration errors
	ErrConfigLoad ErrorCode = "CONFIG_LOAD"

	// Pre-flight errors, fatal before any work starts
	ErrInvalidRoot   ErrorCode = "INVALID_ROOT"
	ErrInvalidSource ErrorCode = "INVALID_SOURCE"
	ErrNameCollision ErrorCode = "NAME_COLLISION"
	ErrMalformedName ErrorCode = "MALFORMED_NAME"

	// Item-level errors, aggregated by the scheduler
	ErrCompare   ErrorCode = "COMPARISON_FAILURE"
	ErrCopy      ErrorCode = "COPY_FAILURE"
	ErrLink      ErrorCode = "LINK_FAILURE"
	ErrDirCreate ErrorCode = "DIR_CREATE"

	// Run-level errors
	ErrReconcileFailed ErrorCode = "RECONCILE_FAILED"
	ErrCommit          ErrorCode = "COMMIT_FAILURE"
	ErrContainment     ErrorCode = "CONTAINMENT_VIOLATION"
	ErrNotConfirmed    ErrorCode = "NOT_CONFIRMED"
)

// SnapbackError represents a structured error with code and details
type SnapbackError struct {
	Code    ErrorCode
	Message string
	Details map[string]interface{}
	Wrapped error
}

// Error implements the error interface
func (e *SnapbackError) Error() string {
	if e.Wrapped != nil {
		return fmt.Sprintf("[%s] %s: %v", e.Code, e.Message, e.Wrapped)
	}
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

// Unwrap implements the errors.Unwrap interface
func (e *SnapbackError) Unwrap() error {
	return e.Wrapped
}

// Is matches two SnapbackErrors by code
func (e *SnapbackError) Is(target error) bool {
	var targetErr *SnapbackError
	if errors.As(target, &targetErr) {
		return e.Code == targetErr.Code
	}
	return false
}

// New creates a new SnapbackError with the given code and message
func New(code ErrorCode, message string) *SnapbackError {
	return &SnapbackError{
		Code:    code,
		Message: message,
		Details: make(map[string]interface{}),
	}
}

// Newf creates a new SnapbackError with a formatted message
func Newf(code ErrorCode, format string, args ...interface{}) *SnapbackError {
	return &SnapbackError{
		Code:    code,
		Message: fmt.Sprintf(format, args...),
		Details: make(map[string]interface{}),
	}
}

// Wrap wraps an existing error with a SnapbackError
func Wrap(err error, code ErrorCode, message string) *SnapbackError {
	if err == nil {
		return nil
	}
	return &SnapbackError{
		Code:    code,
		Message: message,
		Details: make(map[string]interface{}),
		Wrapped: err,
	}
}

// Wrapf wraps an existing error with a formatted message
func Wrapf(err error, code ErrorCode, format string, args ...interface{}) *SnapbackError {
	if err == nil {
		return nil
	}
	return &SnapbackError{
		Code:    code,
		Message: fmt.Sprintf(format, args...),
		Details: make(map[string]interface{}),
		Wrapped: err,
	}
}

// WithDetail adds a detail to the error
func (e *SnapbackError) WithDetail(key string, value interface{}) *SnapbackError {
	if e.Details == nil {
		e.Details = make(map[string]interface{})
	}
	e.Details[key] = value
	return e
}

// IsErrorCode checks if an error has a specific error code
func IsErrorCode(err error, code ErrorCode) bool {
	var serr *SnapbackError
	if errors.As(err, &serr) {
		return serr.Code == code
	}
	return false
}

// GetErrorCode returns the error code from an error, or ErrUnknown if not a SnapbackError
func GetErrorCode(err error) ErrorCode {
	var serr *SnapbackError
	if errors.As(err, &serr) {
		return serr.Code
	}
	return ErrUnknown
}

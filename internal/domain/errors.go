package domain

import (
	"errors"
	"fmt"
)

// DomainError represents a domain-specific error
type DomainError struct {
	Code    string
	Message string
	Err     error
}

// Error implements the error interface
func (e *DomainError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("[%s] %s: %v", e.Code, e.Message, e.Err)
	}
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

// Unwrap returns the underlying error
func (e *DomainError) Unwrap() error {
	return e.Err
}

// Is reports whether target is a DomainError with the same code and message,
// so wrapped copies created with NewDomainErrorWithCause still match the sentinels.
func (e *DomainError) Is(target error) bool {
	var t *DomainError
	if !errors.As(target, &t) {
		return false
	}
	return e.Code == t.Code && e.Message == t.Message
}

// NewDomainError creates a new DomainError
func NewDomainError(code, message string) *DomainError {
	return &DomainError{
		Code:    code,
		Message: message,
		Err:     nil,
	}
}

// NewDomainErrorWithCause creates a new DomainError with an underlying cause
func NewDomainErrorWithCause(code, message string, err error) *DomainError {
	return &DomainError{
		Code:    code,
		Message: message,
		Err:     err,
	}
}

// Common domain error codes
const (
	ErrCodeValidation        = "VALIDATION_ERROR"
	ErrCodeNotFound          = "NOT_FOUND"
	ErrCodeDimensionMismatch = "DIMENSION_MISMATCH"
	ErrCodeInvalidTransition = "INVALID_TRANSITION"
	ErrCodeConflict          = "CONFLICT"
	ErrCodeInternalError     = "INTERNAL_ERROR"
)

// Validation errors
var (
	ErrInvalidMatchStatus   = NewDomainError(ErrCodeValidation, "invalid match status")
	ErrMissingRequiredField = NewDomainError(ErrCodeValidation, "missing required field")
	ErrScoreOutOfRange      = NewDomainError(ErrCodeValidation, "score must be within [0,1]")
)

// Not found errors
var (
	ErrMatchNotFound     = NewDomainError(ErrCodeNotFound, "match record not found")
	ErrCandidateNotFound = NewDomainError(ErrCodeNotFound, "candidate not found")
	ErrJobNotFound       = NewDomainError(ErrCodeNotFound, "job not found")
)

// Scoring errors
var (
	ErrDimensionMismatch = NewDomainError(ErrCodeDimensionMismatch, "embedding vectors have different dimensions")
)

// Workflow errors
var (
	ErrInvalidTransition = NewDomainError(ErrCodeInvalidTransition, "status transition not allowed")
)

// Persistence errors
var (
	ErrConcurrentWriteConflict = NewDomainError(ErrCodeConflict, "concurrent write conflict, retry the request")
	ErrStorageOperationFail    = NewDomainError(ErrCodeInternalError, "storage operation failed")
)

// ErrorCode returns the DomainError code carried by err, or "" if none.
func ErrorCode(err error) string {
	var de *DomainError
	if errors.As(err, &de) {
		return de.Code
	}
	return ""
}

package services

import (
	"errors"
	"fmt"
)

// ErrorType represents the type/category of error
type ErrorType string

const (
	// ErrorTypeExtraction covers bad or empty input tables. Reported to the
	// caller before a run starts; never fatal to an already-running pipeline.
	ErrorTypeExtraction ErrorType = "extraction"
	// ErrorTypeValidation covers malformed stage output. Triggers a retry
	// with corrective feedback, then a Failed stage once retries are spent.
	ErrorTypeValidation ErrorType = "validation"
	// ErrorTypeTransport covers unreachable/rate-limited provider calls and
	// per-attempt timeouts. Triggers a retry, then a Failed stage.
	ErrorTypeTransport ErrorType = "transport"
	// ErrorTypeAuth covers provider authentication failures. These cannot
	// self-correct, so they short-circuit the remaining retries.
	ErrorTypeAuth ErrorType = "auth"
	// ErrorTypePersist covers storage-layer write failures.
	ErrorTypePersist ErrorType = "persist"
	// ErrorTypeLoad covers storage-layer read failures.
	ErrorTypeLoad ErrorType = "load"
	// ErrorTypeAborted marks work stopped by run cancellation.
	ErrorTypeAborted ErrorType = "aborted"
	// ErrorTypeConflict covers duplicate analysis names and the like.
	ErrorTypeConflict ErrorType = "conflict"
	// ErrorTypeNotFound covers missing saved analyses.
	ErrorTypeNotFound ErrorType = "not_found"
	// ErrorTypeInternal is the catch-all for unexpected failures.
	ErrorTypeInternal ErrorType = "internal"
)

// DomainError represents a structured error with additional context
type DomainError struct {
	Type    ErrorType
	Message string
	Err     error
	Details map[string]interface{}
}

// Error implements the error interface
func (e *DomainError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s (%v)", e.Type, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Type, e.Message)
}

// Unwrap implements errors.Unwrap
func (e *DomainError) Unwrap() error {
	return e.Err
}

// Is implements errors.Is
func (e *DomainError) Is(target error) bool {
	t, ok := target.(*DomainError)
	if !ok {
		return false
	}
	return e.Type == t.Type
}

// WithDetail adds a detail to the error
func (e *DomainError) WithDetail(key string, value interface{}) *DomainError {
	if e.Details == nil {
		e.Details = make(map[string]interface{})
	}
	e.Details[key] = value
	return e
}

// NewDomainError creates a new domain error
func NewDomainError(errType ErrorType, message string, err error) *DomainError {
	return &DomainError{
		Type:    errType,
		Message: message,
		Err:     err,
		Details: make(map[string]interface{}),
	}
}

// Domain error variables

var (
	ErrEmptyTable       = NewDomainError(ErrorTypeExtraction, "table has no rows", nil)
	ErrNoColumns        = NewDomainError(ErrorTypeExtraction, "table has no parseable columns", nil)
	ErrNoTables         = NewDomainError(ErrorTypeExtraction, "dataset contains no tables", nil)
	ErrMalformedOutput  = NewDomainError(ErrorTypeValidation, "stage output is malformed", nil)
	ErrProviderTimeout  = NewDomainError(ErrorTypeTransport, "provider call timed out", nil)
	ErrProviderAuth     = NewDomainError(ErrorTypeAuth, "provider rejected credentials", nil)
	ErrRunAborted       = NewDomainError(ErrorTypeAborted, "run aborted", nil)
	ErrAnalysisNotFound = NewDomainError(ErrorTypeNotFound, "saved analysis not found", nil)
	ErrDuplicateName    = NewDomainError(ErrorTypeConflict, "an analysis with this name already exists", nil)
	ErrRunInProgress    = NewDomainError(ErrorTypeConflict, "a run is already in progress", nil)
	ErrNoActiveRun      = NewDomainError(ErrorTypeNotFound, "no active run", nil)
)

// Error type checking helper functions

// IsExtractionError checks if an error is an extraction error
func IsExtractionError(err error) bool {
	return GetErrorType(err) == ErrorTypeExtraction
}

// IsValidationError checks if an error is a validation error
func IsValidationError(err error) bool {
	return GetErrorType(err) == ErrorTypeValidation
}

// IsTransportError checks if an error is a transport error
func IsTransportError(err error) bool {
	return GetErrorType(err) == ErrorTypeTransport
}

// IsAuthError checks if an error is a provider authentication error
func IsAuthError(err error) bool {
	return GetErrorType(err) == ErrorTypeAuth
}

// IsPersistError checks if an error is a storage write error
func IsPersistError(err error) bool {
	return GetErrorType(err) == ErrorTypePersist
}

// IsLoadError checks if an error is a storage read error
func IsLoadError(err error) bool {
	return GetErrorType(err) == ErrorTypeLoad
}

// IsAbortedError checks if an error marks cancelled work
func IsAbortedError(err error) bool {
	return GetErrorType(err) == ErrorTypeAborted
}

// IsNotFoundError checks if an error is a not found error
func IsNotFoundError(err error) bool {
	return GetErrorType(err) == ErrorTypeNotFound
}

// IsConflictError checks if an error is a conflict error
func IsConflictError(err error) bool {
	return GetErrorType(err) == ErrorTypeConflict
}

// GetErrorType returns the ErrorType of a domain error, or empty string if not a domain error
func GetErrorType(err error) ErrorType {
	var domainErr *DomainError
	if errors.As(err, &domainErr) {
		return domainErr.Type
	}
	return ""
}

// GetErrorDetails returns the details map of a domain error, or nil if not a domain error
func GetErrorDetails(err error) map[string]interface{} {
	var domainErr *DomainError
	if errors.As(err, &domainErr) {
		return domainErr.Details
	}
	return nil
}

// Retryable reports whether the agent step may retry after this error.
// Validation and transport failures are transient; auth failures and
// cancellations are not.
func Retryable(err error) bool {
	switch GetErrorType(err) {
	case ErrorTypeValidation, ErrorTypeTransport:
		return true
	default:
		return false
	}
}

// WrapError wraps an error with additional context
func WrapError(errType ErrorType, message string, err error) error {
	return NewDomainError(errType, message, err)
}

// WrapTransport wraps an error as a provider transport error
func WrapTransport(message string, err error) error {
	return NewDomainError(ErrorTypeTransport, message, err)
}

// WrapInternal wraps an error as an internal error
func WrapInternal(message string, err error) error {
	return NewDomainError(ErrorTypeInternal, message, err)
}

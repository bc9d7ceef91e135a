package services

import (
	"errors"
	"fmt"
)

// ErrorType represents the type/category of error
type ErrorType string

const (
	ErrorTypeValidation ErrorType = "validation"
	ErrorTypeFetch      ErrorType = "fetch"
	ErrorTypeGeneration ErrorType = "generation"
	ErrorTypeInternal   ErrorType = "internal"
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

// Is implements errors.Is. Two domain errors match when their types match.
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

// Sentinel errors, compared by type through errors.Is.
var (
	ErrValidation = NewDomainError(ErrorTypeValidation, "invalid input", nil)
	ErrFetch      = NewDomainError(ErrorTypeFetch, "could not fetch this URL", nil)
	ErrGeneration = NewDomainError(ErrorTypeGeneration, "server error", nil)
	ErrInternal   = NewDomainError(ErrorTypeInternal, "internal server error", nil)
)

// NewValidationError reports missing or empty required fields. It carries
// one detail entry per field.
func NewValidationError(message string, fields ...string) *DomainError {
	err := NewDomainError(ErrorTypeValidation, message, nil)
	for _, f := range fields {
		err.WithDetail(f, fmt.Sprintf("%s is required", f))
	}
	return err
}

// NewFetchError wraps a failed content retrieval.
func NewFetchError(url string, err error) *DomainError {
	return NewDomainError(ErrorTypeFetch, "could not fetch this URL", err).WithDetail("url", url)
}

// NewGenerationError wraps a failed call to the answer-generation provider.
func NewGenerationError(err error) *DomainError {
	return NewDomainError(ErrorTypeGeneration, "server error", err)
}

// IsValidationError checks if an error is a validation error
func IsValidationError(err error) bool {
	return errors.Is(err, ErrValidation)
}

// IsFetchError checks if an error is a content fetch error
func IsFetchError(err error) bool {
	return errors.Is(err, ErrFetch)
}

// IsGenerationError checks if an error is an answer-generation error
func IsGenerationError(err error) bool {
	return errors.Is(err, ErrGeneration)
}

// IsInternalError checks if an error is an internal error
func IsInternalError(err error) bool {
	return errors.Is(err, ErrInternal)
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

// WrapInternal wraps an error as an internal error
func WrapInternal(message string, err error) error {
	return NewDomainError(ErrorTypeInternal, message, err)
}

package domain

import (
	"errors"
	"fmt"
)

var (
	// ErrConfiguration signals an invalid search type configuration.
	// Raised only while building the registry, never at request time.
	ErrConfiguration = errors.New("invalid configuration")
	// ErrValidation signals an invalid caller request.
	ErrValidation = errors.New("validation failed")
	// ErrUnknownType signals a request for a type id not present in the registry.
	ErrUnknownType = errors.New("unknown search type")
	// ErrNotFound signals a missing document.
	ErrNotFound = errors.New("not found")
	// ErrInternal signals an unexpected failure; the cause is kept for
	// diagnostics but not exposed verbatim to the caller.
	ErrInternal = errors.New("internal service error")
)

// ValidationError wraps ErrValidation with a machine-readable code and the
// offending request field.
type ValidationError struct {
	Code  string
	Field string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s: %s (field %q)", ErrValidation.Error(), e.Code, e.Field)
}

func (e *ValidationError) Unwrap() error { return ErrValidation }

// NewValidation creates a validation error.
func NewValidation(code, field string) error {
	return &ValidationError{Code: code, Field: field}
}

// InternalError wraps ErrInternal with the original cause.
type InternalError struct {
	Cause error
}

func (e *InternalError) Error() string {
	return fmt.Sprintf("%s: %v", ErrInternal.Error(), e.Cause)
}

func (e *InternalError) Unwrap() error { return ErrInternal }

// WrapInternal rewraps err as an InternalError unless it already belongs to
// the caller-visible taxonomy (validation, configuration, unknown type,
// not found).
func WrapInternal(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, ErrValidation) || errors.Is(err, ErrConfiguration) ||
		errors.Is(err, ErrUnknownType) || errors.Is(err, ErrNotFound) ||
		errors.Is(err, ErrInternal) {
		return err
	}
	return &InternalError{Cause: err}
}

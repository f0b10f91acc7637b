package searchdex

import (
	"errors"
	"fmt"
	"net/http"
)

// Sentinel errors for common failure classes.
// Use errors.Is() to check.
var (
	ErrNotFound     = errors.New("searchdex: not found")
	ErrUnauthorized = errors.New("searchdex: unauthorized")
	ErrValidation   = errors.New("searchdex: validation failed")
)

// APIError carries the structured error body returned by the server.
type APIError struct {
	Status  int
	Code    string `json:"code"`
	Message string `json:"message"`
	Field   string `json:"field,omitempty"`
}

func (e *APIError) Error() string {
	if e.Field != "" {
		return fmt.Sprintf("searchdex: %s (%s, field %s)", e.Message, e.Code, e.Field)
	}
	return fmt.Sprintf("searchdex: %s (%s)", e.Message, e.Code)
}

// Unwrap maps HTTP statuses onto sentinel errors.
func (e *APIError) Unwrap() error {
	switch e.Status {
	case http.StatusNotFound:
		return ErrNotFound
	case http.StatusUnauthorized:
		return ErrUnauthorized
	case http.StatusBadRequest:
		return ErrValidation
	default:
		return nil
	}
}

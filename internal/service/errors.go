package service

import (
	"errors"
	"fmt"
)

// Domain errors surfaced by the services. The transport layer maps them to
// HTTP status codes; everything else is treated as an infrastructure error.
var (
	ErrNotFound  = errors.New("not found")
	ErrForbidden = errors.New("forbidden")
	ErrConflict  = errors.New("illegal status transition")
)

// ValidationError carries field-level detail for 4xx responses.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("validation: %s %s", e.Field, e.Reason)
}

func invalid(field, reason string) *ValidationError {
	return &ValidationError{Field: field, Reason: reason}
}

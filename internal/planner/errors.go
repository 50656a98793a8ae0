package planner

import (
	"errors"
	"fmt"
)

// ErrInvalidArgument is wrapped by every QueryError.
var ErrInvalidArgument = errors.New("invalid argument")

// QueryErrorCode categorizes query validation failures.
type QueryErrorCode string

const (
	// ErrCodeInvalidTarget indicates a missing target matcher.
	ErrCodeInvalidTarget QueryErrorCode = "INVALID_TARGET"

	// ErrCodeInvalidAvailable indicates a nil available collection.
	ErrCodeInvalidAvailable QueryErrorCode = "INVALID_AVAILABLE"

	// ErrCodeInvalidBound indicates a non-positive depth, plan, expansion or k bound.
	ErrCodeInvalidBound QueryErrorCode = "INVALID_BOUND"

	// ErrCodeInvalidMode indicates an unknown or unset mode.
	ErrCodeInvalidMode QueryErrorCode = "INVALID_MODE"
)

// QueryError reports an argument rejected before the search started.
type QueryError struct {
	// Code identifies the error category.
	Code QueryErrorCode

	// Field names the offending argument.
	Field string

	// Message is a human-readable description.
	Message string
}

// Error implements the error interface.
func (e *QueryError) Error() string {
	if e.Field != "" {
		return fmt.Sprintf("%s: %s: %s", e.Code, e.Field, e.Message)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// Unwrap lets errors.Is match ErrInvalidArgument.
func (e *QueryError) Unwrap() error { return ErrInvalidArgument }

// IsInvalidArgument reports whether err is a query validation failure.
// Uses errors.As to handle wrapped errors.
func IsInvalidArgument(err error) bool {
	var qe *QueryError
	return errors.As(err, &qe)
}

func boundError(field string, value int) *QueryError {
	return &QueryError{
		Code:    ErrCodeInvalidBound,
		Field:   field,
		Message: fmt.Sprintf("must be > 0, got %d", value),
	}
}

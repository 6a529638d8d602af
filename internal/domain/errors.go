package domain

import (
	"errors"
	"fmt"
)

var (
	// ErrMalformedRequest signals a request body that could not be decoded.
	ErrMalformedRequest = errors.New("malformed request")
	// ErrInvalidRequest signals a ranking request that failed boundary validation.
	ErrInvalidRequest = errors.New("invalid request")
	// ErrInvalidCalibration signals an unusable engine calibration.
	ErrInvalidCalibration = errors.New("invalid calibration")
	// ErrInternalFault signals a broken engine invariant. Never returned for bad input.
	ErrInternalFault = errors.New("internal fault")
	// ErrRateLimited signals a rate limit hit.
	ErrRateLimited = errors.New("rate limited")
)

// ValidationError wraps ErrInvalidRequest with the offending field path.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	if e.Field == "" {
		return fmt.Sprintf("%s: %s", ErrInvalidRequest.Error(), e.Reason)
	}
	return fmt.Sprintf("%s: %s: %s", ErrInvalidRequest.Error(), e.Field, e.Reason)
}

func (e *ValidationError) Unwrap() error { return ErrInvalidRequest }

// NewValidationError creates a validation error for a field.
func NewValidationError(field, reason string) error {
	return &ValidationError{Field: field, Reason: reason}
}

// NewInternalFault wraps ErrInternalFault with a description of the broken invariant.
func NewInternalFault(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrInternalFault, fmt.Sprintf(format, args...))
}

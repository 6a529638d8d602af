package pemrank

import "github.com/kailas-cloud/pemrank/internal/domain"

// Sentinel errors re-exported from the domain layer.
// Use errors.Is() to check.
var (
	ErrMalformedRequest   = domain.ErrMalformedRequest
	ErrInvalidRequest     = domain.ErrInvalidRequest
	ErrInvalidCalibration = domain.ErrInvalidCalibration
	ErrInternalFault      = domain.ErrInternalFault
)

// ValidationError carries the offending field path of an ErrInvalidRequest.
type ValidationError = domain.ValidationError

package vecvstext

import "github.com/kailas-cloud/vecvstext/internal/domain"

// Sentinel errors re-exported from the domain layer.
// Use errors.Is() to check.
var (
	ErrEmptyQuery        = domain.ErrEmptyQuery
	ErrNotFound          = domain.ErrNotFound
	ErrProjection        = domain.ErrProjection
	ErrWordLookup        = domain.ErrWordLookup
	ErrUpstreamStatus    = domain.ErrUpstreamStatus
	ErrMalformedPayload  = domain.ErrMalformedPayload
	ErrVectorDimMismatch = domain.ErrVectorDimMismatch
)

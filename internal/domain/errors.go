package domain

import (
	"errors"
	"fmt"
)

var (
	// ErrEmptyQuery signals a blank query where one is required.
	ErrEmptyQuery = errors.New("empty query")
	// ErrNotFound signals a missing upstream resource.
	ErrNotFound = errors.New("not found")
	// ErrInvalidEngine signals an unknown engine kind.
	ErrInvalidEngine = errors.New("invalid engine")

	// ErrProjection signals a failed embedding projection (whole batch).
	ErrProjection = errors.New("projection failed")
	// ErrWordLookup signals a failed word index lookup.
	ErrWordLookup = errors.New("word lookup failed")

	// ErrUpstreamStatus signals a non-success HTTP status from the books API.
	ErrUpstreamStatus = errors.New("upstream returned non-success status")
	// ErrMalformedPayload signals an upstream body that could not be decoded or is incomplete.
	ErrMalformedPayload = errors.New("malformed upstream payload")
	// ErrVectorDimMismatch signals embedding vectors of different lengths in one batch.
	ErrVectorDimMismatch = errors.New("vector dimension mismatch")

	// ErrStale signals a result superseded by a newer request.
	ErrStale = errors.New("superseded by a newer request")
	// ErrNoSelection signals a word lookup without a selected book.
	ErrNoSelection = errors.New("no book selected")
)

// DimMismatchError reports the first vector whose length differs from the batch.
type DimMismatchError struct {
	ID       string
	Expected int
	Got      int
}

func (e *DimMismatchError) Error() string {
	return fmt.Sprintf("%s: %q has %d components, expected %d",
		ErrVectorDimMismatch.Error(), e.ID, e.Got, e.Expected)
}

func (e *DimMismatchError) Unwrap() error { return ErrVectorDimMismatch }

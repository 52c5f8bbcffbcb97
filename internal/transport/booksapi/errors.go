package booksapi

import (
	"fmt"
	"net/http"

	"github.com/kailas-cloud/vecvstext/internal/domain"
)

// StatusError is a non-2xx answer from the books API.
type StatusError struct {
	Op         string
	StatusCode int
	Body       string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("%s: books api returned %d", e.Op, e.StatusCode)
}

// Unwrap exposes domain.ErrUpstreamStatus, plus domain.ErrNotFound for 404s.
func (e *StatusError) Unwrap() []error {
	if e.StatusCode == http.StatusNotFound {
		return []error{domain.ErrUpstreamStatus, domain.ErrNotFound}
	}
	return []error{domain.ErrUpstreamStatus}
}

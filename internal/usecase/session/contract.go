package session

import (
	"context"

	"github.com/kailas-cloud/vecvstext/internal/usecase/projection"
	"github.com/kailas-cloud/vecvstext/internal/usecase/wordmatch"
)

// Projector lays out a candidate id set in 2-D.
type Projector interface {
	Project(ctx context.Context, query string, ids []string) (projection.Projection, error)
}

// WordLookup resolves a selected result id to its vocabulary and query matches.
type WordLookup interface {
	Lookup(ctx context.Context, query, id string) (wordmatch.Result, error)
}

package search

import (
	"context"

	"github.com/kailas-cloud/vecvstext/internal/domain/book"
	"github.com/kailas-cloud/vecvstext/internal/domain/engine"
)

// Retriever runs one engine for a query.
type Retriever interface {
	Search(ctx context.Context, query string, kind engine.Kind) ([]book.Item, error)
}

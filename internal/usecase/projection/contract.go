package projection

import (
	"context"

	"github.com/kailas-cloud/vecvstext/internal/domain"
)

// EmbeddingsFetcher loads query-conditioned vectors for a set of book ids.
// The response may come back in any order and may include the query anchor.
type EmbeddingsFetcher interface {
	Embeddings(ctx context.Context, query string, ids []string) ([]domain.EmbeddingVector, error)
}

package wordmatch

import (
	"context"

	"github.com/kailas-cloud/vecvstext/internal/domain/words"
)

// WordsFetcher loads the indexed vocabulary of a canonical book id.
type WordsFetcher interface {
	Words(ctx context.Context, bookID string) (words.Index, error)
}

package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"

	"github.com/kailas-cloud/vecvstext/internal/domain/words"
)

// WordsFetcher loads a book's vocabulary from the source of truth.
type WordsFetcher interface {
	Words(ctx context.Context, bookID string) (words.Index, error)
}

// Words caches word indices per canonical book id. Vocabularies are static,
// so entries live for the configured TTL.
type Words struct {
	inner WordsFetcher
	base
}

// NewWords creates a caching decorator for word index lookups.
// cacheTotal is a counter vec with labels "kind" and "result", passed explicitly.
func NewWords(
	inner WordsFetcher,
	s store,
	prefix string,
	ttl time.Duration,
	cacheTotal *prometheus.CounterVec,
	logger *zap.Logger,
) *Words {
	return &Words{
		inner: inner,
		base: base{
			store:      s,
			prefix:     prefix,
			kind:       "words",
			ttl:        ttl,
			cacheTotal: cacheTotal,
			logger:     logger,
		},
	}
}

// Words returns the cached index or fetches and caches it.
func (w *Words) Words(ctx context.Context, bookID string) (words.Index, error) {
	key := w.key(bookID)

	if data, ok := w.get(ctx, key); ok {
		var idx words.Index
		if err := json.Unmarshal(data, &idx); err == nil {
			return idx, nil
		}
		w.logger.Warn("Failed to parse cached word index", zap.String("book_id", bookID))
	}

	idx, err := w.inner.Words(ctx, bookID)
	if err != nil {
		return nil, fmt.Errorf("fetch words: %w", err)
	}

	if data, err := json.Marshal(idx); err == nil {
		w.put(ctx, key, data)
	}
	return idx, nil
}

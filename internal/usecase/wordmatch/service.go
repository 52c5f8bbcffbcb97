// Package wordmatch correlates query tokens with a book's indexed vocabulary.
package wordmatch

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/kailas-cloud/vecvstext/internal/domain"
	"github.com/kailas-cloud/vecvstext/internal/domain/bookid"
	"github.com/kailas-cloud/vecvstext/internal/domain/words"
	"github.com/kailas-cloud/vecvstext/internal/logger"
)

// Result is the word correlation for one selected result id.
type Result struct {
	ID          string // as selected, possibly composite
	CanonicalID string
	Words       words.Index
	Matches     []string
}

// Service resolves a result id to its vocabulary and matches the query against it.
type Service struct {
	fetcher WordsFetcher
}

// New creates a word matching service.
func New(fetcher WordsFetcher) *Service {
	return &Service{fetcher: fetcher}
}

// Lookup canonicalizes id, fetches its word index and matches query tokens.
// Lookups always use the canonical id, so every chunk of a book shares one index.
func (s *Service) Lookup(ctx context.Context, query, id string) (Result, error) {
	canonical := bookid.Canonicalize(id)
	if canonical == "" {
		return Result{}, fmt.Errorf("%w: id %q has no canonical form: %w", domain.ErrWordLookup, id, domain.ErrNotFound)
	}

	idx, err := s.fetcher.Words(ctx, canonical)
	if err != nil {
		logger.FromContext(ctx).Warn("word lookup failed",
			zap.String("id", id),
			zap.String("canonical_id", canonical),
			zap.Error(err),
		)
		return Result{}, fmt.Errorf("%w: %q: %w", domain.ErrWordLookup, canonical, err)
	}

	return Result{
		ID:          id,
		CanonicalID: canonical,
		Words:       idx,
		Matches:     words.Match(query, idx),
	}, nil
}

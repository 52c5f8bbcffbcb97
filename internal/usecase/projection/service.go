// Package projection turns a candidate id set into a 2-D scatter layout.
package projection

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/kailas-cloud/vecvstext/internal/domain"
	"github.com/kailas-cloud/vecvstext/internal/domain/pca"
	"github.com/kailas-cloud/vecvstext/internal/metrics"
	"github.com/kailas-cloud/vecvstext/internal/observability"
)

// Projection is the 2-D layout of one (query, ids) pair.
// Points maps one-to-one onto IDs, in the same order.
type Projection struct {
	Query  string
	IDs    []string
	Points []pca.Point
	Anchor *pca.Point // the query's own embedding, when requested and returned
}

// Service fetches embeddings and reduces them with PCA.
type Service struct {
	fetcher     EmbeddingsFetcher
	queryAnchor bool
	logger      *zap.Logger
}

// New creates a projection service. The query anchor takes part in the fit by default.
func New(fetcher EmbeddingsFetcher, logger *zap.Logger) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{fetcher: fetcher, queryAnchor: true, logger: logger}
}

// WithQueryAnchor sets whether the query embedding is fitted and returned as Anchor.
func (s *Service) WithQueryAnchor(include bool) *Service {
	s.queryAnchor = include
	return s
}

// Project lays out the given ids for the query. Duplicate ids keep their
// first position. An empty id list yields an empty projection without
// contacting the embedding service. Any failure fails the whole batch.
func (s *Service) Project(ctx context.Context, query string, ids []string) (Projection, error) {
	ids = dedupe(ids)
	if len(ids) == 0 {
		return Projection{Query: query, IDs: ids, Points: []pca.Point{}}, nil
	}

	ctx, span := observability.StartProjectionSpan(ctx, len(ids))
	defer span.End()

	start := time.Now()
	p, err := s.project(ctx, query, ids)
	result := "ok"
	if err != nil {
		result = "error"
		observability.RecordError(span, err)
	}
	metrics.ProjectionDuration.WithLabelValues(result).Observe(time.Since(start).Seconds())
	return p, err
}

func (s *Service) project(ctx context.Context, query string, ids []string) (Projection, error) {
	vectors, err := s.fetcher.Embeddings(ctx, query, ids)
	if err != nil {
		return Projection{}, fmt.Errorf("%w: fetch embeddings: %w", domain.ErrProjection, err)
	}

	byID := make(map[string]domain.EmbeddingVector, len(vectors))
	for _, v := range vectors {
		if _, dup := byID[v.ID]; !dup {
			byID[v.ID] = v
		}
	}

	rows := make([]domain.EmbeddingVector, 0, len(ids)+1)
	requested := make(map[string]struct{}, len(ids))
	for _, id := range ids {
		v, ok := byID[id]
		if !ok {
			return Projection{}, fmt.Errorf("%w: no embedding returned for %q: %w",
				domain.ErrProjection, id, domain.ErrMalformedPayload)
		}
		requested[id] = struct{}{}
		rows = append(rows, v)
	}

	var anchor *domain.EmbeddingVector
	if s.queryAnchor {
		if v, ok := byID[domain.QueryAnchorID]; ok {
			if _, asked := requested[domain.QueryAnchorID]; !asked {
				anchor = &v
				rows = append(rows, v)
			}
		}
	}

	extra := len(byID) - len(requested)
	if anchor != nil {
		extra--
	}
	if extra > 0 {
		s.logger.Debug("ignoring unrequested embeddings", zap.Int("count", extra))
	}

	points, err := pca.Project(rows)
	if err != nil {
		return Projection{}, fmt.Errorf("%w: %w", domain.ErrProjection, err)
	}

	out := Projection{Query: query, IDs: ids, Points: points[:len(ids)]}
	if anchor != nil {
		a := points[len(ids)]
		out.Anchor = &a
	}
	return out, nil
}

// dedupe drops repeated ids, keeping first occurrences. Never nil.
func dedupe(ids []string) []string {
	out := make([]string, 0, len(ids))
	seen := make(map[string]struct{}, len(ids))
	for _, id := range ids {
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	return out
}

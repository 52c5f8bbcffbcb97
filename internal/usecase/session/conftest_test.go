package session

import (
	"context"
	"sync"

	"github.com/kailas-cloud/vecvstext/internal/domain/book"
	"github.com/kailas-cloud/vecvstext/internal/domain/bookid"
	"github.com/kailas-cloud/vecvstext/internal/domain/engine"
	"github.com/kailas-cloud/vecvstext/internal/domain/pca"
	"github.com/kailas-cloud/vecvstext/internal/domain/words"
	"github.com/kailas-cloud/vecvstext/internal/usecase/projection"
	"github.com/kailas-cloud/vecvstext/internal/usecase/wordmatch"
)

// mockRetriever answers immediately with fixed results per engine.
type mockRetriever struct {
	results map[engine.Kind][]book.Item
	errs    map[engine.Kind]error
}

func (m *mockRetriever) Search(_ context.Context, _ string, k engine.Kind) ([]book.Item, error) {
	if err := m.errs[k]; err != nil {
		return nil, err
	}
	return m.results[k], nil
}

type mockProjector struct {
	mu    sync.Mutex
	calls [][]string
	err   error
	gate  chan struct{} // when set, Project blocks until closed or ctx is done
}

func (m *mockProjector) Project(ctx context.Context, query string, ids []string) (projection.Projection, error) {
	m.mu.Lock()
	m.calls = append(m.calls, ids)
	gate := m.gate
	m.mu.Unlock()

	if gate != nil {
		select {
		case <-gate:
		case <-ctx.Done():
			return projection.Projection{}, ctx.Err()
		}
	}
	if m.err != nil {
		return projection.Projection{}, m.err
	}
	points := make([]pca.Point, len(ids))
	for i, id := range ids {
		points[i] = pca.Point{ID: id, X: float64(i)}
	}
	return projection.Projection{Query: query, IDs: ids, Points: points}, nil
}

func (m *mockProjector) callCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.calls)
}

// mockWords serves fixed indices; ids listed in block wait for release.
type mockWords struct {
	mu      sync.Mutex
	index   map[string]words.Index
	err     error
	block   map[string]chan struct{}
	started chan string
}

func (m *mockWords) Lookup(ctx context.Context, query, id string) (wordmatch.Result, error) {
	m.mu.Lock()
	gate := m.block[id]
	m.mu.Unlock()
	if m.started != nil {
		m.started <- id
	}
	if gate != nil {
		<-gate
	}
	if m.err != nil {
		return wordmatch.Result{}, m.err
	}
	canonical := bookid.Canonicalize(id)
	idx := m.index[canonical]
	return wordmatch.Result{ID: id, CanonicalID: canonical, Words: idx, Matches: words.Match(query, idx)}, nil
}

func items(ids ...string) []book.Item {
	out := make([]book.Item, len(ids))
	for i, id := range ids {
		out[i] = book.Item{ID: id}
	}
	return out
}

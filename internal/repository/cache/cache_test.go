package cache

import (
	"context"
	"errors"
	"slices"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"go.uber.org/zap"

	"github.com/kailas-cloud/vecvstext/internal/domain"
	"github.com/kailas-cloud/vecvstext/internal/domain/words"
)

func newCounter() *prometheus.CounterVec {
	return prometheus.NewCounterVec(prometheus.CounterOpts{Name: "test_cache_total"}, []string{"kind", "result"})
}

func TestWords_MissThenHit(t *testing.T) {
	inner := &mockWordsFetcher{index: words.Index{"ogres", "storyline"}}
	st := newMemStore()
	counter := newCounter()
	c := NewWords(inner, st, "vvt:", time.Hour, counter, zap.NewNop())

	for i := 0; i < 3; i++ {
		idx, err := c.Words(context.Background(), "b1")
		if err != nil {
			t.Fatalf("call %d: unexpected error: %v", i, err)
		}
		if !slices.Equal([]string(idx), []string{"ogres", "storyline"}) {
			t.Fatalf("call %d: unexpected index %v", i, idx)
		}
	}

	if inner.calls != 1 {
		t.Errorf("expected 1 upstream call, got %d", inner.calls)
	}
	if got := testutil.ToFloat64(counter.WithLabelValues("words", "hit")); got != 2 {
		t.Errorf("expected 2 hits, got %v", got)
	}
	if got := testutil.ToFloat64(counter.WithLabelValues("words", "miss")); got != 1 {
		t.Errorf("expected 1 miss, got %v", got)
	}
	if st.ttls[st.setKeys[0]] != time.Hour {
		t.Errorf("expected ttl 1h, got %v", st.ttls[st.setKeys[0]])
	}
}

func TestWords_KeyedByBook(t *testing.T) {
	inner := &mockWordsFetcher{index: words.Index{"a"}}
	c := NewWords(inner, newMemStore(), "vvt:", time.Hour, nil, zap.NewNop())

	_, _ = c.Words(context.Background(), "b1")
	_, _ = c.Words(context.Background(), "b2")
	if inner.calls != 2 {
		t.Errorf("different books must not share an entry, got %d upstream calls", inner.calls)
	}
}

func TestWords_InnerErrorNotCached(t *testing.T) {
	inner := &mockWordsFetcher{err: domain.ErrUpstreamStatus}
	st := newMemStore()
	c := NewWords(inner, st, "vvt:", time.Hour, nil, zap.NewNop())

	_, err := c.Words(context.Background(), "b1")
	if !errors.Is(err, domain.ErrUpstreamStatus) {
		t.Fatalf("expected upstream error, got %v", err)
	}
	if len(st.setKeys) != 0 {
		t.Error("failures must not be cached")
	}
}

func TestWords_StoreFailureDegradesToMiss(t *testing.T) {
	inner := &mockWordsFetcher{index: words.Index{"a"}}
	st := newMemStore()
	st.getErr = errors.New("connection refused")
	st.setErr = errors.New("connection refused")
	c := NewWords(inner, st, "vvt:", time.Hour, nil, zap.NewNop())

	idx, err := c.Words(context.Background(), "b1")
	if err != nil {
		t.Fatalf("store failures must not surface, got %v", err)
	}
	if len(idx) != 1 {
		t.Errorf("unexpected index %v", idx)
	}
}

func TestWords_CorruptEntryRefetches(t *testing.T) {
	inner := &mockWordsFetcher{index: words.Index{"a"}}
	st := newMemStore()
	c := NewWords(inner, st, "vvt:", time.Hour, nil, zap.NewNop())
	st.data[c.key("b1")] = []byte("{not json")

	idx, err := c.Words(context.Background(), "b1")
	if err != nil || len(idx) != 1 {
		t.Fatalf("expected refetch, got %v, %v", idx, err)
	}
	if inner.calls != 1 {
		t.Errorf("expected 1 upstream call, got %d", inner.calls)
	}
}

func TestEmbeddings_KeyIgnoresIDOrder(t *testing.T) {
	inner := &mockEmbeddingsFetcher{vectors: []domain.EmbeddingVector{
		{ID: domain.QueryAnchorID, Components: []float64{0.5, -0.5}},
		{ID: "b1", Components: []float64{1, 2}},
		{ID: "b2", Components: []float64{3, 4}},
	}}
	counter := newCounter()
	c := NewEmbeddings(inner, newMemStore(), "vvt:", time.Minute, counter, zap.NewNop())

	first, err := c.Embeddings(context.Background(), "q", []string{"b1", "b2"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	second, err := c.Embeddings(context.Background(), "q", []string{"b2", "b1"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if inner.calls != 1 {
		t.Errorf("expected 1 upstream call, got %d", inner.calls)
	}
	if len(second) != len(first) {
		t.Fatalf("cached batch size %d, want %d", len(second), len(first))
	}
	for i := range first {
		if first[i].ID != second[i].ID || !slices.Equal(first[i].Components, second[i].Components) {
			t.Errorf("entry %d differs after cache round trip: %+v vs %+v", i, first[i], second[i])
		}
	}
	if got := testutil.ToFloat64(counter.WithLabelValues("embeddings", "hit")); got != 1 {
		t.Errorf("expected 1 hit, got %v", got)
	}
}

func TestEmbeddings_QueryIsPartOfKey(t *testing.T) {
	inner := &mockEmbeddingsFetcher{vectors: []domain.EmbeddingVector{{ID: "b1", Components: []float64{1}}}}
	c := NewEmbeddings(inner, newMemStore(), "vvt:", time.Minute, nil, zap.NewNop())

	_, _ = c.Embeddings(context.Background(), "dragons", []string{"b1"})
	_, _ = c.Embeddings(context.Background(), "ogres", []string{"b1"})
	if inner.calls != 2 {
		t.Errorf("query-conditioned batches must not share entries, got %d calls", inner.calls)
	}
}

func TestEmbeddings_IncompleteBatchNotCached(t *testing.T) {
	partial := []domain.EmbeddingVector{{ID: "b1", Components: []float64{1, 2}}}
	full := []domain.EmbeddingVector{
		{ID: "b1", Components: []float64{1, 2}},
		{ID: "b2", Components: []float64{3, 4}},
	}
	inner := &mockEmbeddingsFetcher{replies: [][]domain.EmbeddingVector{partial, full}}
	store := newMemStore()
	c := NewEmbeddings(inner, store, "vvt:", time.Minute, nil, zap.NewNop())

	got, err := c.Embeddings(context.Background(), "q", []string{"b1", "b2"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(got) != 1 {
		t.Fatalf("expected the partial batch passed through, got %d vectors", len(got))
	}
	if len(store.setKeys) != 0 {
		t.Fatalf("incomplete batch must not be cached, got writes %v", store.setKeys)
	}

	for range 2 {
		got, err = c.Embeddings(context.Background(), "q", []string{"b2", "b1"})
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if len(got) != 2 {
			t.Fatalf("expected full batch, got %d vectors", len(got))
		}
	}
	if inner.calls != 2 {
		t.Errorf("expected upstream retried once then cached, got %d calls", inner.calls)
	}
}

func TestEmbeddings_DimMismatchNotCached(t *testing.T) {
	inner := &mockEmbeddingsFetcher{vectors: []domain.EmbeddingVector{
		{ID: "b1", Components: []float64{1, 2}},
		{ID: "b2", Components: []float64{3}},
	}}
	store := newMemStore()
	c := NewEmbeddings(inner, store, "vvt:", time.Minute, nil, zap.NewNop())

	_, _ = c.Embeddings(context.Background(), "q", []string{"b1", "b2"})
	_, _ = c.Embeddings(context.Background(), "q", []string{"b1", "b2"})
	if len(store.setKeys) != 0 || inner.calls != 2 {
		t.Errorf("inconsistent batch cached: writes %v, calls %d", store.setKeys, inner.calls)
	}
}

func TestEmbeddings_StaleIncompleteEntryRefetches(t *testing.T) {
	store := newMemStore()
	inner := &mockEmbeddingsFetcher{vectors: []domain.EmbeddingVector{
		{ID: "b1", Components: []float64{1}},
		{ID: "b2", Components: []float64{2}},
	}}
	c := NewEmbeddings(inner, store, "vvt:", time.Minute, nil, zap.NewNop())

	key := c.key("q", "b1\x00b2")
	store.data[key] = encodeVectors([]domain.EmbeddingVector{{ID: "b1", Components: []float64{1}}})

	got, err := c.Embeddings(context.Background(), "q", []string{"b1", "b2"})
	if err != nil || len(got) != 2 {
		t.Fatalf("expected refetched full batch, got %v, %v", got, err)
	}
	if inner.calls != 1 {
		t.Errorf("expected 1 upstream call, got %d", inner.calls)
	}
}

func TestDecodeVectors_Corrupt(t *testing.T) {
	good := encodeVectors([]domain.EmbeddingVector{{ID: "b1", Components: []float64{1, 2, 3}}})

	tests := map[string][]byte{
		"empty":      {},
		"truncated":  good[:len(good)-3],
		"trailing":   append(slices.Clone(good), 0xff),
		"huge count": {0xff, 0xff, 0x03},
	}
	for name, data := range tests {
		t.Run(name, func(t *testing.T) {
			if _, err := decodeVectors(data); err == nil {
				t.Error("expected decode error")
			}
		})
	}
}

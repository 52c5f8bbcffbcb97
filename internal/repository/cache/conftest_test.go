package cache

import (
	"context"
	"sync"
	"time"

	"github.com/kailas-cloud/vecvstext/internal/db"
	"github.com/kailas-cloud/vecvstext/internal/domain"
	"github.com/kailas-cloud/vecvstext/internal/domain/words"
)

// memStore implements the consumer store interface for tests.
type memStore struct {
	mu      sync.Mutex
	data    map[string][]byte
	ttls    map[string]time.Duration
	getErr  error
	setErr  error
	setKeys []string
}

func newMemStore() *memStore {
	return &memStore{data: map[string][]byte{}, ttls: map[string]time.Duration{}}
}

func (m *memStore) Get(_ context.Context, key string) ([]byte, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.getErr != nil {
		return nil, m.getErr
	}
	v, ok := m.data[key]
	if !ok {
		return nil, db.ErrKeyNotFound
	}
	return v, nil
}

func (m *memStore) SetWithTTL(_ context.Context, key string, value []byte, ttl time.Duration) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.setErr != nil {
		return m.setErr
	}
	m.data[key] = value
	m.ttls[key] = ttl
	m.setKeys = append(m.setKeys, key)
	return nil
}

type mockWordsFetcher struct {
	index words.Index
	err   error
	calls int
}

func (m *mockWordsFetcher) Words(_ context.Context, _ string) (words.Index, error) {
	m.calls++
	return m.index, m.err
}

type mockEmbeddingsFetcher struct {
	vectors []domain.EmbeddingVector
	// replies, when set, answers call n with replies[n], repeating the last one.
	replies [][]domain.EmbeddingVector
	err     error
	calls   int
}

func (m *mockEmbeddingsFetcher) Embeddings(_ context.Context, _ string, _ []string) ([]domain.EmbeddingVector, error) {
	m.calls++
	if len(m.replies) > 0 {
		return m.replies[min(m.calls, len(m.replies))-1], m.err
	}
	return m.vectors, m.err
}

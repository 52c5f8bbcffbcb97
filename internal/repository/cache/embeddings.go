package cache

import (
	"context"
	"encoding/binary"
	"fmt"
	"math"
	"slices"
	"strings"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"

	"github.com/kailas-cloud/vecvstext/internal/domain"
)

// EmbeddingsFetcher loads query-conditioned embedding vectors.
type EmbeddingsFetcher interface {
	Embeddings(ctx context.Context, query string, ids []string) ([]domain.EmbeddingVector, error)
}

// Embeddings caches whole embedding batches keyed by (query, id set).
// The upstream answer is order-independent, so the key uses the sorted ids.
type Embeddings struct {
	inner EmbeddingsFetcher
	base
}

// NewEmbeddings creates a caching decorator for embedding batches.
func NewEmbeddings(
	inner EmbeddingsFetcher,
	s store,
	prefix string,
	ttl time.Duration,
	cacheTotal *prometheus.CounterVec,
	logger *zap.Logger,
) *Embeddings {
	return &Embeddings{
		inner: inner,
		base: base{
			store:      s,
			prefix:     prefix,
			kind:       "embeddings",
			ttl:        ttl,
			cacheTotal: cacheTotal,
			logger:     logger,
		},
	}
}

// Embeddings returns the cached batch or fetches and caches it.
func (e *Embeddings) Embeddings(ctx context.Context, query string, ids []string) ([]domain.EmbeddingVector, error) {
	sorted := slices.Clone(ids)
	slices.Sort(sorted)
	key := e.key(query, strings.Join(sorted, "\x00"))

	if data, ok := e.get(ctx, key); ok {
		vectors, err := decodeVectors(data)
		if err == nil {
			err = checkComplete(vectors, ids)
		}
		if err == nil {
			return vectors, nil
		}
		e.logger.Warn("Discarding cached embeddings", zap.String("key", key), zap.Error(err))
	}

	vectors, err := e.inner.Embeddings(ctx, query, ids)
	if err != nil {
		return nil, fmt.Errorf("fetch embeddings: %w", err)
	}

	// Incomplete batches are returned uncached so a retry reaches upstream again.
	if err := checkComplete(vectors, ids); err != nil {
		e.logger.Debug("Not caching incomplete embeddings", zap.String("key", key), zap.Error(err))
		return vectors, nil
	}
	e.put(ctx, key, encodeVectors(vectors))
	return vectors, nil
}

// checkComplete requires a vector for every requested id and one shared dimension.
func checkComplete(vectors []domain.EmbeddingVector, ids []string) error {
	have := make(map[string]struct{}, len(vectors))
	for _, v := range vectors {
		have[v.ID] = struct{}{}
	}
	for _, id := range ids {
		if _, ok := have[id]; !ok {
			return fmt.Errorf("%w: no embedding for %q", domain.ErrMalformedPayload, id)
		}
	}
	return domain.CheckDimensions(vectors)
}

// encodeVectors lays out each vector as uvarint(len id) | id | uvarint(dim) | dim × float64 LE.
func encodeVectors(vectors []domain.EmbeddingVector) []byte {
	size := binary.MaxVarintLen64
	for _, v := range vectors {
		size += 2*binary.MaxVarintLen64 + len(v.ID) + 8*len(v.Components)
	}
	buf := make([]byte, 0, size)
	buf = binary.AppendUvarint(buf, uint64(len(vectors)))
	for _, v := range vectors {
		buf = binary.AppendUvarint(buf, uint64(len(v.ID)))
		buf = append(buf, v.ID...)
		buf = binary.AppendUvarint(buf, uint64(len(v.Components)))
		for _, f := range v.Components {
			buf = binary.LittleEndian.AppendUint64(buf, math.Float64bits(f))
		}
	}
	return buf
}

func decodeVectors(data []byte) ([]domain.EmbeddingVector, error) {
	count, n := binary.Uvarint(data)
	if n <= 0 {
		return nil, fmt.Errorf("invalid embedding cache data: bad header")
	}
	data = data[n:]
	if count > uint64(len(data)) {
		return nil, fmt.Errorf("invalid embedding cache data: count %d exceeds payload", count)
	}

	vectors := make([]domain.EmbeddingVector, 0, count)
	for i := uint64(0); i < count; i++ {
		idLen, n := binary.Uvarint(data)
		if n <= 0 || idLen > uint64(len(data)-n) {
			return nil, fmt.Errorf("invalid embedding cache data: entry %d id", i)
		}
		data = data[n:]
		id := string(data[:idLen])
		data = data[idLen:]

		dim, n := binary.Uvarint(data)
		if n <= 0 || dim > uint64(len(data)-n)/8 {
			return nil, fmt.Errorf("invalid embedding cache data: entry %d dim", i)
		}
		data = data[n:]
		comps := make([]float64, dim)
		for j := range comps {
			comps[j] = math.Float64frombits(binary.LittleEndian.Uint64(data[j*8:]))
		}
		data = data[dim*8:]
		vectors = append(vectors, domain.EmbeddingVector{ID: id, Components: comps})
	}
	if len(data) != 0 {
		return nil, fmt.Errorf("invalid embedding cache data: %d trailing bytes", len(data))
	}
	return vectors, nil
}

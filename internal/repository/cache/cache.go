// Package cache holds read-through caching decorators for books API lookups.
package cache

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"

	"github.com/kailas-cloud/vecvstext/internal/db"
)

// store is the consumer interface for the caches (ISP).
type store interface {
	Get(ctx context.Context, key string) ([]byte, error)
	SetWithTTL(ctx context.Context, key string, value []byte, ttl time.Duration) error
}

// base carries what both decorators share. Cache failures are logged and
// degrade to a miss; they never fail the lookup.
type base struct {
	store      store
	prefix     string
	kind       string
	ttl        time.Duration
	cacheTotal *prometheus.CounterVec
	logger     *zap.Logger
}

func (b *base) key(parts ...string) string {
	h := sha256.New()
	for _, p := range parts {
		_, _ = h.Write([]byte(p))
		_, _ = h.Write([]byte{0})
	}
	return b.prefix + b.kind + ":" + hex.EncodeToString(h.Sum(nil))
}

func (b *base) get(ctx context.Context, key string) ([]byte, bool) {
	data, err := b.store.Get(ctx, key)
	if err != nil {
		if !errors.Is(err, db.ErrKeyNotFound) {
			b.logger.Warn("Failed to read cache", zap.String("kind", b.kind), zap.String("key", key), zap.Error(err))
		}
		b.inc("miss")
		return nil, false
	}
	if len(data) == 0 {
		b.inc("miss")
		return nil, false
	}
	b.inc("hit")
	return data, true
}

func (b *base) put(ctx context.Context, key string, data []byte) {
	if err := b.store.SetWithTTL(ctx, key, data, b.ttl); err != nil {
		b.logger.Warn("Failed to write cache", zap.String("kind", b.kind), zap.String("key", key), zap.Error(err))
	}
}

func (b *base) inc(result string) {
	if b.cacheTotal != nil {
		b.cacheTotal.WithLabelValues(b.kind, result).Inc()
	}
}

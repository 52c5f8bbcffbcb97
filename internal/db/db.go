// Package db defines the key-value storage contract behind the response caches.
package db

import (
	"context"
	"time"
)

// Store is the cache backend facade. Implementations: redis (rueidis, also
// talks to Valkey) and badger (embedded).
type Store interface {
	Pinger
	KVStore
	Close()
}

// Pinger checks backend connectivity.
type Pinger interface {
	Ping(ctx context.Context) error
}

// KVStore provides simple key-value operations. Get returns ErrKeyNotFound
// for missing or expired keys.
type KVStore interface {
	Get(ctx context.Context, key string) ([]byte, error)
	SetWithTTL(ctx context.Context, key string, value []byte, ttl time.Duration) error
	Del(ctx context.Context, key string) error
}

package vecvstext

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Option configures the Client.
type Option interface {
	apply(*clientConfig)
}

// optionFunc adapts a function to the Option interface.
type optionFunc func(*clientConfig)

func (f optionFunc) apply(c *clientConfig) { f(c) }

type clientConfig struct {
	baseURL    string
	timeout    time.Duration
	httpClient *http.Client

	cacheDriver  string // "", "redis" or "badger"
	cacheAddrs   []string
	cachePass    string
	cachePath    string
	wordTTL      time.Duration
	embeddingTTL time.Duration

	candidateSource string
	queryAnchor     bool

	logger     *slog.Logger
	metricsReg prometheus.Registerer
}

func defaultConfig() *clientConfig {
	return &clientConfig{
		timeout:      15 * time.Second,
		wordTTL:      24 * time.Hour,
		embeddingTTL: time.Hour,
		queryAnchor:  true,
	}
}

// WithBooksAPI sets the base URL of the books API. Required.
func WithBooksAPI(baseURL string) Option {
	return optionFunc(func(c *clientConfig) {
		c.baseURL = baseURL
	})
}

// WithTimeout sets the per-request timeout for books API calls. Default: 15s.
func WithTimeout(d time.Duration) Option {
	return optionFunc(func(c *clientConfig) {
		c.timeout = d
	})
}

// WithHTTPClient replaces the HTTP client used for books API calls.
func WithHTTPClient(hc *http.Client) Option {
	return optionFunc(func(c *clientConfig) {
		c.httpClient = hc
	})
}

// WithRedis caches word indices and embeddings in a Redis instance.
func WithRedis(addr, password string) Option {
	return optionFunc(func(c *clientConfig) {
		c.cacheDriver = "redis"
		c.cacheAddrs = []string{addr}
		c.cachePass = password
	})
}

// WithValkey caches word indices and embeddings in a Valkey instance.
func WithValkey(addr, password string) Option {
	return WithRedis(addr, password)
}

// WithBadger caches word indices and embeddings in an embedded badger store.
// An empty path keeps the cache in memory.
func WithBadger(path string) Option {
	return optionFunc(func(c *clientConfig) {
		c.cacheDriver = "badger"
		c.cachePath = path
	})
}

// WithCacheTTL sets how long cached word indices and embedding batches live.
// Defaults: 24h for words, 1h for embeddings.
func WithCacheTTL(words, embeddings time.Duration) Option {
	return optionFunc(func(c *clientConfig) {
		c.wordTTL = words
		c.embeddingTTL = embeddings
	})
}

// WithCandidateSource selects which engine's results Comparison.Candidates
// lists: "vector" (default), "text" or "union".
func WithCandidateSource(source string) Option {
	return optionFunc(func(c *clientConfig) {
		c.candidateSource = source
	})
}

// WithoutQueryAnchor leaves the query's own embedding out of projections.
func WithoutQueryAnchor() Option {
	return optionFunc(func(c *clientConfig) {
		c.queryAnchor = false
	})
}

// WithLogger enables structured logging for SDK operations.
// Pass nil to disable (default). Uses standard library slog.
func WithLogger(l *slog.Logger) Option {
	return optionFunc(func(c *clientConfig) {
		c.logger = l
	})
}

// WithPrometheus registers SDK metrics (operation counts, durations and
// cache hits) on the given registerer. Pass nil to disable (default).
func WithPrometheus(reg prometheus.Registerer) Option {
	return optionFunc(func(c *clientConfig) {
		c.metricsReg = reg
	})
}

package vecvstext

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/kailas-cloud/vecvstext/internal/db"
	dbBadger "github.com/kailas-cloud/vecvstext/internal/db/badger"
	dbRedis "github.com/kailas-cloud/vecvstext/internal/db/redis"
	"github.com/kailas-cloud/vecvstext/internal/domain/bookid"
	"github.com/kailas-cloud/vecvstext/internal/domain/engine"
	"github.com/kailas-cloud/vecvstext/internal/repository/cache"
	"github.com/kailas-cloud/vecvstext/internal/transport/booksapi"
	healthuc "github.com/kailas-cloud/vecvstext/internal/usecase/health"
	"github.com/kailas-cloud/vecvstext/internal/usecase/projection"
	searchuc "github.com/kailas-cloud/vecvstext/internal/usecase/search"
	"github.com/kailas-cloud/vecvstext/internal/usecase/wordmatch"
)

const (
	defaultReadinessTimeout = 10 * time.Second
	cachePrefix             = "vecvstext:sdk:"
)

// Internal interfaces, substituted in tests.
type projector interface {
	Project(ctx context.Context, query string, ids []string) (projection.Projection, error)
}

type wordLookup interface {
	Lookup(ctx context.Context, query, id string) (wordmatch.Result, error)
}

// Client is the vecvstext SDK entry point. It runs comparisons directly
// against the books API, without the HTTP service in between.
type Client struct {
	store     db.Store // nil without a cache
	retriever searchuc.Retriever
	projector projector
	words     wordLookup
	healthSvc healthUseCase
	source    searchuc.Source
	obs       *observer
}

// New creates a Client. The provided context bounds the cache readiness
// check when a Redis or Valkey cache is configured.
func New(ctx context.Context, opts ...Option) (*Client, error) {
	cfg := defaultConfig()
	for _, o := range opts {
		o.apply(cfg)
	}

	if cfg.baseURL == "" {
		return nil, errors.New("vecvstext: books API url required (use WithBooksAPI)")
	}
	source, err := searchuc.ParseSource(cfg.candidateSource)
	if err != nil {
		return nil, fmt.Errorf("vecvstext: %w", err)
	}

	books, err := booksapi.New(booksapi.Config{
		BaseURL:    cfg.baseURL,
		Timeout:    cfg.timeout,
		HTTPClient: cfg.httpClient,
	})
	if err != nil {
		return nil, fmt.Errorf("vecvstext: %w", err)
	}

	obs, err := newObserver(cfg.logger, cfg.metricsReg)
	if err != nil {
		return nil, err
	}

	store, err := createStore(ctx, cfg)
	if err != nil {
		return nil, err
	}

	return wireClient(books, store, source, cfg, obs), nil
}

func createStore(ctx context.Context, cfg *clientConfig) (db.Store, error) {
	switch cfg.cacheDriver {
	case "":
		return nil, nil
	case "redis":
		s, err := dbRedis.NewStore(dbRedis.Config{
			Addrs:    cfg.cacheAddrs,
			Password: cfg.cachePass,
		})
		if err != nil {
			return nil, fmt.Errorf("vecvstext: create redis store: %w", err)
		}
		if err := s.WaitForReady(ctx, defaultReadinessTimeout); err != nil {
			s.Close()
			return nil, fmt.Errorf("vecvstext: cache not ready: %w", err)
		}
		return s, nil
	case "badger":
		s, err := dbBadger.Open(cfg.cachePath, zap.NewNop())
		if err != nil {
			return nil, fmt.Errorf("vecvstext: open badger store: %w", err)
		}
		return s, nil
	default:
		return nil, fmt.Errorf("vecvstext: unknown cache driver %q", cfg.cacheDriver)
	}
}

func wireClient(books *booksapi.Client, store db.Store, source searchuc.Source, cfg *clientConfig, obs *observer) *Client {
	var wordsFetcher wordmatch.WordsFetcher = books
	var embFetcher projection.EmbeddingsFetcher = books
	var cachePinger healthuc.Pinger
	if store != nil {
		counter := obs.cacheCounter()
		wordsFetcher = cache.NewWords(books, store, cachePrefix, cfg.wordTTL, counter, zap.NewNop())
		embFetcher = cache.NewEmbeddings(books, store, cachePrefix, cfg.embeddingTTL, counter, zap.NewNop())
		cachePinger = store
	}

	return &Client{
		store:     store,
		retriever: books,
		projector: projection.New(embFetcher, nil).WithQueryAnchor(cfg.queryAnchor),
		words:     wordmatch.New(wordsFetcher),
		healthSvc: healthuc.New(books, cachePinger),
		source:    source,
		obs:       obs,
	}
}

// Close releases the cache store, if any.
func (c *Client) Close() {
	if c.store != nil {
		c.store.Close()
	}
}

// Compare runs the query against both engines concurrently and waits for
// both to finish. One engine failing does not fail the comparison: its
// EngineResult carries StatusFailed instead. If ctx ends first, the partial
// comparison is returned with the context error and unfinished engines
// reported as StatusLoading.
func (c *Client) Compare(ctx context.Context, query string) (cmp *Comparison, err error) {
	start := time.Now()
	defer func() { c.obs.observe("compare", start, err) }()

	// The text is sent verbatim; only blank queries are rejected.
	if strings.TrimSpace(query) == "" {
		return nil, ErrEmptyQuery
	}

	orch := searchuc.New(c.retriever, nil)
	defer orch.Close()

	orch.Submit(ctx, query)
	vector, text, waitErr := orch.Await(ctx)

	cmp = &Comparison{
		Query:      query,
		Vector:     engineResultFromState(vector),
		Text:       engineResultFromState(text),
		Candidates: searchuc.CandidateIDs(c.source, vector, text),
	}
	if waitErr != nil {
		return cmp, fmt.Errorf("compare: %w", waitErr)
	}
	return cmp, nil
}

// Project lays out ids in 2-D for the query. Duplicate ids are dropped and
// an empty list yields an empty projection without any upstream call.
func (c *Client) Project(ctx context.Context, query string, ids []string) (p *Projection, err error) {
	start := time.Now()
	defer func() { c.obs.observe("project", start, err) }()

	if strings.TrimSpace(query) == "" {
		return nil, ErrEmptyQuery
	}

	res, err := c.projector.Project(ctx, query, ids)
	if err != nil {
		return nil, fmt.Errorf("project: %w", err)
	}
	return projectionFromDomain(res), nil
}

// Words fetches the vocabulary of the book behind id and matches the query
// tokens against it. Composite ids resolve to their book.
func (c *Client) Words(ctx context.Context, query, id string) (m *WordMatch, err error) {
	start := time.Now()
	defer func() { c.obs.observe("words", start, err) }()

	res, err := c.words.Lookup(ctx, query, id)
	if err != nil {
		return nil, fmt.Errorf("words: %w", err)
	}
	return &WordMatch{
		ID:          res.ID,
		CanonicalID: res.CanonicalID,
		Words:       []string(res.Words),
		Matches:     res.Matches,
	}, nil
}

// CanonicalID strips a chunk suffix from a result id ("b1_3" -> "b1").
func CanonicalID(id string) string {
	return bookid.Canonicalize(id)
}

func engineResultFromState(s engine.State) EngineResult {
	r := EngineResult{Engine: string(s.Kind), Status: EngineStatus(s.Status)}
	switch s.Status {
	case engine.Succeeded:
		r.Books = make([]Book, len(s.Items))
		for i, it := range s.Items {
			r.Books[i] = Book{
				ID:          it.ID,
				CanonicalID: bookid.Canonicalize(it.ID),
				Title:       it.Title,
				Score:       it.Score,
				Year:        it.Year,
				PageCount:   it.PageCount,
			}
		}
	case engine.Failed:
		r.Error = s.ErrorMessage
	}
	return r
}

func projectionFromDomain(p projection.Projection) *Projection {
	out := &Projection{Points: make([]Point, len(p.Points))}
	for i, pt := range p.Points {
		out.Points[i] = Point{ID: pt.ID, X: pt.X, Y: pt.Y}
	}
	if p.Anchor != nil {
		out.Anchor = &Point{ID: p.Anchor.ID, X: p.Anchor.X, Y: p.Anchor.Y}
	}
	return out
}

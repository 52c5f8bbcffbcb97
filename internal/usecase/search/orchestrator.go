// Package search fans one query out to both retrieval engines and tracks
// each engine's lifecycle independently.
package search

import (
	"context"
	"strings"
	"sync"

	"go.uber.org/zap"

	"github.com/kailas-cloud/vecvstext/internal/domain/book"
	"github.com/kailas-cloud/vecvstext/internal/domain/engine"
	"github.com/kailas-cloud/vecvstext/internal/domain/generation"
	"github.com/kailas-cloud/vecvstext/internal/logger"
	"github.com/kailas-cloud/vecvstext/internal/metrics"
	"github.com/kailas-cloud/vecvstext/internal/observability"
)

// stream holds one engine's state. changed is closed and replaced on every
// transition so observers can block until the next one.
type stream struct {
	mu      sync.Mutex
	state   engine.State
	changed chan struct{}
}

func newStream(k engine.Kind) *stream {
	return &stream{state: engine.NewIdle(k), changed: make(chan struct{})}
}

func (s *stream) load() (engine.State, <-chan struct{}) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state, s.changed
}

func (s *stream) setLocked(st engine.State) {
	s.state = st
	close(s.changed)
	s.changed = make(chan struct{})
}

// Orchestrator issues both engine queries concurrently and exposes two
// independent state streams.
type Orchestrator struct {
	retriever Retriever
	logger    *zap.Logger

	submitMu sync.Mutex
	gens     generation.Tracker
	streams  map[engine.Kind]*stream
	wg       sync.WaitGroup
}

// New creates an Orchestrator with both engines Idle.
func New(retriever Retriever, logger *zap.Logger) *Orchestrator {
	if logger == nil {
		logger = zap.NewNop()
	}
	streams := make(map[engine.Kind]*stream, len(engine.All))
	for _, k := range engine.All {
		streams[k] = newStream(k)
	}
	return &Orchestrator{retriever: retriever, logger: logger, streams: streams}
}

// Submit starts a new search generation. Both engine states move to Loading
// before Submit returns; results arrive asynchronously. A blank query is a
// no-op and returns ok=false.
//
// Retrievals outlive ctx cancellation (they are bound to the generation, not
// the caller) but keep its values for logging and tracing.
func (o *Orchestrator) Submit(ctx context.Context, query string) (gen uint64, ok bool) {
	if strings.TrimSpace(query) == "" {
		return 0, false
	}

	o.submitMu.Lock()
	defer o.submitMu.Unlock()

	genCtx, gen := o.gens.Begin(context.WithoutCancel(ctx))
	for _, k := range engine.All {
		s := o.streams[k]
		s.mu.Lock()
		s.setLocked(engine.NewLoading(k, query, gen))
		s.mu.Unlock()
	}

	for _, k := range engine.All {
		o.wg.Add(1)
		go o.run(genCtx, k, query, gen)
	}

	logger.FromContext(ctx).Debug("search submitted", zap.String("query", query), zap.Uint64("generation", gen))
	return gen, true
}

func (o *Orchestrator) run(ctx context.Context, k engine.Kind, query string, gen uint64) {
	defer o.wg.Done()

	ctx, span := observability.StartEngineSpan(ctx, string(k), gen)
	defer span.End()

	items, err := o.retriever.Search(ctx, query, k)
	if err != nil {
		observability.RecordError(span, err)
	}
	o.complete(ctx, k, gen, items, err)
}

// complete applies a finished retrieval unless its generation was superseded.
func (o *Orchestrator) complete(ctx context.Context, k engine.Kind, gen uint64, items []book.Item, err error) {
	s := o.streams[k]
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.state.Generation != gen || s.state.Status != engine.Loading || ctx.Err() != nil {
		metrics.StaleDiscardsTotal.WithLabelValues("search").Inc()
		o.logger.Debug("discarding stale search result",
			zap.String("engine", string(k)),
			zap.Uint64("generation", gen),
			zap.Uint64("current", s.state.Generation),
		)
		return
	}

	if err != nil {
		metrics.EngineOutcomesTotal.WithLabelValues(string(k), string(engine.Failed)).Inc()
		o.logger.Warn("engine retrieval failed",
			zap.String("engine", string(k)),
			zap.Uint64("generation", gen),
			zap.Error(err),
		)
		s.setLocked(s.state.Fail(engine.FailureMessage(k)))
		return
	}

	metrics.EngineOutcomesTotal.WithLabelValues(string(k), string(engine.Succeeded)).Inc()
	s.setLocked(s.state.Succeed(items))
}

// State returns the current state of one engine and a channel closed on its
// next transition.
func (o *Orchestrator) State(k engine.Kind) (engine.State, <-chan struct{}) {
	s, ok := o.streams[k]
	if !ok {
		closed := make(chan struct{})
		close(closed)
		return engine.State{Kind: k}, closed
	}
	return s.load()
}

// Snapshot returns both engine states.
func (o *Orchestrator) Snapshot() (vector, text engine.State) {
	vector, _ = o.State(engine.Vector)
	text, _ = o.State(engine.Text)
	return vector, text
}

// Generation returns the latest submitted generation, 0 before any submit.
func (o *Orchestrator) Generation() uint64 {
	return o.gens.Current()
}

// Candidates returns the projection candidate ids for the given source.
func (o *Orchestrator) Candidates(src Source) []string {
	vector, text := o.Snapshot()
	return CandidateIDs(src, vector, text)
}

// Await blocks until no engine is Loading or ctx is done, then returns both states.
func (o *Orchestrator) Await(ctx context.Context) (vector, text engine.State, err error) {
	for {
		var pending <-chan struct{}
		for _, k := range engine.All {
			st, ch := o.State(k)
			if st.Status == engine.Loading {
				pending = ch
				break
			}
		}
		if pending == nil {
			vector, text = o.Snapshot()
			return vector, text, nil
		}
		select {
		case <-pending:
		case <-ctx.Done():
			vector, text = o.Snapshot()
			return vector, text, ctx.Err()
		}
	}
}

// Close cancels in-flight retrievals and waits for their goroutines.
// States are left as they are.
func (o *Orchestrator) Close() {
	o.gens.Stop()
	o.wg.Wait()
}

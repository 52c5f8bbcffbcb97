// Package session holds the explicit per-user comparison state: the current
// query, both engine streams, the cached projection and the word selection.
package session

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/kailas-cloud/vecvstext/internal/domain"
	"github.com/kailas-cloud/vecvstext/internal/domain/engine"
	"github.com/kailas-cloud/vecvstext/internal/domain/generation"
	"github.com/kailas-cloud/vecvstext/internal/domain/words"
	"github.com/kailas-cloud/vecvstext/internal/metrics"
	"github.com/kailas-cloud/vecvstext/internal/usecase/projection"
	"github.com/kailas-cloud/vecvstext/internal/usecase/search"
)

// WordLookupFailedMessage is the caller-facing text for a failed word lookup.
const WordLookupFailedMessage = "Failed to fetch word list."

// SelectionStatus is the lifecycle of the word lookup for a selected book.
type SelectionStatus string

// Selection statuses.
const (
	SelectionNone    SelectionStatus = "none"
	SelectionLoading SelectionStatus = "loading"
	SelectionReady   SelectionStatus = "ready"
	SelectionFailed  SelectionStatus = "failed"
)

// Selection is the word state of the selected result.
type Selection struct {
	ID           string
	CanonicalID  string
	Status       SelectionStatus
	Words        words.Index
	Matches      []string
	ErrorMessage string
	Generation   uint64
}

// Snapshot is a consistent read of a session for presentation.
type Snapshot struct {
	ID         string
	Query      string
	Generation uint64
	Vector     engine.State
	Text       engine.State
	Candidates []string
	Selection  Selection
}

// Deps are the collaborators shared by every session.
type Deps struct {
	Retriever search.Retriever
	Projector Projector
	Words     WordLookup
	Source    search.Source
	Logger    *zap.Logger
}

type cachedProjection struct {
	key        string
	projection projection.Projection
}

// Session is one user's comparison workspace.
type Session struct {
	id     string
	deps   Deps
	search *search.Orchestrator
	logger *zap.Logger

	mu        sync.Mutex
	query     string
	lastSeen  time.Time
	proj      *cachedProjection
	selection Selection

	projGens generation.Tracker
	selGens  generation.Tracker
}

// New creates an idle session.
func New(id string, deps Deps) *Session {
	l := deps.Logger
	if l == nil {
		l = zap.NewNop()
	}
	l = l.With(zap.String("session_id", id))
	if deps.Source == "" {
		deps.Source = search.SourceVector
	}
	return &Session{
		id:        id,
		deps:      deps,
		search:    search.New(deps.Retriever, l),
		logger:    l,
		lastSeen:  time.Now(),
		selection: Selection{Status: SelectionNone},
	}
}

// ID returns the session identifier.
func (s *Session) ID() string { return s.id }

// Submit starts a new comparison. A blank query is a no-op (ok=false).
// A new query drops the cached projection and the word selection.
func (s *Session) Submit(ctx context.Context, query string) (gen uint64, ok bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	gen, ok = s.search.Submit(ctx, query)
	if !ok {
		return 0, false
	}
	s.query = query
	s.proj = nil
	s.projGens.Invalidate()
	s.selGens.Invalidate()
	s.selection = Selection{Status: SelectionNone}
	return gen, true
}

// Query returns the last accepted query.
func (s *Session) Query() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.query
}

// Snapshot returns both engine states, the candidate ids and the selection.
func (s *Session) Snapshot() Snapshot {
	s.mu.Lock()
	query, sel := s.query, s.selection
	s.mu.Unlock()

	vector, text := s.search.Snapshot()
	return Snapshot{
		ID:         s.id,
		Query:      query,
		Generation: s.search.Generation(),
		Vector:     vector,
		Text:       text,
		Candidates: search.CandidateIDs(s.deps.Source, vector, text),
		Selection:  sel,
	}
}

// Await blocks until no engine is loading or ctx is done.
func (s *Session) Await(ctx context.Context) (Snapshot, error) {
	_, _, err := s.search.Await(ctx)
	return s.Snapshot(), err
}

// Projection returns the 2-D layout for ids, or for the current candidates
// when ids is nil. Results are kept per (query, ids) and recomputed only when
// that pair changes. A projection superseded while in flight returns ErrStale.
func (s *Session) Projection(ctx context.Context, ids []string) (projection.Projection, error) {
	query := s.Query()
	if strings.TrimSpace(query) == "" {
		return projection.Projection{}, domain.ErrEmptyQuery
	}
	if ids == nil {
		ids = s.search.Candidates(s.deps.Source)
	}
	key := projectionKey(query, ids)

	s.mu.Lock()
	if s.proj != nil && s.proj.key == key {
		p := s.proj.projection
		s.mu.Unlock()
		return p, nil
	}
	s.mu.Unlock()

	ctx, gen := s.projGens.Begin(ctx)
	p, err := s.deps.Projector.Project(ctx, query, ids)

	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.projGens.IsCurrent(gen) || s.query != query {
		metrics.StaleDiscardsTotal.WithLabelValues("projection").Inc()
		s.logger.Debug("discarding stale projection", zap.Uint64("generation", gen))
		return projection.Projection{}, domain.ErrStale
	}
	if err != nil {
		return projection.Projection{}, err
	}
	s.proj = &cachedProjection{key: key, projection: p}
	return p, nil
}

// Select fetches the word index for a result id and matches the current query
// against it. A selection superseded while in flight returns ErrStale and
// leaves the newer selection in place.
func (s *Session) Select(ctx context.Context, id string) (Selection, error) {
	if strings.TrimSpace(id) == "" {
		return Selection{}, fmt.Errorf("%w: empty id", domain.ErrNoSelection)
	}

	s.mu.Lock()
	ctx, gen := s.selGens.Begin(ctx)
	query := s.query
	s.selection = Selection{ID: id, Status: SelectionLoading, Generation: gen}
	s.mu.Unlock()

	res, err := s.deps.Words.Lookup(ctx, query, id)

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.selection.Generation != gen || !s.selGens.IsCurrent(gen) {
		metrics.StaleDiscardsTotal.WithLabelValues("words").Inc()
		s.logger.Debug("discarding stale word lookup", zap.String("id", id), zap.Uint64("generation", gen))
		return Selection{}, domain.ErrStale
	}
	if err != nil {
		s.selection = Selection{
			ID:           id,
			Status:       SelectionFailed,
			ErrorMessage: WordLookupFailedMessage,
			Generation:   gen,
		}
		return s.selection, err
	}
	s.selection = Selection{
		ID:          id,
		CanonicalID: res.CanonicalID,
		Status:      SelectionReady,
		Words:       res.Words,
		Matches:     res.Matches,
		Generation:  gen,
	}
	return s.selection, nil
}

// Selection returns the current word selection.
func (s *Session) Selection() Selection {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.selection
}

// ClearSelection discards the word state and any in-flight lookup.
func (s *Session) ClearSelection() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.selGens.Invalidate()
	s.selection = Selection{Status: SelectionNone}
}

// Close cancels everything in flight and waits for retrievals to finish.
func (s *Session) Close() {
	s.projGens.Stop()
	s.selGens.Stop()
	s.search.Close()
}

func (s *Session) touch(now time.Time) {
	s.mu.Lock()
	s.lastSeen = now
	s.mu.Unlock()
}

func (s *Session) idleSince() time.Time {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastSeen
}

func projectionKey(query string, ids []string) string {
	return query + "\x00" + strings.Join(ids, "\x00")
}

package session

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/kailas-cloud/vecvstext/internal/metrics"
)

// Registry keeps sessions in memory, keyed by id, bounded in count and idle time.
type Registry struct {
	deps    Deps
	max     int
	idleTTL time.Duration
	now     func() time.Time
	logger  *zap.Logger

	mu       sync.Mutex
	sessions map[string]*Session
}

// NewRegistry creates a registry holding at most max sessions. Sessions idle
// for longer than idleTTL are dropped by Evict.
func NewRegistry(deps Deps, maxSessions int, idleTTL time.Duration) *Registry {
	l := deps.Logger
	if l == nil {
		l = zap.NewNop()
	}
	return &Registry{
		deps:     deps,
		max:      maxSessions,
		idleTTL:  idleTTL,
		now:      time.Now,
		logger:   l,
		sessions: make(map[string]*Session),
	}
}

// Get returns an existing session and marks it as used.
func (r *Registry) Get(id string) (*Session, bool) {
	r.mu.Lock()
	s, ok := r.sessions[id]
	r.mu.Unlock()
	if ok {
		s.touch(r.now())
	}
	return s, ok
}

// GetOrCreate returns the session for id, creating it when missing.
// An empty id gets a freshly generated one. created reports a new session.
func (r *Registry) GetOrCreate(id string) (s *Session, created bool) {
	if id == "" {
		id = uuid.NewString()
	}

	r.mu.Lock()
	if existing, ok := r.sessions[id]; ok {
		r.mu.Unlock()
		existing.touch(r.now())
		return existing, false
	}

	var evicted *Session
	if r.max > 0 && len(r.sessions) >= r.max {
		evicted = r.oldestLocked()
		delete(r.sessions, evicted.id)
	}
	s = New(id, r.deps)
	s.touch(r.now())
	r.sessions[id] = s
	metrics.SessionsActive.Set(float64(len(r.sessions)))
	r.mu.Unlock()

	if evicted != nil {
		r.logger.Info("session evicted at capacity", zap.String("session_id", evicted.id))
		evicted.Close()
	}
	return s, true
}

// Delete closes and removes a session.
func (r *Registry) Delete(id string) bool {
	r.mu.Lock()
	s, ok := r.sessions[id]
	if ok {
		delete(r.sessions, id)
		metrics.SessionsActive.Set(float64(len(r.sessions)))
	}
	r.mu.Unlock()
	if ok {
		s.Close()
	}
	return ok
}

// Len returns the number of live sessions.
func (r *Registry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.sessions)
}

// Evict closes sessions idle for longer than the idle TTL and returns how many.
func (r *Registry) Evict() int {
	if r.idleTTL <= 0 {
		return 0
	}
	cutoff := r.now().Add(-r.idleTTL)

	r.mu.Lock()
	var idle []*Session
	for id, s := range r.sessions {
		if s.idleSince().Before(cutoff) {
			idle = append(idle, s)
			delete(r.sessions, id)
		}
	}
	metrics.SessionsActive.Set(float64(len(r.sessions)))
	r.mu.Unlock()

	for _, s := range idle {
		s.Close()
	}
	if len(idle) > 0 {
		r.logger.Debug("idle sessions evicted", zap.Int("count", len(idle)))
	}
	return len(idle)
}

// Run evicts idle sessions every interval until ctx is done.
func (r *Registry) Run(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			r.Evict()
		}
	}
}

// Close closes every session.
func (r *Registry) Close() {
	r.mu.Lock()
	all := make([]*Session, 0, len(r.sessions))
	for _, s := range r.sessions {
		all = append(all, s)
	}
	r.sessions = make(map[string]*Session)
	metrics.SessionsActive.Set(0)
	r.mu.Unlock()

	for _, s := range all {
		s.Close()
	}
}

func (r *Registry) oldestLocked() *Session {
	var oldest *Session
	var oldestSeen time.Time
	for _, s := range r.sessions {
		seen := s.idleSince()
		if oldest == nil || seen.Before(oldestSeen) {
			oldest, oldestSeen = s, seen
		}
	}
	return oldest
}

// Package generation tags asynchronous work so that completions belonging to
// a superseded request can be recognised and dropped.
package generation

import (
	"context"
	"sync"
)

// Tracker hands out monotonically increasing generations. Starting a new
// generation cancels the context of the previous one.
type Tracker struct {
	mu     sync.Mutex
	gen    uint64
	cancel context.CancelFunc
}

// Begin starts a new generation derived from parent and cancels the previous
// one. The returned context is cancelled when the generation is superseded.
func (t *Tracker) Begin(parent context.Context) (context.Context, uint64) {
	ctx, cancel := context.WithCancel(parent)

	t.mu.Lock()
	defer t.mu.Unlock()
	if t.cancel != nil {
		t.cancel()
	}
	t.gen++
	t.cancel = cancel
	return ctx, t.gen
}

// Invalidate supersedes the current generation without starting new work.
func (t *Tracker) Invalidate() {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.cancel != nil {
		t.cancel()
		t.cancel = nil
	}
	t.gen++
}

// Current returns the latest generation, 0 before the first Begin.
func (t *Tracker) Current() uint64 {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.gen
}

// IsCurrent reports whether gen is still the latest generation.
func (t *Tracker) IsCurrent(gen uint64) bool {
	return t.Current() == gen
}

// Stop cancels the in-flight generation, if any.
func (t *Tracker) Stop() {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.cancel != nil {
		t.cancel()
		t.cancel = nil
	}
}

package generation

import (
	"context"
	"sync"
	"testing"
)

func TestTracker_Monotonic(t *testing.T) {
	var tr Tracker
	if tr.Current() != 0 {
		t.Fatalf("expected 0 before first Begin, got %d", tr.Current())
	}
	_, g1 := tr.Begin(context.Background())
	_, g2 := tr.Begin(context.Background())
	if g1 != 1 || g2 != 2 {
		t.Fatalf("expected generations 1 and 2, got %d and %d", g1, g2)
	}
	if tr.IsCurrent(g1) {
		t.Error("g1 must be stale after a second Begin")
	}
	if !tr.IsCurrent(g2) {
		t.Error("g2 must be current")
	}
}

func TestTracker_BeginCancelsPrevious(t *testing.T) {
	var tr Tracker
	ctx1, _ := tr.Begin(context.Background())
	ctx2, _ := tr.Begin(context.Background())

	select {
	case <-ctx1.Done():
	default:
		t.Fatal("first context should be cancelled")
	}
	if ctx2.Err() != nil {
		t.Fatalf("second context should be live, got %v", ctx2.Err())
	}
}

func TestTracker_Invalidate(t *testing.T) {
	var tr Tracker
	ctx, g := tr.Begin(context.Background())
	tr.Invalidate()

	if tr.IsCurrent(g) {
		t.Error("generation must be stale after Invalidate")
	}
	if ctx.Err() == nil {
		t.Error("context must be cancelled after Invalidate")
	}
}

func TestTracker_StopKeepsGeneration(t *testing.T) {
	var tr Tracker
	ctx, g := tr.Begin(context.Background())
	tr.Stop()
	if ctx.Err() == nil {
		t.Error("context must be cancelled after Stop")
	}
	if !tr.IsCurrent(g) {
		t.Error("Stop must not advance the generation")
	}
}

func TestTracker_ConcurrentBegin(t *testing.T) {
	var tr Tracker
	const n = 64
	seen := make(chan uint64, n)
	var wg sync.WaitGroup
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, g := tr.Begin(context.Background())
			seen <- g
		}()
	}
	wg.Wait()
	close(seen)

	uniq := make(map[uint64]struct{}, n)
	for g := range seen {
		uniq[g] = struct{}{}
	}
	if len(uniq) != n {
		t.Errorf("expected %d distinct generations, got %d", n, len(uniq))
	}
	if tr.Current() != n {
		t.Errorf("expected current %d, got %d", n, tr.Current())
	}
}

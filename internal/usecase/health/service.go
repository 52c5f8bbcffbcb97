// Package health reports whether comparisons can be served: the books API
// must answer, the cache may be down.
package health

import (
	"context"
	"sync"
	"time"
)

// Status represents the aggregated health status.
type Status string

const (
	// Healthy indicates all components are operational.
	Healthy Status = "ok"
	// Degraded indicates the cache is down; comparisons still work uncached.
	Degraded Status = "degraded"
	// Unhealthy indicates the books API is unreachable.
	Unhealthy Status = "error"
)

// CheckResult represents an individual component health check outcome.
type CheckResult string

const (
	// CheckOK indicates a passing health check.
	CheckOK CheckResult = "ok"
	// CheckError indicates a failing health check.
	CheckError CheckResult = "error"
)

// Component names used as Report keys.
const (
	ComponentUpstream = "upstream"
	ComponentCache    = "cache"
)

const checkTimeout = 3 * time.Second

// Report aggregates health check results.
type Report struct {
	Status  Status
	Checks  map[string]CheckResult
	Latency map[string]time.Duration
}

// Service coordinates health checks.
type Service struct {
	pingers map[string]Pinger
}

// New creates a Service. cache can be nil when caching is disabled.
func New(upstream, cache Pinger) *Service {
	pingers := map[string]Pinger{ComponentUpstream: upstream}
	if cache != nil {
		pingers[ComponentCache] = cache
	}
	return &Service{pingers: pingers}
}

// Check pings every component concurrently, each under its own timeout.
func (s *Service) Check(ctx context.Context) Report {
	r := Report{
		Checks:  make(map[string]CheckResult, len(s.pingers)),
		Latency: make(map[string]time.Duration, len(s.pingers)),
	}

	var (
		mu sync.Mutex
		wg sync.WaitGroup
	)
	for name, p := range s.pingers {
		wg.Add(1)
		go func() {
			defer wg.Done()
			res, took := ping(ctx, p)
			mu.Lock()
			r.Checks[name] = res
			r.Latency[name] = took
			mu.Unlock()
		}()
	}
	wg.Wait()

	r.Status = Healthy
	switch {
	case r.Checks[ComponentUpstream] == CheckError:
		r.Status = Unhealthy
	case r.Checks[ComponentCache] == CheckError:
		r.Status = Degraded
	}
	return r
}

func ping(ctx context.Context, p Pinger) (CheckResult, time.Duration) {
	ctx, cancel := context.WithTimeout(ctx, checkTimeout)
	defer cancel()
	start := time.Now()
	if err := p.Ping(ctx); err != nil {
		return CheckError, time.Since(start)
	}
	return CheckOK, time.Since(start)
}

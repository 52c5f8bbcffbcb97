package vecvstext

import (
	"context"

	"github.com/kailas-cloud/vecvstext/internal/domain/book"
	"github.com/kailas-cloud/vecvstext/internal/domain/engine"
	healthuc "github.com/kailas-cloud/vecvstext/internal/usecase/health"
	"github.com/kailas-cloud/vecvstext/internal/usecase/projection"
	"github.com/kailas-cloud/vecvstext/internal/usecase/wordmatch"
)

// --- retriever mock ---

type mockRetriever struct {
	searchFn func(ctx context.Context, query string, kind engine.Kind) ([]book.Item, error)
}

func (m *mockRetriever) Search(ctx context.Context, query string, kind engine.Kind) ([]book.Item, error) {
	return m.searchFn(ctx, query, kind)
}

// --- projector mock ---

type mockProjector struct {
	projectFn func(ctx context.Context, query string, ids []string) (projection.Projection, error)
}

func (m *mockProjector) Project(ctx context.Context, query string, ids []string) (projection.Projection, error) {
	return m.projectFn(ctx, query, ids)
}

// --- wordLookup mock ---

type mockWordLookup struct {
	lookupFn func(ctx context.Context, query, id string) (wordmatch.Result, error)
}

func (m *mockWordLookup) Lookup(ctx context.Context, query, id string) (wordmatch.Result, error) {
	return m.lookupFn(ctx, query, id)
}

// --- healthUseCase mock ---

type mockHealthUC struct {
	report healthuc.Report
}

func (m *mockHealthUC) Check(_ context.Context) healthuc.Report {
	return m.report
}

package search

import (
	"fmt"

	"github.com/kailas-cloud/vecvstext/internal/domain"
	"github.com/kailas-cloud/vecvstext/internal/domain/engine"
)

// Source selects which engine results feed the projection.
type Source string

// Candidate sources.
const (
	SourceVector Source = "vector"
	SourceText   Source = "text"
	SourceUnion  Source = "union"
)

// ParseSource validates a configured candidate source. Empty means vector.
func ParseSource(s string) (Source, error) {
	switch Source(s) {
	case "":
		return SourceVector, nil
	case SourceVector, SourceText, SourceUnion:
		return Source(s), nil
	default:
		return "", fmt.Errorf("%w: candidate source %q", domain.ErrInvalidEngine, s)
	}
}

// CandidateIDs derives the projection id set from the engine states.
// Only Succeeded states contribute; union lists vector ids first, then text
// ids, without duplicates. The result is never nil.
func CandidateIDs(src Source, vector, text engine.State) []string {
	var lists [][]string
	switch src {
	case SourceText:
		lists = [][]string{text.IDs()}
	case SourceUnion:
		lists = [][]string{vector.IDs(), text.IDs()}
	default:
		lists = [][]string{vector.IDs()}
	}

	ids := make([]string, 0, len(vector.Items)+len(text.Items))
	seen := make(map[string]struct{}, cap(ids))
	for _, l := range lists {
		for _, id := range l {
			if _, dup := seen[id]; dup {
				continue
			}
			seen[id] = struct{}{}
			ids = append(ids, id)
		}
	}
	return ids
}

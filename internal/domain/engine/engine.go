package engine

import "github.com/kailas-cloud/vecvstext/internal/domain/book"

// Kind identifies which retrieval backend answered.
type Kind string

// Engine kinds, as understood by the books API "engine" parameter.
const (
	Vector Kind = "vector"
	Text   Kind = "text"
)

// All lists every engine kind in display order.
var All = []Kind{Vector, Text}

// IsValid checks if the kind is one of the supported values.
func (k Kind) IsValid() bool {
	return k == Vector || k == Text
}

// Status is the lifecycle phase of one engine's retrieval.
type Status string

// Status values. Transitions: Idle -> Loading -> (Succeeded | Failed).
const (
	Idle      Status = "idle"
	Loading   Status = "loading"
	Succeeded Status = "succeeded"
	Failed    Status = "failed"
)

// IsTerminal reports whether the status ends a retrieval attempt.
func (s Status) IsTerminal() bool {
	return s == Succeeded || s == Failed
}

// State is the observable state of one engine.
// Items is set only when Succeeded; ErrorMessage only when Failed.
type State struct {
	Kind         Kind
	Status       Status
	Items        []book.Item
	ErrorMessage string
	Query        string
	Generation   uint64
}

// NewIdle returns the initial state for an engine.
func NewIdle(k Kind) State {
	return State{Kind: k, Status: Idle}
}

// NewLoading returns a fresh loading state for a submission.
func NewLoading(k Kind, query string, gen uint64) State {
	return State{Kind: k, Status: Loading, Query: query, Generation: gen}
}

// Succeed transitions a loading state to Succeeded with items in backend order.
// A nil slice is stored as empty so a successful empty search stays distinguishable.
func (s State) Succeed(items []book.Item) State {
	if items == nil {
		items = []book.Item{}
	}
	return State{
		Kind: s.Kind, Status: Succeeded, Items: items,
		Query: s.Query, Generation: s.Generation,
	}
}

// Fail transitions a loading state to Failed with a caller-facing message.
func (s State) Fail(message string) State {
	return State{
		Kind: s.Kind, Status: Failed, ErrorMessage: message,
		Query: s.Query, Generation: s.Generation,
	}
}

// IDs returns the result ids of a Succeeded state in backend order, nil otherwise.
func (s State) IDs() []string {
	if s.Status != Succeeded {
		return nil
	}
	ids := make([]string, len(s.Items))
	for i, it := range s.Items {
		ids[i] = it.ID
	}
	return ids
}

// FailureMessage is the caller-facing text for a failed engine.
func FailureMessage(k Kind) string {
	return "Failed to fetch " + string(k) + " results."
}

package vecvstext

// EngineStatus is the outcome of one engine for a comparison.
type EngineStatus string

// Engine status constants.
const (
	StatusSucceeded EngineStatus = "succeeded"
	StatusFailed    EngineStatus = "failed"
	StatusLoading   EngineStatus = "loading" // the context ended first
)

// Book is one ranked hit.
type Book struct {
	ID          string // may be composite ("<book>_<n>")
	CanonicalID string
	Title       string
	Score       float64
	Year        int
	PageCount   int
}

// EngineResult is what one engine returned. Books is set only when
// Succeeded, Error only when Failed.
type EngineResult struct {
	Engine string
	Status EngineStatus
	Books  []Book
	Error  string
}

// Comparison holds both engines' results for one query.
type Comparison struct {
	Query      string
	Vector     EngineResult
	Text       EngineResult
	Candidates []string // ids to project, per the configured candidate source
}

// Point is one book (or the query) in the 2-D projection.
type Point struct {
	ID string
	X  float64
	Y  float64
}

// Projection is the 2-D layout of a set of ids. Points follow the input order.
type Projection struct {
	Points []Point
	Anchor *Point // the query itself, unless WithoutQueryAnchor
}

// WordMatch lists which query words occur in a book's vocabulary.
type WordMatch struct {
	ID          string
	CanonicalID string
	Words       []string
	Matches     []string
}

package domain

// QueryAnchorID is the id the embedding service uses for the query's own vector.
const QueryAnchorID = "query"

// EmbeddingVector is one fetched embedding, keyed by the result id it belongs to.
type EmbeddingVector struct {
	ID         string
	Components []float64
}

// Dim returns the vector length.
func (v EmbeddingVector) Dim() int { return len(v.Components) }

// CheckDimensions verifies that all vectors share the first vector's length.
// An empty batch is consistent.
func CheckDimensions(vectors []EmbeddingVector) error {
	if len(vectors) == 0 {
		return nil
	}
	want := vectors[0].Dim()
	for _, v := range vectors[1:] {
		if v.Dim() != want {
			return &DimMismatchError{ID: v.ID, Expected: want, Got: v.Dim()}
		}
	}
	return nil
}

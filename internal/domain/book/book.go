package book

// Item is one ranked hit returned by a retrieval engine.
// ID may be a composite id ("<bookId>_<n>") when one book yields several passages.
type Item struct {
	ID        string
	Title     string
	Score     float64
	Year      int
	PageCount int
}

package booksapi

import "github.com/kailas-cloud/vecvstext/internal/domain/book"

type searchResponse struct {
	Engine string `json:"engine"`
	Query  string `json:"query"`
	// Books is nil when the field is absent or null.
	Books *[]bookDTO `json:"books"`
}

type bookDTO struct {
	ID    string  `json:"_id"`
	Title string  `json:"title"`
	Score float64 `json:"score"`
	Year  int     `json:"year"`
	Pages int     `json:"pages"`
}

func (b bookDTO) toDomain() book.Item {
	return book.Item{
		ID:        b.ID,
		Title:     b.Title,
		Score:     b.Score,
		Year:      b.Year,
		PageCount: b.Pages,
	}
}

type embeddingDTO struct {
	ID        string    `json:"_id"`
	Embedding []float64 `json:"embedding"`
}

package chi

import (
	"github.com/kailas-cloud/vecvstext/internal/domain/bookid"
	"github.com/kailas-cloud/vecvstext/internal/domain/engine"
	"github.com/kailas-cloud/vecvstext/internal/domain/pca"
	"github.com/kailas-cloud/vecvstext/internal/usecase/projection"
	"github.com/kailas-cloud/vecvstext/internal/usecase/session"
)

// ErrorCode is a stable machine-readable error identifier.
type ErrorCode string

// Error codes returned in ErrorResponse.
const (
	ErrorCodeBadRequest        ErrorCode = "bad_request"
	ErrorCodeUnauthorized      ErrorCode = "unauthorized"
	ErrorCodeEmptyQuery        ErrorCode = "empty_query"
	ErrorCodeSessionNotFound   ErrorCode = "session_not_found"
	ErrorCodeNotFound          ErrorCode = "not_found"
	ErrorCodeStale             ErrorCode = "superseded"
	ErrorCodeProjectionFailed  ErrorCode = "projection_failed"
	ErrorCodeVectorDimMismatch ErrorCode = "vector_dim_mismatch"
	ErrorCodeWordLookupFailed  ErrorCode = "word_lookup_failed"
	ErrorCodeUpstreamError     ErrorCode = "upstream_error"
	ErrorCodeInternalError     ErrorCode = "internal_error"
)

// ErrorResponse is the JSON error body.
type ErrorResponse struct {
	Code    ErrorCode `json:"code"`
	Message string    `json:"message"`
}

type searchRequest struct {
	Query string `json:"query"`
}

type selectionRequest struct {
	ID string `json:"id"`
}

type bookItemDTO struct {
	ID          string  `json:"id"`
	CanonicalID string  `json:"canonical_id"`
	Title       string  `json:"title"`
	Score       float64 `json:"score"`
	Year        int     `json:"year,omitempty"`
	Pages       int     `json:"pages,omitempty"`
}

type engineStateDTO struct {
	Engine       string        `json:"engine"`
	Status       string        `json:"status"`
	Query        string        `json:"query,omitempty"`
	Generation   uint64        `json:"generation"`
	Items        []bookItemDTO `json:"items,omitempty"`
	ErrorMessage string        `json:"error_message,omitempty"`
}

type selectionDTO struct {
	ID           string   `json:"id,omitempty"`
	CanonicalID  string   `json:"canonical_id,omitempty"`
	Status       string   `json:"status"`
	Words        []string `json:"words,omitempty"`
	Matches      []string `json:"matches,omitempty"`
	ErrorMessage string   `json:"error_message,omitempty"`
}

type snapshotResponse struct {
	SessionID  string         `json:"session_id"`
	Query      string         `json:"query"`
	Generation uint64         `json:"generation"`
	Vector     engineStateDTO `json:"vector"`
	Text       engineStateDTO `json:"text"`
	Candidates []string       `json:"candidates"`
	Selection  selectionDTO   `json:"selection"`
}

type pointDTO struct {
	ID string  `json:"id"`
	X  float64 `json:"x"`
	Y  float64 `json:"y"`
}

type projectionResponse struct {
	Query  string     `json:"query"`
	Points []pointDTO `json:"points"`
	Anchor *pointDTO  `json:"anchor,omitempty"`
}

type healthResponse struct {
	Status    string            `json:"status"`
	Checks    map[string]string `json:"checks"`
	LatencyMS map[string]int64  `json:"latency_ms,omitempty"`
}

func engineStateToDTO(st engine.State) engineStateDTO {
	out := engineStateDTO{
		Engine:       string(st.Kind),
		Status:       string(st.Status),
		Query:        st.Query,
		Generation:   st.Generation,
		ErrorMessage: st.ErrorMessage,
	}
	if st.Status == engine.Succeeded {
		out.Items = make([]bookItemDTO, len(st.Items))
		for i, it := range st.Items {
			out.Items[i] = bookItemDTO{
				ID:          it.ID,
				CanonicalID: bookid.Canonicalize(it.ID),
				Title:       it.Title,
				Score:       it.Score,
				Year:        it.Year,
				Pages:       it.PageCount,
			}
		}
	}
	return out
}

func selectionToDTO(sel session.Selection) selectionDTO {
	return selectionDTO{
		ID:           sel.ID,
		CanonicalID:  sel.CanonicalID,
		Status:       string(sel.Status),
		Words:        sel.Words,
		Matches:      sel.Matches,
		ErrorMessage: sel.ErrorMessage,
	}
}

func snapshotToDTO(snap session.Snapshot) snapshotResponse {
	return snapshotResponse{
		SessionID:  snap.ID,
		Query:      snap.Query,
		Generation: snap.Generation,
		Vector:     engineStateToDTO(snap.Vector),
		Text:       engineStateToDTO(snap.Text),
		Candidates: snap.Candidates,
		Selection:  selectionToDTO(snap.Selection),
	}
}

func pointToDTO(p pca.Point) pointDTO {
	return pointDTO{ID: p.ID, X: p.X, Y: p.Y}
}

func projectionToDTO(p projection.Projection) projectionResponse {
	out := projectionResponse{Query: p.Query, Points: make([]pointDTO, len(p.Points))}
	for i, pt := range p.Points {
		out.Points[i] = pointToDTO(pt)
	}
	if p.Anchor != nil {
		a := pointToDTO(*p.Anchor)
		out.Anchor = &a
	}
	return out
}

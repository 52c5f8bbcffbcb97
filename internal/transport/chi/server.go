// Package chi serves the comparison API over HTTP with the chi router.
package chi

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"slices"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/oapi-codegen/runtime"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/kailas-cloud/vecvstext/internal/domain"
	"github.com/kailas-cloud/vecvstext/internal/domain/bookid"
	"github.com/kailas-cloud/vecvstext/internal/logger"
	healthuc "github.com/kailas-cloud/vecvstext/internal/usecase/health"
	"github.com/kailas-cloud/vecvstext/internal/usecase/session"
)

// SessionHeader carries the comparison session id in requests and responses.
const SessionHeader = "X-Session-ID"

const (
	maxBodyBytes = 64 << 10
	maxWait      = 10 * time.Second
)

// BookFetcher loads a raw book document by canonical id.
type BookFetcher interface {
	Book(ctx context.Context, id string) (map[string]any, error)
}

// errorHandler tries to handle a domain error. Returns true if handled.
type errorHandler func(w http.ResponseWriter, err error, msg string) bool

// Server exposes sessions, projections, word selections and book details.
type Server struct {
	sessions      *session.Registry
	books         BookFetcher
	health        *healthuc.Service
	logger        *zap.Logger
	errorHandlers []errorHandler
}

// NewServer creates an HTTP API server.
func NewServer(
	sessions *session.Registry,
	books BookFetcher,
	health *healthuc.Service,
	logger *zap.Logger,
) *Server {
	if logger == nil {
		logger = zap.NewNop()
	}
	s := &Server{
		sessions: sessions,
		books:    books,
		health:   health,
		logger:   logger,
	}
	s.errorHandlers = []errorHandler{
		sentinelHandler(domain.ErrEmptyQuery, http.StatusBadRequest, ErrorCodeEmptyQuery),
		sentinelHandler(domain.ErrNoSelection, http.StatusBadRequest, ErrorCodeBadRequest),
		sentinelHandler(domain.ErrStale, http.StatusConflict, ErrorCodeStale),
		sentinelHandler(domain.ErrVectorDimMismatch, http.StatusBadGateway, ErrorCodeVectorDimMismatch),
		sentinelHandler(domain.ErrProjection, http.StatusBadGateway, ErrorCodeProjectionFailed),
		sentinelHandler(domain.ErrWordLookup, http.StatusBadGateway, ErrorCodeWordLookupFailed),
		sentinelHandler(domain.ErrNotFound, http.StatusNotFound, ErrorCodeNotFound),
		sentinelHandler(domain.ErrUpstreamStatus, http.StatusBadGateway, ErrorCodeUpstreamError),
		sentinelHandler(domain.ErrMalformedPayload, http.StatusBadGateway, ErrorCodeUpstreamError),
	}
	return s
}

// Routes registers every endpoint on r.
func (s *Server) Routes(r chi.Router) {
	r.Get("/health", s.HealthCheck)
	r.Get("/metrics", s.Metrics)

	r.Route("/api/v1", func(r chi.Router) {
		r.Post("/search", s.Search)
		r.Get("/state", s.State)
		r.Get("/projection", s.Projection)
		r.Post("/selection", s.Select)
		r.Delete("/selection", s.ClearSelection)
		r.Get("/books/{id}", s.GetBook)
	})
}

// Search handles POST /api/v1/search. It creates the session when needed,
// starts both retrievals and answers immediately with the loading snapshot.
func (s *Server) Search(w http.ResponseWriter, r *http.Request) {
	var req searchRequest
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes)).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, ErrorCodeBadRequest, "invalid request body")
		return
	}
	if strings.TrimSpace(req.Query) == "" {
		writeError(w, http.StatusBadRequest, ErrorCodeEmptyQuery, domain.ErrEmptyQuery.Error())
		return
	}

	sess, created := s.sessions.GetOrCreate(r.Header.Get(SessionHeader))
	ctx := r.Context()
	if created {
		ctx = logger.With(ctx, zap.String("new_session_id", sess.ID()))
	}
	gen, _ := sess.Submit(ctx, req.Query)
	logger.FromContext(ctx).Info("comparison submitted",
		zap.Bool("new_session", created),
		zap.Uint64("generation", gen),
	)

	w.Header().Set(SessionHeader, sess.ID())
	writeJSON(w, http.StatusAccepted, snapshotToDTO(sess.Snapshot()))
}

// State handles GET /api/v1/state. With wait=true it blocks (bounded) until
// neither engine is loading.
func (s *Server) State(w http.ResponseWriter, r *http.Request) {
	sess, ok := s.session(w, r)
	if !ok {
		return
	}

	var wait bool
	if err := runtime.BindQueryParameter("form", true, false, "wait", r.URL.Query(), &wait); err != nil {
		writeError(w, http.StatusBadRequest, ErrorCodeBadRequest, "invalid wait parameter")
		return
	}

	snap := sess.Snapshot()
	if wait {
		ctx, cancel := context.WithTimeout(r.Context(), maxWait)
		defer cancel()
		snap, _ = sess.Await(ctx)
	}
	writeJSON(w, http.StatusOK, snapshotToDTO(snap))
}

// Projection handles GET /api/v1/projection. Repeated ids parameters
// (ids=a&ids=b) override the session's candidate set.
func (s *Server) Projection(w http.ResponseWriter, r *http.Request) {
	sess, ok := s.session(w, r)
	if !ok {
		return
	}

	var ids []string
	if err := runtime.BindQueryParameter("form", true, false, "ids", r.URL.Query(), &ids); err != nil {
		writeError(w, http.StatusBadRequest, ErrorCodeBadRequest, "invalid ids parameter")
		return
	}
	// Blank values (ids= or ids=%20) carry no id; none left means candidates.
	ids = slices.DeleteFunc(ids, func(id string) bool { return strings.TrimSpace(id) == "" })
	if len(ids) == 0 {
		ids = nil
	}

	p, err := sess.Projection(r.Context(), ids)
	if err != nil {
		s.handleDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, projectionToDTO(p))
}

// Select handles POST /api/v1/selection.
func (s *Server) Select(w http.ResponseWriter, r *http.Request) {
	sess, ok := s.session(w, r)
	if !ok {
		return
	}

	var req selectionRequest
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes)).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, ErrorCodeBadRequest, "invalid request body")
		return
	}

	sel, err := sess.Select(r.Context(), req.ID)
	if err != nil {
		s.handleDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, selectionToDTO(sel))
}

// ClearSelection handles DELETE /api/v1/selection.
func (s *Server) ClearSelection(w http.ResponseWriter, r *http.Request) {
	sess, ok := s.session(w, r)
	if !ok {
		return
	}
	sess.ClearSelection()
	w.WriteHeader(http.StatusNoContent)
}

// GetBook handles GET /api/v1/books/{id}. Composite ids resolve to their book.
func (s *Server) GetBook(w http.ResponseWriter, r *http.Request) {
	id := bookid.Canonicalize(chi.URLParam(r, "id"))
	if id == "" {
		writeError(w, http.StatusBadRequest, ErrorCodeBadRequest, "book id is required")
		return
	}

	doc, err := s.books.Book(r.Context(), id)
	if err != nil {
		s.handleDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, doc)
}

// HealthCheck handles GET /health.
func (s *Server) HealthCheck(w http.ResponseWriter, r *http.Request) {
	report := s.health.Check(r.Context())

	checks := make(map[string]string, len(report.Checks))
	for k, v := range report.Checks {
		checks[k] = string(v)
	}
	latency := make(map[string]int64, len(report.Latency))
	for k, d := range report.Latency {
		latency[k] = d.Milliseconds()
	}

	httpStatus := http.StatusOK
	if report.Status == healthuc.Unhealthy {
		httpStatus = http.StatusServiceUnavailable
	}

	writeJSON(w, httpStatus, healthResponse{
		Status:    string(report.Status),
		Checks:    checks,
		LatencyMS: latency,
	})
}

// Metrics handles GET /metrics.
func (s *Server) Metrics(w http.ResponseWriter, r *http.Request) {
	promhttp.Handler().ServeHTTP(w, r)
}

func (s *Server) session(w http.ResponseWriter, r *http.Request) (*session.Session, bool) {
	id := r.Header.Get(SessionHeader)
	if id == "" {
		writeError(w, http.StatusBadRequest, ErrorCodeBadRequest, SessionHeader+" header is required")
		return nil, false
	}
	sess, ok := s.sessions.Get(id)
	if !ok {
		writeError(w, http.StatusNotFound, ErrorCodeSessionNotFound, "session not found")
		return nil, false
	}
	w.Header().Set(SessionHeader, id)
	return sess, true
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, code ErrorCode, message string) {
	writeJSON(w, status, ErrorResponse{
		Code:    code,
		Message: message,
	})
}

// safeDomainMessage returns a sentinel error message for the client without exposing internals.
func safeDomainMessage(err error) string {
	if errors.Is(err, domain.ErrWordLookup) {
		return session.WordLookupFailedMessage
	}
	sentinels := []error{
		domain.ErrEmptyQuery,
		domain.ErrNoSelection,
		domain.ErrStale,
		domain.ErrVectorDimMismatch,
		domain.ErrProjection,
		domain.ErrNotFound,
		domain.ErrUpstreamStatus,
		domain.ErrMalformedPayload,
	}
	for _, s := range sentinels {
		if errors.Is(err, s) {
			return s.Error()
		}
	}
	return "internal error"
}

// sentinelHandler returns an errorHandler that matches a single sentinel error.
func sentinelHandler(sentinel error, status int, code ErrorCode) errorHandler {
	return func(w http.ResponseWriter, err error, msg string) bool {
		if !errors.Is(err, sentinel) {
			return false
		}
		writeError(w, status, code, msg)
		return true
	}
}

func (s *Server) handleDomainError(w http.ResponseWriter, r *http.Request, err error) {
	l := logger.FromContext(r.Context())
	if errors.Is(err, context.Canceled) && r.Context().Err() != nil {
		l.Debug("request cancelled by client", zap.Error(err))
		return
	}
	l.Warn("domain error", zap.Error(err))
	msg := safeDomainMessage(err)
	for _, h := range s.errorHandlers {
		if h(w, err, msg) {
			return
		}
	}
	s.logger.Error("internal error", zap.Error(err))
	writeError(w, http.StatusInternalServerError, ErrorCodeInternalError, "internal error")
}

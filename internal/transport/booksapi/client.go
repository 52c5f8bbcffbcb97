// Package booksapi is the HTTP client for the remote books API that hosts both
// retrieval engines, the embedding endpoint and per-book vocabularies.
package booksapi

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/oapi-codegen/runtime"
	"go.uber.org/zap"

	"github.com/kailas-cloud/vecvstext/internal/domain"
	"github.com/kailas-cloud/vecvstext/internal/domain/book"
	"github.com/kailas-cloud/vecvstext/internal/domain/engine"
	"github.com/kailas-cloud/vecvstext/internal/domain/words"
	"github.com/kailas-cloud/vecvstext/internal/metrics"
	"github.com/kailas-cloud/vecvstext/internal/observability"
)

const maxErrorBody = 2048

// Config holds the books API client settings.
type Config struct {
	BaseURL    string
	Timeout    time.Duration
	HealthPath string
	HTTPClient *http.Client // optional; overrides Timeout
	Logger     *zap.Logger
}

// Client talks to the books API over HTTP/JSON.
type Client struct {
	baseURL    *url.URL
	httpClient *http.Client
	healthPath string
	logger     *zap.Logger
}

// New creates a books API client.
func New(cfg Config) (*Client, error) {
	base, err := url.Parse(cfg.BaseURL)
	if err != nil {
		return nil, fmt.Errorf("parse base url: %w", err)
	}
	if base.Scheme == "" || base.Host == "" {
		return nil, fmt.Errorf("base url %q must be absolute", cfg.BaseURL)
	}

	hc := cfg.HTTPClient
	if hc == nil {
		hc = &http.Client{Timeout: cfg.Timeout}
	}
	logger := cfg.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	healthPath := cfg.HealthPath
	if healthPath == "" {
		healthPath = "/openapi.json"
	}

	return &Client{
		baseURL:    base,
		httpClient: hc,
		healthPath: healthPath,
		logger:     logger,
	}, nil
}

// Search runs one engine for the query and returns its hits in backend order.
func (c *Client) Search(ctx context.Context, query string, kind engine.Kind) ([]book.Item, error) {
	q := url.Values{}
	if err := addFormParam(q, "query", query); err != nil {
		return nil, err
	}
	if err := addFormParam(q, "engine", string(kind)); err != nil {
		return nil, err
	}

	var resp searchResponse
	if err := c.getJSON(ctx, "search", "/api/search", q, &resp); err != nil {
		return nil, err
	}

	if resp.Books == nil {
		return nil, fmt.Errorf("%w: search response has no books", domain.ErrMalformedPayload)
	}

	items := make([]book.Item, 0, len(*resp.Books))
	for i, b := range *resp.Books {
		if b.ID == "" {
			return nil, fmt.Errorf("%w: search result %d has no _id", domain.ErrMalformedPayload, i)
		}
		items = append(items, b.toDomain())
	}
	return items, nil
}

// Embeddings fetches query-conditioned vectors for the given book ids. The
// response may be in any order and may contain an extra entry with id
// domain.QueryAnchorID holding the query's own embedding.
func (c *Client) Embeddings(ctx context.Context, query string, ids []string) ([]domain.EmbeddingVector, error) {
	q := url.Values{}
	if err := addFormParam(q, "user_query", query); err != nil {
		return nil, err
	}
	if err := addFormParam(q, "book_ids", ids); err != nil {
		return nil, err
	}

	var resp []embeddingDTO
	if err := c.getJSON(ctx, "embeddings", "/api/embedding/", q, &resp); err != nil {
		return nil, err
	}

	vectors := make([]domain.EmbeddingVector, 0, len(resp))
	for i, e := range resp {
		if e.ID == "" {
			return nil, fmt.Errorf("%w: embedding %d has no _id", domain.ErrMalformedPayload, i)
		}
		vectors = append(vectors, domain.EmbeddingVector{ID: e.ID, Components: e.Embedding})
	}
	return vectors, nil
}

// Words fetches the indexed vocabulary of a canonical book id.
func (c *Client) Words(ctx context.Context, bookID string) (words.Index, error) {
	seg, err := pathParam("id", bookID)
	if err != nil {
		return nil, err
	}

	var resp []string
	if err := c.getJSON(ctx, "words", "/api/book/"+seg+"/words", nil, &resp); err != nil {
		return nil, err
	}
	if resp == nil {
		resp = []string{}
	}
	return words.Index(resp), nil
}

// Book fetches the raw book document for a canonical id.
func (c *Client) Book(ctx context.Context, bookID string) (map[string]any, error) {
	seg, err := pathParam("id", bookID)
	if err != nil {
		return nil, err
	}

	var doc map[string]any
	if err := c.getJSON(ctx, "book", "/api/book/"+seg, nil, &doc); err != nil {
		return nil, err
	}
	if doc == nil {
		return nil, fmt.Errorf("book %q: %w", bookID, domain.ErrNotFound)
	}
	return doc, nil
}

// Ping checks that the books API answers on its health path.
func (c *Client) Ping(ctx context.Context) error {
	resp, err := c.do(ctx, "ping", c.healthPath, nil)
	if err != nil {
		return err
	}
	defer func() { _ = resp.Body.Close() }()
	_, _ = io.Copy(io.Discard, resp.Body)
	return nil
}

func (c *Client) getJSON(ctx context.Context, op, path string, query url.Values, out any) error {
	resp, err := c.do(ctx, op, path, query)
	if err != nil {
		return err
	}
	defer func() { _ = resp.Body.Close() }()

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("%s: decode response: %w: %w", op, domain.ErrMalformedPayload, err)
	}
	return nil
}

// do performs a GET and returns the response only for 2xx statuses.
func (c *Client) do(ctx context.Context, op, path string, query url.Values) (*http.Response, error) {
	ctx, span := observability.StartUpstreamSpan(ctx, op)
	defer span.End()

	u := c.baseURL.JoinPath(path)
	if query != nil {
		u.RawQuery = query.Encode()
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), http.NoBody)
	if err != nil {
		observability.RecordError(span, err)
		return nil, fmt.Errorf("%s: build request: %w", op, err)
	}
	req.Header.Set("Accept", "application/json")

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	metrics.UpstreamRequestDuration.WithLabelValues(op).Observe(time.Since(start).Seconds())
	if err != nil {
		metrics.UpstreamRequestsTotal.WithLabelValues(op, "error").Inc()
		observability.RecordError(span, err)
		if errors.Is(err, context.Canceled) {
			return nil, fmt.Errorf("%s: %w", op, err)
		}
		c.logger.Warn("books api request failed", zap.String("op", op), zap.Error(err))
		return nil, fmt.Errorf("%s: request: %w", op, err)
	}

	metrics.UpstreamRequestsTotal.WithLabelValues(op, strconv.Itoa(resp.StatusCode)).Inc()
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		_ = resp.Body.Close()
		serr := &StatusError{Op: op, StatusCode: resp.StatusCode, Body: string(body)}
		observability.RecordError(span, serr)
		c.logger.Warn("books api non-2xx response",
			zap.String("op", op),
			zap.Int("status", resp.StatusCode),
		)
		return nil, serr
	}

	c.logger.Debug("books api request",
		zap.String("op", op),
		zap.String("path", u.Path),
		zap.Duration("took", time.Since(start)),
	)
	return resp, nil
}

// addFormParam encodes value with OpenAPI form/explode style, so slices become
// repeated keys (book_ids=a&book_ids=b).
func addFormParam(values url.Values, name string, value any) error {
	frag, err := runtime.StyleParamWithLocation("form", true, name, runtime.ParamLocationQuery, value)
	if err != nil {
		return fmt.Errorf("encode %s: %w", name, err)
	}
	parsed, err := url.ParseQuery(frag)
	if err != nil {
		return fmt.Errorf("encode %s: %w", name, err)
	}
	for k, vs := range parsed {
		for _, v := range vs {
			values.Add(k, v)
		}
	}
	return nil
}

// pathParam escapes a single path segment with OpenAPI simple style.
func pathParam(name, value string) (string, error) {
	if value == "" {
		return "", fmt.Errorf("%s must not be empty: %w", name, domain.ErrNotFound)
	}
	seg, err := runtime.StyleParamWithLocation("simple", false, name, runtime.ParamLocationPath, value)
	if err != nil {
		return "", fmt.Errorf("encode %s: %w", name, err)
	}
	return seg, nil
}

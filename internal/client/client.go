// Package client talks to a remote kensaku server. Client satisfies the session
// package's Backend, so a session can run against a server as well as an in-process index.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	lru "github.com/hashicorp/golang-lru/v2"
	"github.com/hyperjump/kensaku/internal/models"
	"github.com/hyperjump/kensaku/internal/query"
	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"
)

const (
	// DefaultTimeout bounds every request unless WithTimeout or WithHTTPClient overrides it.
	DefaultTimeout = 30 * time.Second
	// DefaultSuggestCacheSize is the number of suggestion lists kept.
	DefaultSuggestCacheSize = 256
)

// APIError is a non-2xx answer from the server.
type APIError struct {
	StatusCode int
	Message    string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("kensaku server: %d: %s", e.StatusCode, e.Message)
}

type errorResponse struct {
	Error string `json:"error"`
}

// Client is an HTTP backend for search sessions.
type Client struct {
	baseURL    string
	httpClient *http.Client
	logger     *zap.Logger
	cacheSize  int
	suggests   *lru.Cache[string, []string]
	group      singleflight.Group
}

// Option configures a Client.
type Option func(*Client)

// WithTimeout sets the per-request timeout.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) {
		if d > 0 {
			c.httpClient = &http.Client{Timeout: d}
		}
	}
}

// WithHTTPClient replaces the HTTP client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		if hc != nil {
			c.httpClient = hc
		}
	}
}

// WithLogger sets a logger for debug output.
func WithLogger(l *zap.Logger) Option {
	return func(c *Client) {
		if l != nil {
			c.logger = l
		}
	}
}

// WithSuggestCacheSize sets how many suggestion lists are cached; 0 disables the cache.
func WithSuggestCacheSize(n int) Option {
	return func(c *Client) { c.cacheSize = n }
}

// New creates a client for the server at baseURL, e.g. "http://localhost:8080".
func New(baseURL string, opts ...Option) (*Client, error) {
	if _, err := url.ParseRequestURI(baseURL); err != nil {
		return nil, fmt.Errorf("invalid base url %q: %w", baseURL, err)
	}
	c := &Client{
		baseURL:    strings.TrimSuffix(baseURL, "/"),
		httpClient: &http.Client{Timeout: DefaultTimeout},
		logger:     zap.NewNop(),
		cacheSize:  DefaultSuggestCacheSize,
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.cacheSize > 0 {
		cache, err := lru.New[string, []string](c.cacheSize)
		if err != nil {
			return nil, fmt.Errorf("suggest cache: %w", err)
		}
		c.suggests = cache
	}
	return c, nil
}

// Execute posts d to the server's query endpoint.
func (c *Client) Execute(ctx context.Context, d *query.Descriptor) (*models.RawResponse, error) {
	var out models.RawResponse
	if err := c.do(ctx, http.MethodPost, "/api/v1/query", nil, d, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// Suggest returns completions for text. Answers are cached per text and
// concurrent requests for the same text share one round trip.
func (c *Client) Suggest(ctx context.Context, text string) (*models.SuggestResponse, error) {
	key := strings.TrimSpace(text)
	if key == "" {
		return &models.SuggestResponse{Queries: []string{}}, nil
	}
	if c.suggests != nil {
		if queries, ok := c.suggests.Get(key); ok {
			return &models.SuggestResponse{Queries: append([]string(nil), queries...)}, nil
		}
	}
	// the round trip is shared, so it must outlive any one caller's cancellation;
	// the HTTP client timeout still bounds it
	shareCtx := context.WithoutCancel(ctx)
	ch := c.group.DoChan(key, func() (any, error) {
		var out models.SuggestResponse
		if err := c.do(shareCtx, http.MethodGet, "/api/v1/suggest", url.Values{"q": {key}}, nil, &out); err != nil {
			return nil, err
		}
		if out.Queries == nil {
			out.Queries = []string{}
		}
		if c.suggests != nil {
			c.suggests.Add(key, out.Queries)
		}
		return out.Queries, nil
	})
	var res singleflight.Result
	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case res = <-ch:
	}
	if res.Err != nil {
		return nil, res.Err
	}
	c.logger.Debug("client suggest", zap.String("text", key), zap.Bool("shared", res.Shared))
	return &models.SuggestResponse{Queries: append([]string(nil), res.Val.([]string)...)}, nil
}

// PurgeSuggestions empties the suggestion cache, e.g. after re-indexing.
func (c *Client) PurgeSuggestions() {
	if c.suggests != nil {
		c.suggests.Purge()
	}
}

// Status returns the server's status document.
func (c *Client) Status(ctx context.Context) (map[string]any, error) {
	var out map[string]any
	if err := c.do(ctx, http.MethodGet, "/api/v1/status", nil, nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *Client) do(ctx context.Context, method, path string, params url.Values, body, result any) error {
	start := time.Now()
	u := c.baseURL + path
	if len(params) > 0 {
		u += "?" + params.Encode()
	}

	var reader io.Reader
	if body != nil {
		buf, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("encoding request: %w", err)
		}
		reader = bytes.NewReader(buf)
	}
	req, err := http.NewRequestWithContext(ctx, method, u, reader)
	if err != nil {
		return fmt.Errorf("creating request: %w", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.logger.Debug("HTTP request failed",
			zap.String("method", method),
			zap.String("path", path),
			zap.Error(err),
			zap.Duration("duration", time.Since(start)))
		return fmt.Errorf("executing request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		return parseError(resp)
	}
	if err := json.NewDecoder(resp.Body).Decode(result); err != nil {
		return fmt.Errorf("decoding response: %w", err)
	}
	c.logger.Debug("HTTP request completed",
		zap.String("method", method),
		zap.String("path", path),
		zap.Int("status", resp.StatusCode),
		zap.Duration("duration", time.Since(start)))
	return nil
}

func parseError(resp *http.Response) error {
	body, _ := io.ReadAll(resp.Body)
	var errResp errorResponse
	if json.Unmarshal(body, &errResp) == nil && errResp.Error != "" {
		return &APIError{StatusCode: resp.StatusCode, Message: errResp.Error}
	}
	return &APIError{StatusCode: resp.StatusCode, Message: strings.TrimSpace(string(body))}
}

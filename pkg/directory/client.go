// Package directory implements the HTTP client for the Access Directory
// Service, the external system of record for users, roles, policies,
// endpoints, and pages.
//
// The client consumes three read-only endpoints:
//
//	GET /api/v1/users              → user list
//	GET /api/v1/access/pages       → full UI-page access matrix
//	GET /api/v1/access/users/{id}  → per-user access matrix
//
// Status mapping is part of the engine contract: 403 becomes a FORBIDDEN
// error surfaced as a dedicated access-denied state, 404 becomes NOT_FOUND,
// and network failures plus 5xx become retryable NETWORK_ERROR handled with
// exponential backoff. 401 is passed through as UNAUTHORIZED and handled
// outside this engine.
//
// Raw responses can be cached through a [cache.Cache] via [WithCache];
// [WithRefresh] forces a live fetch for one request.
package directory

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/permitscope/permitscope/pkg/cache"
	"github.com/permitscope/permitscope/pkg/errors"
	"github.com/permitscope/permitscope/pkg/httputil"
)

// DefaultTimeout bounds a single directory request.
const DefaultTimeout = 15 * time.Second

// Client is the Access Directory Service API client.
type Client struct {
	baseURL string
	http    *http.Client
	headers map[string]string

	cache    cache.Cache
	cacheTTL time.Duration
	keyer    cache.Keyer
}

// Option customizes a Client.
type Option func(*Client)

// WithHTTPClient replaces the underlying HTTP client (used by tests).
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.http = hc }
}

// WithHeader sets a default header applied to every request.
func WithHeader(key, value string) Option {
	return func(c *Client) { c.headers[key] = value }
}

// WithCache caches raw directory responses in store for ttl. Only
// successful responses are cached; [WithRefresh] bypasses cached reads
// while still storing the fresh result.
func WithCache(store cache.Cache, ttl time.Duration) Option {
	return func(c *Client) {
		c.cache = store
		c.cacheTTL = ttl
	}
}

// NewClient creates a directory client for the given base URL.
func NewClient(baseURL string, opts ...Option) *Client {
	c := &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    &http.Client{Timeout: DefaultTimeout},
		headers: map[string]string{"Accept": "application/json"},
	}
	for _, o := range opts {
		o(c)
	}
	if c.cache != nil {
		// Scope keys by base URL so two directories sharing one cache
		// store never serve each other's responses.
		c.keyer = cache.NewScopedKeyer(cache.NewDefaultKeyer(), c.baseURL+":")
	}
	return c
}

type refreshKey struct{}

// WithRefresh marks the context so cached responses are skipped on read;
// the live result still refreshes the cache.
func WithRefresh(ctx context.Context) context.Context {
	return context.WithValue(ctx, refreshKey{}, true)
}

func refreshRequested(ctx context.Context) bool {
	v, _ := ctx.Value(refreshKey{}).(bool)
	return v
}

// Users fetches the directory user list.
func (c *Client) Users(ctx context.Context) ([]RawUser, error) {
	var out []RawUser
	if err := c.get(ctx, "/api/v1/users", &out); err != nil {
		return nil, err
	}
	return out, nil
}

// PageMatrix fetches the full UI-page access matrix.
func (c *Client) PageMatrix(ctx context.Context) (RawPageMatrix, error) {
	var out RawPageMatrix
	if err := c.get(ctx, "/api/v1/access/pages", &out); err != nil {
		return RawPageMatrix{}, err
	}
	return out, nil
}

// UserMatrix fetches the access matrix for one user.
func (c *Client) UserMatrix(ctx context.Context, userID string) (RawUserMatrix, error) {
	var out RawUserMatrix
	path := "/api/v1/access/users/" + url.PathEscape(userID)
	if err := c.get(ctx, path, &out); err != nil {
		return RawUserMatrix{}, err
	}
	return out, nil
}

// get performs a GET with retry and decodes the JSON response into v.
// Retries apply only to transient failures; permanent statuses (403, 404,
// 401) return immediately. With a cache configured, the raw body is served
// from and written back to it.
func (c *Client) get(ctx context.Context, path string, v any) error {
	var key string
	if c.cache != nil {
		key = c.keyer.HTTPKey("directory", path)
		if !refreshRequested(ctx) {
			if data, ok, err := c.cache.Get(ctx, key); err == nil && ok {
				if json.Unmarshal(data, v) == nil {
					return nil
				}
				// Corrupt entry: fall through to a live fetch.
			}
		}
	}

	var body []byte
	err := httputil.Retry(ctx, 3, time.Second, func() error {
		var err error
		body, err = c.doGet(ctx, path)
		return err
	})
	if err != nil {
		return err
	}
	if err := json.Unmarshal(body, v); err != nil {
		return errors.Wrap(errors.ErrCodeNetwork, err, "decode directory response for %s", path)
	}
	if c.cache != nil {
		// Cache write failures never fail the fetch.
		_ = c.cache.Set(ctx, key, body, c.cacheTTL)
	}
	return nil
}

func (c *Client) doGet(ctx context.Context, path string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path, nil)
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeInternal, err, "build request for %s", path)
	}
	for k, val := range c.headers {
		req.Header.Set(k, val)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		if ctx.Err() != nil {
			return nil, errors.Wrap(errors.ErrCodeTimeout, err, "directory request cancelled")
		}
		return nil, &httputil.RetryableError{
			Err: errors.Wrap(errors.ErrCodeNetwork, err, "directory unreachable"),
		}
	}
	defer resp.Body.Close()

	if err := checkStatus(resp.StatusCode, path); err != nil {
		return nil, err
	}
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, &httputil.RetryableError{
			Err: errors.Wrap(errors.ErrCodeNetwork, err, "read directory response for %s", path),
		}
	}
	return body, nil
}

func checkStatus(code int, path string) error {
	switch {
	case code == http.StatusOK:
		return nil
	case code == http.StatusUnauthorized:
		// Session expiry is handled outside the engine.
		return errors.New(errors.ErrCodeUnauthorized, "directory session expired")
	case code == http.StatusForbidden:
		// Distinct access-denied state, never merged with network errors.
		return errors.New(errors.ErrCodeForbidden, "access to %s denied by directory", path)
	case code == http.StatusNotFound:
		return errors.New(errors.ErrCodeNotFound, "%s not found in directory", path)
	case code >= 500:
		return &httputil.RetryableError{
			Err: errors.New(errors.ErrCodeNetwork, "directory returned status %d for %s", code, path),
		}
	default:
		return errors.New(errors.ErrCodeNetwork, "directory returned status %d for %s", code, path)
	}
}

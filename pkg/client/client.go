// Package client provides the HTTP client for the Rick and Morty API with
// optional response caching, metrics and remote error decoding.
package client

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/Sternrassler/wubba/pkg/cache"
	"github.com/Sternrassler/wubba/pkg/catalog"
	"github.com/Sternrassler/wubba/pkg/logging"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
)

// DefaultBaseURL is the public Rick and Morty API.
const DefaultBaseURL = "https://rickandmortyapi.com/api"

// Client performs single round trips against the API.
// It never retries: a failed request is returned to the caller as is.
type Client struct {
	httpClient *http.Client
	baseURL    string
	cache      *cache.Manager
	config     Config
	logger     zerolog.Logger
}

// Config holds the client configuration.
type Config struct {
	// BaseURL is the API root, e.g. "https://rickandmortyapi.com/api"
	BaseURL string

	// UserAgent header sent with every request
	UserAgent string

	// Timeout of the underlying http.Client (0 = none)
	Timeout time.Duration

	// Redis enables the response cache when non-nil
	Redis *redis.Client

	// CacheTTL is the fallback lifetime of cached responses
	CacheTTL time.Duration
}

// DefaultConfig returns the configuration used by the CLI.
func DefaultConfig() Config {
	return Config{
		BaseURL:   DefaultBaseURL,
		UserAgent: "wubba/0.1.0",
		Timeout:   30 * time.Second,
		CacheTTL:  cache.DefaultTTL,
	}
}

// New creates a new API client.
func New(cfg Config) (*Client, error) {
	if cfg.UserAgent == "" {
		return nil, fmt.Errorf("user-agent is required")
	}

	base, err := url.Parse(cfg.BaseURL)
	if err != nil {
		return nil, fmt.Errorf("parse base url: %w", err)
	}
	if base.Scheme == "" || base.Host == "" {
		return nil, fmt.Errorf("base url must be absolute (got %q)", cfg.BaseURL)
	}

	logger := logging.NewLogger("client")

	var cacheManager *cache.Manager
	if cfg.Redis != nil {
		cacheManager = cache.NewManager(cfg.Redis, cfg.CacheTTL)
	}

	return &Client{
		httpClient: &http.Client{
			Timeout: cfg.Timeout,
		},
		baseURL: strings.TrimRight(cfg.BaseURL, "/"),
		cache:   cacheManager,
		config:  cfg,
		logger:  logger,
	}, nil
}

// CollectionURL returns the list endpoint of a collection.
func (c *Client) CollectionURL(collection catalog.Collection) string {
	return c.baseURL + "/" + string(collection)
}

// EntityURL returns the endpoint of a single record.
func (c *Client) EntityURL(collection catalog.Collection, id int) string {
	return c.CollectionURL(collection) + "/" + strconv.Itoa(id)
}

// QueryURL returns the list endpoint with an encoded query string.
// An empty query yields the plain collection URL.
func (c *Client) QueryURL(collection catalog.Collection, query string) string {
	if query == "" {
		return c.CollectionURL(collection)
	}
	return c.CollectionURL(collection) + "?" + query
}

// Do performs an HTTP request, consulting the response cache for GET requests
// when one is configured.
func (c *Client) Do(req *http.Request) (*http.Response, error) {
	if c.cache == nil || req.Method != http.MethodGet {
		return c.roundTrip(req)
	}

	ctx := req.Context()
	label := collectionLabel(req.URL.Path)

	cacheKey, err := cache.KeyFromURL(req.URL.String())
	if err != nil {
		c.logger.Warn().Err(err).Str("url", req.URL.String()).Msg("Cannot build cache key")
		return c.roundTrip(req)
	}

	cachedEntry, err := c.cache.Get(ctx, cacheKey)
	if err != nil && err != cache.ErrCacheMiss {
		c.logger.Warn().Err(err).Str("key", cacheKey.String()).Msg("Cache get error")
	}

	if cachedEntry != nil && !cachedEntry.IsExpired() {
		c.logger.Debug().
			Str("key", cacheKey.String()).
			Dur("ttl", cachedEntry.TTL()).
			Msg("Serving cached response")
		requestsTotal.WithLabelValues(label, "cached").Inc()
		return cache.EntryToResponse(cachedEntry, req), nil
	}

	if cache.ShouldMakeConditionalRequest(cachedEntry) {
		cache.AddConditionalHeaders(req, cachedEntry)
		c.logger.Debug().
			Str("key", cacheKey.String()).
			Str("etag", cachedEntry.ETag).
			Msg("Making conditional request")
	}

	resp, err := c.roundTrip(req)
	if err != nil {
		return nil, err
	}

	if resp.StatusCode == http.StatusNotModified && cachedEntry != nil {
		resp.Body.Close()
		cache.NotModifiedResponses.Inc()

		fresh, err := cache.ResponseToEntry(&http.Response{
			StatusCode: cachedEntry.StatusCode,
			Header:     resp.Header,
			Body:       io.NopCloser(strings.NewReader("")),
		}, c.cache.TTL())
		if err == nil {
			if err := c.cache.Refresh(ctx, cacheKey, cachedEntry, fresh.Expires); err != nil {
				c.logger.Warn().Err(err).Msg("Failed to refresh cache entry")
			}
		}

		c.logger.Debug().Str("key", cacheKey.String()).Msg("304 Not Modified - using cache")
		return cache.EntryToResponse(cachedEntry, req), nil
	}

	if resp.StatusCode == http.StatusOK {
		entry, err := cache.ResponseToEntry(resp, c.cache.TTL())
		if err != nil {
			c.logger.Warn().Err(err).Msg("Failed to create cache entry")
		} else if entry.TTL() > 0 || cache.ShouldMakeConditionalRequest(entry) {
			if err := c.cache.Set(ctx, cacheKey, entry); err != nil {
				c.logger.Warn().Err(err).Msg("Failed to cache response")
			} else {
				c.logger.Debug().
					Str("key", cacheKey.String()).
					Dur("ttl", entry.TTL()).
					Msg("Cached response")
			}
		}
	}

	return resp, nil
}

// roundTrip executes one request without touching the cache.
func (c *Client) roundTrip(req *http.Request) (*http.Response, error) {
	label := collectionLabel(req.URL.Path)

	startTime := time.Now()
	defer func() {
		requestDuration.WithLabelValues(label).Observe(time.Since(startTime).Seconds())
	}()

	req.Header.Set("User-Agent", c.config.UserAgent)
	if req.Header.Get("Accept") == "" {
		req.Header.Set("Accept", "application/json")
	}

	c.logger.Debug().
		Str("url", req.URL.String()).
		Str("method", req.Method).
		Msg("Executing request")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.logger.Error().Err(err).Str("url", req.URL.String()).Msg("HTTP request failed")
		errorsTotal.WithLabelValues(string(ErrorClassNetwork)).Inc()
		requestsTotal.WithLabelValues(label, "network_error").Inc()
		return nil, &RemoteQueryError{
			URL:        req.URL.String(),
			ErrorClass: ErrorClassNetwork,
			Message:    "request failed",
			Err:        err,
		}
	}

	requestsTotal.WithLabelValues(label, strconv.Itoa(resp.StatusCode)).Inc()
	if class := classifyStatus(resp.StatusCode); class != "" {
		errorsTotal.WithLabelValues(string(class)).Inc()
		c.logger.Warn().
			Str("url", req.URL.String()).
			Int("status", resp.StatusCode).
			Str("error_class", string(class)).
			Msg("API request error")
	}

	return resp, nil
}

// errorBody is the shape of an API failure, e.g. {"error":"There is nothing here"}.
type errorBody struct {
	Error string `json:"error"`
}

// Get fetches an absolute URL and returns its JSON body.
// A body carrying an "error" field, a non-2xx status, a transport failure or
// a non-JSON body all fail with *RemoteQueryError.
func (c *Client) Get(ctx context.Context, rawURL string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}

	resp, err := c.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, &RemoteQueryError{
			URL:        rawURL,
			StatusCode: resp.StatusCode,
			ErrorClass: ErrorClassNetwork,
			Message:    "read response body",
			Err:        err,
		}
	}

	var eb errorBody
	if err := json.Unmarshal(body, &eb); err != nil {
		// Arrays are valid bodies too (multi-id lookups)
		var anyBody any
		if jsonErr := json.Unmarshal(body, &anyBody); jsonErr != nil {
			return nil, &RemoteQueryError{
				URL:        rawURL,
				StatusCode: resp.StatusCode,
				ErrorClass: ErrorClassDecode,
				Message:    "response is not JSON",
				Err:        jsonErr,
			}
		}
	}

	if eb.Error != "" {
		class := classifyStatus(resp.StatusCode)
		if class == "" {
			class = ErrorClassClient
		}
		return nil, &RemoteQueryError{
			URL:        rawURL,
			StatusCode: resp.StatusCode,
			ErrorClass: class,
			Message:    eb.Error,
		}
	}

	if class := classifyStatus(resp.StatusCode); class != "" {
		return nil, &RemoteQueryError{
			URL:        rawURL,
			StatusCode: resp.StatusCode,
			ErrorClass: class,
			Message:    resp.Status,
		}
	}

	return body, nil
}

// Download streams a binary resource, such as a character image, into w.
// Downloads bypass the response cache.
func (c *Client) Download(ctx context.Context, rawURL string, w io.Writer) (int64, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return 0, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Accept", "*/*")

	resp, err := c.roundTrip(req)
	if err != nil {
		return 0, err
	}
	defer resp.Body.Close()

	if class := classifyStatus(resp.StatusCode); class != "" {
		return 0, &RemoteQueryError{
			URL:        rawURL,
			StatusCode: resp.StatusCode,
			ErrorClass: class,
			Message:    resp.Status,
		}
	}

	n, err := io.Copy(w, resp.Body)
	if err != nil {
		return n, fmt.Errorf("copy download body: %w", err)
	}
	return n, nil
}

// Close releases idle connections.
func (c *Client) Close() error {
	c.httpClient.CloseIdleConnections()
	return nil
}

// SetHTTPClient sets a custom HTTP client (for testing).
func (c *Client) SetHTTPClient(client *http.Client) {
	c.httpClient = client
}

// CacheEnabled reports whether responses are cached in Redis.
func (c *Client) CacheEnabled() bool {
	return c.cache != nil
}

// classifyStatus maps a failing HTTP status to an ErrorClass.
// Returns "" for non-error statuses.
func classifyStatus(status int) ErrorClass {
	switch {
	case status >= 400 && status < 500:
		return ErrorClassClient
	case status >= 500:
		return ErrorClassServer
	default:
		return ""
	}
}

// collectionLabel reduces a request path to a low-cardinality metric label.
func collectionLabel(path string) string {
	for _, c := range catalog.Collections {
		if strings.Contains(path, "/"+string(c)) {
			return string(c)
		}
	}
	return "other"
}

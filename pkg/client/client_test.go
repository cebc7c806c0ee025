package client

import (
	"bytes"
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/Sternrassler/wubba/internal/testutil"
	"github.com/Sternrassler/wubba/pkg/catalog"
	"github.com/redis/go-redis/v9"
)

// setupTestRedis creates a test Redis client.
func setupTestRedis(t *testing.T) *redis.Client {
	t.Helper()

	client := redis.NewClient(&redis.Options{
		Addr: "localhost:6379",
		DB:   15, // Use a separate DB for tests
	})

	ctx := context.Background()
	if err := client.Ping(ctx).Err(); err != nil {
		t.Skipf("Redis not available for testing: %v", err)
	}

	if err := client.FlushDB(ctx).Err(); err != nil {
		t.Fatalf("Failed to flush test DB: %v", err)
	}

	t.Cleanup(func() {
		client.FlushDB(context.Background())
		client.Close()
	})

	return client
}

func newTestClient(t *testing.T, baseURL string) *Client {
	t.Helper()

	cfg := DefaultConfig()
	cfg.BaseURL = baseURL
	cfg.UserAgent = "wubba-test/1.0.0"

	c, err := New(cfg)
	if err != nil {
		t.Fatalf("Failed to create client: %v", err)
	}
	return c
}

func TestNew_Validation(t *testing.T) {
	tests := []struct {
		name        string
		config      Config
		expectError bool
		errorMsg    string
	}{
		{
			name:   "valid config",
			config: DefaultConfig(),
		},
		{
			name: "empty user agent",
			config: Config{
				BaseURL: DefaultBaseURL,
			},
			expectError: true,
			errorMsg:    "user-agent is required",
		},
		{
			name: "relative base url",
			config: Config{
				BaseURL:   "/api",
				UserAgent: "wubba-test/1.0.0",
			},
			expectError: true,
			errorMsg:    `base url must be absolute (got "/api")`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			client, err := New(tt.config)

			if tt.expectError {
				if err == nil {
					t.Fatal("Expected error but got nil")
				}
				if tt.errorMsg != "" && err.Error() != tt.errorMsg {
					t.Errorf("Error message = %q, want %q", err.Error(), tt.errorMsg)
				}
				return
			}

			if err != nil {
				t.Fatalf("Unexpected error: %v", err)
			}
			if client.CacheEnabled() {
				t.Error("cache should be disabled without Redis")
			}
		})
	}
}

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	if cfg.BaseURL != "https://rickandmortyapi.com/api" {
		t.Errorf("BaseURL = %q", cfg.BaseURL)
	}
	if cfg.UserAgent == "" {
		t.Error("UserAgent should have a default")
	}
	if cfg.Redis != nil {
		t.Error("Redis should be nil by default")
	}
}

func TestURLBuilders(t *testing.T) {
	c := newTestClient(t, "https://rickandmortyapi.com/api/")

	if got := c.CollectionURL(catalog.CollectionCharacter); got != "https://rickandmortyapi.com/api/character" {
		t.Errorf("CollectionURL() = %q", got)
	}
	if got := c.EntityURL(catalog.CollectionEpisode, 28); got != "https://rickandmortyapi.com/api/episode/28" {
		t.Errorf("EntityURL() = %q", got)
	}
	if got := c.QueryURL(catalog.CollectionLocation, "name=Earth"); got != "https://rickandmortyapi.com/api/location?name=Earth" {
		t.Errorf("QueryURL() = %q", got)
	}
	if got := c.QueryURL(catalog.CollectionLocation, ""); got != "https://rickandmortyapi.com/api/location" {
		t.Errorf("QueryURL() with empty query = %q", got)
	}
}

func TestClassifyStatus(t *testing.T) {
	tests := []struct {
		status   int
		expected ErrorClass
	}{
		{200, ""},
		{304, ""},
		{404, ErrorClassClient},
		{429, ErrorClassClient},
		{500, ErrorClassServer},
		{503, ErrorClassServer},
	}

	for _, tt := range tests {
		if got := classifyStatus(tt.status); got != tt.expected {
			t.Errorf("classifyStatus(%d) = %q, want %q", tt.status, got, tt.expected)
		}
	}
}

func TestCollectionLabel(t *testing.T) {
	tests := map[string]string{
		"/api/character":     "character",
		"/api/location/3":    "location",
		"/api/episode":       "episode",
		"/api/avatar/1.jpeg": "other",
	}
	for path, want := range tests {
		if got := collectionLabel(path); got != want {
			t.Errorf("collectionLabel(%q) = %q, want %q", path, got, want)
		}
	}
}

func TestDo_HeadersSet(t *testing.T) {
	var userAgent, accept string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		userAgent = r.Header.Get("User-Agent")
		accept = r.Header.Get("Accept")
		w.WriteHeader(http.StatusOK)
		w.Write([]byte(`{}`))
	}))
	defer server.Close()

	c := newTestClient(t, server.URL)

	req, _ := http.NewRequest("GET", server.URL+"/character", nil)
	resp, err := c.Do(req)
	if err != nil {
		t.Fatalf("Do() failed: %v", err)
	}
	resp.Body.Close()

	if userAgent != "wubba-test/1.0.0" {
		t.Errorf("User-Agent = %q", userAgent)
	}
	if accept != "application/json" {
		t.Errorf("Accept = %q", accept)
	}
}

func TestGet(t *testing.T) {
	mock := testutil.NewMockAPI()
	defer mock.Close()

	mock.SetResponse("/api/character/1", testutil.NewJSONResponse(`{"id":1,"name":"Rick Sanchez"}`))
	mock.SetResponse("/api/character", testutil.NewErrorResponse(http.StatusNotFound, "There is nothing here"))
	mock.SetResponse("/api/location", testutil.NewServerErrorResponse())
	mock.SetResponse("/api/episode", testutil.NewJSONResponse(`<html>not json</html>`))
	mock.SetResponse("/api/character/1,2", testutil.NewJSONResponse(`[{"id":1},{"id":2}]`))

	c := newTestClient(t, mock.BaseURL())
	ctx := context.Background()

	tests := []struct {
		name       string
		url        string
		wantBody   string
		wantClass  ErrorClass
		wantStatus int
		wantMsg    string
	}{
		{
			name:     "single entity",
			url:      mock.BaseURL() + "/character/1",
			wantBody: `{"id":1,"name":"Rick Sanchez"}`,
		},
		{
			name:     "array body",
			url:      mock.BaseURL() + "/character/1,2",
			wantBody: `[{"id":1},{"id":2}]`,
		},
		{
			name:       "error field",
			url:        mock.BaseURL() + "/character?name=nobody",
			wantClass:  ErrorClassClient,
			wantStatus: http.StatusNotFound,
			wantMsg:    "There is nothing here",
		},
		{
			name:       "server error without body",
			url:        mock.BaseURL() + "/location",
			wantClass:  ErrorClassServer,
			wantStatus: http.StatusInternalServerError,
		},
		{
			name:       "non-json body",
			url:        mock.BaseURL() + "/episode",
			wantClass:  ErrorClassDecode,
			wantStatus: http.StatusOK,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			body, err := c.Get(ctx, tt.url)

			if tt.wantClass == "" {
				if err != nil {
					t.Fatalf("Get() error = %v", err)
				}
				if string(body) != tt.wantBody {
					t.Errorf("body = %q, want %q", body, tt.wantBody)
				}
				return
			}

			var rqe *RemoteQueryError
			if !errors.As(err, &rqe) {
				t.Fatalf("expected *RemoteQueryError, got %v", err)
			}
			if rqe.ErrorClass != tt.wantClass {
				t.Errorf("ErrorClass = %q, want %q", rqe.ErrorClass, tt.wantClass)
			}
			if rqe.StatusCode != tt.wantStatus {
				t.Errorf("StatusCode = %d, want %d", rqe.StatusCode, tt.wantStatus)
			}
			if tt.wantMsg != "" && rqe.Message != tt.wantMsg {
				t.Errorf("Message = %q, want %q", rqe.Message, tt.wantMsg)
			}
		})
	}
}

func TestGet_NetworkError(t *testing.T) {
	server := httptest.NewServer(http.NotFoundHandler())
	baseURL := server.URL
	server.Close()

	c := newTestClient(t, baseURL)

	_, err := c.Get(context.Background(), baseURL+"/character")

	var rqe *RemoteQueryError
	if !errors.As(err, &rqe) {
		t.Fatalf("expected *RemoteQueryError, got %v", err)
	}
	if rqe.ErrorClass != ErrorClassNetwork {
		t.Errorf("ErrorClass = %q, want network", rqe.ErrorClass)
	}
	if rqe.Unwrap() == nil {
		t.Error("network error should wrap the transport error")
	}
}

func TestGet_NoRetry(t *testing.T) {
	mock := testutil.NewMockAPI()
	defer mock.Close()

	mock.SetResponse("/api/character", testutil.NewServerErrorResponse())
	c := newTestClient(t, mock.BaseURL())

	if _, err := c.Get(context.Background(), mock.BaseURL()+"/character"); err == nil {
		t.Fatal("expected error")
	}
	if got := mock.GetRequestCount(); got != 1 {
		t.Errorf("request count = %d, want 1 (no retries)", got)
	}
}

func TestDownload(t *testing.T) {
	image := []byte{0xff, 0xd8, 0xff, 0xe0, 'j', 'p', 'e', 'g'}
	mock := testutil.NewMockAPI()
	defer mock.Close()

	mock.SetResponse("/api/character/avatar/1.jpeg", testutil.MockResponse{
		StatusCode: http.StatusOK,
		Body:       string(image),
		Headers:    map[string]string{"Content-Type": "image/jpeg"},
	})
	mock.SetResponse("/api/character/avatar/999.jpeg", testutil.MockResponse{StatusCode: http.StatusNotFound})

	c := newTestClient(t, mock.BaseURL())

	var buf bytes.Buffer
	n, err := c.Download(context.Background(), mock.BaseURL()+"/character/avatar/1.jpeg", &buf)
	if err != nil {
		t.Fatalf("Download() error = %v", err)
	}
	if n != int64(len(image)) || !bytes.Equal(buf.Bytes(), image) {
		t.Errorf("downloaded %d bytes %v, want %v", n, buf.Bytes(), image)
	}

	_, err = c.Download(context.Background(), mock.BaseURL()+"/character/avatar/999.jpeg", &bytes.Buffer{})
	var rqe *RemoteQueryError
	if !errors.As(err, &rqe) || rqe.StatusCode != http.StatusNotFound {
		t.Errorf("expected 404 RemoteQueryError, got %v", err)
	}
}

func TestDo_CacheHit(t *testing.T) {
	redisClient := setupTestRedis(t)

	requestCount := 0
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requestCount++
		w.Header().Set("Cache-Control", "max-age=300")
		w.WriteHeader(http.StatusOK)
		w.Write([]byte(`{"info":{"next":null},"results":[]}`))
	}))
	defer server.Close()

	cfg := DefaultConfig()
	cfg.BaseURL = server.URL
	cfg.Redis = redisClient
	c, err := New(cfg)
	if err != nil {
		t.Fatalf("Failed to create client: %v", err)
	}

	for i := 0; i < 2; i++ {
		body, err := c.Get(context.Background(), server.URL+"/character?page=1")
		if err != nil {
			t.Fatalf("request %d failed: %v", i+1, err)
		}
		if !strings.Contains(string(body), "results") {
			t.Errorf("request %d body = %q", i+1, body)
		}
	}

	if requestCount != 1 {
		t.Errorf("server request count = %d, want 1 (second served from cache)", requestCount)
	}
}

func TestDo_Handle304NotModified(t *testing.T) {
	redisClient := setupTestRedis(t)

	mock := testutil.NewMockAPI()
	defer mock.Close()
	mock.SetHandler("/api/episode", testutil.NewConditionalHandler(`W/"v1"`, `{"info":{"next":null},"results":[{"id":1}]}`))

	cfg := DefaultConfig()
	cfg.BaseURL = mock.BaseURL()
	cfg.Redis = redisClient
	c, err := New(cfg)
	if err != nil {
		t.Fatalf("Failed to create client: %v", err)
	}

	ctx := context.Background()
	first, err := c.Get(ctx, mock.BaseURL()+"/episode")
	if err != nil {
		t.Fatalf("first request failed: %v", err)
	}

	// max-age=0 leaves the entry stale, so the next request revalidates
	time.Sleep(10 * time.Millisecond)
	second, err := c.Get(ctx, mock.BaseURL()+"/episode")
	if err != nil {
		t.Fatalf("second request failed: %v", err)
	}

	if string(first) != string(second) {
		t.Errorf("revalidated body = %q, want %q", second, first)
	}
	if got := mock.GetConditionalCount(); got != 1 {
		t.Errorf("conditional requests = %d, want 1", got)
	}
}

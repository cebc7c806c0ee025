// Package testutil provides testing utilities for the wubba client.
package testutil

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strconv"
	"strings"
	"sync"
	"time"
)

// MockResponse defines a fixed response for a path.
type MockResponse struct {
	StatusCode int
	Body       string
	Headers    map[string]string
	Delay      time.Duration
}

// collection is one paginated endpoint served by MockAPI.
type collection struct {
	records  []map[string]any
	pageSize int
}

// MockAPI is a configurable mock of the Rick and Morty API.
//
// Collections registered with SetCollection are served under
// /api/<name>?page=N with verbatim next links, filtered by query parameters
// (case-insensitive substring on the matching field, as the real API does),
// and by id under /api/<name>/<id>.
type MockAPI struct {
	server      *httptest.Server
	mu          sync.RWMutex
	handlers    map[string]func(w http.ResponseWriter, r *http.Request)
	collections map[string]*collection

	// Tracking
	RequestCount     int
	ConditionalCount int
	RequestURIs      []string
}

// NewMockAPI creates a new mock API server.
func NewMockAPI() *MockAPI {
	mock := &MockAPI{
		handlers:    make(map[string]func(w http.ResponseWriter, r *http.Request)),
		collections: make(map[string]*collection),
	}

	mock.server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		mock.mu.Lock()
		mock.RequestCount++
		mock.RequestURIs = append(mock.RequestURIs, r.URL.RequestURI())
		if r.Header.Get("If-None-Match") != "" || r.Header.Get("If-Modified-Since") != "" {
			mock.ConditionalCount++
		}
		handler, exists := mock.handlers[r.URL.Path]
		mock.mu.Unlock()

		if exists {
			handler(w, r)
			return
		}

		mock.catalogHandler(w, r)
	}))

	return mock
}

// URL returns the mock server root URL.
func (m *MockAPI) URL() string {
	return m.server.URL
}

// BaseURL returns the API root, the equivalent of https://rickandmortyapi.com/api.
func (m *MockAPI) BaseURL() string {
	return m.server.URL + "/api"
}

// Close shuts down the mock server.
func (m *MockAPI) Close() {
	m.server.Close()
}

// Reset clears all tracking counters.
func (m *MockAPI) Reset() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.RequestCount = 0
	m.ConditionalCount = 0
	m.RequestURIs = nil
}

// GetRequestCount returns the number of requests made to the server.
func (m *MockAPI) GetRequestCount() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.RequestCount
}

// GetConditionalCount returns the number of conditional requests.
func (m *MockAPI) GetConditionalCount() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.ConditionalCount
}

// GetRequestURIs returns the request URIs in arrival order.
func (m *MockAPI) GetRequestURIs() []string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return append([]string(nil), m.RequestURIs...)
}

// SetHandler sets a custom handler for a specific path.
func (m *MockAPI) SetHandler(path string, handler func(w http.ResponseWriter, r *http.Request)) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.handlers[path] = handler
}

// SetResponse configures a fixed response for a path.
func (m *MockAPI) SetResponse(path string, resp MockResponse) {
	m.SetHandler(path, func(w http.ResponseWriter, r *http.Request) {
		if resp.Delay > 0 {
			time.Sleep(resp.Delay)
		}
		for key, value := range resp.Headers {
			w.Header().Set(key, value)
		}
		w.WriteHeader(resp.StatusCode)
		if resp.Body != "" {
			w.Write([]byte(resp.Body))
		}
	})
}

// SetCollection registers the records of a collection (e.g. "character").
// Records are any JSON-marshalable values; each needs an "id" field to be
// reachable by id. pageSize <= 0 defaults to 20, the real API's page size.
func (m *MockAPI) SetCollection(name string, records any, pageSize int) error {
	data, err := json.Marshal(records)
	if err != nil {
		return fmt.Errorf("marshal records: %w", err)
	}

	var decoded []map[string]any
	if err := json.Unmarshal(data, &decoded); err != nil {
		return fmt.Errorf("records must be a list of objects: %w", err)
	}

	if pageSize <= 0 {
		pageSize = 20
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	m.collections[name] = &collection{records: decoded, pageSize: pageSize}
	return nil
}

// catalogHandler serves registered collections.
func (m *MockAPI) catalogHandler(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")

	parts := strings.Split(strings.Trim(strings.TrimPrefix(r.URL.Path, "/api"), "/"), "/")

	m.mu.RLock()
	coll, ok := m.collections[parts[0]]
	m.mu.RUnlock()

	if !ok {
		writeError(w, http.StatusNotFound, "There is nothing here")
		return
	}

	if len(parts) == 2 {
		m.serveRecord(w, coll, parts[0], parts[1])
		return
	}

	m.servePage(w, r, coll, parts[0])
}

func (m *MockAPI) serveRecord(w http.ResponseWriter, coll *collection, name, rawID string) {
	id, err := strconv.Atoi(rawID)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Hey! you must provide an id")
		return
	}
	for _, rec := range coll.records {
		if recID, ok := rec["id"].(float64); ok && int(recID) == id {
			writeJSON(w, http.StatusOK, rec)
			return
		}
	}
	writeError(w, http.StatusNotFound, strings.ToUpper(name[:1])+name[1:]+" not found")
}

func (m *MockAPI) servePage(w http.ResponseWriter, r *http.Request, coll *collection, name string) {
	query := r.URL.Query()

	page := 1
	if p := query.Get("page"); p != "" {
		n, err := strconv.Atoi(p)
		if err != nil || n < 1 {
			writeError(w, http.StatusNotFound, "There is nothing here")
			return
		}
		page = n
	}

	matched := make([]map[string]any, 0, len(coll.records))
	for _, rec := range coll.records {
		if matchesQuery(rec, query) {
			matched = append(matched, rec)
		}
	}

	pages := (len(matched) + coll.pageSize - 1) / coll.pageSize
	filtered := len(query) > 1 || (len(query) == 1 && query.Get("page") == "")
	if filtered && len(matched) == 0 {
		writeError(w, http.StatusNotFound, "There is nothing here")
		return
	}
	if page > 1 && page > pages {
		writeError(w, http.StatusNotFound, "There is nothing here")
		return
	}

	start := (page - 1) * coll.pageSize
	end := start + coll.pageSize
	if start > len(matched) {
		start = len(matched)
	}
	if end > len(matched) {
		end = len(matched)
	}

	var next, prev any
	if page < pages {
		next = m.pageURL(name, query, page+1)
	}
	if page > 1 {
		prev = m.pageURL(name, query, page-1)
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"info": map[string]any{
			"count": len(matched),
			"pages": pages,
			"next":  next,
			"prev":  prev,
		},
		"results": matched[start:end],
	})
}

// pageURL builds the link the real API emits: page first, then the filters.
func (m *MockAPI) pageURL(name string, query url.Values, page int) string {
	filters := url.Values{}
	for key, values := range query {
		if key != "page" {
			filters[key] = values
		}
	}
	link := fmt.Sprintf("%s/%s?page=%d", m.BaseURL(), name, page)
	if encoded := filters.Encode(); encoded != "" {
		link += "&" + encoded
	}
	return link
}

// matchesQuery applies the API's filter semantics: every parameter other than
// page must be a case-insensitive substring of the same-named string field.
func matchesQuery(rec map[string]any, query url.Values) bool {
	for key := range query {
		if key == "page" {
			continue
		}
		field, ok := rec[key].(string)
		if !ok {
			return false
		}
		if !strings.Contains(strings.ToLower(field), strings.ToLower(query.Get(key))) {
			return false
		}
	}
	return true
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}

// NewJSONResponse creates a standard 200 OK JSON response.
func NewJSONResponse(data string) MockResponse {
	return MockResponse{
		StatusCode: http.StatusOK,
		Body:       data,
		Headers: map[string]string{
			"Content-Type": "application/json; charset=utf-8",
		},
	}
}

// NewErrorResponse creates an API error response such as
// 404 {"error":"There is nothing here"}.
func NewErrorResponse(status int, msg string) MockResponse {
	body, _ := json.Marshal(map[string]string{"error": msg})
	return MockResponse{
		StatusCode: status,
		Body:       string(body),
		Headers: map[string]string{
			"Content-Type": "application/json; charset=utf-8",
		},
	}
}

// NewServerErrorResponse creates a 500 response without an error body.
func NewServerErrorResponse() MockResponse {
	return MockResponse{
		StatusCode: http.StatusInternalServerError,
		Body:       `{}`,
		Headers: map[string]string{
			"Content-Type": "application/json; charset=utf-8",
		},
	}
}

// NewConditionalHandler creates a handler that responds with 304 when the
// request carries the given ETag.
func NewConditionalHandler(etag string, data string) func(w http.ResponseWriter, r *http.Request) {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json; charset=utf-8")

		if r.Header.Get("If-None-Match") == etag {
			w.Header().Set("Cache-Control", "max-age=300")
			w.WriteHeader(http.StatusNotModified)
			return
		}

		w.Header().Set("ETag", etag)
		w.Header().Set("Cache-Control", "max-age=0")
		w.WriteHeader(http.StatusOK)
		w.Write([]byte(data))
	}
}

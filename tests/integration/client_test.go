//go:build integration

package integration

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/Sternrassler/wubba/internal/testutil"
	"github.com/Sternrassler/wubba/pkg/catalog"
	"github.com/Sternrassler/wubba/pkg/client"
	"github.com/Sternrassler/wubba/pkg/dispatch"
	"github.com/Sternrassler/wubba/pkg/filter"
	"github.com/redis/go-redis/v9"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"
)

// setupRedis creates a Redis container for integration testing.
func setupRedis(t *testing.T) (*redis.Client, func()) {
	t.Helper()
	testcontainers.SkipIfProviderIsNotHealthy(t)

	ctx := context.Background()

	req := testcontainers.ContainerRequest{
		Image:        "redis:7-alpine",
		ExposedPorts: []string{"6379/tcp"},
		WaitingFor:   wait.ForLog("Ready to accept connections"),
	}

	container, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: req,
		Started:          true,
	})
	if err != nil {
		t.Fatalf("Failed to start Redis container: %v", err)
	}

	host, err := container.Host(ctx)
	if err != nil {
		t.Fatalf("Failed to get container host: %v", err)
	}

	port, err := container.MappedPort(ctx, "6379")
	if err != nil {
		t.Fatalf("Failed to get container port: %v", err)
	}

	redisClient := redis.NewClient(&redis.Options{
		Addr: host + ":" + port.Port(),
	})

	cleanup := func() {
		redisClient.Close()
		container.Terminate(ctx)
	}

	return redisClient, cleanup
}

// newDispatcher wires a cached client against the mock API.
func newDispatcher(t *testing.T, mock *testutil.MockAPI, redisClient *redis.Client, ttl time.Duration) *dispatch.Dispatcher {
	t.Helper()

	cfg := client.DefaultConfig()
	cfg.BaseURL = mock.BaseURL()
	cfg.UserAgent = "wubba-integration/1.0.0"
	cfg.Redis = redisClient
	cfg.CacheTTL = ttl

	c, err := client.New(cfg)
	if err != nil {
		t.Fatalf("Failed to create client: %v", err)
	}
	t.Cleanup(func() { c.Close() })

	if !c.CacheEnabled() {
		t.Fatal("cache should be enabled with a redis client")
	}
	return dispatch.New(c)
}

func seedLocations(t *testing.T, mock *testutil.MockAPI, n int) {
	t.Helper()
	locations := make([]catalog.Location, 0, n)
	for i := 1; i <= n; i++ {
		locations = append(locations, catalog.Location{
			ID:        i,
			Name:      "Location " + string(rune('A'+i-1)),
			Residents: make([]string, i),
		})
	}
	if err := mock.SetCollection("location", locations, 2); err != nil {
		t.Fatalf("SetCollection: %v", err)
	}
}

// TestCachedDrain tests that a second drain is served entirely from Redis.
func TestCachedDrain(t *testing.T) {
	redisClient, cleanup := setupRedis(t)
	defer cleanup()

	mock := testutil.NewMockAPI()
	defer mock.Close()
	seedLocations(t, mock, 5)

	d := newDispatcher(t, mock, redisClient, time.Hour)
	ctx := context.Background()
	cmd := dispatch.Command{Name: dispatch.CommandMatrix, Collections: []catalog.Collection{catalog.CollectionLocation}, Limit: 2}

	first, err := d.Run(ctx, cmd)
	if err != nil {
		t.Fatalf("first run failed: %v", err)
	}
	if got := mock.GetRequestCount(); got != 3 {
		t.Fatalf("first drain made %d requests, want 3 pages", got)
	}

	second, err := d.Run(ctx, cmd)
	if err != nil {
		t.Fatalf("second run failed: %v", err)
	}
	if got := mock.GetRequestCount(); got != 3 {
		t.Errorf("second drain made %d extra requests, want 0", got-3)
	}

	if len(first) != 2 || len(second) != 2 {
		t.Fatalf("rankings = %v / %v", first, second)
	}
	for i := range first {
		if first[i] != second[i] {
			t.Errorf("rank %d differs: %v vs %v", i, first[i], second[i])
		}
	}

	keys, err := redisClient.Keys(ctx, "wubba:*").Result()
	if err != nil {
		t.Fatalf("list keys: %v", err)
	}
	if len(keys) != 3 {
		t.Errorf("cached keys = %v, want one per page", keys)
	}
}

// TestRevalidation tests that stale entries with an ETag are revalidated and
// a 304 serves the cached body.
func TestRevalidation(t *testing.T) {
	redisClient, cleanup := setupRedis(t)
	defer cleanup()

	mock := testutil.NewMockAPI()
	defer mock.Close()

	mock.SetHandler("/api/episode/1", testutil.NewConditionalHandler(`"pilot-v1"`,
		`{"id":1,"name":"Pilot","air_date":"December 2, 2013","episode":"S01E01","characters":[]}`))

	d := newDispatcher(t, mock, redisClient, time.Hour)
	ctx := context.Background()
	cmd := dispatch.Command{Name: dispatch.CommandGet, Collections: []catalog.Collection{catalog.CollectionEpisode}, ID: 1}

	for i := 1; i <= 3; i++ {
		rows, err := d.Run(ctx, cmd)
		if err != nil {
			t.Fatalf("request %d failed: %v", i, err)
		}
		pilot, ok := rows[0].(catalog.Episode)
		if !ok || pilot.Name != "Pilot" || pilot.Code != "S01E01" {
			t.Fatalf("request %d returned %+v", i, rows[0])
		}
	}

	// 1: full response with max-age=0, 2: conditional 304 with max-age=300, 3: fresh hit
	if got := mock.GetRequestCount(); got != 2 {
		t.Errorf("API requests = %d, want 2", got)
	}
	if got := mock.GetConditionalCount(); got != 1 {
		t.Errorf("Conditional requests = %d, want 1", got)
	}
}

// TestFilterQueriesCachedSeparately tests that each remote query has its own entry.
func TestFilterQueriesCachedSeparately(t *testing.T) {
	redisClient, cleanup := setupRedis(t)
	defer cleanup()

	mock := testutil.NewMockAPI()
	defer mock.Close()
	characters := []catalog.Character{
		{ID: 1, Name: "Rick Sanchez", Status: "Alive", Origin: catalog.Ref{Name: "Earth (C-137)"}},
		{ID: 2, Name: "Morty Smith", Status: "Alive", Origin: catalog.Ref{Name: "unknown"}},
		{ID: 8, Name: "Adjudicator Rick", Status: "Dead", Origin: catalog.Ref{Name: "unknown"}},
	}
	if err := mock.SetCollection("character", characters, 20); err != nil {
		t.Fatalf("SetCollection: %v", err)
	}

	d := newDispatcher(t, mock, redisClient, time.Hour)
	ctx := context.Background()

	run := func(criteria filter.CharacterCriteria) []catalog.Row {
		t.Helper()
		rows, err := d.Run(ctx, dispatch.Command{
			Name:        dispatch.CommandFilter,
			Collections: []catalog.Collection{catalog.CollectionCharacter},
			Criteria:    criteria.Criteria(),
		})
		if err != nil {
			t.Fatalf("filter %+v failed: %v", criteria, err)
		}
		return rows
	}

	if rows := run(filter.CharacterCriteria{Name: "rick"}); len(rows) != 2 {
		t.Errorf("name=rick returned %d rows, want 2", len(rows))
	}
	if rows := run(filter.CharacterCriteria{Name: "rick", Status: "Dead"}); len(rows) != 1 {
		t.Errorf("name=rick&status=Dead returned %d rows, want 1", len(rows))
	}
	// Origin is local: same remote query as the first call, served from cache.
	if rows := run(filter.CharacterCriteria{Name: "rick", Origin: "unknown"}); len(rows) != 1 {
		t.Errorf("origin filter returned %d rows, want 1", len(rows))
	}

	if got := mock.GetRequestCount(); got != 2 {
		t.Errorf("API requests = %d, want 2", got)
	}
}

// TestServerErrorsNotRetriedOrCached tests that a 5xx aborts the command once
// and is fetched again on the next run.
func TestServerErrorsNotRetriedOrCached(t *testing.T) {
	redisClient, cleanup := setupRedis(t)
	defer cleanup()

	mock := testutil.NewMockAPI()
	defer mock.Close()
	mock.SetResponse("/api/episode", testutil.NewServerErrorResponse())

	d := newDispatcher(t, mock, redisClient, time.Hour)
	ctx := context.Background()
	cmd := dispatch.Command{Name: dispatch.CommandList, Collections: []catalog.Collection{catalog.CollectionEpisode}}

	for i := 1; i <= 2; i++ {
		_, err := d.Run(ctx, cmd)
		var remoteErr *client.RemoteQueryError
		if !errors.As(err, &remoteErr) {
			t.Fatalf("run %d: error = %v, want *client.RemoteQueryError", i, err)
		}
		if remoteErr.ErrorClass != client.ErrorClassServer {
			t.Errorf("run %d: class = %s, want server", i, remoteErr.ErrorClass)
		}
	}

	if got := mock.GetRequestCount(); got != 2 {
		t.Errorf("API requests = %d, want 2 (one per run, no retries)", got)
	}
}

// TestCacheExpiration tests that entries without validators are refetched
// after the TTL.
func TestCacheExpiration(t *testing.T) {
	redisClient, cleanup := setupRedis(t)
	defer cleanup()

	mock := testutil.NewMockAPI()
	defer mock.Close()
	seedLocations(t, mock, 1)

	d := newDispatcher(t, mock, redisClient, time.Second)
	ctx := context.Background()
	cmd := dispatch.Command{Name: dispatch.CommandList, Collections: []catalog.Collection{catalog.CollectionLocation}}

	if _, err := d.Run(ctx, cmd); err != nil {
		t.Fatalf("first run failed: %v", err)
	}
	if _, err := d.Run(ctx, cmd); err != nil {
		t.Fatalf("second run failed: %v", err)
	}
	if got := mock.GetRequestCount(); got != 1 {
		t.Fatalf("API requests before expiry = %d, want 1", got)
	}

	time.Sleep(1500 * time.Millisecond)

	if _, err := d.Run(ctx, cmd); err != nil {
		t.Fatalf("third run failed: %v", err)
	}
	if got := mock.GetRequestCount(); got != 2 {
		t.Errorf("API requests after expiry = %d, want 2", got)
	}
}

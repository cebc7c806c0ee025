// Package cache provides an opt-in Redis cache for raw API responses.
//
// The catalog is static between show releases, so repeated drains of the same
// collection can be served from Redis instead of walking every page again.
// The cache stores response bodies keyed by the normalized request URL; it
// never stores decoded records.
//
// # Basic Usage
//
//	redisClient := redis.NewClient(&redis.Options{Addr: "localhost:6379"})
//	manager := cache.NewManager(redisClient, time.Hour)
//
//	key, err := cache.KeyFromURL("https://rickandmortyapi.com/api/character?page=2")
//	if err != nil {
//		return err
//	}
//
//	entry, err := manager.Get(ctx, key)
//	if errors.Is(err, cache.ErrCacheMiss) {
//		// fetch from the API, then manager.Set(ctx, key, entry)
//	}
//
// # Conditional Requests
//
// Entries keep the ETag and Last-Modified headers of the response. When an
// entry has expired but is still present, AddConditionalHeaders lets the
// client revalidate it and reuse the body on 304 Not Modified.
//
// # Metrics
//
//   - wubba_cache_hits_total - Cache hits
//   - wubba_cache_misses_total - Cache misses
//   - wubba_cache_size_bytes - Bytes written to the cache
//   - wubba_cache_errors_total{operation} - Cache operation errors
package cache

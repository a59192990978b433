// Package cache provides a Redis-backed cache for upstream response bodies.
//
// Match details never change once a game has ended, so their bodies are
// cached by (regional route, match id) and served without spending upstream
// quota on repeated lookups.
//
// # Basic Usage
//
//	redisClient := redis.NewClient(&redis.Options{
//		Addr: "localhost:6379",
//	})
//
//	manager := cache.NewManager(redisClient)
//	key := cache.MatchKey("europe", "EUW1_6543210")
//
//	entry, err := manager.Get(ctx, key)
//	if errors.Is(err, cache.ErrCacheMiss) {
//		body := fetchFromUpstream()
//		_ = manager.Set(ctx, key, cache.NewEntry(body, 24*time.Hour))
//	}
//
// # Metrics
//
//   - lol_cache_hits_total{kind} - Cache hits
//   - lol_cache_misses_total{kind} - Cache misses
//   - lol_cache_stored_bytes_total{kind} - Bytes written to the cache
//   - lol_cache_errors_total{operation} - Cache operation errors
//
// Callers treat every cache error as a miss: the cache is an optimisation and
// never a source of failure.
package cache

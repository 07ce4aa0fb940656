// Package cache provides a generic TTL cache with in-memory and Redis backends.
//
// Principals loaded for auth checks and server-side sessions are kept here,
// so a single-process app can run on [Memory] while a fleet shares [Redis].
//
// TTL semantics for Set: a positive duration expires the entry after that
// long, zero uses the backend's default and a negative duration never
// expires.
//
// [Loader] collapses concurrent misses for the same key into one call:
//
//	users := cache.NewLoader(cache.NewMemory[auth.Principal](cache.WithMaxEntries(10_000)))
//	p, err := users.Get(ctx, id, 5*time.Minute, func(ctx context.Context) (auth.Principal, error) {
//	    return provider.Principal(ctx, id)
//	})
package cache

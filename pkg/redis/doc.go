// Package redis opens the go-redis client that backs the session store and
// the principal cache.
//
//	client, err := redis.Connect(ctx, cfg.Redis)
//	if err != nil {
//		return err
//	}
//	sessions := session.NewCacheStore(cache.NewRedis(client, cache.WithPrefix[*session.Session]("sess")))
//
// [Healthcheck] and [Shutdown] plug into the application's readiness checks
// and shutdown hooks.
package redis

// Package health serves liveness and readiness probes.
//
// Liveness only proves the process answers. Readiness runs every [Check]
// concurrently under one timeout and answers 503 when any fails:
//
//	r.Get("/health/live", health.Liveness())
//	r.Get("/health/ready", health.Readiness([]health.Check{
//		{Name: "postgres", Fn: db.Healthcheck(pool)},
//		{Name: "redis", Fn: redis.Healthcheck(client)},
//		{Name: "jobs", Fn: job.Healthcheck(manager)},
//	}))
//
// Responses are plain text unless the client sends Accept: application/json
// or ?format=json.
package health

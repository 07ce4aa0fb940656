// Package job runs background tasks on River, a Postgres-backed queue.
//
// Every task travels as the same River job kind and is routed to its handler
// by name, so adding a task never requires a new River worker type.
//
// # Tasks
//
// A task is any type with Name and Handle methods:
//
//	type FlushTask struct{ wh analytics.Warehouse }
//
//	func (t *FlushTask) Name() string { return "analytics_flush" }
//	func (t *FlushTask) Handle(ctx context.Context, b analytics.Batch) error {
//	    return t.wh.Store(ctx, b.Entries)
//	}
//
// Periodic tasks add a five-field cron expression:
//
//	func (t *PruneTask) Schedule() string { return "15 3 * * *" }
//	func (t *PruneTask) Handle(ctx context.Context) error { ... }
//
// # Wiring
//
//	edmunds.New(
//	    edmunds.WithJobs(pool,
//	        job.WithTask[analytics.Batch](analytics.NewFlushTask(wh)),
//	        job.WithScheduledTask(analytics.NewPruneTask(wh, 90*24*time.Hour)),
//	        job.WithQueue("log", 5),
//	    ),
//	)
//
// Registering two tasks under one name is reported by NewManager.
//
// # Enqueueing
//
//	err := c.Enqueue("analytics_flush", batch,
//	    job.InQueue("log"),
//	    job.MaxAttempts(1),
//	)
//
// EnqueueTx makes the job visible only once the surrounding transaction
// commits. Web processes that never run workers use NewEnqueuer.
//
// # Schema
//
// River keeps its state in its own tables. Migrate brings them up to date
// and is safe to run on every start.
package job

package analytics

import (
	"context"

	"github.com/edmunds-dev/edmunds/pkg/job"
)

// QueueName is the job queue analytics batches travel on.
const QueueName = "log"

// Sink delivers a batch.
type Sink interface {
	Send(ctx context.Context, b Batch) error
}

// SinkFunc adapts a function to Sink.
type SinkFunc func(ctx context.Context, b Batch) error

func (f SinkFunc) Send(ctx context.Context, b Batch) error { return f(ctx, b) }

// Queued enqueues each batch as one FlushTask job on the log queue.
// maxAttempts below 1 means 1.
func Queued(q job.Queue, maxAttempts int) Sink {
	return SinkFunc(func(ctx context.Context, b Batch) error {
		return q.Enqueue(ctx, FlushTaskName, b,
			job.InQueue(QueueName),
			job.MaxAttempts(max(maxAttempts, 1)),
		)
	})
}

// Direct stores each batch in w before returning.
func Direct(w Warehouse) Sink {
	return SinkFunc(func(ctx context.Context, b Batch) error {
		return w.Store(ctx, b.Entries)
	})
}

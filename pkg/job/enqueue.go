package job

import (
	"time"

	"github.com/riverqueue/river"
)

type enqueueOptions struct {
	scheduledAt time.Time
	queue       string
	uniqueKey   string
	tags        []string
	maxAttempts int
	uniqueFor   time.Duration
	priority    int
}

// EnqueueOption configures a single enqueued job.
type EnqueueOption func(*enqueueOptions)

// InQueue puts the job on a named queue instead of the default one.
func InQueue(name string) EnqueueOption {
	return func(o *enqueueOptions) {
		if name != "" {
			o.queue = name
		}
	}
}

// ScheduledAt delays the job until t.
func ScheduledAt(t time.Time) EnqueueOption {
	return func(o *enqueueOptions) {
		o.scheduledAt = t
	}
}

// ScheduledIn delays the job by d.
func ScheduledIn(d time.Duration) EnqueueOption {
	return ScheduledAt(time.Now().Add(d))
}

// MaxAttempts caps how many times the job runs, the first attempt included.
// MaxAttempts(1) gives fire-and-forget delivery.
func MaxAttempts(n int) EnqueueOption {
	return func(o *enqueueOptions) {
		if n > 0 {
			o.maxAttempts = n
		}
	}
}

// UniqueFor skips the job if one with the same task and key was inserted within d.
func UniqueFor(d time.Duration) EnqueueOption {
	return func(o *enqueueOptions) {
		o.uniqueFor = d
	}
}

// UniqueKey sets the key UniqueFor deduplicates on.
func UniqueKey(key string) EnqueueOption {
	return func(o *enqueueOptions) {
		o.uniqueKey = key
	}
}

// Priority orders jobs within a queue, 1 being the most urgent.
func Priority(p int) EnqueueOption {
	return func(o *enqueueOptions) {
		o.priority = p
	}
}

// Tags attaches labels to the job.
func Tags(tags ...string) EnqueueOption {
	return func(o *enqueueOptions) {
		o.tags = append(o.tags, tags...)
	}
}

func (o *enqueueOptions) insertOpts() *river.InsertOpts {
	opts := &river.InsertOpts{
		Queue:       o.queue,
		ScheduledAt: o.scheduledAt,
		MaxAttempts: o.maxAttempts,
		Tags:        o.tags,
	}
	if o.priority > 0 {
		opts.Priority = o.priority
	}
	if o.uniqueFor > 0 {
		opts.UniqueOpts = river.UniqueOpts{ByPeriod: o.uniqueFor}
	}
	return opts
}

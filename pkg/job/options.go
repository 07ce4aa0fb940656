package job

import (
	"context"
	"log/slog"
)

type config struct {
	registry   *registry
	queues     map[string]int
	logger     *slog.Logger
	schedules  []schedule
	errs       []error
	maxWorkers int
}

func newConfig() *config {
	return &config{
		registry: newRegistry(),
		queues:   make(map[string]int),
	}
}

type schedule struct {
	handle func(context.Context) error
	name   string
	expr   string
}

// Option configures a Manager.
type Option func(*config)

// WithTask registers a task. The payload type must be given explicitly:
//
//	job.WithTask[analytics.Batch](analytics.NewFlushTask(wh))
func WithTask[P any](task Task[P]) Option {
	return func(c *config) {
		if err := c.registry.add(task.Name(), typedTask[P]{task: task}); err != nil {
			c.errs = append(c.errs, err)
		}
	}
}

// WithScheduledTask registers a periodic task. Its Schedule is a five-field
// cron expression (minute hour day month weekday).
func WithScheduledTask(task ScheduledTask) Option {
	return func(c *config) {
		c.schedules = append(c.schedules, schedule{
			name:   task.Name(),
			expr:   task.Schedule(),
			handle: task.Handle,
		})
	}
}

// WithQueue adds a named queue served by the given number of workers.
func WithQueue(name string, workers int) Option {
	return func(c *config) {
		if name != "" && workers > 0 {
			c.queues[name] = workers
		}
	}
}

// WithLogger sets the logger used by the manager and River.
func WithLogger(l *slog.Logger) Option {
	return func(c *config) {
		if l != nil {
			c.logger = l
		}
	}
}

// WithMaxWorkers sets the worker count of the default queue. Defaults to 100.
func WithMaxWorkers(n int) Option {
	return func(c *config) {
		if n > 0 {
			c.maxWorkers = n
		}
	}
}

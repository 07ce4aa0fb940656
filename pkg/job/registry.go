package job

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"maps"
	"slices"
	"sync"
)

// Task handles jobs carrying a payload of type P.
type Task[P any] interface {
	Name() string
	Handle(ctx context.Context, payload P) error
}

// ScheduledTask runs on a cron schedule and takes no payload.
type ScheduledTask interface {
	Name() string
	Schedule() string
	Handle(ctx context.Context) error
}

// executor runs a task against its raw JSON payload.
type executor interface {
	Execute(ctx context.Context, raw json.RawMessage) error
}

type registry struct {
	tasks map[string]executor
	mu    sync.RWMutex
}

func newRegistry() *registry {
	return &registry{tasks: make(map[string]executor)}
}

func (r *registry) add(name string, e executor) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if name == "" {
		return fmt.Errorf("%w: empty name", ErrUnknownTask)
	}
	if _, dup := r.tasks[name]; dup {
		return fmt.Errorf("%w: %s", ErrDuplicateTask, name)
	}
	r.tasks[name] = e
	return nil
}

func (r *registry) lookup(name string) (executor, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	e, ok := r.tasks[name]
	return e, ok
}

// names returns registered task names in sorted order.
func (r *registry) names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return slices.Sorted(maps.Keys(r.tasks))
}

// typedTask decodes the payload before handing it to the task.
type typedTask[P any] struct {
	task Task[P]
}

func (t typedTask[P]) Execute(ctx context.Context, raw json.RawMessage) error {
	var payload P
	if len(raw) > 0 {
		if err := json.Unmarshal(raw, &payload); err != nil {
			return errors.Join(ErrInvalidPayload, err)
		}
	}
	return t.task.Handle(ctx, payload)
}

// periodicTask ignores whatever payload the job carries.
type periodicTask struct {
	handle func(context.Context) error
}

func (t periodicTask) Execute(ctx context.Context, _ json.RawMessage) error {
	return t.handle(ctx)
}

package analytics

import (
	"context"
	"log/slog"
	"time"
)

const (
	FlushTaskName = "analytics_flush"
	PruneTaskName = "analytics_prune"
)

// FlushTask stores queued batches.
type FlushTask struct {
	warehouse Warehouse
}

// NewFlushTask creates a task that stores batches in w.
func NewFlushTask(w Warehouse) *FlushTask { return &FlushTask{warehouse: w} }

// Name returns the job kind.
func (t *FlushTask) Name() string { return FlushTaskName }

// Handle stores the batch. Empty batches are skipped.
func (t *FlushTask) Handle(ctx context.Context, b Batch) error {
	if len(b.Entries) == 0 {
		return nil
	}
	return t.warehouse.Store(ctx, b.Entries)
}

// PruneTask deletes entries older than the retention window every night.
type PruneTask struct {
	warehouse Warehouse
	logger    *slog.Logger
	now       func() time.Time
	retention time.Duration
}

// NewPruneTask creates a task that drops entries older than retention.
// A nil logger means slog.Default.
func NewPruneTask(w Warehouse, retention time.Duration, logger *slog.Logger) *PruneTask {
	if logger == nil {
		logger = slog.Default()
	}
	return &PruneTask{warehouse: w, retention: retention, logger: logger, now: time.Now}
}

// Name returns the job kind.
func (t *PruneTask) Name() string { return PruneTaskName }

// Schedule runs the task at 03:15 every day.
func (t *PruneTask) Schedule() string { return "15 3 * * *" }

// Handle prunes the warehouse. A non-positive retention keeps everything.
func (t *PruneTask) Handle(ctx context.Context) error {
	if t.retention <= 0 {
		return nil
	}
	before := t.now().Add(-t.retention)
	n, err := t.warehouse.Prune(ctx, before)
	if err != nil {
		return err
	}
	t.logger.InfoContext(ctx, "analytics pruned", slog.Int64("deleted", n), slog.Time("before", before))
	return nil
}

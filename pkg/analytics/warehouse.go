package analytics

import (
	"context"
	"errors"
	"log/slog"
	"time"
)

// Batch is the unit of delivery: every entry of one request.
type Batch struct {
	Entries []Entry `json:"entries"`
}

// Warehouse stores entries.
type Warehouse interface {
	Store(ctx context.Context, entries []Entry) error
	// Prune deletes entries older than before and returns how many.
	Prune(ctx context.Context, before time.Time) (int64, error)
}

// SlogWarehouse writes entries to a logger and keeps nothing.
// A nil Logger means slog.Default.
type SlogWarehouse struct {
	Logger *slog.Logger
}

// Store logs every entry at info level.
func (w SlogWarehouse) Store(ctx context.Context, entries []Entry) error {
	log := w.Logger
	if log == nil {
		log = slog.Default()
	}
	for _, e := range entries {
		log.InfoContext(ctx, "analytics",
			slog.String("id", e.ID),
			slog.String("kind", string(e.Kind)),
			slog.Time("time", e.Time),
			slog.String("visitor_id", e.VisitorID),
			slog.String("user_id", e.UserID),
			slog.String("transaction", e.Transaction),
			slog.Any("payload", e.Payload()),
		)
	}
	return nil
}

// Prune is a no-op.
func (SlogWarehouse) Prune(context.Context, time.Time) (int64, error) { return 0, nil }

// Fanout stores every batch in each warehouse. Errors are joined and Prune
// sums what every warehouse deleted.
type Fanout []Warehouse

// Store writes entries to every warehouse, even after a failure.
func (f Fanout) Store(ctx context.Context, entries []Entry) error {
	var errs []error
	for _, w := range f {
		errs = append(errs, w.Store(ctx, entries))
	}
	return errors.Join(errs...)
}

// Prune prunes every warehouse.
func (f Fanout) Prune(ctx context.Context, before time.Time) (int64, error) {
	var (
		total int64
		errs  []error
	)
	for _, w := range f {
		n, err := w.Prune(ctx, before)
		total += n
		errs = append(errs, err)
	}
	return total, errors.Join(errs...)
}

package analytics

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"sync"
	"time"

	"github.com/edmunds-dev/edmunds/pkg/id"
	"github.com/edmunds-dev/edmunds/pkg/routing"
)

// Tracker buffers the entries of one request.
type Tracker struct {
	sink      Sink
	now       func() time.Time
	entries   []Entry
	visitorID string
	userID    string
	mu        sync.Mutex
}

// NewTracker creates a tracker for visitorID. A nil sink discards entries.
func NewTracker(sink Sink, visitorID string) *Tracker {
	return &Tracker{sink: sink, visitorID: visitorID, now: time.Now}
}

// SetUser attributes entries recorded from now on to userID.
func (t *Tracker) SetUser(userID string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.userID = userID
}

// VisitorID returns the visitor the tracker was created for.
func (t *Tracker) VisitorID() string { return t.visitorID }

// Error records err as a server-side error.
func (t *Tracker) Error(ctx context.Context, err error) error {
	if err == nil {
		return nil
	}
	return t.ErrorLog(ctx, ErrorLog{Type: fmt.Sprintf("%T", unwrapLast(err)), Message: err.Error()})
}

// ErrorLog records a client-reported error.
func (t *Tracker) ErrorLog(ctx context.Context, l ErrorLog) error {
	return t.record(ctx, Entry{Kind: KindError, Error: &l}, l)
}

// Event records a user interaction.
func (t *Tracker) Event(ctx context.Context, l EventLog) error {
	return t.record(ctx, Entry{Kind: KindEvent, Event: &l}, l)
}

// Pageview records a page view.
func (t *Tracker) Pageview(ctx context.Context, l PageviewLog) error {
	return t.record(ctx, Entry{Kind: KindPageview, Pageview: &l}, l)
}

// Ecommerce drops invalid items and records the order.
func (t *Tracker) Ecommerce(ctx context.Context, l EcommerceLog) error {
	l.Items = slices.Clone(l.Items)
	l.ValidItems()
	return t.record(ctx, Entry{Kind: KindEcommerce, Ecommerce: &l}, l)
}

func (t *Tracker) record(ctx context.Context, e Entry, payload any) error {
	if err := Validate(payload); err != nil {
		return err
	}

	t.mu.Lock()
	defer t.mu.Unlock()

	e.ID = id.NewULID()
	e.Time = t.now().UTC()
	e.VisitorID = t.visitorID
	e.UserID = t.userID
	e.Transaction = routing.Transaction(ctx)
	t.entries = append(t.entries, e)
	return nil
}

// Len returns the number of buffered entries.
func (t *Tracker) Len() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return len(t.entries)
}

// Flush hands the buffered entries to the sink as one batch and empties
// the buffer. It is a no-op when nothing was recorded.
func (t *Tracker) Flush(ctx context.Context) error {
	t.mu.Lock()
	entries := t.entries
	t.entries = nil
	t.mu.Unlock()

	if len(entries) == 0 || t.sink == nil {
		return nil
	}
	return t.sink.Send(ctx, Batch{Entries: entries})
}

type trackerKey struct{}

// WithTracker stores t in ctx.
func WithTracker(ctx context.Context, t *Tracker) context.Context {
	return context.WithValue(ctx, trackerKey{}, t)
}

// TrackerKey returns the context key WithTracker stores under, for
// frameworks that set request values by key.
func TrackerKey() any { return trackerKey{} }

// TrackerFrom returns the request tracker, or a discarding one.
func TrackerFrom(ctx context.Context) *Tracker {
	if t, ok := ctx.Value(trackerKey{}).(*Tracker); ok {
		return t
	}
	return NewTracker(nil, "")
}

func unwrapLast(err error) error {
	for {
		next := errors.Unwrap(err)
		if next == nil {
			return err
		}
		err = next
	}
}

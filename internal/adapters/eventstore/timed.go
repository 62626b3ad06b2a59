package eventstore

import (
	"context"
	"errors"
	"time"

	"github.com/okian/suggest/internal/domain/model"
)

// Timed bounds every call on the wrapped store with a timeout. A call that
// runs out of time fails with ErrStorageUnavailable.
type Timed struct {
	next    Store
	timeout time.Duration
}

// NewTimed wraps next. A non-positive timeout disables the bound.
func NewTimed(next Store, timeout time.Duration) *Timed {
	return &Timed{next: next, timeout: timeout}
}

func (t *Timed) withTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	if t.timeout <= 0 {
		return ctx, func() {}
	}
	return context.WithTimeout(ctx, t.timeout)
}

// Record implements Store.Record.
func (t *Timed) Record(ctx context.Context, e model.Event) error {
	ctx, cancel := t.withTimeout(ctx)
	defer cancel()
	return timeoutErr("record", t.next.Record(ctx, e))
}

// Query implements Store.Query.
func (t *Timed) Query(ctx context.Context, suggestionID string, w model.Window) ([]model.Event, error) {
	ctx, cancel := t.withTimeout(ctx)
	defer cancel()
	events, err := t.next.Query(ctx, suggestionID, w)
	if err != nil {
		return nil, timeoutErr("query", err)
	}
	return events, nil
}

// Prune implements Store.Prune.
func (t *Timed) Prune(ctx context.Context, cutoff time.Time) (int, error) {
	ctx, cancel := t.withTimeout(ctx)
	defer cancel()
	n, err := t.next.Prune(ctx, cutoff)
	return n, timeoutErr("prune", err)
}

// Count implements Store.Count.
func (t *Timed) Count(ctx context.Context) (int, error) {
	ctx, cancel := t.withTimeout(ctx)
	defer cancel()
	n, err := t.next.Count(ctx)
	return n, timeoutErr("count", err)
}

// Close closes the wrapped store.
func (t *Timed) Close() error { return t.next.Close() }

func timeoutErr(op string, err error) error {
	if err == nil || errors.Is(err, ErrStorageUnavailable) {
		return err
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return unavailable(op, err)
	}
	return err
}

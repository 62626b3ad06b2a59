package eventstore

import (
	"context"
	"time"

	"github.com/okian/suggest/internal/domain/model"
	"github.com/okian/suggest/pkg/metrics"
)

// Instrumented records latency and error metrics for every call on the
// wrapped store, labelled by backend name.
type Instrumented struct {
	next    Store
	backend string
}

// NewInstrumented wraps next.
func NewInstrumented(next Store, backend string) *Instrumented {
	return &Instrumented{next: next, backend: backend}
}

func (s *Instrumented) observe(op string, start time.Time, err error) {
	metrics.RecordStoreLatency(s.backend, op, float64(time.Since(start).Microseconds())/1000)
	if err != nil {
		metrics.RecordStoreError(s.backend, op)
	}
}

// Record implements Store.Record.
func (s *Instrumented) Record(ctx context.Context, e model.Event) error {
	start := time.Now()
	err := s.next.Record(ctx, e)
	s.observe("record", start, err)
	if err == nil {
		metrics.RecordEventRecorded(string(e.Type))
	}
	return err
}

// Query implements Store.Query.
func (s *Instrumented) Query(ctx context.Context, suggestionID string, w model.Window) ([]model.Event, error) {
	start := time.Now()
	events, err := s.next.Query(ctx, suggestionID, w)
	s.observe("query", start, err)
	return events, err
}

// Prune implements Store.Prune.
func (s *Instrumented) Prune(ctx context.Context, cutoff time.Time) (int, error) {
	start := time.Now()
	n, err := s.next.Prune(ctx, cutoff)
	s.observe("prune", start, err)
	if n > 0 {
		metrics.RecordEventsPruned(n)
	}
	return n, err
}

// Count implements Store.Count.
func (s *Instrumented) Count(ctx context.Context) (int, error) {
	start := time.Now()
	n, err := s.next.Count(ctx)
	s.observe("count", start, err)
	return n, err
}

// Close closes the wrapped store.
func (s *Instrumented) Close() error { return s.next.Close() }

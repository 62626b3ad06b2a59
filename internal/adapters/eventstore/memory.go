package eventstore

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/okian/suggest/internal/domain/model"
)

// MemoryStore keeps the history in process. Each suggestion owns an append
// log kept sorted by timestamp; one RWMutex guards all logs.
type MemoryStore struct {
	mu     sync.RWMutex
	logs   map[string][]model.Event
	seen   map[string]struct{}
	total  int
	closed bool
}

// NewMemoryStore constructs an empty in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		logs: make(map[string][]model.Event),
		seen: make(map[string]struct{}),
	}
}

// Record implements Store.Record.
func (s *MemoryStore) Record(ctx context.Context, e model.Event) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	e = prepare(e)

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return ErrClosed
	}
	if _, dup := s.seen[e.ID]; dup {
		return nil
	}
	s.seen[e.ID] = struct{}{}

	log := s.logs[e.SuggestionID]
	// Insert after every event with ts <= e.TS so ties keep arrival order.
	i := sort.Search(len(log), func(i int) bool { return log[i].TS.After(e.TS) })
	log = append(log, model.Event{})
	copy(log[i+1:], log[i:])
	log[i] = e
	s.logs[e.SuggestionID] = log
	s.total++
	return nil
}

// Query implements Store.Query. The result is a copy.
func (s *MemoryStore) Query(ctx context.Context, suggestionID string, w model.Window) ([]model.Event, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	suggestionID = model.NormalizeIdentifier(suggestionID)

	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.closed {
		return nil, ErrClosed
	}

	log := s.logs[suggestionID]
	lo := 0
	if !w.From.IsZero() {
		lo = sort.Search(len(log), func(i int) bool { return !log[i].TS.Before(w.From) })
	}
	hi := len(log)
	if !w.To.IsZero() {
		hi = sort.Search(len(log), func(i int) bool { return log[i].TS.After(w.To) })
	}
	if lo >= hi {
		return []model.Event{}, nil
	}
	out := make([]model.Event, hi-lo)
	copy(out, log[lo:hi])
	return out, nil
}

// Prune implements Store.Prune.
func (s *MemoryStore) Prune(ctx context.Context, cutoff time.Time) (int, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return 0, ErrClosed
	}

	removed := 0
	for id, log := range s.logs {
		n := sort.Search(len(log), func(i int) bool { return !log[i].TS.Before(cutoff) })
		if n == 0 {
			continue
		}
		for _, e := range log[:n] {
			delete(s.seen, e.ID)
		}
		removed += n
		if n == len(log) {
			delete(s.logs, id)
			continue
		}
		s.logs[id] = append([]model.Event(nil), log[n:]...)
	}
	s.total -= removed
	return removed, nil
}

// Count implements Store.Count.
func (s *MemoryStore) Count(_ context.Context) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.total, nil
}

// Close releases the history. Further calls fail with ErrClosed.
func (s *MemoryStore) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closed = true
	s.logs = nil
	s.seen = nil
	return nil
}

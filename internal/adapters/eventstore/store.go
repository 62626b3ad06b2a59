// Package eventstore persists suggestion interaction events and serves
// per-suggestion history queries.
package eventstore

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/okian/suggest/internal/domain/model"
)

// Store provides read/write access to the interaction history.
type Store interface {
	// Record appends an event. Empty suggestion ids are stored under
	// model.UnknownIdentifier; an empty event id is generated. Recording an
	// event id that is already present is a no-op.
	Record(ctx context.Context, e model.Event) error

	// Query returns the events of one suggestion inside w, ascending by
	// timestamp with ties in insertion order. Unknown ids yield an empty slice.
	Query(ctx context.Context, suggestionID string, w model.Window) ([]model.Event, error)

	// Prune deletes events strictly older than cutoff and reports how many
	// were removed.
	Prune(ctx context.Context, cutoff time.Time) (int, error)

	// Count returns the number of stored events.
	Count(ctx context.Context) (int, error)

	Close() error
}

// prepare fills in the defaults every backend applies before writing.
func prepare(e model.Event) model.Event {
	if strings.TrimSpace(e.ID) == "" {
		e.ID = uuid.NewString()
	}
	e.SuggestionID = model.NormalizeIdentifier(e.SuggestionID)
	if e.TS.IsZero() {
		e.TS = time.Now()
	}
	e.TS = e.TS.UTC()
	return e
}

package lifecycle

import (
	"context"
	"fmt"

	"github.com/jonboulle/clockwork"

	"github.com/okian/suggest/internal/domain/model"
	"github.com/okian/suggest/pkg/logger"
	"github.com/okian/suggest/pkg/metrics"
)

// DismissOption applies a configuration option to the Dismisser.
type DismissOption func(*Dismisser)

// WithDismissClock sets the clock that stamps DISMISSED events.
func WithDismissClock(c clockwork.Clock) DismissOption {
	return func(d *Dismisser) {
		if c != nil {
			d.clock = c
		}
	}
}

// WithDismissLogger sets a custom logger.
func WithDismissLogger(l logger.Logger) DismissOption {
	return func(d *Dismisser) {
		if l != nil {
			d.logger = l
		}
	}
}

// Dismisser handles a user dismissing a suggestion.
type Dismisser struct {
	resolver  *Resolver
	store     Recorder
	host      HostActions
	telemetry Telemetry
	policy    Policy
	clock     clockwork.Clock
	logger    logger.Logger
}

// NewDismisser wires a dismisser from its collaborators.
func NewDismisser(r *Resolver, store Recorder, host HostActions, t Telemetry, p Policy, opts ...DismissOption) *Dismisser {
	d := &Dismisser{
		resolver:  r,
		store:     store,
		host:      host,
		telemetry: t,
		policy:    p,
		clock:     clockwork.NewRealClock(),
		logger:    logger.Get().Named("dismiss"),
	}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// Dismiss reports the action, and when advanced ranking is enabled records a
// DISMISSED event and disables the host component. It returns whether the
// dismissal was acted on. A failed event write is logged and does not stop
// the host action; only a failed disable yields ErrDisableFailed.
func (d *Dismisser) Dismiss(ctx context.Context, c model.Candidate) (bool, error) {
	id := d.resolver.Resolve(c)
	d.telemetry.RecordAction(ctx, ActionDismiss, id)

	if !d.policy.IsAdvancedRankingEnabled() {
		d.logger.Debug(ctx, "advanced ranking disabled, dismissal not recorded", logger.String("suggestion", id))
		return false, nil
	}

	err := d.store.Record(ctx, model.Event{
		SuggestionID: id,
		Type:         model.EventDismissed,
		TS:           d.clock.Now().UTC(),
	})
	if err != nil {
		// Recording is best effort; the host action still runs.
		metrics.RecordErrorByComponent("dismiss", "record_failed")
		d.logger.Warn(ctx, "record dismissal failed", logger.String("suggestion", id), logger.Error(err))
	}

	if !d.host.ComponentExists(ctx, id) {
		return true, nil
	}
	if err := d.host.DisableComponent(ctx, id); err != nil {
		d.logger.Error(ctx, "disable component failed", logger.String("suggestion", id), logger.Error(err))
		return false, fmt.Errorf("%w: %q: %w", ErrDisableFailed, id, err)
	}
	return true, nil
}

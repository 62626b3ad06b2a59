package eventstore

import (
	"context"
	"sync"
	"time"

	"github.com/jonboulle/clockwork"

	"github.com/okian/suggest/pkg/logger"
)

// Default retention configuration.
const (
	defaultPruneInterval = time.Hour
	defaultRetention     = 90 * 24 * time.Hour
)

// RetentionOption applies a configuration option to the Retention loop.
type RetentionOption func(*Retention)

// WithRetention sets how long events are kept.
func WithRetention(d time.Duration) RetentionOption {
	return func(r *Retention) {
		if d > 0 {
			r.retention = d
		}
	}
}

// WithPruneInterval sets how often the loop prunes.
func WithPruneInterval(d time.Duration) RetentionOption {
	return func(r *Retention) {
		if d > 0 {
			r.interval = d
		}
	}
}

// WithRetentionClock replaces the wall clock, mainly for tests.
func WithRetentionClock(c clockwork.Clock) RetentionOption {
	return func(r *Retention) {
		if c != nil {
			r.clock = c
		}
	}
}

// WithRetentionLogger sets a custom logger.
func WithRetentionLogger(l logger.Logger) RetentionOption {
	return func(r *Retention) {
		if l != nil {
			r.logger = l
		}
	}
}

// Retention periodically deletes events older than the retention period.
type Retention struct {
	store     Store
	retention time.Duration
	interval  time.Duration
	clock     clockwork.Clock
	logger    logger.Logger

	wg       sync.WaitGroup
	stopOnce sync.Once
	stopChan chan struct{}
}

// NewRetention creates a retention loop over store. Call Start to run it.
func NewRetention(store Store, opts ...RetentionOption) *Retention {
	r := &Retention{
		store:     store,
		retention: defaultRetention,
		interval:  defaultPruneInterval,
		clock:     clockwork.NewRealClock(),
		logger:    logger.Get().Named("retention"),
		stopChan:  make(chan struct{}),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Start runs the prune loop until ctx is canceled or Stop is called.
func (r *Retention) Start(ctx context.Context) {
	r.wg.Add(1)
	go func() {
		defer r.wg.Done()
		ticker := r.clock.NewTicker(r.interval)
		defer ticker.Stop()

		for {
			select {
			case <-ctx.Done():
				return
			case <-r.stopChan:
				return
			case <-ticker.Chan():
				r.PruneOnce(ctx)
			}
		}
	}()
}

// PruneOnce deletes everything older than now minus the retention period.
func (r *Retention) PruneOnce(ctx context.Context) int {
	cutoff := r.clock.Now().Add(-r.retention)
	n, err := r.store.Prune(ctx, cutoff)
	if err != nil {
		r.logger.Warn(ctx, "prune failed", logger.Time("cutoff", cutoff), logger.Error(err))
		return n
	}
	if n > 0 {
		r.logger.Debug(ctx, "pruned events", logger.Int("count", n), logger.Time("cutoff", cutoff))
	}
	return n
}

// Stop halts the loop and waits for it to exit.
func (r *Retention) Stop() {
	r.stopOnce.Do(func() { close(r.stopChan) })
	r.wg.Wait()
}

package features

import (
	"context"
	"fmt"
	"math"
	"time"

	"github.com/okian/suggest/internal/domain/model"
	"github.com/okian/suggest/pkg/logger"
)

// Default featurizer configuration.
const (
	defaultHalfLife = 72 * time.Hour
	hoursPerDay     = 24.0
)

// HistoryReader is the read side of the event store used by the featurizer.
type HistoryReader interface {
	Query(ctx context.Context, suggestionID string, w model.Window) ([]model.Event, error)
}

// Option applies a configuration option to the Featurizer.
type Option func(*Featurizer)

// WithHalfLife sets the half-life of the click recency decay.
func WithHalfLife(d time.Duration) Option {
	return func(f *Featurizer) {
		if d > 0 {
			f.halfLife = d
		}
	}
}

// WithHistoryWindow limits history to events no older than d before asOf.
// Zero means the full history.
func WithHistoryWindow(d time.Duration) Option {
	return func(f *Featurizer) {
		if d >= 0 {
			f.window = d
		}
	}
}

// WithLogger sets the logger that reports swallowed history failures.
func WithLogger(l logger.Logger) Option {
	return func(f *Featurizer) {
		if l != nil {
			f.logger = l
		}
	}
}

// Featurizer turns event history into feature vectors. It holds no mutable
// state and is safe for concurrent use.
type Featurizer struct {
	history  HistoryReader
	halfLife time.Duration
	window   time.Duration
	logger   logger.Logger
}

// New creates a featurizer reading history from h.
func New(h HistoryReader, opts ...Option) *Featurizer {
	f := &Featurizer{
		history:  h,
		halfLife: defaultHalfLife,
	}
	for _, opt := range opts {
		opt(f)
	}
	return f
}

// Featurize returns the feature vector for suggestionID as of asOf. History
// read failures yield Default().
func (f *Featurizer) Featurize(ctx context.Context, suggestionID string, asOf time.Time) Vector {
	v, err := f.FeaturizeErr(ctx, suggestionID, asOf)
	if err != nil {
		if f.logger != nil {
			f.logger.Warn(ctx, "history unavailable, using default features",
				logger.String("suggestion", suggestionID), logger.Error(err))
		}
		return Default()
	}
	return v
}

// FeaturizeErr is Featurize but reports history read failures. The returned
// vector is Default() whenever err is non-nil.
func (f *Featurizer) FeaturizeErr(ctx context.Context, suggestionID string, asOf time.Time) (Vector, error) {
	w := model.Window{To: asOf}
	if f.window > 0 {
		w.From = asOf.Add(-f.window)
	}
	events, err := f.history.Query(ctx, suggestionID, w)
	if err != nil {
		return Default(), fmt.Errorf("featurize %q: %w", suggestionID, err)
	}
	return Compute(events, asOf, f.halfLife), nil
}

// Compute derives a vector from events. Events after asOf and events of
// unknown type are ignored. A non-positive halfLife uses the default.
func Compute(events []model.Event, asOf time.Time, halfLife time.Duration) Vector {
	if halfLife <= 0 {
		halfLife = defaultHalfLife
	}

	var (
		shown, clicks, dismissed int
		lastClick                time.Time
		clicked                  bool
	)
	for _, e := range events {
		if e.TS.After(asOf) {
			continue
		}
		switch e.Type {
		case model.EventShown:
			shown++
		case model.EventClicked:
			clicks++
			if !clicked || e.TS.After(lastClick) {
				lastClick = e.TS
				clicked = true
			}
		case model.EventDismissed:
			dismissed++
		}
	}

	v := Default()
	v[ShownCount] = float64(shown)
	v[ClickCount] = float64(clicks)
	v[DismissCount] = float64(dismissed)
	// Clicks without a recorded impression do not count toward the rate.
	if shown > 0 {
		v[ClickThroughRate] = math.Min(1, float64(clicks)/float64(shown))
	}

	if clicked {
		age := asOf.Sub(lastClick)
		if age < 0 {
			age = 0
		}
		v[RecencyScore] = math.Exp2(-float64(age) / float64(halfLife))
		v[DaysSinceLastClick] = math.Min(MaxDaysSinceClick, age.Hours()/hoursPerDay)
	}

	v.sanitize()
	return v
}

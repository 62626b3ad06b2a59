// Package ranking orders suggestion candidates by a weighted score over their
// feature vectors.
package ranking

import (
	"context"
	"sort"
	"time"

	"github.com/jonboulle/clockwork"

	"github.com/okian/suggest/internal/domain/features"
	"github.com/okian/suggest/internal/domain/model"
	"github.com/okian/suggest/pkg/logger"
	"github.com/okian/suggest/pkg/metrics"
)

// Featurizer produces a feature vector for one suggestion. A non-nil error
// means the vector could not be derived from history.
type Featurizer interface {
	FeaturizeErr(ctx context.Context, suggestionID string, asOf time.Time) (features.Vector, error)
}

// Scored is one ranked candidate with the inputs of its score.
type Scored struct {
	Candidate model.Candidate
	Score     float64
	Features  features.Vector
	// Fallback is true when Features is the default vector substituted for a
	// failed history lookup.
	Fallback bool
}

// Option applies a configuration option to the Ranker.
type Option func(*Ranker)

// WithWeights sets the weight vector. Invalid weights are rejected by New.
func WithWeights(w Weights) Option {
	return func(r *Ranker) { r.weights = w }
}

// WithClock sets the clock used for "now".
func WithClock(c clockwork.Clock) Option {
	return func(r *Ranker) {
		if c != nil {
			r.clock = c
		}
	}
}

// WithLogger sets a custom logger for the ranker.
func WithLogger(l logger.Logger) Option {
	return func(r *Ranker) {
		if l != nil {
			r.logger = l
		}
	}
}

// Ranker holds no mutable state; concurrent Rank calls are independent.
type Ranker struct {
	featurizer Featurizer
	weights    Weights
	clock      clockwork.Clock
	logger     logger.Logger
}

// New creates a ranker. It fails with ErrConfiguration for invalid weights.
func New(f Featurizer, opts ...Option) (*Ranker, error) {
	r := &Ranker{
		featurizer: f,
		weights:    DefaultWeights(),
		clock:      clockwork.NewRealClock(),
	}
	for _, opt := range opts {
		opt(r)
	}
	if err := r.weights.Validate(); err != nil {
		return nil, err
	}
	return r, nil
}

// Weights returns the configured weight vector.
func (r *Ranker) Weights() Weights { return r.weights }

// Rank returns candidates in descending score order. Equal scores keep their
// input order. The input slice is not modified.
func (r *Ranker) Rank(ctx context.Context, candidates []model.Candidate) []model.Candidate {
	scored := r.Scored(ctx, candidates)
	out := make([]model.Candidate, len(scored))
	for i, s := range scored {
		out[i] = s.Candidate
	}
	return out
}

// Scored is Rank with each candidate's score and features attached.
func (r *Ranker) Scored(ctx context.Context, candidates []model.Candidate) []Scored {
	start := r.clock.Now()
	out := make([]Scored, len(candidates))
	if len(candidates) == 0 {
		return out
	}

	asOf := start.UTC()
	fallbacks := 0
	for i, c := range candidates {
		v, err := r.featurizer.FeaturizeErr(ctx, c.Identifier, asOf)
		if err != nil {
			v = features.Default()
			fallbacks++
			metrics.RecordFeaturizeFallback()
			if r.logger != nil {
				r.logger.Warn(ctx, "history unavailable; ranking with default features",
					logger.String("identifier", c.Identifier),
					logger.Error(err),
				)
			}
		}
		out[i] = Scored{Candidate: c, Score: r.weights.Score(v), Features: v, Fallback: err != nil}
	}

	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Score > out[j].Score
	})

	metrics.RecordCandidatesRanked(len(candidates))
	metrics.RecordRankingLatency(float64(r.clock.Since(start).Microseconds()) / 1000)
	if r.logger != nil {
		r.logger.Debug(ctx, "ranked suggestions",
			logger.Int("candidates", len(candidates)),
			logger.Int("fallbacks", fallbacks),
		)
	}
	return out
}

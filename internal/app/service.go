// Package service wires the event store, ranking and lifecycle components
// into the operations served by the HTTP API.
package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/google/uuid"
	"github.com/jonboulle/clockwork"

	"github.com/okian/suggest/internal/adapters/eventstore"
	"github.com/okian/suggest/internal/adapters/host"
	eventqueue "github.com/okian/suggest/internal/adapters/mq/queue"
	workerpool "github.com/okian/suggest/internal/adapters/mq/worker"
	"github.com/okian/suggest/internal/config"
	"github.com/okian/suggest/internal/domain/dedupe"
	"github.com/okian/suggest/internal/domain/features"
	"github.com/okian/suggest/internal/domain/lifecycle"
	"github.com/okian/suggest/internal/domain/model"
	"github.com/okian/suggest/internal/domain/ranking"
	"github.com/okian/suggest/internal/domain/types"
	"github.com/okian/suggest/pkg/logger"
	"github.com/okian/suggest/pkg/metrics"
)

// Service implements the API dependencies for the suggestion ranker.
type Service struct {
	mu sync.RWMutex

	cfg    *config.Config
	clock  clockwork.Clock
	logger logger.Logger

	// Core components
	store      eventstore.Store
	ownStore   bool
	retention  *eventstore.Retention
	deduper    dedupe.Deduper
	eventQueue *eventqueue.InMemoryQueue
	workerPool *workerpool.Pool
	featurizer *features.Featurizer
	ranker     *ranking.Ranker
	resolver   *lifecycle.Resolver
	dismisser  *lifecycle.Dismisser
	registry   *host.Registry

	started bool
}

// Option applies a configuration option to the Service.
type Option func(*Service)

// WithConfig sets the configuration. Defaults to config.New.
func WithConfig(cfg *config.Config) Option {
	return func(s *Service) {
		if cfg != nil {
			s.cfg = cfg
		}
	}
}

// WithStore injects an event store instead of opening one from config. The
// caller keeps ownership and closes it.
func WithStore(store eventstore.Store) Option {
	return func(s *Service) {
		if store != nil {
			s.store = store
		}
	}
}

// WithClock sets the clock used for ranking and event timestamps.
func WithClock(c clockwork.Clock) Option {
	return func(s *Service) {
		if c != nil {
			s.clock = c
		}
	}
}

// WithLogger sets a custom logger for the service.
func WithLogger(l logger.Logger) Option {
	return func(s *Service) {
		if l != nil {
			s.logger = l
		}
	}
}

// New constructs a Service. Components are built by Start.
func New(opts ...Option) *Service {
	s := &Service{
		cfg:   config.New(context.Background()),
		clock: clockwork.NewRealClock(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Start builds and starts every component. It fails for invalid
// configuration or an unreachable store.
func (s *Service) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.started {
		return nil
	}
	if s.logger == nil {
		s.logger = logger.Get()
	}
	cfg := s.cfg
	if err := cfg.Validate(); err != nil {
		return err
	}

	weights, err := ranking.WeightsFromMap(cfg.FeatureWeights)
	if err != nil {
		return err
	}

	s.logger.Info(ctx, "starting suggestion service...")

	if s.store == nil {
		store, err := eventstore.Open(ctx, eventstore.Config{
			Driver:      cfg.StoreDriver,
			SQLitePath:  cfg.SQLitePath,
			RedisAddr:   cfg.RedisAddr,
			RedisPrefix: cfg.RedisPrefix,
			Timeout:     cfg.StoreTimeout(),
		})
		if err != nil {
			return err
		}
		s.store = store
		s.ownStore = true
	}

	s.featurizer = features.New(s.store,
		features.WithHalfLife(cfg.HalfLife()),
		features.WithHistoryWindow(cfg.HistoryWindow()),
		features.WithLogger(s.logger.Named("featurizer")),
	)
	s.ranker, err = ranking.New(s.featurizer,
		ranking.WithWeights(weights),
		ranking.WithClock(s.clock),
		ranking.WithLogger(s.logger.Named("ranker")),
	)
	if err != nil {
		s.closeOwnedStore()
		return err
	}

	s.registry = host.NewRegistry(cfg.Components...)
	s.resolver = lifecycle.NewResolver(cfg.HostPackage)
	s.dismisser = lifecycle.NewDismisser(s.resolver, s.store, s.registry,
		host.NewMetricsTelemetry(),
		host.StaticPolicy{AdvancedRanking: cfg.AdvancedRankingEnabled},
		lifecycle.WithDismissClock(s.clock),
	)

	s.deduper = dedupe.NewInMemoryDeduper(dedupe.WithMaxSize(cfg.DedupeSize))
	s.eventQueue = eventqueue.NewInMemoryQueue(eventqueue.WithCapacity(cfg.EventQueueSize))
	s.workerPool = workerpool.NewPool(cfg.WorkerCount, s.eventQueue, s.store)
	s.workerPool.Start(ctx)

	if cfg.RetentionDays > 0 {
		s.retention = eventstore.NewRetention(s.store,
			eventstore.WithRetention(cfg.Retention()),
			eventstore.WithPruneInterval(cfg.PruneInterval()),
			eventstore.WithRetentionClock(s.clock),
		)
		s.retention.Start(ctx)
	}

	s.started = true
	s.logger.Info(ctx, "suggestion service started",
		logger.String("store", cfg.StoreDriver),
		logger.Int("workers", s.workerPool.Size()),
		logger.Int("queueSize", cfg.EventQueueSize),
		logger.Int("exclusiveMaxCount", cfg.ExclusiveMaxCount),
		logger.Bool("advancedRanking", cfg.AdvancedRankingEnabled),
	)
	return nil
}

// Stop drains the ingestion queue and releases the store.
func (s *Service) Stop(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.started {
		return nil
	}
	s.logger.Info(ctx, "stopping suggestion service...")

	if s.retention != nil {
		s.retention.Stop()
	}
	var errs []error
	if err := s.workerPool.Shutdown(ctx); err != nil {
		errs = append(errs, err)
	}
	if err := s.closeOwnedStore(); err != nil {
		errs = append(errs, err)
	}

	s.started = false
	s.logger.Info(ctx, "suggestion service stopped")
	return errors.Join(errs...)
}

func (s *Service) closeOwnedStore() error {
	if !s.ownStore || s.store == nil {
		return nil
	}
	err := s.store.Close()
	s.store = nil
	s.ownStore = false
	return err
}

func (s *Service) running() error {
	if !s.started {
		return ErrNotStarted
	}
	return nil
}

// SubmitEvent deduplicates and queues an interaction event for recording.
// A full queue yields ErrBackpressure and the event may be resubmitted.
func (s *Service) SubmitEvent(ctx context.Context, e model.Event) (types.SubmitStatus, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if err := s.running(); err != nil {
		return "", err
	}
	if !e.Type.Valid() {
		return "", fmt.Errorf("%w: unknown event type %q", ErrInvalidRequest, e.Type)
	}
	if strings.TrimSpace(e.ID) == "" {
		e.ID = uuid.NewString()
	}
	e.SuggestionID = model.NormalizeIdentifier(e.SuggestionID)
	if e.TS.IsZero() {
		e.TS = s.clock.Now()
	}
	e.TS = e.TS.UTC()

	if s.deduper.SeenAndRecord(ctx, e.ID) {
		metrics.RecordEventDuplicate()
		s.logger.Debug(ctx, "duplicate event detected, skipping", logger.String("eventID", e.ID))
		return types.SubmitDuplicate, nil
	}

	if err := s.eventQueue.Enqueue(ctx, e); err != nil {
		s.deduper.Unrecord(ctx, e.ID)
		if errors.Is(err, eventqueue.ErrFull) {
			return "", ErrBackpressure
		}
		return "", err
	}
	return types.SubmitAccepted, nil
}

// RankRequest is the input of Rank.
type RankRequest struct {
	Candidates []model.Candidate
	// Identifiers, when set, must be parallel to Candidates and overrides
	// identifier resolution.
	Identifiers []string
	// Limit truncates the result when positive.
	Limit int
	// Exclusive applies the configured exclusivity cap after ranking.
	Exclusive bool
}

// Rank orders candidates by their interaction history. Candidates whose host
// component has been disabled are dropped. Lookup failures never fail the call.
func (s *Service) Rank(ctx context.Context, req RankRequest) ([]types.RankedEntry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if err := s.running(); err != nil {
		return nil, err
	}
	if len(req.Identifiers) > 0 && len(req.Identifiers) != len(req.Candidates) {
		return nil, fmt.Errorf("%w: %d identifiers for %d candidates",
			ErrInvalidRequest, len(req.Identifiers), len(req.Candidates))
	}

	candidates := make([]model.Candidate, 0, len(req.Candidates))
	for i, c := range req.Candidates {
		if len(req.Identifiers) > 0 {
			c.Identifier = model.NormalizeIdentifier(strings.TrimSpace(req.Identifiers[i]))
		} else {
			c.Identifier = s.resolver.Resolve(c)
		}
		// A disabled component is no longer present on the host.
		if s.registry.ComponentExists(ctx, c.Identifier) && !s.registry.Enabled(c.Identifier) {
			continue
		}
		candidates = append(candidates, c)
	}

	scored := s.ranker.Scored(ctx, candidates)
	if req.Exclusive {
		kept := len(lifecycle.FilterExclusive(candidatesOf(scored), s.cfg.ExclusiveMaxCount))
		if dropped := len(scored) - kept; dropped > 0 {
			metrics.RecordExclusiveTruncation(dropped)
		}
		scored = scored[:kept]
	}
	if req.Limit > 0 && len(scored) > req.Limit {
		scored = scored[:req.Limit]
	}

	out := make([]types.RankedEntry, len(scored))
	for i, sc := range scored {
		out[i] = types.RankedEntry{
			Rank:       i + 1,
			Identifier: sc.Candidate.Identifier,
			Score:      sc.Score,
			Metadata:   sc.Candidate.Metadata,
			Features:   sc.Features.Map(),
			Fallback:   sc.Fallback,
		}
	}
	return out, nil
}

func candidatesOf(scored []ranking.Scored) []model.Candidate {
	out := make([]model.Candidate, len(scored))
	for i, sc := range scored {
		out[i] = sc.Candidate
	}
	return out
}

// Dismiss applies the dismissal lifecycle to a candidate.
func (s *Service) Dismiss(ctx context.Context, c model.Candidate) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if err := s.running(); err != nil {
		return false, err
	}
	return s.dismisser.Dismiss(ctx, c)
}

// Features returns the current feature vector of one suggestion. Unlike
// ranking, history failures are reported.
func (s *Service) Features(ctx context.Context, identifier string) (types.FeatureEntry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if err := s.running(); err != nil {
		return types.FeatureEntry{}, err
	}

	id := model.NormalizeIdentifier(identifier)
	asOf := s.clock.Now().UTC()
	v, err := s.featurizer.FeaturizeErr(ctx, id, asOf)
	if err != nil {
		return types.FeatureEntry{}, err
	}
	return types.FeatureEntry{
		Identifier: id,
		AsOf:       asOf,
		Features:   v.Map(),
		Score:      s.ranker.Weights().Score(v),
	}, nil
}

// GetStats returns service statistics for monitoring.
func (s *Service) GetStats(ctx context.Context) map[string]interface{} {
	s.mu.RLock()
	defer s.mu.RUnlock()

	stats := map[string]interface{}{
		"started":         s.started,
		"storeDriver":     s.cfg.StoreDriver,
		"queueCapacity":   s.cfg.EventQueueSize,
		"exclusiveCap":    s.cfg.ExclusiveMaxCount,
		"advancedRanking": s.cfg.AdvancedRankingEnabled,
	}
	if !s.started {
		return stats
	}

	processed, failed := s.workerPool.Stats()
	stats["workerCount"] = s.workerPool.Size()
	stats["queueLength"] = s.eventQueue.Len()
	stats["dedupeSize"] = s.deduper.Size()
	stats["eventsRecorded"] = processed
	stats["eventsFailed"] = failed
	stats["disabledComponents"] = s.registry.Disabled()
	if n, err := s.store.Count(ctx); err == nil {
		stats["storedEvents"] = n
	} else {
		s.logger.Warn(ctx, "store count failed", logger.Error(err))
	}
	return stats
}

// Package host provides in-process implementations of the host collaborators
// used by the suggestion lifecycle.
package host

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"

	"github.com/okian/suggest/pkg/logger"
	"github.com/okian/suggest/pkg/metrics"
)

// ErrUnknownComponent is returned when disabling a component the registry
// does not know.
var ErrUnknownComponent = errors.New("unknown component")

// Registry tracks host components and their enabled state.
type Registry struct {
	mu       sync.RWMutex
	disabled map[string]bool
}

// NewRegistry creates a registry seeded with enabled components.
func NewRegistry(components ...string) *Registry {
	r := &Registry{disabled: make(map[string]bool, len(components))}
	for _, c := range components {
		r.Register(c)
	}
	return r
}

// Register adds an enabled component. Registering a known component is a no-op.
func (r *Registry) Register(id string) {
	if id == "" {
		return
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.disabled[id]; !ok {
		r.disabled[id] = false
	}
}

// ComponentExists reports whether id is registered.
func (r *Registry) ComponentExists(_ context.Context, id string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	_, ok := r.disabled[id]
	return ok
}

// DisableComponent marks id disabled.
func (r *Registry) DisableComponent(_ context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.disabled[id]; !ok {
		return fmt.Errorf("%w: %q", ErrUnknownComponent, id)
	}
	r.disabled[id] = true
	return nil
}

// Enabled reports whether id is registered and not disabled.
func (r *Registry) Enabled(id string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	disabled, ok := r.disabled[id]
	return ok && !disabled
}

// Disabled returns the disabled components in sorted order.
func (r *Registry) Disabled() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]string, 0)
	for id, d := range r.disabled {
		if d {
			out = append(out, id)
		}
	}
	sort.Strings(out)
	return out
}

// MetricsTelemetry reports suggestion actions as Prometheus counters.
type MetricsTelemetry struct {
	logger logger.Logger
}

// NewMetricsTelemetry creates a telemetry sink.
func NewMetricsTelemetry() *MetricsTelemetry {
	return &MetricsTelemetry{logger: logger.Get().Named("telemetry")}
}

// RecordAction never fails.
func (t *MetricsTelemetry) RecordAction(ctx context.Context, action, identifier string) {
	metrics.RecordSuggestionAction(action)
	t.logger.Debug(ctx, "suggestion action", logger.String("action", action), logger.String("suggestion", identifier))
}

// StaticPolicy answers policy questions from configuration.
type StaticPolicy struct {
	AdvancedRanking bool
}

// IsAdvancedRankingEnabled implements lifecycle.Policy.
func (p StaticPolicy) IsAdvancedRankingEnabled() bool { return p.AdvancedRanking }

// Package lifecycle applies post-ranking policy to suggestions: the
// exclusivity cap, identifier resolution and dismissal.
package lifecycle

import (
	"context"

	"github.com/okian/suggest/internal/domain/model"
)

// ActionDismiss is the action name reported to telemetry on dismissal.
const ActionDismiss = "dismiss"

// HostActions exposes the host's component controls.
type HostActions interface {
	ComponentExists(ctx context.Context, identifier string) bool
	DisableComponent(ctx context.Context, identifier string) error
}

// Telemetry receives fire-and-forget action reports.
type Telemetry interface {
	RecordAction(ctx context.Context, action, identifier string)
}

// Policy answers host policy questions.
type Policy interface {
	IsAdvancedRankingEnabled() bool
}

// Recorder is the write side of the event store.
type Recorder interface {
	Record(ctx context.Context, e model.Event) error
}

// FilterExclusive keeps the first k ranked candidates. A negative k is
// treated as zero. Input shorter than k is returned unchanged.
func FilterExclusive(ranked []model.Candidate, k int) []model.Candidate {
	if k < 0 {
		k = 0
	}
	if len(ranked) <= k {
		return ranked
	}
	return ranked[:k:k]
}

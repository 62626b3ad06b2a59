package simulate

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/okian/suggest/pkg/logger"
)

// historyAge places generated history in the recent past.
const historyAge = time.Hour

// Plan is the generated history and the ranking it should produce.
type Plan struct {
	Events   []Event
	Expected []string // best first
}

// suggestionID names the i-th simulated suggestion.
func suggestionID(prefix string, i int) string {
	return fmt.Sprintf("%s.suggestion.%03d", prefix, i)
}

// generatePlan builds cfg.Shown impressions per suggestion and
// Suggestions-i clicks for the i-th one, so suggestion 0 must rank first.
func generatePlan(ctx context.Context, cfg Config, now time.Time, stats *Stats) Plan {
	ts := now.Add(-historyAge).UTC().Format(time.RFC3339Nano)
	plan := Plan{Expected: make([]string, cfg.Suggestions)}

	for i := 0; i < cfg.Suggestions; i++ {
		id := suggestionID(cfg.Prefix, i)
		plan.Expected[i] = id
		for n := 0; n < cfg.Shown; n++ {
			plan.Events = append(plan.Events, Event{EventID: uuid.NewString(), SuggestionID: id, Type: "shown", TS: ts})
		}
		for n := 0; n < cfg.Suggestions-i; n++ {
			plan.Events = append(plan.Events, Event{EventID: uuid.NewString(), SuggestionID: id, Type: "clicked", TS: ts})
		}
	}

	stats.EventsGenerated = len(plan.Events)
	logger.Get().Named("simulate").Info(ctx, "generated events",
		logger.Int("count", len(plan.Events)),
		logger.Int("suggestions", cfg.Suggestions))
	return plan
}

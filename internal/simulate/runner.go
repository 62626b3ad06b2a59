package simulate

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/okian/suggest/pkg/logger"
)

// Run executes a complete simulation: submit history, wait for it to be
// stored, rank and verify.
func Run(ctx context.Context, cfg Config) (*Stats, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	log := logger.Get().Named("simulate")
	stats := &Stats{StartTime: time.Now()}
	client := NewClient(cfg.BaseURL, cfg.Timeout)

	log.Info(ctx, "starting simulation",
		logger.String("baseURL", cfg.BaseURL),
		logger.Int("suggestions", cfg.Suggestions),
		logger.Int("shown", cfg.Shown),
		logger.Int("workers", cfg.Workers))

	if err := checkServiceHealth(ctx, client); err != nil {
		return stats, fmt.Errorf("service health check failed: %w", err)
	}

	baseline, err := storedEvents(ctx, client)
	if err != nil {
		return stats, fmt.Errorf("reading stats failed: %w", err)
	}

	plan := generatePlan(ctx, cfg, time.Now(), stats)
	submitEvents(ctx, cfg, client, plan.Events, stats)
	if stats.EventsFailed > 0 {
		return stats, fmt.Errorf("%d events failed to submit", stats.EventsFailed)
	}

	if err := waitForPersistence(ctx, cfg, client, baseline+stats.EventsSuccessful); err != nil {
		return stats, err
	}

	got, err := rankCandidates(ctx, client, plan.Expected, stats)
	if err != nil {
		return stats, err
	}
	if err := verifyOrder(plan.Expected, got); err != nil {
		return stats, err
	}

	stats.EndTime = time.Now()
	stats.Duration = stats.EndTime.Sub(stats.StartTime)
	displayFinalStats(ctx, stats)
	return stats, nil
}

// checkServiceHealth verifies the service is running.
func checkServiceHealth(ctx context.Context, client *Client) error {
	status, err := client.get(ctx, "/healthz", nil)
	if err != nil {
		return fmt.Errorf("failed to connect to service: %w", err)
	}
	if status != http.StatusOK {
		return fmt.Errorf("unexpected status %d", status)
	}
	return nil
}

// displayFinalStats logs the final run statistics.
func displayFinalStats(ctx context.Context, stats *Stats) {
	var eventsPerSecond float64
	if stats.Duration > 0 {
		eventsPerSecond = float64(stats.EventsSubmitted) / stats.Duration.Seconds()
	}
	logger.Get().Named("simulate").Info(ctx, "simulation passed",
		logger.Int("eventsGenerated", stats.EventsGenerated),
		logger.Int("eventsSubmitted", stats.EventsSubmitted),
		logger.Int("eventsDuplicate", stats.EventsDuplicate),
		logger.Int("ranked", stats.Ranked),
		logger.Duration("duration", stats.Duration),
		logger.Float64("eventsPerSecond", eventsPerSecond))
}

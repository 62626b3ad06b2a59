package simulate

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/okian/suggest/internal/domain/types"
	"github.com/okian/suggest/pkg/logger"
)

// pollInterval is the delay between /stats polls while waiting.
const pollInterval = 100 * time.Millisecond

type rankCandidate struct {
	Identifier string `json:"identifier"`
}

type rankRequest struct {
	Candidates []rankCandidate `json:"candidates"`
}

type rankResponse struct {
	Entries []types.RankedEntry `json:"entries"`
}

// storedEvents reads the persisted event count from /stats.
func storedEvents(ctx context.Context, client *Client) (int, error) {
	var stats map[string]any
	status, err := client.get(ctx, "/stats", &stats)
	if err != nil {
		return 0, err
	}
	if status != http.StatusOK {
		return 0, fmt.Errorf("stats returned status %d", status)
	}
	n, ok := stats["storedEvents"].(float64)
	if !ok {
		return 0, fmt.Errorf("stats carry no storedEvents")
	}
	return int(n), nil
}

// waitForPersistence polls /stats until at least want events are stored.
func waitForPersistence(ctx context.Context, cfg Config, client *Client, want int) error {
	ctx, cancel := context.WithTimeout(ctx, cfg.SettleTimeout)
	defer cancel()

	ticker := time.NewTicker(pollInterval)
	defer ticker.Stop()
	for {
		n, err := storedEvents(ctx, client)
		if err == nil && n >= want {
			return nil
		}
		select {
		case <-ctx.Done():
			return fmt.Errorf("waiting for %d stored events (have %d): %w", want, n, ctx.Err())
		case <-ticker.C:
		}
	}
}

// rankCandidates asks the service to rank ids, submitted worst first.
func rankCandidates(ctx context.Context, client *Client, expected []string, stats *Stats) ([]string, error) {
	req := rankRequest{Candidates: make([]rankCandidate, len(expected))}
	for i, id := range expected {
		req.Candidates[len(expected)-1-i] = rankCandidate{Identifier: id}
	}

	var resp rankResponse
	status, err := client.post(ctx, "/rank", req, &resp)
	if err != nil {
		return nil, fmt.Errorf("rank request failed: %w", err)
	}
	if status != http.StatusOK {
		return nil, fmt.Errorf("rank returned status %d", status)
	}

	got := make([]string, len(resp.Entries))
	for i, e := range resp.Entries {
		got[i] = e.Identifier
	}
	stats.Ranked = len(got)
	logger.Get().Named("simulate").Info(ctx, "ranking retrieved", logger.Int("entries", len(got)))
	return got, nil
}

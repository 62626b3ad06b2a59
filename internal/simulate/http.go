package simulate

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"sync"
	"sync/atomic"
	"time"

	"github.com/okian/suggest/pkg/logger"
)

// submitResult is the outcome of one POST /events.
type submitResult int

const (
	resultAccepted submitResult = iota
	resultDuplicate
	resultFailed
)

// Client wraps http.Client for the service API.
type Client struct {
	client  *http.Client
	baseURL string
}

// NewClient creates a client with a per-request timeout.
func NewClient(baseURL string, timeout time.Duration) *Client {
	return &Client{client: &http.Client{Timeout: timeout}, baseURL: baseURL}
}

// get performs a GET request and decodes a JSON body into out when non-nil.
func (c *Client) get(ctx context.Context, path string, out any) (int, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path, nil)
	if err != nil {
		return 0, fmt.Errorf("failed to create request: %w", err)
	}
	return c.do(req, out)
}

// post performs a POST request with a JSON body.
func (c *Client) post(ctx context.Context, path string, body, out any) (int, error) {
	data, err := json.Marshal(body)
	if err != nil {
		return 0, fmt.Errorf("failed to marshal request body: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(data))
	if err != nil {
		return 0, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	return c.do(req, out)
}

func (c *Client) do(req *http.Request, out any) (int, error) {
	resp, err := c.client.Do(req)
	if err != nil {
		return 0, err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return resp.StatusCode, fmt.Errorf("failed to read response: %w", err)
	}
	if out != nil && resp.StatusCode < http.StatusBadRequest {
		if err := json.Unmarshal(body, out); err != nil {
			return resp.StatusCode, fmt.Errorf("failed to decode response: %w", err)
		}
	}
	return resp.StatusCode, nil
}

// submitEvents posts events concurrently using a worker pool.
func submitEvents(ctx context.Context, cfg Config, client *Client, events []Event, stats *Stats) {
	log := logger.Get().Named("simulate")
	log.Info(ctx, "submitting events", logger.Int("count", len(events)), logger.Int("workers", cfg.Workers))

	var accepted, duplicate, failed, submitted int64

	eventChan := make(chan Event, cfg.Workers*2)
	var wg sync.WaitGroup
	for i := 0; i < cfg.Workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for event := range eventChan {
				atomic.AddInt64(&submitted, 1)
				switch submitSingleEvent(ctx, client, event) {
				case resultAccepted:
					atomic.AddInt64(&accepted, 1)
				case resultDuplicate:
					atomic.AddInt64(&duplicate, 1)
				default:
					atomic.AddInt64(&failed, 1)
					if cfg.Verbose {
						log.Warn(ctx, "event submission failed", logger.String("eventID", event.EventID))
					}
				}
			}
		}()
	}

	func() {
		defer close(eventChan)
		for _, event := range events {
			select {
			case <-ctx.Done():
				return
			case eventChan <- event:
			}
		}
	}()
	wg.Wait()

	stats.EventsSubmitted = int(submitted)
	stats.EventsSuccessful = int(accepted)
	stats.EventsDuplicate = int(duplicate)
	stats.EventsFailed = int(failed)

	log.Info(ctx, "event submission completed",
		logger.Int("successful", stats.EventsSuccessful),
		logger.Int("duplicate", stats.EventsDuplicate),
		logger.Int("failed", stats.EventsFailed))
}

// submitSingleEvent posts one event. 202 is a new event and 200 a duplicate.
func submitSingleEvent(ctx context.Context, client *Client, event Event) submitResult {
	var ack AckResponse
	status, err := client.post(ctx, "/events", event, &ack)
	if err != nil {
		return resultFailed
	}
	switch status {
	case http.StatusAccepted:
		return resultAccepted
	case http.StatusOK:
		return resultDuplicate
	default:
		return resultFailed
	}
}

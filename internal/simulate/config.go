// Package simulate drives a running service with synthetic interaction
// history and verifies that ranking reflects it.
package simulate

import (
	"errors"
	"fmt"
	"time"
)

// Default run parameters.
const (
	DefaultBaseURL       = "http://localhost:9080"
	DefaultSuggestions   = 10
	DefaultShown         = 20
	DefaultWorkers       = 8
	DefaultTimeout       = 10 * time.Second
	DefaultSettleTimeout = 30 * time.Second
	DefaultPrefix        = "sim"
)

// ErrInvalidConfig is returned for unusable run parameters.
var ErrInvalidConfig = errors.New("invalid simulate config")

// Config holds configuration for a simulation run.
type Config struct {
	BaseURL       string        // Base URL of the service
	Suggestions   int           // Number of distinct suggestions
	Shown         int           // SHOWN events per suggestion
	Workers       int           // Concurrent HTTP submitters
	Timeout       time.Duration // Per-request timeout
	SettleTimeout time.Duration // How long to wait for events to persist
	Prefix        string        // Identifier prefix, keeps runs apart
	Verbose       bool
}

// DefaultConfig returns a Config with defaults applied.
func DefaultConfig() Config {
	return Config{
		BaseURL:       DefaultBaseURL,
		Suggestions:   DefaultSuggestions,
		Shown:         DefaultShown,
		Workers:       DefaultWorkers,
		Timeout:       DefaultTimeout,
		SettleTimeout: DefaultSettleTimeout,
		Prefix:        DefaultPrefix,
	}
}

// Validate checks the run parameters.
func (c Config) Validate() error {
	switch {
	case c.BaseURL == "":
		return fmt.Errorf("%w: base url must not be empty", ErrInvalidConfig)
	case c.Suggestions < 2:
		return fmt.Errorf("%w: need at least 2 suggestions, got %d", ErrInvalidConfig, c.Suggestions)
	case c.Shown < c.Suggestions:
		// Click counts are Suggestions..1 and must not exceed impressions.
		return fmt.Errorf("%w: shown (%d) must be at least suggestions (%d)", ErrInvalidConfig, c.Shown, c.Suggestions)
	case c.Workers < 1:
		return fmt.Errorf("%w: workers must be positive, got %d", ErrInvalidConfig, c.Workers)
	case c.Timeout <= 0 || c.SettleTimeout <= 0:
		return fmt.Errorf("%w: timeouts must be positive", ErrInvalidConfig)
	}
	return nil
}

// Event is the wire shape of POST /events.
type Event struct {
	EventID      string `json:"event_id"`
	SuggestionID string `json:"suggestion_id"`
	Type         string `json:"type"`
	TS           string `json:"ts"`
}

// AckResponse represents the response from event submission.
type AckResponse struct {
	Status    string `json:"status"`
	Duplicate bool   `json:"duplicate"`
}

// Stats holds run statistics.
type Stats struct {
	EventsGenerated  int
	EventsSubmitted  int
	EventsSuccessful int
	EventsDuplicate  int
	EventsFailed     int
	Ranked           int
	StartTime        time.Time
	EndTime          time.Time
	Duration         time.Duration
}

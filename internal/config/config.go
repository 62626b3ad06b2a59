// Package config defines service configuration and its loading.
//
// Conventions:
//   - Keys are flat snake_case and map 1:1 to koanf tags.
//   - Durations are configured as integer units named in the key.
//   - Validate is called by Load; an invalid configuration stops startup.
package config

import (
	"context"
	"runtime"
	"time"
)

// Supported store drivers.
const (
	DriverMemory = "memory"
	DriverSQLite = "sqlite"
	DriverRedis  = "redis"
)

// Config contains process configuration.
type Config struct {
	// LogLevel controls verbosity: debug, info, warn, error.
	LogLevel string `koanf:"log_level"`

	// Addr configures the HTTP listen address, e.g. ":9080".
	Addr string `koanf:"addr"`

	// EventQueueSize bounds the in-memory ingestion queue.
	EventQueueSize int `koanf:"queue_size"`

	// WorkerCount sets the number of ingestion workers.
	WorkerCount int `koanf:"worker_count"`

	// DedupeSize bounds the event id cache. Zero keeps every id.
	DedupeSize int `koanf:"dedupe_size"`

	// StoreDriver selects the event store backend: memory, sqlite or redis.
	StoreDriver string `koanf:"store_driver"`
	SQLitePath  string `koanf:"sqlite_path"`
	RedisAddr   string `koanf:"redis_addr"`
	RedisPrefix string `koanf:"redis_prefix"`

	// StoreTimeoutMS bounds every store call.
	StoreTimeoutMS int `koanf:"store_timeout_ms"`

	// RetentionDays is how long events are kept. Zero disables pruning.
	RetentionDays    int `koanf:"retention_days"`
	PruneIntervalSec int `koanf:"prune_interval_sec"`

	// HistoryWindowDays limits the history read per featurization. Zero
	// reads everything that is retained.
	HistoryWindowDays int `koanf:"history_window_days"`

	// HalfLifeHours is the click recency half-life.
	HalfLifeHours float64 `koanf:"half_life_hours"`

	// ExclusiveMaxCount caps how many suggestions survive the exclusivity filter.
	ExclusiveMaxCount int `koanf:"exclusive_max_count"`

	// AdvancedRankingEnabled is the dismissal policy switch.
	AdvancedRankingEnabled bool `koanf:"advanced_ranking_enabled"`

	// HostPackage identifies suggestions owned by the host itself.
	HostPackage string `koanf:"host_package"`

	// Components seeds the host component registry.
	Components []string `koanf:"components"`

	// FeatureWeights overrides ranking weights by feature name.
	FeatureWeights map[string]float64 `koanf:"feature_weights"`
}

// New returns a Config populated with defaults.
func New(_ context.Context) *Config {
	return &Config{
		LogLevel:               "info",
		Addr:                   ":9080",
		EventQueueSize:         10_000,
		WorkerCount:            runtime.NumCPU() * 2,
		DedupeSize:             100_000,
		StoreDriver:            DriverSQLite,
		SQLitePath:             "suggest.db",
		RedisAddr:              "localhost:6379",
		RedisPrefix:            "suggest:",
		StoreTimeoutMS:         250,
		RetentionDays:          90,
		PruneIntervalSec:       3600,
		HistoryWindowDays:      0,
		HalfLifeHours:          72,
		ExclusiveMaxCount:      3,
		AdvancedRankingEnabled: false,
		HostPackage:            "com.android.settings",
		FeatureWeights:         map[string]float64{},
	}
}

// StoreTimeout returns the per-call store timeout.
func (c *Config) StoreTimeout() time.Duration {
	return time.Duration(c.StoreTimeoutMS) * time.Millisecond
}

// Retention returns the retention period, zero when disabled.
func (c *Config) Retention() time.Duration {
	return time.Duration(c.RetentionDays) * 24 * time.Hour
}

// PruneInterval returns how often retention runs.
func (c *Config) PruneInterval() time.Duration {
	return time.Duration(c.PruneIntervalSec) * time.Second
}

// HistoryWindow returns the featurization lookback, zero for unbounded.
func (c *Config) HistoryWindow() time.Duration {
	return time.Duration(c.HistoryWindowDays) * 24 * time.Hour
}

// HalfLife returns the click recency half-life.
func (c *Config) HalfLife() time.Duration {
	return time.Duration(c.HalfLifeHours * float64(time.Hour))
}

package config

import (
	"context"
	"fmt"
	"math"
	"os"
	"strings"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
)

// Environment conventions.
const (
	EnvPrefix     = "SUGGEST_"
	EnvConfigPath = "SUGGEST_CONFIG"

	weightsKey = "feature_weights"

	// maxHalfLifeHours keeps HalfLife within time.Duration.
	maxHalfLifeHours = 24 * 365 * 100
)

// Load builds a Config by layering defaults, optional file, and env vars.
// Order of precedence (low -> high):
//  1. defaults (New(ctx))
//  2. file (YAML) if SUGGEST_CONFIG is set
//  3. env (prefix SUGGEST_)
func Load(ctx context.Context) (*Config, error) {
	base := New(ctx)

	k := koanf.New(".")

	if path := os.Getenv(EnvConfigPath); path != "" {
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("%w: %s: %w", ErrLoadConfig, path, err)
		}
	}

	// SUGGEST_QUEUE_SIZE -> queue_size,
	// SUGGEST_FEATURE_WEIGHTS_CLICK_THROUGH_RATE -> feature_weights.click_through_rate,
	// SUGGEST_COMPONENTS=a,b -> components: [a b].
	envProvider := env.ProviderWithValue(EnvPrefix, ".", func(key, value string) (string, interface{}) {
		key = strings.TrimPrefix(strings.ToLower(key), strings.ToLower(EnvPrefix))
		if key == "config" {
			return "", nil
		}
		if name, ok := strings.CutPrefix(key, weightsKey+"_"); ok {
			return weightsKey + "." + name, value
		}
		if key == "components" {
			return key, splitList(value)
		}
		return key, value
	})
	if err := k.Load(envProvider, nil); err != nil {
		return nil, fmt.Errorf("%w: env: %w", ErrLoadConfig, err)
	}

	cfg := *base
	if err := k.UnmarshalWithConf("", &cfg, koanf.UnmarshalConf{Tag: "koanf"}); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrLoadConfig, err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate reports the first invalid setting as ErrInvalidConfig.
func (c *Config) Validate() error {
	switch {
	case c.Addr == "":
		return invalid("addr must not be empty")
	case c.EventQueueSize < 1:
		return invalid("queue_size must be positive, got %d", c.EventQueueSize)
	case c.WorkerCount < 0:
		return invalid("worker_count must not be negative, got %d", c.WorkerCount)
	case c.StoreTimeoutMS < 1:
		return invalid("store_timeout_ms must be positive, got %d", c.StoreTimeoutMS)
	case c.RetentionDays < 0:
		return invalid("retention_days must not be negative, got %d", c.RetentionDays)
	case c.RetentionDays > 0 && c.PruneIntervalSec < 1:
		return invalid("prune_interval_sec must be positive, got %d", c.PruneIntervalSec)
	case c.HistoryWindowDays < 0:
		return invalid("history_window_days must not be negative, got %d", c.HistoryWindowDays)
	case !(c.HalfLifeHours > 0) || c.HalfLifeHours > maxHalfLifeHours || c.HalfLife() <= 0:
		return invalid("half_life_hours must be positive and at most %d, got %v", maxHalfLifeHours, c.HalfLifeHours)
	case c.ExclusiveMaxCount < 0:
		return invalid("exclusive_max_count must not be negative, got %d", c.ExclusiveMaxCount)
	}

	switch c.StoreDriver {
	case DriverMemory:
	case DriverSQLite:
		if c.SQLitePath == "" {
			return invalid("sqlite_path must be set for the sqlite driver")
		}
	case DriverRedis:
		if c.RedisAddr == "" {
			return invalid("redis_addr must be set for the redis driver")
		}
	default:
		return invalid("unknown store_driver %q", c.StoreDriver)
	}

	for name, w := range c.FeatureWeights {
		if math.IsNaN(w) || math.IsInf(w, 0) {
			return invalid("feature weight %q must be finite", name)
		}
	}
	return nil
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

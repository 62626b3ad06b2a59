package eventstore

import (
	"context"
	"fmt"
	"time"
)

// Supported drivers.
const (
	DriverMemory = "memory"
	DriverSQLite = "sqlite"
	DriverRedis  = "redis"
)

// Config selects and configures a backend.
type Config struct {
	Driver      string
	SQLitePath  string
	RedisAddr   string
	RedisPrefix string
	Timeout     time.Duration
}

// Open builds the backend named by cfg.Driver and wraps it with metrics and
// the call timeout.
func Open(ctx context.Context, cfg Config) (Store, error) {
	var (
		backend Store
		err     error
	)
	switch cfg.Driver {
	case DriverMemory:
		backend = NewMemoryStore()
	case DriverSQLite:
		backend, err = NewSQLiteStore(ctx, cfg.SQLitePath)
	case DriverRedis:
		backend, err = DialRedis(ctx, cfg.RedisAddr, cfg.RedisPrefix)
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownDriver, cfg.Driver)
	}
	if err != nil {
		return nil, fmt.Errorf("open %s store: %w", cfg.Driver, err)
	}
	return NewTimed(NewInstrumented(backend, cfg.Driver), cfg.Timeout), nil
}

package eventstore

import (
	"errors"
	"fmt"
)

// Sentinel kinds for event store errors.
var (
	// ErrStorageUnavailable reports a backend failure or timeout. Callers on
	// the ranking path treat it as "no history".
	ErrStorageUnavailable = errors.New("event storage unavailable")
	// ErrUnknownDriver is returned by Open for an unsupported driver name.
	ErrUnknownDriver = errors.New("unknown event store driver")
	// ErrClosed is returned by operations on a closed store.
	ErrClosed = errors.New("event store closed")
)

// unavailable wraps a backend failure so callers can match both the storage
// kind and the underlying cause.
func unavailable(op string, err error) error {
	return fmt.Errorf("%w: %s: %w", ErrStorageUnavailable, op, err)
}

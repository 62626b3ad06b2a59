package simulate

import (
	"errors"
	"fmt"
)

// ErrOrderMismatch is returned when the service ranks differently than the
// generated history implies.
var ErrOrderMismatch = errors.New("ranking order mismatch")

// verifyOrder checks got against the expected best-first order.
func verifyOrder(expected, got []string) error {
	if len(got) != len(expected) {
		return fmt.Errorf("%w: got %d entries, want %d", ErrOrderMismatch, len(got), len(expected))
	}
	for i := range expected {
		if got[i] != expected[i] {
			return fmt.Errorf("%w: position %d is %q, want %q", ErrOrderMismatch, i+1, got[i], expected[i])
		}
	}
	return nil
}

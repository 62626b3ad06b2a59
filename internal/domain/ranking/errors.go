package ranking

import "errors"

// Sentinel kinds for ranking errors.
var (
	// ErrConfiguration marks an invalid weight vector. It is fatal at startup.
	ErrConfiguration = errors.New("invalid ranking configuration")
)

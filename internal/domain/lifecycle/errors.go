package lifecycle

import "errors"

// ErrDisableFailed is returned when the host refuses to disable a dismissed
// suggestion's component. It is user-visible.
var ErrDisableFailed = errors.New("failed to disable suggestion component")

package service

import "errors"

// Sentinel kinds for service errors.
var (
	ErrNotStarted     = errors.New("service not started")
	ErrBackpressure   = errors.New("event queue full")
	ErrInvalidRequest = errors.New("invalid request")
)

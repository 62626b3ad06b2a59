// Package model contains domain models passed between layers.
package model

import (
	"strings"
	"time"
)

// UnknownIdentifier is the bucket for suggestions whose identifier could not
// be derived. It is a regular, queryable key.
const UnknownIdentifier = "unknown_suggestion"

// EventType is the category of a user interaction with a suggestion.
type EventType string

// Known event types. Readers ignore any other value.
const (
	EventShown     EventType = "shown"
	EventClicked   EventType = "clicked"
	EventDismissed EventType = "dismissed"
)

// ParseEventType maps a stored or wire value onto a known type.
// ok is false for unknown values.
func ParseEventType(s string) (EventType, bool) {
	switch t := EventType(strings.ToLower(strings.TrimSpace(s))); t {
	case EventShown, EventClicked, EventDismissed:
		return t, true
	default:
		return "", false
	}
}

// Valid reports whether t is one of the known event types.
func (t EventType) Valid() bool {
	_, ok := ParseEventType(string(t))
	return ok
}

// Event is one observed interaction with a suggestion. Immutable once recorded.
type Event struct {
	ID           string    // idempotency key, generated when empty
	SuggestionID string    // stable suggestion identifier
	Type         EventType // shown, clicked or dismissed
	TS           time.Time // UTC
}

// Candidate is one suggestion eligible for ranking. Metadata is opaque to
// ranking and passed through untouched.
type Candidate struct {
	Identifier string
	Metadata   map[string]string
}

// NormalizeIdentifier maps empty or blank identifiers to UnknownIdentifier.
func NormalizeIdentifier(id string) string {
	if strings.TrimSpace(id) == "" {
		return UnknownIdentifier
	}
	return id
}

// Window bounds a history query. Zero From or To leaves that side open.
// Both bounds are inclusive.
type Window struct {
	From time.Time
	To   time.Time
}

// Contains reports whether ts falls inside the window.
func (w Window) Contains(ts time.Time) bool {
	if !w.From.IsZero() && ts.Before(w.From) {
		return false
	}
	if !w.To.IsZero() && ts.After(w.To) {
		return false
	}
	return true
}

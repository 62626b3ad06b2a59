// Package types contains the wire types shared by the HTTP API and its clients.
package types

import "time"

// RankedEntry is one candidate in a ranking response.
type RankedEntry struct {
	Rank       int                `json:"rank"`
	Identifier string             `json:"identifier"`
	Score      float64            `json:"score"`
	Metadata   map[string]string  `json:"metadata,omitempty"`
	Features   map[string]float64 `json:"features,omitempty"`
	Fallback   bool               `json:"fallback,omitempty"`
}

// FeatureEntry is the feature vector of one suggestion at a point in time.
type FeatureEntry struct {
	Identifier string             `json:"identifier"`
	AsOf       time.Time          `json:"as_of"`
	Features   map[string]float64 `json:"features"`
	Score      float64            `json:"score"`
}

// SubmitStatus describes what happened to a submitted event.
type SubmitStatus string

// Submit outcomes.
const (
	SubmitAccepted  SubmitStatus = "accepted"
	SubmitDuplicate SubmitStatus = "duplicate"
)

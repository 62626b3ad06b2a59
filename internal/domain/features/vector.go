// Package features derives fixed-shape numeric feature vectors from a
// suggestion's interaction history.
package features

import "math"

// Feature indexes one entry of a Vector.
type Feature int

// Features in vector order. The order is part of the scoring contract.
const (
	ShownCount Feature = iota
	ClickCount
	DismissCount
	ClickThroughRate
	RecencyScore
	DaysSinceLastClick

	NumFeatures
)

// MaxDaysSinceClick caps DaysSinceLastClick and is its value when a
// suggestion was never clicked.
const MaxDaysSinceClick = 365.0

var featureNames = [NumFeatures]string{
	ShownCount:         "shown_count",
	ClickCount:         "click_count",
	DismissCount:       "dismiss_count",
	ClickThroughRate:   "click_through_rate",
	RecencyScore:       "recency_score",
	DaysSinceLastClick: "days_since_last_click",
}

// String returns the feature's configuration name.
func (f Feature) String() string {
	if f < 0 || f >= NumFeatures {
		return "unknown"
	}
	return featureNames[f]
}

// ByName looks a feature up by its configuration name.
func ByName(name string) (Feature, bool) {
	for i, n := range featureNames {
		if n == name {
			return Feature(i), true
		}
	}
	return 0, false
}

// Names returns all feature names in vector order.
func Names() []string {
	out := make([]string, NumFeatures)
	copy(out, featureNames[:])
	return out
}

// Vector is the numeric summary of one suggestion's history. Every entry is finite.
type Vector [NumFeatures]float64

// Default is the vector for a suggestion with no history. It is also the
// substitute used when history cannot be read.
func Default() Vector {
	var v Vector
	v[DaysSinceLastClick] = MaxDaysSinceClick
	return v
}

// Get returns the value of one feature.
func (v Vector) Get(f Feature) float64 { return v[f] }

// Map returns the vector keyed by feature name.
func (v Vector) Map() map[string]float64 {
	out := make(map[string]float64, NumFeatures)
	for i, name := range featureNames {
		out[name] = v[i]
	}
	return out
}

// sanitize replaces NaN and infinities with zero.
func (v *Vector) sanitize() {
	for i, x := range v {
		if math.IsNaN(x) || math.IsInf(x, 0) {
			v[i] = 0
		}
	}
}

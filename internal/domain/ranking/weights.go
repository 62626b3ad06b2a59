package ranking

import (
	"fmt"
	"math"
	"sort"

	"github.com/okian/suggest/internal/domain/features"
)

// Weights holds one weight per feature, in vector order.
type Weights features.Vector

// DefaultWeights favours suggestions that are clicked often and recently, and
// demotes ones that are dismissed or repeatedly ignored.
func DefaultWeights() Weights {
	var w Weights
	w[features.ShownCount] = -0.05
	w[features.ClickCount] = 0.1
	w[features.DismissCount] = -1.0
	w[features.ClickThroughRate] = 4.0
	w[features.RecencyScore] = 2.0
	w[features.DaysSinceLastClick] = -0.002
	return w
}

// WeightsFromMap overrides DefaultWeights with the named entries in m.
// Unknown feature names and non-finite values are ErrConfiguration.
func WeightsFromMap(m map[string]float64) (Weights, error) {
	w := DefaultWeights()
	names := make([]string, 0, len(m))
	for name := range m {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		f, ok := features.ByName(name)
		if !ok {
			return Weights{}, fmt.Errorf("%w: unknown feature %q", ErrConfiguration, name)
		}
		w[f] = m[name]
	}
	if err := w.Validate(); err != nil {
		return Weights{}, err
	}
	return w, nil
}

// Validate reports non-finite weights.
func (w Weights) Validate() error {
	for i, x := range w {
		if math.IsNaN(x) || math.IsInf(x, 0) {
			return fmt.Errorf("%w: weight for %s is not finite", ErrConfiguration, features.Feature(i))
		}
	}
	return nil
}

// Score is the weighted sum of v.
func (w Weights) Score(v features.Vector) float64 {
	var s float64
	for i := range w {
		s += w[i] * v[i]
	}
	return s
}

// Map returns the weights keyed by feature name.
func (w Weights) Map() map[string]float64 {
	return features.Vector(w).Map()
}

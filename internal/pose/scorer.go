package pose

import (
	"fmt"
	"math"
)

// DefaultTolerance is the per-limb angular tolerance in degrees.
const DefaultTolerance = 30.0

// Policy scores how well observed angles match a template's target angles.
// Scores are in [0,1]; 1 is a perfect match.
type Policy interface {
	Score(target, observed Angles) float64
}

// CircularDiff returns the shortest angular distance between a and b, in [0,180].
func CircularDiff(a, b float64) float64 {
	d := math.Abs(Normalize(a) - Normalize(b))
	return math.Min(d, 360-d)
}

// ToleranceScorer counts a limb as matching when its circular difference is within
// Tolerance and scores the fraction of compared limbs that match.
type ToleranceScorer struct {
	Tolerance float64
}

// Score implements Policy.
func (s ToleranceScorer) Score(target, observed Angles) float64 {
	if target == nil || observed == nil {
		return 0
	}

	compared, matching := 0, 0
	for _, limb := range Limbs {
		t, okT := target[limb]
		o, okO := observed[limb]
		if !okT || !okO {
			continue
		}
		compared++
		if CircularDiff(t, o) <= s.Tolerance {
			matching++
		}
	}

	if compared == 0 {
		return 0
	}
	return float64(matching) / float64(compared)
}

// ProportionalScorer scores 1 minus the summed circular difference normalized by the
// largest possible difference (180° per compared limb).
type ProportionalScorer struct{}

// Score implements Policy.
func (ProportionalScorer) Score(target, observed Angles) float64 {
	if target == nil || observed == nil {
		return 0
	}

	compared := 0
	total := 0.0
	for _, limb := range Limbs {
		t, okT := target[limb]
		o, okO := observed[limb]
		if !okT || !okO {
			continue
		}
		compared++
		total += CircularDiff(t, o)
	}

	if compared == 0 {
		return 0
	}
	return math.Max(0, 1-total/(180*float64(compared)))
}

// Policy names accepted by NewPolicy.
const (
	PolicyTolerance    = "tolerance"
	PolicyProportional = "proportional"
)

// NewPolicy builds a scoring policy by name. An empty name selects the tolerance policy.
func NewPolicy(name string, tolerance float64) (Policy, error) {
	switch name {
	case "", PolicyTolerance:
		if tolerance < 0 {
			return nil, fmt.Errorf("tolerance must not be negative, got %v", tolerance)
		}
		return ToleranceScorer{Tolerance: tolerance}, nil
	case PolicyProportional:
		return ProportionalScorer{}, nil
	default:
		return nil, fmt.Errorf("unknown scoring policy %q", name)
	}
}

package pose

import (
	"fmt"
	"math"

	"github.com/goccy/go-json"
)

// Sample is one recorded set of limb angles for a template.
type Sample struct {
	Angles    Angles `json:"angles"`
	Timestamp int64  `json:"timestamp"`
}

// Trainer turns recorded samples into template target angles.
type Trainer struct{}

// NewTrainer creates a new Trainer instance.
func NewTrainer() *Trainer {
	return &Trainer{}
}

// Train averages the angles of recorded samples, one circular mean per limb.
// Every sample must carry all six limbs.
func (t *Trainer) Train(samples []json.RawMessage) (Angles, error) {
	if len(samples) == 0 {
		return nil, fmt.Errorf("no samples provided")
	}

	sets := make([]Angles, 0, len(samples))
	for i, raw := range samples {
		var sample Sample
		if err := json.Unmarshal(raw, &sample); err != nil {
			return nil, fmt.Errorf("failed to parse sample %d: %w", i, err)
		}
		for _, limb := range Limbs {
			if _, ok := sample.Angles[limb]; !ok {
				return nil, fmt.Errorf("sample %d is missing %s", i, limb)
			}
		}
		sets = append(sets, sample.Angles)
	}

	return MeanAngles(sets), nil
}

// MeanAngles returns the per-limb circular mean of angle sets. Limbs absent from a set
// are skipped for that set.
func MeanAngles(sets []Angles) Angles {
	mean := make(Angles, len(Limbs))
	for _, limb := range Limbs {
		var values []float64
		for _, set := range sets {
			if v, ok := set[limb]; ok {
				values = append(values, v)
			}
		}
		if len(values) > 0 {
			mean[limb] = CircularMean(values)
		}
	}
	return mean
}

// CircularMean averages angles in degrees on the circle, so 350 and 10 average to 0.
// The result is rounded to a tenth of a degree.
func CircularMean(values []float64) float64 {
	var sumSin, sumCos float64
	for _, v := range values {
		rad := v * math.Pi / 180
		sumSin += math.Sin(rad)
		sumCos += math.Cos(rad)
	}
	deg := math.Atan2(sumSin, sumCos) * 180 / math.Pi
	return Normalize(math.Round(Normalize(deg)*10) / 10)
}

package classify

import (
	"fmt"
	"math"
	"sort"

	apperrors "github.com/akthammomani/maestro-finder/internal/errors"
)

// Prediction pairs a composer label with its probability.
type Prediction struct {
	Label       string  `json:"label"`
	Probability float64 `json:"probability"`
}

// Result is the aggregated prediction: labels ranked by descending
// probability (ties keep original label-set order) plus the argmax label.
type Result struct {
	Ranked []Prediction `json:"predictions"`
	Top    string       `json:"top"`
}

// Probabilities returns the ranked predictions as a label keyed map.
func (r *Result) Probabilities() map[string]float64 {
	m := make(map[string]float64, len(r.Ranked))
	for _, p := range r.Ranked {
		m[p.Label] = p.Probability
	}
	return m
}

// Aggregate zips the raw model output with the label set, renormalizes
// defensively when the sum drifts beyond tolerance, and ranks descending.
// A degenerate output (non-positive or non-finite sum) is a contract
// violation, never coerced into a default prediction.
func Aggregate(labels []string, probs []float32, tolerance float64) (*Result, error) {
	if len(labels) != len(probs) {
		return nil, fmt.Errorf("%w: %d probabilities for %d labels",
			apperrors.ErrShapeMismatch, len(probs), len(labels))
	}

	var sum float64
	values := make([]float64, len(probs))
	for i, p := range probs {
		values[i] = float64(p)
		sum += values[i]
	}
	if sum <= 0 || math.IsNaN(sum) || math.IsInf(sum, 0) {
		return nil, fmt.Errorf("degenerate probability vector, sum %v", sum)
	}
	if math.Abs(sum-1.0) > tolerance {
		for i := range values {
			values[i] /= sum
		}
	}

	ranked := make([]Prediction, len(labels))
	for i, label := range labels {
		ranked[i] = Prediction{Label: label, Probability: values[i]}
	}
	// stable sort keeps the original label-set index order on ties
	sort.SliceStable(ranked, func(i, j int) bool {
		return ranked[i].Probability > ranked[j].Probability
	})

	return &Result{Ranked: ranked, Top: ranked[0].Label}, nil
}

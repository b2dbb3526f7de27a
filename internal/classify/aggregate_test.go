package classify

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"

	apperrors "github.com/akthammomani/maestro-finder/internal/errors"
)

var composers = []string{"Bach", "Beethoven", "Chopin", "Mozart"}

func TestAggregateRanksDescending(t *testing.T) {
	res, err := Aggregate(composers, []float32{0.1, 0.7, 0.1, 0.1}, 1e-6)

	assert := assert.New(t)
	assert.NoError(err)
	assert.Equal("Beethoven", res.Top)
	assert.Equal("Beethoven", res.Ranked[0].Label)
	assert.InDelta(0.7, res.Ranked[0].Probability, 1e-6)

	// ties broken by original label-set index order
	assert.Equal("Bach", res.Ranked[1].Label)
	assert.Equal("Chopin", res.Ranked[2].Label)
	assert.Equal("Mozart", res.Ranked[3].Label)
}

func TestAggregateSumsToOne(t *testing.T) {
	cases := []struct {
		name  string
		probs []float32
	}{
		{"AlreadyNormalized", []float32{0.25, 0.25, 0.25, 0.25}},
		{"DriftedLow", []float32{0.2, 0.2, 0.2, 0.2}},
		{"DriftedHigh", []float32{0.5, 0.5, 0.5, 0.5}},
		{"Skewed", []float32{0.9, 0.05, 0.04, 0.02}},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			res, err := Aggregate(composers, tc.probs, 1e-6)
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}

			var sum float64
			for i, p := range res.Ranked {
				sum += p.Probability
				if i > 0 && p.Probability > res.Ranked[i-1].Probability {
					t.Errorf("not sorted descending at index %d", i)
				}
			}
			if math.Abs(sum-1.0) > 1e-6 {
				t.Errorf("probabilities sum to %v, expected 1.0", sum)
			}
		})
	}
}

func TestAggregateRejectsDegenerateOutput(t *testing.T) {
	assert := assert.New(t)

	_, err := Aggregate(composers, []float32{0, 0, 0, 0}, 1e-6)
	assert.Error(err)

	nan := float32(math.NaN())
	_, err = Aggregate(composers, []float32{nan, 0.1, 0.1, 0.1}, 1e-6)
	assert.Error(err)
}

func TestAggregateLengthMismatch(t *testing.T) {
	_, err := Aggregate(composers, []float32{0.5, 0.5}, 1e-6)
	assert.ErrorIs(t, err, apperrors.ErrShapeMismatch)
}

func TestProbabilitiesMap(t *testing.T) {
	res, err := Aggregate(composers, []float32{0.1, 0.7, 0.1, 0.1}, 1e-6)
	assert.NoError(t, err)

	m := res.Probabilities()
	assert.Len(t, m, 4)
	assert.InDelta(t, 0.7, m["Beethoven"], 1e-6)
}

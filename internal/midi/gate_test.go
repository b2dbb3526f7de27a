package midi

import (
	"errors"
	"testing"

	apperrors "github.com/akthammomani/maestro-finder/internal/errors"
)

func sequence(count int, spacing float64) []Note {
	notes := make([]Note, count)
	for i := range notes {
		notes[i] = Note{
			Pitch:    60 + i%12,
			Start:    float64(i) * spacing,
			Duration: spacing,
			Velocity: 80,
		}
	}
	return notes
}

func TestCheckSequence(t *testing.T) {
	gate := DefaultSequenceGate()

	cases := []struct {
		name   string
		notes  []Note
		sparse bool
	}{
		{"Empty", nil, true},
		{"TooFewNotes", sequence(9, 0.5), true},
		{"TooShortSpan", sequence(20, 0.05), true},
		{"EnoughMaterial", sequence(12, 0.25), false},
		{"ExactlyAtThresholds", sequence(10, 0.2), false},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			err := CheckSequence(tc.notes, gate)
			if tc.sparse && !errors.Is(err, apperrors.ErrTooSparse) {
				t.Errorf("expected ErrTooSparse, got %v", err)
			}
			if !tc.sparse && err != nil {
				t.Errorf("unexpected error: %v", err)
			}
		})
	}
}

package midi

import (
	"fmt"

	apperrors "github.com/akthammomani/maestro-finder/internal/errors"
)

// SequenceGate holds the sparsity thresholds a note sequence must clear
// before extraction runs. Applied to parsed MIDI uploads and to
// transcription output alike.
type SequenceGate struct {
	MinNotes int     // minimum note count
	MinSpan  float64 // minimum total span in seconds
}

// DefaultSequenceGate returns the standard sparsity thresholds
func DefaultSequenceGate() SequenceGate {
	return SequenceGate{
		MinNotes: 10,
		MinSpan:  2.0,
	}
}

// CheckSequence rejects sequences too sparse to classify meaningfully.
func CheckSequence(notes []Note, gate SequenceGate) error {
	if len(notes) < gate.MinNotes {
		return fmt.Errorf("%w: %d notes, need at least %d",
			apperrors.ErrTooSparse, len(notes), gate.MinNotes)
	}
	if span := Span(notes); span < gate.MinSpan {
		return fmt.Errorf("%w: %.2fs of material, need at least %.1fs",
			apperrors.ErrTooSparse, span, gate.MinSpan)
	}
	return nil
}

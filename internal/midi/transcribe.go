package midi

import (
	"context"
	"errors"
	"fmt"

	apperrors "github.com/akthammomani/maestro-finder/internal/errors"
	"github.com/akthammomani/maestro-finder/internal/exec"
)

// Transcriber converts audio to MIDI using Basic Pitch
type Transcriber struct {
	runner *exec.Runner
}

// NewTranscriber creates a new MIDI transcriber
func NewTranscriber(runner *exec.Runner) *Transcriber {
	return &Transcriber{runner: runner}
}

// Transcribe converts an audio file to MIDI. The caller bounds the call
// with a context deadline; hitting it maps to ErrTranscriptionTimeout.
func (t *Transcriber) Transcribe(ctx context.Context, audioPath, midiPath string) error {
	result, err := t.runner.RunScript(ctx, "transcribe.py", audioPath, midiPath)
	if err != nil {
		if errors.Is(ctx.Err(), context.DeadlineExceeded) {
			return fmt.Errorf("%w: %v", apperrors.ErrTranscriptionTimeout, ctx.Err())
		}
		perr := apperrors.NewProcessError("basic-pitch", "transcription", result.ExitCode, result.Stderr, err)
		return fmt.Errorf("%w: %v", apperrors.ErrTranscription, perr)
	}
	return nil
}

package audio

import (
	"context"
	"fmt"

	apperrors "github.com/akthammomani/maestro-finder/internal/errors"
	"github.com/akthammomani/maestro-finder/internal/exec"
)

// Converter decodes compressed audio to mono WAV using ffmpeg so the
// input gates and the transcriber always see the same sample layout.
type Converter struct {
	runner *exec.Runner
	ffmpeg string
}

// NewConverter creates a new audio converter
func NewConverter(runner *exec.Runner) *Converter {
	return &Converter{runner: runner, ffmpeg: "ffmpeg"}
}

// ToWAV converts an audio file to 16-bit mono WAV at 22050 Hz.
func (c *Converter) ToWAV(ctx context.Context, src, dst string) error {
	result, err := c.runner.Run(ctx, c.ffmpeg,
		"-y",
		"-i", src,
		"-ac", "1",
		"-ar", "22050",
		"-sample_fmt", "s16",
		dst,
	)
	if err != nil {
		perr := apperrors.NewProcessError("ffmpeg", "conversion", result.ExitCode, result.Stderr, err)
		return fmt.Errorf("%w: %v", apperrors.ErrCorruptedFile, perr)
	}
	return nil
}

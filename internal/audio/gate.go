package audio

import (
	"fmt"
	"math"
	"os"

	gaudio "github.com/go-audio/audio"
	"github.com/go-audio/wav"

	apperrors "github.com/akthammomani/maestro-finder/internal/errors"
)

// GateConfig holds the quality thresholds applied before transcription.
// The values mirror the ones the classifier's training data was screened
// with, so they are configuration rather than constants.
type GateConfig struct {
	MinDuration float64 // seconds
	MinRMS      float64 // amplitude floor, samples scaled to [-1, 1]
}

// DefaultGateConfig returns the standard input gate thresholds
func DefaultGateConfig() GateConfig {
	return GateConfig{
		MinDuration: 2.0,
		MinRMS:      0.005,
	}
}

// ReadWAVMono decodes a WAV file into mono float64 samples in [-1, 1]
// plus the sample rate. Stereo input is averaged across channels.
func ReadWAVMono(path string) ([]float64, int, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, 0, fmt.Errorf("open wav: %w", err)
	}
	defer f.Close()

	dec := wav.NewDecoder(f)
	if !dec.IsValidFile() {
		return nil, 0, fmt.Errorf("%w: not a valid WAV file", apperrors.ErrCorruptedFile)
	}

	buf, err := dec.FullPCMBuffer()
	if err != nil {
		return nil, 0, fmt.Errorf("%w: %v", apperrors.ErrCorruptedFile, err)
	}
	if buf == nil || buf.Format == nil || buf.Format.NumChannels < 1 {
		return nil, 0, fmt.Errorf("%w: empty PCM buffer", apperrors.ErrCorruptedFile)
	}

	return downmix(buf, dec.BitDepth), buf.Format.SampleRate, nil
}

// downmix averages an interleaved PCM buffer across channels and scales
// samples into [-1, 1] by the source bit depth.
func downmix(buf *gaudio.IntBuffer, bitDepth uint16) []float64 {
	scale := 1.0
	if bitDepth > 0 && bitDepth <= 32 {
		scale = float64(int64(1) << (bitDepth - 1))
	}

	ch := buf.Format.NumChannels
	frames := len(buf.Data) / ch
	out := make([]float64, frames)
	for i := 0; i < frames; i++ {
		var sum float64
		for c := 0; c < ch; c++ {
			sum += float64(buf.Data[i*ch+c])
		}
		out[i] = sum / float64(ch) / scale
	}
	return out
}

// CheckLevels applies the duration and loudness gates to a mono waveform.
// It returns ErrTooShort or ErrTooQuiet with the measured values attached.
func CheckLevels(samples []float64, sampleRate int, cfg GateConfig) error {
	var dur float64
	if sampleRate > 0 {
		dur = float64(len(samples)) / float64(sampleRate)
	}
	if dur < cfg.MinDuration {
		return fmt.Errorf("%w: %.2fs, need at least %.1fs",
			apperrors.ErrTooShort, dur, cfg.MinDuration)
	}

	rms := RMS(samples)
	if rms < cfg.MinRMS {
		return fmt.Errorf("%w: rms %.5f below floor %.5f",
			apperrors.ErrTooQuiet, rms, cfg.MinRMS)
	}
	return nil
}

// RMS computes the root-mean-square amplitude of a waveform.
func RMS(samples []float64) float64 {
	if len(samples) == 0 {
		return 0
	}
	var sum float64
	for _, s := range samples {
		sum += s * s
	}
	return math.Sqrt(sum / float64(len(samples)))
}

// GateWAVFile decodes a WAV file and applies the input gates in one step.
func GateWAVFile(path string, cfg GateConfig) error {
	samples, rate, err := ReadWAVMono(path)
	if err != nil {
		return err
	}
	return CheckLevels(samples, rate, cfg)
}

package roll

import (
	"fmt"

	apperrors "github.com/akthammomani/maestro-finder/internal/errors"
)

// Normalize validates a 2-D matrix, fixes its orientation, re-applies the
// value policy and flattens it into the model input tensor layout
// (batch=1, time=WindowFrames, pitch=NumPitches, channel=1), row-major.
//
// Either orientation is accepted: (pitch, time) or (time, pitch). This is
// the single place orientation is normalized; consumers never transpose
// again. The time axis is left-aligned, padded or truncated to
// cfg.WindowFrames.
func Normalize(values [][]float32, cfg Config) ([]float32, error) {
	pitches := cfg.NumPitches()

	if len(values) == 0 {
		return nil, fmt.Errorf("%w: empty matrix", apperrors.ErrShapeMismatch)
	}
	width := len(values[0])
	for i, row := range values {
		if len(row) != width {
			return nil, fmt.Errorf("%w: ragged matrix, row %d has %d columns, expected %d",
				apperrors.ErrShapeMismatch, i, len(row), width)
		}
	}

	// flip to time-major (time, pitch) if the pitch axis comes first
	timeMajor := values
	switch {
	case width == pitches:
		// already (time, pitch)
	case len(values) == pitches:
		timeMajor = transpose(values)
	default:
		return nil, fmt.Errorf("%w: got (%d, %d), neither axis is %d",
			apperrors.ErrShapeMismatch, len(values), width, pitches)
	}

	out := make([]float32, cfg.WindowFrames*pitches)
	frames := len(timeMajor)
	if frames > cfg.WindowFrames {
		frames = cfg.WindowFrames
	}
	for t := 0; t < frames; t++ {
		for p := 0; p < pitches; p++ {
			out[t*pitches+p] = normalizeValue(timeMajor[t][p], cfg.Policy)
		}
	}
	return out, nil
}

// normalizeValue casts a raw cell into the value range the model expects.
// Binary policy binarizes regardless of the incoming range, so velocity
// rolls fed to a binary model still come out as {0, 1}.
func normalizeValue(v float32, policy ValuePolicy) float32 {
	switch policy {
	case PolicyVelocity:
		return clampCell(v)
	case PolicyVelocityNormalized:
		return clampCell(v) / 127.0
	default: // PolicyBinary
		if v > 0 {
			return 1
		}
		return 0
	}
}

func clampCell(v float32) float32 {
	if v < 0 {
		return 0
	}
	if v > 127 {
		return 127
	}
	return v
}

func transpose(m [][]float32) [][]float32 {
	rows := len(m)
	cols := len(m[0])
	out := make([][]float32, cols)
	for c := 0; c < cols; c++ {
		out[c] = make([]float32, rows)
		for r := 0; r < rows; r++ {
			out[c][r] = m[r][c]
		}
	}
	return out
}

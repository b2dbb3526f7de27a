// Package roll rasterizes note event sequences into the fixed-shape piano
// roll matrix the composer classifier was trained on. The frame rate, window
// length, pitch range and value policy here must match the training pipeline
// exactly; a silent mismatch produces confidently wrong predictions.
package roll

import (
	"github.com/akthammomani/maestro-finder/internal/midi"
)

// ValuePolicy selects how note activity maps to cell values.
type ValuePolicy string

const (
	// PolicyBinary marks each active pitch/frame cell with 1. This is the
	// policy the deployed model was trained with.
	PolicyBinary ValuePolicy = "binary"
	// PolicyVelocity keeps raw MIDI velocity 0..127.
	PolicyVelocity ValuePolicy = "velocity"
	// PolicyVelocityNormalized clips velocity to 0..127 and divides by 127.
	PolicyVelocityNormalized ValuePolicy = "velocity_normalized"
)

// Config holds the rasterization parameters. Defaults reproduce the
// training pipeline; they are exposed as configuration so the single source
// of truth is here rather than re-derived at call sites.
type Config struct {
	FrameRate    int         // analysis frames per second
	WindowFrames int         // fixed time-window length
	PitchLow     int         // lowest MIDI pitch kept (A0)
	PitchHigh    int         // highest MIDI pitch kept (C8)
	Policy       ValuePolicy // cell value semantics
}

// DefaultConfig returns the training-exact rasterization parameters:
// 8 fps, 512 frames, pitches 21..108, binary cell values.
func DefaultConfig() Config {
	return Config{
		FrameRate:    8,
		WindowFrames: 512,
		PitchLow:     21,
		PitchHigh:    108,
		Policy:       PolicyBinary,
	}
}

// NumPitches returns the pitch-axis length (88 for the default range).
func (c Config) NumPitches() int {
	return c.PitchHigh - c.PitchLow + 1
}

// Roll is a pitch-major piano roll matrix: Values[p][t] covers pitch
// PitchLow+p at time t/FrameRate seconds. Shape is always
// (NumPitches, WindowFrames); this orientation is for display, the model
// input orientation is produced by Normalize.
type Roll struct {
	Values [][]float32
	Config Config
}

// Extract rasterizes a note sequence into the canonical roll. It is a pure
// function of its input: frames past the window are truncated (earliest
// frames win), shorter input leaves right-hand columns zero.
func Extract(notes []midi.Note, cfg Config) *Roll {
	pitches := cfg.NumPitches()
	values := make([][]float32, pitches)
	for p := range values {
		values[p] = make([]float32, cfg.WindowFrames)
	}

	fs := float64(cfg.FrameRate)
	for _, n := range notes {
		if n.Pitch < cfg.PitchLow || n.Pitch > cfg.PitchHigh {
			continue
		}
		row := values[n.Pitch-cfg.PitchLow]

		start := int(n.Start * fs)
		end := int(n.End() * fs)
		if end <= start {
			// a note shorter than one frame still occupies its onset frame
			end = start + 1
		}
		if start >= cfg.WindowFrames {
			continue
		}
		if end > cfg.WindowFrames {
			end = cfg.WindowFrames
		}

		v := cellValue(n.Velocity, cfg.Policy)
		for t := start; t < end; t++ {
			if v > row[t] {
				row[t] = v
			}
		}
	}

	return &Roll{Values: values, Config: cfg}
}

func cellValue(velocity int, policy ValuePolicy) float32 {
	switch policy {
	case PolicyVelocity:
		return float32(clampVelocity(velocity))
	case PolicyVelocityNormalized:
		return float32(clampVelocity(velocity)) / 127.0
	default: // PolicyBinary
		return 1
	}
}

func clampVelocity(v int) int {
	if v < 0 {
		return 0
	}
	if v > 127 {
		return 127
	}
	return v
}

// NonzeroFraction returns the share of active cells, a cheap sanity
// statistic for diagnosing empty or misaligned extractions.
func (r *Roll) NonzeroFraction() float64 {
	var nonzero, total int
	for _, row := range r.Values {
		for _, v := range row {
			if v != 0 {
				nonzero++
			}
			total++
		}
	}
	if total == 0 {
		return 0
	}
	return float64(nonzero) / float64(total)
}

// Max returns the largest cell value.
func (r *Roll) Max() float32 {
	var max float32
	for _, row := range r.Values {
		for _, v := range row {
			if v > max {
				max = v
			}
		}
	}
	return max
}

package roll

import (
	"reflect"
	"testing"

	"github.com/akthammomani/maestro-finder/internal/midi"
)

func TestExtractShape(t *testing.T) {
	cfg := DefaultConfig()

	cases := []struct {
		name  string
		notes []midi.Note
	}{
		{"Empty", nil},
		{"SingleNote", []midi.Note{{Pitch: 60, Start: 0, Duration: 1, Velocity: 80}}},
		{"VeryLong", []midi.Note{{Pitch: 60, Start: 0, Duration: 500, Velocity: 80}}},
		{"OutOfRangePitches", []midi.Note{
			{Pitch: 5, Start: 0, Duration: 1, Velocity: 80},
			{Pitch: 120, Start: 0, Duration: 1, Velocity: 80},
		}},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			r := Extract(tc.notes, cfg)
			if len(r.Values) != 88 {
				t.Fatalf("expected 88 pitch rows, got %d", len(r.Values))
			}
			for p, row := range r.Values {
				if len(row) != 512 {
					t.Fatalf("row %d has %d frames, expected 512", p, len(row))
				}
			}
		})
	}
}

func TestExtractIdempotent(t *testing.T) {
	cfg := DefaultConfig()
	notes := []midi.Note{
		{Pitch: 60, Start: 0.1, Duration: 0.7, Velocity: 90},
		{Pitch: 64, Start: 0.5, Duration: 1.2, Velocity: 70},
		{Pitch: 67, Start: 1.0, Duration: 0.4, Velocity: 110},
	}

	a := Extract(notes, cfg)
	b := Extract(notes, cfg)
	if !reflect.DeepEqual(a.Values, b.Values) {
		t.Error("extracting the same sequence twice should yield identical matrices")
	}
}

func TestExtractPadsRightWithZeros(t *testing.T) {
	cfg := DefaultConfig()
	// notes end well before frame 100 at 8 fps
	notes := []midi.Note{
		{Pitch: 60, Start: 0, Duration: 10, Velocity: 80},
		{Pitch: 72, Start: 2, Duration: 8, Velocity: 80},
	}

	r := Extract(notes, cfg)
	for p, row := range r.Values {
		for f := 100; f < 512; f++ {
			if row[f] != 0 {
				t.Fatalf("expected zero padding at pitch row %d frame %d, got %v", p, f, row[f])
			}
		}
	}
}

func TestExtractTruncatesKeepingEarliestFrames(t *testing.T) {
	cfg := DefaultConfig()
	// ~1000 frames of material at 8 fps: a note at the start and one past
	// the window
	early := midi.Note{Pitch: 60, Start: 0, Duration: 1, Velocity: 80}
	late := midi.Note{Pitch: 72, Start: 100, Duration: 25, Velocity: 80} // frames 800..1000

	r := Extract([]midi.Note{early, late}, cfg)

	if r.Values[60-21][0] == 0 {
		t.Error("earliest frames must be kept")
	}
	for f := 0; f < 512; f++ {
		if r.Values[72-21][f] != 0 {
			t.Errorf("content beyond frame 512 must be truncated, found activity at frame %d", f)
		}
	}
}

func TestExtractFourNoteScenario(t *testing.T) {
	cfg := DefaultConfig()
	pitches := []int{60, 64, 67, 72}
	var notes []midi.Note
	for i, p := range pitches {
		notes = append(notes, midi.Note{
			Pitch:    p,
			Start:    float64(i) * 0.75,
			Duration: 0.75,
			Velocity: 90,
		})
	}

	r := Extract(notes, cfg)

	active := make(map[int]bool)
	for rowIdx, row := range r.Values {
		for f, v := range row {
			if v == 0 {
				continue
			}
			active[rowIdx] = true
			// activity must fall inside the note's onset/duration span
			pitch := rowIdx + cfg.PitchLow
			var found bool
			for _, n := range notes {
				if n.Pitch != pitch {
					continue
				}
				start := int(n.Start * float64(cfg.FrameRate))
				end := int(n.End() * float64(cfg.FrameRate))
				if f >= start && f <= end {
					found = true
				}
			}
			if !found {
				t.Errorf("activity at row %d frame %d outside any note span", rowIdx, f)
			}
		}
	}

	for _, p := range pitches {
		if !active[p-cfg.PitchLow] {
			t.Errorf("expected activity in row %d (pitch %d)", p-cfg.PitchLow, p)
		}
	}
	if len(active) != len(pitches) {
		t.Errorf("expected exactly %d active rows, got %d", len(pitches), len(active))
	}
}

func TestExtractSubFrameNoteOccupiesOnsetFrame(t *testing.T) {
	cfg := DefaultConfig()
	// 10ms staccato note, far shorter than one 125ms frame
	notes := []midi.Note{{Pitch: 60, Start: 1.0, Duration: 0.01, Velocity: 80}}

	r := Extract(notes, cfg)
	if r.Values[60-21][8] == 0 {
		t.Error("a sub-frame note should still mark its onset frame")
	}
}

func TestValuePolicies(t *testing.T) {
	notes := []midi.Note{{Pitch: 60, Start: 0, Duration: 1, Velocity: 100}}

	t.Run("Binary", func(t *testing.T) {
		cfg := DefaultConfig()
		r := Extract(notes, cfg)
		if got := r.Values[60-21][0]; got != 1 {
			t.Errorf("binary policy: expected 1, got %v", got)
		}
	})

	t.Run("Velocity", func(t *testing.T) {
		cfg := DefaultConfig()
		cfg.Policy = PolicyVelocity
		r := Extract(notes, cfg)
		if got := r.Values[60-21][0]; got != 100 {
			t.Errorf("velocity policy: expected 100, got %v", got)
		}
	})

	t.Run("VelocityNormalized", func(t *testing.T) {
		cfg := DefaultConfig()
		cfg.Policy = PolicyVelocityNormalized
		r := Extract(notes, cfg)
		want := float32(100) / 127.0
		if got := r.Values[60-21][0]; got != want {
			t.Errorf("normalized policy: expected %v, got %v", want, got)
		}
	})
}

func TestRollStats(t *testing.T) {
	cfg := DefaultConfig()

	empty := Extract(nil, cfg)
	if empty.NonzeroFraction() != 0 || empty.Max() != 0 {
		t.Error("empty roll should have zero stats")
	}

	r := Extract([]midi.Note{{Pitch: 60, Start: 0, Duration: 64, Velocity: 80}}, cfg)
	want := 512.0 / float64(88*512)
	if got := r.NonzeroFraction(); got != want {
		t.Errorf("nonzero fraction: expected %v, got %v", want, got)
	}
	if r.Max() != 1 {
		t.Errorf("max: expected 1, got %v", r.Max())
	}
}

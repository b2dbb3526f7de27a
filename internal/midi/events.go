package midi

import (
	"bytes"
	"fmt"
	"io"
	"os"
	"sort"

	"gitlab.com/gomidi/midi/v2/smf"

	apperrors "github.com/akthammomani/maestro-finder/internal/errors"
)

// Note represents a single note event. The collection produced by Parse is
// ordered by onset; simultaneous notes are allowed.
type Note struct {
	Pitch    int     `json:"pitch"`    // MIDI pitch 0..127
	Start    float64 `json:"start"`    // onset in seconds
	Duration float64 `json:"duration"` // seconds, > 0
	Velocity int     `json:"velocity"` // 0..127
}

// End returns the note's release time in seconds.
func (n Note) End() float64 {
	return n.Start + n.Duration
}

// ParseFile reads a standard MIDI file into a note event sequence.
func ParseFile(path string) ([]Note, error) {
	dat, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", apperrors.ErrFileNotFound, err)
	}
	return Parse(bytes.NewReader(dat))
}

// Parse decodes SMF data into note events, merging all tracks and channels.
// Note-on events with velocity zero are treated as note-offs. Notes still
// sounding at end of track are closed at the last event time.
func Parse(r io.Reader) (notes []Note, e error) {
	// the smf reader panics on some malformed files
	// https://github.com/gomidi/midi/issues/20
	defer func() {
		if rec := recover(); rec != nil {
			notes = nil
			e = fmt.Errorf("%w: %v", apperrors.ErrCorruptedFile, rec)
		}
	}()

	s, err := smf.ReadFrom(r)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", apperrors.ErrCorruptedFile, err)
	}

	type onset struct {
		start    float64
		velocity int
	}

	for _, events := range s.Tracks {
		var absTicks int64
		var lastTime float64

		// open notes per channel/key, FIFO so overlapping repeats of the
		// same pitch close in onset order
		open := make(map[[2]uint8][]onset)

		for _, event := range events {
			absTicks += int64(event.Delta)
			t := float64(s.TimeAt(absTicks)) / 1e6 // microseconds -> seconds
			if t > lastTime {
				lastTime = t
			}

			var channel, key, velocity uint8
			switch {
			case event.Message.GetNoteOn(&channel, &key, &velocity) && velocity > 0:
				k := [2]uint8{channel, key}
				open[k] = append(open[k], onset{start: t, velocity: int(velocity)})
			case event.Message.GetNoteOff(&channel, &key, &velocity),
				event.Message.GetNoteOn(&channel, &key, &velocity): // velocity == 0
				k := [2]uint8{channel, key}
				pending := open[k]
				if len(pending) == 0 {
					continue
				}
				on := pending[0]
				open[k] = pending[1:]
				if t > on.start {
					notes = append(notes, Note{
						Pitch:    int(key),
						Start:    on.start,
						Duration: t - on.start,
						Velocity: on.velocity,
					})
				}
			}
		}

		// close anything left hanging at end of track
		for k, pending := range open {
			for _, on := range pending {
				if lastTime > on.start {
					notes = append(notes, Note{
						Pitch:    int(k[1]),
						Start:    on.start,
						Duration: lastTime - on.start,
						Velocity: on.velocity,
					})
				}
			}
		}
	}

	sort.Slice(notes, func(i, j int) bool {
		if notes[i].Start != notes[j].Start {
			return notes[i].Start < notes[j].Start
		}
		return notes[i].Pitch < notes[j].Pitch
	})
	return notes, nil
}

// Span returns the total duration of a note sequence in seconds.
func Span(notes []Note) float64 {
	var end float64
	for _, n := range notes {
		if n.End() > end {
			end = n.End()
		}
	}
	return end
}

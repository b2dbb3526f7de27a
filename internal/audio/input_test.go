package audio

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	apperrors "github.com/akthammomani/maestro-finder/internal/errors"
)

func TestDetectFormatBytes(t *testing.T) {
	cases := []struct {
		name   string
		header []byte
		want   Format
	}{
		{"MIDI", []byte("MThd\x00\x00\x00\x06"), FormatMIDI},
		{"WAV", []byte("RIFF\x24\x08\x00\x00WAVE"), FormatWAV},
		{"MP3WithID3", []byte("ID3\x03\x00"), FormatMP3},
		{"MP3FrameSync", []byte{0xFF, 0xFB, 0x90, 0x00}, FormatMP3},
		{"Unknown", []byte("GIF89a.."), FormatUnknown},
		{"TooShort", []byte("MT"), FormatUnknown},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := DetectFormatBytes(tc.header); got != tc.want {
				t.Errorf("expected %s, got %s", tc.want, got)
			}
		})
	}
}

func TestFormatForExtension(t *testing.T) {
	cases := map[string]Format{
		"song.mid":   FormatMIDI,
		"song.MIDI":  FormatMIDI,
		"take.wav":   FormatWAV,
		"take.mp3":   FormatMP3,
		"sheet.xml":  FormatUnknown,
		"noextupply": FormatUnknown,
	}
	for name, want := range cases {
		if got := FormatForExtension(name); got != want {
			t.Errorf("%s: expected %s, got %s", name, want, got)
		}
	}
}

func TestValidateInput(t *testing.T) {
	t.Run("MissingFile", func(t *testing.T) {
		_, err := ValidateInput(filepath.Join(t.TempDir(), "nope.mid"))
		if !errors.Is(err, apperrors.ErrFileNotFound) {
			t.Errorf("expected ErrFileNotFound, got %v", err)
		}
	})

	t.Run("UnsupportedContent", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "input.bin")
		if err := os.WriteFile(path, []byte("certainly not audio data"), 0644); err != nil {
			t.Fatal(err)
		}
		_, err := ValidateInput(path)
		if !errors.Is(err, apperrors.ErrUnsupportedFormat) {
			t.Errorf("expected ErrUnsupportedFormat, got %v", err)
		}
	})

	t.Run("ValidMIDIHeader", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "input.mid")
		if err := os.WriteFile(path, []byte("MThd\x00\x00\x00\x06\x00\x01\x00\x01\x01\xe0"), 0644); err != nil {
			t.Fatal(err)
		}
		format, err := ValidateInput(path)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if format != FormatMIDI {
			t.Errorf("expected midi, got %s", format)
		}
		if format.IsAudio() {
			t.Error("MIDI should not need transcription")
		}
	})
}

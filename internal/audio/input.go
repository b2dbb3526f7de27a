package audio

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	apperrors "github.com/akthammomani/maestro-finder/internal/errors"
)

const (
	MaxFileSize = 50 * 1024 * 1024 // 50MB
)

// Format represents an input file format
type Format string

const (
	FormatWAV     Format = "wav"
	FormatMP3     Format = "mp3"
	FormatMIDI    Format = "midi"
	FormatUnknown Format = "unknown"
)

// IsAudio reports whether the format needs transcription before analysis.
func (f Format) IsAudio() bool {
	return f == FormatWAV || f == FormatMP3
}

// ValidateInput checks if the input file is valid for processing
func ValidateInput(path string) (Format, error) {
	info, err := os.Stat(path)
	if os.IsNotExist(err) {
		return FormatUnknown, fmt.Errorf("%w: %s", apperrors.ErrFileNotFound, path)
	}
	if err != nil {
		return FormatUnknown, fmt.Errorf("stat file: %w", err)
	}

	if info.Size() > MaxFileSize {
		return FormatUnknown, fmt.Errorf("%w: maximum size is 50MB", apperrors.ErrFileTooLarge)
	}

	format, err := detectFormat(path)
	if err != nil {
		return FormatUnknown, err
	}

	if format == FormatUnknown {
		return FormatUnknown, fmt.Errorf("%w: please provide a MIDI, WAV or MP3 file", apperrors.ErrUnsupportedFormat)
	}

	return format, nil
}

// detectFormat checks file magic bytes to determine input format
func detectFormat(path string) (Format, error) {
	f, err := os.Open(path)
	if err != nil {
		return FormatUnknown, fmt.Errorf("%w: %v", apperrors.ErrCorruptedFile, err)
	}
	defer f.Close()

	header := make([]byte, 12)
	n, err := f.Read(header)
	if err != nil || n < 4 {
		return FormatUnknown, fmt.Errorf("%w: could not read file header", apperrors.ErrCorruptedFile)
	}

	return DetectFormatBytes(header[:n]), nil
}

// DetectFormatBytes classifies a file header.
func DetectFormatBytes(header []byte) Format {
	if len(header) < 4 {
		return FormatUnknown
	}

	// Standard MIDI file (MThd)
	if string(header[:4]) == "MThd" {
		return FormatMIDI
	}

	// WAV (RIFF....WAVE)
	if string(header[:4]) == "RIFF" && len(header) >= 12 && string(header[8:12]) == "WAVE" {
		return FormatWAV
	}

	// MP3 with ID3 tag
	if string(header[:3]) == "ID3" {
		return FormatMP3
	}

	// MP3 frame sync
	if header[0] == 0xFF && (header[1]&0xE0) == 0xE0 {
		return FormatMP3
	}

	return FormatUnknown
}

// FormatForExtension maps a filename extension to a Format, for upload
// checks that run before any bytes are on disk.
func FormatForExtension(name string) Format {
	switch strings.ToLower(filepath.Ext(name)) {
	case ".mid", ".midi":
		return FormatMIDI
	case ".wav":
		return FormatWAV
	case ".mp3":
		return FormatMP3
	}
	return FormatUnknown
}

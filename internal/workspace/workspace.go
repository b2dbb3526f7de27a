package workspace

import (
	"fmt"
	"os"
	"path/filepath"
	"time"
)

// Workspace manages temporary files for a single prediction request.
// Everything staged here (uploaded bytes, converted audio, transcribed
// MIDI) is removed on every exit path via Cleanup.
type Workspace struct {
	Dir       string
	CreatedAt time.Time
}

// Create creates a new isolated workspace in the system temp directory
func Create() (*Workspace, error) {
	dir, err := os.MkdirTemp("", "maestro-*")
	if err != nil {
		return nil, fmt.Errorf("create workspace: %w", err)
	}

	return &Workspace{
		Dir:       dir,
		CreatedAt: time.Now(),
	}, nil
}

// Path helpers for workspace files
func (w *Workspace) InputAudio(ext string) string { return filepath.Join(w.Dir, "input"+ext) }
func (w *Workspace) InputWAV() string             { return filepath.Join(w.Dir, "input.wav") }
func (w *Workspace) InputMIDI() string            { return filepath.Join(w.Dir, "input.mid") }
func (w *Workspace) TranscribedMIDI() string      { return filepath.Join(w.Dir, "transcribed.mid") }

// Cleanup removes the workspace directory and all contents
func (w *Workspace) Cleanup() error {
	return os.RemoveAll(w.Dir)
}

// WriteFile stages raw bytes into the workspace
func (w *Workspace) WriteFile(name string, data []byte) (string, error) {
	dst := filepath.Join(w.Dir, name)
	if err := os.WriteFile(dst, data, 0644); err != nil {
		return "", fmt.Errorf("write workspace file: %w", err)
	}
	return dst, nil
}

// CopyFile copies a file into the workspace
func (w *Workspace) CopyFile(src, dstName string) (string, error) {
	input, err := os.ReadFile(src)
	if err != nil {
		return "", fmt.Errorf("read source: %w", err)
	}
	return w.WriteFile(dstName, input)
}

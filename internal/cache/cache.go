// Package cache keeps transcription results keyed by audio content hash.
// Basic Pitch is by far the slowest stage of the pipeline, so repeated
// predictions on the same recording reuse the transcribed MIDI.
package cache

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"io"
	"os"
	"path/filepath"
)

// TranscriptionCache stores transcribed MIDI files by content hash
type TranscriptionCache struct {
	dir string
}

// New creates the cache under the user cache directory.
func New() (*TranscriptionCache, error) {
	base, err := os.UserCacheDir()
	if err != nil {
		return nil, fmt.Errorf("resolve cache dir: %w", err)
	}
	dir := filepath.Join(base, "maestro-finder", "transcriptions")
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("create cache dir: %w", err)
	}
	return &TranscriptionCache{dir: dir}, nil
}

// NewAt creates the cache rooted at an explicit directory.
func NewAt(dir string) (*TranscriptionCache, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("create cache dir: %w", err)
	}
	return &TranscriptionCache{dir: dir}, nil
}

// KeyForFile hashes file contents into a cache key
func KeyForFile(path string) (string, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", fmt.Errorf("open for hashing: %w", err)
	}
	defer f.Close()

	hasher := sha256.New()
	if _, err := io.Copy(hasher, f); err != nil {
		return "", fmt.Errorf("hash file: %w", err)
	}
	return hex.EncodeToString(hasher.Sum(nil)), nil
}

func (c *TranscriptionCache) path(key string) string {
	return filepath.Join(c.dir, key+".mid")
}

// Get returns the cached MIDI path for a key, if present.
func (c *TranscriptionCache) Get(key string) (string, bool) {
	p := c.path(key)
	if _, err := os.Stat(p); err != nil {
		return "", false
	}
	return p, true
}

// Put copies a transcribed MIDI file into the cache and returns its
// cached path.
func (c *TranscriptionCache) Put(key, midiPath string) (string, error) {
	data, err := os.ReadFile(midiPath)
	if err != nil {
		return "", fmt.Errorf("read transcription: %w", err)
	}
	p := c.path(key)
	if err := os.WriteFile(p, data, 0644); err != nil {
		return "", fmt.Errorf("write cache entry: %w", err)
	}
	return p, nil
}

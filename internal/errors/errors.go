package errors

import (
	"errors"
	"fmt"
)

// Sentinel errors for expected failure modes
var (
	// Input-quality rejections. Recoverable: the user should retry with
	// better input.
	ErrTooShort  = errors.New("recording too short")
	ErrTooQuiet  = errors.New("recording too quiet or silent")
	ErrTooSparse = errors.New("not enough notes to analyze")

	// Collaborator failures, surfaced as a user-facing message.
	ErrTranscription        = errors.New("audio transcription failed")
	ErrTranscriptionTimeout = errors.New("audio transcription timed out")

	// Contract violations and fatal conditions.
	ErrShapeMismatch    = errors.New("piano roll shape mismatch")
	ErrModelUnavailable = errors.New("classifier model unavailable")

	// File-level input problems.
	ErrFileNotFound      = errors.New("file not found")
	ErrUnsupportedFormat = errors.New("unsupported format")
	ErrCorruptedFile     = errors.New("file corrupted or unreadable")
	ErrFileTooLarge      = errors.New("file exceeds size limit")
)

// ProcessError represents a failure in an external process
type ProcessError struct {
	Tool     string // "basic-pitch", "ffmpeg"
	Stage    string // "transcription", "conversion"
	ExitCode int
	Stderr   string
	Cause    error
}

func (e *ProcessError) Error() string {
	if e.Stderr != "" {
		return fmt.Sprintf("%s failed at %s (exit %d): %s", e.Tool, e.Stage, e.ExitCode, e.Stderr)
	}
	return fmt.Sprintf("%s failed at %s (exit %d)", e.Tool, e.Stage, e.ExitCode)
}

func (e *ProcessError) Unwrap() error {
	return e.Cause
}

// NewProcessError creates a ProcessError
func NewProcessError(tool, stage string, exitCode int, stderr string, cause error) *ProcessError {
	return &ProcessError{
		Tool:     tool,
		Stage:    stage,
		ExitCode: exitCode,
		Stderr:   stderr,
		Cause:    cause,
	}
}

// IsRejection reports whether err is an input-quality or collaborator
// failure the caller should show to the user rather than log as a bug.
func IsRejection(err error) bool {
	return Reason(err) != ""
}

// Reason maps a rejection to a stable machine-readable code, or "" if the
// error is not a user-facing rejection.
func Reason(err error) string {
	switch {
	case errors.Is(err, ErrTooShort):
		return "too_short"
	case errors.Is(err, ErrTooQuiet):
		return "too_quiet"
	case errors.Is(err, ErrTooSparse):
		return "too_sparse"
	case errors.Is(err, ErrTranscriptionTimeout):
		return "transcription_timeout"
	case errors.Is(err, ErrTranscription):
		return "transcription_error"
	case errors.Is(err, ErrUnsupportedFormat):
		return "unsupported_format"
	case errors.Is(err, ErrFileTooLarge):
		return "file_too_large"
	case errors.Is(err, ErrCorruptedFile):
		return "corrupted_file"
	case errors.Is(err, ErrFileNotFound):
		return "file_not_found"
	default:
		return ""
	}
}

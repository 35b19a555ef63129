package errors

import (
	"errors"
	"fmt"
)

// Sentinel errors for expected failure modes.
//
// ErrSoundFontMissing and ErrDocumentRead are job-level: they abort the
// whole conversion before any page work happens. Everything else is
// page-level and only drops the page it occurred on.
var (
	ErrSoundFontMissing = errors.New("sound font not found")
	ErrDocumentRead     = errors.New("document unreadable")
	ErrScoreMissing     = errors.New("no recognized score produced")
	ErrScoreParse       = errors.New("recognized score unparseable")
	ErrMidiRender       = errors.New("midi render failed")
	ErrKeyUndetermined  = errors.New("key could not be determined")
)

// JobLevel reports whether err aborts the whole job rather than a single page.
func JobLevel(err error) bool {
	return errors.Is(err, ErrSoundFontMissing) || errors.Is(err, ErrDocumentRead)
}

// ProcessError represents a failure in an external process
type ProcessError struct {
	Tool     string // "pdftoppm", "audiveris", "fluidsynth", "espeak-ng"
	Stage    string // "rasterize", "recognition", "synthesis", "narration"
	ExitCode int
	Stderr   string
	Cause    error
}

func (e *ProcessError) Error() string {
	switch {
	case e.Stderr != "":
		return fmt.Sprintf("%s failed at %s (exit %d): %s", e.Tool, e.Stage, e.ExitCode, e.Stderr)
	case e.ExitCode == 0 && e.Cause != nil:
		// The tool never produced an exit code, e.g. the binary is not
		// installed.
		return fmt.Sprintf("%s failed at %s: %v", e.Tool, e.Stage, e.Cause)
	default:
		return fmt.Sprintf("%s failed at %s (exit %d)", e.Tool, e.Stage, e.ExitCode)
	}
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

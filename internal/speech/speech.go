// Package speech renders narration text to speech audio via espeak-ng.
package speech

import (
	"context"
	"strconv"

	apperrors "github.com/JvM3d/conversor-de-partituras/internal/errors"
	"github.com/JvM3d/conversor-de-partituras/internal/exec"
)

const (
	tool = "espeak-ng"

	// DefaultVoice matches the narration language of the generated scripts
	DefaultVoice = "pt-br"

	// DefaultRate is the speaking rate in words per minute
	DefaultRate = 150
)

// Synthesizer renders text to a waveform file
type Synthesizer struct {
	runner *exec.Runner
	Voice  string
	Rate   int
}

// NewSynthesizer creates a speech synthesizer for the given voice
func NewSynthesizer(runner *exec.Runner, voice string) *Synthesizer {
	if voice == "" {
		voice = DefaultVoice
	}
	return &Synthesizer{runner: runner, Voice: voice, Rate: DefaultRate}
}

// Speak renders text synchronously into wavPath
func (s *Synthesizer) Speak(ctx context.Context, text, wavPath string) error {
	result, err := s.runner.Run(ctx, tool,
		"-v", s.Voice,
		"-s", strconv.Itoa(s.Rate),
		"-w", wavPath,
		"--", text,
	)
	if err != nil {
		return apperrors.NewProcessError(tool, "narration", result.ExitCode, result.Stderr, err)
	}
	return nil
}

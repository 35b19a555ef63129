// Package synth renders MIDI to audio through the FluidSynth engine.
package synth

import (
	"context"
	"fmt"
	"os"
	"strconv"

	apperrors "github.com/JvM3d/conversor-de-partituras/internal/errors"
	"github.com/JvM3d/conversor-de-partituras/internal/exec"
)

const (
	tool = "fluidsynth"

	// SampleRate is the fixed output rate of the synthesis engine
	SampleRate = 44100
)

// Synthesizer invokes FluidSynth with a configured sound font
type Synthesizer struct {
	runner    *exec.Runner
	SoundFont string
}

// NewSynthesizer creates a synthesizer bound to a sound font resource
func NewSynthesizer(runner *exec.Runner, soundFont string) *Synthesizer {
	return &Synthesizer{runner: runner, SoundFont: soundFont}
}

// CheckSoundFont verifies the sound font resource exists. Every page needs
// it, so the orchestrator runs this once before any page is processed.
func (s *Synthesizer) CheckSoundFont() error {
	if _, err := os.Stat(s.SoundFont); err != nil {
		return fmt.Errorf("%w: %s", apperrors.ErrSoundFontMissing, s.SoundFont)
	}
	return nil
}

// Render synthesizes midiPath into a waveform at wavPath
func (s *Synthesizer) Render(ctx context.Context, midiPath, wavPath string) error {
	result, err := s.runner.Run(ctx, tool,
		"-ni", s.SoundFont, midiPath,
		"-F", wavPath,
		"-r", strconv.Itoa(SampleRate),
	)
	if err != nil {
		return apperrors.NewProcessError(tool, "synthesis", result.ExitCode, result.Stderr, err)
	}
	return nil
}

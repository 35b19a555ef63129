// Package midi translates a symbolic score into a standard MIDI file.
package midi

import (
	"fmt"
	"sort"
	"strconv"
	"strings"

	"gitlab.com/gomidi/midi/v2"
	"gitlab.com/gomidi/midi/v2/smf"

	apperrors "github.com/JvM3d/conversor-de-partituras/internal/errors"
	"github.com/JvM3d/conversor-de-partituras/internal/score"
)

const (
	defaultTempo = 120.0
	velocity     = 80
	channel      = 0
)

// Render writes the score as a single-track SMF at path. A score without
// any sounded notes cannot be rendered and fails with ErrMidiRender.
func Render(s *score.SymbolicScore, path string) error {
	if len(s.Notes) == 0 {
		return fmt.Errorf("%w: score has no notes", apperrors.ErrMidiRender)
	}

	const quarter = uint32(960) // ticks per quarter note

	file := smf.New()
	file.TimeFormat = smf.MetricTicks(quarter)

	var track smf.Track

	num, denom := meter(s.TimeSignature)
	track.Add(0, smf.MetaMeter(num, denom))

	tempo := s.TempoBPM
	if tempo <= 0 {
		tempo = defaultTempo
	}
	track.Add(0, smf.MetaTempo(tempo))

	type event struct {
		tick uint32
		off  bool
		key  uint8
	}
	events := make([]event, 0, len(s.Notes)*2)
	for _, n := range s.Notes {
		start := uint32(n.Start * float64(quarter))
		length := uint32(n.Duration * float64(quarter))
		if length == 0 {
			length = quarter / 8
		}
		events = append(events,
			event{tick: start, key: n.Key},
			event{tick: start + length, off: true, key: n.Key},
		)
	}
	// Note-offs sort before note-ons at the same tick so repeated pitches
	// never stick.
	sort.Slice(events, func(i, j int) bool {
		if events[i].tick != events[j].tick {
			return events[i].tick < events[j].tick
		}
		return events[i].off && !events[j].off
	})

	last := uint32(0)
	for _, ev := range events {
		delta := ev.tick - last
		last = ev.tick
		if ev.off {
			track.Add(delta, midi.NoteOff(channel, ev.key))
		} else {
			track.Add(delta, midi.NoteOn(channel, ev.key, velocity))
		}
	}
	track.Close(0)

	if err := file.Add(track); err != nil {
		return fmt.Errorf("%w: %v", apperrors.ErrMidiRender, err)
	}
	if err := file.WriteFile(path); err != nil {
		return fmt.Errorf("%w: %v", apperrors.ErrMidiRender, err)
	}
	return nil
}

// meter parses a "3/4" style signature, defaulting to 4/4
func meter(signature string) (uint8, uint8) {
	parts := strings.SplitN(signature, "/", 2)
	if len(parts) != 2 {
		return 4, 4
	}
	num, err1 := strconv.Atoi(strings.TrimSpace(parts[0]))
	denom, err2 := strconv.Atoi(strings.TrimSpace(parts[1]))
	if err1 != nil || err2 != nil || num <= 0 || denom <= 0 || num > 255 || denom > 255 {
		return 4, 4
	}
	return uint8(num), uint8(denom)
}

// Package audio composes the final narrated waveform.
package audio

import (
	"fmt"
	"os"

	"github.com/go-audio/audio"
	"github.com/go-audio/wav"
)

const (
	// PauseSeconds is the fixed silence inserted between narration and piece
	PauseSeconds = 1.0

	outputBitDepth = 16
)

// Composer concatenates narration audio, a fixed silence gap, and piece
// audio into one waveform. The piece defines the output format; the
// narration is conformed to it, so the result's duration is exactly
// narration + pause + piece.
type Composer struct{}

// NewComposer creates a composer
func NewComposer() *Composer {
	return &Composer{}
}

// Compose writes narration ++ silence ++ piece to outPath as a WAV file
func (c *Composer) Compose(narrationPath, piecePath, outPath string) error {
	narration, err := readWAV(narrationPath)
	if err != nil {
		return fmt.Errorf("read narration: %w", err)
	}
	piece, err := readWAV(piecePath)
	if err != nil {
		return fmt.Errorf("read piece: %w", err)
	}

	rate := piece.Format.SampleRate
	channels := piece.Format.NumChannels
	narration = conform(narration, rate, channels)

	silence := make([]int, int(float64(rate)*PauseSeconds)*channels)

	data := make([]int, 0, len(narration.Data)+len(silence)+len(piece.Data))
	data = append(data, narration.Data...)
	data = append(data, silence...)
	data = append(data, piece.Data...)

	out, err := os.Create(outPath)
	if err != nil {
		return fmt.Errorf("create output: %w", err)
	}
	defer out.Close()

	enc := wav.NewEncoder(out, rate, outputBitDepth, channels, 1)
	buf := &audio.IntBuffer{
		Format:         &audio.Format{SampleRate: rate, NumChannels: channels},
		Data:           data,
		SourceBitDepth: outputBitDepth,
	}
	if err := enc.Write(buf); err != nil {
		return fmt.Errorf("write output: %w", err)
	}
	if err := enc.Close(); err != nil {
		return fmt.Errorf("finalize output: %w", err)
	}
	return nil
}

func readWAV(path string) (*audio.IntBuffer, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	dec := wav.NewDecoder(f)
	if !dec.IsValidFile() {
		return nil, fmt.Errorf("%s is not a valid WAV file", path)
	}
	buf, err := dec.FullPCMBuffer()
	if err != nil {
		return nil, err
	}
	return buf, nil
}

// conform converts a buffer to the target sample rate and channel count.
// The narration engine and the synthesis engine disagree on both, so the
// narration is up-mixed and linearly resampled to match the piece.
func conform(buf *audio.IntBuffer, rate, channels int) *audio.IntBuffer {
	buf = remap(buf, channels)
	buf = resample(buf, rate)
	return buf
}

func remap(buf *audio.IntBuffer, channels int) *audio.IntBuffer {
	src := buf.Format.NumChannels
	if src == channels || src == 0 {
		return buf
	}

	frames := len(buf.Data) / src
	data := make([]int, frames*channels)
	for f := 0; f < frames; f++ {
		switch {
		case src == 1:
			// Duplicate the mono sample across all target channels.
			for ch := 0; ch < channels; ch++ {
				data[f*channels+ch] = buf.Data[f]
			}
		case channels == 1:
			sum := 0
			for ch := 0; ch < src; ch++ {
				sum += buf.Data[f*src+ch]
			}
			data[f] = sum / src
		default:
			for ch := 0; ch < channels; ch++ {
				data[f*channels+ch] = buf.Data[f*src+ch%src]
			}
		}
	}

	out := *buf
	out.Data = data
	out.Format = &audio.Format{SampleRate: buf.Format.SampleRate, NumChannels: channels}
	return &out
}

func resample(buf *audio.IntBuffer, rate int) *audio.IntBuffer {
	src := buf.Format.SampleRate
	if src == rate || src == 0 {
		return buf
	}

	channels := buf.Format.NumChannels
	frames := len(buf.Data) / channels
	outFrames := int(float64(frames) * float64(rate) / float64(src))
	data := make([]int, outFrames*channels)

	for f := 0; f < outFrames; f++ {
		pos := float64(f) * float64(src) / float64(rate)
		i := int(pos)
		frac := pos - float64(i)
		j := i + 1
		if j >= frames {
			j = frames - 1
		}
		for ch := 0; ch < channels; ch++ {
			a := float64(buf.Data[i*channels+ch])
			b := float64(buf.Data[j*channels+ch])
			data[f*channels+ch] = int(a + (b-a)*frac)
		}
	}

	out := *buf
	out.Data = data
	out.Format = &audio.Format{SampleRate: rate, NumChannels: channels}
	return &out
}

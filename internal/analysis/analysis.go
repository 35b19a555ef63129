// Package analysis derives musical metadata from symbolic note content.
package analysis

import (
	"fmt"
	"math"

	apperrors "github.com/JvM3d/conversor-de-partituras/internal/errors"
)

// Key is a detected tonality
type Key struct {
	Tonic      string // "C", "F#", ...
	Mode       string // "major" or "minor"
	Confidence float64
}

// String renders the key the way the narration quotes it
func (k *Key) String() string {
	return fmt.Sprintf("%s %s", k.Tonic, k.Mode)
}

var tonicNames = [12]string{"C", "C#", "D", "D#", "E", "F", "F#", "G", "G#", "A", "A#", "B"}

// Krumhansl-Kessler key profiles: perceived stability of each pitch class
// relative to the tonic.
var (
	majorProfile = [12]float64{6.35, 2.23, 3.48, 2.33, 4.38, 4.09, 2.52, 5.19, 2.39, 3.66, 2.29, 2.88}
	minorProfile = [12]float64{6.33, 2.68, 3.52, 5.38, 2.60, 3.53, 2.54, 4.75, 3.98, 2.69, 3.34, 3.17}
)

// DetectKey estimates the tonality of a piece from its notes using the
// Krumhansl-Schmuckler algorithm: build a duration-weighted pitch-class
// histogram and correlate it against the major and minor profiles in all
// twelve transpositions. Fails with ErrKeyUndetermined when there is
// nothing to correlate.
func DetectKey(keys []uint8, durations []float64) (*Key, error) {
	var histogram [12]float64
	total := 0.0
	for i, k := range keys {
		weight := 1.0
		if i < len(durations) && durations[i] > 0 {
			weight = durations[i]
		}
		histogram[k%12] += weight
		total += weight
	}
	if total == 0 {
		return nil, apperrors.ErrKeyUndetermined
	}

	best := &Key{Confidence: math.Inf(-1)}
	for tonic := 0; tonic < 12; tonic++ {
		for _, mode := range []struct {
			name    string
			profile [12]float64
		}{
			{"major", majorProfile},
			{"minor", minorProfile},
		} {
			r := correlate(histogram, mode.profile, tonic)
			if r > best.Confidence {
				best = &Key{Tonic: tonicNames[tonic], Mode: mode.name, Confidence: r}
			}
		}
	}

	if math.IsNaN(best.Confidence) || math.IsInf(best.Confidence, -1) {
		return nil, apperrors.ErrKeyUndetermined
	}
	return best, nil
}

// correlate computes the Pearson correlation between the histogram and the
// profile rotated to the given tonic.
func correlate(histogram, profile [12]float64, tonic int) float64 {
	var sumX, sumY float64
	for i := 0; i < 12; i++ {
		sumX += histogram[i]
		sumY += profile[i]
	}
	meanX, meanY := sumX/12, sumY/12

	var num, denX, denY float64
	for i := 0; i < 12; i++ {
		x := histogram[(tonic+i)%12] - meanX
		y := profile[i] - meanY
		num += x * y
		denX += x * x
		denY += y * y
	}
	if denX == 0 || denY == 0 {
		return math.NaN()
	}
	return num / math.Sqrt(denX*denY)
}

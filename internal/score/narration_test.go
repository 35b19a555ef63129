package score

import (
	"strings"
	"testing"
)

func majorScore() *SymbolicScore {
	// C major scale with an emphasized tonic triad so key detection has
	// something unambiguous to work with.
	notes := []Note{
		{Key: 60, Duration: 4}, {Key: 64, Duration: 3}, {Key: 67, Duration: 3},
	}
	for i, k := range []uint8{60, 62, 64, 65, 67, 69, 71} {
		notes = append(notes, Note{Key: k, Start: float64(i), Duration: 1})
	}
	return &SymbolicScore{
		Title:         "Ode",
		TimeSignature: "4/4",
		TempoBPM:      120,
		Notes:         notes,
	}
}

func TestBuildNarration(t *testing.T) {
	t.Run("FullMetadata", func(t *testing.T) {
		text := BuildNarration(majorScore(), "Ode")

		for _, clause := range []string{
			"A seguir, você ouvirá a peça Ode. ",
			"Esta peça está na tonalidade de C major. ",
			"O compasso é 4/4. ",
			"O andamento é de 120 batidas por minuto. ",
			clauseClosing,
		} {
			if !strings.Contains(text, clause) {
				t.Errorf("narration missing %q:\n%s", clause, text)
			}
		}

		for _, fallback := range []string{clauseNoKey, clauseNoTime, clauseNoTempo} {
			if strings.Contains(text, fallback) {
				t.Errorf("narration should not contain fallback %q:\n%s", fallback, text)
			}
		}
	})

	t.Run("TotalOnEmptyScore", func(t *testing.T) {
		text := BuildNarration(&SymbolicScore{}, "Partitura_x_0")

		for _, clause := range []string{
			"A seguir, você ouvirá a peça Partitura_x_0. ",
			clauseNoKey,
			clauseNoTime,
			clauseNoTempo,
			clauseClosing,
		} {
			if !strings.Contains(text, clause) {
				t.Errorf("narration missing %q:\n%s", clause, text)
			}
		}
	})

	t.Run("FieldsFallBackIndependently", func(t *testing.T) {
		s := majorScore()
		s.TempoBPM = 0

		text := BuildNarration(s, "Ode")
		if !strings.Contains(text, clauseNoTempo) {
			t.Error("missing tempo should use its fallback clause")
		}
		if !strings.Contains(text, "O compasso é 4/4. ") {
			t.Error("time signature clause should survive a missing tempo")
		}
		if !strings.Contains(text, "tonalidade de C major") {
			t.Error("key clause should survive a missing tempo")
		}
	})

	t.Run("Deterministic", func(t *testing.T) {
		a := BuildNarration(majorScore(), "Ode")
		b := BuildNarration(majorScore(), "Ode")
		if a != b {
			t.Errorf("narration differs between identical scores:\n%s\n%s", a, b)
		}
	})
}

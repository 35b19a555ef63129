package score

import (
	"fmt"
	"strings"

	"github.com/JvM3d/conversor-de-partituras/internal/analysis"
)

// Fallback clauses used when a metadata field cannot be extracted. Each
// extraction is independent: a failed one substitutes its clause and the
// rest still run.
const (
	clauseNoKey   = "A tonalidade da peça não pôde ser determinada. "
	clauseNoTime  = "O compasso não foi identificado. "
	clauseNoTempo = "O andamento não foi identificado. "
	clauseClosing = "Ouça atentamente e observe os detalhes para aprender a tocar esta música."
)

// BuildNarration derives the spoken description of a piece from its
// metadata. It is total: any SymbolicScore, including one with no key, no
// time signature and no tempo, yields a narration, and identical scores
// always yield identical text.
func BuildNarration(s *SymbolicScore, title string) string {
	var b strings.Builder

	fmt.Fprintf(&b, "A seguir, você ouvirá a peça %s. ", title)

	keys := make([]uint8, len(s.Notes))
	durations := make([]float64, len(s.Notes))
	for i, n := range s.Notes {
		keys[i] = n.Key
		durations[i] = n.Duration
	}
	if key, err := analysis.DetectKey(keys, durations); err == nil {
		fmt.Fprintf(&b, "Esta peça está na tonalidade de %s. ", key)
	} else {
		b.WriteString(clauseNoKey)
	}

	if s.TimeSignature != "" {
		fmt.Fprintf(&b, "O compasso é %s. ", s.TimeSignature)
	} else {
		b.WriteString(clauseNoTime)
	}

	if s.TempoBPM > 0 {
		fmt.Fprintf(&b, "O andamento é de %g batidas por minuto. ", s.TempoBPM)
	} else {
		b.WriteString(clauseNoTempo)
	}

	b.WriteString(clauseClosing)
	return b.String()
}

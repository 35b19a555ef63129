package score

import (
	"archive/zip"
	"errors"
	"os"
	"path/filepath"
	"testing"

	apperrors "github.com/JvM3d/conversor-de-partituras/internal/errors"
)

const fullScoreXML = `<?xml version="1.0" encoding="UTF-8"?>
<score-partwise version="3.1">
  <work><work-title>Ode</work-title></work>
  <part-list>
    <score-part id="P1"><part-name>Piano</part-name></score-part>
  </part-list>
  <part id="P1">
    <measure number="1">
      <attributes>
        <divisions>2</divisions>
        <key><fifths>0</fifths></key>
        <time><beats>4</beats><beat-type>4</beat-type></time>
      </attributes>
      <direction>
        <direction-type>
          <metronome><beat-unit>quarter</beat-unit><per-minute>120</per-minute></metronome>
        </direction-type>
        <sound tempo="120"/>
      </direction>
      <note><pitch><step>C</step><octave>4</octave></pitch><duration>2</duration></note>
      <note><chord/><pitch><step>E</step><octave>4</octave></pitch><duration>2</duration></note>
      <note><pitch><step>G</step><octave>4</octave></pitch><duration>2</duration></note>
      <note><rest/><duration>2</duration></note>
      <note><pitch><step>F</step><alter>1</alter><octave>3</octave></pitch><duration>4</duration></note>
    </measure>
  </part>
</score-partwise>`

const bareScoreXML = `<?xml version="1.0" encoding="UTF-8"?>
<score-partwise version="3.1">
  <part-list>
    <score-part id="P1"><part-name>Music</part-name></score-part>
  </part-list>
  <part id="P1">
    <measure number="1">
      <note><pitch><step>A</step><octave>4</octave></pitch><duration>1</duration></note>
    </measure>
  </part>
</score-partwise>`

func writeScore(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestParse(t *testing.T) {
	t.Run("FullMetadata", func(t *testing.T) {
		s, err := Parse(writeScore(t, "full.xml", fullScoreXML))
		if err != nil {
			t.Fatalf("Parse failed: %v", err)
		}

		if s.Title != "Ode" {
			t.Errorf("title: got %q, want %q", s.Title, "Ode")
		}
		if s.TimeSignature != "4/4" {
			t.Errorf("time signature: got %q, want %q", s.TimeSignature, "4/4")
		}
		if s.TempoBPM != 120 {
			t.Errorf("tempo: got %g, want 120", s.TempoBPM)
		}

		// C4, E4 (chord), G4, F#3; the rest advances the cursor but is
		// not a note.
		if len(s.Notes) != 4 {
			t.Fatalf("notes: got %d, want 4", len(s.Notes))
		}
		if s.Notes[0].Key != 60 || s.Notes[0].Start != 0 || s.Notes[0].Duration != 1 {
			t.Errorf("first note: got %+v", s.Notes[0])
		}
		if s.Notes[1].Key != 64 || s.Notes[1].Start != 0 {
			t.Errorf("chord note should share the onset: got %+v", s.Notes[1])
		}
		if s.Notes[2].Key != 67 || s.Notes[2].Start != 1 {
			t.Errorf("third note: got %+v", s.Notes[2])
		}
		// F#3 = 54, after a one-quarter rest at offset 2
		if s.Notes[3].Key != 54 || s.Notes[3].Start != 3 || s.Notes[3].Duration != 2 {
			t.Errorf("fourth note: got %+v", s.Notes[3])
		}
	})

	t.Run("AbsentMetadata", func(t *testing.T) {
		s, err := Parse(writeScore(t, "bare.xml", bareScoreXML))
		if err != nil {
			t.Fatalf("metadata absence must not fail parsing: %v", err)
		}
		if s.Title != "" || s.TimeSignature != "" || s.TempoBPM != 0 {
			t.Errorf("expected empty metadata, got %+v", s)
		}
		if len(s.Notes) != 1 {
			t.Errorf("notes: got %d, want 1", len(s.Notes))
		}
	})

	t.Run("CompressedContainer", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "score.mxl")
		f, err := os.Create(path)
		if err != nil {
			t.Fatal(err)
		}
		zw := zip.NewWriter(f)
		manifest, _ := zw.Create("META-INF/container.xml")
		manifest.Write([]byte(`<?xml version="1.0"?>
<container><rootfiles><rootfile full-path="score.xml"/></rootfiles></container>`))
		root, _ := zw.Create("score.xml")
		root.Write([]byte(fullScoreXML))
		if err := zw.Close(); err != nil {
			t.Fatal(err)
		}
		f.Close()

		s, err := Parse(path)
		if err != nil {
			t.Fatalf("Parse failed: %v", err)
		}
		if s.Title != "Ode" {
			t.Errorf("title: got %q, want %q", s.Title, "Ode")
		}
	})

	t.Run("OverlongBackupClampsAtPartStart", func(t *testing.T) {
		// A backup past the beginning of the part must not produce a
		// negative onset.
		xmlDoc := `<?xml version="1.0" encoding="UTF-8"?>
<score-partwise version="3.1">
  <part-list><score-part id="P1"><part-name>Music</part-name></score-part></part-list>
  <part id="P1">
    <measure number="1">
      <attributes><divisions>2</divisions></attributes>
      <note><pitch><step>C</step><octave>4</octave></pitch><duration>2</duration></note>
      <backup><duration>8</duration></backup>
      <note><pitch><step>E</step><octave>4</octave></pitch><duration>2</duration></note>
    </measure>
  </part>
</score-partwise>`

		s, err := Parse(writeScore(t, "backup.xml", xmlDoc))
		if err != nil {
			t.Fatalf("Parse failed: %v", err)
		}
		if len(s.Notes) != 2 {
			t.Fatalf("notes: got %d, want 2", len(s.Notes))
		}
		for i, n := range s.Notes {
			if n.Start < 0 {
				t.Errorf("note %d has negative onset %g", i, n.Start)
			}
		}
		if s.Notes[1].Start != 0 {
			t.Errorf("second note should land at the part start, got %g", s.Notes[1].Start)
		}
	})

	t.Run("StructurallyInvalid", func(t *testing.T) {
		_, err := Parse(writeScore(t, "broken.xml", "this is not MusicXML"))
		if !errors.Is(err, apperrors.ErrScoreParse) {
			t.Errorf("expected ErrScoreParse, got %v", err)
		}
	})

	t.Run("WrongRootElement", func(t *testing.T) {
		_, err := Parse(writeScore(t, "wrong.xml", "<opus></opus>"))
		if !errors.Is(err, apperrors.ErrScoreParse) {
			t.Errorf("expected ErrScoreParse, got %v", err)
		}
	})
}

func TestResolveTitle(t *testing.T) {
	t.Run("NormalizesWhitespace", func(t *testing.T) {
		s := &SymbolicScore{Title: "  Ode   à\tAlegria "}
		if got := s.ResolveTitle("abc123", 0); got != "Ode à Alegria" {
			t.Errorf("got %q", got)
		}
	})

	t.Run("PlaceholderWhenMissing", func(t *testing.T) {
		s := &SymbolicScore{}
		if got := s.ResolveTitle("abc123", 4); got != "Partitura_abc123_4" {
			t.Errorf("got %q", got)
		}
	})
}

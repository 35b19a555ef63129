// Package score parses recognized MusicXML into a symbolic representation
// and derives the narration script for a piece.
package score

import (
	"archive/zip"
	"encoding/xml"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	apperrors "github.com/JvM3d/conversor-de-partituras/internal/errors"
)

// Note is one sounded note with its onset and length in quarter-note units
type Note struct {
	Key      uint8   // MIDI note number
	Start    float64 // offset from the start of its part
	Duration float64
}

// SymbolicScore is the parsed representation of one page's notation.
// Metadata fields are individually optional: recognition may leave any of
// them empty without the score being invalid.
type SymbolicScore struct {
	Title         string
	TimeSignature string  // "3/4" style, empty when absent
	TempoBPM      float64 // 0 when absent
	Notes         []Note
}

// ResolveTitle returns the metadata title, whitespace-normalized, or a
// placeholder built from the page's unique token and index when the score
// carries no usable title.
func (s *SymbolicScore) ResolveTitle(token string, index int) string {
	title := strings.Join(strings.Fields(s.Title), " ")
	if title != "" {
		return title
	}
	return fmt.Sprintf("Partitura_%s_%d", token, index)
}

// Parse reads a recognized score file, either plain MusicXML (.xml) or the
// compressed container (.mxl). It fails with ErrScoreParse only when the
// file is structurally invalid; absent metadata never raises.
func Parse(path string) (*SymbolicScore, error) {
	var data []byte
	var err error
	if strings.EqualFold(filepath.Ext(path), ".mxl") {
		data, err = readContainer(path)
	} else {
		data, err = os.ReadFile(path)
	}
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", apperrors.ErrScoreParse, filepath.Base(path), err)
	}

	var doc scorePartwise
	if err := xml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("%w: %s: %v", apperrors.ErrScoreParse, filepath.Base(path), err)
	}

	return doc.symbolic(), nil
}

// readContainer extracts the root score document from an .mxl zip. The
// container manifest names the root file; when the manifest is missing or
// broken, the first top-level .xml entry is used instead.
func readContainer(path string) ([]byte, error) {
	r, err := zip.OpenReader(path)
	if err != nil {
		return nil, err
	}
	defer r.Close()

	rootPath := containerRootFile(&r.Reader)
	var root *zip.File
	for _, f := range r.File {
		if rootPath != "" && f.Name == rootPath {
			root = f
			break
		}
		if rootPath == "" && strings.HasSuffix(f.Name, ".xml") && !strings.HasPrefix(f.Name, "META-INF/") {
			root = f
			break
		}
	}
	if root == nil {
		return nil, fmt.Errorf("no score document in container")
	}

	rc, err := root.Open()
	if err != nil {
		return nil, err
	}
	defer rc.Close()
	return io.ReadAll(rc)
}

func containerRootFile(r *zip.Reader) string {
	for _, f := range r.File {
		if f.Name != "META-INF/container.xml" {
			continue
		}
		rc, err := f.Open()
		if err != nil {
			return ""
		}
		defer rc.Close()

		var container struct {
			RootFiles []struct {
				FullPath string `xml:"full-path,attr"`
			} `xml:"rootfiles>rootfile"`
		}
		data, err := io.ReadAll(rc)
		if err != nil || xml.Unmarshal(data, &container) != nil {
			return ""
		}
		if len(container.RootFiles) > 0 {
			return container.RootFiles[0].FullPath
		}
	}
	return ""
}

// MusicXML document structure (score-partwise subset)

type scorePartwise struct {
	XMLName       xml.Name `xml:"score-partwise"`
	WorkTitle     string   `xml:"work>work-title"`
	MovementTitle string   `xml:"movement-title"`
	Parts         []part   `xml:"part"`
}

type part struct {
	Measures []measure `xml:"measure"`
}

// measure keeps its content in document order: note timing depends on the
// interleaving of notes with backup/forward cursor moves, which struct
// field decoding would lose.
type measure struct {
	items []measureItem
}

type measureItem struct {
	attributes *attributes
	direction  *direction
	note       *xmlNote
	backup     int // divisions to move the cursor back
	forward    int // divisions to move the cursor ahead
}

type attributes struct {
	Divisions int       `xml:"divisions"`
	Times     []timeSig `xml:"time"`
}

type timeSig struct {
	Beats    string `xml:"beats"`
	BeatType string `xml:"beat-type"`
}

type direction struct {
	PerMinute string `xml:"direction-type>metronome>per-minute"`
	Sound     struct {
		Tempo float64 `xml:"tempo,attr"`
	} `xml:"sound"`
}

type xmlNote struct {
	Pitch *struct {
		Step   string `xml:"step"`
		Alter  int    `xml:"alter"`
		Octave int    `xml:"octave"`
	} `xml:"pitch"`
	Rest     *struct{} `xml:"rest"`
	Chord    *struct{} `xml:"chord"`
	Grace    *struct{} `xml:"grace"`
	Duration int       `xml:"duration"`
}

func (m *measure) UnmarshalXML(d *xml.Decoder, start xml.StartElement) error {
	for {
		tok, err := d.Token()
		if err != nil {
			return err
		}
		switch t := tok.(type) {
		case xml.StartElement:
			var item measureItem
			switch t.Name.Local {
			case "attributes":
				item.attributes = &attributes{}
				err = d.DecodeElement(item.attributes, &t)
			case "direction":
				item.direction = &direction{}
				err = d.DecodeElement(item.direction, &t)
			case "note":
				item.note = &xmlNote{}
				err = d.DecodeElement(item.note, &t)
			case "backup":
				var b struct {
					Duration int `xml:"duration"`
				}
				if err = d.DecodeElement(&b, &t); err == nil {
					item.backup = b.Duration
				}
			case "forward":
				var f struct {
					Duration int `xml:"duration"`
				}
				if err = d.DecodeElement(&f, &t); err == nil {
					item.forward = f.Duration
				}
			default:
				err = d.Skip()
				continue
			}
			if err != nil {
				return err
			}
			m.items = append(m.items, item)
		case xml.EndElement:
			if t.Name == start.Name {
				return nil
			}
		}
	}
}

// symbolic flattens the document into a SymbolicScore. The first time
// signature and the first tempo marking in document order win; offsets are
// converted from divisions to quarter-note units per part.
func (doc *scorePartwise) symbolic() *SymbolicScore {
	s := &SymbolicScore{Title: doc.WorkTitle}
	if s.Title == "" {
		s.Title = doc.MovementTitle
	}

	stepOffsets := map[string]int{"C": 0, "D": 2, "E": 4, "F": 5, "G": 7, "A": 9, "B": 11}

	for _, p := range doc.Parts {
		divisions := 1
		cursor := 0 // in divisions
		lastAdvance := 0

		for _, m := range p.Measures {
			for _, item := range m.items {
				switch {
				case item.attributes != nil:
					if item.attributes.Divisions > 0 {
						divisions = item.attributes.Divisions
					}
					for _, ts := range item.attributes.Times {
						if s.TimeSignature == "" && ts.Beats != "" && ts.BeatType != "" {
							s.TimeSignature = ts.Beats + "/" + ts.BeatType
						}
					}
				case item.direction != nil:
					if s.TempoBPM == 0 {
						if item.direction.Sound.Tempo > 0 {
							s.TempoBPM = item.direction.Sound.Tempo
						} else if bpm, err := strconv.ParseFloat(strings.TrimSpace(item.direction.PerMinute), 64); err == nil && bpm > 0 {
							s.TempoBPM = bpm
						}
					}
				case item.backup > 0:
					cursor -= item.backup
					if cursor < 0 {
						// Recognition sometimes emits a backup past the
						// start of the part; a negative onset is never
						// meaningful.
						cursor = 0
					}
					lastAdvance = 0
				case item.forward > 0:
					cursor += item.forward
					lastAdvance = 0
				case item.note != nil:
					n := item.note
					if n.Chord != nil {
						// Chord notes sound at the previous note's onset.
						cursor -= lastAdvance
						lastAdvance = 0
					}
					if n.Pitch != nil && n.Grace == nil {
						key := (n.Pitch.Octave+1)*12 + stepOffsets[n.Pitch.Step] + n.Pitch.Alter
						if key >= 0 && key <= 127 {
							s.Notes = append(s.Notes, Note{
								Key:      uint8(key),
								Start:    float64(cursor) / float64(divisions),
								Duration: float64(n.Duration) / float64(divisions),
							})
						}
					}
					if n.Grace == nil {
						cursor += n.Duration
						lastAdvance = n.Duration
					}
				}
			}
		}
	}
	return s
}

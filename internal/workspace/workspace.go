package workspace

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
)

// Workspace manages temporary files for a single conversion job
type Workspace struct {
	Dir       string
	CreatedAt time.Time
}

// Create creates a new isolated workspace in the system temp directory
func Create() (*Workspace, error) {
	dir, err := os.MkdirTemp("", "partituras-*")
	if err != nil {
		return nil, fmt.Errorf("create workspace: %w", err)
	}

	return &Workspace{
		Dir:       dir,
		CreatedAt: time.Now(),
	}, nil
}

// Page holds the temporary artifacts of one page's pipeline run. Every
// file name carries a random token plus the page index, so two concurrent
// jobs can never collide even outside the workspace directory.
type Page struct {
	Token string
	Index int
	dir   string
}

// Page allocates the artifact set for one page of the document
func (w *Workspace) Page(index int) *Page {
	return &Page{
		Token: strings.ReplaceAll(uuid.NewString(), "-", ""),
		Index: index,
		dir:   w.Dir,
	}
}

func (p *Page) base() string {
	return fmt.Sprintf("page_%s_%d", p.Token, p.Index)
}

// Base returns the shared base name of the page's artifacts, without
// directory or extension. The OMR tool derives its output names from it.
func (p *Page) Base() string { return p.base() }

// Path helpers for the page's artifacts
func (p *Page) Image() string        { return filepath.Join(p.dir, p.base()+".png") }
func (p *Page) ScoreXML() string     { return filepath.Join(p.dir, p.base()+".xml") }
func (p *Page) ScoreMXL() string     { return filepath.Join(p.dir, p.base()+".mxl") }
func (p *Page) MIDI() string         { return filepath.Join(p.dir, p.base()+".mid") }
func (p *Page) PieceWAV() string     { return filepath.Join(p.dir, fmt.Sprintf("piece_%s_%d.wav", p.Token, p.Index)) }
func (p *Page) NarrationWAV() string { return filepath.Join(p.dir, fmt.Sprintf("narration_%s_%d.wav", p.Token, p.Index)) }

// Cleanup removes whichever of the page's artifacts exist. Called after
// every page regardless of outcome.
func (p *Page) Cleanup() error {
	var firstErr error
	for _, path := range []string{
		p.Image(), p.ScoreXML(), p.ScoreMXL(), p.MIDI(), p.PieceWAV(), p.NarrationWAV(),
	} {
		if err := os.Remove(path); err != nil && !os.IsNotExist(err) && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}

// Cleanup removes the workspace directory and all contents
func (w *Workspace) Cleanup() error {
	return os.RemoveAll(w.Dir)
}

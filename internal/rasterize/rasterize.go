// Package rasterize turns a PDF document into a sequence of page images.
package rasterize

import (
	"context"
	"fmt"
	"image"
	"strconv"
	"strings"

	"github.com/disintegration/imaging"
	"github.com/pdfcpu/pdfcpu/pkg/api"

	apperrors "github.com/JvM3d/conversor-de-partituras/internal/errors"
	"github.com/JvM3d/conversor-de-partituras/internal/exec"
)

// DefaultDPI is the raster resolution used when none is configured
const DefaultDPI = 200

// Rasterizer renders PDF pages to PNG images via pdftoppm
type Rasterizer struct {
	runner *exec.Runner
	DPI    int
}

// NewRasterizer creates a rasterizer at the given resolution
func NewRasterizer(runner *exec.Runner, dpi int) *Rasterizer {
	if dpi <= 0 {
		dpi = DefaultDPI
	}
	return &Rasterizer{runner: runner, DPI: dpi}
}

// Sequence is a lazy, forward-only pass over a document's pages. Pages are
// rendered one at a time as the caller advances; the sequence cannot be
// restarted.
type Sequence struct {
	r     *Rasterizer
	path  string
	next  int
	count int
}

// Open validates the document and returns its page sequence. An unreadable
// or structurally broken PDF fails with ErrDocumentRead.
func (r *Rasterizer) Open(ctx context.Context, path string) (*Sequence, error) {
	count, err := api.PageCountFile(path)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", apperrors.ErrDocumentRead, path, err)
	}
	return &Sequence{r: r, path: path, count: count}, nil
}

// Len returns the document's page count
func (s *Sequence) Len() int {
	return s.count
}

// More reports whether pages remain
func (s *Sequence) More() bool {
	return s.next < s.count
}

// Index returns the zero-based index of the page the next Render call
// will produce
func (s *Sequence) Index() int {
	return s.next
}

// Render rasterizes the next page into destPath (PNG) and returns the
// decoded image
func (s *Sequence) Render(ctx context.Context, destPath string) (image.Image, error) {
	index := s.next
	s.next++

	pageNum := strconv.Itoa(index + 1) // pdftoppm pages are 1-based
	prefix := strings.TrimSuffix(destPath, ".png")

	result, err := s.r.runner.Run(ctx, "pdftoppm",
		"-png",
		"-r", strconv.Itoa(s.r.DPI),
		"-f", pageNum,
		"-l", pageNum,
		"-singlefile",
		s.path,
		prefix,
	)
	if err != nil {
		return nil, apperrors.NewProcessError("pdftoppm", "rasterize", result.ExitCode, result.Stderr, err)
	}

	img, err := imaging.Open(destPath)
	if err != nil {
		return nil, fmt.Errorf("decode page %d: %w", index, err)
	}
	return img, nil
}

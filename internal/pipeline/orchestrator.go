// Package pipeline coordinates the per-page conversion of a scanned
// sheet-music document into narrated audio.
package pipeline

import (
	"context"
	"fmt"
	"image"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/JvM3d/conversor-de-partituras/internal/audio"
	"github.com/JvM3d/conversor-de-partituras/internal/classify"
	"github.com/JvM3d/conversor-de-partituras/internal/exec"
	"github.com/JvM3d/conversor-de-partituras/internal/midi"
	"github.com/JvM3d/conversor-de-partituras/internal/omr"
	"github.com/JvM3d/conversor-de-partituras/internal/progress"
	"github.com/JvM3d/conversor-de-partituras/internal/rasterize"
	"github.com/JvM3d/conversor-de-partituras/internal/score"
	"github.com/JvM3d/conversor-de-partituras/internal/speech"
	"github.com/JvM3d/conversor-de-partituras/internal/synth"
	"github.com/JvM3d/conversor-de-partituras/internal/workspace"
)

// Config holds job configuration, injected at job start
type Config struct {
	DocumentPath  string
	OutputDir     string
	SoundFontPath string
	DPI           int
	Voice         string
}

// PageStatus is the terminal state of one page's run
type PageStatus string

const (
	PageFinalized PageStatus = "finalized"
	PageSkipped   PageStatus = "skipped" // no music notation detected
	PageFailed    PageStatus = "failed"
)

// PageReport is the explicit outcome of one page. A failed page carries
// the stage it failed at and the error; the error is never propagated to
// the job.
type PageReport struct {
	Index       int
	Status      PageStatus
	Stage       string
	Err         error
	Title       string
	Filename    string
	LineDensity float64
}

// Result is the outcome of a whole conversion job
type Result struct {
	// Index maps each finalized piece's title to its artifact filename
	Index map[string]string
	Pages []PageReport
}

// PageSequence is a lazy, forward-only pass over a document's pages
type PageSequence interface {
	Len() int
	More() bool
	Index() int
	Render(ctx context.Context, destPath string) (image.Image, error)
}

// PageSource opens a document as a page sequence
type PageSource interface {
	Open(ctx context.Context, path string) (PageSequence, error)
}

// Recognizer runs optical music recognition on a page image and returns
// the recognized score file
type Recognizer interface {
	Recognize(ctx context.Context, imagePath string) (string, error)
}

// PieceSynthesizer renders MIDI to audio
type PieceSynthesizer interface {
	CheckSoundFont() error
	Render(ctx context.Context, midiPath, wavPath string) error
}

// Narrator renders narration text to audio
type Narrator interface {
	Speak(ctx context.Context, text, wavPath string) error
}

// Orchestrator coordinates the full conversion pipeline
type Orchestrator struct {
	cfg        Config
	source     PageSource
	classifier classify.Classifier
	recognizer Recognizer
	synth      PieceSynthesizer
	narrator   Narrator
	composer   *audio.Composer
	progress   *progress.Reporter
}

// New creates an orchestrator wired to the real external tools
func New(cfg Config, out io.Writer, verbose bool) *Orchestrator {
	runner := exec.NewRunner()
	return &Orchestrator{
		cfg:        cfg,
		source:     pdfSource{rasterize.NewRasterizer(runner, cfg.DPI)},
		classifier: classify.NewStaffLineClassifier(),
		recognizer: omr.NewInvoker(runner),
		synth:      synth.NewSynthesizer(runner, cfg.SoundFontPath),
		narrator:   speech.NewSynthesizer(runner, cfg.Voice),
		composer:   audio.NewComposer(),
		progress:   progress.NewReporter(out, verbose),
	}
}

// Execute runs the whole job. Job-level preconditions (sound font present,
// document readable) abort before any page work; page-level failures are
// reported, cleaned up and skipped.
func (o *Orchestrator) Execute(ctx context.Context) (*Result, error) {
	o.progress.StartStage(progress.StageValidate)
	if err := o.synth.CheckSoundFont(); err != nil {
		return nil, err
	}
	o.progress.StageComplete("Sound font found")

	o.progress.StartStage(progress.StageOpen)
	seq, err := o.source.Open(ctx, o.cfg.DocumentPath)
	if err != nil {
		return nil, err
	}
	o.progress.StageComplete("%d page(s)", seq.Len())

	if err := os.MkdirAll(o.cfg.OutputDir, 0755); err != nil {
		return nil, fmt.Errorf("create output directory: %w", err)
	}

	ws, err := workspace.Create()
	if err != nil {
		return nil, err
	}
	defer ws.Cleanup()

	result := &Result{Index: make(map[string]string)}

	o.progress.StartStage(progress.StageConvert)
	for seq.More() {
		report := o.processPage(ctx, ws, seq, result.Index)
		result.Pages = append(result.Pages, report)

		switch report.Status {
		case PageFinalized:
			result.Index[report.Title] = report.Filename
			o.progress.StageComplete("Page %d: %s", report.Index, report.Filename)
		case PageSkipped:
			o.progress.Update("Page %d: no notation (line density %.4f)", report.Index, report.LineDensity)
		case PageFailed:
			o.progress.Warning("Page %d failed at %s: %v", report.Index, report.Stage, report.Err)
		}
	}

	return result, nil
}

// processPage runs one page through the state machine:
//
//	Rasterized -> Classified -> {Skipped | OmrRun} -> {OmrFailed | ScoreParsed}
//	-> {ParseFailed | Rendered} -> {RenderFailed | Composed} -> Finalized
//
// Every edge, including all failure edges, converges on the page's cleanup.
func (o *Orchestrator) processPage(ctx context.Context, ws *workspace.Workspace, seq PageSequence, taken map[string]string) PageReport {
	index := seq.Index()
	page := ws.Page(index)
	defer page.Cleanup()

	report := PageReport{Index: index, Status: PageFailed}

	img, err := seq.Render(ctx, page.Image())
	if err != nil {
		report.Stage, report.Err = "rasterize", err
		return report
	}

	cls := o.classifier.Classify(img)
	report.LineDensity = cls.LineDensity
	if !cls.SheetMusic {
		report.Status = PageSkipped
		return report
	}

	scorePath, err := o.recognizer.Recognize(ctx, page.Image())
	if err != nil {
		report.Stage, report.Err = "recognition", err
		return report
	}

	sym, err := score.Parse(scorePath)
	if err != nil {
		report.Stage, report.Err = "parse", err
		return report
	}

	title := sym.ResolveTitle(page.Token, index)
	if _, exists := taken[title]; exists {
		// Two pages resolved to the same title. Disambiguate instead of
		// silently overwriting the earlier artifact.
		title = fmt.Sprintf("%s (page %d)", title, index)
	}
	report.Title = title

	if err := midi.Render(sym, page.MIDI()); err != nil {
		report.Stage, report.Err = "render", err
		return report
	}

	if err := o.synth.Render(ctx, page.MIDI(), page.PieceWAV()); err != nil {
		report.Stage, report.Err = "synthesis", err
		return report
	}

	text := score.BuildNarration(sym, title)
	if err := o.narrator.Speak(ctx, text, page.NarrationWAV()); err != nil {
		report.Stage, report.Err = "narration", err
		return report
	}

	filename := strings.ReplaceAll(title, " ", "_") + "_narrado.wav"
	if err := o.composer.Compose(page.NarrationWAV(), page.PieceWAV(), filepath.Join(o.cfg.OutputDir, filename)); err != nil {
		report.Stage, report.Err = "compose", err
		return report
	}

	report.Status = PageFinalized
	report.Filename = filename
	return report
}

// pdfSource adapts the rasterizer to the PageSource interface
type pdfSource struct {
	r *rasterize.Rasterizer
}

func (s pdfSource) Open(ctx context.Context, path string) (PageSequence, error) {
	seq, err := s.r.Open(ctx, path)
	if err != nil {
		return nil, err
	}
	return seq, nil
}

// Package classify decides whether a page image contains music notation.
//
// The default classifier is a deliberately cheap heuristic: staff lines are
// long horizontal runs of dark pixels, so after binarization and a
// morphological opening with a wide horizontal kernel almost nothing
// survives on a text or picture page, while a notation page keeps its
// staves. The decision is the surviving foreground fraction against a
// single threshold.
package classify

import (
	"image"

	"github.com/disintegration/imaging"
)

const (
	// DefaultThreshold is the foreground fraction above which a page
	// counts as sheet music.
	DefaultThreshold = 0.01

	binarizeLevel = 127 // gray level below which a pixel is foreground
	kernelWidth   = 25  // horizontal structuring element width
	iterations    = 2
)

// Result carries the decision and the density that produced it
type Result struct {
	SheetMusic  bool
	LineDensity float64
}

// Classifier decides whether a page image contains music notation
type Classifier interface {
	Classify(img image.Image) Result
}

// StaffLineClassifier implements the horizontal-line-density heuristic
type StaffLineClassifier struct {
	Threshold float64
}

// NewStaffLineClassifier creates a classifier with the default threshold
func NewStaffLineClassifier() *StaffLineClassifier {
	return &StaffLineClassifier{Threshold: DefaultThreshold}
}

// Classify measures the page's staff-line density and compares it to the
// threshold
func (c *StaffLineClassifier) Classify(img image.Image) Result {
	density := lineDensity(img)
	return Result{
		SheetMusic:  density > c.Threshold,
		LineDensity: density,
	}
}

// lineDensity binarizes the grayscale page and applies a morphological
// opening with a 1xN horizontal kernel. N erosions followed by N dilations
// with a kernel of width w keep exactly the horizontal runs of length at
// least N*(w-1)+1, at their original length, so the opening reduces to a
// run-length scan per row.
func lineDensity(img image.Image) float64 {
	gray := imaging.Grayscale(img)
	bounds := gray.Bounds()
	width, height := bounds.Dx(), bounds.Dy()
	if width == 0 || height == 0 {
		return 0
	}

	span := iterations*(kernelWidth-1) + 1

	linePixels := 0
	for y := 0; y < height; y++ {
		run := 0
		for x := 0; x <= width; x++ {
			foreground := false
			if x < width {
				// Grayscale output has R == G == B.
				i := gray.PixOffset(bounds.Min.X+x, bounds.Min.Y+y)
				foreground = gray.Pix[i] < binarizeLevel
			}
			if foreground {
				run++
				continue
			}
			if run >= span {
				linePixels += run
			}
			run = 0
		}
	}

	return float64(linePixels) / float64(width*height)
}

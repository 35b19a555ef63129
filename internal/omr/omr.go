// Package omr invokes the external optical music recognition tool.
package omr

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	apperrors "github.com/JvM3d/conversor-de-partituras/internal/errors"
	"github.com/JvM3d/conversor-de-partituras/internal/exec"
)

const tool = "audiveris"

// Invoker runs Audiveris in batch mode against a page image
type Invoker struct {
	runner *exec.Runner
}

// NewInvoker creates a new OMR invoker
func NewInvoker(runner *exec.Runner) *Invoker {
	return &Invoker{runner: runner}
}

// Recognize runs the OMR tool on imagePath and returns the path of the
// recognized score it produced. Audiveris derives output names from the
// image's base name and writes them next to it; the exporter may emit
// either plain MusicXML (.xml) or the compressed container (.mxl), checked
// in that order.
func (i *Invoker) Recognize(ctx context.Context, imagePath string) (string, error) {
	outDir := filepath.Dir(imagePath)

	result, err := i.runner.Run(ctx, tool, "-batch", "-export", "-output", outDir, imagePath)
	if err != nil {
		return "", apperrors.NewProcessError(tool, "recognition", result.ExitCode, result.Stderr, err)
	}

	base := strings.TrimSuffix(imagePath, filepath.Ext(imagePath))
	for _, ext := range []string{".xml", ".mxl"} {
		candidate := base + ext
		if _, err := os.Stat(candidate); err == nil {
			return candidate, nil
		}
	}

	return "", fmt.Errorf("%w: page image %s", apperrors.ErrScoreMissing, filepath.Base(imagePath))
}

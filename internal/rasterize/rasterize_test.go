package rasterize

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	apperrors "github.com/JvM3d/conversor-de-partituras/internal/errors"
	"github.com/JvM3d/conversor-de-partituras/internal/exec"
)

func TestOpen(t *testing.T) {
	r := NewRasterizer(exec.NewRunner(), 0)

	t.Run("MissingFile", func(t *testing.T) {
		_, err := r.Open(context.Background(), filepath.Join(t.TempDir(), "absent.pdf"))
		if !errors.Is(err, apperrors.ErrDocumentRead) {
			t.Errorf("expected ErrDocumentRead, got %v", err)
		}
	})

	t.Run("NotAPDF", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "garbage.pdf")
		if err := os.WriteFile(path, []byte("this is not a pdf"), 0644); err != nil {
			t.Fatal(err)
		}

		_, err := r.Open(context.Background(), path)
		if !errors.Is(err, apperrors.ErrDocumentRead) {
			t.Errorf("expected ErrDocumentRead, got %v", err)
		}
	})
}

func TestNewRasterizer(t *testing.T) {
	if r := NewRasterizer(exec.NewRunner(), 0); r.DPI != DefaultDPI {
		t.Errorf("zero DPI should fall back to %d, got %d", DefaultDPI, r.DPI)
	}
	if r := NewRasterizer(exec.NewRunner(), 300); r.DPI != 300 {
		t.Errorf("explicit DPI should be kept, got %d", r.DPI)
	}
}

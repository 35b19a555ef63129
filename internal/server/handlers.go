package server

import (
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"

	apperrors "github.com/JvM3d/conversor-de-partituras/internal/errors"
	"github.com/JvM3d/conversor-de-partituras/internal/pipeline"
)

const maxUploadSize = 50 * 1024 * 1024 // 50MB

// Audiobook is one finished artifact as presented to clients
type Audiobook struct {
	Title       string `json:"title"`
	DownloadURL string `json:"download_url"`
}

// handleIndex serves the welcome message
func (s *Server) handleIndex(w http.ResponseWriter, r *http.Request) {
	s.respondJSON(w, http.StatusOK, map[string]string{
		"message": "Bem-vindo à API de Audiobooks de Partituras. Utilize o endpoint /process para enviar um PDF.",
	})
}

// handleHealth returns server health status
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.Write([]byte(`{"status":"ok"}`))
}

// handleProcess accepts a PDF upload, runs the conversion job and returns
// the generated audiobooks with their download URLs
func (s *Server) handleProcess(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, maxUploadSize)

	if err := r.ParseMultipartForm(maxUploadSize); err != nil {
		s.respondError(w, http.StatusRequestEntityTooLarge, "File too large. Maximum size is 50MB.")
		return
	}

	file, header, err := r.FormFile("file")
	if err != nil {
		s.respondError(w, http.StatusBadRequest, "Please upload a PDF file in the 'file' field.")
		return
	}
	defer file.Close()

	if !isPDF(header.Header.Get("Content-Type")) {
		s.respondError(w, http.StatusBadRequest, "The uploaded file must be a PDF.")
		return
	}

	// Stage the upload in a temp file; removed when the job finishes.
	tmp, err := os.CreateTemp("", "upload-*.pdf")
	if err != nil {
		s.respondError(w, http.StatusInternalServerError, "Failed to save file.")
		return
	}
	defer os.Remove(tmp.Name())

	if _, err := io.Copy(tmp, file); err != nil {
		tmp.Close()
		s.respondError(w, http.StatusInternalServerError, "Failed to save file.")
		return
	}
	tmp.Close()

	orch := pipeline.New(pipeline.Config{
		DocumentPath:  tmp.Name(),
		OutputDir:     s.config.OutputDir,
		SoundFontPath: s.config.SoundFontPath,
		DPI:           s.config.DPI,
		Voice:         s.config.Voice,
	}, io.Discard, false)

	start := time.Now()
	result, err := orch.Execute(r.Context())
	if err != nil {
		s.logger.Error("conversion failed",
			slog.String("file", header.Filename),
			slog.Any("error", err))
		// An unreadable document is the client's fault; every other job
		// failure (missing sound font, workspace trouble) is ours.
		status := http.StatusInternalServerError
		if errors.Is(err, apperrors.ErrDocumentRead) {
			status = http.StatusBadRequest
		}
		s.respondError(w, status, "Failed to process the document: "+err.Error())
		return
	}
	s.metrics.observeJob(result, time.Since(start))

	s.logger.Info("conversion complete",
		slog.String("file", header.Filename),
		slog.Int("pages", len(result.Pages)),
		slog.Int("audiobooks", len(result.Index)))

	audiobooks := make([]Audiobook, 0, len(result.Index))
	for _, report := range result.Pages {
		if report.Status != pipeline.PageFinalized {
			continue
		}
		audiobooks = append(audiobooks, Audiobook{
			Title:       report.Title,
			DownloadURL: s.downloadURL(report.Filename),
		})
	}

	s.respondJSON(w, http.StatusOK, map[string]any{"audiobooks": audiobooks})
}

// handleList lists the finished artifacts in the output directory
func (s *Server) handleList(w http.ResponseWriter, r *http.Request) {
	entries, err := os.ReadDir(s.config.OutputDir)
	if err != nil {
		s.respondError(w, http.StatusInternalServerError, "Failed to read output directory.")
		return
	}

	audiobooks := make([]Audiobook, 0, len(entries))
	for _, entry := range entries {
		name := entry.Name()
		if entry.IsDir() || !strings.HasSuffix(name, ".wav") {
			continue
		}
		audiobooks = append(audiobooks, Audiobook{
			Title:       strings.TrimSuffix(name, ".wav"),
			DownloadURL: s.downloadURL(name),
		})
	}

	s.respondJSON(w, http.StatusOK, map[string]any{"audiobooks": audiobooks})
}

// handleDownload serves one finished artifact
func (s *Server) handleDownload(w http.ResponseWriter, r *http.Request) {
	filename := chi.URLParam(r, "filename")
	if filename != filepath.Base(filename) {
		s.respondError(w, http.StatusBadRequest, "Invalid filename.")
		return
	}

	path := filepath.Join(s.config.OutputDir, filename)
	if _, err := os.Stat(path); os.IsNotExist(err) {
		s.respondError(w, http.StatusNotFound, "Audiobook not found.")
		return
	}

	w.Header().Set("Content-Type", "audio/wav")
	http.ServeFile(w, r, path)
}

// downloadURL joins the configured base URL with the artifact mount point
func (s *Server) downloadURL(filename string) string {
	return strings.TrimSuffix(s.config.BaseURL, "/") + "/audiobooks/" + filename
}

// isPDF requires the declared PDF media type; the extension alone is not
// trusted
func isPDF(contentType string) bool {
	return contentType == "application/pdf"
}

// respondJSON writes a JSON response
func (s *Server) respondJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		s.logger.Error("encode response", slog.Any("error", err))
	}
}

// respondError writes a JSON error response
func (s *Server) respondError(w http.ResponseWriter, status int, detail string) {
	s.respondJSON(w, status, map[string]string{"detail": detail})
}

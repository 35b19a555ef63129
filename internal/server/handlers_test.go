package server

import (
	"bytes"
	"encoding/json"
	"fmt"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/textproto"
	"os"
	"path/filepath"
	"testing"

	"github.com/JvM3d/conversor-de-partituras/internal/config"
)

func newTestServer(t *testing.T) *Server {
	t.Helper()
	cfg := config.Config{
		BaseURL:        "http://api.test",
		AllowedOrigins: []string{"*"},
		SoundFontPath:  filepath.Join(t.TempDir(), "missing.sf2"),
		OutputDir:      t.TempDir(),
		Port:           8000,
	}
	s, err := New(cfg)
	if err != nil {
		t.Fatal(err)
	}
	return s
}

func doRequest(s *Server, req *http.Request) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	s.router.ServeHTTP(rec, req)
	return rec
}

func decodeBody(t *testing.T, rec *httptest.ResponseRecorder, v any) {
	t.Helper()
	if err := json.NewDecoder(rec.Body).Decode(v); err != nil {
		t.Fatalf("decode response: %v", err)
	}
}

func TestIndexAndHealth(t *testing.T) {
	s := newTestServer(t)

	rec := doRequest(s, httptest.NewRequest(http.MethodGet, "/", nil))
	if rec.Code != http.StatusOK {
		t.Errorf("GET /: got %d", rec.Code)
	}
	var welcome map[string]string
	decodeBody(t, rec, &welcome)
	if welcome["message"] == "" {
		t.Error("welcome message should not be empty")
	}

	rec = doRequest(s, httptest.NewRequest(http.MethodGet, "/health", nil))
	if rec.Code != http.StatusOK {
		t.Errorf("GET /health: got %d", rec.Code)
	}
}

func TestList(t *testing.T) {
	s := newTestServer(t)

	for _, name := range []string{"Ode_narrado.wav", "Valsa_narrado.wav", "notes.txt"} {
		if err := os.WriteFile(filepath.Join(s.config.OutputDir, name), []byte("x"), 0644); err != nil {
			t.Fatal(err)
		}
	}

	rec := doRequest(s, httptest.NewRequest(http.MethodGet, "/audiobooks", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("GET /audiobooks: got %d", rec.Code)
	}

	var body struct {
		Audiobooks []Audiobook `json:"audiobooks"`
	}
	decodeBody(t, rec, &body)

	if len(body.Audiobooks) != 2 {
		t.Fatalf("only .wav files should be listed, got %+v", body.Audiobooks)
	}
	for _, ab := range body.Audiobooks {
		if ab.Title == "" || filepath.Ext(ab.Title) == ".wav" {
			t.Errorf("title should drop the extension, got %q", ab.Title)
		}
		want := "http://api.test/audiobooks/" + ab.Title + ".wav"
		if ab.DownloadURL != want {
			t.Errorf("download url: got %q, want %q", ab.DownloadURL, want)
		}
	}
}

func TestDownload(t *testing.T) {
	s := newTestServer(t)

	content := []byte("RIFFfake")
	if err := os.WriteFile(filepath.Join(s.config.OutputDir, "Ode_narrado.wav"), content, 0644); err != nil {
		t.Fatal(err)
	}

	t.Run("Exists", func(t *testing.T) {
		rec := doRequest(s, httptest.NewRequest(http.MethodGet, "/audiobooks/Ode_narrado.wav", nil))
		if rec.Code != http.StatusOK {
			t.Fatalf("got %d", rec.Code)
		}
		if ct := rec.Header().Get("Content-Type"); ct != "audio/wav" {
			t.Errorf("content type: got %q", ct)
		}
		if !bytes.Equal(rec.Body.Bytes(), content) {
			t.Error("served body does not match the artifact")
		}
	})

	t.Run("Missing", func(t *testing.T) {
		rec := doRequest(s, httptest.NewRequest(http.MethodGet, "/audiobooks/nope.wav", nil))
		if rec.Code != http.StatusNotFound {
			t.Errorf("got %d", rec.Code)
		}
	})
}

func uploadRequest(t *testing.T, field, filename, contentType string, content []byte) *http.Request {
	t.Helper()
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)

	h := make(textproto.MIMEHeader)
	h.Set("Content-Disposition", fmt.Sprintf(`form-data; name=%q; filename=%q`, field, filename))
	h.Set("Content-Type", contentType)
	fw, err := mw.CreatePart(h)
	if err != nil {
		t.Fatal(err)
	}
	if _, err := fw.Write(content); err != nil {
		t.Fatal(err)
	}
	mw.Close()

	req := httptest.NewRequest(http.MethodPost, "/process", &buf)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	return req
}

func TestProcess(t *testing.T) {
	t.Run("MissingFileField", func(t *testing.T) {
		s := newTestServer(t)
		rec := doRequest(s, uploadRequest(t, "document", "score.pdf", "application/pdf", []byte("x")))
		if rec.Code != http.StatusBadRequest {
			t.Errorf("got %d", rec.Code)
		}
	})

	t.Run("WrongContentType", func(t *testing.T) {
		// A .pdf extension does not make an upload a PDF; only the
		// declared media type counts.
		s := newTestServer(t)
		rec := doRequest(s, uploadRequest(t, "file", "score.pdf", "application/octet-stream", []byte("x")))
		if rec.Code != http.StatusBadRequest {
			t.Errorf("got %d", rec.Code)
		}
	})

	t.Run("MissingSoundFontIsServerSide", func(t *testing.T) {
		// The sound font precondition fails before any page work, so this
		// exercises the full handler without external tools.
		s := newTestServer(t)
		rec := doRequest(s, uploadRequest(t, "file", "score.pdf", "application/pdf", []byte("%PDF-1.4")))
		if rec.Code != http.StatusInternalServerError {
			t.Errorf("a server-side failure should map to 500, got %d", rec.Code)
		}

		var body map[string]string
		decodeBody(t, rec, &body)
		if body["detail"] == "" {
			t.Error("error response should carry a detail message")
		}
	})

	t.Run("UnreadableDocumentIsClientSide", func(t *testing.T) {
		s := newTestServer(t)
		// With the sound font in place, the job reaches the document and
		// fails on the corrupt upload.
		if err := os.WriteFile(s.config.SoundFontPath, []byte("sf2"), 0644); err != nil {
			t.Fatal(err)
		}

		rec := doRequest(s, uploadRequest(t, "file", "score.pdf", "application/pdf", []byte("this is not a pdf")))
		if rec.Code != http.StatusBadRequest {
			t.Errorf("a corrupt document should map to 400, got %d", rec.Code)
		}
	})
}

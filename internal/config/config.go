// Package config loads service configuration from the environment.
package config

import (
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"

	"github.com/JvM3d/conversor-de-partituras/internal/rasterize"
)

// Config holds the service configuration
type Config struct {
	BaseURL        string   // used to build absolute download links
	AllowedOrigins []string // permitted request origins
	SoundFontPath  string
	OutputDir      string
	Port           int
	DPI            int
	Voice          string
}

// Load reads configuration from the environment, with a .env file as an
// optional source. Missing values fall back to the documented defaults.
func Load() Config {
	// Load .env file if it exists (silently ignore if not found)
	_ = godotenv.Load()

	return Config{
		BaseURL:        envOr("BASE_URL", "http://localhost:8000"),
		AllowedOrigins: strings.Split(envOr("ALLOWED_ORIGINS", "*"), ","),
		SoundFontPath:  envOr("SOUNDFONT_PATH", "soundfont.sf2"),
		OutputDir:      envOr("OUTPUT_DIR", "output_audio"),
		Port:           envIntOr("PORT", 8000),
		DPI:            envIntOr("RASTER_DPI", rasterize.DefaultDPI),
		Voice:          envOr("NARRATION_VOICE", ""),
	}
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func envIntOr(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			return n
		}
	}
	return fallback
}

package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/JvM3d/conversor-de-partituras/internal/config"
	"github.com/JvM3d/conversor-de-partituras/internal/pipeline"
	"github.com/JvM3d/conversor-de-partituras/internal/progress"
	"github.com/JvM3d/conversor-de-partituras/internal/server"
)

var (
	version = "0.1.0"
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:   "conversor-de-partituras",
	Short: "Convert scanned sheet music into narrated audiobooks",
	Long: `Conversor de Partituras turns scanned sheet-music PDFs into narrated
audio renditions for visually impaired musicians.

Pipeline: PDF pages are rasterized, recognized (OMR), rendered to MIDI,
synthesized and narrated, then composed into one WAV per piece.`,
	Version: version,
}

var processCmd = &cobra.Command{
	Use:   "process <document.pdf>",
	Short: "Convert one PDF document from the command line",
	Long: `Convert a scanned sheet-music PDF into narrated audiobooks, one per
detected piece.

Examples:
  conversor-de-partituras process score.pdf
  conversor-de-partituras process score.pdf -o ./audiobooks --soundfont piano.sf2`,
	Args: cobra.ExactArgs(1),
	RunE: runProcess,
}

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the HTTP service",
	Long: `Start the upload/listing/download API.

Example:
  conversor-de-partituras serve --port 8000`,
	RunE: runServe,
}

var (
	// process flags
	outputDir string
	soundFont string
	dpi       int
	voice     string
	verbose   bool

	// serve flags
	port int
)

func init() {
	processCmd.Flags().StringVarP(&outputDir, "output", "o", "", "output directory (default from OUTPUT_DIR)")
	processCmd.Flags().StringVar(&soundFont, "soundfont", "", "sound font path (default from SOUNDFONT_PATH)")
	processCmd.Flags().IntVar(&dpi, "dpi", 0, "raster resolution (default from RASTER_DPI)")
	processCmd.Flags().StringVar(&voice, "voice", "", "narration voice (default from NARRATION_VOICE)")
	processCmd.Flags().BoolVarP(&verbose, "verbose", "v", false, "verbose progress output")

	serveCmd.Flags().IntVar(&port, "port", 0, "listen port (default from PORT)")

	rootCmd.AddCommand(processCmd)
	rootCmd.AddCommand(serveCmd)
}

func runProcess(cmd *cobra.Command, args []string) error {
	cfg := config.Load()
	if outputDir != "" {
		cfg.OutputDir = outputDir
	}
	if soundFont != "" {
		cfg.SoundFontPath = soundFont
	}
	if dpi > 0 {
		cfg.DPI = dpi
	}
	if voice != "" {
		cfg.Voice = voice
	}

	reporter := progress.NewReporter(os.Stdout, verbose)

	orch := pipeline.New(pipeline.Config{
		DocumentPath:  args[0],
		OutputDir:     cfg.OutputDir,
		SoundFontPath: cfg.SoundFontPath,
		DPI:           cfg.DPI,
		Voice:         cfg.Voice,
	}, os.Stdout, verbose)

	result, err := orch.Execute(cmd.Context())
	if err != nil {
		reporter.Error(err)
		return err
	}

	for title, filename := range result.Index {
		fmt.Printf("  %s: %s\n", title, filename)
	}
	reporter.Done(len(result.Index), cfg.OutputDir)
	return nil
}

func runServe(cmd *cobra.Command, args []string) error {
	cfg := config.Load()
	if port > 0 {
		cfg.Port = port
	}

	srv, err := server.New(cfg)
	if err != nil {
		return err
	}
	return srv.Run()
}

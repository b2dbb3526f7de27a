package main

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/akthammomani/maestro-finder/internal/classify"
	"github.com/akthammomani/maestro-finder/internal/modelstore"
	"github.com/akthammomani/maestro-finder/internal/pipeline"
	"github.com/akthammomani/maestro-finder/internal/progress"
	"github.com/akthammomani/maestro-finder/internal/server"
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
	Use:   "maestro",
	Short: "Identify the composer of a classical piano excerpt",
	Long: `Maestro-finder identifies the probable composer of a short classical
piano excerpt from a MIDI file or an audio recording.

Pipeline: input -> (audio: Basic Pitch transcription) -> piano roll -> CNN classifier`,
	Version: version,
}

var predictCmd = &cobra.Command{
	Use:   "predict",
	Short: "Predict the composer of a MIDI or audio file",
	Long: `Predict the composer of a MIDI file or piano recording.

Examples:
  maestro predict --input excerpt.mid
  maestro predict -i recording.wav --json
  maestro predict -i take.mp3 --model model/best_cnn.onnx`,
	RunE: runPredict,
}

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the prediction API server",
	Long: `Start the HTTP API for uploading MIDI files or recordings and
retrieving ranked composer probabilities.

Example:
  maestro serve --port 8080`,
	RunE: runServe,
}

var (
	// predict flags
	inputPath  string
	jsonOutput bool
	verbose    bool
	noCache    bool

	// shared model flags
	modelPath   string
	labelsPath  string
	ortLibPath  string
	scriptsDir  string
	minDuration float64
	minRMS      float64
	minNotes    int

	// serve flags
	port int
)

func init() {
	rootCmd.AddCommand(predictCmd)
	rootCmd.AddCommand(serveCmd)

	for _, cmd := range []*cobra.Command{predictCmd, serveCmd} {
		cmd.Flags().StringVar(&modelPath, "model", envOr("MAESTRO_MODEL_PATH", "model/best_cnn.onnx"), "Classifier model (.onnx path or s3:// URI)")
		cmd.Flags().StringVar(&labelsPath, "labels", envOr("MAESTRO_LABELS_PATH", "model/label_map.json"), "Ordered composer label map (JSON array)")
		cmd.Flags().StringVar(&ortLibPath, "ort-lib", os.Getenv("MAESTRO_ORT_LIB"), "Path to the onnxruntime shared library")
		cmd.Flags().StringVar(&scriptsDir, "scripts-dir", "scripts", "Directory holding the transcription helper scripts")
		cmd.Flags().Float64Var(&minDuration, "min-duration", 2.0, "Minimum recording duration in seconds")
		cmd.Flags().Float64Var(&minRMS, "min-rms", 0.005, "Minimum RMS amplitude for recordings")
		cmd.Flags().IntVar(&minNotes, "min-notes", 10, "Minimum note count after parsing or transcription")
	}

	predictCmd.Flags().StringVarP(&inputPath, "input", "i", "", "Input file (MIDI, WAV or MP3)")
	predictCmd.Flags().BoolVar(&jsonOutput, "json", false, "Print the full result as JSON")
	predictCmd.Flags().BoolVarP(&verbose, "verbose", "v", false, "Verbose output")
	predictCmd.Flags().BoolVar(&noCache, "no-cache", false, "Skip the transcription cache")
	predictCmd.MarkFlagRequired("input")

	serveCmd.Flags().IntVarP(&port, "port", "p", 8080, "Port to listen on")
}

func pipelineConfig() pipeline.Config {
	cfg := pipeline.DefaultConfig()
	cfg.ScriptsDir = scriptsDir
	cfg.Gate.MinDuration = minDuration
	cfg.Gate.MinRMS = minRMS
	cfg.Sequence.MinNotes = minNotes
	cfg.UseCache = !noCache
	return cfg
}

// loadClassifier resolves artifacts (downloading s3:// URIs first) and
// loads the model. Failure here aborts the process: no requests are served
// without a loaded model.
func loadClassifier(rollCfg pipeline.Config) (*classify.Classifier, error) {
	cfg := classify.DefaultConfig()
	cfg.ModelPath = modelPath
	cfg.LabelsPath = labelsPath
	cfg.OrtLibraryPath = ortLibPath

	cacheDir := filepath.Join(os.TempDir(), "maestro-artifacts")
	for _, p := range []*string{&cfg.ModelPath, &cfg.LabelsPath} {
		if modelstore.IsS3URI(*p) {
			local, err := modelstore.Fetch(*p, cacheDir)
			if err != nil {
				return nil, fmt.Errorf("fetch artifact: %w", err)
			}
			*p = local
		}
	}

	return classify.New(cfg, rollCfg.Roll)
}

func runPredict(cmd *cobra.Command, args []string) error {
	cfg := pipelineConfig()

	classifier, err := loadClassifier(cfg)
	if err != nil {
		return err
	}
	defer classifier.Close()

	rep := progress.NewReporter(os.Stderr, verbose)
	orch := pipeline.NewOrchestrator(classifier, cfg, rep)

	result, err := orch.PredictFile(cmd.Context(), inputPath)
	if err != nil {
		return err
	}
	rep.Done(result.Top)

	if jsonOutput {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(result)
	}

	fmt.Println()
	for _, p := range result.Ranked {
		fmt.Printf("  %-12s %5.1f%%\n", p.Label, p.Probability*100)
	}
	fmt.Printf("\n%d notes over %.1fs", result.NoteCount, result.SpanSeconds)
	if result.Transcribed {
		fmt.Printf(" (transcribed from audio)")
	}
	fmt.Println()
	return nil
}

func runServe(cmd *cobra.Command, args []string) error {
	cfg := pipelineConfig()

	classifier, err := loadClassifier(cfg)
	if err != nil {
		return err
	}
	defer classifier.Close()

	srv := server.New(server.Config{
		Port:     port,
		Pipeline: cfg,
	}, classifier)

	return srv.Run()
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

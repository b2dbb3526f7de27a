package pipeline

import (
	"context"
	"fmt"
	"time"

	"github.com/akthammomani/maestro-finder/internal/audio"
	"github.com/akthammomani/maestro-finder/internal/cache"
	"github.com/akthammomani/maestro-finder/internal/classify"
	apperrors "github.com/akthammomani/maestro-finder/internal/errors"
	"github.com/akthammomani/maestro-finder/internal/exec"
	"github.com/akthammomani/maestro-finder/internal/midi"
	"github.com/akthammomani/maestro-finder/internal/progress"
	"github.com/akthammomani/maestro-finder/internal/roll"
	"github.com/akthammomani/maestro-finder/internal/workspace"
)

// Predictor is the classifier contract the pipeline depends on: a loaded,
// immutable model mapping a normalized tensor to a raw probability vector.
type Predictor interface {
	Labels() []string
	Tolerance() float64
	Predict(tensor []float32) ([]float32, error)
}

// Config holds pipeline configuration
type Config struct {
	ScriptsDir        string
	Roll              roll.Config
	Gate              audio.GateConfig
	Sequence          midi.SequenceGate
	TranscribeTimeout time.Duration
	UseCache          bool
}

// DefaultConfig returns default pipeline configuration
func DefaultConfig() Config {
	return Config{
		ScriptsDir:        "scripts",
		Roll:              roll.DefaultConfig(),
		Gate:              audio.DefaultGateConfig(),
		Sequence:          midi.DefaultSequenceGate(),
		TranscribeTimeout: 3 * time.Minute,
		UseCache:          true,
	}
}

// Result contains all pipeline outputs for one prediction
type Result struct {
	Ranked        []classify.Prediction `json:"predictions"`
	Top           string                `json:"top"`
	NoteCount     int                   `json:"note_count"`
	SpanSeconds   float64               `json:"span_seconds"`
	Transcribed   bool                  `json:"transcribed"`
	DisplayRoll   [][]float32           `json:"roll"` // pitch-major (88 x 512), for visualization handoff
	RollNonzero   float64               `json:"roll_nonzero_fraction"`
	RollMax       float32               `json:"roll_max"`
	ElapsedMillis int64                 `json:"elapsed_ms"`
}

// Orchestrator coordinates the full prediction pipeline
type Orchestrator struct {
	classifier  Predictor
	runner      *exec.Runner
	converter   *audio.Converter
	transcriber *midi.Transcriber
	progress    *progress.Reporter
	cfg         Config
}

// NewOrchestrator creates a new pipeline orchestrator. The reporter is
// owned by the caller, so the CLI can keep announcing after the pipeline
// returns while the server passes a discarding one.
func NewOrchestrator(classifier Predictor, cfg Config, reporter *progress.Reporter) *Orchestrator {
	runner := exec.NewRunner("", cfg.ScriptsDir)
	return &Orchestrator{
		classifier:  classifier,
		runner:      runner,
		converter:   audio.NewConverter(runner),
		transcriber: midi.NewTranscriber(runner),
		progress:    reporter,
		cfg:         cfg,
	}
}

// PredictFile runs the pipeline on a MIDI or audio file, dispatching on
// detected format.
func (o *Orchestrator) PredictFile(ctx context.Context, path string) (*Result, error) {
	start := time.Now()

	o.progress.StartStage(progress.StageValidate)
	format, err := audio.ValidateInput(path)
	if err != nil {
		return nil, err
	}
	o.progress.StageComplete("Valid %s file", format)

	var notes []midi.Note
	transcribed := false

	if format.IsAudio() {
		notes, err = o.transcribeAudio(ctx, path, format)
		if err != nil {
			return nil, err
		}
		transcribed = true
	} else {
		o.progress.StartStage(progress.StageTranscribe)
		o.progress.StageComplete("Skipped (MIDI input)")
		notes, err = midi.ParseFile(path)
		if err != nil {
			return nil, err
		}
	}

	res, err := o.predictNotes(notes)
	if err != nil {
		return nil, err
	}
	res.Transcribed = transcribed
	res.ElapsedMillis = time.Since(start).Milliseconds()
	return res, nil
}

// transcribeAudio gates a recording and converts it to a note sequence via
// Basic Pitch. Temporary artifacts live in a scoped workspace removed on
// every exit path.
func (o *Orchestrator) transcribeAudio(ctx context.Context, path string, format audio.Format) ([]midi.Note, error) {
	ws, err := workspace.Create()
	if err != nil {
		return nil, err
	}
	defer ws.Cleanup()

	wavPath := path
	if format != audio.FormatWAV {
		wavPath = ws.InputWAV()
		if err := o.converter.ToWAV(ctx, path, wavPath); err != nil {
			return nil, err
		}
		o.progress.Update("Converted %s input to 22050 Hz mono wav", format)
	}

	// quality gates run on the waveform before the expensive model call
	if err := audio.GateWAVFile(wavPath, o.cfg.Gate); err != nil {
		return nil, err
	}

	midiPath, cached := o.cachedTranscription(path)
	if cached {
		o.progress.StartStage(progress.StageTranscribe)
		o.progress.StageComplete("Using cached transcription")
	} else {
		o.progress.StartStage(progress.StageTranscribe)
		if err := o.runner.CheckPythonDependency(ctx, "basic_pitch"); err != nil {
			return nil, fmt.Errorf("%w: %v", apperrors.ErrTranscription, err)
		}
		midiPath = ws.TranscribedMIDI()

		tctx, cancel := context.WithTimeout(ctx, o.cfg.TranscribeTimeout)
		defer cancel()
		if err := o.transcriber.Transcribe(tctx, wavPath, midiPath); err != nil {
			return nil, err
		}
		o.progress.StageComplete("Transcription complete")
		o.storeTranscription(path, midiPath)
	}

	return midi.ParseFile(midiPath)
}

func (o *Orchestrator) cachedTranscription(audioPath string) (string, bool) {
	if !o.cfg.UseCache {
		return "", false
	}
	c, err := cache.New()
	if err != nil {
		return "", false
	}
	key, err := cache.KeyForFile(audioPath)
	if err != nil {
		return "", false
	}
	return c.Get(key)
}

func (o *Orchestrator) storeTranscription(audioPath, midiPath string) {
	if !o.cfg.UseCache {
		return
	}
	c, err := cache.New()
	if err != nil {
		o.progress.Warning("Cache init failed: %v", err)
		return
	}
	key, err := cache.KeyForFile(audioPath)
	if err != nil {
		return
	}
	if _, err := c.Put(key, midiPath); err != nil {
		o.progress.Warning("Cache save failed: %v", err)
	}
}

// predictNotes runs extraction, normalization, inference and aggregation
// on a validated note sequence.
func (o *Orchestrator) predictNotes(notes []midi.Note) (*Result, error) {
	// transcription output goes through the same sparsity gate as direct
	// MIDI uploads, never accepted silently
	if err := midi.CheckSequence(notes, o.cfg.Sequence); err != nil {
		return nil, err
	}
	o.progress.Update("%d notes over %.1fs", len(notes), midi.Span(notes))

	o.progress.StartStage(progress.StageExtract)
	pianoRoll := roll.Extract(notes, o.cfg.Roll)
	o.progress.StageComplete("Roll %dx%d, %.1f%% active",
		o.cfg.Roll.NumPitches(), o.cfg.Roll.WindowFrames, pianoRoll.NonzeroFraction()*100)

	tensor, err := roll.Normalize(pianoRoll.Values, o.cfg.Roll)
	if err != nil {
		return nil, err
	}

	o.progress.StartStage(progress.StageClassify)
	probs, err := o.classifier.Predict(tensor)
	if err != nil {
		return nil, fmt.Errorf("classify: %w", err)
	}

	agg, err := classify.Aggregate(o.classifier.Labels(), probs, o.classifier.Tolerance())
	if err != nil {
		return nil, fmt.Errorf("aggregate: %w", err)
	}
	o.progress.StageComplete("Top: %s (%.1f%%)", agg.Top, agg.Ranked[0].Probability*100)

	return &Result{
		Ranked:      agg.Ranked,
		Top:         agg.Top,
		NoteCount:   len(notes),
		SpanSeconds: midi.Span(notes),
		DisplayRoll: pianoRoll.Values,
		RollNonzero: pianoRoll.NonzeroFraction(),
		RollMax:     pianoRoll.Max(),
	}, nil
}

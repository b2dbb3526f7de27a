package classify

import (
	"fmt"
	"os"
	"sync"

	ort "github.com/yalue/onnxruntime_go"

	apperrors "github.com/akthammomani/maestro-finder/internal/errors"
	"github.com/akthammomani/maestro-finder/internal/roll"
)

// Config holds classifier artifact locations and tensor naming. The model
// is the exported ONNX form of the trained CNN; input and output names come
// from the export and rarely change.
type Config struct {
	ModelPath  string
	LabelsPath string
	// OrtLibraryPath points at the onnxruntime shared library. Empty means
	// the platform default search path.
	OrtLibraryPath string
	InputName      string
	OutputName     string
	// Tolerance is how far the raw output sum may drift from 1.0 before the
	// aggregator renormalizes defensively.
	Tolerance float64
}

// DefaultConfig returns standard artifact locations, overridable via flags.
func DefaultConfig() Config {
	return Config{
		ModelPath:  "model/best_cnn.onnx",
		LabelsPath: "model/label_map.json",
		InputName:  "input",
		OutputName: "output",
		Tolerance:  1e-6,
	}
}

var (
	ortInitOnce sync.Once
	ortInitErr  error
)

func initRuntime(libraryPath string) error {
	ortInitOnce.Do(func() {
		if libraryPath != "" {
			ort.SetSharedLibraryPath(libraryPath)
		}
		ortInitErr = ort.InitializeEnvironment()
	})
	return ortInitErr
}

// Classifier wraps the loaded ONNX session and the label set. It is built
// once at startup and shared read-only afterwards; Predict serializes
// session access so concurrent requests are safe.
type Classifier struct {
	cfg     Config
	rollCfg roll.Config
	labels  []string
	session *ort.DynamicAdvancedSession
	mu      sync.Mutex
}

// New loads the model artifact and label map. Any failure here is fatal for
// the process: callers must not serve prediction requests without a loaded
// model, so everything wraps ErrModelUnavailable.
func New(cfg Config, rollCfg roll.Config) (*Classifier, error) {
	if _, err := os.Stat(cfg.ModelPath); err != nil {
		return nil, fmt.Errorf("%w: %v", apperrors.ErrModelUnavailable, err)
	}

	labels, err := LoadLabels(cfg.LabelsPath)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", apperrors.ErrModelUnavailable, err)
	}

	if err := initRuntime(cfg.OrtLibraryPath); err != nil {
		return nil, fmt.Errorf("%w: initialize onnxruntime: %v", apperrors.ErrModelUnavailable, err)
	}

	session, err := ort.NewDynamicAdvancedSession(cfg.ModelPath,
		[]string{cfg.InputName}, []string{cfg.OutputName}, nil)
	if err != nil {
		return nil, fmt.Errorf("%w: load %s: %v", apperrors.ErrModelUnavailable, cfg.ModelPath, err)
	}

	return &Classifier{
		cfg:     cfg,
		rollCfg: rollCfg,
		labels:  labels,
		session: session,
	}, nil
}

// Labels returns the ordered label set.
func (c *Classifier) Labels() []string {
	return c.labels
}

// Tolerance returns the renormalization tolerance for aggregation.
func (c *Classifier) Tolerance() float64 {
	return c.cfg.Tolerance
}

// Predict runs the model on a normalized tensor (flattened 1 x time x
// pitch x 1 layout from roll.Normalize) and returns the raw probability
// vector, one entry per label. Pure call against the loaded session.
func (c *Classifier) Predict(tensor []float32) ([]float32, error) {
	want := c.rollCfg.WindowFrames * c.rollCfg.NumPitches()
	if len(tensor) != want {
		return nil, fmt.Errorf("%w: tensor has %d values, expected %d",
			apperrors.ErrShapeMismatch, len(tensor), want)
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	inputShape := ort.NewShape(1, int64(c.rollCfg.WindowFrames), int64(c.rollCfg.NumPitches()), 1)
	input, err := ort.NewTensor(inputShape, tensor)
	if err != nil {
		return nil, fmt.Errorf("create input tensor: %w", err)
	}
	defer input.Destroy()

	output, err := ort.NewEmptyTensor[float32](ort.NewShape(1, int64(len(c.labels))))
	if err != nil {
		return nil, fmt.Errorf("create output tensor: %w", err)
	}
	defer output.Destroy()

	if err := c.session.Run([]ort.ArbitraryTensor{input}, []ort.ArbitraryTensor{output}); err != nil {
		return nil, fmt.Errorf("inference: %w", err)
	}

	probs := make([]float32, len(c.labels))
	copy(probs, output.GetData())
	return probs, nil
}

// Close releases the model session.
func (c *Classifier) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.session != nil {
		err := c.session.Destroy()
		c.session = nil
		return err
	}
	return nil
}

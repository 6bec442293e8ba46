package model

import (
	"context"
	"fmt"
	"sync"

	ort "github.com/yalue/onnxruntime_go"

	"github.com/ricirt/motor-health-api/internal/domain"
)

// ONNXOptions configures an ONNX-exported classifier. The defaults match the
// graph produced by skl2onnx for a scikit-learn classifier: a float input
// named "float_input" of shape [N, 4] and an int64 "label" output of shape [N].
type ONNXOptions struct {
	LibraryPath string
	InputName   string
	OutputName  string
}

func (o ONNXOptions) withDefaults() ONNXOptions {
	if o.InputName == "" {
		o.InputName = "float_input"
	}
	if o.OutputName == "" {
		o.OutputName = "label"
	}
	return o
}

// The onnxruntime environment is process-wide. It is created by the first
// LoadONNX and torn down by ReleaseONNXRuntime, never by a single classifier.
var ortMu sync.Mutex

func initONNXRuntime(libraryPath string) error {
	ortMu.Lock()
	defer ortMu.Unlock()

	if ort.IsInitialized() {
		return nil
	}
	if libraryPath != "" {
		ort.SetSharedLibraryPath(libraryPath)
	}
	return ort.InitializeEnvironment()
}

// ReleaseONNXRuntime destroys the onnxruntime environment if one was created.
// Call it once at shutdown, after every ONNXClassifier is closed.
func ReleaseONNXRuntime() error {
	ortMu.Lock()
	defer ortMu.Unlock()

	if !ort.IsInitialized() {
		return nil
	}
	return ort.DestroyEnvironment()
}

// ONNXClassifier runs an ONNX model through onnxruntime. The session is
// created once; tensors are allocated per call, so Predict is safe for
// concurrent use.
type ONNXClassifier struct {
	session *ort.DynamicAdvancedSession
}

// LoadONNX initialises the onnxruntime environment if needed and opens a
// session on the model at path.
func LoadONNX(path string, opts ONNXOptions) (*ONNXClassifier, error) {
	opts = opts.withDefaults()

	if err := initONNXRuntime(opts.LibraryPath); err != nil {
		return nil, fmt.Errorf("initialize onnxruntime: %w", err)
	}

	session, err := ort.NewDynamicAdvancedSession(path,
		[]string{opts.InputName}, []string{opts.OutputName}, nil)
	if err != nil {
		return nil, fmt.Errorf("create onnx session: %w", err)
	}

	return &ONNXClassifier{session: session}, nil
}

func (c *ONNXClassifier) Predict(ctx context.Context, rows []domain.SensorRow) ([]int, error) {
	if len(rows) == 0 {
		return []int{}, nil
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	data := make([]float32, 0, len(rows)*domain.SensorWidth)
	for _, row := range rows {
		for _, v := range row {
			data = append(data, float32(v))
		}
	}

	n := int64(len(rows))
	input, err := ort.NewTensor(ort.NewShape(n, domain.SensorWidth), data)
	if err != nil {
		return nil, fmt.Errorf("create input tensor: %w", err)
	}
	defer input.Destroy()

	output, err := ort.NewEmptyTensor[int64](ort.NewShape(n))
	if err != nil {
		return nil, fmt.Errorf("create output tensor: %w", err)
	}
	defer output.Destroy()

	if err := c.session.Run([]ort.ArbitraryTensor{input}, []ort.ArbitraryTensor{output}); err != nil {
		return nil, fmt.Errorf("inference failed: %w", err)
	}

	labels := output.GetData()
	if len(labels) != len(rows) {
		return nil, fmt.Errorf("model returned %d labels for %d rows", len(labels), len(rows))
	}
	out := make([]int, len(labels))
	for i, l := range labels {
		out[i] = int(l)
	}
	return out, nil
}

// Close releases the session. The shared environment stays up for other
// sessions; see ReleaseONNXRuntime.
func (c *ONNXClassifier) Close() error {
	if c.session == nil {
		return nil
	}
	err := c.session.Destroy()
	c.session = nil
	return err
}

var (
	_ Classifier = (*ONNXClassifier)(nil)
	_ Closer     = (*ONNXClassifier)(nil)
)

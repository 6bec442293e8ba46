package model_test

import (
	"path/filepath"
	"strings"
	"testing"

	"github.com/ricirt/motor-health-api/internal/model"
)

func missingRuntime(t *testing.T) string {
	t.Helper()
	return filepath.Join(t.TempDir(), "libonnxruntime-missing.so")
}

func TestLoadONNX_MissingRuntime(t *testing.T) {
	_, err := model.LoadONNX(filepath.Join(t.TempDir(), "model.onnx"), model.ONNXOptions{
		LibraryPath: missingRuntime(t),
	})
	if err == nil {
		t.Fatal("expected error when the onnxruntime library cannot be loaded")
	}
	if !strings.Contains(err.Error(), "initialize onnxruntime") {
		t.Fatalf("expected wrapped initialization error, got %v", err)
	}

	// A failed attempt must not leave the process believing it is initialized.
	if err := model.ReleaseONNXRuntime(); err != nil {
		t.Fatalf("release after failed init: %v", err)
	}
}

func TestLoad_ONNXMissingRuntime(t *testing.T) {
	enc := writeFile(t, "encoder.json", testEncoder)

	_, _, err := model.Load(model.LoadOptions{
		ModelType:   model.TypeONNX,
		ModelPath:   filepath.Join(t.TempDir(), "model.onnx"),
		EncoderPath: enc,
		ONNX:        model.ONNXOptions{LibraryPath: missingRuntime(t)},
	})
	if err == nil {
		t.Fatal("expected error")
	}
	if !strings.HasPrefix(err.Error(), "load model: initialize onnxruntime") {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestONNXClassifier_CloseWithoutSession(t *testing.T) {
	var c model.ONNXClassifier
	if err := c.Close(); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestReleaseONNXRuntime_NotInitialized(t *testing.T) {
	if err := model.ReleaseONNXRuntime(); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

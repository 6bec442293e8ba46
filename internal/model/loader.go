package model

import (
	"fmt"
)

// Supported model artifact types.
const (
	TypeForest = "forest"
	TypeONNX   = "onnx"
)

// LoadOptions describes where the artifacts live and how to open them.
type LoadOptions struct {
	ModelType   string
	ModelPath   string
	EncoderPath string
	ONNX        ONNXOptions

	// CacheSize > 0 wraps the classifier in a CachedClassifier.
	CacheSize  int
	OnCacheHit func(int)
}

// Load opens the classifier and label encoder. Any error here is a startup
// failure; the caller is expected to refuse to serve.
func Load(opts LoadOptions) (Classifier, *LabelEncoder, error) {
	var (
		clf Classifier
		err error
	)
	switch opts.ModelType {
	case TypeForest:
		clf, err = LoadForest(opts.ModelPath)
	case TypeONNX:
		clf, err = LoadONNX(opts.ModelPath, opts.ONNX)
	default:
		return nil, nil, fmt.Errorf("unsupported model type %q", opts.ModelType)
	}
	if err != nil {
		return nil, nil, fmt.Errorf("load model: %w", err)
	}

	enc, err := LoadLabelEncoder(opts.EncoderPath)
	if err != nil {
		closeClassifier(clf)
		return nil, nil, fmt.Errorf("load label encoder: %w", err)
	}

	if forest, ok := clf.(*Forest); ok && forest.NClasses > len(enc.Classes) {
		return nil, nil, fmt.Errorf("model has %d classes but label encoder only %d", forest.NClasses, len(enc.Classes))
	}

	if opts.CacheSize > 0 {
		cached, err := NewCachedClassifier(clf, opts.CacheSize, opts.OnCacheHit)
		if err != nil {
			closeClassifier(clf)
			return nil, nil, err
		}
		clf = cached
	}

	return clf, enc, nil
}

func closeClassifier(clf Classifier) {
	if closer, ok := clf.(Closer); ok {
		_ = closer.Close()
	}
}

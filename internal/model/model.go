package model

import (
	"context"

	"github.com/ricirt/motor-health-api/internal/domain"
)

// Classifier maps sensor rows to class indices, one per row, in row order.
// Implementations are loaded once at startup and must be safe for
// concurrent use without external locking.
type Classifier interface {
	Predict(ctx context.Context, rows []domain.SensorRow) ([]int, error)
}

// LabelDecoder maps class indices back to human-readable labels. It must be
// fitted on the same index space the Classifier produces.
type LabelDecoder interface {
	Decode(indices []int) ([]string, error)
}

// Closer is implemented by classifiers that hold native resources.
type Closer interface {
	Close() error
}

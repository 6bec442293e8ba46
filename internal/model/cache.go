package model

import (
	"context"
	"fmt"

	lru "github.com/hashicorp/golang-lru/v2"

	"github.com/ricirt/motor-health-api/internal/domain"
)

// CachedClassifier memoizes per-row predictions of a deterministic
// classifier. Only rows missing from the cache reach the wrapped classifier,
// in their original relative order.
type CachedClassifier struct {
	next  Classifier
	cache *lru.Cache[domain.SensorRow, int]
	onHit func(hits int)
}

// NewCachedClassifier wraps next with an LRU of the given size. onHit is
// optional (nil = no-op) and receives the number of rows served from cache
// on each call.
func NewCachedClassifier(next Classifier, size int, onHit func(int)) (*CachedClassifier, error) {
	cache, err := lru.New[domain.SensorRow, int](size)
	if err != nil {
		return nil, fmt.Errorf("create prediction cache: %w", err)
	}
	if onHit == nil {
		onHit = func(int) {}
	}
	return &CachedClassifier{next: next, cache: cache, onHit: onHit}, nil
}

func (c *CachedClassifier) Predict(ctx context.Context, rows []domain.SensorRow) ([]int, error) {
	out := make([]int, len(rows))
	var (
		missRows []domain.SensorRow
		missPos  []int
	)

	for i, row := range rows {
		if class, ok := c.cache.Get(row); ok {
			out[i] = class
			continue
		}
		missRows = append(missRows, row)
		missPos = append(missPos, i)
	}

	if hits := len(rows) - len(missRows); hits > 0 {
		c.onHit(hits)
	}
	if len(missRows) == 0 {
		return out, nil
	}

	predicted, err := c.next.Predict(ctx, missRows)
	if err != nil {
		return nil, err
	}
	if len(predicted) != len(missRows) {
		return nil, fmt.Errorf("model returned %d predictions for %d rows", len(predicted), len(missRows))
	}

	for j, class := range predicted {
		out[missPos[j]] = class
		c.cache.Add(missRows[j], class)
	}
	return out, nil
}

// Len reports the number of cached rows.
func (c *CachedClassifier) Len() int { return c.cache.Len() }

// Close forwards to the wrapped classifier when it holds resources.
func (c *CachedClassifier) Close() error {
	if closer, ok := c.next.(Closer); ok {
		return closer.Close()
	}
	return nil
}

var (
	_ Classifier = (*CachedClassifier)(nil)
	_ Closer     = (*CachedClassifier)(nil)
)

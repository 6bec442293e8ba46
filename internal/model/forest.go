package model

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"

	"github.com/ricirt/motor-health-api/internal/domain"
)

// TreeNode is one node of a flattened decision tree. Children are indices
// into the owning tree's node slice.
type TreeNode struct {
	FeatureIdx int     `json:"feature_idx"`
	Threshold  float64 `json:"threshold"`
	LeftChild  int     `json:"left_child"`
	RightChild int     `json:"right_child"`
	ClassLabel int     `json:"class_label"`
	IsLeaf     bool    `json:"is_leaf"`
}

// Tree is a single decision tree rooted at Nodes[0].
type Tree struct {
	Nodes []TreeNode `json:"nodes"`
}

// Forest is a majority-vote ensemble of decision trees, the JSON export of a
// random forest classifier.
type Forest struct {
	NFeatures int    `json:"n_features"`
	NClasses  int    `json:"n_classes"`
	Trees     []Tree `json:"trees"`
}

// LoadForest reads and validates a forest artifact.
func LoadForest(path string) (*Forest, error) {
	payload, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read model: %w", err)
	}

	var f Forest
	if err := json.Unmarshal(payload, &f); err != nil {
		return nil, fmt.Errorf("parse model: %w", err)
	}
	if err := f.Validate(); err != nil {
		return nil, fmt.Errorf("invalid model %s: %w", path, err)
	}
	return &f, nil
}

// Validate checks every node reference once so Predict never walks off a
// tree or loops.
func (f *Forest) Validate() error {
	if f.NFeatures != domain.SensorWidth {
		return fmt.Errorf("model expects %d features, service provides %d", f.NFeatures, domain.SensorWidth)
	}
	if f.NClasses <= 0 {
		return errors.New("n_classes must be positive")
	}
	if len(f.Trees) == 0 {
		return errors.New("model has no trees")
	}

	for ti, t := range f.Trees {
		if len(t.Nodes) == 0 {
			return fmt.Errorf("tree %d has no nodes", ti)
		}
		for ni, n := range t.Nodes {
			if n.IsLeaf {
				if n.ClassLabel < 0 || n.ClassLabel >= f.NClasses {
					return fmt.Errorf("tree %d node %d: class %d out of range", ti, ni, n.ClassLabel)
				}
				continue
			}
			if n.FeatureIdx < 0 || n.FeatureIdx >= f.NFeatures {
				return fmt.Errorf("tree %d node %d: feature %d out of range", ti, ni, n.FeatureIdx)
			}
			// Children must point forward, which rules out cycles.
			if n.LeftChild <= ni || n.LeftChild >= len(t.Nodes) ||
				n.RightChild <= ni || n.RightChild >= len(t.Nodes) {
				return fmt.Errorf("tree %d node %d: invalid children %d/%d", ti, ni, n.LeftChild, n.RightChild)
			}
		}
	}
	return nil
}

// Predict returns the majority class per row. Ties go to the lowest index.
func (f *Forest) Predict(ctx context.Context, rows []domain.SensorRow) ([]int, error) {
	out := make([]int, len(rows))
	votes := make([]int, f.NClasses)

	for i, row := range rows {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		clear(votes)
		for _, t := range f.Trees {
			votes[t.classify(row)]++
		}

		best := 0
		for c := 1; c < len(votes); c++ {
			if votes[c] > votes[best] {
				best = c
			}
		}
		out[i] = best
	}
	return out, nil
}

func (t *Tree) classify(row domain.SensorRow) int {
	idx := 0
	for {
		n := t.Nodes[idx]
		if n.IsLeaf {
			return n.ClassLabel
		}
		if row[n.FeatureIdx] <= n.Threshold {
			idx = n.LeftChild
		} else {
			idx = n.RightChild
		}
	}
}

var _ Classifier = (*Forest)(nil)

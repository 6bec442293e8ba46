package model

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"slices"
	"strings"
)

// LabelEncoder decodes class index i to Classes[i].
type LabelEncoder struct {
	Classes []string `json:"classes"`
}

// LoadLabelEncoder reads a label encoder artifact of the form
// {"classes": ["Faulty", "Healthy", ...]}.
func LoadLabelEncoder(path string) (*LabelEncoder, error) {
	payload, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read label encoder: %w", err)
	}

	var enc LabelEncoder
	if err := json.Unmarshal(payload, &enc); err != nil {
		return nil, fmt.Errorf("parse label encoder: %w", err)
	}
	if len(enc.Classes) == 0 {
		return nil, errors.New("label encoder has no classes")
	}
	return &enc, nil
}

// Decode fails as a whole if any index is unknown; callers never get a
// partially decoded slice. The error lists each unknown index once, sorted.
func (e *LabelEncoder) Decode(indices []int) ([]string, error) {
	labels := make([]string, len(indices))
	var unseen []int
	for i, idx := range indices {
		if idx < 0 || idx >= len(e.Classes) {
			unseen = append(unseen, idx)
			continue
		}
		labels[i] = e.Classes[idx]
	}
	if len(unseen) > 0 {
		slices.Sort(unseen)
		unseen = slices.Compact(unseen)
		parts := make([]string, len(unseen))
		for i, idx := range unseen {
			parts[i] = fmt.Sprint(idx)
		}
		return nil, fmt.Errorf("y contains previously unseen labels: [%s]", strings.Join(parts, " "))
	}
	return labels, nil
}

var _ LabelDecoder = (*LabelEncoder)(nil)

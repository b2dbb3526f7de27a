package classify

import (
	"encoding/json"
	"fmt"
	"os"
)

// LoadLabels reads the ordered composer label list from a JSON array file.
// The order must match the output order the model was trained with; index i
// of the model's probability vector corresponds to labels[i].
func LoadLabels(path string) ([]string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read label map: %w", err)
	}

	var labels []string
	if err := json.Unmarshal(data, &labels); err != nil {
		return nil, fmt.Errorf("parse label map: %w", err)
	}
	if len(labels) == 0 {
		return nil, fmt.Errorf("label map %s is empty", path)
	}

	seen := make(map[string]bool, len(labels))
	for _, l := range labels {
		if l == "" {
			return nil, fmt.Errorf("label map %s contains an empty label", path)
		}
		if seen[l] {
			return nil, fmt.Errorf("label map %s contains duplicate label %q", path, l)
		}
		seen[l] = true
	}
	return labels, nil
}

package input

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"
)

// LoadDescription reads the raw description text file. A missing file or
// blank content is a load failure, fatal to the run.
func LoadDescription(path string) (string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("input: reading description %s: %w", path, err)
	}
	text := string(data)
	if strings.TrimSpace(text) == "" {
		return "", fmt.Errorf("input: description %s is empty", path)
	}
	return text, nil
}

// LoadExamples reads and decodes the worked-example set. Invalid JSON or
// an empty set is a load failure.
func LoadExamples(path string) ([]Example, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("input: reading examples %s: %w", path, err)
	}

	var examples []Example
	if err := json.Unmarshal(data, &examples); err != nil {
		return nil, fmt.Errorf("input: parsing examples %s: %w", path, err)
	}
	if len(examples) == 0 {
		return nil, fmt.Errorf("input: examples %s contain no entries", path)
	}
	return examples, nil
}

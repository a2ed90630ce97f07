// Package input loads the raw description and worked-example artifacts
// that seed a generation run.
package input

import "time"

// Example is one worked test-case example supplied to the provider to
// steer output format.
type Example struct {
	Summary string `json:"summary"`
	Steps   []Step `json:"steps"`
}

// Step is a single ordered action within an example.
type Step struct {
	Action         string `json:"action"`
	InputData      string `json:"input_data"`
	ExpectedResult string `json:"expected_result"`
}

// DiscoveredFile is a candidate description file found in the data dir.
type DiscoveredFile struct {
	Path      string
	Name      string
	SizeBytes int64
	ModTime   time.Time
}

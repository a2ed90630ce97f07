package workflow

import "github.com/MateoRodr13/qa-test-generator/internal/input"

// Action is the operator's choice after rejecting an artifact.
type Action string

const (
	ActionRegenerate Action = "regenerate"
	ActionEdit       Action = "edit"
)

// Operator is the human-interaction port. The workflow is agnostic to
// how requests are rendered; tests supply a scripted implementation.
type Operator interface {
	// Info, Success and Error print status lines.
	Info(msg string)
	Success(msg string)
	Error(msg string)

	// DisplayArtifact shows a generated artifact for review.
	DisplayArtifact(title, content string)

	// Confirm asks a yes/no question, typically "accept this artifact?".
	Confirm(prompt string) (bool, error)

	// ChooseAction asks what to do with a rejected artifact.
	ChooseAction() (Action, error)

	// SelectInputFile picks one of the discovered input files.
	// An empty result aborts the run.
	SelectInputFile(files []input.DiscoveredFile) (string, error)

	// SelectProvider picks one of the configured provider names.
	SelectProvider(providers []string) (string, error)

	// WaitForEdit blocks until the operator has finished editing the
	// scratch file at path.
	WaitForEdit(path string) error
}

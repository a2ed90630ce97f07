// Package workflow drives the two-phase QA generation pipeline: user
// story first, then test cases, each through an interactive
// generate/review/accept loop.
package workflow

// State tracks overall run progress across both phases.
type State int

const (
	StateInitialized State = iota
	StateUserStoryGenerated
	StateUserStoryAccepted
	StateTestCasesGenerated
	StateTestCasesAccepted
	StateCompleted
	StateFailed
)

func (s State) String() string {
	switch s {
	case StateInitialized:
		return "initialized"
	case StateUserStoryGenerated:
		return "user_story_generated"
	case StateUserStoryAccepted:
		return "user_story_accepted"
	case StateTestCasesGenerated:
		return "test_cases_generated"
	case StateTestCasesAccepted:
		return "test_cases_accepted"
	case StateCompleted:
		return "completed"
	case StateFailed:
		return "failed"
	default:
		return "unknown"
	}
}

// Progress maps a state to a fixed completion percentage.
func (s State) Progress() float64 {
	switch s {
	case StateUserStoryGenerated:
		return 25
	case StateUserStoryAccepted:
		return 50
	case StateTestCasesGenerated:
		return 75
	case StateTestCasesAccepted:
		return 90
	case StateCompleted:
		return 100
	default:
		// StateInitialized, StateFailed and anything unrecognized.
		return 0
	}
}

// Context carries the state and data of a single run.
type Context struct {
	State             State
	Description       string
	FinalUserStory    string
	FinalTestCases    string
	SelectedProvider  string
	SelectedInputFile string
	InputStem         string
	OutputDir         string
	Metadata          map[string]any
}

// Status is a read-only snapshot of a run, suitable for reporting.
type Status struct {
	State           string         `json:"state"`
	HasUserStory    bool           `json:"has_user_story"`
	HasTestCases    bool           `json:"has_test_cases"`
	Metadata        map[string]any `json:"metadata"`
	ProgressPercent float64        `json:"progress_percent"`
}

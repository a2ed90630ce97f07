package workflow

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/MateoRodr13/qa-test-generator/internal/agent"
	"github.com/MateoRodr13/qa-test-generator/internal/input"
	"github.com/MateoRodr13/qa-test-generator/internal/output"
	"github.com/MateoRodr13/qa-test-generator/internal/prompt"
)

// Generator produces text from a prompt. *agent.Agent satisfies it.
type Generator interface {
	Name() string
	Generate(ctx context.Context, prompt string) (string, error)
}

// GeneratorFactory builds a Generator for a selected provider name.
type GeneratorFactory func(provider string) (Generator, error)

// Options configure a Manager run.
type Options struct {
	// InputDir is scanned for .txt description files.
	InputDir string

	// ExamplesPath points at the worked-example JSON file.
	ExamplesPath string

	// BaseOutputDir receives per-run output directories.
	BaseOutputDir string

	// Providers lists the selectable provider names.
	Providers []string

	// Interactive enables the review loops. When false each phase
	// generates once and accepts the result.
	Interactive bool

	// InputFile and Provider preselect choices, skipping the
	// corresponding operator prompts.
	InputFile string
	Provider  string

	Operator Operator
	Factory  GeneratorFactory

	// Now is overridable for tests. Defaults to time.Now.
	Now func() time.Time
}

// Manager orchestrates a complete run: selection, input loading, the
// user-story phase, the test-case phase and finalization.
type Manager struct {
	opts Options
	log  *slog.Logger
}

func NewManager(opts Options) *Manager {
	if opts.Now == nil {
		opts.Now = time.Now
	}
	return &Manager{opts: opts, log: slog.With("component", "workflow_manager")}
}

// Run executes the complete workflow and returns the final Context.
// Failures leave the Context in StateFailed with diagnostic metadata;
// the returned error describes the first fatal step.
func (m *Manager) Run(ctx context.Context) (*Context, error) {
	wc := &Context{State: StateInitialized, Metadata: map[string]any{}}
	m.log.Info("starting workflow run")

	fail := func(err error) (*Context, error) {
		wc.State = StateFailed
		wc.Metadata["error"] = err.Error()
		m.log.Error("workflow run failed", "error", err)
		m.opts.Operator.Error(err.Error())
		return wc, err
	}

	if err := m.selectInputs(wc); err != nil {
		return fail(err)
	}
	if err := m.prepareRunDir(wc); err != nil {
		return fail(err)
	}

	examples, err := m.loadInputs(wc)
	if err != nil {
		return fail(err)
	}

	gen, err := m.opts.Factory(wc.SelectedProvider)
	if err != nil {
		return fail(fmt.Errorf("workflow: building %s agent: %w", wc.SelectedProvider, err))
	}

	if err := m.runUserStoryPhase(ctx, wc, gen); err != nil {
		return fail(err)
	}
	if err := m.runTestCasePhase(ctx, wc, gen, examples); err != nil {
		return fail(err)
	}

	m.finalize(wc)
	wc.State = StateCompleted
	m.log.Info("workflow run completed")
	return wc, nil
}

// selectInputs resolves the input file and provider, prompting the
// operator for anything not preselected.
func (m *Manager) selectInputs(wc *Context) error {
	file := m.opts.InputFile
	if file == "" {
		files, err := input.ScanDir(m.opts.InputDir)
		if err != nil {
			return fmt.Errorf("workflow: scanning %s: %w", m.opts.InputDir, err)
		}
		if len(files) == 0 {
			return fmt.Errorf("workflow: no input files found in %s", m.opts.InputDir)
		}
		file, err = m.opts.Operator.SelectInputFile(files)
		if err != nil {
			return fmt.Errorf("workflow: selecting input file: %w", err)
		}
		if file == "" {
			return fmt.Errorf("workflow: no input file selected")
		}
	}

	provider := m.opts.Provider
	if provider == "" {
		var err error
		provider, err = m.opts.Operator.SelectProvider(m.opts.Providers)
		if err != nil {
			return fmt.Errorf("workflow: selecting provider: %w", err)
		}
		if provider == "" {
			return fmt.Errorf("workflow: no provider selected")
		}
	}

	wc.SelectedInputFile = file
	wc.SelectedProvider = provider
	wc.InputStem = input.Stem(file)
	m.log.Info("selection complete", "input", file, "provider", provider)
	return nil
}

func (m *Manager) prepareRunDir(wc *Context) error {
	stamp := m.opts.Now().Format("2006-01-02_15-04-05")
	dir := filepath.Join(m.opts.BaseOutputDir, fmt.Sprintf("run_%s_%s", stamp, wc.InputStem))
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("workflow: creating run dir: %w", err)
	}
	wc.OutputDir = dir
	return nil
}

func (m *Manager) loadInputs(wc *Context) ([]input.Example, error) {
	description, err := input.LoadDescription(wc.SelectedInputFile)
	if err != nil {
		return nil, err
	}
	examples, err := input.LoadExamples(m.opts.ExamplesPath)
	if err != nil {
		return nil, err
	}

	wc.Description = description
	wc.Metadata["examples_count"] = len(examples)
	m.opts.Operator.Info(fmt.Sprintf("Loaded description (%d characters)", len(description)))
	m.opts.Operator.Info(fmt.Sprintf("Loaded %d examples", len(examples)))
	return examples, nil
}

func (m *Manager) runUserStoryPhase(ctx context.Context, wc *Context, gen Generator) error {
	m.opts.Operator.Info("=== USER STORY WORKFLOW ===")

	phase := &Phase{
		Name: "user story",
		Generate: func(ctx context.Context) (string, error) {
			return m.generateValidated(ctx, gen, prompt.UserStory(wc.Description))
		},
		Persist: func(content string) error {
			path := filepath.Join(wc.OutputDir, wc.InputStem+"_user_story.txt")
			return output.SaveUserStory(content, path)
		},
		ScratchPath: filepath.Join(wc.OutputDir, wc.InputStem+"_user_story_for_modification.txt"),
		Operator:    m.opts.Operator,
	}

	story, err := m.runPhase(ctx, phase, gen)
	if err != nil {
		return err
	}
	wc.FinalUserStory = story
	wc.State = StateUserStoryAccepted
	return nil
}

func (m *Manager) runTestCasePhase(ctx context.Context, wc *Context, gen Generator, examples []input.Example) error {
	m.opts.Operator.Info("=== TEST CASES WORKFLOW ===")

	phase := &Phase{
		Name: "test cases",
		Generate: func(ctx context.Context) (string, error) {
			return m.generateValidated(ctx, gen, prompt.TestCases(wc.FinalUserStory, examples))
		},
		Persist: func(content string) error {
			base := filepath.Join(wc.OutputDir, wc.InputStem+"_test_cases")
			if err := output.SaveTestCasesJSON(content, base+".json"); err != nil {
				return err
			}
			return output.SaveTestCasesCSV(content, base+".csv")
		},
		ScratchPath: filepath.Join(wc.OutputDir, wc.InputStem+"_test_cases_for_modification.json"),
		Operator:    m.opts.Operator,
	}

	cases, err := m.runPhase(ctx, phase, gen)
	if err != nil {
		return err
	}
	wc.FinalTestCases = cases
	wc.State = StateTestCasesAccepted
	return nil
}

// generateValidated rejects unusable provider output before it reaches
// the review loop.
func (m *Manager) generateValidated(ctx context.Context, gen Generator, p string) (string, error) {
	resp, err := gen.Generate(ctx, p)
	if err != nil {
		return "", err
	}
	if !agent.ValidateResponse(resp) {
		return "", agent.ErrInvalidResponse
	}
	return resp, nil
}

// runPhase runs a phase interactively, or as a single
// generate-and-accept step in non-interactive mode.
func (m *Manager) runPhase(ctx context.Context, phase *Phase, gen Generator) (string, error) {
	if m.opts.Interactive {
		return phase.Run(ctx)
	}

	artifact, err := phase.Generate(ctx)
	if err != nil {
		return "", fmt.Errorf("workflow: generating %s: %w", phase.Name, err)
	}
	if err := phase.Persist(artifact); err != nil {
		return "", fmt.Errorf("workflow: saving %s: %w", phase.Name, err)
	}
	return artifact, nil
}

func (m *Manager) finalize(wc *Context) {
	wc.Metadata["completion_time"] = m.opts.Now().Format(time.RFC3339)
	wc.Metadata["user_story_length"] = len(wc.FinalUserStory)
	wc.Metadata["test_cases_length"] = len(wc.FinalTestCases)

	m.opts.Operator.Success("QA test generation complete")
	m.opts.Operator.Info("Generated files:")
	m.opts.Operator.Info(fmt.Sprintf("  * User story: %s", filepath.Join(wc.OutputDir, wc.InputStem+"_user_story*.txt")))
	m.opts.Operator.Info(fmt.Sprintf("  * Test cases: %s", filepath.Join(wc.OutputDir, wc.InputStem+"_test_cases*.json")))
}

// StatusOf returns a read-only snapshot of a run context.
func StatusOf(wc *Context) Status {
	return Status{
		State:           wc.State.String(),
		HasUserStory:    wc.FinalUserStory != "",
		HasTestCases:    wc.FinalTestCases != "",
		Metadata:        wc.Metadata,
		ProgressPercent: wc.State.Progress(),
	}
}

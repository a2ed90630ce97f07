package workflow

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

// cannedGenerator returns fixed responses in order.
type cannedGenerator struct {
	responses []string
	calls     int
	prompts   []string
}

func (g *cannedGenerator) Name() string { return "gemini" }

func (g *cannedGenerator) Generate(_ context.Context, prompt string) (string, error) {
	g.prompts = append(g.prompts, prompt)
	if g.calls >= len(g.responses) {
		return "", errors.New("canned responses exhausted")
	}
	resp := g.responses[g.calls]
	g.calls++
	return resp, nil
}

const cannedTestCases = `{
  "english_test_cases": [
    {
      "id": "TEST-AI-001",
      "SUMMARY": "Login works",
      "STEP 1": {"ACTION": "Open login", "INPUT_DATA": "", "EXPECTED_RESULT": "Form shown"}
    }
  ],
  "spanish_test_cases": [
    {
      "id": "TEST-AI-001",
      "SUMMARY": "El login funciona",
      "STEP 1": {"ACTION": "Abrir login", "INPUT_DATA": "", "EXPECTED_RESULT": "Formulario visible"}
    }
  ]
}`

func setupRunDirs(t *testing.T) (inputDir, examplesPath, outputDir string) {
	t.Helper()
	root := t.TempDir()
	inputDir = filepath.Join(root, "input")
	outputDir = filepath.Join(root, "output")
	if err := os.MkdirAll(inputDir, 0o755); err != nil {
		t.Fatal(err)
	}

	description := strings.Repeat("describe the login feature ", 2)[:50]
	if err := os.WriteFile(filepath.Join(inputDir, "login.txt"), []byte(description), 0o644); err != nil {
		t.Fatal(err)
	}

	examplesPath = filepath.Join(root, "prompt_examples.json")
	examples := `[{"summary": "Example case", "steps": [{"action": "Do", "input_data": "x", "expected_result": "ok"}]}]`
	if err := os.WriteFile(examplesPath, []byte(examples), 0o644); err != nil {
		t.Fatal(err)
	}
	return inputDir, examplesPath, outputDir
}

func TestManagerCompleteRun(t *testing.T) {
	inputDir, examplesPath, outputDir := setupRunDirs(t)

	gen := &cannedGenerator{responses: []string{
		"As a user I want to log in\n\nSPANISH VERSION\n\nComo usuario quiero iniciar sesion",
		cannedTestCases,
	}}
	op := &scriptedOperator{
		confirms: []bool{true, true},
		file:     filepath.Join(inputDir, "login.txt"),
		provider: "gemini",
	}

	m := NewManager(Options{
		InputDir:      inputDir,
		ExamplesPath:  examplesPath,
		BaseOutputDir: outputDir,
		Providers:     []string{"gemini", "openai"},
		Interactive:   true,
		Operator:      op,
		Factory:       func(string) (Generator, error) { return gen, nil },
		Now:           func() time.Time { return time.Date(2026, 3, 14, 9, 30, 0, 0, time.UTC) },
	})

	wc, err := m.Run(context.Background())
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if wc.State != StateCompleted {
		t.Errorf("state = %v, want completed", wc.State)
	}
	if wc.FinalTestCases == "" {
		t.Error("final test cases empty")
	}
	if gen.calls != 2 {
		t.Errorf("generator calls = %d, want 2", gen.calls)
	}
	// The test-case prompt must embed the accepted user story.
	if !strings.Contains(gen.prompts[1], "As a user I want to log in") {
		t.Error("test-case prompt does not contain accepted user story")
	}

	wantDir := filepath.Join(outputDir, "run_2026-03-14_09-30-00_login")
	if wc.OutputDir != wantDir {
		t.Errorf("output dir = %q, want %q", wc.OutputDir, wantDir)
	}
	for _, name := range []string{
		"login_user_story_en.txt",
		"login_user_story_es.txt",
		"login_test_cases_en.json",
		"login_test_cases_es.json",
		"login_test_cases_en.csv",
		"login_test_cases_es.csv",
	} {
		if _, err := os.Stat(filepath.Join(wantDir, name)); err != nil {
			t.Errorf("missing artifact %s: %v", name, err)
		}
	}

	status := StatusOf(wc)
	if status.State != "completed" || !status.HasUserStory || !status.HasTestCases {
		t.Errorf("status = %+v", status)
	}
	if status.ProgressPercent != 100 {
		t.Errorf("progress = %v, want 100", status.ProgressPercent)
	}
	if status.Metadata["user_story_length"].(int) == 0 {
		t.Error("user story length metadata missing")
	}
}

func TestManagerNonInteractiveRun(t *testing.T) {
	inputDir, examplesPath, outputDir := setupRunDirs(t)

	gen := &cannedGenerator{responses: []string{"A user story", cannedTestCases}}
	op := &scriptedOperator{} // no confirms scripted: must never be asked

	m := NewManager(Options{
		InputDir:      inputDir,
		ExamplesPath:  examplesPath,
		BaseOutputDir: outputDir,
		Interactive:   false,
		InputFile:     filepath.Join(inputDir, "login.txt"),
		Provider:      "gemini",
		Operator:      op,
		Factory:       func(string) (Generator, error) { return gen, nil },
	})

	wc, err := m.Run(context.Background())
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if wc.State != StateCompleted {
		t.Errorf("state = %v, want completed", wc.State)
	}
	if op.confirmIdx != 0 {
		t.Error("operator was prompted in non-interactive mode")
	}
}

func TestManagerMissingExamplesFails(t *testing.T) {
	inputDir, _, outputDir := setupRunDirs(t)

	op := &scriptedOperator{
		file:     filepath.Join(inputDir, "login.txt"),
		provider: "gemini",
	}
	m := NewManager(Options{
		InputDir:      inputDir,
		ExamplesPath:  filepath.Join(inputDir, "does_not_exist.json"),
		BaseOutputDir: outputDir,
		Interactive:   true,
		Operator:      op,
		Factory: func(string) (Generator, error) {
			t.Fatal("factory must not run when inputs fail to load")
			return nil, nil
		},
	})

	wc, err := m.Run(context.Background())
	if err == nil {
		t.Fatal("expected error for missing examples")
	}
	if wc.State != StateFailed {
		t.Errorf("state = %v, want failed", wc.State)
	}
	if wc.Metadata["error"] == "" {
		t.Error("failure metadata missing")
	}
	if StatusOf(wc).ProgressPercent != 0 {
		t.Errorf("failed run progress = %v, want 0", StatusOf(wc).ProgressPercent)
	}
}

func TestManagerNoInputFileSelectedFails(t *testing.T) {
	inputDir, examplesPath, outputDir := setupRunDirs(t)

	op := &scriptedOperator{file: "", provider: "gemini"}
	m := NewManager(Options{
		InputDir:      inputDir,
		ExamplesPath:  examplesPath,
		BaseOutputDir: outputDir,
		Interactive:   true,
		Operator:      op,
		Factory:       func(string) (Generator, error) { return nil, nil },
	})

	wc, err := m.Run(context.Background())
	if err == nil {
		t.Fatal("expected error when no file is selected")
	}
	if wc.State != StateFailed {
		t.Errorf("state = %v, want failed", wc.State)
	}
}

func TestManagerGenerationFailureLeavesFailedState(t *testing.T) {
	inputDir, examplesPath, outputDir := setupRunDirs(t)

	gen := &cannedGenerator{} // exhausted immediately
	op := &scriptedOperator{
		file:     filepath.Join(inputDir, "login.txt"),
		provider: "gemini",
	}
	m := NewManager(Options{
		InputDir:      inputDir,
		ExamplesPath:  examplesPath,
		BaseOutputDir: outputDir,
		Interactive:   true,
		Operator:      op,
		Factory:       func(string) (Generator, error) { return gen, nil },
	})

	wc, err := m.Run(context.Background())
	if err == nil {
		t.Fatal("expected error from failed generation")
	}
	if wc.State != StateFailed {
		t.Errorf("state = %v, want failed", wc.State)
	}
	// Selection metadata survives for diagnostics.
	if wc.SelectedProvider != "gemini" {
		t.Errorf("selected provider = %q", wc.SelectedProvider)
	}
}

func TestManagerRejectsEmptyProviderResponse(t *testing.T) {
	inputDir, examplesPath, outputDir := setupRunDirs(t)

	gen := &cannedGenerator{responses: []string{"   \n"}}
	op := &scriptedOperator{
		file:     filepath.Join(inputDir, "login.txt"),
		provider: "gemini",
	}
	m := NewManager(Options{
		InputDir:      inputDir,
		ExamplesPath:  examplesPath,
		BaseOutputDir: outputDir,
		Interactive:   true,
		Operator:      op,
		Factory:       func(string) (Generator, error) { return gen, nil },
	})

	wc, err := m.Run(context.Background())
	if err == nil {
		t.Fatal("expected error for blank provider response")
	}
	if wc.State != StateFailed {
		t.Errorf("state = %v, want failed", wc.State)
	}
	// The blank artifact never reaches the review loop.
	if op.confirmIdx != 0 {
		t.Error("operator was asked to review a blank artifact")
	}
}

func TestStateProgressTable(t *testing.T) {
	cases := []struct {
		state State
		want  float64
	}{
		{StateInitialized, 0},
		{StateUserStoryGenerated, 25},
		{StateUserStoryAccepted, 50},
		{StateTestCasesGenerated, 75},
		{StateTestCasesAccepted, 90},
		{StateCompleted, 100},
		{StateFailed, 0},
	}
	for _, tc := range cases {
		if got := tc.state.Progress(); got != tc.want {
			t.Errorf("%v progress = %v, want %v", tc.state, got, tc.want)
		}
	}
}

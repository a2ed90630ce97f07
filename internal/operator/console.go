// Package operator implements the interactive console port of the
// workflow: selection menus, accept/reject prompts and edit waits.
package operator

import (
	"fmt"
	"os"

	"github.com/charmbracelet/huh"

	"github.com/MateoRodr13/qa-test-generator/internal/cli"
	"github.com/MateoRodr13/qa-test-generator/internal/input"
	"github.com/MateoRodr13/qa-test-generator/internal/workflow"
)

// Console renders workflow prompts on the terminal using huh forms.
type Console struct{}

func NewConsole() *Console {
	return &Console{}
}

func (c *Console) Info(msg string) {
	fmt.Fprintln(os.Stdout, cli.Info(msg))
}

func (c *Console) Success(msg string) {
	fmt.Fprintln(os.Stdout, cli.Success(msg))
}

func (c *Console) Error(msg string) {
	fmt.Fprintln(os.Stderr, cli.Error(msg))
}

func (c *Console) DisplayArtifact(title, content string) {
	fmt.Fprintln(os.Stdout, cli.RenderArtifact(title, content))
}

func (c *Console) Confirm(prompt string) (bool, error) {
	var accepted bool
	form := huh.NewForm(huh.NewGroup(
		huh.NewConfirm().
			Title(prompt).
			Affirmative("Accept").
			Negative("Reject").
			Value(&accepted),
	))
	if err := form.Run(); err != nil {
		return false, fmt.Errorf("operator: confirm: %w", err)
	}
	return accepted, nil
}

func (c *Console) ChooseAction() (workflow.Action, error) {
	var action workflow.Action
	form := huh.NewForm(huh.NewGroup(
		huh.NewSelect[workflow.Action]().
			Title("What would you like to do?").
			Options(
				huh.NewOption("Regenerate with the same input", workflow.ActionRegenerate),
				huh.NewOption("Edit it by hand", workflow.ActionEdit),
			).
			Value(&action),
	))
	if err := form.Run(); err != nil {
		return "", fmt.Errorf("operator: choose action: %w", err)
	}
	return action, nil
}

// fileLabel renders one selection menu entry for a discovered file.
func fileLabel(f input.DiscoveredFile) string {
	return fmt.Sprintf("%s (%d bytes, %s)", f.Name, f.SizeBytes, f.ModTime.Format("2006-01-02 15:04"))
}

func (c *Console) SelectInputFile(files []input.DiscoveredFile) (string, error) {
	opts := make([]huh.Option[string], len(files))
	for i, f := range files {
		opts[i] = huh.NewOption(fileLabel(f), f.Path)
	}

	var selected string
	form := huh.NewForm(huh.NewGroup(
		huh.NewSelect[string]().
			Title("Select an input description file").
			Options(opts...).
			Value(&selected),
	))
	if err := form.Run(); err != nil {
		return "", fmt.Errorf("operator: select input file: %w", err)
	}
	return selected, nil
}

func (c *Console) SelectProvider(providers []string) (string, error) {
	opts := make([]huh.Option[string], len(providers))
	for i, p := range providers {
		opts[i] = huh.NewOption(p, p)
	}

	var selected string
	form := huh.NewForm(huh.NewGroup(
		huh.NewSelect[string]().
			Title("Select an AI provider").
			Options(opts...).
			Value(&selected),
	))
	if err := form.Run(); err != nil {
		return "", fmt.Errorf("operator: select provider: %w", err)
	}
	return selected, nil
}

// WaitForEdit blocks until the operator confirms the file at path has
// been edited in an external editor.
func (c *Console) WaitForEdit(path string) error {
	var done bool
	form := huh.NewForm(huh.NewGroup(
		huh.NewConfirm().
			Title(fmt.Sprintf("Edit %s in your editor, then continue.", path)).
			Affirmative("Done editing").
			Negative("Discard my edits").
			Value(&done),
	))
	if err := form.Run(); err != nil {
		return fmt.Errorf("operator: wait for edit: %w", err)
	}
	if !done {
		// Clearing the scratch file signals "keep the prior version".
		if err := os.WriteFile(path, nil, 0o644); err != nil {
			return fmt.Errorf("operator: discarding edits: %w", err)
		}
	}
	return nil
}

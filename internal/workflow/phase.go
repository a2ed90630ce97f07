package workflow

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"strings"
)

// phase states, used for logging transitions.
const (
	phaseGenerating     = "generating"
	phaseAwaitingReview = "awaiting_review"
	phaseEditing        = "editing"
	phaseAccepted       = "accepted"
	phaseFailed         = "failed"
)

// Phase runs one generation stage through the interactive
// generate/review/accept loop.
type Phase struct {
	// Name identifies the phase in prompts and logs, e.g. "user story".
	Name string

	// Generate produces a candidate artifact.
	Generate func(ctx context.Context) (string, error)

	// Persist writes the accepted artifact.
	Persist func(content string) error

	// ScratchPath receives the artifact during an edit round-trip.
	ScratchPath string

	Operator Operator
}

// Run drives the phase to acceptance or failure. On success the
// accepted artifact is persisted and returned.
func (p *Phase) Run(ctx context.Context) (string, error) {
	log := slog.With("phase", p.Name)

	for {
		log.Info("phase transition", "state", phaseGenerating)
		p.Operator.Info(fmt.Sprintf("Generating %s...", p.Name))

		artifact, err := p.Generate(ctx)
		if err != nil {
			log.Error("generation failed", "state", phaseFailed, "error", err)
			p.Operator.Error(fmt.Sprintf("Failed to generate %s: %v", p.Name, err))
			return "", fmt.Errorf("workflow: generating %s: %w", p.Name, err)
		}

		accepted, err := p.review(ctx, artifact, log)
		if err != nil {
			return "", err
		}
		if accepted == "" {
			// Rejected with regenerate, loop.
			continue
		}

		if err := p.Persist(accepted); err != nil {
			log.Error("persist failed", "error", err)
			return "", fmt.Errorf("workflow: saving %s: %w", p.Name, err)
		}
		log.Info("phase transition", "state", phaseAccepted)
		return accepted, nil
	}
}

// review presents the artifact and resolves the operator's decision.
// It returns the accepted artifact, or "" when the operator asked for a
// regeneration.
func (p *Phase) review(ctx context.Context, artifact string, log *slog.Logger) (string, error) {
	for {
		log.Info("phase transition", "state", phaseAwaitingReview)
		p.Operator.DisplayArtifact(fmt.Sprintf("Generated %s", p.Name), artifact)

		ok, err := p.Operator.Confirm(fmt.Sprintf("Accept this %s?", p.Name))
		if err != nil {
			return "", fmt.Errorf("workflow: reading decision: %w", err)
		}
		if ok {
			p.Operator.Success(fmt.Sprintf("%s accepted", strings.ToUpper(p.Name[:1])+p.Name[1:]))
			return artifact, nil
		}

		action, err := p.Operator.ChooseAction()
		if err != nil {
			return "", fmt.Errorf("workflow: reading action: %w", err)
		}
		if action == ActionRegenerate {
			return "", nil
		}

		edited, err := p.edit(artifact, log)
		if err != nil {
			return "", err
		}
		if edited == "" {
			// Empty edit keeps the prior artifact and re-enters review.
			p.Operator.Error("No modifications found, keeping current version")
			continue
		}
		// Edited content is accepted as-is.
		p.Operator.Success(fmt.Sprintf("%s edited and accepted", strings.ToUpper(p.Name[:1])+p.Name[1:]))
		return edited, nil
	}
}

// edit round-trips the artifact through the scratch file. It returns
// the trimmed edited content, "" when the operator cleared the file.
func (p *Phase) edit(artifact string, log *slog.Logger) (string, error) {
	log.Info("phase transition", "state", phaseEditing)

	if err := os.WriteFile(p.ScratchPath, []byte(artifact), 0o644); err != nil {
		return "", fmt.Errorf("workflow: writing scratch file: %w", err)
	}
	p.Operator.Info(fmt.Sprintf("Saved for editing: %s", p.ScratchPath))

	if err := p.Operator.WaitForEdit(p.ScratchPath); err != nil {
		return "", fmt.Errorf("workflow: waiting for edit: %w", err)
	}

	data, err := os.ReadFile(p.ScratchPath)
	if err != nil {
		return "", fmt.Errorf("workflow: reading edited file: %w", err)
	}
	return strings.TrimSpace(string(data)), nil
}

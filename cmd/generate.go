package cmd

import (
	"fmt"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/MateoRodr13/qa-test-generator/internal/agent"
	"github.com/MateoRodr13/qa-test-generator/internal/cli"
	"github.com/MateoRodr13/qa-test-generator/internal/config"
	"github.com/MateoRodr13/qa-test-generator/internal/metrics"
	"github.com/MateoRodr13/qa-test-generator/internal/operator"
	"github.com/MateoRodr13/qa-test-generator/internal/store"
	"github.com/MateoRodr13/qa-test-generator/internal/workflow"
)

var (
	flagProvider string
	flagInput    string
	flagYes      bool
)

var generateCmd = &cobra.Command{
	Use:   "generate",
	Short: "Run the full user story and test case generation workflow",
	RunE:  runGenerate,
}

func init() {
	for _, c := range []*cobra.Command{rootCmd, generateCmd} {
		c.Flags().StringVarP(&flagProvider, "provider", "p", "", "AI provider to use (skip the selection menu)")
		c.Flags().StringVarP(&flagInput, "input", "i", "", "Input description file (skip the selection menu)")
		c.Flags().BoolVarP(&flagYes, "yes", "y", false, "Accept every generated artifact without review")
	}
	rootCmd.AddCommand(generateCmd)
}

func runGenerate(cmd *cobra.Command, _ []string) error {
	cfg, closeLog, err := loadConfig()
	if err != nil {
		return err
	}
	defer closeLog()

	if flagYes && (flagProvider == "" || flagInput == "") {
		return fmt.Errorf("--yes requires --provider and --input")
	}

	collector := metrics.NewCollector()
	if history, err := store.Open(store.DefaultPath()); err == nil {
		defer history.Close()
		collector.SetSink(history)
	} else {
		fmt.Fprintln(cmd.ErrOrStderr(), cli.Error(fmt.Sprintf("metrics history unavailable: %v", err)))
	}

	op := operator.NewConsole()
	m := workflow.NewManager(workflow.Options{
		InputDir:      cfg.General.DataDir,
		ExamplesPath:  examplesPath(cfg),
		BaseOutputDir: cfg.General.OutputDir,
		Providers:     config.AvailableProviders(cfg),
		Interactive:   !flagYes,
		InputFile:     flagInput,
		Provider:      flagProvider,
		Operator:      op,
		Factory: func(provider string) (workflow.Generator, error) {
			a, err := agent.Build(provider, cfg, collector)
			if err != nil {
				return nil, err
			}
			return a, nil
		},
	})

	wc, err := m.Run(cmd.Context())
	if err != nil {
		return err
	}

	status := workflow.StatusOf(wc)
	fmt.Fprintln(cmd.OutOrStdout(), cli.RenderTable(cli.Table{
		Title:   "Run summary",
		Headers: []string{"State", "Progress", "User story", "Test cases"},
		Rows: [][]string{{
			status.State,
			cli.FormatPercent(status.ProgressPercent / 100),
			yesNo(status.HasUserStory),
			yesNo(status.HasTestCases),
		}},
	}))
	return nil
}

func examplesPath(cfg config.Config) string {
	return filepath.Join(cfg.General.DataDir, "prompt_examples.json")
}

func yesNo(b bool) string {
	if b {
		return "yes"
	}
	return "no"
}

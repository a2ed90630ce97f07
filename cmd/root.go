package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/MateoRodr13/qa-test-generator/internal/config"
	"github.com/MateoRodr13/qa-test-generator/internal/logging"
)

var (
	flagDataDir   string
	flagOutputDir string
	flagLogLevel  string
)

var rootCmd = &cobra.Command{
	Use:   "qa-test-generator",
	Short: "AI-assisted QA artifact generator",
	Long:  "Generate user stories and test cases from plain-text feature descriptions, with human review at every step.",
	RunE:  runGenerate,
}

// Execute is the main entry point called from main.go.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&flagDataDir, "data-dir", "d", "", "Directory holding input descriptions and examples")
	rootCmd.PersistentFlags().StringVarP(&flagOutputDir, "output-dir", "o", "", "Base directory for generated artifacts")
	rootCmd.PersistentFlags().StringVar(&flagLogLevel, "log-level", "", "Log level (debug, info, warn, error)")
}

// loadConfig merges the config file with command-line overrides and
// installs logging. The returned closer flushes the log file.
func loadConfig() (config.Config, func(), error) {
	cfg, err := config.Load()
	if err != nil {
		return cfg, nil, fmt.Errorf("loading config: %w", err)
	}

	if flagDataDir != "" {
		cfg.General.DataDir = flagDataDir
	}
	if flagOutputDir != "" {
		cfg.General.OutputDir = flagOutputDir
	}
	if flagLogLevel != "" {
		cfg.General.LogLevel = flagLogLevel
	}

	closer, err := logging.Setup(cfg.General.LogLevel, cfg.General.OutputDir)
	if err != nil {
		return cfg, nil, fmt.Errorf("setting up logging: %w", err)
	}
	cleanup := func() {
		if closer != nil {
			closer.Close()
		}
	}
	return cfg, cleanup, nil
}

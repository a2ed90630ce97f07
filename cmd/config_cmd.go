// Package cmd implements the qa-test-generator CLI commands.
package cmd

import (
	"fmt"
	"sort"

	"github.com/spf13/cobra"

	"github.com/MateoRodr13/qa-test-generator/internal/config"
)

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Show current configuration",
	RunE:  runConfig,
}

func init() {
	rootCmd.AddCommand(configCmd)
}

func runConfig(_ *cobra.Command, _ []string) error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}

	fmt.Printf("  Config file: %s\n", config.ConfigPath())
	if config.Exists() {
		fmt.Println("  Status: loaded")
	} else {
		fmt.Println("  Status: using defaults (no config file)")
	}
	fmt.Println()

	fmt.Println("  [General]")
	fmt.Printf("    Data directory:   %s\n", cfg.General.DataDir)
	fmt.Printf("    Output directory: %s\n", cfg.General.OutputDir)
	fmt.Printf("    Log level:        %s\n", cfg.General.LogLevel)
	fmt.Println()

	names := make([]string, 0, len(cfg.Provider))
	for name := range cfg.Provider {
		names = append(names, name)
	}
	sort.Strings(names)

	for _, name := range names {
		p := cfg.Provider[name]
		fmt.Printf("  [Provider: %s]\n", name)
		key := config.APIKey(cfg, name)
		if key != "" {
			fmt.Printf("    API key:  %s\n", config.MaskKey(key))
		} else {
			fmt.Println("    API key:  not configured")
		}
		fmt.Printf("    Model:    %s\n", p.Model)
		fmt.Printf("    Rate:     %d requests/minute\n", p.RequestsPerMinute)
		fmt.Println()
	}

	fmt.Println("  [Cache]")
	fmt.Printf("    Backend:  %s\n", cfg.Cache.Backend)
	fmt.Printf("    TTL:      %d seconds\n", cfg.Cache.TTLSeconds)
	fmt.Printf("    Disabled: %v\n", cfg.Cache.Disabled)
	if cfg.Cache.Backend == "redis" {
		fmt.Printf("    Redis:    %s\n", config.RedisAddr(cfg))
	}
	fmt.Println()

	fmt.Println("  Run `qa-test-generator setup` to reconfigure.")
	return nil
}

package cmd

import (
	"fmt"
	"strconv"

	"github.com/charmbracelet/huh"
	"github.com/spf13/cobra"

	"github.com/MateoRodr13/qa-test-generator/internal/cli"
	"github.com/MateoRodr13/qa-test-generator/internal/config"
)

var setupCmd = &cobra.Command{
	Use:   "setup",
	Short: "First-time setup wizard",
	RunE:  runSetup,
}

func init() {
	rootCmd.AddCommand(setupCmd)
}

func runSetup(_ *cobra.Command, _ []string) error {
	// Load existing config or defaults
	cfg, _ := config.Load()

	geminiKey := cfg.Provider["gemini"].APIKey
	openaiKey := cfg.Provider["openai"].APIKey
	rpm := strconv.Itoa(cfg.Provider["gemini"].RequestsPerMinute)
	ttl := strconv.Itoa(cfg.Cache.TTLSeconds)
	backend := cfg.Cache.Backend
	redisAddr := cfg.Redis.Addr

	form := huh.NewForm(
		huh.NewGroup(
			huh.NewInput().
				Title("Gemini API key").
				Description("Leave blank to keep using the GEMINI_API_KEY environment variable.").
				EchoMode(huh.EchoModePassword).
				Value(&geminiKey),
			huh.NewInput().
				Title("OpenAI API key").
				Description("Leave blank to keep using the OPENAI_API_KEY environment variable.").
				EchoMode(huh.EchoModePassword).
				Value(&openaiKey),
			huh.NewInput().
				Title("Requests per minute").
				Validate(validatePositiveInt).
				Value(&rpm),
		),
		huh.NewGroup(
			huh.NewSelect[string]().
				Title("Cache backend").
				Options(
					huh.NewOption("In-memory (per process)", "memory"),
					huh.NewOption("Redis (shared)", "redis"),
				).
				Value(&backend),
			huh.NewInput().
				Title("Cache TTL in seconds").
				Validate(validatePositiveInt).
				Value(&ttl),
			huh.NewInput().
				Title("Redis address").
				Description("Only used with the Redis backend.").
				Value(&redisAddr),
		),
	)
	if err := form.Run(); err != nil {
		return fmt.Errorf("setup aborted: %w", err)
	}

	rpmVal, _ := strconv.Atoi(rpm)
	ttlVal, _ := strconv.Atoi(ttl)

	gemini := cfg.Provider["gemini"]
	gemini.APIKey = geminiKey
	gemini.RequestsPerMinute = rpmVal
	cfg.Provider["gemini"] = gemini

	openai := cfg.Provider["openai"]
	openai.APIKey = openaiKey
	openai.RequestsPerMinute = rpmVal
	cfg.Provider["openai"] = openai

	cfg.Cache.Backend = backend
	cfg.Cache.TTLSeconds = ttlVal
	cfg.Redis.Addr = redisAddr

	if err := config.Save(cfg); err != nil {
		return fmt.Errorf("saving config: %w", err)
	}

	fmt.Println(cli.Success(fmt.Sprintf("Configuration saved to %s", config.ConfigPath())))
	return nil
}

func validatePositiveInt(s string) error {
	n, err := strconv.Atoi(s)
	if err != nil || n <= 0 {
		return fmt.Errorf("enter a positive number")
	}
	return nil
}

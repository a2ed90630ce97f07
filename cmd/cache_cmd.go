package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/MateoRodr13/qa-test-generator/internal/cache"
	"github.com/MateoRodr13/qa-test-generator/internal/cli"
	"github.com/MateoRodr13/qa-test-generator/internal/config"
)

var cacheCmd = &cobra.Command{
	Use:   "cache",
	Short: "Manage the response cache",
}

var cacheClearCmd = &cobra.Command{
	Use:   "clear",
	Short: "Drop all cached provider responses",
	RunE:  runCacheClear,
}

func init() {
	cacheCmd.AddCommand(cacheClearCmd)
	rootCmd.AddCommand(cacheCmd)
}

func runCacheClear(_ *cobra.Command, _ []string) error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}

	// The in-memory backend dies with the process; only Redis holds
	// entries worth clearing.
	if cfg.Cache.Backend != "redis" {
		fmt.Println(cli.Info("cache backend is in-memory, nothing to clear"))
		return nil
	}

	backend, err := cache.NewRedisBackend(config.RedisAddr(cfg))
	if err != nil {
		return fmt.Errorf("connecting to redis: %w", err)
	}
	defer backend.Close()

	backend.Clear()
	fmt.Println(cli.Success("response cache cleared"))
	return nil
}

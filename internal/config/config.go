// Package config loads and persists qa-test-generator configuration.
package config

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/BurntSushi/toml"
)

// Default rate limits and cache settings, overridable via config file.
const (
	DefaultRequestsPerMinute = 60
	DefaultCacheTTLSeconds   = 3600
)

// Config holds all qa-test-generator configuration.
type Config struct {
	General  GeneralConfig             `toml:"general"`
	Cache    CacheConfig               `toml:"cache"`
	Redis    RedisConfig               `toml:"redis"`
	Provider map[string]ProviderConfig `toml:"provider"`
}

// GeneralConfig holds general preferences.
type GeneralConfig struct {
	DataDir   string `toml:"data_dir,omitempty"`
	OutputDir string `toml:"output_dir,omitempty"`
	LogLevel  string `toml:"log_level"`
}

// ProviderConfig holds per-provider API settings.
type ProviderConfig struct {
	APIKey            string `toml:"api_key,omitempty"`
	Model             string `toml:"model,omitempty"`
	RequestsPerMinute int    `toml:"requests_per_minute"`
}

// CacheConfig holds response cache settings.
type CacheConfig struct {
	Backend    string `toml:"backend"` // "memory" or "redis"
	TTLSeconds int    `toml:"ttl_seconds"`
	Disabled   bool   `toml:"disabled"`
}

// RedisConfig holds the external store connection settings.
type RedisConfig struct {
	Addr string `toml:"addr"`
}

// DefaultConfig returns the default configuration.
func DefaultConfig() Config {
	return Config{
		General: GeneralConfig{
			DataDir:   "data",
			OutputDir: "output",
			LogLevel:  "info",
		},
		Cache: CacheConfig{
			Backend:    "memory",
			TTLSeconds: DefaultCacheTTLSeconds,
		},
		Redis: RedisConfig{
			Addr: "localhost:6379",
		},
		Provider: map[string]ProviderConfig{
			"gemini": {
				Model:             "gemini-2.5-flash",
				RequestsPerMinute: DefaultRequestsPerMinute,
			},
			"openai": {
				Model:             "gpt-4",
				RequestsPerMinute: DefaultRequestsPerMinute,
			},
		},
	}
}

// ConfigDir returns the XDG-compliant config directory.
func ConfigDir() string {
	if xdg := os.Getenv("XDG_CONFIG_HOME"); xdg != "" {
		return filepath.Join(xdg, "qa-test-generator")
	}
	home, _ := os.UserHomeDir()
	return filepath.Join(home, ".config", "qa-test-generator")
}

// ConfigPath returns the full path to the config file.
func ConfigPath() string {
	return filepath.Join(ConfigDir(), "config.toml")
}

// Load reads the config file, returning defaults if it doesn't exist.
// Missing provider sections are backfilled with defaults so lookups
// never hit a nil map.
func Load() (Config, error) {
	cfg := DefaultConfig()

	data, err := os.ReadFile(ConfigPath())
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, nil
		}
		return cfg, fmt.Errorf("reading config: %w", err)
	}

	loaded := Config{}
	if err := toml.Unmarshal(data, &loaded); err != nil {
		return cfg, fmt.Errorf("parsing config: %w", err)
	}
	merge(&cfg, loaded)

	return cfg, nil
}

// merge overlays non-zero fields from loaded onto the defaults.
func merge(cfg *Config, loaded Config) {
	if loaded.General.DataDir != "" {
		cfg.General.DataDir = loaded.General.DataDir
	}
	if loaded.General.OutputDir != "" {
		cfg.General.OutputDir = loaded.General.OutputDir
	}
	if loaded.General.LogLevel != "" {
		cfg.General.LogLevel = loaded.General.LogLevel
	}
	if loaded.Cache.Backend != "" {
		cfg.Cache.Backend = loaded.Cache.Backend
	}
	if loaded.Cache.TTLSeconds > 0 {
		cfg.Cache.TTLSeconds = loaded.Cache.TTLSeconds
	}
	cfg.Cache.Disabled = loaded.Cache.Disabled
	if loaded.Redis.Addr != "" {
		cfg.Redis.Addr = loaded.Redis.Addr
	}
	for name, pc := range loaded.Provider {
		base := cfg.Provider[name]
		if pc.APIKey != "" {
			base.APIKey = pc.APIKey
		}
		if pc.Model != "" {
			base.Model = pc.Model
		}
		if pc.RequestsPerMinute > 0 {
			base.RequestsPerMinute = pc.RequestsPerMinute
		}
		cfg.Provider[name] = base
	}
}

// Save writes the config to disk.
func Save(cfg Config) error {
	dir := ConfigDir()
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("creating config dir: %w", err)
	}

	f, err := os.OpenFile(ConfigPath(), os.O_WRONLY|os.O_CREATE|os.O_TRUNC, 0o600)
	if err != nil {
		return fmt.Errorf("creating config file: %w", err)
	}
	defer f.Close()

	enc := toml.NewEncoder(f)
	return enc.Encode(cfg)
}

// APIKey returns the key for a provider from env var or config, in that order.
// Recognized env vars: GEMINI_API_KEY, OPENAI_API_KEY.
func APIKey(cfg Config, provider string) string {
	envVars := map[string]string{
		"gemini": "GEMINI_API_KEY",
		"openai": "OPENAI_API_KEY",
	}
	if name, ok := envVars[provider]; ok {
		if key := os.Getenv(name); key != "" {
			return key
		}
	}
	return cfg.Provider[provider].APIKey
}

// RedisAddr returns the Redis address from env var or config, in that order.
func RedisAddr(cfg Config) string {
	if addr := os.Getenv("REDIS_URL"); addr != "" {
		return addr
	}
	return cfg.Redis.Addr
}

// AvailableProviders returns providers that have a credential configured.
func AvailableProviders(cfg Config) []string {
	var out []string
	for _, name := range []string{"gemini", "openai"} {
		if APIKey(cfg, name) != "" {
			out = append(out, name)
		}
	}
	return out
}

// Exists returns true if a config file exists on disk.
func Exists() bool {
	_, err := os.Stat(ConfigPath())
	return err == nil
}

// MaskKey obscures an API key for display.
func MaskKey(key string) string {
	if key == "" {
		return "(not set)"
	}
	if len(key) > 16 {
		return key[:8] + "..." + key[len(key)-4:]
	}
	if len(key) > 4 {
		return key[:4] + "..."
	}
	return "****"
}

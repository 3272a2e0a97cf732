package config

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/BurntSushi/toml"
)

// Config holds all buddy configuration.
type Config struct {
	Memory   MemoryConfig   `toml:"memory"`
	Vault    VaultConfig    `toml:"vault"`
	Logs     LogsConfig     `toml:"logs"`
	Server   ServerConfig   `toml:"server"`
	Analysis AnalysisConfig `toml:"analysis"`
}

type MemoryConfig struct {
	Dir  string `toml:"dir"`  // where metrics.json / patterns.json / personal-context.json live
	User string `toml:"user"` // display name stamped into the metrics document
}

type VaultConfig struct {
	Path string `toml:"path"` // "" means auto-detect via the .obsidian marker
}

type LogsConfig struct {
	Dir      string `toml:"dir"`
	KeepDays int    `toml:"keep_days"`
}

type ServerConfig struct {
	Bind string `toml:"bind"`
	Port int    `toml:"port"`
}

type AnalysisConfig struct {
	WindowDays int    `toml:"window_days"` // trailing window for correlation analysis
	Schedule   string `toml:"schedule"`    // cron spec for scheduled analysis while serving
}

// Default returns a Config with sensible defaults. Empty paths are
// resolved at runtime under ~/.buddy.
func Default() Config {
	return Config{
		Memory: MemoryConfig{
			User: "User",
		},
		Logs: LogsConfig{
			KeepDays: 30,
		},
		Server: ServerConfig{
			Bind: "127.0.0.1",
			Port: 37707,
		},
		Analysis: AnalysisConfig{
			WindowDays: 14,
			Schedule:   "0 6 * * *",
		},
	}
}

// DefaultPath returns the default config file path: ~/.buddy/config.toml
func DefaultPath() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("get home dir: %w", err)
	}
	return filepath.Join(home, ".buddy", "config.toml"), nil
}

// Load reads the TOML config at path on top of defaults. A missing file is
// not an error. BUDDY_MEMORY_DIR and BUDDY_VAULT override the file.
func Load(path string) (Config, error) {
	cfg := Default()

	if path != "" {
		if _, err := os.Stat(path); err == nil {
			if _, err := toml.DecodeFile(path, &cfg); err != nil {
				return cfg, fmt.Errorf("parse config %s: %w", path, err)
			}
		}
	}

	if dir := os.Getenv("BUDDY_MEMORY_DIR"); dir != "" {
		cfg.Memory.Dir = dir
	}
	if vault := os.Getenv("BUDDY_VAULT"); vault != "" {
		cfg.Vault.Path = vault
	}

	return cfg, nil
}

// MemoryDir resolves the memory directory, defaulting to ~/.buddy/memory.
func (c *Config) MemoryDir() (string, error) {
	if c.Memory.Dir != "" {
		return c.Memory.Dir, nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("get home dir: %w", err)
	}
	return filepath.Join(home, ".buddy", "memory"), nil
}

// LogsDir resolves the logs directory, defaulting to ~/.buddy/logs.
func (c *Config) LogsDir() (string, error) {
	if c.Logs.Dir != "" {
		return c.Logs.Dir, nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("get home dir: %w", err)
	}
	return filepath.Join(home, ".buddy", "logs"), nil
}

// ListenAddr returns the bind:port address string.
func (c *Config) ListenAddr() string {
	return fmt.Sprintf("%s:%d", c.Server.Bind, c.Server.Port)
}

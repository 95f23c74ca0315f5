// Package config provides configuration loading and persistence for the
// interminai daemon.
//
// Configuration is loaded from:
// 1. ~/.interminai/config.json (file)
// 2. Environment variables (override file values)
//
// Environment variables:
//   - INTERMINAI_COLS: default terminal width for new sessions
//   - INTERMINAI_ROWS: default terminal height for new sessions
//   - INTERMINAI_UNHANDLED_CAP: unhandled-sequence buffer capacity
//   - INTERMINAI_SOCKET_DIR: base directory for auto-generated sockets
//   - INTERMINAI_LOG_LEVEL: "debug" enables verbose daemon logging
//   - INTERMINAI_LOG_FILE: path the daemon appends its slog output to
//   - INTERMINAI_CONFIG_DIR: override config directory (for testing)
package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
)

// Config holds daemon-wide defaults. Per-session values (the actual size a
// given daemon instance runs with) start from these and may be overridden by
// `start` flags; the config file never binds a running daemon's behavior.
type Config struct {
	// Cols and Rows are the default PTY dimensions for `start` when no
	// --cols/--rows flag is given.
	Cols int `json:"cols"`
	Rows int `json:"rows"`

	// UnhandledBufferCap bounds the emulator's unhandled-escape-sequence
	// FIFO (spec: default 10).
	UnhandledBufferCap int `json:"unhandled_buffer_cap"`

	// SocketDir is the base directory under which auto-generated,
	// per-session socket directories are created.
	SocketDir string `json:"socket_dir"`

	// LogLevel is "info" or "debug".
	LogLevel string `json:"log_level"`

	// LogFile is the path the daemon's slog handler appends to. A
	// daemonized `start` detaches with nil stdio, so this file — not
	// stderr — is the only place its logs survive to.
	LogFile string `json:"log_file"`
}

// DefaultConfig returns configuration with sensible defaults.
func DefaultConfig() *Config {
	return &Config{
		Cols:               80,
		Rows:               24,
		UnhandledBufferCap: 10,
		SocketDir:          os.TempDir(),
		LogLevel:           "info",
		LogFile:            filepath.Join(os.TempDir(), "interminai.log"),
	}
}

// ConfigDir returns the configuration directory path, creating it if
// necessary. Respects INTERMINAI_CONFIG_DIR for testing.
func ConfigDir() (string, error) {
	if testDir := os.Getenv("INTERMINAI_CONFIG_DIR"); testDir != "" {
		if err := os.MkdirAll(testDir, 0700); err != nil {
			return "", fmt.Errorf("could not create config directory: %w", err)
		}
		return testDir, nil
	}

	homeDir, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("could not determine home directory: %w", err)
	}

	dir := filepath.Join(homeDir, ".interminai")
	if err := os.MkdirAll(dir, 0700); err != nil {
		return "", fmt.Errorf("could not create config directory: %w", err)
	}

	return dir, nil
}

// ConfigPath returns the path to the config file.
func ConfigPath() (string, error) {
	dir, err := ConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "config.json"), nil
}

// Load reads configuration from file and applies environment variable
// overrides. Priority: environment variables > config file > defaults.
func Load() (*Config, error) {
	cfg := DefaultConfig()

	if err := cfg.loadFromFile(); err != nil {
		// File doesn't exist or is invalid - use defaults. Not an error.
	}

	cfg.applyEnvOverrides()

	return cfg, nil
}

func (c *Config) loadFromFile() error {
	configPath, err := ConfigPath()
	if err != nil {
		return err
	}

	data, err := os.ReadFile(configPath)
	if err != nil {
		return err
	}

	return json.Unmarshal(data, c)
}

func (c *Config) applyEnvOverrides() {
	if v := os.Getenv("INTERMINAI_COLS"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			c.Cols = n
		}
	}
	if v := os.Getenv("INTERMINAI_ROWS"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			c.Rows = n
		}
	}
	if v := os.Getenv("INTERMINAI_UNHANDLED_CAP"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			c.UnhandledBufferCap = n
		}
	}
	if v := os.Getenv("INTERMINAI_SOCKET_DIR"); v != "" {
		c.SocketDir = v
	}
	if v := os.Getenv("INTERMINAI_LOG_LEVEL"); v != "" {
		c.LogLevel = v
	}
	if v := os.Getenv("INTERMINAI_LOG_FILE"); v != "" {
		c.LogFile = v
	}
}

// Save writes configuration to the config file.
func (c *Config) Save() error {
	configPath, err := ConfigPath()
	if err != nil {
		return err
	}

	if err := os.MkdirAll(filepath.Dir(configPath), 0700); err != nil {
		return fmt.Errorf("could not create config directory: %w", err)
	}

	data, err := json.MarshalIndent(c, "", "  ")
	if err != nil {
		return fmt.Errorf("could not marshal config: %w", err)
	}

	if err := os.WriteFile(configPath, data, 0600); err != nil {
		return fmt.Errorf("could not write config file: %w", err)
	}

	return nil
}

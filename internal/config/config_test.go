package config

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
)

// setupTestEnv creates a temporary config directory and clears env vars.
// Returns a cleanup function to restore state.
func setupTestEnv(t *testing.T) func() {
	t.Helper()

	origConfigDir := os.Getenv("INTERMINAI_CONFIG_DIR")
	origCols := os.Getenv("INTERMINAI_COLS")
	origRows := os.Getenv("INTERMINAI_ROWS")
	origCap := os.Getenv("INTERMINAI_UNHANDLED_CAP")
	origSocketDir := os.Getenv("INTERMINAI_SOCKET_DIR")
	origLogLevel := os.Getenv("INTERMINAI_LOG_LEVEL")
	origLogFile := os.Getenv("INTERMINAI_LOG_FILE")

	tmpDir := t.TempDir()
	os.Setenv("INTERMINAI_CONFIG_DIR", tmpDir)
	os.Unsetenv("INTERMINAI_COLS")
	os.Unsetenv("INTERMINAI_ROWS")
	os.Unsetenv("INTERMINAI_UNHANDLED_CAP")
	os.Unsetenv("INTERMINAI_SOCKET_DIR")
	os.Unsetenv("INTERMINAI_LOG_LEVEL")
	os.Unsetenv("INTERMINAI_LOG_FILE")

	return func() {
		os.Setenv("INTERMINAI_CONFIG_DIR", origConfigDir)
		restore := func(key, val string) {
			if val != "" {
				os.Setenv(key, val)
			} else {
				os.Unsetenv(key)
			}
		}
		restore("INTERMINAI_COLS", origCols)
		restore("INTERMINAI_ROWS", origRows)
		restore("INTERMINAI_UNHANDLED_CAP", origCap)
		restore("INTERMINAI_SOCKET_DIR", origSocketDir)
		restore("INTERMINAI_LOG_LEVEL", origLogLevel)
		restore("INTERMINAI_LOG_FILE", origLogFile)
	}
}

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	if cfg.Cols != 80 {
		t.Errorf("Cols = %d, want 80", cfg.Cols)
	}
	if cfg.Rows != 24 {
		t.Errorf("Rows = %d, want 24", cfg.Rows)
	}
	if cfg.UnhandledBufferCap != 10 {
		t.Errorf("UnhandledBufferCap = %d, want 10", cfg.UnhandledBufferCap)
	}
	if cfg.LogLevel != "info" {
		t.Errorf("LogLevel = %q, want %q", cfg.LogLevel, "info")
	}
	if cfg.LogFile == "" {
		t.Errorf("LogFile = %q, want a non-empty default path", cfg.LogFile)
	}
}

func TestLogFileEnvOverride(t *testing.T) {
	cleanup := setupTestEnv(t)
	defer cleanup()

	customPath := filepath.Join(t.TempDir(), "daemon.log")
	os.Setenv("INTERMINAI_LOG_FILE", customPath)

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() failed: %v", err)
	}

	if cfg.LogFile != customPath {
		t.Errorf("LogFile = %q, want %q (env override)", cfg.LogFile, customPath)
	}
}

func TestConfigSerialization(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Cols = 120
	cfg.Rows = 40

	data, err := json.Marshal(cfg)
	if err != nil {
		t.Fatalf("Marshal failed: %v", err)
	}

	var loaded Config
	if err := json.Unmarshal(data, &loaded); err != nil {
		t.Fatalf("Unmarshal failed: %v", err)
	}

	if loaded.Cols != cfg.Cols {
		t.Errorf("Cols = %d, want %d", loaded.Cols, cfg.Cols)
	}
	if loaded.Rows != cfg.Rows {
		t.Errorf("Rows = %d, want %d", loaded.Rows, cfg.Rows)
	}
}

func TestLoadFromFile(t *testing.T) {
	cleanup := setupTestEnv(t)
	defer cleanup()

	configPath, err := ConfigPath()
	if err != nil {
		t.Fatalf("ConfigPath() failed: %v", err)
	}

	fileConfig := &Config{
		Cols:               100,
		Rows:               30,
		UnhandledBufferCap: 5,
		SocketDir:          "/custom/sockets",
		LogLevel:           "debug",
	}

	data, err := json.MarshalIndent(fileConfig, "", "  ")
	if err != nil {
		t.Fatalf("Marshal failed: %v", err)
	}

	if err := os.WriteFile(configPath, data, 0600); err != nil {
		t.Fatalf("WriteFile failed: %v", err)
	}

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() failed: %v", err)
	}

	if cfg.Cols != 100 {
		t.Errorf("Cols = %d, want 100", cfg.Cols)
	}
	if cfg.LogLevel != "debug" {
		t.Errorf("LogLevel = %q, want %q", cfg.LogLevel, "debug")
	}
}

func TestEnvOverridesFile(t *testing.T) {
	cleanup := setupTestEnv(t)
	defer cleanup()

	configPath, err := ConfigPath()
	if err != nil {
		t.Fatalf("ConfigPath() failed: %v", err)
	}

	fileConfig := &Config{Cols: 100, Rows: 30, UnhandledBufferCap: 5}
	data, _ := json.MarshalIndent(fileConfig, "", "  ")
	os.WriteFile(configPath, data, 0600)

	os.Setenv("INTERMINAI_COLS", "132")
	os.Setenv("INTERMINAI_LOG_LEVEL", "debug")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() failed: %v", err)
	}

	if cfg.Cols != 132 {
		t.Errorf("Cols = %d, want 132 (env override)", cfg.Cols)
	}
	if cfg.LogLevel != "debug" {
		t.Errorf("LogLevel = %q, want %q (env override)", cfg.LogLevel, "debug")
	}
	if cfg.Rows != 30 {
		t.Errorf("Rows = %d, want 30 (from file, not overridden)", cfg.Rows)
	}
}

func TestAllEnvOverrides(t *testing.T) {
	cleanup := setupTestEnv(t)
	defer cleanup()

	os.Setenv("INTERMINAI_COLS", "200")
	os.Setenv("INTERMINAI_ROWS", "60")
	os.Setenv("INTERMINAI_UNHANDLED_CAP", "25")
	os.Setenv("INTERMINAI_SOCKET_DIR", "/env/sockets")
	os.Setenv("INTERMINAI_LOG_LEVEL", "debug")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() failed: %v", err)
	}

	if cfg.Cols != 200 {
		t.Errorf("Cols = %d, want 200", cfg.Cols)
	}
	if cfg.Rows != 60 {
		t.Errorf("Rows = %d, want 60", cfg.Rows)
	}
	if cfg.UnhandledBufferCap != 25 {
		t.Errorf("UnhandledBufferCap = %d, want 25", cfg.UnhandledBufferCap)
	}
	if cfg.SocketDir != "/env/sockets" {
		t.Errorf("SocketDir = %q, want %q", cfg.SocketDir, "/env/sockets")
	}
	if cfg.LogLevel != "debug" {
		t.Errorf("LogLevel = %q, want %q", cfg.LogLevel, "debug")
	}
}

func TestSaveAndLoad(t *testing.T) {
	cleanup := setupTestEnv(t)
	defer cleanup()

	cfg := DefaultConfig()
	cfg.Cols = 132
	cfg.LogLevel = "debug"

	if err := cfg.Save(); err != nil {
		t.Fatalf("Save() failed: %v", err)
	}

	loaded, err := Load()
	if err != nil {
		t.Fatalf("Load() failed: %v", err)
	}

	if loaded.Cols != 132 {
		t.Errorf("Cols = %d, want 132", loaded.Cols)
	}
	if loaded.LogLevel != "debug" {
		t.Errorf("LogLevel = %q, want %q", loaded.LogLevel, "debug")
	}
}

func TestConfigDirOverride(t *testing.T) {
	tmpDir := t.TempDir()
	customDir := filepath.Join(tmpDir, "custom_config")

	os.Setenv("INTERMINAI_CONFIG_DIR", customDir)
	defer os.Unsetenv("INTERMINAI_CONFIG_DIR")

	dir, err := ConfigDir()
	if err != nil {
		t.Fatalf("ConfigDir() failed: %v", err)
	}

	if dir != customDir {
		t.Errorf("ConfigDir() = %q, want %q", dir, customDir)
	}

	if _, err := os.Stat(customDir); os.IsNotExist(err) {
		t.Errorf("Config directory was not created")
	}
}

func TestLoadWithNoFile(t *testing.T) {
	cleanup := setupTestEnv(t)
	defer cleanup()

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() failed: %v", err)
	}

	if cfg.Cols != 80 {
		t.Errorf("Cols = %d, want default 80", cfg.Cols)
	}
	if cfg.Rows != 24 {
		t.Errorf("Rows = %d, want default 24", cfg.Rows)
	}
}

func TestInvalidEnvVarsIgnored(t *testing.T) {
	cleanup := setupTestEnv(t)
	defer cleanup()

	os.Setenv("INTERMINAI_COLS", "not_a_number")
	os.Setenv("INTERMINAI_ROWS", "invalid")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() failed: %v", err)
	}

	if cfg.Cols != 80 {
		t.Errorf("Cols = %d, want default 80 (invalid env ignored)", cfg.Cols)
	}
	if cfg.Rows != 24 {
		t.Errorf("Rows = %d, want default 24 (invalid env ignored)", cfg.Rows)
	}
}

package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestLoadDefaults(t *testing.T) {
	t.Setenv("HOME", filepath.Join(t.TempDir(), "home"))

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.ServerAddress() != "127.0.0.1:8700" {
		t.Fatalf("unexpected server address: %q", cfg.ServerAddress())
	}
	if cfg.ServerBaseURL() != "http://127.0.0.1:8700" {
		t.Fatalf("unexpected base url: %q", cfg.ServerBaseURL())
	}
	if cfg.LogLevel() != "info" {
		t.Fatalf("unexpected log level: %q", cfg.LogLevel())
	}
	if cfg.UITickInterval() != 100*time.Millisecond {
		t.Fatalf("unexpected tick interval: %s", cfg.UITickInterval())
	}
	if !cfg.UIAltScreen() || !cfg.UIMouseEnabled() {
		t.Fatalf("unexpected UI defaults: %#v", cfg.UI)
	}
}

func TestLoadFromTOML(t *testing.T) {
	home := filepath.Join(t.TempDir(), "home")
	t.Setenv("HOME", home)

	dataDir := filepath.Join(home, ".loom")
	if err := os.MkdirAll(dataDir, 0o700); err != nil {
		t.Fatalf("MkdirAll: %v", err)
	}
	content := []byte(`
[server]
address = "https://draft.example.com/"

[logging]
level = "debug"

[reconnect]
initial_delay_ms = 250
max_delay_ms = 10000
max_attempts = 5

[ui]
tick_ms = 50
alt_screen = false
`)
	if err := os.WriteFile(filepath.Join(dataDir, "config.toml"), content, 0o600); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.ServerAddress() != "draft.example.com" {
		t.Fatalf("unexpected server address: %q", cfg.ServerAddress())
	}
	if cfg.LogLevel() != "debug" {
		t.Fatalf("unexpected log level: %q", cfg.LogLevel())
	}
	if cfg.ReconnectInitialDelay() != 250*time.Millisecond {
		t.Fatalf("unexpected initial delay: %s", cfg.ReconnectInitialDelay())
	}
	if cfg.ReconnectMaxDelay() != 10*time.Second {
		t.Fatalf("unexpected max delay: %s", cfg.ReconnectMaxDelay())
	}
	if cfg.ReconnectMaxAttempts() != 5 {
		t.Fatalf("unexpected max attempts: %d", cfg.ReconnectMaxAttempts())
	}
	if cfg.UITickInterval() != 50*time.Millisecond {
		t.Fatalf("unexpected tick interval: %s", cfg.UITickInterval())
	}
	if cfg.UIAltScreen() {
		t.Fatalf("alt_screen=false should disable the alt screen")
	}
}

func TestStreamDebugEnvOverride(t *testing.T) {
	t.Setenv("LOOM_STREAM_DEBUG", "1")
	cfg := Default()
	if !cfg.StreamDebugEnabled() {
		t.Fatalf("env override should enable stream debug")
	}
}

func TestPaths(t *testing.T) {
	home := filepath.Join(t.TempDir(), "home")
	t.Setenv("HOME", home)

	dataDir, err := DataDir()
	if err != nil {
		t.Fatalf("DataDir: %v", err)
	}
	if dataDir != filepath.Join(home, ".loom") {
		t.Fatalf("unexpected data dir: %s", dataDir)
	}

	tokenPath, err := TokenPath()
	if err != nil {
		t.Fatalf("TokenPath: %v", err)
	}
	if tokenPath != filepath.Join(home, ".loom", "token") {
		t.Fatalf("unexpected token path: %s", tokenPath)
	}

	snapshotPath, err := SnapshotDBPath()
	if err != nil {
		t.Fatalf("SnapshotDBPath: %v", err)
	}
	if snapshotPath != filepath.Join(home, ".loom", "snapshots.db") {
		t.Fatalf("unexpected snapshot path: %s", snapshotPath)
	}

	streamLogPath, err := StreamLogPath()
	if err != nil {
		t.Fatalf("StreamLogPath: %v", err)
	}
	if streamLogPath != filepath.Join(home, ".loom", "stream.log") {
		t.Fatalf("unexpected stream log path: %s", streamLogPath)
	}
}

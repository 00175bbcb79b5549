package config_test

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/mindloop/cortex/config"
)

// chdir switches the working directory for the duration of the test,
// standing in for testing.T.Chdir which needs Go 1.24.
func chdir(t *testing.T, dir string) {
	t.Helper()
	old, err := os.Getwd()
	if err != nil {
		t.Fatalf("getwd: %v", err)
	}
	if err := os.Chdir(dir); err != nil {
		t.Fatalf("chdir: %v", err)
	}
	t.Cleanup(func() {
		if err := os.Chdir(old); err != nil {
			t.Errorf("restore wd: %v", err)
		}
	})
}

func TestDefaultConfig(t *testing.T) {
	cfg := config.DefaultConfig()

	if cfg.PollInterval != 60*time.Second {
		t.Errorf("got poll interval %s, want 60s", cfg.PollInterval)
	}
	if cfg.UpdateEvery != 24*time.Hour {
		t.Errorf("got update period %s, want 24h", cfg.UpdateEvery)
	}
	if cfg.SnapshotPath == "" {
		t.Error("expected a default snapshot path")
	}
	if !cfg.Recall.Enabled {
		t.Error("expected recall enabled by default")
	}
}

func TestLoad_Defaults(t *testing.T) {
	// Run in a directory with no cortex.yaml so pure defaults load.
	chdir(t, t.TempDir())
	t.Setenv("XDG_CONFIG_HOME", t.TempDir())
	t.Setenv("HOME", t.TempDir())

	cfg, err := config.Load()
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if *cfg != *config.DefaultConfig() {
		t.Errorf("loaded config differs from defaults:\n got  %+v\n want %+v",
			cfg, config.DefaultConfig())
	}
}

func TestLoad_FileOverrides(t *testing.T) {
	dir := t.TempDir()
	yaml := strings.Join([]string{
		"poll_interval: 5s",
		"calibration: 0.2",
		"snapshot_path: /tmp/test-snapshot.db",
	}, "\n")
	if err := os.WriteFile(filepath.Join(dir, "cortex.yaml"), []byte(yaml), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	chdir(t, dir)
	t.Setenv("XDG_CONFIG_HOME", t.TempDir())
	t.Setenv("HOME", t.TempDir())

	cfg, err := config.Load()
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if cfg.PollInterval != 5*time.Second {
		t.Errorf("got poll interval %s, want 5s", cfg.PollInterval)
	}
	if cfg.Calibration != 0.2 {
		t.Errorf("got calibration %v, want 0.2", cfg.Calibration)
	}
	if cfg.SnapshotPath != "/tmp/test-snapshot.db" {
		t.Errorf("got snapshot path %q", cfg.SnapshotPath)
	}
	// Untouched keys keep their defaults.
	if cfg.UpdateEvery != 24*time.Hour {
		t.Errorf("got update period %s, want default 24h", cfg.UpdateEvery)
	}
}

func TestLoad_EnvOverrides(t *testing.T) {
	// No config file: the CORTEX_* environment alone must override
	// defaults.
	chdir(t, t.TempDir())
	t.Setenv("XDG_CONFIG_HOME", t.TempDir())
	t.Setenv("HOME", t.TempDir())
	t.Setenv("CORTEX_SNAPSHOT_PATH", "/tmp/env-snapshot.db")
	t.Setenv("CORTEX_POLL_INTERVAL", "30s")
	t.Setenv("CORTEX_RECALL_ENABLED", "false")

	cfg, err := config.Load()
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if cfg.SnapshotPath != "/tmp/env-snapshot.db" {
		t.Errorf("got snapshot path %q, want env override", cfg.SnapshotPath)
	}
	if cfg.PollInterval != 30*time.Second {
		t.Errorf("got poll interval %s, want 30s", cfg.PollInterval)
	}
	if cfg.Recall.Enabled {
		t.Error("expected recall disabled via env")
	}
	// Untouched keys keep their defaults.
	if cfg.UpdateEvery != 24*time.Hour {
		t.Errorf("got update period %s, want default 24h", cfg.UpdateEvery)
	}
}

func TestLoad_EnvBeatsFile(t *testing.T) {
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, "cortex.yaml"),
		[]byte("snapshot_path: /tmp/file-snapshot.db\n"), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	chdir(t, dir)
	t.Setenv("XDG_CONFIG_HOME", t.TempDir())
	t.Setenv("HOME", t.TempDir())
	t.Setenv("CORTEX_SNAPSHOT_PATH", "/tmp/env-snapshot.db")

	cfg, err := config.Load()
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if cfg.SnapshotPath != "/tmp/env-snapshot.db" {
		t.Errorf("got snapshot path %q, want env to beat file", cfg.SnapshotPath)
	}
}

func TestLoad_RejectsInvalid(t *testing.T) {
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, "cortex.yaml"), []byte("poll_interval: -1s\n"), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	chdir(t, dir)
	t.Setenv("XDG_CONFIG_HOME", t.TempDir())
	t.Setenv("HOME", t.TempDir())

	if _, err := config.Load(); err == nil {
		t.Error("expected error for negative poll interval")
	}
}

func TestWriteDefault(t *testing.T) {
	path := filepath.Join(t.TempDir(), "cortex.yaml")

	if err := config.WriteDefault(path); err != nil {
		t.Fatalf("WriteDefault failed: %v", err)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read generated config: %v", err)
	}
	for _, want := range []string{"snapshot_path:", "poll_interval: 1m0s", "update_every: 24h0m0s"} {
		if !strings.Contains(string(data), want) {
			t.Errorf("generated config missing %q:\n%s", want, data)
		}
	}

	// A second write must refuse to clobber the file.
	if err := config.WriteDefault(path); err == nil {
		t.Error("expected error overwriting existing config")
	}
}

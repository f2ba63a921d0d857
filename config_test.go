package kernelbench

import (
	"os"
	"path/filepath"
	"testing"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "kernelbench.yaml")
	if err := os.WriteFile(path, []byte(body), 0644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestLoadConfig(t *testing.T) {
	path := writeConfig(t, `
device: host
iterations: 25
warmup: 0
counters: true
log_dir: /tmp/sessions
`)
	cfg, err := LoadConfig(path)
	if err != nil {
		t.Fatal(err)
	}
	if cfg.Device != DeviceHost || cfg.Iterations != 25 || cfg.Warmup != 0 || !cfg.Counters {
		t.Errorf("unexpected config %+v", cfg)
	}
	if cfg.LogDir != "/tmp/sessions" {
		t.Errorf("LogDir = %q", cfg.LogDir)
	}
	// Absent keys keep their defaults
	if cfg.Runs != DefaultRuns || cfg.QueueDepth != DefaultQueueDepth || cfg.Seed != DefaultSeed {
		t.Errorf("defaults lost: %+v", cfg)
	}
}

func TestLoadConfigErrors(t *testing.T) {
	tests := []struct {
		name string
		body string
	}{
		{"malformed", "iterations: [1, 2"},
		{"unknown device", "device: tpu"},
		{"zero iterations", "iterations: 0"},
		{"negative warmup", "warmup: -1"},
		{"zero runs", "runs: 0"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := LoadConfig(writeConfig(t, tt.body)); !IsConfigError(err) {
				t.Errorf("LoadConfig = %v, want config error", err)
			}
		})
	}

	if _, err := LoadConfig(filepath.Join(t.TempDir(), "missing.yaml")); !IsConfigError(err) {
		t.Errorf("missing file = %v, want config error", err)
	}
}

func TestDefaultConfigValid(t *testing.T) {
	if err := DefaultConfig().Validate(); err != nil {
		t.Errorf("DefaultConfig invalid: %v", err)
	}
}

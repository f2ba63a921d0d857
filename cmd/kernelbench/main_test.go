package main

import (
	"bytes"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/LynnColeArt/kernelbench"
	"github.com/LynnColeArt/kernelbench/workload"
)

const testConfig = `device: host
iterations: 3
warmup: 0
runs: 2
seed: 9
counters: true
cold_cache: true
log_dir: from-config
`

func writeConfig(t *testing.T) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "bench.yaml")
	if err := os.WriteFile(path, []byte(testConfig), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

// parseRun builds a fresh command tree, parses args as flags of the run
// command and returns the resulting configuration.
func parseRun(t *testing.T, args ...string) (kernelbench.Config, error) {
	t.Helper()
	opts := &options{newSuites: workload.NewSuites}
	root := newRootCommand(opts)
	run, _, err := root.Find([]string{"run"})
	if err != nil {
		t.Fatal(err)
	}
	if err := run.ParseFlags(args); err != nil {
		t.Fatal(err)
	}
	return loadConfig(run, opts)
}

func TestLoadConfig(t *testing.T) {
	config := writeConfig(t)

	tests := []struct {
		name  string
		args  []string
		check func(t *testing.T, cfg kernelbench.Config)
	}{
		{
			name: "flags only",
			args: []string{"--device", "host", "--iterations", "7"},
			check: func(t *testing.T, cfg kernelbench.Config) {
				if cfg.Device != kernelbench.DeviceHost || cfg.Iterations != 7 {
					t.Errorf("device %s iterations %d", cfg.Device, cfg.Iterations)
				}
				if cfg.Warmup != kernelbench.DefaultWarmup || cfg.Runs != kernelbench.DefaultRuns {
					t.Errorf("warmup %d runs %d, want defaults", cfg.Warmup, cfg.Runs)
				}
				if cfg.LogDir != kernelbench.DefaultLogDir || cfg.Counters || cfg.ColdCache {
					t.Errorf("unexpected config %+v", cfg)
				}
			},
		},
		{
			name: "config file",
			args: []string{"--config", config},
			check: func(t *testing.T, cfg kernelbench.Config) {
				if cfg.Device != kernelbench.DeviceHost || cfg.Iterations != 3 || cfg.Warmup != 0 || cfg.Runs != 2 {
					t.Errorf("config file values not used: %+v", cfg)
				}
				if cfg.Seed != 9 || !cfg.Counters || !cfg.ColdCache || cfg.LogDir != "from-config" {
					t.Errorf("config file values not used: %+v", cfg)
				}
			},
		},
		{
			name: "explicit flags override config file",
			args: []string{"--config", config, "--iterations", "50", "--counters=false", "--log-dir", "from-flag"},
			check: func(t *testing.T, cfg kernelbench.Config) {
				if cfg.Iterations != 50 || cfg.Counters || cfg.LogDir != "from-flag" {
					t.Errorf("flags did not win: %+v", cfg)
				}
				if cfg.Runs != 2 || cfg.Seed != 9 || !cfg.ColdCache {
					t.Errorf("unset flags replaced config values: %+v", cfg)
				}
			},
		},
		{
			name: "verbose sets a logger",
			args: []string{"-v"},
			check: func(t *testing.T, cfg kernelbench.Config) {
				if cfg.Logger == nil {
					t.Error("no logger with -v")
				}
			},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg, err := parseRun(t, tt.args...)
			if err != nil {
				t.Fatal(err)
			}
			tt.check(t, cfg)
		})
	}
}

func TestLoadConfigRejectsInvalidValues(t *testing.T) {
	tests := map[string][]string{
		"unknown device": {"--device", "gpu"},
		"zero runs":      {"--runs", "0"},
		"missing file":   {"--config", filepath.Join(t.TempDir(), "absent.yaml")},
	}
	for name, args := range tests {
		t.Run(name, func(t *testing.T) {
			if _, err := parseRun(t, args...); !kernelbench.IsConfigError(err) {
				t.Errorf("loadConfig = %v, want config error", err)
			}
		})
	}
}

func sleepUnit(name string, d time.Duration, fail error) kernelbench.Unit {
	return kernelbench.UnitFunc{
		UnitName: name,
		Shape:    kernelbench.Shape{1},
		Fn: func(in *kernelbench.Tensor) (*kernelbench.Tensor, error) {
			if fail != nil {
				return nil, fail
			}
			time.Sleep(d)
			return in, nil
		},
	}
}

func fakeSuites(failing bool) func(int64, ...string) ([]workload.Suite, error) {
	return func(int64, ...string) ([]workload.Suite, error) {
		in, err := kernelbench.NewTensor(kernelbench.Shape{1}, []float32{1})
		if err != nil {
			return nil, err
		}
		suites := []workload.Suite{{
			Name:      "steady",
			Baseline:  sleepUnit("slow", 200*time.Microsecond, nil),
			Optimized: sleepUnit("fast", 100*time.Microsecond, nil),
			Input:     in,
		}}
		if failing {
			suites = append(suites, workload.Suite{
				Name:      "broken",
				Baseline:  sleepUnit("slow", 100*time.Microsecond, nil),
				Optimized: sleepUnit("crash", 0, errors.New("kernel fault")),
				Input:     in,
			})
		}
		return suites, nil
	}
}

func TestRunCommand(t *testing.T) {
	tests := []struct {
		name    string
		failing bool
		wantErr string
		records int
	}{
		{"all suites pass", false, "", 1},
		{"a suite fails", true, "1 of 2 suites failed", 2},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			logDir := t.TempDir()
			root := newRootCommand(&options{newSuites: fakeSuites(tt.failing)})
			var out bytes.Buffer
			root.SetOut(&out)
			root.SetErr(&out)
			root.SetArgs([]string{"run", "--device", "host", "--iterations", "2",
				"--warmup", "0", "--runs", "1", "--log-dir", logDir})

			err := root.Execute()
			if tt.wantErr == "" && err != nil {
				t.Fatalf("run = %v", err)
			}
			if tt.wantErr != "" && (err == nil || !strings.Contains(err.Error(), tt.wantErr)) {
				t.Fatalf("run = %v, want %q", err, tt.wantErr)
			}
			if !strings.Contains(out.String(), "session written to") {
				t.Errorf("no session line in output:\n%s", out.String())
			}

			path, err := kernelbench.LatestSession(logDir)
			if err != nil {
				t.Fatal(err)
			}
			results, err := kernelbench.LoadSession(path)
			if err != nil {
				t.Fatal(err)
			}
			if len(results) != tt.records {
				t.Fatalf("session has %d records, want %d", len(results), tt.records)
			}
			for _, r := range results {
				want := "pass"
				if r.Name == "broken" {
					want = "fail"
				}
				if r.Status != want {
					t.Errorf("%s recorded as %s, want %s", r.Name, r.Status, want)
				}
			}
		})
	}
}

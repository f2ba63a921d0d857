// Package kernelbench configuration constants and file loading
package kernelbench

import (
	"fmt"
	"io"
	"log"
	"os"

	"gopkg.in/yaml.v3"
)

// Measurement defaults
const (
	// Timed invocations per measurement
	DefaultIterations = 100

	// Untimed invocations before the timed region
	DefaultWarmup = 10

	// Repeated measurements aggregated into a Series
	DefaultRuns = 5

	// Default RNG seed for synthetic inputs
	DefaultSeed = 42
)

// Device parameters
const (
	// Tasks a stream can hold before Enqueue blocks
	DefaultQueueDepth = 1024

	// Directory for JSON session logs
	DefaultLogDir = "benchmark_logs"
)

// Config describes how a Harness measures. The zero value is not usable;
// start from DefaultConfig.
type Config struct {
	Device     DeviceKind `yaml:"device"`
	Ordinal    int        `yaml:"ordinal"`
	QueueDepth int        `yaml:"queue_depth"`

	Iterations int   `yaml:"iterations"`
	Warmup     int   `yaml:"warmup"`
	Runs       int   `yaml:"runs"`
	Seed       int64 `yaml:"seed"`

	// Counters enables hardware performance counters around the timed
	// region on the host device (Linux only).
	Counters bool `yaml:"counters"`

	// ColdCache evicts the CPU caches after warm-up so the timed region
	// starts cold. Zero FlushSize means DefaultFlushSize bytes.
	ColdCache bool `yaml:"cold_cache"`
	FlushSize int  `yaml:"flush_size"`

	LogDir string `yaml:"log_dir"`

	// Logger receives harness diagnostics. Nil discards them.
	Logger *log.Logger `yaml:"-"`
}

// DefaultConfig returns a configuration using the package defaults.
func DefaultConfig() Config {
	return Config{
		Device:     DeviceAuto,
		QueueDepth: DefaultQueueDepth,
		Iterations: DefaultIterations,
		Warmup:     DefaultWarmup,
		Runs:       DefaultRuns,
		Seed:       DefaultSeed,
		LogDir:     DefaultLogDir,
	}
}

// LoadConfig reads a YAML config file on top of DefaultConfig. Keys that
// are absent keep their default.
func LoadConfig(path string) (Config, error) {
	cfg := DefaultConfig()

	data, err := os.ReadFile(path)
	if err != nil {
		return cfg, NewConfigError("LoadConfig", "failed to read config file", err)
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, NewConfigError("LoadConfig", fmt.Sprintf("failed to parse %s", path), err)
	}
	if err := cfg.Validate(); err != nil {
		return cfg, err
	}
	return cfg, nil
}

// Validate checks the configuration values.
func (c Config) Validate() error {
	switch c.Device {
	case DeviceAuto, DeviceStream, DeviceHost:
	default:
		return NewConfigError("Validate", fmt.Sprintf("unknown device kind %q", c.Device), nil)
	}
	if c.Iterations <= 0 {
		return NewConfigError("Validate", "iterations must be positive", nil)
	}
	if c.Warmup < 0 {
		return NewConfigError("Validate", "warmup must not be negative", nil)
	}
	if c.Runs <= 0 {
		return NewConfigError("Validate", "runs must be positive", nil)
	}
	if c.FlushSize < 0 {
		return NewConfigError("Validate", "flush_size must not be negative", nil)
	}
	return nil
}

func (c Config) logger() *log.Logger {
	if c.Logger == nil {
		return log.New(io.Discard, "", 0)
	}
	return c.Logger
}

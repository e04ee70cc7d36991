// Package config holds sentinel configuration: YAML file, environment
// overrides, then CLI flags, each layer overriding the previous one.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"
)

// Config holds all sentinel configuration.
type Config struct {
	// Log is the watched file. Required; normally set by the --log flag.
	Log string `yaml:"log"`

	// Output is the observation file. Empty derives
	// <log-dir>/sentinel-observations.md.
	Output string `yaml:"output"`

	// Mode selects what happens on critical findings: observe, alert, pause.
	Mode string `yaml:"mode"`

	// Context is a free-form hint about the run, e.g. "bootstrap". It
	// extends the detection pattern set and is recorded in the header.
	Context string `yaml:"context"`

	// StateDir overrides the per-log state directory.
	StateDir string `yaml:"state_dir"`

	Watch    WatchConfig    `yaml:"watch"`
	Analysis AnalysisConfig `yaml:"analysis"`
	Disk     DiskConfig     `yaml:"disk"`
	Logging  LoggingConfig  `yaml:"logging"`
}

// WatchConfig configures the poll loop and dedup windows.
type WatchConfig struct {
	Interval    string `yaml:"interval"`
	Debounce    string `yaml:"debounce"`
	BatchWindow string `yaml:"batch_window"`
	BatchLines  int    `yaml:"batch_lines"`

	// CriticalThreshold is the critical-observation count that makes
	// pause mode request a stop.
	CriticalThreshold int `yaml:"critical_threshold"`
}

// AnalysisConfig configures the LLM backends.
type AnalysisConfig struct {
	Backend     string `yaml:"backend"` // cloud, ollama, both
	CloudModel  string `yaml:"cloud_model"`
	OllamaModel string `yaml:"ollama_model"`
	OllamaURL   string `yaml:"ollama_url"`
	Timeout     string `yaml:"timeout"`
	PromptFile  string `yaml:"prompt_file"`

	// CacheTTL evicts analysis entries idle longer than this. Empty or
	// zero keeps entries for the process lifetime.
	CacheTTL string `yaml:"cache_ttl"`
}

// DiskConfig configures the free-space monitor.
type DiskConfig struct {
	Interval string `yaml:"interval"`
	Path     string `yaml:"path"`
}

// LoggingConfig configures diagnostic logging.
type LoggingConfig struct {
	Level string `yaml:"level"` // debug, info, warn, error
}

// DefaultConfig returns the default configuration.
func DefaultConfig() *Config {
	return &Config{
		Mode: "observe",

		Watch: WatchConfig{
			Interval:          "5s",
			Debounce:          "30s",
			BatchWindow:       "60s",
			BatchLines:        5,
			CriticalThreshold: 3,
		},

		Analysis: AnalysisConfig{
			Backend:     "cloud",
			CloudModel:  "gpt-4o",
			OllamaModel: "llama3",
			OllamaURL:   "http://localhost:11434",
			Timeout:     "120s",
		},

		Disk: DiskConfig{
			Interval: "60s",
			Path:     "/",
		},

		Logging: LoggingConfig{
			Level: "info",
		},
	}
}

// Load loads configuration from a YAML file, falling back to defaults when
// the file does not exist, then applies environment overrides.
func Load(path string) (*Config, error) {
	cfg := DefaultConfig()

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			cfg.applyEnvOverrides()
			return cfg, nil
		}
		return nil, fmt.Errorf("failed to read config: %w", err)
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}

	cfg.applyEnvOverrides()
	return cfg, nil
}

// applyEnvOverrides applies SENTINEL_* environment variable overrides.
func (c *Config) applyEnvOverrides() {
	if v := os.Getenv("SENTINEL_BACKEND"); v != "" {
		c.Analysis.Backend = v
	}
	if v := os.Getenv("SENTINEL_CLOUD_MODEL"); v != "" {
		c.Analysis.CloudModel = v
	}
	if v := os.Getenv("SENTINEL_OLLAMA_MODEL"); v != "" {
		c.Analysis.OllamaModel = v
	}
	if v := os.Getenv("SENTINEL_OLLAMA_URL"); v != "" {
		c.Analysis.OllamaURL = v
	}
	if v := os.Getenv("SENTINEL_STATE_DIR"); v != "" {
		c.StateDir = v
	}
	if v := os.Getenv("SENTINEL_LOG_LEVEL"); v != "" {
		c.Logging.Level = v
	}
}

// OutputPath returns the configured observation file, deriving the default
// next to the watched log when unset.
func (c *Config) OutputPath() string {
	if c.Output != "" {
		return c.Output
	}
	return filepath.Join(filepath.Dir(c.Log), "sentinel-observations.md")
}

// GetInterval returns the poll interval as a duration.
func (c *Config) GetInterval() time.Duration {
	return parseDuration(c.Watch.Interval, 5*time.Second)
}

// GetDebounce returns the debounce window as a duration.
func (c *Config) GetDebounce() time.Duration {
	return parseDuration(c.Watch.Debounce, 30*time.Second)
}

// GetBatchWindow returns the batch flush window as a duration.
func (c *Config) GetBatchWindow() time.Duration {
	return parseDuration(c.Watch.BatchWindow, 60*time.Second)
}

// GetAnalysisTimeout returns the per-call analysis timeout as a duration.
func (c *Config) GetAnalysisTimeout() time.Duration {
	return parseDuration(c.Analysis.Timeout, 120*time.Second)
}

// GetCacheTTL returns the analysis cache idle TTL, zero meaning permanent.
func (c *Config) GetCacheTTL() time.Duration {
	if c.Analysis.CacheTTL == "" {
		return 0
	}
	return parseDuration(c.Analysis.CacheTTL, 0)
}

// GetDiskInterval returns the disk monitor interval as a duration.
func (c *Config) GetDiskInterval() time.Duration {
	return parseDuration(c.Disk.Interval, 60*time.Second)
}

func parseDuration(s string, fallback time.Duration) time.Duration {
	d, err := time.ParseDuration(s)
	if err != nil || d <= 0 {
		return fallback
	}
	return d
}

// Run modes.
const (
	ModeObserve = "observe" // write observations only
	ModeAlert   = "alert"   // observations plus console alerts
	ModePause   = "pause"   // alert behavior plus the critical-threshold stop
)

// Analysis backends.
const (
	BackendCloud  = "cloud"
	BackendOllama = "ollama"
	BackendBoth   = "both"
)

// ValidModes lists the supported run modes.
var ValidModes = []string{ModeObserve, ModeAlert, ModePause}

// ValidBackends lists the supported analysis backends.
var ValidBackends = []string{BackendCloud, BackendOllama, BackendBoth}

// Validate validates the configuration.
func (c *Config) Validate() error {
	if c.Log == "" {
		return fmt.Errorf("no log file configured (pass --log)")
	}
	if !contains(ValidModes, c.Mode) {
		return fmt.Errorf("invalid mode: %s (valid: %v)", c.Mode, ValidModes)
	}
	if !contains(ValidBackends, c.Analysis.Backend) {
		return fmt.Errorf("invalid backend: %s (valid: %v)", c.Analysis.Backend, ValidBackends)
	}
	if c.Watch.BatchLines <= 0 {
		return fmt.Errorf("batch_lines must be positive, got %d", c.Watch.BatchLines)
	}
	if c.Watch.CriticalThreshold <= 0 {
		return fmt.Errorf("critical_threshold must be positive, got %d", c.Watch.CriticalThreshold)
	}
	return nil
}

func contains(list []string, v string) bool {
	for _, s := range list {
		if s == v {
			return true
		}
	}
	return false
}

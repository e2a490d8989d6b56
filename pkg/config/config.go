package config

import (
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// Config holds user-tunable settings for the pipeline
type Config struct {
	// External tools
	MPIProcesses int    `yaml:"mpi_processes"`
	MPIExecBin   string `yaml:"mpiexec_bin"`
	PitRemoveBin string `yaml:"pitremove_bin"`
	D8FlowDirBin string `yaml:"d8flowdir_bin"`
	GDALDEMBin   string `yaml:"gdaldem_bin"`

	// Pipeline defaults
	TrimMargin int    `yaml:"trim_margin"`
	RemovePits bool   `yaml:"remove_pits"`
	OutputDir  string `yaml:"output_dir"`

	// StageTimeoutSeconds bounds each external tool call; 0 disables the
	// deadline.
	StageTimeoutSeconds int `yaml:"stage_timeout_seconds"`

	// Watch mode
	WatchDebounceMS int `yaml:"watch_debounce_ms"`

	// Report
	ChartTheme    string `yaml:"chart_theme"`
	HistogramBins int    `yaml:"histogram_bins"`
}

// DefaultConfig returns a Config struct with default values
func DefaultConfig() *Config {
	return &Config{
		MPIProcesses:        2,
		MPIExecBin:          "mpiexec",
		PitRemoveBin:        "pitremove",
		D8FlowDirBin:        "d8flowdir",
		GDALDEMBin:          "gdaldem",
		TrimMargin:          1,
		RemovePits:          true,
		OutputDir:           "",
		StageTimeoutSeconds: 0,
		WatchDebounceMS:     500,
		ChartTheme:          "dark",
		HistogramBins:       32,
	}
}

// DefaultPath returns the configuration file location, following the XDG
// Base Directory specification with an AppData fallback on Windows.
func DefaultPath() (string, error) {
	if configHome := os.Getenv("XDG_CONFIG_HOME"); configHome != "" {
		return filepath.Join(configHome, "demproc", "config.yaml"), nil
	}

	homeDir, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("failed to get home directory: %w", err)
	}

	if appData := os.Getenv("APPDATA"); appData != "" {
		return filepath.Join(appData, "demproc", "config.yaml"), nil
	}

	return filepath.Join(homeDir, ".config", "demproc", "config.yaml"), nil
}

// Load reads configuration from the specified file path. A missing file is
// not an error: defaults are returned. Out-of-range values fall back to
// their defaults.
func Load(path string) (*Config, error) {
	cfg := DefaultConfig()

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, nil
		}
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	if cfg.MPIProcesses <= 0 {
		cfg.MPIProcesses = 2
	}
	if cfg.TrimMargin < 0 {
		cfg.TrimMargin = 1
	}
	if cfg.StageTimeoutSeconds < 0 {
		cfg.StageTimeoutSeconds = 0
	}
	if cfg.WatchDebounceMS <= 0 {
		cfg.WatchDebounceMS = 500
	}
	if cfg.HistogramBins <= 0 {
		cfg.HistogramBins = 32
	}
	if cfg.ChartTheme == "" {
		cfg.ChartTheme = "dark"
	}

	return cfg, nil
}

// Save persists the current configuration to the specified file path
func (c *Config) Save(path string) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}

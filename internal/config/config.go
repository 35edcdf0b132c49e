package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// FileName is the config file looked up in the working directory and the
// user config directory.
const FileName = ".tally.yaml"

// ErrInvalidConfig is returned when a config file fails validation.
var ErrInvalidConfig = errors.New("invalid config")

// Constants for default values.
const (
	DefaultFormat   = "auto"
	DefaultTheme    = "default"
	DefaultLogLevel = "warn"
)

// DefaultFailOn lists the categories that make a run fail by default.
var DefaultFailOn = []string{"failed", "errored"}

// AppConfig represents the application's configuration from .tally.yaml.
type AppConfig struct {
	Format         string   `yaml:"format"`
	Theme          string   `yaml:"theme"`
	Environment    string   `yaml:"environment,omitempty"`
	Update         bool     `yaml:"update"`
	Live           bool     `yaml:"live"`
	WarningMarkers []string `yaml:"warning_markers,omitempty"`
	UpdateMarkers  []string `yaml:"update_markers,omitempty"`
	FailOn         []string `yaml:"fail_on"`
	MetricsAddr    string   `yaml:"metrics_addr,omitempty"`
	LogLevel       string   `yaml:"log_level"`

	// Path is the file the config was loaded from, empty for defaults.
	Path string `yaml:"-"`
}

// Default returns the hardcoded defaults.
func Default() *AppConfig {
	return &AppConfig{
		Format:   DefaultFormat,
		Theme:    DefaultTheme,
		FailOn:   append([]string(nil), DefaultFailOn...),
		LogLevel: DefaultLogLevel,
	}
}

// Load reads the config at path, or discovers one when path is empty.
// A missing discovered file yields the defaults; a missing explicit file is
// an error.
func Load(path string) (*AppConfig, error) {
	cfg := Default()

	explicit := path != ""
	if !explicit {
		path = getConfigPath()
		if path == "" {
			return cfg, nil
		}
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if !explicit && errors.Is(err, os.ErrNotExist) {
			return cfg, nil
		}
		return nil, fmt.Errorf("reading config file %s: %w", path, err)
	}
	if err := cfg.merge(data); err != nil {
		return nil, fmt.Errorf("config file %s: %w", path, err)
	}
	cfg.Path = path
	return cfg, nil
}

// Parse validates YAML data and merges it onto the defaults.
func Parse(data []byte) (*AppConfig, error) {
	cfg := Default()
	if err := cfg.merge(data); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *AppConfig) merge(data []byte) error {
	if err := Validate(data); err != nil {
		return err
	}

	var file AppConfig
	if err := yaml.Unmarshal(data, &file); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidConfig, err)
	}

	if file.Format != "" {
		c.Format = file.Format
	}
	if file.Theme != "" {
		c.Theme = file.Theme
	}
	if file.Environment != "" {
		c.Environment = file.Environment
	}
	c.Update = file.Update
	c.Live = file.Live
	if len(file.WarningMarkers) > 0 {
		c.WarningMarkers = file.WarningMarkers
	}
	if len(file.UpdateMarkers) > 0 {
		c.UpdateMarkers = file.UpdateMarkers
	}
	// An explicit empty list disables failing on any category.
	if file.FailOn != nil {
		c.FailOn = file.FailOn
	}
	if file.MetricsAddr != "" {
		c.MetricsAddr = file.MetricsAddr
	}
	if file.LogLevel != "" {
		c.LogLevel = file.LogLevel
	}
	return nil
}

// getConfigPath tries to find the .tally.yaml configuration file.
// It checks local directory first, then the user config directory.
func getConfigPath() string {
	if _, err := os.Stat(FileName); err == nil {
		return FileName
	}

	configHome, err := os.UserConfigDir()
	// An empty or root config dir is not suitable for lookup.
	if err != nil || configHome == "" || configHome == "/" {
		return ""
	}
	xdgPath := filepath.Join(configHome, "tally", FileName)
	if _, err := os.Stat(xdgPath); err == nil {
		return xdgPath
	}
	return ""
}

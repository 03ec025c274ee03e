// Package config loads gpumon settings.
//
// Settings come from a single optional YAML file named by the --config
// flag or the GPUMON_CONFIG environment variable. Values in the file are
// applied over Default(); keys left out keep their defaults. With no file
// the defaults are used as-is.
package config

import (
	"errors"
	"fmt"
	"os"
	"slices"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/luki/gpumon/internal/command"
	"github.com/luki/gpumon/internal/sensor"
)

// EnvConfig names the environment variable holding the config file path.
const EnvConfig = "GPUMON_CONFIG"

// AppConfig holds all gpumon settings. It is not modified after Load
// returns.
type AppConfig struct {
	// RefreshInterval is how old a snapshot may get before the next read
	// re-queries the tools.
	RefreshInterval time.Duration `yaml:"refresh_interval"`

	// RenderInterval is how often the display asks for a snapshot.
	RenderInterval time.Duration `yaml:"render_interval"`

	// CommandTimeout bounds each external tool invocation. A timed out
	// tool counts as a failed source.
	CommandTimeout time.Duration `yaml:"command_timeout"`

	// Thresholds colour temperatures in the display. They do not affect
	// acquisition.
	Thresholds Thresholds `yaml:"thresholds"`

	// Tools are the command lines run for each source.
	Tools sensor.Commands `yaml:"tools"`
}

// Thresholds are temperature levels in degrees Celsius.
type Thresholds struct {
	Warning  float64 `yaml:"warning"`
	Critical float64 `yaml:"critical"`
}

// Default returns the built-in configuration.
func Default() AppConfig {
	return AppConfig{
		RefreshInterval: 2000 * time.Millisecond,
		RenderInterval:  3000 * time.Millisecond,
		CommandTimeout:  5 * time.Second,
		Thresholds: Thresholds{
			Warning:  75.0,
			Critical: 85.0,
		},
		Tools: sensor.DefaultCommands(),
	}
}

// Load reads the file named by path, or by GPUMON_CONFIG when path is
// empty. With neither set it returns Default().
func Load(path string) (AppConfig, error) {
	if path == "" {
		path = os.Getenv(EnvConfig)
	}
	if path == "" {
		return Default(), nil
	}
	return LoadFile(path)
}

// LoadFile reads a YAML config file over the defaults and validates the
// result.
func LoadFile(path string) (AppConfig, error) {
	cfg := Default()

	data, err := os.ReadFile(path)
	if err != nil {
		return AppConfig{}, fmt.Errorf("reading config: %w", err)
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return AppConfig{}, fmt.Errorf("parsing config %s: %w", path, err)
	}
	if err := cfg.Validate(); err != nil {
		return AppConfig{}, fmt.Errorf("invalid config %s: %w", path, err)
	}
	return cfg, nil
}

// Validate checks the configuration for errors.
func (c AppConfig) Validate() error {
	var errs []error

	if c.RefreshInterval <= 0 {
		errs = append(errs, fmt.Errorf("refresh_interval must be positive, got %s", c.RefreshInterval))
	}
	if c.RenderInterval <= 0 {
		errs = append(errs, fmt.Errorf("render_interval must be positive, got %s", c.RenderInterval))
	}
	if c.CommandTimeout < 0 {
		errs = append(errs, fmt.Errorf("command_timeout must not be negative, got %s", c.CommandTimeout))
	}
	if c.Thresholds.Warning >= c.Thresholds.Critical {
		errs = append(errs, fmt.Errorf("thresholds.warning (%.1f) must be below thresholds.critical (%.1f)",
			c.Thresholds.Warning, c.Thresholds.Critical))
	}

	tools := []struct {
		key  string
		line command.Line
	}{
		{"tools.identity", c.Tools.Identity},
		{"tools.vendor", c.Tools.Vendor},
		{"tools.thermal_zone", c.Tools.ThermalZone},
		{"tools.utilization", c.Tools.Utilization},
	}
	for _, tool := range tools {
		if tool.line.Name() == "" {
			errs = append(errs, fmt.Errorf("%s must name a command", tool.key))
		}
	}

	if len(errs) > 0 {
		return errors.Join(errs...)
	}
	return nil
}

// Clone returns a copy of c that shares no slices with it.
func (c AppConfig) Clone() AppConfig {
	out := c
	out.Tools = sensor.Commands{
		Identity:    slices.Clone(c.Tools.Identity),
		Vendor:      slices.Clone(c.Tools.Vendor),
		ThermalZone: slices.Clone(c.Tools.ThermalZone),
		Utilization: slices.Clone(c.Tools.Utilization),
	}
	return out
}

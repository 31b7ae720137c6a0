// Package config loads importonly settings from YAML or pyproject.toml files,
// IMPORTONLY_* environment variables and command-line overrides.
package config

import (
	"errors"
	"fmt"
	"slices"
	"strings"

	"github.com/Sumatoshi-tech/importonly/pkg/checker"
	"github.com/Sumatoshi-tech/importonly/pkg/observability"
)

// Config is the top-level configuration struct for importonly.
// Field tags use mapstructure for viper unmarshalling.
type Config struct {
	// AllowedDirectImports holds RuleSet entries. A single string in the
	// file is split on commas by viper and joined back by RuleConfig.
	AllowedDirectImports []string        `mapstructure:"allowed_direct_imports"`
	SearchPaths          []string        `mapstructure:"search_paths"`
	Exclude              []string        `mapstructure:"exclude"`
	Disable              []string        `mapstructure:"disable"`
	Workers              int             `mapstructure:"workers"`
	Format               string          `mapstructure:"format"`
	Color                string          `mapstructure:"color"`
	Log                  LogConfig       `mapstructure:"log"`
	Telemetry            TelemetryConfig `mapstructure:"telemetry"`

	// Source is the file the settings were read from, empty for defaults.
	Source string `mapstructure:"-"`
}

// LogConfig holds logger settings.
type LogConfig struct {
	Level string `mapstructure:"level"`
	JSON  bool   `mapstructure:"json"`
}

// TelemetryConfig holds OpenTelemetry and Prometheus settings.
type TelemetryConfig struct {
	OTLPEndpoint    string  `mapstructure:"otlp_endpoint"`
	OTLPInsecure    bool    `mapstructure:"otlp_insecure"`
	OTLPHeaders     string  `mapstructure:"otlp_headers"`
	SampleRatio     float64 `mapstructure:"sample_ratio"`
	MetricsTextfile string  `mapstructure:"metrics_textfile"`
}

// Output formats.
const (
	FormatText = "text"
	FormatJSON = "json"
	FormatYAML = "yaml"
)

// Color modes.
const (
	ColorAuto   = "auto"
	ColorAlways = "always"
	ColorNever  = "never"
)

// Formats lists the accepted values of format.
var Formats = []string{FormatText, FormatJSON, FormatYAML}

// ColorModes lists the accepted values of color.
var ColorModes = []string{ColorAuto, ColorAlways, ColorNever}

// Sentinel errors for configuration validation.
var (
	// ErrInvalidWorkers indicates the workers value is negative.
	ErrInvalidWorkers = errors.New("workers must be non-negative")
	// ErrInvalidFormat indicates an unknown output format.
	ErrInvalidFormat = errors.New("format must be one of text, json, yaml")
	// ErrInvalidColor indicates an unknown color mode.
	ErrInvalidColor = errors.New("color must be one of auto, always, never")
	// ErrInvalidSampleRatio indicates a sampling ratio outside [0, 1].
	ErrInvalidSampleRatio = errors.New("telemetry.sample_ratio must be between 0 and 1")
	// ErrInvalidLogLevel indicates an unparsable log level.
	ErrInvalidLogLevel = errors.New("log.level must be one of debug, info, warn, error")
)

// Validate checks Config invariants and returns the first error found.
func (c *Config) Validate() error {
	if c.Workers < 0 {
		return ErrInvalidWorkers
	}

	if c.Format != "" && !slices.Contains(Formats, c.Format) {
		return fmt.Errorf("%w: got %q", ErrInvalidFormat, c.Format)
	}

	if c.Color != "" && !slices.Contains(ColorModes, c.Color) {
		return fmt.Errorf("%w: got %q", ErrInvalidColor, c.Color)
	}

	if c.Telemetry.SampleRatio < 0 || c.Telemetry.SampleRatio > 1 {
		return ErrInvalidSampleRatio
	}

	if c.Log.Level != "" {
		if _, err := observability.ParseLevel(c.Log.Level); err != nil {
			return fmt.Errorf("%w: got %q", ErrInvalidLogLevel, c.Log.Level)
		}
	}

	if _, err := c.DisabledRules(); err != nil {
		return err
	}

	return nil
}

// RuleConfig returns the allowed-direct-imports value as one string.
func (c *Config) RuleConfig() string {
	return strings.Join(c.AllowedDirectImports, ",")
}

// DisabledRules resolves Disable into rule ids.
func (c *Config) DisabledRules() ([]checker.RuleID, error) {
	ids := make([]checker.RuleID, 0, len(c.Disable))

	for _, name := range c.Disable {
		id, err := checker.ParseRuleID(name)
		if err != nil {
			return nil, fmt.Errorf("disable: %w", err)
		}

		ids = append(ids, id)
	}

	return ids, nil
}

// Observability builds the observability settings for mode.
func (c *Config) Observability(mode observability.AppMode, version string) observability.Config {
	cfg := observability.DefaultConfig()
	cfg.Mode = mode
	cfg.ServiceVersion = version
	cfg.LogJSON = c.Log.JSON
	cfg.OTLPEndpoint = c.Telemetry.OTLPEndpoint
	cfg.OTLPInsecure = c.Telemetry.OTLPInsecure
	cfg.OTLPHeaders = observability.ParseOTLPHeaders(c.Telemetry.OTLPHeaders)
	cfg.SampleRatio = c.Telemetry.SampleRatio

	if level, err := observability.ParseLevel(c.Log.Level); err == nil {
		cfg.LogLevel = level
	}

	return cfg
}

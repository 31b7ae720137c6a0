package config_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Sumatoshi-tech/importonly/internal/config"
	"github.com/Sumatoshi-tech/importonly/pkg/checker"
	"github.com/Sumatoshi-tech/importonly/pkg/observability"
)

func validConfig() config.Config {
	return config.Config{
		AllowedDirectImports: []string{"pkg.Thing", "typing.{Any,Optional}"},
		SearchPaths:          []string{"src"},
		Workers:              4,
		Format:               config.FormatJSON,
		Color:                config.ColorNever,
		Disable:              []string{"W5522"},
		Log:                  config.LogConfig{Level: "debug"},
	}
}

func TestValidate_ValidConfig_NoError(t *testing.T) {
	t.Parallel()

	cfg := validConfig()
	require.NoError(t, cfg.Validate())
}

func TestValidate_ZeroConfig_NoError(t *testing.T) {
	t.Parallel()

	cfg := config.Config{}
	require.NoError(t, cfg.Validate())
}

func TestValidate_Errors(t *testing.T) {
	t.Parallel()

	cases := map[string]struct {
		mutate func(*config.Config)
		want   error
	}{
		"workers":      {func(c *config.Config) { c.Workers = -1 }, config.ErrInvalidWorkers},
		"format":       {func(c *config.Config) { c.Format = "xml" }, config.ErrInvalidFormat},
		"color":        {func(c *config.Config) { c.Color = "sometimes" }, config.ErrInvalidColor},
		"sample ratio": {func(c *config.Config) { c.Telemetry.SampleRatio = 1.5 }, config.ErrInvalidSampleRatio},
		"log level":    {func(c *config.Config) { c.Log.Level = "loud" }, config.ErrInvalidLogLevel},
		"rule id":      {func(c *config.Config) { c.Disable = []string{"unused-import"} }, checker.ErrUnknownRule},
	}

	for name, tc := range cases {
		t.Run(name, func(t *testing.T) {
			t.Parallel()

			cfg := validConfig()
			tc.mutate(&cfg)

			assert.ErrorIs(t, cfg.Validate(), tc.want)
		})
	}
}

func TestRuleConfig_JoinsEntries(t *testing.T) {
	t.Parallel()

	cfg := validConfig()
	assert.Equal(t, "pkg.Thing,typing.{Any,Optional}", cfg.RuleConfig())
}

func TestDisabledRules(t *testing.T) {
	t.Parallel()

	cfg := config.Config{Disable: []string{"import-only-modules", "w5522"}}

	ids, err := cfg.DisabledRules()
	require.NoError(t, err)
	assert.Equal(t, []checker.RuleID{checker.ImportOnlyModules, checker.ImportDirectAttributes}, ids)
}

func TestObservability(t *testing.T) {
	t.Parallel()

	cfg := validConfig()
	cfg.Log.JSON = true
	cfg.Telemetry = config.TelemetryConfig{
		OTLPEndpoint: "localhost:4317",
		OTLPInsecure: true,
		OTLPHeaders:  "x-team=lint",
		SampleRatio:  0.25,
	}

	obs := cfg.Observability(observability.ModeLSP, "1.0.0")

	assert.Equal(t, observability.ModeLSP, obs.Mode)
	assert.Equal(t, "1.0.0", obs.ServiceVersion)
	assert.Equal(t, "importonly", obs.ServiceName)
	assert.True(t, obs.LogJSON)
	assert.Equal(t, "localhost:4317", obs.OTLPEndpoint)
	assert.True(t, obs.OTLPInsecure)
	assert.Equal(t, map[string]string{"x-team": "lint"}, obs.OTLPHeaders)
	assert.InDelta(t, 0.25, obs.SampleRatio, 1e-9)
	assert.Equal(t, "DEBUG", obs.LogLevel.String())
}

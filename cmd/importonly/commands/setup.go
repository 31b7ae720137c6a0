package commands

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/Sumatoshi-tech/importonly/internal/config"
	"github.com/Sumatoshi-tech/importonly/pkg/observability"
	"github.com/Sumatoshi-tech/importonly/pkg/version"
)

const (
	levelDebug = "debug"
	levelError = "error"
)

// loadConfig reads the configuration and applies command-line overrides,
// including the global verbosity flags.
func (g *globalOptions) loadConfig(o config.Overrides) (*config.Config, error) {
	cfg, err := config.Load(g.configPath)
	if err != nil {
		return nil, err
	}

	switch {
	case g.verbose:
		o.LogLevel = levelDebug
	case g.quiet:
		o.LogLevel = levelError
	}

	o.LogJSON = o.LogJSON || g.logJSON

	if err := cfg.Apply(o); err != nil {
		return nil, fmt.Errorf("apply flags: %w", err)
	}

	return cfg, nil
}

// startObservability initializes telemetry and installs the logger as the
// slog default. The returned stop function flushes telemetry.
func startObservability(cfg *config.Config, mode observability.AppMode) (observability.Providers, func(), error) {
	providers, err := observability.Init(cfg.Observability(mode, version.Version))
	if err != nil {
		return observability.Providers{}, nil, fmt.Errorf("init observability: %w", err)
	}

	slog.SetDefault(providers.Logger)

	if cfg.Source != "" {
		providers.Logger.Debug("config loaded", "source", cfg.Source)
	}

	stop := func() {
		if shutdownErr := providers.Shutdown(context.Background()); shutdownErr != nil {
			providers.Logger.Warn("observability shutdown failed", "error", shutdownErr)
		}
	}

	return providers, stop, nil
}

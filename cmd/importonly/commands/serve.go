package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/Sumatoshi-tech/importonly/internal/config"
	"github.com/Sumatoshi-tech/importonly/pkg/lsp"
	"github.com/Sumatoshi-tech/importonly/pkg/mcp"
	"github.com/Sumatoshi-tech/importonly/pkg/observability"
	"github.com/Sumatoshi-tech/importonly/pkg/rules"
	"github.com/Sumatoshi-tech/importonly/pkg/version"
)

func newLSPCommand(g *globalOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "lsp",
		Short: "Start the language server (stdio)",
		Long: `Start a Language Server Protocol server on stdio. Open Python documents are
checked on open, change and save, and diagnostics are published to the client.
The workspace root announced by the client is searched before the configured
search paths.`,
		Args: cobra.NoArgs,
		RunE: func(_ *cobra.Command, _ []string) error {
			cfg, err := g.loadConfig(config.Overrides{})
			if err != nil {
				return err
			}

			rs, err := rules.Parse(cfg.RuleConfig())
			if err != nil {
				return fmt.Errorf("allowed_direct_imports: %w", err)
			}

			disabled, err := cfg.DisabledRules()
			if err != nil {
				return err
			}

			providers, stop, err := startObservability(cfg, observability.ModeLSP)
			if err != nil {
				return err
			}
			defer stop()

			red, err := observability.NewREDMetrics(providers.Meter)
			if err != nil {
				return err
			}

			srv, err := lsp.NewServer(lsp.ServerDeps{
				RuleSet:     rs,
				SearchPaths: cfg.SearchPaths,
				Disabled:    disabled,
				Version:     version.Version,
				Logger:      providers.Logger,
				Metrics:     red,
				Tracer:      providers.Tracer,
			})
			if err != nil {
				return err
			}

			return srv.Run()
		},
	}
}

func newMCPCommand(g *globalOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "mcp",
		Short: "Start MCP server for AI agent integration",
		Long: `Start a Model Context Protocol (MCP) server on stdio transport.

The server exposes one tool:
  - importonly_check: check inline Python code against the import rules

Calls without allowed_direct_imports use the configured rules, and calls
without a root or module list resolve imports against the search paths.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := g.loadConfig(config.Overrides{LogJSON: true})
			if err != nil {
				return err
			}

			rs, err := rules.Parse(cfg.RuleConfig())
			if err != nil {
				return fmt.Errorf("allowed_direct_imports: %w", err)
			}

			providers, stop, err := startObservability(cfg, observability.ModeMCP)
			if err != nil {
				return err
			}
			defer stop()

			red, err := observability.NewREDMetrics(providers.Meter)
			if err != nil {
				return err
			}

			srv := mcp.NewServer(mcp.ServerDeps{
				Logger:      providers.Logger,
				Metrics:     red,
				Tracer:      providers.Tracer,
				Version:     version.Version,
				RuleSet:     rs,
				SearchPaths: cfg.SearchPaths,
			})

			return srv.Run(cmd.Context())
		},
	}
}

func newVersionCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Show version information",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			_, err := fmt.Fprintln(cmd.OutOrStdout(), version.String("importonly"))

			return err
		},
	}
}

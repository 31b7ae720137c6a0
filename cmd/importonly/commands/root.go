// Package commands implements the importonly CLI commands.
package commands

import (
	"errors"
	"fmt"
	"io"

	"github.com/spf13/cobra"
)

// Exit statuses.
const (
	ExitOK         = 0
	ExitViolations = 1
	ExitFailure    = 2
)

var (
	// ErrViolations is returned by check when diagnostics were reported.
	ErrViolations = errors.New("import violations found")
	// ErrUncheckedFiles is returned by check when some files could not be
	// read or parsed and nothing else was reported.
	ErrUncheckedFiles = errors.New("some files could not be checked")
)

// globalOptions holds the persistent root flags.
type globalOptions struct {
	configPath string
	verbose    bool
	quiet      bool
	logJSON    bool
}

// NewRootCommand builds the importonly command tree.
func NewRootCommand() *cobra.Command {
	g := &globalOptions{}

	rootCmd := &cobra.Command{
		Use:   "importonly",
		Short: "Enforce module-only imports in Python code",
		Long: `importonly checks Python sources for two import rules:

  W5521 import-only-modules       from-imports must name modules, not module members
  W5522 import-direct-attributes  members of configured modules must be imported directly

Commands:
  check     Check files and directories
  rules     Show the parsed allowed_direct_imports configuration
  lsp       Serve diagnostics over the Language Server Protocol
  mcp       Serve the checker as a Model Context Protocol tool`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	flags := rootCmd.PersistentFlags()
	flags.StringVar(&g.configPath, "config", "", "config file (default: .importonly.yaml or pyproject.toml [tool.importonly])")
	flags.BoolVarP(&g.verbose, "verbose", "v", false, "verbose output")
	flags.BoolVarP(&g.quiet, "quiet", "q", false, "suppress output")
	flags.BoolVar(&g.logJSON, "log-json", false, "emit logs as JSON")

	rootCmd.AddCommand(newCheckCommand(g))
	rootCmd.AddCommand(newRulesCommand(g))
	rootCmd.AddCommand(newLSPCommand(g))
	rootCmd.AddCommand(newMCPCommand(g))
	rootCmd.AddCommand(newVersionCommand())

	return rootCmd
}

// ExitCode maps the result of the root command to a process exit status,
// printing unexpected errors to w.
func ExitCode(err error, w io.Writer) int {
	switch {
	case err == nil:
		return ExitOK
	case errors.Is(err, ErrViolations):
		return ExitViolations
	default:
		fmt.Fprintf(w, "Error: %v\n", err)

		return ExitFailure
	}
}

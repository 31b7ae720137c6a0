package commands

import (
	"context"
	"errors"
	"fmt"

	"github.com/spf13/cobra"
	"go.opentelemetry.io/otel/metric"

	"github.com/Sumatoshi-tech/importonly/internal/config"
	"github.com/Sumatoshi-tech/importonly/pkg/checker"
	"github.com/Sumatoshi-tech/importonly/pkg/observability"
	"github.com/Sumatoshi-tech/importonly/pkg/report"
	"github.com/Sumatoshi-tech/importonly/pkg/resolve"
	"github.com/Sumatoshi-tech/importonly/pkg/runner"
)

// CheckCommand holds the flags of the check command.
type CheckCommand struct {
	global *globalOptions

	allowedDirectImports string
	searchPaths          []string
	exclude              []string
	disable              []string
	workers              int
	format               string
	color                string
	metricsTextfile      string
}

func newCheckCommand(g *globalOptions) *cobra.Command {
	cc := &CheckCommand{global: g}

	cmd := &cobra.Command{
		Use:   "check [paths...]",
		Short: "Check Python files for import violations",
		Long: `Check Python files and directories for import violations.

Directories are walked recursively; .py and .pyi files are checked, as are
extensionless scripts with a Python shebang. Exit status is 1 when problems
were found and 2 on errors.`,
		RunE: cc.run,
	}

	flags := cmd.Flags()
	flags.StringVar(&cc.allowedDirectImports, "allowed-direct-imports", "",
		"modules whose members must be imported directly (e.g. 'pkg.{a,b},other.*')")
	flags.StringArrayVar(&cc.searchPaths, "search-path", nil, "import search root (repeatable, default: .)")
	flags.StringArrayVar(&cc.exclude, "exclude", nil, "glob of paths to skip, relative to each input (repeatable)")
	flags.StringSliceVar(&cc.disable, "disable", nil, "rule ids or codes to disable (repeatable)")
	flags.IntVar(&cc.workers, "workers", 0, "number of parallel workers (0 = config or CPU count)")
	flags.StringVar(&cc.format, "format", "", "output format: text, json, yaml")
	flags.StringVar(&cc.color, "color", "", "colorize text output: auto, always, never")
	flags.StringVar(&cc.metricsTextfile, "metrics-textfile", "", "write Prometheus metrics of the run to this file")

	return cmd
}

func (cc *CheckCommand) overrides() config.Overrides {
	o := config.Overrides{
		SearchPaths:     cc.searchPaths,
		Exclude:         cc.exclude,
		Disable:         cc.disable,
		Workers:         cc.workers,
		Format:          cc.format,
		Color:           cc.color,
		MetricsTextfile: cc.metricsTextfile,
	}

	if cc.allowedDirectImports != "" {
		o.AllowedDirectImports = []string{cc.allowedDirectImports}
	}

	return o
}

func (cc *CheckCommand) run(cmd *cobra.Command, args []string) error {
	cfg, err := cc.global.loadConfig(cc.overrides())
	if err != nil {
		return err
	}

	providers, stop, err := startObservability(cfg, observability.ModeCLI)
	if err != nil {
		return err
	}
	defer stop()

	disabled, err := cfg.DisabledRules()
	if err != nil {
		return err
	}

	lazy := checker.NewLazy(cfg.RuleConfig(), resolve.NewFS(cfg.SearchPaths...),
		checker.WithDisabled(disabled...),
		checker.WithLogger(providers.Logger),
	)

	c, err := lazy.Checker()
	if err != nil {
		return fmt.Errorf("allowed_direct_imports: %w", err)
	}

	textfile, meter, err := checkMeter(cfg, providers.Meter)
	if err != nil {
		return err
	}

	metrics, err := observability.NewCheckMetrics(meter)
	if err != nil {
		return err
	}

	run, err := runner.New(runner.Options{
		Checker: c,
		Workers: cfg.Workers,
		Exclude: cfg.Exclude,
		Logger:  providers.Logger,
		Tracer:  providers.Tracer,
		Metrics: metrics,
	})
	if err != nil {
		return err
	}

	paths := args
	if len(paths) == 0 {
		paths = []string{"."}
	}

	res, err := run.Run(cmd.Context(), paths)
	if err != nil {
		return err
	}

	if err := cc.render(cmd, cfg, res); err != nil {
		return err
	}

	if textfile != nil {
		if err := writeTextfile(cmd.Context(), textfile, cfg.Telemetry.MetricsTextfile); err != nil {
			return err
		}
	}

	switch {
	case len(res.Diagnostics) > 0:
		return ErrViolations
	case len(res.Errors) > 0:
		return fmt.Errorf("%w: %d", ErrUncheckedFiles, len(res.Errors))
	default:
		return nil
	}
}

func (cc *CheckCommand) render(cmd *cobra.Command, cfg *config.Config, res *runner.Result) error {
	format, err := report.ParseFormat(cfg.Format)
	if err != nil {
		return err
	}

	opts := report.Options{Color: report.ColorMode(cfg.Color)}

	if err := report.Write(cmd.OutOrStdout(), res, format, opts); err != nil {
		return err
	}

	if cc.global.quiet {
		return nil
	}

	return report.WriteSummary(cmd.ErrOrStderr(), res, opts)
}

// checkMeter returns the meter feeding the check metrics. With a metrics
// textfile configured the run gets its own Prometheus-backed meter.
func checkMeter(cfg *config.Config, fallback metric.Meter) (*observability.Textfile, metric.Meter, error) {
	if cfg.Telemetry.MetricsTextfile == "" {
		return nil, fallback, nil
	}

	textfile, err := observability.NewTextfile()
	if err != nil {
		return nil, nil, err
	}

	return textfile, textfile.Meter(), nil
}

func writeTextfile(ctx context.Context, textfile *observability.Textfile, path string) error {
	writeErr := textfile.Write(path)

	return errors.Join(writeErr, textfile.Shutdown(ctx))
}

// Package runner discovers Python files and checks them in parallel.
package runner

import (
	"cmp"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"runtime"
	"slices"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	nooptrace "go.opentelemetry.io/otel/trace/noop"
	"golang.org/x/sync/errgroup"

	"github.com/Sumatoshi-tech/importonly/pkg/checker"
	"github.com/Sumatoshi-tech/importonly/pkg/observability"
	"github.com/Sumatoshi-tech/importonly/pkg/pyparse"
)

const spanCheckFile = "importonly.check_file"

// Sentinel errors.
var (
	// ErrNoInputs indicates that discovery found no Python file.
	ErrNoInputs = errors.New("no python files found")
	// ErrNoChecker indicates Options without a Checker.
	ErrNoChecker = errors.New("runner: checker is required")
)

// Options configures a Runner. Only Checker is required.
type Options struct {
	Checker *checker.Checker
	Parser  *pyparse.Parser
	Workers int
	Exclude []string
	Logger  *slog.Logger
	Tracer  trace.Tracer
	Metrics *observability.CheckMetrics
}

// FileError records a file that could not be read or parsed.
type FileError struct {
	Path string
	Err  error
}

// Error implements error.
func (fe FileError) Error() string {
	return fe.Path + ": " + fe.Err.Error()
}

// Unwrap returns the underlying error.
func (fe FileError) Unwrap() error {
	return fe.Err
}

// Result aggregates a run.
type Result struct {
	Files       int
	Bytes       int64
	Duration    time.Duration
	Diagnostics []checker.Diagnostic
	Errors      []FileError
}

// Runner checks files with a shared Checker and Parser.
type Runner struct {
	checker  *checker.Checker
	parser   *pyparse.Parser
	workers  int
	excludes matcher
	logger   *slog.Logger
	tracer   trace.Tracer
	metrics  *observability.CheckMetrics
}

// New validates opts and fills in defaults.
func New(opts Options) (*Runner, error) {
	if opts.Checker == nil {
		return nil, ErrNoChecker
	}

	excludes, err := compileExcludes(opts.Exclude)
	if err != nil {
		return nil, err
	}

	r := &Runner{
		checker:  opts.Checker,
		parser:   opts.Parser,
		workers:  opts.Workers,
		excludes: excludes,
		logger:   opts.Logger,
		tracer:   opts.Tracer,
		metrics:  opts.Metrics,
	}

	if r.parser == nil {
		r.parser = pyparse.New()
	}

	if r.workers <= 0 {
		r.workers = runtime.NumCPU()
	}

	if r.logger == nil {
		r.logger = slog.Default()
	}

	if r.tracer == nil {
		r.tracer = nooptrace.NewTracerProvider().Tracer("importonly")
	}

	return r, nil
}

// fileOutcome is what one worker produces for one file.
type fileOutcome struct {
	diags []checker.Diagnostic
	size  int
	err   error
}

// Run discovers the Python files under paths and checks each of them.
// Unreadable files end up in Result.Errors; only discovery failures and
// context cancellation fail the run.
func (r *Runner) Run(ctx context.Context, paths []string) (*Result, error) {
	start := time.Now()

	files, err := r.Discover(ctx, paths)
	if err != nil {
		return nil, err
	}

	if len(files) == 0 {
		return nil, ErrNoInputs
	}

	r.logger.DebugContext(ctx, "checking files", "files", len(files), "workers", r.workers)

	outcomes := make([]fileOutcome, len(files))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(r.workers)

	for i, path := range files {
		g.Go(func() error {
			if ctxErr := gctx.Err(); ctxErr != nil {
				return ctxErr
			}

			outcomes[i] = r.checkPath(gctx, path)

			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, fmt.Errorf("check files: %w", err)
	}

	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("check files: %w", err)
	}

	res := &Result{Files: len(files)}

	for i, out := range outcomes {
		res.Bytes += int64(out.size)

		if out.err != nil {
			res.Errors = append(res.Errors, FileError{Path: files[i], Err: out.err})

			continue
		}

		res.Diagnostics = append(res.Diagnostics, out.diags...)
	}

	checker.Sort(res.Diagnostics)
	slices.SortFunc(res.Errors, func(a, b FileError) int { return cmp.Compare(a.Path, b.Path) })

	res.Duration = time.Since(start)

	return res, nil
}

// CheckSource parses and checks an in-memory document and returns its
// diagnostics in report order.
func (r *Runner) CheckSource(ctx context.Context, path string, src []byte) ([]checker.Diagnostic, error) {
	diags, _, err := r.check(ctx, path, src)
	if err != nil {
		return nil, err
	}

	checker.Sort(diags)

	return diags, nil
}

func (r *Runner) check(ctx context.Context, path string, src []byte) ([]checker.Diagnostic, bool, error) {
	file, err := r.parser.Parse(ctx, path, src)
	if err != nil {
		return nil, false, err
	}

	var sink checker.Collector

	r.checker.CheckFile(ctx, file, &sink)

	return sink.Diagnostics(), file.HasErrors, nil
}

func (r *Runner) checkPath(ctx context.Context, path string) fileOutcome {
	ctx, span := r.tracer.Start(ctx, spanCheckFile, trace.WithAttributes(attribute.String("file.path", path)))
	defer span.End()

	start := time.Now()

	out := r.readAndCheck(ctx, path)

	status := observability.StatusOK
	if out.err != nil {
		status = observability.StatusFailed

		span.RecordError(out.err)
		span.SetStatus(codes.Error, out.err.Error())
		r.logger.WarnContext(ctx, "file skipped", "path", path, "error", out.err)
	}

	r.metrics.RecordFile(ctx, status, out.size, time.Since(start))

	for _, d := range out.diags {
		r.metrics.RecordDiagnostic(ctx, string(d.Rule))
	}

	span.SetAttributes(attribute.Int("importonly.diagnostics", len(out.diags)))

	return out
}

func (r *Runner) readAndCheck(ctx context.Context, path string) fileOutcome {
	src, err := os.ReadFile(path)
	if err != nil {
		return fileOutcome{err: fmt.Errorf("read: %w", err)}
	}

	diags, hasErrors, err := r.check(ctx, path, src)
	if err != nil {
		return fileOutcome{size: len(src), err: err}
	}

	if hasErrors {
		r.logger.WarnContext(ctx, "syntax errors, checking recovered tree", "path", path)
	}

	return fileOutcome{diags: diags, size: len(src)}
}

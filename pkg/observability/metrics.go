package observability

import (
	"context"
	"fmt"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

const (
	metricFilesTotal       = "importonly.files.total"
	metricDiagnosticsTotal = "importonly.diagnostics.total"
	metricFileDuration     = "importonly.file.duration.seconds"
	metricBytesTotal       = "importonly.bytes.total"

	metricRequestsTotal    = "importonly.requests.total"
	metricRequestDuration  = "importonly.request.duration.seconds"
	metricErrorsTotal      = "importonly.errors.total"
	metricInflightRequests = "importonly.inflight.requests"

	attrOp     = "op"
	attrStatus = "status"
	attrRule   = "rule"
)

// Request and file statuses.
const (
	StatusOK     = "ok"
	StatusError  = "error"
	StatusFailed = "failed"
)

// fileBucketBoundaries covers a single file check, which is dominated by
// parsing and usually finishes well under a second.
var fileBucketBoundaries = []float64{0.0005, 0.001, 0.0025, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5}

// requestBucketBoundaries covers LSP and MCP requests.
var requestBucketBoundaries = []float64{0.001, 0.005, 0.01, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10}

// CheckMetrics holds the instruments fed by the runner for every file.
type CheckMetrics struct {
	files       metric.Int64Counter
	diagnostics metric.Int64Counter
	duration    metric.Float64Histogram
	bytes       metric.Int64Counter
}

// NewCheckMetrics creates the check instruments from mt.
func NewCheckMetrics(mt metric.Meter) (*CheckMetrics, error) {
	files, err := mt.Int64Counter(metricFilesTotal,
		metric.WithDescription("Python files checked, by outcome"),
		metric.WithUnit("{file}"),
	)
	if err != nil {
		return nil, fmt.Errorf("create %s: %w", metricFilesTotal, err)
	}

	diagnostics, err := mt.Int64Counter(metricDiagnosticsTotal,
		metric.WithDescription("Diagnostics reported, by rule"),
		metric.WithUnit("{diagnostic}"),
	)
	if err != nil {
		return nil, fmt.Errorf("create %s: %w", metricDiagnosticsTotal, err)
	}

	duration, err := mt.Float64Histogram(metricFileDuration,
		metric.WithDescription("Time to read, parse and check one file"),
		metric.WithUnit("s"),
		metric.WithExplicitBucketBoundaries(fileBucketBoundaries...),
	)
	if err != nil {
		return nil, fmt.Errorf("create %s: %w", metricFileDuration, err)
	}

	bytes, err := mt.Int64Counter(metricBytesTotal,
		metric.WithDescription("Source bytes read"),
		metric.WithUnit("By"),
	)
	if err != nil {
		return nil, fmt.Errorf("create %s: %w", metricBytesTotal, err)
	}

	return &CheckMetrics{
		files:       files,
		diagnostics: diagnostics,
		duration:    duration,
		bytes:       bytes,
	}, nil
}

// RecordFile records one processed file. Nil receivers are ignored so callers
// can run without metrics.
func (cm *CheckMetrics) RecordFile(ctx context.Context, status string, size int, duration time.Duration) {
	if cm == nil {
		return
	}

	attrs := metric.WithAttributes(attribute.String(attrStatus, status))

	cm.files.Add(ctx, 1, attrs)
	cm.duration.Record(ctx, duration.Seconds(), attrs)
	cm.bytes.Add(ctx, int64(size))
}

// RecordDiagnostic counts one diagnostic for rule.
func (cm *CheckMetrics) RecordDiagnostic(ctx context.Context, rule string) {
	if cm == nil {
		return
	}

	cm.diagnostics.Add(ctx, 1, metric.WithAttributes(attribute.String(attrRule, rule)))
}

// REDMetrics holds the Rate, Error, Duration instruments for server requests.
type REDMetrics struct {
	requestsTotal    metric.Int64Counter
	requestDuration  metric.Float64Histogram
	errorsTotal      metric.Int64Counter
	inflightRequests metric.Int64UpDownCounter
}

// NewREDMetrics creates RED metric instruments from the given meter.
func NewREDMetrics(mt metric.Meter) (*REDMetrics, error) {
	reqTotal, err := mt.Int64Counter(metricRequestsTotal,
		metric.WithDescription("Total number of requests"),
		metric.WithUnit("{request}"),
	)
	if err != nil {
		return nil, fmt.Errorf("create %s: %w", metricRequestsTotal, err)
	}

	reqDuration, err := mt.Float64Histogram(metricRequestDuration,
		metric.WithDescription("Request duration in seconds"),
		metric.WithUnit("s"),
		metric.WithExplicitBucketBoundaries(requestBucketBoundaries...),
	)
	if err != nil {
		return nil, fmt.Errorf("create %s: %w", metricRequestDuration, err)
	}

	errTotal, err := mt.Int64Counter(metricErrorsTotal,
		metric.WithDescription("Total number of errors"),
		metric.WithUnit("{error}"),
	)
	if err != nil {
		return nil, fmt.Errorf("create %s: %w", metricErrorsTotal, err)
	}

	inflight, err := mt.Int64UpDownCounter(metricInflightRequests,
		metric.WithDescription("Number of in-flight requests"),
		metric.WithUnit("{request}"),
	)
	if err != nil {
		return nil, fmt.Errorf("create %s: %w", metricInflightRequests, err)
	}

	return &REDMetrics{
		requestsTotal:    reqTotal,
		requestDuration:  reqDuration,
		errorsTotal:      errTotal,
		inflightRequests: inflight,
	}, nil
}

// RecordRequest records a completed request with its operation, status, and duration.
func (rm *REDMetrics) RecordRequest(ctx context.Context, op, status string, duration time.Duration) {
	attrs := metric.WithAttributes(
		attribute.String(attrOp, op),
		attribute.String(attrStatus, status),
	)

	rm.requestsTotal.Add(ctx, 1, attrs)
	rm.requestDuration.Record(ctx, duration.Seconds(), attrs)

	if status == StatusError {
		rm.errorsTotal.Add(ctx, 1, metric.WithAttributes(
			attribute.String(attrOp, op),
		))
	}
}

// TrackInflight increments the in-flight gauge and returns a function to decrement it.
func (rm *REDMetrics) TrackInflight(ctx context.Context, op string) func() {
	attrs := metric.WithAttributes(attribute.String(attrOp, op))
	rm.inflightRequests.Add(ctx, 1, attrs)

	return func() {
		rm.inflightRequests.Add(ctx, -1, attrs)
	}
}

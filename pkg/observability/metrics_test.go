package observability_test

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/attribute"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/metric/metricdata"

	"github.com/Sumatoshi-tech/importonly/pkg/observability"
)

func collect(t *testing.T, reader *sdkmetric.ManualReader) map[string]metricdata.Aggregation {
	t.Helper()

	var rm metricdata.ResourceMetrics

	require.NoError(t, reader.Collect(context.Background(), &rm))

	out := make(map[string]metricdata.Aggregation)

	for _, scope := range rm.ScopeMetrics {
		for _, m := range scope.Metrics {
			out[m.Name] = m.Data
		}
	}

	return out
}

func TestCheckMetrics(t *testing.T) {
	t.Parallel()

	reader := sdkmetric.NewManualReader()
	mp := sdkmetric.NewMeterProvider(sdkmetric.WithReader(reader))

	metrics, err := observability.NewCheckMetrics(mp.Meter("test"))
	require.NoError(t, err)

	ctx := context.Background()
	metrics.RecordFile(ctx, observability.StatusOK, 120, 2*time.Millisecond)
	metrics.RecordFile(ctx, observability.StatusOK, 80, time.Millisecond)
	metrics.RecordFile(ctx, observability.StatusFailed, 0, time.Millisecond)
	metrics.RecordDiagnostic(ctx, "import-direct-attributes")

	data := collect(t, reader)

	files, ok := data["importonly.files.total"].(metricdata.Sum[int64])
	require.True(t, ok)
	require.Len(t, files.DataPoints, 2)

	byStatus := make(map[string]int64)

	for _, dp := range files.DataPoints {
		status, _ := dp.Attributes.Value(attribute.Key("status"))
		byStatus[status.AsString()] = dp.Value
	}

	assert.Equal(t, map[string]int64{"ok": 2, "failed": 1}, byStatus)

	bytes, ok := data["importonly.bytes.total"].(metricdata.Sum[int64])
	require.True(t, ok)
	require.Len(t, bytes.DataPoints, 1)
	assert.Equal(t, int64(200), bytes.DataPoints[0].Value)

	diags, ok := data["importonly.diagnostics.total"].(metricdata.Sum[int64])
	require.True(t, ok)
	require.Len(t, diags.DataPoints, 1)
	assert.Equal(t, int64(1), diags.DataPoints[0].Value)

	_, ok = data["importonly.file.duration.seconds"].(metricdata.Histogram[float64])
	assert.True(t, ok)
}

func TestCheckMetrics_NilIsNoop(t *testing.T) {
	t.Parallel()

	var metrics *observability.CheckMetrics

	assert.NotPanics(t, func() {
		metrics.RecordFile(context.Background(), observability.StatusOK, 1, time.Second)
		metrics.RecordDiagnostic(context.Background(), "x")
	})
}

func TestREDMetrics(t *testing.T) {
	t.Parallel()

	reader := sdkmetric.NewManualReader()
	mp := sdkmetric.NewMeterProvider(sdkmetric.WithReader(reader))

	red, err := observability.NewREDMetrics(mp.Meter("test"))
	require.NoError(t, err)

	ctx := context.Background()
	done := red.TrackInflight(ctx, "mcp.importonly_check")
	red.RecordRequest(ctx, "mcp.importonly_check", observability.StatusError, time.Millisecond)
	done()

	data := collect(t, reader)

	errs, ok := data["importonly.errors.total"].(metricdata.Sum[int64])
	require.True(t, ok)
	require.Len(t, errs.DataPoints, 1)
	assert.Equal(t, int64(1), errs.DataPoints[0].Value)

	inflight, ok := data["importonly.inflight.requests"].(metricdata.Sum[int64])
	require.True(t, ok)
	require.Len(t, inflight.DataPoints, 1)
	assert.Equal(t, int64(0), inflight.DataPoints[0].Value)
}

func TestTextfile(t *testing.T) {
	t.Parallel()

	tf, err := observability.NewTextfile()
	require.NoError(t, err)

	metrics, err := observability.NewCheckMetrics(tf.Meter())
	require.NoError(t, err)

	metrics.RecordFile(context.Background(), observability.StatusOK, 10, time.Millisecond)
	metrics.RecordDiagnostic(context.Background(), "import-only-modules")

	path := filepath.Join(t.TempDir(), "importonly.prom")
	require.NoError(t, tf.Write(path))
	require.NoError(t, tf.Shutdown(context.Background()))

	body, err := os.ReadFile(path)
	require.NoError(t, err)

	assert.Contains(t, string(body), "importonly_files")
	assert.Contains(t, string(body), "importonly_diagnostics")
	assert.Contains(t, string(body), `rule="import-only-modules"`)
	assert.Contains(t, string(body), "importonly_file_duration")
}

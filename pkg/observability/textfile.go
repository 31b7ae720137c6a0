package observability

import (
	"context"
	"fmt"

	"github.com/prometheus/client_golang/prometheus"
	promexporter "go.opentelemetry.io/otel/exporters/prometheus"
	"go.opentelemetry.io/otel/metric"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
)

// Textfile collects OTel instruments into a private Prometheus registry and
// dumps them in the exposition format read by node_exporter's textfile
// collector.
type Textfile struct {
	registry *prometheus.Registry
	provider *sdkmetric.MeterProvider
}

// NewTextfile creates a Textfile with its own registry.
func NewTextfile() (*Textfile, error) {
	registry := prometheus.NewRegistry()

	exporter, err := promexporter.New(
		promexporter.WithRegisterer(registry),
	)
	if err != nil {
		return nil, fmt.Errorf("create prometheus exporter: %w", err)
	}

	return &Textfile{
		registry: registry,
		provider: sdkmetric.NewMeterProvider(sdkmetric.WithReader(exporter)),
	}, nil
}

// Meter returns the meter whose instruments end up in the text file.
func (tf *Textfile) Meter() metric.Meter {
	return tf.provider.Meter(meterName)
}

// Write gathers the registry and atomically replaces path.
func (tf *Textfile) Write(path string) error {
	if err := prometheus.WriteToTextfile(path, tf.registry); err != nil {
		return fmt.Errorf("write metrics textfile %s: %w", path, err)
	}

	return nil
}

// Shutdown releases the meter provider.
func (tf *Textfile) Shutdown(ctx context.Context) error {
	if err := tf.provider.Shutdown(ctx); err != nil {
		return fmt.Errorf("shutdown textfile meter provider: %w", err)
	}

	return nil
}

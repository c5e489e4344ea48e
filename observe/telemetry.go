package observe

import (
	"context"
	"fmt"
	"io"
	"os"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/exporters/otlp/otlpmetric/otlpmetricgrpc"
	"go.opentelemetry.io/otel/exporters/prometheus"
	"go.opentelemetry.io/otel/exporters/stdout/stdoutmetric"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/resource"
	semconv "go.opentelemetry.io/otel/semconv/v1.26.0"
)

// Config configures telemetry setup.
type Config struct {
	// ServiceName labels all emitted telemetry. Required.
	ServiceName string

	// Version is the service version attached to the resource.
	Version string

	// MetricsExporter selects where metrics go: stdout, otlp, prometheus or
	// none. Empty means none.
	MetricsExporter string

	// LogLevel is one of debug, info, warn, error.
	// Default: info
	LogLevel string

	// LogOutput receives log lines.
	// Default: os.Stderr
	LogOutput io.Writer
}

// Telemetry bundles the configured logger and metrics with provider
// lifecycle.
type Telemetry struct {
	Logger  Logger
	Metrics *Metrics

	provider *sdkmetric.MeterProvider
}

// New sets up logging and metrics per cfg. Shutdown must be called at
// process end to flush exporters.
func New(ctx context.Context, cfg Config) (*Telemetry, error) {
	if cfg.ServiceName == "" {
		return nil, fmt.Errorf("observe: service name is required")
	}

	tel := &Telemetry{
		Logger: NewLogger(LoggerConfig{Level: cfg.LogLevel, Output: cfg.LogOutput}),
	}

	reader, err := newMetricsReader(ctx, cfg.MetricsExporter)
	if err != nil {
		return nil, err
	}
	if reader == nil {
		return tel, nil
	}

	res, err := resource.New(ctx,
		resource.WithAttributes(
			semconv.ServiceName(cfg.ServiceName),
			semconv.ServiceVersion(cfg.Version),
		),
	)
	if err != nil {
		return nil, fmt.Errorf("observe: failed to create resource: %w", err)
	}

	tel.provider = sdkmetric.NewMeterProvider(
		sdkmetric.WithResource(res),
		sdkmetric.WithReader(reader),
	)
	otel.SetMeterProvider(tel.provider)

	metrics, err := NewMetrics(tel.provider.Meter(cfg.ServiceName))
	if err != nil {
		return nil, fmt.Errorf("observe: failed to create instruments: %w", err)
	}
	tel.Metrics = metrics
	return tel, nil
}

// Shutdown flushes and stops the meter provider. Idempotent.
func (t *Telemetry) Shutdown(ctx context.Context) error {
	if t.provider == nil {
		return nil
	}
	provider := t.provider
	t.provider = nil
	if err := provider.Shutdown(ctx); err != nil {
		return fmt.Errorf("observe: meter shutdown: %w", err)
	}
	return nil
}

// newMetricsReader builds the reader for the chosen exporter. Returns a nil
// reader when metrics are disabled.
func newMetricsReader(ctx context.Context, name string) (sdkmetric.Reader, error) {
	switch name {
	case "stdout":
		exp, err := stdoutmetric.New(stdoutmetric.WithWriter(os.Stdout))
		if err != nil {
			return nil, fmt.Errorf("observe: failed to create stdout exporter: %w", err)
		}
		return sdkmetric.NewPeriodicReader(exp), nil

	case "otlp":
		endpoint := os.Getenv("OTEL_EXPORTER_OTLP_ENDPOINT")
		if endpoint == "" {
			endpoint = os.Getenv("OTEL_EXPORTER_OTLP_METRICS_ENDPOINT")
		}
		if endpoint == "" {
			return nil, fmt.Errorf("observe: OTLP endpoint not configured: set OTEL_EXPORTER_OTLP_ENDPOINT or OTEL_EXPORTER_OTLP_METRICS_ENDPOINT")
		}
		exp, err := otlpmetricgrpc.New(ctx)
		if err != nil {
			return nil, fmt.Errorf("observe: failed to create OTLP exporter: %w", err)
		}
		return sdkmetric.NewPeriodicReader(exp), nil

	case "prometheus":
		exp, err := prometheus.New()
		if err != nil {
			return nil, fmt.Errorf("observe: failed to create Prometheus exporter: %w", err)
		}
		return exp, nil

	case "none", "":
		return nil, nil

	default:
		return nil, fmt.Errorf("observe: unknown metrics exporter: %q", name)
	}
}

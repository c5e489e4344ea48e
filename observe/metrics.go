package observe

import (
	"context"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

// Metrics records client-side telemetry. A nil *Metrics is valid and records
// nothing, so callers never need to guard call sites.
type Metrics struct {
	calls        metric.Int64Counter
	callErrors   metric.Int64Counter
	reauths      metric.Int64Counter
	placeholders metric.Int64Counter
	duration     metric.Float64Histogram
}

// NewMetrics creates the chatbridge instruments on the given meter.
func NewMetrics(meter metric.Meter) (*Metrics, error) {
	calls, err := meter.Int64Counter(
		"chatbridge.remote.calls",
		metric.WithDescription("Total remote API calls issued"),
		metric.WithUnit("{call}"),
	)
	if err != nil {
		return nil, err
	}

	callErrors, err := meter.Int64Counter(
		"chatbridge.remote.errors",
		metric.WithDescription("Remote API calls that failed after retry handling"),
		metric.WithUnit("{error}"),
	)
	if err != nil {
		return nil, err
	}

	reauths, err := meter.Int64Counter(
		"chatbridge.session.reauths",
		metric.WithDescription("Re-authentication attempts triggered by auth failures"),
		metric.WithUnit("{attempt}"),
	)
	if err != nil {
		return nil, err
	}

	placeholders, err := meter.Int64Counter(
		"chatbridge.resolve.placeholders",
		metric.WithDescription("Batch resolutions that degraded to a placeholder entity"),
		metric.WithUnit("{entity}"),
	)
	if err != nil {
		return nil, err
	}

	duration, err := meter.Float64Histogram(
		"chatbridge.op.duration_ms",
		metric.WithDescription("Caller-facing operation duration in milliseconds"),
		metric.WithUnit("ms"),
	)
	if err != nil {
		return nil, err
	}

	return &Metrics{
		calls:        calls,
		callErrors:   callErrors,
		reauths:      reauths,
		placeholders: placeholders,
		duration:     duration,
	}, nil
}

// RecordOperation records one caller-facing operation.
func (m *Metrics) RecordOperation(ctx context.Context, op string, d time.Duration, err error) {
	if m == nil {
		return
	}
	opt := metric.WithAttributes(attribute.String("op", op))
	m.calls.Add(ctx, 1, opt)
	if err != nil {
		m.callErrors.Add(ctx, 1, opt)
	}
	m.duration.Record(ctx, float64(d.Milliseconds()), opt)
}

// RecordReauth records one re-authentication attempt.
func (m *Metrics) RecordReauth(ctx context.Context, succeeded bool) {
	if m == nil {
		return
	}
	m.reauths.Add(ctx, 1, metric.WithAttributes(attribute.Bool("succeeded", succeeded)))
}

// RecordPlaceholder records a batch resolution degrading to a placeholder.
func (m *Metrics) RecordPlaceholder(ctx context.Context, kind string) {
	if m == nil {
		return
	}
	m.placeholders.Add(ctx, 1, metric.WithAttributes(attribute.String("kind", kind)))
}

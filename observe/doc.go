// Package observe provides the telemetry primitives for the chatbridge
// client: structured logging behind a small Logger interface backed by zap,
// and OpenTelemetry metrics for remote calls, cache traffic and
// re-authentications.
//
// It is pure instrumentation: no transport, no business logic. Library users
// who want silence get the defaults (nop logger, nil metrics).
package observe

// Package tracing wraps OpenTelemetry so approval operations can be traced
// without importing the upstream packages directly.
package tracing

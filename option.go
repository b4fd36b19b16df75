package signoff

import (
	"fmt"

	"github.com/viant/signoff/internal/clock"
	"github.com/viant/signoff/service/audit"
	"github.com/viant/signoff/service/dao/request"
	"github.com/viant/signoff/service/identity"
	"github.com/viant/signoff/tracing"
	"go.uber.org/zap"

	sdktrace "go.opentelemetry.io/otel/sdk/trace"
)

// Option configures the Service.
type Option func(s *Service)

// WithConfig sets the configuration; DefaultConfig is used otherwise.
func WithConfig(config *Config) Option {
	return func(s *Service) {
		s.config = config
	}
}

// WithLogger overrides the logger built from the logging config.
func WithLogger(logger *zap.Logger) Option {
	return func(s *Service) {
		s.logger = logger
	}
}

// WithClock sets the clock driving timestamps and escalation timers.
func WithClock(c clock.Clock) Option {
	return func(s *Service) {
		s.clock = c
	}
}

// WithStore overrides the configured request store.
func WithStore(store request.Service) Option {
	return func(s *Service) {
		s.store = store
	}
}

// WithIdentityProvider overrides the configured identity directory.
func WithIdentityProvider(provider identity.Provider) Option {
	return func(s *Service) {
		s.identity = provider
	}
}

// WithAuditSinks adds audit sinks next to the built-in ones.
func WithAuditSinks(sinks ...audit.Sink) Option {
	return func(s *Service) {
		s.auditSinks = append(s.auditSinks, sinks...)
	}
}

// WithTracingExporter configures OpenTelemetry with a custom exporter, e.g.
// OTLP, instead of the stdout exporter of the tracing config. The first
// successful initialisation in a process wins.
func WithTracingExporter(serviceName, serviceVersion string, exporter sdktrace.SpanExporter) Option {
	return func(s *Service) {
		s.tracing = &tracingExporter{serviceName: serviceName, serviceVersion: serviceVersion, exporter: exporter}
	}
}

type tracingExporter struct {
	serviceName    string
	serviceVersion string
	exporter       sdktrace.SpanExporter
}

func (t *tracingExporter) init() error {
	if t.exporter == nil {
		return fmt.Errorf("tracing exporter is nil")
	}
	return tracing.InitWithExporter(t.serviceName, t.serviceVersion, t.exporter)
}

package approval

import (
	"github.com/viant/signoff/internal/clock"
	"github.com/viant/signoff/service/audit"
	"github.com/viant/signoff/service/dao/request"
	"github.com/viant/signoff/service/event"
	"github.com/viant/signoff/service/identity"
	"go.uber.org/zap"
)

// Option configures the Service.
type Option func(s *Service)

// WithStore sets the request snapshot store.
func WithStore(store request.Service) Option {
	return func(s *Service) {
		s.store = store
	}
}

// WithClock sets the clock used for timestamps and timers.
func WithClock(c clock.Clock) Option {
	return func(s *Service) {
		s.clock = c
	}
}

// WithLogger sets the logger.
func WithLogger(logger *zap.Logger) Option {
	return func(s *Service) {
		s.logger = logger
	}
}

// WithIdentityProvider sets the provider used for delegation eligibility and
// privilege checks.
func WithIdentityProvider(provider identity.Provider) Option {
	return func(s *Service) {
		s.identity = provider
	}
}

// WithAuditSink sets the external audit log.
func WithAuditSink(sink audit.Sink) Option {
	return func(s *Service) {
		s.audit = sink
	}
}

// WithEventSink sets where lifecycle events are published.
func WithEventSink(sink event.Sink) Option {
	return func(s *Service) {
		s.events = sink
	}
}

// WithConfig sets the workflow configuration.
func WithConfig(config *Config) Option {
	return func(s *Service) {
		s.config = config
	}
}

// WithIDGenerator sets the generator for request and audit event ids.
func WithIDGenerator(fn func() string) Option {
	return func(s *Service) {
		s.newID = fn
	}
}

package event

import (
	"time"

	"github.com/viant/signoff/service/messaging/fs"
	"github.com/viant/signoff/service/messaging/memory"
	"go.uber.org/zap"
)

type Option func(s *Service)

// WithMemoryConfig sets the memory queue configuration
func WithMemoryConfig(config memory.Config) Option {
	return func(s *Service) {
		s.memoryConfig = config
	}
}

// WithFsConfig sets the file system queue configuration
func WithFsConfig(config fs.QueueConfig) Option {
	return func(s *Service) {
		s.fsConfig = config
	}
}

// WithPollInterval sets how often an empty non-blocking queue is polled.
func WithPollInterval(interval time.Duration) Option {
	return func(s *Service) {
		s.pollInterval = interval
	}
}

// WithLogger sets the logger used by the dispatch loop.
func WithLogger(logger *zap.Logger) Option {
	return func(s *Service) {
		s.logger = logger
	}
}

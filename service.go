package signoff

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/redis/go-redis/v9"
	"github.com/viant/afs"
	"github.com/viant/signoff/internal/clock"
	"github.com/viant/signoff/model"
	"github.com/viant/signoff/service/approval"
	"github.com/viant/signoff/service/audit"
	"github.com/viant/signoff/service/dao/request"
	rdiskv "github.com/viant/signoff/service/dao/request/diskv"
	rfs "github.com/viant/signoff/service/dao/request/fs"
	rmemory "github.com/viant/signoff/service/dao/request/memory"
	rredis "github.com/viant/signoff/service/dao/request/redis"
	rsqlite "github.com/viant/signoff/service/dao/request/sqlite"
	"github.com/viant/signoff/service/event"
	"github.com/viant/signoff/service/identity"
	"github.com/viant/signoff/service/messaging/fs"
	"github.com/viant/signoff/service/messaging/memory"
	"github.com/viant/signoff/service/metrics"
	"github.com/viant/signoff/tracing"
	"go.uber.org/zap"

	_ "modernc.org/sqlite"
)

// Service is the facade wiring the approval engine with its collaborators.
type Service struct {
	config     *Config
	logger     *zap.Logger
	clock      clock.Clock
	store      request.Service
	identity   identity.Provider
	auditSinks []audit.Sink
	auditLog   *audit.Memory
	events     *event.Service
	approvals  *approval.Service
	collector  *metrics.Collector
	tracing    *tracingExporter
	closers    []func() error
}

// New creates a Service from options.
func New(options ...Option) (*Service, error) {
	return NewWithContext(context.Background(), options...)
}

// NewWithContext creates a Service; ctx is used for backend initialisation.
func NewWithContext(ctx context.Context, options ...Option) (*Service, error) {
	s := &Service{}
	for _, option := range options {
		option(s)
	}
	if s.config == nil {
		s.config = DefaultConfig()
	}
	if err := s.config.Validate(); err != nil {
		return nil, err
	}
	if err := s.init(ctx); err != nil {
		_ = s.Close()
		return nil, err
	}
	return s, nil
}

func (s *Service) init(ctx context.Context) (err error) {
	if s.logger == nil {
		if s.logger, err = s.config.Logging.NewLogger(); err != nil {
			return fmt.Errorf("failed to create logger: %w", err)
		}
	}
	if s.clock == nil {
		s.clock = clock.New()
	}
	if s.tracing != nil {
		if err = s.tracing.init(); err != nil {
			return fmt.Errorf("failed to init tracing: %w", err)
		}
	} else if cfg := s.config.Tracing; cfg.Enabled {
		if err = tracing.Init(cfg.ServiceName, cfg.ServiceVersion, cfg.OutputFile); err != nil {
			return fmt.Errorf("failed to init tracing: %w", err)
		}
	}
	if s.store == nil {
		if s.store, err = s.newStore(ctx); err != nil {
			return err
		}
	}
	if s.identity == nil {
		if s.identity, err = s.newIdentity(ctx); err != nil {
			return err
		}
	}
	if s.events, err = s.newEvents(ctx); err != nil {
		return err
	}
	s.auditLog = audit.NewMemory()
	sinks := audit.Multi{s.auditLog}
	if s.config.Logging.Audit {
		sinks = append(sinks, audit.NewLoggerSink(s.logger))
	}
	sinks = append(sinks, s.auditSinks...)

	s.approvals, err = approval.New(
		approval.WithConfig(s.config.Workflow),
		approval.WithStore(s.store),
		approval.WithClock(s.clock),
		approval.WithLogger(s.logger.Named("approval")),
		approval.WithIdentityProvider(s.identity),
		approval.WithAuditSink(sinks),
		approval.WithEventSink(s.events.Publisher()),
	)
	if err != nil {
		return err
	}
	s.closers = append(s.closers, func() error { s.approvals.Close(); return nil })
	s.collector = metrics.NewCollector(s.approvals, s.logger)
	return s.approvals.Resume(ctx)
}

func (s *Service) newStore(ctx context.Context) (request.Service, error) {
	cfg := s.config.Store
	switch cfg.Backend {
	case StoreFs:
		store, err := rfs.New(ctx, cfg.URL, afs.New())
		if err != nil {
			return nil, err
		}
		return store, nil
	case StoreDiskv:
		return rdiskv.New(cfg.URL), nil
	case StoreSQLite:
		db, err := sql.Open("sqlite", cfg.URL)
		if err != nil {
			return nil, fmt.Errorf("failed to open sqlite %s: %w", cfg.URL, err)
		}
		db.SetMaxOpenConns(1)
		s.closers = append(s.closers, db.Close)
		store, err := rsqlite.New(ctx, db)
		if err != nil {
			return nil, err
		}
		return store, nil
	case StoreRedis:
		client := redis.NewClient(&redis.Options{Addr: cfg.Address, Password: cfg.Password, DB: cfg.DB})
		s.closers = append(s.closers, client.Close)
		if err := client.Ping(ctx).Err(); err != nil {
			return nil, fmt.Errorf("failed to connect to redis %s: %w", cfg.Address, err)
		}
		return rredis.New(client, cfg.Prefix), nil
	}
	return rmemory.New(), nil
}

func (s *Service) newIdentity(ctx context.Context) (identity.Provider, error) {
	if s.config.Identity.URL == "" {
		return identity.Permissive{}, nil
	}
	directory, err := identity.Load(ctx, afs.New(), s.config.Identity.URL)
	if err != nil {
		return nil, err
	}
	return directory, nil
}

func (s *Service) newEvents(ctx context.Context) (*event.Service, error) {
	cfg := s.config.Events
	memoryConfig := memory.DefaultConfig()
	fsConfig := fs.DefaultConfig()
	if cfg.MaxRetries > 0 {
		memoryConfig.MaxRetries = cfg.MaxRetries
		fsConfig.MaxRetries = cfg.MaxRetries
	}
	if cfg.URL != "" {
		fsConfig.BaseURL = cfg.URL
	}
	srv, err := event.New(ctx, cfg.Queue,
		event.WithMemoryConfig(memoryConfig),
		event.WithFsConfig(fsConfig),
		event.WithLogger(s.logger.Named("events")),
	)
	if err != nil {
		return nil, err
	}
	s.closers = append(s.closers, func() error { srv.Stop(); return nil })
	return srv, nil
}

// Approvals returns the approval engine.
func (s *Service) Approvals() *approval.Service {
	return s.approvals
}

// Events returns the event service; subscribe and Start it to receive
// lifecycle events and notification intents.
func (s *Service) Events() *event.Service {
	return s.events
}

// Metrics returns the current statistics snapshot.
func (s *Service) Metrics(ctx context.Context) (*metrics.Snapshot, error) {
	return s.approvals.GetMetrics(ctx)
}

// Collector returns a Prometheus collector over the stored requests.
func (s *Service) Collector() *metrics.Collector {
	return s.collector
}

// AuditTrail returns what the audit sink received for a request.
func (s *Service) AuditTrail(requestID string) []model.AuditEvent {
	return s.auditLog.Trail(requestID)
}

// Config returns the effective configuration.
func (s *Service) Config() *Config {
	return s.config
}

// Close stops timers and event delivery and releases backend connections,
// in reverse order of acquisition.
func (s *Service) Close() error {
	var firstErr error
	for i := len(s.closers) - 1; i >= 0; i-- {
		if err := s.closers[i](); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	s.closers = nil
	if s.logger != nil {
		_ = s.logger.Sync()
	}
	return firstErr
}

// Start begins delivering queued events to subscribers.
func (s *Service) Start(ctx context.Context) {
	s.events.Start(ctx)
}

package signoff

import (
	"context"
	"fmt"

	"github.com/viant/afs"
	"github.com/viant/signoff/service/approval"
	"github.com/viant/signoff/service/messaging"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"gopkg.in/yaml.v3"
)

// Store backends.
const (
	StoreMemory = "memory"
	StoreFs     = "fs"
	StoreDiskv  = "diskv"
	StoreSQLite = "sqlite"
	StoreRedis  = "redis"
)

// Config is a serialisable representation of the service configuration. It
// can be loaded from YAML or JSON with LoadConfig.
type Config struct {
	Workflow *approval.Config `json:"workflow" yaml:"workflow"`
	Store    StoreConfig      `json:"store" yaml:"store"`
	Events   EventsConfig     `json:"events" yaml:"events"`
	Identity IdentityConfig   `json:"identity" yaml:"identity"`
	Tracing  TracingConfig    `json:"tracing" yaml:"tracing"`
	Logging  LoggingConfig    `json:"logging" yaml:"logging"`
}

// StoreConfig selects the request snapshot backend. URL is the fs base URL,
// the diskv directory or the sqlite DSN depending on Backend.
type StoreConfig struct {
	Backend  string `json:"backend" yaml:"backend"`
	URL      string `json:"url,omitempty" yaml:"url,omitempty"`
	Address  string `json:"address,omitempty" yaml:"address,omitempty"`
	Password string `json:"password,omitempty" yaml:"password,omitempty"`
	DB       int    `json:"db,omitempty" yaml:"db,omitempty"`
	Prefix   string `json:"prefix,omitempty" yaml:"prefix,omitempty"`
}

// EventsConfig selects the outbound event queue.
type EventsConfig struct {
	Queue      messaging.Vendor `json:"queue" yaml:"queue"`
	URL        string           `json:"url,omitempty" yaml:"url,omitempty"`
	MaxRetries int              `json:"maxRetries,omitempty" yaml:"maxRetries,omitempty"`
}

// IdentityConfig points at a YAML user directory; empty means every user is
// treated as active with no permissions.
type IdentityConfig struct {
	URL string `json:"url,omitempty" yaml:"url,omitempty"`
}

type TracingConfig struct {
	Enabled        bool   `json:"enabled" yaml:"enabled"`
	ServiceName    string `json:"serviceName,omitempty" yaml:"serviceName,omitempty"`
	ServiceVersion string `json:"serviceVersion,omitempty" yaml:"serviceVersion,omitempty"`
	OutputFile     string `json:"outputFile,omitempty" yaml:"outputFile,omitempty"`
}

type LoggingConfig struct {
	Level       string `json:"level,omitempty" yaml:"level,omitempty"`
	Development bool   `json:"development,omitempty" yaml:"development,omitempty"`
	Audit       bool   `json:"audit,omitempty" yaml:"audit,omitempty"`
}

// DefaultConfig returns an in-memory configuration.
func DefaultConfig() *Config {
	return &Config{
		Workflow: approval.DefaultConfig(),
		Store:    StoreConfig{Backend: StoreMemory},
		Events:   EventsConfig{Queue: messaging.VendorMemory, MaxRetries: 3},
		Tracing:  TracingConfig{ServiceName: "signoff", ServiceVersion: "0.1.0"},
		Logging:  LoggingConfig{Level: "info", Audit: true},
	}
}

// Validate returns an error describing the first invalid setting.
func (c *Config) Validate() error {
	if c == nil {
		return fmt.Errorf("config is nil")
	}
	if c.Workflow == nil {
		return fmt.Errorf("workflow config is required")
	}
	if err := c.Workflow.Validate(); err != nil {
		return err
	}
	switch c.Store.Backend {
	case StoreMemory, "":
	case StoreFs, StoreDiskv, StoreSQLite:
		if c.Store.URL == "" {
			return fmt.Errorf("store.url is required for %s backend", c.Store.Backend)
		}
	case StoreRedis:
		if c.Store.Address == "" {
			return fmt.Errorf("store.address is required for redis backend")
		}
	default:
		return fmt.Errorf("unsupported store backend: %s", c.Store.Backend)
	}
	switch c.Events.Queue {
	case messaging.VendorMemory, "":
	case messaging.VendorFs:
		if c.Events.URL == "" {
			return fmt.Errorf("events.url is required for fs queue")
		}
	default:
		return fmt.Errorf("unsupported event queue: %s", c.Events.Queue)
	}
	if c.Logging.Level != "" {
		if _, err := zapcore.ParseLevel(c.Logging.Level); err != nil {
			return fmt.Errorf("invalid logging.level: %w", err)
		}
	}
	return nil
}

// LoadConfig reads a YAML or JSON configuration from any afs location on top
// of DefaultConfig. ${env.NAME} references are expanded before decoding.
func LoadConfig(ctx context.Context, URL string) (*Config, error) {
	data, err := afs.New().DownloadWithURL(ctx, URL)
	if err != nil {
		return nil, fmt.Errorf("failed to read config %s: %w", URL, err)
	}
	ret := DefaultConfig()
	if err = yaml.Unmarshal([]byte(expandEnv(string(data))), ret); err != nil {
		return nil, fmt.Errorf("failed to decode config %s: %w", URL, err)
	}
	if err = ret.Validate(); err != nil {
		return nil, err
	}
	return ret, nil
}

// NewLogger builds a zap logger from the logging section.
func (c LoggingConfig) NewLogger() (*zap.Logger, error) {
	zapConfig := zap.NewProductionConfig()
	if c.Development {
		zapConfig = zap.NewDevelopmentConfig()
	}
	if c.Level != "" {
		level, err := zapcore.ParseLevel(c.Level)
		if err != nil {
			return nil, err
		}
		zapConfig.Level.SetLevel(level)
	}
	zapConfig.InitialFields = map[string]interface{}{"service": "signoff"}
	return zapConfig.Build()
}

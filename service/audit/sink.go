package audit

import (
	"context"
	"sync"

	"github.com/viant/signoff/model"
	"go.uber.org/zap"
)

// Sink is an append-only audit log. The engine pushes entries and never reads
// them back.
type Sink interface {
	Append(ctx context.Context, requestID string, events ...model.AuditEvent) error
}

// Memory keeps appended entries per request.
type Memory struct {
	mu      sync.RWMutex
	entries map[string][]model.AuditEvent
}

// NewMemory creates an in-memory sink.
func NewMemory() *Memory {
	return &Memory{entries: map[string][]model.AuditEvent{}}
}

// Append stores entries in call order.
func (m *Memory) Append(_ context.Context, requestID string, events ...model.AuditEvent) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.entries[requestID] = append(m.entries[requestID], events...)
	return nil
}

// Trail returns a copy of a request's entries.
func (m *Memory) Trail(requestID string) []model.AuditEvent {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return append([]model.AuditEvent(nil), m.entries[requestID]...)
}

// Logger writes one structured log entry per audit event.
type Logger struct {
	logger *zap.Logger
}

// NewLoggerSink creates a zap backed sink.
func NewLoggerSink(logger *zap.Logger) *Logger {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Logger{logger: logger.Named("audit")}
}

// Append logs entries.
func (l *Logger) Append(_ context.Context, requestID string, events ...model.AuditEvent) error {
	for _, ev := range events {
		fields := []zap.Field{
			zap.String("request_id", requestID),
			zap.String("audit_id", ev.ID),
			zap.String("action", string(ev.Action)),
			zap.String("actor", ev.Actor),
			zap.Time("timestamp", ev.Timestamp),
			zap.String("hash", ev.Hash),
		}
		if ev.StepID != "" {
			fields = append(fields, zap.String("step_id", ev.StepID))
		}
		if len(ev.Details) > 0 {
			fields = append(fields, zap.Any("details", ev.Details))
		}
		l.logger.Info("audit", fields...)
	}
	return nil
}

// Multi fans entries out to every sink, returning the first error.
type Multi []Sink

// Append forwards to each sink.
func (m Multi) Append(ctx context.Context, requestID string, events ...model.AuditEvent) error {
	for _, sink := range m {
		if err := sink.Append(ctx, requestID, events...); err != nil {
			return err
		}
	}
	return nil
}

package event

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/viant/signoff/service/messaging"
	"go.uber.org/zap"
)

// Handler processes one delivered event. A returned error nacks the event so
// the queue redelivers it, up to its retry limit, before dead-lettering it.
type Handler func(ctx context.Context, e *Event) error

// Listener drains a publisher on a single goroutine so handlers observe
// events in publish order.
type Listener struct {
	publisher    *Publisher
	handler      Handler
	pollInterval time.Duration
	logger       *zap.Logger
	cancel       context.CancelFunc
	done         chan struct{}
	mu           sync.Mutex
}

// NewListener creates a listener; call Start to begin delivery.
func NewListener(publisher *Publisher, handler Handler, pollInterval time.Duration, logger *zap.Logger) *Listener {
	if logger == nil {
		logger = zap.NewNop()
	}
	if pollInterval <= 0 {
		pollInterval = 50 * time.Millisecond
	}
	return &Listener{publisher: publisher, handler: handler, pollInterval: pollInterval, logger: logger}
}

// Start begins delivery until ctx is done or Stop is called.
func (l *Listener) Start(ctx context.Context) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.cancel != nil {
		return
	}
	ctx, l.cancel = context.WithCancel(ctx)
	l.done = make(chan struct{})
	go l.run(ctx, l.done)
}

// Stop cancels delivery and waits for the loop to exit.
func (l *Listener) Stop() {
	l.mu.Lock()
	cancel, done := l.cancel, l.done
	l.cancel = nil
	l.mu.Unlock()
	if cancel == nil {
		return
	}
	cancel()
	<-done
}

func (l *Listener) run(ctx context.Context, done chan struct{}) {
	defer close(done)
	for {
		msg, err := l.publisher.Consume(ctx)
		if ctx.Err() != nil {
			if msg != nil {
				_ = msg.Nack(ctx.Err())
			}
			return
		}
		if err != nil && !errors.Is(err, context.Canceled) {
			l.logger.Error("failed to consume event", zap.Error(err))
		}
		if msg == nil {
			select {
			case <-ctx.Done():
				return
			case <-time.After(l.pollInterval):
			}
			continue
		}
		l.deliver(ctx, msg)
	}
}

func (l *Listener) deliver(ctx context.Context, msg messaging.Message[Event]) {
	e := msg.T()
	if err := l.handler(ctx, e); err != nil {
		l.logger.Warn("event handler failed",
			zap.String("event_id", e.ID), zap.String("topic", string(e.Topic)),
			zap.String("request_id", e.RequestID), zap.Error(err))
		if err = msg.Nack(err); err != nil {
			l.logger.Error("failed to nack event", zap.String("event_id", e.ID), zap.Error(err))
		}
		return
	}
	if err := msg.Ack(); err != nil {
		l.logger.Error("failed to ack event", zap.String("event_id", e.ID), zap.Error(err))
	}
}

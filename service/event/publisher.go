package event

import (
	"context"
	"fmt"

	"github.com/viant/signoff/service/messaging"
)

// Sink receives lifecycle events.
type Sink interface {
	Publish(ctx context.Context, events ...*Event) error
}

// Publisher appends events to a queue in call order.
type Publisher struct {
	queue messaging.Queue[Event]
}

// NewPublisher creates a publisher backed by queue.
func NewPublisher(queue messaging.Queue[Event]) *Publisher {
	return &Publisher{queue: queue}
}

// Publish enqueues events, stopping at the first failure.
func (p *Publisher) Publish(ctx context.Context, events ...*Event) error {
	for _, e := range events {
		if err := p.queue.Publish(ctx, e); err != nil {
			return fmt.Errorf("failed to publish %s for %s: %w", e.Topic, e.RequestID, err)
		}
	}
	return nil
}

// Consume returns the next message; the caller acks or nacks it once
// handled. A nil message with nil error means the queue had nothing to
// deliver.
func (p *Publisher) Consume(ctx context.Context) (messaging.Message[Event], error) {
	return p.queue.Consume(ctx)
}

var _ Sink = (*Publisher)(nil)

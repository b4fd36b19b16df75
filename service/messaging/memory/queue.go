package memory

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/viant/signoff/service/messaging"
)

// Config for memory queue implementation
type Config struct {
	MaxRetries int
	RetryDelay time.Duration
	DeadLetter bool
}

// DefaultConfig returns a standard configuration for memory queue
func DefaultConfig() Config {
	return Config{
		MaxRetries: 3,
		RetryDelay: 100 * time.Millisecond,
		DeadLetter: true,
	}
}

// Message is an in-memory queue message.
type Message[T any] struct {
	id         string
	payload    T
	queue      *Queue[T]
	retryCount int
	mu         sync.Mutex
	processed  bool
}

// ID returns the message identifier.
func (m *Message[T]) ID() string { return m.id }

// T returns the message payload
func (m *Message[T]) T() *T {
	return &m.payload
}

// Ack acknowledges the message as processed successfully
func (m *Message[T]) Ack() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.processed {
		return fmt.Errorf("message %s already processed", m.id)
	}
	m.processed = true
	return nil
}

// Nack requeues the message after RetryDelay until MaxRetries is exhausted,
// then moves it to the dead letter list when enabled.
func (m *Message[T]) Nack(err error) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.processed {
		return fmt.Errorf("message %s already processed", m.id)
	}
	m.processed = true
	m.retryCount++

	q := m.queue
	if m.retryCount <= q.config.MaxRetries {
		retry := &Message[T]{id: m.id, payload: m.payload, queue: q, retryCount: m.retryCount}
		time.AfterFunc(q.config.RetryDelay, func() { q.push(retry) })
		return nil
	}
	if q.config.DeadLetter {
		q.mu.Lock()
		q.dlq = append(q.dlq, m)
		q.mu.Unlock()
	}
	return nil
}

// Queue is an unbounded in-memory FIFO implementing messaging.Queue.
// Publish never blocks, so producers holding locks cannot stall on a slow
// consumer.
type Queue[T any] struct {
	mu       sync.Mutex
	messages []*Message[T]
	dlq      []*Message[T]
	notify   chan struct{}
	config   Config
}

// NewQueue creates a new in-memory queue
func NewQueue[T any](config Config) *Queue[T] {
	return &Queue[T]{
		notify: make(chan struct{}, 1),
		config: config,
	}
}

func (q *Queue[T]) push(msg *Message[T]) {
	q.mu.Lock()
	q.messages = append(q.messages, msg)
	q.mu.Unlock()
	select {
	case q.notify <- struct{}{}:
	default:
	}
}

// Publish adds a new item to the queue
func (q *Queue[T]) Publish(ctx context.Context, t *T) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	q.push(&Message[T]{id: uuid.New().String(), payload: *t, queue: q})
	return nil
}

// Consume blocks until a message is available or ctx is done.
func (q *Queue[T]) Consume(ctx context.Context) (messaging.Message[T], error) {
	for {
		if msg := q.pop(); msg != nil {
			return msg, nil
		}
		select {
		case <-q.notify:
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
}

func (q *Queue[T]) pop() *Message[T] {
	q.mu.Lock()
	defer q.mu.Unlock()
	if len(q.messages) == 0 {
		return nil
	}
	msg := q.messages[0]
	q.messages[0] = nil
	q.messages = q.messages[1:]
	if len(q.messages) > 0 {
		select {
		case q.notify <- struct{}{}:
		default:
		}
	}
	return msg
}

// Size returns the current number of messages in the queue
func (q *Queue[T]) Size() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.messages)
}

// DLQSize returns the number of messages in the dead letter queue
func (q *Queue[T]) DLQSize() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.dlq)
}

var _ messaging.Queue[any] = (*Queue[any])(nil)

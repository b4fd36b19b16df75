package event

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/viant/afs"
	"github.com/viant/signoff/service/messaging"
	"github.com/viant/signoff/service/messaging/fs"
	"github.com/viant/signoff/service/messaging/memory"
	"go.uber.org/zap"
)

// Service owns the event queue and fans delivered events out to subscribers.
type Service struct {
	vendor       messaging.Vendor
	queue        messaging.Queue[Event]
	publisher    *Publisher
	listener     *Listener
	subscribers  []Handler
	mux          sync.RWMutex
	memoryConfig memory.Config
	fsConfig     fs.QueueConfig
	pollInterval time.Duration
	logger       *zap.Logger
}

// Publisher returns the sink the engine writes to.
func (s *Service) Publisher() *Publisher {
	return s.publisher
}

// Publish enqueues events.
func (s *Service) Publish(ctx context.Context, events ...*Event) error {
	return s.publisher.Publish(ctx, events...)
}

// Subscribe registers a handler; handlers run on the dispatch goroutine in
// registration order.
func (s *Service) Subscribe(handler Handler) {
	s.mux.Lock()
	defer s.mux.Unlock()
	s.subscribers = append(s.subscribers, handler)
}

// Start begins dispatching to subscribers.
func (s *Service) Start(ctx context.Context) {
	s.listener.Start(ctx)
}

// Stop halts dispatching.
func (s *Service) Stop() {
	s.listener.Stop()
}

// dispatch calls every subscriber and joins their errors. A failed event is
// redelivered to all subscribers, so handlers must tolerate duplicates.
func (s *Service) dispatch(ctx context.Context, e *Event) error {
	s.mux.RLock()
	subscribers := s.subscribers
	s.mux.RUnlock()
	var errs []error
	for _, handler := range subscribers {
		if err := handler(ctx, e); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// DeadLetters returns the number of events that exhausted their retries.
func (s *Service) DeadLetters(ctx context.Context) (int, error) {
	switch queue := s.queue.(type) {
	case *memory.Queue[Event]:
		return queue.DLQSize(), nil
	case *fs.Queue[Event]:
		return queue.DeadLetters(ctx)
	}
	return 0, fmt.Errorf("unsupported queue vendor: %s", s.vendor)
}

// New creates an event service backed by the vendor queue.
func New(ctx context.Context, vendor messaging.Vendor, opts ...Option) (*Service, error) {
	ret := &Service{
		vendor:       vendor,
		memoryConfig: memory.DefaultConfig(),
		fsConfig:     fs.DefaultConfig(),
		logger:       zap.NewNop(),
	}
	for _, opt := range opts {
		opt(ret)
	}
	var queue messaging.Queue[Event]
	switch vendor {
	case messaging.VendorMemory, "":
		queue = memory.NewQueue[Event](ret.memoryConfig)
	case messaging.VendorFs:
		fsQueue, err := fs.NewQueue[Event](ctx, afs.New(), ret.fsConfig)
		if err != nil {
			return nil, err
		}
		queue = fsQueue
	default:
		return nil, fmt.Errorf("unsupported queue vendor: %s", vendor)
	}
	ret.queue = queue
	ret.publisher = NewPublisher(queue)
	ret.listener = NewListener(ret.publisher, ret.dispatch, ret.pollInterval, ret.logger)
	return ret, nil
}

// Recorder is a Sink that keeps published events in memory.
type Recorder struct {
	mu     sync.Mutex
	events []*Event
}

// Publish records events.
func (r *Recorder) Publish(_ context.Context, events ...*Event) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, events...)
	return nil
}

// Events returns a copy of the recorded events.
func (r *Recorder) Events() []*Event {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]*Event(nil), r.events...)
}

// Topics returns recorded topics, optionally only for one request.
func (r *Recorder) Topics(requestID string) []Topic {
	r.mu.Lock()
	defer r.mu.Unlock()
	var ret []Topic
	for _, e := range r.events {
		if requestID == "" || e.RequestID == requestID {
			ret = append(ret, e.Topic)
		}
	}
	return ret
}

// Reset drops recorded events.
func (r *Recorder) Reset() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = nil
}

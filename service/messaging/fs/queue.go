package fs

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/viant/afs"
	"github.com/viant/afs/file"
	"github.com/viant/afs/option"
	"github.com/viant/afs/storage"
	"github.com/viant/afs/url"
	"github.com/viant/signoff/service/messaging"
)

// MessageState represents the state of a message in the filesystem queue
type MessageState string

const (
	MessageStatePending    MessageState = "pending"
	MessageStateProcessing MessageState = "processing"
	MessageStateFailed     MessageState = "failed"
)

const extension = ".json"

// Message is a queue entry persisted as a JSON document.
type Message[T any] struct {
	ID        string       `json:"id"`
	Data      T            `json:"data"`
	State     MessageState `json:"state"`
	Error     string       `json:"error,omitempty"`
	CreatedAt time.Time    `json:"createdAt"`
	UpdatedAt time.Time    `json:"updatedAt"`
	Retries   int          `json:"retries"`

	name      string
	queue     *Queue[T]
	processed bool
	mu        sync.Mutex
}

// T returns the message payload
func (m *Message[T]) T() *T {
	return &m.Data
}

// Ack removes the message from the processing location.
func (m *Message[T]) Ack() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.processed {
		return fmt.Errorf("message %s already processed", m.ID)
	}
	m.processed = true
	return m.queue.ack(context.Background(), m)
}

// Nack returns the message to pending, or moves it to the dead letter
// location once MaxRetries is exceeded.
func (m *Message[T]) Nack(err error) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.processed {
		return fmt.Errorf("message %s already processed", m.ID)
	}
	m.processed = true
	m.State = MessageStateFailed
	if err != nil {
		m.Error = err.Error()
	}
	m.Retries++
	m.UpdatedAt = time.Now()
	return m.queue.nack(context.Background(), m)
}

// QueueConfig holds configuration for filesystem queue
type QueueConfig struct {
	BaseURL    string
	MaxRetries int
}

// DefaultConfig returns a default queue configuration
func DefaultConfig() QueueConfig {
	return QueueConfig{
		BaseURL:    "/tmp/signoff/events",
		MaxRetries: 3,
	}
}

// Queue is a durable afs-backed messaging.Queue. File names are prefixed with
// the publish time so pending messages are consumed in publish order.
type Queue[T any] struct {
	fs            afs.Service
	config        QueueConfig
	pendingDir    string
	processingDir string
	dlqDir        string
	mu            sync.Mutex
	seq           uint64
}

// NewQueue creates a new filesystem-based queue
func NewQueue[T any](ctx context.Context, fs afs.Service, config QueueConfig) (*Queue[T], error) {
	if config.BaseURL == "" {
		return nil, fmt.Errorf("base URL cannot be empty")
	}
	if fs == nil {
		fs = afs.New()
	}
	baseURL := url.Normalize(config.BaseURL, file.Scheme)
	q := &Queue[T]{
		fs:            fs,
		config:        config,
		pendingDir:    url.Join(baseURL, "pending"),
		processingDir: url.Join(baseURL, "processing"),
		dlqDir:        url.Join(baseURL, "dlq"),
	}
	for _, dir := range []string{q.pendingDir, q.processingDir, q.dlqDir} {
		if exists, _ := fs.Exists(ctx, dir); exists {
			continue
		}
		if err := fs.Create(ctx, dir, file.DefaultDirOsMode, true); err != nil {
			return nil, fmt.Errorf("failed to create directory %s: %w", dir, err)
		}
	}
	if err := q.requeueProcessing(ctx); err != nil {
		return nil, err
	}
	return q, nil
}

// requeueProcessing returns messages claimed by a consumer that never acked
// them, e.g. after a crash, to the pending location.
func (q *Queue[T]) requeueProcessing(ctx context.Context) error {
	objects, err := q.list(ctx, q.processingDir)
	if err != nil {
		return err
	}
	for _, obj := range objects {
		if err = q.fs.Move(ctx, obj.URL(), url.Join(q.pendingDir, obj.Name())); err != nil {
			return fmt.Errorf("failed to requeue %s: %w", obj.Name(), err)
		}
	}
	return nil
}

// Publish writes a new message to the pending location.
func (q *Queue[T]) Publish(ctx context.Context, t *T) error {
	now := time.Now()
	q.mu.Lock()
	q.seq++
	seq := q.seq
	q.mu.Unlock()

	message := &Message[T]{
		ID:        uuid.New().String(),
		Data:      *t,
		State:     MessageStatePending,
		CreatedAt: now,
		UpdatedAt: now,
	}
	message.name = fmt.Sprintf("%020d-%06d-%s%s", now.UnixNano(), seq%1000000, message.ID, extension)
	return q.write(ctx, url.Join(q.pendingDir, message.name), message)
}

// Consume claims the oldest pending message. It returns (nil, nil) when the
// queue is empty.
func (q *Queue[T]) Consume(ctx context.Context) (messaging.Message[T], error) {
	q.mu.Lock()
	defer q.mu.Unlock()

	objects, err := q.list(ctx, q.pendingDir)
	if err != nil {
		return nil, err
	}
	if len(objects) == 0 {
		return nil, nil
	}
	obj := objects[0]
	message, err := q.read(ctx, obj)
	if err != nil {
		_ = q.fs.Move(ctx, obj.URL(), url.Join(q.dlqDir, "invalid-"+obj.Name()))
		return nil, err
	}
	message.State = MessageStateProcessing
	message.UpdatedAt = time.Now()
	if err = q.write(ctx, url.Join(q.processingDir, obj.Name()), message); err != nil {
		return nil, err
	}
	if err = q.fs.Delete(ctx, obj.URL()); err != nil {
		return nil, fmt.Errorf("failed to remove pending message %s: %w", obj.Name(), err)
	}
	return message, nil
}

// Pending returns the number of messages waiting to be consumed.
func (q *Queue[T]) Pending(ctx context.Context) (int, error) {
	objects, err := q.list(ctx, q.pendingDir)
	return len(objects), err
}

// DeadLetters returns the number of messages that exhausted their retries.
func (q *Queue[T]) DeadLetters(ctx context.Context) (int, error) {
	objects, err := q.list(ctx, q.dlqDir)
	return len(objects), err
}

func (q *Queue[T]) ack(ctx context.Context, m *Message[T]) error {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.remove(ctx, url.Join(q.processingDir, m.name))
}

func (q *Queue[T]) nack(ctx context.Context, m *Message[T]) error {
	q.mu.Lock()
	defer q.mu.Unlock()
	target := q.pendingDir
	if m.Retries > q.config.MaxRetries {
		target = q.dlqDir
	} else {
		m.State = MessageStatePending
	}
	if err := q.write(ctx, url.Join(target, m.name), m); err != nil {
		return err
	}
	return q.remove(ctx, url.Join(q.processingDir, m.name))
}

func (q *Queue[T]) list(ctx context.Context, dir string) ([]storage.Object, error) {
	objects, err := q.fs.List(ctx, dir, option.NewRecursive(false))
	if err != nil {
		return nil, fmt.Errorf("failed to list %s: %w", dir, err)
	}
	var files []storage.Object
	for _, obj := range objects {
		if !obj.IsDir() && strings.HasSuffix(obj.Name(), extension) {
			files = append(files, obj)
		}
	}
	sort.Slice(files, func(i, j int) bool { return files[i].Name() < files[j].Name() })
	return files, nil
}

func (q *Queue[T]) read(ctx context.Context, obj storage.Object) (*Message[T], error) {
	data, err := q.fs.Download(ctx, obj)
	if err != nil {
		return nil, fmt.Errorf("failed to read message %s: %w", obj.Name(), err)
	}
	message := &Message[T]{}
	if err = json.Unmarshal(data, message); err != nil {
		return nil, fmt.Errorf("failed to decode message %s: %w", obj.Name(), err)
	}
	message.name = obj.Name()
	message.queue = q
	return message, nil
}

func (q *Queue[T]) write(ctx context.Context, location string, m *Message[T]) error {
	data, err := json.Marshal(m)
	if err != nil {
		return fmt.Errorf("failed to marshal message %s: %w", m.ID, err)
	}
	if err = q.fs.Upload(ctx, location, file.DefaultFileOsMode, bytes.NewReader(data)); err != nil {
		return fmt.Errorf("failed to write message %s: %w", m.ID, err)
	}
	return nil
}

func (q *Queue[T]) remove(ctx context.Context, location string) error {
	if exists, _ := q.fs.Exists(ctx, location); !exists {
		return nil
	}
	if err := q.fs.Delete(ctx, location); err != nil {
		return fmt.Errorf("failed to delete %s: %w", location, err)
	}
	return nil
}

var _ messaging.Queue[any] = (*Queue[any])(nil)

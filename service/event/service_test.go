package event

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/viant/signoff/model"
	"github.com/viant/signoff/service/messaging"
	"github.com/viant/signoff/service/messaging/fs"
	"github.com/viant/signoff/service/messaging/memory"
)

func collect(t *testing.T, srv *Service, want int) []*Event {
	t.Helper()
	received := make(chan *Event, want)
	srv.Subscribe(func(_ context.Context, e *Event) error {
		received <- e
		return nil
	})
	srv.Start(context.Background())
	defer srv.Stop()

	var ret []*Event
	timeout := time.After(2 * time.Second)
	for len(ret) < want {
		select {
		case e := <-received:
			ret = append(ret, e)
		case <-timeout:
			t.Fatalf("received %d of %d events", len(ret), want)
		}
	}
	return ret
}

func TestService_DeliversInOrder(t *testing.T) {
	testCases := []struct {
		name   string
		vendor messaging.Vendor
		opts   func(t *testing.T) []Option
	}{
		{name: "memory", vendor: messaging.VendorMemory, opts: func(t *testing.T) []Option { return nil }},
		{name: "fs", vendor: messaging.VendorFs, opts: func(t *testing.T) []Option {
			return []Option{
				WithFsConfig(fs.QueueConfig{BaseURL: t.TempDir(), MaxRetries: 1}),
				WithPollInterval(5 * time.Millisecond),
			}
		}},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			ctx := context.Background()
			srv, err := New(ctx, tc.vendor, tc.opts(t)...)
			require.NoError(t, err)

			topics := []Topic{TopicRequestCreated, TopicStepStarted, TopicAuditEventLogged, TopicRequestApproved}
			for _, topic := range topics {
				require.NoError(t, srv.Publish(ctx, NewEvent(topic, "r1").WithStatus(model.RequestStatusInProgress)))
			}

			events := collect(t, srv, len(topics))
			for i, e := range events {
				assert.Equal(t, topics[i], e.Topic)
				assert.Equal(t, "r1", e.RequestID)
			}
		})
	}
}

func TestService_FailingSubscriberDeadLetters(t *testing.T) {
	testCases := []struct {
		name   string
		vendor messaging.Vendor
		opts   func(t *testing.T) []Option
	}{
		{name: "memory", vendor: messaging.VendorMemory, opts: func(t *testing.T) []Option {
			return []Option{WithMemoryConfig(memory.Config{MaxRetries: 2, RetryDelay: time.Millisecond, DeadLetter: true})}
		}},
		{name: "fs", vendor: messaging.VendorFs, opts: func(t *testing.T) []Option {
			return []Option{
				WithFsConfig(fs.QueueConfig{BaseURL: t.TempDir(), MaxRetries: 2}),
				WithPollInterval(5 * time.Millisecond),
			}
		}},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			ctx := context.Background()
			srv, err := New(ctx, tc.vendor, tc.opts(t)...)
			require.NoError(t, err)

			var attempts, delivered atomic.Int32
			srv.Subscribe(func(_ context.Context, e *Event) error {
				if e.Topic == TopicEscalationNotificationRequired {
					attempts.Add(1)
					return errors.New("mail relay unavailable")
				}
				delivered.Add(1)
				return nil
			})
			require.NoError(t, srv.Publish(ctx,
				NewEvent(TopicEscalationNotificationRequired, "r1").WithRecipients("manager"),
				NewEvent(TopicStepStarted, "r1"),
			))
			srv.Start(ctx)
			defer srv.Stop()

			require.Eventually(t, func() bool {
				dead, err := srv.DeadLetters(ctx)
				return err == nil && dead == 1
			}, 2*time.Second, 5*time.Millisecond)
			assert.EqualValues(t, 3, attempts.Load(), "first delivery plus two retries")
			assert.GreaterOrEqual(t, delivered.Load(), int32(1))
		})
	}
}

func TestNew_UnsupportedVendor(t *testing.T) {
	_, err := New(context.Background(), "kafka")
	assert.Error(t, err)
}

func TestListener_StopIsIdempotent(t *testing.T) {
	srv, err := New(context.Background(), messaging.VendorMemory)
	require.NoError(t, err)
	srv.Start(context.Background())
	srv.Stop()
	srv.Stop()
}

func TestRecorder(t *testing.T) {
	recorder := &Recorder{}
	ctx := context.Background()
	require.NoError(t, recorder.Publish(ctx,
		NewEvent(TopicRequestCreated, "a"),
		NewEvent(TopicEscalationNotificationRequired, "b").WithRecipients("u1", "u2"),
	))
	assert.Equal(t, []Topic{TopicEscalationNotificationRequired}, recorder.Topics("b"))
	assert.Len(t, recorder.Events(), 2)
	assert.Equal(t, []string{"u1", "u2"}, recorder.Events()[1].Recipients)
	recorder.Reset()
	assert.Empty(t, recorder.Events())
}

package approval

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/viant/signoff/internal/clock"
	"github.com/viant/signoff/internal/idgen"
	"github.com/viant/signoff/model"
	"github.com/viant/signoff/policy"
	"github.com/viant/signoff/service/audit"
	"github.com/viant/signoff/service/dao"
	"github.com/viant/signoff/service/dao/request"
	"github.com/viant/signoff/service/dao/request/memory"
	"github.com/viant/signoff/service/event"
	"github.com/viant/signoff/service/identity"
	"github.com/viant/signoff/tracing"
	"go.uber.org/zap"
)

// Service is the approval request orchestrator.
type Service struct {
	store    request.Service
	clock    clock.Clock
	logger   *zap.Logger
	identity identity.Provider
	audit    audit.Sink
	events   event.Sink
	config   *Config
	policy   *policy.Policy
	newID    func() string
	locks    *locker
	timers   *timers
}

// New creates an orchestrator. Unset collaborators default to in-memory or
// no-op implementations.
func New(opts ...Option) (*Service, error) {
	ret := &Service{
		clock:  clock.New(),
		logger: zap.NewNop(),
		newID:  idgen.New,
		locks:  newLocker(),
	}
	for _, opt := range opts {
		opt(ret)
	}
	if ret.config == nil {
		ret.config = DefaultConfig()
	}
	if err := ret.config.Validate(); err != nil {
		return nil, err
	}
	if ret.store == nil {
		ret.store = memory.New()
	}
	if ret.identity == nil {
		ret.identity = identity.Permissive{}
	}
	if ret.audit == nil {
		ret.audit = audit.NewMemory()
	}
	if ret.events == nil {
		ret.events = &event.Recorder{}
	}
	ret.policy = policy.New(ret.config.PrivilegedPermissions...)
	ret.timers = newTimers(ret.clock)
	return ret, nil
}

// Close cancels every armed timer. Stored requests are left untouched.
func (s *Service) Close() {
	s.timers.stopAll()
}

// Resume re-arms timers for active requests found in the store, e.g. after a
// restart against a durable backend. Elapsed deadlines fire immediately.
func (s *Service) Resume(ctx context.Context) (err error) {
	ctx, span := tracing.StartSpan(ctx, "approval.resume")
	defer func() { tracing.EndSpan(span, err) }()

	requests, err := s.store.List(ctx)
	if err != nil {
		return fmt.Errorf("failed to list requests: %w", err)
	}
	now := s.clock.Now()
	for _, r := range requests {
		if !r.Status.IsActive() {
			continue
		}
		unlock := s.locks.Lock(r.ID)
		if r.DueDate != nil {
			s.armDueDate(r.ID, r.DueDate.Sub(now))
		}
		if step := r.CurrentStep(); step != nil && step.Status == model.StepStatusInProgress && s.escalates(step) && step.Rearmable() {
			armedAt := step.ArmedAt
			if armedAt == nil {
				armedAt = step.StartedAt
			}
			remaining := s.stepTimeout(step)
			if armedAt != nil {
				remaining -= now.Sub(*armedAt)
			}
			s.armStep(r.ID, step.ID, remaining)
		}
		unlock()
	}
	return nil
}

func (s *Service) load(ctx context.Context, id string) (*model.Request, error) {
	if id == "" {
		return nil, invalid("requestId", "is required")
	}
	r, err := s.store.Load(ctx, id)
	if err != nil {
		if errors.Is(err, dao.ErrNotFound) {
			return nil, &NotFoundError{Kind: "request", ID: id}
		}
		return nil, fmt.Errorf("failed to load request %s: %w", id, err)
	}
	return r.Clone(), nil
}

// mutate runs fn on a copy of the stored request under the request lock and
// persists the result before applying timer, audit and event effects.
func (s *Service) mutate(ctx context.Context, id string, fn func(tx *transition) error) (*model.Request, error) {
	unlock := s.locks.Lock(id)
	defer unlock()
	r, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	tx := s.newTransition(r)
	if err = fn(tx); err != nil {
		return nil, err
	}
	if err = s.commit(ctx, tx); err != nil {
		return nil, err
	}
	return tx.request.Clone(), nil
}

func (s *Service) commit(ctx context.Context, tx *transition) error {
	if !tx.changed() {
		return nil
	}
	tx.request.UpdatedAt = tx.now
	if err := s.store.Save(ctx, tx.request); err != nil {
		return fmt.Errorf("failed to persist request %s: %w", tx.request.ID, err)
	}
	s.applyTimers(tx)
	if len(tx.audits) > 0 {
		if err := s.audit.Append(ctx, tx.request.ID, tx.audits...); err != nil {
			s.logger.Error("failed to append audit", zap.String("request_id", tx.request.ID), zap.Error(err))
		}
	}
	if len(tx.events) > 0 {
		if err := s.events.Publish(ctx, tx.events...); err != nil {
			s.logger.Error("failed to publish events", zap.String("request_id", tx.request.ID), zap.Error(err))
		}
	}
	return nil
}

// isPrivileged resolves actor permissions from the context actor, falling
// back to the identity provider.
func (s *Service) isPrivileged(ctx context.Context, actor string) bool {
	if current := policy.FromContext(ctx); current != nil && current.ID == actor {
		return s.policy.IsPrivileged(current.Permissions)
	}
	user, err := s.identity.Lookup(ctx, actor)
	if err != nil || user == nil || !user.Active {
		return false
	}
	return s.policy.IsPrivileged(user.Permissions)
}

func (s *Service) stepTimeout(step *model.Step) time.Duration {
	minutes := step.TimeoutMinutes
	if minutes <= 0 {
		minutes = s.config.DefaultTimeoutMinutes
	}
	return time.Duration(minutes) * time.Minute
}

// escalates reports whether a step gets an escalation timer.
func (s *Service) escalates(step *model.Step) bool {
	return s.config.EnableEscalation && step.Escalation != nil
}

func requestFields(r *model.Request, stepID, actor string) []zap.Field {
	fields := []zap.Field{zap.String("request_id", r.ID)}
	if stepID != "" {
		fields = append(fields, zap.String("step_id", stepID))
	}
	if actor != "" {
		fields = append(fields, zap.String("actor", actor))
	}
	return fields
}

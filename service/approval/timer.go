package approval

import (
	"context"
	"sync"
	"time"

	"github.com/viant/signoff/internal/clock"
	"github.com/viant/signoff/model"
	"github.com/viant/signoff/service/event"
	"go.uber.org/zap"
)

// timers tracks the escalation timer of each in-progress step and the
// due-date timer of each request. Every armed timer carries a generation so
// a callback can tell whether it was superseded.
type timers struct {
	clock clock.Clock
	mu    sync.Mutex
	gen   uint64
	steps map[string]map[string]*armed
	due   map[string]*armed
}

type armed struct {
	timer clock.Timer
	gen   uint64
}

func newTimers(c clock.Clock) *timers {
	return &timers{clock: c, steps: map[string]map[string]*armed{}, due: map[string]*armed{}}
}

func (t *timers) armStep(requestID, stepID string, after time.Duration, fire func(gen uint64)) {
	t.mu.Lock()
	defer t.mu.Unlock()
	byStep, ok := t.steps[requestID]
	if !ok {
		byStep = map[string]*armed{}
		t.steps[requestID] = byStep
	}
	if prev, ok := byStep[stepID]; ok {
		prev.timer.Stop()
	}
	t.gen++
	gen := t.gen
	byStep[stepID] = &armed{gen: gen, timer: t.clock.AfterFunc(after, func() { fire(gen) })}
}

func (t *timers) armDue(requestID string, after time.Duration, fire func(gen uint64)) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if prev, ok := t.due[requestID]; ok {
		prev.timer.Stop()
	}
	t.gen++
	gen := t.gen
	t.due[requestID] = &armed{gen: gen, timer: t.clock.AfterFunc(after, func() { fire(gen) })}
}

// claimStep removes the step entry when gen is still current.
func (t *timers) claimStep(requestID, stepID string, gen uint64) bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	entry, ok := t.steps[requestID][stepID]
	if !ok || entry.gen != gen {
		return false
	}
	delete(t.steps[requestID], stepID)
	if len(t.steps[requestID]) == 0 {
		delete(t.steps, requestID)
	}
	return true
}

func (t *timers) claimDue(requestID string, gen uint64) bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	entry, ok := t.due[requestID]
	if !ok || entry.gen != gen {
		return false
	}
	delete(t.due, requestID)
	return true
}

func (t *timers) cancelStep(requestID, stepID string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if entry, ok := t.steps[requestID][stepID]; ok {
		entry.timer.Stop()
		delete(t.steps[requestID], stepID)
		if len(t.steps[requestID]) == 0 {
			delete(t.steps, requestID)
		}
	}
}

func (t *timers) cancelRequest(requestID string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	for _, entry := range t.steps[requestID] {
		entry.timer.Stop()
	}
	delete(t.steps, requestID)
	if entry, ok := t.due[requestID]; ok {
		entry.timer.Stop()
		delete(t.due, requestID)
	}
}

func (t *timers) stopAll() {
	t.mu.Lock()
	ids := make([]string, 0, len(t.steps)+len(t.due))
	for id := range t.steps {
		ids = append(ids, id)
	}
	for id := range t.due {
		ids = append(ids, id)
	}
	t.mu.Unlock()
	for _, id := range ids {
		t.cancelRequest(id)
	}
}

// count returns the number of armed timers for a request.
func (t *timers) count(requestID string) int {
	t.mu.Lock()
	defer t.mu.Unlock()
	ret := len(t.steps[requestID])
	if _, ok := t.due[requestID]; ok {
		ret++
	}
	return ret
}

func (s *Service) applyTimers(tx *transition) {
	id := tx.request.ID
	if tx.cancelAll {
		s.timers.cancelRequest(id)
	}
	for _, stepID := range tx.cancelSteps {
		s.timers.cancelStep(id, stepID)
	}
	for _, arm := range tx.armSteps {
		s.armStep(id, arm.stepID, arm.after)
	}
	if tx.armDue && tx.request.DueDate != nil {
		s.armDueDate(id, tx.request.DueDate.Sub(tx.now))
	}
}

// armEscalation schedules the step timer and records when it was armed so a
// restarted engine can compute the remaining time.
func (s *Service) armEscalation(tx *transition, step *model.Step) {
	armed := tx.now
	step.ArmedAt = &armed
	tx.arm(step.ID, s.stepTimeout(step))
}

func (s *Service) armStep(requestID, stepID string, after time.Duration) {
	if after < 0 {
		after = 0
	}
	s.timers.armStep(requestID, stepID, after, func(gen uint64) {
		s.onStepTimeout(requestID, stepID, gen)
	})
}

func (s *Service) armDueDate(requestID string, after time.Duration) {
	if after < 0 {
		after = 0
	}
	s.timers.armDue(requestID, after, func(gen uint64) {
		s.onDueDate(requestID, gen)
	})
}

// onStepTimeout is the escalation timer callback. It re-checks the step under
// the request lock and does nothing when the step moved on.
func (s *Service) onStepTimeout(requestID, stepID string, gen uint64) {
	ctx := context.Background()
	unlock := s.locks.Lock(requestID)
	defer unlock()
	if !s.timers.claimStep(requestID, stepID, gen) {
		return
	}
	logger := s.logger.With(zap.String("request_id", requestID), zap.String("step_id", stepID), zap.String("action", "timeout"))
	r, err := s.load(ctx, requestID)
	if err != nil {
		logger.Error("escalation timer failed to load request", zap.Error(err))
		return
	}
	step, index := r.LookupStep(stepID)
	if !r.Status.IsActive() || step == nil || index != r.CurrentStepIndex || step.Status != model.StepStatusInProgress || step.Escalation == nil {
		logger.Debug("escalation timer ignored")
		return
	}
	tx := s.newTransition(r)
	if err = s.applyEscalation(tx, step, model.TriggerTimeout, model.SystemActor); err != nil {
		logger.Info("escalation skipped", zap.Error(err))
		return
	}
	if err = s.commit(ctx, tx); err != nil {
		logger.Error("escalation failed", zap.Error(err))
		return
	}
	logger.Info("step escalated", zap.String("status", string(tx.request.Status)))
}

// onDueDate expires a request that is still active when its due date passes.
func (s *Service) onDueDate(requestID string, gen uint64) {
	ctx := context.Background()
	unlock := s.locks.Lock(requestID)
	defer unlock()
	if !s.timers.claimDue(requestID, gen) {
		return
	}
	logger := s.logger.With(zap.String("request_id", requestID), zap.String("action", "expire"))
	r, err := s.load(ctx, requestID)
	if err != nil {
		logger.Error("due date timer failed to load request", zap.Error(err))
		return
	}
	if !r.Status.IsActive() || r.DueDate == nil {
		return
	}
	tx := s.newTransition(r)
	stepID := ""
	if step := r.CurrentStep(); step != nil {
		stepID = step.ID
	}
	tx.finish(model.RequestStatusExpired)
	tx.record(model.AuditExpire, model.SystemActor, stepID, map[string]string{"dueDate": r.DueDate.Format(time.RFC3339)})
	tx.emit(event.TopicRequestExpired, model.SystemActor, stepID)
	if err = s.commit(ctx, tx); err != nil {
		logger.Error("failed to expire request", zap.Error(err))
		return
	}
	logger.Info("request expired")
}

package approval

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/viant/signoff/internal/clock"
	"github.com/viant/signoff/internal/idgen"
	"github.com/viant/signoff/model"
	"github.com/viant/signoff/service/audit"
	"github.com/viant/signoff/service/dao/request"
	"github.com/viant/signoff/service/dao/request/memory"
	"github.com/viant/signoff/service/event"
)

var start = time.Date(2025, 6, 2, 9, 0, 0, 0, time.UTC)

type fixture struct {
	srv    *Service
	clock  *clock.Manual
	events *event.Recorder
	audit  *audit.Memory
	store  request.Service
}

func newFixture(t *testing.T, opts ...Option) *fixture {
	t.Helper()
	f := &fixture{
		clock:  clock.NewManual(start),
		events: &event.Recorder{},
		audit:  audit.NewMemory(),
		store:  memory.New(),
	}
	base := []Option{
		WithClock(f.clock),
		WithEventSink(f.events),
		WithAuditSink(f.audit),
		WithStore(f.store),
		WithIDGenerator(idgen.Sequence("id")),
	}
	srv, err := New(append(base, opts...)...)
	require.NoError(t, err)
	t.Cleanup(srv.Close)
	f.srv = srv
	return f
}

func newDraft(steps ...model.StepDraft) *model.Draft {
	return &model.Draft{
		Title:       "Rotate production database credentials",
		Description: "Quarterly rotation of the primary cluster credentials",
		Type:        model.RequestTypeConfigurationChange,
		Priority:    model.PriorityHigh,
		Requester:   "alice",
		Steps:       steps,
	}
}

func newStep(required int, approvers ...string) model.StepDraft {
	return model.StepDraft{Approvers: approvers, RequiredApprovals: required}
}

func withRule(step model.StepDraft, timeoutMinutes int, rule model.EscalationRule) model.StepDraft {
	step.TimeoutMinutes = timeoutMinutes
	step.Escalation = &rule
	return step
}

func (f *fixture) create(t *testing.T, draft *model.Draft) *model.Request {
	t.Helper()
	r, err := f.srv.CreateRequest(context.Background(), draft)
	require.NoError(t, err)
	return r
}

func (f *fixture) respond(requestID, stepID, approver string, decision model.Decision, reason string) (*model.Request, error) {
	return f.srv.ProcessResponse(context.Background(), requestID, stepID, &model.Response{
		Approver: approver,
		Decision: decision,
		Reason:   reason,
	})
}

func (f *fixture) count(requestID string, topic event.Topic) int {
	ret := 0
	for _, candidate := range f.events.Topics(requestID) {
		if candidate == topic {
			ret++
		}
	}
	return ret
}

func auditActions(r *model.Request) []model.AuditAction {
	var ret []model.AuditAction
	for _, ev := range r.AuditTrail {
		ret = append(ret, ev.Action)
	}
	return ret
}

func TestService_CreateRequest(t *testing.T) {
	f := newFixture(t)
	r := f.create(t, newDraft(newStep(1, "u1"), newStep(1, "u2")))

	assert.Equal(t, "id-1", r.ID)
	assert.Equal(t, model.RequestStatusInProgress, r.Status)
	assert.Equal(t, 0, r.CurrentStepIndex)
	assert.Equal(t, "step-1", r.Steps[0].ID)
	assert.Equal(t, "step-2", r.Steps[1].ID)
	assert.Equal(t, model.StepStatusInProgress, r.Steps[0].Status)
	assert.Equal(t, model.StepStatusPending, r.Steps[1].Status)
	assert.Equal(t, start, *r.Steps[0].StartedAt)
	assert.Equal(t, start, r.CreatedAt)
	assert.Equal(t, []model.AuditAction{model.AuditCreate}, auditActions(r))
	assert.Equal(t, []event.Topic{event.TopicRequestCreated, event.TopicStepStarted, event.TopicAuditEventLogged}, f.events.Topics(r.ID))

	stored, err := f.srv.GetRequest(context.Background(), r.ID)
	require.NoError(t, err)
	assert.Equal(t, r, stored)
}

func TestService_CreateRequest_Validation(t *testing.T) {
	past := start.Add(-time.Hour)
	testCases := []struct {
		name  string
		draft func() *model.Draft
		field string
	}{
		{name: "nil draft", draft: func() *model.Draft { return nil }, field: "draft"},
		{name: "missing title", field: "title", draft: func() *model.Draft {
			d := newDraft(newStep(1, "u1"))
			d.Title = "  "
			return d
		}},
		{name: "long title", field: "title", draft: func() *model.Draft {
			d := newDraft(newStep(1, "u1"))
			d.Title = strings.Repeat("x", 201)
			return d
		}},
		{name: "missing description", field: "description", draft: func() *model.Draft {
			d := newDraft(newStep(1, "u1"))
			d.Description = ""
			return d
		}},
		{name: "missing requester", field: "requester", draft: func() *model.Draft {
			d := newDraft(newStep(1, "u1"))
			d.Requester = ""
			return d
		}},
		{name: "bad type", field: "type", draft: func() *model.Draft {
			d := newDraft(newStep(1, "u1"))
			d.Type = "refactor"
			return d
		}},
		{name: "due date in past", field: "dueDate", draft: func() *model.Draft {
			d := newDraft(newStep(1, "u1"))
			d.DueDate = &past
			return d
		}},
		{name: "no steps", field: "steps", draft: func() *model.Draft { return newDraft() }},
		{name: "too many steps", field: "steps", draft: func() *model.Draft {
			return newDraft(newStep(1, "a"), newStep(1, "b"), newStep(1, "c"), newStep(1, "d"), newStep(1, "e"), newStep(1, "f"))
		}},
		{name: "no approvers", field: "steps[0].approvers", draft: func() *model.Draft { return newDraft(newStep(1)) }},
		{name: "duplicate approver", field: "steps[0].approvers", draft: func() *model.Draft { return newDraft(newStep(1, "u1", "u1")) }},
		{name: "reserved approver", field: "steps[0].approvers", draft: func() *model.Draft { return newDraft(newStep(1, model.SystemActor)) }},
		{name: "quorum too high", field: "steps[0].requiredApprovals", draft: func() *model.Draft { return newDraft(newStep(3, "u1", "u2")) }},
		{name: "quorum zero", field: "steps[1].requiredApprovals", draft: func() *model.Draft { return newDraft(newStep(1, "u1"), newStep(0, "u2")) }},
		{name: "duplicate step id", field: "steps[1].id", draft: func() *model.Draft {
			first, second := newStep(1, "u1"), newStep(1, "u2")
			first.ID, second.ID = "review", "review"
			return newDraft(first, second)
		}},
		{name: "forward dependency", field: "steps[0].dependencies", draft: func() *model.Draft {
			first := newStep(1, "u1")
			first.Dependencies = []string{"step-2"}
			return newDraft(first, newStep(1, "u2"))
		}},
		{name: "notify without targets", field: "steps[0].escalation.escalateTo", draft: func() *model.Draft {
			return newDraft(withRule(newStep(1, "u1"), 5, model.EscalationRule{Action: model.EscalationNotify}))
		}},
		{name: "unknown action", field: "steps[0].escalation.action", draft: func() *model.Draft {
			return newDraft(withRule(newStep(1, "u1"), 5, model.EscalationRule{Action: "page"}))
		}},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			f := newFixture(t)
			_, err := f.srv.CreateRequest(context.Background(), tc.draft())
			require.Error(t, err)
			assert.True(t, errors.Is(err, ErrValidation))
			var validationErr *ValidationError
			require.True(t, errors.As(err, &validationErr))
			assert.Equal(t, tc.field, validationErr.Field)
			all, _ := f.srv.GetAllRequests(context.Background())
			assert.Empty(t, all)
			assert.Empty(t, f.events.Events())
		})
	}
}

func TestService_DependenciesOnPrecedingSteps(t *testing.T) {
	f := newFixture(t)
	second := newStep(1, "u2")
	second.Dependencies = []string{"step-1"}
	r := f.create(t, newDraft(newStep(1, "u1"), second))

	r, err := f.respond(r.ID, "step-1", "u1", model.DecisionApprove, "")
	require.NoError(t, err)
	assert.Equal(t, model.StepStatusInProgress, r.Steps[1].Status)
}

// one step, quorum of two out of three
func TestService_ProcessResponse_Quorum(t *testing.T) {
	f := newFixture(t)
	r := f.create(t, newDraft(newStep(2, "u1", "u2", "u3")))

	r, err := f.respond(r.ID, "step-1", "u1", model.DecisionApprove, "")
	require.NoError(t, err)
	assert.Equal(t, model.StepStatusInProgress, r.Steps[0].Status)
	assert.Equal(t, model.RequestStatusInProgress, r.Status)

	f.clock.Advance(5 * time.Minute)
	r, err = f.respond(r.ID, "step-1", "u2", model.DecisionApprove, "")
	require.NoError(t, err)
	assert.Equal(t, model.StepStatusCompleted, r.Steps[0].Status)
	assert.Equal(t, model.RequestStatusApproved, r.Status)
	require.NotNil(t, r.CompletedAt)
	assert.Equal(t, 5*time.Minute, r.Duration())
	assert.Equal(t, 1, f.count(r.ID, event.TopicRequestApproved))
	assert.Equal(t, 0, f.srv.timers.count(r.ID))
}

// two sequential steps
func TestService_ProcessResponse_AdvancesStep(t *testing.T) {
	f := newFixture(t)
	r := f.create(t, newDraft(newStep(1, "u1"), newStep(1, "u2")))

	r, err := f.respond(r.ID, "step-1", "u1", model.DecisionApprove, "")
	require.NoError(t, err)
	assert.Equal(t, model.StepStatusCompleted, r.Steps[0].Status)
	assert.Equal(t, model.StepStatusInProgress, r.Steps[1].Status)
	assert.Equal(t, 1, r.CurrentStepIndex)
	assert.Equal(t, model.RequestStatusInProgress, r.Status)
	assert.Equal(t, 2, f.count(r.ID, event.TopicStepStarted))

	_, err = f.respond(r.ID, "step-1", "u2", model.DecisionApprove, "")
	assert.True(t, errors.Is(err, ErrInvalidState), "completed step no longer accepts responses")

	r, err = f.respond(r.ID, "step-2", "u2", model.DecisionApprove, "")
	require.NoError(t, err)
	assert.Equal(t, model.RequestStatusApproved, r.Status)
	assert.Equal(t, 1, r.CurrentStepIndex)
}

// a single reject fails the step and the request
func TestService_ProcessResponse_RejectVeto(t *testing.T) {
	f := newFixture(t)
	first := withRule(newStep(2, "u1", "u2"), 30, model.EscalationRule{Action: model.EscalationAutoApprove})
	r := f.create(t, newDraft(first, newStep(1, "u3")))

	_, err := f.respond(r.ID, "step-1", "u1", model.DecisionReject, "")
	assert.True(t, errors.Is(err, ErrValidation), "reject needs a reason")

	r, err = f.respond(r.ID, "step-1", "u1", model.DecisionReject, "insufficient tests")
	require.NoError(t, err)
	assert.Equal(t, model.StepStatusFailed, r.Steps[0].Status)
	assert.Equal(t, model.RequestStatusRejected, r.Status)
	assert.Equal(t, model.StepStatusPending, r.Steps[1].Status)
	assert.Nil(t, r.Steps[1].StartedAt)
	assert.Equal(t, "insufficient tests", r.Steps[0].Responses[0].Reason)
	assert.Equal(t, 0, f.clock.Pending())
	assert.Equal(t, 1, f.count(r.ID, event.TopicRequestRejected))
	assert.Equal(t, 1, f.count(r.ID, event.TopicStepStarted))
}

// the same approver cannot vote twice
func TestService_ProcessResponse_Duplicate(t *testing.T) {
	f := newFixture(t)
	r := f.create(t, newDraft(newStep(2, "u1", "u2")))

	first, err := f.respond(r.ID, "step-1", "u1", model.DecisionApprove, "")
	require.NoError(t, err)
	published := len(f.events.Events())

	f.clock.Advance(time.Minute)
	for _, decision := range []model.Decision{model.DecisionApprove, model.DecisionReject} {
		_, err = f.respond(r.ID, "step-1", "u1", decision, "changed my mind")
		require.Error(t, err)
		assert.True(t, errors.Is(err, ErrDuplicate))
		var duplicate *DuplicateError
		require.True(t, errors.As(err, &duplicate))
		assert.Equal(t, "u1", duplicate.Approver)
		assert.Equal(t, "step-1", duplicate.StepID)
	}

	after, err := f.srv.GetRequest(context.Background(), r.ID)
	require.NoError(t, err)
	assert.Equal(t, first, after)
	assert.Len(t, f.events.Events(), published)
}

// timeout with auto-approve behaves like a human approval
func TestService_EscalateStep_AutoApprove(t *testing.T) {
	f := newFixture(t)
	first := withRule(newStep(2, "u1", "u2"), 30, model.EscalationRule{Action: model.EscalationAutoApprove})
	r := f.create(t, newDraft(first, newStep(1, "u3")))

	f.clock.Advance(29 * time.Minute)
	r, err := f.srv.GetRequest(context.Background(), r.ID)
	require.NoError(t, err)
	assert.Equal(t, model.StepStatusInProgress, r.Steps[0].Status)

	f.clock.Advance(time.Minute)
	r, err = f.srv.GetRequest(context.Background(), r.ID)
	require.NoError(t, err)
	step := r.Steps[0]
	assert.Equal(t, model.StepStatusCompleted, step.Status)
	require.Len(t, step.Responses, 1)
	assert.Equal(t, model.SystemActor, step.Responses[0].Approver)
	assert.True(t, step.Responses[0].Synthetic)
	assert.Equal(t, 1, step.Escalations)
	assert.Equal(t, model.StepStatusInProgress, r.Steps[1].Status)
	assert.Equal(t, 1, r.CurrentStepIndex)
	assert.Equal(t, model.RequestStatusInProgress, r.Status)
	assert.Equal(t, []model.AuditAction{model.AuditCreate, model.AuditEscalate, model.AuditApprove}, auditActions(r))
	assert.Equal(t, 1, f.count(r.ID, event.TopicStepEscalated))
	assert.Equal(t, 2, f.count(r.ID, event.TopicStepStarted))
}

// withdrawing a finished request is refused
func TestService_WithdrawRequest_Terminal(t *testing.T) {
	f := newFixture(t)
	r := f.create(t, newDraft(newStep(1, "u1")))
	_, err := f.respond(r.ID, "step-1", "u1", model.DecisionApprove, "")
	require.NoError(t, err)

	_, err = f.srv.WithdrawRequest(context.Background(), r.ID, "alice", "no longer needed")
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrInvalidState))
	var stateErr *InvalidStateError
	require.True(t, errors.As(err, &stateErr))
	assert.Equal(t, string(model.RequestStatusApproved), stateErr.Current)
	assert.Contains(t, stateErr.Disallowed, string(model.RequestStatusApproved))
	assert.Contains(t, stateErr.Disallowed, string(model.RequestStatusRejected))
	assert.NotContains(t, stateErr.Allowed, string(model.RequestStatusApproved))
}

func TestService_ProcessResponse_Errors(t *testing.T) {
	f := newFixture(t)
	r := f.create(t, newDraft(newStep(1, "u1"), newStep(1, "u2")))

	testCases := []struct {
		name      string
		requestID string
		stepID    string
		response  *model.Response
		expect    error
	}{
		{name: "unknown request", requestID: "missing", stepID: "step-1", response: &model.Response{Approver: "u1", Decision: model.DecisionApprove}, expect: ErrNotFound},
		{name: "unknown step", requestID: r.ID, stepID: "step-9", response: &model.Response{Approver: "u1", Decision: model.DecisionApprove}, expect: ErrNotFound},
		{name: "step not active", requestID: r.ID, stepID: "step-2", response: &model.Response{Approver: "u2", Decision: model.DecisionApprove}, expect: ErrInvalidState},
		{name: "not an approver", requestID: r.ID, stepID: "step-1", response: &model.Response{Approver: "mallory", Decision: model.DecisionApprove}, expect: ErrPermission},
		{name: "bad decision", requestID: r.ID, stepID: "step-1", response: &model.Response{Approver: "u1", Decision: "abstain"}, expect: ErrValidation},
		{name: "missing approver", requestID: r.ID, stepID: "step-1", response: &model.Response{Decision: model.DecisionApprove}, expect: ErrValidation},
		{name: "nil response", requestID: r.ID, stepID: "step-1", expect: ErrValidation},
		{name: "reason too long", requestID: r.ID, stepID: "step-1", response: &model.Response{Approver: "u1", Decision: model.DecisionReject, Reason: strings.Repeat("r", 1001)}, expect: ErrValidation},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := f.srv.ProcessResponse(context.Background(), tc.requestID, tc.stepID, tc.response)
			assert.True(t, errors.Is(err, tc.expect), "got %v", err)
		})
	}
	after, err := f.srv.GetRequest(context.Background(), r.ID)
	require.NoError(t, err)
	assert.Empty(t, after.Steps[0].Responses)
	assert.Len(t, after.AuditTrail, 1)
}

func TestService_ProcessResponse_AfterDueDate(t *testing.T) {
	f := newFixture(t)
	due := start.Add(-time.Minute)
	stale := &model.Request{
		ID:          "stale",
		Title:       "stale",
		Description: "seeded past its due date",
		Requester:   "alice",
		Status:      model.RequestStatusInProgress,
		DueDate:     &due,
		CreatedAt:   start.Add(-time.Hour),
		Steps: []*model.Step{{
			ID:                "step-1",
			Approvers:         []string{"u1"},
			RequiredApprovals: 1,
			Status:            model.StepStatusInProgress,
		}},
	}
	require.NoError(t, f.store.Save(context.Background(), stale))

	_, err := f.respond("stale", "step-1", "u1", model.DecisionApprove, "")
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrTimeout))
	var timeoutErr *TimeoutError
	require.True(t, errors.As(err, &timeoutErr))
	assert.Equal(t, due, timeoutErr.DueDate)

	after, err := f.srv.GetRequest(context.Background(), "stale")
	require.NoError(t, err)
	assert.Empty(t, after.Steps[0].Responses)
}

func TestService_DueDateExpiry(t *testing.T) {
	f := newFixture(t)
	d := newDraft(newStep(1, "u1"))
	due := start.Add(2 * time.Hour)
	d.DueDate = &due
	r := f.create(t, d)
	assert.Equal(t, 1, f.srv.timers.count(r.ID))

	f.clock.Advance(2 * time.Hour)
	r, err := f.srv.GetRequest(context.Background(), r.ID)
	require.NoError(t, err)
	assert.Equal(t, model.RequestStatusExpired, r.Status)
	assert.Equal(t, []model.AuditAction{model.AuditCreate, model.AuditExpire}, auditActions(r))
	assert.Equal(t, 1, f.count(r.ID, event.TopicRequestExpired))
	assert.Equal(t, 0, f.srv.timers.count(r.ID))

	f.clock.Advance(time.Hour)
	_, err = f.respond(r.ID, "step-1", "u1", model.DecisionApprove, "")
	assert.True(t, errors.Is(err, ErrTimeout))
	var timeoutErr *TimeoutError
	require.True(t, errors.As(err, &timeoutErr))
	assert.Equal(t, due, timeoutErr.DueDate)

	_, err = f.srv.WithdrawRequest(context.Background(), r.ID, "alice", "")
	assert.True(t, errors.Is(err, ErrInvalidState))
}

func TestService_Notify(t *testing.T) {
	f := newFixture(t)
	rule := model.EscalationRule{Action: model.EscalationNotify, EscalateTo: []string{"manager"}, MaxEscalations: 2}
	r := f.create(t, newDraft(withRule(newStep(1, "u1"), 10, rule)))

	f.clock.Advance(10 * time.Minute)
	r, err := f.srv.GetRequest(context.Background(), r.ID)
	require.NoError(t, err)
	assert.Equal(t, model.RequestStatusEscalated, r.Status)
	assert.Equal(t, 1, r.Steps[0].Escalations)
	assert.Equal(t, 1, f.srv.timers.count(r.ID), "re-armed below the bound")

	var notification *event.Event
	for _, e := range f.events.Events() {
		if e.Topic == event.TopicEscalationNotificationRequired {
			notification = e
		}
	}
	require.NotNil(t, notification)
	assert.Equal(t, []string{"manager"}, notification.Recipients)
	assert.Equal(t, model.RequestStatusEscalated, notification.Status)

	f.clock.Advance(10 * time.Minute)
	f.clock.Advance(10 * time.Minute)
	r, _ = f.srv.GetRequest(context.Background(), r.ID)
	assert.Equal(t, 2, r.Steps[0].Escalations)
	assert.Equal(t, 0, f.srv.timers.count(r.ID))

	_, err = f.srv.EscalateStep(context.Background(), r.ID, "step-1", model.TriggerManual)
	assert.True(t, errors.Is(err, ErrInvalidState), "bound reached")

	r, err = f.respond(r.ID, "step-1", "u1", model.DecisionApprove, "")
	require.NoError(t, err)
	assert.Equal(t, model.RequestStatusApproved, r.Status)
}

func TestService_EscalatedReturnsToInProgress(t *testing.T) {
	f := newFixture(t)
	rule := model.EscalationRule{Action: model.EscalationNotify, EscalateTo: []string{"manager"}}
	r := f.create(t, newDraft(withRule(newStep(2, "u1", "u2"), 10, rule)))

	r, err := f.srv.EscalateStep(context.Background(), r.ID, "step-1", model.TriggerManual)
	require.NoError(t, err)
	assert.Equal(t, model.RequestStatusEscalated, r.Status)

	pending, err := f.srv.GetPendingRequestsForUser(context.Background(), "u1")
	require.NoError(t, err)
	assert.Len(t, pending, 1)

	r, err = f.respond(r.ID, "step-1", "u1", model.DecisionApprove, "")
	require.NoError(t, err)
	assert.Equal(t, model.RequestStatusInProgress, r.Status)
}

func TestService_Reassign(t *testing.T) {
	f := newFixture(t)
	rule := model.EscalationRule{Action: model.EscalationReassign, EscalateTo: []string{"m1"}}
	r := f.create(t, newDraft(withRule(newStep(2, "u1", "u2"), 15, rule)))
	_, err := f.respond(r.ID, "step-1", "u1", model.DecisionApprove, "")
	require.NoError(t, err)

	f.clock.Advance(15 * time.Minute)
	r, err = f.srv.GetRequest(context.Background(), r.ID)
	require.NoError(t, err)
	step := r.Steps[0]
	assert.Equal(t, []string{"m1"}, step.Approvers)
	assert.Empty(t, step.Responses)
	assert.Equal(t, 1, step.RequiredApprovals)
	assert.Equal(t, model.RequestStatusEscalated, r.Status)

	_, err = f.respond(r.ID, "step-1", "u2", model.DecisionApprove, "")
	assert.True(t, errors.Is(err, ErrPermission))

	r, err = f.respond(r.ID, "step-1", "m1", model.DecisionApprove, "")
	require.NoError(t, err)
	assert.Equal(t, model.RequestStatusApproved, r.Status)
}

func TestService_AutoReject(t *testing.T) {
	f := newFixture(t)
	rule := model.EscalationRule{Action: model.EscalationAutoReject}
	r := f.create(t, newDraft(withRule(newStep(1, "u1"), 60, rule), newStep(1, "u2")))

	f.clock.Advance(time.Hour)
	r, err := f.srv.GetRequest(context.Background(), r.ID)
	require.NoError(t, err)
	assert.Equal(t, model.RequestStatusRejected, r.Status)
	assert.Equal(t, model.StepStatusFailed, r.Steps[0].Status)
	assert.Equal(t, model.SystemActor, r.Steps[0].Responses[0].Approver)
	assert.Equal(t, model.StepStatusPending, r.Steps[1].Status)
}

func TestService_EscalateStep_Errors(t *testing.T) {
	f := newFixture(t)
	r := f.create(t, newDraft(newStep(1, "u1")))

	_, err := f.srv.EscalateStep(context.Background(), r.ID, "step-1", model.TriggerManual)
	assert.True(t, errors.Is(err, ErrValidation), "no rule configured")

	disabled := DefaultConfig()
	disabled.EnableEscalation = false
	g := newFixture(t, WithConfig(disabled))
	rule := model.EscalationRule{Action: model.EscalationAutoApprove}
	r = g.create(t, newDraft(withRule(newStep(1, "u1"), 1, rule)))
	assert.Equal(t, 0, g.clock.Pending())
	_, err = g.srv.EscalateStep(context.Background(), r.ID, "step-1", model.TriggerManual)
	assert.True(t, errors.Is(err, ErrValidation))
}

func TestService_TimerAfterCompletionIsNoop(t *testing.T) {
	f := newFixture(t)
	rule := model.EscalationRule{Action: model.EscalationAutoReject}
	r := f.create(t, newDraft(withRule(newStep(1, "u1"), 10, rule), newStep(1, "u2")))
	_, err := f.respond(r.ID, "step-1", "u1", model.DecisionApprove, "")
	require.NoError(t, err)

	f.srv.onStepTimeout(r.ID, "step-1", 1)
	f.clock.Advance(time.Hour)

	r, err = f.srv.GetRequest(context.Background(), r.ID)
	require.NoError(t, err)
	assert.Equal(t, model.StepStatusCompleted, r.Steps[0].Status)
	assert.Equal(t, model.RequestStatusInProgress, r.Status)
	assert.Equal(t, 0, f.count(r.ID, event.TopicStepEscalated))
}

func TestService_Withdraw(t *testing.T) {
	f := newFixture(t)
	rule := model.EscalationRule{Action: model.EscalationNotify, EscalateTo: []string{"manager"}, MaxEscalations: 3}
	d := newDraft(withRule(newStep(1, "u1"), 10, rule))
	due := start.Add(24 * time.Hour)
	d.DueDate = &due
	r := f.create(t, d)
	assert.Equal(t, 2, f.clock.Pending())

	_, err := f.srv.WithdrawRequest(context.Background(), r.ID, "bob", "")
	assert.True(t, errors.Is(err, ErrPermission))

	r, err = f.srv.WithdrawRequest(context.Background(), r.ID, "alice", "superseded")
	require.NoError(t, err)
	assert.Equal(t, model.RequestStatusWithdrawn, r.Status)
	assert.Equal(t, 0, f.clock.Pending())
	assert.Equal(t, "superseded", r.AuditTrail[len(r.AuditTrail)-1].Details["reason"])

	published := len(f.events.Events())
	f.clock.Advance(48 * time.Hour)
	assert.Len(t, f.events.Events(), published)
	assert.Equal(t, 0, f.count(r.ID, event.TopicStepEscalated))

	_, err = f.srv.WithdrawRequest(context.Background(), r.ID, "alice", "")
	assert.True(t, errors.Is(err, ErrInvalidState))
}

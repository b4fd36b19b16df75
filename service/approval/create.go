package approval

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/viant/signoff/model"
	"github.com/viant/signoff/service/event"
	"github.com/viant/signoff/tracing"
	"go.uber.org/zap"
)

// CreateRequest validates draft, activates the first step and persists the
// new request.
func (s *Service) CreateRequest(ctx context.Context, draft *model.Draft) (ret *model.Request, err error) {
	ctx, span := tracing.StartSpan(ctx, "approval.createRequest")
	defer func() { tracing.EndSpan(span, err) }()

	now := s.clock.Now()
	draft = copyDraft(draft)
	if err = s.validateDraft(draft, now); err != nil {
		return nil, err
	}
	r := buildRequest(draft, s.newID(), now)
	span.WithAttributes(map[string]string{"request_id": r.ID, "requester": r.Requester})

	unlock := s.locks.Lock(r.ID)
	defer unlock()
	tx := s.newTransition(r)
	tx.now = now
	r.Status = model.RequestStatusInProgress
	if err = s.activate(tx, 0); err != nil {
		return nil, err
	}
	tx.record(model.AuditCreate, r.Requester, "", map[string]string{
		"title": r.Title,
		"steps": fmt.Sprint(len(r.Steps)),
	})
	created := event.NewEvent(event.TopicRequestCreated, r.ID).WithActor(r.Requester).WithStatus(r.Status)
	created.ID = s.newID()
	created.Timestamp = now
	tx.events = append([]*event.Event{created}, tx.events...)
	tx.armDue = r.DueDate != nil
	if err = s.commit(ctx, tx); err != nil {
		return nil, err
	}
	s.logger.Info("request created", append(requestFields(r, "", r.Requester), zap.Int("steps", len(r.Steps)))...)
	return r.Clone(), nil
}

func copyDraft(draft *model.Draft) *model.Draft {
	if draft == nil {
		return nil
	}
	ret := *draft
	ret.Steps = make([]model.StepDraft, len(draft.Steps))
	for i, step := range draft.Steps {
		step.Approvers = append([]string(nil), step.Approvers...)
		step.RequiredPermissions = append([]string(nil), step.RequiredPermissions...)
		step.Dependencies = append([]string(nil), step.Dependencies...)
		step.Escalation = step.Escalation.Clone()
		ret.Steps[i] = step
	}
	return &ret
}

func buildRequest(draft *model.Draft, id string, now time.Time) *model.Request {
	r := &model.Request{
		ID:          id,
		Title:       strings.TrimSpace(draft.Title),
		Description: draft.Description,
		Type:        draft.Type,
		Priority:    draft.Priority,
		Requester:   draft.Requester,
		Status:      model.RequestStatusPending,
		Metadata:    draft.Metadata,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if r.Type == "" {
		r.Type = model.RequestTypeOther
	}
	if r.Priority == "" {
		r.Priority = model.PriorityMedium
	}
	if draft.DueDate != nil {
		due := *draft.DueDate
		r.DueDate = &due
	}
	for _, step := range draft.Steps {
		r.Steps = append(r.Steps, &model.Step{
			ID:                  step.ID,
			Name:                step.Name,
			Approvers:           step.Approvers,
			RequiredApprovals:   step.RequiredApprovals,
			RequiredPermissions: step.RequiredPermissions,
			TimeoutMinutes:      step.TimeoutMinutes,
			Escalation:          step.Escalation,
			Dependencies:        step.Dependencies,
			Status:              model.StepStatusPending,
		})
	}
	return r.Clone()
}

package approval

import (
	"github.com/viant/signoff/model"
	"github.com/viant/signoff/service/event"
)

// activate moves the step at index to in-progress and arms its escalation
// timer.
func (s *Service) activate(tx *transition, index int) error {
	r := tx.request
	step := r.Steps[index]
	if step.Status != model.StepStatusPending {
		return &InvalidStateError{Entity: "step", ID: step.ID, Current: string(step.Status), Allowed: []string{string(model.StepStatusPending)}}
	}
	for _, dependency := range step.Dependencies {
		if prior, _ := r.LookupStep(dependency); prior == nil || prior.Status != model.StepStatusCompleted {
			return &InvalidStateError{Entity: "step", ID: dependency, Current: stepStatus(prior), Allowed: []string{string(model.StepStatusCompleted)}}
		}
	}
	r.CurrentStepIndex = index
	step.Status = model.StepStatusInProgress
	started := tx.now
	step.StartedAt = &started
	if s.escalates(step) {
		s.armEscalation(tx, step)
	}
	tx.emit(event.TopicStepStarted, "", step.ID).WithRecipients(step.Approvers...)
	return nil
}

func stepStatus(step *model.Step) string {
	if step == nil {
		return "missing"
	}
	return string(step.Status)
}

// accept records a response on the current step and resolves the step when
// the response rejects it or reaches the quorum. A synthetic approval
// completes the step regardless of quorum.
func (s *Service) accept(tx *transition, step *model.Step, response model.Response) error {
	r := tx.request
	response.Timestamp = tx.now
	step.Responses = append(step.Responses, response)
	if r.Status == model.RequestStatusEscalated {
		r.Status = model.RequestStatusInProgress
	}

	action := model.AuditApprove
	if response.Decision == model.DecisionReject {
		action = model.AuditReject
	}
	details := map[string]string{"decision": string(response.Decision)}
	if response.Reason != "" {
		details["reason"] = response.Reason
	}
	if response.Synthetic {
		details["synthetic"] = "true"
	}
	tx.record(action, response.Approver, step.ID, details)
	tx.emit(event.TopicResponseProcessed, response.Approver, step.ID).WithDetail("decision", string(response.Decision))

	switch {
	case response.Decision == model.DecisionReject:
		s.failStep(tx, step, response.Approver)
	case response.Synthetic || step.Approvals() >= step.RequiredApprovals:
		return s.completeStep(tx, step, response.Approver)
	}
	return nil
}

func (s *Service) failStep(tx *transition, step *model.Step, actor string) {
	step.Status = model.StepStatusFailed
	completed := tx.now
	step.CompletedAt = &completed
	tx.finish(model.RequestStatusRejected)
	tx.emit(event.TopicRequestRejected, actor, step.ID).WithRecipients(tx.request.Requester)
}

func (s *Service) completeStep(tx *transition, step *model.Step, actor string) error {
	r := tx.request
	step.Status = model.StepStatusCompleted
	completed := tx.now
	step.CompletedAt = &completed
	tx.cancel(step.ID)
	next := r.CurrentStepIndex + 1
	if next >= len(r.Steps) {
		tx.finish(model.RequestStatusApproved)
		tx.emit(event.TopicRequestApproved, actor, step.ID).WithRecipients(r.Requester)
		return nil
	}
	r.Status = model.RequestStatusInProgress
	return s.activate(tx, next)
}

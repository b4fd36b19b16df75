package approval

import (
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/viant/signoff/model"
)

// validateDraft checks a draft before anything is built from it. Step ids are
// assigned on the draft so dependency references can be resolved.
func (s *Service) validateDraft(draft *model.Draft, now time.Time) error {
	if draft == nil {
		return invalid("draft", "is required")
	}
	title := strings.TrimSpace(draft.Title)
	if title == "" {
		return invalid("title", "is required")
	}
	if utf8.RuneCountInString(title) > s.config.MaxTitleLength {
		return invalid("title", "must be at most %d characters", s.config.MaxTitleLength)
	}
	if strings.TrimSpace(draft.Description) == "" {
		return invalid("description", "is required")
	}
	if strings.TrimSpace(draft.Requester) == "" {
		return invalid("requester", "is required")
	}
	if draft.Type != "" && !draft.Type.IsValid() {
		return invalid("type", "unsupported request type %q", draft.Type)
	}
	if draft.Priority != "" && !draft.Priority.IsValid() {
		return invalid("priority", "unsupported priority %q", draft.Priority)
	}
	if draft.DueDate != nil && !draft.DueDate.After(now) {
		return invalid("dueDate", "must be in the future")
	}
	if len(draft.Steps) == 0 {
		return invalid("steps", "at least one step is required")
	}
	if len(draft.Steps) > s.config.MaxSteps {
		return invalid("steps", "at most %d steps are allowed, got %d", s.config.MaxSteps, len(draft.Steps))
	}
	seen := map[string]int{}
	for i := range draft.Steps {
		step := &draft.Steps[i]
		if step.ID == "" {
			step.ID = fmt.Sprintf("step-%d", i+1)
		}
		if j, ok := seen[step.ID]; ok {
			return invalid(stepField(i, "id"), "duplicates steps[%d].id %q", j, step.ID)
		}
		if err := s.validateStepDraft(i, step, seen); err != nil {
			return err
		}
		seen[step.ID] = i
	}
	return nil
}

// validateStepDraft checks one step; earlier holds the ids of preceding steps.
func (s *Service) validateStepDraft(i int, step *model.StepDraft, earlier map[string]int) error {
	if len(step.Approvers) == 0 {
		return invalid(stepField(i, "approvers"), "at least one approver is required")
	}
	unique := map[string]bool{}
	for _, approver := range step.Approvers {
		if strings.TrimSpace(approver) == "" {
			return invalid(stepField(i, "approvers"), "approver id cannot be empty")
		}
		if approver == model.SystemActor {
			return invalid(stepField(i, "approvers"), "%q is reserved", model.SystemActor)
		}
		if unique[approver] {
			return invalid(stepField(i, "approvers"), "duplicate approver %q", approver)
		}
		unique[approver] = true
	}
	if step.RequiredApprovals < 1 || step.RequiredApprovals > len(step.Approvers) {
		return invalid(stepField(i, "requiredApprovals"), "must be between 1 and %d, got %d", len(step.Approvers), step.RequiredApprovals)
	}
	if step.TimeoutMinutes < 0 {
		return invalid(stepField(i, "timeoutMinutes"), "cannot be negative")
	}
	for _, dependency := range step.Dependencies {
		if _, ok := earlier[dependency]; !ok {
			return invalid(stepField(i, "dependencies"), "%q is not a preceding step", dependency)
		}
	}
	if rule := step.Escalation; rule != nil {
		if rule.Trigger == "" {
			rule.Trigger = model.TriggerTimeout
		}
		if !rule.Trigger.IsValid() {
			return invalid(stepField(i, "escalation.trigger"), "unsupported trigger %q", rule.Trigger)
		}
		if !rule.Action.IsValid() {
			return invalid(stepField(i, "escalation.action"), "unsupported action %q", rule.Action)
		}
		if rule.Action.NeedsTargets() && len(rule.EscalateTo) == 0 {
			return invalid(stepField(i, "escalation.escalateTo"), "is required for %s", rule.Action)
		}
		for _, target := range rule.EscalateTo {
			if strings.TrimSpace(target) == "" {
				return invalid(stepField(i, "escalation.escalateTo"), "target id cannot be empty")
			}
		}
		if rule.MaxEscalations < 0 {
			return invalid(stepField(i, "escalation.maxEscalations"), "cannot be negative")
		}
	}
	return nil
}

func stepField(i int, name string) string {
	return fmt.Sprintf("steps[%d].%s", i, name)
}

// validateResponse checks the caller supplied part of a response.
func (s *Service) validateResponse(response *model.Response) error {
	if response == nil {
		return invalid("response", "is required")
	}
	if strings.TrimSpace(response.Approver) == "" {
		return invalid("response.approver", "is required")
	}
	if !response.Decision.IsValid() {
		return invalid("response.decision", "must be %s or %s", model.DecisionApprove, model.DecisionReject)
	}
	if response.Decision == model.DecisionReject && strings.TrimSpace(response.Reason) == "" {
		return invalid("response.reason", "is required when rejecting")
	}
	return s.validateReason("response.reason", response.Reason)
}

func (s *Service) validateReason(field, reason string) error {
	if utf8.RuneCountInString(reason) > s.config.MaxReasonLength {
		return invalid(field, "must be at most %d characters", s.config.MaxReasonLength)
	}
	return nil
}

var activeStatuses = []string{
	string(model.RequestStatusPending),
	string(model.RequestStatusInProgress),
	string(model.RequestStatusEscalated),
}

var terminalStatuses = []string{
	string(model.RequestStatusApproved),
	string(model.RequestStatusRejected),
	string(model.RequestStatusWithdrawn),
	string(model.RequestStatusExpired),
}

func requireActive(r *model.Request) error {
	if r.Status.IsActive() {
		return nil
	}
	return &InvalidStateError{
		Entity:     "request",
		ID:         r.ID,
		Current:    string(r.Status),
		Allowed:    activeStatuses,
		Disallowed: terminalStatuses,
	}
}

// currentStep resolves stepID and requires it to be the in-progress step.
func currentStep(r *model.Request, stepID string) (*model.Step, error) {
	if stepID == "" {
		return nil, invalid("stepId", "is required")
	}
	step, index := r.LookupStep(stepID)
	if step == nil {
		return nil, &NotFoundError{Kind: "step", ID: stepID}
	}
	if index != r.CurrentStepIndex || step.Status != model.StepStatusInProgress {
		return nil, &InvalidStateError{
			Entity:  "step",
			ID:      stepID,
			Current: string(step.Status),
			Allowed: []string{string(model.StepStatusInProgress)},
		}
	}
	return step, nil
}

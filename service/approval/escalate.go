package approval

import (
	"context"
	"strconv"
	"strings"

	"github.com/viant/signoff/model"
	"github.com/viant/signoff/service/event"
	"github.com/viant/signoff/tracing"
	"go.uber.org/zap"
)

// EscalateStep applies the step escalation rule on demand.
func (s *Service) EscalateStep(ctx context.Context, requestID, stepID string, trigger model.EscalationTrigger) (ret *model.Request, err error) {
	ctx, span := tracing.StartSpan(ctx, "approval.escalateStep")
	defer func() { tracing.EndSpan(span, err) }()
	span.WithAttributes(map[string]string{"request_id": requestID, "step_id": stepID, "trigger": string(trigger)})

	if !s.config.EnableEscalation {
		return nil, invalid("escalation", "escalation is disabled")
	}
	if trigger == "" {
		trigger = model.TriggerManual
	}
	if !trigger.IsValid() {
		return nil, invalid("trigger", "unsupported trigger %q", trigger)
	}
	actor := model.SystemActor
	if current := actorFromContext(ctx); current != "" {
		actor = current
	}
	ret, err = s.mutate(ctx, requestID, func(tx *transition) error {
		r := tx.request
		if err := requireActive(r); err != nil {
			return err
		}
		step, err := currentStep(r, stepID)
		if err != nil {
			return err
		}
		return s.applyEscalation(tx, step, trigger, actor)
	})
	if err != nil {
		return nil, err
	}
	s.logger.Info("step escalated", append(requestFields(ret, stepID, actor), zap.String("status", string(ret.Status)))...)
	return ret, nil
}

// applyEscalation performs the step rule's action. Notify and reassign leave
// the request escalated and re-arm the step timer while the rule allows
// further escalations; auto actions resolve the step with a system response.
func (s *Service) applyEscalation(tx *transition, step *model.Step, trigger model.EscalationTrigger, actor string) error {
	rule := step.Escalation
	if rule == nil {
		return invalid("escalation", "step %s has no escalation rule", step.ID)
	}
	if rule.MaxEscalations > 0 && step.Escalations >= rule.MaxEscalations {
		return &InvalidStateError{
			Entity:  "step",
			ID:      step.ID,
			Current: "escalated " + strconv.Itoa(step.Escalations) + " times",
			Allowed: []string{"fewer than " + strconv.Itoa(rule.MaxEscalations) + " escalations"},
		}
	}
	r := tx.request
	step.Escalations++
	details := map[string]string{
		"trigger":     string(trigger),
		"action":      string(rule.Action),
		"escalations": strconv.Itoa(step.Escalations),
	}

	switch rule.Action {
	case model.EscalationNotify, model.EscalationReassign:
		r.Status = model.RequestStatusEscalated
		if rule.Action == model.EscalationReassign {
			reassign(step, rule.EscalateTo)
			details["approvers"] = strings.Join(step.Approvers, ",")
		}
		tx.record(model.AuditEscalate, actor, step.ID, details)
		tx.emit(event.TopicStepEscalated, actor, step.ID).WithDetail("action", string(rule.Action)).WithDetail("trigger", string(trigger))
		tx.emit(event.TopicEscalationNotificationRequired, actor, step.ID).
			WithRecipients(rule.EscalateTo...).
			WithDetail("action", string(rule.Action))
		tx.cancel(step.ID)
		step.ArmedAt = nil
		if step.Rearmable() {
			s.armEscalation(tx, step)
		}
		return nil
	case model.EscalationAutoApprove, model.EscalationAutoReject:
		tx.record(model.AuditEscalate, actor, step.ID, details)
		tx.emit(event.TopicStepEscalated, actor, step.ID).WithDetail("action", string(rule.Action)).WithDetail("trigger", string(trigger))
		decision := model.DecisionApprove
		reason := "auto-approved after " + string(trigger)
		if rule.Action == model.EscalationAutoReject {
			decision = model.DecisionReject
			reason = "auto-rejected after " + string(trigger)
		}
		return s.accept(tx, step, model.Response{
			Approver:  model.SystemActor,
			Decision:  decision,
			Reason:    reason,
			Synthetic: true,
		})
	}
	return invalid("escalation.action", "unsupported action %q", rule.Action)
}

// reassign replaces the step approvers and discards their responses.
func reassign(step *model.Step, targets []string) {
	seen := map[string]bool{}
	approvers := make([]string, 0, len(targets))
	for _, target := range targets {
		if !seen[target] {
			seen[target] = true
			approvers = append(approvers, target)
		}
	}
	step.Approvers = approvers
	step.Responses = nil
	if step.RequiredApprovals > len(approvers) {
		step.RequiredApprovals = len(approvers)
	}
}

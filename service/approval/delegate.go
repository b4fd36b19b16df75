package approval

import (
	"context"
	"errors"
	"strings"

	"github.com/viant/signoff/model"
	"github.com/viant/signoff/service/event"
	"github.com/viant/signoff/service/identity"
	"github.com/viant/signoff/tracing"
	"go.uber.org/zap"
)

// DelegateApproval hands fromUser's approver slot on the in-progress step to
// toUser.
func (s *Service) DelegateApproval(ctx context.Context, requestID, stepID, fromUser, toUser string) (ret *model.Request, err error) {
	ctx, span := tracing.StartSpan(ctx, "approval.delegateApproval")
	defer func() { tracing.EndSpan(span, err) }()
	span.WithAttributes(map[string]string{"request_id": requestID, "step_id": stepID, "from": fromUser, "to": toUser})

	if !s.config.EnableDelegation {
		return nil, invalid("delegation", "delegation is disabled")
	}
	if strings.TrimSpace(fromUser) == "" {
		return nil, invalid("fromUser", "is required")
	}
	if strings.TrimSpace(toUser) == "" || toUser == model.SystemActor {
		return nil, invalid("toUser", "is required")
	}
	if fromUser == toUser {
		return nil, invalid("toUser", "must differ from fromUser")
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
		if !step.IsApprover(fromUser) {
			return &PermissionError{Actor: fromUser, Action: "delegate", Reason: "not an approver of step " + step.ID}
		}
		if step.HasResponded(fromUser) {
			return invalid("fromUser", "%s already responded on step %s", fromUser, step.ID)
		}
		if step.IsApprover(toUser) {
			return invalid("toUser", "%s is already an approver of step %s", toUser, step.ID)
		}
		if err := s.checkEligible(ctx, step, toUser); err != nil {
			return err
		}
		for i, approver := range step.Approvers {
			if approver == fromUser {
				step.Approvers[i] = toUser
			}
		}
		tx.record(model.AuditDelegate, fromUser, step.ID, map[string]string{"from": fromUser, "to": toUser})
		tx.emit(event.TopicApprovalDelegated, fromUser, step.ID).
			WithRecipients(toUser).
			WithDetail("from", fromUser).
			WithDetail("to", toUser)
		return nil
	})
	if err != nil {
		return nil, err
	}
	s.logger.Info("approval delegated", append(requestFields(ret, stepID, fromUser), zap.String("to", toUser))...)
	return ret, nil
}

// checkEligible requires the delegate to be an active user holding every
// permission the step requires.
func (s *Service) checkEligible(ctx context.Context, step *model.Step, user string) error {
	u, err := s.identity.Lookup(ctx, user)
	if err != nil {
		if errors.Is(err, identity.ErrUnknownUser) {
			return invalid("toUser", "unknown user %s", user)
		}
		return err
	}
	if !u.Active {
		return &PermissionError{Actor: user, Action: "approve", Reason: "user is inactive"}
	}
	if missing := u.Missing(step.RequiredPermissions); len(missing) > 0 {
		return &PermissionError{Actor: user, Action: "approve", Reason: "missing permissions: " + strings.Join(missing, ", ")}
	}
	return nil
}

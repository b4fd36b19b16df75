package approval

import (
	"context"
	"strings"

	"github.com/viant/signoff/model"
	"github.com/viant/signoff/policy"
	"github.com/viant/signoff/service/event"
	"github.com/viant/signoff/tracing"
)

// WithdrawRequest ends an active request on behalf of its requester or a
// privileged actor and cancels every timer it owns.
func (s *Service) WithdrawRequest(ctx context.Context, requestID, actor, reason string) (ret *model.Request, err error) {
	ctx, span := tracing.StartSpan(ctx, "approval.withdrawRequest")
	defer func() { tracing.EndSpan(span, err) }()
	span.WithAttributes(map[string]string{"request_id": requestID, "actor": actor})

	if strings.TrimSpace(actor) == "" {
		return nil, invalid("actor", "is required")
	}
	if err = s.validateReason("reason", reason); err != nil {
		return nil, err
	}
	ret, err = s.mutate(ctx, requestID, func(tx *transition) error {
		r := tx.request
		if err := requireActive(r); err != nil {
			return err
		}
		if actor != r.Requester && !s.isPrivileged(ctx, actor) {
			return &PermissionError{Actor: actor, Action: "withdraw", Reason: "only the requester or a privileged user may withdraw"}
		}
		stepID := ""
		if step := r.CurrentStep(); step != nil {
			stepID = step.ID
		}
		tx.finish(model.RequestStatusWithdrawn)
		details := map[string]string{}
		if reason != "" {
			details["reason"] = reason
		}
		tx.record(model.AuditWithdraw, actor, stepID, details)
		e := tx.emit(event.TopicRequestWithdrawn, actor, stepID)
		if step := r.CurrentStep(); step != nil {
			e.WithRecipients(step.Approvers...)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	s.logger.Info("request withdrawn", requestFields(ret, "", actor)...)
	return ret, nil
}

func actorFromContext(ctx context.Context) string {
	if current := policy.FromContext(ctx); current != nil {
		return current.ID
	}
	return ""
}

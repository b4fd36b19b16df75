package approval

import (
	"context"
	"time"

	"github.com/viant/signoff/model"
	"github.com/viant/signoff/tracing"
	"go.uber.org/zap"
)

// ProcessResponse records an approver decision on the in-progress step and
// applies the resulting step and request transition atomically.
func (s *Service) ProcessResponse(ctx context.Context, requestID, stepID string, response *model.Response) (ret *model.Request, err error) {
	ctx, span := tracing.StartSpan(ctx, "approval.processResponse")
	defer func() { tracing.EndSpan(span, err) }()
	span.WithAttributes(map[string]string{"request_id": requestID, "step_id": stepID})

	if err = s.validateResponse(response); err != nil {
		return nil, err
	}
	accepted := model.Response{
		Approver: response.Approver,
		Decision: response.Decision,
		Reason:   response.Reason,
	}
	ret, err = s.mutate(ctx, requestID, func(tx *transition) error {
		r := tx.request
		step, _ := r.LookupStep(stepID)
		if step == nil {
			return &NotFoundError{Kind: "step", ID: stepID}
		}
		if pastDue(r, tx.now) {
			return &TimeoutError{RequestID: r.ID, DueDate: *r.DueDate}
		}
		if err := requireActive(r); err != nil {
			return err
		}
		if step.HasResponded(accepted.Approver) {
			return &DuplicateError{RequestID: r.ID, StepID: step.ID, Approver: accepted.Approver}
		}
		step, err := currentStep(r, stepID)
		if err != nil {
			return err
		}
		if !step.IsApprover(accepted.Approver) {
			return &PermissionError{Actor: accepted.Approver, Action: "respond", Reason: "not an approver of step " + step.ID}
		}
		return s.accept(tx, step, accepted)
	})
	if err != nil {
		s.logger.Debug("response refused", zap.String("request_id", requestID), zap.String("step_id", stepID), zap.String("actor", response.Approver), zap.Error(err))
		return nil, err
	}
	s.logger.Info("response processed",
		append(requestFields(ret, stepID, accepted.Approver),
			zap.String("decision", string(accepted.Decision)),
			zap.String("status", string(ret.Status)))...)
	return ret, nil
}

// pastDue reports whether a late response should fail as a timeout: the
// request expired, or is still active with its due date elapsed.
func pastDue(r *model.Request, now time.Time) bool {
	if r.DueDate == nil {
		return false
	}
	if r.Status == model.RequestStatusExpired {
		return true
	}
	return r.Status.IsActive() && !now.Before(*r.DueDate)
}

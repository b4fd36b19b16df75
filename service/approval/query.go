package approval

import (
	"context"
	"fmt"
	"sort"

	"github.com/viant/signoff/model"
	"github.com/viant/signoff/service/dao"
	"github.com/viant/signoff/service/dao/request"
	"github.com/viant/signoff/service/metrics"
)

// Filter narrows ListRequests.
type Filter func(f *filters)

type filters struct {
	parameters []*dao.Parameter
}

// WithStatus keeps requests in any of statuses.
func WithStatus(statuses ...model.RequestStatus) Filter {
	values := make([]string, len(statuses))
	for i, status := range statuses {
		values[i] = string(status)
	}
	return func(f *filters) {
		f.parameters = append(f.parameters, &dao.Parameter{Name: request.FieldStatus, Value: values})
	}
}

// WithRequester keeps requests created by requester.
func WithRequester(requester string) Filter {
	return func(f *filters) {
		f.parameters = append(f.parameters, dao.NewParameter(request.FieldRequester, requester))
	}
}

// WithType keeps requests of any of types.
func WithType(types ...model.RequestType) Filter {
	values := make([]string, len(types))
	for i, kind := range types {
		values[i] = string(kind)
	}
	return func(f *filters) {
		f.parameters = append(f.parameters, &dao.Parameter{Name: request.FieldType, Value: values})
	}
}

// WithPriority keeps requests with any of priorities.
func WithPriority(priorities ...model.Priority) Filter {
	values := make([]string, len(priorities))
	for i, priority := range priorities {
		values[i] = string(priority)
	}
	return func(f *filters) {
		f.parameters = append(f.parameters, &dao.Parameter{Name: request.FieldPriority, Value: values})
	}
}

// GetRequest returns a copy of the request.
func (s *Service) GetRequest(ctx context.Context, id string) (*model.Request, error) {
	return s.load(ctx, id)
}

// GetAllRequests returns every request ordered by creation time.
func (s *Service) GetAllRequests(ctx context.Context) ([]*model.Request, error) {
	return s.ListRequests(ctx)
}

// GetRequestsByStatus returns requests in status.
func (s *Service) GetRequestsByStatus(ctx context.Context, status model.RequestStatus) ([]*model.Request, error) {
	return s.ListRequests(ctx, WithStatus(status))
}

// ListRequests returns requests matching every filter, ordered by creation
// time.
func (s *Service) ListRequests(ctx context.Context, opts ...Filter) ([]*model.Request, error) {
	f := &filters{}
	for _, opt := range opts {
		opt(f)
	}
	requests, err := s.store.List(ctx, f.parameters...)
	if err != nil {
		return nil, fmt.Errorf("failed to list requests: %w", err)
	}
	sort.SliceStable(requests, func(i, j int) bool {
		if requests[i].CreatedAt.Equal(requests[j].CreatedAt) {
			return requests[i].ID < requests[j].ID
		}
		return requests[i].CreatedAt.Before(requests[j].CreatedAt)
	})
	return requests, nil
}

// GetPendingRequestsForUser returns active requests whose in-progress step
// lists user as an approver who has not responded yet.
func (s *Service) GetPendingRequestsForUser(ctx context.Context, user string) ([]*model.Request, error) {
	if user == "" {
		return nil, invalid("user", "is required")
	}
	active, err := s.ListRequests(ctx, WithStatus(model.RequestStatusInProgress, model.RequestStatusEscalated))
	if err != nil {
		return nil, err
	}
	var ret []*model.Request
	for _, r := range active {
		step := r.CurrentStep()
		if step == nil || step.Status != model.StepStatusInProgress {
			continue
		}
		if step.IsApprover(user) && !step.HasResponded(user) {
			ret = append(ret, r)
		}
	}
	return ret, nil
}

// GetMetrics summarizes every stored request.
func (s *Service) GetMetrics(ctx context.Context) (*metrics.Snapshot, error) {
	requests, err := s.GetAllRequests(ctx)
	if err != nil {
		return nil, err
	}
	return metrics.Compute(requests), nil
}

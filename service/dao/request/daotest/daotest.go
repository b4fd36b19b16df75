// Package daotest is a conformance suite shared by request store backends.
package daotest

import (
	"context"
	"errors"
	"sort"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/viant/signoff/model"
	"github.com/viant/signoff/service/dao"
	"github.com/viant/signoff/service/dao/request"
)

// Sample returns a request snapshot with nested steps, responses and audit
// events.
func Sample(id string, status model.RequestStatus, requester string) *model.Request {
	created := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)
	due := created.Add(72 * time.Hour)
	return &model.Request{
		ID:          id,
		Title:       "Change " + id,
		Description: "Update router baseline",
		Type:        model.RequestTypeBaselineChange,
		Priority:    model.PriorityHigh,
		Requester:   requester,
		Status:      status,
		DueDate:     &due,
		Steps: []*model.Step{{
			ID:                "step-1",
			Approvers:         []string{"bob", "carol"},
			RequiredApprovals: 1,
			Status:            model.StepStatusInProgress,
			StartedAt:         &created,
			Responses:         []model.Response{{Approver: "bob", Decision: model.DecisionApprove, Timestamp: created.Add(time.Minute)}},
			Escalation:        &model.EscalationRule{Trigger: model.TriggerTimeout, Action: model.EscalationNotify, EscalateTo: []string{"dave"}, MaxEscalations: 2},
		}},
		AuditTrail: []model.AuditEvent{{ID: "a-1", Timestamp: created, Action: model.AuditCreate, Actor: requester, Details: map[string]string{"title": "Change " + id}}},
		Metadata:   map[string]string{"ticket": "OPS-1"},
		CreatedAt:  created,
		UpdatedAt:  created.Add(time.Minute),
	}
}

// Run exercises Save/Load/List/Delete semantics against svc. The store must
// be empty.
func Run(t *testing.T, svc request.Service) {
	t.Helper()
	ctx := context.Background()

	t.Run("invalid", func(t *testing.T) {
		assert.Error(t, svc.Save(ctx, nil))
		assert.Error(t, svc.Save(ctx, &model.Request{}))
	})

	t.Run("round trip", func(t *testing.T) {
		expected := Sample("r-1", model.RequestStatusInProgress, "alice")
		require.NoError(t, svc.Save(ctx, expected))
		actual, err := svc.Load(ctx, "r-1")
		require.NoError(t, err)
		assert.Equal(t, expected.ID, actual.ID)
		assert.Equal(t, expected.Status, actual.Status)
		assert.Equal(t, expected.Steps[0].Approvers, actual.Steps[0].Approvers)
		assert.Equal(t, expected.Steps[0].Responses[0].Approver, actual.Steps[0].Responses[0].Approver)
		assert.Equal(t, expected.AuditTrail[0].Details, actual.AuditTrail[0].Details)
		assert.True(t, expected.DueDate.Equal(*actual.DueDate))
		assert.True(t, expected.CreatedAt.Equal(actual.CreatedAt))
	})

	t.Run("overwrite", func(t *testing.T) {
		updated := Sample("r-1", model.RequestStatusApproved, "alice")
		require.NoError(t, svc.Save(ctx, updated))
		actual, err := svc.Load(ctx, "r-1")
		require.NoError(t, err)
		assert.Equal(t, model.RequestStatusApproved, actual.Status)
	})

	t.Run("not found", func(t *testing.T) {
		_, err := svc.Load(ctx, "missing")
		assert.True(t, errors.Is(err, dao.ErrNotFound), "got %v", err)
	})

	t.Run("list", func(t *testing.T) {
		require.NoError(t, svc.Save(ctx, Sample("r-2", model.RequestStatusRejected, "bob")))
		require.NoError(t, svc.Save(ctx, Sample("r-3", model.RequestStatusInProgress, "alice")))

		testCases := []struct {
			name       string
			parameters []*dao.Parameter
			expect     []string
		}{
			{name: "all", expect: []string{"r-1", "r-2", "r-3"}},
			{name: "by status", parameters: []*dao.Parameter{dao.NewParameter(request.FieldStatus, string(model.RequestStatusInProgress))}, expect: []string{"r-3"}},
			{name: "by status any of", parameters: []*dao.Parameter{dao.NewParameter(request.FieldStatus, string(model.RequestStatusApproved), string(model.RequestStatusRejected))}, expect: []string{"r-1", "r-2"}},
			{name: "by requester", parameters: []*dao.Parameter{dao.NewParameter(request.FieldRequester, "alice")}, expect: []string{"r-1", "r-3"}},
			{name: "combined", parameters: []*dao.Parameter{dao.NewParameter(request.FieldRequester, "alice"), dao.NewParameter(request.FieldStatus, string(model.RequestStatusApproved))}, expect: []string{"r-1"}},
		}
		for _, tc := range testCases {
			t.Run(tc.name, func(t *testing.T) {
				actual, err := svc.List(ctx, tc.parameters...)
				require.NoError(t, err)
				assert.Equal(t, tc.expect, ids(actual))
			})
		}
	})

	t.Run("delete", func(t *testing.T) {
		require.NoError(t, svc.Delete(ctx, "r-2"))
		_, err := svc.Load(ctx, "r-2")
		assert.True(t, errors.Is(err, dao.ErrNotFound))
		actual, err := svc.List(ctx)
		require.NoError(t, err)
		assert.Equal(t, []string{"r-1", "r-3"}, ids(actual))
	})
}

func ids(requests []*model.Request) []string {
	ret := make([]string, 0, len(requests))
	for _, r := range requests {
		ret = append(ret, r.ID)
	}
	sort.Strings(ret)
	return ret
}

package approval

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/viant/signoff/model"
	"github.com/viant/signoff/service/audit"
	"github.com/viant/signoff/service/event"
)

func approvers(n int) []string {
	ret := make([]string, n)
	for i := range ret {
		ret[i] = fmt.Sprintf("u%d", i+1)
	}
	return ret
}

func TestService_ConcurrentResponses_SingleAdvance(t *testing.T) {
	f := newFixture(t)
	users := approvers(8)
	r := f.create(t, newDraft(newStep(1, users...), newStep(1, "final")))

	var wg sync.WaitGroup
	var mu sync.Mutex
	accepted, refused := 0, 0
	for _, user := range users {
		wg.Add(1)
		go func(user string) {
			defer wg.Done()
			_, err := f.respond(r.ID, "step-1", user, model.DecisionApprove, "")
			mu.Lock()
			defer mu.Unlock()
			if err == nil {
				accepted++
				return
			}
			assert.True(t, errors.Is(err, ErrInvalidState), "got %v", err)
			refused++
		}(user)
	}
	wg.Wait()

	assert.Equal(t, 1, accepted)
	assert.Equal(t, len(users)-1, refused)
	r, err := f.srv.GetRequest(context.Background(), r.ID)
	require.NoError(t, err)
	assert.Len(t, r.Steps[0].Responses, 1)
	assert.Equal(t, 1, r.CurrentStepIndex)
	assert.Equal(t, 2, f.count(r.ID, event.TopicStepStarted))
	assert.Equal(t, 0, f.srv.locks.size())
}

func TestService_ConcurrentResponses_Quorum(t *testing.T) {
	f := newFixture(t)
	users := approvers(6)
	r := f.create(t, newDraft(newStep(3, users...)))

	var wg sync.WaitGroup
	for _, user := range users {
		wg.Add(1)
		go func(user string) {
			defer wg.Done()
			_, _ = f.respond(r.ID, "step-1", user, model.DecisionApprove, "")
		}(user)
	}
	wg.Wait()

	r, err := f.srv.GetRequest(context.Background(), r.ID)
	require.NoError(t, err)
	assert.Equal(t, model.RequestStatusApproved, r.Status)
	assert.Len(t, r.Steps[0].Responses, 3)
	assert.Equal(t, 1, f.count(r.ID, event.TopicRequestApproved))
	assert.NoError(t, audit.Verify(r.AuditTrail))
}

func TestService_IndependentRequestsInParallel(t *testing.T) {
	f := newFixture(t)
	var ids []string
	for i := 0; i < 10; i++ {
		ids = append(ids, f.create(t, newDraft(newStep(1, "u1"))).ID)
	}
	var wg sync.WaitGroup
	for _, id := range ids {
		wg.Add(1)
		go func(id string) {
			defer wg.Done()
			_, err := f.respond(id, "step-1", "u1", model.DecisionApprove, "")
			assert.NoError(t, err)
		}(id)
	}
	wg.Wait()

	approved, err := f.srv.GetRequestsByStatus(context.Background(), model.RequestStatusApproved)
	require.NoError(t, err)
	assert.Len(t, approved, len(ids))
}

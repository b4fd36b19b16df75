package policy

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestPolicy_IsPrivileged(t *testing.T) {
	testCases := []struct {
		name        string
		policy      *Policy
		permissions []string
		expect      bool
	}{
		{name: "nil policy default", permissions: []string{"approval:admin"}, expect: true},
		{name: "nil policy other", permissions: []string{"deploy:approve"}},
		{name: "case insensitive", policy: New(), permissions: []string{"Approval:Admin"}, expect: true},
		{name: "custom list", policy: New("release:owner"), permissions: []string{"release:owner"}, expect: true},
		{name: "custom list excludes default", policy: New("release:owner"), permissions: []string{"approval:admin"}},
		{name: "no permissions", policy: New()},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.expect, tc.policy.IsPrivileged(tc.permissions))
		})
	}
}

func TestContext(t *testing.T) {
	assert.Nil(t, FromContext(context.Background()))
	actor := &Actor{ID: "alice", Permissions: []string{"approval:admin"}}
	ctx := WithActor(context.Background(), actor)
	assert.Equal(t, actor, FromContext(ctx))
}

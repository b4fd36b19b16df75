package policy

import (
	"context"
	"strings"
)

// DefaultPrivileged is the permission granting admin-equivalent rights.
const DefaultPrivileged = "approval:admin"

// Actor is an already-authenticated caller.
type Actor struct {
	ID          string   `json:"id" yaml:"id"`
	Permissions []string `json:"permissions,omitempty" yaml:"permissions,omitempty"`
}

// Policy lists the permissions that make an actor privileged.
//
// A nil *Policy treats DefaultPrivileged as the only privileged permission.
type Policy struct {
	Privileged []string `json:"privileged,omitempty" yaml:"privileged,omitempty"`
}

// New creates a policy, falling back to DefaultPrivileged when empty.
func New(privileged ...string) *Policy {
	if len(privileged) == 0 {
		privileged = []string{DefaultPrivileged}
	}
	return &Policy{Privileged: append([]string(nil), privileged...)}
}

// IsPrivileged reports whether any permission matches a privileged one. Both
// lists match by case-insensitive exact comparison.
func (p *Policy) IsPrivileged(permissions []string) bool {
	privileged := []string{DefaultPrivileged}
	if p != nil && len(p.Privileged) > 0 {
		privileged = p.Privileged
	}
	for _, permission := range permissions {
		normalized := strings.ToLower(permission)
		for _, candidate := range privileged {
			if normalized == strings.ToLower(candidate) {
				return true
			}
		}
	}
	return false
}

type ctxKeyT struct{}

var ctxKey ctxKeyT

// WithActor embeds actor in ctx.
func WithActor(ctx context.Context, actor *Actor) context.Context {
	if ctx == nil {
		ctx = context.Background()
	}
	return context.WithValue(ctx, ctxKey, actor)
}

// FromContext extracts the actor, nil when absent.
func FromContext(ctx context.Context) *Actor {
	if ctx == nil {
		return nil
	}
	if v, ok := ctx.Value(ctxKey).(*Actor); ok {
		return v
	}
	return nil
}

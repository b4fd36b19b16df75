package model

import "time"

// Step is one sequential stage of an approval request.
type Step struct {
	ID                  string          `json:"id" yaml:"id"`
	Name                string          `json:"name,omitempty" yaml:"name,omitempty"`
	Approvers           []string        `json:"approvers" yaml:"approvers"`
	RequiredApprovals   int             `json:"requiredApprovals" yaml:"requiredApprovals"`
	RequiredPermissions []string        `json:"requiredPermissions,omitempty" yaml:"requiredPermissions,omitempty"`
	Responses           []Response      `json:"responses,omitempty" yaml:"responses,omitempty"`
	Status              StepStatus      `json:"status" yaml:"status"`
	TimeoutMinutes      int             `json:"timeoutMinutes,omitempty" yaml:"timeoutMinutes,omitempty"`
	Escalation          *EscalationRule `json:"escalation,omitempty" yaml:"escalation,omitempty"`
	Dependencies        []string        `json:"dependencies,omitempty" yaml:"dependencies,omitempty"`
	Escalations         int             `json:"escalations,omitempty" yaml:"escalations,omitempty"`
	StartedAt           *time.Time      `json:"startedAt,omitempty" yaml:"startedAt,omitempty"`
	ArmedAt             *time.Time      `json:"armedAt,omitempty" yaml:"armedAt,omitempty"`
	CompletedAt         *time.Time      `json:"completedAt,omitempty" yaml:"completedAt,omitempty"`
}

// IsApprover reports whether user holds an approver slot.
func (s *Step) IsApprover(user string) bool {
	for _, candidate := range s.Approvers {
		if candidate == user {
			return true
		}
	}
	return false
}

// HasResponded reports whether user already has an accepted response.
func (s *Step) HasResponded(user string) bool {
	for i := range s.Responses {
		if s.Responses[i].Approver == user {
			return true
		}
	}
	return false
}

// Approvals returns the number of accepted approve responses.
func (s *Step) Approvals() int {
	count := 0
	for i := range s.Responses {
		if s.Responses[i].Decision == DecisionApprove {
			count++
		}
	}
	return count
}

// Rejected reports whether any accepted response is a reject.
func (s *Step) Rejected() bool {
	for i := range s.Responses {
		if s.Responses[i].Decision == DecisionReject {
			return true
		}
	}
	return false
}

// Rearmable reports whether the escalation rule still lets a timer fire: a
// rule without a positive bound escalates once, a bounded rule until the
// bound is reached.
func (s *Step) Rearmable() bool {
	if s.Escalation == nil {
		return false
	}
	if s.Escalations == 0 {
		return true
	}
	return s.Escalation.MaxEscalations > 0 && s.Escalations < s.Escalation.MaxEscalations
}

// Duration returns how long the step was in progress, zero when unfinished.
func (s *Step) Duration() time.Duration {
	if s.StartedAt == nil || s.CompletedAt == nil {
		return 0
	}
	return s.CompletedAt.Sub(*s.StartedAt)
}

// Clone returns a deep copy.
func (s *Step) Clone() *Step {
	ret := *s
	ret.Approvers = append([]string(nil), s.Approvers...)
	ret.RequiredPermissions = append([]string(nil), s.RequiredPermissions...)
	ret.Dependencies = append([]string(nil), s.Dependencies...)
	ret.Responses = append([]Response(nil), s.Responses...)
	ret.Escalation = s.Escalation.Clone()
	ret.StartedAt = cloneTime(s.StartedAt)
	ret.ArmedAt = cloneTime(s.ArmedAt)
	ret.CompletedAt = cloneTime(s.CompletedAt)
	return &ret
}

func cloneTime(t *time.Time) *time.Time {
	if t == nil {
		return nil
	}
	v := *t
	return &v
}

package model

import "time"

// Request is one instance of a multi-step approval workflow.
type Request struct {
	ID               string            `json:"id" yaml:"id"`
	Title            string            `json:"title" yaml:"title"`
	Description      string            `json:"description" yaml:"description"`
	Type             RequestType       `json:"type" yaml:"type"`
	Priority         Priority          `json:"priority" yaml:"priority"`
	Requester        string            `json:"requester" yaml:"requester"`
	Steps            []*Step           `json:"steps" yaml:"steps"`
	CurrentStepIndex int               `json:"currentStepIndex" yaml:"currentStepIndex"`
	Status           RequestStatus     `json:"status" yaml:"status"`
	DueDate          *time.Time        `json:"dueDate,omitempty" yaml:"dueDate,omitempty"`
	AuditTrail       []AuditEvent      `json:"auditTrail" yaml:"auditTrail"`
	Metadata         map[string]string `json:"metadata,omitempty" yaml:"metadata,omitempty"`
	CreatedAt        time.Time         `json:"createdAt" yaml:"createdAt"`
	UpdatedAt        time.Time         `json:"updatedAt" yaml:"updatedAt"`
	CompletedAt      *time.Time        `json:"completedAt,omitempty" yaml:"completedAt,omitempty"`
}

// CurrentStep returns the step under the cursor or nil once past the end.
func (r *Request) CurrentStep() *Step {
	if r.CurrentStepIndex < 0 || r.CurrentStepIndex >= len(r.Steps) {
		return nil
	}
	return r.Steps[r.CurrentStepIndex]
}

// LookupStep returns the step with the given id and its index.
func (r *Request) LookupStep(id string) (*Step, int) {
	for i, step := range r.Steps {
		if step.ID == id {
			return step, i
		}
	}
	return nil, -1
}

// Escalated reports whether any step was ever escalated.
func (r *Request) Escalated() bool {
	for _, step := range r.Steps {
		if step.Escalations > 0 {
			return true
		}
	}
	return false
}

// Duration returns creation-to-completion time, zero while active.
func (r *Request) Duration() time.Duration {
	if r.CompletedAt == nil {
		return 0
	}
	return r.CompletedAt.Sub(r.CreatedAt)
}

// Clone returns a deep copy so callers never share state with the engine.
func (r *Request) Clone() *Request {
	if r == nil {
		return nil
	}
	ret := *r
	ret.Steps = make([]*Step, len(r.Steps))
	for i, step := range r.Steps {
		ret.Steps[i] = step.Clone()
	}
	ret.AuditTrail = make([]AuditEvent, len(r.AuditTrail))
	for i, ev := range r.AuditTrail {
		ret.AuditTrail[i] = ev
		if ev.Details != nil {
			details := make(map[string]string, len(ev.Details))
			for k, v := range ev.Details {
				details[k] = v
			}
			ret.AuditTrail[i].Details = details
		}
	}
	if r.Metadata != nil {
		ret.Metadata = make(map[string]string, len(r.Metadata))
		for k, v := range r.Metadata {
			ret.Metadata[k] = v
		}
	}
	ret.DueDate = cloneTime(r.DueDate)
	ret.CompletedAt = cloneTime(r.CompletedAt)
	return &ret
}

package model

// EscalationTrigger names what caused an escalation.
type EscalationTrigger string

const (
	TriggerTimeout EscalationTrigger = "timeout"
	TriggerManual  EscalationTrigger = "manual"
)

// IsValid reports whether t is a known trigger.
func (t EscalationTrigger) IsValid() bool {
	return t == TriggerTimeout || t == TriggerManual
}

// EscalationAction is what happens when a step escalates.
type EscalationAction string

const (
	EscalationNotify      EscalationAction = "notify"
	EscalationReassign    EscalationAction = "reassign"
	EscalationAutoApprove EscalationAction = "autoApprove"
	EscalationAutoReject  EscalationAction = "autoReject"
)

// IsValid reports whether a is a known action.
func (a EscalationAction) IsValid() bool {
	switch a {
	case EscalationNotify, EscalationReassign, EscalationAutoApprove, EscalationAutoReject:
		return true
	}
	return false
}

// NeedsTargets reports whether the action requires EscalateTo users.
func (a EscalationAction) NeedsTargets() bool {
	return a == EscalationNotify || a == EscalationReassign
}

// EscalationRule describes what happens when a step is escalated.
type EscalationRule struct {
	Trigger        EscalationTrigger `json:"trigger" yaml:"trigger"`
	Action         EscalationAction  `json:"action" yaml:"action"`
	EscalateTo     []string          `json:"escalateTo,omitempty" yaml:"escalateTo,omitempty"`
	MaxEscalations int               `json:"maxEscalations,omitempty" yaml:"maxEscalations,omitempty"`
}

// Clone returns a deep copy.
func (r *EscalationRule) Clone() *EscalationRule {
	if r == nil {
		return nil
	}
	ret := *r
	ret.EscalateTo = append([]string(nil), r.EscalateTo...)
	return &ret
}

package model

import "time"

// Decision is an approver's verdict on a step.
type Decision string

const (
	DecisionApprove Decision = "approve"
	DecisionReject  Decision = "reject"
)

// IsValid reports whether d is approve or reject.
func (d Decision) IsValid() bool {
	return d == DecisionApprove || d == DecisionReject
}

// SystemActor identifies responses and audit events produced by the engine
// itself, e.g. by an escalation timer.
const SystemActor = "system"

// Response is one approver's accepted decision on one step.
type Response struct {
	Approver  string    `json:"approver" yaml:"approver"`
	Decision  Decision  `json:"decision" yaml:"decision"`
	Reason    string    `json:"reason,omitempty" yaml:"reason,omitempty"`
	Timestamp time.Time `json:"timestamp" yaml:"timestamp"`
	Synthetic bool      `json:"synthetic,omitempty" yaml:"synthetic,omitempty"`
}

package model

import "time"

// AuditAction names the state-changing operation recorded by an audit event.
type AuditAction string

const (
	AuditCreate   AuditAction = "create"
	AuditApprove  AuditAction = "approve"
	AuditReject   AuditAction = "reject"
	AuditDelegate AuditAction = "delegate"
	AuditEscalate AuditAction = "escalate"
	AuditWithdraw AuditAction = "withdraw"
	AuditExpire   AuditAction = "expire"
)

// AuditEvent is one append-only entry of a request audit trail.
type AuditEvent struct {
	ID        string            `json:"id" yaml:"id"`
	Timestamp time.Time         `json:"timestamp" yaml:"timestamp"`
	Action    AuditAction       `json:"action" yaml:"action"`
	Actor     string            `json:"actor" yaml:"actor"`
	StepID    string            `json:"stepId,omitempty" yaml:"stepId,omitempty"`
	Details   map[string]string `json:"details,omitempty" yaml:"details,omitempty"`
	PrevHash  string            `json:"prevHash,omitempty" yaml:"prevHash,omitempty"`
	Hash      string            `json:"hash,omitempty" yaml:"hash,omitempty"`
}

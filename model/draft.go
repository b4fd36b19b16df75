package model

import (
	"fmt"
	"time"

	"gopkg.in/yaml.v3"
)

// Draft is the caller-supplied input for creating a request.
type Draft struct {
	Title       string            `json:"title" yaml:"title"`
	Description string            `json:"description" yaml:"description"`
	Type        RequestType       `json:"type,omitempty" yaml:"type,omitempty"`
	Priority    Priority          `json:"priority,omitempty" yaml:"priority,omitempty"`
	Requester   string            `json:"requester" yaml:"requester"`
	Steps       []StepDraft       `json:"steps" yaml:"steps"`
	DueDate     *time.Time        `json:"dueDate,omitempty" yaml:"dueDate,omitempty"`
	Metadata    map[string]string `json:"metadata,omitempty" yaml:"metadata,omitempty"`
}

// StepDraft is the caller-supplied definition of one step.
type StepDraft struct {
	ID                  string          `json:"id,omitempty" yaml:"id,omitempty"`
	Name                string          `json:"name,omitempty" yaml:"name,omitempty"`
	Approvers           []string        `json:"approvers" yaml:"approvers"`
	RequiredApprovals   int             `json:"requiredApprovals" yaml:"requiredApprovals"`
	RequiredPermissions []string        `json:"requiredPermissions,omitempty" yaml:"requiredPermissions,omitempty"`
	TimeoutMinutes      int             `json:"timeoutMinutes,omitempty" yaml:"timeoutMinutes,omitempty"`
	Escalation          *EscalationRule `json:"escalation,omitempty" yaml:"escalation,omitempty"`
	Dependencies        []string        `json:"dependencies,omitempty" yaml:"dependencies,omitempty"`
}

// DecodeDraft parses a YAML (or JSON) draft document.
func DecodeDraft(data []byte) (*Draft, error) {
	draft := &Draft{}
	if err := yaml.Unmarshal(data, draft); err != nil {
		return nil, fmt.Errorf("failed to decode draft: %w", err)
	}
	return draft, nil
}

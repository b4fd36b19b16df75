package approval

import (
	"fmt"

	"github.com/viant/signoff/policy"
)

// Config holds workflow limits and feature switches.
type Config struct {
	MaxSteps              int      `json:"maxSteps,omitempty" yaml:"maxSteps,omitempty"`
	DefaultTimeoutMinutes int      `json:"defaultTimeoutMinutes,omitempty" yaml:"defaultTimeoutMinutes,omitempty"`
	MaxTitleLength        int      `json:"maxTitleLength,omitempty" yaml:"maxTitleLength,omitempty"`
	MaxReasonLength       int      `json:"maxReasonLength,omitempty" yaml:"maxReasonLength,omitempty"`
	EnableDelegation      bool     `json:"enableDelegation" yaml:"enableDelegation"`
	EnableEscalation      bool     `json:"enableEscalation" yaml:"enableEscalation"`
	PrivilegedPermissions []string `json:"privilegedPermissions,omitempty" yaml:"privilegedPermissions,omitempty"`
}

// DefaultConfig returns the standard workflow configuration.
func DefaultConfig() *Config {
	return &Config{
		MaxSteps:              5,
		DefaultTimeoutMinutes: 24 * 60,
		MaxTitleLength:        200,
		MaxReasonLength:       1000,
		EnableDelegation:      true,
		EnableEscalation:      true,
		PrivilegedPermissions: []string{policy.DefaultPrivileged},
	}
}

// Validate checks the configuration is usable.
func (c *Config) Validate() error {
	if c.MaxSteps < 1 {
		return fmt.Errorf("workflow.maxSteps must be positive, got %d", c.MaxSteps)
	}
	if c.DefaultTimeoutMinutes < 1 {
		return fmt.Errorf("workflow.defaultTimeoutMinutes must be positive, got %d", c.DefaultTimeoutMinutes)
	}
	if c.MaxTitleLength < 1 {
		return fmt.Errorf("workflow.maxTitleLength must be positive, got %d", c.MaxTitleLength)
	}
	if c.MaxReasonLength < 1 {
		return fmt.Errorf("workflow.maxReasonLength must be positive, got %d", c.MaxReasonLength)
	}
	return nil
}

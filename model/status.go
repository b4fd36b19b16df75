package model

// RequestStatus is the lifecycle state of an approval request.
type RequestStatus string

const (
	RequestStatusPending    RequestStatus = "pending"
	RequestStatusInProgress RequestStatus = "inProgress"
	RequestStatusApproved   RequestStatus = "approved"
	RequestStatusRejected   RequestStatus = "rejected"
	RequestStatusEscalated  RequestStatus = "escalated"
	RequestStatusWithdrawn  RequestStatus = "withdrawn"
	RequestStatusExpired    RequestStatus = "expired"
)

// RequestStatuses lists every request status in lifecycle order.
var RequestStatuses = []RequestStatus{
	RequestStatusPending,
	RequestStatusInProgress,
	RequestStatusEscalated,
	RequestStatusApproved,
	RequestStatusRejected,
	RequestStatusWithdrawn,
	RequestStatusExpired,
}

// IsTerminal reports whether no further mutation is allowed.
func (s RequestStatus) IsTerminal() bool {
	switch s {
	case RequestStatusApproved, RequestStatusRejected, RequestStatusWithdrawn, RequestStatusExpired:
		return true
	}
	return false
}

// IsActive reports whether the request still accepts responses. Escalated is
// an active sub-state of in-progress.
func (s RequestStatus) IsActive() bool {
	switch s {
	case RequestStatusPending, RequestStatusInProgress, RequestStatusEscalated:
		return true
	}
	return false
}

// StepStatus is the lifecycle state of a single approval step.
type StepStatus string

const (
	StepStatusPending    StepStatus = "pending"
	StepStatusInProgress StepStatus = "inProgress"
	StepStatusCompleted  StepStatus = "completed"
	StepStatusFailed     StepStatus = "failed"
)

// IsTerminal reports whether the step is completed or failed.
func (s StepStatus) IsTerminal() bool {
	return s == StepStatusCompleted || s == StepStatusFailed
}

// RequestType classifies what is being approved.
type RequestType string

const (
	RequestTypeConfigurationChange RequestType = "configurationChange"
	RequestTypeBaselineChange      RequestType = "baselineChange"
	RequestTypeDeployment          RequestType = "deployment"
	RequestTypeAccess              RequestType = "access"
	RequestTypeOther               RequestType = "other"
)

// IsValid reports whether t is a known request type.
func (t RequestType) IsValid() bool {
	switch t {
	case RequestTypeConfigurationChange, RequestTypeBaselineChange, RequestTypeDeployment, RequestTypeAccess, RequestTypeOther:
		return true
	}
	return false
}

// Priority expresses urgency of a request.
type Priority string

const (
	PriorityLow      Priority = "low"
	PriorityMedium   Priority = "medium"
	PriorityHigh     Priority = "high"
	PriorityCritical Priority = "critical"
)

// IsValid reports whether p is a known priority.
func (p Priority) IsValid() bool {
	switch p {
	case PriorityLow, PriorityMedium, PriorityHigh, PriorityCritical:
		return true
	}
	return false
}

package event

import (
	"time"

	"github.com/viant/signoff/model"
)

// Topic names the kind of lifecycle event.
type Topic string

const (
	TopicRequestCreated                 Topic = "requestCreated"
	TopicStepStarted                    Topic = "stepStarted"
	TopicResponseProcessed              Topic = "responseProcessed"
	TopicRequestApproved                Topic = "requestApproved"
	TopicRequestRejected                Topic = "requestRejected"
	TopicRequestWithdrawn               Topic = "requestWithdrawn"
	TopicRequestExpired                 Topic = "requestExpired"
	TopicStepEscalated                  Topic = "stepEscalated"
	TopicEscalationNotificationRequired Topic = "escalationNotificationRequired"
	TopicApprovalDelegated              Topic = "approvalDelegated"
	TopicAuditEventLogged               Topic = "auditEventLogged"
)

// Event is an outbound lifecycle event. Recipients is set for notification
// intents; Audit is set for TopicAuditEventLogged.
type Event struct {
	ID         string              `json:"id"`
	Topic      Topic               `json:"topic"`
	RequestID  string              `json:"requestId"`
	StepID     string              `json:"stepId,omitempty"`
	Actor      string              `json:"actor,omitempty"`
	Status     model.RequestStatus `json:"status,omitempty"`
	Recipients []string            `json:"recipients,omitempty"`
	Audit      *model.AuditEvent   `json:"audit,omitempty"`
	Detail     map[string]string   `json:"detail,omitempty"`
	Timestamp  time.Time           `json:"timestamp"`
}

// NewEvent creates an event for a request.
func NewEvent(topic Topic, requestID string) *Event {
	return &Event{Topic: topic, RequestID: requestID}
}

// WithStep sets the step id.
func (e *Event) WithStep(stepID string) *Event {
	e.StepID = stepID
	return e
}

// WithActor sets the acting user.
func (e *Event) WithActor(actor string) *Event {
	e.Actor = actor
	return e
}

// WithStatus sets the request status observed after the transition.
func (e *Event) WithStatus(status model.RequestStatus) *Event {
	e.Status = status
	return e
}

// WithRecipients sets notification targets.
func (e *Event) WithRecipients(recipients ...string) *Event {
	e.Recipients = append([]string(nil), recipients...)
	return e
}

// WithDetail adds a detail entry.
func (e *Event) WithDetail(key, value string) *Event {
	if e.Detail == nil {
		e.Detail = map[string]string{}
	}
	e.Detail[key] = value
	return e
}

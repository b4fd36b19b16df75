package approval

import (
	"time"

	"github.com/viant/signoff/model"
	"github.com/viant/signoff/service/audit"
	"github.com/viant/signoff/service/event"
)

// transition collects one state change and its deferred effects.
type transition struct {
	request *model.Request
	now     time.Time
	newID   func() string
	audits  []model.AuditEvent
	events  []*event.Event

	cancelAll   bool
	cancelSteps []string
	armSteps    []stepArm
	armDue      bool
}

type stepArm struct {
	stepID string
	after  time.Duration
}

func (s *Service) newTransition(r *model.Request) *transition {
	return &transition{request: r, now: s.clock.Now(), newID: s.newID}
}

func (tx *transition) changed() bool {
	return len(tx.audits) > 0 || len(tx.events) > 0 || tx.cancelAll || len(tx.cancelSteps) > 0 || len(tx.armSteps) > 0 || tx.armDue
}

// record appends a sealed audit entry and its auditEventLogged event.
func (tx *transition) record(action model.AuditAction, actor, stepID string, details map[string]string) {
	trail := tx.request.AuditTrail
	prev := ""
	if len(trail) > 0 {
		prev = trail[len(trail)-1].Hash
	}
	ev := model.AuditEvent{
		ID:        tx.newID(),
		Timestamp: tx.now,
		Action:    action,
		Actor:     actor,
		StepID:    stepID,
		Details:   details,
	}
	audit.Seal(prev, &ev)
	tx.request.AuditTrail = append(tx.request.AuditTrail, ev)
	tx.audits = append(tx.audits, ev)

	logged := ev
	tx.emit(event.TopicAuditEventLogged, actor, stepID).Audit = &logged
}

// emit queues an event stamped with the request status at emission time.
func (tx *transition) emit(topic event.Topic, actor, stepID string) *event.Event {
	e := event.NewEvent(topic, tx.request.ID).WithStep(stepID).WithActor(actor).WithStatus(tx.request.Status)
	e.ID = tx.newID()
	e.Timestamp = tx.now
	tx.events = append(tx.events, e)
	return e
}

func (tx *transition) arm(stepID string, after time.Duration) {
	tx.armSteps = append(tx.armSteps, stepArm{stepID: stepID, after: after})
}

func (tx *transition) cancel(stepID string) {
	tx.cancelSteps = append(tx.cancelSteps, stepID)
}

// finish moves the request into a terminal status and cancels every timer.
func (tx *transition) finish(status model.RequestStatus) {
	tx.request.Status = status
	completed := tx.now
	tx.request.CompletedAt = &completed
	tx.cancelAll = true
	tx.armSteps = nil
	tx.armDue = false
}

// Package metrics derives read-only statistics from a set of approval
// requests.
package metrics

import (
	"time"

	"github.com/viant/signoff/model"
)

// Snapshot is a point-in-time summary of requests.
type Snapshot struct {
	Total                  int                         `json:"total"`
	ByStatus               map[model.RequestStatus]int `json:"byStatus"`
	ByType                 map[model.RequestType]int   `json:"byType"`
	ByPriority             map[model.Priority]int      `json:"byPriority"`
	PassRate               float64                     `json:"passRate"`
	AverageRequestDuration time.Duration               `json:"averageRequestDuration"`
	AverageStepDuration    time.Duration               `json:"averageStepDuration"`
	EscalationRate         float64                     `json:"escalationRate"`
	Escalations            int                         `json:"escalations"`
}

// Compute summarizes requests. Pass rate is approved over approved plus
// rejected; durations only consider finished requests and steps.
func Compute(requests []*model.Request) *Snapshot {
	ret := &Snapshot{
		ByStatus:   map[model.RequestStatus]int{},
		ByType:     map[model.RequestType]int{},
		ByPriority: map[model.Priority]int{},
	}
	var requestTotal, stepTotal time.Duration
	var finished, finishedSteps, escalated int
	for _, r := range requests {
		if r == nil {
			continue
		}
		ret.Total++
		ret.ByStatus[r.Status]++
		ret.ByType[r.Type]++
		ret.ByPriority[r.Priority]++
		if r.CompletedAt != nil {
			finished++
			requestTotal += r.Duration()
		}
		if r.Escalated() {
			escalated++
		}
		for _, step := range r.Steps {
			ret.Escalations += step.Escalations
			if step.StartedAt != nil && step.CompletedAt != nil {
				finishedSteps++
				stepTotal += step.Duration()
			}
		}
	}
	if decided := ret.ByStatus[model.RequestStatusApproved] + ret.ByStatus[model.RequestStatusRejected]; decided > 0 {
		ret.PassRate = float64(ret.ByStatus[model.RequestStatusApproved]) / float64(decided)
	}
	if finished > 0 {
		ret.AverageRequestDuration = requestTotal / time.Duration(finished)
	}
	if finishedSteps > 0 {
		ret.AverageStepDuration = stepTotal / time.Duration(finishedSteps)
	}
	if ret.Total > 0 {
		ret.EscalationRate = float64(escalated) / float64(ret.Total)
	}
	return ret
}

// Package approval implements the approval request engine: multi-step
// sign-off with quorum per step, reject veto, delegation, timed escalation,
// withdrawal and an append-only, hash chained audit trail.
//
// Every mutation of one request is serialized by a per-request lock shared
// with escalation and due-date timers. Transitions are applied to a copy of
// the stored snapshot and only take effect (timers, audit, events) once the
// copy was persisted.
package approval

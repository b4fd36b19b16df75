// Package model contains the data types of the approval engine: requests,
// their ordered steps, approver responses, escalation rules and audit events,
// plus the draft types callers submit to create a request.
//
// Types are plain structs with json and yaml tags so that every storage
// backend can persist a whole request snapshot.
package model

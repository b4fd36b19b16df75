package approval

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

var (
	ErrValidation   = errors.New("validation error")
	ErrNotFound     = errors.New("not found")
	ErrDuplicate    = errors.New("duplicate response")
	ErrInvalidState = errors.New("invalid state")
	ErrTimeout      = errors.New("due date elapsed")
	ErrPermission   = errors.New("permission denied")
)

// ValidationError reports malformed or out of range input.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("validation failed: %s: %s", e.Field, e.Message)
}

func (e *ValidationError) Is(target error) bool { return target == ErrValidation }

func invalid(field, format string, args ...interface{}) *ValidationError {
	return &ValidationError{Field: field, Message: fmt.Sprintf(format, args...)}
}

// NotFoundError reports an unknown request or step.
type NotFoundError struct {
	Kind string
	ID   string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s %s not found", e.Kind, e.ID)
}

func (e *NotFoundError) Is(target error) bool { return target == ErrNotFound }

// DuplicateError reports a repeated vote by one approver on one step.
type DuplicateError struct {
	RequestID string
	StepID    string
	Approver  string
}

func (e *DuplicateError) Error() string {
	return fmt.Sprintf("approver %s already responded on step %s of request %s", e.Approver, e.StepID, e.RequestID)
}

func (e *DuplicateError) Is(target error) bool { return target == ErrDuplicate }

// InvalidStateError reports an operation that is illegal in the current
// request or step state.
type InvalidStateError struct {
	Entity     string
	ID         string
	Current    string
	Allowed    []string
	Disallowed []string
}

func (e *InvalidStateError) Error() string {
	msg := fmt.Sprintf("%s %s is %s", e.Entity, e.ID, e.Current)
	if len(e.Allowed) > 0 {
		msg += ", allowed: " + strings.Join(e.Allowed, ", ")
	}
	if len(e.Disallowed) > 0 {
		msg += ", disallowed: " + strings.Join(e.Disallowed, ", ")
	}
	return msg
}

func (e *InvalidStateError) Is(target error) bool { return target == ErrInvalidState }

// TimeoutError reports a response submitted after the request due date.
type TimeoutError struct {
	RequestID string
	DueDate   time.Time
}

func (e *TimeoutError) Error() string {
	return fmt.Sprintf("request %s was due at %s", e.RequestID, e.DueDate.Format(time.RFC3339))
}

func (e *TimeoutError) Is(target error) bool { return target == ErrTimeout }

// PermissionError reports an actor lacking the right to perform an action.
type PermissionError struct {
	Actor  string
	Action string
	Reason string
}

func (e *PermissionError) Error() string {
	return fmt.Sprintf("%s is not allowed to %s: %s", e.Actor, e.Action, e.Reason)
}

func (e *PermissionError) Is(target error) bool { return target == ErrPermission }

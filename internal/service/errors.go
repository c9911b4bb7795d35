package service

import (
	"errors"
	"fmt"
)

// Domain error taxonomy. Handlers map these to HTTP statuses in one place
// (handler.respondError); services never shape HTTP responses themselves.

// ErrNoOpenRegister signals that no register is currently open. It is a
// normal, expected outcome of GetCurrent — callers must not log or alert
// on it.
var ErrNoOpenRegister = errors.New("no open cash register")

// ValidationError reports malformed input with field-level detail.
type ValidationError struct {
	Fields map[string]string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("validation failed: %v", e.Fields)
}

func newValidationError(field, msg string) *ValidationError {
	return &ValidationError{Fields: map[string]string{field: msg}}
}

// ConflictError reports a violation of the single-open-register rule:
// an open() attempt while another register is already open.
type ConflictError struct {
	Msg string
}

func (e *ConflictError) Error() string { return e.Msg }

// InvalidStateError reports an operation that is not valid for the
// entity's current state (closing a closed register, paying into one).
type InvalidStateError struct {
	Msg string
}

func (e *InvalidStateError) Error() string { return e.Msg }

// NotFoundError reports a missing register or payment.
type NotFoundError struct {
	Entity string
}

func (e *NotFoundError) Error() string { return e.Entity + " not found" }

// InconsistencyError is internal only: the two read paths disagree about
// which register is open. It is resolved by the reconciler and logged for
// operational visibility, never surfaced to end users.
type InconsistencyError struct {
	RegisterID string
}

func (e *InconsistencyError) Error() string {
	return "cash register " + e.RegisterID + " is visible as open in one read path but not the other"
}

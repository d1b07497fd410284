package domain

import (
	"context"
	"errors"
	"fmt"
)

// SubmissionStatusPending is stored with every new request
const SubmissionStatusPending = "pending"

// ConnectorState is the readiness of the remote store connector
type ConnectorState int

const (
	ConnectorUninitialized ConnectorState = iota
	ConnectorReady
	ConnectorUnavailable
)

func (s ConnectorState) String() string {
	switch s {
	case ConnectorReady:
		return "ready"
	case ConnectorUnavailable:
		return "unavailable"
	default:
		return "uninitialized"
	}
}

// WorkflowState is the stage of a submission attempt
type WorkflowState string

const (
	StateIdle       WorkflowState = "idle"
	StateValidating WorkflowState = "validating"
	StateSubmitting WorkflowState = "submitting"
	StateSucceeded  WorkflowState = "succeeded"
	StateFailed     WorkflowState = "failed"
)

// SubmissionOutcome is the result of one submit.
// ID may be a locally generated fallback identifier (Simulated == true),
// callers must not treat it as authoritative.
type SubmissionOutcome struct {
	Succeeded bool   `json:"succeeded"`
	ID        string `json:"id,omitempty"`
	Simulated bool   `json:"simulated,omitempty"`
	Message   string `json:"-"`
	Err       error  `json:"-"`
}

func Succeeded(id string) SubmissionOutcome {
	return SubmissionOutcome{Succeeded: true, ID: id}
}

func SimulatedSuccess(id string) SubmissionOutcome {
	return SubmissionOutcome{Succeeded: true, ID: id, Simulated: true}
}

func Failed(err error) SubmissionOutcome {
	return SubmissionOutcome{Message: err.Error(), Err: err}
}

// AttemptResult summarizes one HandleSubmit call
type AttemptResult struct {
	State      WorkflowState
	Validation ValidationResult
	Outcome    *SubmissionOutcome
	TimedOut   bool
}

// StoreConnector mediates access to the external document store
type StoreConnector interface {
	Initialize(ctx context.Context) ConnectorState
	State() ConnectorState
	Write(ctx context.Context, recordKind string, fields map[string]any) (string, error)
}

var (
	ErrConnectorUnavailable = errors.New("store connector unavailable")
	ErrSubmissionTimedOut   = errors.New("submission timed out")
	ErrUnexpected           = errors.New("unexpected submission failure")
)

// StoreErrorKind classifies remote store rejections
type StoreErrorKind int

const (
	StoreErrorOther StoreErrorKind = iota
	StoreErrorPermissionDenied
)

// StoreError wraps a rejection returned by the remote store
type StoreError struct {
	Kind StoreErrorKind
	Op   string
	Err  error
}

func (e *StoreError) Error() string {
	if e.Kind == StoreErrorPermissionDenied {
		return fmt.Sprintf("store %s: permission denied: %v", e.Op, e.Err)
	}
	return fmt.Sprintf("store %s: %v", e.Op, e.Err)
}

func (e *StoreError) Unwrap() error {
	return e.Err
}

// IsPermissionDenied reports whether err is a permission-denied store rejection
func IsPermissionDenied(err error) bool {
	var se *StoreError
	if errors.As(err, &se) {
		return se.Kind == StoreErrorPermissionDenied
	}
	return false
}

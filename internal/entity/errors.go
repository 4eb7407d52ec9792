package entity

import (
	"errors"
	"fmt"
)

// ValidationError means a local precondition was violated before any
// downstream call was made. The flow stays in its last good state and
// the operation may be retried by the caller.
type ValidationError struct {
	Message string
}

func (e *ValidationError) Error() string {
	return e.Message
}

func NewValidationError(format string, args ...any) *ValidationError {
	return &ValidationError{Message: fmt.Sprintf(format, args...)}
}

// RemoteCallError means a downstream gateway call returned non-success
// or the network failed. Carries the HTTP-like status and a human
// readable message. Non-fatal to the session.
type RemoteCallError struct {
	Status  int
	Message string
}

func (e *RemoteCallError) Error() string {
	if e.Status != 0 {
		return fmt.Sprintf("remote call failed (%d): %s", e.Status, e.Message)
	}
	return fmt.Sprintf("remote call failed: %s", e.Message)
}

// PersistenceError means a save or load failed. Reported to the caller
// but never rolls back already-computed in-memory state.
type PersistenceError struct {
	Op  string
	Err error
}

func (e *PersistenceError) Error() string {
	return fmt.Sprintf("persistence %s: %v", e.Op, e.Err)
}

func (e *PersistenceError) Unwrap() error {
	return e.Err
}

// Domain errors
var (
	// Flow errors
	ErrEmptyIdea           = &ValidationError{Message: "idea must not be empty"}
	ErrInvalidPersonaIndex = &ValidationError{Message: "invalid persona index"}
	ErrEmptyUtterance      = &ValidationError{Message: "message must not be empty"}
	ErrInterviewNotStarted = &ValidationError{Message: "interview has not been started for this persona"}
	ErrEmptyConversation   = &ValidationError{Message: "no conversation to analyze"}
	ErrOperationInFlight   = &ValidationError{Message: "operation already in progress"}
	ErrInvalidFlowStep     = &ValidationError{Message: "operation not allowed at current step"}

	// Session registry errors
	ErrSessionNotFound = errors.New("validation session not found")
	ErrSessionEnded    = errors.New("session has ended")

	// Voice session errors
	ErrVoiceSessionEnded = errors.New("voice session has ended")

	// Record errors
	ErrValidationNotFound = errors.New("validation record not found")
	ErrMissingUserID      = errors.New("user id is required")

	// Request errors
	ErrMissingField  = errors.New("required field is missing")
	ErrInvalidFormat = errors.New("invalid format")
)

// IsRetryable reports whether a gateway error is worth retrying:
// network failures and 5xx responses only.
func IsRetryable(err error) bool {
	var remote *RemoteCallError
	if errors.As(err, &remote) {
		return remote.Status == 0 || remote.Status >= 500
	}
	return false
}

package server

import (
	"errors"
	"fmt"
)

var (
	// ErrInvalidState is returned when an operation is not allowed in the
	// server's current lifecycle state.
	ErrInvalidState = errors.New("invalid server state")

	// ErrUnknownID is returned by Retrieve for an id this server never issued.
	ErrUnknownID = errors.New("unknown task id")

	// ErrAlreadyConsumed is returned by Retrieve for an id whose result was
	// already taken.
	ErrAlreadyConsumed = errors.New("result already consumed")

	// ErrTaskFailed matches every *TaskError via errors.Is.
	ErrTaskFailed = errors.New("task failed")

	// ErrNilTask is returned by Submit when the task body is nil.
	ErrNilTask = errors.New("task body is nil")

	// ErrStopTimeout is returned by Stop when the queue did not drain within
	// the configured stop timeout.
	ErrStopTimeout = errors.New("error in stopping: timeout reached")
)

// TaskError is the error Retrieve returns when a task body failed or panicked.
type TaskError struct {
	ID ID
	// Attempts is how many times the body ran. Zero means it never ran,
	// e.g. because the server context was already cancelled.
	Attempts int
	Err      error
}

func (e *TaskError) Error() string {
	return fmt.Sprintf("task %d failed after %d attempt(s): %v", e.ID, e.Attempts, e.Err)
}

func (e *TaskError) Unwrap() error {
	return e.Err
}

// Is makes errors.Is(err, ErrTaskFailed) true for any *TaskError.
func (e *TaskError) Is(target error) bool {
	return target == ErrTaskFailed
}

// PanicError wraps a value recovered from a panicking task body.
type PanicError struct {
	Value any
	Stack []byte
}

func (e *PanicError) Error() string {
	return fmt.Sprintf("task panic: %v", e.Value)
}

package generation

import (
	"errors"
	"fmt"
)

var (
	// ErrBusy is returned when a network-bound operation is already in
	// flight. Callers may ignore it.
	ErrBusy = errors.New("another operation is in progress")

	// ErrWrongStep is returned when an operation is not allowed in the
	// current step.
	ErrWrongStep = errors.New("operation not allowed in the current step")

	// ErrNoExam is returned when an operation needs a generated exam.
	ErrNoExam = errors.New("no generated exam")

	// ErrNoValidation is returned by Correct when the exam was not reviewed.
	ErrNoValidation = errors.New("exam has not been validated")

	// ErrAlreadySaved is returned by Save once the exam was stored.
	ErrAlreadySaved = errors.New("exam already saved")

	// ErrStale is returned when a response arrived after the session was
	// reset. The response is discarded.
	ErrStale = errors.New("response discarded after reset")

	// ErrUnknownParam is returned by UpdateParam for an unknown key.
	ErrUnknownParam = errors.New("unknown parameter")
)

// TransportError wraps a failure of the generation service or exam storage.
// Session state is left as it was before the operation.
type TransportError struct {
	Op  Op
	Err error
}

func (e *TransportError) Error() string {
	return fmt.Sprintf("%s failed: %v", e.Op, e.Err)
}

func (e *TransportError) Unwrap() error { return e.Err }

package attempt

import (
	"errors"
	"fmt"
)

var (
	ErrNotAuthenticated = errors.New("no user signed in")
	ErrExamNotFound     = errors.New("exam not found")
	ErrNoDraft          = errors.New("no saved draft for this exam")

	// ErrNotInProgress is returned when no attempt is running, or the
	// attempt already finished.
	ErrNotInProgress = errors.New("no attempt in progress")

	// ErrTimeExpired is returned for answer changes after the countdown
	// reached zero.
	ErrTimeExpired = errors.New("time is up")

	ErrOutOfRange = errors.New("index out of range")
	ErrAnswerKind = errors.New("answer does not fit the question type")

	// ErrBusy is returned by Start and Resume while another start is in
	// flight.
	ErrBusy = errors.New("attempt is starting")

	// ErrAlreadySubmitting guards against grading twice. Callers may ignore
	// it.
	ErrAlreadySubmitting = errors.New("submission already in progress")

	// ErrStale is returned when a response arrives after the session was
	// restarted or abandoned. The response is discarded.
	ErrStale = errors.New("response discarded")
)

// TransportError wraps a failure of the exam or draft storage.
type TransportError struct {
	Op  string
	Err error
}

func (e *TransportError) Error() string {
	return fmt.Sprintf("%s: %v", e.Op, e.Err)
}

func (e *TransportError) Unwrap() error { return e.Err }

// AutoSubmitError reports that the submission triggered by the countdown
// failed. The answers are kept and the submission is retried on the next
// tick.
type AutoSubmitError struct {
	Err error
}

func (e *AutoSubmitError) Error() string {
	return fmt.Sprintf("time is up but the answers were not recorded yet: %v", e.Err)
}

func (e *AutoSubmitError) Unwrap() error { return e.Err }

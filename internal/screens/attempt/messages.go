package attempt

import (
	"time"

	"github.com/alexandernovadev/languagesai/internal/exam"
)

// startedMsg is sent when the attempt was started or resumed.
type startedMsg struct {
	Err error
}

// clockTickMsg is sent once per second while the countdown runs.
type clockTickMsg time.Time

// tickDoneMsg is sent after the session processed a clock tick, which may
// have submitted the attempt.
type tickDoneMsg struct {
	Err error
}

// submittedMsg is sent when a manual submission returns.
type submittedMsg struct {
	Attempt *exam.Attempt
	Err     error
}

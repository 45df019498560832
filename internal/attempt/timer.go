package attempt

// Timer is a countdown in whole seconds. It only decrements and reports
// when zero is reached; the owner decides what happens then.
type Timer struct {
	remaining int
	running   bool
}

// NewTimer returns a stopped timer with the given number of seconds left.
func NewTimer(seconds int) *Timer {
	return &Timer{remaining: max(seconds, 0)}
}

// Start runs the timer. A timer with no time left stays stopped.
func (t *Timer) Start() {
	t.running = t.remaining > 0
}

func (t *Timer) Stop() {
	t.running = false
}

// Tick decrements a running timer by one second. It returns true exactly
// once, on the tick that reaches zero, and stops the timer.
func (t *Timer) Tick() bool {
	if !t.running || t.remaining <= 0 {
		return false
	}
	t.remaining--
	if t.remaining == 0 {
		t.running = false
		return true
	}
	return false
}

func (t *Timer) Remaining() int { return t.remaining }

func (t *Timer) Running() bool { return t.running }

package harness

import (
	"sync"
	"sync/atomic"
)

// Outcome is the single accumulator shared by all concurrent attempts.
//
// It holds the completion callback, the first-error slot, the
// quiet-mode flag, and the planned/executed assertion counters.
// The first-error slot is first-write-wins: later writes are ignored.
// The completion callback is invoked exactly once, after teardown, with
// whatever error was first recorded (or nil).
//
// Thread-safety: all methods are safe for concurrent use. Error
// recording is serialized by mutex; assertion counting is atomic.
type Outcome struct {
	mu       sync.Mutex
	firstErr error

	once     sync.Once
	callback func(error)

	quiet bool

	planned  atomic.Int64
	executed atomic.Int64
}

// NewOutcome creates an Outcome with the given completion callback.
// A nil callback is allowed; Complete then only seals the outcome.
func NewOutcome(callback func(error), quiet bool) *Outcome {
	return &Outcome{callback: callback, quiet: quiet}
}

// Quiet reports whether diagnostic notices should be suppressed.
func (o *Outcome) Quiet() bool {
	return o.quiet
}

// Record stores err into the first-error slot unless one is already
// recorded. Nil errors are ignored.
func (o *Outcome) Record(err error) {
	if err == nil {
		return
	}
	o.mu.Lock()
	defer o.mu.Unlock()
	if o.firstErr == nil {
		o.firstErr = err
	}
}

// FirstError returns the first recorded error, or nil.
func (o *Outcome) FirstError() error {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.firstErr
}

// Complete invokes the completion callback with the first recorded
// error. Safe to call more than once; only the first call fires.
func (o *Outcome) Complete() {
	o.once.Do(func() {
		if o.callback != nil {
			o.callback(o.FirstError())
		}
	})
}

// PlanAssertions registers the total number of assertions the run must
// execute. Told up front so a planned/executed mismatch is itself a
// detectable failure.
func (o *Outcome) PlanAssertions(n int) {
	o.planned.Store(int64(n))
}

// CountAssertion marks one assertion as executed.
func (o *Outcome) CountAssertion() {
	o.executed.Add(1)
}

// Planned returns the registered assertion count.
func (o *Outcome) Planned() int {
	return int(o.planned.Load())
}

// Executed returns the number of assertions executed so far.
func (o *Outcome) Executed() int {
	return int(o.executed.Load())
}

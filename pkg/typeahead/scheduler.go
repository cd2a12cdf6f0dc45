package typeahead

// Scheduler defers work to the host's next event-loop turn.
// Detection after a buffer change always goes through it, never runs inline,
// because hosts may only settle the caret after the change handler returns.
type Scheduler interface {
	Defer(task func())
}

// SchedulerFunc adapts a function to Scheduler.
type SchedulerFunc func(task func())

func (f SchedulerFunc) Defer(task func()) {
	f(task)
}

// NextTurn is a single-slot scheduler: deferring replaces whatever was pending,
// and the host runs the survivor with Flush on its next loop turn.
type NextTurn struct {
	pending func()
}

func (n *NextTurn) Defer(task func()) {
	n.pending = task
}

// Pending reports whether a task waits for Flush.
func (n *NextTurn) Pending() bool {
	return n.pending != nil
}

// Flush runs the pending task, if any, and reports whether one ran.
func (n *NextTurn) Flush() bool {
	task := n.pending
	n.pending = nil
	if task == nil {
		return false
	}
	task()
	return true
}

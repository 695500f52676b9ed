package runtime

import (
	"fmt"
	"runtime/debug"
	"sync"

	"github.com/odvcencio/tinydesk/pkg/logging"
	"github.com/odvcencio/tinydesk/pkg/telemetry"
)

// Scheduler defers work until the current dispatch pass has returned.
// Touch handlers receive a Scheduler instead of the tree they live in.
type Scheduler interface {
	Queue(fn func())
}

// SchedulerFunc adapts a function to Scheduler.
type SchedulerFunc func(fn func())

// Queue calls f(fn).
func (f SchedulerFunc) Queue(fn func()) { f(fn) }

// ActionQueue is a FIFO of deferred callbacks drained by the UI goroutine.
type ActionQueue struct {
	mu      sync.Mutex
	pending []func()
	logger  *logging.Logger
	panics  int
}

// NewActionQueue creates an empty queue.
func NewActionQueue(logger *logging.Logger) *ActionQueue {
	return &ActionQueue{logger: logging.OrNop(logger)}
}

// Queue appends fn. Nil callbacks are ignored.
func (q *ActionQueue) Queue(fn func()) {
	if fn == nil {
		return
	}
	q.mu.Lock()
	q.pending = append(q.pending, fn)
	q.mu.Unlock()
}

// Len returns the number of callbacks waiting for the next drain.
func (q *ActionQueue) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.pending)
}

// Panics returns how many callbacks have panicked so far.
func (q *ActionQueue) Panics() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.panics
}

// Execute runs every callback queued before the call, in order, and returns
// how many ran. Callbacks queued while draining wait for the next Execute.
func (q *ActionQueue) Execute() int {
	q.mu.Lock()
	batch := q.pending
	q.pending = nil
	q.mu.Unlock()

	for _, fn := range batch {
		q.run(fn)
	}
	telemetry.ActionsExecuted.Add(float64(len(batch)))
	return len(batch)
}

func (q *ActionQueue) run(fn func()) {
	defer func() {
		if r := recover(); r != nil {
			q.mu.Lock()
			q.panics++
			q.mu.Unlock()
			telemetry.ActionsPanicked.Inc()
			q.logger.Error("deferred action panicked",
				"panic", fmt.Sprint(r),
				"stack", string(debug.Stack()))
		}
	}()
	fn()
}

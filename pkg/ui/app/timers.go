package app

import (
	"sync"
	"sync/atomic"
	"time"
)

// Timers is a set of cooperative periodic callbacks.
//
// A ticker goroutine per timer only raises a fired flag. Tick, called from
// the UI goroutine, clears the flags and runs the callbacks, so callbacks
// never run concurrently with the element tree.
type Timers struct {
	mu     sync.Mutex
	timers []*timer
}

type timer struct {
	fn    func()
	fired atomic.Bool
	stop  chan struct{}
	once  sync.Once
}

// Schedule runs fn every interval, starting one interval from now.
// It returns a function that cancels just this timer.
func (t *Timers) Schedule(interval time.Duration, fn func()) (cancel func()) {
	if interval <= 0 || fn == nil {
		return func() {}
	}
	tm := &timer{fn: fn, stop: make(chan struct{})}
	t.mu.Lock()
	t.timers = append(t.timers, tm)
	t.mu.Unlock()

	go func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C:
				tm.fired.Store(true)
			case <-tm.stop:
				return
			}
		}
	}()
	return func() { t.cancel(tm) }
}

func (t *Timers) cancel(tm *timer) {
	tm.once.Do(func() { close(tm.stop) })
	t.mu.Lock()
	defer t.mu.Unlock()
	for i, cur := range t.timers {
		if cur == tm {
			t.timers = append(t.timers[:i], t.timers[i+1:]...)
			break
		}
	}
}

// Tick runs the callbacks of fired timers and reports whether any ran.
func (t *Timers) Tick() bool {
	if t == nil {
		return false
	}
	t.mu.Lock()
	due := make([]*timer, 0, len(t.timers))
	for _, tm := range t.timers {
		if tm.fired.CompareAndSwap(true, false) {
			due = append(due, tm)
		}
	}
	t.mu.Unlock()
	for _, tm := range due {
		tm.fn()
	}
	return len(due) > 0
}

// Len returns the number of live timers.
func (t *Timers) Len() int {
	if t == nil {
		return 0
	}
	t.mu.Lock()
	defer t.mu.Unlock()
	return len(t.timers)
}

// Stop cancels every timer.
func (t *Timers) Stop() {
	if t == nil {
		return
	}
	t.mu.Lock()
	timers := t.timers
	t.timers = nil
	t.mu.Unlock()
	for _, tm := range timers {
		tm.once.Do(func() { close(tm.stop) })
	}
}

// Fire marks every timer as fired so the next Tick runs them all.
func (t *Timers) Fire() {
	if t == nil {
		return
	}
	t.mu.Lock()
	defer t.mu.Unlock()
	for _, tm := range t.timers {
		tm.fired.Store(true)
	}
}

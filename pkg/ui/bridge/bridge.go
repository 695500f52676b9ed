// Package bridge lets goroutines other than the UI goroutine run code
// against the element tree. A call is queued, the UI goroutine runs it on
// its next tick, and the caller blocks until it has run.
package bridge

import (
	"context"
	"fmt"
	"runtime/debug"
	"sync"
	"sync/atomic"
	"time"

	"github.com/odvcencio/tinydesk/pkg/errors"
	"github.com/odvcencio/tinydesk/pkg/logging"
	"github.com/odvcencio/tinydesk/pkg/telemetry"
)

// DefaultQueueSize is the number of calls that may wait for the UI
// goroutine before PostSync blocks.
const DefaultQueueSize = 8

type uiKey struct{ b *Bridge }

type call struct {
	fn      func() error
	err     error
	claimed atomic.Bool
	done    chan struct{}
	posted  time.Time
}

// claim gives exactly one goroutine the right to run the call.
func (c *call) claim() bool { return c.claimed.CompareAndSwap(false, true) }

// Bridge marshals calls onto the UI goroutine.
type Bridge struct {
	calls    chan *call
	log      *logging.Logger
	attached atomic.Bool

	mu       sync.Mutex
	detached chan struct{}
	uiCtx    context.Context
}

// New creates a bridge whose queue holds size calls.
func New(size int, logger *logging.Logger) *Bridge {
	if size <= 0 {
		size = DefaultQueueSize
	}
	return &Bridge{
		calls:    make(chan *call, size),
		log:      logging.OrNop(logger).Component("bridge"),
		detached: make(chan struct{}),
	}
}

// Attach registers the calling goroutine as the UI goroutine. The returned
// context marks code running there; PostSync with such a context runs
// inline instead of queueing behind itself.
func (b *Bridge) Attach(ctx context.Context) context.Context {
	b.mu.Lock()
	select {
	case <-b.detached:
		b.detached = make(chan struct{})
	default:
	}
	b.mu.Unlock()
	ui := context.WithValue(ctx, uiKey{}, uiKey{b: b})
	b.mu.Lock()
	b.uiCtx = ui
	b.mu.Unlock()
	b.attached.Store(true)
	return ui
}

// UIContext returns the context handed out by the current Attach, or a
// background context when nothing is attached. Code that only ever runs on
// the UI goroutine, such as touch handlers, uses it to call back through
// the bridge without queueing behind itself.
func (b *Bridge) UIContext() context.Context {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.uiCtx == nil || !b.attached.Load() {
		return context.Background()
	}
	return b.uiCtx
}

// Detach unregisters the UI goroutine. Calls still queued run here, and
// later calls run on their callers.
func (b *Bridge) Detach() {
	if !b.attached.CompareAndSwap(true, false) {
		return
	}
	b.mu.Lock()
	close(b.detached)
	b.uiCtx = nil
	b.mu.Unlock()
	b.Drain()
}

// Attached reports whether a UI goroutine is registered.
func (b *Bridge) Attached() bool { return b.attached.Load() }

// OnUI reports whether ctx was derived from this bridge's Attach.
func (b *Bridge) OnUI(ctx context.Context) bool {
	if ctx == nil {
		return false
	}
	k, ok := ctx.Value(uiKey{}).(uiKey)
	return ok && k.b == b
}

func (b *Bridge) detachedCh() chan struct{} {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.detached
}

// PostSync runs fn on the UI goroutine and waits for it. It runs fn inline
// when ctx belongs to the UI goroutine or no UI goroutine is attached.
//
// ctx only bounds the wait for queue space; once queued the call runs.
func (b *Bridge) PostSync(ctx context.Context, fn func() error) error {
	if fn == nil {
		return nil
	}
	if b.OnUI(ctx) || !b.attached.Load() {
		telemetry.BridgeCalls.WithLabelValues("inline").Inc()
		return b.run(fn)
	}

	c := &call{fn: fn, done: make(chan struct{}), posted: time.Now()}
	detached := b.detachedCh()
	select {
	case b.calls <- c:
	case <-detached:
		telemetry.BridgeCalls.WithLabelValues("inline").Inc()
		b.log.Debug("ui goroutine gone, running call inline")
		return b.run(fn)
	case <-ctx.Done():
		telemetry.BridgeCalls.WithLabelValues("canceled").Inc()
		return errors.Wrap(ctx.Err(), errors.ErrCodeBridgeClosed, "waiting for ui queue")
	}
	telemetry.BridgeCalls.WithLabelValues("queued").Inc()

	select {
	case <-c.done:
	case <-detached:
		if c.claim() {
			b.log.Debug("ui goroutine detached with call queued, running inline")
			c.err = b.run(fn)
			close(c.done)
		}
		<-c.done
	}
	telemetry.BridgeWait.Observe(time.Since(c.posted).Seconds())
	return c.err
}

// Drain runs every queued call. It is called by the UI goroutine once per
// tick and returns the number of calls run.
func (b *Bridge) Drain() int {
	n := 0
	for {
		select {
		case c := <-b.calls:
			if !c.claim() {
				continue
			}
			c.err = b.run(c.fn)
			close(c.done)
			n++
		default:
			return n
		}
	}
}

// Pending returns the number of queued calls.
func (b *Bridge) Pending() int { return len(b.calls) }

func (b *Bridge) run(fn func() error) (err error) {
	defer func() {
		if r := recover(); r != nil {
			b.log.Error("bridge call panicked", "panic", r, "stack", string(debug.Stack()))
			err = errors.New(errors.ErrCodeInternal, fmt.Sprintf("ui call panicked: %v", r))
		}
	}()
	return fn()
}

// Call runs fn on the UI goroutine and returns its result.
func Call[T any](ctx context.Context, b *Bridge, fn func() (T, error)) (T, error) {
	var out T
	err := b.PostSync(ctx, func() error {
		v, err := fn()
		out = v
		return err
	})
	return out, err
}

// Do is PostSync for calls that cannot fail.
func Do(ctx context.Context, b *Bridge, fn func()) error {
	return b.PostSync(ctx, func() error {
		fn()
		return nil
	})
}

// Package script lets remote clients build an application's widget tree
// one command at a time. Elements are referred to by opaque handles so a
// client never holds a pointer into the tree, and a handle to an element
// that has since gone away fails instead of reaching freed state.
package script

import (
	"fmt"

	"github.com/odvcencio/tinydesk/pkg/errors"
	"github.com/odvcencio/tinydesk/pkg/ui/widgets"
)

// Handle refers to an element in a Handles table. The low 32 bits are the
// slot, the high 32 bits the slot's generation when the handle was issued.
type Handle uint64

// Root is the handle of the table's root container.
const Root Handle = 0

// ErrNotFound is returned for a handle that is out of range, invalidated
// or stale. Match it with errors.Is.
var ErrNotFound = errors.New(errors.ErrCodeHandleNotFound, "handle not found")

func (h Handle) slot() uint32 { return uint32(h) }
func (h Handle) gen() uint32  { return uint32(h >> 32) }

func makeHandle(slot, gen uint32) Handle { return Handle(uint64(gen)<<32 | uint64(slot)) }

// String renders the handle as the integer clients send back.
func (h Handle) String() string { return fmt.Sprintf("%d", uint64(h)) }

type slot struct {
	el  widgets.Element
	gen uint32
}

// Handles is a generation-checked handle table. Slot 0 is the root and is
// only ever reachable through Root. Like the tree it indexes, it must only
// be used from the UI goroutine.
type Handles struct {
	root  *widgets.Container
	slots []slot
	free  []uint32
	live  int
}

// NewHandles creates an empty table.
func NewHandles() *Handles {
	return &Handles{slots: make([]slot, 1)}
}

// SetRoot sets the container reached through Root.
func (t *Handles) SetRoot(c *widgets.Container) { t.root = c }

// Add registers el and returns its handle.
func (t *Handles) Add(el widgets.Element) Handle {
	var i uint32
	if n := len(t.free); n > 0 {
		i = t.free[n-1]
		t.free = t.free[:n-1]
	} else {
		t.slots = append(t.slots, slot{gen: 1})
		i = uint32(len(t.slots) - 1)
	}
	t.slots[i].el = el
	t.live++
	return makeHandle(i, t.slots[i].gen)
}

// Get resolves h.
func (t *Handles) Get(h Handle) (widgets.Element, error) {
	if h == Root {
		if t.root == nil {
			return nil, notFound(h)
		}
		return t.root, nil
	}
	i := h.slot()
	if i == 0 || int(i) >= len(t.slots) {
		return nil, notFound(h)
	}
	s := t.slots[i]
	if s.el == nil || s.gen != h.gen() {
		return nil, notFound(h)
	}
	return s.el, nil
}

func notFound(h Handle) error {
	return errors.Newf(errors.ErrCodeHandleNotFound, "handle %d not found", uint64(h))
}

func wrongKind(h Handle, el widgets.Element, want string) error {
	return errors.Newf(errors.ErrCodeHandleKind, "handle %d is a %T, not a %s", uint64(h), el, want)
}

// Container resolves h to a container. Popups count as containers and a
// scrollable resolves to its content.
func (t *Handles) Container(h Handle) (*widgets.Container, error) {
	el, err := t.Get(h)
	if err != nil {
		return nil, err
	}
	switch c := el.(type) {
	case *widgets.Container:
		return c, nil
	case *widgets.Popup:
		return &c.Container, nil
	case *widgets.Scrollable:
		return c.Content(), nil
	default:
		return nil, wrongKind(h, el, "container")
	}
}

// Label resolves h to a label.
func (t *Handles) Label(h Handle) (*widgets.Label, error) {
	el, err := t.Get(h)
	if err != nil {
		return nil, err
	}
	l, ok := el.(*widgets.Label)
	if !ok {
		return nil, wrongKind(h, el, "label")
	}
	return l, nil
}

// Button resolves h to a button.
func (t *Handles) Button(h Handle) (*widgets.Button, error) {
	el, err := t.Get(h)
	if err != nil {
		return nil, err
	}
	b, ok := el.(*widgets.Button)
	if !ok {
		return nil, wrongKind(h, el, "button")
	}
	return b, nil
}

// Scrollable resolves h to a scrollable.
func (t *Handles) Scrollable(h Handle) (*widgets.Scrollable, error) {
	el, err := t.Get(h)
	if err != nil {
		return nil, err
	}
	sc, ok := el.(*widgets.Scrollable)
	if !ok {
		return nil, wrongKind(h, el, "scrollable")
	}
	return sc, nil
}

// Invalidate drops h. The slot is reused with a new generation, so h and
// any copy of it stay invalid. It reports whether h was live.
func (t *Handles) Invalidate(h Handle) bool {
	if h == Root {
		live := t.root != nil
		t.root = nil
		return live
	}
	if _, err := t.Get(h); err != nil {
		return false
	}
	i := h.slot()
	t.slots[i].el = nil
	t.slots[i].gen++
	t.free = append(t.free, i)
	t.live--
	return true
}

// InvalidateAll drops every handle, the root included.
func (t *Handles) InvalidateAll() {
	t.root = nil
	for i := 1; i < len(t.slots); i++ {
		if t.slots[i].el != nil {
			t.slots[i].el = nil
			t.slots[i].gen++
			t.free = append(t.free, uint32(i))
		}
	}
	t.live = 0
}

// Len returns the number of live handles, not counting the root.
func (t *Handles) Len() int { return t.live }

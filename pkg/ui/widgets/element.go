// Package widgets is the retained element tree of the desktop: containers,
// scroll viewports, controls and the menu and keyboard overlays.
//
// Elements are owned by exactly one parent and are only ever touched from
// the UI goroutine. Touch handlers get a runtime.Scheduler rather than
// access to the tree; anything that adds, removes or moves elements is
// queued and runs after the dispatch that triggered it has returned.
package widgets

import "github.com/odvcencio/tinydesk/pkg/ui/runtime"

// Element is a drawable, touchable node.
type Element interface {
	Bounds() runtime.Rect
	SetBounds(r runtime.Rect)
	Contains(x, y int) bool

	Mounted() bool
	Mount()
	Unmount()

	// Draw paints the element. It may run several times per frame (once
	// per strip) and must only read state.
	Draw(c *runtime.Canvas)

	TouchBegin(s runtime.Scheduler, x, y int)
	TouchEnd(s runtime.Scheduler, x, y int)
}

// Dragger is implemented by elements that follow the pointer between
// touch-begin and touch-end.
type Dragger interface {
	TouchMove(s runtime.Scheduler, x, y int)
}

// Destroyer is implemented by elements holding resources or children that
// must be released when their parent drops them.
type Destroyer interface {
	Destroy()
}

// Base carries the bounds and mount state every element needs.
// Embed it and implement Draw.
type Base struct {
	bounds  runtime.Rect
	mounted bool
}

// Bounds returns the element's screen rectangle.
func (b *Base) Bounds() runtime.Rect { return b.bounds }

// SetBounds sets the element's screen rectangle.
func (b *Base) SetBounds(r runtime.Rect) { b.bounds = r }

// Contains is the inclusive-exclusive hit test against the bounds.
func (b *Base) Contains(x, y int) bool { return b.bounds.Contains(x, y) }

// Mounted reports whether the element is part of a displayed tree.
func (b *Base) Mounted() bool { return b.mounted }

// Mount marks the element as displayed.
func (b *Base) Mount() { b.mounted = true }

// Unmount marks the element as removed from display.
func (b *Base) Unmount() { b.mounted = false }

// TouchBegin does nothing.
func (b *Base) TouchBegin(runtime.Scheduler, int, int) {}

// TouchEnd does nothing.
func (b *Base) TouchEnd(runtime.Scheduler, int, int) {}

func destroy(el Element) {
	if d, ok := el.(Destroyer); ok {
		d.Destroy()
	}
}

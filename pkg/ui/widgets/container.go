package widgets

import (
	"slices"

	"github.com/odvcencio/tinydesk/pkg/ui/backend"
	"github.com/odvcencio/tinydesk/pkg/ui/runtime"
)

// TouchHandler is a container-level touch hook.
type TouchHandler func(s runtime.Scheduler, x, y int)

// Container owns an ordered list of children. Mounting, drawing and touch
// dispatch propagate to them in insertion order.
type Container struct {
	Base
	children []Element
	latched  []Element

	background    backend.Color
	hasBackground bool

	onTouch   TouchHandler
	onRelease TouchHandler
}

// NewContainer creates an empty container.
func NewContainer() *Container {
	return &Container{}
}

// SetBackground fills the container's bounds before its children draw.
func (c *Container) SetBackground(color backend.Color) {
	c.background = color
	c.hasBackground = true
}

// ClearBackground stops filling the bounds.
func (c *Container) ClearBackground() { c.hasBackground = false }

// OnTouch sets a hook run on touch-begin before the children see it.
func (c *Container) OnTouch(h TouchHandler) { c.onTouch = h }

// OnRelease sets a hook run on touch-end before the children see it.
func (c *Container) OnRelease(h TouchHandler) { c.onRelease = h }

// Add takes ownership of el, mounting it when the container is mounted,
// and returns it.
func (c *Container) Add(el Element) Element {
	if el == nil {
		return nil
	}
	if c.mounted {
		el.Mount()
	}
	c.children = append(c.children, el)
	return el
}

// Remove unmounts and destroys el. It reports whether el was a child.
func (c *Container) Remove(el Element) bool {
	i := slices.Index(c.children, el)
	if i < 0 {
		return false
	}
	c.children = slices.Delete(c.children, i, i+1)
	c.latched = slices.DeleteFunc(c.latched, func(e Element) bool { return e == el })
	if el.Mounted() {
		el.Unmount()
	}
	destroy(el)
	return true
}

// Clear removes and destroys every child.
func (c *Container) Clear() {
	children := c.children
	c.children = nil
	c.latched = nil
	for _, el := range children {
		if el.Mounted() {
			el.Unmount()
		}
		destroy(el)
	}
}

// Destroy unmounts the container and destroys its children.
func (c *Container) Destroy() {
	c.Unmount()
	c.Clear()
}

// Children returns a snapshot of the children in insertion order.
func (c *Container) Children() []Element {
	return slices.Clone(c.children)
}

// Len returns the number of children.
func (c *Container) Len() int { return len(c.children) }

// ContentBottom is the lowest bottom edge among the children, or the
// container's top when it has none.
func (c *Container) ContentBottom() int {
	bottom := c.bounds.Y
	for _, el := range c.children {
		bottom = max(bottom, el.Bounds().Bottom())
	}
	return bottom
}

// Mount mounts the container and its children. Mounting twice is a no-op.
func (c *Container) Mount() {
	if c.mounted {
		return
	}
	c.mounted = true
	for _, el := range c.children {
		el.Mount()
	}
}

// Unmount unmounts the children, then the container. Unmounting twice is
// a no-op.
func (c *Container) Unmount() {
	if !c.mounted {
		return
	}
	for _, el := range c.children {
		el.Unmount()
	}
	c.mounted = false
	c.latched = nil
}

// Draw paints the background and the children that intersect the clip.
func (c *Container) Draw(cv *runtime.Canvas) {
	if !c.mounted {
		return
	}
	if c.hasBackground {
		cv.Fill(c.bounds, c.background)
	}
	for _, el := range c.children {
		if el.Mounted() && cv.Visible(el.Bounds()) {
			el.Draw(cv)
		}
	}
}

// TouchBegin forwards to every child containing the point.
func (c *Container) TouchBegin(s runtime.Scheduler, x, y int) {
	if !c.mounted {
		return
	}
	if c.onTouch != nil {
		c.onTouch(s, x, y)
	}
	c.latched = c.latched[:0]
	for _, el := range c.children {
		if el.Contains(x, y) {
			el.TouchBegin(s, x, y)
			c.latched = append(c.latched, el)
		}
	}
}

// TouchMove forwards to the children that accepted the touch-begin.
func (c *Container) TouchMove(s runtime.Scheduler, x, y int) {
	if !c.mounted {
		return
	}
	for _, el := range c.latched {
		if d, ok := el.(Dragger); ok {
			d.TouchMove(s, x, y)
		}
	}
}

// TouchEnd forwards to every child; children track their own pressed state.
func (c *Container) TouchEnd(s runtime.Scheduler, x, y int) {
	if !c.mounted {
		return
	}
	if c.onRelease != nil {
		c.onRelease(s, x, y)
	}
	for _, el := range c.children {
		el.TouchEnd(s, x, y)
	}
	c.latched = c.latched[:0]
}

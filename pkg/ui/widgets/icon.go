package widgets

import (
	"unicode/utf8"

	"github.com/odvcencio/tinydesk/pkg/ui/runtime"
)

// IconDrawer paints an icon into r.
type IconDrawer func(c *runtime.Canvas, r runtime.Rect)

// Icon is a tappable glyph drawn by a callback.
type Icon struct {
	Base
	name    string
	draw    IconDrawer
	onTap   func()
	pressed bool
}

// NewIcon creates an icon. A nil drawer draws the name's first letter.
func NewIcon(name string, draw IconDrawer) *Icon {
	return &Icon{name: name, draw: draw}
}

// Name returns the icon name.
func (i *Icon) Name() string { return i.name }

// SetOnTap sets the callback queued when the icon is tapped.
func (i *Icon) SetOnTap(fn func()) { i.onTap = fn }

// Draw paints the icon.
func (i *Icon) Draw(c *runtime.Canvas) {
	if !i.mounted {
		return
	}
	c.PushClip(i.bounds)
	defer c.PopClip()
	if i.draw != nil {
		i.draw(c, i.bounds)
		return
	}
	DefaultIcon(c, i.bounds, i.name)
}

// DefaultIcon draws a raised tile with the first letter of name.
func DefaultIcon(c *runtime.Canvas, r runtime.Rect, name string) {
	c.Bevel(r, c.Palette().ButtonFace, false)
	letter, _ := utf8.DecodeRuneInString(name)
	if letter == utf8.RuneError {
		return
	}
	c.TextCentered(r, string(letter), c.Palette().Text, c.Palette().ButtonFace)
}

// TouchBegin arms the tap.
func (i *Icon) TouchBegin(_ runtime.Scheduler, x, y int) {
	if i.mounted && i.Contains(x, y) {
		i.pressed = true
	}
}

// TouchEnd queues the tap callback when released inside.
func (i *Icon) TouchEnd(s runtime.Scheduler, x, y int) {
	if i.mounted && i.pressed && i.Contains(x, y) && i.onTap != nil {
		s.Queue(i.onTap)
	}
	i.pressed = false
}

package widgets

import (
	"github.com/odvcencio/tinydesk/pkg/ui/backend"
	"github.com/odvcencio/tinydesk/pkg/ui/runtime"
)

// Button is a bevelled push button. It presses on touch-begin and, if the
// touch ends inside it, queues its click callback.
type Button struct {
	Base
	label   string
	onClick func()
	pressed bool
	face    backend.Color
	fg      backend.Color
}

// NewButton creates a button.
func NewButton(label string, onClick func()) *Button {
	return &Button{
		label:   label,
		onClick: onClick,
		face:    backend.ColorDefault,
		fg:      backend.ColorDefault,
	}
}

// Label returns the caption.
func (b *Button) Label() string { return b.label }

// SetLabel replaces the caption.
func (b *Button) SetLabel(label string) { b.label = label }

// SetOnClick replaces the click callback.
func (b *Button) SetOnClick(fn func()) { b.onClick = fn }

// SetColors overrides the face and caption colours.
func (b *Button) SetColors(face, fg backend.Color) {
	b.face, b.fg = face, fg
}

// Colors returns the face and caption overrides.
func (b *Button) Colors() (face, fg backend.Color) { return b.face, b.fg }

// Pressed reports whether a touch is holding the button down.
func (b *Button) Pressed() bool { return b.pressed }

// Unmount releases the button.
func (b *Button) Unmount() {
	b.pressed = false
	b.Base.Unmount()
}

// Draw paints the bevel and the centred caption.
func (b *Button) Draw(c *runtime.Canvas) {
	if !b.mounted || b.bounds.Empty() {
		return
	}
	p := c.Palette()
	face, fg := b.face, b.fg
	if face == backend.ColorDefault {
		face = p.ButtonFace
	}
	if fg == backend.ColorDefault {
		fg = p.Text
	}
	c.Bevel(b.bounds, face, b.pressed)

	text := b.bounds
	if b.pressed && text.Width > 2 && text.Height > 2 {
		text = text.Translate(1, 1)
	}
	c.PushClip(b.bounds)
	c.TextCentered(text, b.label, fg, face)
	c.PopClip()
}

// TouchBegin presses the button.
func (b *Button) TouchBegin(_ runtime.Scheduler, x, y int) {
	if b.mounted && b.Contains(x, y) {
		b.pressed = true
	}
}

// TouchEnd releases the button and queues the click when the touch ended
// inside it.
func (b *Button) TouchEnd(s runtime.Scheduler, x, y int) {
	if !b.mounted {
		return
	}
	if b.pressed && b.Contains(x, y) && b.onClick != nil {
		s.Queue(b.onClick)
	}
	b.pressed = false
}

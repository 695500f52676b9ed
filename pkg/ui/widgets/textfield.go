package widgets

import (
	"github.com/odvcencio/tinydesk/pkg/ui/backend"
	"github.com/odvcencio/tinydesk/pkg/ui/runtime"
)

// KeyTarget receives typed input from the on-screen or physical keyboard.
type KeyTarget interface {
	InsertRune(r rune)
	Backspace()
	Submit()
	Focus()
	Blur()
}

// FocusRequester is an optional Scheduler capability: a scheduler that
// implements it routes keyboard input to the requested target once the
// current dispatch has returned.
type FocusRequester interface {
	RequestFocus(t KeyTarget)
}

// TextField is a single-line text input with the cursor at the end.
type TextField struct {
	Base
	text        []rune
	placeholder string
	maxLen      int
	focused     bool
	onChange    func(string)
	onSubmit    func(string)
}

// NewTextField creates an empty field.
func NewTextField(placeholder string) *TextField {
	return &TextField{placeholder: placeholder}
}

// Text returns the contents.
func (t *TextField) Text() string { return string(t.text) }

// SetText replaces the contents without firing OnChange.
func (t *TextField) SetText(s string) {
	t.text = []rune(s)
	if t.maxLen > 0 && len(t.text) > t.maxLen {
		t.text = t.text[:t.maxLen]
	}
}

// SetPlaceholder sets the hint shown while empty and unfocused.
func (t *TextField) SetPlaceholder(s string) { t.placeholder = s }

// SetMaxLength limits the number of runes. Zero means unlimited.
func (t *TextField) SetMaxLength(n int) { t.maxLen = max(n, 0) }

// OnChange sets the callback fired after each edit.
func (t *TextField) OnChange(fn func(string)) { t.onChange = fn }

// OnSubmit sets the callback fired on enter.
func (t *TextField) OnSubmit(fn func(string)) { t.onSubmit = fn }

// Focused reports whether the field receives keys.
func (t *TextField) Focused() bool { return t.focused }

// Focus marks the field focused.
func (t *TextField) Focus() { t.focused = true }

// Blur drops focus.
func (t *TextField) Blur() { t.focused = false }

// InsertRune appends r at the cursor.
func (t *TextField) InsertRune(r rune) {
	if t.maxLen > 0 && len(t.text) >= t.maxLen {
		return
	}
	t.text = append(t.text, r)
	t.changed()
}

// Backspace deletes the rune before the cursor.
func (t *TextField) Backspace() {
	if len(t.text) == 0 {
		return
	}
	t.text = t.text[:len(t.text)-1]
	t.changed()
}

// Submit fires OnSubmit with the contents.
func (t *TextField) Submit() {
	if t.onSubmit != nil {
		t.onSubmit(t.Text())
	}
}

func (t *TextField) changed() {
	if t.onChange != nil {
		t.onChange(t.Text())
	}
}

// Unmount drops focus.
func (t *TextField) Unmount() {
	t.focused = false
	t.Base.Unmount()
}

// Draw paints the sunken field, the tail of the text and the cursor.
func (t *TextField) Draw(c *runtime.Canvas) {
	if !t.mounted || t.bounds.Empty() {
		return
	}
	p := c.Palette()
	c.Sunken(t.bounds, p.FieldBg)

	inner := t.bounds
	if inner.Width >= 3 && inner.Height >= 3 {
		inner = inner.Inset(1, 2, 1, 2)
	}
	c.PushClip(inner)
	defer c.PopClip()

	y := inner.Y + (inner.Height-1)/2
	if len(t.text) == 0 && !t.focused {
		c.Text(inner.X, y, t.placeholder, p.ButtonShadow, p.FieldBg)
		return
	}
	text := string(t.text)
	width := runtime.TextWidth(text)
	room := inner.Width - 1 // the cursor cell
	x := inner.X
	if width > room {
		x -= width - room
	}
	advance := c.Text(x, y, text, p.Text, p.FieldBg)
	if t.focused {
		c.Set(x+advance, y, '_', backend.DefaultStyle().Foreground(p.Text).Background(p.FieldBg))
	}
}

// TouchBegin asks the scheduler for keyboard focus.
func (t *TextField) TouchBegin(s runtime.Scheduler, x, y int) {
	if !t.mounted || !t.Contains(x, y) || t.focused {
		return
	}
	if fr, ok := s.(FocusRequester); ok {
		fr.RequestFocus(t)
	}
}

package widgets

import (
	"github.com/odvcencio/tinydesk/pkg/ui/backend"
	"github.com/odvcencio/tinydesk/pkg/ui/runtime"
)

// Checkbox is a box with a caption that toggles when a touch begins and
// ends inside it.
type Checkbox struct {
	Base
	label    string
	checked  bool
	pressing bool
	fg       backend.Color
	onChange func(checked bool)
}

// NewCheckbox creates a checkbox.
func NewCheckbox(label string, checked bool) *Checkbox {
	return &Checkbox{label: label, checked: checked, fg: backend.ColorDefault}
}

// Label returns the caption.
func (cb *Checkbox) Label() string { return cb.label }

// SetLabel replaces the caption.
func (cb *Checkbox) SetLabel(label string) { cb.label = label }

// Checked reports whether the box is ticked.
func (cb *Checkbox) Checked() bool { return cb.checked }

// SetChecked sets the state without running the change callback.
func (cb *Checkbox) SetChecked(on bool) { cb.checked = on }

// SetTextColor overrides the caption colour.
func (cb *Checkbox) SetTextColor(fg backend.Color) { cb.fg = fg }

// OnChange sets the callback queued after every toggle.
func (cb *Checkbox) OnChange(fn func(checked bool)) { cb.onChange = fn }

// Unmount drops a touch in progress.
func (cb *Checkbox) Unmount() {
	cb.pressing = false
	cb.Base.Unmount()
}

func (cb *Checkbox) box(size int) runtime.Rect {
	h := min(size, cb.bounds.Height)
	return runtime.NewRect(cb.bounds.X, cb.bounds.Y+(cb.bounds.Height-h)/2, min(size, cb.bounds.Width), h)
}

// Draw paints the box and the caption to its right.
func (cb *Checkbox) Draw(c *runtime.Canvas) {
	if !cb.mounted || cb.bounds.Empty() {
		return
	}
	p := c.Palette()
	fg := cb.fg
	if fg == backend.ColorDefault {
		fg = p.Text
	}
	box := cb.box(max(1, c.Theme().Metrics.CheckboxSize))

	c.PushClip(cb.bounds)
	defer c.PopClip()

	// A box one row high is drawn as a bracket pair.
	if box.Height < 3 {
		mark := "[ ]"
		if cb.checked {
			mark = "[x]"
		}
		c.Fill(box, p.FieldBg)
		c.TextCentered(box, mark, p.Text, p.FieldBg)
	} else {
		c.Sunken(box, p.FieldBg)
		if cb.checked {
			c.TextCentered(box, "✓", p.Text, p.FieldBg)
		}
	}
	if cb.label != "" {
		x := box.Right() + 1
		c.TextClipped(x, cb.bounds.Y+(cb.bounds.Height-1)/2, cb.bounds.Right()-x, cb.label, fg, backend.ColorDefault)
	}
}

// TouchBegin arms the toggle.
func (cb *Checkbox) TouchBegin(_ runtime.Scheduler, x, y int) {
	if cb.mounted && cb.Contains(x, y) {
		cb.pressing = true
	}
}

// TouchEnd toggles the box when the touch ended inside it and queues the
// change callback with the new state.
func (cb *Checkbox) TouchEnd(s runtime.Scheduler, x, y int) {
	if !cb.mounted {
		return
	}
	if cb.pressing && cb.Contains(x, y) {
		cb.checked = !cb.checked
		if fn := cb.onChange; fn != nil {
			checked := cb.checked
			s.Queue(func() { fn(checked) })
		}
	}
	cb.pressing = false
}

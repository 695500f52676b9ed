package window

import (
	"github.com/odvcencio/tinydesk/pkg/ui/runtime"
	"github.com/odvcencio/tinydesk/pkg/ui/theme"
	"github.com/odvcencio/tinydesk/pkg/ui/widgets"
)

// Window is a framed container with a title bar, close, maximize-cycle and
// minimize controls, an optional menu bar and a scrollable content area.
//
// Control callbacks reach the owner through the scheduler, so a window may
// be rebuilt or destroyed from its own close or maximize button.
type Window struct {
	widgets.Base
	theme *theme.Theme

	title       string
	state       State
	preMinimize State
	active      bool

	closeBtn *widgets.Button
	maxBtn   *widgets.Button
	minBtn   *widgets.Button
	menuBar  *widgets.MenuBar
	content  *widgets.Scrollable
	captured widgets.Element

	onClose       func()
	onMinimize    func()
	onStateChange func(State)
}

// New creates an unmounted window with the given bounds.
func New(title string, bounds runtime.Rect, th *theme.Theme) *Window {
	if th == nil {
		th = theme.Default()
	}
	w := &Window{
		theme:   th,
		title:   title,
		content: widgets.NewScrollable(th),
	}
	w.closeBtn = widgets.NewButton("x", func() {
		if w.onClose != nil {
			w.onClose()
		}
	})
	w.maxBtn = widgets.NewButton("□", func() {
		if w.onStateChange != nil {
			w.onStateChange(w.state.Next())
		}
	})
	w.minBtn = widgets.NewButton("_", func() {
		if w.onMinimize != nil {
			w.onMinimize()
		}
	})
	w.SetBounds(bounds)
	return w
}

// Title returns the window title.
func (w *Window) Title() string { return w.title }

// State returns the placement state.
func (w *Window) State() State { return w.state }

// SetState records a placement state. Entering Minimized remembers the
// state to return to.
func (w *Window) SetState(s State) {
	if s == Minimized && w.state != Minimized {
		w.preMinimize = w.state
	}
	w.state = s
}

// PreMinimizeState is the state restore returns to.
func (w *Window) PreMinimizeState() State { return w.preMinimize }

// SetPreMinimizeState overrides the remembered state, used when a
// minimized window is rebuilt.
func (w *Window) SetPreMinimizeState(s State) { w.preMinimize = s }

// Minimized reports whether the window is minimized.
func (w *Window) Minimized() bool { return w.state == Minimized }

// Active reports whether the window has focus.
func (w *Window) Active() bool { return w.active }

// SetActive sets the focus flag.
func (w *Window) SetActive(active bool) { w.active = active }

// OnClose sets the callback for the close control.
func (w *Window) OnClose(fn func()) { w.onClose = fn }

// OnMinimize sets the callback for the minimize control.
func (w *Window) OnMinimize(fn func()) { w.onMinimize = fn }

// OnStateChange sets the callback for the maximize control; it receives the
// next state of the cycle.
func (w *Window) OnStateChange(fn func(State)) { w.onStateChange = fn }

// MenuBar returns the menu bar, or nil.
func (w *Window) MenuBar() *widgets.MenuBar { return w.menuBar }

// SetMenuBar installs a menu bar below the title bar.
func (w *Window) SetMenuBar(mb *widgets.MenuBar) {
	if w.menuBar != nil && w.menuBar.Mounted() {
		w.menuBar.Unmount()
	}
	w.menuBar = mb
	if mb != nil && w.Mounted() {
		mb.Mount()
	}
	w.layout()
}

// Scrollable returns the content viewport.
func (w *Window) Scrollable() *widgets.Scrollable { return w.content }

// Content returns the container applications populate.
func (w *Window) Content() *widgets.Container { return w.content.Content() }

// ContentBounds is the screen area of the content viewport.
func (w *Window) ContentBounds() runtime.Rect { return w.content.Bounds() }

// TitleBar is the screen area of the title bar.
func (w *Window) TitleBar() runtime.Rect {
	b, m := w.Bounds(), w.theme.Metrics
	return runtime.NewRect(b.X+m.BorderWidth, b.Y+m.BorderWidth, b.Width-2*m.BorderWidth, m.TitleBarHeight)
}

// Controls returns the close, maximize and minimize buttons.
func (w *Window) Controls() (closeBtn, maxBtn, minBtn *widgets.Button) {
	return w.closeBtn, w.maxBtn, w.minBtn
}

// SetBounds positions the window and lays out its parts.
func (w *Window) SetBounds(r runtime.Rect) {
	w.Base.SetBounds(r)
	w.layout()
}

func (w *Window) layout() {
	m := w.theme.Metrics
	b := w.Bounds()
	tb := w.TitleBar()

	bw, bh := m.ButtonWidth, min(m.ButtonHeight, m.TitleBarHeight)
	by := tb.Y + (tb.Height-bh)/2
	x := tb.Right() - m.Padding - bw
	for _, btn := range []*widgets.Button{w.closeBtn, w.maxBtn, w.minBtn} {
		btn.SetBounds(runtime.NewRect(x, by, bw, bh))
		x -= bw + m.Padding
	}

	top := tb.Bottom()
	if w.menuBar != nil {
		w.menuBar.SetBounds(runtime.NewRect(tb.X, top, tb.Width, m.MenuItemHeight))
		top += m.MenuItemHeight
	}
	bottom := b.Bottom() - m.BorderWidth
	w.content.SetBounds(runtime.NewRect(tb.X, top, tb.Width, max(0, bottom-top)))
}

// Mount mounts the window and its parts.
func (w *Window) Mount() {
	if w.Mounted() {
		return
	}
	w.Base.Mount()
	w.closeBtn.Mount()
	w.maxBtn.Mount()
	w.minBtn.Mount()
	if w.menuBar != nil {
		w.menuBar.Mount()
	}
	w.content.Mount()
}

// Unmount unmounts the parts, then the window.
func (w *Window) Unmount() {
	if !w.Mounted() {
		return
	}
	w.content.Unmount()
	if w.menuBar != nil {
		w.menuBar.Unmount()
	}
	w.minBtn.Unmount()
	w.maxBtn.Unmount()
	w.closeBtn.Unmount()
	w.captured = nil
	w.Base.Unmount()
}

// Destroy releases the content tree.
func (w *Window) Destroy() {
	w.Unmount()
	w.content.Destroy()
}

// Contains also hits an open dropdown hanging outside the frame.
func (w *Window) Contains(x, y int) bool {
	if w.Bounds().Contains(x, y) {
		return true
	}
	return w.menuBar != nil && w.menuBar.IsOpen() && w.menuBar.Contains(x, y)
}

// Draw paints the frame, the title bar and its controls, the menu bar and
// the content, then any open dropdown on top.
func (w *Window) Draw(c *runtime.Canvas) {
	if !w.Mounted() {
		return
	}
	p := c.Palette()
	m := w.theme.Metrics
	b := w.Bounds()

	c.DrawRect(b, p.WindowBorder)
	if m.BorderWidth >= 2 && b.Width > 4 && b.Height > 4 {
		in := b.Inset(1, 1, 1, 1)
		c.HLine(in.X, in.Y, in.Width, p.ButtonHighlight)
		c.VLine(in.X, in.Y, in.Height, p.ButtonHighlight)
		c.HLine(in.X, in.Bottom()-1, in.Width, p.ButtonShadow)
		c.VLine(in.Right()-1, in.Y, in.Height, p.ButtonShadow)
	}

	tb := w.TitleBar()
	barColor, textColor := p.TitleBarInactive, p.TitleTextInactive
	if w.active {
		barColor, textColor = p.TitleBarActive, p.TitleTextActive
	}
	c.Fill(tb, barColor)
	textX := tb.X + max(1, m.Padding)
	room := w.minBtn.Bounds().X - textX - 1
	c.TextClipped(textX, tb.Y+(tb.Height-1)/2, room, w.title, textColor, barColor)

	w.minBtn.Draw(c)
	w.maxBtn.Draw(c)
	w.closeBtn.Draw(c)

	if w.menuBar != nil {
		w.menuBar.Draw(c)
	}

	c.Fill(w.content.Bounds(), p.WindowBg)
	w.content.Draw(c)

	if w.menuBar != nil {
		w.menuBar.DrawDropdown(c)
	}
}

// TouchBegin routes to the controls, then the menu bar (an open dropdown
// takes every touch), then the content. The receiving part gets the rest
// of the touch.
func (w *Window) TouchBegin(s runtime.Scheduler, x, y int) {
	if !w.Mounted() {
		return
	}
	w.captured = nil
	for _, btn := range []*widgets.Button{w.closeBtn, w.maxBtn, w.minBtn} {
		if btn.Contains(x, y) {
			w.captured = btn
			btn.TouchBegin(s, x, y)
			return
		}
	}
	if w.menuBar != nil && (w.menuBar.IsOpen() || w.menuBar.Contains(x, y)) {
		w.captured = w.menuBar
		w.menuBar.TouchBegin(s, x, y)
		return
	}
	if w.content.Contains(x, y) {
		w.captured = w.content
		w.content.TouchBegin(s, x, y)
	}
}

// TouchMove follows a drag in the part that took the touch.
func (w *Window) TouchMove(s runtime.Scheduler, x, y int) {
	if d, ok := w.captured.(widgets.Dragger); ok && w.Mounted() {
		d.TouchMove(s, x, y)
	}
}

// TouchEnd finishes the touch in the part that took it.
func (w *Window) TouchEnd(s runtime.Scheduler, x, y int) {
	target := w.captured
	w.captured = nil
	if target != nil && w.Mounted() {
		target.TouchEnd(s, x, y)
	}
}

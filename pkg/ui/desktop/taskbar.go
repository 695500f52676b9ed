package desktop

import (
	"github.com/odvcencio/tinydesk/pkg/ui/runtime"
	"github.com/odvcencio/tinydesk/pkg/ui/theme"
	"github.com/odvcencio/tinydesk/pkg/ui/window"
	"github.com/odvcencio/tinydesk/pkg/ui/wm"
)

// Taskbar is the strip along the bottom of the screen: the start button,
// one button per open window, the tray slot for the panel app and the
// keyboard toggle.
type Taskbar struct {
	theme *theme.Theme
	apps  func() []wm.AppInfo

	startOpen func() bool
	onStart   func()
	onApp     func(name string)
	onKbd     func()

	startDown bool
	kbdDown   bool
	appDown   string
}

func newTaskbar(th *theme.Theme, apps func() []wm.AppInfo) *Taskbar {
	return &Taskbar{theme: th, apps: apps}
}

func (t *Taskbar) pad() int { return t.theme.Metrics.Padding }

// Bounds is the full taskbar strip.
func (t *Taskbar) Bounds() runtime.Rect {
	m := t.theme.Metrics
	return runtime.NewRect(0, m.TaskbarY(), m.ScreenWidth, m.TaskbarHeight)
}

func (t *Taskbar) buttonRow() (y, h int) {
	b := t.Bounds()
	return b.Y + t.pad(), max(1, b.Height-2*t.pad())
}

// StartRect is the start button.
func (t *Taskbar) StartRect() runtime.Rect {
	y, h := t.buttonRow()
	return runtime.NewRect(t.pad(), y, t.theme.Metrics.StartButtonWidth, h)
}

// KeyboardRect is the keyboard toggle at the right edge.
func (t *Taskbar) KeyboardRect() runtime.Rect {
	m := t.theme.Metrics
	y, h := t.buttonRow()
	return runtime.NewRect(m.ScreenWidth-m.KeyboardToggleWidth-t.pad(), y, m.KeyboardToggleWidth, h)
}

// TrayRect is the slot the panel app occupies, left of the keyboard toggle.
func (t *Taskbar) TrayRect() runtime.Rect {
	y, h := t.buttonRow()
	w := t.theme.Metrics.TrayWidth
	return runtime.NewRect(t.KeyboardRect().X-t.pad()-w, y, w, h)
}

// AppRects returns one button rect per open app, in opening order. Buttons share the space between the start button and the tray,
// each at most TaskButtonMaxWidth wide.
func (t *Taskbar) AppRects(n int) []runtime.Rect {
	if n <= 0 {
		return nil
	}
	m := t.theme.Metrics
	gap := max(1, t.pad())
	x := t.StartRect().Right() + max(1, 2*t.pad())
	avail := t.TrayRect().X - x - t.pad()
	w := min(avail/n, m.TaskButtonMaxWidth)
	if w <= gap {
		return nil
	}
	y, h := t.buttonRow()
	out := make([]runtime.Rect, n)
	for i := range out {
		out[i] = runtime.NewRect(x+i*w, y, w-gap, h)
	}
	return out
}

func (t *Taskbar) appAt(x, y int) string {
	apps := t.apps()
	for i, r := range t.AppRects(len(apps)) {
		if r.Contains(x, y) {
			return apps[i].Name
		}
	}
	return ""
}

// Draw paints the strip and its buttons. The tray content is drawn by the
// window manager's panel slot.
func (t *Taskbar) Draw(c *runtime.Canvas) {
	p := c.Palette()
	b := t.Bounds()
	if !c.Visible(b) {
		return
	}
	c.Fill(b, p.TaskbarBg)
	if b.Height >= 3 {
		c.HLine(b.X, b.Y, b.Width, p.ButtonHighlight)
	}

	startPressed := t.startDown || (t.startOpen != nil && t.startOpen())
	drawTaskButton(c, t.StartRect(), "Start", startPressed)

	apps := t.apps()
	for i, r := range t.AppRects(len(apps)) {
		label := apps[i].Name
		if apps[i].State == window.Minimized.String() {
			label = "[" + label + "]"
		}
		drawTaskButton(c, r, label, apps[i].Active || t.appDown == apps[i].Name)
	}
	drawTaskButton(c, t.KeyboardRect(), "Kb", t.kbdDown)
}

func drawTaskButton(c *runtime.Canvas, r runtime.Rect, label string, pressed bool) {
	p := c.Palette()
	c.Bevel(r, p.ButtonFace, pressed)
	text := r
	if pressed && r.Width > 2 && r.Height > 2 {
		text = text.Translate(1, 1)
	}
	c.PushClip(r)
	c.TextCentered(text, label, p.Text, p.ButtonFace)
	c.PopClip()
}

// TouchBegin presses whatever button is under the point.
func (t *Taskbar) TouchBegin(_ runtime.Scheduler, x, y int) {
	t.startDown, t.kbdDown, t.appDown = false, false, ""
	switch {
	case t.StartRect().Contains(x, y):
		t.startDown = true
	case t.KeyboardRect().Contains(x, y):
		t.kbdDown = true
	default:
		t.appDown = t.appAt(x, y)
	}
}

// TouchMove is a no-op; buttons resolve on release.
func (t *Taskbar) TouchMove(runtime.Scheduler, int, int) {}

// TouchEnd fires the pressed button. The start button and keyboard toggle
// fire wherever the touch is lifted; an app button only when lifted over
// the same button.
func (t *Taskbar) TouchEnd(s runtime.Scheduler, x, y int) {
	startDown, kbdDown, appDown := t.startDown, t.kbdDown, t.appDown
	t.startDown, t.kbdDown, t.appDown = false, false, ""
	switch {
	case startDown && t.onStart != nil:
		s.Queue(t.onStart)
	case kbdDown && t.onKbd != nil:
		s.Queue(t.onKbd)
	case appDown != "" && t.onApp != nil && t.appAt(x, y) == appDown:
		onApp := t.onApp
		s.Queue(func() { onApp(appDown) })
	}
}

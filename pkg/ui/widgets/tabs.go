package widgets

import (
	"github.com/odvcencio/tinydesk/pkg/ui/runtime"
	"github.com/odvcencio/tinydesk/pkg/ui/theme"
)

type tab struct {
	label   string
	content *Container
}

// Tabs is a row of tab buttons over one content container per tab. Every
// tab's content is mounted with the control, but only the active one is
// drawn and receives touches.
type Tabs struct {
	Base
	theme    *theme.Theme
	tabs     []tab
	active   int
	touched  int
	latched  bool
	onChange func(index int)
}

// NewTabs creates a control with no tabs.
func NewTabs(th *theme.Theme) *Tabs {
	if th == nil {
		th = theme.Default()
	}
	return &Tabs{theme: th, touched: -1}
}

// AddTab appends a tab and returns its index and content container.
func (t *Tabs) AddTab(label string) (int, *Container) {
	c := NewContainer()
	c.SetBounds(t.ContentBounds())
	if t.mounted {
		c.Mount()
	}
	t.tabs = append(t.tabs, tab{label: label, content: c})
	return len(t.tabs) - 1, c
}

// Len returns the number of tabs.
func (t *Tabs) Len() int { return len(t.tabs) }

// Labels returns the tab captions in order.
func (t *Tabs) Labels() []string {
	out := make([]string, 0, len(t.tabs))
	for _, tb := range t.tabs {
		out = append(out, tb.label)
	}
	return out
}

// Content returns the container of tab i, or nil.
func (t *Tabs) Content(i int) *Container {
	if i < 0 || i >= len(t.tabs) {
		return nil
	}
	return t.tabs[i].content
}

// Active returns the index of the shown tab.
func (t *Tabs) Active() int { return t.active }

// SetActive shows tab i without running the change callback. Out of range
// indexes are ignored.
func (t *Tabs) SetActive(i int) {
	if i >= 0 && i < len(t.tabs) {
		t.active = i
	}
}

// OnChange sets the callback queued when a touch switches tabs.
func (t *Tabs) OnChange(fn func(index int)) { t.onChange = fn }

func (t *Tabs) barHeight() int {
	return min(max(1, t.theme.Metrics.TabBarHeight), t.bounds.Height)
}

// ContentBounds is the area inside the frame below the tab row.
func (t *Tabs) ContentBounds() runtime.Rect {
	bw := t.theme.Metrics.BorderWidth
	bar := t.barHeight()
	return runtime.NewRect(t.bounds.X+bw, t.bounds.Y+bar+bw,
		max(0, t.bounds.Width-2*bw), max(0, t.bounds.Height-bar-2*bw))
}

// SetBounds moves the control and every tab's content.
func (t *Tabs) SetBounds(r runtime.Rect) {
	t.Base.SetBounds(r)
	cb := t.ContentBounds()
	for _, tb := range t.tabs {
		tb.content.SetBounds(cb)
	}
}

// tabRect is the button of tab i. The last tab takes the rounding
// remainder of the width.
func (t *Tabs) tabRect(i int) runtime.Rect {
	n := len(t.tabs)
	w := t.bounds.Width / n
	x := t.bounds.X + i*w
	if i == n-1 {
		w = t.bounds.Right() - x
	}
	return runtime.NewRect(x, t.bounds.Y, w, t.barHeight())
}

// TabAt returns the tab whose button holds (x, y), or -1.
func (t *Tabs) TabAt(x, y int) int {
	for i := range t.tabs {
		if t.tabRect(i).Contains(x, y) {
			return i
		}
	}
	return -1
}

// Mount mounts the control and every tab's content.
func (t *Tabs) Mount() {
	if t.mounted {
		return
	}
	t.mounted = true
	for _, tb := range t.tabs {
		tb.content.Mount()
	}
}

// Unmount unmounts every tab's content, then the control.
func (t *Tabs) Unmount() {
	if !t.mounted {
		return
	}
	for _, tb := range t.tabs {
		tb.content.Unmount()
	}
	t.mounted = false
	t.touched = -1
	t.latched = false
}

// Destroy releases every tab's content.
func (t *Tabs) Destroy() {
	tabs := t.tabs
	t.tabs = nil
	for _, tb := range tabs {
		tb.content.Destroy()
	}
}

// Draw paints the tab row, the frame and the active tab's content.
func (t *Tabs) Draw(c *runtime.Canvas) {
	if !t.mounted || len(t.tabs) == 0 || t.bounds.Empty() {
		return
	}
	p := c.Palette()
	bar := t.barHeight()
	frame := runtime.NewRect(t.bounds.X, t.bounds.Y+bar, t.bounds.Width, t.bounds.Height-bar)
	c.Raised(frame)
	c.Fill(t.ContentBounds(), p.WindowBg)

	for i := range t.tabs {
		r := t.tabRect(i)
		if i == t.active {
			c.Fill(r, p.WindowBg)
			if r.Height >= 3 {
				c.HLine(r.X, r.Y, r.Width, p.ButtonHighlight)
				c.VLine(r.X, r.Y, r.Height, p.ButtonHighlight)
				c.VLine(r.Right()-1, r.Y, r.Height, p.ButtonShadow)
			}
			c.PushClip(r)
			c.TextCentered(r, t.tabs[i].label, p.Text, p.WindowBg)
			c.PopClip()
			continue
		}
		// Inactive tabs sit lower and greyed.
		inset := min(2, r.Height-1)
		r = runtime.NewRect(r.X, r.Y+inset, r.Width, r.Height-inset)
		c.Fill(r, p.ButtonFace)
		c.PushClip(r)
		c.TextCentered(r, t.tabs[i].label, p.ButtonShadow, p.ButtonFace)
		c.PopClip()
	}

	if content := t.Content(t.active); content != nil {
		c.PushClip(t.ContentBounds())
		content.Draw(c)
		c.PopClip()
	}
}

// TouchBegin arms a tab switch on the tab row and otherwise forwards to
// the active tab's content.
func (t *Tabs) TouchBegin(s runtime.Scheduler, x, y int) {
	if !t.mounted || len(t.tabs) == 0 {
		return
	}
	t.latched = false
	if t.touched = t.TabAt(x, y); t.touched >= 0 {
		return
	}
	if content := t.Content(t.active); content != nil && content.Contains(x, y) {
		t.latched = true
		content.TouchBegin(s, x, y)
	}
}

// TouchMove forwards drags that began in the active content.
func (t *Tabs) TouchMove(s runtime.Scheduler, x, y int) {
	if t.mounted && t.latched {
		if content := t.Content(t.active); content != nil {
			content.TouchMove(s, x, y)
		}
	}
}

// TouchEnd switches to the touched tab when the touch ended on the same
// tab, queueing the change callback, or finishes a content touch.
func (t *Tabs) TouchEnd(s runtime.Scheduler, x, y int) {
	if !t.mounted {
		return
	}
	touched, latched := t.touched, t.latched
	t.touched, t.latched = -1, false
	if touched >= 0 {
		if t.TabAt(x, y) == touched && touched != t.active {
			t.active = touched
			if fn := t.onChange; fn != nil {
				s.Queue(func() { fn(touched) })
			}
		}
		return
	}
	if latched {
		if content := t.Content(t.active); content != nil {
			content.TouchEnd(s, x, y)
		}
	}
}

package apps

import (
	"time"

	"github.com/odvcencio/tinydesk/pkg/ui/app"
	"github.com/odvcencio/tinydesk/pkg/ui/runtime"
	"github.com/odvcencio/tinydesk/pkg/ui/widgets"
)

// Clock shows the time. In a narrow space, such as the taskbar tray, it
// drops the seconds; with room for more than one line it adds the date.
type Clock struct {
	deps   Deps
	timers app.Timers
	cancel func()

	time    *widgets.Label
	date    *widgets.Label
	seconds bool
}

// NewClock creates the Clock application.
func NewClock(deps Deps) *Clock {
	return &Clock{deps: deps.withDefaults()}
}

// Name implements app.Application.
func (c *Clock) Name() string { return ClockName }

// Timers implements app.TimerOwner.
func (c *Clock) Timers() *app.Timers { return &c.timers }

// Setup implements app.Application.
func (c *Clock) Setup(content *widgets.Container, width, height int) {
	origin := content.Bounds()
	rh := rowHeight(c.deps.Theme)
	c.seconds = width >= runtime.TextWidth("00:00:00")+2

	lines := 1
	if height >= 2*rh {
		lines = 2
	}
	top := origin.Y + max(0, (height-lines*rh)/2)

	c.time = widgets.NewLabel("")
	c.time.SetAlign(widgets.AlignCenter)
	c.time.SetBounds(runtime.NewRect(origin.X, top, width, rh))
	content.Add(c.time)

	c.date = nil
	if lines == 2 {
		c.date = widgets.NewLabel("")
		c.date.SetAlign(widgets.AlignCenter)
		c.date.SetBounds(runtime.NewRect(origin.X, top+rh, width, rh))
		content.Add(c.date)
	}
	c.Refresh()

	if c.cancel == nil {
		c.cancel = c.timers.Schedule(time.Second, c.Refresh)
	}
}

// Refresh sets the labels from the current time.
func (c *Clock) Refresh() {
	if c.time == nil {
		return
	}
	now := c.deps.Now()
	layout := "15:04"
	if c.seconds {
		layout = "15:04:05"
	}
	c.time.SetText(now.Format(layout))
	if c.date != nil {
		c.date.SetText(now.Format("Mon 2 Jan 2006"))
	}
}

// Text returns the time as displayed.
func (c *Clock) Text() string {
	if c.time == nil {
		return ""
	}
	return c.time.Text()
}

// Teardown implements app.Application.
func (c *Clock) Teardown() {
	c.time, c.date = nil, nil
}

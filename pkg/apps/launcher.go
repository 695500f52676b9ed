package apps

import (
	"fmt"

	"github.com/odvcencio/tinydesk/pkg/ui/app"
	"github.com/odvcencio/tinydesk/pkg/ui/runtime"
	"github.com/odvcencio/tinydesk/pkg/ui/widgets"
)

// Launcher lists the installed apps as buttons. A button does not open its
// app directly; it runs "ui.open <name>" through the command registry,
// exactly as a remote client would.
type Launcher struct {
	deps     Deps
	registry *app.Registry

	status  *widgets.Label
	buttons []*widgets.Button
	last    string
}

// NewLauncher creates a launcher for the apps in reg.
func NewLauncher(reg *app.Registry, deps Deps) *Launcher {
	return &Launcher{deps: deps.withDefaults(), registry: reg}
}

// Name implements app.Application.
func (l *Launcher) Name() string { return LauncherName }

// Setup implements app.Application.
func (l *Launcher) Setup(content *widgets.Container, width, height int) {
	m := l.deps.Theme.Metrics
	origin := content.Bounds()
	rh := rowHeight(l.deps.Theme)
	bh := max(rh, m.ButtonHeight)
	pad := max(1, m.Padding)

	l.status = widgets.NewLabel(l.last)
	l.status.SetBounds(runtime.NewRect(origin.X, origin.Y, width, rh))
	content.Add(l.status)

	l.buttons = l.buttons[:0]
	y := origin.Y + rh + pad
	for _, name := range l.registry.Names() {
		if name == LauncherName {
			continue
		}
		b := widgets.NewButton(name, func() { l.Launch(name) })
		b.SetBounds(runtime.NewRect(origin.X+pad, y, max(1, width-2*pad), bh))
		content.Add(b)
		l.buttons = append(l.buttons, b)
		y += bh + pad
	}
}

// Buttons returns the app buttons in registry order.
func (l *Launcher) Buttons() []*widgets.Button { return l.buttons }

// Launch opens name through the command registry and shows the outcome.
func (l *Launcher) Launch(name string) {
	if l.deps.Commands == nil {
		return
	}
	resp := l.deps.Commands.Execute(l.deps.Context(), fmt.Sprintf("ui.open %q", name))
	if resp.OK {
		l.last = "opened " + name
	} else {
		l.last = resp.Message
		l.deps.Logger.Warn("launch failed", "app", name, "code", resp.Code, "message", resp.Message)
	}
	if l.status != nil {
		l.status.SetText(l.last)
	}
}

// Status returns the message shown above the buttons.
func (l *Launcher) Status() string { return l.last }

// Teardown implements app.Application.
func (l *Launcher) Teardown() {
	l.status = nil
	l.buttons = nil
}

package apps

import (
	"fmt"

	"github.com/odvcencio/tinydesk/pkg/ui/runtime"
	"github.com/odvcencio/tinydesk/pkg/ui/widgets"
)

// Settings toggles desktop features. Like the launcher it acts through the
// command registry, so its checkboxes do what ui.keyboard and ui.panel do
// for a remote client.
type Settings struct {
	deps Deps

	tabs     *widgets.Tabs
	keyboard *widgets.Checkbox
	tray     *widgets.Checkbox
	status   *widgets.Label
	active   int
	last     string
}

// NewSettings creates the Settings application.
func NewSettings(deps Deps) *Settings {
	return &Settings{deps: deps.withDefaults()}
}

// Name implements app.Application.
func (s *Settings) Name() string { return SettingsName }

// Setup implements app.Application.
func (s *Settings) Setup(content *widgets.Container, width, height int) {
	th := s.deps.Theme
	rh := rowHeight(th)
	pad := max(1, th.Metrics.Padding)

	s.tabs = widgets.NewTabs(th)
	s.tabs.SetBounds(runtime.NewRect(content.Bounds().X, content.Bounds().Y, width, height))
	_, desk := s.tabs.AddTab("Desktop")
	_, about := s.tabs.AddTab("About")
	s.tabs.SetActive(s.active)
	s.tabs.OnChange(func(i int) { s.active = i })
	content.Add(s.tabs)

	inner := s.tabs.ContentBounds()
	row := func(i int) runtime.Rect {
		return runtime.NewRect(inner.X+pad, inner.Y+pad+i*rh, max(1, inner.Width-2*pad), rh)
	}

	kbd, panel := false, ""
	if s.deps.Host != nil {
		kbd = s.deps.Host.KeyboardVisible()
		panel, _ = s.deps.Host.Panel()
	}
	s.keyboard = widgets.NewCheckbox("On-screen keyboard", kbd)
	s.keyboard.SetBounds(row(0))
	s.keyboard.OnChange(s.setKeyboard)
	desk.Add(s.keyboard)

	s.tray = widgets.NewCheckbox("Clock in tray", panel == ClockName)
	s.tray.SetBounds(row(1))
	s.tray.OnChange(s.setTray)
	desk.Add(s.tray)

	s.status = widgets.NewLabel(s.last)
	s.status.SetBounds(row(3))
	desk.Add(s.status)

	m := th.Metrics
	lines := []string{
		"tinydesk",
		fmt.Sprintf("Screen %dx%d (%s)", m.ScreenWidth, m.ScreenHeight, th.Name),
		fmt.Sprintf("Started %s", s.deps.Started.Format("15:04:05")),
	}
	for i, text := range lines {
		l := widgets.NewLabel(text)
		l.SetBounds(row(i))
		about.Add(l)
	}
}

// Tabs returns the tab control of the current build.
func (s *Settings) Tabs() *widgets.Tabs { return s.tabs }

// Keyboard returns the on-screen keyboard checkbox.
func (s *Settings) Keyboard() *widgets.Checkbox { return s.keyboard }

// Tray returns the tray clock checkbox.
func (s *Settings) Tray() *widgets.Checkbox { return s.tray }

// Status returns the outcome of the last change.
func (s *Settings) Status() string { return s.last }

func (s *Settings) setKeyboard(on bool) {
	if on {
		s.run("ui.keyboard on")
		return
	}
	s.run("ui.keyboard off")
}

func (s *Settings) setTray(on bool) {
	if on {
		s.run("ui.panel " + ClockName)
		return
	}
	s.run("ui.panel off")
}

// run executes line. Showing the keyboard rebuilds this window, so the
// status label is looked up again afterwards.
func (s *Settings) run(line string) {
	if s.deps.Commands == nil {
		return
	}
	resp := s.deps.Commands.Execute(s.deps.Context(), line)
	s.last = resp.Message
	if !resp.OK {
		s.deps.Logger.Warn("settings change failed", "command", line, "code", resp.Code, "message", resp.Message)
	}
	if s.status != nil {
		s.status.SetText(s.last)
	}
}

// Teardown implements app.Application.
func (s *Settings) Teardown() {
	s.tabs = nil
	s.keyboard = nil
	s.tray = nil
	s.status = nil
}

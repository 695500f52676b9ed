package apps

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	"github.com/odvcencio/tinydesk/pkg/command"
	"github.com/odvcencio/tinydesk/pkg/errors"
	"github.com/odvcencio/tinydesk/pkg/script"
	"github.com/odvcencio/tinydesk/pkg/ui/app"
	"github.com/odvcencio/tinydesk/pkg/ui/backend/sim"
	"github.com/odvcencio/tinydesk/pkg/ui/desktop"
	"github.com/odvcencio/tinydesk/pkg/ui/runtime"
	"github.com/odvcencio/tinydesk/pkg/ui/theme"
	"github.com/odvcencio/tinydesk/pkg/ui/widgets"
	"github.com/odvcencio/tinydesk/pkg/ui/wm"
)

type fixture struct {
	th   *theme.Theme
	reg  *app.Registry
	m    *wm.Manager
	deps Deps
	now  time.Time
}

func newFixture(t *testing.T, exec Executor) *fixture {
	t.Helper()
	f := &fixture{
		th:  theme.Terminal(),
		reg: app.NewRegistry(),
		now: time.Date(2026, 10, 18, 9, 5, 7, 0, time.UTC),
	}
	f.m = wm.New(wm.Options{Theme: f.th, Registry: f.reg})
	f.deps = Deps{
		Theme:    f.th,
		Host:     f.m,
		Commands: exec,
		Now:      func() time.Time { return f.now },
	}
	require.NoError(t, Register(f.reg, f.deps))
	return f
}

func (f *fixture) open(t *testing.T, name string) app.Application {
	t.Helper()
	require.True(t, f.m.OpenApp(name))
	a := f.m.Application(name)
	require.NotNil(t, a)
	return a
}

func labelTexts(c *widgets.Container) []string {
	var out []string
	for _, el := range c.Children() {
		if l, ok := el.(*widgets.Label); ok {
			out = append(out, l.Text())
		}
	}
	return out
}

func TestRegisterBuiltins(t *testing.T) {
	f := newFixture(t, nil)
	assert.Equal(t, []string{InfoName, ClockName, NotesName, SettingsName, LauncherName, ScriptName}, f.reg.Names())
	assert.Error(t, Register(f.reg, f.deps), "names are taken")

	s, ok := f.open(t, ScriptName).(*script.App)
	require.True(t, ok)
	assert.True(t, s.Ready())
	assert.NotEqual(t, wm.NoOwner, s.Owner())
}

func TestInfoIsTallerThanItsWindow(t *testing.T) {
	f := newFixture(t, nil)
	f.open(t, InfoName)

	sc := f.m.Window(InfoName).Scrollable()
	assert.Greater(t, sc.ContentHeight(), sc.Bounds().Height)
	require.Positive(t, sc.MaxScroll())

	b := sc.Bounds()
	assert.True(t, f.m.HandleWheel(b.X+1, b.Y+1, 2))
	assert.Positive(t, sc.Offset())
}

func TestInfoRefreshUpdatesValues(t *testing.T) {
	f := newFixture(t, nil)
	info := f.open(t, InfoName).(*Info)
	assert.Equal(t, 1, info.Timers().Len())

	info.rows = func() []Row { return []Row{{Key: "System"}, {"Uptime", "1h"}} }
	info.Refresh()
	content := f.m.Window(InfoName).Scrollable().Content()
	assert.Contains(t, labelTexts(content), "1h")

	// A rebuild keeps the single refresh timer.
	f.m.SetKeyboardVisible(true)
	assert.Equal(t, 1, info.Timers().Len())

	f.m.CloseApp(InfoName)
	assert.Zero(t, info.Timers().Len())
}

func TestSystemRows(t *testing.T) {
	th := theme.Terminal()
	start := time.Date(2026, 10, 18, 9, 0, 0, 0, time.UTC)
	rows := SystemRows(th, start, start.Add(90*time.Second))

	values := make(map[string]string, len(rows))
	var sections []string
	for _, r := range rows {
		if r.Value == "" {
			sections = append(sections, r.Key)
			continue
		}
		values[r.Key] = r.Value
	}
	assert.Equal(t, []string{"System", "Memory", "Display"}, sections)
	assert.Equal(t, "1m30s", values["Uptime"])
	assert.Equal(t, "80x24", values["Screen"])
	assert.Equal(t, "80x23", values["Desktop"])
	assert.NotEmpty(t, values["Heap"])
}

func TestClockInWindowAndPanel(t *testing.T) {
	f := newFixture(t, nil)
	c := f.open(t, ClockName).(*Clock)
	assert.Equal(t, "09:05:07", c.Text())
	assert.Contains(t, labelTexts(f.m.Window(ClockName).Scrollable().Content()), "Sun 18 Oct 2026")

	f.now = f.now.Add(time.Minute)
	c.Timers().Fire()
	assert.True(t, f.m.TickTimers())
	assert.Equal(t, "09:06:07", c.Text())

	panel := NewClock(f.deps)
	f.m.OpenPanel(ClockName, panel, runtime.NewRect(69, 23, 7, 1))
	assert.Equal(t, "09:06", panel.Text(), "no room for seconds in the tray")
}

func TestNotesAddAndClear(t *testing.T) {
	f := newFixture(t, nil)
	n := f.open(t, NotesName).(*Notes)
	content := f.m.Window(NotesName).Scrollable().Content()

	n.Field().SetText("  milk ")
	n.Field().Submit()
	n.Field().SetText("   ")
	n.Add()
	n.Field().SetText("eggs")
	n.Add()

	assert.Equal(t, []string{"milk", "eggs"}, n.Notes())
	assert.Empty(t, n.Field().Text())
	assert.Equal(t, []string{"- milk", "- eggs"}, labelTexts(content))

	// The keyboard relayout rebuilds the window; notes are laid out again.
	f.m.SetKeyboardVisible(true)
	content = f.m.Window(NotesName).Scrollable().Content()
	assert.Equal(t, []string{"- milk", "- eggs"}, labelTexts(content))

	menus := f.m.Window(NotesName).MenuBar().Menus()
	require.Len(t, menus, 2)
	assert.Equal(t, "File", menus[0].Label)
	menus[0].Items[0].Action()
	assert.Empty(t, n.Notes())
	assert.Empty(t, labelTexts(content))
}

func TestNotesAboutAndClose(t *testing.T) {
	f := newFixture(t, nil)
	n := f.open(t, NotesName).(*Notes)

	p := n.About()
	require.NotNil(t, p)
	assert.True(t, p.Visible())
	assert.True(t, f.m.DesktopArea().Contains(p.Bounds().X, p.Bounds().Y))

	n.About()
	assert.Len(t, f.m.Popups(), 1, "a second about box replaces the first")

	menus := f.m.Window(NotesName).MenuBar().Menus()
	menus[0].Items[2].Action()
	assert.False(t, f.m.IsOpen(NotesName))
	assert.Empty(t, f.m.Popups(), "closing drops the app's popups")
}

func TestLauncherRunsOpenCommand(t *testing.T) {
	ctrl := gomock.NewController(t)
	exec := NewMockExecutor(ctrl)
	f := newFixture(t, exec)
	l := f.open(t, LauncherName).(*Launcher)

	var labels []string
	for _, b := range l.Buttons() {
		labels = append(labels, b.Label())
	}
	assert.Equal(t, []string{InfoName, ClockName, NotesName, SettingsName, ScriptName}, labels)

	exec.EXPECT().Execute(gomock.Any(), `ui.open "Clock"`).Return(command.Response{OK: true})
	q := runtime.NewActionQueue(nil)
	b := l.Buttons()[1]
	r := b.Bounds()
	b.TouchBegin(q, r.X, r.Y)
	b.TouchEnd(q, r.X, r.Y)
	q.Execute()
	assert.Equal(t, "opened Clock", l.Status())

	exec.EXPECT().Execute(gomock.Any(), `ui.open "Paint"`).Return(command.Response{
		Message: "no app named Paint",
		Code:    errors.ErrCodeAppNotFound,
	})
	l.Launch("Paint")
	assert.Equal(t, "no app named Paint", l.Status())
}

func TestLauncherThroughDesktop(t *testing.T) {
	th := theme.Terminal()
	reg := app.NewRegistry()
	d := desktop.New(desktop.Options{Backend: sim.New(80, 24), Theme: th, Registry: reg})
	cmds := command.NewRegistry(command.Options{})
	require.NoError(t, command.RegisterUI(cmds, d))
	require.NoError(t, Register(reg, Deps{
		Theme:    th,
		Host:     d.Manager(),
		Commands: cmds,
		Context:  d.Bridge().UIContext,
	}))

	require.True(t, d.Manager().OpenApp(LauncherName))
	l := d.Manager().Application(LauncherName).(*Launcher)
	l.Launch(NotesName)
	assert.True(t, d.Manager().IsOpen(NotesName))
	assert.Equal(t, NotesName, d.Manager().Active())
}

func toggle(q *runtime.ActionQueue, cb *widgets.Checkbox) {
	r := cb.Bounds()
	cb.TouchBegin(q, r.X, r.Y)
	cb.TouchEnd(q, r.X, r.Y)
	q.Execute()
}

func TestSettingsRunsCommands(t *testing.T) {
	ctrl := gomock.NewController(t)
	exec := NewMockExecutor(ctrl)
	f := newFixture(t, exec)
	s := f.open(t, SettingsName).(*Settings)

	assert.Equal(t, []string{"Desktop", "About"}, s.Tabs().Labels())
	assert.False(t, s.Keyboard().Checked())
	assert.False(t, s.Tray().Checked())

	q := runtime.NewActionQueue(nil)
	exec.EXPECT().Execute(gomock.Any(), "ui.keyboard on").Return(command.Response{OK: true, Message: "keyboard on"})
	toggle(q, s.Keyboard())
	assert.Equal(t, "keyboard on", s.Status())

	exec.EXPECT().Execute(gomock.Any(), "ui.panel Clock").Return(command.Response{
		Message: "no app named Clock",
		Code:    errors.ErrCodeAppNotFound,
	})
	toggle(q, s.Tray())
	assert.Equal(t, "no app named Clock", s.Status())

	// The selected tab survives a rebuild.
	tb := s.Tabs().Bounds()
	x := tb.X + tb.Width*3/4
	s.Tabs().TouchBegin(q, x, tb.Y)
	s.Tabs().TouchEnd(q, x, tb.Y)
	q.Execute()
	require.Equal(t, 1, s.Tabs().Active())
	f.m.SetKeyboardVisible(true)
	assert.Equal(t, 1, s.Tabs().Active())
	assert.True(t, s.Keyboard().Checked(), "rebuilt from the desktop state")
	assert.Equal(t, "no app named Clock", s.Status())
}

func TestSettingsThroughDesktop(t *testing.T) {
	th := theme.Terminal()
	reg := app.NewRegistry()
	d := desktop.New(desktop.Options{Backend: sim.New(80, 24), Theme: th, Registry: reg})
	cmds := command.NewRegistry(command.Options{})
	require.NoError(t, command.RegisterUI(cmds, d))
	require.NoError(t, Register(reg, Deps{
		Theme:    th,
		Host:     d.Manager(),
		Commands: cmds,
		Context:  d.Bridge().UIContext,
	}))

	m := d.Manager()
	require.True(t, m.OpenApp(SettingsName))
	s := m.Application(SettingsName).(*Settings)
	q := runtime.NewActionQueue(nil)

	toggle(q, s.Keyboard())
	assert.True(t, m.KeyboardVisible())
	assert.True(t, s.Keyboard().Checked())

	toggle(q, s.Tray())
	panel, ok := m.Panel()
	require.True(t, ok)
	assert.Equal(t, ClockName, panel)

	toggle(q, s.Tray())
	_, ok = m.Panel()
	assert.False(t, ok)
	assert.Equal(t, "panel closed", s.Status())
}

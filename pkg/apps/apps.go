// Package apps holds the applications that ship with the desktop.
package apps

import (
	"context"
	"time"

	"github.com/odvcencio/tinydesk/pkg/command"
	"github.com/odvcencio/tinydesk/pkg/logging"
	"github.com/odvcencio/tinydesk/pkg/script"
	"github.com/odvcencio/tinydesk/pkg/telemetry"
	"github.com/odvcencio/tinydesk/pkg/ui/app"
	"github.com/odvcencio/tinydesk/pkg/ui/runtime"
	"github.com/odvcencio/tinydesk/pkg/ui/theme"
)

// Names of the built-in applications.
const (
	InfoName     = "Info"
	ClockName    = "Clock"
	NotesName    = "Notes"
	SettingsName = "Settings"
	LauncherName = "Launcher"
	ScriptName   = "Script"
)

// Host is the part of the window manager the built-in apps use.
// *wm.Manager implements it.
type Host interface {
	script.PopupHost
	CloseApp(name string) bool
	DesktopArea() runtime.Rect
	KeyboardVisible() bool
	Panel() (name string, ok bool)
}

//go:generate mockgen -package=apps -destination=mock_executor_test.go github.com/odvcencio/tinydesk/pkg/apps Executor

// Executor runs command lines. *command.Registry implements it.
type Executor interface {
	Execute(ctx context.Context, line string) command.Response
}

// Deps are the collaborators shared by the built-in apps.
type Deps struct {
	Theme    *theme.Theme
	Host     Host
	Commands Executor
	// Context returns the context commands are executed with. Apps run on
	// the UI goroutine, so this should be the bridge's UI context.
	Context func() context.Context
	Events  telemetry.Publisher
	Logger  *logging.Logger
	// Now defaults to time.Now.
	Now func() time.Time
	// Started is the process start shown by Info. Zero means now.
	Started time.Time
}

func (d Deps) withDefaults() Deps {
	if d.Theme == nil {
		d.Theme = theme.Default()
	}
	if d.Now == nil {
		d.Now = time.Now
	}
	if d.Context == nil {
		d.Context = context.Background
	}
	if d.Started.IsZero() {
		d.Started = d.Now()
	}
	d.Logger = logging.OrNop(d.Logger)
	return d
}

// Register adds every built-in app to reg. The launcher lists whatever reg
// holds when it is set up, including apps registered after this call.
func Register(reg *app.Registry, deps Deps) error {
	deps = deps.withDefaults()
	factories := []struct {
		name string
		f    app.Factory
	}{
		{InfoName, func() app.Application { return NewInfo(deps) }},
		{ClockName, func() app.Application { return NewClock(deps) }},
		{NotesName, func() app.Application { return NewNotes(deps) }},
		{SettingsName, func() app.Application { return NewSettings(deps) }},
		{LauncherName, func() app.Application { return NewLauncher(reg, deps) }},
		{ScriptName, func() app.Application {
			return script.New(ScriptName, script.Options{
				Theme:  deps.Theme,
				Popups: deps.Host,
				Events: deps.Events,
				Logger: deps.Logger,
			})
		}},
	}
	for _, e := range factories {
		if err := reg.Register(e.name, e.f); err != nil {
			return err
		}
	}
	return nil
}

// rowHeight is the height of one line of text in a list.
func rowHeight(th *theme.Theme) int { return max(1, th.Metrics.MenuItemHeight) }

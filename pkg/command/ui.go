package command

import (
	"context"
	"fmt"
	"slices"
	"strconv"
	"strings"

	"github.com/odvcencio/tinydesk/pkg/errors"
	"github.com/odvcencio/tinydesk/pkg/script"
	"github.com/odvcencio/tinydesk/pkg/ui/backend"
	"github.com/odvcencio/tinydesk/pkg/ui/bridge"
	"github.com/odvcencio/tinydesk/pkg/ui/desktop"
	"github.com/odvcencio/tinydesk/pkg/ui/widgets"
	"github.com/odvcencio/tinydesk/pkg/ui/window"
	"github.com/odvcencio/tinydesk/pkg/ui/wm"
)

// AppList is the data of ui.list.
type AppList struct {
	Apps     []wm.AppInfo `json:"apps"`
	Active   string       `json:"active,omitempty"`
	Keyboard bool         `json:"keyboard"`
	Panel    string       `json:"panel,omitempty"`
}

// ui holds the desktop the ui.* commands act on. Every handler body runs on
// the UI goroutine through the desktop's bridge.
type ui struct {
	d *desktop.Desktop
}

func onUI(ctx context.Context, d *desktop.Desktop, fn func() (Result, error)) (Result, error) {
	return bridge.Call(ctx, d.Bridge(), fn)
}

// RegisterUI adds the ui.* commands for d.
func RegisterUI(r *Registry, d *desktop.Desktop) error {
	u := &ui{d: d}
	cmds := []*Command{
		{Name: "ui.open", Usage: "ui.open <app>", Description: "open or focus an app", MinArgs: 1, Handler: u.appOp(u.open)},
		{Name: "ui.close", Usage: "ui.close <app>", Description: "close an app", MinArgs: 1, Handler: u.appOp((*wm.Manager).CloseApp)},
		{Name: "ui.focus", Usage: "ui.focus <app>", Description: "bring an app to the front", MinArgs: 1, Handler: u.appOp((*wm.Manager).FocusApp)},
		{Name: "ui.minimize", Usage: "ui.minimize <app>", Description: "minimize an app", MinArgs: 1, Handler: u.appOp((*wm.Manager).MinimizeApp)},
		{Name: "ui.restore", Usage: "ui.restore <app>", Description: "restore a minimized app", MinArgs: 1, Handler: u.appOp((*wm.Manager).RestoreApp)},
		{Name: "ui.state", Usage: "ui.state <app> <restored|maximized|top-half|bottom-half|minimized>", Description: "set a window state", MinArgs: 2, Handler: HandlerFunc(u.state)},
		{Name: "ui.list", Usage: "ui.list", Description: "list open apps bottom to top", Handler: HandlerFunc(u.list)},
		{Name: "ui.apps", Usage: "ui.apps", Description: "list installed apps", Handler: HandlerFunc(u.installed)},
		{Name: "ui.keyboard", Usage: "ui.keyboard <on|off|toggle>", Description: "show or hide the on-screen keyboard", MinArgs: 1, Handler: HandlerFunc(u.keyboard)},
		{Name: "ui.error", Usage: "ui.error <title> <message>", Description: "show an error dialog", MinArgs: 2, Handler: HandlerFunc(u.showError)},
		{Name: "ui.redraw", Usage: "ui.redraw", Description: "repaint the whole screen", Handler: HandlerFunc(u.redraw)},
		{Name: "ui.panel", Usage: "ui.panel <app|off>", Description: "host an app in the taskbar tray", MinArgs: 1, Handler: HandlerFunc(u.panel)},
		{Name: "ui.script.label", Usage: "ui.script.label <parent> <x> <y> <w> <h> <text>", Description: "add a label to the script app", MinArgs: 5, Handler: u.scriptOp(u.scriptLabel)},
		{Name: "ui.script.button", Usage: "ui.script.button <parent> <x> <y> <w> <h> <label>", Description: "add a button to the script app", MinArgs: 6, Handler: u.scriptOp(u.scriptButton)},
		{Name: "ui.script.container", Usage: "ui.script.container <parent> <x> <y> <w> <h>", Description: "add a container to the script app", MinArgs: 5, Handler: u.scriptOp(u.scriptContainer)},
		{Name: "ui.script.settext", Usage: "ui.script.settext <handle> <text>", Description: "change a label or button text", MinArgs: 1, Handler: u.scriptOp(u.scriptSetText)},
		{Name: "ui.script.remove", Usage: "ui.script.remove <handle>", Description: "remove an element and its children", MinArgs: 1, Handler: u.scriptOp(u.scriptRemove)},
		{Name: "ui.script.popup", Usage: "ui.script.popup <x> <y> <w> <h>", Description: "open a popup owned by the script app", MinArgs: 4, Handler: u.scriptOp(u.scriptPopup)},
		{Name: "ui.script.scrollable", Usage: "ui.script.scrollable <parent> <x> <y> <w> <h>", Description: "add a scroll viewport to the script app", MinArgs: 5, Handler: u.scriptOp(u.scriptScrollable)},
		{Name: "ui.script.color", Usage: "ui.script.color <handle> <fg> [bg]", Description: "set label or button text colours (#rrggbb, RGB565 or default)", MinArgs: 2, Handler: u.scriptOp(u.scriptColor)},
		{Name: "ui.script.bgcolor", Usage: "ui.script.bgcolor <handle> <color>", Description: "set a container, label or button background", MinArgs: 2, Handler: u.scriptOp(u.scriptBackground)},
		{Name: "ui.script.align", Usage: "ui.script.align <handle> <left|center|right>", Description: "align a label", MinArgs: 2, Handler: u.scriptOp(u.scriptAlign)},
		{Name: "ui.script.contentheight", Usage: "ui.script.contentheight <handle> <rows|auto>", Description: "fix or measure a scrollable's content height", MinArgs: 2, Handler: u.scriptOp(u.scriptContentHeight)},
		{Name: "ui.script.bounds", Usage: "ui.script.bounds <handle>", Description: "report an element's rectangle", MinArgs: 1, Handler: u.scriptOp(u.scriptBounds)},
		{Name: "ui.script.clear", Usage: "ui.script.clear <handle>", Description: "remove every child of a container", MinArgs: 1, Handler: u.scriptOp(u.scriptClear)},
		{Name: "ui.script.touch", Usage: "ui.script.touch <handle> <on|off>", Description: "report touches on a container as events", MinArgs: 2, Handler: u.scriptOp(u.scriptTouch)},
	}
	for _, cmd := range cmds {
		if err := r.Register(cmd); err != nil {
			return err
		}
	}
	return nil
}

func (u *ui) open(m *wm.Manager, name string) bool { return m.OpenApp(name) }

// appOp adapts a manager method taking an app name.
func (u *ui) appOp(op func(*wm.Manager, string) bool) Handler {
	return HandlerFunc(func(ctx context.Context, req Request) (Result, error) {
		name := req.Rest(0)
		return onUI(ctx, u.d, func() (Result, error) {
			if !op(u.d.Manager(), name) {
				return Result{}, notFound(u.d.Manager(), name)
			}
			return Result{Message: req.Name + " " + name}, nil
		})
	})
}

func notFound(m *wm.Manager, name string) error {
	if m.Registry().Has(name) {
		return errors.Newf(errors.ErrCodeAppNotFound, "%s is not open", name)
	}
	return errors.Newf(errors.ErrCodeAppNotFound, "no app named %s", name)
}

func (u *ui) state(ctx context.Context, req Request) (Result, error) {
	s, ok := window.ParseState(req.Arg(1))
	if !ok {
		return Result{}, errors.Newf(errors.ErrCodeCommandUsage, "unknown window state %q", req.Arg(1))
	}
	name := req.Arg(0)
	return onUI(ctx, u.d, func() (Result, error) {
		if !u.d.Manager().SetState(name, s) {
			return Result{}, notFound(u.d.Manager(), name)
		}
		return Result{Message: name + " " + s.String()}, nil
	})
}

func (u *ui) list(ctx context.Context, _ Request) (Result, error) {
	return onUI(ctx, u.d, func() (Result, error) {
		m := u.d.Manager()
		list := AppList{Apps: m.Apps(), Active: m.Active(), Keyboard: m.KeyboardVisible()}
		list.Panel, _ = m.Panel()
		names := make([]string, 0, len(list.Apps))
		for _, a := range list.Apps {
			names = append(names, a.Name)
		}
		return Result{Message: strings.Join(names, " "), Data: list}, nil
	})
}

func (u *ui) installed(context.Context, Request) (Result, error) {
	names := u.d.Manager().Registry().Names()
	return Result{Message: strings.Join(names, " "), Data: names}, nil
}

func (u *ui) keyboard(ctx context.Context, req Request) (Result, error) {
	mode := strings.ToLower(req.Arg(0))
	if !slices.Contains([]string{"on", "off", "toggle"}, mode) {
		return Result{}, errors.Newf(errors.ErrCodeCommandUsage, "usage: ui.keyboard <on|off|toggle>")
	}
	return onUI(ctx, u.d, func() (Result, error) {
		switch mode {
		case "on":
			u.d.SetKeyboardVisible(true)
		case "off":
			u.d.SetKeyboardVisible(false)
		default:
			u.d.ToggleKeyboard()
		}
		state := "off"
		if u.d.Keyboard().Visible() {
			state = "on"
		}
		return Result{Message: "keyboard " + state, Data: map[string]bool{"visible": state == "on"}}, nil
	})
}

func (u *ui) showError(ctx context.Context, req Request) (Result, error) {
	title, message := req.Arg(0), req.Rest(1)
	return onUI(ctx, u.d, func() (Result, error) {
		u.d.ShowError(title, message)
		return Result{Message: "error shown"}, nil
	})
}

func (u *ui) redraw(ctx context.Context, _ Request) (Result, error) {
	return onUI(ctx, u.d, func() (Result, error) {
		u.d.Redraw()
		return Result{Message: "redraw scheduled"}, nil
	})
}

func (u *ui) panel(ctx context.Context, req Request) (Result, error) {
	name := req.Rest(0)
	return onUI(ctx, u.d, func() (Result, error) {
		m := u.d.Manager()
		if name == "off" {
			cur, ok := m.Panel()
			if !ok {
				return Result{Message: "no panel"}, nil
			}
			m.ClosePanel(cur)
			return Result{Message: "panel closed"}, nil
		}
		if !u.d.OpenPanel(name) {
			return Result{}, errors.Newf(errors.ErrCodeAppNotFound, "no app named %s", name)
		}
		return Result{Message: "panel " + name}, nil
	})
}

// scriptOp runs op against the topmost open script app.
func (u *ui) scriptOp(op func(a *script.App, req Request) (Result, error)) Handler {
	return HandlerFunc(func(ctx context.Context, req Request) (Result, error) {
		return onUI(ctx, u.d, func() (Result, error) {
			a, err := u.scriptApp()
			if err != nil {
				return Result{}, err
			}
			return op(a, req)
		})
	})
}

func (u *ui) scriptApp() (*script.App, error) {
	m := u.d.Manager()
	apps := m.Apps()
	for i := len(apps) - 1; i >= 0; i-- {
		if a, ok := m.Application(apps[i].Name).(*script.App); ok && a.Ready() {
			return a, nil
		}
	}
	return nil, errors.New(errors.ErrCodeAppNotFound, "no script app is open")
}

func parseHandle(s string) (script.Handle, error) {
	h, err := strconv.ParseUint(s, 10, 64)
	if err != nil {
		return 0, errors.Newf(errors.ErrCodeCommandUsage, "%q is not a handle", s)
	}
	return script.Handle(h), nil
}

// rect parses four integer arguments starting at i.
func rect(req Request, i int) (x, y, w, h int, err error) {
	vals := make([]int, 4)
	for k := range vals {
		if vals[k], err = req.Int(i + k); err != nil {
			return 0, 0, 0, 0, err
		}
	}
	return vals[0], vals[1], vals[2], vals[3], nil
}

func handleResult(h script.Handle) Result {
	return Result{Message: h.String(), Data: map[string]uint64{"handle": uint64(h)}}
}

func (u *ui) scriptLabel(a *script.App, req Request) (Result, error) {
	parent, err := parseHandle(req.Arg(0))
	if err != nil {
		return Result{}, err
	}
	x, y, w, h, err := rect(req, 1)
	if err != nil {
		return Result{}, err
	}
	handle, err := a.Label(parent, x, y, w, h, req.Rest(5))
	if err != nil {
		return Result{}, err
	}
	return handleResult(handle), nil
}

func (u *ui) scriptButton(a *script.App, req Request) (Result, error) {
	parent, err := parseHandle(req.Arg(0))
	if err != nil {
		return Result{}, err
	}
	x, y, w, h, err := rect(req, 1)
	if err != nil {
		return Result{}, err
	}
	handle, err := a.Button(parent, x, y, w, h, req.Rest(5))
	if err != nil {
		return Result{}, err
	}
	return handleResult(handle), nil
}

func (u *ui) scriptContainer(a *script.App, req Request) (Result, error) {
	parent, err := parseHandle(req.Arg(0))
	if err != nil {
		return Result{}, err
	}
	x, y, w, h, err := rect(req, 1)
	if err != nil {
		return Result{}, err
	}
	handle, err := a.Container(parent, x, y, w, h)
	if err != nil {
		return Result{}, err
	}
	return handleResult(handle), nil
}

func (u *ui) scriptSetText(a *script.App, req Request) (Result, error) {
	h, err := parseHandle(req.Arg(0))
	if err != nil {
		return Result{}, err
	}
	if err := a.SetText(h, req.Rest(1)); err != nil {
		return Result{}, err
	}
	return Result{Message: "ok"}, nil
}

func (u *ui) scriptRemove(a *script.App, req Request) (Result, error) {
	h, err := parseHandle(req.Arg(0))
	if err != nil {
		return Result{}, err
	}
	if err := a.Remove(h); err != nil {
		return Result{}, err
	}
	return Result{Message: "removed"}, nil
}

func (u *ui) scriptPopup(a *script.App, req Request) (Result, error) {
	x, y, w, h, err := rect(req, 0)
	if err != nil {
		return Result{}, err
	}
	handle, err := a.Popup(x, y, w, h)
	if err != nil {
		return Result{}, err
	}
	return handleResult(handle), nil
}

func (u *ui) scriptScrollable(a *script.App, req Request) (Result, error) {
	parent, err := parseHandle(req.Arg(0))
	if err != nil {
		return Result{}, err
	}
	x, y, w, h, err := rect(req, 1)
	if err != nil {
		return Result{}, err
	}
	handle, err := a.Scrollable(parent, x, y, w, h)
	if err != nil {
		return Result{}, err
	}
	return handleResult(handle), nil
}

func parseColor(s string) (backend.Color, error) {
	c, err := backend.ParseColor(s)
	if err != nil {
		return backend.ColorDefault, errors.Wrap(err, errors.ErrCodeCommandUsage, "parse colour")
	}
	return c, nil
}

func (u *ui) scriptColor(a *script.App, req Request) (Result, error) {
	h, err := parseHandle(req.Arg(0))
	if err != nil {
		return Result{}, err
	}
	fg, err := parseColor(req.Arg(1))
	if err != nil {
		return Result{}, err
	}
	bg := backend.ColorDefault
	if len(req.Args) > 2 {
		if bg, err = parseColor(req.Arg(2)); err != nil {
			return Result{}, err
		}
	}
	if err := a.SetTextColor(h, fg, bg); err != nil {
		return Result{}, err
	}
	return Result{Message: "ok"}, nil
}

func (u *ui) scriptBackground(a *script.App, req Request) (Result, error) {
	h, err := parseHandle(req.Arg(0))
	if err != nil {
		return Result{}, err
	}
	color, err := parseColor(req.Arg(1))
	if err != nil {
		return Result{}, err
	}
	if err := a.SetBackground(h, color); err != nil {
		return Result{}, err
	}
	return Result{Message: "ok"}, nil
}

func parseAlign(s string) (widgets.Align, error) {
	switch strings.ToLower(s) {
	case "left", "0":
		return widgets.AlignLeft, nil
	case "center", "centre", "1":
		return widgets.AlignCenter, nil
	case "right", "2":
		return widgets.AlignRight, nil
	}
	return widgets.AlignLeft, errors.Newf(errors.ErrCodeCommandUsage, "unknown alignment %q", s)
}

func (u *ui) scriptAlign(a *script.App, req Request) (Result, error) {
	h, err := parseHandle(req.Arg(0))
	if err != nil {
		return Result{}, err
	}
	align, err := parseAlign(req.Arg(1))
	if err != nil {
		return Result{}, err
	}
	if err := a.SetAlign(h, align); err != nil {
		return Result{}, err
	}
	return Result{Message: "ok"}, nil
}

func (u *ui) scriptContentHeight(a *script.App, req Request) (Result, error) {
	h, err := parseHandle(req.Arg(0))
	if err != nil {
		return Result{}, err
	}
	rows := 0
	if !strings.EqualFold(req.Arg(1), "auto") {
		if rows, err = req.Int(1); err != nil {
			return Result{}, err
		}
	}
	if err := a.SetContentHeight(h, rows); err != nil {
		return Result{}, err
	}
	return Result{Message: "ok"}, nil
}

// Bounds is the data of ui.script.bounds.
type Bounds struct {
	X      int `json:"x"`
	Y      int `json:"y"`
	Width  int `json:"w"`
	Height int `json:"h"`
}

func (u *ui) scriptBounds(a *script.App, req Request) (Result, error) {
	h, err := parseHandle(req.Arg(0))
	if err != nil {
		return Result{}, err
	}
	r, err := a.Bounds(h)
	if err != nil {
		return Result{}, err
	}
	b := Bounds{X: r.X, Y: r.Y, Width: r.Width, Height: r.Height}
	return Result{Message: fmt.Sprintf("%d %d %d %d", b.X, b.Y, b.Width, b.Height), Data: b}, nil
}

func (u *ui) scriptClear(a *script.App, req Request) (Result, error) {
	h, err := parseHandle(req.Arg(0))
	if err != nil {
		return Result{}, err
	}
	if err := a.Clear(h); err != nil {
		return Result{}, err
	}
	return Result{Message: "cleared"}, nil
}

func (u *ui) scriptTouch(a *script.App, req Request) (Result, error) {
	h, err := parseHandle(req.Arg(0))
	if err != nil {
		return Result{}, err
	}
	var on bool
	switch strings.ToLower(req.Arg(1)) {
	case "on":
		on = true
	case "off":
	default:
		return Result{}, errors.Newf(errors.ErrCodeCommandUsage, "usage: ui.script.touch <handle> <on|off>")
	}
	if err := a.WatchTouches(h, on); err != nil {
		return Result{}, err
	}
	return Result{Message: "touch " + strings.ToLower(req.Arg(1))}, nil
}

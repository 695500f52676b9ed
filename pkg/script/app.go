package script

import (
	"maps"
	"slices"

	"github.com/odvcencio/tinydesk/pkg/errors"
	"github.com/odvcencio/tinydesk/pkg/logging"
	"github.com/odvcencio/tinydesk/pkg/telemetry"
	"github.com/odvcencio/tinydesk/pkg/ui/backend"
	"github.com/odvcencio/tinydesk/pkg/ui/runtime"
	"github.com/odvcencio/tinydesk/pkg/ui/theme"
	"github.com/odvcencio/tinydesk/pkg/ui/widgets"
	"github.com/odvcencio/tinydesk/pkg/ui/wm"
)

// PopupHost creates and destroys popups on behalf of an owner.
type PopupHost interface {
	CreatePopup(r runtime.Rect, owner wm.Owner) *widgets.Popup
	DestroyPopup(p *widgets.Popup) bool
	DestroyPopupsForOwner(owner wm.Owner) int
}

// Options configures an App.
type Options struct {
	// Theme sizes scrollbars. Nil means the device preset.
	Theme  *theme.Theme
	Popups PopupHost
	Events telemetry.Publisher
	Logger *logging.Logger
}

// App is an application whose widgets are created by remote commands.
//
// Every Setup starts from an empty content container and invalidates all
// handles issued before it; a script.ready event tells clients to build
// the tree again. Coordinates of new elements are relative to their
// parent's origin, except popups, which are placed on the screen.
type App struct {
	name   string
	theme  *theme.Theme
	popups PopupHost
	events telemetry.Publisher
	log    *logging.Logger

	owner   wm.Owner
	handles *Handles
	parents map[Handle]Handle
	open    map[Handle]*widgets.Popup
	width   int
	height  int
	setups  int
}

// New creates a script application.
func New(name string, opts Options) *App {
	return &App{
		name:    name,
		theme:   opts.Theme,
		popups:  opts.Popups,
		events:  opts.Events,
		log:     logging.OrNop(opts.Logger).Component("script").WithApp(name),
		handles: NewHandles(),
		parents: make(map[Handle]Handle),
		open:    make(map[Handle]*widgets.Popup),
	}
}

// Name implements app.Application.
func (a *App) Name() string { return a.name }

// SetOwner records the identity popups are created under.
func (a *App) SetOwner(o wm.Owner) { a.owner = o }

// Owner returns the popup owner identity.
func (a *App) Owner() wm.Owner { return a.owner }

// Handles exposes the handle table.
func (a *App) Handles() *Handles { return a.handles }

// Size returns the content size of the last Setup.
func (a *App) Size() (width, height int) { return a.width, a.height }

// Ready reports whether the app is set up and accepting commands.
func (a *App) Ready() bool {
	_, err := a.handles.Get(Root)
	return err == nil
}

// Setup implements app.Application.
func (a *App) Setup(content *widgets.Container, width, height int) {
	a.reset()
	a.handles.SetRoot(content)
	a.width, a.height = width, height
	a.setups++
	a.log.Debug("script app ready", "width", width, "height", height, "setup", a.setups)
	a.publish(telemetry.EventScriptReady, map[string]any{
		"content": uint64(Root),
		"width":   width,
		"height":  height,
	})
}

// Teardown implements app.Application.
func (a *App) Teardown() { a.reset() }

func (a *App) reset() {
	if a.popups != nil && len(a.open) > 0 {
		open := maps.Clone(a.open)
		for _, h := range slices.Sorted(maps.Keys(open)) {
			a.popups.DestroyPopup(open[h])
		}
	}
	clear(a.open)
	clear(a.parents)
	a.handles.InvalidateAll()
}

func (a *App) publish(typ telemetry.EventType, data map[string]any) {
	if a.events != nil {
		a.events.Publish(telemetry.Event{Type: typ, App: a.name, Data: data})
	}
}

// place adds el to parent at the parent-relative rect and registers it.
func (a *App) place(parent Handle, x, y, w, h int, el widgets.Element) (Handle, error) {
	if w < 0 || h < 0 {
		return 0, errors.Newf(errors.ErrCodeInvalidInput, "negative size %dx%d", w, h)
	}
	c, err := a.handles.Container(parent)
	if err != nil {
		return 0, err
	}
	origin := c.Bounds()
	el.SetBounds(runtime.NewRect(origin.X+x, origin.Y+y, w, h))
	c.Add(el)
	handle := a.handles.Add(el)
	a.parents[handle] = parent
	return handle, nil
}

// Label adds a text label under parent.
func (a *App) Label(parent Handle, x, y, w, h int, text string) (Handle, error) {
	l := widgets.NewLabel(text)
	l.SetWrap(h > 1)
	return a.place(parent, x, y, w, h, l)
}

// Button adds a push button under parent. A click is reported to clients
// as a script.click event carrying the button's handle.
func (a *App) Button(parent Handle, x, y, w, h int, label string) (Handle, error) {
	b := widgets.NewButton(label, nil)
	handle, err := a.place(parent, x, y, w, h, b)
	if err != nil {
		return 0, err
	}
	b.SetOnClick(func() {
		a.publish(telemetry.EventScriptClick, map[string]any{"handle": uint64(handle), "label": b.Label()})
	})
	return handle, nil
}

// Container adds an empty container under parent.
func (a *App) Container(parent Handle, x, y, w, h int) (Handle, error) {
	return a.place(parent, x, y, w, h, widgets.NewContainer())
}

// Popup opens a popup at screen coordinates, owned by this app.
func (a *App) Popup(x, y, w, h int) (Handle, error) {
	if a.popups == nil {
		return 0, errors.New(errors.ErrCodeInternal, "script app has no popup host")
	}
	if !a.Ready() {
		return 0, errors.Newf(errors.ErrCodeAppNotFound, "%s is not open", a.name)
	}
	if w <= 0 || h <= 0 {
		return 0, errors.Newf(errors.ErrCodeInvalidInput, "invalid popup size %dx%d", w, h)
	}
	p := a.popups.CreatePopup(runtime.NewRect(x, y, w, h), a.owner)
	handle := a.handles.Add(p)
	a.open[handle] = p
	// The host may destroy the popup itself, on an outside touch for
	// example. Its handles go with it.
	p.OnDestroy(func() {
		if a.open[handle] == p {
			delete(a.open, handle)
			a.forget(handle)
		}
	})
	return handle, nil
}

// SetText replaces the text of a label or the caption of a button.
func (a *App) SetText(h Handle, text string) error {
	el, err := a.handles.Get(h)
	if err != nil {
		return err
	}
	switch w := el.(type) {
	case *widgets.Label:
		w.SetText(text)
	case *widgets.Button:
		w.SetLabel(text)
	default:
		return wrongKind(h, el, "label or button")
	}
	return nil
}

// Remove destroys the element behind h along with everything created under
// it, invalidating all of their handles.
func (a *App) Remove(h Handle) error {
	if h == Root {
		return errors.New(errors.ErrCodeInvalidInput, "the content container cannot be removed")
	}
	el, err := a.handles.Get(h)
	if err != nil {
		return err
	}
	if p, ok := a.open[h]; ok {
		delete(a.open, h)
		if a.popups != nil {
			a.popups.DestroyPopup(p)
		}
	} else if parent, err := a.handles.Container(a.parents[h]); err == nil {
		parent.Remove(el)
	}
	a.forget(h)
	return nil
}

// Scrollable adds a scroll viewport under parent. Its handle is accepted
// as a parent; children are placed relative to the unscrolled content.
func (a *App) Scrollable(parent Handle, x, y, w, h int) (Handle, error) {
	return a.place(parent, x, y, w, h, widgets.NewScrollable(a.theme))
}

// SetTextColor sets the text colours of a label or button. A button takes
// bg as its face.
func (a *App) SetTextColor(h Handle, fg, bg backend.Color) error {
	el, err := a.handles.Get(h)
	if err != nil {
		return err
	}
	switch w := el.(type) {
	case *widgets.Label:
		w.SetColors(fg, bg)
	case *widgets.Button:
		w.SetColors(bg, fg)
	default:
		return wrongKind(h, el, "label or button")
	}
	return nil
}

// SetBackground fills a container, popup or scrollable with color, or
// stops filling it when color is backend.ColorDefault. A button takes it
// as its face and a label as its background.
func (a *App) SetBackground(h Handle, color backend.Color) error {
	el, err := a.handles.Get(h)
	if err != nil {
		return err
	}
	switch w := el.(type) {
	case *widgets.Button:
		_, fg := w.Colors()
		w.SetColors(color, fg)
		return nil
	case *widgets.Label:
		fg, _ := w.Colors()
		w.SetColors(fg, color)
		return nil
	}
	c, err := a.handles.Container(h)
	if err != nil {
		return err
	}
	if color == backend.ColorDefault {
		c.ClearBackground()
	} else {
		c.SetBackground(color)
	}
	return nil
}

// SetAlign sets the alignment of a label.
func (a *App) SetAlign(h Handle, align widgets.Align) error {
	l, err := a.handles.Label(h)
	if err != nil {
		return err
	}
	l.SetAlign(align)
	return nil
}

// SetContentHeight fixes the content height of a scrollable. Zero or
// less measures the children instead.
func (a *App) SetContentHeight(h Handle, height int) error {
	sc, err := a.handles.Scrollable(h)
	if err != nil {
		return err
	}
	sc.SetContentHeight(height)
	return nil
}

// Bounds returns the element's rectangle relative to its parent's origin.
// The content container and popups are given in screen coordinates.
func (a *App) Bounds(h Handle) (runtime.Rect, error) {
	el, err := a.handles.Get(h)
	if err != nil {
		return runtime.Rect{}, err
	}
	r := el.Bounds()
	if _, ok := a.open[h]; ok || h == Root {
		return r, nil
	}
	parent, err := a.handles.Container(a.parents[h])
	if err != nil {
		return r, nil
	}
	origin := parent.Bounds()
	return r.Translate(-origin.X, -origin.Y), nil
}

// Clear removes every child of a container, popup or scrollable and
// invalidates their handles. The container itself stays.
func (a *App) Clear(h Handle) error {
	c, err := a.handles.Container(h)
	if err != nil {
		return err
	}
	for child, parent := range a.parents {
		if parent == h {
			a.forget(child)
		}
	}
	c.Clear()
	if sc, err := a.handles.Scrollable(h); err == nil {
		sc.ScrollTo(0)
	}
	return nil
}

// WatchTouches reports touches on a container, popup or scrollable to
// clients as script.touch and script.release events, with coordinates
// relative to the container's origin. Turning it off drops the hooks.
func (a *App) WatchTouches(h Handle, on bool) error {
	c, err := a.handles.Container(h)
	if err != nil {
		return err
	}
	if !on {
		c.OnTouch(nil)
		c.OnRelease(nil)
		return nil
	}
	report := func(typ telemetry.EventType, x, y int) {
		origin := c.Bounds()
		a.publish(typ, map[string]any{"handle": uint64(h), "x": x - origin.X, "y": y - origin.Y})
	}
	// Containers see every touch-end; only report the ones they began.
	pressed := false
	c.OnTouch(func(_ runtime.Scheduler, x, y int) {
		pressed = true
		report(telemetry.EventScriptTouch, x, y)
	})
	c.OnRelease(func(_ runtime.Scheduler, x, y int) {
		if pressed {
			pressed = false
			report(telemetry.EventScriptRelease, x, y)
		}
	})
	return nil
}

// forget invalidates h and, depth first, every handle parented to it.
func (a *App) forget(h Handle) {
	for child, parent := range a.parents {
		if parent == h {
			a.forget(child)
		}
	}
	delete(a.parents, h)
	a.handles.Invalidate(h)
}

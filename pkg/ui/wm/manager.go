// Package wm is the window manager: it owns the open application windows,
// their z-order and focus, the panel slot and the transient popups, and
// routes touches between them.
//
// A Manager is single-writer. Every method must be called from the UI
// goroutine; other goroutines go through the bridge.
package wm

import (
	"cmp"
	"slices"
	"sync/atomic"

	"github.com/odvcencio/tinydesk/pkg/logging"
	"github.com/odvcencio/tinydesk/pkg/telemetry"
	"github.com/odvcencio/tinydesk/pkg/ui/app"
	"github.com/odvcencio/tinydesk/pkg/ui/runtime"
	"github.com/odvcencio/tinydesk/pkg/ui/theme"
	"github.com/odvcencio/tinydesk/pkg/ui/widgets"
	"github.com/odvcencio/tinydesk/pkg/ui/window"
)

//go:generate mockgen -package=wm -destination=mock_application_test.go github.com/odvcencio/tinydesk/pkg/ui/app Application

// Owner tags popups for bulk teardown. It is compared by value and never
// resolved back to the object that holds it.
type Owner uint64

// NoOwner is the owner of untagged popups.
const NoOwner Owner = 0

// OwnerAware is implemented by applications that create popups. The
// manager hands over the owner identity of the app's entry before Setup.
type OwnerAware interface {
	SetOwner(Owner)
}

// Overlay is the desktop chrome consulted before popups and windows.
// TouchBegin returns true to take the touch; the overlay then receives
// the moves and the end.
type Overlay interface {
	TouchBegin(s runtime.Scheduler, x, y int) bool
	TouchMove(s runtime.Scheduler, x, y int)
	TouchEnd(s runtime.Scheduler, x, y int)
}

// AppInfo describes an open app.
type AppInfo struct {
	Name   string `json:"name"`
	State  string `json:"state"`
	Active bool   `json:"active"`
}

// Options configures a Manager.
type Options struct {
	Theme       *theme.Theme
	Registry    *app.Registry
	Scheduler   runtime.Scheduler
	Invalidator runtime.Invalidator
	Events      telemetry.Publisher
	Logger      *logging.Logger
}

type openApp struct {
	name        string
	app         app.Application
	win         *window.Window
	owner       Owner
	state       window.State
	preMinimize window.State
}

type panelSlot struct {
	name      string
	app       app.Application
	container *widgets.Container
}

type popupEntry struct {
	popup *widgets.Popup
	owner Owner
}

type touchTarget interface {
	TouchMove(s runtime.Scheduler, x, y int)
	TouchEnd(s runtime.Scheduler, x, y int)
}

// Manager owns the windows of the desktop.
type Manager struct {
	theme    *theme.Theme
	registry *app.Registry
	sched    runtime.Scheduler
	inv      runtime.Invalidator
	events   telemetry.Publisher
	log      *logging.Logger

	apps     []*openApp
	panel    *panelSlot
	popups   []popupEntry
	overlay  Overlay
	keyboard bool
	active   string

	captured touchTarget
	owners   atomic.Uint64
}

// New creates a manager with no open windows.
func New(opts Options) *Manager {
	th := opts.Theme
	if th == nil {
		th = theme.Default()
	}
	reg := opts.Registry
	if reg == nil {
		reg = app.NewRegistry()
	}
	sched := opts.Scheduler
	if sched == nil {
		sched = runtime.NewActionQueue(opts.Logger)
	}
	return &Manager{
		theme:    th,
		registry: reg,
		sched:    sched,
		inv:      opts.Invalidator,
		events:   opts.Events,
		log:      logging.OrNop(opts.Logger).Component("wm"),
	}
}

// Theme returns the theme windows are laid out with.
func (m *Manager) Theme() *theme.Theme { return m.theme }

// Registry returns the app registry OpenApp resolves names in.
func (m *Manager) Registry() *app.Registry { return m.registry }

// SetOverlay installs the desktop chrome hook.
func (m *Manager) SetOverlay(o Overlay) { m.overlay = o }

// NewOwner allocates a popup owner identity.
func (m *Manager) NewOwner() Owner { return Owner(m.owners.Add(1)) }

func (m *Manager) markDirty() {
	if m.inv != nil {
		m.inv.MarkDirty()
	}
}

func (m *Manager) publish(typ telemetry.EventType, name string, data map[string]any) {
	if m.events == nil {
		return
	}
	m.events.Publish(telemetry.Event{Type: typ, App: name, Data: data})
}

func (m *Manager) find(name string) (int, *openApp) {
	for i, e := range m.apps {
		if e.name == name {
			return i, e
		}
	}
	return -1, nil
}

// DesktopArea is the region windows are laid out in: the desktop minus the
// on-screen keyboard when it is shown.
func (m *Manager) DesktopArea() runtime.Rect {
	mt := m.theme.Metrics
	h := mt.DesktopHeight()
	if m.keyboard {
		h -= mt.KeyboardHeight()
	}
	return runtime.NewRect(0, mt.DesktopY(), mt.ScreenWidth, max(0, h))
}

// OpenApp opens the registered app name, or focuses it when already open
// (restoring it if minimized). Unknown names are ignored.
func (m *Manager) OpenApp(name string) bool {
	if _, e := m.find(name); e != nil {
		m.raise(e)
		return true
	}
	a, ok := m.registry.New(name)
	if !ok {
		m.log.Debug("open: no such app", "app", name)
		return false
	}
	return m.OpenInstance(name, a)
}

// OpenInstance opens a window for an existing application instance. When
// an app with that name is already open it is focused and a is dropped.
func (m *Manager) OpenInstance(name string, a app.Application) bool {
	if a == nil {
		return false
	}
	if _, e := m.find(name); e != nil {
		m.raise(e)
		return true
	}
	e := &openApp{name: name, app: a, owner: m.NewOwner()}
	if oa, ok := a.(OwnerAware); ok {
		oa.SetOwner(e.owner)
	}
	m.apps = append(m.apps, e)
	m.build(e)
	m.updateActive()
	telemetry.OpenWindows.Set(float64(len(m.apps)))
	m.log.WithApp(name).Info("app opened")
	m.publish(telemetry.EventAppOpened, name, nil)
	m.markDirty()
	return true
}

func (m *Manager) raise(e *openApp) {
	if e.state == window.Minimized {
		m.RestoreApp(e.name)
		return
	}
	m.FocusApp(e.name)
}

// build creates e's window for its current state and runs Setup against
// the fresh content container. Minimized windows are built unmounted.
func (m *Manager) build(e *openApp) {
	bounds := window.Geometry(e.state, m.theme.Metrics, m.DesktopArea())
	w := window.New(e.name, bounds, m.theme)
	w.SetState(e.state)
	w.SetPreMinimizeState(e.preMinimize)
	if mp, ok := e.app.(app.MenuProvider); ok {
		if menus := mp.Menus(); len(menus) > 0 {
			w.SetMenuBar(widgets.NewMenuBar(m.theme, menus...))
		}
	}
	w.OnClose(func() { m.closeEntry(e) })
	w.OnMinimize(func() {
		if m.live(e) {
			m.MinimizeApp(e.name)
		}
	})
	w.OnStateChange(func(s window.State) {
		if m.live(e) {
			m.SetState(e.name, s)
		}
	})
	e.win = w
	if e.state != window.Minimized {
		w.Mount()
	}
	cb := w.ContentBounds()
	e.app.Setup(w.Content(), cb.Width, cb.Height)
}

// teardown is the inverse of build.
func (m *Manager) teardown(e *openApp) {
	if e.win == nil {
		return
	}
	if m.captured == touchTarget(e.win) {
		m.captured = nil
	}
	e.win.Unmount()
	e.app.Teardown()
	e.win.Destroy()
	e.win = nil
}

// rebuild tears e's window down and builds it again at the geometry of
// its current state.
func (m *Manager) rebuild(e *openApp) {
	m.teardown(e)
	m.build(e)
	m.publish(telemetry.EventAppRebuilt, e.name, map[string]any{"state": e.state.String()})
}

func (m *Manager) live(e *openApp) bool {
	_, cur := m.find(e.name)
	return cur == e
}

// CloseApp tears the app down and removes its window and the popups it
// owns. Unknown names are ignored.
func (m *Manager) CloseApp(name string) bool {
	_, e := m.find(name)
	if e == nil {
		return false
	}
	return m.closeEntry(e)
}

func (m *Manager) closeEntry(e *openApp) bool {
	i := slices.Index(m.apps, e)
	if i < 0 {
		return false
	}
	m.apps = slices.Delete(m.apps, i, i+1)
	m.teardown(e)
	if to, ok := e.app.(app.TimerOwner); ok {
		to.Timers().Stop()
	}
	m.DestroyPopupsForOwner(e.owner)
	m.updateActive()
	telemetry.OpenWindows.Set(float64(len(m.apps)))
	m.log.WithApp(e.name).Info("app closed")
	m.publish(telemetry.EventAppClosed, e.name, nil)
	m.markDirty()
	return true
}

// FocusApp moves the app to the top of the z-order. Unknown names are
// ignored.
func (m *Manager) FocusApp(name string) bool {
	i, e := m.find(name)
	if e == nil {
		return false
	}
	if i != len(m.apps)-1 {
		m.apps = append(slices.Delete(m.apps, i, i+1), e)
		m.markDirty()
	}
	m.updateActive()
	return true
}

// MinimizeApp hides the app's window without changing the z-order.
func (m *Manager) MinimizeApp(name string) bool {
	_, e := m.find(name)
	if e == nil {
		return false
	}
	if e.state == window.Minimized {
		return true
	}
	e.preMinimize = e.state
	e.state = window.Minimized
	if m.captured == touchTarget(e.win) {
		m.captured = nil
	}
	e.win.SetState(window.Minimized)
	e.win.Unmount()
	m.updateActive()
	m.publish(telemetry.EventAppState, name, map[string]any{"state": e.state.String()})
	m.markDirty()
	return true
}

// RestoreApp returns a minimized app to its previous state and focuses
// it. A window that is not minimized is only focused.
func (m *Manager) RestoreApp(name string) bool {
	_, e := m.find(name)
	if e == nil {
		return false
	}
	if e.state == window.Minimized {
		e.state = e.preMinimize
		m.rebuild(e)
		m.publish(telemetry.EventAppState, name, map[string]any{"state": e.state.String()})
		m.markDirty()
	}
	return m.FocusApp(name)
}

// SetState moves the app's window to s, rebuilding it at the new geometry.
func (m *Manager) SetState(name string, s window.State) bool {
	if s == window.Minimized {
		return m.MinimizeApp(name)
	}
	_, e := m.find(name)
	if e == nil {
		return false
	}
	if e.state == window.Minimized {
		e.preMinimize = s
		return m.RestoreApp(name)
	}
	e.state = s
	m.rebuild(e)
	m.updateActive()
	m.publish(telemetry.EventAppState, name, map[string]any{"state": s.String()})
	m.markDirty()
	return true
}

// updateActive marks the topmost non-minimized window active and every
// other window inactive.
func (m *Manager) updateActive() {
	active := ""
	for i := len(m.apps) - 1; i >= 0; i-- {
		if m.apps[i].state != window.Minimized {
			active = m.apps[i].name
			break
		}
	}
	for _, e := range m.apps {
		e.win.SetActive(e.name == active)
	}
	if active != m.active {
		m.active = active
		if active != "" {
			m.publish(telemetry.EventAppFocused, active, nil)
		}
		m.markDirty()
	}
}

// Active returns the name of the active app, or "".
func (m *Manager) Active() string { return m.active }

// IsOpen reports whether an app with that name is open.
func (m *Manager) IsOpen(name string) bool {
	_, e := m.find(name)
	return e != nil
}

// Len returns the number of open apps.
func (m *Manager) Len() int { return len(m.apps) }

// Apps lists open apps bottom to top.
func (m *Manager) Apps() []AppInfo {
	out := make([]AppInfo, 0, len(m.apps))
	for _, e := range m.apps {
		out = append(out, AppInfo{Name: e.name, State: e.state.String(), Active: e.name == m.active})
	}
	return out
}

// Tasks lists open apps in the order they were opened, which stays put
// as focus moves between them.
func (m *Manager) Tasks() []AppInfo {
	byOpen := slices.Clone(m.apps)
	slices.SortFunc(byOpen, func(a, b *openApp) int { return cmp.Compare(a.owner, b.owner) })
	out := make([]AppInfo, 0, len(byOpen))
	for _, e := range byOpen {
		out = append(out, AppInfo{Name: e.name, State: e.state.String(), Active: e.name == m.active})
	}
	return out
}

// State returns the logical state of an open app.
func (m *Manager) State(name string) (window.State, bool) {
	_, e := m.find(name)
	if e == nil {
		return window.Restored, false
	}
	return e.state, true
}

// Window returns the current window of an open app. The pointer changes
// whenever the window is rebuilt.
func (m *Manager) Window(name string) *window.Window {
	if _, e := m.find(name); e != nil {
		return e.win
	}
	return nil
}

// Application returns the instance behind an open app.
func (m *Manager) Application(name string) app.Application {
	if _, e := m.find(name); e != nil {
		return e.app
	}
	return nil
}

// Owner returns the popup owner identity of an open app.
func (m *Manager) Owner(name string) (Owner, bool) {
	if _, e := m.find(name); e != nil {
		return e.owner, true
	}
	return NoOwner, false
}

// SetKeyboardVisible records whether the on-screen keyboard takes part of
// the desktop and relayouts every window when that changes.
func (m *Manager) SetKeyboardVisible(visible bool) {
	if visible == m.keyboard {
		return
	}
	m.keyboard = visible
	m.RelayoutAll()
	m.publish(telemetry.EventKeyboard, "", map[string]any{"visible": visible})
	m.markDirty()
}

// KeyboardVisible reports the keyboard flag.
func (m *Manager) KeyboardVisible() bool { return m.keyboard }

// RelayoutAll rebuilds every visible window at the current desktop
// geometry. Minimized windows are rebuilt when they are restored.
func (m *Manager) RelayoutAll() {
	for _, e := range m.apps {
		if e.state == window.Minimized {
			continue
		}
		m.rebuild(e)
	}
	m.updateActive()
	m.markDirty()
}

// Package desktop assembles the window manager, taskbar, start menu,
// on-screen keyboard and error dialog into a running desktop, and owns the
// UI loop that drives them.
package desktop

import (
	"sync"
	"time"

	"golang.org/x/time/rate"

	"github.com/odvcencio/tinydesk/pkg/logging"
	"github.com/odvcencio/tinydesk/pkg/telemetry"
	"github.com/odvcencio/tinydesk/pkg/ui/app"
	"github.com/odvcencio/tinydesk/pkg/ui/backend"
	"github.com/odvcencio/tinydesk/pkg/ui/bridge"
	"github.com/odvcencio/tinydesk/pkg/ui/runtime"
	"github.com/odvcencio/tinydesk/pkg/ui/terminal"
	"github.com/odvcencio/tinydesk/pkg/ui/theme"
	"github.com/odvcencio/tinydesk/pkg/ui/widgets"
	"github.com/odvcencio/tinydesk/pkg/ui/window"
	"github.com/odvcencio/tinydesk/pkg/ui/wm"
)

const (
	defaultTick          = 10 * time.Millisecond
	defaultFrameInterval = 33 * time.Millisecond
	defaultInputBuffer   = 64
)

// Options configures a Desktop.
type Options struct {
	Backend  backend.Backend
	Theme    *theme.Theme
	Registry *app.Registry
	Bridge   *bridge.Bridge
	Events   telemetry.Publisher
	Logger   *logging.Logger

	// Width and Height pin the screen size; zero follows the backend.
	Width  int
	Height int

	StripHeight   int
	MaxCells      int
	Tick          time.Duration
	FrameInterval time.Duration
	InputBuffer   int

	// Autostart apps are opened, in order, when Run starts.
	Autostart []string
	// PanelApp is hosted in the taskbar tray.
	PanelApp string
}

// Desktop is the top of the UI: it is the window manager's overlay and the
// owner of the UI loop. Apart from Shutdown and Bridge, its methods must be
// called on the UI goroutine.
type Desktop struct {
	opts    Options
	theme   *theme.Theme
	backend backend.Backend
	log     *logging.Logger
	events  telemetry.Publisher

	queue    *runtime.ActionQueue
	sched    *dispatcher
	renderer *runtime.StripRenderer
	limiter  *rate.Limiter
	bridge   *bridge.Bridge
	wm       *wm.Manager

	taskbar    *Taskbar
	startMenu  *widgets.StartMenu
	keyboard   *widgets.Keyboard
	focus      widgets.KeyTarget
	errorOwner wm.Owner
	panelApp   string

	captured capture
	input    chan terminal.Event
	quit     chan struct{}
	quitOnce sync.Once
}

type capture int

const (
	captureNone capture = iota
	captureStart
	captureKeyboard
	captureTaskbar
	captureSwallow
)

// dispatcher is the scheduler handed to touch handlers. Besides queueing
// actions it routes keyboard focus requests from text fields.
type dispatcher struct{ d *Desktop }

func (s *dispatcher) Queue(fn func()) { s.d.queue.Queue(fn) }

func (s *dispatcher) RequestFocus(t widgets.KeyTarget) {
	s.d.queue.Queue(func() { s.d.SetFocus(t) })
}

// New assembles a desktop over the given backend.
func New(opts Options) *Desktop {
	if opts.Theme == nil {
		opts.Theme = theme.Default()
	}
	if opts.Registry == nil {
		opts.Registry = app.NewRegistry()
	}
	if opts.Tick <= 0 {
		opts.Tick = defaultTick
	}
	if opts.FrameInterval <= 0 {
		opts.FrameInterval = defaultFrameInterval
	}
	if opts.InputBuffer <= 0 {
		opts.InputBuffer = defaultInputBuffer
	}
	log := logging.OrNop(opts.Logger)
	if opts.Bridge == nil {
		opts.Bridge = bridge.New(bridge.DefaultQueueSize, log)
	}

	th := opts.Theme
	d := &Desktop{
		opts:     opts,
		theme:    th,
		backend:  opts.Backend,
		log:      log.Component("desktop"),
		events:   opts.Events,
		queue:    runtime.NewActionQueue(log),
		limiter:  rate.NewLimiter(rate.Every(opts.FrameInterval), 1),
		bridge:   opts.Bridge,
		panelApp: opts.PanelApp,
		input:    make(chan terminal.Event, opts.InputBuffer),
		quit:     make(chan struct{}),
	}
	d.sched = &dispatcher{d: d}
	d.wm = wm.New(wm.Options{
		Theme:       th,
		Registry:    opts.Registry,
		Scheduler:   d.sched,
		Invalidator: d,
		Events:      opts.Events,
		Logger:      log,
	})
	d.wm.SetOverlay(d)
	d.errorOwner = d.wm.NewOwner()

	d.taskbar = newTaskbar(th, d.wm.Tasks)
	d.startMenu = widgets.NewStartMenu(th)
	d.keyboard = widgets.NewKeyboard(th)
	d.keyboard.SetOnKey(d.typeRune)

	d.taskbar.startOpen = d.startMenu.Visible
	d.taskbar.onStart = d.toggleStartMenu
	d.taskbar.onKbd = d.ToggleKeyboard
	d.taskbar.onApp = d.taskbarApp
	return d
}

// Manager returns the window manager.
func (d *Desktop) Manager() *wm.Manager { return d.wm }

// Bridge returns the bridge other goroutines use to reach the UI.
func (d *Desktop) Bridge() *bridge.Bridge { return d.bridge }

// Renderer returns the strip renderer, or nil before Start.
func (d *Desktop) Renderer() *runtime.StripRenderer { return d.renderer }

// Scheduler is the action queue touch handlers and commands defer work to.
func (d *Desktop) Scheduler() runtime.Scheduler { return d.sched }

// Theme returns the live theme.
func (d *Desktop) Theme() *theme.Theme { return d.theme }

// Taskbar returns the taskbar.
func (d *Desktop) Taskbar() *Taskbar { return d.taskbar }

// StartMenu returns the start menu.
func (d *Desktop) StartMenu() *widgets.StartMenu { return d.startMenu }

// Keyboard returns the on-screen keyboard.
func (d *Desktop) Keyboard() *widgets.Keyboard { return d.keyboard }

// MarkDirty requests a repaint. Before Start there is nothing to repaint.
func (d *Desktop) MarkDirty() {
	if d.renderer != nil {
		d.renderer.MarkDirty()
	}
}

// Redraw forces the next frame to be painted in full.
func (d *Desktop) Redraw() {
	d.backend.Sync()
	d.MarkDirty()
}

// SetFrameInterval changes the minimum time between repaints.
func (d *Desktop) SetFrameInterval(iv time.Duration) {
	if iv <= 0 {
		return
	}
	d.opts.FrameInterval = iv
	d.limiter.SetLimit(rate.Every(iv))
}

// FrameInterval returns the minimum time between repaints.
func (d *Desktop) FrameInterval() time.Duration { return d.opts.FrameInterval }

// Shutdown stops Run. It may be called from any goroutine.
func (d *Desktop) Shutdown() {
	d.quitOnce.Do(func() { close(d.quit) })
}

func (d *Desktop) publish(typ telemetry.EventType, name string, data map[string]any) {
	if d.events != nil {
		d.events.Publish(telemetry.Event{Type: typ, App: name, Data: data})
	}
}

// startItems builds the start menu from the registry.
func (d *Desktop) startItems() []widgets.MenuItem {
	var programs []widgets.MenuItem
	for _, name := range d.opts.Registry.Names() {
		programs = append(programs, widgets.Leaf(name, func() { d.wm.OpenApp(name) }))
	}
	return []widgets.MenuItem{
		widgets.Submenu("Programs", programs...),
		widgets.Submenu("Settings",
			widgets.Leaf("Keyboard", d.ToggleKeyboard),
			widgets.Leaf("Redraw", d.Redraw),
			widgets.Leaf("Close All", d.closeAll),
		),
		widgets.Separator(),
		widgets.Leaf("Shut Down", d.Shutdown),
	}
}

func (d *Desktop) toggleStartMenu() {
	if d.startMenu.Visible() {
		d.startMenu.Hide()
	} else {
		d.startMenu.SetItems(d.startItems()...)
		d.startMenu.Show()
	}
	d.MarkDirty()
}

func (d *Desktop) closeAll() {
	for _, info := range d.wm.Apps() {
		d.wm.CloseApp(info.Name)
	}
}

// taskbarApp minimizes the active app, and restores or focuses any other.
func (d *Desktop) taskbarApp(name string) {
	state, ok := d.wm.State(name)
	switch {
	case !ok:
	case d.wm.Active() == name:
		d.wm.MinimizeApp(name)
	case state == window.Minimized:
		d.wm.RestoreApp(name)
	default:
		d.wm.FocusApp(name)
	}
}

// OpenPanel hosts the named app in the taskbar tray.
func (d *Desktop) OpenPanel(name string) bool {
	a, ok := d.opts.Registry.New(name)
	if !ok {
		return false
	}
	d.panelApp = name
	d.wm.OpenPanel(name, a, d.taskbar.TrayRect())
	return true
}

// SetKeyboardVisible shows or hides the on-screen keyboard and gives or
// takes back its share of the desktop. Hiding it drops text focus.
func (d *Desktop) SetKeyboardVisible(visible bool) {
	if visible {
		d.keyboard.Show()
	} else {
		d.keyboard.Hide()
		d.clearFocus()
	}
	d.wm.SetKeyboardVisible(visible)
	d.MarkDirty()
}

// ToggleKeyboard flips the keyboard.
func (d *Desktop) ToggleKeyboard() { d.SetKeyboardVisible(!d.keyboard.Visible()) }

// Focus returns the text target typed input goes to, or nil.
func (d *Desktop) Focus() widgets.KeyTarget { return d.focus }

// SetFocus routes typed input to t and shows the keyboard. The keyboard
// is shown first: the relayout it causes rebuilds app content, and apps
// that keep their fields across rebuilds keep the focus.
func (d *Desktop) SetFocus(t widgets.KeyTarget) {
	if t == nil {
		d.clearFocus()
		return
	}
	if d.focus != nil && d.focus != t {
		d.focus.Blur()
	}
	d.focus = t
	if !d.keyboard.Visible() {
		d.SetKeyboardVisible(true)
	}
	t.Focus()
	d.MarkDirty()
}

func (d *Desktop) clearFocus() {
	if d.focus != nil {
		d.focus.Blur()
		d.focus = nil
	}
}

type focusReporter interface{ Focused() bool }

// target returns the focused field, dropping it once it lost focus on its
// own (its window was rebuilt or closed).
func (d *Desktop) target() widgets.KeyTarget {
	if d.focus == nil {
		return nil
	}
	if fr, ok := d.focus.(focusReporter); ok && !fr.Focused() {
		d.focus = nil
	}
	return d.focus
}

// typeRune delivers a keyboard rune to the focused field.
func (d *Desktop) typeRune(r rune) {
	t := d.target()
	if t == nil {
		return
	}
	switch r {
	case widgets.RuneBackspace:
		t.Backspace()
	case widgets.RuneEnter:
		t.Submit()
	default:
		t.InsertRune(r)
	}
	d.MarkDirty()
}

// Draw paints one strip of the whole desktop: background, taskbar,
// windows with the tray panel and popups, then the keyboard and the start
// menu on top.
func (d *Desktop) Draw(c *runtime.Canvas) {
	m := d.theme.Metrics
	desk := runtime.NewRect(0, m.DesktopY(), m.ScreenWidth, m.DesktopHeight())
	c.Fill(desk, c.Palette().DesktopBg)
	d.taskbar.Draw(c)
	d.wm.Draw(c)
	if d.keyboard.Visible() {
		d.keyboard.Draw(c)
	}
	d.startMenu.Draw(c)
}

// TouchBegin is the overlay hook of the window manager. It declines every
// touch while a popup is showing so the popup dismissal rule covers the
// whole screen.
func (d *Desktop) TouchBegin(s runtime.Scheduler, x, y int) bool {
	d.captured = captureNone
	if d.wm.HasVisiblePopups() {
		return false
	}
	if d.startMenu.Visible() {
		if d.startMenu.HandleTouch(s, x, y) {
			d.captured = captureStart
			return true
		}
		d.MarkDirty()
		if d.taskbar.StartRect().Contains(x, y) {
			d.captured = captureSwallow
			return true
		}
	}
	if d.keyboard.Visible() && d.keyboard.HandleTouch(s, x, y) {
		d.captured = captureKeyboard
		return true
	}
	if d.taskbar.Bounds().Contains(x, y) && !d.wm.PanelBounds().Contains(x, y) {
		d.taskbar.TouchBegin(s, x, y)
		d.captured = captureTaskbar
		return true
	}
	return false
}

// TouchMove follows a drag on the start menu.
func (d *Desktop) TouchMove(s runtime.Scheduler, x, y int) {
	if d.captured == captureStart {
		d.startMenu.HandleTouchMove(s, x, y)
	}
}

// TouchEnd finishes a touch the overlay took.
func (d *Desktop) TouchEnd(s runtime.Scheduler, x, y int) {
	c := d.captured
	d.captured = captureNone
	switch c {
	case captureStart:
		d.startMenu.HandleTouchEnd(s, x, y)
	case captureKeyboard:
		d.keyboard.HandleTouchEnd(s, x, y)
	case captureTaskbar:
		d.taskbar.TouchEnd(s, x, y)
	}
}

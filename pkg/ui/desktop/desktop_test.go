package desktop

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/odvcencio/tinydesk/pkg/telemetry"
	"github.com/odvcencio/tinydesk/pkg/ui/app"
	"github.com/odvcencio/tinydesk/pkg/ui/backend/sim"
	"github.com/odvcencio/tinydesk/pkg/ui/bridge"
	"github.com/odvcencio/tinydesk/pkg/ui/runtime"
	"github.com/odvcencio/tinydesk/pkg/ui/terminal"
	"github.com/odvcencio/tinydesk/pkg/ui/theme"
	"github.com/odvcencio/tinydesk/pkg/ui/widgets"
	"github.com/odvcencio/tinydesk/pkg/ui/window"
)

// fieldApp keeps one text field across rebuilds, like a notes app.
type fieldApp struct {
	name   string
	field  *widgets.TextField
	setups int
}

func newFieldApp(name string) *fieldApp {
	return &fieldApp{name: name, field: widgets.NewTextField("type here")}
}

func (a *fieldApp) Name() string { return a.name }

func (a *fieldApp) Setup(c *widgets.Container, w, h int) {
	a.setups++
	b := c.Bounds()
	a.field.SetBounds(runtime.NewRect(b.X, b.Y, w, 1))
	c.Add(a.field)
}

func (a *fieldApp) Teardown() {}

type eventLog struct{ events []telemetry.Event }

func (l *eventLog) Publish(e telemetry.Event) { l.events = append(l.events, e) }

func (l *eventLog) has(typ telemetry.EventType) bool {
	for _, e := range l.events {
		if e.Type == typ {
			return true
		}
	}
	return false
}

type harness struct {
	d      *Desktop
	screen *sim.Backend
	apps   map[string]*fieldApp
	events *eventLog
}

func newHarness(t *testing.T, names ...string) *harness {
	t.Helper()
	h := &harness{
		screen: sim.New(80, 24),
		apps:   make(map[string]*fieldApp),
		events: &eventLog{},
	}
	reg := app.NewRegistry()
	for _, name := range names {
		a := newFieldApp(name)
		h.apps[name] = a
		reg.MustRegister(name, func() app.Application { return a })
	}
	h.d = New(Options{
		Backend:       h.screen,
		Theme:         theme.Terminal(),
		Registry:      reg,
		Events:        h.events,
		FrameInterval: time.Nanosecond,
	})
	require.NoError(t, h.d.Start())
	t.Cleanup(h.d.Stop)
	return h
}

func (h *harness) tap(x, y int) {
	h.d.HandleEvent(terminal.PointerEvent{X: x, Y: y, Phase: terminal.PointerDown})
	h.d.HandleEvent(terminal.PointerEvent{X: x, Y: y, Phase: terminal.PointerUp})
	h.d.Step()
}

func (h *harness) key(k terminal.Key, r rune) {
	h.d.HandleEvent(terminal.KeyEvent{Key: k, Rune: r})
	h.d.Step()
}

func TestStartMenuLaunchesApp(t *testing.T) {
	h := newHarness(t, "alpha", "beta")

	h.tap(1, 23)
	require.True(t, h.d.StartMenu().Visible())
	assert.Equal(t, runtime.NewRect(0, 17, 18, 6), h.d.StartMenu().MainRect())

	// Programs opens its submenu beside the panel.
	h.tap(2, 18)
	require.True(t, h.d.StartMenu().Visible())
	assert.Equal(t, runtime.NewRect(17, 18, 18, 4), h.d.StartMenu().SubRect())

	h.tap(20, 20)
	assert.False(t, h.d.StartMenu().Visible())
	assert.True(t, h.d.Manager().IsOpen("beta"))
	assert.Equal(t, "beta", h.d.Manager().Active())
}

func TestStartMenuDismissal(t *testing.T) {
	h := newHarness(t, "alpha")
	h.d.Manager().OpenApp("alpha")

	h.tap(1, 23)
	require.True(t, h.d.StartMenu().Visible())

	// Tapping the start button again closes the menu without reopening it.
	h.tap(1, 23)
	assert.False(t, h.d.StartMenu().Visible())

	h.tap(1, 23)
	require.True(t, h.d.StartMenu().Visible())

	// A touch elsewhere closes the menu and still reaches the window.
	h.tap(76, 2)
	assert.False(t, h.d.StartMenu().Visible())
	assert.False(t, h.d.Manager().IsOpen("alpha"))
}

func TestTaskbarButtonsMinimizeAndRestore(t *testing.T) {
	h := newHarness(t, "alpha", "beta")
	wm := h.d.Manager()
	wm.OpenApp("alpha")
	wm.OpenApp("beta")

	rects := h.d.Taskbar().AppRects(2)
	require.Len(t, rects, 2)

	// Tapping a background app focuses it.
	h.tap(rects[0].X+1, rects[0].Y)
	assert.Equal(t, "alpha", wm.Active())

	// Tapping the active app minimizes it.
	h.tap(rects[0].X+1, rects[0].Y)
	state, _ := wm.State("alpha")
	assert.Equal(t, window.Minimized, state)
	assert.Equal(t, "beta", wm.Active())

	// And tapping it again brings it back on top.
	h.tap(rects[0].X+1, rects[0].Y)
	state, _ = wm.State("alpha")
	assert.Equal(t, window.Restored, state)
	assert.Equal(t, "alpha", wm.Active())
}

func TestKeyboardToggleResizesWindows(t *testing.T) {
	h := newHarness(t, "alpha")
	h.d.Manager().OpenApp("alpha")

	kb := h.d.Taskbar().KeyboardRect()
	h.tap(kb.X+1, kb.Y)
	require.True(t, h.d.Keyboard().Visible())
	assert.Equal(t, runtime.NewRect(1, 1, 78, 10), h.d.Manager().Window("alpha").Bounds())

	h.tap(kb.X+1, kb.Y)
	assert.False(t, h.d.Keyboard().Visible())
	assert.Equal(t, runtime.NewRect(1, 1, 78, 21), h.d.Manager().Window("alpha").Bounds())
}

func TestTextFieldFocusAndTyping(t *testing.T) {
	h := newHarness(t, "notes")
	h.d.Manager().OpenApp("notes")
	a := h.apps["notes"]
	setups := a.setups

	h.tap(4, 3)
	require.True(t, a.field.Focused())
	assert.True(t, h.d.Keyboard().Visible())
	assert.Greater(t, a.setups, setups, "showing the keyboard relayouts the window")

	h.key(terminal.KeyRune, 'h')
	h.key(terminal.KeyRune, 'i')
	assert.Equal(t, "hi", a.field.Text())

	// The on-screen Q key types into the same field.
	h.tap(3, 12)
	assert.Equal(t, "hiq", a.field.Text())

	h.key(terminal.KeyBackspace, 0)
	assert.Equal(t, "hi", a.field.Text())

	h.key(terminal.KeyEscape, 0)
	assert.False(t, h.d.Keyboard().Visible())
	assert.False(t, a.field.Focused())
	assert.Nil(t, h.d.Focus())

	h.key(terminal.KeyRune, 'x')
	assert.Equal(t, "hi", a.field.Text())
}

func TestFocusDroppedWhenWindowCloses(t *testing.T) {
	h := newHarness(t, "notes")
	h.d.Manager().OpenApp("notes")
	h.tap(4, 3)
	require.NotNil(t, h.d.Focus())

	h.d.Manager().CloseApp("notes")
	h.key(terminal.KeyRune, 'z')
	assert.Nil(t, h.d.Focus())
	assert.Empty(t, h.apps["notes"].field.Text())
}

func findButton(t *testing.T, p *widgets.Popup) *widgets.Button {
	t.Helper()
	for _, el := range p.Children() {
		if b, ok := el.(*widgets.Button); ok {
			return b
		}
	}
	t.Fatal("popup has no button")
	return nil
}

func TestShowErrorDialog(t *testing.T) {
	h := newHarness(t)
	wm := h.d.Manager()

	p := h.d.ShowError("Oops", "The thing you asked for could not be done because it broke.")
	require.True(t, p.Visible())
	assert.True(t, h.events.has(telemetry.EventErrorShown))

	r := p.Bounds()
	assert.Equal(t, 60, r.Width)
	assert.Equal(t, (80-60)/2, r.X)

	// A second error replaces the first.
	p2 := h.d.ShowError("Again", "Second failure.")
	assert.Equal(t, []*widgets.Popup{p2}, wm.Popups())

	ok := findButton(t, p2).Bounds()
	h.tap(ok.X+1, ok.Y)
	assert.False(t, wm.HasVisiblePopups())
}

func TestErrorDialogDismissedByOutsideTouch(t *testing.T) {
	h := newHarness(t)
	h.d.ShowError("Oops", "Failed.")

	// The start button is under the overlay, but popups take precedence.
	h.tap(1, 23)
	assert.False(t, h.d.Manager().HasVisiblePopups())
	assert.False(t, h.d.StartMenu().Visible())
}

func TestRendersDesktop(t *testing.T) {
	h := newHarness(t, "alpha")
	h.d.Manager().OpenApp("alpha")
	h.d.Step()

	assert.True(t, h.screen.ContainsText("Start"))
	assert.True(t, h.screen.ContainsText("alpha"))
	assert.False(t, h.d.Renderer().Dirty())
	assert.Positive(t, h.screen.Shows())
}

func TestResizeRelayouts(t *testing.T) {
	h := newHarness(t, "alpha")
	h.d.Manager().OpenApp("alpha")

	h.screen.Resize(100, 30)
	h.d.HandleEvent(terminal.ResizeEvent{Width: 100, Height: 30})

	m := h.d.Theme().Metrics
	assert.Equal(t, 100, m.ScreenWidth)
	assert.Equal(t, 29, m.TaskbarY())
	assert.Equal(t, runtime.NewRect(1, 1, 98, 27), h.d.Manager().Window("alpha").Bounds())
}

func TestCtrlQShutsDown(t *testing.T) {
	h := newHarness(t)
	h.key(terminal.KeyCtrlQ, 0)
	select {
	case <-h.d.quit:
	default:
		t.Fatal("ctrl-q did not shut the desktop down")
	}
}

func TestRunServesBridgeCalls(t *testing.T) {
	reg := app.NewRegistry()
	reg.MustRegister("alpha", func() app.Application { return newFieldApp("alpha") })
	d := New(Options{
		Backend:  sim.New(80, 24),
		Theme:    theme.Terminal(),
		Registry: reg,
		Tick:     time.Millisecond,
	})

	done := make(chan error, 1)
	go func() { done <- d.Run(context.Background()) }()
	require.Eventually(t, d.Bridge().Attached, time.Second, time.Millisecond)

	ctx := context.Background()
	require.NoError(t, d.Bridge().PostSync(ctx, func() error {
		d.Manager().OpenApp("alpha")
		return nil
	}))
	open, err := bridge.Call(ctx, d.Bridge(), func() (bool, error) {
		return d.Manager().IsOpen("alpha"), nil
	})
	require.NoError(t, err)
	assert.True(t, open)

	d.Shutdown()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(time.Second):
		t.Fatal("Run did not return after Shutdown")
	}
}

func TestRunStopsWithContext(t *testing.T) {
	d := New(Options{Backend: sim.New(80, 24), Theme: theme.Terminal(), Tick: time.Millisecond})
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- d.Run(ctx) }()
	require.Eventually(t, d.Bridge().Attached, time.Second, time.Millisecond)

	cancel()
	select {
	case err := <-done:
		assert.ErrorIs(t, err, context.Canceled)
	case <-time.After(time.Second):
		t.Fatal("Run did not return after cancel")
	}
}

func TestSetFrameInterval(t *testing.T) {
	h := newHarness(t)
	h.d.SetFrameInterval(50 * time.Millisecond)
	assert.Equal(t, 50*time.Millisecond, h.d.FrameInterval())
	assert.InDelta(t, 20, float64(h.d.limiter.Limit()), 0.001)

	h.d.SetFrameInterval(0)
	assert.Equal(t, 50*time.Millisecond, h.d.FrameInterval(), "non-positive intervals are ignored")
}

func TestFixedScreenSize(t *testing.T) {
	d := New(Options{Backend: sim.New(80, 24), Theme: theme.Terminal(), Width: 60, Height: 20})
	require.NoError(t, d.Start())
	t.Cleanup(d.Stop)
	assert.Equal(t, 60, d.Theme().Metrics.ScreenWidth)
	assert.Equal(t, 20, d.Theme().Metrics.ScreenHeight)

	d.HandleEvent(terminal.ResizeEvent{Width: 100, Height: 30})
	assert.Equal(t, 60, d.Theme().Metrics.ScreenWidth, "a pinned size ignores resizes")
}

func TestPinnedSizeSizesStripBuffer(t *testing.T) {
	d := New(Options{Backend: sim.New(80, 24), Theme: theme.Terminal(), Width: 120, Height: 40, StripHeight: 8})
	require.NoError(t, d.Start())
	t.Cleanup(d.Stop)

	w, h := d.Renderer().Size()
	assert.Equal(t, [2]int{120, 40}, [2]int{w, h})
	assert.Equal(t, 5, d.Renderer().Render(nil), "strips cover the pinned height, not the terminal's")

	d.HandleEvent(terminal.ResizeEvent{Width: 100, Height: 30})
	w, _ = d.Renderer().Size()
	assert.Equal(t, 120, w)
}

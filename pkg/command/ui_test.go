package command

import (
	"context"
	"strconv"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/odvcencio/tinydesk/pkg/errors"
	"github.com/odvcencio/tinydesk/pkg/script"
	"github.com/odvcencio/tinydesk/pkg/ui/app"
	"github.com/odvcencio/tinydesk/pkg/ui/backend/sim"
	"github.com/odvcencio/tinydesk/pkg/ui/desktop"
	"github.com/odvcencio/tinydesk/pkg/ui/theme"
	"github.com/odvcencio/tinydesk/pkg/ui/widgets"
	"github.com/odvcencio/tinydesk/pkg/ui/window"
)

type plainApp struct{ name string }

func (a plainApp) Name() string                       { return a.name }
func (a plainApp) Setup(*widgets.Container, int, int) {}
func (a plainApp) Teardown()                          {}

// newUIRegistry builds a desktop that is never started: with the bridge
// detached, every ui.* command runs inline on the test goroutine.
func newUIRegistry(t *testing.T) (*Registry, *desktop.Desktop) {
	t.Helper()
	apps := app.NewRegistry()
	apps.MustRegister("Notes", func() app.Application { return plainApp{name: "Notes"} })
	apps.MustRegister("Clock", func() app.Application { return plainApp{name: "Clock"} })
	d := desktop.New(desktop.Options{Backend: sim.New(80, 24), Theme: theme.Terminal(), Registry: apps})
	apps.MustRegister("Script", func() app.Application {
		return script.New("Script", script.Options{Popups: d.Manager()})
	})
	r := NewRegistry(Options{})
	require.NoError(t, RegisterUI(r, d))
	return r, d
}

func TestUIAppCommands(t *testing.T) {
	r, d := newUIRegistry(t)
	ctx := context.Background()
	m := d.Manager()

	resp := r.Execute(ctx, "ui.open Notes")
	require.True(t, resp.OK, resp.Message)
	require.True(t, r.Execute(ctx, "ui.open Clock").OK)
	assert.Equal(t, "Clock", m.Active())

	assert.True(t, r.Execute(ctx, "ui.focus Notes").OK)
	assert.Equal(t, "Notes", m.Active())

	assert.True(t, r.Execute(ctx, "ui.min Notes").OK)
	s, _ := m.State("Notes")
	assert.Equal(t, window.Minimized, s)

	assert.True(t, r.Execute(ctx, "ui.restore Notes").OK)
	assert.True(t, r.Execute(ctx, "ui.state Notes top-half").OK)
	s, _ = m.State("Notes")
	assert.Equal(t, window.TopHalf, s)

	resp = r.Execute(ctx, "ui.state Notes sideways")
	assert.Equal(t, errors.ErrCodeCommandUsage, resp.Code)

	resp = r.Execute(ctx, "ui.list")
	require.True(t, resp.OK)
	list, ok := resp.Data.(AppList)
	require.True(t, ok)
	assert.Equal(t, "Notes", list.Active)
	assert.Len(t, list.Apps, 2)
	assert.Equal(t, "Clock Notes", resp.Message)

	assert.True(t, r.Execute(ctx, "ui.close Clock").OK)
	resp = r.Execute(ctx, "ui.close Clock")
	assert.Equal(t, errors.ErrCodeAppNotFound, resp.Code)
	assert.Equal(t, "Clock is not open", resp.Message)

	resp = r.Execute(ctx, "ui.open Solitaire")
	assert.Equal(t, "no app named Solitaire", resp.Message)
}

func TestUIKeyboardErrorAndPanel(t *testing.T) {
	r, d := newUIRegistry(t)
	ctx := context.Background()

	require.True(t, r.Execute(ctx, "ui.keyboard on").OK)
	assert.True(t, d.Keyboard().Visible())
	assert.True(t, d.Manager().KeyboardVisible())
	require.True(t, r.Execute(ctx, "ui.keyboard toggle").OK)
	assert.False(t, d.Keyboard().Visible())
	assert.False(t, r.Execute(ctx, "ui.keyboard maybe").OK)

	require.True(t, r.Execute(ctx, `ui.error Oops the disk is full`).OK)
	popups := d.Manager().Popups()
	require.Len(t, popups, 1)

	require.True(t, r.Execute(ctx, "ui.panel Clock").OK)
	name, ok := d.Manager().Panel()
	assert.True(t, ok)
	assert.Equal(t, "Clock", name)
	require.True(t, r.Execute(ctx, "ui.panel off").OK)
	_, ok = d.Manager().Panel()
	assert.False(t, ok)

	assert.True(t, r.Execute(ctx, "ui.apps").OK)
}

func TestUIScriptCommands(t *testing.T) {
	r, d := newUIRegistry(t)
	ctx := context.Background()

	resp := r.Execute(ctx, "ui.script.label 0 0 0 10 1 hi")
	assert.Equal(t, errors.ErrCodeAppNotFound, resp.Code)

	require.True(t, r.Execute(ctx, "ui.open Script").OK)
	a := d.Manager().Application("Script").(*script.App)

	resp = r.Execute(ctx, `ui.script.container 0 1 1 30 5`)
	require.True(t, resp.OK, resp.Message)
	box := resp.Data.(map[string]uint64)["handle"]

	resp = r.Execute(ctx, "ui.script.label "+script.Handle(box).String()+" 0 0 20 1 hello there")
	require.True(t, resp.OK, resp.Message)
	lh := script.Handle(resp.Data.(map[string]uint64)["handle"])
	l, err := a.Handles().Label(lh)
	require.NoError(t, err)
	assert.Equal(t, "hello there", l.Text())

	require.True(t, r.Execute(ctx, "ui.script.settext "+lh.String()+" bye").OK)
	assert.Equal(t, "bye", l.Text())

	resp = r.Execute(ctx, "ui.script.button 0 0 8 6 1 Go")
	require.True(t, resp.OK, resp.Message)

	resp = r.Execute(ctx, "ui.script.label 0 x 0 1 1 t")
	assert.Equal(t, errors.ErrCodeCommandUsage, resp.Code)

	resp = r.Execute(ctx, "ui.script.popup 10 5 20 6")
	require.True(t, resp.OK, resp.Message)
	assert.True(t, d.Manager().HasVisiblePopups())

	require.True(t, r.Execute(ctx, "ui.script.remove "+script.Handle(box).String()).OK)
	resp = r.Execute(ctx, "ui.script.settext "+lh.String()+" again")
	assert.Equal(t, errors.ErrCodeHandleNotFound, resp.Code)

	require.True(t, r.Execute(ctx, "ui.close Script").OK)
	assert.False(t, d.Manager().HasVisiblePopups())
}

func TestUIScriptWidgetCommands(t *testing.T) {
	r, d := newUIRegistry(t)
	ctx := context.Background()
	require.True(t, r.Execute(ctx, "ui.open Script").OK)
	a := d.Manager().Application("Script").(*script.App)
	handle := func(resp Response) string {
		t.Helper()
		require.True(t, resp.OK, resp.Message)
		return script.Handle(resp.Data.(map[string]uint64)["handle"]).String()
	}

	sc := handle(r.Execute(ctx, "ui.script.scrollable 0 0 0 30 4"))
	lh := handle(r.Execute(ctx, "ui.script.label "+sc+" 2 1 10 1 inside"))

	resp := r.Execute(ctx, "ui.script.bounds "+lh)
	require.True(t, resp.OK, resp.Message)
	assert.Equal(t, "2 1 10 1", resp.Message)
	assert.Equal(t, Bounds{X: 2, Y: 1, Width: 10, Height: 1}, resp.Data)

	assert.True(t, r.Execute(ctx, "ui.script.contentheight "+sc+" 40").OK)
	assert.True(t, r.Execute(ctx, "ui.script.contentheight "+sc+" auto").OK)
	assert.Equal(t, errors.ErrCodeHandleKind, r.Execute(ctx, "ui.script.contentheight "+lh+" 4").Code)

	assert.True(t, r.Execute(ctx, "ui.script.color "+lh+" #ff0000 0xFFFF").OK)
	assert.True(t, r.Execute(ctx, "ui.script.bgcolor "+sc+" 0x0410").OK)
	assert.Equal(t, errors.ErrCodeCommandUsage, r.Execute(ctx, "ui.script.color "+lh+" teal").Code)
	lhv, err := strconv.ParseUint(lh, 10, 64)
	require.NoError(t, err)
	l, err := a.Handles().Label(script.Handle(lhv))
	require.NoError(t, err)
	fg, _ := l.Colors()
	r8, _, _ := fg.RGB()
	assert.Equal(t, uint8(255), r8)

	assert.True(t, r.Execute(ctx, "ui.script.align "+lh+" center").OK)
	assert.Equal(t, widgets.AlignCenter, l.Align())
	assert.Equal(t, errors.ErrCodeCommandUsage, r.Execute(ctx, "ui.script.align "+lh+" middle").Code)

	assert.True(t, r.Execute(ctx, "ui.script.touch "+sc+" on").OK)
	assert.Equal(t, errors.ErrCodeCommandUsage, r.Execute(ctx, "ui.script.touch "+sc+" maybe").Code)

	require.True(t, r.Execute(ctx, "ui.script.clear "+sc).OK)
	assert.Equal(t, errors.ErrCodeHandleNotFound, r.Execute(ctx, "ui.script.bounds "+lh).Code)
	assert.True(t, r.Execute(ctx, "ui.script.bounds "+sc).OK)
}

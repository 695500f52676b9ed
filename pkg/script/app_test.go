package script

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/odvcencio/tinydesk/pkg/errors"
	"github.com/odvcencio/tinydesk/pkg/telemetry"
	"github.com/odvcencio/tinydesk/pkg/ui/backend"
	"github.com/odvcencio/tinydesk/pkg/ui/runtime"
	"github.com/odvcencio/tinydesk/pkg/ui/theme"
	"github.com/odvcencio/tinydesk/pkg/ui/widgets"
	"github.com/odvcencio/tinydesk/pkg/ui/wm"
)

type popupHost struct {
	open   []*widgets.Popup
	owners []wm.Owner
}

func (h *popupHost) CreatePopup(r runtime.Rect, owner wm.Owner) *widgets.Popup {
	p := widgets.NewPopup(r)
	p.Show()
	h.open = append(h.open, p)
	h.owners = append(h.owners, owner)
	return p
}

func (h *popupHost) DestroyPopup(p *widgets.Popup) bool {
	for i, cur := range h.open {
		if cur == p {
			h.open = append(h.open[:i], h.open[i+1:]...)
			h.owners = append(h.owners[:i], h.owners[i+1:]...)
			p.Hide()
			return true
		}
	}
	return false
}

func (h *popupHost) DestroyPopupsForOwner(owner wm.Owner) int {
	n := 0
	for i := len(h.open) - 1; i >= 0; i-- {
		if h.owners[i] == owner {
			h.DestroyPopup(h.open[i])
			n++
		}
	}
	return n
}

type events struct{ got []telemetry.Event }

func (e *events) Publish(ev telemetry.Event) { e.got = append(e.got, ev) }

func setupApp(t *testing.T) (*App, *widgets.Container, *popupHost, *events) {
	t.Helper()
	host := &popupHost{}
	ev := &events{}
	a := New("Script", Options{Popups: host, Events: ev})
	a.SetOwner(wm.Owner(9))
	content := widgets.NewContainer()
	content.SetBounds(runtime.NewRect(2, 3, 40, 10))
	content.Mount()
	a.Setup(content, 40, 10)
	return a, content, host, ev
}

func TestSetupPublishesReady(t *testing.T) {
	a, _, _, ev := setupApp(t)
	require.Len(t, ev.got, 1)
	assert.Equal(t, telemetry.EventScriptReady, ev.got[0].Type)
	assert.Equal(t, "Script", ev.got[0].App)
	assert.Equal(t, 40, ev.got[0].Data["width"])
	assert.True(t, a.Ready())
}

func TestElementsArePlacedRelativeToParent(t *testing.T) {
	a, content, _, _ := setupApp(t)

	box, err := a.Container(Root, 1, 1, 20, 5)
	require.NoError(t, err)
	lh, err := a.Label(box, 2, 0, 10, 1, "hello")
	require.NoError(t, err)

	l, err := a.Handles().Label(lh)
	require.NoError(t, err)
	assert.Equal(t, runtime.NewRect(5, 4, 10, 1), l.Bounds())
	assert.True(t, l.Mounted())
	assert.Equal(t, 1, content.Len())

	require.NoError(t, a.SetText(lh, "bye"))
	assert.Equal(t, "bye", l.Text())
}

func TestButtonClickPublishesHandle(t *testing.T) {
	a, _, _, ev := setupApp(t)
	bh, err := a.Button(Root, 0, 0, 6, 1, "Go")
	require.NoError(t, err)

	b, err := a.Handles().Button(bh)
	require.NoError(t, err)
	q := runtime.NewActionQueue(nil)
	b.TouchBegin(q, 3, 3)
	b.TouchEnd(q, 3, 3)
	q.Execute()

	last := ev.got[len(ev.got)-1]
	assert.Equal(t, telemetry.EventScriptClick, last.Type)
	assert.Equal(t, uint64(bh), last.Data["handle"])
}

func TestRemoveInvalidatesSubtree(t *testing.T) {
	a, content, _, _ := setupApp(t)
	box, _ := a.Container(Root, 0, 0, 10, 5)
	inner, _ := a.Container(box, 0, 0, 5, 5)
	lh, _ := a.Label(inner, 0, 0, 5, 1, "x")
	other, _ := a.Label(Root, 0, 6, 5, 1, "y")

	require.NoError(t, a.Remove(box))
	for _, h := range []Handle{box, inner, lh} {
		_, err := a.Handles().Get(h)
		assert.ErrorIs(t, err, ErrNotFound)
	}
	_, err := a.Handles().Label(other)
	assert.NoError(t, err)
	assert.Equal(t, 1, content.Len())

	assert.ErrorIs(t, a.Remove(box), ErrNotFound)
	assert.True(t, errors.IsCode(a.Remove(Root), errors.ErrCodeInvalidInput))
}

func TestPopupsOwnedAndDroppedOnTeardown(t *testing.T) {
	a, _, host, _ := setupApp(t)
	ph, err := a.Popup(10, 5, 20, 6)
	require.NoError(t, err)
	require.Len(t, host.open, 1)
	assert.Equal(t, wm.Owner(9), host.owners[0])

	lh, err := a.Label(ph, 1, 1, 10, 1, "in popup")
	require.NoError(t, err)
	l, _ := a.Handles().Label(lh)
	assert.Equal(t, runtime.NewRect(11, 6, 10, 1), l.Bounds())

	a.Teardown()
	assert.Empty(t, host.open)
	assert.False(t, a.Ready())
	_, err = a.Handles().Get(lh)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestRebuildInvalidatesHandles(t *testing.T) {
	a, _, _, ev := setupApp(t)
	lh, err := a.Label(Root, 0, 0, 5, 1, "x")
	require.NoError(t, err)

	a.Teardown()
	content := widgets.NewContainer()
	a.Setup(content, 30, 8)

	_, err = a.Handles().Get(lh)
	assert.ErrorIs(t, err, ErrNotFound)
	root, err := a.Handles().Container(Root)
	require.NoError(t, err)
	assert.Same(t, content, root)
	assert.Len(t, ev.got, 2)

	w, h := a.Size()
	assert.Equal(t, [2]int{30, 8}, [2]int{w, h})
}

func TestCommandsFailBeforeSetup(t *testing.T) {
	a := New("Script", Options{Popups: &popupHost{}})
	_, err := a.Label(Root, 0, 0, 1, 1, "x")
	assert.ErrorIs(t, err, ErrNotFound)
	_, err = a.Popup(0, 0, 5, 5)
	assert.True(t, errors.IsCode(err, errors.ErrCodeAppNotFound))
	_, err = a.Label(Root, 0, 0, -1, 1, "x")
	assert.True(t, errors.IsCode(err, errors.ErrCodeInvalidInput))
}

func TestDismissedPopupInvalidatesHandles(t *testing.T) {
	m := wm.New(wm.Options{Theme: theme.Terminal()})
	a := New("Script", Options{Popups: m})
	require.True(t, m.OpenInstance("Script", a))

	ph, err := a.Popup(5, 5, 10, 5)
	require.NoError(t, err)
	lh, err := a.Label(ph, 1, 1, 8, 1, "inside")
	require.NoError(t, err)
	require.Len(t, m.Popups(), 1)

	assert.True(t, m.HandleTouch(60, 2))
	m.HandleTouchEnd(60, 2)
	assert.Empty(t, m.Popups())

	_, err = a.Handles().Get(ph)
	assert.ErrorIs(t, err, ErrNotFound)
	_, err = a.Handles().Get(lh)
	assert.ErrorIs(t, err, ErrNotFound)
	_, err = a.Label(ph, 0, 0, 5, 1, "late")
	assert.ErrorIs(t, err, ErrNotFound)

	ph, err = a.Popup(5, 5, 10, 5)
	require.NoError(t, err)
	assert.Equal(t, 1, m.HideAllPopups())
	_, err = a.Handles().Get(ph)
	assert.ErrorIs(t, err, ErrNotFound)
	assert.True(t, a.Ready())
}

func TestScrollableAcceptsChildren(t *testing.T) {
	a, content, _, _ := setupApp(t)
	sh, err := a.Scrollable(Root, 1, 1, 20, 4)
	require.NoError(t, err)
	sc, err := a.Handles().Scrollable(sh)
	require.NoError(t, err)
	assert.Same(t, sc, content.Children()[0])

	for i := range 8 {
		_, err := a.Label(sh, 0, i, 10, 1, "row")
		require.NoError(t, err)
	}
	assert.Equal(t, 8, sc.ContentHeight())
	assert.Equal(t, 4, sc.MaxScroll())

	require.NoError(t, a.SetContentHeight(sh, 20))
	assert.Equal(t, 16, sc.MaxScroll())
	require.NoError(t, a.SetContentHeight(sh, 0))
	assert.Equal(t, 8, sc.ContentHeight(), "zero measures the children again")

	sc.ScrollTo(3)
	require.NoError(t, a.Clear(sh))
	assert.Zero(t, sc.Content().Len())
	assert.Zero(t, sc.Offset())
	assert.Equal(t, 1, a.Handles().Len(), "only the scrollable is left")

	assert.True(t, errors.IsCode(a.SetContentHeight(Root, 5), errors.ErrCodeHandleKind))
}

func TestStylingCommands(t *testing.T) {
	a, content, _, _ := setupApp(t)
	lh, err := a.Label(Root, 0, 0, 10, 1, "x")
	require.NoError(t, err)
	bh, err := a.Button(Root, 0, 2, 6, 1, "Go")
	require.NoError(t, err)
	red := backend.ColorRGB(255, 0, 0)
	white := backend.ColorRGB565(0xFFFF)

	require.NoError(t, a.SetTextColor(lh, red, white))
	l, _ := a.Handles().Label(lh)
	fg, bg := l.Colors()
	assert.Equal(t, [2]backend.Color{red, white}, [2]backend.Color{fg, bg})

	require.NoError(t, a.SetBackground(bh, red))
	b, _ := a.Handles().Button(bh)
	face, _ := b.Colors()
	assert.Equal(t, red, face)

	require.NoError(t, a.SetAlign(lh, widgets.AlignRight))
	assert.Equal(t, widgets.AlignRight, l.Align())
	assert.True(t, errors.IsCode(a.SetAlign(bh, widgets.AlignLeft), errors.ErrCodeHandleKind))

	require.NoError(t, a.SetBackground(Root, white))
	cv := runtime.NewCanvas(50, 15, theme.Terminal())
	content.Draw(cv)
	_, cellBg, _ := cv.At(30, 8).Style.Decompose()
	assert.Equal(t, white, cellBg)
	require.NoError(t, a.SetBackground(Root, backend.ColorDefault))
}

func TestBoundsAreParentRelative(t *testing.T) {
	a, _, _, _ := setupApp(t)
	ch, err := a.Container(Root, 4, 2, 20, 6)
	require.NoError(t, err)
	lh, err := a.Label(ch, 1, 1, 5, 1, "x")
	require.NoError(t, err)

	r, err := a.Bounds(lh)
	require.NoError(t, err)
	assert.Equal(t, runtime.NewRect(1, 1, 5, 1), r)
	r, err = a.Bounds(Root)
	require.NoError(t, err)
	assert.Equal(t, runtime.NewRect(2, 3, 40, 10), r)

	ph, err := a.Popup(10, 5, 20, 6)
	require.NoError(t, err)
	r, err = a.Bounds(ph)
	require.NoError(t, err)
	assert.Equal(t, runtime.NewRect(10, 5, 20, 6), r)

	require.NoError(t, a.Clear(ch))
	_, err = a.Bounds(lh)
	assert.ErrorIs(t, err, ErrNotFound)
	_, err = a.Bounds(ch)
	assert.NoError(t, err)
}

func TestWatchTouchesPublishesLocalCoordinates(t *testing.T) {
	a, content, _, ev := setupApp(t)
	ch, err := a.Container(Root, 4, 2, 20, 6)
	require.NoError(t, err)
	require.NoError(t, a.WatchTouches(ch, true))
	q := runtime.NewActionQueue(nil)

	content.TouchBegin(q, 8, 7)
	content.TouchEnd(q, 9, 7)
	require.Len(t, ev.got, 3)
	assert.Equal(t, telemetry.EventScriptTouch, ev.got[1].Type)
	assert.Equal(t, map[string]any{"handle": uint64(ch), "x": 2, "y": 2}, ev.got[1].Data)
	assert.Equal(t, telemetry.EventScriptRelease, ev.got[2].Type)
	assert.Equal(t, 3, ev.got[2].Data["x"])

	// A touch that began elsewhere is not reported on release.
	content.TouchBegin(q, 40, 12)
	content.TouchEnd(q, 40, 12)
	assert.Len(t, ev.got, 3)

	require.NoError(t, a.WatchTouches(ch, false))
	content.TouchBegin(q, 8, 7)
	content.TouchEnd(q, 8, 7)
	assert.Len(t, ev.got, 3)

	lh, err := a.Label(Root, 0, 0, 5, 1, "x")
	require.NoError(t, err)
	assert.True(t, errors.IsCode(a.WatchTouches(lh, true), errors.ErrCodeHandleKind))
}

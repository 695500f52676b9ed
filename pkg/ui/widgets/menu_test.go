package widgets

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/odvcencio/tinydesk/pkg/ui/runtime"
	"github.com/odvcencio/tinydesk/pkg/ui/theme"
)

func newTestMenuBar(chosen *[]string) *MenuBar {
	pick := func(name string) func() {
		return func() { *chosen = append(*chosen, name) }
	}
	b := NewMenuBar(theme.Terminal(),
		MenuBarEntry{Label: "File", Items: []MenuItem{Leaf("Clear", pick("clear")), Leaf("Close", pick("close"))}},
		MenuBarEntry{Label: "Help", Items: []MenuItem{Leaf("About", pick("about")), Separator(), Leaf("Quit", pick("quit"))}},
	)
	b.SetBounds(runtime.NewRect(0, 0, 40, 1))
	b.Mount()
	return b
}

func TestMenuItemKinds(t *testing.T) {
	assert.True(t, Leaf("a", func() {}).IsLeaf())
	assert.False(t, Leaf("a", nil).IsLeaf())
	assert.True(t, Submenu("s", Leaf("a", func() {})).HasSubmenu())
	assert.False(t, Separator().IsLeaf())
}

func TestMenuBarOpensAndRunsLeaf(t *testing.T) {
	var chosen []string
	b := newTestMenuBar(&chosen)
	q := newQueue()

	assert.Equal(t, runtime.NewRect(1, 0, 6, 1), b.TitleRect(0))
	assert.Equal(t, runtime.NewRect(7, 0, 6, 1), b.TitleRect(1))

	b.TouchBegin(q, 8, 0)
	b.TouchEnd(q, 8, 0)
	require.Equal(t, 1, b.OpenIndex())
	assert.Equal(t, runtime.NewRect(7, 1, 18, 5), b.DropdownRect())
	assert.True(t, b.Contains(10, 4), "open dropdown hits outside the bar row")

	b.TouchBegin(q, 8, 3) // separator row
	assert.Equal(t, -1, b.Highlight())
	b.TouchMove(q, 8, 2)
	assert.Equal(t, 0, b.Highlight())
	b.TouchEnd(q, 8, 2)

	assert.False(t, b.IsOpen())
	assert.Empty(t, chosen, "action is deferred")
	q.Execute()
	assert.Equal(t, []string{"about"}, chosen)
}

func TestMenuBarTitleToggleAndOutsideClose(t *testing.T) {
	var chosen []string
	b := newTestMenuBar(&chosen)
	q := newQueue()

	b.TouchBegin(q, 2, 0)
	assert.Equal(t, 0, b.OpenIndex())
	b.TouchBegin(q, 2, 0)
	assert.False(t, b.IsOpen())

	b.TouchBegin(q, 2, 0)
	b.TouchBegin(q, 35, 10)
	assert.False(t, b.IsOpen())
	assert.False(t, b.Contains(10, 4))
}

func TestMenuBarMeasuresWideTitles(t *testing.T) {
	b := NewMenuBar(theme.Terminal(),
		MenuBarEntry{Label: "日本", Items: []MenuItem{Leaf("x", func() {})}},
		MenuBarEntry{Label: "B", Items: []MenuItem{Leaf("y", func() {})}},
	)
	b.SetBounds(runtime.NewRect(0, 0, 40, 1))
	b.Mount()

	// "日本" is 6 bytes but 4 cells wide.
	assert.Equal(t, 7, b.TitleRect(1).X)
	b.TouchBegin(newQueue(), 7, 0)
	assert.Equal(t, 1, b.OpenIndex())
}

func TestMenuBarDrawsDropdownSeparately(t *testing.T) {
	var chosen []string
	b := newTestMenuBar(&chosen)
	b.TouchBegin(newQueue(), 2, 0)

	cv := newCanvas(40, 8)
	b.Draw(cv)
	assert.Equal(t, "File", rowText(cv, 0, 2, 6))
	assert.Equal(t, "     ", rowText(cv, 2, 3, 8))

	b.DrawDropdown(cv)
	assert.Equal(t, "Clear", rowText(cv, 2, 3, 8))
}

func testStartMenu(chosen *[]string) *StartMenu {
	pick := func(name string) func() {
		return func() { *chosen = append(*chosen, name) }
	}
	return NewStartMenu(theme.Terminal(),
		Submenu("Programs", Leaf("Info", pick("Info")), Leaf("Clock", pick("Clock"))),
		Separator(),
		Leaf("Shut Down", pick("shutdown")),
	)
}

func TestStartMenuGeometry(t *testing.T) {
	var chosen []string
	s := testStartMenu(&chosen)
	assert.Equal(t, runtime.NewRect(0, 18, 18, 5), s.MainRect())
	assert.True(t, s.SubRect().Empty())
	assert.False(t, s.Contains(1, 19), "hidden menus hit nothing")
}

func TestStartMenuSubmenuLeaf(t *testing.T) {
	var chosen []string
	s := testStartMenu(&chosen)
	q := newQueue()
	s.Show()

	require.True(t, s.HandleTouch(q, 2, 19))
	require.Equal(t, 0, s.ActiveSubmenu())
	assert.Equal(t, runtime.NewRect(17, 19, 18, 4), s.SubRect())
	assert.True(t, s.HandleTouchEnd(q, 2, 19))
	assert.True(t, s.Visible())

	assert.True(t, s.HandleTouch(q, 20, 21))
	assert.True(t, s.HandleTouchEnd(q, 20, 21))
	assert.False(t, s.Visible())
	q.Execute()
	assert.Equal(t, []string{"Clock"}, chosen)
}

func TestStartMenuTopLevelLeafAndOutside(t *testing.T) {
	var chosen []string
	s := testStartMenu(&chosen)
	q := newQueue()

	s.Show()
	s.HandleTouch(q, 2, 21)
	s.HandleTouchEnd(q, 2, 21)
	q.Execute()
	assert.Equal(t, []string{"shutdown"}, chosen)

	s.Show()
	assert.False(t, s.HandleTouch(q, 50, 5))
	assert.False(t, s.Visible())
}

func TestKeyboardTyping(t *testing.T) {
	k := NewKeyboard(theme.Terminal())
	var typed []rune
	k.SetOnKey(func(r rune) { typed = append(typed, r) })
	q := newQueue()
	tap := func(x, y int) {
		require.True(t, k.HandleTouch(q, x, y))
		require.True(t, k.HandleTouchEnd(q, x, y))
		q.Execute()
	}

	assert.False(t, k.HandleTouch(q, 1, 12), "hidden keyboard ignores touches")
	k.Show()
	assert.Equal(t, runtime.NewRect(0, 12, 80, 11), k.Rect())

	tap(1, 12) // q
	tap(1, 18) // shift
	assert.True(t, k.Shifted())
	tap(9, 12) // W
	assert.False(t, k.Shifted())
	tap(1, 21) // 123
	assert.True(t, k.Symbols())
	tap(1, 12)  // 1
	tap(78, 18) // backspace
	tap(78, 21) // enter

	assert.Equal(t, []rune{'q', 'W', '1', RuneBackspace, RuneEnter}, typed)
}

func TestKeyboardReleaseElsewhereCancels(t *testing.T) {
	k := NewKeyboard(theme.Terminal())
	typed := 0
	k.SetOnKey(func(rune) { typed++ })
	k.Show()
	q := newQueue()

	k.HandleTouch(q, 1, 12)
	k.HandleTouchEnd(q, 40, 12)
	q.Execute()
	assert.Zero(t, typed)

	k.Hide()
	assert.False(t, k.Visible())
	assert.False(t, k.Symbols())
}

func TestKeyboardDraw(t *testing.T) {
	k := NewKeyboard(theme.Terminal())
	k.Show()
	cv := runtime.NewCanvas(80, 24, theme.Terminal())
	k.Draw(cv)
	assert.Equal(t, "q", rowText(cv, 12, 3, 4))
}

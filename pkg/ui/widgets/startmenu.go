package widgets

import (
	"github.com/odvcencio/tinydesk/pkg/ui/runtime"
	"github.com/odvcencio/tinydesk/pkg/ui/theme"
)

// StartMenu is the taskbar menu: a column of items anchored above the
// taskbar, with one submenu opening beside its parent row.
type StartMenu struct {
	theme        *theme.Theme
	items        []MenuItem
	visible      bool
	highlight    int
	subHighlight int
	activeSub    int
}

// NewStartMenu creates a hidden start menu.
func NewStartMenu(th *theme.Theme, items ...MenuItem) *StartMenu {
	if th == nil {
		th = theme.Default()
	}
	s := &StartMenu{theme: th, items: items}
	s.reset()
	return s
}

func (s *StartMenu) reset() {
	s.highlight, s.subHighlight, s.activeSub = -1, -1, -1
}

// SetItems replaces the menu items.
func (s *StartMenu) SetItems(items ...MenuItem) {
	s.items = items
	s.reset()
}

// Items returns the top-level items.
func (s *StartMenu) Items() []MenuItem { return s.items }

// Visible reports whether the menu is open.
func (s *StartMenu) Visible() bool { return s.visible }

// Show opens the menu with nothing highlighted.
func (s *StartMenu) Show() {
	s.visible = true
	s.reset()
}

// Hide closes the menu.
func (s *StartMenu) Hide() {
	s.visible = false
	s.reset()
}

// Toggle flips visibility.
func (s *StartMenu) Toggle() {
	if s.visible {
		s.Hide()
	} else {
		s.Show()
	}
}

// ActiveSubmenu returns the index of the open submenu's parent, or -1.
func (s *StartMenu) ActiveSubmenu() int { return s.activeSub }

// MainRect is the area of the top-level panel.
func (s *StartMenu) MainRect() runtime.Rect {
	m := s.theme.Metrics
	h := menuHeight(s.items, m)
	return runtime.NewRect(m.Padding, m.TaskbarY()-h, m.MenuWidth, h)
}

// SubRect is the area of the open submenu, or an empty rect.
func (s *StartMenu) SubRect() runtime.Rect {
	if s.activeSub < 0 || s.activeSub >= len(s.items) || !s.items[s.activeSub].HasSubmenu() {
		return runtime.Rect{}
	}
	m := s.theme.Metrics
	main := s.MainRect()
	h := menuHeight(s.items[s.activeSub].Children, m)
	x := min(main.Right()-1, m.ScreenWidth-m.MenuWidth)
	y := main.Y + menuItemY(s.items, s.activeSub, m)
	y = runtime.Clamp(y, 0, max(0, m.TaskbarY()-h))
	return runtime.NewRect(x, y, m.MenuWidth, h)
}

// Contains hits the open panels.
func (s *StartMenu) Contains(x, y int) bool {
	return s.visible && (s.MainRect().Contains(x, y) || s.SubRect().Contains(x, y))
}

// Draw paints the menu and any open submenu.
func (s *StartMenu) Draw(c *runtime.Canvas) {
	if !s.visible || len(s.items) == 0 {
		return
	}
	m := s.theme.Metrics
	drawMenu(c, s.MainRect(), s.items, s.highlight, m)
	if sub := s.SubRect(); !sub.Empty() {
		drawMenu(c, sub, s.items[s.activeSub].Children, s.subHighlight, m)
	}
}

func (s *StartMenu) track(x, y int) bool {
	m := s.theme.Metrics
	if sub := s.SubRect(); sub.Contains(x, y) {
		s.subHighlight = menuItemAt(s.items[s.activeSub].Children, sub.Y, y, m)
		return true
	}
	if main := s.MainRect(); main.Contains(x, y) {
		s.highlight = menuItemAt(s.items, main.Y, y, m)
		s.subHighlight = -1
		if s.highlight >= 0 && s.items[s.highlight].HasSubmenu() {
			s.activeSub = s.highlight
		} else {
			s.activeSub = -1
		}
		return true
	}
	return false
}

// HandleTouch highlights the touched item. A touch outside closes the menu
// and reports false so the caller can route it elsewhere.
func (s *StartMenu) HandleTouch(_ runtime.Scheduler, x, y int) bool {
	if !s.visible {
		return false
	}
	if s.track(x, y) {
		return true
	}
	s.Hide()
	return false
}

// HandleTouchMove follows the pointer across items.
func (s *StartMenu) HandleTouchMove(_ runtime.Scheduler, x, y int) {
	if s.visible {
		s.track(x, y)
	}
}

// HandleTouchEnd runs the leaf under the pointer and closes the menu.
func (s *StartMenu) HandleTouchEnd(sch runtime.Scheduler, x, y int) bool {
	if !s.visible {
		return false
	}
	m := s.theme.Metrics
	if sub := s.SubRect(); sub.Contains(x, y) {
		children := s.items[s.activeSub].Children
		if i := menuItemAt(children, sub.Y, y, m); i >= 0 && children[i].IsLeaf() {
			s.Hide()
			sch.Queue(children[i].Action)
		}
		return true
	}
	if main := s.MainRect(); main.Contains(x, y) {
		if i := menuItemAt(s.items, main.Y, y, m); i >= 0 {
			switch {
			case s.items[i].IsLeaf():
				s.Hide()
				sch.Queue(s.items[i].Action)
			case s.items[i].HasSubmenu():
				s.activeSub = i
				s.subHighlight = -1
			}
		}
		return true
	}
	s.Hide()
	return false
}

package wm

import (
	"github.com/odvcencio/tinydesk/pkg/ui/runtime"
	"github.com/odvcencio/tinydesk/pkg/ui/window"
)

// HandleTouch dispatches a touch-begin in priority order: the overlay,
// then popups, then the panel, then windows from the top down. It
// reports whether anything took the touch.
//
// While a popup is visible, a touch outside every popup dismisses all of
// them and goes nowhere else.
func (m *Manager) HandleTouch(x, y int) bool {
	m.captured = nil
	if m.overlay != nil && m.overlay.TouchBegin(m.sched, x, y) {
		m.captured = m.overlay
		return true
	}

	if m.HasVisiblePopups() {
		for i := len(m.popups) - 1; i >= 0; i-- {
			p := m.popups[i].popup
			if p.Visible() && p.Contains(x, y) {
				m.captured = p
				p.TouchBegin(m.sched, x, y)
				return true
			}
		}
		m.HideAllPopups()
		return true
	}

	if m.panel != nil && m.panel.container.Contains(x, y) {
		m.captured = m.panel.container
		m.panel.container.TouchBegin(m.sched, x, y)
		return true
	}

	for i := len(m.apps) - 1; i >= 0; i-- {
		e := m.apps[i]
		if e.state == window.Minimized || !e.win.Contains(x, y) {
			continue
		}
		if m.active != e.name {
			m.FocusApp(e.name)
		}
		m.captured = e.win
		e.win.TouchBegin(m.sched, x, y)
		return true
	}
	return false
}

// HandleTouchMove forwards a drag to whatever took the touch-begin.
func (m *Manager) HandleTouchMove(x, y int) {
	if m.captured != nil {
		m.captured.TouchMove(m.sched, x, y)
	}
}

// HandleTouchEnd finishes the touch on whatever took the touch-begin.
func (m *Manager) HandleTouchEnd(x, y int) {
	target := m.captured
	m.captured = nil
	if target != nil {
		target.TouchEnd(m.sched, x, y)
	}
}

// HandleWheel scrolls the content of the topmost window under (x, y) by
// steps rows of menu items. Popups block it.
func (m *Manager) HandleWheel(x, y, steps int) bool {
	if m.HasVisiblePopups() {
		return false
	}
	for i := len(m.apps) - 1; i >= 0; i-- {
		e := m.apps[i]
		if e.state == window.Minimized || !e.win.Contains(x, y) {
			continue
		}
		sc := e.win.Scrollable()
		if !sc.Contains(x, y) {
			return false
		}
		before := sc.Offset()
		sc.Scroll(steps)
		if sc.Offset() != before {
			m.markDirty()
			return true
		}
		return false
	}
	return false
}

// Draw paints the windows bottom to top, then the panel, then the popups.
func (m *Manager) Draw(c *runtime.Canvas) {
	for _, e := range m.apps {
		if e.state != window.Minimized {
			e.win.Draw(c)
		}
	}
	if m.panel != nil {
		m.panel.container.Draw(c)
	}
	for _, entry := range m.popups {
		if c.Visible(entry.popup.Bounds()) {
			entry.popup.Draw(c)
		}
	}
}

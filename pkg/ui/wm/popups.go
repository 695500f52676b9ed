package wm

import (
	"github.com/odvcencio/tinydesk/pkg/telemetry"
	"github.com/odvcencio/tinydesk/pkg/ui/app"
	"github.com/odvcencio/tinydesk/pkg/ui/runtime"
	"github.com/odvcencio/tinydesk/pkg/ui/widgets"
)

// CreatePopup shows an empty popup at r tagged with owner. The caller
// fills it through the returned popup's Add.
func (m *Manager) CreatePopup(r runtime.Rect, owner Owner) *widgets.Popup {
	p := widgets.NewPopup(r)
	p.Show()
	m.popups = append(m.popups, popupEntry{popup: p, owner: owner})
	m.popupsChanged(telemetry.EventPopupOpened, owner)
	return p
}

// DestroyPopup removes one popup.
func (m *Manager) DestroyPopup(p *widgets.Popup) bool {
	for i, entry := range m.popups {
		if entry.popup == p {
			m.popups = append(m.popups[:i], m.popups[i+1:]...)
			m.dropPopup(entry)
			return true
		}
	}
	return false
}

// DestroyPopupsForOwner removes every popup tagged with owner and returns
// how many there were.
func (m *Manager) DestroyPopupsForOwner(owner Owner) int {
	kept := m.popups[:0]
	var dropped []popupEntry
	for _, entry := range m.popups {
		if entry.owner == owner {
			dropped = append(dropped, entry)
			continue
		}
		kept = append(kept, entry)
	}
	clear(m.popups[len(kept):])
	m.popups = kept
	for _, entry := range dropped {
		m.dropPopup(entry)
	}
	return len(dropped)
}

// HideAllPopups dismisses every popup.
func (m *Manager) HideAllPopups() int {
	all := m.popups
	m.popups = nil
	for _, entry := range all {
		m.dropPopup(entry)
	}
	return len(all)
}

func (m *Manager) dropPopup(entry popupEntry) {
	if m.captured == touchTarget(entry.popup) {
		m.captured = nil
	}
	entry.popup.Hide()
	entry.popup.Destroy()
	m.popupsChanged(telemetry.EventPopupClosed, entry.owner)
}

func (m *Manager) popupsChanged(typ telemetry.EventType, owner Owner) {
	telemetry.VisiblePopups.Set(float64(m.visiblePopups()))
	m.publish(typ, "", map[string]any{"owner": uint64(owner)})
	m.markDirty()
}

func (m *Manager) visiblePopups() int {
	n := 0
	for _, entry := range m.popups {
		if entry.popup.Visible() {
			n++
		}
	}
	return n
}

// HasVisiblePopups reports whether any popup is showing.
func (m *Manager) HasVisiblePopups() bool { return m.visiblePopups() > 0 }

// Popups returns the live popups, oldest first.
func (m *Manager) Popups() []*widgets.Popup {
	out := make([]*widgets.Popup, 0, len(m.popups))
	for _, entry := range m.popups {
		out = append(out, entry.popup)
	}
	return out
}

// OpenPanel installs a as the persistent panel occupying r, replacing any
// previous panel.
func (m *Manager) OpenPanel(name string, a app.Application, r runtime.Rect) {
	if a == nil {
		return
	}
	if m.panel != nil {
		m.ClosePanel(m.panel.name)
	}
	c := widgets.NewContainer()
	c.SetBounds(r)
	c.Mount()
	m.panel = &panelSlot{name: name, app: a, container: c}
	a.Setup(c, r.Width, r.Height)
	m.publish(telemetry.EventPanelOpened, name, nil)
	m.markDirty()
}

// ClosePanel removes the panel if it is named name.
func (m *Manager) ClosePanel(name string) bool {
	if m.panel == nil || m.panel.name != name {
		return false
	}
	slot := m.panel
	m.panel = nil
	if m.captured == touchTarget(slot.container) {
		m.captured = nil
	}
	slot.app.Teardown()
	slot.container.Unmount()
	slot.container.Destroy()
	if to, ok := slot.app.(app.TimerOwner); ok {
		to.Timers().Stop()
	}
	m.publish(telemetry.EventPanelClosed, name, nil)
	m.markDirty()
	return true
}

// Panel returns the name of the panel app, if any.
func (m *Manager) Panel() (string, bool) {
	if m.panel == nil {
		return "", false
	}
	return m.panel.name, true
}

// PanelBounds is the panel area, or an empty rect.
func (m *Manager) PanelBounds() runtime.Rect {
	if m.panel == nil {
		return runtime.Rect{}
	}
	return m.panel.container.Bounds()
}

// TickTimers runs the fired timers of every open app and the panel and
// reports whether any ran.
func (m *Manager) TickTimers() bool {
	fired := false
	for _, e := range m.apps {
		if to, ok := e.app.(app.TimerOwner); ok && to.Timers().Tick() {
			fired = true
		}
	}
	if m.panel != nil {
		if to, ok := m.panel.app.(app.TimerOwner); ok && to.Timers().Tick() {
			fired = true
		}
	}
	if fired {
		m.markDirty()
	}
	return fired
}

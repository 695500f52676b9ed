package widgets

import "github.com/odvcencio/tinydesk/pkg/ui/runtime"

// Popup is a raised overlay panel. Showing mounts it; hiding unmounts it.
type Popup struct {
	Container
	visible   bool
	onDestroy func()
}

// NewPopup creates a hidden popup over r.
func NewPopup(r runtime.Rect) *Popup {
	p := &Popup{}
	p.SetBounds(r)
	return p
}

// Visible reports whether the popup is shown.
func (p *Popup) Visible() bool { return p.visible }

// Show displays the popup.
func (p *Popup) Show() {
	p.visible = true
	p.Mount()
}

// Hide removes the popup from display.
func (p *Popup) Hide() {
	p.visible = false
	p.Unmount()
}

// OnDestroy sets a hook run once when the popup is destroyed, whoever
// destroys it.
func (p *Popup) OnDestroy(fn func()) { p.onDestroy = fn }

// Destroy hides the popup, releases its children and runs the destroy hook.
func (p *Popup) Destroy() {
	p.visible = false
	p.Container.Destroy()
	if fn := p.onDestroy; fn != nil {
		p.onDestroy = nil
		fn()
	}
}

// Contains only hits a visible popup.
func (p *Popup) Contains(x, y int) bool {
	return p.visible && p.bounds.Contains(x, y)
}

// Inner is the popup area inset by margin on every side.
func (p *Popup) Inner(margin int) runtime.Rect {
	return p.bounds.Inset(margin, margin, margin, margin)
}

// Draw paints the frame and the children.
func (p *Popup) Draw(c *runtime.Canvas) {
	if !p.visible || !p.mounted {
		return
	}
	drawPanel(c, p.bounds)
	p.Container.Draw(c)
}

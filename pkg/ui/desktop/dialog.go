package desktop

import (
	"github.com/odvcencio/tinydesk/pkg/telemetry"
	"github.com/odvcencio/tinydesk/pkg/ui/runtime"
	"github.com/odvcencio/tinydesk/pkg/ui/widgets"
)

// ShowError opens a centred message box with an OK button, replacing any
// error box already showing. It is owned by the desktop, not by an app, so
// closing apps leaves it alone.
func (d *Desktop) ShowError(title, message string) *widgets.Popup {
	d.wm.DestroyPopupsForOwner(d.errorOwner)

	m := d.theme.Metrics
	area := d.wm.DesktopArea()
	margin := max(1, m.BorderWidth)
	gap := max(1, m.Padding)

	width := min(area.Width-2*gap, max(area.Width*3/4, runtime.TextWidth(title)+4*margin))
	textW := max(1, width-2*margin-2*gap)
	lines := runtime.Wrap(message, textW)
	if len(lines) == 0 {
		lines = []string{""}
	}
	maxLines := max(1, area.Height-2*margin-m.TitleBarHeight-m.ButtonHeight-3*gap)
	if len(lines) > maxLines {
		lines = lines[:maxLines]
	}
	height := 2*margin + m.TitleBarHeight + gap + len(lines) + gap + m.ButtonHeight
	r := area.Center(width, min(height, area.Height))

	p := d.wm.CreatePopup(r, d.errorOwner)
	inner := p.Inner(margin)

	caption := widgets.NewLabel(title)
	caption.SetColors(d.theme.Palette.TitleTextActive, d.theme.Palette.TitleBarActive)
	caption.SetBounds(runtime.NewRect(inner.X, inner.Y, inner.Width, m.TitleBarHeight))
	p.Add(caption)

	body := widgets.NewLabel(message)
	body.SetWrap(true)
	body.SetBounds(runtime.NewRect(inner.X+gap, inner.Y+m.TitleBarHeight+gap, textW, len(lines)))
	p.Add(body)

	okW := max(m.ButtonWidth*2, runtime.TextWidth("OK")+4)
	ok := widgets.NewButton("OK", func() { d.wm.DestroyPopup(p) })
	ok.SetBounds(runtime.NewRect(inner.X+(inner.Width-okW)/2, inner.Bottom()-m.ButtonHeight, okW, m.ButtonHeight))
	p.Add(ok)

	d.log.Warn("error shown", "title", title, "message", message)
	d.publish(telemetry.EventErrorShown, "", map[string]any{"title": title, "message": message})
	d.MarkDirty()
	return p
}

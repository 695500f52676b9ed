package apps

import (
	"slices"
	"strings"

	"github.com/odvcencio/tinydesk/pkg/ui/runtime"
	"github.com/odvcencio/tinydesk/pkg/ui/widgets"
	"github.com/odvcencio/tinydesk/pkg/ui/wm"
)

const aboutNotes = "Type a note and press Enter or Add. Notes last until the window is closed."

// Notes is a text field above a list of the notes entered so far.
//
// The field outlives rebuilds so that focus and the text being typed
// survive the relayout caused by the on-screen keyboard.
type Notes struct {
	deps  Deps
	owner wm.Owner
	field *widgets.TextField
	notes []string

	content *widgets.Container
	rows    []*widgets.Label
	listTop int
	width   int
}

// NewNotes creates the Notes application.
func NewNotes(deps Deps) *Notes {
	n := &Notes{deps: deps.withDefaults(), field: widgets.NewTextField("new note")}
	n.field.OnSubmit(func(string) { n.Add() })
	return n
}

// Name implements app.Application.
func (n *Notes) Name() string { return NotesName }

// SetOwner implements wm.OwnerAware.
func (n *Notes) SetOwner(o wm.Owner) { n.owner = o }

// Menus implements app.MenuProvider.
func (n *Notes) Menus() []widgets.MenuBarEntry {
	return []widgets.MenuBarEntry{
		{Label: "File", Items: []widgets.MenuItem{
			widgets.Leaf("Clear", n.Clear),
			widgets.Separator(),
			widgets.Leaf("Close", n.close),
		}},
		{Label: "Help", Items: []widgets.MenuItem{
			widgets.Leaf("About", func() { n.About() }),
		}},
	}
}

// Field returns the entry field.
func (n *Notes) Field() *widgets.TextField { return n.field }

// Notes returns the entered notes, oldest first.
func (n *Notes) Notes() []string { return slices.Clone(n.notes) }

// Setup implements app.Application.
func (n *Notes) Setup(content *widgets.Container, width, height int) {
	m := n.deps.Theme.Metrics
	origin := content.Bounds()
	rh := rowHeight(n.deps.Theme)
	pad := max(1, m.Padding)

	addW := max(m.ButtonWidth*2, runtime.TextWidth("Add")+2)
	n.field.SetBounds(runtime.NewRect(origin.X, origin.Y, max(1, width-addW-pad), rh))
	content.Add(n.field)

	add := widgets.NewButton("Add", n.Add)
	add.SetBounds(runtime.NewRect(origin.X+width-addW, origin.Y, addW, max(rh, m.ButtonHeight)))
	content.Add(add)

	n.content = content
	n.rows = nil
	n.listTop = origin.Y + max(rh, m.ButtonHeight) + pad
	n.width = width
	n.layoutList()
}

// Add appends the field's text as a note and empties the field.
func (n *Notes) Add() {
	text := strings.TrimSpace(n.field.Text())
	if text == "" {
		return
	}
	n.notes = append(n.notes, text)
	n.field.SetText("")
	n.layoutList()
}

// Clear removes every note.
func (n *Notes) Clear() {
	n.notes = nil
	n.layoutList()
}

func (n *Notes) layoutList() {
	if n.content == nil {
		return
	}
	for _, row := range n.rows {
		n.content.Remove(row)
	}
	n.rows = n.rows[:0]
	rh := rowHeight(n.deps.Theme)
	x := n.content.Bounds().X
	for i, text := range n.notes {
		row := widgets.NewLabel("- " + text)
		row.SetBounds(runtime.NewRect(x, n.listTop+i*rh, n.width, rh))
		n.content.Add(row)
		n.rows = append(n.rows, row)
	}
}

// About opens the about box, replacing one already open.
func (n *Notes) About() *widgets.Popup {
	host := n.deps.Host
	if host == nil {
		return nil
	}
	host.DestroyPopupsForOwner(n.owner)

	m := n.deps.Theme.Metrics
	area := host.DesktopArea()
	margin := max(1, m.BorderWidth)
	width := min(area.Width, 40)
	textW := max(1, width-2*margin-2)
	lines := len(runtime.Wrap(aboutNotes, textW))
	height := 2*margin + m.TitleBarHeight + lines + 2 + m.ButtonHeight
	p := host.CreatePopup(area.Center(width, min(height, area.Height)), n.owner)
	inner := p.Inner(margin)

	pal := n.deps.Theme.Palette
	title := widgets.NewLabel("About Notes")
	title.SetColors(pal.TitleTextActive, pal.TitleBarActive)
	title.SetBounds(runtime.NewRect(inner.X, inner.Y, inner.Width, m.TitleBarHeight))
	p.Add(title)

	body := widgets.NewLabel(aboutNotes)
	body.SetWrap(true)
	body.SetBounds(runtime.NewRect(inner.X+1, inner.Y+m.TitleBarHeight+1, textW, lines))
	p.Add(body)

	okW := max(m.ButtonWidth*2, runtime.TextWidth("OK")+4)
	ok := widgets.NewButton("OK", func() { host.DestroyPopup(p) })
	ok.SetBounds(runtime.NewRect(inner.X+(inner.Width-okW)/2, inner.Bottom()-m.ButtonHeight, okW, m.ButtonHeight))
	p.Add(ok)
	return p
}

func (n *Notes) close() {
	if n.deps.Host != nil {
		n.deps.Host.CloseApp(NotesName)
	}
}

// Teardown implements app.Application.
func (n *Notes) Teardown() {
	n.content = nil
	n.rows = nil
}

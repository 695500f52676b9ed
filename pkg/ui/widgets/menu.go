package widgets

import (
	"github.com/odvcencio/tinydesk/pkg/ui/runtime"
	"github.com/odvcencio/tinydesk/pkg/ui/theme"
)

// MenuItem is an entry of a dropdown or start menu: a leaf with an action,
// a submenu, or a separator.
type MenuItem struct {
	Label     string
	Action    func()
	Children  []MenuItem
	Separator bool
}

// Leaf creates an item that runs action when chosen.
func Leaf(label string, action func()) MenuItem {
	return MenuItem{Label: label, Action: action}
}

// Submenu creates an item that opens children.
func Submenu(label string, children ...MenuItem) MenuItem {
	return MenuItem{Label: label, Children: children}
}

// Separator creates a divider line.
func Separator() MenuItem {
	return MenuItem{Separator: true}
}

// HasSubmenu reports whether the item opens a submenu.
func (m MenuItem) HasSubmenu() bool { return len(m.Children) > 0 }

// IsLeaf reports whether choosing the item runs an action.
func (m MenuItem) IsLeaf() bool {
	return !m.Separator && !m.HasSubmenu() && m.Action != nil
}

func itemHeight(item MenuItem, m theme.Metrics) int {
	if item.Separator {
		return m.SeparatorHeight
	}
	return m.MenuItemHeight
}

// menuHeight is the panel height for items, frame included.
func menuHeight(items []MenuItem, m theme.Metrics) int {
	h := 2 * m.BorderWidth
	for _, item := range items {
		h += itemHeight(item, m)
	}
	return h
}

// menuItemY is the offset of item idx from the panel top.
func menuItemY(items []MenuItem, idx int, m theme.Metrics) int {
	y := m.BorderWidth
	for i := 0; i < idx && i < len(items); i++ {
		y += itemHeight(items[i], m)
	}
	return y
}

// menuItemAt returns the selectable item under screen row y of a panel
// whose top is top, or -1.
func menuItemAt(items []MenuItem, top, y int, m theme.Metrics) int {
	rel := y - top - m.BorderWidth
	if rel < 0 {
		return -1
	}
	acc := 0
	for i, item := range items {
		h := itemHeight(item, m)
		if rel < acc+h {
			if item.Separator {
				return -1
			}
			return i
		}
		acc += h
	}
	return -1
}

func labelPadding(m theme.Metrics) int { return max(1, m.Padding*3) }

// drawPanel paints a raised menu frame.
func drawPanel(c *runtime.Canvas, r runtime.Rect) {
	p := c.Palette()
	c.Fill(r, p.MenuBg)
	if r.Width < 3 || r.Height < 3 {
		return
	}
	c.DrawRect(r, p.WindowBorder)
	if c.Theme().Metrics.BorderWidth >= 2 {
		c.Bevel(r.Inset(1, 1, 1, 1), p.MenuBg, false)
	}
}

func drawMenu(c *runtime.Canvas, r runtime.Rect, items []MenuItem, highlight int, m theme.Metrics) {
	drawPanel(c, r)
	p := c.Palette()
	inner := r.Inset(m.BorderWidth, m.BorderWidth, m.BorderWidth, m.BorderWidth)
	c.PushClip(inner)
	defer c.PopClip()

	pad := labelPadding(m)
	y := inner.Y
	for i, item := range items {
		h := itemHeight(item, m)
		row := runtime.NewRect(inner.X, y, inner.Width, h)
		if item.Separator {
			mid := y + (h-1)/2
			c.HLine(inner.X+pad/2, mid, inner.Width-pad, p.ButtonShadow)
			if h >= 2 {
				c.HLine(inner.X+pad/2, mid+1, inner.Width-pad, p.ButtonHighlight)
			}
			y += h
			continue
		}
		fg, bg := p.Text, p.MenuBg
		if i == highlight {
			fg, bg = p.MenuHighlightText, p.MenuHighlight
			c.Fill(row, bg)
		}
		ty := y + (h-1)/2
		c.TextClipped(row.X+pad, ty, row.Width-2*pad, item.Label, fg, bg)
		if item.HasSubmenu() {
			c.Text(row.Right()-1-pad/2, ty, "►", fg, bg)
		}
		y += h
	}
}

// MenuBarEntry is one top-level menu of a MenuBar.
type MenuBarEntry struct {
	Label string
	Items []MenuItem
}

// MenuBar is a row of menu titles, each opening a dropdown. Title and
// dropdown geometry are measured with runtime.TextWidth, the same metric
// used to draw them.
type MenuBar struct {
	Base
	theme     *theme.Theme
	menus     []MenuBarEntry
	open      int
	highlight int
}

// NewMenuBar creates a menu bar.
func NewMenuBar(th *theme.Theme, menus ...MenuBarEntry) *MenuBar {
	if th == nil {
		th = theme.Default()
	}
	return &MenuBar{theme: th, menus: menus, open: -1, highlight: -1}
}

// Menus returns the top-level menus.
func (b *MenuBar) Menus() []MenuBarEntry { return b.menus }

// SetMenus replaces the menus and closes any dropdown.
func (b *MenuBar) SetMenus(menus ...MenuBarEntry) {
	b.menus = menus
	b.Close()
}

// Height is the bar height.
func (b *MenuBar) Height() int { return b.theme.Metrics.MenuItemHeight }

// IsOpen reports whether a dropdown is showing.
func (b *MenuBar) IsOpen() bool { return b.open >= 0 }

// OpenIndex returns the open menu index, or -1.
func (b *MenuBar) OpenIndex() int { return b.open }

// Highlight returns the highlighted dropdown item, or -1.
func (b *MenuBar) Highlight() int { return b.highlight }

// Close hides the dropdown.
func (b *MenuBar) Close() {
	b.open = -1
	b.highlight = -1
}

// TitleRect is the touch and highlight area of menu i's title.
func (b *MenuBar) TitleRect(i int) runtime.Rect {
	m := b.theme.Metrics
	pad := labelPadding(m)
	x := b.bounds.X + max(1, m.Padding*2)
	for j := 0; j < i && j < len(b.menus); j++ {
		x += runtime.TextWidth(b.menus[j].Label) + 2*pad
	}
	w := 0
	if i >= 0 && i < len(b.menus) {
		w = runtime.TextWidth(b.menus[i].Label) + 2*pad
	}
	return runtime.NewRect(x, b.bounds.Y, w, b.Height())
}

// DropdownRect is the open dropdown's area, or an empty rect.
func (b *MenuBar) DropdownRect() runtime.Rect {
	if b.open < 0 || b.open >= len(b.menus) {
		return runtime.Rect{}
	}
	m := b.theme.Metrics
	title := b.TitleRect(b.open)
	w := m.MenuWidth
	x := title.X
	if limit := m.ScreenWidth - w; x > limit {
		x = max(0, limit)
	}
	return runtime.NewRect(x, b.bounds.Y+b.Height(), w, menuHeight(b.menus[b.open].Items, m))
}

func (b *MenuBar) titleAt(x, y int) int {
	for i := range b.menus {
		if b.TitleRect(i).Contains(x, y) {
			return i
		}
	}
	return -1
}

// Contains hits the bar row and, while open, the dropdown.
func (b *MenuBar) Contains(x, y int) bool {
	return b.bounds.Contains(x, y) || b.DropdownRect().Contains(x, y)
}

// Unmount closes the dropdown.
func (b *MenuBar) Unmount() {
	b.Close()
	b.Base.Unmount()
}

// Draw paints the bar. The dropdown is painted by DrawDropdown so the
// owner can layer it above other content.
func (b *MenuBar) Draw(c *runtime.Canvas) {
	if !b.mounted {
		return
	}
	p := c.Palette()
	c.Fill(b.bounds, p.MenuBg)
	if b.bounds.Height >= 3 {
		c.HLine(b.bounds.X, b.bounds.Bottom()-1, b.bounds.Width, p.ButtonShadow)
	}
	pad := labelPadding(b.theme.Metrics)
	c.PushClip(b.bounds)
	defer c.PopClip()
	for i, menu := range b.menus {
		r := b.TitleRect(i)
		fg, bg := p.Text, p.MenuBg
		if i == b.open {
			fg, bg = p.MenuHighlightText, p.MenuHighlight
			c.Fill(r, bg)
		}
		c.Text(r.X+pad, r.Y+(r.Height-1)/2, menu.Label, fg, bg)
	}
}

// DrawDropdown paints the open dropdown, if any.
func (b *MenuBar) DrawDropdown(c *runtime.Canvas) {
	if !b.mounted || !b.IsOpen() {
		return
	}
	drawMenu(c, b.DropdownRect(), b.menus[b.open].Items, b.highlight, b.theme.Metrics)
}

// TouchBegin highlights a dropdown item, toggles a title, or closes the
// dropdown when the touch lands elsewhere.
func (b *MenuBar) TouchBegin(_ runtime.Scheduler, x, y int) {
	if !b.mounted {
		return
	}
	if drop := b.DropdownRect(); drop.Contains(x, y) {
		b.highlight = menuItemAt(b.menus[b.open].Items, drop.Y, y, b.theme.Metrics)
		return
	}
	if i := b.titleAt(x, y); i >= 0 {
		if b.open == i {
			b.Close()
		} else {
			b.open = i
			b.highlight = -1
		}
		return
	}
	b.Close()
}

// TouchMove tracks the highlighted item.
func (b *MenuBar) TouchMove(_ runtime.Scheduler, x, y int) {
	if !b.mounted || !b.IsOpen() {
		return
	}
	if drop := b.DropdownRect(); drop.Contains(x, y) {
		b.highlight = menuItemAt(b.menus[b.open].Items, drop.Y, y, b.theme.Metrics)
		return
	}
	b.highlight = -1
}

// TouchEnd runs a leaf item released inside the dropdown.
func (b *MenuBar) TouchEnd(s runtime.Scheduler, x, y int) {
	if !b.mounted {
		return
	}
	if drop := b.DropdownRect(); drop.Contains(x, y) {
		items := b.menus[b.open].Items
		if i := menuItemAt(items, drop.Y, y, b.theme.Metrics); i >= 0 && items[i].IsLeaf() {
			action := items[i].Action
			b.Close()
			s.Queue(action)
			return
		}
	}
	b.highlight = -1
}

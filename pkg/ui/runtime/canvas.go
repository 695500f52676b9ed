package runtime

import (
	"strings"
	"unicode/utf8"

	"github.com/mattn/go-runewidth"

	"github.com/odvcencio/tinydesk/pkg/ui/backend"
	"github.com/odvcencio/tinydesk/pkg/ui/theme"
)

// Cell is a single display cell: a glyph and its style.
// A zero Rune marks the trailing half of a wide glyph.
type Cell struct {
	Rune  rune
	Style backend.Style
}

type offset struct{ dx, dy int }

// Canvas is a screen-wide strip buffer. All drawing calls take absolute
// screen coordinates; the canvas subtracts the current strip offset and
// clips to the strip and to the active clip rectangle, so elements draw
// the same way whether the frame is painted in one pass or in many.
type Canvas struct {
	width  int
	height int
	cells  []Cell
	theme  *theme.Theme

	offsetY int
	rows    int

	clip  Rect
	clips []Rect

	dx, dy       int
	translations []offset
}

// NewCanvas allocates a strip buffer of width × stripHeight cells.
func NewCanvas(width, stripHeight int, th *theme.Theme) *Canvas {
	if th == nil {
		th = theme.Default()
	}
	c := &Canvas{
		width:  width,
		height: stripHeight,
		cells:  make([]Cell, width*stripHeight),
		theme:  th,
	}
	c.Begin(0, stripHeight)
	return c
}

// Begin clears the buffer and positions it over screen rows
// [offsetY, offsetY+rows).
func (c *Canvas) Begin(offsetY, rows int) {
	rows = clamp(rows, 0, c.height)
	blank := Cell{Rune: ' ', Style: backend.DefaultStyle()}
	for i := range c.cells {
		c.cells[i] = blank
	}
	c.offsetY = offsetY
	c.rows = rows
	c.clip = c.StripRect()
	c.clips = c.clips[:0]
	c.dx, c.dy = 0, 0
	c.translations = c.translations[:0]
}

// Theme returns the active theme.
func (c *Canvas) Theme() *theme.Theme { return c.theme }

// Palette is shorthand for Theme().Palette.
func (c *Canvas) Palette() theme.Palette { return c.theme.Palette }

// Width returns the buffer width.
func (c *Canvas) Width() int { return c.width }

// OffsetY returns the first screen row held by the buffer.
func (c *Canvas) OffsetY() int { return c.offsetY }

// Rows returns how many rows of the buffer the current strip uses.
func (c *Canvas) Rows() int { return c.rows }

// StripRect is the screen area covered by the current strip.
func (c *Canvas) StripRect() Rect {
	return Rect{X: 0, Y: c.offsetY, Width: c.width, Height: c.rows}
}

// Visible reports whether any part of r (in logical coordinates) would
// land inside the current clip.
func (c *Canvas) Visible(r Rect) bool {
	return r.Translate(c.dx, c.dy).Intersects(c.clip)
}

// PushClip narrows drawing to r, given in logical coordinates.
func (c *Canvas) PushClip(r Rect) {
	c.clips = append(c.clips, c.clip)
	c.clip = c.clip.Intersection(r.Translate(c.dx, c.dy))
}

// PopClip restores the clip active before the matching PushClip.
func (c *Canvas) PopClip() {
	if n := len(c.clips); n > 0 {
		c.clip = c.clips[n-1]
		c.clips = c.clips[:n-1]
	}
}

// PushTranslate shifts subsequent drawing by (dx, dy).
func (c *Canvas) PushTranslate(dx, dy int) {
	c.translations = append(c.translations, offset{c.dx, c.dy})
	c.dx += dx
	c.dy += dy
}

// PopTranslate restores the translation active before the matching push.
func (c *Canvas) PopTranslate() {
	if n := len(c.translations); n > 0 {
		prev := c.translations[n-1]
		c.dx, c.dy = prev.dx, prev.dy
		c.translations = c.translations[:n-1]
	}
}

func (c *Canvas) index(x, y int) (int, bool) {
	x += c.dx
	y += c.dy
	if !c.clip.Contains(x, y) {
		return 0, false
	}
	row := y - c.offsetY
	if x < 0 || x >= c.width || row < 0 || row >= c.rows {
		return 0, false
	}
	return row*c.width + x, true
}

// Set writes one cell.
func (c *Canvas) Set(x, y int, r rune, style backend.Style) {
	if i, ok := c.index(x, y); ok {
		c.cells[i] = Cell{Rune: r, Style: style}
	}
}

// At returns the cell at a screen position, or a blank cell when the
// position is outside the current strip.
func (c *Canvas) At(x, y int) Cell {
	row := y - c.offsetY
	if x < 0 || x >= c.width || row < 0 || row >= c.rows {
		return Cell{Rune: ' ', Style: backend.DefaultStyle()}
	}
	return c.cells[row*c.width+x]
}

// Fill paints a solid rectangle.
func (c *Canvas) Fill(r Rect, color backend.Color) {
	c.FillRune(r, ' ', backend.DefaultStyle().Background(color))
}

// FillRune fills a rectangle with a glyph.
func (c *Canvas) FillRune(r Rect, ch rune, style backend.Style) {
	area := r.Translate(c.dx, c.dy).Intersection(c.clip)
	if area.Empty() {
		return
	}
	cell := Cell{Rune: ch, Style: style}
	for y := area.Y; y < area.Bottom(); y++ {
		row := (y - c.offsetY) * c.width
		for x := area.X; x < area.Right(); x++ {
			if x >= 0 && x < c.width {
				c.cells[row+x] = cell
			}
		}
	}
}

// HLine paints a one-cell-high line.
func (c *Canvas) HLine(x, y, w int, color backend.Color) {
	c.Fill(Rect{X: x, Y: y, Width: w, Height: 1}, color)
}

// VLine paints a one-cell-wide line.
func (c *Canvas) VLine(x, y, h int, color backend.Color) {
	c.Fill(Rect{X: x, Y: y, Width: 1, Height: h}, color)
}

// DrawRect paints a rectangle outline.
func (c *Canvas) DrawRect(r Rect, color backend.Color) {
	if r.Empty() {
		return
	}
	c.HLine(r.X, r.Y, r.Width, color)
	c.HLine(r.X, r.Bottom()-1, r.Width, color)
	c.VLine(r.X, r.Y, r.Height, color)
	c.VLine(r.Right()-1, r.Y, r.Height, color)
}

// Raised fills r with the button face and, when there is room for it,
// draws the two-tone bevel of a raised control.
func (c *Canvas) Raised(r Rect) {
	p := c.Palette()
	c.bevel(r, p.ButtonFace, p.ButtonHighlight, p.ButtonDarkShadow, p.ButtonShadow)
}

// Sunken is Raised with the bevel inverted (a pressed control or a field).
func (c *Canvas) Sunken(r Rect, face backend.Color) {
	p := c.Palette()
	c.bevel(r, face, p.ButtonShadow, p.ButtonHighlight, p.ButtonDarkShadow)
}

// Bevel draws a control face in either the raised or the sunken style.
func (c *Canvas) Bevel(r Rect, face backend.Color, sunken bool) {
	p := c.Palette()
	if sunken {
		c.bevel(r, face, p.ButtonShadow, p.ButtonHighlight, p.ButtonDarkShadow)
		return
	}
	c.bevel(r, face, p.ButtonHighlight, p.ButtonDarkShadow, p.ButtonShadow)
}

func (c *Canvas) bevel(r Rect, face, light, dark, mid backend.Color) {
	c.Fill(r, face)
	if r.Width < 3 || r.Height < 3 {
		return
	}
	c.HLine(r.X, r.Y, r.Width, light)
	c.VLine(r.X, r.Y, r.Height, light)
	c.HLine(r.X, r.Bottom()-1, r.Width, dark)
	c.VLine(r.Right()-1, r.Y, r.Height, dark)
	if r.Width >= 5 && r.Height >= 5 {
		c.HLine(r.X+1, r.Bottom()-2, r.Width-2, mid)
		c.VLine(r.Right()-2, r.Y+1, r.Height-2, mid)
	}
}

// Text draws s starting at (x, y) and returns its display width.
// A ColorDefault background keeps whatever background is already painted.
func (c *Canvas) Text(x, y int, s string, fg, bg backend.Color) int {
	cx := x
	for _, r := range s {
		w := runewidth.RuneWidth(r)
		if w == 0 {
			continue
		}
		if i, ok := c.index(cx, y); ok {
			cellBg := bg
			if cellBg == backend.ColorDefault {
				cellBg = c.cells[i].Style.BG()
			}
			c.cells[i] = Cell{Rune: r, Style: backend.DefaultStyle().Foreground(fg).Background(cellBg)}
			if w == 2 {
				if j, ok := c.index(cx+1, y); ok {
					c.cells[j] = Cell{Rune: 0, Style: c.cells[i].Style}
				}
			}
		}
		cx += w
	}
	return cx - x
}

// TextClipped draws s truncated to maxWidth cells.
func (c *Canvas) TextClipped(x, y, maxWidth int, s string, fg, bg backend.Color) int {
	return c.Text(x, y, Truncate(s, maxWidth), fg, bg)
}

// TextCentered draws s centred horizontally in r on its middle row.
func (c *Canvas) TextCentered(r Rect, s string, fg, bg backend.Color) {
	s = Truncate(s, r.Width)
	w := TextWidth(s)
	c.Text(r.X+(r.Width-w)/2, r.Y+(r.Height-1)/2, s, fg, bg)
}

// TextWidth is the display width of s. Drawing and hit-testing of text
// both measure with it.
func TextWidth(s string) int {
	return runewidth.StringWidth(s)
}

// Truncate shortens s to at most width display cells.
func Truncate(s string, width int) string {
	if width <= 0 {
		return ""
	}
	return runewidth.Truncate(s, width, "")
}

// Wrap splits s into lines no wider than width, breaking at spaces where
// possible and hard-breaking words that are too long.
func Wrap(s string, width int) []string {
	if width <= 0 {
		return nil
	}
	var lines []string
	for _, para := range strings.Split(s, "\n") {
		line := ""
		for _, word := range strings.Fields(para) {
			for TextWidth(word) > width {
				if line != "" {
					lines = append(lines, line)
					line = ""
				}
				head := Truncate(word, width)
				if head == "" {
					_, size := utf8.DecodeRuneInString(word)
					head = word[:size]
				}
				lines = append(lines, head)
				word = word[len(head):]
			}
			if word == "" {
				continue
			}
			switch {
			case line == "":
				line = word
			case TextWidth(line)+1+TextWidth(word) <= width:
				line += " " + word
			default:
				lines = append(lines, line)
				line = word
			}
		}
		lines = append(lines, line)
	}
	return lines
}

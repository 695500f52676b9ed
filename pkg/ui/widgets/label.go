package widgets

import (
	"github.com/odvcencio/tinydesk/pkg/ui/backend"
	"github.com/odvcencio/tinydesk/pkg/ui/runtime"
)

// Align is horizontal text alignment.
type Align int

const (
	AlignLeft Align = iota
	AlignCenter
	AlignRight
)

// Label draws static text. With ColorDefault colours it uses the palette
// text colour and keeps the background painted beneath it.
type Label struct {
	Base
	text  string
	fg    backend.Color
	bg    backend.Color
	align Align
	wrap  bool
}

// NewLabel creates a left-aligned label.
func NewLabel(text string) *Label {
	return &Label{text: text, fg: backend.ColorDefault, bg: backend.ColorDefault}
}

// Text returns the label text.
func (l *Label) Text() string { return l.text }

// SetText replaces the text.
func (l *Label) SetText(text string) { l.text = text }

// SetColors sets the foreground and background.
func (l *Label) SetColors(fg, bg backend.Color) {
	l.fg, l.bg = fg, bg
}

// Colors returns the foreground and background.
func (l *Label) Colors() (fg, bg backend.Color) { return l.fg, l.bg }

// Align returns the horizontal alignment.
func (l *Label) Align() Align { return l.align }

// SetAlign sets the horizontal alignment.
func (l *Label) SetAlign(a Align) { l.align = a }

// SetWrap enables word wrapping within the bounds.
func (l *Label) SetWrap(on bool) { l.wrap = on }

// Lines returns the text as it will be laid out.
func (l *Label) Lines() []string {
	if l.wrap {
		return runtime.Wrap(l.text, l.bounds.Width)
	}
	return []string{l.text}
}

// Draw paints the text clipped to the bounds.
func (l *Label) Draw(c *runtime.Canvas) {
	if !l.mounted || l.bounds.Empty() {
		return
	}
	fg := l.fg
	if fg == backend.ColorDefault {
		fg = c.Palette().Text
	}
	if l.bg != backend.ColorDefault {
		c.Fill(l.bounds, l.bg)
	}

	c.PushClip(l.bounds)
	defer c.PopClip()

	lines := l.Lines()
	y := l.bounds.Y
	if !l.wrap {
		y += (l.bounds.Height - 1) / 2
	}
	for i, line := range lines {
		if i >= l.bounds.Height {
			break
		}
		line = runtime.Truncate(line, l.bounds.Width)
		x := l.bounds.X
		switch l.align {
		case AlignCenter:
			x += (l.bounds.Width - runtime.TextWidth(line)) / 2
		case AlignRight:
			x = l.bounds.Right() - runtime.TextWidth(line)
		}
		c.Text(x, y+i, line, fg, l.bg)
	}
}

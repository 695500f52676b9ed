package widgets

import (
	"unicode"

	"github.com/odvcencio/tinydesk/pkg/ui/runtime"
	"github.com/odvcencio/tinydesk/pkg/ui/theme"
)

// Runes emitted for the non-printing keys.
const (
	RuneBackspace = '\b'
	RuneEnter     = '\n'
)

type keyKind int

const (
	keyChar keyKind = iota
	keyShift
	keyMode
)

type keyDef struct {
	label string
	code  rune
	units int
	kind  keyKind
}

func ch(r rune) keyDef { return keyDef{label: string(unicode.ToUpper(r)), code: r, units: 1} }

func chars(s string) []keyDef {
	keys := make([]keyDef, 0, len(s))
	for _, r := range s {
		keys = append(keys, ch(r))
	}
	return keys
}

var (
	backspaceKey = keyDef{label: "<-", code: RuneBackspace, units: 2}
	spaceKey     = keyDef{label: "Space", code: ' ', units: 10}
	enterKey     = keyDef{label: "Ent", code: RuneEnter, units: 3}

	letterLayout = [][]keyDef{
		chars("qwertyuiop"),
		chars("asdfghjkl"),
		append(append([]keyDef{{label: "Sh", units: 2, kind: keyShift}}, chars("zxcvbnm")...), backspaceKey),
		{{label: "123", units: 3, kind: keyMode}, spaceKey, enterKey},
	}
	symbolLayout = [][]keyDef{
		chars("1234567890"),
		chars("@#$%&-_+()"),
		append(chars("=*\"':;!?"), backspaceKey),
		{{label: "ABC", units: 3, kind: keyMode}, spaceKey, enterKey},
	}
)

type placedKey struct {
	def  keyDef
	rect runtime.Rect
}

// Keyboard is the on-screen keyboard, docked above the taskbar.
type Keyboard struct {
	theme   *theme.Theme
	visible bool
	shifted bool
	symbols bool
	pressed int
	onKey   func(r rune)
}

// NewKeyboard creates a hidden keyboard.
func NewKeyboard(th *theme.Theme) *Keyboard {
	if th == nil {
		th = theme.Default()
	}
	return &Keyboard{theme: th, pressed: -1}
}

// SetOnKey sets the callback queued for each typed rune. Backspace and
// enter arrive as RuneBackspace and RuneEnter.
func (k *Keyboard) SetOnKey(fn func(r rune)) { k.onKey = fn }

// Visible reports whether the keyboard is shown.
func (k *Keyboard) Visible() bool { return k.visible }

// Shifted reports whether the next letter is upper case.
func (k *Keyboard) Shifted() bool { return k.shifted }

// Symbols reports whether the symbol layout is active.
func (k *Keyboard) Symbols() bool { return k.symbols }

// Show displays the keyboard.
func (k *Keyboard) Show() { k.visible = true }

// Hide removes the keyboard and resets its modes.
func (k *Keyboard) Hide() {
	k.visible = false
	k.shifted = false
	k.symbols = false
	k.pressed = -1
}

// Toggle flips visibility.
func (k *Keyboard) Toggle() {
	if k.visible {
		k.Hide()
	} else {
		k.Show()
	}
}

// Rect is the keyboard's screen area.
func (k *Keyboard) Rect() runtime.Rect {
	m := k.theme.Metrics
	h := m.KeyboardHeight()
	return runtime.NewRect(0, m.TaskbarY()-h, m.ScreenWidth, h)
}

// Contains hits a visible keyboard.
func (k *Keyboard) Contains(x, y int) bool {
	return k.visible && k.Rect().Contains(x, y)
}

func (k *Keyboard) layout() []placedKey {
	rows := letterLayout
	if k.symbols {
		rows = symbolLayout
	}
	m := k.theme.Metrics
	area := k.Rect()
	pad := m.Padding
	gap := max(1, m.Padding)
	rowH := max(1, (area.Height-2*pad-(len(rows)-1)*gap)/len(rows))

	var keys []placedKey
	y := area.Y + pad
	for _, row := range rows {
		units := 0
		for _, key := range row {
			units += key.units
		}
		usable := area.Width - 2*pad - (len(row)-1)*gap
		x := area.X + pad
		for i, key := range row {
			w := key.units * usable / units
			if i == len(row)-1 {
				w = area.Right() - pad - x
			}
			keys = append(keys, placedKey{def: key, rect: runtime.NewRect(x, y, w, rowH)})
			x += w + gap
		}
		y += rowH + gap
	}
	return keys
}

func (k *Keyboard) hit(x, y int) int {
	for i, key := range k.layout() {
		if key.rect.Contains(x, y) {
			return i
		}
	}
	return -1
}

func (k *Keyboard) label(def keyDef) string {
	if def.kind == keyChar && !k.shifted && unicode.IsLetter(def.code) {
		return string(def.code)
	}
	return def.label
}

// Draw paints the keyboard.
func (k *Keyboard) Draw(c *runtime.Canvas) {
	if !k.visible {
		return
	}
	p := c.Palette()
	area := k.Rect()
	c.Fill(area, p.ButtonFace)
	c.HLine(area.X, area.Y, area.Width, p.ButtonHighlight)
	for i, key := range k.layout() {
		pressed := i == k.pressed || (key.def.kind == keyShift && k.shifted)
		c.Bevel(key.rect, p.ButtonFace, pressed)
		c.PushClip(key.rect)
		c.TextCentered(key.rect, k.label(key.def), p.Text, p.ButtonFace)
		c.PopClip()
	}
}

// HandleTouch presses the key under the pointer. It reports whether the
// touch landed on the keyboard.
func (k *Keyboard) HandleTouch(_ runtime.Scheduler, x, y int) bool {
	if !k.Contains(x, y) {
		return false
	}
	k.pressed = k.hit(x, y)
	return true
}

// HandleTouchEnd activates the pressed key when released over it.
func (k *Keyboard) HandleTouchEnd(s runtime.Scheduler, x, y int) bool {
	if !k.visible {
		return false
	}
	pressed := k.pressed
	k.pressed = -1
	if pressed < 0 {
		return k.Rect().Contains(x, y)
	}
	if k.hit(x, y) == pressed {
		k.activate(s, k.layout()[pressed].def)
	}
	return true
}

func (k *Keyboard) activate(s runtime.Scheduler, def keyDef) {
	switch def.kind {
	case keyShift:
		k.shifted = !k.shifted
	case keyMode:
		k.symbols = !k.symbols
		k.shifted = false
	default:
		r := def.code
		if k.shifted && unicode.IsLetter(r) {
			r = unicode.ToUpper(r)
			k.shifted = false
		}
		if k.onKey != nil {
			onKey := k.onKey
			s.Queue(func() { onKey(r) })
		}
	}
}

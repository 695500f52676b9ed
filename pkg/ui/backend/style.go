package backend

import (
	"fmt"
	"strconv"
	"strings"
)

// Color is a display colour.
// Values 0-255 are palette colours, RGB colours carry a flag bit.
type Color int32

const (
	ColorDefault Color = -1
	ColorBlack   Color = 0
	ColorWhite   Color = 7
)

const rgbFlag = 0x01000000

// ColorRGB creates a true colour from RGB components.
func ColorRGB(r, g, b uint8) Color {
	return Color(int32(r)<<16 | int32(g)<<8 | int32(b) | rgbFlag)
}

// ColorRGB565 expands a 16-bit RGB565 value (the panel's native format)
// into a true colour. The low bits are replicated so 0xFFFF maps to white.
func ColorRGB565(v uint16) Color {
	r5 := uint8(v >> 11 & 0x1F)
	g6 := uint8(v >> 5 & 0x3F)
	b5 := uint8(v & 0x1F)
	return ColorRGB(r5<<3|r5>>2, g6<<2|g6>>4, b5<<3|b5>>2)
}

// IsRGB returns true if this is a true colour.
func (c Color) IsRGB() bool {
	return c != ColorDefault && c&rgbFlag != 0
}

// RGB returns the red, green, blue components of an RGB colour.
// Returns 0, 0, 0 for palette colours.
func (c Color) RGB() (r, g, b uint8) {
	if !c.IsRGB() {
		return 0, 0, 0
	}
	return uint8((c >> 16) & 0xFF), uint8((c >> 8) & 0xFF), uint8(c & 0xFF)
}

// RGB565 packs an RGB colour back into the panel format.
func (c Color) RGB565() uint16 {
	r, g, b := c.RGB()
	return uint16(r>>3)<<11 | uint16(g>>2)<<5 | uint16(b>>3)
}

// ParseColor reads "#rrggbb", an RGB565 value in decimal or 0x form, or
// "default".
func ParseColor(s string) (Color, error) {
	s = strings.ToLower(strings.TrimSpace(s))
	switch {
	case s == "default" || s == "none":
		return ColorDefault, nil
	case strings.HasPrefix(s, "#"):
		v, err := strconv.ParseUint(s[1:], 16, 32)
		if err != nil || len(s) != 7 {
			return ColorDefault, fmt.Errorf("invalid colour %q", s)
		}
		return ColorRGB(uint8(v>>16), uint8(v>>8), uint8(v)), nil
	}
	v, err := strconv.ParseUint(s, 0, 16)
	if err != nil {
		return ColorDefault, fmt.Errorf("invalid colour %q", s)
	}
	return ColorRGB565(uint16(v)), nil
}

// AttrMask represents text attributes.
type AttrMask uint32

const (
	AttrBold AttrMask = 1 << iota
	AttrReverse
	AttrUnderline
)

// Style combines foreground, background colours and attributes.
type Style struct {
	fg    Color
	bg    Color
	attrs AttrMask
}

// DefaultStyle returns the default style (default colours, no attributes).
func DefaultStyle() Style {
	return Style{fg: ColorDefault, bg: ColorDefault}
}

// Foreground sets the foreground colour.
func (s Style) Foreground(c Color) Style {
	s.fg = c
	return s
}

// Background sets the background colour.
func (s Style) Background(c Color) Style {
	s.bg = c
	return s
}

// Bold enables or disables bold.
func (s Style) Bold(on bool) Style {
	return s.attr(AttrBold, on)
}

// Underline enables or disables underline.
func (s Style) Underline(on bool) Style {
	return s.attr(AttrUnderline, on)
}

// Reverse enables or disables reverse video.
func (s Style) Reverse(on bool) Style {
	return s.attr(AttrReverse, on)
}

func (s Style) attr(mask AttrMask, on bool) Style {
	if on {
		s.attrs |= mask
	} else {
		s.attrs &^= mask
	}
	return s
}

// FG returns the foreground colour.
func (s Style) FG() Color {
	return s.fg
}

// BG returns the background colour.
func (s Style) BG() Color {
	return s.bg
}

// Decompose returns the foreground, background, and attributes.
func (s Style) Decompose() (fg, bg Color, attrs AttrMask) {
	return s.fg, s.bg, s.attrs
}

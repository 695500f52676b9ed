// Package theme holds the desktop's palette and layout metrics.
// Colours are the panel's RGB565 values; metrics come in a device preset
// (240×320 pixels) and a terminal preset (one cell per unit).
package theme

import (
	"fmt"
	"strings"

	"github.com/odvcencio/tinydesk/pkg/ui/backend"
)

// Palette is the set of colour roles used by the widgets.
type Palette struct {
	DesktopBg         backend.Color
	TitleBarActive    backend.Color
	TitleBarInactive  backend.Color
	TitleTextActive   backend.Color
	TitleTextInactive backend.Color
	ButtonFace        backend.Color
	ButtonHighlight   backend.Color
	ButtonShadow      backend.Color
	ButtonDarkShadow  backend.Color
	WindowBg          backend.Color
	WindowBorder      backend.Color
	Text              backend.Color
	TaskbarBg         backend.Color
	MenuBg            backend.Color
	MenuHighlight     backend.Color
	MenuHighlightText backend.Color
	ScrollTrack       backend.Color
	ScrollThumb       backend.Color
	FieldBg           backend.Color
}

// Metrics are the layout sizes of the desktop chrome.
type Metrics struct {
	ScreenWidth         int
	ScreenHeight        int
	TaskbarHeight       int
	TitleBarHeight      int
	StartButtonWidth    int
	ButtonWidth         int
	ButtonHeight        int
	BorderWidth         int
	ScrollbarWidth      int
	MinThumbHeight      int
	MenuItemHeight      int
	MenuWidth           int
	SeparatorHeight     int
	KeyboardToggleWidth int
	TaskButtonMaxWidth  int
	TrayWidth           int
	RestoredInset       int
	CheckboxSize        int
	TabBarHeight        int
	// Padding separates chrome controls from their frame.
	Padding int
}

// DesktopY is the top of the window area.
func (m Metrics) DesktopY() int { return 0 }

// DesktopHeight is the window area height with no keyboard shown.
func (m Metrics) DesktopHeight() int { return m.ScreenHeight - m.TaskbarHeight }

// TaskbarY is the first row of the taskbar.
func (m Metrics) TaskbarY() int { return m.ScreenHeight - m.TaskbarHeight }

// KeyboardHeight is the height the on-screen keyboard takes from the desktop.
func (m Metrics) KeyboardHeight() int { return m.DesktopHeight() / 2 }

// WithScreen returns a copy sized to the given screen.
func (m Metrics) WithScreen(width, height int) Metrics {
	m.ScreenWidth = width
	m.ScreenHeight = height
	return m
}

// Theme combines colours and metrics.
type Theme struct {
	Name    string
	Palette Palette
	Metrics Metrics
}

// Win95 is the desktop palette.
func Win95() Palette {
	white := backend.ColorRGB565(0xFFFF)
	black := backend.ColorRGB565(0x0000)
	gray := backend.ColorRGB565(0x8410)
	silver := backend.ColorRGB565(0xC618)
	navy := backend.ColorRGB565(0x0010)
	return Palette{
		DesktopBg:         backend.ColorRGB565(0x0410),
		TitleBarActive:    navy,
		TitleBarInactive:  gray,
		TitleTextActive:   white,
		TitleTextInactive: silver,
		ButtonFace:        silver,
		ButtonHighlight:   white,
		ButtonShadow:      gray,
		ButtonDarkShadow:  black,
		WindowBg:          silver,
		WindowBorder:      black,
		Text:              black,
		TaskbarBg:         silver,
		MenuBg:            silver,
		MenuHighlight:     navy,
		MenuHighlightText: white,
		ScrollTrack:       silver,
		ScrollThumb:       silver,
		FieldBg:           white,
	}
}

// Default returns the device preset: a 240×320 touch panel.
func Default() *Theme {
	return &Theme{
		Name:    "device",
		Palette: Win95(),
		Metrics: Metrics{
			ScreenWidth:         240,
			ScreenHeight:        320,
			TaskbarHeight:       26,
			TitleBarHeight:      18,
			StartButtonWidth:    50,
			ButtonWidth:         14,
			ButtonHeight:        14,
			BorderWidth:         2,
			ScrollbarWidth:      14,
			MinThumbHeight:      10,
			MenuItemHeight:      20,
			MenuWidth:           120,
			SeparatorHeight:     8,
			KeyboardToggleWidth: 22,
			TaskButtonMaxWidth:  80,
			TrayWidth:           40,
			RestoredInset:       2,
			CheckboxSize:        13,
			TabBarHeight:        20,
			Padding:             2,
		},
	}
}

// Terminal returns the cell preset used on text terminals.
func Terminal() *Theme {
	return &Theme{
		Name:    "terminal",
		Palette: Win95(),
		Metrics: Metrics{
			ScreenWidth:         80,
			ScreenHeight:        24,
			TaskbarHeight:       1,
			TitleBarHeight:      1,
			StartButtonWidth:    7,
			ButtonWidth:         3,
			ButtonHeight:        1,
			BorderWidth:         1,
			ScrollbarWidth:      1,
			MinThumbHeight:      1,
			MenuItemHeight:      1,
			MenuWidth:           18,
			SeparatorHeight:     1,
			KeyboardToggleWidth: 4,
			TaskButtonMaxWidth:  14,
			TrayWidth:           7,
			RestoredInset:       1,
			CheckboxSize:        3,
			TabBarHeight:        1,
			Padding:             0,
		},
	}
}

// ByName resolves a preset name.
func ByName(name string) (*Theme, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "", "terminal":
		return Terminal(), nil
	case "device":
		return Default(), nil
	default:
		return nil, fmt.Errorf("unknown metrics preset %q (valid: device, terminal)", name)
	}
}

// Package backend defines the display boundary of the desktop.
// A backend is a fixed-size grid of cells; the strip renderer blits into it
// and the input poller reads pointer and key events from it. Implementations
// are tcell (real terminals) and a tcell simulation screen (headless runs and tests).
package backend

import "github.com/odvcencio/tinydesk/pkg/ui/terminal"

// Backend is the display and input abstraction.
type Backend interface {
	Display

	// Init acquires the display (alt screen, raw mode, mouse reporting).
	Init() error

	// Fini releases the display and restores terminal state.
	Fini()

	// Clear clears the whole screen.
	Clear()

	// HideCursor hides the text cursor.
	HideCursor()

	// PollEvent blocks until an input event is available.
	// Returns nil once the backend is shutting down.
	PollEvent() terminal.Event

	// PostEvent injects an event into the input queue.
	PostEvent(ev terminal.Event) error

	// Beep emits an audible bell.
	Beep()

	// Sync forces a full redraw on the next Show.
	Sync()
}

// Display is the part of a backend the renderer needs: a size, a cell
// setter and a flush.
type Display interface {
	Size() (width, height int)
	SetContent(x, y int, mainc rune, comb []rune, style Style)
	Show()
}

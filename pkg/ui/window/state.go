// Package window implements the decorated application window and its
// placement state machine.
package window

import (
	"github.com/odvcencio/tinydesk/pkg/ui/runtime"
	"github.com/odvcencio/tinydesk/pkg/ui/theme"
)

// State is a window placement.
type State int

const (
	Restored State = iota
	Maximized
	TopHalf
	BottomHalf
	Minimized
)

func (s State) String() string {
	switch s {
	case Restored:
		return "restored"
	case Maximized:
		return "maximized"
	case TopHalf:
		return "top-half"
	case BottomHalf:
		return "bottom-half"
	case Minimized:
		return "minimized"
	default:
		return "unknown"
	}
}

// Next is the state the maximize control advances to:
// Restored, Maximized, TopHalf, BottomHalf and back to Restored.
func (s State) Next() State {
	switch s {
	case Restored:
		return Maximized
	case Maximized:
		return TopHalf
	case TopHalf:
		return BottomHalf
	default:
		return Restored
	}
}

// ParseState resolves a state name as printed by String.
func ParseState(name string) (State, bool) {
	for s := Restored; s <= Minimized; s++ {
		if s.String() == name {
			return s, true
		}
	}
	return Restored, false
}

// Geometry returns the bounds of a window in state s placed in the
// available desktop area. Minimized windows keep their restored geometry.
func Geometry(s State, m theme.Metrics, avail runtime.Rect) runtime.Rect {
	switch s {
	case Maximized:
		return avail
	case TopHalf:
		return runtime.NewRect(avail.X, avail.Y, avail.Width, avail.Height/2)
	case BottomHalf:
		half := avail.Height / 2
		return runtime.NewRect(avail.X, avail.Y+half, avail.Width, half)
	default:
		return runtime.NewRect(
			avail.X+m.BorderWidth,
			avail.Y+m.RestoredInset,
			avail.Width-2*m.BorderWidth,
			avail.Height-2*m.RestoredInset,
		)
	}
}

package terminal

// WheelEvent is a scroll-wheel notch at a screen position.
// DY is negative for up and positive for down.
type WheelEvent struct {
	X, Y int
	DY   int
}

func (WheelEvent) eventMarker() {}

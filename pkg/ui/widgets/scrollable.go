package widgets

import (
	"github.com/odvcencio/tinydesk/pkg/ui/backend"
	"github.com/odvcencio/tinydesk/pkg/ui/runtime"
	"github.com/odvcencio/tinydesk/pkg/ui/theme"
)

type dragMode int

const (
	dragNone dragMode = iota
	dragThumb
	dragContent
	dragArrow
)

// Scrollable is a viewport onto a content container that may be taller
// than the viewport. Child bounds stay in unscrolled coordinates; the
// offset is applied only while drawing and hit-testing.
type Scrollable struct {
	Base
	theme   *theme.Theme
	content *Container

	offset        int
	contentHeight int

	mode        dragMode
	startY      int
	startOffset int
}

// NewScrollable creates an empty viewport.
func NewScrollable(th *theme.Theme) *Scrollable {
	if th == nil {
		th = theme.Default()
	}
	return &Scrollable{theme: th, content: NewContainer()}
}

// Content returns the container holding the scrolled children.
func (s *Scrollable) Content() *Container { return s.content }

// Add adds a child to the content container.
func (s *Scrollable) Add(el Element) Element { return s.content.Add(el) }

// SetBounds sizes the viewport. The content container shares its origin.
func (s *Scrollable) SetBounds(r runtime.Rect) {
	s.Base.SetBounds(r)
	s.content.SetBounds(r)
	s.clamp()
}

// SetContentHeight fixes the logical content height. Zero or less restores
// the default, which is the lowest child bottom edge.
func (s *Scrollable) SetContentHeight(h int) {
	s.contentHeight = max(h, 0)
	s.clamp()
}

// ContentHeight returns the logical height of the content.
func (s *Scrollable) ContentHeight() int {
	if s.contentHeight > 0 {
		return s.contentHeight
	}
	return s.content.ContentBottom() - s.bounds.Y
}

// MaxScroll is the largest valid offset.
func (s *Scrollable) MaxScroll() int {
	return max(0, s.ContentHeight()-s.bounds.Height)
}

// Offset returns the scroll offset, clamped to the current content.
func (s *Scrollable) Offset() int {
	return runtime.Clamp(s.offset, 0, s.MaxScroll())
}

// ScrollTo sets the offset, clamped to [0, MaxScroll].
func (s *Scrollable) ScrollTo(offset int) {
	s.offset = offset
	s.clamp()
}

// ScrollBy moves the offset by delta.
func (s *Scrollable) ScrollBy(delta int) { s.ScrollTo(s.Offset() + delta) }

// Scroll moves by whole steps, as a wheel or arrow button does.
func (s *Scrollable) Scroll(steps int) {
	s.ScrollBy(steps * s.step())
}

func (s *Scrollable) step() int { return max(1, s.theme.Metrics.MenuItemHeight) }

func (s *Scrollable) clamp() {
	s.offset = runtime.Clamp(s.offset, 0, s.MaxScroll())
}

func (s *Scrollable) needsScroll() bool {
	return s.ContentHeight() > s.bounds.Height
}

func (s *Scrollable) viewport() runtime.Rect {
	r := s.bounds
	if s.needsScroll() {
		r.Width = max(0, r.Width-s.theme.Metrics.ScrollbarWidth)
	}
	return r
}

// scrollbar geometry: the bar, the arrow height and the thumb track.
func (s *Scrollable) scrollbar() (bar runtime.Rect, arrowH, track int) {
	w := s.theme.Metrics.ScrollbarWidth
	bar = runtime.NewRect(s.bounds.Right()-w, s.bounds.Y, w, s.bounds.Height)
	arrowH = min(w, s.bounds.Height/2)
	return bar, arrowH, s.bounds.Height - 2*arrowH
}

func (s *Scrollable) thumbHeight(track int) int {
	content := s.ContentHeight()
	if content <= 0 {
		return track
	}
	h := s.bounds.Height * track / content
	return runtime.Clamp(max(h, s.theme.Metrics.MinThumbHeight), 0, track)
}

// ThumbRect returns the scrollbar thumb, or an empty rect when the content
// fits the viewport.
func (s *Scrollable) ThumbRect() runtime.Rect {
	if !s.needsScroll() {
		return runtime.Rect{}
	}
	bar, arrowH, track := s.scrollbar()
	if track <= 0 {
		return runtime.Rect{}
	}
	thumbH := s.thumbHeight(track)
	y := bar.Y + arrowH
	if maxScroll := s.MaxScroll(); maxScroll > 0 {
		y += (track - thumbH) * s.Offset() / maxScroll
	}
	return runtime.NewRect(bar.X, y, bar.Width, thumbH)
}

// Mount mounts the viewport and its content.
func (s *Scrollable) Mount() {
	if s.mounted {
		return
	}
	s.mounted = true
	s.content.Mount()
}

// Unmount unmounts the content, then the viewport.
func (s *Scrollable) Unmount() {
	if !s.mounted {
		return
	}
	s.content.Unmount()
	s.mounted = false
	s.mode = dragNone
}

// Destroy releases the content.
func (s *Scrollable) Destroy() { s.content.Destroy() }

// Draw paints the visible part of the content and, if needed, the scrollbar.
func (s *Scrollable) Draw(c *runtime.Canvas) {
	if !s.mounted {
		return
	}
	c.PushClip(s.viewport())
	c.PushTranslate(0, -s.Offset())
	s.content.Draw(c)
	c.PopTranslate()
	c.PopClip()

	if s.needsScroll() {
		s.drawScrollbar(c)
	}
}

func (s *Scrollable) drawScrollbar(c *runtime.Canvas) {
	p := c.Palette()
	bar, arrowH, track := s.scrollbar()
	c.Fill(bar, p.ScrollTrack)
	if bar.Width >= 3 {
		c.DrawRect(bar, p.ButtonShadow)
	}

	up := runtime.NewRect(bar.X, bar.Y, bar.Width, arrowH)
	down := runtime.NewRect(bar.X, bar.Bottom()-arrowH, bar.Width, arrowH)
	c.Raised(up)
	c.Raised(down)
	c.TextCentered(up, "▲", p.Text, p.ButtonFace)
	c.TextCentered(down, "▼", p.Text, p.ButtonFace)

	if track <= 0 {
		return
	}
	thumb := s.ThumbRect()
	c.Raised(thumb)
	if thumb.Width < 3 {
		c.FillRune(thumb, '█', backend.DefaultStyle().Foreground(p.ButtonShadow).Background(p.ScrollTrack))
	}
}

// TouchBegin latches thumb, arrow or content mode for the rest of the touch.
func (s *Scrollable) TouchBegin(sch runtime.Scheduler, x, y int) {
	if !s.mounted {
		return
	}
	s.startY = y
	s.startOffset = s.Offset()

	if s.needsScroll() {
		bar, arrowH, _ := s.scrollbar()
		if bar.Contains(x, y) {
			switch {
			case y < bar.Y+arrowH:
				s.mode = dragArrow
				s.Scroll(-1)
			case y >= bar.Bottom()-arrowH:
				s.mode = dragArrow
				s.Scroll(1)
			default:
				s.mode = dragThumb
			}
			return
		}
	}

	s.mode = dragContent
	s.content.TouchBegin(sch, x, y+s.Offset())
}

// TouchMove drags the thumb or the content, whichever the touch began on.
func (s *Scrollable) TouchMove(sch runtime.Scheduler, x, y int) {
	if !s.mounted {
		return
	}
	delta := y - s.startY
	switch s.mode {
	case dragThumb:
		_, _, track := s.scrollbar()
		travel := track - s.thumbHeight(track)
		if travel <= 0 {
			return
		}
		s.ScrollTo(s.startOffset + delta*s.MaxScroll()/travel)
	case dragContent:
		if s.MaxScroll() == 0 {
			s.content.TouchMove(sch, x, y+s.Offset())
			return
		}
		s.ScrollTo(s.startOffset - delta)
	}
}

// TouchEnd finishes the drag; content touches are forwarded in content
// coordinates.
func (s *Scrollable) TouchEnd(sch runtime.Scheduler, x, y int) {
	if !s.mounted {
		return
	}
	mode := s.mode
	s.mode = dragNone
	if mode == dragThumb || mode == dragArrow {
		return
	}
	s.content.TouchEnd(sch, x, y+s.Offset())
}

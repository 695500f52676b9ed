package runtime

import (
	"sync/atomic"
	"time"

	"github.com/odvcencio/tinydesk/pkg/errors"
	"github.com/odvcencio/tinydesk/pkg/logging"
	"github.com/odvcencio/tinydesk/pkg/telemetry"
	"github.com/odvcencio/tinydesk/pkg/ui/backend"
	"github.com/odvcencio/tinydesk/pkg/ui/theme"
)

// DefaultStripHeight is the strip height used when none is configured.
const DefaultStripHeight = 40

// DefaultMaxCells bounds the strip buffer when no budget is configured.
const DefaultMaxCells = 64 * 1024

// DrawFunc paints the whole visible tree onto the canvas.
type DrawFunc func(c *Canvas)

// Invalidator is implemented by anything that can request a repaint.
type Invalidator interface {
	MarkDirty()
}

// RendererOptions configures a StripRenderer.
type RendererOptions struct {
	StripHeight int
	// MaxCells is the largest strip buffer the renderer may allocate.
	MaxCells int
	// Width and Height pin the composited area. Zero follows the display.
	Width  int
	Height int
	Theme  *theme.Theme
	Logger *logging.Logger
}

// StripRenderer composites the screen through a buffer that holds only a
// few rows at a time, redrawing the full tree once per strip.
type StripRenderer struct {
	display     backend.Display
	theme       *theme.Theme
	logger      *logging.Logger
	stripHeight int
	maxCells    int
	fixedW      int
	fixedH      int

	width, height int
	canvas        *Canvas
	allocErr      error
	allocLogged   bool

	dirty      atomic.Bool
	lastPasses int
}

// NewStripRenderer allocates the strip buffer for the display's current
// size. An allocation failure is logged and leaves the renderer inert.
func NewStripRenderer(display backend.Display, opts RendererOptions) *StripRenderer {
	if opts.StripHeight <= 0 {
		opts.StripHeight = DefaultStripHeight
	}
	if opts.MaxCells <= 0 {
		opts.MaxCells = DefaultMaxCells
	}
	r := &StripRenderer{
		display:     display,
		theme:       opts.Theme,
		logger:      logging.OrNop(opts.Logger),
		stripHeight: opts.StripHeight,
		maxCells:    opts.MaxCells,
	}
	if opts.Width > 0 && opts.Height > 0 {
		r.fixedW, r.fixedH = opts.Width, opts.Height
	}
	r.allocate()
	r.dirty.Store(true)
	return r
}

func (r *StripRenderer) allocate() {
	if r.allocErr != nil {
		return
	}
	w, h := r.Size()
	switch {
	case w <= 0 || h <= 0:
		r.allocErr = errors.Newf(errors.ErrCodeRenderAlloc, "invalid screen size %dx%d", w, h)
	case w*r.stripHeight > r.maxCells:
		r.allocErr = errors.Newf(errors.ErrCodeRenderAlloc, "strip buffer %dx%d exceeds budget of %d cells", w, r.stripHeight, r.maxCells)
	}
	if r.allocErr != nil {
		r.canvas = nil
		if !r.allocLogged {
			r.allocLogged = true
			r.logger.Error("strip buffer allocation failed, rendering disabled", "error", r.allocErr)
		}
		return
	}
	if r.canvas == nil || r.width != w {
		r.canvas = NewCanvas(w, r.stripHeight, r.theme)
	}
	r.width, r.height = w, h
}

// Size is the area being composited: the pinned size, or else the
// display's.
func (r *StripRenderer) Size() (width, height int) {
	if r.fixedW > 0 {
		return r.fixedW, r.fixedH
	}
	return r.display.Size()
}

// Resize re-reads the display size, reallocating the strip buffer when the
// width changed.
func (r *StripRenderer) Resize() {
	r.allocate()
	r.MarkDirty()
}

// Err reports the allocation failure, if any.
func (r *StripRenderer) Err() error { return r.allocErr }

// StripHeight returns the configured strip height.
func (r *StripRenderer) StripHeight() int { return r.stripHeight }

// MarkDirty requests a repaint. Safe from any goroutine.
func (r *StripRenderer) MarkDirty() { r.dirty.Store(true) }

// Dirty reports whether a repaint is pending.
func (r *StripRenderer) Dirty() bool { return r.dirty.Load() }

// LastPasses returns the strip pass count of the most recent frame.
func (r *StripRenderer) LastPasses() int { return r.lastPasses }

// Render paints a full frame and returns the number of strip passes.
// It returns 0 when the buffer is unavailable.
func (r *StripRenderer) Render(draw DrawFunc) int {
	if r.canvas == nil {
		telemetry.RenderFailures.Inc()
		return 0
	}
	start := time.Now()
	passes := 0
	for y := 0; y < r.height; y += r.stripHeight {
		rows := r.stripHeight
		if y+rows > r.height {
			rows = r.height - y
		}
		r.canvas.Begin(y, rows)
		if draw != nil {
			draw(r.canvas)
		}
		r.blit(y, rows)
		passes++
	}
	r.display.Show()

	r.lastPasses = passes
	telemetry.Repaints.Inc()
	telemetry.StripPasses.Add(float64(passes))
	telemetry.RenderDuration.Observe(time.Since(start).Seconds())
	return passes
}

// RepaintIfDirty renders when a repaint is pending. The flag is cleared
// before drawing so marks made meanwhile survive, and restored if the frame
// could not be rendered.
func (r *StripRenderer) RepaintIfDirty(draw DrawFunc) bool {
	if !r.dirty.CompareAndSwap(true, false) {
		return false
	}
	if r.Render(draw) == 0 {
		r.dirty.Store(true)
		return false
	}
	return true
}

func (r *StripRenderer) blit(y, rows int) {
	w := r.canvas.width
	for row := 0; row < rows; row++ {
		line := r.canvas.cells[row*w : (row+1)*w]
		for x, cell := range line {
			if cell.Rune == 0 {
				continue
			}
			r.display.SetContent(x, y+row, cell.Rune, nil, cell.Style)
		}
	}
}

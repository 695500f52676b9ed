package desktop

import (
	"context"
	"time"

	"github.com/odvcencio/tinydesk/pkg/errors"
	"github.com/odvcencio/tinydesk/pkg/telemetry"
	"github.com/odvcencio/tinydesk/pkg/ui/runtime"
	"github.com/odvcencio/tinydesk/pkg/ui/terminal"
)

// Start acquires the display, sizes the theme and the strip buffer to it,
// and opens the tray panel and the autostart apps. Run calls it; tests
// call it directly and drive the loop with Step.
func (d *Desktop) Start() error {
	if d.backend == nil {
		return errors.New(errors.ErrCodeBackendInit, "backend is required")
	}
	if err := d.backend.Init(); err != nil {
		return errors.Wrap(err, errors.ErrCodeBackendInit, "init backend")
	}
	d.backend.HideCursor()
	d.applySize()

	opts := runtime.RendererOptions{
		StripHeight: d.opts.StripHeight,
		MaxCells:    d.opts.MaxCells,
		Theme:       d.theme,
		Logger:      d.log,
	}
	if d.fixedSize() {
		opts.Width, opts.Height = d.opts.Width, d.opts.Height
	}
	d.renderer = runtime.NewStripRenderer(d.backend, opts)
	if err := d.renderer.Err(); err != nil {
		d.log.Warn("desktop running without a strip buffer", "error", err)
	}

	if d.panelApp != "" && !d.OpenPanel(d.panelApp) {
		d.log.Warn("panel app not registered", "app", d.panelApp)
	}
	for _, name := range d.opts.Autostart {
		if !d.wm.OpenApp(name) {
			d.log.Warn("autostart app not registered", "app", name)
		}
	}
	d.log.Info("desktop started",
		"width", d.theme.Metrics.ScreenWidth,
		"height", d.theme.Metrics.ScreenHeight,
		"strip_height", d.renderer.StripHeight(),
	)
	return nil
}

// Stop releases the display.
func (d *Desktop) Stop() {
	d.Shutdown()
	d.backend.Fini()
}

func (d *Desktop) applySize() {
	w, h := d.backend.Size()
	if d.fixedSize() {
		w, h = d.opts.Width, d.opts.Height
	}
	if w > 0 && h > 0 {
		d.theme.Metrics = d.theme.Metrics.WithScreen(w, h)
	}
}

// Run is the UI loop. It returns nil after Shutdown and the context's
// error when ctx ends first.
func (d *Desktop) Run(ctx context.Context) error {
	if err := d.Start(); err != nil {
		return err
	}
	defer d.backend.Fini()

	ctx = d.bridge.Attach(ctx)
	defer d.bridge.Detach()

	go d.pollEvents()

	ticker := time.NewTicker(d.opts.Tick)
	defer ticker.Stop()

	d.Step()
	for {
		select {
		case <-ctx.Done():
			d.Shutdown()
			return ctx.Err()
		case <-d.quit:
			d.log.Info("desktop shut down")
			return nil
		case <-ticker.C:
			d.Step()
		}
	}
}

// pollEvents feeds backend input into the bounded input channel. When the
// loop falls behind, pointer moves are dropped first.
func (d *Desktop) pollEvents() {
	for {
		ev := d.backend.PollEvent()
		if ev == nil {
			select {
			case <-d.quit:
				return
			default:
				continue
			}
		}
		if p, ok := ev.(terminal.PointerEvent); ok && p.Phase == terminal.PointerMove {
			select {
			case d.input <- ev:
			default:
			}
			continue
		}
		select {
		case d.input <- ev:
		case <-d.quit:
			return
		}
	}
}

// Post queues an input event as if the backend had delivered it.
func (d *Desktop) Post(ev terminal.Event) bool {
	select {
	case d.input <- ev:
		return true
	default:
		return false
	}
}

// Step runs one iteration of the UI loop: bridge calls, pending input,
// queued actions and app timers, then a repaint if one is due.
func (d *Desktop) Step() {
	d.bridge.Drain()
	d.drainInput()
	d.queue.Execute()
	if d.wm.TickTimers() {
		d.queue.Execute()
	}
	if d.renderer != nil && d.renderer.Dirty() && d.limiter.Allow() {
		d.renderer.RepaintIfDirty(d.Draw)
	}
}

func (d *Desktop) drainInput() {
	for {
		select {
		case ev := <-d.input:
			d.HandleEvent(ev)
		default:
			return
		}
	}
}

// HandleEvent dispatches one input event.
func (d *Desktop) HandleEvent(ev terminal.Event) {
	switch e := ev.(type) {
	case terminal.PointerEvent:
		telemetry.Touches.WithLabelValues(e.Phase.String()).Inc()
		switch e.Phase {
		case terminal.PointerDown:
			d.wm.HandleTouch(e.X, e.Y)
		case terminal.PointerMove:
			d.wm.HandleTouchMove(e.X, e.Y)
		case terminal.PointerUp:
			d.wm.HandleTouchEnd(e.X, e.Y)
		}
		d.MarkDirty()
	case terminal.WheelEvent:
		if d.wm.HandleWheel(e.X, e.Y, e.DY) {
			d.MarkDirty()
		}
	case terminal.KeyEvent:
		d.handleKey(e)
	case terminal.PasteEvent:
		for _, r := range e.Text {
			if r == '\n' || r == '\r' {
				continue
			}
			d.typeRune(r)
		}
	case terminal.ResizeEvent:
		if !d.fixedSize() {
			d.resize(e.Width, e.Height)
		}
	}
}

func (d *Desktop) handleKey(e terminal.KeyEvent) {
	switch e.Key {
	case terminal.KeyCtrlQ, terminal.KeyCtrlC:
		d.Shutdown()
	case terminal.KeyEscape:
		switch {
		case d.startMenu.Visible():
			d.startMenu.Hide()
		case d.wm.HasVisiblePopups():
			d.wm.HideAllPopups()
		case d.keyboard.Visible():
			d.SetKeyboardVisible(false)
		}
		d.MarkDirty()
	case terminal.KeyBackspace:
		d.typeRune('\b')
	case terminal.KeyEnter:
		d.typeRune('\n')
	case terminal.KeyRune:
		if !e.Ctrl && !e.Alt {
			d.typeRune(e.Rune)
		}
	}
}

func (d *Desktop) fixedSize() bool { return d.opts.Width > 0 && d.opts.Height > 0 }

// resize rebuilds the geometry for a new display size.
func (d *Desktop) resize(w, h int) {
	if w <= 0 || h <= 0 {
		return
	}
	d.theme.Metrics = d.theme.Metrics.WithScreen(w, h)
	if d.renderer != nil {
		d.renderer.Resize()
	}
	d.startMenu.Hide()
	d.wm.RelayoutAll()
	if name, ok := d.wm.Panel(); ok {
		d.wm.ClosePanel(name)
		d.OpenPanel(name)
	}
	d.log.Debug("display resized", "width", w, "height", h)
	d.MarkDirty()
}

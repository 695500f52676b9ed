package main

import (
	"context"
	"time"

	"github.com/odvcencio/tinydesk/pkg/config"
	"github.com/odvcencio/tinydesk/pkg/logging"
	"github.com/odvcencio/tinydesk/pkg/telemetry"
	"github.com/odvcencio/tinydesk/pkg/ui/bridge"
)

// frameTarget is the part of the desktop a reload touches.
type frameTarget interface {
	Bridge() *bridge.Bridge
	SetFrameInterval(iv time.Duration)
}

// reloader applies the reloadable part of a new configuration. It runs on
// the watcher goroutine only.
type reloader struct {
	current *config.Config
	desktop frameTarget
	events  telemetry.Publisher
	log     *logging.Logger
}

func (r *reloader) apply(ctx context.Context, next *config.Config) {
	changed := r.current.ReloadableChanges(next)
	if len(changed) == 0 {
		r.log.Debug("config changed; nothing reloadable differs")
		return
	}
	for _, field := range changed {
		switch field {
		case "logging.level":
			level, err := logging.ParseLevel(next.Logging.Level)
			if err != nil {
				r.log.Warn("ignoring log level", "level", next.Logging.Level, "error", err)
				continue
			}
			r.log.SetLevel(level)
			r.current.Logging.Level = next.Logging.Level
		case "ui.frame_interval":
			iv := next.UI.FrameInterval
			if err := bridge.Do(ctx, r.desktop.Bridge(), func() { r.desktop.SetFrameInterval(iv) }); err != nil {
				r.log.Warn("frame interval not applied", "error", err)
				continue
			}
			r.current.UI.FrameInterval = iv
		}
	}
	r.log.Info("config reloaded", "changed", changed)
	if r.events != nil {
		r.events.Publish(telemetry.Event{
			Type: telemetry.EventConfigReloaded,
			Data: map[string]any{"changed": changed},
		})
	}
}

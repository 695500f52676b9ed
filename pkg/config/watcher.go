package config

import (
	"context"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/odvcencio/tinydesk/pkg/errors"
	"github.com/odvcencio/tinydesk/pkg/logging"
)

// DefaultDebounce is how long the watcher waits for writes to settle.
const DefaultDebounce = 250 * time.Millisecond

// Watcher reloads the configuration when one of its files changes.
// Bursts of events (editors often write, rename and chmod) collapse into
// one reload.
type Watcher struct {
	files    map[string]struct{}
	load     func() (*Config, error)
	onChange func(*Config)
	debounce time.Duration
	log      *logging.Logger
}

// WatcherOptions configures NewWatcher.
type WatcherOptions struct {
	// Files to watch. Defaults to Files().
	Files []string
	// Load rebuilds the configuration. Defaults to Load.
	Load     func() (*Config, error)
	Debounce time.Duration
	Logger   *logging.Logger
}

// NewWatcher creates a watcher that calls onChange with every successfully
// reloaded configuration. A reload that fails validation is logged and
// skipped.
func NewWatcher(onChange func(*Config), opts WatcherOptions) *Watcher {
	if len(opts.Files) == 0 {
		opts.Files = Files()
	}
	if opts.Load == nil {
		opts.Load = Load
	}
	if opts.Debounce <= 0 {
		opts.Debounce = DefaultDebounce
	}
	files := make(map[string]struct{}, len(opts.Files))
	for _, f := range opts.Files {
		if abs, err := filepath.Abs(f); err == nil {
			f = abs
		}
		files[filepath.Clean(f)] = struct{}{}
	}
	return &Watcher{
		files:    files,
		load:     opts.Load,
		onChange: onChange,
		debounce: opts.Debounce,
		log:      logging.OrNop(opts.Logger).Component("config"),
	}
}

// Run watches until ctx is done. Directories are watched rather than the
// files themselves so that replaced files keep being seen; a file whose
// directory does not exist is ignored.
func (w *Watcher) Run(ctx context.Context) error {
	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return errors.Wrap(err, errors.ErrCodeConfigLoad, "create config watcher")
	}
	defer fw.Close()

	watched := 0
	dirs := make(map[string]struct{})
	for f := range w.files {
		dir := filepath.Dir(f)
		if _, ok := dirs[dir]; ok {
			continue
		}
		dirs[dir] = struct{}{}
		if err := fw.Add(dir); err != nil {
			w.log.Debug("config dir not watched", "dir", dir, "error", err)
			continue
		}
		watched++
	}
	if watched == 0 {
		w.log.Debug("no config directories to watch")
	}

	var (
		timer *time.Timer
		fire  <-chan time.Time
	)
	defer func() {
		if timer != nil {
			timer.Stop()
		}
	}()

	for {
		select {
		case <-ctx.Done():
			return nil
		case ev, ok := <-fw.Events:
			if !ok {
				return nil
			}
			if !w.relevant(ev) {
				continue
			}
			if timer == nil {
				timer = time.NewTimer(w.debounce)
			} else {
				timer.Reset(w.debounce)
			}
			fire = timer.C
		case err, ok := <-fw.Errors:
			if !ok {
				return nil
			}
			w.log.Warn("config watcher error", "error", err)
		case <-fire:
			fire = nil
			w.reload()
		}
	}
}

func (w *Watcher) relevant(ev fsnotify.Event) bool {
	if !ev.Has(fsnotify.Write) && !ev.Has(fsnotify.Create) && !ev.Has(fsnotify.Rename) && !ev.Has(fsnotify.Remove) {
		return false
	}
	name := ev.Name
	if abs, err := filepath.Abs(name); err == nil {
		name = abs
	}
	_, ok := w.files[filepath.Clean(name)]
	return ok
}

func (w *Watcher) reload() {
	cfg, err := w.load()
	if err != nil {
		w.log.Warn("config reload failed", "error", err, "code", errors.GetCode(err))
		return
	}
	w.log.Info("config reloaded")
	if w.onChange != nil {
		w.onChange(cfg)
	}
}

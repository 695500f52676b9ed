// Command tinydesk runs the touch desktop in a terminal and serves its
// remote control API.
package main

import (
	"context"
	stderrors "errors"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"golang.org/x/sync/errgroup"
	"golang.org/x/term"

	"github.com/odvcencio/tinydesk/pkg/apps"
	"github.com/odvcencio/tinydesk/pkg/bus"
	"github.com/odvcencio/tinydesk/pkg/command"
	"github.com/odvcencio/tinydesk/pkg/config"
	"github.com/odvcencio/tinydesk/pkg/errors"
	"github.com/odvcencio/tinydesk/pkg/ipc"
	"github.com/odvcencio/tinydesk/pkg/logging"
	"github.com/odvcencio/tinydesk/pkg/telemetry"
	"github.com/odvcencio/tinydesk/pkg/ui/app"
	"github.com/odvcencio/tinydesk/pkg/ui/backend"
	"github.com/odvcencio/tinydesk/pkg/ui/backend/sim"
	"github.com/odvcencio/tinydesk/pkg/ui/backend/tcell"
	"github.com/odvcencio/tinydesk/pkg/ui/bridge"
	"github.com/odvcencio/tinydesk/pkg/ui/desktop"
	"github.com/odvcencio/tinydesk/pkg/ui/theme"
)

// Version information - set via ldflags during build
var (
	version = "0.1.0-dev"
	commit  = "unknown"
)

// isTerminal reports whether stdout can host the tcell display.
var isTerminal = func() bool { return term.IsTerminal(int(os.Stdout.Fd())) }

type startupOptions struct {
	configPath string
	backend    string
	logLevel   string
	version    bool
	args       []string
}

func main() {
	if err := run(os.Args[1:], os.Stdout); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(exitCodeForError(err))
	}
}

func run(args []string, stdout io.Writer) error {
	opts, err := parseStartupOptions(args)
	if err != nil {
		return withExitCode(err, 2)
	}
	if opts.version {
		fmt.Fprintf(stdout, "tinydesk %s (%s)\n", version, commit)
		return nil
	}

	cfg, err := loadConfig(opts)
	if err != nil {
		return err
	}

	if len(opts.args) > 0 {
		switch opts.args[0] {
		case "exec":
			return runExec(cfg, opts.args[1:], stdout)
		case "events":
			return runEvents(cfg, opts.args[1:], stdout)
		default:
			return withExitCode(fmt.Errorf("unknown subcommand %q", opts.args[0]), 2)
		}
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	return runDesktop(ctx, cfg, opts)
}

func parseStartupOptions(args []string) (startupOptions, error) {
	var opts startupOptions
	fs := flag.NewFlagSet("tinydesk", flag.ContinueOnError)
	fs.SetOutput(io.Discard)
	fs.StringVar(&opts.configPath, "config", "", "config file (default: ~/.tinydesk and ./.tinydesk)")
	fs.StringVar(&opts.backend, "backend", "", "display backend: tcell or sim")
	fs.StringVar(&opts.logLevel, "log-level", "", "log level: debug, info, warn, error")
	fs.BoolVar(&opts.version, "version", false, "print the version and exit")
	if err := fs.Parse(args); err != nil {
		return opts, err
	}
	opts.args = fs.Args()
	return opts, nil
}

func loadConfig(opts startupOptions) (*config.Config, error) {
	load := configLoader(opts)
	cfg, err := load()
	if err != nil {
		return nil, err
	}
	if opts.backend != "" {
		cfg.Display.Backend = opts.backend
	}
	if opts.logLevel != "" {
		cfg.Logging.Level = opts.logLevel
	}
	return cfg, cfg.Validate()
}

func configLoader(opts startupOptions) func() (*config.Config, error) {
	if opts.configPath != "" {
		return func() (*config.Config, error) { return config.LoadFromPath(opts.configPath) }
	}
	return config.Load
}

// chooseBackend returns the display backend. A tcell display needs a
// terminal on stdout; without one the desktop runs on the simulation.
func chooseBackend(cfg *config.Config, th *theme.Theme, log *logging.Logger) (backend.Backend, error) {
	if cfg.Display.Backend == config.BackendTcell {
		if isTerminal() {
			b, err := tcell.New()
			if err != nil {
				return nil, errors.Wrap(err, errors.ErrCodeBackendInit, "create tcell backend")
			}
			return b, nil
		}
		log.Warn("stdout is not a terminal; using the simulation backend")
	}
	w, h := cfg.Display.Width, cfg.Display.Height
	if w <= 0 || h <= 0 {
		w, h = th.Metrics.ScreenWidth, th.Metrics.ScreenHeight
	}
	return sim.New(w, h), nil
}

func newLogger(cfg *config.Config) (*logging.Logger, io.Closer, error) {
	opts := logging.Options{
		Level:  cfg.Logging.Level,
		Format: cfg.Logging.Format,
		File:   cfg.LogFile(),
	}
	// The tcell display owns the terminal.
	if opts.File == "" && cfg.Display.Backend == config.BackendTcell {
		opts.Output = io.Discard
	}
	return logging.New("tinydesk", opts)
}

func runDesktop(ctx context.Context, cfg *config.Config, opts startupOptions) error {
	log, logCloser, err := newLogger(cfg)
	if err != nil {
		return withExitCode(err, 2)
	}
	defer logCloser.Close()
	for _, w := range cfg.ValidationWarnings() {
		log.Warn("config warning", "warning", w)
	}

	shutdownTracing, err := setupTracing(ctx, cfg)
	if err != nil {
		return err
	}
	defer shutdownTracing()

	th, err := theme.ByName(cfg.Display.Metrics)
	if err != nil {
		return errors.Wrap(err, errors.ErrCodeConfigInvalid, "display metrics")
	}
	be, err := chooseBackend(cfg, th, log)
	if err != nil {
		return err
	}

	events := telemetry.NewHub()
	defer events.Close()

	registry := app.NewRegistry()
	d := desktop.New(desktop.Options{
		Backend:       be,
		Theme:         th,
		Registry:      registry,
		Bridge:        bridge.New(cfg.UI.BridgeQueue, log),
		Events:        events,
		Logger:        log,
		Width:         cfg.Display.Width,
		Height:        cfg.Display.Height,
		StripHeight:   cfg.Display.StripHeight,
		MaxCells:      cfg.Display.MaxBufferCells,
		Tick:          cfg.UI.Tick,
		FrameInterval: cfg.UI.FrameInterval,
		InputBuffer:   cfg.UI.InputBuffer,
		Autostart:     cfg.UI.Autostart,
		PanelApp:      cfg.UI.PanelApp,
	})

	commands := command.NewRegistry(command.Options{Events: events, Logger: log})
	if err := command.RegisterUI(commands, d); err != nil {
		return err
	}
	if err := apps.Register(registry, apps.Deps{
		Theme:    th,
		Host:     d.Manager(),
		Commands: commands,
		Context:  d.Bridge().UIContext,
		Events:   events,
		Logger:   log,
	}); err != nil {
		return err
	}

	msgBus, err := bus.New(bus.Config{URL: cfg.Bus.URL, Name: cfg.Bus.Name, Timeout: cfg.Bus.Timeout})
	if err != nil {
		return err
	}
	defer msgBus.Close()

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()
	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		// Quitting the desktop stops everything else.
		defer cancel()
		if err := d.Run(gctx); err != nil && !stderrors.Is(err, context.Canceled) {
			return err
		}
		return nil
	})
	if cfg.Server.Enabled {
		srv := ipc.NewServer(ipc.Config{
			BindAddress:    cfg.Server.Bind,
			AllowedOrigins: cfg.Server.AllowedOrigins,
			ClientQueue:    cfg.Server.ClientQueue,
			MaxClients:     cfg.Server.MaxClients,
		}, commands, events, log)
		g.Go(func() error { return srv.Start(gctx) })
	}
	g.Go(func() error {
		return ipc.NewBusBridge(msgBus, events, commands, log).Run(gctx)
	})
	g.Go(func() error {
		current := *cfg
		r := &reloader{current: &current, desktop: d, events: events, log: log}
		w := config.NewWatcher(func(next *config.Config) { r.apply(gctx, next) }, config.WatcherOptions{
			Files:  watchFiles(opts),
			Load:   configLoader(opts),
			Logger: log,
		})
		return w.Run(gctx)
	})

	log.Info("tinydesk running",
		"version", version,
		"backend", cfg.Display.Backend,
		"server", cfg.Server.Enabled,
		"bus", cfg.Bus.URL != "",
	)
	return g.Wait()
}

func watchFiles(opts startupOptions) []string {
	if opts.configPath != "" {
		return []string{opts.configPath}
	}
	return config.Files()
}

// setupTracing exports spans to the configured file when tracing is on.
func setupTracing(ctx context.Context, cfg *config.Config) (func(), error) {
	if !cfg.Tracing.Enabled {
		return func() {}, nil
	}
	f, err := os.OpenFile(cfg.TraceFile(), os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeConfigInvalid, "open trace file")
	}
	shutdown, err := telemetry.NewTracerProvider(ctx, "tinydesk", f)
	if err != nil {
		f.Close()
		return nil, err
	}
	return func() {
		_ = shutdown(context.Background())
		_ = f.Close()
	}, nil
}

// Package ipc serves remote control of the desktop over HTTP and
// websockets: command execution, the open app list, health, metrics and a
// live stream of desktop events.
package ipc

import (
	"context"
	stderrors "errors"
	"net"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"golang.org/x/net/http2"
	"golang.org/x/net/http2/h2c"

	"github.com/odvcencio/tinydesk/pkg/command"
	"github.com/odvcencio/tinydesk/pkg/logging"
	"github.com/odvcencio/tinydesk/pkg/telemetry"
)

//go:generate mockgen -package=ipc -destination=mock_executor_test.go github.com/odvcencio/tinydesk/pkg/ipc Executor

// Executor runs command lines. *command.Registry implements it.
type Executor interface {
	Execute(ctx context.Context, line string) command.Response
}

// Config configures the server.
type Config struct {
	BindAddress string
	// AllowedOrigins lists browser origins that may call the API and open
	// websockets. "*" allows any origin without credentials.
	AllowedOrigins []string
	// ClientQueue is the number of frames a websocket client may lag.
	ClientQueue int
	// MaxClients caps concurrent websocket clients; zero is unlimited.
	MaxClients   int
	PingInterval time.Duration
}

// DefaultConfig listens on loopback only.
func DefaultConfig() Config {
	return Config{
		BindAddress:  "127.0.0.1:7480",
		ClientQueue:  64,
		MaxClients:   16,
		PingInterval: 20 * time.Second,
	}
}

// Server is the remote control server.
type Server struct {
	cfg      Config
	commands Executor
	events   *telemetry.Hub
	hub      *Hub
	clients  *connLimiter
	log      *logging.Logger
}

// NewServer creates a server executing commands through commands and
// streaming the events published on events.
func NewServer(cfg Config, commands Executor, events *telemetry.Hub, logger *logging.Logger) *Server {
	def := DefaultConfig()
	if cfg.BindAddress == "" {
		cfg.BindAddress = def.BindAddress
	}
	if cfg.ClientQueue <= 0 {
		cfg.ClientQueue = def.ClientQueue
	}
	if cfg.PingInterval <= 0 {
		cfg.PingInterval = def.PingInterval
	}
	log := logging.OrNop(logger)
	return &Server{
		cfg:      cfg,
		commands: commands,
		events:   events,
		hub:      NewHub(cfg.ClientQueue, log),
		clients:  newConnLimiter(cfg.MaxClients),
		log:      log.Component("ipc"),
	}
}

// Hub returns the websocket hub.
func (s *Server) Hub() *Hub { return s.hub }

// Handler builds the routes. The router is wrapped for HTTP/2 cleartext so
// websockets also work behind proxies that speak h2c upstream.
func (s *Server) Handler() http.Handler {
	router := chi.NewRouter()
	router.Use(middleware.RealIP)
	router.Use(s.requestIDMiddleware)
	router.Use(middleware.Recoverer)
	router.Use(s.corsMiddleware)
	router.Use(s.securityHeadersMiddleware)

	router.Get("/healthz", s.handleHealthz)
	router.Handle("/metrics", promhttp.Handler())
	router.Route("/api", func(r chi.Router) {
		r.Post("/command", s.handleCommand)
		r.Get("/apps", s.handleApps)
	})
	router.Get("/ws", s.handleWS)

	return h2c.NewHandler(router, &http2.Server{})
}

// Start serves until ctx is cancelled, then shuts down gracefully.
func (s *Server) Start(ctx context.Context) error {
	ln, err := net.Listen("tcp", s.cfg.BindAddress)
	if err != nil {
		return err
	}
	return s.Serve(ctx, ln)
}

// Serve is Start on an existing listener.
func (s *Server) Serve(ctx context.Context, ln net.Listener) error {
	httpServer := &http.Server{
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
		IdleTimeout:       2 * time.Minute,
		MaxHeaderBytes:    1 << 20,
		BaseContext:       func(net.Listener) context.Context { return ctx },
	}

	go s.forwardEvents(ctx)

	serverErr := make(chan error, 1)
	go func() {
		s.log.Info("serving remote control", "addr", ln.Addr().String())
		if err := httpServer.Serve(ln); err != nil && !stderrors.Is(err, http.ErrServerClosed) {
			serverErr <- err
		}
	}()

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return httpServer.Shutdown(shutdownCtx)
	case err := <-serverErr:
		return err
	}
}

// forwardEvents copies desktop events to the websocket clients until ctx
// is done.
func (s *Server) forwardEvents(ctx context.Context) {
	if s.events == nil {
		return
	}
	ch, cancel := s.events.Subscribe()
	defer cancel()
	for {
		select {
		case <-ctx.Done():
			return
		case e, ok := <-ch:
			if !ok {
				return
			}
			s.hub.BroadcastEvent(e)
		}
	}
}

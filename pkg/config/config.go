// Package config loads tinydesk settings from YAML files and the
// environment.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"strconv"
	"strings"
	"time"

	"github.com/odvcencio/tinydesk/pkg/errors"
	"github.com/odvcencio/tinydesk/pkg/logging"
)

// Backend names.
const (
	BackendTcell = "tcell"
	BackendSim   = "sim"
)

const (
	dirName  = ".tinydesk"
	fileName = "config.yaml"
)

// Config represents the complete tinydesk configuration.
type Config struct {
	Display DisplayConfig `yaml:"display"`
	UI      UIConfig      `yaml:"ui"`
	Server  ServerConfig  `yaml:"server"`
	Bus     BusConfig     `yaml:"bus"`
	Logging LoggingConfig `yaml:"logging"`
	Tracing TracingConfig `yaml:"tracing"`
}

// DisplayConfig selects the backend and sizes the frame buffer.
type DisplayConfig struct {
	Backend string `yaml:"backend"` // tcell or sim
	// Width and Height override the backend size; zero keeps it.
	Width          int    `yaml:"width"`
	Height         int    `yaml:"height"`
	StripHeight    int    `yaml:"strip_height"`
	MaxBufferCells int    `yaml:"max_buffer_cells"`
	Metrics        string `yaml:"metrics"` // device or terminal
}

// UIConfig tunes the UI loop.
type UIConfig struct {
	Tick          time.Duration `yaml:"tick"`
	FrameInterval time.Duration `yaml:"frame_interval"`
	BridgeQueue   int           `yaml:"bridge_queue"`
	InputBuffer   int           `yaml:"input_buffer"`
	Autostart     []string      `yaml:"autostart"`
	PanelApp      string        `yaml:"panel_app"`
}

// ServerConfig controls the remote control server.
type ServerConfig struct {
	Enabled        bool     `yaml:"enabled"`
	Bind           string   `yaml:"bind"`
	AllowedOrigins []string `yaml:"allowed_origins"`
	MaxClients     int      `yaml:"max_clients"`
	ClientQueue    int      `yaml:"client_queue"`
}

// BusConfig selects the message bus. An empty URL keeps the bus in memory.
type BusConfig struct {
	URL     string        `yaml:"url"`
	Name    string        `yaml:"name"`
	Timeout time.Duration `yaml:"timeout"`
}

// LoggingConfig configures the process logger.
type LoggingConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
	File   string `yaml:"file"`
}

// TracingConfig enables span export to a file.
type TracingConfig struct {
	Enabled bool   `yaml:"enabled"`
	File    string `yaml:"file"`
}

// DefaultConfig returns the built-in defaults.
func DefaultConfig() *Config {
	return &Config{
		Display: DisplayConfig{
			Backend:     BackendTcell,
			StripHeight: 8,
			Metrics:     "terminal",
		},
		UI: UIConfig{
			Tick:          10 * time.Millisecond,
			FrameInterval: 33 * time.Millisecond,
			BridgeQueue:   8,
			InputBuffer:   64,
			Autostart:     []string{},
			PanelApp:      "Clock",
		},
		Server: ServerConfig{
			Enabled:        true,
			Bind:           "127.0.0.1:7480",
			AllowedOrigins: []string{"http://localhost", "http://127.0.0.1"},
			MaxClients:     16,
			ClientQueue:    64,
		},
		Bus: BusConfig{
			Name:    "tinydesk",
			Timeout: 5 * time.Second,
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "json",
			File:   filepath.Join("~", dirName, "tinydesk.log"),
		},
		Tracing: TracingConfig{
			File: filepath.Join("~", dirName, "traces.json"),
		},
	}
}

// Files returns the config files Load reads, in merge order: the user file
// (~/.tinydesk/config.yaml) then the project file (./.tinydesk/config.yaml).
func Files() []string {
	var files []string
	home, err := os.UserHomeDir()
	if err != nil {
		home = os.Getenv("HOME")
	}
	if home != "" {
		files = append(files, filepath.Join(home, dirName, fileName))
	}
	return append(files, filepath.Join(".", dirName, fileName))
}

// Load merges the defaults, the user and project files and the
// environment, then validates the result. Missing files are skipped.
func Load() (*Config, error) {
	cfg := DefaultConfig()
	for _, path := range Files() {
		if err := loadAndMerge(cfg, path); err != nil && !os.IsNotExist(err) {
			return nil, loadError(err, path)
		}
	}
	applyEnvOverrides(cfg)
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// LoadFromPath loads configuration from a specific file, which must exist.
func LoadFromPath(path string) (*Config, error) {
	cfg := DefaultConfig()
	if err := loadAndMerge(cfg, path); err != nil {
		return nil, loadError(err, path)
	}
	applyEnvOverrides(cfg)
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// loadError keeps a parse error's code and wraps anything else as a load
// failure.
func loadError(err error, path string) error {
	if e, ok := errors.As(err); ok {
		return e
	}
	return errors.Wrap(err, errors.ErrCodeConfigLoad, "load config").WithContext("path", path)
}

func applyEnvOverrides(cfg *Config) {
	if v := os.Getenv("TINYDESK_BACKEND"); v != "" {
		cfg.Display.Backend = strings.ToLower(v)
	}
	if v, ok := envInt("TINYDESK_WIDTH"); ok {
		cfg.Display.Width = v
	}
	if v, ok := envInt("TINYDESK_HEIGHT"); ok {
		cfg.Display.Height = v
	}
	if v := os.Getenv("TINYDESK_METRICS"); v != "" {
		cfg.Display.Metrics = v
	}
	if v := os.Getenv("TINYDESK_AUTOSTART"); v != "" {
		cfg.UI.Autostart = splitCommaList(v)
	}
	if v, ok := os.LookupEnv("TINYDESK_PANEL_APP"); ok {
		cfg.UI.PanelApp = strings.TrimSpace(v)
	}

	if val, ok := envBool("TINYDESK_SERVER_ENABLED"); ok {
		cfg.Server.Enabled = val
	}
	if v := os.Getenv("TINYDESK_BIND"); v != "" {
		cfg.Server.Bind = v
	}
	if v := os.Getenv("TINYDESK_ALLOWED_ORIGINS"); v != "" {
		cfg.Server.AllowedOrigins = splitCommaList(v)
	}

	if v := os.Getenv("TINYDESK_BUS_URL"); v != "" {
		cfg.Bus.URL = v
	} else if v := os.Getenv("NATS_URL"); v != "" && cfg.Bus.URL == "" {
		cfg.Bus.URL = v
	}

	if v := os.Getenv("TINYDESK_LOG_LEVEL"); v != "" {
		cfg.Logging.Level = v
	}
	if v := os.Getenv("TINYDESK_LOG_FORMAT"); v != "" {
		cfg.Logging.Format = v
	}
	if v, ok := os.LookupEnv("TINYDESK_LOG_FILE"); ok {
		cfg.Logging.File = v
	}

	if val, ok := envBool("TINYDESK_TRACING"); ok {
		cfg.Tracing.Enabled = val
	}
	if v := os.Getenv("TINYDESK_TRACE_FILE"); v != "" {
		cfg.Tracing.File = v
	}
}

func splitCommaList(raw string) []string {
	parts := strings.Split(raw, ",")
	out := make([]string, 0, len(parts))
	for _, part := range parts {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

func envBool(key string) (bool, bool) {
	switch strings.ToLower(os.Getenv(key)) {
	case "1", "true", "yes", "on":
		return true, true
	case "0", "false", "no", "off":
		return false, true
	default:
		return false, false
	}
}

func envInt(key string) (int, bool) {
	v, err := strconv.Atoi(strings.TrimSpace(os.Getenv(key)))
	if err != nil {
		return 0, false
	}
	return v, true
}

// Validate checks the configuration for values the desktop cannot run with.
func (c *Config) Validate() error {
	var problems []string
	add := func(format string, args ...any) {
		problems = append(problems, fmt.Sprintf(format, args...))
	}

	switch c.Display.Backend {
	case BackendTcell, BackendSim:
	default:
		add("display.backend %q is not one of tcell, sim", c.Display.Backend)
	}
	if c.Display.Width < 0 || c.Display.Height < 0 {
		add("display size %dx%d must not be negative", c.Display.Width, c.Display.Height)
	}
	if (c.Display.Width == 0) != (c.Display.Height == 0) {
		add("display.width and display.height must be set together")
	}
	if c.Display.StripHeight < 0 {
		add("display.strip_height must not be negative")
	}
	if c.Display.MaxBufferCells < 0 {
		add("display.max_buffer_cells must not be negative")
	}
	switch strings.ToLower(strings.TrimSpace(c.Display.Metrics)) {
	case "", "device", "terminal":
	default:
		add("display.metrics %q is not one of device, terminal", c.Display.Metrics)
	}

	if c.UI.Tick <= 0 {
		add("ui.tick must be positive")
	}
	if c.UI.FrameInterval <= 0 {
		add("ui.frame_interval must be positive")
	}
	if c.UI.BridgeQueue <= 0 {
		add("ui.bridge_queue must be positive")
	}
	if c.UI.InputBuffer <= 0 {
		add("ui.input_buffer must be positive")
	}

	if c.Server.Enabled && strings.TrimSpace(c.Server.Bind) == "" {
		add("server.bind is required when the server is enabled")
	}
	if c.Server.MaxClients < 0 || c.Server.ClientQueue < 0 {
		add("server limits must not be negative")
	}
	if c.Bus.Timeout < 0 {
		add("bus.timeout must not be negative")
	}

	if _, err := logging.ParseLevel(c.Logging.Level); err != nil {
		add("logging.level: %v", err)
	}
	switch strings.ToLower(c.Logging.Format) {
	case "", "json", "text":
	default:
		add("logging.format %q is not one of json, text", c.Logging.Format)
	}
	if c.Tracing.Enabled && strings.TrimSpace(c.Tracing.File) == "" {
		add("tracing.file is required when tracing is enabled")
	}

	if len(problems) == 0 {
		return nil
	}
	return errors.New(errors.ErrCodeConfigInvalid, "invalid config: "+strings.Join(problems, "; ")).
		WithContext("problems", problems)
}

// ValidationWarnings reports settings that work but are probably unintended.
func (c *Config) ValidationWarnings() []string {
	var warnings []string
	if c.Server.Enabled && !isLoopbackBindAddress(c.Server.Bind) {
		warnings = append(warnings, fmt.Sprintf("server.bind %q is reachable from other hosts", c.Server.Bind))
	}
	if slices.Contains(c.Server.AllowedOrigins, "*") {
		warnings = append(warnings, "server.allowed_origins contains \"*\"; any web page can drive the desktop")
	}
	if c.UI.PanelApp != "" && slices.Contains(c.UI.Autostart, c.UI.PanelApp) {
		warnings = append(warnings, fmt.Sprintf("ui.panel_app %q is also autostarted in a window", c.UI.PanelApp))
	}
	return warnings
}

// ReloadableChanges lists the reloadable settings that differ between c
// and next. Other differences need a restart.
func (c *Config) ReloadableChanges(next *Config) []string {
	var changed []string
	if !strings.EqualFold(c.Logging.Level, next.Logging.Level) {
		changed = append(changed, "logging.level")
	}
	if c.UI.FrameInterval != next.UI.FrameInterval {
		changed = append(changed, "ui.frame_interval")
	}
	return changed
}

// LogFile returns the log file path with ~ expanded.
func (c *Config) LogFile() string { return expandHomeDir(c.Logging.File) }

// TraceFile returns the trace file path with ~ expanded.
func (c *Config) TraceFile() string { return expandHomeDir(c.Tracing.File) }

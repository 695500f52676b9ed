package config

import (
	"net"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/odvcencio/tinydesk/pkg/errors"
)

// loadAndMerge reads a YAML file and merges the keys it sets into cfg.
func loadAndMerge(cfg *Config, path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}

	var override Config
	if err := yaml.Unmarshal(data, &override); err != nil {
		return errors.Wrap(err, errors.ErrCodeConfigParse, "parse YAML").WithContext("path", path)
	}
	var raw map[string]any
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return errors.Wrap(err, errors.ErrCodeConfigParse, "parse YAML").WithContext("path", path)
	}

	mergeConfigs(cfg, &override, raw)
	return nil
}

// mergeConfigs copies into base every field the file mentions, so a file
// can set a value back to zero or false.
func mergeConfigs(base, override *Config, raw map[string]any) {
	if override == nil {
		return
	}
	set := func(path ...string) bool { return fieldSet(raw, path...) }

	if set("display", "backend") {
		base.Display.Backend = strings.ToLower(strings.TrimSpace(override.Display.Backend))
	}
	if set("display", "width") {
		base.Display.Width = override.Display.Width
	}
	if set("display", "height") {
		base.Display.Height = override.Display.Height
	}
	if set("display", "strip_height") {
		base.Display.StripHeight = override.Display.StripHeight
	}
	if set("display", "max_buffer_cells") {
		base.Display.MaxBufferCells = override.Display.MaxBufferCells
	}
	if set("display", "metrics") {
		base.Display.Metrics = override.Display.Metrics
	}

	if set("ui", "tick") {
		base.UI.Tick = override.UI.Tick
	}
	if set("ui", "frame_interval") {
		base.UI.FrameInterval = override.UI.FrameInterval
	}
	if set("ui", "bridge_queue") {
		base.UI.BridgeQueue = override.UI.BridgeQueue
	}
	if set("ui", "input_buffer") {
		base.UI.InputBuffer = override.UI.InputBuffer
	}
	if set("ui", "autostart") {
		base.UI.Autostart = append([]string{}, override.UI.Autostart...)
	}
	if set("ui", "panel_app") {
		base.UI.PanelApp = override.UI.PanelApp
	}

	if set("server", "enabled") {
		base.Server.Enabled = override.Server.Enabled
	}
	if set("server", "bind") {
		base.Server.Bind = override.Server.Bind
	}
	if set("server", "allowed_origins") {
		base.Server.AllowedOrigins = append([]string{}, override.Server.AllowedOrigins...)
	}
	if set("server", "max_clients") {
		base.Server.MaxClients = override.Server.MaxClients
	}
	if set("server", "client_queue") {
		base.Server.ClientQueue = override.Server.ClientQueue
	}

	if set("bus", "url") {
		base.Bus.URL = override.Bus.URL
	}
	if set("bus", "name") {
		base.Bus.Name = override.Bus.Name
	}
	if set("bus", "timeout") {
		base.Bus.Timeout = override.Bus.Timeout
	}

	if set("logging", "level") {
		base.Logging.Level = override.Logging.Level
	}
	if set("logging", "format") {
		base.Logging.Format = override.Logging.Format
	}
	if set("logging", "file") {
		base.Logging.File = override.Logging.File
	}

	if set("tracing", "enabled") {
		base.Tracing.Enabled = override.Tracing.Enabled
	}
	if set("tracing", "file") {
		base.Tracing.File = override.Tracing.File
	}
}

// fieldSet reports whether the nested key path appears in the raw YAML.
func fieldSet(raw map[string]any, path ...string) bool {
	if len(path) == 0 || raw == nil {
		return false
	}
	var current any = raw
	for _, key := range path {
		m, ok := current.(map[string]any)
		if !ok {
			return false
		}
		if current, ok = m[key]; !ok {
			return false
		}
	}
	return true
}

func isLoopbackBindAddress(addr string) bool {
	host, _, err := net.SplitHostPort(strings.TrimSpace(addr))
	if err != nil {
		host = strings.TrimSpace(addr)
	}
	if strings.EqualFold(host, "localhost") {
		return true
	}
	ip := net.ParseIP(host)
	return ip != nil && ip.IsLoopback()
}

func expandHomeDir(path string) string {
	path = strings.TrimSpace(path)
	if path != "~" && !strings.HasPrefix(path, "~/") {
		return path
	}
	home, err := os.UserHomeDir()
	if err != nil || strings.TrimSpace(home) == "" {
		return path
	}
	return filepath.Join(home, strings.TrimPrefix(path[1:], "/"))
}

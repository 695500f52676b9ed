package main

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/odvcencio/tinydesk/pkg/command"
	"github.com/odvcencio/tinydesk/pkg/config"
	"github.com/odvcencio/tinydesk/pkg/errors"
	"github.com/odvcencio/tinydesk/pkg/ipc"
	"github.com/odvcencio/tinydesk/pkg/logging"
	"github.com/odvcencio/tinydesk/pkg/telemetry"
	"github.com/odvcencio/tinydesk/pkg/ui/backend/sim"
	"github.com/odvcencio/tinydesk/pkg/ui/bridge"
	"github.com/odvcencio/tinydesk/pkg/ui/theme"
)

func TestParseStartupOptions(t *testing.T) {
	opts, err := parseStartupOptions([]string{"-backend", "sim", "-log-level", "debug", "exec", "ui.list"})
	require.NoError(t, err)
	assert.Equal(t, "sim", opts.backend)
	assert.Equal(t, "debug", opts.logLevel)
	assert.Equal(t, []string{"exec", "ui.list"}, opts.args)

	_, err = parseStartupOptions([]string{"-nope"})
	assert.Error(t, err)
}

func TestRunVersion(t *testing.T) {
	var out bytes.Buffer
	require.NoError(t, run([]string{"-version"}, &out))
	assert.Contains(t, out.String(), "tinydesk "+version)
}

func TestRunUsageErrors(t *testing.T) {
	t.Setenv("HOME", t.TempDir())
	t.Chdir(t.TempDir())

	err := run([]string{"-nope"}, &bytes.Buffer{})
	assert.Equal(t, 2, exitCodeForError(err))

	err = run([]string{"paint"}, &bytes.Buffer{})
	assert.Equal(t, 2, exitCodeForError(err))
	assert.Contains(t, err.Error(), "paint")

	err = run([]string{"-backend", "framebuffer", "exec", "ui.list"}, &bytes.Buffer{})
	assert.True(t, errors.IsCode(err, errors.ErrCodeConfigInvalid))
	assert.Equal(t, 1, exitCodeForError(err))
}

func TestChooseBackendFallsBackToSim(t *testing.T) {
	old := isTerminal
	isTerminal = func() bool { return false }
	t.Cleanup(func() { isTerminal = old })

	cfg := config.DefaultConfig()
	b, err := chooseBackend(cfg, theme.Terminal(), logging.Nop())
	require.NoError(t, err)
	s, ok := b.(*sim.Backend)
	require.True(t, ok)
	require.NoError(t, s.Init())
	defer s.Fini()
	w, h := s.Size()
	assert.Equal(t, 80, w)
	assert.Equal(t, 24, h)

	cfg.Display.Backend = config.BackendSim
	cfg.Display.Width, cfg.Display.Height = 40, 12
	b, err = chooseBackend(cfg, theme.Terminal(), logging.Nop())
	require.NoError(t, err)
	require.NoError(t, b.Init())
	defer b.Fini()
	w, h = b.Size()
	assert.Equal(t, 40, w)
	assert.Equal(t, 12, h)
}

func TestExecPostsCommand(t *testing.T) {
	var got ipc.CommandRequest
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/command", r.URL.Path)
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		resp := command.Response{OK: true, Message: "opened"}
		if strings.HasPrefix(got.Command, "ui.close") {
			resp = command.Response{Message: "no app Nope", Code: errors.ErrCodeAppNotFound}
			w.WriteHeader(http.StatusNotFound)
		}
		_ = json.NewEncoder(w).Encode(resp)
	}))
	defer srv.Close()

	cfg := config.DefaultConfig()
	var out bytes.Buffer
	require.NoError(t, runExec(cfg, []string{"-url", srv.URL + "/", "ui.open", `"Notes"`}, &out))
	assert.Equal(t, `ui.open "Notes"`, got.Command)
	assert.Contains(t, out.String(), `"message": "opened"`)

	err := runExec(cfg, []string{"-url", srv.URL, "ui.close", "Nope"}, &bytes.Buffer{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), string(errors.ErrCodeAppNotFound))

	err = runExec(cfg, nil, &bytes.Buffer{})
	assert.Equal(t, 2, exitCodeForError(err))
}

type fakeDesktop struct {
	b        *bridge.Bridge
	interval time.Duration
}

func (f *fakeDesktop) Bridge() *bridge.Bridge            { return f.b }
func (f *fakeDesktop) SetFrameInterval(iv time.Duration) { f.interval = iv }

type eventLog struct{ events []telemetry.Event }

func (l *eventLog) Publish(e telemetry.Event) { l.events = append(l.events, e) }

func TestReloaderAppliesReloadableFields(t *testing.T) {
	log := logging.NewLogger("test", 0)
	d := &fakeDesktop{b: bridge.New(bridge.DefaultQueueSize, nil)}
	events := &eventLog{}
	r := &reloader{current: config.DefaultConfig(), desktop: d, events: events, log: log}

	next := config.DefaultConfig()
	next.Logging.Level = "warn"
	next.UI.FrameInterval = 16 * time.Millisecond
	next.Server.Bind = "127.0.0.1:9999"
	r.apply(t.Context(), next)

	assert.Equal(t, 16*time.Millisecond, d.interval)
	assert.Equal(t, "WARN", log.Level().String())
	require.Len(t, events.events, 1)
	assert.Equal(t, telemetry.EventConfigReloaded, events.events[0].Type)
	assert.Equal(t, []string{"logging.level", "ui.frame_interval"}, events.events[0].Data["changed"])
	assert.Equal(t, "127.0.0.1:7480", r.current.Server.Bind, "restart-only fields are not adopted")

	r.apply(t.Context(), next)
	assert.Len(t, events.events, 1, "an unchanged reload publishes nothing")
}

func TestExitCodes(t *testing.T) {
	assert.Equal(t, 0, exitCodeForError(nil))
	assert.Equal(t, 1, exitCodeForError(fmt.Errorf("boom")))
	assert.Equal(t, 2, exitCodeForError(fmt.Errorf("wrapped: %w", withExitCode(fmt.Errorf("usage"), 2))))
	assert.Nil(t, withExitCode(nil, 2))
}

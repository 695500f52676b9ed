package apps

import (
	"fmt"
	"os"
	goruntime "runtime"
	"runtime/debug"
	"time"

	"github.com/dustin/go-humanize"

	"github.com/odvcencio/tinydesk/pkg/ui/app"
	"github.com/odvcencio/tinydesk/pkg/ui/runtime"
	"github.com/odvcencio/tinydesk/pkg/ui/theme"
	"github.com/odvcencio/tinydesk/pkg/ui/widgets"
)

// InfoRefresh is how often Info re-reads the runtime statistics.
const InfoRefresh = 2 * time.Second

// Row is one key/value line. Rows with an empty value are section headers.
type Row struct {
	Key   string
	Value string
}

// SystemRows collects what Info shows: build, process, memory and display.
func SystemRows(th *theme.Theme, started, now time.Time) []Row {
	var ms goruntime.MemStats
	goruntime.ReadMemStats(&ms)

	version := "(devel)"
	if bi, ok := debug.ReadBuildInfo(); ok && bi.Main.Version != "" {
		version = bi.Main.Version
	}
	host, err := os.Hostname()
	if err != nil {
		host = "unknown"
	}
	lastPause := "none"
	if ms.NumGC > 0 {
		lastPause = time.Duration(ms.PauseNs[(ms.NumGC+255)%256]).String()
	}
	m := th.Metrics

	return []Row{
		{Key: "System"},
		{"Version", version},
		{"Go", goruntime.Version()},
		{"Platform", goruntime.GOOS + "/" + goruntime.GOARCH},
		{"CPUs", fmt.Sprint(goruntime.NumCPU())},
		{"Host", host},
		{"PID", fmt.Sprint(os.Getpid())},
		{"Uptime", now.Sub(started).Round(time.Second).String()},
		{Key: "Memory"},
		{"Heap", humanize.IBytes(ms.HeapAlloc)},
		{"Heap in use", humanize.IBytes(ms.HeapInuse)},
		{"Objects", humanize.Comma(int64(ms.HeapObjects))},
		{"Stack", humanize.IBytes(ms.StackInuse)},
		{"Allocated", humanize.IBytes(ms.TotalAlloc)},
		{"From OS", humanize.IBytes(ms.Sys)},
		{"GC cycles", humanize.Comma(int64(ms.NumGC))},
		{"Last pause", lastPause},
		{"Next GC", humanize.IBytes(ms.NextGC)},
		{"Goroutines", fmt.Sprint(goruntime.NumGoroutine())},
		{Key: "Display"},
		{"Theme", th.Name},
		{"Screen", fmt.Sprintf("%dx%d", m.ScreenWidth, m.ScreenHeight)},
		{"Desktop", fmt.Sprintf("%dx%d", m.ScreenWidth, m.DesktopHeight())},
		{"Keyboard", fmt.Sprintf("%d rows", m.KeyboardHeight())},
	}
}

// Info shows system information, one row per line, in a window that
// usually needs scrolling.
type Info struct {
	deps   Deps
	timers app.Timers
	rows   func() []Row

	values []*widgets.Label
	cancel func()
}

// NewInfo creates the Info application.
func NewInfo(deps Deps) *Info {
	deps = deps.withDefaults()
	i := &Info{deps: deps}
	i.rows = func() []Row { return SystemRows(deps.Theme, deps.Started, deps.Now()) }
	return i
}

// Name implements app.Application.
func (i *Info) Name() string { return InfoName }

// Timers implements app.TimerOwner.
func (i *Info) Timers() *app.Timers { return &i.timers }

// Setup implements app.Application.
func (i *Info) Setup(content *widgets.Container, width, height int) {
	origin := content.Bounds()
	rh := rowHeight(i.deps.Theme)
	pad := max(1, i.deps.Theme.Metrics.Padding)
	keyW := min(12, width/2)
	pal := i.deps.Theme.Palette

	i.values = i.values[:0]
	for n, row := range i.rows() {
		y := origin.Y + n*rh
		key := widgets.NewLabel(row.Key)
		key.SetBounds(runtime.NewRect(origin.X+pad, y, keyW, rh))
		if row.Value == "" {
			key.SetColors(pal.TitleTextActive, pal.TitleBarActive)
			key.SetBounds(runtime.NewRect(origin.X, y, width, rh))
		}
		content.Add(key)

		value := widgets.NewLabel(row.Value)
		value.SetBounds(runtime.NewRect(origin.X+pad+keyW, y, max(0, width-keyW-2*pad), rh))
		content.Add(value)
		i.values = append(i.values, value)
	}

	if i.cancel == nil {
		i.cancel = i.timers.Schedule(InfoRefresh, i.Refresh)
	}
}

// Refresh re-reads the rows into the existing labels.
func (i *Info) Refresh() {
	rows := i.rows()
	for n, v := range i.values {
		if n < len(rows) {
			v.SetText(rows[n].Value)
		}
	}
}

// Teardown implements app.Application.
func (i *Info) Teardown() { i.values = nil }

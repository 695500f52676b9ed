package telemetry

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "tinydesk"

var (
	eventsPublished = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "events_published_total",
		Help:      "Desktop events published on the hub, by type.",
	}, []string{"type"})
	eventsDropped = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "events_dropped_total",
		Help:      "Events not delivered because a subscriber buffer was full.",
	})

	// Repaints counts completed frames.
	Repaints = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "repaints_total",
		Help:      "Frames rendered by the strip renderer.",
	})
	// StripPasses counts individual strip passes across all frames.
	StripPasses = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "strip_passes_total",
		Help:      "Strip draw passes executed.",
	})
	// RenderDuration observes the wall time of a full frame.
	RenderDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Namespace: namespace,
		Name:      "render_duration_seconds",
		Help:      "Time spent rendering one frame.",
		Buckets:   []float64{.0005, .001, .0025, .005, .01, .025, .05, .1, .25},
	})
	// RenderFailures counts frames that could not be rendered.
	RenderFailures = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "render_failures_total",
		Help:      "Frames skipped because the strip buffer was unavailable.",
	})

	// Touches counts pointer events by phase.
	Touches = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "touches_total",
		Help:      "Pointer events dispatched, by phase.",
	}, []string{"phase"})

	// ActionsExecuted counts deferred actions run by the action queue.
	ActionsExecuted = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "actions_executed_total",
		Help:      "Deferred actions executed.",
	})
	// ActionsPanicked counts deferred actions that panicked.
	ActionsPanicked = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "actions_panicked_total",
		Help:      "Deferred actions that panicked and were recovered.",
	})

	// BridgeCalls counts cross-goroutine calls by outcome (inline, queued, canceled).
	BridgeCalls = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "bridge_calls_total",
		Help:      "Calls marshalled onto the UI goroutine, by path.",
	}, []string{"path"})
	// BridgeWait observes how long a queued call waited for the UI goroutine.
	BridgeWait = promauto.NewHistogram(prometheus.HistogramOpts{
		Namespace: namespace,
		Name:      "bridge_wait_seconds",
		Help:      "Time between posting a call and its completion.",
		Buckets:   prometheus.DefBuckets,
	})

	// OpenWindows tracks the number of open windows.
	OpenWindows = promauto.NewGauge(prometheus.GaugeOpts{
		Namespace: namespace,
		Name:      "windows_open",
		Help:      "Number of open application windows.",
	})
	// VisiblePopups tracks the number of visible popups.
	VisiblePopups = promauto.NewGauge(prometheus.GaugeOpts{
		Namespace: namespace,
		Name:      "popups_visible",
		Help:      "Number of visible popups.",
	})

	// Commands counts command executions by name and result.
	Commands = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "commands_total",
		Help:      "Commands executed, by command and result.",
	}, []string{"command", "result"})
	// WSClients tracks connected websocket clients.
	WSClients = promauto.NewGauge(prometheus.GaugeOpts{
		Namespace: namespace,
		Name:      "ws_clients",
		Help:      "Connected websocket clients.",
	})
)

// Package telemetry publishes desktop events to in-process subscribers and
// exposes the prometheus metrics and tracing used by the desktop.
package telemetry

import (
	"crypto/rand"
	"sync"
	"time"

	"github.com/oklog/ulid/v2"
)

// EventType identifies the kind of desktop event.
type EventType string

const (
	EventAppOpened       EventType = "app.opened"
	EventAppClosed       EventType = "app.closed"
	EventAppFocused      EventType = "app.focused"
	EventAppState        EventType = "app.state"
	EventAppRebuilt      EventType = "app.rebuilt"
	EventKeyboard        EventType = "keyboard"
	EventPopupOpened     EventType = "popup.opened"
	EventPopupClosed     EventType = "popup.closed"
	EventPanelOpened     EventType = "panel.opened"
	EventPanelClosed     EventType = "panel.closed"
	EventErrorShown      EventType = "error.shown"
	EventScriptReady     EventType = "script.ready"
	EventScriptClick     EventType = "script.click"
	EventScriptTouch     EventType = "script.touch"
	EventScriptRelease   EventType = "script.release"
	EventCommandExecuted EventType = "command.executed"
	EventConfigReloaded  EventType = "config.reloaded"
)

// DefaultSubscriberBuffer is the channel size handed to each subscriber.
const DefaultSubscriberBuffer = 64

// Event describes something that happened on the desktop.
type Event struct {
	ID        string         `json:"id"`
	Type      EventType      `json:"type"`
	App       string         `json:"app,omitempty"`
	Timestamp time.Time      `json:"timestamp"`
	Data      map[string]any `json:"data,omitempty"`
}

// Publisher is the write side of a Hub.
type Publisher interface {
	Publish(Event)
}

// Hub fans desktop events out to any number of subscribers.
type Hub struct {
	mu          sync.RWMutex
	subscribers map[string]chan Event
	buffer      int
	closed      bool
	dropped     uint64
}

// NewHub constructs a hub with the default subscriber buffer.
func NewHub() *Hub {
	return NewHubWithBuffer(DefaultSubscriberBuffer)
}

// NewHubWithBuffer constructs a hub whose subscriber channels hold size events.
func NewHubWithBuffer(size int) *Hub {
	if size <= 0 {
		size = DefaultSubscriberBuffer
	}
	return &Hub{subscribers: make(map[string]chan Event), buffer: size}
}

// Publish notifies all subscribers. It never blocks: a subscriber whose
// buffer is full misses the event.
func (h *Hub) Publish(event Event) {
	if h == nil {
		return
	}
	if event.ID == "" {
		event.ID = ulid.MustNew(ulid.Now(), rand.Reader).String()
	}
	if event.Timestamp.IsZero() {
		event.Timestamp = time.Now()
	}

	h.mu.RLock()
	defer h.mu.RUnlock()
	if h.closed {
		return
	}
	for _, ch := range h.subscribers {
		select {
		case ch <- event:
		default:
			eventsDropped.Inc()
		}
	}
	eventsPublished.WithLabelValues(string(event.Type)).Inc()
}

// Subscribe returns a channel of future events and a cleanup func.
func (h *Hub) Subscribe() (<-chan Event, func()) {
	ch, id := h.SubscribeWithID()
	return ch, func() { h.Unsubscribe(id) }
}

// SubscribeWithID is Subscribe with an explicit subscriber ID for later removal.
func (h *Hub) SubscribeWithID() (<-chan Event, string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	id := ulid.MustNew(ulid.Now(), rand.Reader).String()
	if h.closed {
		empty := make(chan Event)
		close(empty)
		return empty, id
	}
	ch := make(chan Event, h.buffer)
	h.subscribers[id] = ch
	return ch, id
}

// Unsubscribe removes and closes a subscriber. Unknown IDs are ignored.
func (h *Hub) Unsubscribe(id string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if ch, ok := h.subscribers[id]; ok {
		delete(h.subscribers, id)
		close(ch)
	}
}

// SubscriberCount reports the number of live subscribers.
func (h *Hub) SubscriberCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.subscribers)
}

// Close unsubscribes all listeners and prevents future publications.
func (h *Hub) Close() {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.closed {
		return
	}
	h.closed = true
	for id, ch := range h.subscribers {
		close(ch)
		delete(h.subscribers, id)
	}
}

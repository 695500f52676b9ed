package ipc

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"nhooyr.io/websocket"

	"github.com/odvcencio/tinydesk/pkg/command"
	"github.com/odvcencio/tinydesk/pkg/logging"
	"github.com/odvcencio/tinydesk/pkg/telemetry"
)

// Frame types sent to websocket clients.
const (
	FrameHello    = "hello"
	FrameEvent    = "event"
	FrameResponse = "response"
)

// Frame is one JSON text message from the server to a websocket client.
type Frame struct {
	Type     string            `json:"type"`
	ID       string            `json:"id,omitempty"`
	Client   string            `json:"client,omitempty"`
	Event    *telemetry.Event  `json:"event,omitempty"`
	Response *command.Response `json:"response,omitempty"`
}

const writeTimeout = 15 * time.Second

// Hub fans frames out to connected websocket clients. Each client has a
// bounded queue; a client that lets it fill up is dropped rather than
// slowing everyone else down.
type Hub struct {
	mu        sync.RWMutex
	clients   map[*client]struct{}
	queueSize int
	log       *logging.Logger
}

// NewHub creates a hub whose clients queue up to queueSize frames.
func NewHub(queueSize int, logger *logging.Logger) *Hub {
	if queueSize <= 0 {
		queueSize = DefaultConfig().ClientQueue
	}
	return &Hub{
		clients:   make(map[*client]struct{}),
		queueSize: queueSize,
		log:       logging.OrNop(logger).Component("ipc.hub"),
	}
}

// Broadcast queues f for every client.
func (h *Hub) Broadcast(f Frame) {
	h.mu.RLock()
	var slow []*client
	for c := range h.clients {
		if !c.enqueue(f) {
			slow = append(slow, c)
		}
	}
	h.mu.RUnlock()
	for _, c := range slow {
		h.drop(c, "slow consumer")
	}
}

// BroadcastEvent wraps a desktop event in a frame and broadcasts it.
func (h *Hub) BroadcastEvent(e telemetry.Event) {
	h.Broadcast(Frame{Type: FrameEvent, Event: &e})
}

// Len returns the number of connected clients.
func (h *Hub) Len() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

func (h *Hub) register(id string, conn wsConn) *client {
	c := &client{id: id, conn: conn, send: make(chan Frame, h.queueSize)}
	h.mu.Lock()
	h.clients[c] = struct{}{}
	n := len(h.clients)
	h.mu.Unlock()
	telemetry.WSClients.Set(float64(n))
	return c
}

// remove forgets c and closes its queue. It reports whether c was still
// registered.
func (h *Hub) remove(c *client) bool {
	h.mu.Lock()
	_, ok := h.clients[c]
	if ok {
		delete(h.clients, c)
		c.mu.Lock()
		c.closed = true
		close(c.send)
		c.mu.Unlock()
	}
	n := len(h.clients)
	h.mu.Unlock()
	telemetry.WSClients.Set(float64(n))
	return ok
}

// drop disconnects a client the server gave up on.
func (h *Hub) drop(c *client, reason string) {
	if h.remove(c) {
		h.log.WithClient(c.id).Warn("dropping websocket client", "reason", reason)
		c.close(websocket.StatusPolicyViolation, reason)
	}
}

type wsConn interface {
	Write(ctx context.Context, typ websocket.MessageType, data []byte) error
	Read(ctx context.Context) (websocket.MessageType, []byte, error)
	Close(status websocket.StatusCode, reason string) error
}

type client struct {
	id   string
	conn wsConn
	send chan Frame
	// mu orders sends against the close of send by the hub.
	mu     sync.Mutex
	closed bool
}

// enqueue reports false when the client's queue is full.
func (c *client) enqueue(f Frame) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return true
	}
	select {
	case c.send <- f:
		return true
	default:
		return false
	}
}

func (c *client) writeLoop(ctx context.Context) error {
	for {
		select {
		case f, ok := <-c.send:
			if !ok {
				return nil
			}
			data, err := json.Marshal(f)
			if err != nil {
				continue
			}
			writeCtx, cancel := context.WithTimeout(ctx, writeTimeout)
			err = c.conn.Write(writeCtx, websocket.MessageText, data)
			cancel()
			if err != nil {
				return err
			}
		case <-ctx.Done():
			return ctx.Err()
		}
	}
}

func (c *client) close(status websocket.StatusCode, reason string) {
	_ = c.conn.Close(status, reason)
}

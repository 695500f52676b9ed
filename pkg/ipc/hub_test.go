package ipc

import (
	"context"
	"encoding/json"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"nhooyr.io/websocket"

	"github.com/odvcencio/tinydesk/pkg/telemetry"
)

type fakeConn struct {
	mu     sync.Mutex
	writes [][]byte
	status websocket.StatusCode
	reason string
}

func (c *fakeConn) Write(_ context.Context, _ websocket.MessageType, data []byte) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.writes = append(c.writes, data)
	return nil
}

func (c *fakeConn) Read(ctx context.Context) (websocket.MessageType, []byte, error) {
	<-ctx.Done()
	return 0, nil, ctx.Err()
}

func (c *fakeConn) Close(status websocket.StatusCode, reason string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.status, c.reason = status, reason
	return nil
}

func TestHubDropsSlowClient(t *testing.T) {
	h := NewHub(2, nil)
	slow := &fakeConn{}
	fast := &fakeConn{}
	cs := h.register("slow", slow)
	cf := h.register("fast", fast)
	require.Equal(t, 2, h.Len())

	h.BroadcastEvent(telemetry.Event{Type: telemetry.EventKeyboard})
	h.BroadcastEvent(telemetry.Event{Type: telemetry.EventAppOpened})
	assert.Equal(t, 2, h.Len(), "full queues are not yet a drop")

	// The fast client catches up; the slow one does not.
	<-cf.send
	<-cf.send
	h.BroadcastEvent(telemetry.Event{Type: telemetry.EventAppClosed})

	assert.Equal(t, 1, h.Len())
	assert.Equal(t, websocket.StatusPolicyViolation, slow.status)
	assert.Equal(t, "slow consumer", slow.reason)
	assert.True(t, cs.enqueue(Frame{Type: FrameEvent}), "enqueue after drop is a no-op")

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	done := make(chan error, 1)
	go func() { done <- cf.writeLoop(ctx) }()

	require.Eventually(t, func() bool {
		fast.mu.Lock()
		defer fast.mu.Unlock()
		return len(fast.writes) == 1
	}, time.Second, 5*time.Millisecond)
	assert.True(t, h.remove(cf))
	assert.NoError(t, <-done, "closing the queue ends the write loop")
	assert.False(t, h.remove(cf), "second remove reports nothing")
	assert.Equal(t, 0, h.Len())

	fast.mu.Lock()
	defer fast.mu.Unlock()
	var f Frame
	require.NoError(t, json.Unmarshal(fast.writes[0], &f))
	assert.Equal(t, FrameEvent, f.Type)
	require.NotNil(t, f.Event)
	assert.Equal(t, telemetry.EventAppClosed, f.Event.Type)
}

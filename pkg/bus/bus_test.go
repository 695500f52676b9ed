package bus

import (
	"context"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryBusPublishSubscribe(t *testing.T) {
	b := NewMemoryBus()
	defer b.Close()
	ctx := context.Background()

	received := make(chan *Message, 1)
	sub, err := b.Subscribe(ctx, "tinydesk.events.app.opened", func(msg *Message) []byte {
		received <- msg
		return nil
	})
	require.NoError(t, err)
	defer sub.Unsubscribe()
	assert.Equal(t, "tinydesk.events.app.opened", sub.Subject())

	require.NoError(t, b.Publish(ctx, "tinydesk.events.app.opened", []byte("Notes")))
	select {
	case msg := <-received:
		assert.Equal(t, "Notes", string(msg.Data))
		assert.Empty(t, msg.ReplyTo)
	case <-time.After(time.Second):
		t.Fatal("timeout waiting for message")
	}
}

func TestMemoryBusWildcards(t *testing.T) {
	b := NewMemoryBus()
	defer b.Close()
	ctx := context.Background()

	var one, rest atomic.Int32
	_, err := b.Subscribe(ctx, "tinydesk.events.*", func(*Message) []byte { one.Add(1); return nil })
	require.NoError(t, err)
	_, err = b.Subscribe(ctx, "tinydesk.>", func(*Message) []byte { rest.Add(1); return nil })
	require.NoError(t, err)

	b.Publish(ctx, "tinydesk.events.keyboard", nil)
	b.Publish(ctx, "tinydesk.events.app.closed", nil)
	b.Publish(ctx, "other.events.keyboard", nil)

	require.Eventually(t, func() bool { return rest.Load() == 2 }, time.Second, 5*time.Millisecond)
	assert.Equal(t, int32(1), one.Load())
}

func TestMemoryBusRequestReply(t *testing.T) {
	b := NewMemoryBus()
	defer b.Close()
	ctx := context.Background()

	_, err := b.Subscribe(ctx, "tinydesk.commands", func(msg *Message) []byte {
		return append([]byte("ran "), msg.Data...)
	})
	require.NoError(t, err)

	reply, err := b.Request(ctx, "tinydesk.commands", []byte("ui.list"), time.Second)
	require.NoError(t, err)
	assert.Equal(t, "ran ui.list", string(reply))
}

func TestMemoryBusRequestFailures(t *testing.T) {
	b := NewMemoryBus()
	defer b.Close()
	ctx := context.Background()

	_, err := b.Request(ctx, "nobody", nil, 50*time.Millisecond)
	assert.ErrorIs(t, err, ErrNoResponders)

	_, err = b.Subscribe(ctx, "silent", func(*Message) []byte { return nil })
	require.NoError(t, err)
	_, err = b.Request(ctx, "silent", nil, 20*time.Millisecond)
	assert.ErrorIs(t, err, ErrTimeout)
}

func TestMemoryBusUnsubscribe(t *testing.T) {
	b := NewMemoryBus()
	defer b.Close()
	ctx := context.Background()

	var received atomic.Int32
	sub, err := b.Subscribe(ctx, "test", func(*Message) []byte { received.Add(1); return nil })
	require.NoError(t, err)

	b.Publish(ctx, "test", nil)
	require.Eventually(t, func() bool { return received.Load() == 1 }, time.Second, 5*time.Millisecond)

	require.NoError(t, sub.Unsubscribe())
	require.NoError(t, sub.Unsubscribe())
	b.Publish(ctx, "test", nil)
	time.Sleep(20 * time.Millisecond)
	assert.Equal(t, int32(1), received.Load())
}

func TestMemoryBusDropsForFullSubscriber(t *testing.T) {
	b := NewMemoryBus()
	defer b.Close()
	ctx := context.Background()

	block := make(chan struct{})
	defer close(block)
	_, err := b.Subscribe(ctx, "slow", func(*Message) []byte { <-block; return nil })
	require.NoError(t, err)

	for range subscriptionBuffer + 10 {
		require.NoError(t, b.Publish(ctx, "slow", nil))
	}
	assert.Positive(t, b.Dropped())
}

func TestMatchSubject(t *testing.T) {
	tests := []struct {
		pattern string
		subject string
		want    bool
	}{
		{"foo", "foo", true},
		{"foo", "bar", false},
		{"foo.*", "foo.bar", true},
		{"foo.*", "foo.bar.baz", false},
		{"foo.>", "foo.bar.baz", true},
		{"*.bar", "foo.bar", true},
		{"*.bar", "foo.baz", false},
		{"tinydesk.events.*", "tinydesk.events", false},
		{"tinydesk.>", "tinydesk.events.app.state", true},
	}
	for _, tt := range tests {
		t.Run(tt.pattern+"_"+tt.subject, func(t *testing.T) {
			assert.Equal(t, tt.want, matchSubject(tt.pattern, tt.subject))
		})
	}
}

func TestMemoryBusClosed(t *testing.T) {
	b := NewMemoryBus()
	require.NoError(t, b.Close())
	assert.ErrorIs(t, b.Close(), ErrClosed)

	ctx := context.Background()
	assert.ErrorIs(t, b.Publish(ctx, "test", nil), ErrClosed)
	_, err := b.Subscribe(ctx, "test", nil)
	assert.ErrorIs(t, err, ErrClosed)
	_, err = b.Request(ctx, "test", nil, time.Second)
	assert.ErrorIs(t, err, ErrClosed)
}

func TestNewSelectsMemoryWithoutURL(t *testing.T) {
	b, err := New(DefaultConfig())
	require.NoError(t, err)
	defer b.Close()
	assert.IsType(t, &MemoryBus{}, b)
}

// Package bus is the message bus the desktop exports its events to and
// takes remote commands from. NATS backs it in deployments; the in-memory
// bus serves single-process setups and tests.
package bus

import (
	"context"
	"errors"
	"time"
)

var (
	// ErrTimeout is returned when a request gets no reply in time.
	ErrTimeout = errors.New("request timeout")

	// ErrNoResponders is returned when nothing is subscribed to a request subject.
	ErrNoResponders = errors.New("no responders available")

	// ErrClosed is returned when operating on a closed bus.
	ErrClosed = errors.New("bus closed")
)

// MessageBus is safe for concurrent use.
type MessageBus interface {
	// Publish sends data to every subscriber of subject without waiting.
	Publish(ctx context.Context, subject string, data []byte) error

	// Subscribe calls handler for each message on subject. "*" matches one
	// token and a trailing ">" matches the rest: "tinydesk.events.>".
	Subscribe(ctx context.Context, subject string, handler MessageHandler) (Subscription, error)

	// QueueSubscribe is Subscribe with messages spread over the members of
	// the queue group.
	QueueSubscribe(ctx context.Context, subject, queue string, handler MessageHandler) (Subscription, error)

	// Request publishes data and waits for the first reply.
	Request(ctx context.Context, subject string, data []byte, timeout time.Duration) ([]byte, error)

	Close() error
}

// MessageHandler processes a message. For a request, the returned data is
// sent back as the reply; nil sends nothing.
type MessageHandler func(msg *Message) []byte

// Message is a delivered message.
type Message struct {
	Subject string
	Data    []byte
	ReplyTo string
}

// Subscription is an active subscription.
type Subscription interface {
	Unsubscribe() error
	Subject() string
}

// Config selects and configures a bus.
type Config struct {
	// URL of the NATS server. Empty selects the in-memory bus.
	URL string
	// Name identifies this client to the server.
	Name    string
	Timeout time.Duration
}

// DefaultConfig returns the in-memory configuration.
func DefaultConfig() Config {
	return Config{Name: "tinydesk", Timeout: 5 * time.Second}
}

// New connects to NATS when cfg.URL is set and returns an in-memory bus
// otherwise.
func New(cfg Config) (MessageBus, error) {
	if cfg.URL == "" {
		return NewMemoryBus(), nil
	}
	return NewNATSBus(cfg)
}

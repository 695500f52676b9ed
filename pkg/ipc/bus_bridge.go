package ipc

import (
	"context"
	"encoding/json"
	"sync"

	"github.com/odvcencio/tinydesk/pkg/bus"
	"github.com/odvcencio/tinydesk/pkg/command"
	"github.com/odvcencio/tinydesk/pkg/logging"
	"github.com/odvcencio/tinydesk/pkg/telemetry"
)

// Bus subjects.
const (
	// SubjectEvents prefixes desktop events: tinydesk.events.app.opened.
	SubjectEvents = "tinydesk.events"
	// SubjectCommands takes command requests and replies with the
	// command response as JSON.
	SubjectCommands = "tinydesk.commands"

	commandQueueGroup = "tinydesk"
)

// BusBridge exports desktop events to the message bus and serves command
// requests arriving on it.
type BusBridge struct {
	bus      bus.MessageBus
	events   *telemetry.Hub
	commands Executor
	log      *logging.Logger

	mu   sync.Mutex
	subs []bus.Subscription
}

// NewBusBridge creates a bridge. Either events or commands may be nil to
// disable that direction.
func NewBusBridge(b bus.MessageBus, events *telemetry.Hub, commands Executor, logger *logging.Logger) *BusBridge {
	return &BusBridge{
		bus:      b,
		events:   events,
		commands: commands,
		log:      logging.OrNop(logger).Component("ipc.bus"),
	}
}

// EventSubject is the subject an event is published on.
func EventSubject(e telemetry.Event) string {
	return SubjectEvents + "." + string(e.Type)
}

// Start subscribes to command requests and begins exporting events until
// ctx is done.
func (br *BusBridge) Start(ctx context.Context) error {
	if br.commands != nil {
		sub, err := br.bus.QueueSubscribe(ctx, SubjectCommands, commandQueueGroup, br.handleCommand(ctx))
		if err != nil {
			return err
		}
		br.mu.Lock()
		br.subs = append(br.subs, sub)
		br.mu.Unlock()
	}
	if br.events != nil {
		ch, cancel := br.events.Subscribe()
		go func() {
			defer cancel()
			br.export(ctx, ch)
		}()
	}
	return nil
}

// Run is Start followed by Stop once ctx is done.
func (br *BusBridge) Run(ctx context.Context) error {
	if err := br.Start(ctx); err != nil {
		return err
	}
	<-ctx.Done()
	br.Stop()
	return nil
}

// Stop drops the command subscription.
func (br *BusBridge) Stop() {
	br.mu.Lock()
	defer br.mu.Unlock()
	for _, sub := range br.subs {
		_ = sub.Unsubscribe()
	}
	br.subs = nil
}

func (br *BusBridge) handleCommand(ctx context.Context) bus.MessageHandler {
	return func(msg *bus.Message) []byte {
		req, err := parseWSRequest(msg.Data)
		if err != nil {
			return command.Failure(err).JSON()
		}
		resp := br.commands.Execute(ctx, req.Command)
		br.log.Debug("bus command", "command", commandLine(req.Command), "ok", resp.OK)
		return resp.JSON()
	}
}

func (br *BusBridge) export(ctx context.Context, ch <-chan telemetry.Event) {
	for {
		select {
		case <-ctx.Done():
			return
		case e, ok := <-ch:
			if !ok {
				return
			}
			data, err := json.Marshal(e)
			if err != nil {
				br.log.Warn("encode event", "type", e.Type, "error", err)
				continue
			}
			if err := br.bus.Publish(ctx, EventSubject(e), data); err != nil {
				br.log.Warn("publish event", "type", e.Type, "error", err)
			}
		}
	}
}

// Package command is the text command interface to the desktop. A command
// line is tokenised, resolved to a registered command by exact name or
// unique prefix, run, and answered with a JSON-encodable Response. The
// remote control server, the message bus and the launcher app all speak
// it.
package command

import (
	"context"
	"encoding/json"
	"fmt"
	"runtime/debug"
	"slices"
	"strconv"
	"strings"
	"sync"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"

	"github.com/odvcencio/tinydesk/pkg/errors"
	"github.com/odvcencio/tinydesk/pkg/logging"
	"github.com/odvcencio/tinydesk/pkg/telemetry"
)

//go:generate mockgen -package=command -destination=mock_handler_test.go github.com/odvcencio/tinydesk/pkg/command Handler

// Request is a parsed command line.
type Request struct {
	Line string
	Name string
	Args []string
}

// Arg returns argument i or "".
func (r Request) Arg(i int) string {
	if i < 0 || i >= len(r.Args) {
		return ""
	}
	return r.Args[i]
}

// Rest joins the arguments from i on with single spaces, for trailing free
// text such as a message.
func (r Request) Rest(i int) string {
	if i >= len(r.Args) {
		return ""
	}
	return strings.Join(r.Args[i:], " ")
}

// Int parses argument i as an integer.
func (r Request) Int(i int) (int, error) {
	n, err := strconv.Atoi(r.Arg(i))
	if err != nil {
		return 0, errors.Newf(errors.ErrCodeCommandUsage, "argument %d: %q is not a number", i+1, r.Arg(i))
	}
	return n, nil
}

// Result is what a handler returns on success.
type Result struct {
	Message string
	Data    any
}

// Handler runs one command.
type Handler interface {
	Handle(ctx context.Context, req Request) (Result, error)
}

// HandlerFunc adapts a function to Handler.
type HandlerFunc func(ctx context.Context, req Request) (Result, error)

// Handle calls f.
func (f HandlerFunc) Handle(ctx context.Context, req Request) (Result, error) { return f(ctx, req) }

// Command is a registered command.
type Command struct {
	Name        string
	Usage       string
	Description string
	// MinArgs is checked before the handler runs.
	MinArgs int
	Handler Handler
}

// Response is the answer to a command line.
type Response struct {
	OK      bool             `json:"ok"`
	Message string           `json:"message,omitempty"`
	Data    any              `json:"data,omitempty"`
	Code    errors.ErrorCode `json:"code,omitempty"`
}

// JSON encodes the response.
func (r Response) JSON() []byte {
	b, err := json.Marshal(r)
	if err != nil {
		b, _ = json.Marshal(Response{Message: err.Error(), Code: errors.ErrCodeInternal})
	}
	return b
}

// Failure builds the response for err.
func Failure(err error) Response {
	msg := err.Error()
	if e, ok := errors.As(err); ok {
		msg = e.Display()
	}
	return Response{Message: msg, Code: errors.GetCode(err)}
}

// Options configures a Registry.
type Options struct {
	Events telemetry.Publisher
	Logger *logging.Logger
}

// Registry maps command names to handlers.
type Registry struct {
	mu       sync.RWMutex
	commands map[string]*Command
	events   telemetry.Publisher
	log      *logging.Logger
}

// NewRegistry creates a registry holding only the help command.
func NewRegistry(opts Options) *Registry {
	r := &Registry{
		commands: make(map[string]*Command),
		events:   opts.Events,
		log:      logging.OrNop(opts.Logger).Component("command"),
	}
	r.MustRegister(&Command{
		Name:        "help",
		Usage:       "help [command]",
		Description: "list commands or show one command's usage",
		Handler:     HandlerFunc(r.help),
	})
	return r
}

// Register adds cmd. Names must be unique and free of whitespace.
func (r *Registry) Register(cmd *Command) error {
	if cmd == nil || cmd.Name == "" || cmd.Handler == nil {
		return errors.New(errors.ErrCodeInvalidInput, "command name and handler are required")
	}
	if strings.ContainsAny(cmd.Name, " \t\n") {
		return errors.Newf(errors.ErrCodeInvalidInput, "command name %q contains whitespace", cmd.Name)
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.commands[cmd.Name]; ok {
		return errors.Newf(errors.ErrCodeInvalidInput, "command %q already registered", cmd.Name)
	}
	r.commands[cmd.Name] = cmd
	return nil
}

// MustRegister is Register for static wiring.
func (r *Registry) MustRegister(cmds ...*Command) {
	for _, cmd := range cmds {
		if err := r.Register(cmd); err != nil {
			panic(err)
		}
	}
}

// Names lists the registered command names, sorted.
func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	names := make([]string, 0, len(r.commands))
	for name := range r.commands {
		names = append(names, name)
	}
	slices.Sort(names)
	return names
}

// Lookup resolves name exactly, then as the prefix of exactly one command.
func (r *Registry) Lookup(name string) (*Command, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if cmd, ok := r.commands[name]; ok {
		return cmd, nil
	}
	var matches []string
	for n := range r.commands {
		if strings.HasPrefix(n, name) {
			matches = append(matches, n)
		}
	}
	switch len(matches) {
	case 0:
		return nil, errors.Newf(errors.ErrCodeCommandUnknown, "unknown command %q", name)
	case 1:
		return r.commands[matches[0]], nil
	default:
		slices.Sort(matches)
		return nil, errors.Newf(errors.ErrCodeCommandUnknown, "ambiguous command %q", name).
			WithContext("candidates", strings.Join(matches, ","))
	}
}

// Execute runs a command line. It never panics; every failure is an error
// response.
func (r *Registry) Execute(ctx context.Context, line string) Response {
	args, err := Tokenize(line)
	if err != nil {
		return Failure(err)
	}
	if len(args) == 0 {
		return Failure(errors.New(errors.ErrCodeCommandUsage, "empty command"))
	}
	cmd, err := r.Lookup(args[0])
	if err != nil {
		telemetry.Commands.WithLabelValues("unknown", "error").Inc()
		return Failure(err)
	}
	req := Request{Line: line, Name: cmd.Name, Args: args[1:]}

	ctx, span := telemetry.StartSpan(ctx, "command."+cmd.Name,
		attribute.String("command.name", cmd.Name),
		attribute.Int("command.args", len(req.Args)),
	)
	defer span.End()

	log := r.log.WithContext(ctx).With("command", cmd.Name)
	var res Result
	if len(req.Args) < cmd.MinArgs {
		err = errors.Newf(errors.ErrCodeCommandUsage, "usage: %s", cmd.Usage)
	} else {
		res, err = r.run(ctx, cmd, req)
	}

	outcome := "ok"
	resp := Response{OK: true, Message: res.Message, Data: res.Data}
	if err != nil {
		outcome = "error"
		resp = Failure(err)
		span.RecordError(err)
		span.SetStatus(codes.Error, string(resp.Code))
		log.Debug("command failed", "error", err)
	} else {
		log.Debug("command executed")
	}
	telemetry.Commands.WithLabelValues(cmd.Name, outcome).Inc()
	if r.events != nil {
		r.events.Publish(telemetry.Event{
			Type: telemetry.EventCommandExecuted,
			Data: map[string]any{"command": cmd.Name, "ok": resp.OK},
		})
	}
	return resp
}

func (r *Registry) run(ctx context.Context, cmd *Command, req Request) (res Result, err error) {
	defer func() {
		if p := recover(); p != nil {
			r.log.Error("command panicked", "command", cmd.Name, "panic", p, "stack", string(debug.Stack()))
			err = errors.New(errors.ErrCodeInternal, fmt.Sprintf("command %s panicked: %v", cmd.Name, p))
		}
	}()
	return cmd.Handler.Handle(ctx, req)
}

func (r *Registry) help(_ context.Context, req Request) (Result, error) {
	if name := req.Arg(0); name != "" {
		cmd, err := r.Lookup(name)
		if err != nil {
			return Result{}, err
		}
		return Result{Message: cmd.Usage, Data: map[string]string{
			"name":        cmd.Name,
			"usage":       cmd.Usage,
			"description": cmd.Description,
		}}, nil
	}
	names := r.Names()
	var sb strings.Builder
	r.mu.RLock()
	for _, name := range names {
		cmd := r.commands[name]
		fmt.Fprintf(&sb, "%-40s %s\n", cmd.Usage, cmd.Description)
	}
	r.mu.RUnlock()
	return Result{Message: strings.TrimRight(sb.String(), "\n"), Data: names}, nil
}

// Tokenize splits a command line on whitespace. Double quotes group words
// and a backslash escapes the next character inside quotes.
func Tokenize(line string) ([]string, error) {
	var (
		out     []string
		cur     strings.Builder
		inQuote bool
		started bool
		escaped bool
	)
	for _, r := range line {
		switch {
		case escaped:
			cur.WriteRune(r)
			escaped = false
		case inQuote && r == '\\':
			escaped = true
		case r == '"':
			inQuote = !inQuote
			started = true
		case !inQuote && (r == ' ' || r == '\t' || r == '\n' || r == '\r'):
			if started {
				out = append(out, cur.String())
				cur.Reset()
				started = false
			}
		default:
			cur.WriteRune(r)
			started = true
		}
	}
	if inQuote {
		return nil, errors.New(errors.ErrCodeCommandUsage, "unterminated quote")
	}
	if started {
		out = append(out, cur.String())
	}
	return out, nil
}

package ipc

import (
	"bytes"
	"context"
	"encoding/json"
	stderrors "errors"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
	"nhooyr.io/websocket"

	"github.com/odvcencio/tinydesk/pkg/command"
	"github.com/odvcencio/tinydesk/pkg/errors"
)

const (
	maxWSReadBytes = 64 << 10
	wsPingTimeout  = 5 * time.Second
)

// wsRequest is a command sent as a JSON text frame. A frame that is not a
// JSON object is taken as a bare command line.
type wsRequest struct {
	ID      string `json:"id"`
	Command string `json:"command"`
}

func parseWSRequest(data []byte) (wsRequest, error) {
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) == 0 || trimmed[0] != '{' {
		return wsRequest{Command: string(trimmed)}, nil
	}
	var req wsRequest
	if err := json.Unmarshal(trimmed, &req); err != nil {
		return wsRequest{}, errors.Wrap(err, errors.ErrCodeInvalidInput, "decode websocket request")
	}
	return req, nil
}

// handleWS upgrades to a websocket that executes text frames as commands
// and streams desktop events.
func (s *Server) handleWS(w http.ResponseWriter, r *http.Request) {
	if !s.isWebSocketOriginAllowed(r) {
		respondJSON(w, http.StatusForbidden, command.Failure(errors.New(errors.ErrCodeInvalidInput, "origin not allowed")))
		return
	}
	if !s.clients.Acquire() {
		respondJSON(w, http.StatusTooManyRequests, command.Failure(errors.New(errors.ErrCodeInvalidInput, "too many clients")))
		return
	}
	defer s.clients.Release()

	conn, err := websocket.Accept(w, r, &websocket.AcceptOptions{
		// Origins were checked above against the configured list.
		InsecureSkipVerify: true,
	})
	if err != nil {
		s.log.Warn("websocket accept failed", "error", err)
		return
	}
	conn.SetReadLimit(maxWSReadBytes)

	id := uuid.NewString()
	log := s.log.WithClient(id)
	c := s.hub.register(id, conn)
	c.enqueue(Frame{Type: FrameHello, Client: id})
	log.Info("websocket client connected", "remote", r.RemoteAddr)

	ctx, cancel := context.WithCancel(r.Context())
	defer cancel()
	go s.ping(ctx, conn)
	go func() {
		defer cancel()
		s.readLoop(ctx, c)
	}()
	go func() {
		if err := c.writeLoop(ctx); err != nil && !stderrors.Is(err, context.Canceled) {
			log.Debug("websocket write failed", "error", err)
		}
		cancel()
	}()

	<-ctx.Done()
	if s.hub.remove(c) {
		c.close(websocket.StatusNormalClosure, "bye")
	}
	log.Info("websocket client disconnected")
}

// readLoop executes the client's commands one at a time, queueing each
// response behind the events already waiting for that client.
func (s *Server) readLoop(ctx context.Context, c *client) {
	for {
		typ, data, err := c.conn.Read(ctx)
		if err != nil {
			return
		}
		if typ != websocket.MessageText {
			continue
		}
		req, err := parseWSRequest(data)
		var resp command.Response
		if err != nil {
			resp = command.Failure(err)
		} else {
			resp = s.commands.Execute(ctx, req.Command)
			s.log.WithClient(c.id).Debug("websocket command", "command", commandLine(req.Command), "ok", resp.OK)
		}
		if !c.enqueue(Frame{Type: FrameResponse, ID: req.ID, Response: &resp}) {
			s.hub.drop(c, "slow consumer")
			return
		}
	}
}

func (s *Server) ping(ctx context.Context, conn *websocket.Conn) {
	ticker := time.NewTicker(s.cfg.PingInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			pingCtx, cancel := context.WithTimeout(ctx, wsPingTimeout)
			err := conn.Ping(pingCtx)
			cancel()
			if err != nil && ctx.Err() == nil {
				s.log.Debug("websocket ping failed", "error", err)
			}
		}
	}
}

// commandLine trims a line for logging.
func commandLine(line string) string {
	line = strings.TrimSpace(line)
	if len(line) > 80 {
		return line[:80] + "..."
	}
	return line
}

package main

import (
	"bytes"
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"nhooyr.io/websocket"

	"github.com/odvcencio/tinydesk/pkg/command"
	"github.com/odvcencio/tinydesk/pkg/config"
	"github.com/odvcencio/tinydesk/pkg/ipc"
)

type remoteOptions struct {
	baseURL string
	timeout time.Duration
	args    []string
}

func parseRemoteFlags(name string, cfg *config.Config, args []string) (remoteOptions, error) {
	opts := remoteOptions{}
	fs := flag.NewFlagSet(name, flag.ContinueOnError)
	fs.SetOutput(io.Discard)
	fs.StringVar(&opts.baseURL, "url", "http://"+cfg.Server.Bind, "base URL of a running desktop")
	fs.DurationVar(&opts.timeout, "timeout", 10*time.Second, "request timeout")
	if err := fs.Parse(args); err != nil {
		return opts, err
	}
	opts.baseURL = strings.TrimRight(opts.baseURL, "/")
	opts.args = fs.Args()
	return opts, nil
}

// runExec sends one command line to a running desktop and prints the
// response as JSON.
func runExec(cfg *config.Config, args []string, stdout io.Writer) error {
	opts, err := parseRemoteFlags("exec", cfg, args)
	if err != nil {
		return withExitCode(err, 2)
	}
	if len(opts.args) == 0 {
		return withExitCode(fmt.Errorf("usage: tinydesk exec [-url URL] <command> [args...]"), 2)
	}

	body, err := json.Marshal(ipc.CommandRequest{Command: strings.Join(opts.args, " ")})
	if err != nil {
		return err
	}
	ctx, cancel := context.WithTimeout(context.Background(), opts.timeout)
	defer cancel()
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, opts.baseURL+"/api/command", bytes.NewReader(body))
	if err != nil {
		return withExitCode(err, 2)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return fmt.Errorf("contact desktop: %w", err)
	}
	defer resp.Body.Close()

	var out command.Response
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return fmt.Errorf("decode response (HTTP %d): %w", resp.StatusCode, err)
	}
	enc := json.NewEncoder(stdout)
	enc.SetIndent("", "  ")
	if err := enc.Encode(out); err != nil {
		return err
	}
	if !out.OK {
		return fmt.Errorf("%s: %s", out.Code, out.Message)
	}
	return nil
}

// runEvents streams desktop events from the websocket, one JSON object per
// line, until the connection closes.
func runEvents(cfg *config.Config, args []string, stdout io.Writer) error {
	opts, err := parseRemoteFlags("events", cfg, args)
	if err != nil {
		return withExitCode(err, 2)
	}
	url := "ws" + strings.TrimPrefix(opts.baseURL, "http") + "/ws"
	dialCtx, cancel := context.WithTimeout(context.Background(), opts.timeout)
	conn, _, err := websocket.Dial(dialCtx, url, nil)
	cancel()
	if err != nil {
		return fmt.Errorf("connect to %s: %w", url, err)
	}
	defer conn.Close(websocket.StatusNormalClosure, "")

	enc := json.NewEncoder(stdout)
	for {
		_, data, err := conn.Read(context.Background())
		if err != nil {
			if websocket.CloseStatus(err) == websocket.StatusNormalClosure {
				return nil
			}
			return err
		}
		var f ipc.Frame
		if err := json.Unmarshal(data, &f); err != nil || f.Type != ipc.FrameEvent || f.Event == nil {
			continue
		}
		if err := enc.Encode(f.Event); err != nil {
			return err
		}
	}
}

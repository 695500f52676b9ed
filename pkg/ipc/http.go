package ipc

import (
	"encoding/json"
	stderrors "errors"
	"io"
	"net/http"
	"strings"

	"github.com/odvcencio/tinydesk/pkg/command"
	"github.com/odvcencio/tinydesk/pkg/errors"
)

const maxCommandBody int64 = 64 << 10

// CommandRequest is the body of POST /api/command.
type CommandRequest struct {
	Command string `json:"command"`
}

func (s *Server) handleHealthz(w http.ResponseWriter, _ *http.Request) {
	respondJSON(w, http.StatusOK, map[string]any{
		"status":  "ok",
		"clients": s.hub.Len(),
	})
}

func (s *Server) handleCommand(w http.ResponseWriter, r *http.Request) {
	var req CommandRequest
	if status, err := decodeJSONBody(w, r, &req, maxCommandBody); err != nil {
		respondJSON(w, status, command.Failure(errors.Wrap(err, errors.ErrCodeInvalidInput, "decode command request")))
		return
	}
	if strings.TrimSpace(req.Command) == "" {
		respondJSON(w, http.StatusBadRequest, command.Failure(errors.New(errors.ErrCodeInvalidInput, "command is required")))
		return
	}
	resp := s.commands.Execute(r.Context(), req.Command)
	respondJSON(w, statusFor(resp), resp)
}

func (s *Server) handleApps(w http.ResponseWriter, r *http.Request) {
	resp := s.commands.Execute(r.Context(), "ui.list")
	if !resp.OK {
		respondJSON(w, statusFor(resp), resp)
		return
	}
	respondJSON(w, http.StatusOK, resp.Data)
}

// statusFor maps a command response to an HTTP status.
func statusFor(resp command.Response) int {
	if resp.OK {
		return http.StatusOK
	}
	switch resp.Code {
	case errors.ErrCodeCommandUsage, errors.ErrCodeInvalidInput:
		return http.StatusBadRequest
	case errors.ErrCodeCommandUnknown, errors.ErrCodeAppNotFound, errors.ErrCodeHandleNotFound:
		return http.StatusNotFound
	case errors.ErrCodeHandleKind:
		return http.StatusConflict
	case errors.ErrCodeBridgeClosed:
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

func respondJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("Cache-Control", "no-store")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

func decodeJSONBody(w http.ResponseWriter, r *http.Request, dst any, maxBytes int64) (int, error) {
	if r.Body == nil {
		return http.StatusBadRequest, stderrors.New("request body required")
	}
	r.Body = http.MaxBytesReader(w, r.Body, maxBytes)
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		var maxErr *http.MaxBytesError
		switch {
		case stderrors.As(err, &maxErr):
			return http.StatusRequestEntityTooLarge, stderrors.New("request body too large")
		case stderrors.Is(err, io.EOF):
			return http.StatusBadRequest, stderrors.New("request body required")
		}
		return http.StatusBadRequest, err
	}
	return 0, nil
}

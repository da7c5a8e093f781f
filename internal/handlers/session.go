package handlers

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"github.com/google/uuid"

	"github.com/jwebster45206/quest-weaver/pkg/adventure"
	"github.com/jwebster45206/quest-weaver/pkg/session"
)

const maxBodyBytes = 64 << 10

// StoryRequest is the body of POST /v1/sessions/{id}/story.
type StoryRequest = adventure.BootstrapRequest

// CommandRequest is the body of POST /v1/sessions/{id}/commands.
type CommandRequest struct {
	Command string `json:"command"`
}

// DifficultyRequest is the body of POST /v1/sessions/{id}/difficulty.
type DifficultyRequest struct {
	PlayerSuccess *bool `json:"player_success"`
}

type SessionHandler struct {
	controller *session.Controller
	logger     *slog.Logger
}

func NewSessionHandler(controller *session.Controller, logger *slog.Logger) *SessionHandler {
	return &SessionHandler{
		controller: controller,
		logger:     logger,
	}
}

// ServeHTTP handles HTTP requests for sessions
// Routes:
// POST /v1/sessions                 - Create new session
// GET /v1/sessions/{id}             - Read session
// DELETE /v1/sessions/{id}          - Delete session
// POST /v1/sessions/{id}/story      - Generate the opening story
// POST /v1/sessions/{id}/commands   - Interpret a player command
// POST /v1/sessions/{id}/difficulty - Adjust difficulty after a challenge
func (h *SessionHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	path := strings.Trim(strings.TrimPrefix(r.URL.Path, "/v1/sessions"), "/")
	if path == "" {
		if r.Method != http.MethodPost {
			writeError(w, h.logger, http.StatusMethodNotAllowed, "Method not allowed. Supported methods: POST")
			return
		}
		h.handleCreate(w, r)
		return
	}

	parts := strings.Split(path, "/")
	id, err := uuid.Parse(parts[0])
	if err != nil {
		h.logger.Warn("Invalid session ID", "id", parts[0], "error", err)
		writeError(w, h.logger, http.StatusBadRequest, "Invalid session ID format")
		return
	}

	if len(parts) == 1 {
		switch r.Method {
		case http.MethodGet:
			h.handleRead(w, r, id)
		case http.MethodDelete:
			h.handleDelete(w, r, id)
		default:
			writeError(w, h.logger, http.StatusMethodNotAllowed, "Method not allowed. Supported methods: GET, DELETE")
		}
		return
	}

	if len(parts) != 2 {
		writeError(w, h.logger, http.StatusNotFound, "Not found")
		return
	}
	if r.Method != http.MethodPost {
		writeError(w, h.logger, http.StatusMethodNotAllowed, "Method not allowed. Supported methods: POST")
		return
	}

	switch parts[1] {
	case "story":
		h.handleStory(w, r, id)
	case "commands":
		h.handleCommand(w, r, id)
	case "difficulty":
		h.handleDifficulty(w, r, id)
	default:
		writeError(w, h.logger, http.StatusNotFound, "Not found")
	}
}

func (h *SessionHandler) handleCreate(w http.ResponseWriter, r *http.Request) {
	s, err := h.controller.Create(r.Context())
	if err != nil {
		h.writeControllerError(w, err)
		return
	}
	h.logger.Info("Session created", "session_id", s.ID)
	writeJSON(w, h.logger, http.StatusCreated, s)
}

func (h *SessionHandler) handleRead(w http.ResponseWriter, r *http.Request, id uuid.UUID) {
	s, err := h.controller.Get(r.Context(), id)
	if err != nil {
		h.writeControllerError(w, err)
		return
	}
	writeJSON(w, h.logger, http.StatusOK, s)
}

func (h *SessionHandler) handleDelete(w http.ResponseWriter, r *http.Request, id uuid.UUID) {
	if err := h.controller.Delete(r.Context(), id); err != nil {
		h.writeControllerError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *SessionHandler) handleStory(w http.ResponseWriter, r *http.Request, id uuid.UUID) {
	var req StoryRequest
	if !h.decode(w, r, &req) {
		return
	}
	if err := req.Validate(); err != nil {
		writeError(w, h.logger, http.StatusBadRequest, err.Error())
		return
	}

	res, err := h.controller.Bootstrap(r.Context(), id, &req)
	h.writeResult(w, res, err)
}

func (h *SessionHandler) handleCommand(w http.ResponseWriter, r *http.Request, id uuid.UUID) {
	var req CommandRequest
	if !h.decode(w, r, &req) {
		return
	}

	res, err := h.controller.Interpret(r.Context(), id, req.Command)
	h.writeResult(w, res, err)
}

func (h *SessionHandler) handleDifficulty(w http.ResponseWriter, r *http.Request, id uuid.UUID) {
	var req DifficultyRequest
	if !h.decode(w, r, &req) {
		return
	}
	if req.PlayerSuccess == nil {
		writeError(w, h.logger, http.StatusBadRequest, "player_success is required")
		return
	}

	res, err := h.controller.AdjustDifficulty(r.Context(), id, *req.PlayerSuccess)
	h.writeResult(w, res, err)
}

func (h *SessionHandler) decode(w http.ResponseWriter, r *http.Request, v any) bool {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		h.logger.Warn("Invalid request body", "path", r.URL.Path, "error", err)
		writeError(w, h.logger, http.StatusBadRequest, "Invalid request body")
		return false
	}
	return true
}

func (h *SessionHandler) writeResult(w http.ResponseWriter, res *session.Result, err error) {
	if err != nil {
		h.writeControllerError(w, err)
		return
	}
	writeJSON(w, h.logger, http.StatusOK, res)
}

func (h *SessionHandler) writeControllerError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, session.ErrSessionNotFound):
		writeError(w, h.logger, http.StatusNotFound, "Session not found")
	case errors.Is(err, session.ErrSessionBusy):
		writeError(w, h.logger, http.StatusConflict, "Session is busy with another request")
	case errors.Is(err, session.ErrInvalidRequest):
		writeError(w, h.logger, http.StatusBadRequest, err.Error())
	default:
		h.logger.Error("Session request failed", "error", err)
		writeError(w, h.logger, http.StatusInternalServerError, "Internal server error")
	}
}

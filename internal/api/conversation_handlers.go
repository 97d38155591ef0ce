// Package api provides conversation session handlers for PitchIQ endpoints.
package api

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/BTreeMap/PitchIQ/internal/conversation"
	"github.com/BTreeMap/PitchIQ/internal/models"
)

// startConversationHandler handles POST /conversations
func (s *Server) startConversationHandler(w http.ResponseWriter, r *http.Request) {
	slog.Debug("Server.startConversationHandler: invoked", "method", r.Method, "path", r.URL.Path)

	var req models.StartConversationRequest
	if err := decodeJSON(w, r, &req, true); err != nil {
		slog.Warn("Server.startConversationHandler: invalid JSON", "error", err)
		writeJSONResponse(w, http.StatusBadRequest, models.Error("Invalid JSON format"))
		return
	}

	rec, err := s.conversations.Start(r.Context(), req)
	if err != nil {
		slog.Error("Server.startConversationHandler: start failed", "error", err)
		writeJSONResponse(w, http.StatusInternalServerError, models.Error("Failed to start conversation"))
		return
	}

	slog.Info("Server.startConversationHandler: conversation started", "id", rec.ID)
	writeJSONResponse(w, http.StatusCreated, models.SuccessWithMessage("Conversation started", rec))
}

// getConversationHandler handles GET /conversations/{id}
func (s *Server) getConversationHandler(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	rec, err := s.conversations.Get(r.Context(), id)
	if err != nil {
		writeConversationError(w, "Server.getConversationHandler", id, err)
		return
	}
	writeJSONResponse(w, http.StatusOK, models.Success(rec))
}

// appendTurnsHandler handles POST /conversations/{id}/turns
func (s *Server) appendTurnsHandler(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")

	var req models.AppendTurnsRequest
	if err := decodeJSON(w, r, &req, false); err != nil {
		slog.Warn("Server.appendTurnsHandler: invalid JSON", "id", id, "error", err)
		writeJSONResponse(w, http.StatusBadRequest, models.Error("Invalid JSON format"))
		return
	}
	if err := req.Validate(); err != nil {
		slog.Warn("Server.appendTurnsHandler: validation failed", "id", id, "error", err)
		writeJSONResponse(w, http.StatusBadRequest, models.Error(err.Error()))
		return
	}

	rec, err := s.conversations.AppendTurns(r.Context(), id, req.Turns)
	if err != nil {
		writeConversationError(w, "Server.appendTurnsHandler", id, err)
		return
	}

	slog.Debug("Server.appendTurnsHandler: turns appended", "id", id, "turns", len(req.Turns), "phase", rec.State.LikelyPhase)
	writeJSONResponse(w, http.StatusOK, models.Success(rec.State))
}

// promptHandler handles GET /conversations/{id}/prompt
func (s *Server) promptHandler(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	prompt, err := s.conversations.Prompt(r.Context(), id)
	if err != nil {
		writeConversationError(w, "Server.promptHandler", id, err)
		return
	}
	writeJSONResponse(w, http.StatusOK, models.Success(map[string]string{"system_prompt": prompt}))
}

// endConversationHandler handles DELETE /conversations/{id}
func (s *Server) endConversationHandler(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	if err := s.conversations.End(r.Context(), id); err != nil {
		writeConversationError(w, "Server.endConversationHandler", id, err)
		return
	}
	slog.Info("Server.endConversationHandler: conversation ended", "id", id)
	writeJSONResponse(w, http.StatusOK, models.SuccessWithMessage("Conversation ended", nil))
}

func writeConversationError(w http.ResponseWriter, handler, id string, err error) {
	switch {
	case errors.Is(err, conversation.ErrNotFound):
		slog.Warn(handler+": conversation not found", "id", id)
		writeJSONResponse(w, http.StatusNotFound, models.Error("Conversation not found"))
	case errors.Is(err, models.ErrInvalidTurnRole), errors.Is(err, models.ErrEmptyTurnContent), errors.Is(err, models.ErrTurnContentTooLong):
		writeJSONResponse(w, http.StatusBadRequest, models.Error(err.Error()))
	default:
		slog.Error(handler+": request failed", "id", id, "error", err)
		writeJSONResponse(w, http.StatusInternalServerError, models.Error("Internal server error"))
	}
}

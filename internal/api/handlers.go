// Package api provides HTTP handlers for PitchIQ endpoints.
package api

import (
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/BTreeMap/PitchIQ/internal/models"
)

// generatePersonaHandler handles POST /personas
func (s *Server) generatePersonaHandler(w http.ResponseWriter, r *http.Request) {
	var req models.PersonaRequest
	if err := decodeJSON(w, r, &req, true); err != nil {
		slog.Warn("Server.generatePersonaHandler: invalid JSON", "error", err)
		writeJSONResponse(w, http.StatusBadRequest, models.Error("Invalid JSON format"))
		return
	}

	p := s.personas.Generate(r.Context(), req)
	slog.Info("Server.generatePersonaHandler: persona generated", "culture", p.CulturalKey, "role", p.Role, "industry", p.Industry)
	writeJSONResponse(w, http.StatusOK, models.Success(p))
}

// biasReportHandler handles GET /personas/bias-report?window=N
func (s *Server) biasReportHandler(w http.ResponseWriter, r *http.Request) {
	window := 0
	if raw := r.URL.Query().Get("window"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n <= 0 {
			writeJSONResponse(w, http.StatusBadRequest, models.Error("window must be a positive integer"))
			return
		}
		window = n
	}
	writeJSONResponse(w, http.StatusOK, models.Success(s.personas.BiasReport(window)))
}

// generateFearsHandler handles POST /fears
func (s *Server) generateFearsHandler(w http.ResponseWriter, r *http.Request) {
	var req models.FearRequest
	if err := decodeJSON(w, r, &req, false); err != nil {
		slog.Warn("Server.generateFearsHandler: invalid JSON", "error", err)
		writeJSONResponse(w, http.StatusBadRequest, models.Error("Invalid JSON format"))
		return
	}
	if err := req.Validate(); err != nil {
		writeJSONResponse(w, http.StatusBadRequest, models.Error(err.Error()))
		return
	}

	fears := s.fears.Generate(req.ProductService, req.PersonaContext, req.PersonalSituation)
	writeJSONResponse(w, http.StatusOK, models.Success(fears))
}

// samAnalyzeHandler handles POST /sam/analyze
func (s *Server) samAnalyzeHandler(w http.ResponseWriter, r *http.Request) {
	var req models.SamAnalyzeRequest
	if err := decodeJSON(w, r, &req, false); err != nil {
		slog.Warn("Server.samAnalyzeHandler: invalid JSON", "error", err)
		writeJSONResponse(w, http.StatusBadRequest, models.Error("Invalid JSON format"))
		return
	}
	if err := req.Validate(); err != nil {
		writeJSONResponse(w, http.StatusBadRequest, models.Error(err.Error()))
		return
	}
	writeJSONResponse(w, http.StatusOK, models.Success(s.sam.Analyze(req.Conversation)))
}

// healthHandler provides a health check endpoint for monitoring and load balancing
func (s *Server) healthHandler(w http.ResponseWriter, r *http.Request) {
	healthData := map[string]interface{}{
		"status":               "healthy",
		"timestamp":            time.Now().UTC().Format(time.RFC3339),
		"uptime_seconds":       int(time.Since(s.startedAt).Seconds()),
		"active_conversations": s.conversations.Len(),
	}
	writeJSONResponse(w, http.StatusOK, healthData)
}

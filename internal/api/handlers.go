package api

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/terra-clan/curriculum-engine/internal/editor"
	"github.com/terra-clan/curriculum-engine/internal/session"
)

// Response helpers

type apiResponse struct {
	Success bool        `json:"success"`
	Data    interface{} `json:"data,omitempty"`
	Error   *apiError   `json:"error,omitempty"`
}

type apiError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

func respondJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	resp := apiResponse{
		Success: status >= 200 && status < 300,
		Data:    data,
	}

	if err := json.NewEncoder(w).Encode(resp); err != nil {
		slog.Error("failed to encode response", "error", err)
	}
}

func respondError(w http.ResponseWriter, status int, code, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	resp := apiResponse{
		Success: false,
		Error: &apiError{
			Code:    code,
			Message: message,
		},
	}

	if err := json.NewEncoder(w).Encode(resp); err != nil {
		slog.Error("failed to encode error response", "error", err)
	}
}

// decodeBody decodes a JSON request body, answering 400 on failure
func decodeBody(w http.ResponseWriter, r *http.Request, v interface{}) bool {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		respondError(w, http.StatusBadRequest, "invalid_request", "invalid JSON body")
		return false
	}
	return true
}

// Health handlers

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, map[string]string{
		"status": "healthy",
		"time":   time.Now().UTC().Format(time.RFC3339),
	})
}

// handleReady reports ready once the catalog finished its first load and
// every configured dependency answers
func (s *Server) handleReady(w http.ResponseWriter, r *http.Request) {
	select {
	case <-s.catalog.Ready():
	default:
		respondError(w, http.StatusServiceUnavailable, "not_ready", "catalog is still loading")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	for name, check := range s.checks {
		if err := check(ctx); err != nil {
			slog.Warn("readiness check failed", "check", name, "error", err)
			respondError(w, http.StatusServiceUnavailable, "not_ready", name+" unavailable")
			return
		}
	}

	respondJSON(w, http.StatusOK, map[string]string{
		"status": "ready",
	})
}

// editorFromRequest resolves the {id} URL parameter, answering 404 when
// the editor is not open
func (s *Server) editorFromRequest(w http.ResponseWriter, r *http.Request) (*editor.Controller, bool) {
	id := chi.URLParam(r, "id")
	ed, err := s.editors.Get(id)
	if err != nil {
		if errors.Is(err, session.ErrEditorNotFound) {
			respondError(w, http.StatusNotFound, "editor_not_found", "editor not found")
			return nil, false
		}
		slog.Error("failed to get editor", "id", id, "error", err)
		respondError(w, http.StatusInternalServerError, "internal_error", "failed to get editor")
		return nil, false
	}
	return ed, true
}

// lessonParam parses the {lesson} URL parameter
func lessonParam(w http.ResponseWriter, r *http.Request) (int, bool) {
	lesson, err := strconv.Atoi(chi.URLParam(r, "lesson"))
	if err != nil || lesson < 1 {
		respondError(w, http.StatusBadRequest, "invalid_lesson", "lesson must be a positive integer")
		return 0, false
	}
	return lesson, true
}

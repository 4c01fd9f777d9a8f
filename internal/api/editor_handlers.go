package api

import (
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/terra-clan/curriculum-engine/internal/editor"
	"github.com/terra-clan/curriculum-engine/internal/models"
	"github.com/terra-clan/curriculum-engine/internal/schedule"
	"github.com/terra-clan/curriculum-engine/internal/session"
	"github.com/terra-clan/curriculum-engine/internal/transfer"
)

// Editor session handlers

func (s *Server) handleListEditors(w http.ResponseWriter, r *http.Request) {
	editors := s.editors.List()
	respondJSON(w, http.StatusOK, map[string]interface{}{
		"editors": editors,
		"total":   len(editors),
	})
}

func (s *Server) handleOpenEditor(w http.ResponseWriter, r *http.Request) {
	// the body is optional
	var req models.OpenEditorRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil && !errors.Is(err, io.EOF) {
		respondError(w, http.StatusBadRequest, "invalid_request", "invalid JSON body")
		return
	}

	ed, err := s.editors.Open(r.Context(), req.CourseID)
	if err != nil {
		if errors.Is(err, session.ErrTooManyEditors) {
			respondError(w, http.StatusTooManyRequests, "too_many_editors", "too many open editors")
			return
		}
		slog.Error("failed to open editor", "error", err, "course_id", req.CourseID)
		respondError(w, http.StatusInternalServerError, "internal_error", "failed to open editor")
		return
	}

	respondJSON(w, http.StatusCreated, ed.Info())
}

func (s *Server) handleGetEditor(w http.ResponseWriter, r *http.Request) {
	ed, ok := s.editorFromRequest(w, r)
	if !ok {
		return
	}
	respondJSON(w, http.StatusOK, ed.Info())
}

func (s *Server) handleCloseEditor(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if err := s.editors.Close(id); err != nil {
		if errors.Is(err, session.ErrEditorNotFound) {
			respondError(w, http.StatusNotFound, "editor_not_found", "editor not found")
			return
		}
		slog.Error("failed to close editor", "error", err, "id", id)
		respondError(w, http.StatusInternalServerError, "internal_error", "failed to close editor")
		return
	}

	respondJSON(w, http.StatusOK, map[string]string{
		"message": "editor closed",
	})
}

// Schedule handlers

func (s *Server) handleGenerateSchedule(w http.ResponseWriter, r *http.Request) {
	ed, ok := s.editorFromRequest(w, r)
	if !ok {
		return
	}

	var req models.GenerateScheduleRequest
	if !decodeBody(w, r, &req) {
		return
	}

	view, err := ed.GenerateSchedule(r.Context(), models.ScheduleConfig{
		TotalWeeks:     req.TotalWeeks,
		LessonsPerWeek: req.LessonsPerWeek,
	})
	if err != nil {
		if errors.Is(err, schedule.ErrInvalidConfig) {
			respondError(w, http.StatusBadRequest, "invalid_config", err.Error())
			return
		}
		slog.Error("failed to generate schedule", "error", err, "editor_id", ed.ID())
		respondError(w, http.StatusInternalServerError, "internal_error", "failed to generate schedule")
		return
	}

	respondJSON(w, http.StatusOK, view)
}

func (s *Server) handleGetSchedule(w http.ResponseWriter, r *http.Request) {
	ed, ok := s.editorFromRequest(w, r)
	if !ok {
		return
	}

	view, err := ed.Schedule()
	if err != nil {
		if errors.Is(err, editor.ErrNoSchedule) {
			respondError(w, http.StatusNotFound, "no_schedule", "no schedule has been generated")
			return
		}
		slog.Error("failed to render schedule", "error", err, "editor_id", ed.ID())
		respondError(w, http.StatusInternalServerError, "internal_error", "failed to render schedule")
		return
	}

	respondJSON(w, http.StatusOK, view)
}

// Assignment handlers

func (s *Server) handleGetAssignment(w http.ResponseWriter, r *http.Request) {
	ed, ok := s.editorFromRequest(w, r)
	if !ok {
		return
	}
	lesson, ok := lessonParam(w, r)
	if !ok {
		return
	}

	techniques := ed.GetAssignment(lesson)
	respondJSON(w, http.StatusOK, map[string]interface{}{
		"lessonNumber": lesson,
		"techniques":   techniques,
		"total":        len(techniques),
	})
}

func (s *Server) handleAddTechnique(w http.ResponseWriter, r *http.Request) {
	ed, ok := s.editorFromRequest(w, r)
	if !ok {
		return
	}
	lesson, ok := lessonParam(w, r)
	if !ok {
		return
	}

	var req models.AddTechniqueRequest
	if !decodeBody(w, r, &req) {
		return
	}
	if req.TechniqueID == "" {
		respondError(w, http.StatusBadRequest, "validation_error", "techniqueId is required")
		return
	}

	respondJSON(w, http.StatusOK, ed.AddTechnique(lesson, req.TechniqueID))
}

func (s *Server) handleRemoveTechnique(w http.ResponseWriter, r *http.Request) {
	ed, ok := s.editorFromRequest(w, r)
	if !ok {
		return
	}
	lesson, ok := lessonParam(w, r)
	if !ok {
		return
	}

	respondJSON(w, http.StatusOK, ed.RemoveTechnique(lesson, chi.URLParam(r, "techniqueId")))
}

func (s *Server) handleMoveTechnique(w http.ResponseWriter, r *http.Request) {
	ed, ok := s.editorFromRequest(w, r)
	if !ok {
		return
	}

	var req models.MoveTechniqueRequest
	if !decodeBody(w, r, &req) {
		return
	}
	if req.TechniqueID == "" {
		respondError(w, http.StatusBadRequest, "validation_error", "techniqueId is required")
		return
	}
	if req.FromLesson < 1 || req.ToLesson < 1 {
		respondError(w, http.StatusBadRequest, "invalid_lesson", "fromLesson and toLesson must be positive")
		return
	}

	respondJSON(w, http.StatusOK, ed.MoveTechnique(req.TechniqueID, req.FromLesson, req.ToLesson))
}

func (s *Server) handleGetStats(w http.ResponseWriter, r *http.Request) {
	ed, ok := s.editorFromRequest(w, r)
	if !ok {
		return
	}
	respondJSON(w, http.StatusOK, ed.Stats())
}

// Transfer handlers

func (s *Server) handleExport(w http.ResponseWriter, r *http.Request) {
	ed, ok := s.editorFromRequest(w, r)
	if !ok {
		return
	}

	exp, err := ed.ExportForSave()
	if err != nil {
		if errors.Is(err, editor.ErrNoSchedule) {
			respondError(w, http.StatusConflict, "no_schedule", "a schedule is required to export assigned techniques")
			return
		}
		slog.Error("failed to export editor", "error", err, "editor_id", ed.ID())
		respondError(w, http.StatusInternalServerError, "internal_error", "failed to export")
		return
	}
	respondJSON(w, http.StatusOK, map[string]interface{}{
		"techniques":       exp.Techniques,
		"lessonTechniques": exp.AsLessonGroups(),
	})
}

func (s *Server) handleImport(w http.ResponseWriter, r *http.Request) {
	ed, ok := s.editorFromRequest(w, r)
	if !ok {
		return
	}

	var req models.ImportRequest
	if !decodeBody(w, r, &req) {
		return
	}

	res := ed.ImportFromPersisted(transfer.CourseData{
		Course:           req.Course,
		LessonTechniques: req.LessonTechniques,
	})
	respondJSON(w, http.StatusOK, res)
}

func (s *Server) handleSave(w http.ResponseWriter, r *http.Request) {
	ed, ok := s.editorFromRequest(w, r)
	if !ok {
		return
	}

	exp, err := ed.Save(r.Context())
	if err != nil {
		switch {
		case errors.Is(err, editor.ErrNoCourse):
			respondError(w, http.StatusConflict, "no_course", "editor is not bound to a course")
		case errors.Is(err, editor.ErrNoSchedule):
			respondError(w, http.StatusConflict, "no_schedule", "a schedule is required to save assigned techniques")
		case errors.Is(err, editor.ErrSaveFailed):
			respondError(w, http.StatusBadGateway, "save_failed", err.Error())
		default:
			slog.Error("failed to save editor", "error", err, "editor_id", ed.ID())
			respondError(w, http.StatusInternalServerError, "internal_error", "failed to save")
		}
		return
	}

	respondJSON(w, http.StatusOK, map[string]interface{}{
		"courseId": ed.CourseID(),
		"saved":    len(exp.Techniques),
	})
}

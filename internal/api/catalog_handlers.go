package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
)

// Catalog handlers

func (s *Server) handleGetCatalog(w http.ResponseWriter, r *http.Request) {
	techniques := s.catalog.Ensure(r.Context())
	respondJSON(w, http.StatusOK, map[string]interface{}{
		"techniques": techniques,
		"total":      len(techniques),
		"loadedAt":   s.catalog.LoadedAt(),
	})
}

func (s *Server) handleReloadCatalog(w http.ResponseWriter, r *http.Request) {
	techniques := s.catalog.Reload(r.Context())
	respondJSON(w, http.StatusOK, map[string]interface{}{
		"total":    len(techniques),
		"loadedAt": s.catalog.LoadedAt(),
	})
}

func (s *Server) handleGetTechnique(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "techniqueId")
	technique, ok := s.catalog.Lookup(id)
	if !ok {
		respondError(w, http.StatusNotFound, "not_found", "technique not found")
		return
	}
	respondJSON(w, http.StatusOK, technique)
}

// Package session tracks the open editor sessions of the process.
package session

import (
	"context"
	"errors"
	"log/slog"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/terra-clan/curriculum-engine/internal/editor"
	"github.com/terra-clan/curriculum-engine/internal/models"
)

var (
	ErrEditorNotFound = errors.New("editor not found")
	ErrTooManyEditors = errors.New("too many open editors")
)

// Factory builds the controller of a new session
type Factory func(id, courseID string) *editor.Controller

// Registry manages open editor controllers
type Registry struct {
	mu         sync.RWMutex
	editors    map[string]*editor.Controller
	newEditor  Factory
	maxEditors int
}

// NewRegistry creates a registry. maxEditors <= 0 means unbounded.
func NewRegistry(factory Factory, maxEditors int) *Registry {
	return &Registry{
		editors:    make(map[string]*editor.Controller),
		newEditor:  factory,
		maxEditors: maxEditors,
	}
}

// Open creates a session. When courseID is set the store is hydrated
// from the persisted course before the session becomes visible.
func (r *Registry) Open(ctx context.Context, courseID string) (*editor.Controller, error) {
	if r.full() {
		return nil, ErrTooManyEditors
	}

	ed := r.newEditor(uuid.NewString(), courseID)
	if courseID != "" {
		ed.Hydrate(ctx)
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if r.maxEditors > 0 && len(r.editors) >= r.maxEditors {
		ed.Close()
		return nil, ErrTooManyEditors
	}
	r.editors[ed.ID()] = ed

	slog.Info("editor opened", "editor_id", ed.ID(), "course_id", courseID)
	return ed, nil
}

// Get retrieves an open editor
func (r *Registry) Get(id string) (*editor.Controller, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	ed, ok := r.editors[id]
	if !ok {
		return nil, ErrEditorNotFound
	}
	return ed, nil
}

// List describes every open editor, oldest first
func (r *Registry) List() []models.EditorInfo {
	r.mu.RLock()
	editors := make([]*editor.Controller, 0, len(r.editors))
	for _, ed := range r.editors {
		editors = append(editors, ed)
	}
	r.mu.RUnlock()

	infos := make([]models.EditorInfo, 0, len(editors))
	for _, ed := range editors {
		infos = append(infos, ed.Info())
	}
	sort.Slice(infos, func(i, j int) bool {
		return infos[i].CreatedAt.Before(infos[j].CreatedAt)
	})
	return infos
}

// Close discards an editor and its store
func (r *Registry) Close(id string) error {
	r.mu.Lock()
	ed, ok := r.editors[id]
	delete(r.editors, id)
	r.mu.Unlock()

	if !ok {
		return ErrEditorNotFound
	}
	ed.Close()
	slog.Info("editor closed", "editor_id", id)
	return nil
}

// Idle returns the editors unused since before cutoff
func (r *Registry) Idle(cutoff time.Time) []models.EditorInfo {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var idle []models.EditorInfo
	for _, ed := range r.editors {
		if ed.LastActivity().Before(cutoff) {
			idle = append(idle, ed.Info())
		}
	}
	return idle
}

// CloseAll discards every editor
func (r *Registry) CloseAll() {
	r.mu.Lock()
	editors := r.editors
	r.editors = make(map[string]*editor.Controller)
	r.mu.Unlock()

	for _, ed := range editors {
		ed.Close()
	}
}

// Len returns the number of open editors
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.editors)
}

func (r *Registry) full() bool {
	if r.maxEditors <= 0 {
		return false
	}
	return r.Len() >= r.maxEditors
}

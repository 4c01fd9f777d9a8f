// Package assignment holds the in-memory mapping from lesson number to
// its ordered technique list.
package assignment

import (
	"encoding/json"
	"sort"
	"strconv"

	"github.com/terra-clan/curriculum-engine/internal/models"
)

// Store maps lesson numbers to ordered technique lists. A technique
// appears at most once per lesson; the same technique may appear in
// several lessons. Store is not safe for concurrent use: it is owned by a
// single editor controller which serializes access.
type Store struct {
	lessons map[int][]models.Technique
}

// Stats aggregates list lengths across all lessons
type Stats struct {
	TotalAssigned int `json:"totalAssigned"`
	TotalLessons  int `json:"totalLessons"`
}

// New creates an empty store
func New() *Store {
	return &Store{lessons: make(map[int][]models.Technique)}
}

// Add appends t to the lesson list. Duplicate inserts are no-ops and
// return false.
func (s *Store) Add(lesson int, t models.Technique) bool {
	for _, existing := range s.lessons[lesson] {
		if existing.ID == t.ID {
			return false
		}
	}
	s.lessons[lesson] = append(s.lessons[lesson], t)
	return true
}

// Remove filters the technique out of the lesson list. Returns false when
// it was not there.
func (s *Store) Remove(lesson int, techniqueID string) bool {
	list, ok := s.lessons[lesson]
	if !ok {
		return false
	}

	out := list[:0:0]
	removed := false
	for _, t := range list {
		if t.ID == techniqueID {
			removed = true
			continue
		}
		out = append(out, t)
	}
	if removed {
		s.lessons[lesson] = out
	}
	return removed
}

// Contains reports whether the lesson already lists the technique
func (s *Store) Contains(lesson int, techniqueID string) bool {
	for _, t := range s.lessons[lesson] {
		if t.ID == techniqueID {
			return true
		}
	}
	return false
}

// Lesson returns a copy of the lesson list; never nil
func (s *Store) Lesson(lesson int) []models.Technique {
	list := s.lessons[lesson]
	out := make([]models.Technique, len(list))
	copy(out, list)
	return out
}

// Filled reports whether the lesson holds at least one technique
func (s *Store) Filled(lesson int) bool {
	return len(s.lessons[lesson]) > 0
}

// Ensure creates an empty entry for the lesson if none exists
func (s *Store) Ensure(lesson int) {
	if _, ok := s.lessons[lesson]; !ok {
		s.lessons[lesson] = []models.Technique{}
	}
}

// Lessons returns lesson numbers with an entry, ascending
func (s *Store) Lessons() []int {
	keys := make([]int, 0, len(s.lessons))
	for k := range s.lessons {
		keys = append(keys, k)
	}
	sort.Ints(keys)
	return keys
}

// Find looks a technique up across every lesson
func (s *Store) Find(techniqueID string) (models.Technique, bool) {
	for _, lesson := range s.Lessons() {
		for _, t := range s.lessons[lesson] {
			if t.ID == techniqueID {
				return t, true
			}
		}
	}
	return models.Technique{}, false
}

// Stats sums list lengths across all entries
func (s *Store) Stats() Stats {
	st := Stats{TotalLessons: len(s.lessons)}
	for _, list := range s.lessons {
		st.TotalAssigned += len(list)
	}
	return st
}

// Distinct returns the number of distinct technique ids in the store
func (s *Store) Distinct() int {
	seen := make(map[string]struct{})
	for _, list := range s.lessons {
		for _, t := range list {
			seen[t.ID] = struct{}{}
		}
	}
	return len(seen)
}

// Len returns the number of lesson entries
func (s *Store) Len() int {
	return len(s.lessons)
}

// Reset drops every entry
func (s *Store) Reset() {
	s.lessons = make(map[int][]models.Technique)
}

// Snapshot returns a deep copy of the mapping
func (s *Store) Snapshot() map[int][]models.Technique {
	out := make(map[int][]models.Technique, len(s.lessons))
	for k := range s.lessons {
		out[k] = s.Lesson(k)
	}
	return out
}

// MarshalJSON encodes the store as {"<lesson>": [...]} in lesson order
func (s *Store) MarshalJSON() ([]byte, error) {
	buf := []byte{'{'}
	for i, lesson := range s.Lessons() {
		if i > 0 {
			buf = append(buf, ',')
		}
		buf = strconv.AppendQuote(buf, strconv.Itoa(lesson))
		buf = append(buf, ':')

		list, err := json.Marshal(s.Lesson(lesson))
		if err != nil {
			return nil, err
		}
		buf = append(buf, list...)
	}
	return append(buf, '}'), nil
}

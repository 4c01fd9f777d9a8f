package catalog

import (
	"strings"

	"github.com/terra-clan/curriculum-engine/internal/models"
)

// FromActivity normalizes a primary-source activity
func FromActivity(a models.Activity, bands models.BandTable) (models.Technique, bool) {
	if a.ID == "" {
		return models.Technique{}, false
	}

	name := firstNonEmpty(a.Title, a.Name)
	if name == "" {
		name = a.ID
	}

	duration := a.DurationMinutes
	if duration == nil {
		duration = a.Duration
	}

	return models.Technique{
		ID:              a.ID,
		Name:            name,
		Category:        category(a.Category, a.Type),
		Band:            bands.Normalize(string(a.Difficulty)),
		DurationMinutes: duration,
		Description:     a.Description,
	}, true
}

// FromSourceTechnique normalizes a secondary-source or persisted technique
func FromSourceTechnique(s models.SourceTechnique, bands models.BandTable) (models.Technique, bool) {
	if s.ID == "" {
		return models.Technique{}, false
	}

	name := firstNonEmpty(s.Name, s.Title)
	if name == "" {
		name = s.ID
	}

	raw := s.Complexity
	if raw == "" {
		raw = s.Difficulty
	}

	duration := s.DurationMin
	if duration == nil {
		duration = s.AllocationMinutes
	}

	return models.Technique{
		ID:              s.ID,
		Name:            name,
		Category:        category(s.Category),
		Band:            bands.Normalize(string(raw)),
		DurationMinutes: duration,
		Description:     firstNonEmpty(s.Description, s.ShortDescription),
	}, true
}

// category picks the first usable classification. The activity type
// "TECHNIQUE" is the filter value itself and says nothing more than the
// default, so it collapses into it.
func category(candidates ...string) string {
	for _, c := range candidates {
		c = strings.TrimSpace(c)
		if c == "" || strings.EqualFold(c, ActivityTypeTechnique) {
			continue
		}
		return c
	}
	return models.DefaultCategory
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v = strings.TrimSpace(v); v != "" {
			return v
		}
	}
	return ""
}

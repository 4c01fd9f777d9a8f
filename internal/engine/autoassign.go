// Package engine populates lessons with catalog techniques following a
// linear difficulty progression.
package engine

import (
	"github.com/terra-clan/curriculum-engine/internal/models"
)

// RandSource is the random selection strategy. *math/rand.Rand satisfies it.
type RandSource interface {
	// Intn returns a value in [0, n)
	Intn(n int) int
}

// Options tunes a generation pass
type Options struct {
	MinPerLesson int
	MaxPerLesson int

	// FoundationUntil and DevelopmentUntil are the progress ratios at which
	// the candidate pool moves to the next difficulty stage.
	FoundationUntil  float64
	DevelopmentUntil float64

	Rand RandSource
}

// DefaultOptions returns the standard 2..4 bounds and 0.4/0.8 thresholds
func DefaultOptions(r RandSource) Options {
	return Options{
		MinPerLesson:     2,
		MaxPerLesson:     4,
		FoundationUntil:  0.4,
		DevelopmentUntil: 0.8,
		Rand:             r,
	}
}

func (o Options) withDefaults() Options {
	def := DefaultOptions(o.Rand)
	if o.MinPerLesson <= 0 {
		o.MinPerLesson = def.MinPerLesson
	}
	if o.MaxPerLesson < o.MinPerLesson {
		o.MaxPerLesson = o.MinPerLesson
	}
	if o.FoundationUntil <= 0 || o.DevelopmentUntil <= o.FoundationUntil {
		o.FoundationUntil = def.FoundationUntil
		o.DevelopmentUntil = def.DevelopmentUntil
	}
	if o.Rand == nil {
		o.Rand = firstPick{}
	}
	return o
}

// firstPick is the fallback when no random source is wired: it always
// takes the first remaining candidate, i.e. catalog order.
type firstPick struct{}

func (firstPick) Intn(int) int { return 0 }

// PerLesson computes clamp(floor(catalogSize / totalLessons), min, max)
func PerLesson(catalogSize, totalLessons int, opts Options) int {
	opts = opts.withDefaults()
	n := 0
	if totalLessons > 0 {
		n = catalogSize / totalLessons
	}
	if n < opts.MinPerLesson {
		n = opts.MinPerLesson
	}
	if n > opts.MaxPerLesson {
		n = opts.MaxPerLesson
	}
	return n
}

// AutoAssign computes the techniques of every lesson 1..totalLessons.
//
// Each lesson draws from a candidate pool chosen by its progress ratio,
// excluding techniques already used in this pass. When nothing unused is
// left the used set is cleared and the lesson draws from the full
// catalog, so every lesson gets content even when the catalog is small.
// An empty catalog yields every lesson mapped to an empty list.
func AutoAssign(totalLessons int, catalog []models.Technique, opts Options) map[int][]models.Technique {
	out := make(map[int][]models.Technique, max(totalLessons, 0))
	if totalLessons <= 0 {
		return out
	}
	for lesson := 1; lesson <= totalLessons; lesson++ {
		out[lesson] = []models.Technique{}
	}
	if len(catalog) == 0 {
		return out
	}

	opts = opts.withDefaults()
	perLesson := PerLesson(len(catalog), totalLessons, opts)
	bands := partition(catalog)
	used := make(map[string]bool, len(catalog))

	for lesson := 1; lesson <= totalLessons; lesson++ {
		progress := float64(lesson) / float64(totalLessons)

		pool := unused(candidates(bands, progress, perLesson, used, opts), used)
		if len(pool) == 0 {
			clear(used)
			pool = dedupe(catalog)
		}

		selected := pick(pool, perLesson, opts.Rand)
		for _, t := range selected {
			used[t.ID] = true
		}
		out[lesson] = selected
	}

	return out
}

type bandPools map[models.DifficultyBand][]models.Technique

func partition(catalog []models.Technique) bandPools {
	bands := make(bandPools, len(models.Bands))
	for _, t := range catalog {
		band := t.Band
		if !band.Valid() {
			band = models.BandBeginner
		}
		bands[band] = append(bands[band], t)
	}
	return bands
}

// candidates returns the stage pool for a progress ratio before exclusion
func candidates(bands bandPools, progress float64, perLesson int, used map[string]bool, opts Options) []models.Technique {
	switch {
	case progress < opts.FoundationUntil:
		beginner := bands[models.BandBeginner]
		if len(unused(beginner, used)) >= perLesson {
			return beginner
		}
		return concat(beginner, bands[models.BandIntermediate])
	case progress < opts.DevelopmentUntil:
		return concat(bands[models.BandIntermediate], bands[models.BandBeginner])
	default:
		return concat(bands[models.BandAdvanced], bands[models.BandIntermediate])
	}
}

func unused(pool []models.Technique, used map[string]bool) []models.Technique {
	out := make([]models.Technique, 0, len(pool))
	seen := make(map[string]bool, len(pool))
	for _, t := range pool {
		if used[t.ID] || seen[t.ID] {
			continue
		}
		seen[t.ID] = true
		out = append(out, t)
	}
	return out
}

func dedupe(pool []models.Technique) []models.Technique {
	return unused(pool, nil)
}

func concat(a, b []models.Technique) []models.Technique {
	out := make([]models.Technique, 0, len(a)+len(b))
	out = append(out, a...)
	return append(out, b...)
}

// pick selects up to n techniques without replacement (partial Fisher-Yates
// over a copy of pool).
func pick(pool []models.Technique, n int, r RandSource) []models.Technique {
	work := make([]models.Technique, len(pool))
	copy(work, pool)

	if n > len(work) {
		n = len(work)
	}
	for i := 0; i < n; i++ {
		j := i + r.Intn(len(work)-i)
		work[i], work[j] = work[j], work[i]
	}
	return work[:n]
}

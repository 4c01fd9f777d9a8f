// Package transfer converts between the assignment store and the two
// persisted representations of a course: per-lesson technique groups and
// the flat save payload.
package transfer

import (
	"log/slog"
	"sort"

	"github.com/terra-clan/curriculum-engine/internal/assignment"
	"github.com/terra-clan/curriculum-engine/internal/catalog"
	"github.com/terra-clan/curriculum-engine/internal/models"
	"github.com/terra-clan/curriculum-engine/internal/schedule"
)

// Target receives imported techniques
type Target interface {
	Filled(lesson int) bool
	Add(lesson int, t models.Technique) bool
}

// Resolver finds a catalog technique by id
type Resolver func(id string) (models.Technique, bool)

// CourseData is what a persisted course offers for import
type CourseData struct {
	Course           *models.CourseRecord
	LessonTechniques []models.LessonTechniqueGroup
}

// Result summarizes an import
type Result struct {
	Inserted       int `json:"inserted"`
	SkippedLessons int `json:"skippedLessons"`
	Ignored        int `json:"ignored"`
}

// Import populates target from persisted data. Lesson groups take
// precedence over the course's flat technique list. Lessons that already
// hold entries before the import are left untouched.
func Import(target Target, cfg models.ScheduleConfig, data CourseData, resolve Resolver, bands models.BandTable) Result {
	if bands == nil {
		bands = models.DefaultBandTable()
	}
	imp := &importer{
		target:  target,
		cfg:     cfg,
		resolve: resolve,
		bands:   bands,
		filled:  make(map[int]bool),
	}

	if len(data.LessonTechniques) > 0 {
		imp.groups(data.LessonTechniques)
	} else if data.Course != nil && len(data.Course.Techniques) > 0 {
		imp.flat(data.Course.Techniques)
	}

	slog.Debug("persisted techniques imported",
		"inserted", imp.result.Inserted,
		"skipped_lessons", imp.result.SkippedLessons,
		"ignored", imp.result.Ignored,
	)
	return imp.result
}

// InferConfig derives a schedule for a flat technique list persisted
// without one: one lesson per week, as many weeks as the highest week or
// lesson number referenced. Lesson groups carry no week numbers and yield
// nothing.
func InferConfig(data CourseData) (models.ScheduleConfig, bool) {
	if len(data.LessonTechniques) > 0 || data.Course == nil {
		return models.ScheduleConfig{}, false
	}

	weeks := 0
	for _, e := range data.Course.Techniques {
		n := e.WeekNumber
		if e.LessonNumber != nil {
			n = *e.LessonNumber
		}
		if n > weeks {
			weeks = n
		}
	}
	if weeks == 0 {
		return models.ScheduleConfig{}, false
	}
	return models.ScheduleConfig{TotalWeeks: weeks, LessonsPerWeek: 1}, true
}

type importer struct {
	target  Target
	cfg     models.ScheduleConfig
	resolve Resolver
	bands   models.BandTable

	// lessons found occupied on first touch
	filled map[int]bool
	result Result
}

func (imp *importer) groups(groups []models.LessonTechniqueGroup) {
	for _, g := range groups {
		if !imp.inRange(g.LessonNumber) {
			imp.result.Ignored += len(g.Techniques)
			continue
		}
		for _, src := range g.Techniques {
			t, ok := imp.technique(src.ID, &src)
			if !ok {
				imp.result.Ignored++
				continue
			}
			imp.insert(g.LessonNumber, t)
		}
	}
}

// flat spreads week-tagged entries round-robin over that week's lessons
// in orderIndex order. Entries carrying an explicit lesson number keep it.
func (imp *importer) flat(entries []models.TechniqueAssignment) {
	sorted := make([]models.TechniqueAssignment, len(entries))
	copy(sorted, entries)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].OrderIndex < sorted[j].OrderIndex
	})

	perWeek := make(map[int]int)
	for _, e := range sorted {
		t, ok := imp.technique(e.TechniqueID, e.Technique)
		if !ok {
			imp.result.Ignored++
			continue
		}

		if e.LessonNumber != nil {
			if !imp.inRange(*e.LessonNumber) {
				imp.result.Ignored++
				continue
			}
			imp.insert(*e.LessonNumber, t)
			continue
		}

		if schedule.Validate(imp.cfg) != nil || e.WeekNumber < 1 || e.WeekNumber > imp.cfg.TotalWeeks {
			imp.result.Ignored++
			continue
		}

		lessons := schedule.LessonsOfWeek(imp.cfg, e.WeekNumber)
		lesson := lessons[perWeek[e.WeekNumber]%len(lessons)]
		perWeek[e.WeekNumber]++
		imp.insert(lesson, t)
	}
}

func (imp *importer) insert(lesson int, t models.Technique) {
	occupied, seen := imp.filled[lesson]
	if !seen {
		occupied = imp.target.Filled(lesson)
		imp.filled[lesson] = occupied
		if occupied {
			imp.result.SkippedLessons++
		}
	}
	if occupied {
		return
	}
	if imp.target.Add(lesson, t) {
		imp.result.Inserted++
	}
}

// technique prefers the loaded catalog entry, then the embedded record,
// then an id-only placeholder that renders as unknown
func (imp *importer) technique(id string, embedded *models.SourceTechnique) (models.Technique, bool) {
	if id == "" && embedded != nil {
		id = embedded.ID
	}
	if id == "" {
		return models.Technique{}, false
	}
	if imp.resolve != nil {
		if t, ok := imp.resolve(id); ok {
			return t, true
		}
	}
	if embedded != nil {
		src := *embedded
		src.ID = id
		if t, ok := catalog.FromSourceTechnique(src, imp.bands); ok {
			return t, true
		}
	}
	return models.Technique{ID: id, Category: models.DefaultCategory, Band: models.BandBeginner}, true
}

func (imp *importer) inRange(lesson int) bool {
	if lesson < 1 {
		return false
	}
	if schedule.Validate(imp.cfg) != nil {
		return true
	}
	return lesson <= imp.cfg.TotalLessons()
}

// Export is the save payload together with the grouping it was flattened from
type Export struct {
	Techniques []models.TechniqueAssignment `json:"techniques"`

	groups []models.LessonTechniqueGroup
}

// ExportStore flattens the store in lesson order. orderIndex is the
// 1-based position across all lessons.
func ExportStore(store *assignment.Store, cfg models.ScheduleConfig) Export {
	out := Export{Techniques: []models.TechniqueAssignment{}}

	order := 0
	for _, lesson := range store.Lessons() {
		list := store.Lesson(lesson)
		group := models.LessonTechniqueGroup{
			LessonNumber: lesson,
			Techniques:   make([]models.LessonTechnique, 0, len(list)),
		}
		for _, t := range list {
			order++
			out.Techniques = append(out.Techniques, models.TechniqueAssignment{
				TechniqueID:  t.ID,
				OrderIndex:   order,
				WeekNumber:   schedule.WeekOf(cfg, lesson),
				LessonNumber: nil,
				IsRequired:   true,
			})
			group.Techniques = append(group.Techniques, toLessonTechnique(t))
		}
		out.groups = append(out.groups, group)
	}

	return out
}

// AsLessonGroups returns the per-lesson grouping of the exported store
func (e Export) AsLessonGroups() []models.LessonTechniqueGroup {
	out := make([]models.LessonTechniqueGroup, len(e.groups))
	copy(out, e.groups)
	return out
}

func toLessonTechnique(t models.Technique) models.LessonTechnique {
	return models.LessonTechnique{
		ID:          t.ID,
		Name:        t.Name,
		Category:    t.Category,
		Difficulty:  models.RawLevel(t.Band),
		DurationMin: t.DurationMinutes,
		Description: t.Description,
	}
}

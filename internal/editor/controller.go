// Package editor hosts the per-session controller that owns an
// assignment store and serializes every mutation of it.
package editor

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math/rand"
	"sync"
	"time"

	"github.com/terra-clan/curriculum-engine/internal/assignment"
	"github.com/terra-clan/curriculum-engine/internal/engine"
	"github.com/terra-clan/curriculum-engine/internal/models"
	"github.com/terra-clan/curriculum-engine/internal/progression"
	"github.com/terra-clan/curriculum-engine/internal/schedule"
	"github.com/terra-clan/curriculum-engine/internal/transfer"
)

var (
	ErrNoSchedule = errors.New("no schedule has been generated")
	ErrNoCourse   = errors.New("editor is not bound to a course")
	ErrSaveFailed = errors.New("failed to save course techniques")
)

// UnknownTechniqueName labels entries whose technique is no longer known
const UnknownTechniqueName = "Unknown technique"

// Move semantics for drag/drop
const (
	MoveCopy = "copy"
	MoveMove = "move"
)

// Op is an assignment mutation
type Op string

const (
	OpAdd    Op = "add"
	OpRemove Op = "remove"
)

// Catalog is the technique source a controller reads from
type Catalog interface {
	Catalog() []models.Technique
	Lookup(id string) (models.Technique, bool)
	Load(ctx context.Context) []models.Technique
}

// CourseRepository reads and replaces persisted course content.
// *client.Client and *storage.PostgresRepository implement it.
type CourseRepository interface {
	GetCourse(ctx context.Context, id string) (*models.CourseRecord, error)
	GetLessonTechniques(ctx context.Context, courseID string) ([]models.LessonTechniqueGroup, error)
	ReplaceCourseTechniques(ctx context.Context, courseID string, techniques []models.TechniqueAssignment) error
}

// Options configures a controller
type Options struct {
	Profile       *progression.Profile
	MoveSemantics string
	CatalogWait   time.Duration
	Seed          int64
	Rand          engine.RandSource
}

// Controller is the single owner of one editor session's store
type Controller struct {
	id       string
	courseID string

	catalog Catalog
	repo    CourseRepository
	opts    Options
	rand    engine.RandSource

	mu           sync.Mutex
	store        *assignment.Store
	cfg          *models.ScheduleConfig
	createdAt    time.Time
	lastActivity time.Time

	feed *feed
}

// NewController creates a controller with an empty store
func NewController(id, courseID string, catalog Catalog, repo CourseRepository, opts Options) *Controller {
	if opts.Profile == nil {
		opts.Profile = progression.Default()
	}
	if opts.MoveSemantics == "" {
		opts.MoveSemantics = MoveCopy
	}
	if opts.CatalogWait <= 0 {
		opts.CatalogWait = 10 * time.Second
	}

	r := opts.Rand
	if r == nil {
		seed := opts.Seed
		if seed == 0 {
			seed = time.Now().UnixNano()
		}
		r = rand.New(rand.NewSource(seed))
	}

	now := time.Now()
	return &Controller{
		id:           id,
		courseID:     courseID,
		catalog:      catalog,
		repo:         repo,
		opts:         opts,
		rand:         r,
		store:        assignment.New(),
		createdAt:    now,
		lastActivity: now,
		feed:         newFeed(),
	}
}

// ID returns the session id
func (c *Controller) ID() string {
	return c.id
}

// CourseID returns the bound course, if any
func (c *Controller) CourseID() string {
	return c.courseID
}

// GenerateSchedule validates cfg, makes sure the catalog has loaded and
// replaces the store with a fresh auto-assignment.
func (c *Controller) GenerateSchedule(ctx context.Context, cfg models.ScheduleConfig) (*models.ScheduleView, error) {
	if err := schedule.Validate(cfg); err != nil {
		return nil, err
	}

	techniques := c.catalog.Catalog()
	if len(techniques) == 0 {
		waitCtx, cancel := context.WithTimeout(ctx, c.opts.CatalogWait)
		techniques = c.catalog.Load(waitCtx)
		cancel()
		if len(techniques) == 0 {
			slog.Warn("generating schedule with an empty catalog", "editor_id", c.id)
		}
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	c.touch()

	plan := engine.AutoAssign(cfg.TotalLessons(), techniques, c.engineOptions())

	c.store.Reset()
	for lesson := 1; lesson <= cfg.TotalLessons(); lesson++ {
		c.store.Ensure(lesson)
		for _, t := range plan[lesson] {
			c.insert(lesson, t)
		}
	}
	c.cfg = &cfg

	stats := c.stats()
	slog.Info("schedule generated",
		"editor_id", c.id,
		"weeks", cfg.TotalWeeks,
		"lessons_per_week", cfg.LessonsPerWeek,
		"catalog_size", len(techniques),
		"assigned", stats.TotalAssigned,
	)
	c.feed.publish(Event{Type: EventScheduleGenerated, Stats: stats})

	return c.view()
}

// Schedule returns the current schedule projection
func (c *Controller) Schedule() (*models.ScheduleView, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.view()
}

// GetAssignment returns the techniques of a lesson, empty when unknown
func (c *Controller) GetAssignment(lesson int) []models.TechniqueView {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.lessonView(lesson)
}

// AddTechnique appends a technique to a lesson. The technique is looked
// up in the catalog, then among techniques assigned elsewhere.
func (c *Controller) AddTechnique(lesson int, techniqueID string) models.MutationResult {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.touch()

	changed := c.add(lesson, techniqueID)
	return c.result(EventTechniqueAdded, lesson, techniqueID, changed)
}

// RemoveTechnique drops a technique from a lesson
func (c *Controller) RemoveTechnique(lesson int, techniqueID string) models.MutationResult {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.touch()

	changed := c.store.Remove(lesson, techniqueID)
	return c.result(EventTechniqueRemoved, lesson, techniqueID, changed)
}

// MoveTechnique handles a drag/drop. The technique is added to the
// destination; with move semantics it then leaves the source lesson.
func (c *Controller) MoveTechnique(techniqueID string, from, to int) models.MutationResult {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.touch()

	changed := c.add(to, techniqueID)
	if changed && c.opts.MoveSemantics == MoveMove && from != to {
		if c.store.Remove(from, techniqueID) {
			c.feed.publish(Event{
				Type:        EventTechniqueRemoved,
				Lesson:      from,
				TechniqueID: techniqueID,
				Techniques:  c.lessonView(from),
				Stats:       c.stats(),
			})
		}
	}
	return c.result(EventTechniqueMoved, to, techniqueID, changed)
}

// MutateAssignment applies an add or remove
func (c *Controller) MutateAssignment(op Op, lesson int, techniqueID string) (models.MutationResult, error) {
	switch op {
	case OpAdd:
		return c.AddTechnique(lesson, techniqueID), nil
	case OpRemove:
		return c.RemoveTechnique(lesson, techniqueID), nil
	}
	return models.MutationResult{}, fmt.Errorf("unknown operation %q", op)
}

// Stats aggregates the store
func (c *Controller) Stats() models.ScheduleStats {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.stats()
}

// ExportForSave flattens the store into the save payload. Week numbers
// need a schedule, so a non-empty store without one is refused.
func (c *Controller) ExportForSave() (transfer.Export, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.cfg == nil && c.store.Stats().TotalAssigned > 0 {
		return transfer.Export{}, ErrNoSchedule
	}
	return transfer.ExportStore(c.store, c.config()), nil
}

// ImportFromPersisted merges persisted course data into the store,
// filling only lessons that are still empty. A course schedule is adopted
// when no schedule has been generated yet. Without one, an empty store
// takes a schedule inferred from a week-tagged flat list.
func (c *Controller) ImportFromPersisted(data transfer.CourseData) transfer.Result {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.touch()

	if c.cfg == nil && data.Course != nil && data.Course.Schedule != nil {
		cfg := models.ScheduleConfig{
			TotalWeeks:     data.Course.Schedule.Weeks,
			LessonsPerWeek: data.Course.Schedule.LessonsPerWeek,
		}
		if schedule.Validate(cfg) == nil {
			c.cfg = &cfg
		}
	}
	if c.cfg == nil && c.store.Stats().TotalAssigned == 0 {
		if cfg, ok := transfer.InferConfig(data); ok {
			c.cfg = &cfg
			slog.Info("schedule inferred from persisted techniques",
				"editor_id", c.id,
				"weeks", cfg.TotalWeeks,
			)
		}
	}

	res := transfer.Import(storeTarget{c}, c.config(), data, c.catalog.Lookup, c.opts.Profile.BandTable())
	if res.Inserted > 0 {
		c.feed.publish(Event{Type: EventImported, Stats: c.stats()})
	}
	return res
}

// Info describes the session
func (c *Controller) Info() models.EditorInfo {
	c.mu.Lock()
	defer c.mu.Unlock()

	info := models.EditorInfo{
		ID:           c.id,
		CourseID:     c.courseID,
		Stats:        c.stats(),
		CreatedAt:    c.createdAt,
		LastActivity: c.lastActivity,
	}
	if c.cfg != nil {
		cfg := *c.cfg
		info.Config = &cfg
	}
	return info
}

// LastActivity returns when the session was last used
func (c *Controller) LastActivity() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.lastActivity
}

// Subscribe registers a listener for store changes. The returned func
// unsubscribes.
func (c *Controller) Subscribe() (<-chan Event, func()) {
	return c.feed.subscribe()
}

// Close drops every subscriber
func (c *Controller) Close() {
	c.feed.close()
}

// storeTarget routes imports through the controller's insert path
type storeTarget struct{ c *Controller }

func (t storeTarget) Filled(lesson int) bool { return t.c.store.Filled(lesson) }

func (t storeTarget) Add(lesson int, tech models.Technique) bool { return t.c.insert(lesson, tech) }

// insert is the single write path into the store; Store.Add enforces
// at most one occurrence per lesson.
func (c *Controller) insert(lesson int, t models.Technique) bool {
	return c.store.Add(lesson, t)
}

func (c *Controller) add(lesson int, techniqueID string) bool {
	if !c.lessonInRange(lesson) || techniqueID == "" {
		return false
	}

	t, ok := c.catalog.Lookup(techniqueID)
	if !ok {
		t, ok = c.store.Find(techniqueID)
	}
	if !ok {
		slog.Debug("technique not found", "editor_id", c.id, "technique_id", techniqueID)
		return false
	}
	return c.insert(lesson, t)
}

func (c *Controller) lessonInRange(lesson int) bool {
	if lesson < 1 {
		return false
	}
	return c.cfg == nil || lesson <= c.cfg.TotalLessons()
}

func (c *Controller) result(event EventType, lesson int, techniqueID string, changed bool) models.MutationResult {
	res := models.MutationResult{
		Changed:    changed,
		Lesson:     lesson,
		Techniques: c.lessonView(lesson),
	}
	if changed {
		c.feed.publish(Event{
			Type:        event,
			Lesson:      lesson,
			TechniqueID: techniqueID,
			Techniques:  res.Techniques,
			Stats:       c.stats(),
		})
	}
	return res
}

func (c *Controller) engineOptions() engine.Options {
	foundation, development := c.opts.Profile.Thresholds()
	return engine.Options{
		MinPerLesson:     c.opts.Profile.MinPerLesson,
		MaxPerLesson:     c.opts.Profile.MaxPerLesson,
		FoundationUntil:  foundation,
		DevelopmentUntil: development,
		Rand:             c.rand,
	}
}

func (c *Controller) config() models.ScheduleConfig {
	if c.cfg == nil {
		return models.ScheduleConfig{}
	}
	return *c.cfg
}

func (c *Controller) view() (*models.ScheduleView, error) {
	if c.cfg == nil {
		return nil, ErrNoSchedule
	}

	v, err := schedule.Build(*c.cfg, c.opts.Profile)
	if err != nil {
		return nil, err
	}
	for w := range v.Weeks {
		for l := range v.Weeks[w].Lessons {
			slot := &v.Weeks[w].Lessons[l]
			slot.Techniques = c.lessonView(slot.Number)
		}
	}
	v.Stats = c.stats()
	return v, nil
}

func (c *Controller) stats() models.ScheduleStats {
	st := c.store.Stats()
	total := st.TotalLessons
	if c.cfg != nil {
		total = c.cfg.TotalLessons()
	}
	return models.ScheduleStats{
		TotalLessons:       total,
		TotalAssigned:      st.TotalAssigned,
		DistinctTechniques: c.store.Distinct(),
	}
}

// lessonView resolves stored entries against the current catalog
func (c *Controller) lessonView(lesson int) []models.TechniqueView {
	list := c.store.Lesson(lesson)
	out := make([]models.TechniqueView, 0, len(list))
	for _, stored := range list {
		if t, ok := c.catalog.Lookup(stored.ID); ok {
			out = append(out, techniqueView(t, false))
			continue
		}
		v := techniqueView(stored, true)
		if v.Name == "" {
			v.Name = UnknownTechniqueName
		}
		out = append(out, v)
	}
	return out
}

func techniqueView(t models.Technique, unknown bool) models.TechniqueView {
	return models.TechniqueView{
		ID:              t.ID,
		Name:            t.Name,
		Category:        t.Category,
		Band:            t.Band,
		DurationMinutes: t.DurationMinutes,
		Unknown:         unknown,
	}
}

func (c *Controller) touch() {
	c.lastActivity = time.Now()
}

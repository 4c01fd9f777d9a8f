package editor

import (
	"context"
	"fmt"
	"log/slog"

	"golang.org/x/sync/errgroup"

	"github.com/terra-clan/curriculum-engine/internal/models"
	"github.com/terra-clan/curriculum-engine/internal/transfer"
)

// Hydrate fetches the bound course and its per-lesson techniques
// concurrently and imports them. Fetch failures are logged and treated as
// missing data.
func (c *Controller) Hydrate(ctx context.Context) transfer.Result {
	if c.courseID == "" || c.repo == nil {
		return transfer.Result{}
	}

	var (
		course *models.CourseRecord
		groups []models.LessonTechniqueGroup
		g      errgroup.Group
	)

	g.Go(func() error {
		rec, err := c.repo.GetCourse(ctx, c.courseID)
		if err != nil {
			return fmt.Errorf("failed to get course: %w", err)
		}
		course = rec
		return nil
	})
	g.Go(func() error {
		lt, err := c.repo.GetLessonTechniques(ctx, c.courseID)
		if err != nil {
			return fmt.Errorf("failed to get lesson techniques: %w", err)
		}
		groups = lt
		return nil
	})

	if err := g.Wait(); err != nil {
		slog.Warn("course hydration incomplete",
			"editor_id", c.id,
			"course_id", c.courseID,
			"error", err,
		)
	}

	res := c.ImportFromPersisted(transfer.CourseData{Course: course, LessonTechniques: groups})
	slog.Info("editor hydrated",
		"editor_id", c.id,
		"course_id", c.courseID,
		"inserted", res.Inserted,
	)
	return res
}

// Save exports the store and fully replaces the course's persisted
// techniques. Collaborator errors are returned wrapped in ErrSaveFailed;
// a store that cannot be exported returns ErrNoSchedule.
func (c *Controller) Save(ctx context.Context) (transfer.Export, error) {
	if c.courseID == "" || c.repo == nil {
		return transfer.Export{}, ErrNoCourse
	}

	exp, err := c.ExportForSave()
	if err != nil {
		return exp, err
	}
	if err := c.repo.ReplaceCourseTechniques(ctx, c.courseID, exp.Techniques); err != nil {
		slog.Error("failed to save course techniques",
			"editor_id", c.id,
			"course_id", c.courseID,
			"error", err,
		)
		return exp, fmt.Errorf("%w: %w", ErrSaveFailed, err)
	}

	slog.Info("course techniques saved",
		"editor_id", c.id,
		"course_id", c.courseID,
		"count", len(exp.Techniques),
	)

	c.mu.Lock()
	c.feed.publish(Event{Type: EventSaved, Stats: c.stats()})
	c.mu.Unlock()

	return exp, nil
}

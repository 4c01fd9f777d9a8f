// Package schedule turns a course's coarse parameters into a concrete,
// lesson-by-lesson schedule shape.
package schedule

import (
	"errors"
	"fmt"

	"github.com/terra-clan/curriculum-engine/internal/models"
	"github.com/terra-clan/curriculum-engine/internal/progression"
)

// ErrInvalidConfig is returned for schedules that cannot be generated
var ErrInvalidConfig = errors.New("invalid schedule configuration")

// ValidationError carries a user-facing message
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return e.Message
}

func (e *ValidationError) Unwrap() error {
	return ErrInvalidConfig
}

// Validate rejects non-positive weeks and lessons per week
func Validate(cfg models.ScheduleConfig) error {
	if cfg.TotalWeeks <= 0 {
		return &ValidationError{Field: "totalWeeks", Message: "the number of weeks must be at least 1"}
	}
	if cfg.LessonsPerWeek <= 0 {
		return &ValidationError{Field: "lessonsPerWeek", Message: "the number of lessons per week must be at least 1"}
	}
	return nil
}

// LessonNumber returns the 1-based lesson number of position pos in week
func LessonNumber(cfg models.ScheduleConfig, week, pos int) int {
	return (week-1)*cfg.LessonsPerWeek + pos
}

// WeekOf returns the 1-based week a lesson number falls into
func WeekOf(cfg models.ScheduleConfig, lesson int) int {
	if cfg.LessonsPerWeek <= 0 || lesson <= 0 {
		return 1
	}
	return (lesson-1)/cfg.LessonsPerWeek + 1
}

// PositionInWeek returns the 1-based position of a lesson within its week
func PositionInWeek(cfg models.ScheduleConfig, lesson int) int {
	if cfg.LessonsPerWeek <= 0 || lesson <= 0 {
		return 1
	}
	return (lesson-1)%cfg.LessonsPerWeek + 1
}

// LessonsOfWeek returns the lesson numbers of a week in order
func LessonsOfWeek(cfg models.ScheduleConfig, week int) []int {
	lessons := make([]int, 0, cfg.LessonsPerWeek)
	for pos := 1; pos <= cfg.LessonsPerWeek; pos++ {
		lessons = append(lessons, LessonNumber(cfg, week, pos))
	}
	return lessons
}

// LessonTitle is the default display title of a lesson
func LessonTitle(week, pos int) string {
	return fmt.Sprintf("Week %d - Lesson %d", week, pos)
}

// Build produces the ordered schedule shape. Lesson slots carry no
// techniques; callers project the assignment store onto them.
func Build(cfg models.ScheduleConfig, profile *progression.Profile) (*models.ScheduleView, error) {
	if err := Validate(cfg); err != nil {
		return nil, err
	}

	view := &models.ScheduleView{
		Config: cfg,
		Weeks:  make([]models.WeekView, 0, cfg.TotalWeeks),
		Stats:  models.ScheduleStats{TotalLessons: cfg.TotalLessons()},
	}

	for week := 1; week <= cfg.TotalWeeks; week++ {
		stage, focus := WeekFocus(profile, week, cfg.TotalWeeks)
		wv := models.WeekView{
			Number:  week,
			Stage:   stage,
			Focus:   focus,
			Lessons: make([]models.LessonSlot, 0, cfg.LessonsPerWeek),
		}
		for pos := 1; pos <= cfg.LessonsPerWeek; pos++ {
			wv.Lessons = append(wv.Lessons, models.LessonSlot{
				Number:         LessonNumber(cfg, week, pos),
				Week:           week,
				PositionInWeek: pos,
				Title:          LessonTitle(week, pos),
				Techniques:     []models.TechniqueView{},
			})
		}
		view.Weeks = append(view.Weeks, wv)
	}

	return view, nil
}

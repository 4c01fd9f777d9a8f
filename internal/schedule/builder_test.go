package schedule

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/terra-clan/curriculum-engine/internal/models"
	"github.com/terra-clan/curriculum-engine/internal/progression"
)

func TestValidate(t *testing.T) {
	require.NoError(t, Validate(models.ScheduleConfig{TotalWeeks: 1, LessonsPerWeek: 1}))

	err := Validate(models.ScheduleConfig{TotalWeeks: 0, LessonsPerWeek: 2})
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrInvalidConfig))

	var verr *ValidationError
	require.True(t, errors.As(err, &verr))
	assert.Equal(t, "totalWeeks", verr.Field)

	err = Validate(models.ScheduleConfig{TotalWeeks: 3, LessonsPerWeek: -1})
	require.True(t, errors.As(err, &verr))
	assert.Equal(t, "lessonsPerWeek", verr.Field)
}

func TestLessonCoordinates(t *testing.T) {
	cfg := models.ScheduleConfig{TotalWeeks: 4, LessonsPerWeek: 3}

	for lesson := 1; lesson <= cfg.TotalLessons(); lesson++ {
		week := WeekOf(cfg, lesson)
		pos := PositionInWeek(cfg, lesson)
		assert.Equal(t, lesson, LessonNumber(cfg, week, pos), "lesson %d", lesson)
	}

	assert.Equal(t, 1, WeekOf(cfg, 3))
	assert.Equal(t, 2, WeekOf(cfg, 4))
	assert.Equal(t, 3, PositionInWeek(cfg, 6))
	assert.Equal(t, []int{7, 8, 9}, LessonsOfWeek(cfg, 3))
}

func TestBuild(t *testing.T) {
	cfg := models.ScheduleConfig{TotalWeeks: 4, LessonsPerWeek: 2}

	view, err := Build(cfg, progression.Default())
	require.NoError(t, err)

	require.Len(t, view.Weeks, 4)
	assert.Equal(t, 8, view.Stats.TotalLessons)

	number := 1
	for _, week := range view.Weeks {
		require.Len(t, week.Lessons, 2)
		for _, slot := range week.Lessons {
			assert.Equal(t, number, slot.Number)
			assert.Equal(t, week.Number, slot.Week)
			assert.NotNil(t, slot.Techniques)
			number++
		}
	}

	assert.Equal(t, "Week 2 - Lesson 1", view.Weeks[1].Lessons[0].Title)
}

func TestBuildRejectsInvalidConfig(t *testing.T) {
	view, err := Build(models.ScheduleConfig{TotalWeeks: 2}, progression.Default())
	assert.Nil(t, view)
	assert.ErrorIs(t, err, ErrInvalidConfig)
}

func TestWeekFocusFollowsStages(t *testing.T) {
	profile := progression.Default()

	stages := make([]models.ProgressStage, 0, 10)
	for week := 1; week <= 10; week++ {
		stage, focus := WeekFocus(profile, week, 10)
		assert.NotEmpty(t, focus)
		stages = append(stages, stage)
	}

	assert.Equal(t, []models.ProgressStage{
		models.StageFoundation, models.StageFoundation, models.StageFoundation,
		models.StageDevelopment, models.StageDevelopment, models.StageDevelopment, models.StageDevelopment,
		models.StageMastery, models.StageMastery, models.StageMastery,
	}, stages)

	_, first := WeekFocus(profile, 1, 10)
	_, second := WeekFocus(profile, 2, 10)
	_, dev := WeekFocus(profile, 4, 10)
	assert.Equal(t, "Fundamentals: stance, posture and coordination", first)
	assert.Equal(t, "Fundamentals: fundamental techniques", second)
	assert.Equal(t, "Development: technical precision", dev)
}

func TestWeekFocusIsPure(t *testing.T) {
	profile := progression.Default()
	_, a := WeekFocus(profile, 5, 12)
	_, b := WeekFocus(profile, 5, 12)
	assert.Equal(t, a, b)
}

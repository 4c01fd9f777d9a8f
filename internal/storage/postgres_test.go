package storage

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/terra-clan/curriculum-engine/internal/models"
)

func lessonPtr(n int) *int { return &n }

func TestGroupByLesson(t *testing.T) {
	groups := groupByLesson([]models.TechniqueAssignment{
		{TechniqueID: "a", LessonNumber: lessonPtr(2), Technique: &models.SourceTechnique{ID: "a", Name: "Jab"}},
		{TechniqueID: "b", LessonNumber: nil},
		{TechniqueID: "c", LessonNumber: lessonPtr(1)},
		{TechniqueID: "d", LessonNumber: lessonPtr(2)},
	})

	require.Len(t, groups, 2)
	assert.Equal(t, 2, groups[0].LessonNumber)
	require.Len(t, groups[0].Techniques, 2)
	assert.Equal(t, "Jab", groups[0].Techniques[0].Name)
	assert.Equal(t, "d", groups[0].Techniques[1].ID)
	assert.Equal(t, 1, groups[1].LessonNumber)
}

func TestGroupByLessonEmpty(t *testing.T) {
	groups := groupByLesson(nil)
	assert.NotNil(t, groups)
	assert.Empty(t, groups)
}

func TestPagingHelpers(t *testing.T) {
	page, limit := clampPage(0, 500)
	assert.Equal(t, 1, page)
	assert.Equal(t, MaxPageSize, limit)

	page, limit = clampPage(3, 20)
	assert.Equal(t, 3, page)
	assert.Equal(t, 20, limit)

	assert.Equal(t, 0, totalPages(0, 100))
	assert.Equal(t, 1, totalPages(100, 100))
	assert.Equal(t, 2, totalPages(101, 100))
}

func TestNullIntRoundTrip(t *testing.T) {
	assert.Nil(t, intPtr(nullInt(nil)))
	got := intPtr(nullInt(lessonPtr(7)))
	require.NotNil(t, got)
	assert.Equal(t, 7, *got)
}

func TestEmbeddedMigrations(t *testing.T) {
	names, err := listMigrations(Migrations())
	require.NoError(t, err)
	assert.Equal(t, []string{"001_initial.sql", "002_api_clients.sql"}, names)
}

// TestPostgresRepository runs against a real database when
// TEST_DATABASE_URL is set.
func TestPostgresRepository(t *testing.T) {
	dsn := os.Getenv("TEST_DATABASE_URL")
	if dsn == "" {
		t.Skip("TEST_DATABASE_URL not set")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	repo, err := NewPostgresRepository(ctx, PostgresConfig{DSN: dsn})
	require.NoError(t, err)
	defer repo.Close()

	require.NoError(t, RunMigrations(ctx, repo.Pool(), Migrations()))

	_, err = repo.pool.Exec(ctx, `
		INSERT INTO courses (id, name, schedule_weeks, schedule_lessons_per_week)
		VALUES ('it-course', 'Integration', 2, 2)
		ON CONFLICT (id) DO NOTHING
	`)
	require.NoError(t, err)
	_, err = repo.pool.Exec(ctx, `
		INSERT INTO techniques (id, name, complexity, duration_min)
		VALUES ('it-a', 'Jab', 'BASICA', 5), ('it-b', 'Armlock', 'AVANCADA', NULL)
		ON CONFLICT (id) DO NOTHING
	`)
	require.NoError(t, err)

	err = repo.ReplaceCourseTechniques(ctx, "it-course", []models.TechniqueAssignment{
		{TechniqueID: "it-a", OrderIndex: 1, WeekNumber: 1, IsRequired: true},
		{TechniqueID: "it-b", OrderIndex: 2, WeekNumber: 2, LessonNumber: lessonPtr(4), IsRequired: true},
	})
	require.NoError(t, err)

	course, err := repo.GetCourse(ctx, "it-course")
	require.NoError(t, err)
	require.NotNil(t, course.Schedule)
	assert.Equal(t, 2, course.Schedule.Weeks)
	require.Len(t, course.Techniques, 2)
	assert.Equal(t, "Jab", course.Techniques[0].Technique.Name)

	groups, err := repo.GetLessonTechniques(ctx, "it-course")
	require.NoError(t, err)
	require.Len(t, groups, 1)
	assert.Equal(t, 4, groups[0].LessonNumber)

	_, err = repo.GetCourse(ctx, "missing-course")
	assert.ErrorIs(t, err, ErrCourseNotFound)
	assert.ErrorIs(t, repo.ReplaceCourseTechniques(ctx, "missing-course", nil), ErrCourseNotFound)

	page, err := repo.ListTechniques(ctx, 1, 1)
	require.NoError(t, err)
	assert.Len(t, page.Techniques, 1)
	assert.GreaterOrEqual(t, page.Pagination.TotalPages, 2)
}

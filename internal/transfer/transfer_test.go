package transfer

import (
	"sort"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/terra-clan/curriculum-engine/internal/assignment"
	"github.com/terra-clan/curriculum-engine/internal/models"
)

var cfg = models.ScheduleConfig{TotalWeeks: 3, LessonsPerWeek: 2}

func tech(id string, band models.DifficultyBand) models.Technique {
	return models.Technique{ID: id, Name: "Technique " + id, Category: models.DefaultCategory, Band: band}
}

func ids(list []models.Technique) []string {
	out := make([]string, 0, len(list))
	for _, t := range list {
		out = append(out, t.ID)
	}
	sort.Strings(out)
	return out
}

func catalogResolver(techs ...models.Technique) Resolver {
	byID := map[string]models.Technique{}
	for _, t := range techs {
		byID[t.ID] = t
	}
	return func(id string) (models.Technique, bool) {
		t, ok := byID[id]
		return t, ok
	}
}

func TestExportFlattensInLessonOrder(t *testing.T) {
	store := assignment.New()
	store.Add(3, tech("c", models.BandIntermediate))
	store.Add(1, tech("a", models.BandBeginner))
	store.Add(1, tech("b", models.BandBeginner))
	store.Add(6, tech("a", models.BandBeginner))

	exp := ExportStore(store, cfg)

	require.Len(t, exp.Techniques, 4)
	want := []struct {
		id    string
		order int
		week  int
	}{{"a", 1, 1}, {"b", 2, 1}, {"c", 3, 2}, {"a", 4, 3}}
	for i, w := range want {
		got := exp.Techniques[i]
		assert.Equal(t, w.id, got.TechniqueID)
		assert.Equal(t, w.order, got.OrderIndex)
		assert.Equal(t, w.week, got.WeekNumber)
		assert.Nil(t, got.LessonNumber)
		assert.True(t, got.IsRequired)
	}
}

func TestExportEmptyStore(t *testing.T) {
	exp := ExportStore(assignment.New(), cfg)
	assert.NotNil(t, exp.Techniques)
	assert.Empty(t, exp.Techniques)
	assert.Empty(t, exp.AsLessonGroups())
}

func TestRoundTrip(t *testing.T) {
	original := assignment.New()
	original.Add(1, tech("a", models.BandBeginner))
	original.Add(1, tech("b", models.BandBeginner))
	original.Add(2, tech("b", models.BandBeginner))
	original.Add(5, tech("z", models.BandAdvanced))
	original.Ensure(4)

	exp := ExportStore(original, cfg)
	restored := assignment.New()
	Import(restored, cfg, CourseData{LessonTechniques: exp.AsLessonGroups()}, nil, nil)

	for _, lesson := range []int{1, 2, 5} {
		assert.Equal(t, ids(original.Lesson(lesson)), ids(restored.Lesson(lesson)), "lesson %d", lesson)
	}
	z, ok := restored.Find("z")
	require.True(t, ok)
	assert.Equal(t, models.BandAdvanced, z.Band)
	assert.Equal(t, "Technique z", z.Name)
}

func TestImportFillsGapsOnly(t *testing.T) {
	store := assignment.New()
	store.Add(1, tech("kept", models.BandBeginner))

	res := Import(store, cfg, CourseData{LessonTechniques: []models.LessonTechniqueGroup{
		{LessonNumber: 1, Techniques: []models.LessonTechnique{{ID: "x"}, {ID: "y"}}},
		{LessonNumber: 2, Techniques: []models.LessonTechnique{{ID: "x"}, {ID: "y"}}},
	}}, nil, nil)

	assert.Equal(t, []string{"kept"}, ids(store.Lesson(1)))
	assert.Equal(t, []string{"x", "y"}, ids(store.Lesson(2)))
	assert.Equal(t, 2, res.Inserted)
	assert.Equal(t, 1, res.SkippedLessons)
}

func TestImportPrefersCatalogEntries(t *testing.T) {
	store := assignment.New()
	resolve := catalogResolver(tech("x", models.BandAdvanced))

	Import(store, cfg, CourseData{LessonTechniques: []models.LessonTechniqueGroup{
		{LessonNumber: 2, Techniques: []models.LessonTechnique{{ID: "x", Name: "stale name"}, {ID: "ghost"}}},
	}}, resolve, nil)

	x, ok := store.Find("x")
	require.True(t, ok)
	assert.Equal(t, "Technique x", x.Name)

	ghost, ok := store.Find("ghost")
	require.True(t, ok)
	assert.Equal(t, "ghost", ghost.Name)
}

func TestImportGroupsPrecedeFlatList(t *testing.T) {
	store := assignment.New()
	Import(store, cfg, CourseData{
		Course: &models.CourseRecord{Techniques: []models.TechniqueAssignment{
			{TechniqueID: "flat", WeekNumber: 1, OrderIndex: 1},
		}},
		LessonTechniques: []models.LessonTechniqueGroup{
			{LessonNumber: 1, Techniques: []models.LessonTechnique{{ID: "grouped"}}},
		},
	}, nil, nil)

	assert.Equal(t, []string{"grouped"}, ids(store.Lesson(1)))
	_, ok := store.Find("flat")
	assert.False(t, ok)
}

func TestImportFlatListRoundRobinWithinWeek(t *testing.T) {
	store := assignment.New()
	lessonFive := 5

	res := Import(store, cfg, CourseData{Course: &models.CourseRecord{Techniques: []models.TechniqueAssignment{
		{TechniqueID: "w2-c", WeekNumber: 2, OrderIndex: 3},
		{TechniqueID: "w2-a", WeekNumber: 2, OrderIndex: 1},
		{TechniqueID: "w2-b", WeekNumber: 2, OrderIndex: 2},
		{TechniqueID: "pinned", WeekNumber: 3, OrderIndex: 4, LessonNumber: &lessonFive},
		{TechniqueID: "late", WeekNumber: 9, OrderIndex: 5},
		{OrderIndex: 6},
	}}}, nil, nil)

	assert.Equal(t, []string{"w2-a", "w2-c"}, ids(store.Lesson(3)))
	assert.Equal(t, []string{"w2-b"}, ids(store.Lesson(4)))
	assert.Equal(t, []string{"pinned"}, ids(store.Lesson(5)))
	assert.Equal(t, 4, res.Inserted)
	assert.Equal(t, 2, res.Ignored)
}

func TestImportIgnoresOutOfRangeLessons(t *testing.T) {
	store := assignment.New()
	res := Import(store, cfg, CourseData{LessonTechniques: []models.LessonTechniqueGroup{
		{LessonNumber: 0, Techniques: []models.LessonTechnique{{ID: "a"}}},
		{LessonNumber: 7, Techniques: []models.LessonTechnique{{ID: "b"}}},
	}}, nil, nil)

	assert.Equal(t, 0, store.Len())
	assert.Equal(t, 2, res.Ignored)
}

func TestImportNothing(t *testing.T) {
	store := assignment.New()
	res := Import(store, cfg, CourseData{}, nil, nil)
	assert.Equal(t, Result{}, res)
	assert.Equal(t, 0, store.Len())
}

func TestInferConfig(t *testing.T) {
	lessonSix := 6

	tests := []struct {
		name   string
		data   CourseData
		want   models.ScheduleConfig
		wantOK bool
	}{
		{
			name: "highest week",
			data: CourseData{Course: &models.CourseRecord{Techniques: []models.TechniqueAssignment{
				{TechniqueID: "a", WeekNumber: 1},
				{TechniqueID: "b", WeekNumber: 4},
			}}},
			want:   models.ScheduleConfig{TotalWeeks: 4, LessonsPerWeek: 1},
			wantOK: true,
		},
		{
			name: "explicit lesson number counts",
			data: CourseData{Course: &models.CourseRecord{Techniques: []models.TechniqueAssignment{
				{TechniqueID: "a", WeekNumber: 2},
				{TechniqueID: "b", WeekNumber: 1, LessonNumber: &lessonSix},
			}}},
			want:   models.ScheduleConfig{TotalWeeks: 6, LessonsPerWeek: 1},
			wantOK: true,
		},
		{
			name: "lesson groups",
			data: CourseData{LessonTechniques: []models.LessonTechniqueGroup{
				{LessonNumber: 3, Techniques: []models.LessonTechnique{{ID: "a"}}},
			}},
		},
		{
			name: "no week numbers",
			data: CourseData{Course: &models.CourseRecord{Techniques: []models.TechniqueAssignment{{TechniqueID: "a"}}}},
		},
		{
			name: "no course",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := InferConfig(tt.data)
			assert.Equal(t, tt.wantOK, ok)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestImportFlatListWithoutConfig(t *testing.T) {
	data := CourseData{Course: &models.CourseRecord{Techniques: []models.TechniqueAssignment{
		{TechniqueID: "a", WeekNumber: 1, OrderIndex: 1},
		{TechniqueID: "b", WeekNumber: 4, OrderIndex: 2},
	}}}

	store := assignment.New()
	res := Import(store, models.ScheduleConfig{}, data, nil, nil)
	assert.Equal(t, 2, res.Ignored)
	assert.Equal(t, 0, store.Len())

	inferred, ok := InferConfig(data)
	require.True(t, ok)
	res = Import(store, inferred, data, nil, nil)
	assert.Equal(t, 2, res.Inserted)
	assert.Equal(t, []string{"a"}, ids(store.Lesson(1)))
	assert.Equal(t, []string{"b"}, ids(store.Lesson(4)))

	exp := ExportStore(store, inferred)
	require.Len(t, exp.Techniques, 2)
	assert.Equal(t, 1, exp.Techniques[0].WeekNumber)
	assert.Equal(t, 4, exp.Techniques[1].WeekNumber)
}

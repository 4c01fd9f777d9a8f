package models

// ScheduleConfig holds the coarse course parameters a schedule is derived from
type ScheduleConfig struct {
	TotalWeeks     int `json:"totalWeeks"`
	LessonsPerWeek int `json:"lessonsPerWeek"`
}

// TotalLessons returns weeks x lessons-per-week
func (c ScheduleConfig) TotalLessons() int {
	return c.TotalWeeks * c.LessonsPerWeek
}

// ProgressStage is the coarse position of a week or lesson within the course
type ProgressStage string

const (
	StageFoundation  ProgressStage = "foundation"
	StageDevelopment ProgressStage = "development"
	StageMastery     ProgressStage = "mastery"
)

// TechniqueView is a renderer-facing technique entry. Entries whose
// technique left the catalog carry Unknown=true.
type TechniqueView struct {
	ID              string         `json:"id"`
	Name            string         `json:"name"`
	Category        string         `json:"category"`
	Band            DifficultyBand `json:"difficultyBand,omitempty"`
	DurationMinutes *int           `json:"durationMinutes,omitempty"`
	Unknown         bool           `json:"unknown,omitempty"`
}

// LessonSlot is one lesson of a schedule
type LessonSlot struct {
	Number         int             `json:"lessonNumber"`
	Week           int             `json:"week"`
	PositionInWeek int             `json:"positionInWeek"`
	Title          string          `json:"title"`
	Techniques     []TechniqueView `json:"techniques"`
}

// WeekView groups lessons of one week
type WeekView struct {
	Number  int           `json:"week"`
	Stage   ProgressStage `json:"stage"`
	Focus   string        `json:"focus"`
	Lessons []LessonSlot  `json:"lessons"`
}

// ScheduleStats aggregates the assignment store
type ScheduleStats struct {
	TotalLessons       int `json:"totalLessons"`
	TotalAssigned      int `json:"totalAssigned"`
	DistinctTechniques int `json:"distinctTechniques"`
}

// ScheduleView is the full projection handed to renderers
type ScheduleView struct {
	Config ScheduleConfig `json:"config"`
	Weeks  []WeekView     `json:"weeks"`
	Stats  ScheduleStats  `json:"stats"`
}

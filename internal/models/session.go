package models

import (
	"time"
)

// EditorInfo describes an open editor session
type EditorInfo struct {
	ID           string          `json:"id"`
	CourseID     string          `json:"courseId,omitempty"`
	Config       *ScheduleConfig `json:"config,omitempty"`
	Stats        ScheduleStats   `json:"stats"`
	CreatedAt    time.Time       `json:"createdAt"`
	LastActivity time.Time       `json:"lastActivity"`
}

// OpenEditorRequest opens an editor, optionally hydrated from a persisted course
type OpenEditorRequest struct {
	CourseID string `json:"courseId,omitempty"`
}

// GenerateScheduleRequest is the body of the schedule generation endpoint
type GenerateScheduleRequest struct {
	TotalWeeks     int `json:"totalWeeks"`
	LessonsPerWeek int `json:"lessonsPerWeek"`
}

// AddTechniqueRequest adds a technique to a lesson
type AddTechniqueRequest struct {
	TechniqueID string `json:"techniqueId"`
}

// MoveTechniqueRequest is a drag/drop between lessons
type MoveTechniqueRequest struct {
	TechniqueID string `json:"techniqueId"`
	FromLesson  int    `json:"fromLesson"`
	ToLesson    int    `json:"toLesson"`
}

// ImportRequest carries persisted course data to merge into an editor
type ImportRequest struct {
	Course           *CourseRecord          `json:"course,omitempty"`
	LessonTechniques []LessonTechniqueGroup `json:"lessonTechniques,omitempty"`
}

// MutationResult reports whether a store mutation changed anything
type MutationResult struct {
	Changed    bool            `json:"changed"`
	Lesson     int             `json:"lessonNumber"`
	Techniques []TechniqueView `json:"techniques"`
}

package models

// Activity is a record from GET /api/activities (primary catalog source)
type Activity struct {
	ID              string   `json:"id"`
	Title           string   `json:"title"`
	Name            string   `json:"name,omitempty"`
	Type            string   `json:"type"`
	Category        string   `json:"category,omitempty"`
	Description     string   `json:"description,omitempty"`
	Difficulty      RawLevel `json:"difficulty,omitempty"`
	DurationMinutes *int     `json:"durationMinutes,omitempty"`
	Duration        *int     `json:"duration,omitempty"`
}

// SourceTechnique is a record from GET /api/techniques (secondary source)
// and the nested technique of persisted assignments.
type SourceTechnique struct {
	ID                string   `json:"id"`
	Name              string   `json:"name"`
	Title             string   `json:"title,omitempty"`
	Category          string   `json:"category,omitempty"`
	Complexity        RawLevel `json:"complexity,omitempty"`
	Difficulty        RawLevel `json:"difficulty,omitempty"`
	DurationMin       *int     `json:"durationMin,omitempty"`
	AllocationMinutes *int     `json:"allocationMinutes,omitempty"`
	ShortDescription  string   `json:"shortDescription,omitempty"`
	Description       string   `json:"description,omitempty"`
}

// Pagination is the secondary source's page metadata
type Pagination struct {
	Page       int `json:"page"`
	Limit      int `json:"limit"`
	Total      int `json:"total"`
	TotalPages int `json:"totalPages"`
}

// TechniquePage is one page of the secondary source
type TechniquePage struct {
	Techniques []SourceTechnique `json:"techniques"`
	Pagination Pagination        `json:"pagination"`
}

// CourseSchedule is the optional schedule block of a persisted course
type CourseSchedule struct {
	Weeks          int `json:"weeks"`
	LessonsPerWeek int `json:"lessonsPerWeek"`
}

// CourseRecord is the subset of GET /api/courses/:id the engine consumes
type CourseRecord struct {
	ID         string                `json:"id"`
	Name       string                `json:"name"`
	Techniques []TechniqueAssignment `json:"techniques,omitempty"`
	Schedule   *CourseSchedule       `json:"schedule,omitempty"`
}

// LessonTechnique is a technique entry inside a lesson group
type LessonTechnique = SourceTechnique

// LessonTechniqueGroup is one element of GET /api/courses/:id/lesson-techniques
type LessonTechniqueGroup struct {
	LessonNumber int               `json:"lessonNumber"`
	Techniques   []LessonTechnique `json:"techniques"`
}

// TechniqueAssignment is the persisted flat representation of a scheduled technique
type TechniqueAssignment struct {
	TechniqueID  string           `json:"techniqueId"`
	OrderIndex   int              `json:"orderIndex"`
	WeekNumber   int              `json:"weekNumber"`
	LessonNumber *int             `json:"lessonNumber"`
	IsRequired   bool             `json:"isRequired"`
	Technique    *SourceTechnique `json:"technique,omitempty"`
}

// ReplaceTechniquesRequest is the body of POST /api/courses/:id/techniques
type ReplaceTechniquesRequest struct {
	Replace    bool                  `json:"replace"`
	Techniques []TechniqueAssignment `json:"techniques"`
}

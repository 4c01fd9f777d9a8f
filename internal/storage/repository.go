package storage

import (
	"context"
	"errors"

	"github.com/terra-clan/curriculum-engine/internal/models"
)

var (
	ErrCourseNotFound = errors.New("course not found")
)

// Repository defines the interface for direct course persistence
type Repository interface {
	// Courses
	GetCourse(ctx context.Context, id string) (*models.CourseRecord, error)
	GetLessonTechniques(ctx context.Context, courseID string) ([]models.LessonTechniqueGroup, error)
	ReplaceCourseTechniques(ctx context.Context, courseID string, techniques []models.TechniqueAssignment) error

	// Technique library
	ListTechniques(ctx context.Context, page, limit int) (*models.TechniquePage, error)

	// API Clients
	GetClientByApiKey(ctx context.Context, apiKey string) (*models.ApiClient, error)
	UpdateClientLastUsed(ctx context.Context, apiKey string) error

	// Health
	Ping(ctx context.Context) error
	Close() error
}

package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/terra-clan/curriculum-engine/internal/models"
)

// MaxPageSize is the largest technique page served
const MaxPageSize = 100

// PostgresRepository implements Repository using PostgreSQL
type PostgresRepository struct {
	pool *pgxpool.Pool
}

var _ Repository = (*PostgresRepository)(nil)

// PostgresConfig holds PostgreSQL connection configuration
type PostgresConfig struct {
	DSN          string
	MaxOpenConns int32
	MaxIdleConns int32
	MaxLifetime  time.Duration
}

// NewPostgresRepository creates a new PostgreSQL repository
func NewPostgresRepository(ctx context.Context, cfg PostgresConfig) (*PostgresRepository, error) {
	poolConfig, err := pgxpool.ParseConfig(cfg.DSN)
	if err != nil {
		return nil, fmt.Errorf("failed to parse DSN: %w", err)
	}

	if cfg.MaxOpenConns > 0 {
		poolConfig.MaxConns = cfg.MaxOpenConns
	} else {
		poolConfig.MaxConns = 10
	}

	if cfg.MaxIdleConns > 0 {
		poolConfig.MinConns = cfg.MaxIdleConns
	} else {
		poolConfig.MinConns = 2
	}

	if cfg.MaxLifetime > 0 {
		poolConfig.MaxConnLifetime = cfg.MaxLifetime
	} else {
		poolConfig.MaxConnLifetime = 30 * time.Minute
	}

	pool, err := pgxpool.NewWithConfig(ctx, poolConfig)
	if err != nil {
		return nil, fmt.Errorf("failed to create connection pool: %w", err)
	}

	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	return &PostgresRepository{pool: pool}, nil
}

// Pool exposes the connection pool for migrations
func (r *PostgresRepository) Pool() *pgxpool.Pool {
	return r.pool
}

// Ping checks database connectivity
func (r *PostgresRepository) Ping(ctx context.Context) error {
	return r.pool.Ping(ctx)
}

// Close closes the database connection pool
func (r *PostgresRepository) Close() error {
	r.pool.Close()
	return nil
}

const assignmentColumns = `
	ct.technique_id, ct.order_index, ct.week_number, ct.lesson_number, ct.is_required,
	t.name, t.category, t.complexity, t.duration_min, t.short_description, t.description
`

// GetCourse retrieves a course with its flat technique list
func (r *PostgresRepository) GetCourse(ctx context.Context, id string) (*models.CourseRecord, error) {
	query := `
		SELECT id, name, schedule_weeks, schedule_lessons_per_week
		FROM courses
		WHERE id = $1
	`

	var course models.CourseRecord
	var weeks, lessonsPerWeek sql.NullInt32

	err := r.pool.QueryRow(ctx, query, id).Scan(&course.ID, &course.Name, &weeks, &lessonsPerWeek)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrCourseNotFound
		}
		return nil, fmt.Errorf("failed to get course: %w", err)
	}

	if weeks.Valid && lessonsPerWeek.Valid {
		course.Schedule = &models.CourseSchedule{
			Weeks:          int(weeks.Int32),
			LessonsPerWeek: int(lessonsPerWeek.Int32),
		}
	}

	assignments, err := r.queryAssignments(ctx, `
		SELECT `+assignmentColumns+`
		FROM course_techniques ct
		JOIN techniques t ON t.id = ct.technique_id
		WHERE ct.course_id = $1
		ORDER BY ct.order_index
	`, id)
	if err != nil {
		return nil, fmt.Errorf("failed to get course techniques: %w", err)
	}
	course.Techniques = assignments

	return &course, nil
}

// GetLessonTechniques returns the techniques pinned to explicit lessons,
// grouped by lesson number
func (r *PostgresRepository) GetLessonTechniques(ctx context.Context, courseID string) ([]models.LessonTechniqueGroup, error) {
	assignments, err := r.queryAssignments(ctx, `
		SELECT `+assignmentColumns+`
		FROM course_techniques ct
		JOIN techniques t ON t.id = ct.technique_id
		WHERE ct.course_id = $1 AND ct.lesson_number IS NOT NULL
		ORDER BY ct.lesson_number, ct.order_index
	`, courseID)
	if err != nil {
		return nil, fmt.Errorf("failed to get lesson techniques: %w", err)
	}

	return groupByLesson(assignments), nil
}

// ReplaceCourseTechniques overwrites a course's techniques in one transaction
func (r *PostgresRepository) ReplaceCourseTechniques(ctx context.Context, courseID string, techniques []models.TechniqueAssignment) error {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	var exists bool
	if err := tx.QueryRow(ctx, `SELECT EXISTS (SELECT 1 FROM courses WHERE id = $1)`, courseID).Scan(&exists); err != nil {
		return fmt.Errorf("failed to check course: %w", err)
	}
	if !exists {
		return ErrCourseNotFound
	}

	if _, err := tx.Exec(ctx, `DELETE FROM course_techniques WHERE course_id = $1`, courseID); err != nil {
		return fmt.Errorf("failed to clear course techniques: %w", err)
	}

	if len(techniques) > 0 {
		batch := &pgx.Batch{}
		for _, t := range techniques {
			batch.Queue(`
				INSERT INTO course_techniques (course_id, technique_id, order_index, week_number, lesson_number, is_required)
				VALUES ($1, $2, $3, $4, $5, $6)
			`, courseID, t.TechniqueID, t.OrderIndex, t.WeekNumber, nullInt(t.LessonNumber), t.IsRequired)
		}
		if err := tx.SendBatch(ctx, batch).Close(); err != nil {
			return fmt.Errorf("failed to insert course techniques: %w", err)
		}
	}

	if _, err := tx.Exec(ctx, `UPDATE courses SET updated_at = NOW() WHERE id = $1`, courseID); err != nil {
		return fmt.Errorf("failed to touch course: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}

// ListTechniques returns one page of the technique library ordered by name
func (r *PostgresRepository) ListTechniques(ctx context.Context, page, limit int) (*models.TechniquePage, error) {
	page, limit = clampPage(page, limit)

	var total int
	if err := r.pool.QueryRow(ctx, `SELECT COUNT(*) FROM techniques`).Scan(&total); err != nil {
		return nil, fmt.Errorf("failed to count techniques: %w", err)
	}

	query := `
		SELECT id, name, category, complexity, duration_min, short_description, description
		FROM techniques
		ORDER BY name, id
		LIMIT $1 OFFSET $2
	`
	rows, err := r.pool.Query(ctx, query, limit, (page-1)*limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list techniques: %w", err)
	}
	defer rows.Close()

	result := &models.TechniquePage{
		Techniques: []models.SourceTechnique{},
		Pagination: models.Pagination{
			Page:       page,
			Limit:      limit,
			Total:      total,
			TotalPages: totalPages(total, limit),
		},
	}

	for rows.Next() {
		var t models.SourceTechnique
		var category, complexity, short, description sql.NullString
		var duration sql.NullInt32

		if err := rows.Scan(&t.ID, &t.Name, &category, &complexity, &duration, &short, &description); err != nil {
			return nil, fmt.Errorf("failed to scan technique: %w", err)
		}

		t.Category = category.String
		t.Complexity = models.RawLevel(complexity.String)
		t.DurationMin = intPtr(duration)
		t.ShortDescription = short.String
		t.Description = description.String
		result.Techniques = append(result.Techniques, t)
	}

	return result, rows.Err()
}

// GetClientByApiKey retrieves an active API client; nil when unknown
func (r *PostgresRepository) GetClientByApiKey(ctx context.Context, apiKey string) (*models.ApiClient, error) {
	query := `
		SELECT name, api_key, permissions
		FROM api_clients
		WHERE api_key = $1 AND is_active
	`

	var client models.ApiClient
	err := r.pool.QueryRow(ctx, query, apiKey).Scan(&client.Name, &client.ApiKey, &client.Permissions)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get api client: %w", err)
	}

	return &client, nil
}

// UpdateClientLastUsed records API key usage
func (r *PostgresRepository) UpdateClientLastUsed(ctx context.Context, apiKey string) error {
	_, err := r.pool.Exec(ctx, `UPDATE api_clients SET last_used_at = NOW() WHERE api_key = $1`, apiKey)
	if err != nil {
		return fmt.Errorf("failed to update api client: %w", err)
	}
	return nil
}

func (r *PostgresRepository) queryAssignments(ctx context.Context, query string, args ...any) ([]models.TechniqueAssignment, error) {
	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []models.TechniqueAssignment
	for rows.Next() {
		var a models.TechniqueAssignment
		var tech models.SourceTechnique
		var lesson, duration sql.NullInt32
		var category, complexity, short, description sql.NullString

		if err := rows.Scan(
			&a.TechniqueID,
			&a.OrderIndex,
			&a.WeekNumber,
			&lesson,
			&a.IsRequired,
			&tech.Name,
			&category,
			&complexity,
			&duration,
			&short,
			&description,
		); err != nil {
			return nil, err
		}

		tech.ID = a.TechniqueID
		tech.Category = category.String
		tech.Complexity = models.RawLevel(complexity.String)
		tech.DurationMin = intPtr(duration)
		tech.ShortDescription = short.String
		tech.Description = description.String

		a.LessonNumber = intPtr(lesson)
		a.Technique = &tech
		out = append(out, a)
	}

	return out, rows.Err()
}

// groupByLesson folds lesson-pinned assignments into lesson groups,
// keeping first-seen lesson order
func groupByLesson(assignments []models.TechniqueAssignment) []models.LessonTechniqueGroup {
	groups := []models.LessonTechniqueGroup{}
	index := make(map[int]int)

	for _, a := range assignments {
		if a.LessonNumber == nil {
			continue
		}
		lesson := *a.LessonNumber

		i, ok := index[lesson]
		if !ok {
			i = len(groups)
			index[lesson] = i
			groups = append(groups, models.LessonTechniqueGroup{LessonNumber: lesson, Techniques: []models.LessonTechnique{}})
		}

		tech := models.LessonTechnique{ID: a.TechniqueID}
		if a.Technique != nil {
			tech = *a.Technique
		}
		groups[i].Techniques = append(groups[i].Techniques, tech)
	}

	return groups
}

func clampPage(page, limit int) (int, int) {
	if page < 1 {
		page = 1
	}
	if limit < 1 || limit > MaxPageSize {
		limit = MaxPageSize
	}
	return page, limit
}

func totalPages(total, limit int) int {
	if total <= 0 || limit <= 0 {
		return 0
	}
	return (total + limit - 1) / limit
}

func nullInt(v *int) sql.NullInt32 {
	if v == nil {
		return sql.NullInt32{}
	}
	return sql.NullInt32{Int32: int32(*v), Valid: true}
}

func intPtr(v sql.NullInt32) *int {
	if !v.Valid {
		return nil
	}
	n := int(v.Int32)
	return &n
}

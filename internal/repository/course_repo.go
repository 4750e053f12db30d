package repository

import (
	"context"
	"database/sql"

	"lms/internal/model"
)

// CourseRepository defines the interface for interacting with course data.
// Every query is scoped by tenant ID.
type CourseRepository interface {
	CreateCourse(ctx context.Context, c *model.Course) error
	GetCourseByID(ctx context.Context, tenantID, courseID string) (*model.Course, error)
	GetCourseBySlug(ctx context.Context, tenantID, slug string) (*model.Course, error)
	ListCourses(ctx context.Context, tenantID, status string, limit, offset int) ([]model.Course, error)
	UpdateCourse(ctx context.Context, c *model.Course) error
	DeleteCourse(ctx context.Context, tenantID, courseID string) error
}

type courseRepo struct {
	db *sql.DB
}

// NewCourseRepo creates a new CourseRepository
func NewCourseRepo(db *sql.DB) CourseRepository {
	return &courseRepo{db: db}
}

// CreateCourse inserts a new course and returns the created record
func (r *courseRepo) CreateCourse(ctx context.Context, c *model.Course) error {
	query := `
		INSERT INTO courses (tenant_id, title, slug, description, status, created_by)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING id, created_at, updated_at
	`
	return r.db.QueryRowContext(ctx, query, c.TenantID, c.Title, c.Slug, c.Description, c.Status, c.CreatedBy).
		Scan(&c.ID, &c.CreatedAt, &c.UpdatedAt)
}

// GetCourseByID retrieves a course by its ID
func (r *courseRepo) GetCourseByID(ctx context.Context, tenantID, courseID string) (*model.Course, error) {
	query := `
		SELECT id, tenant_id, title, slug, description, status, created_by, created_at, updated_at
		FROM courses
		WHERE tenant_id = $1 AND id = $2
	`
	var c model.Course
	err := r.db.QueryRowContext(ctx, query, tenantID, courseID).Scan(
		&c.ID,
		&c.TenantID,
		&c.Title,
		&c.Slug,
		&c.Description,
		&c.Status,
		&c.CreatedBy,
		&c.CreatedAt,
		&c.UpdatedAt,
	)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, err
	}
	return &c, nil
}

func (r *courseRepo) GetCourseBySlug(ctx context.Context, tenantID, slug string) (*model.Course, error) {
	query := `
		SELECT id, tenant_id, title, slug, description, status, created_by, created_at, updated_at
		FROM courses
		WHERE tenant_id = $1 AND slug = $2
	`
	var c model.Course
	err := r.db.QueryRowContext(ctx, query, tenantID, slug).Scan(
		&c.ID,
		&c.TenantID,
		&c.Title,
		&c.Slug,
		&c.Description,
		&c.Status,
		&c.CreatedBy,
		&c.CreatedAt,
		&c.UpdatedAt,
	)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, err
	}
	return &c, nil
}

// ListCourses retrieves courses for a tenant with pagination. status filters
// when non-empty.
func (r *courseRepo) ListCourses(ctx context.Context, tenantID, status string, limit, offset int) ([]model.Course, error) {
	query := `
		SELECT id, tenant_id, title, slug, description, status, created_by, created_at, updated_at
		FROM courses
		WHERE tenant_id = $1 AND ($2 = '' OR status = $2)
		ORDER BY title ASC
		LIMIT $3 OFFSET $4
	`
	rows, err := r.db.QueryContext(ctx, query, tenantID, status, limit, offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var courses []model.Course
	for rows.Next() {
		var c model.Course
		if err := rows.Scan(
			&c.ID,
			&c.TenantID,
			&c.Title,
			&c.Slug,
			&c.Description,
			&c.Status,
			&c.CreatedBy,
			&c.CreatedAt,
			&c.UpdatedAt,
		); err != nil {
			return nil, err
		}
		courses = append(courses, c)
	}
	if err = rows.Err(); err != nil {
		return nil, err
	}

	// If no courses found, return an empty slice, not nil
	if len(courses) == 0 {
		return []model.Course{}, nil
	}
	return courses, nil
}

// UpdateCourse updates an existing course record and returns updated timestamps
func (r *courseRepo) UpdateCourse(ctx context.Context, c *model.Course) error {
	query := `
		UPDATE courses
		SET title = $1, description = $2, status = $3, updated_at = NOW()
		WHERE tenant_id = $4 AND id = $5
		RETURNING created_at, updated_at
	`
	return r.db.QueryRowContext(ctx, query, c.Title, c.Description, c.Status, c.TenantID, c.ID).
		Scan(&c.CreatedAt, &c.UpdatedAt)
}

// DeleteCourse removes a course. Modules, lessons and tracks cascade at the
// DB level.
func (r *courseRepo) DeleteCourse(ctx context.Context, tenantID, courseID string) error {
	query := `DELETE FROM courses WHERE tenant_id = $1 AND id = $2`
	result, err := r.db.ExecContext(ctx, query, tenantID, courseID)
	if err != nil {
		return err
	}
	if n, err := result.RowsAffected(); err == nil && n == 0 {
		return sql.ErrNoRows
	}
	return nil
}

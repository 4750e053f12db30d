package repository

import (
	"context"
	"database/sql"
	"fmt"

	"lms/internal/model"
)

type LessonRepository interface {
	CreateLesson(ctx context.Context, l *model.Lesson) error
	GetLessonByID(ctx context.Context, tenantID, lessonID string) (*model.Lesson, error)
	ListLessonsByModule(ctx context.Context, tenantID, moduleID string, limit, offset int) ([]model.Lesson, error)
	UpdateLesson(ctx context.Context, l *model.Lesson) error
	DeleteLesson(ctx context.Context, tenantID, lessonID string) error

	CountPublishedByModule(ctx context.Context, tenantID, moduleID string) (int, error)
	CountPublishedByCourse(ctx context.Context, tenantID, courseID string) (int, error)
}

type lessonRepo struct {
	db *sql.DB
}

func NewLessonRepo(db *sql.DB) LessonRepository {
	return &lessonRepo{db: db}
}

func (r *lessonRepo) CreateLesson(ctx context.Context, l *model.Lesson) error {
	query := `
		INSERT INTO lessons (tenant_id, course_id, module_id, title, kind, content, media_id, duration_sec, position, status)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		RETURNING id, created_at, updated_at
	`
	return r.db.QueryRowContext(ctx, query,
		l.TenantID, l.CourseID, l.ModuleID, l.Title, l.Kind, l.Content,
		l.MediaID, l.DurationSec, l.Position, l.Status,
	).Scan(&l.ID, &l.CreatedAt, &l.UpdatedAt)
}

func (r *lessonRepo) GetLessonByID(ctx context.Context, tenantID, lessonID string) (*model.Lesson, error) {
	query := `
		SELECT id, tenant_id, course_id, module_id, title, kind, content, media_id,
		       duration_sec, position, status, created_at, updated_at
		FROM lessons
		WHERE tenant_id = $1 AND id = $2
	`
	var l model.Lesson
	err := r.db.QueryRowContext(ctx, query, tenantID, lessonID).Scan(
		&l.ID,
		&l.TenantID,
		&l.CourseID,
		&l.ModuleID,
		&l.Title,
		&l.Kind,
		&l.Content,
		&l.MediaID,
		&l.DurationSec,
		&l.Position,
		&l.Status,
		&l.CreatedAt,
		&l.UpdatedAt,
	)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, err
	}
	return &l, nil
}

func (r *lessonRepo) ListLessonsByModule(ctx context.Context, tenantID, moduleID string, limit, offset int) ([]model.Lesson, error) {
	query := `
		SELECT id, tenant_id, course_id, module_id, title, kind, content, media_id,
		       duration_sec, position, status, created_at, updated_at
		FROM lessons
		WHERE tenant_id = $1 AND module_id = $2
		ORDER BY position ASC, created_at ASC
		LIMIT $3 OFFSET $4
	`
	rows, err := r.db.QueryContext(ctx, query, tenantID, moduleID, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("failed to query lessons by module: %w", err)
	}
	defer rows.Close()

	var lessons []model.Lesson
	for rows.Next() {
		var l model.Lesson
		if err := rows.Scan(
			&l.ID,
			&l.TenantID,
			&l.CourseID,
			&l.ModuleID,
			&l.Title,
			&l.Kind,
			&l.Content,
			&l.MediaID,
			&l.DurationSec,
			&l.Position,
			&l.Status,
			&l.CreatedAt,
			&l.UpdatedAt,
		); err != nil {
			return nil, fmt.Errorf("failed to scan lesson row: %w", err)
		}
		lessons = append(lessons, l)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("row iteration error: %w", err)
	}

	if len(lessons) == 0 {
		return []model.Lesson{}, nil
	}
	return lessons, nil
}

func (r *lessonRepo) UpdateLesson(ctx context.Context, l *model.Lesson) error {
	query := `
		UPDATE lessons
		SET title = $1, kind = $2, content = $3, media_id = $4, duration_sec = $5,
		    position = $6, status = $7, updated_at = NOW()
		WHERE tenant_id = $8 AND id = $9
		RETURNING created_at, updated_at
	`
	return r.db.QueryRowContext(ctx, query,
		l.Title, l.Kind, l.Content, l.MediaID, l.DurationSec, l.Position, l.Status,
		l.TenantID, l.ID,
	).Scan(&l.CreatedAt, &l.UpdatedAt)
}

func (r *lessonRepo) DeleteLesson(ctx context.Context, tenantID, lessonID string) error {
	query := `DELETE FROM lessons WHERE tenant_id = $1 AND id = $2`
	result, err := r.db.ExecContext(ctx, query, tenantID, lessonID)
	if err != nil {
		return err
	}
	if n, err := result.RowsAffected(); err == nil && n == 0 {
		return sql.ErrNoRows
	}
	return nil
}

func (r *lessonRepo) CountPublishedByModule(ctx context.Context, tenantID, moduleID string) (int, error) {
	query := `
		SELECT COUNT(*)
		FROM lessons
		WHERE tenant_id = $1 AND module_id = $2 AND status = 'published'
	`
	var count int
	if err := r.db.QueryRowContext(ctx, query, tenantID, moduleID).Scan(&count); err != nil {
		return 0, fmt.Errorf("failed to count published lessons by module: %w", err)
	}
	return count, nil
}

func (r *lessonRepo) CountPublishedByCourse(ctx context.Context, tenantID, courseID string) (int, error) {
	query := `
		SELECT COUNT(*)
		FROM lessons
		WHERE tenant_id = $1 AND course_id = $2 AND status = 'published'
	`
	var count int
	if err := r.db.QueryRowContext(ctx, query, tenantID, courseID).Scan(&count); err != nil {
		return 0, fmt.Errorf("failed to count published lessons by course: %w", err)
	}
	return count, nil
}

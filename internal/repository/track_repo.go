package repository

import (
	"context"
	"database/sql"
	"fmt"

	"lms/internal/model"
)

// TrackRepository persists course, module and lesson progress records.
type TrackRepository interface {
	GetCourseTrack(ctx context.Context, tenantID, userID, courseID string) (*model.CourseTrack, error)
	CreateCourseTrack(ctx context.Context, t *model.CourseTrack) error
	UpdateCourseTrack(ctx context.Context, t *model.CourseTrack) error

	GetModuleTrack(ctx context.Context, tenantID, userID, moduleID string) (*model.ModuleTrack, error)
	CreateModuleTrack(ctx context.Context, t *model.ModuleTrack) error
	UpdateModuleTrack(ctx context.Context, t *model.ModuleTrack) error
	ListModuleTracksByCourse(ctx context.Context, tenantID, userID, courseID string) ([]model.ModuleTrack, error)

	GetLatestLessonTrack(ctx context.Context, tenantID, userID, lessonID string) (*model.LessonTrack, error)
	CountLessonAttempts(ctx context.Context, tenantID, userID, lessonID string) (int, error)
	CreateLessonTrack(ctx context.Context, t *model.LessonTrack) error
	UpdateLessonTrack(ctx context.Context, t *model.LessonTrack) error
	ListLessonAttempts(ctx context.Context, tenantID, userID, lessonID string) ([]model.LessonTrack, error)
	HasCompletedAttempt(ctx context.Context, tenantID, userID, lessonID string) (bool, error)

	CountCompletedLessonsByModule(ctx context.Context, tenantID, userID, moduleID string) (int, error)
	CountCompletedLessonsByCourse(ctx context.Context, tenantID, userID, courseID string) (int, error)
}

type trackRepo struct {
	db *sql.DB
}

func NewTrackRepo(db *sql.DB) TrackRepository {
	return &trackRepo{db: db}
}

func (r *trackRepo) GetCourseTrack(ctx context.Context, tenantID, userID, courseID string) (*model.CourseTrack, error) {
	query := `
		SELECT id, tenant_id, user_id, course_id, completed_lessons, total_lessons,
		       percent_complete, status, started_at, completed_at
		FROM course_tracks
		WHERE tenant_id = $1 AND user_id = $2 AND course_id = $3
	`
	var t model.CourseTrack
	err := r.db.QueryRowContext(ctx, query, tenantID, userID, courseID).Scan(
		&t.ID,
		&t.TenantID,
		&t.UserID,
		&t.CourseID,
		&t.CompletedLessons,
		&t.TotalLessons,
		&t.PercentComplete,
		&t.Status,
		&t.StartedAt,
		&t.CompletedAt,
	)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, err
	}
	return &t, nil
}

func (r *trackRepo) CreateCourseTrack(ctx context.Context, t *model.CourseTrack) error {
	query := `
		INSERT INTO course_tracks (tenant_id, user_id, course_id, completed_lessons,
			total_lessons, percent_complete, status)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING id, started_at
	`
	return r.db.QueryRowContext(ctx, query,
		t.TenantID, t.UserID, t.CourseID, t.CompletedLessons, t.TotalLessons,
		t.PercentComplete, t.Status,
	).Scan(&t.ID, &t.StartedAt)
}

func (r *trackRepo) UpdateCourseTrack(ctx context.Context, t *model.CourseTrack) error {
	query := `
		UPDATE course_tracks
		SET completed_lessons = $1, total_lessons = $2, percent_complete = $3,
		    status = $4, completed_at = $5
		WHERE tenant_id = $6 AND id = $7
	`
	_, err := r.db.ExecContext(ctx, query,
		t.CompletedLessons, t.TotalLessons, t.PercentComplete, t.Status, t.CompletedAt,
		t.TenantID, t.ID,
	)
	return err
}

func (r *trackRepo) GetModuleTrack(ctx context.Context, tenantID, userID, moduleID string) (*model.ModuleTrack, error) {
	query := `
		SELECT id, tenant_id, user_id, course_id, module_id, completed_lessons,
		       total_lessons, status, started_at, completed_at
		FROM module_tracks
		WHERE tenant_id = $1 AND user_id = $2 AND module_id = $3
	`
	var t model.ModuleTrack
	err := r.db.QueryRowContext(ctx, query, tenantID, userID, moduleID).Scan(
		&t.ID,
		&t.TenantID,
		&t.UserID,
		&t.CourseID,
		&t.ModuleID,
		&t.CompletedLessons,
		&t.TotalLessons,
		&t.Status,
		&t.StartedAt,
		&t.CompletedAt,
	)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, err
	}
	return &t, nil
}

func (r *trackRepo) CreateModuleTrack(ctx context.Context, t *model.ModuleTrack) error {
	query := `
		INSERT INTO module_tracks (tenant_id, user_id, course_id, module_id,
			completed_lessons, total_lessons, status)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING id, started_at
	`
	return r.db.QueryRowContext(ctx, query,
		t.TenantID, t.UserID, t.CourseID, t.ModuleID, t.CompletedLessons,
		t.TotalLessons, t.Status,
	).Scan(&t.ID, &t.StartedAt)
}

func (r *trackRepo) UpdateModuleTrack(ctx context.Context, t *model.ModuleTrack) error {
	query := `
		UPDATE module_tracks
		SET completed_lessons = $1, total_lessons = $2, status = $3, completed_at = $4
		WHERE tenant_id = $5 AND id = $6
	`
	_, err := r.db.ExecContext(ctx, query,
		t.CompletedLessons, t.TotalLessons, t.Status, t.CompletedAt,
		t.TenantID, t.ID,
	)
	return err
}

func (r *trackRepo) ListModuleTracksByCourse(ctx context.Context, tenantID, userID, courseID string) ([]model.ModuleTrack, error) {
	query := `
		SELECT mt.id, mt.tenant_id, mt.user_id, mt.course_id, mt.module_id,
		       mt.completed_lessons, mt.total_lessons, mt.status, mt.started_at, mt.completed_at
		FROM module_tracks mt
		JOIN modules m ON m.id = mt.module_id
		WHERE mt.tenant_id = $1 AND mt.user_id = $2 AND mt.course_id = $3
		ORDER BY m.position ASC
	`
	rows, err := r.db.QueryContext(ctx, query, tenantID, userID, courseID)
	if err != nil {
		return nil, fmt.Errorf("failed to query module tracks: %w", err)
	}
	defer rows.Close()

	var tracks []model.ModuleTrack
	for rows.Next() {
		var t model.ModuleTrack
		if err := rows.Scan(
			&t.ID,
			&t.TenantID,
			&t.UserID,
			&t.CourseID,
			&t.ModuleID,
			&t.CompletedLessons,
			&t.TotalLessons,
			&t.Status,
			&t.StartedAt,
			&t.CompletedAt,
		); err != nil {
			return nil, fmt.Errorf("failed to scan module track row: %w", err)
		}
		tracks = append(tracks, t)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("row iteration error: %w", err)
	}

	if len(tracks) == 0 {
		return []model.ModuleTrack{}, nil
	}
	return tracks, nil
}

func (r *trackRepo) GetLatestLessonTrack(ctx context.Context, tenantID, userID, lessonID string) (*model.LessonTrack, error) {
	query := `
		SELECT id, tenant_id, user_id, course_id, lesson_id, attempt, percent_complete,
		       position_sec, status, started_at, completed_at
		FROM lesson_tracks
		WHERE tenant_id = $1 AND user_id = $2 AND lesson_id = $3
		ORDER BY attempt DESC
		LIMIT 1
	`
	var t model.LessonTrack
	err := r.db.QueryRowContext(ctx, query, tenantID, userID, lessonID).Scan(
		&t.ID,
		&t.TenantID,
		&t.UserID,
		&t.CourseID,
		&t.LessonID,
		&t.Attempt,
		&t.PercentComplete,
		&t.PositionSec,
		&t.Status,
		&t.StartedAt,
		&t.CompletedAt,
	)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, err
	}
	return &t, nil
}

func (r *trackRepo) CountLessonAttempts(ctx context.Context, tenantID, userID, lessonID string) (int, error) {
	query := `
		SELECT COUNT(*)
		FROM lesson_tracks
		WHERE tenant_id = $1 AND user_id = $2 AND lesson_id = $3
	`
	var count int
	if err := r.db.QueryRowContext(ctx, query, tenantID, userID, lessonID).Scan(&count); err != nil {
		return 0, fmt.Errorf("failed to count lesson attempts: %w", err)
	}
	return count, nil
}

func (r *trackRepo) CreateLessonTrack(ctx context.Context, t *model.LessonTrack) error {
	query := `
		INSERT INTO lesson_tracks (tenant_id, user_id, course_id, lesson_id, attempt,
			percent_complete, position_sec, status)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING id, started_at
	`
	return r.db.QueryRowContext(ctx, query,
		t.TenantID, t.UserID, t.CourseID, t.LessonID, t.Attempt,
		t.PercentComplete, t.PositionSec, t.Status,
	).Scan(&t.ID, &t.StartedAt)
}

func (r *trackRepo) UpdateLessonTrack(ctx context.Context, t *model.LessonTrack) error {
	query := `
		UPDATE lesson_tracks
		SET percent_complete = $1, position_sec = $2, status = $3, completed_at = $4
		WHERE tenant_id = $5 AND id = $6
	`
	_, err := r.db.ExecContext(ctx, query,
		t.PercentComplete, t.PositionSec, t.Status, t.CompletedAt,
		t.TenantID, t.ID,
	)
	return err
}

func (r *trackRepo) ListLessonAttempts(ctx context.Context, tenantID, userID, lessonID string) ([]model.LessonTrack, error) {
	query := `
		SELECT id, tenant_id, user_id, course_id, lesson_id, attempt, percent_complete,
		       position_sec, status, started_at, completed_at
		FROM lesson_tracks
		WHERE tenant_id = $1 AND user_id = $2 AND lesson_id = $3
		ORDER BY attempt ASC
	`
	rows, err := r.db.QueryContext(ctx, query, tenantID, userID, lessonID)
	if err != nil {
		return nil, fmt.Errorf("failed to query lesson attempts: %w", err)
	}
	defer rows.Close()

	var tracks []model.LessonTrack
	for rows.Next() {
		var t model.LessonTrack
		if err := rows.Scan(
			&t.ID,
			&t.TenantID,
			&t.UserID,
			&t.CourseID,
			&t.LessonID,
			&t.Attempt,
			&t.PercentComplete,
			&t.PositionSec,
			&t.Status,
			&t.StartedAt,
			&t.CompletedAt,
		); err != nil {
			return nil, fmt.Errorf("failed to scan lesson track row: %w", err)
		}
		tracks = append(tracks, t)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("row iteration error: %w", err)
	}

	if len(tracks) == 0 {
		return []model.LessonTrack{}, nil
	}
	return tracks, nil
}

// HasCompletedAttempt reports whether any attempt at the lesson has completed.
// Used to make the roll-up count each lesson once.
func (r *trackRepo) HasCompletedAttempt(ctx context.Context, tenantID, userID, lessonID string) (bool, error) {
	query := `
		SELECT EXISTS (
			SELECT 1 FROM lesson_tracks
			WHERE tenant_id = $1 AND user_id = $2 AND lesson_id = $3 AND status = 'completed'
		)
	`
	var exists bool
	if err := r.db.QueryRowContext(ctx, query, tenantID, userID, lessonID).Scan(&exists); err != nil {
		return false, fmt.Errorf("failed to check completed attempts: %w", err)
	}
	return exists, nil
}

// CountCompletedLessonsByModule counts distinct published lessons of the
// module that the user has completed at least once.
func (r *trackRepo) CountCompletedLessonsByModule(ctx context.Context, tenantID, userID, moduleID string) (int, error) {
	query := `
		SELECT COUNT(DISTINCT lt.lesson_id)
		FROM lesson_tracks lt
		JOIN lessons l ON l.id = lt.lesson_id
		WHERE lt.tenant_id = $1 AND lt.user_id = $2 AND l.module_id = $3
		  AND lt.status = 'completed' AND l.status = 'published'
	`
	var count int
	if err := r.db.QueryRowContext(ctx, query, tenantID, userID, moduleID).Scan(&count); err != nil {
		return 0, fmt.Errorf("failed to count completed lessons by module: %w", err)
	}
	return count, nil
}

func (r *trackRepo) CountCompletedLessonsByCourse(ctx context.Context, tenantID, userID, courseID string) (int, error) {
	query := `
		SELECT COUNT(DISTINCT lt.lesson_id)
		FROM lesson_tracks lt
		JOIN lessons l ON l.id = lt.lesson_id
		WHERE lt.tenant_id = $1 AND lt.user_id = $2 AND lt.course_id = $3
		  AND lt.status = 'completed' AND l.status = 'published'
	`
	var count int
	if err := r.db.QueryRowContext(ctx, query, tenantID, userID, courseID).Scan(&count); err != nil {
		return 0, fmt.Errorf("failed to count completed lessons by course: %w", err)
	}
	return count, nil
}

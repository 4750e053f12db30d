package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"lms/internal/model"
)

type EnrollmentRepository interface {
	CreateEnrollment(ctx context.Context, e *model.UserEnrollment) error
	GetEnrollmentByID(ctx context.Context, tenantID, enrollmentID string) (*model.UserEnrollment, error)
	GetEnrollmentByUserAndCourse(ctx context.Context, tenantID, userID, courseID string) (*model.UserEnrollment, error)
	ListEnrollmentsByUser(ctx context.Context, tenantID, userID string, limit, offset int) ([]model.UserEnrollment, error)
	ListEnrollmentsByCourse(ctx context.Context, tenantID, courseID string, limit, offset int) ([]model.UserEnrollment, error)
	UpdateEnrollmentStatus(ctx context.Context, tenantID, enrollmentID, status string, completedAt *time.Time) error
}

type enrollmentRepo struct {
	db *sql.DB
}

func NewEnrollmentRepo(db *sql.DB) EnrollmentRepository {
	return &enrollmentRepo{db: db}
}

func (r *enrollmentRepo) CreateEnrollment(ctx context.Context, e *model.UserEnrollment) error {
	query := `
		INSERT INTO user_enrollments (tenant_id, user_id, course_id, status)
		VALUES ($1, $2, $3, $4)
		RETURNING id, enrolled_at
	`
	return r.db.QueryRowContext(ctx, query, e.TenantID, e.UserID, e.CourseID, e.Status).
		Scan(&e.ID, &e.EnrolledAt)
}

func (r *enrollmentRepo) GetEnrollmentByID(ctx context.Context, tenantID, enrollmentID string) (*model.UserEnrollment, error) {
	query := `
		SELECT id, tenant_id, user_id, course_id, status, enrolled_at, completed_at
		FROM user_enrollments
		WHERE tenant_id = $1 AND id = $2
	`
	return r.scanOne(r.db.QueryRowContext(ctx, query, tenantID, enrollmentID))
}

func (r *enrollmentRepo) GetEnrollmentByUserAndCourse(ctx context.Context, tenantID, userID, courseID string) (*model.UserEnrollment, error) {
	query := `
		SELECT id, tenant_id, user_id, course_id, status, enrolled_at, completed_at
		FROM user_enrollments
		WHERE tenant_id = $1 AND user_id = $2 AND course_id = $3
	`
	return r.scanOne(r.db.QueryRowContext(ctx, query, tenantID, userID, courseID))
}

func (r *enrollmentRepo) scanOne(row *sql.Row) (*model.UserEnrollment, error) {
	var e model.UserEnrollment
	err := row.Scan(
		&e.ID,
		&e.TenantID,
		&e.UserID,
		&e.CourseID,
		&e.Status,
		&e.EnrolledAt,
		&e.CompletedAt,
	)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, err
	}
	return &e, nil
}

func (r *enrollmentRepo) ListEnrollmentsByUser(ctx context.Context, tenantID, userID string, limit, offset int) ([]model.UserEnrollment, error) {
	query := `
		SELECT id, tenant_id, user_id, course_id, status, enrolled_at, completed_at
		FROM user_enrollments
		WHERE tenant_id = $1 AND user_id = $2
		ORDER BY enrolled_at DESC
		LIMIT $3 OFFSET $4
	`
	return r.list(ctx, query, tenantID, userID, limit, offset)
}

func (r *enrollmentRepo) ListEnrollmentsByCourse(ctx context.Context, tenantID, courseID string, limit, offset int) ([]model.UserEnrollment, error) {
	query := `
		SELECT id, tenant_id, user_id, course_id, status, enrolled_at, completed_at
		FROM user_enrollments
		WHERE tenant_id = $1 AND course_id = $2
		ORDER BY enrolled_at DESC
		LIMIT $3 OFFSET $4
	`
	return r.list(ctx, query, tenantID, courseID, limit, offset)
}

func (r *enrollmentRepo) list(ctx context.Context, query string, args ...interface{}) ([]model.UserEnrollment, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query enrollments: %w", err)
	}
	defer rows.Close()

	var enrollments []model.UserEnrollment
	for rows.Next() {
		var e model.UserEnrollment
		if err := rows.Scan(
			&e.ID,
			&e.TenantID,
			&e.UserID,
			&e.CourseID,
			&e.Status,
			&e.EnrolledAt,
			&e.CompletedAt,
		); err != nil {
			return nil, fmt.Errorf("failed to scan enrollment row: %w", err)
		}
		enrollments = append(enrollments, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("row iteration error: %w", err)
	}

	if len(enrollments) == 0 {
		return []model.UserEnrollment{}, nil
	}
	return enrollments, nil
}

func (r *enrollmentRepo) UpdateEnrollmentStatus(ctx context.Context, tenantID, enrollmentID, status string, completedAt *time.Time) error {
	query := `
		UPDATE user_enrollments
		SET status = $1, completed_at = $2
		WHERE tenant_id = $3 AND id = $4
	`
	result, err := r.db.ExecContext(ctx, query, status, completedAt, tenantID, enrollmentID)
	if err != nil {
		return err
	}
	if n, err := result.RowsAffected(); err == nil && n == 0 {
		return sql.ErrNoRows
	}
	return nil
}

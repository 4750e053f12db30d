package repository

import (
	"context"
	"database/sql"
	"fmt"

	"lms/internal/model"
)

type ModuleRepository interface {
	CreateModule(ctx context.Context, m *model.Module) error
	GetModuleByID(ctx context.Context, tenantID, moduleID string) (*model.Module, error)
	ListModulesByCourse(ctx context.Context, tenantID, courseID string, limit, offset int) ([]model.Module, error)
	UpdateModule(ctx context.Context, m *model.Module) error
	DeleteModule(ctx context.Context, tenantID, moduleID string) error
}

type moduleRepo struct {
	db *sql.DB
}

func NewModuleRepo(db *sql.DB) ModuleRepository {
	return &moduleRepo{db: db}
}

func (r *moduleRepo) CreateModule(ctx context.Context, m *model.Module) error {
	query := `
		INSERT INTO modules (tenant_id, course_id, title, description, position, status)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING id, created_at, updated_at
	`
	return r.db.QueryRowContext(ctx, query, m.TenantID, m.CourseID, m.Title, m.Description, m.Position, m.Status).
		Scan(&m.ID, &m.CreatedAt, &m.UpdatedAt)
}

func (r *moduleRepo) GetModuleByID(ctx context.Context, tenantID, moduleID string) (*model.Module, error) {
	query := `
		SELECT id, tenant_id, course_id, title, description, position, status, created_at, updated_at
		FROM modules
		WHERE tenant_id = $1 AND id = $2
	`
	var m model.Module
	err := r.db.QueryRowContext(ctx, query, tenantID, moduleID).Scan(
		&m.ID,
		&m.TenantID,
		&m.CourseID,
		&m.Title,
		&m.Description,
		&m.Position,
		&m.Status,
		&m.CreatedAt,
		&m.UpdatedAt,
	)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, err
	}
	return &m, nil
}

func (r *moduleRepo) ListModulesByCourse(ctx context.Context, tenantID, courseID string, limit, offset int) ([]model.Module, error) {
	query := `
		SELECT id, tenant_id, course_id, title, description, position, status, created_at, updated_at
		FROM modules
		WHERE tenant_id = $1 AND course_id = $2
		ORDER BY position ASC, created_at ASC
		LIMIT $3 OFFSET $4
	`
	rows, err := r.db.QueryContext(ctx, query, tenantID, courseID, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("failed to query modules by course: %w", err)
	}
	defer rows.Close()

	var modules []model.Module
	for rows.Next() {
		var m model.Module
		if err := rows.Scan(
			&m.ID,
			&m.TenantID,
			&m.CourseID,
			&m.Title,
			&m.Description,
			&m.Position,
			&m.Status,
			&m.CreatedAt,
			&m.UpdatedAt,
		); err != nil {
			return nil, fmt.Errorf("failed to scan module row: %w", err)
		}
		modules = append(modules, m)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("row iteration error: %w", err)
	}

	if len(modules) == 0 {
		return []model.Module{}, nil
	}
	return modules, nil
}

func (r *moduleRepo) UpdateModule(ctx context.Context, m *model.Module) error {
	query := `
		UPDATE modules
		SET title = $1, description = $2, position = $3, status = $4, updated_at = NOW()
		WHERE tenant_id = $5 AND id = $6
		RETURNING created_at, updated_at
	`
	return r.db.QueryRowContext(ctx, query, m.Title, m.Description, m.Position, m.Status, m.TenantID, m.ID).
		Scan(&m.CreatedAt, &m.UpdatedAt)
}

func (r *moduleRepo) DeleteModule(ctx context.Context, tenantID, moduleID string) error {
	query := `DELETE FROM modules WHERE tenant_id = $1 AND id = $2`
	result, err := r.db.ExecContext(ctx, query, tenantID, moduleID)
	if err != nil {
		return err
	}
	if n, err := result.RowsAffected(); err == nil && n == 0 {
		return sql.ErrNoRows
	}
	return nil
}

package repository

import (
	"context"
	"database/sql"
	"fmt"

	"lms/internal/model"
)

type MediaRepository interface {
	CreateMedia(ctx context.Context, m *model.Media) error
	GetMediaByID(ctx context.Context, tenantID, mediaID string) (*model.Media, error)
	ListMediaByOwner(ctx context.Context, tenantID, ownerID string, limit, offset int) ([]model.Media, error)
	UpdateMedia(ctx context.Context, m *model.Media) error
	DeleteMedia(ctx context.Context, tenantID, mediaID string) error
}

type mediaRepo struct {
	db *sql.DB
}

func NewMediaRepo(db *sql.DB) MediaRepository {
	return &mediaRepo{db: db}
}

func (r *mediaRepo) CreateMedia(ctx context.Context, m *model.Media) error {
	query := `
		INSERT INTO media (tenant_id, owner_id, lesson_id, filename, content_type, size_bytes, storage_key, status)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING id, created_at, updated_at
	`
	return r.db.QueryRowContext(ctx, query,
		m.TenantID, m.OwnerID, m.LessonID, m.Filename, m.ContentType, m.SizeBytes, m.StorageKey, m.Status,
	).Scan(&m.ID, &m.CreatedAt, &m.UpdatedAt)
}

func (r *mediaRepo) GetMediaByID(ctx context.Context, tenantID, mediaID string) (*model.Media, error) {
	query := `
		SELECT id, tenant_id, owner_id, lesson_id, filename, content_type, size_bytes,
		       storage_key, status, created_at, updated_at
		FROM media
		WHERE tenant_id = $1 AND id = $2
	`
	var m model.Media
	err := r.db.QueryRowContext(ctx, query, tenantID, mediaID).Scan(
		&m.ID,
		&m.TenantID,
		&m.OwnerID,
		&m.LessonID,
		&m.Filename,
		&m.ContentType,
		&m.SizeBytes,
		&m.StorageKey,
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

func (r *mediaRepo) ListMediaByOwner(ctx context.Context, tenantID, ownerID string, limit, offset int) ([]model.Media, error) {
	query := `
		SELECT id, tenant_id, owner_id, lesson_id, filename, content_type, size_bytes,
		       storage_key, status, created_at, updated_at
		FROM media
		WHERE tenant_id = $1 AND owner_id = $2
		ORDER BY created_at DESC
		LIMIT $3 OFFSET $4
	`
	rows, err := r.db.QueryContext(ctx, query, tenantID, ownerID, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("failed to query media by owner: %w", err)
	}
	defer rows.Close()

	var items []model.Media
	for rows.Next() {
		var m model.Media
		if err := rows.Scan(
			&m.ID,
			&m.TenantID,
			&m.OwnerID,
			&m.LessonID,
			&m.Filename,
			&m.ContentType,
			&m.SizeBytes,
			&m.StorageKey,
			&m.Status,
			&m.CreatedAt,
			&m.UpdatedAt,
		); err != nil {
			return nil, fmt.Errorf("failed to scan media row: %w", err)
		}
		items = append(items, m)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("row iteration error: %w", err)
	}

	if len(items) == 0 {
		return []model.Media{}, nil
	}
	return items, nil
}

func (r *mediaRepo) UpdateMedia(ctx context.Context, m *model.Media) error {
	query := `
		UPDATE media
		SET lesson_id = $1, filename = $2, content_type = $3, size_bytes = $4,
		    storage_key = $5, status = $6, updated_at = NOW()
		WHERE tenant_id = $7 AND id = $8
		RETURNING created_at, updated_at
	`
	return r.db.QueryRowContext(ctx, query,
		m.LessonID, m.Filename, m.ContentType, m.SizeBytes, m.StorageKey, m.Status,
		m.TenantID, m.ID,
	).Scan(&m.CreatedAt, &m.UpdatedAt)
}

func (r *mediaRepo) DeleteMedia(ctx context.Context, tenantID, mediaID string) error {
	query := `DELETE FROM media WHERE tenant_id = $1 AND id = $2`
	result, err := r.db.ExecContext(ctx, query, tenantID, mediaID)
	if err != nil {
		return err
	}
	if n, err := result.RowsAffected(); err == nil && n == 0 {
		return sql.ErrNoRows
	}
	return nil
}

package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"

	"lms/internal/model"
)

// TenantRepository defines the interface for interacting with tenant data
type TenantRepository interface {
	GetTenantBySlug(ctx context.Context, slug string) (*model.Tenant, error)
	GetTenantByID(ctx context.Context, tenantID string) (*model.Tenant, error)
	ListActiveTenants(ctx context.Context) ([]model.Tenant, error)
	GetSettings(ctx context.Context, tenantID string) (*model.TenantSettings, error)
	UpsertSettings(ctx context.Context, s *model.TenantSettings) error
}

type tenantRepo struct {
	db *sql.DB
}

// NewTenantRepo creates a new TenantRepository
func NewTenantRepo(db *sql.DB) TenantRepository {
	return &tenantRepo{db: db}
}

func (r *tenantRepo) GetTenantBySlug(ctx context.Context, slug string) (*model.Tenant, error) {
	query := `
		SELECT id, slug, name, status, created_at, updated_at
		FROM tenants
		WHERE slug = $1
	`
	var t model.Tenant
	err := r.db.QueryRowContext(ctx, query, slug).Scan(
		&t.ID,
		&t.Slug,
		&t.Name,
		&t.Status,
		&t.CreatedAt,
		&t.UpdatedAt,
	)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, err
	}
	return &t, nil
}

func (r *tenantRepo) GetTenantByID(ctx context.Context, tenantID string) (*model.Tenant, error) {
	query := `
		SELECT id, slug, name, status, created_at, updated_at
		FROM tenants
		WHERE id = $1
	`
	var t model.Tenant
	err := r.db.QueryRowContext(ctx, query, tenantID).Scan(
		&t.ID,
		&t.Slug,
		&t.Name,
		&t.Status,
		&t.CreatedAt,
		&t.UpdatedAt,
	)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, err
	}
	return &t, nil
}

func (r *tenantRepo) ListActiveTenants(ctx context.Context) ([]model.Tenant, error) {
	query := `
		SELECT id, slug, name, status, created_at, updated_at
		FROM tenants
		WHERE status = 'active'
		ORDER BY slug ASC
	`
	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to query active tenants: %w", err)
	}
	defer rows.Close()

	var tenants []model.Tenant
	for rows.Next() {
		var t model.Tenant
		if err := rows.Scan(&t.ID, &t.Slug, &t.Name, &t.Status, &t.CreatedAt, &t.UpdatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan tenant row: %w", err)
		}
		tenants = append(tenants, t)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("row iteration error: %w", err)
	}

	if len(tenants) == 0 {
		return []model.Tenant{}, nil
	}
	return tenants, nil
}

// GetSettings retrieves the settings row for a tenant.
// allowed_media_types is stored as jsonb.
func (r *tenantRepo) GetSettings(ctx context.Context, tenantID string) (*model.TenantSettings, error) {
	query := `
		SELECT tenant_id, max_lesson_attempts, pass_threshold_pct, max_upload_size_mb,
		       allowed_media_types, webhook_url, webhook_enabled, notifications_email,
		       synced_from_service, synced_at
		FROM tenant_settings
		WHERE tenant_id = $1
	`
	var s model.TenantSettings
	var mediaTypes []byte
	err := r.db.QueryRowContext(ctx, query, tenantID).Scan(
		&s.TenantID,
		&s.MaxLessonAttempts,
		&s.PassThresholdPct,
		&s.MaxUploadSizeMB,
		&mediaTypes,
		&s.WebhookURL,
		&s.WebhookEnabled,
		&s.NotificationsEmail,
		&s.SyncedFromService,
		&s.SyncedAt,
	)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, err
	}
	if err := json.Unmarshal(mediaTypes, &s.AllowedMediaTypes); err != nil {
		return nil, fmt.Errorf("failed to decode allowed_media_types: %w", err)
	}
	return &s, nil
}

func (r *tenantRepo) UpsertSettings(ctx context.Context, s *model.TenantSettings) error {
	mediaTypes, err := json.Marshal(s.AllowedMediaTypes)
	if err != nil {
		return fmt.Errorf("failed to encode allowed_media_types: %w", err)
	}
	query := `
		INSERT INTO tenant_settings (tenant_id, max_lesson_attempts, pass_threshold_pct,
			max_upload_size_mb, allowed_media_types, webhook_url, webhook_enabled,
			notifications_email, synced_from_service, synced_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, NOW())
		ON CONFLICT (tenant_id) DO UPDATE SET
			max_lesson_attempts = EXCLUDED.max_lesson_attempts,
			pass_threshold_pct = EXCLUDED.pass_threshold_pct,
			max_upload_size_mb = EXCLUDED.max_upload_size_mb,
			allowed_media_types = EXCLUDED.allowed_media_types,
			webhook_url = EXCLUDED.webhook_url,
			webhook_enabled = EXCLUDED.webhook_enabled,
			notifications_email = EXCLUDED.notifications_email,
			synced_from_service = EXCLUDED.synced_from_service,
			synced_at = NOW()
		RETURNING synced_at
	`
	return r.db.QueryRowContext(ctx, query,
		s.TenantID,
		s.MaxLessonAttempts,
		s.PassThresholdPct,
		s.MaxUploadSizeMB,
		mediaTypes,
		s.WebhookURL,
		s.WebhookEnabled,
		s.NotificationsEmail,
		s.SyncedFromService,
	).Scan(&s.SyncedAt)
}

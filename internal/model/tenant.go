package model

import "time"

const (
	TenantStatusActive    = "active"
	TenantStatusSuspended = "suspended"
)

// Tenant is a customer organization. All domain rows carry its ID.
type Tenant struct {
	ID        string    `db:"id" json:"id"`
	Slug      string    `db:"slug" json:"slug"`
	Name      string    `db:"name" json:"name"`
	Status    string    `db:"status" json:"status"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
	UpdatedAt time.Time `db:"updated_at" json:"updated_at"`
}

// TenantSettings holds the per-tenant knobs synced from the config service.
type TenantSettings struct {
	TenantID            string    `db:"tenant_id" json:"tenant_id"`
	MaxLessonAttempts   int       `db:"max_lesson_attempts" json:"max_lesson_attempts"` // 0 = unlimited
	PassThresholdPct    int       `db:"pass_threshold_pct" json:"pass_threshold_pct"`
	MaxUploadSizeMB     int       `db:"max_upload_size_mb" json:"max_upload_size_mb"`
	AllowedMediaTypes   []string  `db:"allowed_media_types" json:"allowed_media_types"`
	WebhookURL          string    `db:"webhook_url" json:"webhook_url"`
	WebhookEnabled      bool      `db:"webhook_enabled" json:"webhook_enabled"`
	NotificationsEmail  bool      `db:"notifications_email" json:"notifications_email"`
	SyncedFromService   bool      `db:"synced_from_service" json:"synced_from_service"`
	SyncedAt            time.Time `db:"synced_at" json:"synced_at"`
}

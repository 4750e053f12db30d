package dto

import "time"

// TenantSettingsResponseDTO is returned by the sync endpoints.
type TenantSettingsResponseDTO struct {
	MaxLessonAttempts  int       `json:"max_lesson_attempts"`
	PassThresholdPct   int       `json:"pass_threshold_pct"`
	MaxUploadSizeMB    int       `json:"max_upload_size_mb"`
	AllowedMediaTypes  []string  `json:"allowed_media_types"`
	WebhookURL         string    `json:"webhook_url"`
	WebhookEnabled     bool      `json:"webhook_enabled"`
	NotificationsEmail bool      `json:"notifications_email"`
	SyncedFromService  bool      `json:"synced_from_service"`
	SyncedAt           time.Time `json:"synced_at"`
}

// SettingsPushDTO is the body of a push from the config service.
type SettingsPushDTO struct {
	Tenant   string `json:"tenant" validate:"required"`
	Settings struct {
		MaxLessonAttempts  *int     `json:"max_lesson_attempts"`
		PassThresholdPct   *int     `json:"pass_threshold_pct"`
		MaxUploadSizeMB    *int     `json:"max_upload_size_mb"`
		AllowedMediaTypes  []string `json:"allowed_media_types"`
		WebhookURL         *string  `json:"webhook_url"`
		WebhookEnabled     *bool    `json:"webhook_enabled"`
		NotificationsEmail *bool    `json:"notifications_email"`
	} `json:"settings"`
}

// WebhookSecretDTO rotates a tenant's webhook signing secret.
type WebhookSecretDTO struct {
	Secret string `json:"secret" validate:"required,min=16"`
}

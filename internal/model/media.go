package model

import "time"

const (
	MediaStatusUploading = "uploading"
	MediaStatusReady     = "ready"
	MediaStatusFailed    = "failed"
)

// Media is an uploaded file. The object itself lives in S3 under StorageKey;
// the row only tracks metadata and upload state.
type Media struct {
	ID          string    `db:"id" json:"id"`
	TenantID    string    `db:"tenant_id" json:"tenant_id"`
	OwnerID     string    `db:"owner_id" json:"owner_id"`
	LessonID    *string   `db:"lesson_id" json:"lesson_id,omitempty"`
	Filename    string    `db:"filename" json:"filename"`
	ContentType string    `db:"content_type" json:"content_type"`
	SizeBytes   int64     `db:"size_bytes" json:"size_bytes"`
	StorageKey  string    `db:"storage_key" json:"storage_key"`
	Status      string    `db:"status" json:"status"`
	CreatedAt   time.Time `db:"created_at" json:"created_at"`
	UpdatedAt   time.Time `db:"updated_at" json:"updated_at"`
}

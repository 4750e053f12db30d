package dto

import "time"

// MediaUploadDTO declares the file a client intends to upload.
type MediaUploadDTO struct {
	Filename    string  `json:"filename" validate:"required,max=255"`
	ContentType string  `json:"content_type" validate:"required,max=100"`
	SizeBytes   int64   `json:"size_bytes" validate:"required,min=1"`
	LessonID    *string `json:"lesson_id,omitempty" validate:"omitempty,uuid"`
}

type MediaResponseDTO struct {
	ID          string    `json:"id"`
	OwnerID     string    `json:"owner_id"`
	LessonID    *string   `json:"lesson_id,omitempty"`
	Filename    string    `json:"filename"`
	ContentType string    `json:"content_type"`
	SizeBytes   int64     `json:"size_bytes"`
	Status      string    `json:"status"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// MediaUploadResponseDTO pairs the created record with the presigned PUT URL.
type MediaUploadResponseDTO struct {
	Media     MediaResponseDTO `json:"media"`
	UploadURL string           `json:"upload_url"`
}

// MediaDownloadResponseDTO carries a presigned GET URL.
type MediaDownloadResponseDTO struct {
	DownloadURL string `json:"download_url"`
}

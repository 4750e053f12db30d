package dto

import "time"

// CourseCreateDTO is used for incoming course creation requests
type CourseCreateDTO struct {
	Title       string  `json:"title" validate:"required,max=200"`
	Slug        string  `json:"slug" validate:"required,max=100"`
	Description *string `json:"description,omitempty"`
}

// CourseUpdateDTO is used for incoming course update requests
type CourseUpdateDTO struct {
	Title       *string `json:"title,omitempty" validate:"omitempty,max=200"`
	Description *string `json:"description,omitempty"`
}

// CourseResponseDTO is returned in API responses for courses
type CourseResponseDTO struct {
	ID          string    `json:"id"`
	Title       string    `json:"title"`
	Slug        string    `json:"slug"`
	Description string    `json:"description"`
	Status      string    `json:"status"`
	CreatedBy   string    `json:"created_by"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

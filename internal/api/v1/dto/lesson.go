package dto

import "time"

type LessonCreateDTO struct {
	ModuleID    string  `json:"module_id" validate:"required,uuid"`
	Title       string  `json:"title" validate:"required,max=200"`
	Kind        string  `json:"kind" validate:"required,oneof=video document quiz"`
	Content     *string `json:"content,omitempty"`
	MediaID     *string `json:"media_id,omitempty" validate:"omitempty,uuid"`
	DurationSec *int    `json:"duration_sec,omitempty" validate:"omitempty,min=0"`
	Position    *int    `json:"position,omitempty" validate:"omitempty,min=0"`
}

type LessonUpdateDTO struct {
	Title       *string `json:"title,omitempty" validate:"omitempty,max=200"`
	Kind        *string `json:"kind,omitempty" validate:"omitempty,oneof=video document quiz"`
	Content     *string `json:"content,omitempty"`
	MediaID     *string `json:"media_id,omitempty" validate:"omitempty,uuid"`
	DurationSec *int    `json:"duration_sec,omitempty" validate:"omitempty,min=0"`
	Position    *int    `json:"position,omitempty" validate:"omitempty,min=0"`
}

type LessonResponseDTO struct {
	ID          string    `json:"id"`
	CourseID    string    `json:"course_id"`
	ModuleID    string    `json:"module_id"`
	Title       string    `json:"title"`
	Kind        string    `json:"kind"`
	Content     string    `json:"content"`
	MediaID     *string   `json:"media_id,omitempty"`
	DurationSec int       `json:"duration_sec"`
	Position    int       `json:"position"`
	Status      string    `json:"status"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

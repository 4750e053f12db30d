package dto

import "time"

type ModuleCreateDTO struct {
	CourseID    string  `json:"course_id" validate:"required,uuid"`
	Title       string  `json:"title" validate:"required,max=200"`
	Description *string `json:"description,omitempty"`
	Position    *int    `json:"position,omitempty" validate:"omitempty,min=0"`
}

type ModuleUpdateDTO struct {
	Title       *string `json:"title,omitempty" validate:"omitempty,max=200"`
	Description *string `json:"description,omitempty"`
	Position    *int    `json:"position,omitempty" validate:"omitempty,min=0"`
}

type ModuleResponseDTO struct {
	ID          string    `json:"id"`
	CourseID    string    `json:"course_id"`
	Title       string    `json:"title"`
	Description string    `json:"description"`
	Position    int       `json:"position"`
	Status      string    `json:"status"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

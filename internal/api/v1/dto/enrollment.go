package dto

import "time"

type EnrollmentCreateDTO struct {
	CourseID string `json:"course_id" validate:"required,uuid"`
}

type EnrollmentResponseDTO struct {
	ID          string     `json:"id"`
	UserID      string     `json:"user_id"`
	CourseID    string     `json:"course_id"`
	Status      string     `json:"status"`
	EnrolledAt  time.Time  `json:"enrolled_at"`
	CompletedAt *time.Time `json:"completed_at,omitempty"`
}

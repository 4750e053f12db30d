package dto

import "time"

// ProgressUpdateDTO reports playback/reading progress on the open attempt.
type ProgressUpdateDTO struct {
	Percent     int `json:"percent" validate:"min=0,max=100"`
	PositionSec int `json:"position_sec" validate:"min=0"`
}

type LessonTrackResponseDTO struct {
	ID          string     `json:"id"`
	LessonID    string     `json:"lesson_id"`
	CourseID    string     `json:"course_id"`
	Attempt     int        `json:"attempt"`
	Percent     int        `json:"percent"`
	PositionSec int        `json:"position_sec"`
	Status      string     `json:"status"`
	StartedAt   time.Time  `json:"started_at"`
	CompletedAt *time.Time `json:"completed_at,omitempty"`
}

type ModuleTrackResponseDTO struct {
	ModuleID         string     `json:"module_id"`
	CompletedLessons int        `json:"completed_lessons"`
	TotalLessons     int        `json:"total_lessons"`
	Status           string     `json:"status"`
	StartedAt        time.Time  `json:"started_at"`
	CompletedAt      *time.Time `json:"completed_at,omitempty"`
}

type CourseProgressResponseDTO struct {
	CourseID         string                   `json:"course_id"`
	CompletedLessons int                      `json:"completed_lessons"`
	TotalLessons     int                      `json:"total_lessons"`
	Percent          int                      `json:"percent"`
	Status           string                   `json:"status"`
	StartedAt        time.Time                `json:"started_at"`
	CompletedAt      *time.Time               `json:"completed_at,omitempty"`
	Modules          []ModuleTrackResponseDTO `json:"modules"`
}

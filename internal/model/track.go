package model

import "time"

const (
	TrackStatusInProgress = "in_progress"
	TrackStatusCompleted  = "completed"
)

// CourseTrack is the per-user roll-up over a whole course.
// One row per (tenant, user, course).
type CourseTrack struct {
	ID               string     `db:"id" json:"id"`
	TenantID         string     `db:"tenant_id" json:"tenant_id"`
	UserID           string     `db:"user_id" json:"user_id"`
	CourseID         string     `db:"course_id" json:"course_id"`
	CompletedLessons int        `db:"completed_lessons" json:"completed_lessons"`
	TotalLessons     int        `db:"total_lessons" json:"total_lessons"`
	PercentComplete  int        `db:"percent_complete" json:"percent_complete"`
	Status           string     `db:"status" json:"status"`
	StartedAt        time.Time  `db:"started_at" json:"started_at"`
	CompletedAt      *time.Time `db:"completed_at" json:"completed_at,omitempty"`
}

// ModuleTrack is the per-user roll-up over one module.
// One row per (tenant, user, module).
type ModuleTrack struct {
	ID               string     `db:"id" json:"id"`
	TenantID         string     `db:"tenant_id" json:"tenant_id"`
	UserID           string     `db:"user_id" json:"user_id"`
	CourseID         string     `db:"course_id" json:"course_id"`
	ModuleID         string     `db:"module_id" json:"module_id"`
	CompletedLessons int        `db:"completed_lessons" json:"completed_lessons"`
	TotalLessons     int        `db:"total_lessons" json:"total_lessons"`
	Status           string     `db:"status" json:"status"`
	StartedAt        time.Time  `db:"started_at" json:"started_at"`
	CompletedAt      *time.Time `db:"completed_at" json:"completed_at,omitempty"`
}

// LessonTrack is one attempt at a lesson. Attempt numbers start at 1 and are
// unique per (tenant, user, lesson, attempt).
type LessonTrack struct {
	ID              string     `db:"id" json:"id"`
	TenantID        string     `db:"tenant_id" json:"tenant_id"`
	UserID          string     `db:"user_id" json:"user_id"`
	CourseID        string     `db:"course_id" json:"course_id"`
	LessonID        string     `db:"lesson_id" json:"lesson_id"`
	Attempt         int        `db:"attempt" json:"attempt"`
	PercentComplete int        `db:"percent_complete" json:"percent_complete"`
	PositionSec     int        `db:"position_sec" json:"position_sec"`
	Status          string     `db:"status" json:"status"`
	StartedAt       time.Time  `db:"started_at" json:"started_at"`
	CompletedAt     *time.Time `db:"completed_at" json:"completed_at,omitempty"`
}

// CourseProgress is the aggregate view returned by the progress endpoint.
type CourseProgress struct {
	CourseTrack  *CourseTrack  `json:"course_track"`
	ModuleTracks []ModuleTrack `json:"module_tracks"`
}

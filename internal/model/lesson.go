package model

import "time"

const (
	LessonKindVideo    = "video"
	LessonKindDocument = "document"
	LessonKindQuiz     = "quiz"
)

// Lesson is the unit learners actually complete. CourseID is denormalized so
// tracking queries never need to join through modules.
type Lesson struct {
	ID          string    `db:"id" json:"id"`
	TenantID    string    `db:"tenant_id" json:"tenant_id"`
	CourseID    string    `db:"course_id" json:"course_id"`
	ModuleID    string    `db:"module_id" json:"module_id"`
	Title       string    `db:"title" json:"title"`
	Kind        string    `db:"kind" json:"kind"`
	Content     string    `db:"content" json:"content"`
	MediaID     *string   `db:"media_id" json:"media_id,omitempty"`
	DurationSec int       `db:"duration_sec" json:"duration_sec"`
	Position    int       `db:"position" json:"position"`
	Status      string    `db:"status" json:"status"`
	CreatedAt   time.Time `db:"created_at" json:"created_at"`
	UpdatedAt   time.Time `db:"updated_at" json:"updated_at"`
}

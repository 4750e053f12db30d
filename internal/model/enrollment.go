package model

import "time"

const (
	EnrollmentStatusActive    = "active"
	EnrollmentStatusCompleted = "completed"
	EnrollmentStatusCancelled = "cancelled"
)

// UserEnrollment links a learner to a course. At most one row per
// (tenant, user, course); cancelled enrollments are kept for history.
type UserEnrollment struct {
	ID          string     `db:"id" json:"id"`
	TenantID    string     `db:"tenant_id" json:"tenant_id"`
	UserID      string     `db:"user_id" json:"user_id"`
	CourseID    string     `db:"course_id" json:"course_id"`
	Status      string     `db:"status" json:"status"`
	EnrolledAt  time.Time  `db:"enrolled_at" json:"enrolled_at"`
	CompletedAt *time.Time `db:"completed_at" json:"completed_at,omitempty"`
}

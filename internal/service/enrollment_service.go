package service

import (
	"context"
	"fmt"
	"time"

	"lms/internal/event"
	"lms/internal/model"
	"lms/internal/repository"

	"github.com/rs/zerolog"
)

type EnrollmentService interface {
	Enroll(ctx context.Context, tenantID, userID, courseID string) (*model.UserEnrollment, error)
	CancelEnrollment(ctx context.Context, tenantID, userID, enrollmentID string) (*model.UserEnrollment, error)
	GetEnrollment(ctx context.Context, tenantID, enrollmentID string) (*model.UserEnrollment, error)
	ListByUser(ctx context.Context, tenantID, userID string, limit, offset int) ([]model.UserEnrollment, error)
	ListByCourse(ctx context.Context, tenantID, courseID string, limit, offset int) ([]model.UserEnrollment, error)
}

type enrollmentService struct {
	repo       repository.EnrollmentRepository
	courseRepo repository.CourseRepository
	emitter    *event.Emitter
	logger     zerolog.Logger
}

func NewEnrollmentService(
	repo repository.EnrollmentRepository,
	courseRepo repository.CourseRepository,
	emitter *event.Emitter,
	logger zerolog.Logger,
) EnrollmentService {
	return &enrollmentService{
		repo:       repo,
		courseRepo: courseRepo,
		emitter:    emitter,
		logger:     logger.With().Str("service", "EnrollmentService").Logger(),
	}
}

// Enroll creates an active enrollment in a published course. Enrolling twice
// is a conflict; a cancelled enrollment is re-activated instead of duplicated.
func (s *enrollmentService) Enroll(ctx context.Context, tenantID, userID, courseID string) (*model.UserEnrollment, error) {
	course, err := s.courseRepo.GetCourseByID(ctx, tenantID, courseID)
	if err != nil {
		return nil, err
	}
	if course == nil {
		return nil, fmt.Errorf("%w: course %s", ErrNotFound, courseID)
	}
	if course.Status != model.ContentStatusPublished {
		return nil, fmt.Errorf("%w: course is not published", ErrConflict)
	}

	existing, err := s.repo.GetEnrollmentByUserAndCourse(ctx, tenantID, userID, courseID)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		if existing.Status != model.EnrollmentStatusCancelled {
			return nil, fmt.Errorf("%w: user already enrolled in this course", ErrConflict)
		}
		if err := s.repo.UpdateEnrollmentStatus(ctx, tenantID, existing.ID, model.EnrollmentStatusActive, nil); err != nil {
			s.logger.Error().Err(err).Str("enrollment_id", existing.ID).Msg("Failed to re-activate enrollment")
			return nil, err
		}
		existing.Status = model.EnrollmentStatusActive
		existing.CompletedAt = nil
		s.emitEnrollment(ctx, event.EnrollmentCreated, existing)
		return existing, nil
	}

	enrollment := &model.UserEnrollment{
		TenantID: tenantID,
		UserID:   userID,
		CourseID: courseID,
		Status:   model.EnrollmentStatusActive,
	}
	if err := s.repo.CreateEnrollment(ctx, enrollment); err != nil {
		s.logger.Error().Err(err).Str("course_id", courseID).Msg("Failed to create enrollment")
		return nil, err
	}

	s.emitEnrollment(ctx, event.EnrollmentCreated, enrollment)
	return enrollment, nil
}

func (s *enrollmentService) CancelEnrollment(ctx context.Context, tenantID, userID, enrollmentID string) (*model.UserEnrollment, error) {
	enrollment, err := s.repo.GetEnrollmentByID(ctx, tenantID, enrollmentID)
	if err != nil {
		return nil, err
	}
	if enrollment == nil {
		return nil, ErrNotFound
	}
	if enrollment.UserID != userID {
		return nil, fmt.Errorf("%w: enrollment belongs to another user", ErrForbidden)
	}
	if enrollment.Status != model.EnrollmentStatusActive {
		return nil, fmt.Errorf("%w: only active enrollments can be cancelled", ErrConflict)
	}

	if err := s.repo.UpdateEnrollmentStatus(ctx, tenantID, enrollmentID, model.EnrollmentStatusCancelled, nil); err != nil {
		s.logger.Error().Err(err).Str("enrollment_id", enrollmentID).Msg("Failed to cancel enrollment")
		return nil, err
	}
	enrollment.Status = model.EnrollmentStatusCancelled

	s.emitEnrollment(ctx, event.EnrollmentCancelled, enrollment)
	return enrollment, nil
}

func (s *enrollmentService) GetEnrollment(ctx context.Context, tenantID, enrollmentID string) (*model.UserEnrollment, error) {
	enrollment, err := s.repo.GetEnrollmentByID(ctx, tenantID, enrollmentID)
	if err != nil {
		return nil, err
	}
	if enrollment == nil {
		return nil, ErrNotFound
	}
	return enrollment, nil
}

func (s *enrollmentService) ListByUser(ctx context.Context, tenantID, userID string, limit, offset int) ([]model.UserEnrollment, error) {
	return s.repo.ListEnrollmentsByUser(ctx, tenantID, userID, limit, offset)
}

func (s *enrollmentService) ListByCourse(ctx context.Context, tenantID, courseID string, limit, offset int) ([]model.UserEnrollment, error) {
	return s.repo.ListEnrollmentsByCourse(ctx, tenantID, courseID, limit, offset)
}

func (s *enrollmentService) emitEnrollment(ctx context.Context, name string, e *model.UserEnrollment) {
	s.emitter.Emit(ctx, event.Event{
		Name:     name,
		TenantID: e.TenantID,
		Data: map[string]string{
			"enrollment_id": e.ID,
			"user_id":       e.UserID,
			"course_id":     e.CourseID,
		},
	})
}

// markCompleted is called by the tracking service once a course rolls up to
// 100%. Kept here so enrollment state transitions stay in one place.
func markEnrollmentCompleted(ctx context.Context, repo repository.EnrollmentRepository, tenantID, userID, courseID string) (*model.UserEnrollment, error) {
	enrollment, err := repo.GetEnrollmentByUserAndCourse(ctx, tenantID, userID, courseID)
	if err != nil {
		return nil, err
	}
	if enrollment == nil || enrollment.Status != model.EnrollmentStatusActive {
		return nil, nil
	}
	now := time.Now().UTC()
	if err := repo.UpdateEnrollmentStatus(ctx, tenantID, enrollment.ID, model.EnrollmentStatusCompleted, &now); err != nil {
		return nil, err
	}
	enrollment.Status = model.EnrollmentStatusCompleted
	enrollment.CompletedAt = &now
	return enrollment, nil
}

package service

import (
	"context"
	"fmt"

	"lms/internal/cache"
	"lms/internal/model"
	"lms/internal/repository"

	"github.com/rs/zerolog"
)

// CourseService defines course-related operations
type CourseService interface {
	CreateCourse(ctx context.Context, c *model.Course) (*model.Course, error)
	GetCourseByID(ctx context.Context, tenantID, courseID string) (*model.Course, error)
	ListCourses(ctx context.Context, tenantID, status string, limit, offset int) ([]model.Course, error)
	UpdateCourse(ctx context.Context, c *model.Course) (*model.Course, error)
	PublishCourse(ctx context.Context, tenantID, courseID string) (*model.Course, error)
	ArchiveCourse(ctx context.Context, tenantID, courseID string) (*model.Course, error)
	DeleteCourse(ctx context.Context, tenantID, courseID string) error
}

type courseService struct {
	repo       repository.CourseRepository
	lessonRepo repository.LessonRepository
	cache      cache.Cache
	logger     zerolog.Logger
}

// NewCourseService creates a new CourseService
func NewCourseService(repo repository.CourseRepository, lessonRepo repository.LessonRepository, c cache.Cache, logger zerolog.Logger) CourseService {
	return &courseService{
		repo:       repo,
		lessonRepo: lessonRepo,
		cache:      c,
		logger:     logger.With().Str("service", "CourseService").Logger(),
	}
}

func (s *courseService) CreateCourse(ctx context.Context, c *model.Course) (*model.Course, error) {
	existing, err := s.repo.GetCourseBySlug(ctx, c.TenantID, c.Slug)
	if err != nil {
		return nil, fmt.Errorf("failed to check course slug: %w", err)
	}
	if existing != nil {
		return nil, fmt.Errorf("%w: course slug %q already exists", ErrConflict, c.Slug)
	}

	c.Status = model.ContentStatusDraft
	if err := s.repo.CreateCourse(ctx, c); err != nil {
		s.logger.Error().Err(err).Str("tenant_id", c.TenantID).Msg("Failed to create course")
		return nil, err
	}
	return c, nil
}

// GetCourseByID reads through the cache for published courses. Draft and
// archived courses always hit the database.
func (s *courseService) GetCourseByID(ctx context.Context, tenantID, courseID string) (*model.Course, error) {
	if cached, ok := s.cache.Get(cache.CourseKey(tenantID, courseID)); ok {
		if c, ok := cached.(*model.Course); ok {
			return c, nil
		}
	}

	course, err := s.repo.GetCourseByID(ctx, tenantID, courseID)
	if err != nil {
		s.logger.Error().Err(err).Str("course_id", courseID).Msg("Failed to get course by ID")
		return nil, err
	}
	if course == nil {
		return nil, ErrNotFound
	}

	if course.Status == model.ContentStatusPublished {
		s.cache.Set(cache.CourseKey(tenantID, courseID), course)
	}
	return course, nil
}

func (s *courseService) ListCourses(ctx context.Context, tenantID, status string, limit, offset int) ([]model.Course, error) {
	courses, err := s.repo.ListCourses(ctx, tenantID, status, limit, offset)
	if err != nil {
		s.logger.Error().Err(err).Str("tenant_id", tenantID).Msg("Failed to list courses")
		return nil, err
	}
	return courses, nil
}

func (s *courseService) UpdateCourse(ctx context.Context, c *model.Course) (*model.Course, error) {
	current, err := s.repo.GetCourseByID(ctx, c.TenantID, c.ID)
	if err != nil {
		return nil, err
	}
	if current == nil {
		return nil, ErrNotFound
	}
	if current.Status == model.ContentStatusArchived {
		return nil, fmt.Errorf("%w: archived courses cannot be updated", ErrConflict)
	}

	c.Status = current.Status
	if err := s.repo.UpdateCourse(ctx, c); err != nil {
		s.logger.Error().Err(err).Str("course_id", c.ID).Msg("Failed to update course")
		return nil, err
	}
	s.cache.Delete(cache.CourseKey(c.TenantID, c.ID))
	return c, nil
}

// PublishCourse moves draft->published. A course needs at least one published
// lesson before learners can enroll.
func (s *courseService) PublishCourse(ctx context.Context, tenantID, courseID string) (*model.Course, error) {
	course, err := s.repo.GetCourseByID(ctx, tenantID, courseID)
	if err != nil {
		return nil, err
	}
	if course == nil {
		return nil, ErrNotFound
	}
	if course.Status == model.ContentStatusArchived {
		return nil, fmt.Errorf("%w: archived courses cannot be published", ErrConflict)
	}
	if course.Status == model.ContentStatusPublished {
		return course, nil
	}

	lessons, err := s.lessonRepo.CountPublishedByCourse(ctx, tenantID, courseID)
	if err != nil {
		return nil, err
	}
	if lessons == 0 {
		return nil, fmt.Errorf("%w: course has no published lessons", ErrConflict)
	}

	course.Status = model.ContentStatusPublished
	if err := s.repo.UpdateCourse(ctx, course); err != nil {
		s.logger.Error().Err(err).Str("course_id", courseID).Msg("Failed to publish course")
		return nil, err
	}
	s.cache.Delete(cache.CourseKey(tenantID, courseID))
	return course, nil
}

// ArchiveCourse is terminal: archived courses never return to draft or
// published.
func (s *courseService) ArchiveCourse(ctx context.Context, tenantID, courseID string) (*model.Course, error) {
	course, err := s.repo.GetCourseByID(ctx, tenantID, courseID)
	if err != nil {
		return nil, err
	}
	if course == nil {
		return nil, ErrNotFound
	}
	if course.Status == model.ContentStatusArchived {
		return course, nil
	}

	course.Status = model.ContentStatusArchived
	if err := s.repo.UpdateCourse(ctx, course); err != nil {
		s.logger.Error().Err(err).Str("course_id", courseID).Msg("Failed to archive course")
		return nil, err
	}
	s.cache.Delete(cache.CourseKey(tenantID, courseID))
	return course, nil
}

// DeleteCourse removes a draft course. Published content is archived instead
// of deleted so existing tracks stay meaningful.
func (s *courseService) DeleteCourse(ctx context.Context, tenantID, courseID string) error {
	course, err := s.repo.GetCourseByID(ctx, tenantID, courseID)
	if err != nil {
		return err
	}
	if course == nil {
		return ErrNotFound
	}
	if course.Status != model.ContentStatusDraft {
		return fmt.Errorf("%w: only draft courses can be deleted", ErrConflict)
	}

	if err := s.repo.DeleteCourse(ctx, tenantID, courseID); err != nil {
		s.logger.Error().Err(err).Str("course_id", courseID).Msg("Failed to delete course")
		return err
	}
	s.cache.Delete(cache.CourseKey(tenantID, courseID))
	return nil
}

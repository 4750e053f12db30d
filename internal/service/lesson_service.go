package service

import (
	"context"
	"fmt"

	"lms/internal/model"
	"lms/internal/repository"

	"github.com/rs/zerolog"
)

type LessonService interface {
	CreateLesson(ctx context.Context, l *model.Lesson) (*model.Lesson, error)
	GetLessonByID(ctx context.Context, tenantID, lessonID string) (*model.Lesson, error)
	ListLessonsByModule(ctx context.Context, tenantID, moduleID string, limit, offset int) ([]model.Lesson, error)
	UpdateLesson(ctx context.Context, l *model.Lesson) (*model.Lesson, error)
	PublishLesson(ctx context.Context, tenantID, lessonID string) (*model.Lesson, error)
	ArchiveLesson(ctx context.Context, tenantID, lessonID string) (*model.Lesson, error)
	DeleteLesson(ctx context.Context, tenantID, lessonID string) error
}

type lessonService struct {
	repo       repository.LessonRepository
	moduleRepo repository.ModuleRepository
	mediaRepo  repository.MediaRepository
	logger     zerolog.Logger
}

func NewLessonService(
	repo repository.LessonRepository,
	moduleRepo repository.ModuleRepository,
	mediaRepo repository.MediaRepository,
	logger zerolog.Logger,
) LessonService {
	return &lessonService{
		repo:       repo,
		moduleRepo: moduleRepo,
		mediaRepo:  mediaRepo,
		logger:     logger.With().Str("service", "LessonService").Logger(),
	}
}

func (s *lessonService) CreateLesson(ctx context.Context, l *model.Lesson) (*model.Lesson, error) {
	module, err := s.moduleRepo.GetModuleByID(ctx, l.TenantID, l.ModuleID)
	if err != nil {
		return nil, err
	}
	if module == nil {
		return nil, fmt.Errorf("%w: module %s", ErrNotFound, l.ModuleID)
	}
	if module.Status == model.ContentStatusArchived {
		return nil, fmt.Errorf("%w: cannot add lessons to an archived module", ErrConflict)
	}

	// course_id is denormalized from the module; callers never set it directly
	l.CourseID = module.CourseID

	if err := s.checkMedia(ctx, l); err != nil {
		return nil, err
	}

	l.Status = model.ContentStatusDraft
	if err := s.repo.CreateLesson(ctx, l); err != nil {
		s.logger.Error().Err(err).Str("module_id", l.ModuleID).Msg("Failed to create lesson")
		return nil, err
	}
	return l, nil
}

func (s *lessonService) GetLessonByID(ctx context.Context, tenantID, lessonID string) (*model.Lesson, error) {
	lesson, err := s.repo.GetLessonByID(ctx, tenantID, lessonID)
	if err != nil {
		s.logger.Error().Err(err).Str("lesson_id", lessonID).Msg("Failed to get lesson by ID")
		return nil, err
	}
	if lesson == nil {
		return nil, ErrNotFound
	}
	return lesson, nil
}

func (s *lessonService) ListLessonsByModule(ctx context.Context, tenantID, moduleID string, limit, offset int) ([]model.Lesson, error) {
	module, err := s.moduleRepo.GetModuleByID(ctx, tenantID, moduleID)
	if err != nil {
		return nil, err
	}
	if module == nil {
		return nil, fmt.Errorf("%w: module %s", ErrNotFound, moduleID)
	}
	return s.repo.ListLessonsByModule(ctx, tenantID, moduleID, limit, offset)
}

func (s *lessonService) UpdateLesson(ctx context.Context, l *model.Lesson) (*model.Lesson, error) {
	current, err := s.repo.GetLessonByID(ctx, l.TenantID, l.ID)
	if err != nil {
		return nil, err
	}
	if current == nil {
		return nil, ErrNotFound
	}
	if current.Status == model.ContentStatusArchived {
		return nil, fmt.Errorf("%w: archived lessons cannot be updated", ErrConflict)
	}

	l.ModuleID = current.ModuleID
	l.CourseID = current.CourseID
	l.Status = current.Status

	if err := s.checkMedia(ctx, l); err != nil {
		return nil, err
	}

	if err := s.repo.UpdateLesson(ctx, l); err != nil {
		s.logger.Error().Err(err).Str("lesson_id", l.ID).Msg("Failed to update lesson")
		return nil, err
	}
	return l, nil
}

func (s *lessonService) PublishLesson(ctx context.Context, tenantID, lessonID string) (*model.Lesson, error) {
	lesson, err := s.repo.GetLessonByID(ctx, tenantID, lessonID)
	if err != nil {
		return nil, err
	}
	if lesson == nil {
		return nil, ErrNotFound
	}
	if lesson.Status == model.ContentStatusArchived {
		return nil, fmt.Errorf("%w: archived lessons cannot be published", ErrConflict)
	}
	if lesson.Status == model.ContentStatusPublished {
		return lesson, nil
	}

	// Video lessons need ready media before learners can see them.
	if lesson.Kind == model.LessonKindVideo {
		if lesson.MediaID == nil {
			return nil, fmt.Errorf("%w: video lesson has no media attached", ErrConflict)
		}
		media, err := s.mediaRepo.GetMediaByID(ctx, tenantID, *lesson.MediaID)
		if err != nil {
			return nil, err
		}
		if media == nil || media.Status != model.MediaStatusReady {
			return nil, fmt.Errorf("%w: lesson media is not ready", ErrConflict)
		}
	}

	lesson.Status = model.ContentStatusPublished
	if err := s.repo.UpdateLesson(ctx, lesson); err != nil {
		s.logger.Error().Err(err).Str("lesson_id", lessonID).Msg("Failed to publish lesson")
		return nil, err
	}
	return lesson, nil
}

// ArchiveLesson is terminal: archived lessons never return to draft or
// published.
func (s *lessonService) ArchiveLesson(ctx context.Context, tenantID, lessonID string) (*model.Lesson, error) {
	lesson, err := s.repo.GetLessonByID(ctx, tenantID, lessonID)
	if err != nil {
		return nil, err
	}
	if lesson == nil {
		return nil, ErrNotFound
	}
	if lesson.Status == model.ContentStatusArchived {
		return lesson, nil
	}

	lesson.Status = model.ContentStatusArchived
	if err := s.repo.UpdateLesson(ctx, lesson); err != nil {
		s.logger.Error().Err(err).Str("lesson_id", lessonID).Msg("Failed to archive lesson")
		return nil, err
	}
	return lesson, nil
}

func (s *lessonService) DeleteLesson(ctx context.Context, tenantID, lessonID string) error {
	lesson, err := s.repo.GetLessonByID(ctx, tenantID, lessonID)
	if err != nil {
		return err
	}
	if lesson == nil {
		return ErrNotFound
	}
	if lesson.Status != model.ContentStatusDraft {
		return fmt.Errorf("%w: only draft lessons can be deleted", ErrConflict)
	}
	return s.repo.DeleteLesson(ctx, tenantID, lessonID)
}

func (s *lessonService) checkMedia(ctx context.Context, l *model.Lesson) error {
	if l.MediaID == nil {
		return nil
	}
	media, err := s.mediaRepo.GetMediaByID(ctx, l.TenantID, *l.MediaID)
	if err != nil {
		return err
	}
	if media == nil {
		return fmt.Errorf("%w: media %s", ErrNotFound, *l.MediaID)
	}
	return nil
}

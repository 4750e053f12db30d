package service

import (
	"context"
	"fmt"

	"lms/internal/model"
	"lms/internal/repository"

	"github.com/rs/zerolog"
)

type ModuleService interface {
	CreateModule(ctx context.Context, m *model.Module) (*model.Module, error)
	GetModuleByID(ctx context.Context, tenantID, moduleID string) (*model.Module, error)
	ListModulesByCourse(ctx context.Context, tenantID, courseID string, limit, offset int) ([]model.Module, error)
	UpdateModule(ctx context.Context, m *model.Module) (*model.Module, error)
	PublishModule(ctx context.Context, tenantID, moduleID string) (*model.Module, error)
	ArchiveModule(ctx context.Context, tenantID, moduleID string) (*model.Module, error)
	DeleteModule(ctx context.Context, tenantID, moduleID string) error
}

type moduleService struct {
	repo       repository.ModuleRepository
	courseRepo repository.CourseRepository
	logger     zerolog.Logger
}

func NewModuleService(repo repository.ModuleRepository, courseRepo repository.CourseRepository, logger zerolog.Logger) ModuleService {
	return &moduleService{
		repo:       repo,
		courseRepo: courseRepo,
		logger:     logger.With().Str("service", "ModuleService").Logger(),
	}
}

func (s *moduleService) CreateModule(ctx context.Context, m *model.Module) (*model.Module, error) {
	course, err := s.courseRepo.GetCourseByID(ctx, m.TenantID, m.CourseID)
	if err != nil {
		return nil, err
	}
	if course == nil {
		return nil, fmt.Errorf("%w: course %s", ErrNotFound, m.CourseID)
	}
	if course.Status == model.ContentStatusArchived {
		return nil, fmt.Errorf("%w: cannot add modules to an archived course", ErrConflict)
	}

	m.Status = model.ContentStatusDraft
	if err := s.repo.CreateModule(ctx, m); err != nil {
		s.logger.Error().Err(err).Str("course_id", m.CourseID).Msg("Failed to create module")
		return nil, err
	}
	return m, nil
}

func (s *moduleService) GetModuleByID(ctx context.Context, tenantID, moduleID string) (*model.Module, error) {
	module, err := s.repo.GetModuleByID(ctx, tenantID, moduleID)
	if err != nil {
		s.logger.Error().Err(err).Str("module_id", moduleID).Msg("Failed to get module by ID")
		return nil, err
	}
	if module == nil {
		return nil, ErrNotFound
	}
	return module, nil
}

func (s *moduleService) ListModulesByCourse(ctx context.Context, tenantID, courseID string, limit, offset int) ([]model.Module, error) {
	course, err := s.courseRepo.GetCourseByID(ctx, tenantID, courseID)
	if err != nil {
		return nil, err
	}
	if course == nil {
		return nil, fmt.Errorf("%w: course %s", ErrNotFound, courseID)
	}
	return s.repo.ListModulesByCourse(ctx, tenantID, courseID, limit, offset)
}

func (s *moduleService) UpdateModule(ctx context.Context, m *model.Module) (*model.Module, error) {
	current, err := s.repo.GetModuleByID(ctx, m.TenantID, m.ID)
	if err != nil {
		return nil, err
	}
	if current == nil {
		return nil, ErrNotFound
	}
	if current.Status == model.ContentStatusArchived {
		return nil, fmt.Errorf("%w: archived modules cannot be updated", ErrConflict)
	}

	m.CourseID = current.CourseID
	m.Status = current.Status
	if err := s.repo.UpdateModule(ctx, m); err != nil {
		s.logger.Error().Err(err).Str("module_id", m.ID).Msg("Failed to update module")
		return nil, err
	}
	return m, nil
}

func (s *moduleService) PublishModule(ctx context.Context, tenantID, moduleID string) (*model.Module, error) {
	module, err := s.repo.GetModuleByID(ctx, tenantID, moduleID)
	if err != nil {
		return nil, err
	}
	if module == nil {
		return nil, ErrNotFound
	}
	if module.Status == model.ContentStatusArchived {
		return nil, fmt.Errorf("%w: archived modules cannot be published", ErrConflict)
	}
	if module.Status == model.ContentStatusPublished {
		return module, nil
	}

	module.Status = model.ContentStatusPublished
	if err := s.repo.UpdateModule(ctx, module); err != nil {
		s.logger.Error().Err(err).Str("module_id", moduleID).Msg("Failed to publish module")
		return nil, err
	}
	return module, nil
}

// ArchiveModule is terminal: archived modules never return to draft or
// published.
func (s *moduleService) ArchiveModule(ctx context.Context, tenantID, moduleID string) (*model.Module, error) {
	module, err := s.repo.GetModuleByID(ctx, tenantID, moduleID)
	if err != nil {
		return nil, err
	}
	if module == nil {
		return nil, ErrNotFound
	}
	if module.Status == model.ContentStatusArchived {
		return module, nil
	}

	module.Status = model.ContentStatusArchived
	if err := s.repo.UpdateModule(ctx, module); err != nil {
		s.logger.Error().Err(err).Str("module_id", moduleID).Msg("Failed to archive module")
		return nil, err
	}
	return module, nil
}

func (s *moduleService) DeleteModule(ctx context.Context, tenantID, moduleID string) error {
	module, err := s.repo.GetModuleByID(ctx, tenantID, moduleID)
	if err != nil {
		return err
	}
	if module == nil {
		return ErrNotFound
	}
	if module.Status != model.ContentStatusDraft {
		return fmt.Errorf("%w: only draft modules can be deleted", ErrConflict)
	}
	return s.repo.DeleteModule(ctx, tenantID, moduleID)
}

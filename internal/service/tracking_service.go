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

// Actor identifies the learner acting on a track. Email is optional and only
// used to enrich emitted events.
type Actor struct {
	UserID string
	Email  string
}

// TrackingService implements the progress state machine: lesson attempts with
// resume/reattempt policy, and roll-up aggregation into module and course
// tracks.
type TrackingService interface {
	StartLesson(ctx context.Context, tenantID string, actor Actor, lessonID string) (*model.LessonTrack, error)
	RecordProgress(ctx context.Context, tenantID string, actor Actor, lessonID string, percent, positionSec int) (*model.LessonTrack, error)
	CompleteLesson(ctx context.Context, tenantID string, actor Actor, lessonID string) (*model.LessonTrack, error)
	GetCourseProgress(ctx context.Context, tenantID, userID, courseID string) (*model.CourseProgress, error)
	ListLessonAttempts(ctx context.Context, tenantID, userID, lessonID string) ([]model.LessonTrack, error)
}

type trackingService struct {
	tracks      repository.TrackRepository
	lessons     repository.LessonRepository
	enrollments repository.EnrollmentRepository
	settings    SettingsSource
	courseRepo  repository.CourseRepository
	emitter     *event.Emitter
	logger      zerolog.Logger
}

func NewTrackingService(
	tracks repository.TrackRepository,
	lessons repository.LessonRepository,
	enrollments repository.EnrollmentRepository,
	settings SettingsSource,
	courseRepo repository.CourseRepository,
	emitter *event.Emitter,
	logger zerolog.Logger,
) TrackingService {
	return &trackingService{
		tracks:      tracks,
		lessons:     lessons,
		enrollments: enrollments,
		settings:    settings,
		courseRepo:  courseRepo,
		emitter:     emitter,
		logger:      logger.With().Str("service", "TrackingService").Logger(),
	}
}

// StartLesson resolves the learner's current attempt:
//   - no attempt yet        -> create attempt 1
//   - latest in progress    -> resume it unchanged
//   - latest completed      -> new attempt while under the tenant's limit
func (s *trackingService) StartLesson(ctx context.Context, tenantID string, actor Actor, lessonID string) (*model.LessonTrack, error) {
	lesson, err := s.publishedLesson(ctx, tenantID, lessonID)
	if err != nil {
		return nil, err
	}

	enrollment, err := s.enrollments.GetEnrollmentByUserAndCourse(ctx, tenantID, actor.UserID, lesson.CourseID)
	if err != nil {
		return nil, err
	}
	if enrollment == nil || enrollment.Status == model.EnrollmentStatusCancelled {
		return nil, fmt.Errorf("%w: no active enrollment for this course", ErrConflict)
	}

	latest, err := s.tracks.GetLatestLessonTrack(ctx, tenantID, actor.UserID, lessonID)
	if err != nil {
		return nil, err
	}

	if latest != nil && latest.Status == model.TrackStatusInProgress {
		// Resume: the open attempt is the current one.
		return latest, nil
	}

	attempt := 1
	if latest != nil {
		settings, err := s.settings.SettingsForTenant(ctx, tenantID)
		if err != nil {
			return nil, err
		}
		attempts, err := s.tracks.CountLessonAttempts(ctx, tenantID, actor.UserID, lessonID)
		if err != nil {
			return nil, err
		}
		if settings.MaxLessonAttempts > 0 && attempts >= settings.MaxLessonAttempts {
			return nil, fmt.Errorf("%w: attempt limit of %d reached", ErrConflict, settings.MaxLessonAttempts)
		}
		attempt = latest.Attempt + 1
	}

	if err := s.ensureRollupTracks(ctx, tenantID, actor.UserID, lesson); err != nil {
		return nil, err
	}

	track := &model.LessonTrack{
		TenantID: tenantID,
		UserID:   actor.UserID,
		CourseID: lesson.CourseID,
		LessonID: lessonID,
		Attempt:  attempt,
		Status:   model.TrackStatusInProgress,
	}
	if err := s.tracks.CreateLessonTrack(ctx, track); err != nil {
		s.logger.Error().Err(err).Str("lesson_id", lessonID).Int("attempt", attempt).Msg("Failed to create lesson track")
		return nil, err
	}
	return track, nil
}

// RecordProgress updates the open attempt. Percent is clamped to [0,100] and
// never decreases within an attempt; crossing the tenant's pass threshold
// completes the attempt.
func (s *trackingService) RecordProgress(ctx context.Context, tenantID string, actor Actor, lessonID string, percent, positionSec int) (*model.LessonTrack, error) {
	lesson, err := s.publishedLesson(ctx, tenantID, lessonID)
	if err != nil {
		return nil, err
	}

	latest, err := s.tracks.GetLatestLessonTrack(ctx, tenantID, actor.UserID, lessonID)
	if err != nil {
		return nil, err
	}
	if latest == nil || latest.Status != model.TrackStatusInProgress {
		return nil, fmt.Errorf("%w: no attempt in progress; start the lesson first", ErrConflict)
	}

	if percent < 0 {
		percent = 0
	}
	if percent > 100 {
		percent = 100
	}
	if percent > latest.PercentComplete {
		latest.PercentComplete = percent
	}
	if positionSec > 0 {
		latest.PositionSec = positionSec
	}

	settings, err := s.settings.SettingsForTenant(ctx, tenantID)
	if err != nil {
		return nil, err
	}
	if latest.PercentComplete >= settings.PassThresholdPct {
		return s.completeAttempt(ctx, tenantID, actor, lesson, latest)
	}

	if err := s.tracks.UpdateLessonTrack(ctx, latest); err != nil {
		s.logger.Error().Err(err).Str("track_id", latest.ID).Msg("Failed to update lesson track")
		return nil, err
	}
	return latest, nil
}

// CompleteLesson explicitly completes the open attempt regardless of percent.
// Completing an already-completed latest attempt is a no-op.
func (s *trackingService) CompleteLesson(ctx context.Context, tenantID string, actor Actor, lessonID string) (*model.LessonTrack, error) {
	lesson, err := s.publishedLesson(ctx, tenantID, lessonID)
	if err != nil {
		return nil, err
	}

	latest, err := s.tracks.GetLatestLessonTrack(ctx, tenantID, actor.UserID, lessonID)
	if err != nil {
		return nil, err
	}
	if latest == nil {
		return nil, fmt.Errorf("%w: no attempt in progress; start the lesson first", ErrConflict)
	}
	if latest.Status == model.TrackStatusCompleted {
		return latest, nil
	}

	latest.PercentComplete = 100
	return s.completeAttempt(ctx, tenantID, actor, lesson, latest)
}

func (s *trackingService) GetCourseProgress(ctx context.Context, tenantID, userID, courseID string) (*model.CourseProgress, error) {
	courseTrack, err := s.tracks.GetCourseTrack(ctx, tenantID, userID, courseID)
	if err != nil {
		return nil, err
	}
	if courseTrack == nil {
		return nil, ErrNotFound
	}
	moduleTracks, err := s.tracks.ListModuleTracksByCourse(ctx, tenantID, userID, courseID)
	if err != nil {
		return nil, err
	}
	return &model.CourseProgress{CourseTrack: courseTrack, ModuleTracks: moduleTracks}, nil
}

func (s *trackingService) ListLessonAttempts(ctx context.Context, tenantID, userID, lessonID string) ([]model.LessonTrack, error) {
	return s.tracks.ListLessonAttempts(ctx, tenantID, userID, lessonID)
}

func (s *trackingService) publishedLesson(ctx context.Context, tenantID, lessonID string) (*model.Lesson, error) {
	lesson, err := s.lessons.GetLessonByID(ctx, tenantID, lessonID)
	if err != nil {
		return nil, err
	}
	if lesson == nil {
		return nil, fmt.Errorf("%w: lesson %s", ErrNotFound, lessonID)
	}
	if lesson.Status != model.ContentStatusPublished {
		return nil, fmt.Errorf("%w: lesson is not published", ErrConflict)
	}
	return lesson, nil
}

// ensureRollupTracks lazily creates the course and module tracks with total
// counters snapshotted from currently published content.
func (s *trackingService) ensureRollupTracks(ctx context.Context, tenantID, userID string, lesson *model.Lesson) error {
	courseTrack, err := s.tracks.GetCourseTrack(ctx, tenantID, userID, lesson.CourseID)
	if err != nil {
		return err
	}
	if courseTrack == nil {
		total, err := s.lessons.CountPublishedByCourse(ctx, tenantID, lesson.CourseID)
		if err != nil {
			return err
		}
		courseTrack = &model.CourseTrack{
			TenantID:     tenantID,
			UserID:       userID,
			CourseID:     lesson.CourseID,
			TotalLessons: total,
			Status:       model.TrackStatusInProgress,
		}
		if err := s.tracks.CreateCourseTrack(ctx, courseTrack); err != nil {
			return err
		}
	}

	moduleTrack, err := s.tracks.GetModuleTrack(ctx, tenantID, userID, lesson.ModuleID)
	if err != nil {
		return err
	}
	if moduleTrack == nil {
		total, err := s.lessons.CountPublishedByModule(ctx, tenantID, lesson.ModuleID)
		if err != nil {
			return err
		}
		moduleTrack = &model.ModuleTrack{
			TenantID:     tenantID,
			UserID:       userID,
			CourseID:     lesson.CourseID,
			ModuleID:     lesson.ModuleID,
			TotalLessons: total,
			Status:       model.TrackStatusInProgress,
		}
		if err := s.tracks.CreateModuleTrack(ctx, moduleTrack); err != nil {
			return err
		}
	}
	return nil
}

// completeAttempt marks the attempt completed and, if this is the first
// completed attempt at the lesson, rolls the completion up into the module
// and course tracks.
func (s *trackingService) completeAttempt(ctx context.Context, tenantID string, actor Actor, lesson *model.Lesson, track *model.LessonTrack) (*model.LessonTrack, error) {
	completedBefore, err := s.tracks.HasCompletedAttempt(ctx, tenantID, actor.UserID, lesson.ID)
	if err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	track.Status = model.TrackStatusCompleted
	track.CompletedAt = &now
	if err := s.tracks.UpdateLessonTrack(ctx, track); err != nil {
		s.logger.Error().Err(err).Str("track_id", track.ID).Msg("Failed to complete lesson track")
		return nil, err
	}

	s.emitter.Emit(ctx, event.Event{
		Name:     event.LessonCompleted,
		TenantID: tenantID,
		Data: map[string]string{
			"user_id":    actor.UserID,
			"user_email": actor.Email,
			"lesson_id":  lesson.ID,
			"course_id":  lesson.CourseID,
			"attempt":    fmt.Sprintf("%d", track.Attempt),
		},
	})

	// Reattempts of an already-completed lesson do not move the roll-up.
	if completedBefore {
		return track, nil
	}
	if err := s.rollUp(ctx, tenantID, actor, lesson); err != nil {
		// The attempt itself is completed; a roll-up failure is logged and
		// repaired by the next completion in the same course.
		s.logger.Error().Err(err).Str("lesson_id", lesson.ID).Msg("Roll-up failed after lesson completion")
	}
	return track, nil
}

func (s *trackingService) rollUp(ctx context.Context, tenantID string, actor Actor, lesson *model.Lesson) error {
	if err := s.ensureRollupTracks(ctx, tenantID, actor.UserID, lesson); err != nil {
		return err
	}
	now := time.Now().UTC()

	moduleTrack, err := s.tracks.GetModuleTrack(ctx, tenantID, actor.UserID, lesson.ModuleID)
	if err != nil {
		return err
	}
	moduleTotal, err := s.lessons.CountPublishedByModule(ctx, tenantID, lesson.ModuleID)
	if err != nil {
		return err
	}
	moduleDone, err := s.tracks.CountCompletedLessonsByModule(ctx, tenantID, actor.UserID, lesson.ModuleID)
	if err != nil {
		return err
	}
	moduleTrack.TotalLessons = moduleTotal
	moduleTrack.CompletedLessons = moduleDone
	if moduleTotal > 0 && moduleDone >= moduleTotal {
		moduleTrack.Status = model.TrackStatusCompleted
		if moduleTrack.CompletedAt == nil {
			moduleTrack.CompletedAt = &now
		}
	}
	if err := s.tracks.UpdateModuleTrack(ctx, moduleTrack); err != nil {
		return err
	}

	courseTrack, err := s.tracks.GetCourseTrack(ctx, tenantID, actor.UserID, lesson.CourseID)
	if err != nil {
		return err
	}
	courseTotal, err := s.lessons.CountPublishedByCourse(ctx, tenantID, lesson.CourseID)
	if err != nil {
		return err
	}
	courseDone, err := s.tracks.CountCompletedLessonsByCourse(ctx, tenantID, actor.UserID, lesson.CourseID)
	if err != nil {
		return err
	}
	courseTrack.TotalLessons = courseTotal
	courseTrack.CompletedLessons = courseDone
	if courseTotal > 0 {
		courseTrack.PercentComplete = courseDone * 100 / courseTotal
	}

	courseCompleted := courseTotal > 0 && courseDone >= courseTotal && courseTrack.Status != model.TrackStatusCompleted
	if courseCompleted {
		courseTrack.Status = model.TrackStatusCompleted
		courseTrack.CompletedAt = &now
	}
	if err := s.tracks.UpdateCourseTrack(ctx, courseTrack); err != nil {
		return err
	}

	if courseCompleted {
		courseTitle := ""
		if course, err := s.courseRepo.GetCourseByID(ctx, tenantID, lesson.CourseID); err == nil && course != nil {
			courseTitle = course.Title
		}
		if _, err := markEnrollmentCompleted(ctx, s.enrollments, tenantID, actor.UserID, lesson.CourseID); err != nil {
			s.logger.Error().Err(err).Str("course_id", lesson.CourseID).Msg("Failed to mark enrollment completed")
		}
		s.emitter.Emit(ctx, event.Event{
			Name:     event.CourseCompleted,
			TenantID: tenantID,
			Data: map[string]string{
				"user_id":      actor.UserID,
				"user_email":   actor.Email,
				"course_id":    lesson.CourseID,
				"course_title": courseTitle,
			},
		})
	}
	return nil
}

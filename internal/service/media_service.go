package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"lms/internal/event"
	"lms/internal/model"
	"lms/internal/repository"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// MediaService handles direct-to-S3 uploads: clients receive presigned URLs
// and the rows here only track upload state.
type MediaService interface {
	InitiateUpload(ctx context.Context, m *model.Media) (*model.Media, string, error)
	CompleteUpload(ctx context.Context, tenantID, mediaID, userID string) (*model.Media, error)
	GetMediaByID(ctx context.Context, tenantID, mediaID string) (*model.Media, error)
	ListMediaByOwner(ctx context.Context, tenantID, ownerID string, limit, offset int) ([]model.Media, error)
	DownloadURL(ctx context.Context, tenantID, mediaID string) (string, error)
	DeleteMedia(ctx context.Context, tenantID, mediaID, userID string) error
}

type mediaService struct {
	repo          repository.MediaRepository
	settings      SettingsSource
	s3Client      *s3.Client
	presignClient *s3.PresignClient
	bucketName    string
	presignExpiry time.Duration
	emitter       *event.Emitter
	logger        zerolog.Logger
}

// SettingsSource mirrors event.SettingsSource so the media service can read
// tenant upload limits without depending on the full TenantService interface.
type SettingsSource interface {
	SettingsForTenant(ctx context.Context, tenantID string) (*model.TenantSettings, error)
}

func NewMediaService(
	repo repository.MediaRepository,
	settings SettingsSource,
	s3Client *s3.Client,
	bucketName string,
	presignExpiry time.Duration,
	emitter *event.Emitter,
	logger zerolog.Logger,
) MediaService {
	return &mediaService{
		repo:          repo,
		settings:      settings,
		s3Client:      s3Client,
		presignClient: s3.NewPresignClient(s3Client),
		bucketName:    bucketName,
		presignExpiry: presignExpiry,
		emitter:       emitter,
		logger:        logger.With().Str("service", "MediaService").Logger(),
	}
}

// InitiateUpload validates the declared file against tenant settings, creates
// the media row in 'uploading' state and returns a presigned PUT URL.
func (s *mediaService) InitiateUpload(ctx context.Context, m *model.Media) (*model.Media, string, error) {
	settings, err := s.settings.SettingsForTenant(ctx, m.TenantID)
	if err != nil {
		return nil, "", fmt.Errorf("failed to load tenant settings: %w", err)
	}
	if err := ValidateUpload(m.Filename, m.ContentType, m.SizeBytes, settings); err != nil {
		return nil, "", err
	}

	m.StorageKey = fmt.Sprintf("media/%s/%s/%s", m.TenantID, uuid.NewString(), m.Filename)
	m.Status = model.MediaStatusUploading
	if err := s.repo.CreateMedia(ctx, m); err != nil {
		s.logger.Error().Err(err).Str("tenant_id", m.TenantID).Msg("Failed to create media record for upload")
		return nil, "", fmt.Errorf("failed to create media record: %w", err)
	}

	presigned, err := s.presignClient.PresignPutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(s.bucketName),
		Key:         aws.String(m.StorageKey),
		ContentType: aws.String(m.ContentType),
	}, s3.WithPresignExpires(s.presignExpiry))
	if err != nil {
		// Clean up the created row on presign failure
		_ = s.repo.DeleteMedia(ctx, m.TenantID, m.ID)
		s.logger.Error().Err(err).Str("media_id", m.ID).Msg("Failed to generate presigned PUT URL")
		return nil, "", fmt.Errorf("failed to generate presigned URL: %w", err)
	}

	return m, presigned.URL, nil
}

// CompleteUpload verifies the object landed in S3 and flips the row to ready.
// A missing or size-mismatched object marks the row failed.
func (s *mediaService) CompleteUpload(ctx context.Context, tenantID, mediaID, userID string) (*model.Media, error) {
	media, err := s.repo.GetMediaByID(ctx, tenantID, mediaID)
	if err != nil {
		s.logger.Error().Err(err).Str("media_id", mediaID).Msg("Failed to get media for completion")
		return nil, err
	}
	if media == nil {
		return nil, ErrNotFound
	}
	if media.OwnerID != userID {
		return nil, fmt.Errorf("%w: media belongs to another user", ErrForbidden)
	}
	if media.Status == model.MediaStatusReady {
		return media, nil
	}

	head, err := s.s3Client.HeadObject(ctx, &s3.HeadObjectInput{
		Bucket: aws.String(s.bucketName),
		Key:    aws.String(media.StorageKey),
	})
	if err != nil {
		s.logger.Error().Err(err).Str("storage_key", media.StorageKey).Msg("Object not found in S3 at expected key")
		media.Status = model.MediaStatusFailed
		_ = s.repo.UpdateMedia(ctx, media)
		return nil, fmt.Errorf("%w: object not found in storage", ErrConflict)
	}
	if head.ContentLength != nil && media.SizeBytes > 0 && *head.ContentLength != media.SizeBytes {
		s.logger.Warn().
			Str("media_id", mediaID).
			Int64("declared", media.SizeBytes).
			Int64("actual", *head.ContentLength).
			Msg("Uploaded object size differs from declared size")
		media.Status = model.MediaStatusFailed
		_ = s.repo.UpdateMedia(ctx, media)
		return nil, fmt.Errorf("%w: uploaded object size does not match the declared size", ErrConflict)
	}

	media.Status = model.MediaStatusReady
	if err := s.repo.UpdateMedia(ctx, media); err != nil {
		s.logger.Error().Err(err).Str("media_id", mediaID).Msg("Failed to mark media ready")
		return nil, err
	}

	s.emitter.Emit(ctx, event.Event{
		Name:     event.MediaReady,
		TenantID: tenantID,
		Data: map[string]string{
			"media_id": media.ID,
			"owner_id": media.OwnerID,
			"filename": media.Filename,
		},
	})
	return media, nil
}

func (s *mediaService) GetMediaByID(ctx context.Context, tenantID, mediaID string) (*model.Media, error) {
	media, err := s.repo.GetMediaByID(ctx, tenantID, mediaID)
	if err != nil {
		return nil, err
	}
	if media == nil {
		return nil, ErrNotFound
	}
	return media, nil
}

func (s *mediaService) ListMediaByOwner(ctx context.Context, tenantID, ownerID string, limit, offset int) ([]model.Media, error) {
	return s.repo.ListMediaByOwner(ctx, tenantID, ownerID, limit, offset)
}

// DownloadURL returns a presigned GET URL for ready media.
func (s *mediaService) DownloadURL(ctx context.Context, tenantID, mediaID string) (string, error) {
	media, err := s.repo.GetMediaByID(ctx, tenantID, mediaID)
	if err != nil {
		return "", err
	}
	if media == nil {
		return "", ErrNotFound
	}
	if media.Status != model.MediaStatusReady {
		return "", fmt.Errorf("%w: media is not ready", ErrConflict)
	}

	presigned, err := s.presignClient.PresignGetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(s.bucketName),
		Key:    aws.String(media.StorageKey),
	}, s3.WithPresignExpires(s.presignExpiry))
	if err != nil {
		s.logger.Error().Err(err).Str("media_id", mediaID).Msg("Failed to generate presigned GET URL")
		return "", fmt.Errorf("failed to generate presigned URL: %w", err)
	}
	return presigned.URL, nil
}

// DeleteMedia removes the S3 object first, then the row.
func (s *mediaService) DeleteMedia(ctx context.Context, tenantID, mediaID, userID string) error {
	media, err := s.repo.GetMediaByID(ctx, tenantID, mediaID)
	if err != nil {
		return err
	}
	if media == nil {
		return ErrNotFound
	}
	if media.OwnerID != userID {
		return fmt.Errorf("%w: media belongs to another user", ErrForbidden)
	}

	if _, err := s.s3Client.DeleteObject(ctx, &s3.DeleteObjectInput{
		Bucket: aws.String(s.bucketName),
		Key:    aws.String(media.StorageKey),
	}); err != nil {
		s.logger.Warn().Err(err).Str("storage_key", media.StorageKey).Msg("Failed to delete object from S3, removing row anyway")
	}

	return s.repo.DeleteMedia(ctx, tenantID, mediaID)
}

// ValidateUpload applies the tenant's upload rules to a declared file.
func ValidateUpload(filename, contentType string, sizeBytes int64, settings *model.TenantSettings) error {
	if filename == "" || strings.ContainsAny(filename, "/\\") {
		return fmt.Errorf("%w: invalid filename", ErrInvalid)
	}
	if sizeBytes <= 0 {
		return fmt.Errorf("%w: file size must be positive", ErrInvalid)
	}
	if settings == nil {
		return fmt.Errorf("%w: tenant settings unavailable", ErrInvalid)
	}
	if maxBytes := int64(settings.MaxUploadSizeMB) * 1024 * 1024; sizeBytes > maxBytes {
		return fmt.Errorf("%w: file exceeds %d MB limit", ErrInvalid, settings.MaxUploadSizeMB)
	}

	for _, allowed := range settings.AllowedMediaTypes {
		if strings.EqualFold(allowed, contentType) {
			return nil
		}
	}
	return fmt.Errorf("%w: content type %q is not allowed", ErrInvalid, contentType)
}

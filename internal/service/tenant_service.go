package service

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"time"

	"lms/internal/cache"
	"lms/internal/event"
	"lms/internal/model"
	"lms/internal/repository"
	"lms/internal/secrets"

	"github.com/go-resty/resty/v2"
	"github.com/rs/zerolog"
)

// TenantService resolves tenants and keeps their settings in sync with the
// external config service.
type TenantService interface {
	ResolveTenant(ctx context.Context, slug string) (*model.Tenant, error)
	SettingsForTenant(ctx context.Context, tenantID string) (*model.TenantSettings, error)
	SyncTenantSettings(ctx context.Context, slug string) (*model.TenantSettings, error)
	ApplyPushedSettings(ctx context.Context, slug string, remote RemoteSettings) (*model.TenantSettings, error)
	SyncAllTenants(ctx context.Context) error
	SetWebhookSecret(ctx context.Context, tenantID, secret string) error
	ClearWebhookSecret(ctx context.Context, tenantID string) error
}

// RemoteSettings is the payload shape of the config service, also used as the
// local JSON defaults file.
type RemoteSettings struct {
	MaxLessonAttempts  *int     `json:"max_lesson_attempts"`
	PassThresholdPct   *int     `json:"pass_threshold_pct"`
	MaxUploadSizeMB    *int     `json:"max_upload_size_mb"`
	AllowedMediaTypes  []string `json:"allowed_media_types"`
	WebhookURL         *string  `json:"webhook_url"`
	WebhookEnabled     *bool    `json:"webhook_enabled"`
	NotificationsEmail *bool    `json:"notifications_email"`
}

type tenantService struct {
	repo         repository.TenantRepository
	cache        cache.Cache
	secrets      secrets.Store
	emitter      *event.Emitter
	client       *resty.Client
	baseURL      string
	defaultsPath string
	logger       zerolog.Logger
}

func NewTenantService(
	repo repository.TenantRepository,
	c cache.Cache,
	secretStore secrets.Store,
	emitter *event.Emitter,
	baseURL, apiKey, defaultsPath string,
	timeout time.Duration,
	logger zerolog.Logger,
) TenantService {
	client := resty.New().SetTimeout(timeout)
	if apiKey != "" {
		client.SetHeader("Authorization", "Bearer "+apiKey)
	}
	return &tenantService{
		repo:         repo,
		cache:        c,
		secrets:      secretStore,
		emitter:      emitter,
		client:       client,
		baseURL:      baseURL,
		defaultsPath: defaultsPath,
		logger:       logger.With().Str("service", "TenantService").Logger(),
	}
}

// ResolveTenant looks up an active tenant by slug, preferring the cache.
func (s *tenantService) ResolveTenant(ctx context.Context, slug string) (*model.Tenant, error) {
	if cached, ok := s.cache.Get(cache.TenantKey(slug)); ok {
		if t, ok := cached.(*model.Tenant); ok {
			return t, nil
		}
	}

	tenant, err := s.repo.GetTenantBySlug(ctx, slug)
	if err != nil {
		s.logger.Error().Err(err).Str("slug", slug).Msg("Failed to look up tenant")
		return nil, err
	}
	if tenant == nil {
		return nil, ErrNotFound
	}

	s.cache.Set(cache.TenantKey(slug), tenant)
	return tenant, nil
}

// SettingsForTenant returns the tenant's settings, falling back to the local
// defaults file when no row exists yet.
func (s *tenantService) SettingsForTenant(ctx context.Context, tenantID string) (*model.TenantSettings, error) {
	if cached, ok := s.cache.Get(cache.SettingsKey(tenantID)); ok {
		if settings, ok := cached.(*model.TenantSettings); ok {
			return settings, nil
		}
	}

	settings, err := s.repo.GetSettings(ctx, tenantID)
	if err != nil {
		return nil, err
	}
	if settings == nil {
		// No settings row yet. Synthesize defaults, but only for a tenant
		// that actually exists; event handlers pass IDs we did not resolve.
		tenant, err := s.repo.GetTenantByID(ctx, tenantID)
		if err != nil {
			return nil, err
		}
		if tenant == nil {
			return nil, fmt.Errorf("%w: tenant %s", ErrNotFound, tenantID)
		}
		defaults, err := s.loadDefaults()
		if err != nil {
			return nil, err
		}
		settings = s.merge(tenantID, defaults, false)
	}

	s.cache.Set(cache.SettingsKey(tenantID), settings)
	return settings, nil
}

// SyncTenantSettings pulls settings from the config service. On any transport
// or decode failure it falls back to the local JSON defaults file, so a tenant
// always ends up with a usable settings row.
func (s *tenantService) SyncTenantSettings(ctx context.Context, slug string) (*model.TenantSettings, error) {
	tenant, err := s.ResolveTenant(ctx, slug)
	if err != nil {
		return nil, err
	}

	remote, fromService := s.fetchRemote(ctx, slug)
	if !fromService {
		defaults, err := s.loadDefaults()
		if err != nil {
			return nil, fmt.Errorf("config service unreachable and defaults unavailable: %w", err)
		}
		remote = defaults
	}

	settings := s.merge(tenant.ID, remote, fromService)
	if err := s.repo.UpsertSettings(ctx, settings); err != nil {
		s.logger.Error().Err(err).Str("tenant_id", tenant.ID).Msg("Failed to persist synced settings")
		return nil, err
	}

	s.cache.Set(cache.SettingsKey(tenant.ID), settings)
	s.emitter.Emit(ctx, event.Event{
		Name:     event.TenantSynced,
		TenantID: tenant.ID,
		Data: map[string]string{
			"slug":         slug,
			"from_service": fmt.Sprintf("%t", fromService),
		},
	})
	return settings, nil
}

// ApplyPushedSettings persists settings pushed by the config service.
func (s *tenantService) ApplyPushedSettings(ctx context.Context, slug string, remote RemoteSettings) (*model.TenantSettings, error) {
	tenant, err := s.ResolveTenant(ctx, slug)
	if err != nil {
		return nil, err
	}

	settings := s.merge(tenant.ID, remote, true)
	if err := s.repo.UpsertSettings(ctx, settings); err != nil {
		return nil, err
	}

	s.cache.Set(cache.SettingsKey(tenant.ID), settings)
	s.emitter.Emit(ctx, event.Event{
		Name:     event.TenantSynced,
		TenantID: tenant.ID,
		Data:     map[string]string{"slug": slug, "from_service": "true"},
	})
	return settings, nil
}

// SyncAllTenants re-syncs every active tenant. Called on the cron schedule;
// per-tenant failures are logged and do not stop the sweep.
func (s *tenantService) SyncAllTenants(ctx context.Context) error {
	tenants, err := s.repo.ListActiveTenants(ctx)
	if err != nil {
		return fmt.Errorf("failed to list active tenants: %w", err)
	}
	for _, t := range tenants {
		if _, err := s.SyncTenantSettings(ctx, t.Slug); err != nil {
			s.logger.Error().Err(err).Str("slug", t.Slug).Msg("Scheduled sync failed for tenant")
		}
	}
	return nil
}

func (s *tenantService) SetWebhookSecret(ctx context.Context, tenantID, secret string) error {
	if s.secrets == nil {
		return fmt.Errorf("secret store is not configured")
	}
	return s.secrets.StoreTenantSecret(ctx, tenantID, "webhook", secret)
}

// ClearWebhookSecret revokes the signing secret; deliveries go unsigned until
// a new one is stored.
func (s *tenantService) ClearWebhookSecret(ctx context.Context, tenantID string) error {
	if s.secrets == nil {
		return fmt.Errorf("secret store is not configured")
	}
	return s.secrets.DeleteTenantSecret(ctx, tenantID, "webhook")
}

// fetchRemote calls GET {base}/tenants/{slug}/settings. The second return is
// false whenever the local fallback should be used instead.
func (s *tenantService) fetchRemote(ctx context.Context, slug string) (RemoteSettings, bool) {
	var remote RemoteSettings
	if s.baseURL == "" {
		return remote, false
	}

	resp, err := s.client.R().
		SetContext(ctx).
		SetResult(&remote).
		Get(fmt.Sprintf("%s/tenants/%s/settings", s.baseURL, slug))
	if err != nil {
		s.logger.Warn().Err(err).Str("slug", slug).Msg("Config service unreachable, using local defaults")
		return remote, false
	}
	if resp.IsError() {
		s.logger.Warn().Int("status", resp.StatusCode()).Str("slug", slug).Msg("Config service returned error, using local defaults")
		return RemoteSettings{}, false
	}
	return remote, true
}

func (s *tenantService) loadDefaults() (RemoteSettings, error) {
	var defaults RemoteSettings
	data, err := os.ReadFile(s.defaultsPath)
	if err != nil {
		return defaults, fmt.Errorf("failed to read tenant defaults file: %w", err)
	}
	if err := json.Unmarshal(data, &defaults); err != nil {
		return defaults, fmt.Errorf("failed to decode tenant defaults file: %w", err)
	}
	return defaults, nil
}

// merge applies remote values over the built-in baseline.
func (s *tenantService) merge(tenantID string, remote RemoteSettings, fromService bool) *model.TenantSettings {
	settings := &model.TenantSettings{
		TenantID:          tenantID,
		MaxLessonAttempts: 3,
		PassThresholdPct:  90,
		MaxUploadSizeMB:   500,
		AllowedMediaTypes: []string{"video/mp4", "application/pdf"},
		SyncedFromService: fromService,
	}
	if remote.MaxLessonAttempts != nil {
		settings.MaxLessonAttempts = *remote.MaxLessonAttempts
	}
	if remote.PassThresholdPct != nil {
		settings.PassThresholdPct = *remote.PassThresholdPct
	}
	if remote.MaxUploadSizeMB != nil {
		settings.MaxUploadSizeMB = *remote.MaxUploadSizeMB
	}
	if len(remote.AllowedMediaTypes) > 0 {
		settings.AllowedMediaTypes = remote.AllowedMediaTypes
	}
	if remote.WebhookURL != nil {
		settings.WebhookURL = *remote.WebhookURL
	}
	if remote.WebhookEnabled != nil {
		settings.WebhookEnabled = *remote.WebhookEnabled
	}
	if remote.NotificationsEmail != nil {
		settings.NotificationsEmail = *remote.NotificationsEmail
	}
	return settings
}

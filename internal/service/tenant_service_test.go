package service

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"lms/internal/cache"
	"lms/internal/event"
	"lms/internal/model"

	"github.com/rs/zerolog"
)

type fakeTenantRepo struct {
	tenants  map[string]*model.Tenant // key slug
	settings map[string]*model.TenantSettings
}

func newFakeTenantRepo() *fakeTenantRepo {
	return &fakeTenantRepo{
		tenants:  make(map[string]*model.Tenant),
		settings: make(map[string]*model.TenantSettings),
	}
}

func (r *fakeTenantRepo) GetTenantBySlug(_ context.Context, slug string) (*model.Tenant, error) {
	t, ok := r.tenants[slug]
	if !ok {
		return nil, nil
	}
	cp := *t
	return &cp, nil
}

func (r *fakeTenantRepo) GetTenantByID(_ context.Context, tenantID string) (*model.Tenant, error) {
	for _, t := range r.tenants {
		if t.ID == tenantID {
			cp := *t
			return &cp, nil
		}
	}
	return nil, nil
}

func (r *fakeTenantRepo) ListActiveTenants(_ context.Context) ([]model.Tenant, error) {
	var out []model.Tenant
	for _, t := range r.tenants {
		if t.Status == model.TenantStatusActive {
			out = append(out, *t)
		}
	}
	return out, nil
}

func (r *fakeTenantRepo) GetSettings(_ context.Context, tenantID string) (*model.TenantSettings, error) {
	s, ok := r.settings[tenantID]
	if !ok {
		return nil, nil
	}
	cp := *s
	return &cp, nil
}

func (r *fakeTenantRepo) UpsertSettings(_ context.Context, s *model.TenantSettings) error {
	cp := *s
	r.settings[s.TenantID] = &cp
	return nil
}

func writeDefaultsFile(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "tenant-defaults.json")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write defaults file: %v", err)
	}
	return path
}

func newTenantFixture(t *testing.T, baseURL, defaultsPath string) (TenantService, *fakeTenantRepo, *[]event.Event) {
	t.Helper()
	repo := newFakeTenantRepo()
	repo.tenants["acme"] = &model.Tenant{ID: "t1", Slug: "acme", Name: "Acme", Status: model.TenantStatusActive}

	var emitted []event.Event
	emitter := event.NewEmitter(zerolog.Nop())
	emitter.Subscribe("*", "capture", func(_ context.Context, ev event.Event) error {
		emitted = append(emitted, ev)
		return nil
	})

	svc := NewTenantService(
		repo, cache.New(time.Minute, time.Minute), nil, emitter,
		baseURL, "", defaultsPath, 2*time.Second, zerolog.Nop(),
	)
	return svc, repo, &emitted
}

func TestResolveTenant(t *testing.T) {
	svc, _, _ := newTenantFixture(t, "", "")

	tenant, err := svc.ResolveTenant(context.Background(), "acme")
	if err != nil {
		t.Fatalf("ResolveTenant: %v", err)
	}
	if tenant.ID != "t1" {
		t.Fatalf("wrong tenant: %+v", tenant)
	}

	if _, err := svc.ResolveTenant(context.Background(), "nope"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestSyncTenantSettingsFallsBackToDefaultsFile(t *testing.T) {
	path := writeDefaultsFile(t, `{
		"max_lesson_attempts": 5,
		"pass_threshold_pct": 80,
		"allowed_media_types": ["video/mp4"]
	}`)
	// No config service URL configured, so sync must use the local file.
	svc, repo, emitted := newTenantFixture(t, "", path)

	settings, err := svc.SyncTenantSettings(context.Background(), "acme")
	if err != nil {
		t.Fatalf("SyncTenantSettings: %v", err)
	}
	if settings.MaxLessonAttempts != 5 || settings.PassThresholdPct != 80 {
		t.Fatalf("defaults not applied: %+v", settings)
	}
	// Values absent from the file keep the baseline.
	if settings.MaxUploadSizeMB != 500 {
		t.Fatalf("baseline upload size lost: %d", settings.MaxUploadSizeMB)
	}
	if settings.SyncedFromService {
		t.Fatal("fallback sync must not be marked as from service")
	}

	if repo.settings["t1"] == nil {
		t.Fatal("settings were not persisted")
	}
	if len(*emitted) != 1 || (*emitted)[0].Name != event.TenantSynced {
		t.Fatalf("expected tenant.synced, got %v", *emitted)
	}
}

func TestSyncTenantSettingsFromConfigService(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/tenants/acme/settings" {
			http.NotFound(w, r)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"max_lesson_attempts": 1, "webhook_url": "https://hooks.acme.test", "webhook_enabled": true}`))
	}))
	defer srv.Close()

	svc, _, _ := newTenantFixture(t, srv.URL, "")

	settings, err := svc.SyncTenantSettings(context.Background(), "acme")
	if err != nil {
		t.Fatalf("SyncTenantSettings: %v", err)
	}
	if settings.MaxLessonAttempts != 1 {
		t.Fatalf("remote value not applied: %d", settings.MaxLessonAttempts)
	}
	if !settings.WebhookEnabled || settings.WebhookURL != "https://hooks.acme.test" {
		t.Fatalf("webhook settings not applied: %+v", settings)
	}
	if !settings.SyncedFromService {
		t.Fatal("expected synced_from_service to be true")
	}
}

func TestSyncTenantSettingsServiceErrorUsesDefaults(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "internal", http.StatusInternalServerError)
	}))
	defer srv.Close()

	path := writeDefaultsFile(t, `{"max_lesson_attempts": 7}`)
	svc, _, _ := newTenantFixture(t, srv.URL, path)

	settings, err := svc.SyncTenantSettings(context.Background(), "acme")
	if err != nil {
		t.Fatalf("SyncTenantSettings: %v", err)
	}
	if settings.MaxLessonAttempts != 7 || settings.SyncedFromService {
		t.Fatalf("expected fallback defaults, got %+v", settings)
	}
}

func TestApplyPushedSettings(t *testing.T) {
	svc, repo, emitted := newTenantFixture(t, "", "")

	attempts := 2
	enabled := true
	settings, err := svc.ApplyPushedSettings(context.Background(), "acme", RemoteSettings{
		MaxLessonAttempts: &attempts,
		WebhookEnabled:    &enabled,
	})
	if err != nil {
		t.Fatalf("ApplyPushedSettings: %v", err)
	}
	if settings.MaxLessonAttempts != 2 || !settings.WebhookEnabled {
		t.Fatalf("pushed values not applied: %+v", settings)
	}
	if !settings.SyncedFromService {
		t.Fatal("pushed settings must be marked as from service")
	}
	if repo.settings["t1"] == nil {
		t.Fatal("pushed settings were not persisted")
	}
	if len(*emitted) != 1 || (*emitted)[0].Name != event.TenantSynced {
		t.Fatalf("expected tenant.synced, got %v", *emitted)
	}

	if _, err := svc.ApplyPushedSettings(context.Background(), "nope", RemoteSettings{}); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound for unknown tenant, got %v", err)
	}
}

func TestSettingsForTenantUsesDefaultsWithoutRow(t *testing.T) {
	path := writeDefaultsFile(t, `{"pass_threshold_pct": 75}`)
	svc, _, _ := newTenantFixture(t, "", path)

	settings, err := svc.SettingsForTenant(context.Background(), "t1")
	if err != nil {
		t.Fatalf("SettingsForTenant: %v", err)
	}
	if settings.PassThresholdPct != 75 {
		t.Fatalf("defaults not used: %+v", settings)
	}

	if _, err := svc.SettingsForTenant(context.Background(), "ghost"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound for unknown tenant, got %v", err)
	}
}

func TestClearWebhookSecretWithoutStore(t *testing.T) {
	svc, _, _ := newTenantFixture(t, "", "")
	if err := svc.ClearWebhookSecret(context.Background(), "t1"); err == nil {
		t.Fatal("expected error when secret store is not configured")
	}
}

func TestSetWebhookSecretWithoutStore(t *testing.T) {
	svc, _, _ := newTenantFixture(t, "", "")
	if err := svc.SetWebhookSecret(context.Background(), "t1", "super-secret-value"); err == nil {
		t.Fatal("expected error when secret store is not configured")
	}
}

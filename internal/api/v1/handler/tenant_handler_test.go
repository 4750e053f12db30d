package handler

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"lms/internal/model"
	"lms/internal/service"

	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog"
)

type fakeTenantService struct {
	synced []string
}

func (f *fakeTenantService) ResolveTenant(_ context.Context, slug string) (*model.Tenant, error) {
	return &model.Tenant{ID: "t-" + slug, Slug: slug, Status: model.TenantStatusActive}, nil
}

func (f *fakeTenantService) SettingsForTenant(context.Context, string) (*model.TenantSettings, error) {
	return &model.TenantSettings{}, nil
}

func (f *fakeTenantService) SyncTenantSettings(_ context.Context, slug string) (*model.TenantSettings, error) {
	f.synced = append(f.synced, slug)
	return &model.TenantSettings{WebhookURL: "https://hooks." + slug + ".test"}, nil
}

func (f *fakeTenantService) ApplyPushedSettings(context.Context, string, service.RemoteSettings) (*model.TenantSettings, error) {
	return &model.TenantSettings{}, nil
}

func (f *fakeTenantService) SyncAllTenants(context.Context) error { return nil }

func (f *fakeTenantService) SetWebhookSecret(context.Context, string, string) error { return nil }

func (f *fakeTenantService) ClearWebhookSecret(context.Context, string) error { return nil }

func newTenantHandlerFixture() (*http.ServeMux, *fakeTenantService) {
	svc := &fakeTenantService{}
	h := NewTenantHandler(svc, validator.New(validator.WithRequiredStructEnabled()), zerolog.Nop())
	mux := http.NewServeMux()
	h.RegisterRoutes(mux, passthrough, passthrough)
	return mux, svc
}

func TestSyncSettingsOwnTenant(t *testing.T) {
	mux, svc := newTenantHandlerFixture()

	req := withAuthContext(httptest.NewRequest(http.MethodPost, "/tenants/acme/settings/sync", nil))
	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	if len(svc.synced) != 1 || svc.synced[0] != "acme" {
		t.Fatalf("expected acme to be synced, got %v", svc.synced)
	}
}

// A caller must not be able to sync, or read back, another tenant's settings
// by pointing the path at a foreign slug.
func TestSyncSettingsForeignSlugRejected(t *testing.T) {
	mux, svc := newTenantHandlerFixture()

	req := withAuthContext(httptest.NewRequest(http.MethodPost, "/tenants/globex/settings/sync", nil))
	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, req)

	if rec.Code != http.StatusNotFound {
		t.Fatalf("expected 404 for a foreign tenant slug, got %d", rec.Code)
	}
	if len(svc.synced) != 0 {
		t.Fatalf("foreign tenant must not be synced, got %v", svc.synced)
	}
}

package middleware

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"lms/internal/model"
	"lms/internal/service"
	"lms/internal/util"

	"github.com/rs/zerolog"
)

type fakeTenantService struct {
	tenants map[string]*model.Tenant
}

func (f *fakeTenantService) ResolveTenant(_ context.Context, slug string) (*model.Tenant, error) {
	t, ok := f.tenants[slug]
	if !ok {
		return nil, service.ErrNotFound
	}
	return t, nil
}

func (f *fakeTenantService) SettingsForTenant(context.Context, string) (*model.TenantSettings, error) {
	return nil, nil
}

func (f *fakeTenantService) SyncTenantSettings(context.Context, string) (*model.TenantSettings, error) {
	return nil, nil
}

func (f *fakeTenantService) ApplyPushedSettings(context.Context, string, service.RemoteSettings) (*model.TenantSettings, error) {
	return nil, nil
}

func (f *fakeTenantService) SyncAllTenants(context.Context) error { return nil }

func (f *fakeTenantService) SetWebhookSecret(context.Context, string, string) error { return nil }

func (f *fakeTenantService) ClearWebhookSecret(context.Context, string) error { return nil }

func newTenantMiddlewareFixture() (func(http.Handler) http.Handler, *fakeTenantService) {
	svc := &fakeTenantService{tenants: map[string]*model.Tenant{
		"acme":   {ID: "t1", Slug: "acme", Status: model.TenantStatusActive},
		"frozen": {ID: "t2", Slug: "frozen", Status: model.TenantStatusSuspended},
	}}
	return TenantMiddleware(svc, zerolog.Nop()), svc
}

func TestTenantMiddlewareResolvesHeader(t *testing.T) {
	mw, _ := newTenantMiddlewareFixture()

	var got *model.Tenant
	handler := mw(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		got, _ = TenantFromContext(r.Context())
	}))

	req := httptest.NewRequest(http.MethodGet, "/courses", nil)
	req.Header.Set(TenantHeader, "acme")
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	if got == nil || got.ID != "t1" {
		t.Fatalf("tenant not stored in context: %+v", got)
	}
}

func TestTenantMiddlewareFallsBackToClaims(t *testing.T) {
	mw, _ := newTenantMiddlewareFixture()

	var got *model.Tenant
	handler := mw(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		got, _ = TenantFromContext(r.Context())
	}))

	req := httptest.NewRequest(http.MethodGet, "/courses", nil)
	ctx := context.WithValue(req.Context(), ClaimsContextKey, &util.Claims{Tenant: "acme"})
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req.WithContext(ctx))

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	if got == nil || got.Slug != "acme" {
		t.Fatalf("tenant not resolved from claims: %+v", got)
	}
}

func TestTenantMiddlewareRejections(t *testing.T) {
	mw, _ := newTenantMiddlewareFixture()
	handler := mw(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {
		t.Fatal("handler must not run for rejected requests")
	}))

	tests := []struct {
		name       string
		slug       string
		wantStatus int
	}{
		{"missing tenant", "", http.StatusUnauthorized},
		{"unknown tenant", "nope", http.StatusUnauthorized},
		{"suspended tenant", "frozen", http.StatusForbidden},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/courses", nil)
			if tt.slug != "" {
				req.Header.Set(TenantHeader, tt.slug)
			}
			rec := httptest.NewRecorder()
			handler.ServeHTTP(rec, req)
			if rec.Code != tt.wantStatus {
				t.Fatalf("expected %d, got %d", tt.wantStatus, rec.Code)
			}
		})
	}
}

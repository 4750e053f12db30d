package middleware

import (
	"context"
	"errors"
	"net/http"

	"lms/internal/model"
	"lms/internal/service"

	"github.com/rs/zerolog"
)

const TenantContextKey = contextKey("tenant")

// TenantHeader carries the tenant slug. When absent, the "tenant" claim of
// the access token is used instead.
const TenantHeader = "X-Tenant-ID"

// TenantMiddleware resolves the caller's tenant and stores it in the request
// context. Requests without a resolvable tenant are rejected; suspended
// tenants get 403. Runs after AuthMiddleware.
func TenantMiddleware(tenants service.TenantService, logger zerolog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			slug := r.Header.Get(TenantHeader)
			if slug == "" {
				if claims, ok := ClaimsFromContext(r.Context()); ok {
					slug = claims.Tenant
				}
			}
			if slug == "" {
				logger.Warn().Str("path", r.URL.Path).Msg("Request without tenant identifier")
				http.Error(w, "Tenant identifier missing", http.StatusUnauthorized)
				return
			}

			tenant, err := tenants.ResolveTenant(r.Context(), slug)
			if err != nil {
				if errors.Is(err, service.ErrNotFound) {
					logger.Warn().Str("tenant", slug).Msg("Unknown tenant")
					http.Error(w, "Unknown tenant", http.StatusUnauthorized)
					return
				}
				logger.Error().Err(err).Str("tenant", slug).Msg("Failed to resolve tenant")
				http.Error(w, "Failed to resolve tenant", http.StatusInternalServerError)
				return
			}
			if tenant.Status == model.TenantStatusSuspended {
				logger.Warn().Str("tenant", slug).Msg("Suspended tenant rejected")
				http.Error(w, "Tenant is suspended", http.StatusForbidden)
				return
			}

			ctx := context.WithValue(r.Context(), TenantContextKey, tenant)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// TenantFromContext returns the resolved tenant, if any.
func TenantFromContext(ctx context.Context) (*model.Tenant, bool) {
	tenant, ok := ctx.Value(TenantContextKey).(*model.Tenant)
	return tenant, ok && tenant != nil
}

package handler

import (
	"encoding/json"
	"net/http"
	"strings"

	"lms/internal/api/v1/dto"
	"lms/internal/middleware"
	"lms/internal/model"
	"lms/internal/service"

	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog"
)

// TenantHandler exposes tenant settings sync and the push endpoint the config
// service calls.
type TenantHandler struct {
	tenantService service.TenantService
	validate      *validator.Validate
	logger        zerolog.Logger
}

// NewTenantHandler creates a new TenantHandler
func NewTenantHandler(tenantService service.TenantService, validate *validator.Validate, logger zerolog.Logger) *TenantHandler {
	return &TenantHandler{
		tenantService: tenantService,
		validate:      validate,
		logger:        logger.With().Str("handler", "TenantHandler").Logger(),
	}
}

// RegisterRoutes mounts tenant routes. The push endpoint sits outside the
// regular auth chain; the config service authenticates with an OIDC token.
func (h *TenantHandler) RegisterRoutes(mux *http.ServeMux, authMw, pushAuthMw func(http.Handler) http.Handler) {
	mux.Handle("/tenants/settings", authMw(http.HandlerFunc(h.getSettings)))
	mux.Handle("/tenants/webhook-secret", authMw(http.HandlerFunc(h.handleWebhookSecret)))
	mux.Handle("/tenants/", authMw(http.HandlerFunc(h.handleTenant)))
	mux.Handle("/internal/settings/push", pushAuthMw(http.HandlerFunc(h.pushSettings)))
}

func (h *TenantHandler) handleTenant(w http.ResponseWriter, r *http.Request) {
	rest := strings.TrimPrefix(r.URL.Path, "/tenants/")
	parts := strings.Split(rest, "/")

	if len(parts) == 3 && parts[1] == "settings" && parts[2] == "sync" && r.Method == http.MethodPost {
		// The path slug must name the caller's own tenant. Any other slug
		// answers 404 so tenants cannot read each other's settings.
		tenant, ok := middleware.TenantFromContext(r.Context())
		if !ok || tenant.Slug != parts[0] {
			http.NotFound(w, r)
			return
		}
		h.syncSettings(w, r, parts[0])
		return
	}
	http.NotFound(w, r)
}

// getSettings godoc
// @Summary Get the caller's tenant settings
// @Tags tenants
// @Produce json
// @Success 200 {object} dto.TenantSettingsResponseDTO
// @Router /tenants/settings [get]
func (h *TenantHandler) getSettings(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.NotFound(w, r)
		return
	}
	tenant, _ := middleware.TenantFromContext(r.Context())
	settings, err := h.tenantService.SettingsForTenant(r.Context(), tenant.ID)
	if err != nil {
		writeServiceError(w, err, "Failed to retrieve settings")
		return
	}
	writeJSON(w, http.StatusOK, settingsResponse(settings))
}

// syncSettings godoc
// @Summary Sync a tenant's settings from the config service
// @Description Fetches current settings from the config service, falling back to the local defaults file when it is unreachable.
// @Tags tenants
// @Produce json
// @Param slug path string true "Tenant slug"
// @Success 200 {object} dto.TenantSettingsResponseDTO
// @Failure 404 {string} string "Unknown tenant"
// @Router /tenants/{slug}/settings/sync [post]
func (h *TenantHandler) syncSettings(w http.ResponseWriter, r *http.Request, slug string) {
	settings, err := h.tenantService.SyncTenantSettings(r.Context(), slug)
	if err != nil {
		writeServiceError(w, err, "Failed to sync settings")
		return
	}
	writeJSON(w, http.StatusOK, settingsResponse(settings))
}

// setWebhookSecret godoc
// @Summary Rotate the tenant's webhook signing secret
// @Tags tenants
// @Accept json
// @Param secret body dto.WebhookSecretDTO true "New signing secret"
// @Success 204
// @Failure 400 {string} string "Secret too short"
// @Router /tenants/webhook-secret [put]
func (h *TenantHandler) handleWebhookSecret(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodPut:
		h.setWebhookSecret(w, r)
	case http.MethodDelete:
		h.clearWebhookSecret(w, r)
	default:
		http.NotFound(w, r)
	}
}

func (h *TenantHandler) setWebhookSecret(w http.ResponseWriter, r *http.Request) {
	tenant, _ := middleware.TenantFromContext(r.Context())
	var req dto.WebhookSecretDTO
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid JSON payload: "+err.Error(), http.StatusBadRequest)
		return
	}
	if err := h.validate.Struct(&req); err != nil {
		http.Error(w, "Validation failed: "+err.Error(), http.StatusBadRequest)
		return
	}
	if err := h.tenantService.SetWebhookSecret(r.Context(), tenant.ID, req.Secret); err != nil {
		writeServiceError(w, err, "Failed to store webhook secret")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// clearWebhookSecret godoc
// @Summary Revoke the tenant's webhook signing secret
// @Tags tenants
// @Success 204
// @Router /tenants/webhook-secret [delete]
func (h *TenantHandler) clearWebhookSecret(w http.ResponseWriter, r *http.Request) {
	tenant, _ := middleware.TenantFromContext(r.Context())
	if err := h.tenantService.ClearWebhookSecret(r.Context(), tenant.ID); err != nil {
		writeServiceError(w, err, "Failed to delete webhook secret")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// pushSettings godoc
// @Summary Receive a settings push from the config service
// @Description Applies settings pushed by the config service for one tenant.
// @Tags internal
// @Accept json
// @Produce json
// @Param push body dto.SettingsPushDTO true "Pushed settings"
// @Success 200 {object} dto.TenantSettingsResponseDTO
// @Failure 404 {string} string "Unknown tenant"
// @Router /internal/settings/push [post]
func (h *TenantHandler) pushSettings(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.NotFound(w, r)
		return
	}
	var req dto.SettingsPushDTO
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid JSON payload: "+err.Error(), http.StatusBadRequest)
		return
	}
	if err := h.validate.Struct(&req); err != nil {
		http.Error(w, "Validation failed: "+err.Error(), http.StatusBadRequest)
		return
	}
	remote := service.RemoteSettings{
		MaxLessonAttempts:  req.Settings.MaxLessonAttempts,
		PassThresholdPct:   req.Settings.PassThresholdPct,
		MaxUploadSizeMB:    req.Settings.MaxUploadSizeMB,
		AllowedMediaTypes:  req.Settings.AllowedMediaTypes,
		WebhookURL:         req.Settings.WebhookURL,
		WebhookEnabled:     req.Settings.WebhookEnabled,
		NotificationsEmail: req.Settings.NotificationsEmail,
	}
	settings, err := h.tenantService.ApplyPushedSettings(r.Context(), req.Tenant, remote)
	if err != nil {
		writeServiceError(w, err, "Failed to apply pushed settings")
		return
	}
	h.logger.Info().Str("tenant", req.Tenant).Msg("Applied pushed tenant settings")
	writeJSON(w, http.StatusOK, settingsResponse(settings))
}

func settingsResponse(s *model.TenantSettings) dto.TenantSettingsResponseDTO {
	return dto.TenantSettingsResponseDTO{
		MaxLessonAttempts:  s.MaxLessonAttempts,
		PassThresholdPct:   s.PassThresholdPct,
		MaxUploadSizeMB:    s.MaxUploadSizeMB,
		AllowedMediaTypes:  s.AllowedMediaTypes,
		WebhookURL:         s.WebhookURL,
		WebhookEnabled:     s.WebhookEnabled,
		NotificationsEmail: s.NotificationsEmail,
		SyncedFromService:  s.SyncedFromService,
		SyncedAt:           s.SyncedAt,
	}
}

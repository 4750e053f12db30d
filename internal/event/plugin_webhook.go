package event

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"time"

	"lms/internal/model"

	"github.com/go-resty/resty/v2"
	"github.com/rs/zerolog"
)

// SettingsSource resolves the settings of a tenant. Implemented by the tenant
// service so plugins see the same cached view as the request path.
type SettingsSource interface {
	SettingsForTenant(ctx context.Context, tenantID string) (*model.TenantSettings, error)
}

// SecretSource resolves per-tenant secrets (see internal/secrets).
type SecretSource interface {
	GetTenantSecret(ctx context.Context, tenantID, purpose string) (string, error)
}

// WebhookPlugin POSTs event payloads to the tenant's configured webhook URL.
// The body is signed with the tenant's webhook secret so receivers can verify
// origin.
type WebhookPlugin struct {
	settings SettingsSource
	secrets  SecretSource
	client   *resty.Client
	logger   zerolog.Logger
}

func NewWebhookPlugin(settings SettingsSource, secrets SecretSource, logger zerolog.Logger) *WebhookPlugin {
	client := resty.New().
		SetTimeout(10 * time.Second).
		SetRetryCount(2).
		SetRetryWaitTime(500 * time.Millisecond)
	return &WebhookPlugin{
		settings: settings,
		secrets:  secrets,
		client:   client,
		logger:   logger.With().Str("plugin", "webhook").Logger(),
	}
}

func (p *WebhookPlugin) Name() string { return "webhook" }

func (p *WebhookPlugin) Events() []string {
	return []string{EnrollmentCreated, EnrollmentCancelled, LessonCompleted, CourseCompleted, MediaReady}
}

func (p *WebhookPlugin) Handle(ctx context.Context, ev Event) error {
	settings, err := p.settings.SettingsForTenant(ctx, ev.TenantID)
	if err != nil {
		return fmt.Errorf("failed to load tenant settings: %w", err)
	}
	if settings == nil || !settings.WebhookEnabled || settings.WebhookURL == "" {
		return nil
	}

	body, err := json.Marshal(ev)
	if err != nil {
		return fmt.Errorf("failed to marshal event: %w", err)
	}

	req := p.client.R().
		SetContext(ctx).
		SetHeader("Content-Type", "application/json").
		SetBody(body)

	// Sign when a secret is provisioned; delivery proceeds unsigned otherwise.
	if p.secrets != nil {
		secret, err := p.secrets.GetTenantSecret(ctx, ev.TenantID, "webhook")
		if err != nil {
			p.logger.Warn().Err(err).Str("tenant_id", ev.TenantID).Msg("No webhook secret, sending unsigned")
		} else if secret != "" {
			req.SetHeader("X-LMS-Signature", sign(body, secret))
		}
	}

	resp, err := req.Post(settings.WebhookURL)
	if err != nil {
		return fmt.Errorf("webhook delivery failed: %w", err)
	}
	if resp.IsError() {
		return fmt.Errorf("webhook returned status %d", resp.StatusCode())
	}

	p.logger.Debug().
		Str("event", ev.Name).
		Str("tenant_id", ev.TenantID).
		Int("status", resp.StatusCode()).
		Msg("Webhook delivered")
	return nil
}

func sign(body []byte, secret string) string {
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write(body)
	return "sha256=" + hex.EncodeToString(mac.Sum(nil))
}

package event

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"
	"github.com/sendgrid/sendgrid-go"
	"github.com/sendgrid/sendgrid-go/helpers/mail"
)

// NotifierPlugin emails learners when they complete a course. Tenants opt in
// via the notifications_email setting.
type NotifierPlugin struct {
	settings    SettingsSource
	client      *sendgrid.Client
	senderEmail string
	senderName  string
	logger      zerolog.Logger
}

func NewNotifierPlugin(settings SettingsSource, apiKey, senderEmail, senderName string, logger zerolog.Logger) *NotifierPlugin {
	return &NotifierPlugin{
		settings:    settings,
		client:      sendgrid.NewSendClient(apiKey),
		senderEmail: senderEmail,
		senderName:  senderName,
		logger:      logger.With().Str("plugin", "notifier").Logger(),
	}
}

func (p *NotifierPlugin) Name() string { return "notifier" }

func (p *NotifierPlugin) Events() []string { return []string{CourseCompleted} }

func (p *NotifierPlugin) Handle(ctx context.Context, ev Event) error {
	settings, err := p.settings.SettingsForTenant(ctx, ev.TenantID)
	if err != nil {
		return fmt.Errorf("failed to load tenant settings: %w", err)
	}
	if settings == nil || !settings.NotificationsEmail {
		return nil
	}

	email := ev.Data["user_email"]
	if email == "" {
		p.logger.Debug().Str("tenant_id", ev.TenantID).Msg("No learner email on event, skipping notification")
		return nil
	}

	from := mail.NewEmail(p.senderName, p.senderEmail)
	to := mail.NewEmail("", email)
	subject := "Course completed"
	body := fmt.Sprintf("Congratulations, you completed the course %q.", ev.Data["course_title"])
	message := mail.NewSingleEmail(from, subject, to, body, body)

	resp, err := p.client.SendWithContext(ctx, message)
	if err != nil {
		return fmt.Errorf("failed to send completion email: %w", err)
	}
	if resp.StatusCode >= 400 {
		return fmt.Errorf("sendgrid returned status %d: %s", resp.StatusCode, resp.Body)
	}

	p.logger.Info().Str("tenant_id", ev.TenantID).Str("course_id", ev.Data["course_id"]).Msg("Completion email sent")
	return nil
}

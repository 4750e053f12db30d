package event

import (
	"context"

	"github.com/rs/zerolog"
)

// AuditPlugin writes one structured log line per event. It subscribes to
// everything and is the reference implementation for plugin authors.
type AuditPlugin struct {
	logger zerolog.Logger
}

func NewAuditPlugin(logger zerolog.Logger) *AuditPlugin {
	return &AuditPlugin{logger: logger.With().Str("plugin", "audit").Logger()}
}

func (p *AuditPlugin) Name() string { return "audit" }

func (p *AuditPlugin) Events() []string { return []string{"*"} }

func (p *AuditPlugin) Handle(_ context.Context, ev Event) error {
	entry := p.logger.Info().
		Str("event", ev.Name).
		Str("tenant_id", ev.TenantID).
		Time("occurred_at", ev.OccurredAt)
	for k, v := range ev.Data {
		entry = entry.Str(k, v)
	}
	entry.Msg("Audit event")
	return nil
}

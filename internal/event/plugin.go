package event

import (
	"context"

	"github.com/rs/zerolog"
)

// Plugin is a named bundle of event subscriptions. Plugins are registered at
// startup and attached to the emitter; there is no dynamic loading.
type Plugin interface {
	Name() string
	// Events returns the event names the plugin wants; "*" means all.
	Events() []string
	Handle(ctx context.Context, ev Event) error
}

// Registry holds the configured plugins and wires them to an emitter.
type Registry struct {
	plugins []Plugin
	logger  zerolog.Logger
}

func NewRegistry(logger zerolog.Logger) *Registry {
	return &Registry{logger: logger.With().Str("component", "plugin_registry").Logger()}
}

func (r *Registry) Register(p Plugin) {
	r.plugins = append(r.plugins, p)
	r.logger.Info().Str("plugin", p.Name()).Msg("Plugin registered")
}

// Attach subscribes every registered plugin to the emitter.
func (r *Registry) Attach(e *Emitter) {
	for _, p := range r.plugins {
		for _, name := range p.Events() {
			e.Subscribe(name, p.Name(), p.Handle)
		}
	}
}

// Plugins returns the registered plugins in registration order.
func (r *Registry) Plugins() []Plugin {
	return r.plugins
}

package event

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"github.com/rs/zerolog"
)

// Event names emitted by the services.
const (
	EnrollmentCreated   = "enrollment.created"
	EnrollmentCancelled = "enrollment.cancelled"
	LessonCompleted     = "lesson.completed"
	CourseCompleted     = "course.completed"
	MediaReady          = "media.ready"
	TenantSynced        = "tenant.synced"
)

// Event is the payload delivered to subscribers and relayed externally.
type Event struct {
	Name       string            `json:"name"`
	TenantID   string            `json:"tenant_id"`
	OccurredAt time.Time         `json:"occurred_at"`
	Data       map[string]string `json:"data"`
}

// Handler processes one event. Errors are logged by the emitter and never
// propagate to the emitting request.
type Handler func(ctx context.Context, ev Event) error

// Publisher relays events to an external topic (see internal/pubsub).
type Publisher interface {
	Publish(ctx context.Context, topic string, payload []byte) (string, error)
}

// Emitter is a synchronous in-process pub/sub dispatcher. Subscribe during
// startup; Emit is safe for concurrent use afterwards.
type Emitter struct {
	mu       sync.RWMutex
	handlers map[string][]namedHandler

	relay      Publisher
	relayTopic string
	logger     zerolog.Logger
}

type namedHandler struct {
	name string
	fn   Handler
}

func NewEmitter(logger zerolog.Logger) *Emitter {
	return &Emitter{
		handlers: make(map[string][]namedHandler),
		logger:   logger.With().Str("component", "event_emitter").Logger(),
	}
}

// WithRelay mirrors every emitted event to the given external topic.
func (e *Emitter) WithRelay(pub Publisher, topic string) *Emitter {
	e.relay = pub
	e.relayTopic = topic
	return e
}

// Subscribe registers handler for the named event. "*" subscribes to all events.
func (e *Emitter) Subscribe(event, name string, fn Handler) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.handlers[event] = append(e.handlers[event], namedHandler{name: name, fn: fn})
}

// Emit dispatches ev to subscribers in registration order, then to the
// external relay when one is configured. A failing handler is logged and
// skipped; Emit never returns an error to the caller's request path.
func (e *Emitter) Emit(ctx context.Context, ev Event) {
	if ev.OccurredAt.IsZero() {
		ev.OccurredAt = time.Now().UTC()
	}

	e.mu.RLock()
	subs := append([]namedHandler{}, e.handlers[ev.Name]...)
	subs = append(subs, e.handlers["*"]...)
	e.mu.RUnlock()

	for _, sub := range subs {
		if err := sub.fn(ctx, ev); err != nil {
			e.logger.Error().
				Err(err).
				Str("event", ev.Name).
				Str("handler", sub.name).
				Str("tenant_id", ev.TenantID).
				Msg("Event handler failed")
		}
	}

	if e.relay == nil {
		return
	}
	payload, err := json.Marshal(ev)
	if err != nil {
		e.logger.Error().Err(err).Str("event", ev.Name).Msg("Failed to marshal event for relay")
		return
	}
	if _, err := e.relay.Publish(ctx, e.relayTopic, payload); err != nil {
		e.logger.Error().Err(err).Str("event", ev.Name).Str("topic", e.relayTopic).Msg("Failed to relay event")
	}
}

package event

import (
	"context"
	"errors"
	"testing"

	"github.com/rs/zerolog"
)

func TestEmitDispatchesToSubscribers(t *testing.T) {
	e := NewEmitter(zerolog.Nop())

	var got []string
	e.Subscribe(LessonCompleted, "first", func(_ context.Context, ev Event) error {
		got = append(got, "first:"+ev.Name)
		return nil
	})
	e.Subscribe(LessonCompleted, "second", func(_ context.Context, ev Event) error {
		got = append(got, "second:"+ev.Name)
		return nil
	})
	e.Subscribe(CourseCompleted, "other", func(_ context.Context, ev Event) error {
		got = append(got, "other")
		return nil
	})

	e.Emit(context.Background(), Event{Name: LessonCompleted, TenantID: "t1"})

	if len(got) != 2 {
		t.Fatalf("expected 2 handlers invoked, got %d: %v", len(got), got)
	}
	if got[0] != "first:lesson.completed" || got[1] != "second:lesson.completed" {
		t.Fatalf("handlers invoked out of registration order: %v", got)
	}
}

func TestEmitWildcardReceivesAllEvents(t *testing.T) {
	e := NewEmitter(zerolog.Nop())

	var names []string
	e.Subscribe("*", "catchall", func(_ context.Context, ev Event) error {
		names = append(names, ev.Name)
		return nil
	})

	e.Emit(context.Background(), Event{Name: EnrollmentCreated, TenantID: "t1"})
	e.Emit(context.Background(), Event{Name: MediaReady, TenantID: "t1"})

	if len(names) != 2 || names[0] != EnrollmentCreated || names[1] != MediaReady {
		t.Fatalf("wildcard subscriber missed events: %v", names)
	}
}

func TestEmitHandlerErrorDoesNotStopOthers(t *testing.T) {
	e := NewEmitter(zerolog.Nop())

	called := false
	e.Subscribe(CourseCompleted, "failing", func(_ context.Context, _ Event) error {
		return errors.New("boom")
	})
	e.Subscribe(CourseCompleted, "after", func(_ context.Context, _ Event) error {
		called = true
		return nil
	})

	e.Emit(context.Background(), Event{Name: CourseCompleted, TenantID: "t1"})

	if !called {
		t.Fatal("handler after a failing one was not invoked")
	}
}

type capturePublisher struct {
	topics   []string
	payloads [][]byte
}

func (p *capturePublisher) Publish(_ context.Context, topic string, payload []byte) (string, error) {
	p.topics = append(p.topics, topic)
	p.payloads = append(p.payloads, payload)
	return "msg-1", nil
}

func TestEmitRelaysToExternalTopic(t *testing.T) {
	pub := &capturePublisher{}
	e := NewEmitter(zerolog.Nop()).WithRelay(pub, "lms-events")

	e.Emit(context.Background(), Event{Name: TenantSynced, TenantID: "t1"})

	if len(pub.topics) != 1 || pub.topics[0] != "lms-events" {
		t.Fatalf("expected one relayed message to lms-events, got %v", pub.topics)
	}
	if len(pub.payloads[0]) == 0 {
		t.Fatal("relayed payload is empty")
	}
}

type testPlugin struct {
	name   string
	events []string
	seen   []Event
}

func (p *testPlugin) Name() string     { return p.name }
func (p *testPlugin) Events() []string { return p.events }
func (p *testPlugin) Handle(_ context.Context, ev Event) error {
	p.seen = append(p.seen, ev)
	return nil
}

func TestRegistryAttachSubscribesPlugins(t *testing.T) {
	r := NewRegistry(zerolog.Nop())
	scoped := &testPlugin{name: "scoped", events: []string{CourseCompleted}}
	wild := &testPlugin{name: "wild", events: []string{"*"}}
	r.Register(scoped)
	r.Register(wild)

	e := NewEmitter(zerolog.Nop())
	r.Attach(e)

	e.Emit(context.Background(), Event{Name: LessonCompleted, TenantID: "t1"})
	e.Emit(context.Background(), Event{Name: CourseCompleted, TenantID: "t1"})

	if len(scoped.seen) != 1 || scoped.seen[0].Name != CourseCompleted {
		t.Fatalf("scoped plugin saw wrong events: %v", scoped.seen)
	}
	if len(wild.seen) != 2 {
		t.Fatalf("wildcard plugin expected 2 events, saw %d", len(wild.seen))
	}
}

package service

import (
	"context"
	"errors"
	"testing"

	"lms/internal/event"
	"lms/internal/model"

	"github.com/rs/zerolog"
)

func newEnrollmentFixture() (EnrollmentService, *fakeEnrollmentRepo, *[]event.Event) {
	courses := &fakeCourseRepo{courses: map[string]*model.Course{
		"pub":   {ID: "pub", TenantID: "t1", Status: model.ContentStatusPublished},
		"draft": {ID: "draft", TenantID: "t1", Status: model.ContentStatusDraft},
	}}
	enrolls := &fakeEnrollmentRepo{enrollments: make(map[string]*model.UserEnrollment)}

	var emitted []event.Event
	emitter := event.NewEmitter(zerolog.Nop())
	emitter.Subscribe("*", "capture", func(_ context.Context, ev event.Event) error {
		emitted = append(emitted, ev)
		return nil
	})

	svc := NewEnrollmentService(enrolls, courses, emitter, zerolog.Nop())
	return svc, enrolls, &emitted
}

func TestEnrollPublishedCourse(t *testing.T) {
	svc, _, emitted := newEnrollmentFixture()

	enrollment, err := svc.Enroll(context.Background(), "t1", "u1", "pub")
	if err != nil {
		t.Fatalf("Enroll: %v", err)
	}
	if enrollment.Status != model.EnrollmentStatusActive {
		t.Fatalf("expected active, got %s", enrollment.Status)
	}
	if len(*emitted) != 1 || (*emitted)[0].Name != event.EnrollmentCreated {
		t.Fatalf("expected enrollment.created, got %v", *emitted)
	}
}

func TestEnrollRejectsDraftAndUnknownCourse(t *testing.T) {
	svc, _, _ := newEnrollmentFixture()

	if _, err := svc.Enroll(context.Background(), "t1", "u1", "draft"); !errors.Is(err, ErrConflict) {
		t.Fatalf("expected ErrConflict for unpublished course, got %v", err)
	}
	if _, err := svc.Enroll(context.Background(), "t1", "u1", "missing"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestEnrollTwiceConflicts(t *testing.T) {
	svc, _, _ := newEnrollmentFixture()

	if _, err := svc.Enroll(context.Background(), "t1", "u1", "pub"); err != nil {
		t.Fatalf("Enroll: %v", err)
	}
	if _, err := svc.Enroll(context.Background(), "t1", "u1", "pub"); !errors.Is(err, ErrConflict) {
		t.Fatalf("expected ErrConflict on duplicate enrollment, got %v", err)
	}
}

func TestEnrollReactivatesCancelled(t *testing.T) {
	svc, _, emitted := newEnrollmentFixture()

	first, err := svc.Enroll(context.Background(), "t1", "u1", "pub")
	if err != nil {
		t.Fatalf("Enroll: %v", err)
	}
	if _, err := svc.CancelEnrollment(context.Background(), "t1", "u1", first.ID); err != nil {
		t.Fatalf("CancelEnrollment: %v", err)
	}

	again, err := svc.Enroll(context.Background(), "t1", "u1", "pub")
	if err != nil {
		t.Fatalf("re-enroll: %v", err)
	}
	if again.ID != first.ID {
		t.Fatalf("re-enroll created a new row: %s vs %s", again.ID, first.ID)
	}
	if again.Status != model.EnrollmentStatusActive {
		t.Fatalf("expected re-activated enrollment, got %s", again.Status)
	}

	names := make([]string, 0, len(*emitted))
	for _, ev := range *emitted {
		names = append(names, ev.Name)
	}
	want := []string{event.EnrollmentCreated, event.EnrollmentCancelled, event.EnrollmentCreated}
	if len(names) != len(want) {
		t.Fatalf("unexpected events: %v", names)
	}
	for i := range want {
		if names[i] != want[i] {
			t.Fatalf("event %d = %s, want %s", i, names[i], want[i])
		}
	}
}

func TestCancelEnrollmentOwnerOnly(t *testing.T) {
	svc, _, _ := newEnrollmentFixture()

	enrollment, err := svc.Enroll(context.Background(), "t1", "u1", "pub")
	if err != nil {
		t.Fatalf("Enroll: %v", err)
	}

	if _, err := svc.CancelEnrollment(context.Background(), "t1", "u2", enrollment.ID); !errors.Is(err, ErrForbidden) {
		t.Fatalf("expected ErrForbidden for other user, got %v", err)
	}

	cancelled, err := svc.CancelEnrollment(context.Background(), "t1", "u1", enrollment.ID)
	if err != nil {
		t.Fatalf("CancelEnrollment: %v", err)
	}
	if cancelled.Status != model.EnrollmentStatusCancelled {
		t.Fatalf("expected cancelled, got %s", cancelled.Status)
	}

	// Cancelling again is a conflict, not a silent no-op.
	if _, err := svc.CancelEnrollment(context.Background(), "t1", "u1", enrollment.ID); !errors.Is(err, ErrConflict) {
		t.Fatalf("expected ErrConflict on double cancel, got %v", err)
	}
}

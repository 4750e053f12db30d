package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"lms/internal/cache"
	"lms/internal/model"

	"github.com/rs/zerolog"
)

func newCourseFixture() (CourseService, *fakeCourseRepo, *fakeLessonRepo) {
	courses := &fakeCourseRepo{courses: make(map[string]*model.Course)}
	lessons := &fakeLessonRepo{lessons: make(map[string]*model.Lesson)}
	svc := NewCourseService(courses, lessons, cache.New(time.Minute, time.Minute), zerolog.Nop())
	return svc, courses, lessons
}

func TestCreateCourseStartsAsDraft(t *testing.T) {
	svc, _, _ := newCourseFixture()

	created, err := svc.CreateCourse(context.Background(), &model.Course{
		TenantID: "t1", Title: "Go Basics", Slug: "go-basics", CreatedBy: "u1",
	})
	if err != nil {
		t.Fatalf("CreateCourse: %v", err)
	}
	if created.Status != model.ContentStatusDraft {
		t.Fatalf("expected draft, got %s", created.Status)
	}
}

func TestCreateCourseDuplicateSlug(t *testing.T) {
	svc, _, _ := newCourseFixture()

	base := model.Course{TenantID: "t1", Title: "Go Basics", Slug: "go-basics", CreatedBy: "u1"}
	first := base
	if _, err := svc.CreateCourse(context.Background(), &first); err != nil {
		t.Fatalf("CreateCourse: %v", err)
	}

	second := base
	if _, err := svc.CreateCourse(context.Background(), &second); !errors.Is(err, ErrConflict) {
		t.Fatalf("expected ErrConflict on duplicate slug, got %v", err)
	}
}

func TestPublishCourseRequiresPublishedLessons(t *testing.T) {
	svc, courses, lessons := newCourseFixture()
	courses.courses["c1"] = &model.Course{ID: "c1", TenantID: "t1", Status: model.ContentStatusDraft}

	if _, err := svc.PublishCourse(context.Background(), "t1", "c1"); !errors.Is(err, ErrConflict) {
		t.Fatalf("expected ErrConflict without published lessons, got %v", err)
	}

	lessons.lessons["l1"] = &model.Lesson{ID: "l1", TenantID: "t1", CourseID: "c1", ModuleID: "m1", Status: model.ContentStatusPublished}
	course, err := svc.PublishCourse(context.Background(), "t1", "c1")
	if err != nil {
		t.Fatalf("PublishCourse: %v", err)
	}
	if course.Status != model.ContentStatusPublished {
		t.Fatalf("expected published, got %s", course.Status)
	}

	// Publishing again is a no-op.
	if _, err := svc.PublishCourse(context.Background(), "t1", "c1"); err != nil {
		t.Fatalf("republish should be idempotent: %v", err)
	}
}

func TestArchiveCourseIsTerminal(t *testing.T) {
	svc, courses, _ := newCourseFixture()
	courses.courses["c1"] = &model.Course{ID: "c1", TenantID: "t1", Status: model.ContentStatusPublished}

	course, err := svc.ArchiveCourse(context.Background(), "t1", "c1")
	if err != nil {
		t.Fatalf("ArchiveCourse: %v", err)
	}
	if course.Status != model.ContentStatusArchived {
		t.Fatalf("expected archived, got %s", course.Status)
	}

	if _, err := svc.PublishCourse(context.Background(), "t1", "c1"); !errors.Is(err, ErrConflict) {
		t.Fatalf("archived course must not publish, got %v", err)
	}
	if _, err := svc.UpdateCourse(context.Background(), &model.Course{ID: "c1", TenantID: "t1", Title: "x"}); !errors.Is(err, ErrConflict) {
		t.Fatalf("archived course must not update, got %v", err)
	}
}

func TestDeleteCourseDraftOnly(t *testing.T) {
	svc, courses, _ := newCourseFixture()
	courses.courses["draft"] = &model.Course{ID: "draft", TenantID: "t1", Status: model.ContentStatusDraft}
	courses.courses["live"] = &model.Course{ID: "live", TenantID: "t1", Status: model.ContentStatusPublished}

	if err := svc.DeleteCourse(context.Background(), "t1", "draft"); err != nil {
		t.Fatalf("DeleteCourse draft: %v", err)
	}
	if err := svc.DeleteCourse(context.Background(), "t1", "live"); !errors.Is(err, ErrConflict) {
		t.Fatalf("expected ErrConflict deleting published course, got %v", err)
	}
	if err := svc.DeleteCourse(context.Background(), "t1", "missing"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestGetCourseByIDCachesPublished(t *testing.T) {
	svc, courses, _ := newCourseFixture()
	courses.courses["c1"] = &model.Course{ID: "c1", TenantID: "t1", Status: model.ContentStatusPublished}

	if _, err := svc.GetCourseByID(context.Background(), "t1", "c1"); err != nil {
		t.Fatalf("GetCourseByID: %v", err)
	}

	// A read served from cache survives repo deletion.
	delete(courses.courses, "c1")
	course, err := svc.GetCourseByID(context.Background(), "t1", "c1")
	if err != nil {
		t.Fatalf("cached GetCourseByID: %v", err)
	}
	if course.ID != "c1" {
		t.Fatalf("unexpected course: %+v", course)
	}
}

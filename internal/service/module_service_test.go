package service

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"lms/internal/model"

	"github.com/rs/zerolog"
)

type fakeModuleRepo struct {
	modules    map[string]*model.Module
	nextID     int
	lastLimit  int
	lastOffset int
}

func newFakeModuleRepo() *fakeModuleRepo {
	return &fakeModuleRepo{modules: make(map[string]*model.Module)}
}

func (r *fakeModuleRepo) CreateModule(_ context.Context, m *model.Module) error {
	r.nextID++
	m.ID = fmt.Sprintf("m-%d", r.nextID)
	cp := *m
	r.modules[m.ID] = &cp
	return nil
}

func (r *fakeModuleRepo) GetModuleByID(_ context.Context, _, moduleID string) (*model.Module, error) {
	m, ok := r.modules[moduleID]
	if !ok {
		return nil, nil
	}
	cp := *m
	return &cp, nil
}

func (r *fakeModuleRepo) ListModulesByCourse(_ context.Context, _, courseID string, limit, offset int) ([]model.Module, error) {
	r.lastLimit = limit
	r.lastOffset = offset
	var out []model.Module
	for _, m := range r.modules {
		if m.CourseID == courseID {
			out = append(out, *m)
		}
	}
	return out, nil
}

func (r *fakeModuleRepo) UpdateModule(_ context.Context, m *model.Module) error {
	cp := *m
	r.modules[m.ID] = &cp
	return nil
}

func (r *fakeModuleRepo) DeleteModule(_ context.Context, _, moduleID string) error {
	delete(r.modules, moduleID)
	return nil
}

func newModuleFixture(t *testing.T) (ModuleService, *fakeModuleRepo, *fakeCourseRepo) {
	t.Helper()
	courses := &fakeCourseRepo{courses: make(map[string]*model.Course)}
	course := &model.Course{TenantID: "t1", Title: "Intro to Go", Slug: "intro-go", Status: model.ContentStatusPublished}
	if err := courses.CreateCourse(context.Background(), course); err != nil {
		t.Fatalf("seed course: %v", err)
	}

	modules := newFakeModuleRepo()
	svc := NewModuleService(modules, courses, zerolog.Nop())
	return svc, modules, courses
}

func seedModule(t *testing.T, svc ModuleService, courses *fakeCourseRepo) *model.Module {
	t.Helper()
	var courseID string
	for _, c := range courses.courses {
		courseID = c.ID
	}
	module, err := svc.CreateModule(context.Background(), &model.Module{
		TenantID: "t1", CourseID: courseID, Title: "Basics",
	})
	if err != nil {
		t.Fatalf("seed module: %v", err)
	}
	return module
}

func TestArchiveModuleIsTerminal(t *testing.T) {
	svc, repo, courses := newModuleFixture(t)
	module := seedModule(t, svc, courses)

	archived, err := svc.ArchiveModule(context.Background(), "t1", module.ID)
	if err != nil {
		t.Fatalf("ArchiveModule: %v", err)
	}
	if archived.Status != model.ContentStatusArchived {
		t.Fatalf("expected archived, got %s", archived.Status)
	}
	if repo.modules[module.ID].Status != model.ContentStatusArchived {
		t.Fatal("archive was not persisted")
	}

	// Idempotent on a second call.
	again, err := svc.ArchiveModule(context.Background(), "t1", module.ID)
	if err != nil || again.Status != model.ContentStatusArchived {
		t.Fatalf("second archive: %v %+v", err, again)
	}

	// No way back to published.
	if _, err := svc.PublishModule(context.Background(), "t1", module.ID); !errors.Is(err, ErrConflict) {
		t.Fatalf("expected ErrConflict publishing an archived module, got %v", err)
	}
	if _, err := svc.UpdateModule(context.Background(), archived); !errors.Is(err, ErrConflict) {
		t.Fatalf("expected ErrConflict updating an archived module, got %v", err)
	}
}

func TestArchiveModuleNotFound(t *testing.T) {
	svc, _, _ := newModuleFixture(t)
	if _, err := svc.ArchiveModule(context.Background(), "t1", "missing"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestListModulesByCoursePagination(t *testing.T) {
	svc, repo, courses := newModuleFixture(t)
	module := seedModule(t, svc, courses)

	out, err := svc.ListModulesByCourse(context.Background(), "t1", module.CourseID, 5, 10)
	if err != nil {
		t.Fatalf("ListModulesByCourse: %v", err)
	}
	if len(out) != 1 {
		t.Fatalf("expected 1 module, got %d", len(out))
	}
	if repo.lastLimit != 5 || repo.lastOffset != 10 {
		t.Fatalf("pagination not passed through: limit=%d offset=%d", repo.lastLimit, repo.lastOffset)
	}

	if _, err := svc.ListModulesByCourse(context.Background(), "t1", "missing", 20, 0); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound for unknown course, got %v", err)
	}
}

func TestArchiveLessonIsTerminal(t *testing.T) {
	modules := newFakeModuleRepo()
	lessons := &fakeLessonRepo{lessons: map[string]*model.Lesson{
		"l1": {ID: "l1", TenantID: "t1", ModuleID: "m1", CourseID: "c1", Title: "Welcome", Kind: model.LessonKindDocument, Status: model.ContentStatusPublished},
	}}
	svc := NewLessonService(lessons, modules, newFakeMediaRepo(), zerolog.Nop())

	archived, err := svc.ArchiveLesson(context.Background(), "t1", "l1")
	if err != nil {
		t.Fatalf("ArchiveLesson: %v", err)
	}
	if archived.Status != model.ContentStatusArchived {
		t.Fatalf("expected archived, got %s", archived.Status)
	}
	if lessons.lessons["l1"].Status != model.ContentStatusArchived {
		t.Fatal("archive was not persisted")
	}

	again, err := svc.ArchiveLesson(context.Background(), "t1", "l1")
	if err != nil || again.Status != model.ContentStatusArchived {
		t.Fatalf("second archive: %v %+v", err, again)
	}

	if _, err := svc.PublishLesson(context.Background(), "t1", "l1"); !errors.Is(err, ErrConflict) {
		t.Fatalf("expected ErrConflict publishing an archived lesson, got %v", err)
	}

	if _, err := svc.ArchiveLesson(context.Background(), "t1", "missing"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

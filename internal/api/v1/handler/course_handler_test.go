package handler

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"lms/internal/api/v1/dto"
	"lms/internal/middleware"
	"lms/internal/model"
	"lms/internal/service"

	"github.com/go-playground/validator/v10"
)

type fakeCourseService struct {
	courses map[string]*model.Course
}

func (f *fakeCourseService) CreateCourse(_ context.Context, c *model.Course) (*model.Course, error) {
	if _, exists := f.courses[c.Slug]; exists {
		return nil, fmt.Errorf("%w: course slug %q already exists", service.ErrConflict, c.Slug)
	}
	c.ID = "c-" + c.Slug
	c.Status = model.ContentStatusDraft
	f.courses[c.Slug] = c
	return c, nil
}

func (f *fakeCourseService) GetCourseByID(_ context.Context, _, courseID string) (*model.Course, error) {
	for _, c := range f.courses {
		if c.ID == courseID {
			return c, nil
		}
	}
	return nil, service.ErrNotFound
}

func (f *fakeCourseService) ListCourses(_ context.Context, _, status string, _, _ int) ([]model.Course, error) {
	var out []model.Course
	for _, c := range f.courses {
		if status == "" || c.Status == status {
			out = append(out, *c)
		}
	}
	return out, nil
}

func (f *fakeCourseService) UpdateCourse(_ context.Context, c *model.Course) (*model.Course, error) {
	return c, nil
}

func (f *fakeCourseService) PublishCourse(_ context.Context, _, courseID string) (*model.Course, error) {
	if _, err := f.GetCourseByID(context.Background(), "", courseID); err != nil {
		return nil, err
	}
	return nil, fmt.Errorf("%w: course has no published lessons", service.ErrConflict)
}

func (f *fakeCourseService) ArchiveCourse(_ context.Context, _, courseID string) (*model.Course, error) {
	return f.GetCourseByID(context.Background(), "", courseID)
}

func (f *fakeCourseService) DeleteCourse(_ context.Context, _, _ string) error {
	return nil
}

// withAuthContext simulates what the auth and tenant middleware put into the
// request context.
func withAuthContext(req *http.Request) *http.Request {
	ctx := context.WithValue(req.Context(), middleware.UserContextKey, "u1")
	ctx = context.WithValue(ctx, middleware.TenantContextKey, &model.Tenant{
		ID: "t1", Slug: "acme", Status: model.TenantStatusActive,
	})
	return req.WithContext(ctx)
}

func passthrough(next http.Handler) http.Handler { return next }

func newCourseHandlerFixture() (*http.ServeMux, *fakeCourseService) {
	svc := &fakeCourseService{courses: make(map[string]*model.Course)}
	h := NewCourseHandler(svc, nil, nil, nil, validator.New(validator.WithRequiredStructEnabled()))
	mux := http.NewServeMux()
	h.RegisterRoutes(mux, passthrough)
	return mux, svc
}

func TestCreateCourse(t *testing.T) {
	mux, _ := newCourseHandlerFixture()

	body := `{"title": "Go Basics", "slug": "go-basics", "description": "intro"}`
	req := withAuthContext(httptest.NewRequest(http.MethodPost, "/courses", strings.NewReader(body)))
	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, req)

	if rec.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d: %s", rec.Code, rec.Body.String())
	}

	var resp dto.CourseResponseDTO
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if resp.Slug != "go-basics" || resp.Status != model.ContentStatusDraft {
		t.Fatalf("unexpected response: %+v", resp)
	}
	if resp.CreatedBy != "u1" {
		t.Fatalf("creator not taken from context: %s", resp.CreatedBy)
	}
}

func TestCreateCourseValidation(t *testing.T) {
	mux, _ := newCourseHandlerFixture()

	// Missing required slug.
	body := `{"title": "Go Basics"}`
	req := withAuthContext(httptest.NewRequest(http.MethodPost, "/courses", strings.NewReader(body)))
	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rec.Code)
	}
}

func TestCreateCourseDuplicateSlugConflict(t *testing.T) {
	mux, svc := newCourseHandlerFixture()
	svc.courses["go-basics"] = &model.Course{ID: "c-go-basics", Slug: "go-basics", Status: model.ContentStatusDraft}

	body := `{"title": "Go Basics", "slug": "go-basics"}`
	req := withAuthContext(httptest.NewRequest(http.MethodPost, "/courses", strings.NewReader(body)))
	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, req)

	if rec.Code != http.StatusConflict {
		t.Fatalf("expected 409, got %d", rec.Code)
	}
}

func TestGetCourseNotFound(t *testing.T) {
	mux, _ := newCourseHandlerFixture()

	req := withAuthContext(httptest.NewRequest(http.MethodGet, "/courses/missing", nil))
	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, req)

	if rec.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", rec.Code)
	}
}

func TestPublishCourseConflict(t *testing.T) {
	mux, svc := newCourseHandlerFixture()
	svc.courses["empty"] = &model.Course{ID: "c-empty", Slug: "empty", Status: model.ContentStatusDraft}

	req := withAuthContext(httptest.NewRequest(http.MethodPost, "/courses/c-empty/publish", nil))
	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, req)

	if rec.Code != http.StatusConflict {
		t.Fatalf("expected 409, got %d", rec.Code)
	}
}

func TestListCoursesStatusFilter(t *testing.T) {
	mux, svc := newCourseHandlerFixture()
	svc.courses["a"] = &model.Course{ID: "c-a", Slug: "a", Status: model.ContentStatusPublished}
	svc.courses["b"] = &model.Course{ID: "c-b", Slug: "b", Status: model.ContentStatusDraft}

	req := withAuthContext(httptest.NewRequest(http.MethodGet, "/courses?status=published", nil))
	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	var resp []dto.CourseResponseDTO
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if len(resp) != 1 || resp[0].Slug != "a" {
		t.Fatalf("status filter not applied: %+v", resp)
	}
}

func TestDeleteCourseNoContent(t *testing.T) {
	mux, svc := newCourseHandlerFixture()
	svc.courses["gone"] = &model.Course{ID: "c-gone", Slug: "gone", Status: model.ContentStatusDraft}

	req := withAuthContext(httptest.NewRequest(http.MethodDelete, "/courses/c-gone", nil))
	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, req)

	if rec.Code != http.StatusNoContent {
		t.Fatalf("expected 204, got %d", rec.Code)
	}
}

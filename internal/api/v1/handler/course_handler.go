package handler

import (
	"encoding/json"
	"net/http"
	"strings"

	"lms/internal/api/v1/dto"
	"lms/internal/middleware"
	"lms/internal/model"
	"lms/internal/service"

	"github.com/go-playground/validator/v10"
)

// CourseHandler handles course-related endpoints
type CourseHandler struct {
	courseService     service.CourseService
	moduleService     service.ModuleService
	enrollmentService service.EnrollmentService
	trackingService   service.TrackingService
	validate          *validator.Validate
}

// NewCourseHandler creates a new CourseHandler
func NewCourseHandler(
	courseService service.CourseService,
	moduleService service.ModuleService,
	enrollmentService service.EnrollmentService,
	trackingService service.TrackingService,
	validate *validator.Validate,
) *CourseHandler {
	return &CourseHandler{
		courseService:     courseService,
		moduleService:     moduleService,
		enrollmentService: enrollmentService,
		trackingService:   trackingService,
		validate:          validate,
	}
}

// RegisterRoutes mounts course routes
func (h *CourseHandler) RegisterRoutes(mux *http.ServeMux, authMw func(http.Handler) http.Handler) {
	mux.Handle("/courses", authMw(http.HandlerFunc(h.handleCollection)))
	mux.Handle("/courses/", authMw(http.HandlerFunc(h.handleCourse)))
}

func (h *CourseHandler) handleCollection(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodPost:
		h.createCourse(w, r)
	case http.MethodGet:
		h.listCourses(w, r)
	default:
		http.NotFound(w, r)
	}
}

func (h *CourseHandler) handleCourse(w http.ResponseWriter, r *http.Request) {
	rest := strings.TrimPrefix(r.URL.Path, "/courses/")
	parts := strings.Split(rest, "/")

	switch {
	case len(parts) == 1 && parts[0] != "":
		courseID := parts[0]
		switch r.Method {
		case http.MethodGet:
			h.getCourse(w, r, courseID)
		case http.MethodPut:
			h.updateCourse(w, r, courseID)
		case http.MethodDelete:
			h.deleteCourse(w, r, courseID)
		default:
			http.NotFound(w, r)
		}
	case len(parts) == 2 && parts[1] == "publish" && r.Method == http.MethodPost:
		h.publishCourse(w, r, parts[0])
	case len(parts) == 2 && parts[1] == "archive" && r.Method == http.MethodPost:
		h.archiveCourse(w, r, parts[0])
	case len(parts) == 2 && parts[1] == "modules" && r.Method == http.MethodGet:
		h.listModules(w, r, parts[0])
	case len(parts) == 2 && parts[1] == "enrollments" && r.Method == http.MethodGet:
		h.listEnrollments(w, r, parts[0])
	case len(parts) == 2 && parts[1] == "progress" && r.Method == http.MethodGet:
		h.getProgress(w, r, parts[0])
	default:
		http.NotFound(w, r)
	}
}

// createCourse godoc
// @Summary Create a new course
// @Description Creates a draft course within the caller's tenant.
// @Tags courses
// @Accept json
// @Produce json
// @Param course body dto.CourseCreateDTO true "Course creation request"
// @Success 201 {object} dto.CourseResponseDTO
// @Failure 400 {string} string "Invalid JSON payload or validation failed"
// @Failure 409 {string} string "Course slug already exists"
// @Router /courses [post]
func (h *CourseHandler) createCourse(w http.ResponseWriter, r *http.Request) {
	tenant, _ := middleware.TenantFromContext(r.Context())
	userID, ok := middleware.UserFromContext(r.Context())
	if !ok {
		http.Error(w, "Unauthorized: User ID not found in context", http.StatusUnauthorized)
		return
	}
	var req dto.CourseCreateDTO
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid JSON payload: "+err.Error(), http.StatusBadRequest)
		return
	}
	if err := h.validate.Struct(&req); err != nil {
		http.Error(w, "Validation failed: "+err.Error(), http.StatusBadRequest)
		return
	}
	description := ""
	if req.Description != nil {
		description = *req.Description
	}
	course := &model.Course{
		TenantID:    tenant.ID,
		Title:       req.Title,
		Slug:        req.Slug,
		Description: description,
		CreatedBy:   userID,
	}
	created, err := h.courseService.CreateCourse(r.Context(), course)
	if err != nil {
		writeServiceError(w, err, "Failed to create course")
		return
	}
	writeJSON(w, http.StatusCreated, courseResponse(created))
}

// listCourses godoc
// @Summary List courses
// @Description Lists courses in the caller's tenant with pagination. Optional status filter.
// @Tags courses
// @Produce json
// @Param status query string false "Filter by status (draft|published|archived)"
// @Param limit query int false "Page size (default 20, max 100)"
// @Param offset query int false "Offset"
// @Success 200 {array} dto.CourseResponseDTO
// @Router /courses [get]
func (h *CourseHandler) listCourses(w http.ResponseWriter, r *http.Request) {
	tenant, _ := middleware.TenantFromContext(r.Context())
	limit, offset := parsePagination(r)
	courses, err := h.courseService.ListCourses(r.Context(), tenant.ID, r.URL.Query().Get("status"), limit, offset)
	if err != nil {
		writeServiceError(w, err, "Failed to list courses")
		return
	}
	resp := make([]dto.CourseResponseDTO, 0, len(courses))
	for i := range courses {
		resp = append(resp, courseResponse(&courses[i]))
	}
	writeJSON(w, http.StatusOK, resp)
}

// getCourse godoc
// @Summary Get a course
// @Description Retrieves a course by its ID.
// @Tags courses
// @Produce json
// @Param courseId path string true "Course ID"
// @Success 200 {object} dto.CourseResponseDTO
// @Failure 404 {string} string "Course not found"
// @Router /courses/{courseId} [get]
func (h *CourseHandler) getCourse(w http.ResponseWriter, r *http.Request, courseID string) {
	tenant, _ := middleware.TenantFromContext(r.Context())
	course, err := h.courseService.GetCourseByID(r.Context(), tenant.ID, courseID)
	if err != nil {
		writeServiceError(w, err, "Failed to retrieve course")
		return
	}
	writeJSON(w, http.StatusOK, courseResponse(course))
}

// updateCourse godoc
// @Summary Update a course
// @Description Updates title/description of a non-archived course.
// @Tags courses
// @Accept json
// @Produce json
// @Param courseId path string true "Course ID"
// @Param course body dto.CourseUpdateDTO true "Course update request"
// @Success 200 {object} dto.CourseResponseDTO
// @Failure 404 {string} string "Course not found"
// @Failure 409 {string} string "Course is archived"
// @Router /courses/{courseId} [put]
func (h *CourseHandler) updateCourse(w http.ResponseWriter, r *http.Request, courseID string) {
	tenant, _ := middleware.TenantFromContext(r.Context())
	var req dto.CourseUpdateDTO
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid JSON payload: "+err.Error(), http.StatusBadRequest)
		return
	}
	if err := h.validate.Struct(&req); err != nil {
		http.Error(w, "Validation failed: "+err.Error(), http.StatusBadRequest)
		return
	}
	course, err := h.courseService.GetCourseByID(r.Context(), tenant.ID, courseID)
	if err != nil {
		writeServiceError(w, err, "Failed to retrieve course")
		return
	}
	if req.Title != nil {
		course.Title = *req.Title
	}
	if req.Description != nil {
		course.Description = *req.Description
	}
	updated, err := h.courseService.UpdateCourse(r.Context(), course)
	if err != nil {
		writeServiceError(w, err, "Failed to update course")
		return
	}
	writeJSON(w, http.StatusOK, courseResponse(updated))
}

// publishCourse godoc
// @Summary Publish a course
// @Description Moves a draft course to published. Requires at least one published lesson.
// @Tags courses
// @Produce json
// @Param courseId path string true "Course ID"
// @Success 200 {object} dto.CourseResponseDTO
// @Failure 409 {string} string "Course cannot be published"
// @Router /courses/{courseId}/publish [post]
func (h *CourseHandler) publishCourse(w http.ResponseWriter, r *http.Request, courseID string) {
	tenant, _ := middleware.TenantFromContext(r.Context())
	course, err := h.courseService.PublishCourse(r.Context(), tenant.ID, courseID)
	if err != nil {
		writeServiceError(w, err, "Failed to publish course")
		return
	}
	writeJSON(w, http.StatusOK, courseResponse(course))
}

// archiveCourse godoc
// @Summary Archive a course
// @Description Archives a course. Archiving is terminal.
// @Tags courses
// @Produce json
// @Param courseId path string true "Course ID"
// @Success 200 {object} dto.CourseResponseDTO
// @Router /courses/{courseId}/archive [post]
func (h *CourseHandler) archiveCourse(w http.ResponseWriter, r *http.Request, courseID string) {
	tenant, _ := middleware.TenantFromContext(r.Context())
	course, err := h.courseService.ArchiveCourse(r.Context(), tenant.ID, courseID)
	if err != nil {
		writeServiceError(w, err, "Failed to archive course")
		return
	}
	writeJSON(w, http.StatusOK, courseResponse(course))
}

// deleteCourse godoc
// @Summary Delete a course
// @Description Deletes a draft course. Published courses must be archived instead.
// @Tags courses
// @Param courseId path string true "Course ID"
// @Success 204
// @Failure 409 {string} string "Only draft courses can be deleted"
// @Router /courses/{courseId} [delete]
func (h *CourseHandler) deleteCourse(w http.ResponseWriter, r *http.Request, courseID string) {
	tenant, _ := middleware.TenantFromContext(r.Context())
	if err := h.courseService.DeleteCourse(r.Context(), tenant.ID, courseID); err != nil {
		writeServiceError(w, err, "Failed to delete course")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// listModules godoc
// @Summary List modules of a course
// @Tags courses
// @Produce json
// @Param courseId path string true "Course ID"
// @Param limit query int false "Page size (default 20, max 100)"
// @Param offset query int false "Offset"
// @Success 200 {array} dto.ModuleResponseDTO
// @Router /courses/{courseId}/modules [get]
func (h *CourseHandler) listModules(w http.ResponseWriter, r *http.Request, courseID string) {
	tenant, _ := middleware.TenantFromContext(r.Context())
	limit, offset := parsePagination(r)
	modules, err := h.moduleService.ListModulesByCourse(r.Context(), tenant.ID, courseID, limit, offset)
	if err != nil {
		writeServiceError(w, err, "Failed to list modules")
		return
	}
	resp := make([]dto.ModuleResponseDTO, 0, len(modules))
	for i := range modules {
		resp = append(resp, moduleResponse(&modules[i]))
	}
	writeJSON(w, http.StatusOK, resp)
}

// listEnrollments godoc
// @Summary List enrollments of a course
// @Tags courses
// @Produce json
// @Param courseId path string true "Course ID"
// @Success 200 {array} dto.EnrollmentResponseDTO
// @Router /courses/{courseId}/enrollments [get]
func (h *CourseHandler) listEnrollments(w http.ResponseWriter, r *http.Request, courseID string) {
	tenant, _ := middleware.TenantFromContext(r.Context())
	limit, offset := parsePagination(r)
	enrollments, err := h.enrollmentService.ListByCourse(r.Context(), tenant.ID, courseID, limit, offset)
	if err != nil {
		writeServiceError(w, err, "Failed to list enrollments")
		return
	}
	resp := make([]dto.EnrollmentResponseDTO, 0, len(enrollments))
	for i := range enrollments {
		resp = append(resp, enrollmentResponse(&enrollments[i]))
	}
	writeJSON(w, http.StatusOK, resp)
}

// getProgress godoc
// @Summary Get the caller's progress in a course
// @Tags courses
// @Produce json
// @Param courseId path string true "Course ID"
// @Success 200 {object} dto.CourseProgressResponseDTO
// @Failure 404 {string} string "No progress recorded yet"
// @Router /courses/{courseId}/progress [get]
func (h *CourseHandler) getProgress(w http.ResponseWriter, r *http.Request, courseID string) {
	tenant, _ := middleware.TenantFromContext(r.Context())
	userID, ok := middleware.UserFromContext(r.Context())
	if !ok {
		http.Error(w, "Unauthorized: User ID not found in context", http.StatusUnauthorized)
		return
	}
	progress, err := h.trackingService.GetCourseProgress(r.Context(), tenant.ID, userID, courseID)
	if err != nil {
		writeServiceError(w, err, "Failed to retrieve progress")
		return
	}

	resp := dto.CourseProgressResponseDTO{
		CourseID:         progress.CourseTrack.CourseID,
		CompletedLessons: progress.CourseTrack.CompletedLessons,
		TotalLessons:     progress.CourseTrack.TotalLessons,
		Percent:          progress.CourseTrack.PercentComplete,
		Status:           progress.CourseTrack.Status,
		StartedAt:        progress.CourseTrack.StartedAt,
		CompletedAt:      progress.CourseTrack.CompletedAt,
	}
	for _, mt := range progress.ModuleTracks {
		resp.Modules = append(resp.Modules, dto.ModuleTrackResponseDTO{
			ModuleID:         mt.ModuleID,
			CompletedLessons: mt.CompletedLessons,
			TotalLessons:     mt.TotalLessons,
			Status:           mt.Status,
			StartedAt:        mt.StartedAt,
			CompletedAt:      mt.CompletedAt,
		})
	}
	writeJSON(w, http.StatusOK, resp)
}

func courseResponse(c *model.Course) dto.CourseResponseDTO {
	return dto.CourseResponseDTO{
		ID:          c.ID,
		Title:       c.Title,
		Slug:        c.Slug,
		Description: c.Description,
		Status:      c.Status,
		CreatedBy:   c.CreatedBy,
		CreatedAt:   c.CreatedAt,
		UpdatedAt:   c.UpdatedAt,
	}
}

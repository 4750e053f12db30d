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

// EnrollmentHandler handles enrollment endpoints
type EnrollmentHandler struct {
	enrollmentService service.EnrollmentService
	validate          *validator.Validate
}

// NewEnrollmentHandler creates a new EnrollmentHandler
func NewEnrollmentHandler(enrollmentService service.EnrollmentService, validate *validator.Validate) *EnrollmentHandler {
	return &EnrollmentHandler{enrollmentService: enrollmentService, validate: validate}
}

// RegisterRoutes mounts enrollment routes
func (h *EnrollmentHandler) RegisterRoutes(mux *http.ServeMux, authMw func(http.Handler) http.Handler) {
	mux.Handle("/enrollments", authMw(http.HandlerFunc(h.handleCollection)))
	mux.Handle("/enrollments/", authMw(http.HandlerFunc(h.handleEnrollment)))
}

func (h *EnrollmentHandler) handleCollection(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodPost:
		h.enroll(w, r)
	case http.MethodGet:
		h.listOwn(w, r)
	default:
		http.NotFound(w, r)
	}
}

func (h *EnrollmentHandler) handleEnrollment(w http.ResponseWriter, r *http.Request) {
	enrollmentID := strings.TrimPrefix(r.URL.Path, "/enrollments/")
	if enrollmentID == "" || strings.Contains(enrollmentID, "/") {
		http.NotFound(w, r)
		return
	}
	switch r.Method {
	case http.MethodGet:
		h.getEnrollment(w, r, enrollmentID)
	case http.MethodDelete:
		h.cancel(w, r, enrollmentID)
	default:
		http.NotFound(w, r)
	}
}

// enroll godoc
// @Summary Enroll in a course
// @Description Creates an active enrollment in a published course. Re-activates a cancelled one.
// @Tags enrollments
// @Accept json
// @Produce json
// @Param enrollment body dto.EnrollmentCreateDTO true "Enrollment request"
// @Success 201 {object} dto.EnrollmentResponseDTO
// @Failure 409 {string} string "Already enrolled or course not published"
// @Router /enrollments [post]
func (h *EnrollmentHandler) enroll(w http.ResponseWriter, r *http.Request) {
	tenant, _ := middleware.TenantFromContext(r.Context())
	userID, ok := middleware.UserFromContext(r.Context())
	if !ok {
		http.Error(w, "Unauthorized: User ID not found in context", http.StatusUnauthorized)
		return
	}
	var req dto.EnrollmentCreateDTO
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid JSON payload: "+err.Error(), http.StatusBadRequest)
		return
	}
	if err := h.validate.Struct(&req); err != nil {
		http.Error(w, "Validation failed: "+err.Error(), http.StatusBadRequest)
		return
	}
	enrollment, err := h.enrollmentService.Enroll(r.Context(), tenant.ID, userID, req.CourseID)
	if err != nil {
		writeServiceError(w, err, "Failed to enroll")
		return
	}
	writeJSON(w, http.StatusCreated, enrollmentResponse(enrollment))
}

// listOwn godoc
// @Summary List the caller's enrollments
// @Tags enrollments
// @Produce json
// @Param limit query int false "Page size (default 20, max 100)"
// @Param offset query int false "Offset"
// @Success 200 {array} dto.EnrollmentResponseDTO
// @Router /enrollments [get]
func (h *EnrollmentHandler) listOwn(w http.ResponseWriter, r *http.Request) {
	tenant, _ := middleware.TenantFromContext(r.Context())
	userID, ok := middleware.UserFromContext(r.Context())
	if !ok {
		http.Error(w, "Unauthorized: User ID not found in context", http.StatusUnauthorized)
		return
	}
	limit, offset := parsePagination(r)
	enrollments, err := h.enrollmentService.ListByUser(r.Context(), tenant.ID, userID, limit, offset)
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

// getEnrollment godoc
// @Summary Get an enrollment
// @Tags enrollments
// @Produce json
// @Param enrollmentId path string true "Enrollment ID"
// @Success 200 {object} dto.EnrollmentResponseDTO
// @Failure 404 {string} string "Enrollment not found"
// @Router /enrollments/{enrollmentId} [get]
func (h *EnrollmentHandler) getEnrollment(w http.ResponseWriter, r *http.Request, enrollmentID string) {
	tenant, _ := middleware.TenantFromContext(r.Context())
	enrollment, err := h.enrollmentService.GetEnrollment(r.Context(), tenant.ID, enrollmentID)
	if err != nil {
		writeServiceError(w, err, "Failed to retrieve enrollment")
		return
	}
	writeJSON(w, http.StatusOK, enrollmentResponse(enrollment))
}

// cancel godoc
// @Summary Cancel an enrollment
// @Description Cancels the caller's active enrollment. Progress history is kept.
// @Tags enrollments
// @Produce json
// @Param enrollmentId path string true "Enrollment ID"
// @Success 200 {object} dto.EnrollmentResponseDTO
// @Failure 403 {string} string "Enrollment belongs to another user"
// @Failure 409 {string} string "Only active enrollments can be cancelled"
// @Router /enrollments/{enrollmentId} [delete]
func (h *EnrollmentHandler) cancel(w http.ResponseWriter, r *http.Request, enrollmentID string) {
	tenant, _ := middleware.TenantFromContext(r.Context())
	userID, ok := middleware.UserFromContext(r.Context())
	if !ok {
		http.Error(w, "Unauthorized: User ID not found in context", http.StatusUnauthorized)
		return
	}
	enrollment, err := h.enrollmentService.CancelEnrollment(r.Context(), tenant.ID, userID, enrollmentID)
	if err != nil {
		writeServiceError(w, err, "Failed to cancel enrollment")
		return
	}
	writeJSON(w, http.StatusOK, enrollmentResponse(enrollment))
}

func enrollmentResponse(e *model.UserEnrollment) dto.EnrollmentResponseDTO {
	return dto.EnrollmentResponseDTO{
		ID:          e.ID,
		UserID:      e.UserID,
		CourseID:    e.CourseID,
		Status:      e.Status,
		EnrolledAt:  e.EnrolledAt,
		CompletedAt: e.CompletedAt,
	}
}

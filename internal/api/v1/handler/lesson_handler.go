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

// LessonHandler handles lesson CRUD and the per-lesson progress endpoints.
type LessonHandler struct {
	lessonService   service.LessonService
	trackingService service.TrackingService
	validate        *validator.Validate
}

// NewLessonHandler creates a new LessonHandler
func NewLessonHandler(lessonService service.LessonService, trackingService service.TrackingService, validate *validator.Validate) *LessonHandler {
	return &LessonHandler{
		lessonService:   lessonService,
		trackingService: trackingService,
		validate:        validate,
	}
}

// RegisterRoutes mounts lesson routes
func (h *LessonHandler) RegisterRoutes(mux *http.ServeMux, authMw func(http.Handler) http.Handler) {
	mux.Handle("/lessons", authMw(http.HandlerFunc(h.handleCollection)))
	mux.Handle("/lessons/", authMw(http.HandlerFunc(h.handleLesson)))
}

func (h *LessonHandler) handleCollection(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.NotFound(w, r)
		return
	}
	h.createLesson(w, r)
}

func (h *LessonHandler) handleLesson(w http.ResponseWriter, r *http.Request) {
	rest := strings.TrimPrefix(r.URL.Path, "/lessons/")
	parts := strings.Split(rest, "/")

	switch {
	case len(parts) == 1 && parts[0] != "":
		lessonID := parts[0]
		switch r.Method {
		case http.MethodGet:
			h.getLesson(w, r, lessonID)
		case http.MethodPut:
			h.updateLesson(w, r, lessonID)
		case http.MethodDelete:
			h.deleteLesson(w, r, lessonID)
		default:
			http.NotFound(w, r)
		}
	case len(parts) == 2 && parts[1] == "publish" && r.Method == http.MethodPost:
		h.publishLesson(w, r, parts[0])
	case len(parts) == 2 && parts[1] == "archive" && r.Method == http.MethodPost:
		h.archiveLesson(w, r, parts[0])
	case len(parts) == 2 && parts[1] == "start" && r.Method == http.MethodPost:
		h.startLesson(w, r, parts[0])
	case len(parts) == 2 && parts[1] == "progress" && r.Method == http.MethodPost:
		h.recordProgress(w, r, parts[0])
	case len(parts) == 2 && parts[1] == "complete" && r.Method == http.MethodPost:
		h.completeLesson(w, r, parts[0])
	case len(parts) == 2 && parts[1] == "attempts" && r.Method == http.MethodGet:
		h.listAttempts(w, r, parts[0])
	default:
		http.NotFound(w, r)
	}
}

// actor resolves the acting learner from the request context.
func actor(r *http.Request) (service.Actor, bool) {
	userID, ok := middleware.UserFromContext(r.Context())
	if !ok {
		return service.Actor{}, false
	}
	a := service.Actor{UserID: userID}
	if claims, ok := middleware.ClaimsFromContext(r.Context()); ok {
		a.Email = claims.Email
	}
	return a, true
}

// createLesson godoc
// @Summary Create a lesson
// @Description Creates a draft lesson within a module.
// @Tags lessons
// @Accept json
// @Produce json
// @Param lesson body dto.LessonCreateDTO true "Lesson creation request"
// @Success 201 {object} dto.LessonResponseDTO
// @Failure 400 {string} string "Invalid JSON payload or validation failed"
// @Failure 404 {string} string "Module or media not found"
// @Router /lessons [post]
func (h *LessonHandler) createLesson(w http.ResponseWriter, r *http.Request) {
	tenant, _ := middleware.TenantFromContext(r.Context())
	var req dto.LessonCreateDTO
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid JSON payload: "+err.Error(), http.StatusBadRequest)
		return
	}
	if err := h.validate.Struct(&req); err != nil {
		http.Error(w, "Validation failed: "+err.Error(), http.StatusBadRequest)
		return
	}
	lesson := &model.Lesson{
		TenantID: tenant.ID,
		ModuleID: req.ModuleID,
		Title:    req.Title,
		Kind:     req.Kind,
		MediaID:  req.MediaID,
	}
	if req.Content != nil {
		lesson.Content = *req.Content
	}
	if req.DurationSec != nil {
		lesson.DurationSec = *req.DurationSec
	}
	if req.Position != nil {
		lesson.Position = *req.Position
	}
	created, err := h.lessonService.CreateLesson(r.Context(), lesson)
	if err != nil {
		writeServiceError(w, err, "Failed to create lesson")
		return
	}
	writeJSON(w, http.StatusCreated, lessonResponse(created))
}

// getLesson godoc
// @Summary Get a lesson
// @Tags lessons
// @Produce json
// @Param lessonId path string true "Lesson ID"
// @Success 200 {object} dto.LessonResponseDTO
// @Failure 404 {string} string "Lesson not found"
// @Router /lessons/{lessonId} [get]
func (h *LessonHandler) getLesson(w http.ResponseWriter, r *http.Request, lessonID string) {
	tenant, _ := middleware.TenantFromContext(r.Context())
	lesson, err := h.lessonService.GetLessonByID(r.Context(), tenant.ID, lessonID)
	if err != nil {
		writeServiceError(w, err, "Failed to retrieve lesson")
		return
	}
	writeJSON(w, http.StatusOK, lessonResponse(lesson))
}

// updateLesson godoc
// @Summary Update a lesson
// @Tags lessons
// @Accept json
// @Produce json
// @Param lessonId path string true "Lesson ID"
// @Param lesson body dto.LessonUpdateDTO true "Lesson update request"
// @Success 200 {object} dto.LessonResponseDTO
// @Failure 404 {string} string "Lesson not found"
// @Router /lessons/{lessonId} [put]
func (h *LessonHandler) updateLesson(w http.ResponseWriter, r *http.Request, lessonID string) {
	tenant, _ := middleware.TenantFromContext(r.Context())
	var req dto.LessonUpdateDTO
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid JSON payload: "+err.Error(), http.StatusBadRequest)
		return
	}
	if err := h.validate.Struct(&req); err != nil {
		http.Error(w, "Validation failed: "+err.Error(), http.StatusBadRequest)
		return
	}
	lesson, err := h.lessonService.GetLessonByID(r.Context(), tenant.ID, lessonID)
	if err != nil {
		writeServiceError(w, err, "Failed to retrieve lesson")
		return
	}
	if req.Title != nil {
		lesson.Title = *req.Title
	}
	if req.Kind != nil {
		lesson.Kind = *req.Kind
	}
	if req.Content != nil {
		lesson.Content = *req.Content
	}
	if req.MediaID != nil {
		lesson.MediaID = req.MediaID
	}
	if req.DurationSec != nil {
		lesson.DurationSec = *req.DurationSec
	}
	if req.Position != nil {
		lesson.Position = *req.Position
	}
	updated, err := h.lessonService.UpdateLesson(r.Context(), lesson)
	if err != nil {
		writeServiceError(w, err, "Failed to update lesson")
		return
	}
	writeJSON(w, http.StatusOK, lessonResponse(updated))
}

// publishLesson godoc
// @Summary Publish a lesson
// @Description Publishes a draft lesson. Video lessons need ready media.
// @Tags lessons
// @Produce json
// @Param lessonId path string true "Lesson ID"
// @Success 200 {object} dto.LessonResponseDTO
// @Failure 409 {string} string "Lesson cannot be published"
// @Router /lessons/{lessonId}/publish [post]
func (h *LessonHandler) publishLesson(w http.ResponseWriter, r *http.Request, lessonID string) {
	tenant, _ := middleware.TenantFromContext(r.Context())
	lesson, err := h.lessonService.PublishLesson(r.Context(), tenant.ID, lessonID)
	if err != nil {
		writeServiceError(w, err, "Failed to publish lesson")
		return
	}
	writeJSON(w, http.StatusOK, lessonResponse(lesson))
}

// archiveLesson godoc
// @Summary Archive a lesson
// @Description Archives a lesson. Archiving is terminal.
// @Tags lessons
// @Produce json
// @Param lessonId path string true "Lesson ID"
// @Success 200 {object} dto.LessonResponseDTO
// @Failure 404 {string} string "Lesson not found"
// @Router /lessons/{lessonId}/archive [post]
func (h *LessonHandler) archiveLesson(w http.ResponseWriter, r *http.Request, lessonID string) {
	tenant, _ := middleware.TenantFromContext(r.Context())
	lesson, err := h.lessonService.ArchiveLesson(r.Context(), tenant.ID, lessonID)
	if err != nil {
		writeServiceError(w, err, "Failed to archive lesson")
		return
	}
	writeJSON(w, http.StatusOK, lessonResponse(lesson))
}

// deleteLesson godoc
// @Summary Delete a lesson
// @Description Deletes a draft lesson.
// @Tags lessons
// @Param lessonId path string true "Lesson ID"
// @Success 204
// @Failure 409 {string} string "Only draft lessons can be deleted"
// @Router /lessons/{lessonId} [delete]
func (h *LessonHandler) deleteLesson(w http.ResponseWriter, r *http.Request, lessonID string) {
	tenant, _ := middleware.TenantFromContext(r.Context())
	if err := h.lessonService.DeleteLesson(r.Context(), tenant.ID, lessonID); err != nil {
		writeServiceError(w, err, "Failed to delete lesson")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// startLesson godoc
// @Summary Start or resume a lesson attempt
// @Description Creates the first attempt, resumes an open one, or starts a reattempt while under the tenant's attempt limit.
// @Tags tracking
// @Produce json
// @Param lessonId path string true "Lesson ID"
// @Success 200 {object} dto.LessonTrackResponseDTO
// @Failure 409 {string} string "No active enrollment or attempt limit reached"
// @Router /lessons/{lessonId}/start [post]
func (h *LessonHandler) startLesson(w http.ResponseWriter, r *http.Request, lessonID string) {
	tenant, _ := middleware.TenantFromContext(r.Context())
	a, ok := actor(r)
	if !ok {
		http.Error(w, "Unauthorized: User ID not found in context", http.StatusUnauthorized)
		return
	}
	track, err := h.trackingService.StartLesson(r.Context(), tenant.ID, a, lessonID)
	if err != nil {
		writeServiceError(w, err, "Failed to start lesson")
		return
	}
	writeJSON(w, http.StatusOK, lessonTrackResponse(track))
}

// recordProgress godoc
// @Summary Record progress on the open attempt
// @Description Percent never decreases within an attempt; crossing the tenant's pass threshold completes it.
// @Tags tracking
// @Accept json
// @Produce json
// @Param lessonId path string true "Lesson ID"
// @Param progress body dto.ProgressUpdateDTO true "Progress update"
// @Success 200 {object} dto.LessonTrackResponseDTO
// @Failure 409 {string} string "No attempt in progress"
// @Router /lessons/{lessonId}/progress [post]
func (h *LessonHandler) recordProgress(w http.ResponseWriter, r *http.Request, lessonID string) {
	tenant, _ := middleware.TenantFromContext(r.Context())
	a, ok := actor(r)
	if !ok {
		http.Error(w, "Unauthorized: User ID not found in context", http.StatusUnauthorized)
		return
	}
	var req dto.ProgressUpdateDTO
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid JSON payload: "+err.Error(), http.StatusBadRequest)
		return
	}
	if err := h.validate.Struct(&req); err != nil {
		http.Error(w, "Validation failed: "+err.Error(), http.StatusBadRequest)
		return
	}
	track, err := h.trackingService.RecordProgress(r.Context(), tenant.ID, a, lessonID, req.Percent, req.PositionSec)
	if err != nil {
		writeServiceError(w, err, "Failed to record progress")
		return
	}
	writeJSON(w, http.StatusOK, lessonTrackResponse(track))
}

// completeLesson godoc
// @Summary Complete the open attempt
// @Description Marks the open attempt completed regardless of recorded percent. Idempotent.
// @Tags tracking
// @Produce json
// @Param lessonId path string true "Lesson ID"
// @Success 200 {object} dto.LessonTrackResponseDTO
// @Failure 409 {string} string "No attempt in progress"
// @Router /lessons/{lessonId}/complete [post]
func (h *LessonHandler) completeLesson(w http.ResponseWriter, r *http.Request, lessonID string) {
	tenant, _ := middleware.TenantFromContext(r.Context())
	a, ok := actor(r)
	if !ok {
		http.Error(w, "Unauthorized: User ID not found in context", http.StatusUnauthorized)
		return
	}
	track, err := h.trackingService.CompleteLesson(r.Context(), tenant.ID, a, lessonID)
	if err != nil {
		writeServiceError(w, err, "Failed to complete lesson")
		return
	}
	writeJSON(w, http.StatusOK, lessonTrackResponse(track))
}

// listAttempts godoc
// @Summary List the caller's attempts at a lesson
// @Tags tracking
// @Produce json
// @Param lessonId path string true "Lesson ID"
// @Success 200 {array} dto.LessonTrackResponseDTO
// @Router /lessons/{lessonId}/attempts [get]
func (h *LessonHandler) listAttempts(w http.ResponseWriter, r *http.Request, lessonID string) {
	tenant, _ := middleware.TenantFromContext(r.Context())
	userID, ok := middleware.UserFromContext(r.Context())
	if !ok {
		http.Error(w, "Unauthorized: User ID not found in context", http.StatusUnauthorized)
		return
	}
	tracks, err := h.trackingService.ListLessonAttempts(r.Context(), tenant.ID, userID, lessonID)
	if err != nil {
		writeServiceError(w, err, "Failed to list attempts")
		return
	}
	resp := make([]dto.LessonTrackResponseDTO, 0, len(tracks))
	for i := range tracks {
		resp = append(resp, lessonTrackResponse(&tracks[i]))
	}
	writeJSON(w, http.StatusOK, resp)
}

func lessonResponse(l *model.Lesson) dto.LessonResponseDTO {
	return dto.LessonResponseDTO{
		ID:          l.ID,
		CourseID:    l.CourseID,
		ModuleID:    l.ModuleID,
		Title:       l.Title,
		Kind:        l.Kind,
		Content:     l.Content,
		MediaID:     l.MediaID,
		DurationSec: l.DurationSec,
		Position:    l.Position,
		Status:      l.Status,
		CreatedAt:   l.CreatedAt,
		UpdatedAt:   l.UpdatedAt,
	}
}

func lessonTrackResponse(t *model.LessonTrack) dto.LessonTrackResponseDTO {
	return dto.LessonTrackResponseDTO{
		ID:          t.ID,
		LessonID:    t.LessonID,
		CourseID:    t.CourseID,
		Attempt:     t.Attempt,
		Percent:     t.PercentComplete,
		PositionSec: t.PositionSec,
		Status:      t.Status,
		StartedAt:   t.StartedAt,
		CompletedAt: t.CompletedAt,
	}
}
